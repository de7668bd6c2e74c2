package relay

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"

	"github.com/iliyamo/parking-gate-control/internal/model"
)

// FirebaseStore writes to a Firebase Realtime Database: commands are pushed
// under /gates/{id}/commands and the latest one is set at
// /gates/{id}/lastCommand.  Push keys serve as command keys.
type FirebaseStore struct {
	db *db.Client
}

// OpenFirebase returns an Opener using a service account JSON file.
func OpenFirebase(credentialsPath, databaseURL string) Opener {
	return func(ctx context.Context) (Store, error) {
		if _, err := os.Stat(credentialsPath); err != nil {
			return nil, fmt.Errorf("firebase service account key: %w", err)
		}
		app, err := firebase.NewApp(ctx, &firebase.Config{DatabaseURL: databaseURL},
			option.WithCredentialsFile(credentialsPath))
		if err != nil {
			return nil, fmt.Errorf("firebase app: %w", err)
		}
		client, err := app.Database(ctx)
		if err != nil {
			return nil, fmt.Errorf("firebase database: %w", err)
		}
		return &FirebaseStore{db: client}, nil
	}
}

func (s *FirebaseStore) Append(ctx context.Context, gateID string, cmd model.GateCommand) (string, error) {
	ref, err := s.db.NewRef("gates/"+gateID+"/commands").Push(ctx, cmd)
	if err != nil {
		return "", err
	}
	return ref.Key, nil
}

func (s *FirebaseStore) SetLast(ctx context.Context, gateID string, cmd model.GateCommand) error {
	return s.db.NewRef("gates/"+gateID+"/lastCommand").Set(ctx, cmd)
}

func (s *FirebaseStore) Last(ctx context.Context, gateID string) (model.GateCommand, error) {
	var cmd model.GateCommand
	if err := s.db.NewRef("gates/"+gateID+"/lastCommand").Get(ctx, &cmd); err != nil {
		return model.GateCommand{}, err
	}
	if cmd.TS == 0 && cmd.Action == "" {
		return model.GateCommand{}, ErrNoCommand
	}
	return cmd, nil
}

// Close is a no-op; the Firebase client has no connection to release.
func (s *FirebaseStore) Close() error { return nil }
