package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/parking-gate-control/internal/config"
	"github.com/iliyamo/parking-gate-control/internal/database"
	"github.com/iliyamo/parking-gate-control/internal/model"
	"github.com/iliyamo/parking-gate-control/internal/repository"
)

const commandTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:           "gatectl",
	Short:         "Parking gate control administration",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// userStore is the provisioning surface of repository.UserRepo.
type userStore interface {
	Create(ctx context.Context, email, password string, role model.Role, name string, cost int) (string, error)
	UpsertAdmin(ctx context.Context, email, password string, cost int) (bool, error)
	UpdateRole(ctx context.Context, email string, role model.Role) error
	UpdatePassword(ctx context.Context, email, password string, cost int) error
}

// withUsers loads configuration, connects to the credential store and runs fn.
func withUsers(cmd *cobra.Command, fn func(ctx context.Context, cfg config.Config, users userStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	db, err := database.Open(ctx, cfg.MySQLDSN())
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	return fn(ctx, cfg, repository.NewUserRepo(db))
}
