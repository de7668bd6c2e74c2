package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/parking-gate-control/internal/model"
)

// streamMaxLen caps each gate's command stream; trimming is approximate.
const streamMaxLen = 10000

// RedisStore keeps each gate's command log in a Redis stream
// (gates:{id}:commands) and its last command in a plain key
// (gates:{id}:lastCommand).  Stream entry ids serve as command keys.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// OpenRedis returns an Opener for a redis:// URL.
func OpenRedis(url string) Opener {
	return func(ctx context.Context) (Store, error) {
		opt, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("relay redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("relay redis ping: %w", err)
		}
		return NewRedisStore(rdb), nil
	}
}

func commandsKey(gateID string) string { return "gates:" + gateID + ":commands" }
func lastKey(gateID string) string     { return "gates:" + gateID + ":lastCommand" }

func (s *RedisStore) Append(ctx context.Context, gateID string, cmd model.GateCommand) (string, error) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return "", err
	}
	return s.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: commandsKey(gateID),
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{"command": payload},
	}).Result()
}

func (s *RedisStore) SetLast(ctx context.Context, gateID string, cmd model.GateCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, lastKey(gateID), payload, 0).Err()
}

func (s *RedisStore) Last(ctx context.Context, gateID string) (model.GateCommand, error) {
	bs, err := s.rdb.Get(ctx, lastKey(gateID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.GateCommand{}, ErrNoCommand
	}
	if err != nil {
		return model.GateCommand{}, err
	}
	var cmd model.GateCommand
	if err := json.Unmarshal(bs, &cmd); err != nil {
		return model.GateCommand{}, fmt.Errorf("decode last command: %w", err)
	}
	return cmd, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
