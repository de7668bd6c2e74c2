package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/config"
	"github.com/iliyamo/parking-gate-control/internal/database"
	"github.com/iliyamo/parking-gate-control/internal/dispatch"
	"github.com/iliyamo/parking-gate-control/internal/handler"
	"github.com/iliyamo/parking-gate-control/internal/logging"
	"github.com/iliyamo/parking-gate-control/internal/occupancy"
	"github.com/iliyamo/parking-gate-control/internal/relay"
	"github.com/iliyamo/parking-gate-control/internal/repository"
	"github.com/iliyamo/parking-gate-control/internal/router"
	"github.com/iliyamo/parking-gate-control/internal/server"
	"github.com/iliyamo/parking-gate-control/internal/service"
	"github.com/iliyamo/parking-gate-control/internal/token"
)

func main() {
	cfg, err := config.Load()
	log := logging.Must(cfg.Production())
	defer func() { _ = log.Sync() }()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET not set, using the development default")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.MySQLDSN())
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting, caching and occupancy disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	gates := relay.FromConfig(cfg.Relay)
	defer gates.Close()
	if gates.Backend() == "" {
		log.Warn("relay not configured, commands will not be pushed")
	}

	opts := []dispatch.Option{dispatch.WithTimeout(cfg.Relay.Timeout)}
	if pub := service.NewCommandPublisher(cfg.RabbitMQURL, log); pub != nil {
		defer pub.Close()
		opts = append(opts, dispatch.WithPublisher(pub))
	}

	users := repository.NewUserRepo(db)
	tokens := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	deps := router.Deps{
		Auth:      handler.NewAuthHandler(users, tokens, handler.CookieSettings{Name: cfg.CookieName, Secure: cfg.Production()}, cfg.BcryptCost, log),
		Gate:      handler.NewGateHandler(dispatch.New(gates, log, opts...)),
		Occupancy: handler.NewOccupancyHandler(occupancy.NewCounter(rdb, cfg.TotalSlots), log),
		Vehicles:  handler.NewVehicleHandler(repository.NewVehicleRepo(db), log),
		Tokens:    tokens,
		Users:     users,
		Log:       log,
	}
	srv := server.New(cfg, deps, rdb, log)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal("server failed", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
