// Package server assembles the echo instance and owns its lifecycle.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/config"
	"github.com/iliyamo/parking-gate-control/internal/middleware"
	"github.com/iliyamo/parking-gate-control/internal/router"
)

// Server wraps the echo instance with the process configuration.
type Server struct {
	Echo *echo.Echo
	cfg  config.Config
	log  *zap.Logger
}

// New builds the echo instance with the global middleware chain and all
// routes.  rdb may be nil.
func New(cfg config.Config, deps router.Deps, rdb *redis.Client, log *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(log)

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())
	e.Use(echomw.SecureWithConfig(echomw.SecureConfig{
		XSSProtection:      "0",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         hstsMaxAge(cfg),
		ReferrerPolicy:     "no-referrer",
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins(cfg.CORSOrigin),
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(echomw.BodyLimit("64K"))
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb, log))

	deps.Redis = rdb
	deps.Cache = cfg.Cache
	deps.CookieName = cfg.CookieName
	if deps.Log == nil {
		deps.Log = log
	}
	router.RegisterRoutes(e, deps)
	return &Server{Echo: e, cfg: cfg, log: log}
}

// Start blocks serving on the configured port until Shutdown.
func (s *Server) Start() error {
	addr := ":" + s.cfg.Port
	s.log.Info("listening", zap.String("addr", addr), zap.String("env", s.cfg.Env))
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

func hstsMaxAge(cfg config.Config) int {
	if cfg.Production() {
		return int((180 * 24 * time.Hour) / time.Second)
	}
	return 0
}

func origins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// errorHandler maps echo errors onto the {ok:false,message} body.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := http.StatusInternalServerError, "Server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if status < http.StatusInternalServerError {
				if m, ok := he.Message.(string); ok {
					msg = m
				} else {
					msg = http.StatusText(status)
				}
			}
		}
		if status >= http.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Request().URL.Path), zap.Error(err))
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, echo.Map{"ok": false, "message": msg})
	}
}
