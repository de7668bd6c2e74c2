// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/config"
	"github.com/iliyamo/parking-gate-control/internal/handler"
	"github.com/iliyamo/parking-gate-control/internal/middleware"
	"github.com/iliyamo/parking-gate-control/internal/model"
)

// Deps carries everything the routes need.  Redis may be nil, which turns
// off response caching.
type Deps struct {
	Auth      *handler.AuthHandler
	Gate      *handler.GateHandler
	Occupancy *handler.OccupancyHandler
	Vehicles  *handler.VehicleHandler

	Tokens     middleware.TokenVerifier
	Users      middleware.UserLoader
	CookieName string
	Cache      config.CacheConfig
	Redis      *redis.Client
	Log        *zap.Logger
}

// RegisterRoutes mounts every endpoint under /api.
func RegisterRoutes(e *echo.Echo, d Deps) {
	api := e.Group("/api")
	api.GET("/health", handler.Health)

	auth := api.Group("/auth")
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)

	session := middleware.RequireSession(d.Tokens, d.Users, d.CookieName, d.Log)
	auth.GET("/me", d.Auth.Me, session)

	// Readers accept viewers and operators; admin passes every check.
	read := middleware.RequireRole(model.RoleViewer, model.RoleOperator)
	operate := middleware.RequireRole(model.RoleOperator)

	api.POST("/gate/:id/command", d.Gate.Command, session, operate)
	api.GET("/gate/:id/last", d.Gate.Last, session, read)

	api.GET("/occupancy", d.Occupancy.Get, session, read)
	api.POST("/occupancy/adjust", d.Occupancy.Adjust, session, operate)

	api.GET("/vehicles", d.Vehicles.List, session, read, middleware.NewRedisCache(d.Cache, d.Redis))
}
