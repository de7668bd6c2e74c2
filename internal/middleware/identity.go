package middleware

// identity.go holds the context plumbing shared by the middleware in this
// package.  RequireSession stores the freshly loaded user; RequireRole and the
// rate limiter read it back.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-gate-control/internal/model"
)

type ctxKey string

const userKey ctxKey = "gate.user"

// SetUser attaches u to the request context.
func SetUser(c echo.Context, u model.User) {
	c.Set(string(userKey), u)
}

// CurrentUser returns the user attached by RequireSession.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(string(userKey)).(model.User)
	return u, ok
}

// userID returns the authenticated user's id or "guest".
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok && u.ID != "" {
		return u.ID
	}
	return "guest"
}
