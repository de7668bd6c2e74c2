package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-gate-control/internal/model"
)

// RequireRole admits the request when the attached user's role includes any
// of roles.  Admin includes every role.  It must run after RequireSession.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u, ok := CurrentUser(c)
			if !ok {
				return unauthorized(c, "Not authenticated")
			}
			if !Allowed(u.Role, roles...) {
				return c.JSON(http.StatusForbidden, echo.Map{"ok": false, "message": "Forbidden"})
			}
			return next(c)
		}
	}
}

// Allowed reports whether have satisfies at least one of required.
func Allowed(have model.Role, required ...model.Role) bool {
	for _, r := range required {
		if have.Includes(r) {
			return true
		}
	}
	return false
}
