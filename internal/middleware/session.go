package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/model"
	"github.com/iliyamo/parking-gate-control/internal/repository"
	"github.com/iliyamo/parking-gate-control/internal/token"
)

// TokenVerifier checks a raw session token.
type TokenVerifier interface {
	Verify(raw string) (token.Identity, error)
}

// UserLoader fetches the current state of a user.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

const lookupTimeout = 5 * time.Second

// RequireSession authenticates the request from the session cookie, or from
// an "Authorization: Bearer" header when the cookie is absent.  The user is
// reloaded from the store on every request so role changes and deletions take
// effect before the token expires.
func RequireSession(tokens TokenVerifier, users UserLoader, cookieName string, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := sessionToken(c, cookieName)
			if raw == "" {
				return unauthorized(c, "Not authenticated")
			}
			id, err := tokens.Verify(raw)
			if err != nil {
				return unauthorized(c, "Invalid token")
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), lookupTimeout)
			defer cancel()
			u, err := users.GetByID(ctx, id.Subject)
			switch {
			case errors.Is(err, repository.ErrUserNotFound):
				return unauthorized(c, "User not found")
			case err != nil:
				log.Error("session: user lookup failed", zap.String("user_id", id.Subject), zap.Error(err))
				return unauthorized(c, "Invalid token")
			}
			SetUser(c, u)
			return next(c)
		}
	}
}

func sessionToken(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if raw, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return strings.TrimSpace(raw)
	}
	return ""
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "message": msg})
}
