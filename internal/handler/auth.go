package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/parking-gate-control/internal/middleware"
	"github.com/iliyamo/parking-gate-control/internal/model"
	"github.com/iliyamo/parking-gate-control/internal/repository"
	"github.com/iliyamo/parking-gate-control/internal/token"
	"github.com/iliyamo/parking-gate-control/internal/utils"
)

// CredentialLookup finds a user, password hash included, by email.
type CredentialLookup interface {
	GetByEmail(ctx context.Context, email string) (model.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Issue(u model.User) (token.Token, error)
	TTL() time.Duration
}

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users  CredentialLookup
	Tokens TokenIssuer
	Cookie CookieSettings
	// BcryptCost is the cost stored hashes use; unknown-email rejections
	// burn a compare of the same cost.
	BcryptCost int
	Log        *zap.Logger
}

func NewAuthHandler(users CredentialLookup, tokens TokenIssuer, cookie CookieSettings, bcryptCost int, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{Users: users, Tokens: tokens, Cookie: cookie, BcryptCost: bcryptCost, Log: log}
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and sets the session cookie.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Missing email or password")
	}
	email := repository.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Missing email or password")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			utils.BurnCompare(req.Password, h.BcryptCost)
			return fail(c, http.StatusUnauthorized, "Invalid credentials")
		}
		h.Log.Error("login: lookup failed", zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, "Invalid credentials")
	}

	tok, err := h.Tokens.Issue(u)
	if err != nil {
		h.Log.Error("login: issue token failed", zap.String("user_id", u.ID), zap.Error(err))
		return fail(c, http.StatusInternalServerError, "Server error")
	}
	c.SetCookie(h.sessionCookie(tok.Raw, int(h.Tokens.TTL()/time.Second)))
	h.Log.Info("login", zap.String("user_id", u.ID), zap.String("role", string(u.Role)))
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "redirect": "/dashboard"})
}

// Logout clears the session cookie.  Issued tokens stay valid until expiry.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(h.sessionCookie("", -1))
	return c.JSON(http.StatusOK, echo.Map{"ok": true})
}

// Me returns the user attached by the session middleware.
func (h *AuthHandler) Me(c echo.Context) error {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		return fail(c, http.StatusUnauthorized, "Not authenticated")
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": u})
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.Cookie.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
