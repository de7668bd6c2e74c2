// Package token issues and verifies the signed session tokens handed to
// clients at login.  Tokens are HS256 JWTs carrying the subject id plus a
// snapshot of the role and email at issue time.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/parking-gate-control/internal/model"
)

// ErrInvalidToken is returned for any token that does not verify: bad
// signature, unexpected algorithm, malformed payload or expiry.
var ErrInvalidToken = errors.New("invalid token")

// Token is a signed session token along with its expiry.
type Token struct {
	Raw       string
	ExpiresAt time.Time
}

// Identity is the verified content of a session token.  Role and Email are
// snapshots and may be stale; callers needing the live role reload the user.
type Identity struct {
	Subject   string
	Role      model.Role
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Role  string `json:"role"`
	Email string `json:"email"`
}

// Service signs tokens with a shared secret.  It holds no other state.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService returns a Service using secret and ttl.
func NewService(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TTL returns the configured token lifetime.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue signs a token for u expiring TTL from now.
func (s *Service) Issue(u model.User) (Token, error) {
	if u.ID == "" {
		return Token{}, errors.New("token: user has no id")
	}
	now := s.now().UTC()
	exp := now.Add(s.ttl)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role:  string(u.Role),
		Email: u.Email,
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("token: sign: %w", err)
	}
	return Token{Raw: signed, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Verify checks the signature and expiry of raw and returns its identity.
// There is no leeway: a token is rejected from its expiry second onwards.
func (s *Service) Verify(raw string) (Identity, error) {
	var c claims
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if c.Subject == "" || c.ExpiresAt == nil {
		return Identity{}, ErrInvalidToken
	}
	id := Identity{
		Subject:   c.Subject,
		Role:      model.Role(c.Role),
		Email:     c.Email,
		ExpiresAt: c.ExpiresAt.Time,
	}
	if c.IssuedAt != nil {
		id.IssuedAt = c.IssuedAt.Time
	}
	return id, nil
}
