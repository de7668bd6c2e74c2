package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_EXPIRES_IN", "")
	t.Setenv("COOKIE_NAME", "")
	t.Setenv("RELAY_BACKEND", "")
	t.Setenv("RELAY_REDIS_URL", "")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("FIREBASE_DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, DefaultJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "pc_sess", cfg.CookieName)
	assert.Equal(t, RelayNone, cfg.Relay.Backend)
	assert.False(t, cfg.Relay.Configured())
	assert.False(t, cfg.Production())
}

func TestLoad_ProductionRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingSecret)
}

func TestLoad_ProductionWithSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Production())
	assert.Equal(t, "s3cret", cfg.JWTSecret)
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"7d", 7 * 24 * time.Hour, true},
		{"1d", 24 * time.Hour, true},
		{"90m", 90 * time.Minute, true},
		{"0d", 0, false},
		{"-5m", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseTTL(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadRelayConfig_Inference(t *testing.T) {
	t.Setenv("RELAY_BACKEND", "")
	t.Setenv("RELAY_REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("FIREBASE_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("FIREBASE_DATABASE_URL", "")

	cfg := LoadRelayConfig()
	assert.Equal(t, RelayRedis, cfg.Backend)
	assert.True(t, cfg.Configured())

	t.Setenv("FIREBASE_SERVICE_ACCOUNT_PATH", "./key.json")
	t.Setenv("FIREBASE_DATABASE_URL", "https://example.firebaseio.com")
	cfg = LoadRelayConfig()
	assert.Equal(t, RelayFirebase, cfg.Backend)

	t.Setenv("RELAY_BACKEND", "redis")
	t.Setenv("RELAY_REDIS_URL", "")
	cfg = LoadRelayConfig()
	assert.Equal(t, RelayRedis, cfg.Backend)
	assert.False(t, cfg.Configured())
}

func TestMySQLDSN(t *testing.T) {
	cfg := Config{DBUser: "gate", DBPass: "pw", DBHost: "db", DBPort: "3306", DBName: "gates"}
	assert.Equal(t,
		"gate:pw@tcp(db:3306)/gates?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		cfg.MySQLDSN())

	cfg.DBPass = ""
	assert.Contains(t, cfg.MySQLDSN(), "gate@tcp(db:3306)/gates")
}
