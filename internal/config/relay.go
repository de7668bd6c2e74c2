package config

import (
	"os"
	"strings"
	"time"
)

// Relay backends understood by RelayConfig.Backend.
const (
	RelayNone     = ""
	RelayRedis    = "redis"
	RelayFirebase = "firebase"
)

// RelayConfig selects the downstream store that gate devices read commands
// from.  An empty Backend after inference means the service runs in
// degraded mode: commands are accepted but not forwarded.
type RelayConfig struct {
	Backend string
	// RedisURL is a redis:// or rediss:// URL for the Redis Streams relay.
	RedisURL string
	// FirebaseCredentials is the path to a service account JSON file.
	FirebaseCredentials string
	FirebaseDatabaseURL string
	// Timeout bounds each downstream write.
	Timeout time.Duration
}

// LoadRelayConfig reads RELAY_* and FIREBASE_* variables.  When
// RELAY_BACKEND is unset the backend is inferred from whichever credentials
// are present, Firebase first.
func LoadRelayConfig() RelayConfig {
	cfg := RelayConfig{
		Backend:             strings.ToLower(strings.TrimSpace(os.Getenv("RELAY_BACKEND"))),
		RedisURL:            strings.TrimSpace(os.Getenv("RELAY_REDIS_URL")),
		FirebaseCredentials: strings.TrimSpace(os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")),
		FirebaseDatabaseURL: strings.TrimSpace(os.Getenv("FIREBASE_DATABASE_URL")),
		Timeout:             envDur("RELAY_TIMEOUT", 3*time.Second),
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.Backend == RelayNone {
		cfg.Backend = cfg.infer()
	}
	return cfg
}

func (c RelayConfig) infer() string {
	switch {
	case c.FirebaseCredentials != "" && c.FirebaseDatabaseURL != "":
		return RelayFirebase
	case c.RedisURL != "":
		return RelayRedis
	}
	return RelayNone
}

// Configured reports whether the selected backend has everything it needs.
func (c RelayConfig) Configured() bool {
	switch c.Backend {
	case RelayRedis:
		return c.RedisURL != ""
	case RelayFirebase:
		return c.FirebaseCredentials != "" && c.FirebaseDatabaseURL != ""
	}
	return false
}
