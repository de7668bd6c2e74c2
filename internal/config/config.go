package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultJWTSecret is only accepted outside production.
const DefaultJWTSecret = "dev_secret"

// ErrMissingSecret is returned by Load when production runs without JWT_SECRET.
var ErrMissingSecret = errors.New("JWT_SECRET must be set in production")

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; nested structs group the optional subsystems.
type Config struct {
	Env          string        // application environment (development, production)
	Port         string        // HTTP port to listen on
	DBUser       string        // database username
	DBPass       string        // database password (optional)
	DBHost       string        // database host address
	DBPort       string        // database port number
	DBName       string        // database name
	JWTSecret    string        // secret used to sign session tokens
	TokenTTL     time.Duration // session token lifetime
	CookieName   string        // name of the session cookie
	BcryptCost   int           // bcrypt cost for password hashing
	CORSOrigin   string        // allowed cross-origin caller
	TotalSlots   int           // capacity reported by the occupancy counter
	DefaultAdmin AdminSeed     // defaults for the seed-admin command
	Relay        RelayConfig
	RabbitMQURL  string // empty disables command events
	RateLimit    RateLimitConfig
	Cache        CacheConfig
	Redis        RedisConfig
}

// AdminSeed carries the credentials offered by gatectl seed-admin.
type AdminSeed struct {
	Email    string
	Password string
}

// Production reports whether the service runs with production hardening
// (Secure cookies, mandatory signing secret, JSON logs).
func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is loaded first when
// present; variables already set in the environment win.  The only fatal
// condition is a production environment without a signing secret.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:        envStr("APP_ENV", "development"),
		Port:       envStr("APP_PORT", "4000"),
		DBUser:     envStr("DB_USER", "gate"),
		DBPass:     os.Getenv("DB_PASS"),
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envStr("DB_PORT", "3306"),
		DBName:     envStr("DB_NAME", "gate_control"),
		JWTSecret:  strings.TrimSpace(os.Getenv("JWT_SECRET")),
		TokenTTL:   envTTL("JWT_EXPIRES_IN", 7*24*time.Hour),
		CookieName: envStr("COOKIE_NAME", "pc_sess"),
		BcryptCost: envInt("BCRYPT_COST", 12),
		CORSOrigin: envStr("CORS_ORIGIN", "http://localhost:3000"),
		TotalSlots: envInt("TOTAL_SLOTS", 100),
		DefaultAdmin: AdminSeed{
			Email:    envStr("DEFAULT_ADMIN_EMAIL", "admin@example.com"),
			Password: envStr("DEFAULT_ADMIN_PW", "admin123"),
		},
		Relay:       LoadRelayConfig(),
		RabbitMQURL: firstEnv("RABBITMQ_URL", "AMQP_URL"),
		RateLimit:   LoadRateLimitConfig(),
		Cache:       LoadCacheConfig(),
		Redis:       LoadRedisConfig(),
	}
	if cfg.JWTSecret == "" {
		if cfg.Production() {
			return cfg, ErrMissingSecret
		}
		cfg.JWTSecret = DefaultJWTSecret
	}
	if cfg.TotalSlots < 0 {
		return cfg, fmt.Errorf("invalid TOTAL_SLOTS: %d", cfg.TotalSlots)
	}
	return cfg, nil
}

// MySQLDSN builds the go-sql-driver DSN for the configured database.
// clientFoundRows makes UPDATE report matched rather than changed rows.
func (c Config) MySQLDSN() string {
	auth := c.DBUser
	if c.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", c.DBUser, c.DBPass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, c.DBHost, c.DBPort, c.DBName)
}

// envTTL accepts Go durations ("168h") as well as whole days ("7d").
func envTTL(k string, d time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return d
	}
	if ttl, ok := parseTTL(v); ok {
		return ttl
	}
	return d
}

func parseTTL(v string) (time.Duration, bool) {
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, false
		}
		return time.Duration(n) * 24 * time.Hour, true
	}
	ttl, err := time.ParseDuration(v)
	if err != nil || ttl <= 0 {
		return 0, false
	}
	return ttl, true
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
