package relay

import (
	"github.com/iliyamo/parking-gate-control/internal/config"
)

// FromConfig builds the handle for cfg without connecting.
func FromConfig(cfg config.RelayConfig) *Handle {
	if !cfg.Configured() {
		return Disabled()
	}
	switch cfg.Backend {
	case config.RelayRedis:
		return NewHandle(config.RelayRedis, OpenRedis(cfg.RedisURL))
	case config.RelayFirebase:
		return NewHandle(config.RelayFirebase, OpenFirebase(cfg.FirebaseCredentials, cfg.FirebaseDatabaseURL))
	}
	return Disabled()
}
