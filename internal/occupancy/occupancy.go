// Package occupancy keeps a single lot-wide occupied-slots counter in Redis.
package occupancy

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned when no Redis client is configured.
var ErrUnavailable = errors.New("occupancy: counter unavailable")

const occupiedKey = "occupancy:occupied"

// adjust adds ARGV[1] to the counter and clamps the result to [0, ARGV[2]].
var adjust = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local nxt = cur + tonumber(ARGV[1])
local max = tonumber(ARGV[2])
if nxt < 0 then nxt = 0 end
if nxt > max then nxt = max end
redis.call('SET', KEYS[1], nxt)
return nxt
`)

// Snapshot is the state reported to clients.
type Snapshot struct {
	Total    int `json:"total"`
	Occupied int `json:"occupied"`
	Free     int `json:"free"`
}

// Counter is safe for concurrent use; every update is one atomic script run.
type Counter struct {
	rdb   *redis.Client
	total int
}

// NewCounter returns a counter over total slots.  rdb may be nil, in which
// case every call reports ErrUnavailable.
func NewCounter(rdb *redis.Client, total int) *Counter {
	return &Counter{rdb: rdb, total: total}
}

// Get returns the current snapshot.  A counter above total (after TOTAL_SLOTS
// shrank) is reported as full.
func (c *Counter) Get(ctx context.Context) (Snapshot, error) {
	if c.rdb == nil {
		return Snapshot{}, ErrUnavailable
	}
	n, err := c.rdb.Get(ctx, occupiedKey).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return Snapshot{}, fmt.Errorf("get occupancy: %w", err)
	}
	return c.snapshot(n), nil
}

// Adjust moves the counter by delta, clamped to [0, total].
func (c *Counter) Adjust(ctx context.Context, delta int) (Snapshot, error) {
	if c.rdb == nil {
		return Snapshot{}, ErrUnavailable
	}
	n, err := adjust.Run(ctx, c.rdb, []string{occupiedKey}, delta, c.total).Int()
	if err != nil {
		return Snapshot{}, fmt.Errorf("adjust occupancy: %w", err)
	}
	return c.snapshot(n), nil
}

func (c *Counter) snapshot(n int) Snapshot {
	n = max(0, min(n, c.total))
	return Snapshot{Total: c.total, Occupied: n, Free: c.total - n}
}
