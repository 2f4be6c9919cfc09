package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorrc/helpdesk/internal/core/domain"
	"github.com/lorrc/helpdesk/internal/core/ports"
)

// DashboardCache stores serialized dashboards under a key prefix with a TTL.
// The TTL bounds staleness if an invalidation is ever lost.
type DashboardCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ ports.DashboardCache = (*DashboardCache)(nil)

func NewDashboardCache(client *redis.Client, prefix string, ttl time.Duration) *DashboardCache {
	return &DashboardCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *DashboardCache) Get(ctx context.Context, key string) (*domain.Dashboard, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var dashboard domain.Dashboard
	if err := json.Unmarshal(raw, &dashboard); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return nil, false, fmt.Errorf("decode cached dashboard: %w", err)
	}
	return &dashboard, true, nil
}

// setIfGeneration stores ARGV[2] under KEYS[1] with a PX of ARGV[3] only while
// the generation counter KEYS[2] (absent counts as 0) still equals ARGV[1].
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

func (c *DashboardCache) generationKey(key string) string {
	return c.prefix + "gen:" + key
}

// Generation returns the number of invalidations key has seen. Counters are
// never expired, so a counter cannot fall back to a value a reader already holds.
func (c *DashboardCache) Generation(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Get(ctx, c.generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

// Set stores dashboard unless key was invalidated after generation was read.
func (c *DashboardCache) Set(ctx context.Context, key string, generation int64, dashboard *domain.Dashboard) (bool, error) {
	raw, err := json.Marshal(dashboard)
	if err != nil {
		return false, fmt.Errorf("encode dashboard: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{c.prefix + key, c.generationKey(key)},
		strconv.FormatInt(generation, 10), raw, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return stored == 1, nil
}

// Invalidate drops the keys and bumps their generations in one transaction,
// so fills computed before this call are refused.
func (c *DashboardCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, c.generationKey(k))
			pipe.Del(ctx, c.prefix+k)
		}
		return nil
	})
	return err
}

// Ping verifies Redis connectivity for readiness checks.
func (c *DashboardCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
