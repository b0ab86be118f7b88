package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mbellini/userhub/internal/domain/user"
	"github.com/mbellini/userhub/internal/observability"
)

const rosterKey = "userhub:roster"

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisRoster shares the roster read model across processes.
type RedisRoster struct {
	rdb  *redis.Client
	ttl  time.Duration
	prom *observability.Prom
}

func NewRedisRoster(cfg RedisConfig, ttl time.Duration, prom *observability.Prom) *RedisRoster {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &RedisRoster{
		rdb:  rdb,
		ttl:  ttl,
		prom: prom,
	}
}

func (c *RedisRoster) Get(ctx context.Context) ([]user.RosterEntry, bool) {
	raw, err := c.rdb.Get(ctx, rosterKey).Bytes()

	if err != nil {
		// missing key and transient errors both mean recompute
		if c.prom != nil {
			c.prom.RosterCacheMisses.Inc()
		}
		return nil, false
	}

	var entries []user.RosterEntry

	if err := json.Unmarshal(raw, &entries); err != nil {
		if c.prom != nil {
			c.prom.RosterCacheMisses.Inc()
		}
		return nil, false
	}

	if c.prom != nil {
		c.prom.RosterCacheHits.Inc()
	}

	return entries, true
}

func (c *RedisRoster) Set(ctx context.Context, entries []user.RosterEntry) {
	raw, err := json.Marshal(entries)

	if err != nil {
		return
	}

	_ = c.rdb.Set(ctx, rosterKey, raw, c.ttl).Err()
}

func (c *RedisRoster) Clear(ctx context.Context) {
	_ = c.rdb.Del(ctx, rosterKey).Err()
}

// Ping checks redis connectivity at startup.
func (c *RedisRoster) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisRoster) Close() error {
	return c.rdb.Close()
}
