package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mbellini/userhub/internal/domain/user"
	"github.com/mbellini/userhub/internal/observability"
)

// Roster is a single-value TTL cache for the roster read model, used when no
// Redis address is configured.
type Roster struct {
	mu   sync.RWMutex
	ttl  time.Duration
	prom *observability.Prom

	entries []user.RosterEntry
	exp     time.Time
}

func NewRoster(ttl time.Duration, prom *observability.Prom) *Roster {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Roster{
		ttl:  ttl,
		prom: prom,
	}
}

func (c *Roster) Get(ctx context.Context) ([]user.RosterEntry, bool) {
	c.mu.RLock()
	entries, exp := c.entries, c.exp
	c.mu.RUnlock()

	if entries == nil || time.Now().After(exp) {
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

func (c *Roster) Set(ctx context.Context, entries []user.RosterEntry) {
	c.mu.Lock()
	c.entries = entries
	c.exp = time.Now().Add(c.ttl)
	c.mu.Unlock()
}

// Clear drops the cached roster; called after any write that changes it.
func (c *Roster) Clear(ctx context.Context) {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
