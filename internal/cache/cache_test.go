package cache

import (
	"context"
	"testing"
	"time"

	"github.com/mbellini/userhub/internal/domain/user"
)

func TestRosterCacheRoundTrip(t *testing.T) {
	c := NewRoster(time.Minute, nil)
	ctx := context.Background()

	if _, ok := c.Get(ctx); ok {
		t.Fatal("empty cache reported a hit")
	}

	entries := []user.RosterEntry{{Username: "jake", ArticlesCount: 2}}
	c.Set(ctx, entries)

	got, ok := c.Get(ctx)

	if !ok {
		t.Fatal("expected a hit after Set")
	}

	if len(got) != 1 || got[0].Username != "jake" {
		t.Errorf("got %+v", got)
	}
}

func TestRosterCacheExpires(t *testing.T) {
	c := NewRoster(10*time.Millisecond, nil)
	ctx := context.Background()

	c.Set(ctx, []user.RosterEntry{{Username: "jake"}})

	time.Sleep(25 * time.Millisecond)

	if _, ok := c.Get(ctx); ok {
		t.Fatal("expired entry still served")
	}
}

func TestRosterCacheClear(t *testing.T) {
	c := NewRoster(time.Minute, nil)
	ctx := context.Background()

	c.Set(ctx, []user.RosterEntry{{Username: "jake"}})
	c.Clear(ctx)

	if _, ok := c.Get(ctx); ok {
		t.Fatal("cleared entry still served")
	}
}
