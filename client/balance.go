package client

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// balanceTTL is the debounce window: refreshes inside it answer from cache
// without touching the network.
const balanceTTL = 2 * time.Second

// BalanceCache holds the last-known credit balance. Refresh is TTL-debounced
// and single-flight, so a burst of concurrent callers produces exactly one
// profile request; Set applies a balance carried on another response without
// widening it into a full refresh.
type BalanceCache struct {
	fetch func(ctx context.Context) (Balance, error)
	group singleflight.Group
	now   func() time.Time

	mu        sync.Mutex
	last      Balance
	hasValue  bool
	fetchedAt time.Time
}

func newBalanceCache(fetch func(ctx context.Context) (Balance, error)) *BalanceCache {
	return &BalanceCache{
		fetch: fetch,
		now:   time.Now,
	}
}

// Last returns the cached balance and whether one has been observed yet.
func (c *BalanceCache) Last() (Balance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last, c.hasValue
}

// Set overwrites the cached balance with one the server just reported, e.g.
// the post-hold triple embedded in a submission response. It refreshes the
// TTL because the value is as fresh as a fetch would be.
func (c *BalanceCache) Set(b Balance) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = b
	c.hasValue = true
	c.fetchedAt = c.now()
}

// Reset drops the cached value, e.g. on logout.
func (c *BalanceCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = Balance{}
	c.hasValue = false
	c.fetchedAt = time.Time{}
}

// Refresh returns the cached balance when it is younger than the TTL,
// otherwise fetches. Concurrent callers that miss the TTL share a single
// network call.
func (c *BalanceCache) Refresh(ctx context.Context) (Balance, error) {
	return c.refresh(ctx, false)
}

// ForceRefresh bypasses the TTL but still coalesces with any fetch already
// in flight.
func (c *BalanceCache) ForceRefresh(ctx context.Context) (Balance, error) {
	return c.refresh(ctx, true)
}

func (c *BalanceCache) refresh(ctx context.Context, force bool) (Balance, error) {
	c.mu.Lock()
	if !force && c.hasValue && c.now().Sub(c.fetchedAt) < balanceTTL {
		b := c.last
		c.mu.Unlock()
		return b, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do("balance", func() (interface{}, error) {
		b, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(b)
		return b, nil
	})
	if err != nil {
		return Balance{}, err
	}
	return v.(Balance), nil
}

// CanAfford runs the advisory pre-flight check against the last-known
// balance. When no balance has been observed yet it reports true and lets
// the server decide; the server-side hold is the authority either way.
func (c *BalanceCache) CanAfford(cost int) (ok bool, available int, known bool) {
	b, has := c.Last()
	if !has {
		return true, 0, false
	}
	return b.CanAfford(cost), b.AvailableCredits, true
}
