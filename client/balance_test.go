package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProfileServer(t *testing.T, hits *int64, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/profile" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt64(hits, 1)
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]int{
			"credits":           100,
			"held_credits":      30,
			"available_credits": 70,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshSingleFlight(t *testing.T) {
	var hits int64
	srv := newProfileServer(t, &hits, 50*time.Millisecond)
	c := New(srv.URL)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]Balance, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Balance.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	// the burst collapses into one profile request
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
	want := Balance{Credits: 100, HeldCredits: 30, AvailableCredits: 70}
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, want, results[i])
	}
}

func TestRefreshDebouncesWithinTTL(t *testing.T) {
	var hits int64
	srv := newProfileServer(t, &hits, 0)
	c := New(srv.URL)

	now := time.Now()
	c.Balance.now = func() time.Time { return now }

	_, err := c.Balance.Refresh(context.Background())
	require.NoError(t, err)
	_, err = c.Balance.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	// step past the TTL; the next refresh fetches again
	now = now.Add(balanceTTL + time.Millisecond)
	_, err = c.Balance.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestForceRefreshBypassesTTL(t *testing.T) {
	var hits int64
	srv := newProfileServer(t, &hits, 0)
	c := New(srv.URL)

	_, err := c.Balance.Refresh(context.Background())
	require.NoError(t, err)
	_, err = c.Balance.ForceRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestSetSatisfiesRefresh(t *testing.T) {
	var hits int64
	srv := newProfileServer(t, &hits, 0)
	c := New(srv.URL)

	seeded := Balance{Credits: 45, HeldCredits: 0, AvailableCredits: 45}
	c.Balance.Set(seeded)

	got, err := c.Balance.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, seeded, got)
	// a server-reported balance is as fresh as a fetch
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits))
}

func TestCanAffordUnknownBalance(t *testing.T) {
	c := New("http://unused.invalid")

	ok, _, known := c.Balance.CanAfford(50)
	assert.True(t, ok, "no observed balance defers to the server")
	assert.False(t, known)

	c.Balance.Set(Balance{Credits: 10, HeldCredits: 0, AvailableCredits: 10})
	ok, available, known := c.Balance.CanAfford(50)
	assert.False(t, ok)
	assert.True(t, known)
	assert.Equal(t, 10, available)
}

func TestResetDropsBalance(t *testing.T) {
	c := New("http://unused.invalid")
	c.Balance.Set(Balance{Credits: 10, AvailableCredits: 10})
	c.Balance.Reset()
	_, has := c.Balance.Last()
	assert.False(t, has)
}
