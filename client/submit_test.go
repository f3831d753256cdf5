package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() []Tool {
	return []Tool{
		{Id: "pika", Name: "Pika Labs", Category: "video", CreditCost: 50, Enabled: true},
		{Id: "kling", Name: "Kling AI", Category: "video", CreditCost: 55, Enabled: true},
		{Id: "kling-i2v", Name: "Kling AI", Category: "video", CreditCost: 55, Enabled: true, RequiresImage: true},
		{Id: "flux", Name: "Flux", Category: "image", CreditCost: 6, Enabled: true},
		{Id: "legacy", Name: "Legacy", Category: "video", CreditCost: 10, Enabled: false},
	}
}

func newSubmitClient(srvURL string) *Client {
	c := New(srvURL, WithCredentials(Credentials{Access: "a", Refresh: "r"}))
	c.SeedTools(testCatalog())
	return c
}

func TestSubmitRejectsLocallyOnInsufficientCredits(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer srv.Close()

	c := newSubmitClient(srv.URL)
	c.Balance.Set(Balance{Credits: 10, HeldCredits: 0, AvailableCredits: 10})

	var states []SubmitState
	s := c.NewSubmitter(func(state SubmitState) { states = append(states, state) })

	_, err := s.Submit(context.Background(), SubmitRequest{
		Category: "video",
		Prompt:   "a cat surfing at sunset",
		Tool:     "pika",
	})

	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 50, insufficient.Required)
	assert.Equal(t, 10, insufficient.Available)
	assert.Contains(t, err.Error(), "50")
	assert.Contains(t, err.Error(), "10")

	// rejected before any traffic
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits))
	assert.Contains(t, states, StateRejectedInsufficientCredits)
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmitValidationRejections(t *testing.T) {
	var hits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
	}))
	defer srv.Close()

	c := newSubmitClient(srv.URL)
	s := c.NewSubmitter(nil)

	cases := []struct {
		name string
		req  SubmitRequest
	}{
		{"empty prompt", SubmitRequest{Category: "video", Prompt: "   ", Tool: "kling"}},
		{"unknown tool", SubmitRequest{Category: "video", Prompt: "a cat", Tool: "unknown"}},
		{"disabled tool", SubmitRequest{Category: "video", Prompt: "a cat", Tool: "legacy"}},
		{"wrong category", SubmitRequest{Category: "image", Prompt: "a cat", Tool: "kling"}},
		{"missing reference image", SubmitRequest{Category: "video", Prompt: "a cat", Tool: "kling-i2v"}},
		{"unknown category", SubmitRequest{Category: "audio", Prompt: "a cat", Tool: "kling"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Submit(context.Background(), tc.req)
			var validation *ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, StateIdle, s.State())
		})
	}
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits))
}

func TestSubmitImmediateResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/images/generate", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"id":                7,
			"status":            "completed",
			"image_url":         "https://cdn.example.com/i7.png",
			"credits":           94,
			"held_credits":      0,
			"available_credits": 94,
		})
	}))
	defer srv.Close()

	c := newSubmitClient(srv.URL)
	c.Balance.Set(Balance{Credits: 100, HeldCredits: 0, AvailableCredits: 100})

	var states []SubmitState
	s := c.NewSubmitter(func(state SubmitState) { states = append(states, state) })
	sub, err := s.Submit(context.Background(), SubmitRequest{
		Category: "image",
		Prompt:   "a lighthouse in fog",
		Tool:     "flux",
	})
	require.NoError(t, err)

	assert.False(t, sub.Async)
	assert.Equal(t, 7, sub.JobId)
	assert.Equal(t, "https://cdn.example.com/i7.png", sub.ResultUrl)
	assert.Equal(t, Balance{Credits: 94, HeldCredits: 0, AvailableCredits: 94}, sub.Balance)

	// the response balance replaced the stale cache entry
	cached, _ := c.Balance.Last()
	assert.Equal(t, 94, cached.Credits)
	assert.Contains(t, states, StateImmediateResult)
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmitAsyncResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/videos/generate", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"id":                8,
			"status":            "pending",
			"credits":           100,
			"held_credits":      55,
			"available_credits": 45,
		})
	}))
	defer srv.Close()

	c := newSubmitClient(srv.URL)
	var states []SubmitState
	s := c.NewSubmitter(func(state SubmitState) { states = append(states, state) })
	sub, err := s.Submit(context.Background(), SubmitRequest{
		Category: "video",
		Prompt:   "a cat surfing at sunset",
		Tool:     "kling",
	})
	require.NoError(t, err)

	assert.True(t, sub.Async)
	assert.Empty(t, sub.ResultUrl)
	// the hold shows up in the reconciled balance
	cached, _ := c.Balance.Last()
	assert.Equal(t, Balance{Credits: 100, HeldCredits: 55, AvailableCredits: 45}, cached)
	assert.Contains(t, states, StateAwaitingAsyncResult)
}

func TestSubmitBalancelessAcceptanceRefreshes(t *testing.T) {
	var profileHits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/videos/generate":
			// accepted, but no credit fields in the payload
			writeJSON(w, http.StatusOK, map[string]any{"id": 11, "status": "pending"})
		case "/api/profile":
			atomic.AddInt64(&profileHits, 1)
			writeJSON(w, http.StatusOK, map[string]any{
				"credits":           100,
				"held_credits":      55,
				"available_credits": 45,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newSubmitClient(srv.URL)
	c.Balance.Set(Balance{Credits: 100, HeldCredits: 0, AvailableCredits: 100})

	s := c.NewSubmitter(nil)
	sub, err := s.Submit(context.Background(), SubmitRequest{
		Category: "video",
		Prompt:   "a cat surfing at sunset",
		Tool:     "kling",
	})
	require.NoError(t, err)
	assert.True(t, sub.Async)

	// the server held credits even though the payload said nothing about
	// them; the authoritative re-read replaces the pre-hold cache
	assert.Equal(t, int64(1), atomic.LoadInt64(&profileHits))
	assert.Equal(t, Balance{Credits: 100, HeldCredits: 55, AvailableCredits: 45}, sub.Balance)
	cached, _ := c.Balance.Last()
	assert.Equal(t, 55, cached.HeldCredits)
}

func TestSubmitServerSideInsufficientCredits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error_type":        "INSUFFICIENT_CREDITS",
			"required_credits":  55,
			"available_credits": 20,
		})
	}))
	defer srv.Close()

	// no observed balance, so the local check defers and the server rejects
	c := newSubmitClient(srv.URL)
	var states []SubmitState
	s := c.NewSubmitter(func(state SubmitState) { states = append(states, state) })
	_, err := s.Submit(context.Background(), SubmitRequest{
		Category: "video",
		Prompt:   "a cat surfing at sunset",
		Tool:     "kling",
	})

	var insufficient *InsufficientCreditsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 55, insufficient.Required)
	assert.Equal(t, 20, insufficient.Available)
	assert.Contains(t, states, StateRejectedInsufficientCredits)
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmitInFlightRejectsDuplicates(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/videos/generate":
			close(started)
			<-release
			writeJSON(w, http.StatusOK, map[string]any{
				"id":                9,
				"status":            "pending",
				"credits":           100,
				"held_credits":      55,
				"available_credits": 45,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newSubmitClient(srv.URL)
	s := c.NewSubmitter(nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), SubmitRequest{
			Category: "video",
			Prompt:   "a cat surfing at sunset",
			Tool:     "kling",
		})
		done <- err
	}()

	<-started
	_, err := s.Submit(context.Background(), SubmitRequest{
		Category: "video",
		Prompt:   "a cat surfing at sunset",
		Tool:     "kling",
	})
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	require.NoError(t, <-done)

	// the machine is idle again, a new submission is accepted locally
	assert.Equal(t, StateIdle, s.State())
}

func TestSubmitFailureReconcilesBalance(t *testing.T) {
	var profileHits int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/videos/generate":
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "generation failed: provider unavailable"})
		case "/api/profile":
			atomic.AddInt64(&profileHits, 1)
			writeJSON(w, http.StatusOK, map[string]any{
				"credits":           100,
				"held_credits":      0,
				"available_credits": 100,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newSubmitClient(srv.URL)
	c.Balance.Set(Balance{Credits: 100, HeldCredits: 55, AvailableCredits: 45})

	s := c.NewSubmitter(nil)
	_, err := s.Submit(context.Background(), SubmitRequest{
		Category: "video",
		Prompt:   "a cat surfing at sunset",
		Tool:     "kling",
	})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)

	// the failure triggered exactly one authoritative re-read
	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&profileHits) == 1
	}, time.Second, 10*time.Millisecond)
	cached, _ := c.Balance.Last()
	assert.Equal(t, Balance{Credits: 100, HeldCredits: 0, AvailableCredits: 100}, cached)
}
