// Package client is the Go SDK for the Timera API. It owns the credit
// contract from the caller's side: bearer auth with a single refresh attempt
// per request, a debounced single-flight balance cache, and a submission
// state machine that holds credits on the server and reconciles the local
// balance from every response that carries one.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

// Credentials is the access/refresh token pair issued at login. The zero
// value means "not authenticated".
type Credentials struct {
	Access  string
	Refresh string
}

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	creds Credentials

	// Balance is the cached credit view; see BalanceCache for the TTL and
	// single-flight semantics.
	Balance *BalanceCache

	toolsMu sync.Mutex
	tools   []Tool
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, timeout included.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithCredentials seeds a previously persisted token pair.
func WithCredentials(creds Credentials) Option {
	return func(c *Client) {
		c.creds = creds
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Balance = newBalanceCache(c.fetchBalance)
	return c
}

// Credentials returns the current token pair.
func (c *Client) Credentials() Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creds
}

// SetCredentials replaces the stored token pair, e.g. after an external
// login flow.
func (c *Client) SetCredentials(creds Credentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = creds
}

func (c *Client) clearCredentials() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = Credentials{}
}

// envelope is the failure shape some endpoints answer with HTTP 200; the
// success flag is a pointer so plain payloads without it pass through.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

type insufficientPayload struct {
	ErrorType        string `json:"error_type"`
	RequiredCredits  int    `json:"required_credits"`
	AvailableCredits int    `json:"available_credits"`
}

// do issues one API request and decodes the response into out (which may be
// nil). On a 401 it performs exactly one refresh attempt and one retry; if
// the refresh fails or the retry is rejected again, stored credentials are
// cleared and ErrAuthExpired is returned. It never loops.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	raw, err := c.doRaw(ctx, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

func (c *Client) doRaw(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	raw, status, err := c.roundTrip(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		if err := c.refreshAccess(ctx); err != nil {
			c.clearCredentials()
			return nil, ErrAuthExpired
		}
		raw, status, err = c.roundTrip(ctx, method, path, payload)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized {
			c.clearCredentials()
			return nil, ErrAuthExpired
		}
	}
	return checkResponse(raw, status)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte) (json.RawMessage, int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access := c.Credentials().Access; access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return raw, resp.StatusCode, nil
}

// checkResponse classifies a completed HTTP exchange. 402 becomes
// InsufficientCreditsError with the server's numbers; a 200 envelope with
// success=false is still a failure.
func checkResponse(raw json.RawMessage, status int) (json.RawMessage, error) {
	if status == http.StatusPaymentRequired {
		var p insufficientPayload
		if err := json.Unmarshal(raw, &p); err == nil && p.ErrorType == "INSUFFICIENT_CREDITS" {
			return nil, &InsufficientCreditsError{
				Required:  p.RequiredCredits,
				Available: p.AvailableCredits,
			}
		}
		return nil, &APIError{StatusCode: status}
	}
	var env envelope
	_ = json.Unmarshal(raw, &env)
	if status < 200 || status >= 300 {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return nil, &APIError{StatusCode: status, Message: msg}
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{StatusCode: status, Message: env.Message}
	}
	return raw, nil
}

// refreshAccess trades the refresh token for a new access token. It talks to
// the refresh endpoint directly, outside do, so a failing refresh can never
// recurse into another refresh.
func (c *Client) refreshAccess(ctx context.Context) error {
	refresh := c.Credentials().Refresh
	if refresh == "" {
		return ErrAuthExpired
	}
	payload, err := json.Marshal(map[string]string{"refresh": refresh})
	if err != nil {
		return err
	}
	raw, status, err := c.roundTrip(ctx, http.MethodPost, "/api/token/refresh", payload)
	if err != nil {
		return err
	}
	raw, err = checkResponse(raw, status)
	if err != nil {
		return err
	}
	var resp struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return err
	}
	if resp.Access == "" {
		return fmt.Errorf("refresh response missing access token")
	}
	c.mu.Lock()
	c.creds.Access = resp.Access
	c.mu.Unlock()
	return nil
}

// Profile is the authenticated account view, credit triple included.
type Profile struct {
	Id               int    `json:"id"`
	Email            string `json:"email"`
	Credits          int    `json:"credits"`
	HeldCredits      int    `json:"held_credits"`
	AvailableCredits int    `json:"available_credits"`
	Language         string `json:"language"`
	Theme            string `json:"theme"`
}

func (p *Profile) balance() Balance {
	return Balance{
		Credits:          p.Credits,
		HeldCredits:      p.HeldCredits,
		AvailableCredits: p.AvailableCredits,
	}
}

type authResponse struct {
	User   Profile `json:"user"`
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
}

// Login authenticates with email and password, stores the issued token pair
// and seeds the balance cache from the returned profile.
func (c *Client) Login(ctx context.Context, email, password string) (*Profile, error) {
	return c.authenticate(ctx, "/api/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, email, password string) (*Profile, error) {
	return c.authenticate(ctx, "/api/register", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*Profile, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	c.SetCredentials(Credentials{Access: resp.Tokens.Access, Refresh: resp.Tokens.Refresh})
	c.Balance.Set(resp.User.balance())
	return &resp.User, nil
}

// Logout drops the stored token pair and the cached balance.
func (c *Client) Logout() {
	c.clearCredentials()
	c.Balance.Reset()
}

// GetProfile fetches the authoritative account view and updates the balance
// cache from it.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/api/profile", nil, &profile); err != nil {
		return nil, err
	}
	c.Balance.Set(profile.balance())
	return &profile, nil
}

// fetchBalance is the BalanceCache's network path.
func (c *Client) fetchBalance(ctx context.Context) (Balance, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, "/api/profile", nil)
	if err != nil {
		return Balance{}, err
	}
	b, ok := normalizeBalance(raw)
	if !ok {
		return Balance{}, fmt.Errorf("profile response carries no credit fields")
	}
	return b, nil
}

// Tool mirrors a generation-tool catalog entry.
type Tool struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	Category      string `json:"category"`
	CreditCost    int    `json:"credit_cost"`
	Enabled       bool   `json:"enabled"`
	RequiresImage bool   `json:"requires_image"`
}

// Tools returns the tool catalog, fetched once and cached for the lifetime
// of the client; the catalog is static on the server side.
func (c *Client) Tools(ctx context.Context) ([]Tool, error) {
	c.toolsMu.Lock()
	defer c.toolsMu.Unlock()
	if c.tools != nil {
		return c.tools, nil
	}
	var list []Tool
	if err := c.do(ctx, http.MethodGet, "/api/tools", nil, &list); err != nil {
		return nil, err
	}
	c.tools = list
	return list, nil
}

// SeedTools installs a catalog without a network fetch, e.g. one compiled
// into the application. A later Tools call answers from the seed.
func (c *Client) SeedTools(list []Tool) {
	c.toolsMu.Lock()
	defer c.toolsMu.Unlock()
	c.tools = list
}

func (c *Client) toolById(ctx context.Context, id string) (*Tool, error) {
	list, err := c.Tools(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Id == id {
			return &list[i], nil
		}
	}
	return nil, nil
}

// Generation is a submitted or fetched job as the API reports it.
type Generation struct {
	Id           int    `json:"id"`
	Type         string `json:"-"`
	Prompt       string `json:"prompt"`
	Tool         string `json:"tool"`
	Status       string `json:"status"`
	CreditsCost  int    `json:"credits_cost"`
	VideoUrl     string `json:"video_url"`
	ImageUrl     string `json:"image_url"`
	ErrorMessage string `json:"error_message"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`
}

// ResultUrl returns whichever artifact URL the job carries.
func (g *Generation) ResultUrl() string {
	if g.VideoUrl != "" {
		return g.VideoUrl
	}
	return g.ImageUrl
}

// Terminal reports whether the job has settled; terminal jobs never change
// again.
func (g *Generation) Terminal() bool {
	return g.Status == "completed" || g.Status == "failed"
}

func (c *Client) listGenerations(ctx context.Context, path, jobType string) ([]Generation, error) {
	var list []Generation
	if err := c.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Type = jobType
	}
	return list, nil
}

// ListVideos returns the caller's video jobs, newest first.
func (c *Client) ListVideos(ctx context.Context) ([]Generation, error) {
	return c.listGenerations(ctx, "/api/videos", "video")
}

// ListImages returns the caller's image jobs, newest first.
func (c *Client) ListImages(ctx context.Context) ([]Generation, error) {
	return c.listGenerations(ctx, "/api/images", "image")
}

// ListGenerations fetches videos and images and merges them into one
// newest-first history; the API keeps the two collections separate.
func (c *Client) ListGenerations(ctx context.Context) ([]Generation, error) {
	videos, err := c.ListVideos(ctx)
	if err != nil {
		return nil, err
	}
	images, err := c.ListImages(ctx)
	if err != nil {
		return nil, err
	}
	merged := append(videos, images...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt > merged[j].CreatedAt
	})
	return merged, nil
}

// GetVideo fetches one video job by id.
func (c *Client) GetVideo(ctx context.Context, id int) (*Generation, error) {
	return c.getGeneration(ctx, fmt.Sprintf("/api/videos/%d", id), "video")
}

// GetImage fetches one image job by id.
func (c *Client) GetImage(ctx context.Context, id int) (*Generation, error) {
	return c.getGeneration(ctx, fmt.Sprintf("/api/images/%d", id), "image")
}

func (c *Client) getGeneration(ctx context.Context, path, jobType string) (*Generation, error) {
	var g Generation
	if err := c.do(ctx, http.MethodGet, path, nil, &g); err != nil {
		return nil, err
	}
	g.Type = jobType
	return &g, nil
}
