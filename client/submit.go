package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
)

// SubmitState is the phase a Submitter is in. Terminal states are reported
// to the observer and then the machine returns to idle; there is no path
// from a terminal state to anything but idle.
type SubmitState int32

const (
	StateIdle SubmitState = iota
	StateValidating
	StateSubmitting
	StateImmediateResult
	StateAwaitingAsyncResult
	StateRejectedInsufficientCredits
	StateRejectedOtherError
)

func (s SubmitState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateSubmitting:
		return "submitting"
	case StateImmediateResult:
		return "immediate_result"
	case StateAwaitingAsyncResult:
		return "awaiting_async_result"
	case StateRejectedInsufficientCredits:
		return "rejected_insufficient_credits"
	case StateRejectedOtherError:
		return "rejected_other_error"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// SubmitRequest describes one generation to submit.
type SubmitRequest struct {
	// Category selects the endpoint: "video" or "image".
	Category       string
	Prompt         string
	Tool           string
	ReferenceImage string
	Options        map[string]any
}

// Submission is the server's answer to an accepted submission. Async is true
// when the job is still rendering; the caller then watches the job stream or
// polls GetVideo/GetImage.
type Submission struct {
	JobId     int
	Status    string
	ResultUrl string
	Balance   Balance
	Async     bool
}

// Submitter serializes submissions: one in flight at a time, duplicates
// rejected locally with ErrSubmitInFlight before any credits can be held
// twice.
type Submitter struct {
	client  *Client
	state   atomic.Int32
	onState func(SubmitState)
}

// NewSubmitter returns a submitter bound to the client. onState, when not
// nil, observes every state transition; it is called from the submitting
// goroutine and must not block.
func (c *Client) NewSubmitter(onState func(SubmitState)) *Submitter {
	return &Submitter{client: c, onState: onState}
}

// State returns the current phase.
func (s *Submitter) State() SubmitState {
	return SubmitState(s.state.Load())
}

func (s *Submitter) setState(next SubmitState) {
	s.state.Store(int32(next))
	if s.onState != nil {
		s.onState(next)
	}
}

type generatePayload struct {
	Id       int    `json:"id"`
	Status   string `json:"status"`
	VideoUrl string `json:"video_url"`
	ImageUrl string `json:"image_url"`
}

// Submit validates locally, then asks the server to hold the tool's cost and
// start the job. Local rejections (empty prompt, unknown or disabled tool,
// missing reference image, unaffordable cost against the last-known balance)
// produce no generate request. The server-side hold is the authority: a
// submission that passes here can still come back with
// InsufficientCreditsError.
func (s *Submitter) Submit(ctx context.Context, req SubmitRequest) (*Submission, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateValidating)) {
		return nil, ErrSubmitInFlight
	}
	if s.onState != nil {
		s.onState(StateValidating)
	}
	defer s.setState(StateIdle)

	if _, err := s.validate(ctx, &req); err != nil {
		if errors.As(err, new(*InsufficientCreditsError)) {
			s.setState(StateRejectedInsufficientCredits)
		} else {
			s.setState(StateRejectedOtherError)
		}
		return nil, err
	}

	s.setState(StateSubmitting)
	sub, err := s.send(ctx, &req)
	if err != nil {
		if errors.As(err, new(*InsufficientCreditsError)) {
			s.setState(StateRejectedInsufficientCredits)
		} else {
			s.setState(StateRejectedOtherError)
			s.reconcile(ctx, err)
		}
		return nil, err
	}
	if sub.Async {
		s.setState(StateAwaitingAsyncResult)
	} else {
		s.setState(StateImmediateResult)
	}
	return sub, nil
}

func (s *Submitter) validate(ctx context.Context, req *SubmitRequest) (*Tool, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, &ValidationError{Reason: "prompt must not be empty"}
	}
	if req.Category != "video" && req.Category != "image" {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown category %q", req.Category)}
	}
	tool, err := s.client.toolById(ctx, req.Tool)
	if err != nil {
		return nil, err
	}
	if tool == nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("unknown tool %q", req.Tool)}
	}
	if !tool.Enabled {
		return nil, &ValidationError{Reason: fmt.Sprintf("tool %q is disabled", req.Tool)}
	}
	if tool.Category != req.Category {
		return nil, &ValidationError{Reason: fmt.Sprintf("tool %q does not produce %s", req.Tool, req.Category)}
	}
	if tool.RequiresImage && req.ReferenceImage == "" {
		return nil, &ValidationError{Reason: fmt.Sprintf("tool %q requires a reference image", req.Tool)}
	}

	// Advisory affordability check against the last-known balance. Skipped
	// when no balance has been observed yet; the server decides then.
	if ok, available, known := s.client.Balance.CanAfford(tool.CreditCost); known && !ok {
		return nil, &InsufficientCreditsError{Required: tool.CreditCost, Available: available}
	}
	return tool, nil
}

func (s *Submitter) send(ctx context.Context, req *SubmitRequest) (*Submission, error) {
	options := req.Options
	if req.ReferenceImage != "" {
		options = make(map[string]any, len(req.Options)+1)
		for k, v := range req.Options {
			options[k] = v
		}
		options["referenceImage"] = req.ReferenceImage
	}
	body := map[string]any{
		"prompt": req.Prompt,
		"tool":   req.Tool,
	}
	if options != nil {
		body["options"] = options
	}
	path := "/api/videos/generate"
	if req.Category == "image" {
		path = "/api/images/generate"
	}

	raw, err := s.client.doRaw(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	var p generatePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	sub := &Submission{
		JobId:  p.Id,
		Status: p.Status,
	}
	if p.VideoUrl != "" {
		sub.ResultUrl = p.VideoUrl
	} else if p.ImageUrl != "" {
		sub.ResultUrl = p.ImageUrl
	}
	sub.Async = sub.ResultUrl == "" && p.Status != "completed"

	// Every accepted submission carries the post-hold balance; apply it so
	// the next pre-flight check sees the hold without another round trip.
	// A payload without one still moved credits server-side, so fall back
	// to the authoritative triple rather than keep the pre-hold cache.
	if b, ok := normalizeBalance(raw); ok {
		s.client.Balance.Set(b)
		sub.Balance = b
	} else if b, err := s.client.Balance.ForceRefresh(ctx); err == nil {
		sub.Balance = b
	}
	return sub, nil
}

// reconcile force-refreshes the balance after an unclassified failure. The
// server may or may not have taken a hold before failing; the authoritative
// triple settles which. Auth failures skip this, the credentials are gone.
func (s *Submitter) reconcile(ctx context.Context, cause error) {
	if errors.Is(cause, ErrAuthExpired) {
		return
	}
	_, _ = s.client.Balance.ForceRefresh(ctx)
}
