package client

import (
	"errors"
	"fmt"
)

// ErrAuthExpired means a request got a 401, the single refresh attempt
// failed, and stored credentials were cleared. The caller must
// re-authenticate; the client never loops on refresh.
var ErrAuthExpired = errors.New("authentication expired")

// ErrSubmitInFlight is returned when Submit is called while a previous
// submission on the same Submitter has not resolved yet. Duplicate holds are
// prevented here, before any network traffic.
var ErrSubmitInFlight = errors.New("a submission is already in flight")

// InsufficientCreditsError is raised both by the local pre-flight check and
// by the server-classified rejection; Required and Available are surfaced
// verbatim so the caller can offer a top-up.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// ValidationError is a local, user-actionable rejection that never reaches
// the network.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// APIError is any other server-side failure. It is terminal for the request
// that produced it; the client does not retry.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}
