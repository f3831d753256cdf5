package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/timera-ai/timera-api/common/config"
)

// GenerateRequest is the provider-facing request, already resolved from the
// tool catalog by the caller.
type GenerateRequest struct {
	Model          string                 `json:"model"`
	Prompt         string                 `json:"prompt"`
	ReferenceImage string                 `json:"image_url,omitempty"`
	Options        map[string]interface{} `json:"options,omitempty"`
}

// GenerateResult classifies a provider answer: either a finished artifact or
// an acknowledged async task to poll.
type GenerateResult struct {
	Completed bool
	ResultUrl string
	TaskId    string
}

type falSubmitResponse struct {
	RequestId string `json:"request_id"`
	Status    string `json:"status"`
	VideoUrl  string `json:"video_url,omitempty"`
	ImageUrl  string `json:"image_url,omitempty"`
	Images    []struct {
		Url string `json:"url"`
	} `json:"images,omitempty"`
	Video struct {
		Url string `json:"url"`
	} `json:"video,omitempty"`
	Error string `json:"error,omitempty"`
}

// Adaptor talks to a fal.ai-style queue API. BaseURL is injectable so tests
// can point it at a stub server.
type Adaptor struct {
	BaseURL string
	ApiKey  string
	Client  *http.Client
}

func NewFalAdaptor(client *http.Client) *Adaptor {
	return &Adaptor{
		BaseURL: config.ProviderBaseUrl,
		ApiKey:  config.ProviderApiKey,
		Client:  client,
	}
}

func (a *Adaptor) setupHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if a.ApiKey != "" {
		req.Header.Set("Authorization", "Key "+a.ApiKey)
	}
}

func (a *Adaptor) do(ctx context.Context, method string, url string, body any) (*falSubmitResponse, error) {
	var reader io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(jsonBytes)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	a.setupHeaders(req)
	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(respBody))
	}
	var parsed falSubmitResponse
	err = json.Unmarshal(respBody, &parsed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func (r *falSubmitResponse) artifactUrl() string {
	if r.VideoUrl != "" {
		return r.VideoUrl
	}
	if r.Video.Url != "" {
		return r.Video.Url
	}
	if r.ImageUrl != "" {
		return r.ImageUrl
	}
	if len(r.Images) > 0 {
		return r.Images[0].Url
	}
	return ""
}

func (r *falSubmitResponse) toResult() (*GenerateResult, error) {
	if r.Error != "" {
		return nil, errors.New(r.Error)
	}
	if url := r.artifactUrl(); url != "" {
		return &GenerateResult{Completed: true, ResultUrl: url}, nil
	}
	if r.RequestId != "" {
		return &GenerateResult{TaskId: r.RequestId}, nil
	}
	return nil, errors.New("provider response has neither artifact nor request id")
}

// Generate submits a generation request. A synchronous artifact in the reply
// short-circuits the queue; otherwise the returned task id must be polled.
func (a *Adaptor) Generate(ctx context.Context, request *GenerateRequest) (*GenerateResult, error) {
	resp, err := a.do(ctx, http.MethodPost, fmt.Sprintf("%s/%s", a.BaseURL, request.Model), request)
	if err != nil {
		return nil, err
	}
	return resp.toResult()
}

// GetResult polls an async task. Completed=false with no error means the
// task is still running.
func (a *Adaptor) GetResult(ctx context.Context, model string, taskId string) (*GenerateResult, error) {
	resp, err := a.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s/requests/%s", a.BaseURL, model, taskId), nil)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if url := resp.artifactUrl(); url != "" {
		return &GenerateResult{Completed: true, ResultUrl: url}, nil
	}
	switch resp.Status {
	case "FAILED", "failed":
		return nil, errors.New("generation failed at provider")
	default:
		return &GenerateResult{TaskId: taskId}, nil
	}
}
