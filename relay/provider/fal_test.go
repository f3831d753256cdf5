package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStubAdaptor(t *testing.T, handler http.HandlerFunc) *Adaptor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Adaptor{BaseURL: srv.URL, ApiKey: "test-key", Client: srv.Client()}
}

func TestGenerateSynchronousArtifact(t *testing.T) {
	a := newStubAdaptor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fal-ai/flux-2-pro", r.URL.Path)
		assert.Equal(t, "Key test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a lighthouse in fog", body["prompt"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"images": []map[string]string{{"url": "https://provider.example.com/i1.png"}},
		})
	})

	result, err := a.Generate(context.Background(), &GenerateRequest{
		Model:  "fal-ai/flux-2-pro",
		Prompt: "a lighthouse in fog",
	})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, "https://provider.example.com/i1.png", result.ResultUrl)
}

func TestGenerateQueuedTask(t *testing.T) {
	a := newStubAdaptor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "task-7", "status": "IN_QUEUE"})
	})

	result, err := a.Generate(context.Background(), &GenerateRequest{Model: "fal-ai/veo3", Prompt: "x"})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Equal(t, "task-7", result.TaskId)
}

func TestGenerateProviderError(t *testing.T) {
	a := newStubAdaptor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "nsfw content rejected"})
	})

	_, err := a.Generate(context.Background(), &GenerateRequest{Model: "fal-ai/veo3", Prompt: "x"})
	require.ErrorContains(t, err, "nsfw content rejected")
}

func TestGenerateHttpError(t *testing.T) {
	a := newStubAdaptor(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	_, err := a.Generate(context.Background(), &GenerateRequest{Model: "fal-ai/veo3", Prompt: "x"})
	require.ErrorContains(t, err, "401")
}

func TestGetResultStillRunning(t *testing.T) {
	a := newStubAdaptor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fal-ai/veo3/requests/task-7", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"request_id": "task-7", "status": "IN_PROGRESS"})
	})

	result, err := a.GetResult(context.Background(), "fal-ai/veo3", "task-7")
	require.NoError(t, err)
	assert.False(t, result.Completed)
}

func TestGetResultCompletedVideo(t *testing.T) {
	a := newStubAdaptor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "COMPLETED",
			"video":  map[string]string{"url": "https://provider.example.com/v7.mp4"},
		})
	})

	result, err := a.GetResult(context.Background(), "fal-ai/veo3", "task-7")
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.Equal(t, "https://provider.example.com/v7.mp4", result.ResultUrl)
}

func TestGetResultFailed(t *testing.T) {
	a := newStubAdaptor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "FAILED"})
	})

	_, err := a.GetResult(context.Background(), "fal-ai/veo3", "task-7")
	require.Error(t, err)
}
