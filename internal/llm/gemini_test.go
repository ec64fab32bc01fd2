package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *geminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := newGeminiClient(Config{APIKey: "test-key", BaseURL: server.URL + "/", Temperature: 0.2})
	require.NoError(t, err)
	return client
}

func TestGeminiGenerate(t *testing.T) {
	var got GenerateContentRequest
	client := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]string{{"text": "Groc"}, {"text": "eries"}},
				},
				"finishReason": "STOP",
			}},
		})
	})

	out, err := client.Generate(context.Background(), "Categorize this item")
	require.NoError(t, err)
	assert.Equal(t, "Groceries", out)

	require.Len(t, got.Contents, 1)
	assert.Equal(t, "user", got.Contents[0].Role)
	require.Len(t, got.Contents[0].Parts, 1)
	assert.Equal(t, "Categorize this item", got.Contents[0].Parts[0].Text)
	require.NotNil(t, got.GenerationConfig)
	assert.InDelta(t, 0.2, got.GenerationConfig.Temperature, 1e-9)
	assert.Equal(t, 1024, got.GenerationConfig.MaxOutputTokens)
}

func TestGeminiGenerateBlocked(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"promptFeedback":{"blockReason":"SAFETY"}}`))
	})

	_, err := client.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrEmptyCompletion)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGeminiGenerateNoContent(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"finishReason":"MAX_TOKENS"}]}`))
	})

	_, err := client.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrEmptyCompletion)
	assert.Contains(t, err.Error(), "MAX_TOKENS")
}

func TestGeminiGenerateHTTPError(t *testing.T) {
	client := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`))
	})

	_, err := client.Generate(context.Background(), "prompt")
	require.Error(t, err)

	var apiErr *googleapi.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Code)
	assert.Equal(t, "quota exhausted", apiErr.Message)
}

func TestNewGeminiClientRequiresKey(t *testing.T) {
	_, err := newGeminiClient(Config{})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewGeminiClientTimeout(t *testing.T) {
	client, err := newGeminiClient(Config{APIKey: "k", Timeout: 7 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, client.api.Timeout())
	assert.Equal(t, defaultGeminiBaseURL, client.api.baseURL)

	client, err = newGeminiClient(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, client.api.Timeout())
}

func TestGeminiTimeoutApplied(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client, err := newGeminiClient(Config{APIKey: "k", BaseURL: server.URL, Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), "prompt")
	require.Error(t, err)
	var netErr interface{ Timeout() bool }
	require.True(t, errors.As(err, &netErr))
	assert.True(t, netErr.Timeout())
}

func TestModelResource(t *testing.T) {
	assert.Equal(t, "models/gemini-2.0-flash", modelResource("gemini-2.0-flash"))
	assert.Equal(t, "models/custom", modelResource("models/custom"))
}
