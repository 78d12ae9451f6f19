package rag_augur

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-rag/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestBuildOptions(t *testing.T) {
	gen := NewOllamaGenerator("http://localhost:11434", "llama3.2:3b", 10, testLogger(), nil)

	opts := gen.buildOptions(domain.GenerationOptions{MaxTokens: 300, ContextWindow: 1024})
	assert.Equal(t, 300, opts["num_predict"])
	assert.Equal(t, 1024, opts["num_ctx"])

	empty := gen.buildOptions(domain.GenerationOptions{})
	assert.Empty(t, empty)
}

func TestOllamaGenerator_Chat(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  JioCinema and MyJio.\nSources: https://x/apps  "},"done":true}`))
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL+"/", "llama3.2:3b", 5, testLogger(), nil)
	resp, err := gen.Chat(context.Background(), []domain.Message{
		{Role: "user", Content: "What apps?"},
	}, domain.GenerationOptions{MaxTokens: 1024, ContextWindow: 4096})

	require.NoError(t, err)
	assert.Equal(t, "JioCinema and MyJio.\nSources: https://x/apps", resp.Text)
	assert.True(t, resp.Done)

	assert.Equal(t, "llama3.2:3b", captured.Model)
	assert.False(t, captured.Stream)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)
	// JSON numbers decode as float64
	assert.Equal(t, float64(1024), captured.Options["num_predict"])
	assert.Equal(t, float64(4096), captured.Options["num_ctx"])
}

func TestOllamaGenerator_Chat_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "missing", 5, testLogger(), nil)
	_, err := gen.Chat(context.Background(), []domain.Message{{Role: "user", Content: "q"}}, domain.GenerationOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Contains(t, err.Error(), "404")
}

func TestOllamaGenerator_Chat_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	gen := NewOllamaGenerator(server.URL, "slow", 5, testLogger(), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := gen.Chat(ctx, []domain.Message{{Role: "user", Content: "q"}}, domain.GenerationOptions{})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}

func TestOllamaGenerator_Version(t *testing.T) {
	gen := NewOllamaGenerator("http://localhost:11434", "llama3.2:3b", 0, testLogger(), nil)
	assert.Equal(t, "llama3.2:3b", gen.Version())
	assert.Equal(t, 120*time.Second, gen.Client.Timeout)
}
