package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stubs ---

type stubEmbedder struct {
	mu          sync.Mutex
	calls       []string
	failures    map[string]int // remaining failures per text
	capturedCtx context.Context
}

func (s *stubEmbedder) GetOrCompute(ctx context.Context, text string) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	s.capturedCtx = ctx
	if s.failures[text] > 0 {
		s.failures[text]--
		return nil, errors.New("embedder unreachable")
	}
	return []float32{1}, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// --- tests ---

func TestWarmOnce_ContextHasTimeout(t *testing.T) {
	emb := &stubEmbedder{}
	w := NewCacheWarmer(emb, []string{"Jio app"}, testLogger())

	failed := w.warmOnce(w.texts)

	assert.Empty(t, failed)
	require.NotNil(t, emb.capturedCtx)
	deadline, ok := emb.capturedCtx.Deadline()
	assert.True(t, ok, "context passed to the embedder must have a deadline")
	assert.WithinDuration(t, time.Now().Add(warmTimeout), deadline, 5*time.Second)
}

func TestWarmOnce_ReturnsOnlyFailedTexts(t *testing.T) {
	emb := &stubEmbedder{failures: map[string]int{"apps": 1}}
	w := NewCacheWarmer(emb, []string{"Jio app", "apps", "Jio apps"}, testLogger())

	failed := w.warmOnce(w.texts)

	assert.Equal(t, []string{"apps"}, failed)
	assert.Equal(t, 3, emb.callCount())
}

func TestCacheWarmer_RunsToCompletion(t *testing.T) {
	emb := &stubEmbedder{}
	w := NewCacheWarmer(emb, []string{"a", "b"}, testLogger())
	w.Start()

	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("warmer did not finish")
	}
	assert.Equal(t, 2, emb.callCount())
}

func TestCacheWarmer_RetriesFailedTexts(t *testing.T) {
	emb := &stubEmbedder{failures: map[string]int{"b": 1}}
	w := NewCacheWarmer(emb, []string{"a", "b"}, testLogger())
	w.Start()

	select {
	case <-w.Done():
	case <-time.After(3 * time.Second):
		t.Fatal("warmer did not finish after retry")
	}
	// a, b, then b again after the first backoff
	assert.Equal(t, []string{"a", "b", "b"}, emb.calls)
}

func TestCacheWarmer_StopDuringBackoff(t *testing.T) {
	emb := &stubEmbedder{failures: map[string]int{"a": 100}}
	w := NewCacheWarmer(emb, []string{"a"}, testLogger())
	w.Start()

	require.Eventually(t, func() bool { return emb.callCount() >= 1 }, time.Second, 5*time.Millisecond)
	w.Stop()

	select {
	case <-w.Done():
	default:
		t.Fatal("Stop must wait for the warmer to exit")
	}
}

func TestCacheWarmer_BackoffCapsAtMax(t *testing.T) {
	w := NewCacheWarmer(nil, nil, testLogger())

	bo := time.Duration(0)
	for i := 0; i < 20; i++ {
		bo = w.nextBackoff(bo)
	}
	assert.Equal(t, maxBackoff, bo, "backoff must cap at maxBackoff")
}
