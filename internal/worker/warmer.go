package worker

import (
	"context"
	"log/slog"
	"time"
)

const (
	warmTimeout    = 60 * time.Second
	initialBackoff = 1 * time.Second
	maxBackoff     = 5 * time.Minute
)

// Embedder fills the embedding cache for one text.
type Embedder interface {
	GetOrCompute(ctx context.Context, text string) ([]float32, error)
}

// CacheWarmer embeds a fixed list of texts in the background so the first
// questions that expand into them skip the embedder round trip. Failed texts
// are retried with exponential backoff until all succeed or Stop is called.
type CacheWarmer struct {
	embedder Embedder
	texts    []string
	logger   *slog.Logger
	stopChan chan struct{}
	doneChan chan struct{}
	backoff  time.Duration
}

func NewCacheWarmer(embedder Embedder, texts []string, logger *slog.Logger) *CacheWarmer {
	return &CacheWarmer{
		embedder: embedder,
		texts:    texts,
		logger:   logger,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

func (w *CacheWarmer) Start() {
	w.logger.Info("Starting CacheWarmer", "texts", len(w.texts))
	go w.run()
}

// Stop ends the retry loop and waits for the in-flight pass to return.
func (w *CacheWarmer) Stop() {
	w.logger.Info("Stopping CacheWarmer")
	close(w.stopChan)
	<-w.doneChan
}

// Done is closed once the warmer has exited.
func (w *CacheWarmer) Done() <-chan struct{} {
	return w.doneChan
}

func (w *CacheWarmer) run() {
	defer close(w.doneChan)

	pending := w.texts
	for len(pending) > 0 {
		pending = w.warmOnce(pending)
		if len(pending) == 0 {
			break
		}
		w.backoff = w.nextBackoff(w.backoff)
		w.logger.Warn("CacheWarmer backing off", "pending", len(pending), "backoff", w.backoff)

		timer := time.NewTimer(w.backoff)
		select {
		case <-w.stopChan:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
	w.logger.Info("CacheWarmer completed", "texts", len(w.texts))
}

// warmOnce embeds every text and returns the ones that failed.
func (w *CacheWarmer) warmOnce(texts []string) []string {
	ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
	defer cancel()
	go func() {
		select {
		case <-w.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	var failed []string
	for _, text := range texts {
		if _, err := w.embedder.GetOrCompute(ctx, text); err != nil {
			w.logger.Debug("CacheWarmer text failed", "text", text, "error", err)
			failed = append(failed, text)
		}
	}
	if len(failed) == 0 {
		w.backoff = 0
	}
	return failed
}

func (w *CacheWarmer) nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return initialBackoff
	}
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}
