package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"site-rag/internal/domain"
)

const (
	defaultEmbeddingCacheSize = 10000
	sharedEncodeTimeout       = 30 * time.Second
)

// EmbeddingCache memoizes text embeddings keyed by the exact text.
// Concurrent misses for the same text share a single encoder call. Failures
// are never stored.
//
// The shared call ignores the cancellation of the caller that started it and
// is bounded by its own timeout. Each caller stops waiting when its own
// context ends.
type EmbeddingCache struct {
	encoder domain.VectorEncoder
	entries *lru.Cache[string, []float32]
	group   singleflight.Group
	logger  *slog.Logger
}

// NewEmbeddingCache builds a cache holding at most size vectors.
func NewEmbeddingCache(encoder domain.VectorEncoder, size int, logger *slog.Logger) (*EmbeddingCache, error) {
	if size <= 0 {
		size = defaultEmbeddingCacheSize
	}
	entries, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}
	return &EmbeddingCache{encoder: encoder, entries: entries, logger: logger}, nil
}

// GetOrCompute returns the cached vector for text, calling the encoder on a miss.
// Callers must not modify the returned slice.
func (c *EmbeddingCache) GetOrCompute(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.entries.Get(text); ok {
		return v, nil
	}

	ch := c.group.DoChan(text, func() (interface{}, error) {
		if v, ok := c.entries.Get(text); ok {
			return v, nil
		}
		encodeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedEncodeTimeout)
		defer cancel()

		vectors, err := c.encoder.Encode(encodeCtx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(vectors) != 1 || len(vectors[0]) == 0 {
			return nil, fmt.Errorf("encoder returned no usable vector (%d results)", len(vectors))
		}
		c.entries.Add(text, vectors[0])
		return vectors[0], nil
	})

	select {
	case <-ctx.Done():
		return nil, domain.WrapFailure(domain.ErrEmbeddingFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			c.logger.WarnContext(ctx, "embedding_cache_miss_failed",
				slog.Bool("shared", res.Shared),
				slog.String("error", res.Err.Error()))
			if errors.Is(res.Err, domain.ErrEmbeddingFailed) {
				return nil, res.Err
			}
			return nil, domain.WrapFailure(domain.ErrEmbeddingFailed, res.Err)
		}
		return res.Val.([]float32), nil
	}
}

// Len reports the number of cached vectors.
func (c *EmbeddingCache) Len() int {
	return c.entries.Len()
}
