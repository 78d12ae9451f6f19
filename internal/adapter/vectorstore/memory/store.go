// Package memory is a brute-force in-process vector index using cosine distance.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"site-rag/internal/domain"
)

// Store keeps every chunk and its normalized embedding in memory.
type Store struct {
	mu     sync.RWMutex
	chunks []domain.IndexedChunk
	norms  []float64
}

func NewStore() *Store { return &Store{} }

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = nil
	s.norms = nil
	return nil
}

func (s *Store) Insert(_ context.Context, chunks []domain.IndexedChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return fmt.Errorf("chunk %q has no embedding", c.ID)
		}
		if len(s.chunks) > 0 && len(c.Embedding) != len(s.chunks[0].Embedding) {
			return fmt.Errorf("chunk %q: vector dimension mismatch: %d != %d", c.ID, len(c.Embedding), len(s.chunks[0].Embedding))
		}
		s.chunks = append(s.chunks, c)
		s.norms = append(s.norms, norm(c.Embedding))
	}
	return nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Query ranks every stored chunk by cosine distance (1 - cosine similarity).
// Ties keep insertion order.
func (s *Store) Query(ctx context.Context, vector []float32, limit int) ([]domain.RetrievedChunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapFailure(domain.ErrIndexQueryFailed, err)
	}
	if limit <= 0 {
		return []domain.RetrievedChunk{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) > 0 && len(vector) != len(s.chunks[0].Embedding) {
		return nil, domain.WrapFailure(domain.ErrIndexQueryFailed,
			fmt.Errorf("query dimension %d does not match index dimension %d", len(vector), len(s.chunks[0].Embedding)))
	}

	qNorm := norm(vector)
	type scored struct {
		idx      int
		distance float64
	}
	scores := make([]scored, len(s.chunks))
	for i, c := range s.chunks {
		scores[i] = scored{idx: i, distance: cosineDistance(vector, c.Embedding, qNorm, s.norms[i])}
	}
	sort.SliceStable(scores, func(a, b int) bool { return scores[a].distance < scores[b].distance })

	if limit > len(scores) {
		limit = len(scores)
	}
	out := make([]domain.RetrievedChunk, 0, limit)
	for _, sc := range scores[:limit] {
		c := s.chunks[sc.idx]
		out = append(out, domain.RetrievedChunk{
			ID:       c.ID,
			Text:     c.Text,
			URL:      c.URL,
			Title:    c.Title,
			Distance: float32(sc.distance),
		})
	}
	return out, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosineDistance is clamped at zero so rounding never yields a negative distance.
func cosineDistance(a, b []float32, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 1
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	d := 1 - dot/(normA*normB)
	if d < 0 {
		return 0
	}
	return d
}

var _ domain.ChunkStore = (*Store)(nil)
