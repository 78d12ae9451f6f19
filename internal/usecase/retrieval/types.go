package retrieval

import (
	"context"

	"site-rag/internal/domain"
)

// Embedder returns the embedding for one text, typically through a cache.
type Embedder interface {
	GetOrCompute(ctx context.Context, text string) ([]float32, error)
}

// StageContext carries data between pipeline stages.
type StageContext struct {
	// Input
	RetrievalID string
	Query       string
	TopK        int

	// Search term stage
	SearchTerms    []string
	TriggeredRules []domain.TopicRule

	// Per-term retrieval, indexed like SearchTerms
	TermResults [][]domain.RetrievedChunk
	TermErrors  []error

	// Merge and filter outputs
	Merged        []domain.RetrievedChunk
	Filtered      []domain.RetrievedChunk
	FilterApplied bool
}

// FailedTerms counts the terms whose retrieval failed.
func (sc *StageContext) FailedTerms() int {
	n := 0
	for _, err := range sc.TermErrors {
		if err != nil {
			n++
		}
	}
	return n
}
