package domain

import (
	"context"
)

// VectorEncoder defines the interface for generating embeddings.
// It returns one vector per input text, in input order.
type VectorEncoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
	Version() string
}
