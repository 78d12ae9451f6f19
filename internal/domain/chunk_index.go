package domain

import "context"

// ChunkIndex is the read side of the vector index.
type ChunkIndex interface {
	// Query returns up to limit chunks ordered by ascending distance to vector.
	Query(ctx context.Context, vector []float32, limit int) ([]RetrievedChunk, error)
}

// ChunkStore is the write side of the vector index, used by the offline indexer.
type ChunkStore interface {
	ChunkIndex
	// Reset drops every chunk so the collection can be rebuilt from scratch.
	Reset(ctx context.Context) error
	// Insert appends chunks to the collection.
	Insert(ctx context.Context, chunks []IndexedChunk) error
	// Count returns the number of stored chunks.
	Count(ctx context.Context) (int, error)
}

// TransactionManager defines the interface for handling database transactions.
type TransactionManager interface {
	// RunInTx executes the given function within a transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
