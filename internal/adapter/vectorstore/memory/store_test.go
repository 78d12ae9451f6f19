package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"site-rag/internal/domain"
)

func seed(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	require.NoError(t, s.Insert(context.Background(), []domain.IndexedChunk{
		{ID: "chunk_0", Text: "east", URL: "https://x/e", Title: "E", Embedding: []float32{1, 0}},
		{ID: "chunk_1", Text: "north", URL: "https://x/n", Title: "N", Embedding: []float32{0, 1}},
		{ID: "chunk_2", Text: "north-east", URL: "https://x/ne", Title: "NE", Embedding: []float32{1, 1}},
	}))
	return s
}

func TestStore_QueryOrdersByDistance(t *testing.T) {
	s := seed(t)

	got, err := s.Query(context.Background(), []float32{1, 0.1}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "chunk_0", got[0].ID)
	assert.Equal(t, "chunk_2", got[1].ID)
	assert.LessOrEqual(t, got[0].Distance, got[1].Distance)
	assert.GreaterOrEqual(t, got[0].Distance, float32(0))
	assert.Equal(t, "https://x/e", got[0].URL)
}

func TestStore_QueryLimitLargerThanIndex(t *testing.T) {
	s := seed(t)

	got, err := s.Query(context.Background(), []float32{0, 1}, 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Equal(t, "chunk_1", got[0].ID)
}

func TestStore_QueryEmptyIndex(t *testing.T) {
	got, err := NewStore().Query(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestStore_QueryDimensionMismatch(t *testing.T) {
	_, err := seed(t).Query(context.Background(), []float32{1, 0, 0}, 3)
	assert.ErrorIs(t, err, domain.ErrIndexQueryFailed)
}

func TestStore_ResetAndCount(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, s.Reset(ctx))
	n, err = s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestStore_InsertRejectsMismatchedDimension(t *testing.T) {
	s := seed(t)
	err := s.Insert(context.Background(), []domain.IndexedChunk{{ID: "bad", Embedding: []float32{1, 2, 3}}})
	assert.Error(t, err)
}
