package usecase_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"site-rag/internal/domain"
	"site-rag/internal/usecase"
)

func TestIndexCorpus_NumbersChunksAcrossBatches(t *testing.T) {
	store := new(mockChunkStore)
	enc := new(mockVectorEncoder)

	var ops []string
	var written []domain.IndexedChunk
	store.On("Reset", mock.Anything).Run(func(mock.Arguments) { ops = append(ops, "reset") }).Return(nil).Once()
	store.On("Insert", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		ops = append(ops, "insert")
		written = append(written, args.Get(1).([]domain.IndexedChunk)...)
	}).Return(nil)

	enc.On("Encode", mock.Anything, []string{"aaaaaaaaaa", "bbbbbbbbbb"}).Return([][]float32{{1}, {2}}, nil).Once()
	enc.On("Encode", mock.Anything, []string{"cccccccccc"}).Return([][]float32{{3}}, nil).Once()

	pages := []domain.Page{
		{URL: "https://x/apps", Title: "Apps", Text: "aaaaaaaaaabbbbbbbbbb"},
		{URL: "https://x/empty", Title: "Empty", Text: "  \n "},
		{URL: "https://x/plans", Title: "Plans", Text: "cccccccccc"},
	}

	uc := usecase.NewIndexCorpusUsecase(store, passthroughTx{}, domain.NewWindowChunker(10, 0), enc, 2, testLogger())
	stats, err := uc.Execute(context.Background(), pages)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.PagesLoaded)
	assert.Equal(t, 1, stats.PagesSkipped)
	assert.Equal(t, 3, stats.ChunksWritten)
	assert.Equal(t, []string{"reset", "insert", "insert"}, ops)

	require.Len(t, written, 3)
	assert.Equal(t, domain.IndexedChunk{ID: "chunk_0", Text: "aaaaaaaaaa", URL: "https://x/apps", Title: "Apps", Embedding: []float32{1}}, written[0])
	assert.Equal(t, "chunk_1", written[1].ID)
	assert.Equal(t, "chunk_2", written[2].ID)
	assert.Equal(t, "https://x/plans", written[2].URL)
	enc.AssertExpectations(t)
}

func TestIndexCorpus_EmptyCorpusStillResets(t *testing.T) {
	store := new(mockChunkStore)
	store.On("Reset", mock.Anything).Return(nil).Once()

	uc := usecase.NewIndexCorpusUsecase(store, passthroughTx{}, domain.NewChunker(), new(mockVectorEncoder), 0, testLogger())
	stats, err := uc.Execute(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, stats.ChunksWritten)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
}

func TestIndexCorpus_Failures(t *testing.T) {
	pages := []domain.Page{{URL: "u", Text: strings.Repeat("z", 15)}}

	tests := []struct {
		name    string
		setup   func(store *mockChunkStore, enc *mockVectorEncoder)
		wantErr error
		wantMsg string
	}{
		{
			name: "reset fails",
			setup: func(store *mockChunkStore, enc *mockVectorEncoder) {
				store.On("Reset", mock.Anything).Return(errors.New("permission denied"))
			},
			wantMsg: "failed to reset index",
		},
		{
			name: "embedding count mismatch",
			setup: func(store *mockChunkStore, enc *mockVectorEncoder) {
				store.On("Reset", mock.Anything).Return(nil)
				enc.On("Encode", mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
			},
			wantErr: domain.ErrEmbeddingFailed,
			wantMsg: "got 1 embeddings for 2 chunks",
		},
		{
			name: "encoder error",
			setup: func(store *mockChunkStore, enc *mockVectorEncoder) {
				store.On("Reset", mock.Anything).Return(nil)
				enc.On("Encode", mock.Anything, mock.Anything).Return(nil, domain.WrapFailure(domain.ErrEmbeddingFailed, errors.New("503")))
			},
			wantErr: domain.ErrEmbeddingFailed,
			wantMsg: "failed to encode batch at 0",
		},
		{
			name: "insert fails",
			setup: func(store *mockChunkStore, enc *mockVectorEncoder) {
				store.On("Reset", mock.Anything).Return(nil)
				enc.On("Encode", mock.Anything, mock.Anything).Return([][]float32{{1}, {2}}, nil)
				store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full"))
			},
			wantMsg: "failed to insert batch at 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(mockChunkStore)
			enc := new(mockVectorEncoder)
			tt.setup(store, enc)

			uc := usecase.NewIndexCorpusUsecase(store, passthroughTx{}, domain.NewWindowChunker(10, 0), enc, 8, testLogger())
			_, err := uc.Execute(context.Background(), pages)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestIndexCorpus_FailedRunReportsNothingWritten(t *testing.T) {
	store := new(mockChunkStore)
	enc := new(mockVectorEncoder)
	store.On("Reset", mock.Anything).Return(nil)
	enc.On("Encode", mock.Anything, mock.Anything).Return([][]float32{{1}}, nil)
	store.On("Insert", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("Insert", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	pages := []domain.Page{{URL: "u", Text: strings.Repeat("z", 20)}}
	uc := usecase.NewIndexCorpusUsecase(store, passthroughTx{}, domain.NewWindowChunker(10, 0), enc, 1, testLogger())
	stats, err := uc.Execute(context.Background(), pages)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert batch at 1")
	assert.Zero(t, stats.ChunksWritten)
	assert.Equal(t, 1, stats.PagesLoaded)
	store.AssertNumberOfCalls(t, "Insert", 2)
}
