package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"site-rag/internal/domain"
	"site-rag/internal/usecase"
)

func TestEmbeddingCache_HitSkipsEncoder(t *testing.T) {
	enc := new(mockVectorEncoder)
	enc.On("Encode", mock.Anything, []string{"x"}).Return([][]float32{{0.5, 0.25}}, nil).Once()

	cache, err := usecase.NewEmbeddingCache(enc, 8, testLogger())
	require.NoError(t, err)

	first, err := cache.GetOrCompute(context.Background(), "x")
	require.NoError(t, err)
	second, err := cache.GetOrCompute(context.Background(), "x")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.Len())
	enc.AssertNumberOfCalls(t, "Encode", 1)
}

func TestEmbeddingCache_KeyIsExactText(t *testing.T) {
	enc := new(mockVectorEncoder)
	enc.On("Encode", mock.Anything, []string{"Apps"}).Return([][]float32{{1}}, nil).Once()
	enc.On("Encode", mock.Anything, []string{"apps"}).Return([][]float32{{2}}, nil).Once()

	cache, err := usecase.NewEmbeddingCache(enc, 8, testLogger())
	require.NoError(t, err)

	a, err := cache.GetOrCompute(context.Background(), "Apps")
	require.NoError(t, err)
	b, err := cache.GetOrCompute(context.Background(), "apps")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	enc.AssertExpectations(t)
}

func TestEmbeddingCache_FailureNotCached(t *testing.T) {
	enc := new(mockVectorEncoder)
	enc.On("Encode", mock.Anything, []string{"x"}).Return(nil, errors.New("connection refused")).Once()
	enc.On("Encode", mock.Anything, []string{"x"}).Return([][]float32{{3}}, nil).Once()

	cache, err := usecase.NewEmbeddingCache(enc, 8, testLogger())
	require.NoError(t, err)

	_, err = cache.GetOrCompute(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.Equal(t, 0, cache.Len())

	v, err := cache.GetOrCompute(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float32{3}, v)
	enc.AssertNumberOfCalls(t, "Encode", 2)
}

func TestEmbeddingCache_ConcurrentMissesShareOneCall(t *testing.T) {
	enc := new(mockVectorEncoder)
	enc.On("Encode", mock.Anything, []string{"x"}).
		After(50*time.Millisecond).
		Return([][]float32{{9}}, nil)

	cache, err := usecase.NewEmbeddingCache(enc, 8, testLogger())
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]float32, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = cache.GetOrCompute(context.Background(), "x")
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, []float32{9}, results[i])
	}
	enc.AssertNumberOfCalls(t, "Encode", 1)
}

func TestEmbeddingCache_EvictsLeastRecentlyUsed(t *testing.T) {
	enc := new(mockVectorEncoder)
	enc.On("Encode", mock.Anything, []string{"a"}).Return([][]float32{{1}}, nil)
	enc.On("Encode", mock.Anything, []string{"b"}).Return([][]float32{{2}}, nil)

	cache, err := usecase.NewEmbeddingCache(enc, 1, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = cache.GetOrCompute(ctx, "a")
	_, _ = cache.GetOrCompute(ctx, "b")
	_, _ = cache.GetOrCompute(ctx, "a")

	assert.Equal(t, 1, cache.Len())
	enc.AssertNumberOfCalls(t, "Encode", 3)
}

func TestEmbeddingCache_CancelledCallerDoesNotFailSharedMiss(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var encodeCtxErr error

	enc := new(mockVectorEncoder)
	enc.On("Encode", mock.Anything, []string{"apps"}).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
			encodeCtxErr = args.Get(0).(context.Context).Err()
		}).
		Return([][]float32{{4}}, nil).Once()

	cache, err := usecase.NewEmbeddingCache(enc, 8, testLogger())
	require.NoError(t, err)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := cache.GetOrCompute(ctxA, "apps")
		errA <- err
	}()
	<-started

	type result struct {
		v   []float32
		err error
	}
	resB := make(chan result, 1)
	go func() {
		v, err := cache.GetOrCompute(context.Background(), "apps")
		resB <- result{v, err}
	}()

	cancelA()
	err = <-errA
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.ErrorIs(t, err, context.Canceled)

	// give B time to join the in-flight call
	time.Sleep(20 * time.Millisecond)
	close(release)

	b := <-resB
	require.NoError(t, b.err)
	assert.Equal(t, []float32{4}, b.v)
	assert.NoError(t, encodeCtxErr, "encoder context must outlive the cancelled caller")
	assert.Equal(t, 1, cache.Len())
	enc.AssertNumberOfCalls(t, "Encode", 1)
}

func TestEmbeddingCache_WaiterHonoursOwnDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	enc := new(mockVectorEncoder)
	enc.On("Encode", mock.Anything, []string{"slow"}).
		Run(func(mock.Arguments) { <-release }).
		Return([][]float32{{1}}, nil)

	cache, err := usecase.NewEmbeddingCache(enc, 8, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = cache.GetOrCompute(ctx, "slow")
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.ErrorIs(t, err, domain.ErrTimeout)
}
