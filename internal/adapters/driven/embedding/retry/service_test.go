package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragcore/internal/core/domain"
	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// flakyService fails the first failures calls of each method.
type flakyService struct {
	failures int
	calls    int
	err      error
	closed   bool
}

var _ driven.EmbeddingService = (*flakyService)(nil)

func (f *flakyService) fail() error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func (f *flakyService) Embed(_ context.Context, text string) ([]float32, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	return []float32{float32(len(text))}, nil
}

func (f *flakyService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if err := f.fail(); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (f *flakyService) Dimensions() int                { return 1 }
func (f *flakyService) ModelName() string              { return "flaky" }
func (f *flakyService) Ping(ctx context.Context) error { return f.fail() }
func (f *flakyService) Close() error {
	f.closed = true
	return nil
}

func TestEmbeddingService_RetriesEmbed(t *testing.T) {
	next := &flakyService{failures: 2, err: errProvider}
	svc := NewEmbeddingService(next, WithPolicy(fastPolicy(3)))

	vec, err := svc.Embed(context.Background(), "abc")

	require.NoError(t, err)
	assert.Equal(t, []float32{3}, vec)
	assert.Equal(t, 3, next.calls)
}

func TestEmbeddingService_RetriesBatch(t *testing.T) {
	next := &flakyService{failures: 1, err: domain.ErrRateLimited}
	svc := NewEmbeddingService(next, WithPolicy(fastPolicy(2)))

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bb"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, vecs)
}

func TestEmbeddingService_EmptyInputPassesThrough(t *testing.T) {
	next := &flakyService{failures: 5, err: domain.ErrEmptyInput}
	svc := NewEmbeddingService(next, WithPolicy(fastPolicy(5)))

	_, err := svc.Embed(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrEmptyInput)
	assert.Equal(t, 1, next.calls)
}

func TestEmbeddingService_RateLimit(t *testing.T) {
	next := &flakyService{}
	limiter := rate.NewLimiter(rate.Every(20*time.Millisecond), 1)
	svc := NewEmbeddingService(next, WithPolicy(fastPolicy(1)), WithLimiter(limiter))

	start := time.Now()
	for i := 0; i < 4; i++ {
		_, err := svc.Embed(context.Background(), "x")
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestEmbeddingService_LimiterRespectsContext(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	svc := NewEmbeddingService(&flakyService{}, WithPolicy(fastPolicy(1)), WithLimiter(limiter))
	_, err := svc.Embed(context.Background(), "x")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = svc.Embed(ctx, "x")

	assert.Error(t, err)
}

func TestEmbeddingService_PassThrough(t *testing.T) {
	next := &flakyService{failures: 1, err: errProvider}
	svc := NewEmbeddingService(next)

	assert.Equal(t, 1, svc.Dimensions())
	assert.Equal(t, "flaky", svc.ModelName())
	assert.ErrorIs(t, svc.Ping(context.Background()), domain.ErrProviderFailure, "ping is not retried")
	assert.NoError(t, svc.Close())
	assert.True(t, next.closed)
}
