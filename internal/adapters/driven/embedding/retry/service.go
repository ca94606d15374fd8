package retry

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultRate is the default request rate per second.
const DefaultRate = 10

// EmbeddingService decorates another EmbeddingService with a retry policy
// and a request rate limit. Every provider request, including each retry,
// takes one limiter token.
type EmbeddingService struct {
	next    driven.EmbeddingService
	policy  Policy
	limiter *rate.Limiter
}

// Option configures the decorator.
type Option func(*EmbeddingService)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(s *EmbeddingService) {
		s.policy = p
	}
}

// WithLimiter replaces the default limiter of DefaultRate requests per
// second.
func WithLimiter(l *rate.Limiter) Option {
	return func(s *EmbeddingService) {
		s.limiter = l
	}
}

// NewEmbeddingService wraps next.
func NewEmbeddingService(next driven.EmbeddingService, opts ...Option) *EmbeddingService {
	s := &EmbeddingService{
		next:    next,
		policy:  DefaultPolicy(),
		limiter: rate.NewLimiter(rate.Limit(DefaultRate), DefaultRate),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed embeds one text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	return Do(ctx, s.policy, func(ctx context.Context) ([]float32, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.next.Embed(ctx, text)
	})
}

// EmbedBatch embeds texts in one provider call.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return Do(ctx, s.policy, func(ctx context.Context) ([][]float32, error) {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return s.next.EmbedBatch(ctx, texts)
	})
}

// Dimensions returns the wrapped service's dimensions.
func (s *EmbeddingService) Dimensions() int {
	return s.next.Dimensions()
}

// ModelName returns the wrapped service's model.
func (s *EmbeddingService) ModelName() string {
	return s.next.ModelName()
}

// Ping checks the wrapped service once, without retries.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

// Close closes the wrapped service.
func (s *EmbeddingService) Close() error {
	return s.next.Close()
}
