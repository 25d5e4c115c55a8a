package generation

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"mdsum/internal/domain"
)

// RateLimited wraps a Generator with one token bucket per endpoint so a
// single model server never sees more than rps requests per second.
type RateLimited struct {
	next  domain.Generator
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimited returns next unchanged when rps is not positive.
func NewRateLimited(next domain.Generator, rps float64, burst int) domain.Generator {
	if rps <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		next:     next,
		rps:      rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Name returns the wrapped backend's name.
func (r *RateLimited) Name() string { return r.next.Name() }

// Generate waits for the endpoint's limiter before delegating.
func (r *RateLimited) Generate(ctx context.Context, req domain.GenerationRequest) (string, error) {
	if err := r.limiter(req.Endpoint).Wait(ctx); err != nil {
		return "", err
	}
	return r.next.Generate(ctx, req)
}

func (r *RateLimited) limiter(endpoint string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.limiters[endpoint]
	if !ok {
		l = rate.NewLimiter(r.rps, r.burst)
		r.limiters[endpoint] = l
	}
	return l
}
