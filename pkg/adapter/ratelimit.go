package adapter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped adapter.
type RateLimited struct {
	next    Adapter
	limiter *rate.Limiter
}

// NewRateLimited allows rps requests per second with a burst of one.
// A non-positive rps returns next unchanged.
func NewRateLimited(next Adapter, rps float64) Adapter {
	if rps <= 0 {
		return next
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Name returns the wrapped adapter's name.
func (r *RateLimited) Name() string {
	return r.next.Name()
}

// Generate waits for a token before delegating.
func (r *RateLimited) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, &AdapterError{Provider: r.next.Name(), Temporary: true, Err: err}
	}
	return r.next.Generate(ctx, req)
}
