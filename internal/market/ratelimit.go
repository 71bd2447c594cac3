package market

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited paces outbound requests of the wrapped provider.
type RateLimited struct {
	next    QuoteProvider
	limiter *rate.Limiter
}

// NewRateLimited allows one request per interval with the given burst.
// A non-positive interval disables pacing.
func NewRateLimited(next QuoteProvider, interval time.Duration, burst int) *RateLimited {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) FetchQuote(ctx context.Context, symbol string) (Quote, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		// Wait fails early when the deadline would pass before a token is available.
		return Quote{}, &FetchError{Symbol: symbol, Kind: KindTimeout, Err: fmt.Errorf("rate limit wait: %w", err)}
	}
	return r.next.FetchQuote(ctx, symbol)
}
