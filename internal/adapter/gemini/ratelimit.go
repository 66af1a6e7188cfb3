package gemini

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/weather-shield/internal/domain"
)

// RateLimited wraps a Gemini client with a shared token bucket so geocoding
// and synthesis calls together stay under the provider quota.
type RateLimited struct {
	inner   *Client
	limiter *rate.Limiter
}

// NewRateLimited creates a rate-limiting decorator. rps may be fractional for
// slower-than-one-per-second limits.
func NewRateLimited(inner *Client, rps float64, burst int) *RateLimited {
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) ResolveQuery(ctx context.Context, query string) (domain.ResolvedLocation, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.ResolvedLocation{}, fmt.Errorf("%w: rate limit wait: %w", domain.ErrLocationResolution, err)
	}
	return r.inner.ResolveQuery(ctx, query)
}

func (r *RateLimited) Synthesize(ctx context.Context, coord domain.Coordinate, raw domain.RawTelemetry) (domain.SynthesisReport, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return domain.SynthesisReport{}, fmt.Errorf("%w: rate limit wait: %w", domain.ErrSynthesis, err)
	}
	return r.inner.Synthesize(ctx, coord, raw)
}
