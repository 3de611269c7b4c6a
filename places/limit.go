package places

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"croplens/app"
)

// Autocomplete requests follow keystrokes; keep them under the quota.
const (
	predictRate  = 5
	predictBurst = 10
)

// RateLimited throttles predictions of an Autocomplete.
type RateLimited struct {
	ac      Autocomplete
	limiter *rate.Limiter
}

// NewRateLimited allows rps predictions per second with the given burst.
func NewRateLimited(ac Autocomplete, rps float64, burst int) *RateLimited {
	return &RateLimited{ac: ac, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (r *RateLimited) Predict(ctx context.Context, input string) ([]Prediction, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.ac.Predict(ctx, input)
}

func (r *RateLimited) Lookup(ctx context.Context, placeID string) (*Place, error) {
	return r.ac.Lookup(ctx, placeID)
}

// Cached resolves each place once: concurrent lookups of the same id share a
// call and resolved locations are kept in the cache.
type Cached struct {
	ac    Autocomplete
	cache *Cache
	group singleflight.Group
}

// NewCached wraps ac. cache may be nil.
func NewCached(ac Autocomplete, cache *Cache) *Cached {
	return &Cached{ac: ac, cache: cache}
}

func (c *Cached) Predict(ctx context.Context, input string) ([]Prediction, error) {
	return c.ac.Predict(ctx, input)
}

func (c *Cached) Lookup(ctx context.Context, placeID string) (*Place, error) {
	if c.cache != nil {
		if loc, ok := c.cache.Get(placeID); ok {
			return &Place{ID: placeID, Location: loc}, nil
		}
	}

	v, err, _ := c.group.Do(placeID, func() (interface{}, error) {
		place, err := c.ac.Lookup(ctx, placeID)
		if err != nil {
			return nil, err
		}
		if c.cache != nil && place != nil && place.Location != nil {
			if err := c.cache.Put(placeID, *place.Location); err != nil {
				app.Log("places", "failed to cache %s: %v", placeID, err)
			}
		}
		return place, nil
	})
	if err != nil {
		return nil, err
	}
	place, _ := v.(*Place)
	return place, nil
}
