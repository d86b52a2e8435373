package geocoding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/i474232898/weather-provider-gateway/internal/weather"
)

// Cached memoizes successful and not-found lookups of another Resolver.
// Transport and response failures are not cached.
type Cached struct {
	next  Resolver
	cache *cache.Cache
}

// NewCached wraps next with entries that expire after ttl.
func NewCached(next Resolver, ttl time.Duration) *Cached {
	return &Cached{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func cacheKey(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Resolve answers from the cache when it can, keyed on the normalized text.
func (c *Cached) Resolve(ctx context.Context, text string) (weather.Coordinates, error) {
	key := cacheKey(text)
	if key == "" {
		return weather.Coordinates{}, weather.ErrNoLocationData
	}

	if v, found := c.cache.Get(key); found {
		switch hit := v.(type) {
		case weather.Coordinates:
			return hit, nil
		case error:
			return weather.Coordinates{}, hit
		}
	}

	coords, err := c.next.Resolve(ctx, text)
	switch {
	case err == nil:
		c.cache.Set(key, coords, cache.DefaultExpiration)
	case errors.Is(err, weather.ErrNoLocationFound):
		c.cache.Set(key, err, cache.DefaultExpiration)
	}
	return coords, err
}

// Flush drops every memoized lookup.
func (c *Cached) Flush() {
	c.cache.Flush()
}
