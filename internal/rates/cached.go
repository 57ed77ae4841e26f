package rates

import (
	"context"

	"retromoney/internal/cache"
	"retromoney/internal/core"
	"retromoney/internal/fx"
)

// CachedSource wraps a Source with a TTL cache keyed by rate type. A stale
// upstream failure falls back to the last cached quote when one exists, so a
// DolarAPI outage degrades to old rates instead of errors.
type CachedSource struct {
	source Source
	cache  *cache.LRUCache[core.ExchangeRate]
	// last holds quotes past their TTL for outage fallback
	last *cache.LRUCache[core.ExchangeRate]
}

func NewCachedSource(source Source) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.NewLRUCache[core.ExchangeRate](4, cache.TTLRates),
		last:   cache.NewLRUCache[core.ExchangeRate](4, 30*24*cache.TTLRates),
	}
}

func (s *CachedSource) Get(ctx context.Context, t fx.RateType) (core.ExchangeRate, error) {
	key := string(t)
	if rate, ok := s.cache.Get(key); ok {
		return rate, nil
	}

	rate, err := s.source.Get(ctx, t)
	if err != nil {
		if stale, ok := s.last.Get(key); ok {
			return stale, nil
		}
		return core.ExchangeRate{}, err
	}

	s.cache.Set(key, rate)
	s.last.Set(key, rate)
	return rate, nil
}

// Invalidate drops the fresh cache entry for a rate type, forcing the next
// Get to hit the upstream. The outage fallback entry is kept.
func (s *CachedSource) Invalidate(t fx.RateType) {
	s.cache.Delete(string(t))
}

// CleanExpired drops expired fresh entries, satisfying cache.Cleaner. The
// outage fallback entries are deliberately never cleaned.
func (s *CachedSource) CleanExpired() int {
	return s.cache.CleanExpired()
}
