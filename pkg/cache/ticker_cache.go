// Package cache keeps recently fetched ticker prices so repeated sizing and
// paper fills within a cycle do not each hit the venue.
package cache

import (
	"context"
	"time"
)

// TickerSource is anything that can quote a pair.
type TickerSource interface {
	FetchTicker(ctx context.Context, pair string) (float64, error)
}

// TickerCache wraps a TickerSource and serves prices younger than ttl from
// memory. Errors are never cached.
type TickerCache struct {
	source TickerSource
	c      *Cache
}

type priceEntry struct {
	price     float64
	updatedAt time.Time
}

// NewTickerCache sizes the cache for a few thousand pairs.
func NewTickerCache(source TickerSource, ttl time.Duration) (*TickerCache, error) {
	c, err := New(1<<12, ttl)
	if err != nil {
		return nil, err
	}
	return &TickerCache{source: source, c: c}, nil
}

// FetchTicker returns the cached price for pair, refreshing it from the
// source once it has expired.
func (c *TickerCache) FetchTicker(ctx context.Context, pair string) (float64, error) {
	if price, _, ok := c.GetWithAge(pair); ok {
		return price, nil
	}
	price, err := c.source.FetchTicker(ctx, pair)
	if err != nil {
		return 0, err
	}
	c.Set(pair, price)
	return price, nil
}

// Set stores a price for pair.
func (c *TickerCache) Set(pair string, price float64) {
	c.c.Set(pair, priceEntry{price: price, updatedAt: time.Now()})
}

// GetWithAge retrieves an unexpired price and its age.
func (c *TickerCache) GetWithAge(pair string) (float64, time.Duration, bool) {
	v, ok := c.c.Get(pair)
	if !ok {
		return 0, 0, false
	}
	entry := v.(priceEntry)
	return entry.price, time.Since(entry.updatedAt), true
}

// Del drops a pair so the next lookup goes to the source.
func (c *TickerCache) Del(pair string) { c.c.Del(pair) }

// Close stops the cache's background goroutines.
func (c *TickerCache) Close() { c.c.Close() }
