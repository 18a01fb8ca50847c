package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache is a TTL cache where every entry costs one unit.
type Cache struct {
	c   *ristretto.Cache
	ttl time.Duration
}

// New holds up to maxItems entries, each dropped ttl after it was set.
func New(maxItems int64, ttl time.Duration) (*Cache, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

func (c *Cache) Get(key string) (any, bool) { return c.c.Get(key) }

// Set waits for ristretto's write buffer so the next Get sees the entry.
func (c *Cache) Set(key string, val any) {
	c.c.SetWithTTL(key, val, 1, c.ttl)
	c.c.Wait()
}

func (c *Cache) Del(key string) { c.c.Del(key) }

// Close stops the background goroutines.
func (c *Cache) Close() { c.c.Close() }
