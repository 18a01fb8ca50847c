package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	price float64
	err   error
	calls int
}

func (s *countingSource) FetchTicker(context.Context, string) (float64, error) {
	s.calls++
	return s.price, s.err
}

func newCache(t *testing.T, src TickerSource, ttl time.Duration) *TickerCache {
	t.Helper()
	c, err := NewTickerCache(src, ttl)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestTickerCacheServesFreshPrices(t *testing.T) {
	src := &countingSource{price: 100}
	c := newCache(t, src, 100*time.Millisecond)
	ctx := context.Background()

	p, err := c.FetchTicker(ctx, "BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, 100.0, p)

	src.price = 110
	p, _ = c.FetchTicker(ctx, "BTC/USDT")
	assert.Equal(t, 100.0, p)
	assert.Equal(t, 1, src.calls)

	time.Sleep(250 * time.Millisecond)
	p, _ = c.FetchTicker(ctx, "BTC/USDT")
	assert.Equal(t, 110.0, p)
	assert.Equal(t, 2, src.calls)
}

func TestTickerCacheDoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: errors.New("down")}
	c := newCache(t, src, time.Minute)
	ctx := context.Background()

	_, err := c.FetchTicker(ctx, "ETH/USDT")
	assert.Error(t, err)
	_, _, ok := c.GetWithAge("ETH/USDT")
	assert.False(t, ok)

	_, err = c.FetchTicker(ctx, "ETH/USDT")
	assert.Error(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestTickerCacheDel(t *testing.T) {
	src := &countingSource{price: 5}
	c := newCache(t, src, time.Minute)
	ctx := context.Background()

	_, err := c.FetchTicker(ctx, "SOL/USDT")
	require.NoError(t, err)
	c.Del("SOL/USDT")
	_, err = c.FetchTicker(ctx, "SOL/USDT")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
