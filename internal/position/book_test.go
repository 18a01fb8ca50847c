package position

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRenewsInsteadOfStacking(t *testing.T) {
	b := NewBook()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b.Open("BTC", t0, time.Hour)
	p := b.Open("BTC", t0.Add(30*time.Minute), 5*time.Hour)

	assert.Equal(t, 1, b.Len())
	got, ok := b.Get("BTC")
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.Equal(t, t0.Add(30*time.Minute), got.BoughtAt)
	assert.Equal(t, t0.Add(5*time.Hour+30*time.Minute), got.ExpiresAt)
}

func TestCloseUntrackedIsError(t *testing.T) {
	b := NewBook()
	_, err := b.Close("ETH")
	assert.ErrorIs(t, err, ErrNoPosition)

	b.Open("ETH", time.Now(), time.Hour)
	_, err = b.Close("ETH")
	require.NoError(t, err)

	_, ok := b.Get("ETH")
	assert.False(t, ok)
	_, err = b.Close("ETH")
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestExpiredIsStrictAndSorted(t *testing.T) {
	b := NewBook()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.Open("SOL", t0, time.Hour)
	b.Open("AVAX", t0, time.Hour)
	b.Open("BTC", t0, 3*time.Hour)

	assert.Empty(t, b.Expired(t0.Add(time.Hour)))

	expired := b.Expired(t0.Add(time.Hour + time.Second))
	require.Len(t, expired, 2)
	assert.Equal(t, "AVAX", expired[0].Asset)
	assert.Equal(t, "SOL", expired[1].Asset)

	assert.Equal(t, []string{"AVAX", "BTC", "SOL"}, []string{b.All()[0].Asset, b.All()[1].Asset, b.All()[2].Asset})
}
