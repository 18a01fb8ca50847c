package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	database, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, ApplyMigrations(database))
	return database
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	database := newTestDB(t)
	require.NoError(t, ApplyMigrations(database))
}

func TestOrdersNewestFirst(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, database.CreateOrder(ctx, Order{
		ID: "o-1", Direction: "buy", Asset: "BTC", Pair: "BTC/USDT", Amount: 0.01,
		Hold: 5 * time.Hour, ExchangeOrderID: "77", Status: "FILLED", CreatedAt: t0,
	}))
	require.NoError(t, database.CreateOrder(ctx, Order{
		ID: "o-2", Direction: "sell", Asset: "BTC", Pair: "BTC/USDT", Amount: 0.01,
		Status: "REJECTED", Error: "insufficient balance", CreatedAt: t0.Add(time.Minute),
	}))

	orders, err := database.ListOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o-2", orders[0].ID)
	assert.Equal(t, "insufficient balance", orders[0].Error)
	assert.Equal(t, "o-1", orders[1].ID)
	assert.Equal(t, 5*time.Hour, orders[1].Hold)
	assert.True(t, orders[1].CreatedAt.Equal(t0))

	orders, err = database.ListOrders(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestDirectivesRoundTrip(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, database.CreateDirective(ctx, Directive{
		ID: "d-1", Direction: "buy", Asset: "AVAX", Hold: 10 * time.Hour, ArticleCount: 3,
	}))

	dirs, err := database.ListDirectives(ctx, 0)
	require.NoError(t, err)
	require.Len(t, dirs, 1)
	assert.Equal(t, "AVAX", dirs[0].Asset)
	assert.Equal(t, 10*time.Hour, dirs[0].Hold)
	assert.Equal(t, 3, dirs[0].ArticleCount)
}
