package order

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/events"
	"news-trader/pkg/db"
	exchange "news-trader/pkg/exchanges/common"
)

type stubGateway struct {
	buys, sells []string
	err         error
}

func (g *stubGateway) FetchTicker(context.Context, string) (float64, error) { return 1, nil }
func (g *stubGateway) FetchBalances(context.Context) ([]exchange.Balance, error) {
	return nil, nil
}
func (g *stubGateway) CreateMarketBuyOrder(_ context.Context, pair string, _ float64) (exchange.OrderResult, error) {
	if g.err != nil {
		return exchange.OrderResult{}, g.err
	}
	g.buys = append(g.buys, pair)
	return exchange.OrderResult{ExchangeOrderID: "1", Status: exchange.StatusFilled}, nil
}
func (g *stubGateway) CreateMarketSellOrder(_ context.Context, pair string, _ float64) (exchange.OrderResult, error) {
	if g.err != nil {
		return exchange.OrderResult{}, g.err
	}
	g.sells = append(g.sells, pair)
	return exchange.OrderResult{ExchangeOrderID: "2", Status: exchange.StatusFilled}, nil
}

func newJournal(t *testing.T) *db.Database {
	t.Helper()
	database, err := db.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.ApplyMigrations(database))
	return database
}

func TestSubmitRoutesByDirectionAndJournals(t *testing.T) {
	gw := &stubGateway{}
	journal := newJournal(t)
	bus := events.NewBus()
	executed, unsub := bus.Subscribe(events.EventOrderExecuted, 4)
	defer unsub()

	exec := NewExecutor(gw, journal, bus, "test")
	ctx := context.Background()

	_, err := exec.Submit(ctx, Order{Direction: Buy, Asset: "BTC", Amount: 0.1}, "BTC/USDT")
	require.NoError(t, err)
	res, err := exec.Submit(ctx, Order{Direction: Sell, Asset: "ETH", Amount: 2}, "ETH/USDT")
	require.NoError(t, err)
	assert.Equal(t, "2", res.ExchangeOrderID)

	assert.Equal(t, []string{"BTC/USDT"}, gw.buys)
	assert.Equal(t, []string{"ETH/USDT"}, gw.sells)

	ev := (<-executed).(Execution)
	assert.Equal(t, "BTC/USDT", ev.Pair)
	assert.Equal(t, string(exchange.StatusFilled), ev.Status)

	rows, err := journal.ListOrders(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestSubmitRejectionIsJournaledAndReturned(t *testing.T) {
	gw := &stubGateway{err: errors.New("insufficient balance")}
	journal := newJournal(t)
	bus := events.NewBus()
	rejected, unsub := bus.Subscribe(events.EventOrderRejected, 1)
	defer unsub()

	exec := NewExecutor(gw, journal, bus, "test")
	_, err := exec.Submit(context.Background(), Order{Direction: Sell, Asset: "BTC", Amount: 1}, "BTC/USDT")
	assert.EqualError(t, err, "insufficient balance")

	rej := (<-rejected).(Rejection)
	assert.Equal(t, "insufficient balance", rej.Error)

	rows, err := journal.ListOrders(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, string(exchange.StatusRejected), rows[0].Status)
}

func TestSubmitUnknownDirection(t *testing.T) {
	gw := &stubGateway{}
	exec := NewExecutor(gw, nil, nil, "test")

	_, err := exec.Submit(context.Background(), Order{Direction: "hold", Asset: "BTC", Amount: 1}, "BTC/USDT")
	assert.ErrorIs(t, err, ErrUnknownDirection)
	assert.Empty(t, gw.buys)
	assert.Empty(t, gw.sells)
}

// submittingGateway accepts full order requests.
type submittingGateway struct {
	stubGateway
	reqs []exchange.OrderRequest
}

func (g *submittingGateway) SubmitOrder(_ context.Context, req exchange.OrderRequest) (exchange.OrderResult, error) {
	g.reqs = append(g.reqs, req)
	return exchange.OrderResult{ExchangeOrderID: "7", Status: exchange.StatusFilled, ClientID: req.ClientID}, nil
}

func TestSubmitForwardsJournalIDAsClientOrderID(t *testing.T) {
	gw := &submittingGateway{}
	journal := newJournal(t)
	exec := NewExecutor(gw, journal, nil, "test")
	exec.newID = func() string { return "order-1" }
	ctx := context.Background()

	res, err := exec.Submit(ctx, Order{Direction: Sell, Asset: "AVAX", Amount: 3}, "AVAX/USDT")
	require.NoError(t, err)
	assert.Equal(t, "order-1", res.ClientID)

	require.Len(t, gw.reqs, 1)
	assert.Equal(t, exchange.OrderRequest{
		Pair:     "AVAX/USDT",
		Side:     exchange.SideSell,
		Type:     exchange.OrderTypeMarket,
		Qty:      3,
		ClientID: "order-1",
	}, gw.reqs[0])
	assert.Empty(t, gw.sells)

	rows, err := journal.ListOrders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "order-1", rows[0].ID)
	assert.Equal(t, "7", rows[0].ExchangeOrderID)
}
