package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"news-trader/internal/events"
	"news-trader/pkg/db"
	exchange "news-trader/pkg/exchanges/common"
)

var log = logrus.WithField("component", "executor")

// ErrUnknownDirection is returned for orders that are neither buy nor sell.
var ErrUnknownDirection = errors.New("unknown order direction")

// Journal stores every submission attempt.
type Journal interface {
	CreateOrder(ctx context.Context, o db.Order) error
}

// Executor sends orders to the exchange gateway, journals them, and emits updates.
type Executor struct {
	Gateway exchange.Gateway
	Journal Journal     // optional
	Bus     *events.Bus // optional
	Venue   string      // name/id for logging

	now   func() time.Time
	newID func() string
}

func NewExecutor(gw exchange.Gateway, journal Journal, bus *events.Bus, venue string) *Executor {
	return &Executor{
		Gateway: gw,
		Journal: journal,
		Bus:     bus,
		Venue:   venue,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Submit places o as a market order on pair. Gateway errors are returned
// unchanged after being journaled. The journal id doubles as the venue's
// client order id when the gateway accepts one.
func (e *Executor) Submit(ctx context.Context, o Order, pair string) (exchange.OrderResult, error) {
	var side exchange.Side
	switch o.Direction {
	case Buy:
		side = exchange.SideBuy
	case Sell:
		side = exchange.SideSell
	default:
		return exchange.OrderResult{}, fmt.Errorf("%w: %q", ErrUnknownDirection, o.Direction)
	}

	id := e.newID()
	res, err := e.place(ctx, side, pair, o.Amount, id)
	at := e.now()
	row := db.Order{
		ID:              id,
		Direction:       string(o.Direction),
		Asset:           o.Asset,
		Pair:            pair,
		Amount:          o.Amount,
		Hold:            o.Duration,
		ExchangeOrderID: res.ExchangeOrderID,
		Status:          string(res.Status),
		CreatedAt:       at,
	}
	if err != nil {
		row.Status = string(exchange.StatusRejected)
		row.Error = err.Error()
	}
	e.record(ctx, row)

	if err != nil {
		e.Bus.Publish(events.EventOrderRejected, Rejection{ID: id, Order: o, Pair: pair, Error: err.Error(), At: at})
		return res, err
	}
	e.Bus.Publish(events.EventOrderExecuted, Execution{
		ID:              id,
		Order:           o,
		Pair:            pair,
		ExchangeOrderID: res.ExchangeOrderID,
		Status:          string(res.Status),
		At:              at,
	})
	return res, nil
}

func (e *Executor) place(ctx context.Context, side exchange.Side, pair string, qty float64, clientID string) (exchange.OrderResult, error) {
	if sub, ok := e.Gateway.(exchange.OrderSubmitter); ok {
		return sub.SubmitOrder(ctx, exchange.OrderRequest{
			Pair:     pair,
			Side:     side,
			Type:     exchange.OrderTypeMarket,
			Qty:      qty,
			ClientID: clientID,
		})
	}
	if side == exchange.SideBuy {
		return e.Gateway.CreateMarketBuyOrder(ctx, pair, qty)
	}
	return e.Gateway.CreateMarketSellOrder(ctx, pair, qty)
}

func (e *Executor) record(ctx context.Context, row db.Order) {
	if e.Journal == nil {
		return
	}
	if err := e.Journal.CreateOrder(ctx, row); err != nil {
		log.WithError(err).WithFields(logrus.Fields{"order_id": row.ID, "venue": e.Venue}).Warn("store order failed")
	}
}
