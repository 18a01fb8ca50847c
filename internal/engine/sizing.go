package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"news-trader/internal/order"
	"news-trader/internal/position"
	exchange "news-trader/pkg/exchanges/common"
)

var hundred = decimal.NewFromInt(100)

// SellAsset sells percent of the asset's free balance, less the fee margin.
// Failures are logged and returned in the Result; they never escape as panics
// or abort a batch.
func (e *Engine) SellAsset(ctx context.Context, asset string, percent float64) order.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sellAsset(ctx, asset, percent)
}

// BuyAsset spends percent of the quote balance, less the fee margin, on asset
// and holds it for hold.
func (e *Engine) BuyAsset(ctx context.Context, asset string, percent float64, hold time.Duration) order.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buyAsset(ctx, asset, percent, hold)
}

func (e *Engine) sellAsset(ctx context.Context, asset string, percent float64) order.Result {
	free, _ := e.balances.Get(asset)
	o := order.Order{Direction: order.Sell, Asset: asset, Amount: shareOf(free, percent, e.maxFee)}
	if o.Amount <= 0 {
		return order.Result{Order: o, Skipped: "no balance to sell"}
	}

	submitted, err := e.executeOrder(ctx, o)
	switch {
	case errors.Is(err, position.ErrNoPosition):
		e.log.WithError(err).WithFields(logrus.Fields{"asset": asset, "amount": o.Amount}).Warn("sold asset without a tracked position")
		return order.Result{Order: o, Submitted: submitted, Err: err}
	case err != nil:
		e.log.WithError(err).WithField("asset", asset).Warnf("failed to sell %s", asset)
		return order.Result{Order: o, Err: err}
	case !submitted:
		return order.Result{Order: o, Skipped: "asset not in balance snapshot"}
	}
	return order.Result{Order: o, Submitted: true}
}

func (e *Engine) buyAsset(ctx context.Context, asset string, percent float64, hold time.Duration) order.Result {
	o := order.Order{Direction: order.Buy, Asset: asset, Duration: hold}

	quote, _ := e.balances.Get(e.quote)
	spend := shareOf(quote, percent, e.maxFee)
	if spend <= 0 {
		e.log.WithFields(logrus.Fields{"asset": asset, "quote": e.quote}).Infof("cannot buy %s because no %s", asset, e.quote)
		return order.Result{Order: o, Skipped: "no quote balance"}
	}

	price, err := e.gateway.FetchTicker(ctx, exchange.Pair(asset, e.quote))
	if err == nil {
		o.Amount, err = quoteToAsset(spend, price)
	}
	if err != nil {
		e.log.WithError(err).WithField("asset", asset).Warnf("failed to buy %s", asset)
		return order.Result{Order: o, Err: err}
	}
	if o.Amount <= 0 {
		return order.Result{Order: o, Skipped: "amount rounds to zero"}
	}

	submitted, err := e.executeOrder(ctx, o)
	if err != nil {
		e.log.WithError(err).WithField("asset", asset).Warnf("failed to buy %s", asset)
		return order.Result{Order: o, Err: err}
	}
	if !submitted {
		return order.Result{Order: o, Skipped: "asset not in balance snapshot"}
	}
	return order.Result{Order: o, Submitted: true}
}

// shareOf computes balance * percent/100 * (1 - maxFee); never negative.
func shareOf(balance, percent, maxFee float64) float64 {
	if balance <= 0 || percent <= 0 {
		return 0
	}
	v := decimal.NewFromFloat(balance).
		Mul(decimal.NewFromFloat(percent)).
		Div(hundred).
		Mul(decimal.NewFromInt(1).Sub(decimal.NewFromFloat(maxFee)))
	if !v.IsPositive() {
		return 0
	}
	return v.InexactFloat64()
}

// quoteToAsset converts an amount of quote currency into asset units at price.
func quoteToAsset(quoteAmount, price float64) (float64, error) {
	if price <= 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	return decimal.NewFromFloat(quoteAmount).Div(decimal.NewFromFloat(price)).InexactFloat64(), nil
}
