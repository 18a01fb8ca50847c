package common

import (
	"context"
	"errors"
)

// ErrUnknownPair is returned when a pair is not in "BASE/QUOTE" form.
var ErrUnknownPair = errors.New("exchange: malformed trading pair")

// Gateway abstracts a trading venue down to the calls the engine needs.
// Pairs are venue-neutral ("AVAX/USDT"); amounts are always in base asset units.
type Gateway interface {
	FetchTicker(ctx context.Context, pair string) (float64, error)
	FetchBalances(ctx context.Context) ([]Balance, error)
	CreateMarketBuyOrder(ctx context.Context, pair string, qty float64) (OrderResult, error)
	CreateMarketSellOrder(ctx context.Context, pair string, qty float64) (OrderResult, error)
}

// OrderSubmitter is implemented by venues that accept a full OrderRequest,
// which lets callers tag orders with their own client order id.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderResult, error)
}
