package common

import (
	"strings"
)

// Side denotes order side.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderType denotes the order types this venue layer submits.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
)

// OrderStatus normalizes exchange status into a small set.
type OrderStatus string

const (
	StatusNew      OrderStatus = "NEW"
	StatusPartial  OrderStatus = "PARTIAL"
	StatusFilled   OrderStatus = "FILLED"
	StatusCanceled OrderStatus = "CANCELED"
	StatusRejected OrderStatus = "REJECTED"
	StatusExpired  OrderStatus = "EXPIRED"
	StatusUnknown  OrderStatus = "UNKNOWN"
)

// Balance is the free amount of one asset held on the venue.
type Balance struct {
	Asset string
	Free  float64
}

// OrderRequest captures a market order intent in asset units.
type OrderRequest struct {
	Pair     string
	Side     Side
	Type     OrderType
	Qty      float64
	ClientID string // optional client order id
}

// OrderResult returns the exchange ack.
type OrderResult struct {
	ExchangeOrderID string
	Status          OrderStatus
	ClientID        string
	ExecutedQty     float64
}

// PairSeparator joins base and quote in venue-neutral pair names ("BTC/USDT").
const PairSeparator = "/"

// Pair builds the venue-neutral trading pair for asset priced in quote.
func Pair(asset, quote string) string {
	return asset + PairSeparator + quote
}

// SplitPair returns the base and quote of a venue-neutral pair.
func SplitPair(pair string) (base, quote string, ok bool) {
	base, quote, ok = strings.Cut(pair, PairSeparator)
	if !ok || base == "" || quote == "" {
		return "", "", false
	}
	return base, quote, true
}
