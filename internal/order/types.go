package order

import (
	"fmt"
	"time"
)

// Direction is the side of a directive or order.
type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// AllAssets is the asset placeholder a sell directive uses to liquidate everything.
const AllAssets = "all"

// Directive is a trade intent produced by the advisor. Duration is the hold
// period and only meaningful for buys.
type Directive struct {
	Direction Direction     `json:"direction"`
	Asset     string        `json:"asset"`
	Duration  time.Duration `json:"duration"`
}

func (d Directive) String() string {
	if d.Direction == Buy {
		return fmt.Sprintf("%s %s for %s", d.Direction, d.Asset, d.Duration)
	}
	return fmt.Sprintf("%s %s", d.Direction, d.Asset)
}

// Order is a sized market order. Amount is always in asset units; Duration
// is the hold period recorded for buys.
type Order struct {
	Direction Direction     `json:"direction"`
	Asset     string        `json:"asset"`
	Amount    float64       `json:"amount"`
	Duration  time.Duration `json:"duration,omitempty"`
}

func (o Order) String() string {
	return fmt.Sprintf("Order(direction=%s, asset=%s, amount=%g, duration=%s)", o.Direction, o.Asset, o.Amount, o.Duration)
}

// Result is the outcome of one sizing call. Skipped is set only when nothing
// was submitted. Submitted and Err are both set when the venue accepted the
// order but the position book could not be updated.
type Result struct {
	Order     Order  `json:"order"`
	Submitted bool   `json:"submitted"`
	Skipped   string `json:"skipped,omitempty"`
	Err       error  `json:"-"`
}

// Failed reports whether the sizing call ended in an error.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Execution is published when an order was accepted by the venue.
type Execution struct {
	ID              string    `json:"id"`
	Order           Order     `json:"order"`
	Pair            string    `json:"pair"`
	ExchangeOrderID string    `json:"exchange_order_id"`
	Status          string    `json:"status"`
	At              time.Time `json:"at"`
}

// Rejection is published when the venue refused an order.
type Rejection struct {
	ID    string    `json:"id"`
	Order Order     `json:"order"`
	Pair  string    `json:"pair"`
	Error string    `json:"error"`
	At    time.Time `json:"at"`
}
