// Package engine is the position lifecycle and order execution core.
package engine

import (
	"context"

	"news-trader/internal/order"
	"news-trader/internal/position"
)

// Service is what the scheduler drives.
type Service interface {
	Bootstrap(ctx context.Context) error
	ExecuteDirective(ctx context.Context, d order.Directive) []order.Result
	SweepExpired(ctx context.Context) error
}

// Reader is the read-only view the status API needs.
type Reader interface {
	Balances() map[string]float64
	Positions() []position.Position
	Status() Status
}

var (
	_ Service = (*Engine)(nil)
	_ Reader  = (*Engine)(nil)
)
