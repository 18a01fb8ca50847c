// Package position tracks at most one open, time-bounded position per asset.
package position

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNoPosition is returned when closing an asset that has no open position.
// It means the book and the venue have drifted apart.
var ErrNoPosition = errors.New("no open position")

// Position is an open holding with its automatic-expiry deadline.
type Position struct {
	Asset     string    `json:"asset"`
	BoughtAt  time.Time `json:"bought_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the position's deadline is strictly before now.
func (p Position) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

// Book maps asset to its single open position. Not safe for concurrent use.
type Book struct {
	positions map[string]Position
}

func NewBook() *Book {
	return &Book{positions: make(map[string]Position)}
}

// Open records a position bought at now and held for hold. An existing
// position for the same asset is overwritten (renewed), never stacked.
func (b *Book) Open(asset string, now time.Time, hold time.Duration) Position {
	p := Position{Asset: asset, BoughtAt: now, ExpiresAt: now.Add(hold)}
	b.positions[asset] = p
	return p
}

// Close removes and returns the open position of asset.
func (b *Book) Close(asset string) (Position, error) {
	p, ok := b.positions[asset]
	if !ok {
		return Position{}, fmt.Errorf("close %s: %w", asset, ErrNoPosition)
	}
	delete(b.positions, asset)
	return p, nil
}

// Get returns the open position of asset, if any.
func (b *Book) Get(asset string) (Position, bool) {
	p, ok := b.positions[asset]
	return p, ok
}

// Len is the number of open positions.
func (b *Book) Len() int {
	return len(b.positions)
}

// All returns every open position sorted by asset.
func (b *Book) All() []Position {
	out := make([]Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

// Expired returns the positions whose deadline has passed at now, sorted by asset.
func (b *Book) Expired(now time.Time) []Position {
	var out []Position
	for _, p := range b.positions {
		if p.Expired(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}
