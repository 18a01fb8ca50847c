// Package balance keeps the local snapshot of free balances per asset.
package balance

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"news-trader/pkg/exchanges/common"
)

var log = logrus.WithField("component", "balance")

// ExchangeClient is the slice of the venue the snapshot needs.
type ExchangeClient interface {
	FetchBalances(ctx context.Context) ([]common.Balance, error)
}

// Snapshot is the last fetched free balance per asset. It is replaced
// wholesale on every refresh and never merged with older data.
// Snapshot is not safe for concurrent use; the engine serializes access.
type Snapshot struct {
	exchange ExchangeClient
	free     map[string]float64
	lastSync time.Time
}

// NewSnapshot creates an empty snapshot backed by exchange.
func NewSnapshot(exchange ExchangeClient) *Snapshot {
	return &Snapshot{
		exchange: exchange,
		free:     make(map[string]float64),
	}
}

// Refresh fetches the full balance list and replaces the local map.
// On error the previous snapshot is left untouched.
func (s *Snapshot) Refresh(ctx context.Context) error {
	list, err := s.exchange.FetchBalances(ctx)
	if err != nil {
		return err
	}

	next := make(map[string]float64, len(list))
	for _, b := range list {
		next[b.Asset] = b.Free
	}
	s.free = next
	s.lastSync = time.Now()

	log.WithField("assets", len(next)).Debug("balances refreshed")
	return nil
}

// Get returns the free balance of asset and whether it is in the snapshot.
func (s *Snapshot) Get(asset string) (float64, bool) {
	v, ok := s.free[asset]
	return v, ok
}

// Has reports whether asset is part of the snapshot.
func (s *Snapshot) Has(asset string) bool {
	_, ok := s.free[asset]
	return ok
}

// Assets returns the snapshot's asset symbols in sorted order.
func (s *Snapshot) Assets() []string {
	out := make([]string, 0, len(s.free))
	for a := range s.free {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// All returns a copy of the snapshot.
func (s *Snapshot) All() map[string]float64 {
	out := make(map[string]float64, len(s.free))
	for a, v := range s.free {
		out[a] = v
	}
	return out
}

// LastSync is the time of the last successful refresh.
func (s *Snapshot) LastSync() time.Time {
	return s.lastSync
}
