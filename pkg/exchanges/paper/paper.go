// Package paper is an in-memory venue for dry runs. It fills market orders
// instantly at the price reported by a PriceSource and charges a flat fee.
package paper

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"news-trader/pkg/exchanges/common"
)

var log = logrus.WithField("component", "paper")

// qtyPlaces matches the precision Binance reports balances and lot sizes in.
const qtyPlaces = 8

var dust = decimal.New(1, -qtyPlaces)

// PriceSource supplies last prices; a Binance spot client works unauthenticated.
type PriceSource interface {
	FetchTicker(ctx context.Context, pair string) (float64, error)
}

// Config configures the simulated account.
type Config struct {
	Quote          string
	InitialBalance float64  // quote asset funds at start
	Assets         []string // tradable universe, listed with zero balance
	FeeRate        float64  // decimal, e.g. 0.001 = 10 bps, charged in quote
}

// Fill is one simulated execution.
type Fill struct {
	OrderID  string
	ClientID string
	Pair     string
	Side     common.Side
	Qty      float64
	Price    float64
	Fee      float64
}

// Exchange simulates a spot account.
type Exchange struct {
	cfg     Config
	prices  PriceSource
	mu      sync.Mutex
	balance map[string]decimal.Decimal
	fills   []Fill
	seq     atomic.Int64
}

var (
	_ common.Gateway        = (*Exchange)(nil)
	_ common.OrderSubmitter = (*Exchange)(nil)
)

func New(cfg Config, prices PriceSource) *Exchange {
	ex := &Exchange{
		cfg:     cfg,
		prices:  prices,
		balance: make(map[string]decimal.Decimal, len(cfg.Assets)+1),
	}
	for _, a := range cfg.Assets {
		ex.balance[a] = decimal.Zero
	}
	ex.balance[cfg.Quote] = decimal.NewFromFloat(cfg.InitialBalance)
	return ex
}

func (e *Exchange) FetchTicker(ctx context.Context, pair string) (float64, error) {
	return e.prices.FetchTicker(ctx, pair)
}

// FetchBalances lists every known asset sorted by symbol.
func (e *Exchange) FetchBalances(ctx context.Context) ([]common.Balance, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]common.Balance, 0, len(e.balance))
	for asset, free := range e.balance {
		// Rounded down so selling the reported amount never exceeds the holding.
		out = append(out, common.Balance{Asset: asset, Free: free.Truncate(qtyPlaces).InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out, nil
}

func (e *Exchange) CreateMarketBuyOrder(ctx context.Context, pair string, qty float64) (common.OrderResult, error) {
	return e.fill(ctx, pair, common.SideBuy, qty, "")
}

func (e *Exchange) CreateMarketSellOrder(ctx context.Context, pair string, qty float64) (common.OrderResult, error) {
	return e.fill(ctx, pair, common.SideSell, qty, "")
}

// SubmitOrder fills a market request and echoes its client order id.
func (e *Exchange) SubmitOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error) {
	if req.Type != "" && req.Type != common.OrderTypeMarket {
		return common.OrderResult{}, fmt.Errorf("paper: unsupported order type %s", req.Type)
	}
	return e.fill(ctx, req.Pair, req.Side, req.Qty, req.ClientID)
}

// Fills returns a copy of every simulated execution so far.
func (e *Exchange) Fills() []Fill {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Fill(nil), e.fills...)
}

func (e *Exchange) fill(ctx context.Context, pair string, side common.Side, qty float64, clientID string) (common.OrderResult, error) {
	base, quote, ok := common.SplitPair(pair)
	if !ok {
		return common.OrderResult{}, fmt.Errorf("%w: %q", common.ErrUnknownPair, pair)
	}
	if quote != e.cfg.Quote {
		return common.OrderResult{}, fmt.Errorf("paper: unsupported quote %s", quote)
	}
	q := decimal.NewFromFloat(qty).Truncate(qtyPlaces)
	if !q.IsPositive() {
		return common.OrderResult{}, fmt.Errorf("paper: quantity must be positive, got %v", qty)
	}
	price, err := e.prices.FetchTicker(ctx, pair)
	if err != nil {
		return common.OrderResult{}, fmt.Errorf("paper: price for %s: %w", pair, err)
	}
	if price <= 0 {
		return common.OrderResult{}, fmt.Errorf("paper: non-positive price %v for %s", price, pair)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// A sell of the whole holding can come back from float one unit high.
	if have := e.balance[base]; side == common.SideSell && q.GreaterThan(have) && q.Sub(have).LessThanOrEqual(dust) {
		q = have
	}
	value := q.Mul(decimal.NewFromFloat(price))
	fee := value.Mul(decimal.NewFromFloat(e.cfg.FeeRate))

	switch side {
	case common.SideBuy:
		cost := value.Add(fee)
		if have := e.balance[quote]; cost.GreaterThan(have) {
			return common.OrderResult{}, fmt.Errorf("paper: insufficient %s: need %s, have %s", quote, cost.StringFixed(8), have.StringFixed(8))
		}
		e.balance[quote] = e.balance[quote].Sub(cost)
		e.balance[base] = e.balance[base].Add(q)
	case common.SideSell:
		if have := e.balance[base]; q.GreaterThan(have) {
			return common.OrderResult{}, fmt.Errorf("paper: insufficient %s: need %s, have %s", base, q.String(), have.String())
		}
		e.balance[base] = e.balance[base].Sub(q)
		e.balance[quote] = e.balance[quote].Add(value).Sub(fee)
	default:
		return common.OrderResult{}, fmt.Errorf("paper: unsupported side %s", side)
	}

	filled := q.InexactFloat64()
	id := strconv.FormatInt(e.seq.Add(1), 10)
	f := Fill{OrderID: id, ClientID: clientID, Pair: pair, Side: side, Qty: filled, Price: price, Fee: fee.InexactFloat64()}
	e.fills = append(e.fills, f)

	log.WithFields(logrus.Fields{
		"pair":  pair,
		"side":  side,
		"qty":   filled,
		"price": price,
		"quote": e.balance[quote].StringFixed(2),
	}).Info("paper fill")

	return common.OrderResult{ExchangeOrderID: id, Status: common.StatusFilled, ClientID: clientID, ExecutedQty: filled}, nil
}

// StaticPrices is a PriceSource backed by a fixed table, used in tests.
type StaticPrices map[string]float64

func (s StaticPrices) FetchTicker(_ context.Context, pair string) (float64, error) {
	p, ok := s[pair]
	if !ok {
		return 0, fmt.Errorf("no price for %s", pair)
	}
	return p, nil
}
