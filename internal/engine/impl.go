package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"news-trader/internal/balance"
	"news-trader/internal/events"
	"news-trader/internal/order"
	"news-trader/internal/position"
	exchange "news-trader/pkg/exchanges/common"
)

const (
	DefaultQuote        = "USDT"
	DefaultMaxFee       = 0.001
	DefaultBuyPercent   = 20.0
	DefaultHoldDuration = 24 * time.Hour
)

var (
	// ErrNonPositiveAmount guards against submitting empty or negative orders.
	ErrNonPositiveAmount = errors.New("order amount must be positive")
	// ErrInvalidPrice is returned when the ticker reports a non-positive price.
	ErrInvalidPrice = errors.New("invalid ticker price")
)

// Config holds the collaborators and knobs of an Engine.
type Config struct {
	Gateway exchange.Gateway
	Journal order.Journal // optional
	Bus     *events.Bus   // optional
	Venue   string

	Quote            string  // quote currency; DefaultQuote when empty
	MaxFee           float64 // fraction shaved off every sized order; used as given
	BuyPercent       float64 // share of quote committed per buy directive; DefaultBuyPercent when <= 0
	LiquidateOnStart bool    // sell every non-quote holding in Bootstrap

	Now    func() time.Time // defaults to time.Now
	Logger *logrus.Entry    // defaults to the package logger
}

// Engine owns the balance snapshot and the open-position book, turns
// directives into sized market orders, and liquidates expired positions.
//
// Every exported method takes the engine lock, so the scheduler and the
// status API may call it from different goroutines. Exchange round trips
// happen while the lock is held.
type Engine struct {
	mu sync.Mutex

	gateway  exchange.Gateway
	exec     *order.Executor
	balances *balance.Snapshot
	book     *position.Book
	bus      *events.Bus

	venue            string
	quote            string
	maxFee           float64
	buyPercent       float64
	liquidateOnStart bool

	now func() time.Time
	log *logrus.Entry
}

// New wires an engine. It performs no I/O; call Bootstrap before trading.
func New(cfg Config) *Engine {
	if cfg.Quote == "" {
		cfg.Quote = DefaultQuote
	}
	if cfg.BuyPercent <= 0 {
		cfg.BuyPercent = DefaultBuyPercent
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.WithField("component", "engine")
	}
	return &Engine{
		gateway:          cfg.Gateway,
		exec:             order.NewExecutor(cfg.Gateway, cfg.Journal, cfg.Bus, cfg.Venue),
		balances:         balance.NewSnapshot(cfg.Gateway),
		book:             position.NewBook(),
		bus:              cfg.Bus,
		venue:            cfg.Venue,
		quote:            cfg.Quote,
		maxFee:           cfg.MaxFee,
		buyPercent:       cfg.BuyPercent,
		liquidateOnStart: cfg.LiquidateOnStart,
		now:              cfg.Now,
		log:              cfg.Logger,
	}
}

// Bootstrap loads the first balance snapshot and, when configured, sells every
// non-quote holding so the book starts from a known empty state. Positions are
// kept in memory only, so holdings found at startup cannot be attributed.
func (e *Engine) Bootstrap(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.refreshBalances(ctx); err != nil {
		return fmt.Errorf("initial balance refresh: %w", err)
	}
	if !e.liquidateOnStart {
		return nil
	}
	results := e.sellAllAssets(ctx)
	e.log.WithFields(summarize(results)).Info("startup liquidation finished")
	return nil
}

// RefreshBalances replaces the balance snapshot with the venue's current view.
func (e *Engine) RefreshBalances(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.refreshBalances(ctx)
}

// ExecuteOrder submits o and updates the position book. It reports whether
// an order reached the venue. Exchange errors are returned, not logged.
func (e *Engine) ExecuteOrder(ctx context.Context, o order.Order) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.executeOrder(ctx, o)
}

// SellAllAssets sells the full fee-shaved balance of every non-quote asset.
func (e *Engine) SellAllAssets(ctx context.Context) []order.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sellAllAssets(ctx)
}

// SweepExpired sells every position whose hold period has passed.
func (e *Engine) SweepExpired(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sweepExpired(ctx)
}

// ExecuteDirective converts d into orders. A buy commits the configured share
// of the quote balance. A sell of "all" liquidates everything and, separately,
// a sell of any asset present in the snapshot sells that asset; both
// branches are evaluated for the same directive.
func (e *Engine) ExecuteDirective(ctx context.Context, d order.Directive) []order.Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	var results []order.Result
	switch d.Direction {
	case order.Buy:
		results = append(results, e.buyAsset(ctx, d.Asset, e.buyPercent, d.Duration))
	case order.Sell:
		if d.Asset == order.AllAssets {
			results = append(results, e.sellAllAssets(ctx)...)
		}
		if e.balances.Has(d.Asset) {
			results = append(results, e.sellAsset(ctx, d.Asset, 100))
		}
	}
	e.log.WithFields(summarize(results)).WithField("directive", d.String()).Info("directive executed")
	return results
}

func (e *Engine) refreshBalances(ctx context.Context) error {
	if err := e.balances.Refresh(ctx); err != nil {
		return err
	}
	e.bus.Publish(events.EventBalancesSynced, e.balances.All())
	return nil
}

func (e *Engine) executeOrder(ctx context.Context, o order.Order) (bool, error) {
	if !e.balances.Has(o.Asset) {
		if err := e.refreshBalances(ctx); err != nil {
			return false, err
		}
		if !e.balances.Has(o.Asset) {
			return false, nil
		}
	}
	if o.Direction != order.Buy && o.Direction != order.Sell {
		return false, nil
	}
	if o.Amount <= 0 {
		return false, fmt.Errorf("%w: %s %s %g", ErrNonPositiveAmount, o.Direction, o.Asset, o.Amount)
	}

	pair := exchange.Pair(o.Asset, e.quote)
	res, err := e.exec.Submit(ctx, o, pair)
	if err != nil {
		return false, fmt.Errorf("%s %s: %w", o.Direction, pair, err)
	}
	now := e.now()

	if err := e.refreshBalances(ctx); err != nil {
		e.log.WithError(err).WithField("asset", o.Asset).Warn("balance refresh after order failed")
	}

	switch o.Direction {
	case order.Buy:
		p := e.book.Open(o.Asset, now, o.Duration)
		e.bus.Publish(events.EventPositionOpened, p)
	case order.Sell:
		p, err := e.book.Close(o.Asset)
		if err != nil {
			return true, err
		}
		e.bus.Publish(events.EventPositionClosed, p)
	}

	e.log.WithFields(logrus.Fields{
		"direction":         o.Direction,
		"asset":             o.Asset,
		"amount":            o.Amount,
		"duration":          o.Duration.String(),
		"pair":              pair,
		"exchange_order_id": res.ExchangeOrderID,
		"status":            res.Status,
	}).Infof("executed %s", o)
	return true, nil
}

func (e *Engine) sellAllAssets(ctx context.Context) []order.Result {
	var results []order.Result
	for _, asset := range e.balances.Assets() {
		if asset == e.quote {
			continue
		}
		if free, _ := e.balances.Get(asset); free <= 0 {
			continue
		}
		results = append(results, e.sellAsset(ctx, asset, 100))
	}
	return results
}

// sweepExpired sells the full tracked balance of each expired position, with
// no percent or fee shaving. Faults are joined and returned after every
// expired asset has been attempted.
func (e *Engine) sweepExpired(ctx context.Context) error {
	var errs []error
	for _, p := range e.book.Expired(e.now()) {
		free, _ := e.balances.Get(p.Asset)
		if free <= 0 {
			// Nothing left on the venue to liquidate.
			if _, err := e.book.Close(p.Asset); err != nil {
				errs = append(errs, err)
				continue
			}
			e.bus.Publish(events.EventPositionClosed, p)
			e.log.WithFields(logrus.Fields{"asset": p.Asset, "expired_at": p.ExpiresAt}).Warn("expired position has no balance, released")
			continue
		}

		o := order.Order{Direction: order.Sell, Asset: p.Asset, Amount: free}
		if _, err := e.executeOrder(ctx, o); err != nil {
			e.log.WithError(err).WithField("asset", p.Asset).Error("expired position sell failed")
			errs = append(errs, fmt.Errorf("sweep %s: %w", p.Asset, err))
		}
	}
	return errors.Join(errs...)
}

// Balances returns a copy of the current balance snapshot.
func (e *Engine) Balances() map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.balances.All()
}

// Positions returns every open position sorted by asset.
func (e *Engine) Positions() []position.Position {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.All()
}

// Status reports the engine's runtime view for the API.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{
		Venue:         e.venue,
		Quote:         e.quote,
		MaxFee:        e.maxFee,
		BuyPercent:    e.buyPercent,
		OpenPositions: e.book.Len(),
		Assets:        len(e.balances.Assets()),
		LastSync:      e.balances.LastSync(),
		ServerTime:    e.now(),
	}
}

func summarize(results []order.Result) logrus.Fields {
	var submitted, skipped, failed int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Submitted:
			submitted++
		default:
			skipped++
		}
	}
	return logrus.Fields{"submitted": submitted, "skipped": skipped, "failed": failed}
}
