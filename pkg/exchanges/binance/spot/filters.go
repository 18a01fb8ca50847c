package spot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
)

var (
	// ErrBelowLotSize means the quantity rounds below the symbol's minimum lot.
	ErrBelowLotSize = errors.New("binance: quantity below lot size")
	// ErrBelowMinNotional means the order value is under the symbol's minimum.
	ErrBelowMinNotional = errors.New("binance: order value below min notional")
)

// SymbolFilters is the subset of exchangeInfo filters a market order must satisfy.
type SymbolFilters struct {
	StepSize    decimal.Decimal
	MinQty      decimal.Decimal
	MinNotional decimal.Decimal
}

type exchangeInfo struct {
	Symbols []struct {
		Symbol  string `json:"symbol"`
		Filters []struct {
			FilterType       string `json:"filterType"`
			MinQty           string `json:"minQty"`
			StepSize         string `json:"stepSize"`
			MinNotional      string `json:"minNotional"`
			ApplyToMarket    bool   `json:"applyToMarket"`
			ApplyMinToMarket bool   `json:"applyMinToMarket"`
		} `json:"filters"`
	} `json:"symbols"`
}

// SymbolFilters returns the lot and notional filters of symbol, cached for an hour.
func (c *Client) SymbolFilters(ctx context.Context, symbol string) (SymbolFilters, error) {
	if c.filters != nil {
		if v, ok := c.filters.Get(symbol); ok {
			return v.(SymbolFilters), nil
		}
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := c.doPublic(ctx, "/api/v3/exchangeInfo", params)
	if err != nil {
		return SymbolFilters{}, err
	}
	var info exchangeInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return SymbolFilters{}, fmt.Errorf("decode exchange info: %w", err)
	}

	for _, s := range info.Symbols {
		if s.Symbol != symbol {
			continue
		}
		var f SymbolFilters
		for _, raw := range s.Filters {
			switch raw.FilterType {
			case "LOT_SIZE":
				f.StepSize, _ = decimal.NewFromString(raw.StepSize)
				f.MinQty, _ = decimal.NewFromString(raw.MinQty)
			case "MIN_NOTIONAL":
				if raw.ApplyToMarket {
					f.MinNotional = maxDecimal(f.MinNotional, raw.MinNotional)
				}
			case "NOTIONAL":
				if raw.ApplyMinToMarket {
					f.MinNotional = maxDecimal(f.MinNotional, raw.MinNotional)
				}
			}
		}
		if c.filters != nil {
			c.filters.Set(symbol, f)
		}
		return f, nil
	}
	return SymbolFilters{}, fmt.Errorf("binance: symbol %s not in exchange info", symbol)
}

func maxDecimal(cur decimal.Decimal, raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil || d.LessThanOrEqual(cur) {
		return cur
	}
	return d
}

// conformQty rounds qty down to the symbol's step and checks the lot and
// notional minimums against the last price.
func (c *Client) conformQty(ctx context.Context, symbol, pair string, qty float64) (decimal.Decimal, error) {
	f, err := c.SymbolFilters(ctx, symbol)
	if err != nil {
		return decimal.Zero, fmt.Errorf("symbol filters %s: %w", symbol, err)
	}
	q := decimal.NewFromFloat(qty).Truncate(8)
	if f.StepSize.IsPositive() {
		q = q.Div(f.StepSize).Floor().Mul(f.StepSize)
	}
	if !q.IsPositive() || q.LessThan(f.MinQty) {
		return decimal.Zero, fmt.Errorf("%w: %s %v rounds to %s, min %s", ErrBelowLotSize, symbol, qty, q, f.MinQty)
	}
	if f.MinNotional.IsPositive() {
		price, err := c.FetchTicker(ctx, pair)
		if err != nil {
			return decimal.Zero, err
		}
		if value := q.Mul(decimal.NewFromFloat(price)); value.LessThan(f.MinNotional) {
			return decimal.Zero, fmt.Errorf("%w: %s value %s, min %s", ErrBelowMinNotional, symbol, value.StringFixed(8), f.MinNotional)
		}
	}
	return q, nil
}
