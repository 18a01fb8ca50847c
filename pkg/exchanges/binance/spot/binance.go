package spot

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"news-trader/pkg/cache"
	"news-trader/pkg/exchanges/common"
)

var log = logrus.WithField("component", "binance-spot")

// ErrCredentialsRequired is returned by signed endpoints when no key pair is configured.
var ErrCredentialsRequired = errors.New("binance: API key/secret required")

// Config holds Binance credentials.
type Config struct {
	APIKey     string
	APISecret  string
	Testnet    bool
	RecvWindow int64  // ms
	BaseURL    string // overrides the production/testnet host when set
}

// Client is a Binance spot REST client implementing common.Gateway.
type Client struct {
	cfg         Config
	baseURL     string
	httpClient  *http.Client
	timeSync    *common.TimeSync
	rateLimiter *common.RateLimiter
	filters     *cache.Cache // symbol -> SymbolFilters
}

var (
	_ common.Gateway        = (*Client)(nil)
	_ common.OrderSubmitter = (*Client)(nil)
)

func New(cfg Config) *Client {
	base := "https://api.binance.com"
	if cfg.Testnet {
		base = "https://testnet.binance.vision"
	}
	if cfg.BaseURL != "" {
		base = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.RecvWindow == 0 {
		cfg.RecvWindow = 5000
	}
	client := &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	client.timeSync = common.NewTimeSync(client.GetServerTime)
	// 1200 weight/min for spot
	client.rateLimiter = common.NewRateLimiter(1200, time.Minute)
	filters, err := cache.New(1<<11, time.Hour)
	if err != nil {
		log.WithError(err).Warn("symbol filter cache disabled")
	} else {
		client.filters = filters
	}
	return client
}

// TimeSync exposes the clock offset tracker so callers can start it.
func (c *Client) TimeSync() *common.TimeSync {
	return c.timeSync
}

// Symbol converts a venue-neutral pair ("BTC/USDT") to a Binance symbol ("BTCUSDT").
func Symbol(pair string) (string, error) {
	base, quote, ok := common.SplitPair(pair)
	if !ok {
		return "", fmt.Errorf("%w: %q", common.ErrUnknownPair, pair)
	}
	return strings.ToUpper(base + quote), nil
}

// FetchTicker returns the last traded price for pair.
func (c *Client) FetchTicker(ctx context.Context, pair string) (float64, error) {
	symbol, err := Symbol(pair)
	if err != nil {
		return 0, err
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	body, err := c.doPublic(ctx, "/api/v3/ticker/price", params)
	if err != nil {
		return 0, err
	}
	var res struct {
		Symbol string `json:"symbol"`
		Price  string `json:"price"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, fmt.Errorf("decode ticker: %w", err)
	}
	price, err := decimal.NewFromString(res.Price)
	if err != nil {
		return 0, fmt.Errorf("parse ticker price %q: %w", res.Price, err)
	}
	return price.InexactFloat64(), nil
}

// FetchBalances returns the free amount of every asset on the account.
func (c *Client) FetchBalances(ctx context.Context) ([]common.Balance, error) {
	info, err := c.GetAccountInfo(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]common.Balance, 0, len(info.Balances))
	for _, b := range info.Balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return nil, fmt.Errorf("parse free balance of %s: %w", b.Asset, err)
		}
		out = append(out, common.Balance{Asset: b.Asset, Free: free.InexactFloat64()})
	}
	return out, nil
}

// CreateMarketBuyOrder buys qty units of the pair's base asset at market.
func (c *Client) CreateMarketBuyOrder(ctx context.Context, pair string, qty float64) (common.OrderResult, error) {
	return c.SubmitOrder(ctx, common.OrderRequest{Pair: pair, Side: common.SideBuy, Type: common.OrderTypeMarket, Qty: qty})
}

// CreateMarketSellOrder sells qty units of the pair's base asset at market.
func (c *Client) CreateMarketSellOrder(ctx context.Context, pair string, qty float64) (common.OrderResult, error) {
	return c.SubmitOrder(ctx, common.OrderRequest{Pair: pair, Side: common.SideSell, Type: common.OrderTypeMarket, Qty: qty})
}

func (c *Client) SubmitOrder(ctx context.Context, req common.OrderRequest) (common.OrderResult, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return common.OrderResult{}, ErrCredentialsRequired
	}
	symbol, err := Symbol(req.Pair)
	if err != nil {
		return common.OrderResult{}, err
	}

	ordType := strings.ToUpper(string(req.Type))
	if ordType == "" {
		ordType = string(common.OrderTypeMarket)
	}
	qty, err := c.conformQty(ctx, symbol, req.Pair, req.Qty)
	if err != nil {
		return common.OrderResult{}, err
	}
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("side", strings.ToUpper(string(req.Side)))
	params.Set("type", ordType)
	params.Set("quantity", qty.String())
	params.Set("newOrderRespType", "RESULT")
	if req.ClientID != "" {
		params.Set("newClientOrderId", req.ClientID)
	}
	c.stamp(params)

	body, err := c.doSigned(ctx, http.MethodPost, c.baseURL+"/api/v3/order", params)
	if err != nil {
		return common.OrderResult{}, err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return common.OrderResult{}, fmt.Errorf("decode order response: %w", err)
	}
	executed, _ := decimal.NewFromString(resp.ExecutedQty)

	return common.OrderResult{
		ExchangeOrderID: strconv.FormatInt(resp.OrderID, 10),
		Status:          mapStatus(resp.Status),
		ClientID:        resp.ClientOrderID,
		ExecutedQty:     executed.InexactFloat64(),
	}, nil
}

// AccountInfo holds balances and permissions.
type AccountInfo struct {
	CanTrade   bool      `json:"canTrade"`
	UpdateTime int64     `json:"updateTime"`
	Balances   []Balance `json:"balances"`
}

// Balance represents an asset balance as Binance reports it.
type Balance struct {
	Asset  string `json:"asset"`
	Free   string `json:"free"`
	Locked string `json:"locked"`
}

// GetAccountInfo returns account balances and basic flags.
func (c *Client) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		return nil, ErrCredentialsRequired
	}
	params := url.Values{}
	params.Set("omitZeroBalances", "false")
	c.stamp(params)
	body, err := c.doSigned(ctx, http.MethodGet, c.baseURL+"/api/v3/account", params)
	if err != nil {
		return nil, err
	}
	var info AccountInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("decode account info: %w", err)
	}
	return &info, nil
}

// GetServerTime fetches server time (ms).
func (c *Client) GetServerTime(ctx context.Context) (int64, error) {
	body, err := c.doPublic(ctx, "/api/v3/time", nil)
	if err != nil {
		return 0, err
	}
	var res struct {
		ServerTime int64 `json:"serverTime"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		return 0, fmt.Errorf("decode server time: %w", err)
	}
	return res.ServerTime, nil
}

// stamp sets timestamp and recvWindow, using the synced clock when available.
func (c *Client) stamp(params url.Values) {
	timestamp := time.Now().UnixMilli()
	if c.timeSync != nil && c.timeSync.Offset() != 0 {
		timestamp = c.timeSync.Now()
	}
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	params.Set("recvWindow", strconv.FormatInt(c.cfg.RecvWindow, 10))
}

func (c *Client) doPublic(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// doSigned signs the query and performs the HTTP request.
func (c *Client) doSigned(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	encoded := params.Encode()
	encoded += "&signature=" + sign(encoded, c.cfg.APISecret)

	var (
		req *http.Request
		err error
	)
	switch method {
	case http.MethodGet, http.MethodDelete:
		// Binance expects signed params in the query string for GET/DELETE.
		req, err = http.NewRequestWithContext(ctx, method, endpoint+"?"+encoded, nil)
	default:
		req, err = http.NewRequestWithContext(ctx, method, endpoint, strings.NewReader(encoded))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-MBX-APIKEY", c.cfg.APIKey)
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.rateLimiter != nil {
		c.rateLimiter.Wait(req.Context())
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if c.rateLimiter != nil {
		c.rateLimiter.UpdateFromHeader(res.Header.Get("X-MBX-USED-WEIGHT-1M"))
	}

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		log.WithFields(logrus.Fields{"method": req.Method, "path": req.URL.Path, "status": res.StatusCode}).Debug("request rejected")
		return nil, fmt.Errorf("binance %s %s status %d: %s", req.Method, req.URL.Path, res.StatusCode, string(body))
	}
	return body, nil
}

type orderResponse struct {
	Symbol        string `json:"symbol"`
	OrderID       int64  `json:"orderId"`
	ClientOrderID string `json:"clientOrderId"`
	Status        string `json:"status"`
	ExecutedQty   string `json:"executedQty"`
}

func mapStatus(s string) common.OrderStatus {
	switch strings.ToUpper(s) {
	case "NEW":
		return common.StatusNew
	case "PARTIALLY_FILLED":
		return common.StatusPartial
	case "FILLED":
		return common.StatusFilled
	case "CANCELED":
		return common.StatusCanceled
	case "REJECTED":
		return common.StatusRejected
	case "EXPIRED":
		return common.StatusExpired
	default:
		return common.StatusUnknown
	}
}

func sign(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

