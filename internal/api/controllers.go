package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"news-trader/internal/monitor"
	"news-trader/pkg/db"
)

type listQuery struct {
	Limit int `form:"limit"`
}

func (q *listQuery) normalize() {
	if q.Limit <= 0 {
		q.Limit = 100
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{
		"code":  code,
		"error": msg,
	})
}

type orderView struct {
	ID              string    `json:"id"`
	Direction       string    `json:"direction"`
	Asset           string    `json:"asset"`
	Pair            string    `json:"pair"`
	Amount          float64   `json:"amount"`
	HoldHours       float64   `json:"hold_hours,omitempty"`
	ExchangeOrderID string    `json:"exchange_order_id,omitempty"`
	Status          string    `json:"status"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type directiveView struct {
	ID           string    `json:"id"`
	Direction    string    `json:"direction"`
	Asset        string    `json:"asset"`
	HoldHours    float64   `json:"hold_hours,omitempty"`
	ArticleCount int       `json:"article_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// getStatus exposes runtime mode, venue and engine state for the dashboard.
func (s *Server) getStatus(c *gin.Context) {
	mode := "LIVE"
	if s.Meta.DryRun {
		mode = "DRY_RUN"
	}
	c.JSON(http.StatusOK, gin.H{
		"mode":    mode,
		"dry_run": s.Meta.DryRun,
		"version": s.Meta.Version,
		"engine":  s.Engine.Status(),
	})
}

func (s *Server) getBalances(c *gin.Context) {
	c.JSON(http.StatusOK, s.Engine.Balances())
}

func (s *Server) getPositions(c *gin.Context) {
	c.JSON(http.StatusOK, s.Engine.Positions())
}

func (s *Server) getOrders(c *gin.Context) {
	if s.Journal == nil {
		respondError(c, http.StatusServiceUnavailable, "JOURNAL_DISABLED", "order journal not enabled")
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_QUERY", "invalid query parameters")
		return
	}
	q.normalize()

	rows, err := s.Journal.ListOrders(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	out := make([]orderView, 0, len(rows))
	for _, o := range rows {
		out = append(out, toOrderView(o))
	}
	c.Header("X-Result-Limit", strconv.Itoa(q.Limit))
	c.JSON(http.StatusOK, out)
}

func (s *Server) getDirectives(c *gin.Context) {
	if s.Journal == nil {
		respondError(c, http.StatusServiceUnavailable, "JOURNAL_DISABLED", "order journal not enabled")
		return
	}
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_QUERY", "invalid query parameters")
		return
	}
	q.normalize()

	rows, err := s.Journal.ListDirectives(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	out := make([]directiveView, 0, len(rows))
	for _, d := range rows {
		out = append(out, directiveView{
			ID:           d.ID,
			Direction:    d.Direction,
			Asset:        d.Asset,
			HoldHours:    d.Hold.Hours(),
			ArticleCount: d.ArticleCount,
			CreatedAt:    d.CreatedAt,
		})
	}
	c.Header("X-Result-Limit", strconv.Itoa(q.Limit))
	c.JSON(http.StatusOK, out)
}

func toOrderView(o db.Order) orderView {
	return orderView{
		ID:              o.ID,
		Direction:       o.Direction,
		Asset:           o.Asset,
		Pair:            o.Pair,
		Amount:          o.Amount,
		HoldHours:       o.Hold.Hours(),
		ExchangeOrderID: o.ExchangeOrderID,
		Status:          o.Status,
		Error:           o.Error,
		CreatedAt:       o.CreatedAt,
	}
}

func (s *Server) getMetrics(c *gin.Context) {
	if s.Metrics == nil {
		respondError(c, http.StatusServiceUnavailable, "METRICS_UNAVAILABLE", "metrics not available")
		return
	}
	c.JSON(http.StatusOK, s.Metrics.GetSnapshot())
}

// getPromMetrics returns a minimal Prometheus text exposition of key metrics.
func (s *Server) getPromMetrics(c *gin.Context) {
	if s.Metrics == nil {
		c.String(http.StatusServiceUnavailable, "# metrics not available\n")
		return
	}
	snapshot := s.Metrics.GetSnapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "newstrader_api_requests_total %d\n", snapshot.APIRequests)
	fmt.Fprintf(&b, "newstrader_api_errors_total %d\n", snapshot.APIErrors)
	fmt.Fprintf(&b, "newstrader_articles_seen_total %d\n", snapshot.ArticlesSeen)
	fmt.Fprintf(&b, "newstrader_directives_total %d\n", snapshot.Directives)
	fmt.Fprintf(&b, "newstrader_invalid_replies_total %d\n", snapshot.InvalidReplies)
	fmt.Fprintf(&b, "newstrader_orders_submitted_total %d\n", snapshot.OrdersSubmitted)
	fmt.Fprintf(&b, "newstrader_orders_rejected_total %d\n", snapshot.OrdersRejected)
	fmt.Fprintf(&b, "newstrader_errors_total %d\n", snapshot.ErrorsCount)

	writeLatency := func(prefix string, ls monitor.LatencyStats) {
		if ls.Count == 0 {
			return
		}
		fmt.Fprintf(&b, "newstrader_%s_latency_ms_avg %f\n", prefix, ls.Avg)
		fmt.Fprintf(&b, "newstrader_%s_latency_ms_p50 %f\n", prefix, ls.P50)
		fmt.Fprintf(&b, "newstrader_%s_latency_ms_p95 %f\n", prefix, ls.P95)
		fmt.Fprintf(&b, "newstrader_%s_latency_ms_p99 %f\n", prefix, ls.P99)
	}
	writeLatency("api", snapshot.APILatency)
	writeLatency("advice", snapshot.AdviceLatency)
	writeLatency("sweep", snapshot.SweepLatency)

	if s.Engine != nil {
		fmt.Fprintf(&b, "newstrader_open_positions %d\n", s.Engine.Status().OpenPositions)
	}
	fmt.Fprintf(&b, "newstrader_goroutines %d\n", snapshot.GoroutineCount)
	fmt.Fprintf(&b, "newstrader_heap_alloc_bytes %d\n", snapshot.HeapAlloc)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.String(http.StatusOK, b.String())
}
