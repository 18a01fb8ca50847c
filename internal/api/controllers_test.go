package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/engine"
	"news-trader/internal/events"
	"news-trader/internal/monitor"
	"news-trader/internal/position"
	"news-trader/pkg/db"
)

type staticEngine struct{}

func (staticEngine) Balances() map[string]float64 {
	return map[string]float64{"USDT": 800, "BTC": 0.004}
}

func (staticEngine) Positions() []position.Position {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []position.Position{{Asset: "BTC", BoughtAt: at, ExpiresAt: at.Add(5 * time.Hour)}}
}

func (staticEngine) Status() engine.Status {
	return engine.Status{Venue: "paper", Quote: "USDT", OpenPositions: 1}
}

func newTestAPIServer(t *testing.T) (*httptest.Server, *events.Bus, *db.Database) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.ApplyMigrations(database))

	bus := events.NewBus()
	server := NewServer(bus, database, staticEngine{}, monitor.NewSystemMetrics(), SystemMeta{
		DryRun:  true,
		Venue:   "paper",
		Version: "test",
	})

	httpServer := httptest.NewServer(server.Handler())
	t.Cleanup(func() {
		httpServer.Close()
		_ = database.Close()
	})
	return httpServer, bus, database
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthAndRequestID(t *testing.T) {
	srv, _, _ := newTestAPIServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestStatusBalancesPositions(t *testing.T) {
	srv, _, _ := newTestAPIServer(t)

	var status struct {
		Mode   string        `json:"mode"`
		Engine engine.Status `json:"engine"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/status", &status))
	assert.Equal(t, "DRY_RUN", status.Mode)
	assert.Equal(t, "paper", status.Engine.Venue)

	var balances map[string]float64
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/balances", &balances))
	assert.Equal(t, 800.0, balances["USDT"])

	var positions []position.Position
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/positions", &positions))
	require.Len(t, positions, 1)
	assert.Equal(t, "BTC", positions[0].Asset)
}

func TestOrdersFromJournal(t *testing.T) {
	srv, _, database := newTestAPIServer(t)
	ctx := context.Background()
	require.NoError(t, database.CreateOrder(ctx, db.Order{
		ID: "o-1", Direction: "buy", Asset: "BTC", Pair: "BTC/USDT", Amount: 0.004,
		Hold: 5 * time.Hour, Status: "FILLED", CreatedAt: time.Now(),
	}))

	var orders []orderView
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/orders?limit=10", &orders))
	require.Len(t, orders, 1)
	assert.Equal(t, "BTC/USDT", orders[0].Pair)
	assert.Equal(t, 5.0, orders[0].HoldHours)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/api/orders?limit=abc", nil))
}

func TestPromMetrics(t *testing.T) {
	srv, _, _ := newTestAPIServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "newstrader_open_positions 1")
}

func TestWebsocketStreamsEvents(t *testing.T) {
	srv, bus, _ := newTestAPIServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var hello events.Envelope
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, events.Event("hello"), hello.Event)

	bus.Publish(events.EventBalancesSynced, map[string]float64{"USDT": 1})

	var got struct {
		Event   events.Event       `json:"event"`
		Payload map[string]float64 `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, events.EventBalancesSynced, got.Event)
	assert.Equal(t, 1.0, got.Payload["USDT"])
}
