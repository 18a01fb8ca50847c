package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"news-trader/internal/events"
	"news-trader/internal/order"
)

type captureSink struct {
	mu   sync.Mutex
	msgs []string
}

func (c *captureSink) Send(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *captureSink) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func TestHistogramStats(t *testing.T) {
	h := NewLatencyHistogram(3)
	for _, v := range []float64{5, 1, 3, 10} {
		h.Record(v)
	}
	st := h.Stats()
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, 1.0, st.Min)
	assert.Equal(t, 10.0, st.Max)
	assert.InDelta(t, 14.0/3, st.Avg, 1e-9)
}

func TestMonitorCountsOrderEvents(t *testing.T) {
	bus := events.NewBus()
	metrics := NewSystemMetrics()
	sink := &captureSink{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	(&Monitor{Bus: bus, Metrics: metrics, Sink: sink}).Start(ctx)

	bus.Publish(events.EventOrderExecuted, order.Execution{Pair: "BTC/USDT"})
	bus.Publish(events.EventOrderRejected, order.Rejection{
		Order: order.Order{Direction: order.Sell, Asset: "ETH", Amount: 2},
		Pair:  "ETH/USDT",
		Error: "insufficient balance",
	})

	require.Eventually(t, func() bool {
		s := metrics.GetSnapshot()
		return s.OrdersSubmitted == 1 && s.OrdersRejected == 1
	}, time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(sink.messages()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, "order rejected: sell ETH/USDT 2: insufficient balance", sink.messages()[0])
}
