package monitor

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"news-trader/internal/events"
	"news-trader/internal/order"
)

var log = logrus.WithField("component", "monitor")

// AlertSink delivers alert messages.
type AlertSink interface {
	Send(message string) error
}

// LogSink writes alerts to the log at warning level.
type LogSink struct{}

func (LogSink) Send(message string) error {
	log.Warn(message)
	return nil
}

// Monitor counts venue outcomes from the event bus and raises an alert for
// every rejected order.
type Monitor struct {
	Bus     *events.Bus
	Metrics *SystemMetrics
	Sink    AlertSink
}

// Start consumes events until ctx is done. It returns immediately.
func (m *Monitor) Start(ctx context.Context) {
	if m.Bus == nil || m.Metrics == nil {
		log.Warn("monitor not fully configured; skipping")
		return
	}
	if m.Sink == nil {
		m.Sink = LogSink{}
	}
	stream, unsub := m.Bus.SubscribeAll([]events.Event{events.EventOrderExecuted, events.EventOrderRejected}, 64)
	go func() {
		defer unsub()
		for {
			select {
			case <-ctx.Done():
				return
			case env, ok := <-stream:
				if !ok {
					return
				}
				m.handle(env)
			}
		}
	}()
}

func (m *Monitor) handle(env events.Envelope) {
	switch env.Event {
	case events.EventOrderExecuted:
		m.Metrics.IncrementOrders()
	case events.EventOrderRejected:
		m.Metrics.IncrementRejected()
		if err := m.Sink.Send(formatRejection(env.Payload)); err != nil {
			log.WithError(err).Error("alert delivery failed")
		}
	}
}

func formatRejection(payload any) string {
	if r, ok := payload.(order.Rejection); ok {
		return fmt.Sprintf("order rejected: %s %s %g: %s", r.Order.Direction, r.Pair, r.Order.Amount, r.Error)
	}
	return "order rejected"
}
