// Package export mirrors the in-process event stream to Kafka so downstream
// consumers can replay orders, positions and directives.
package export

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"news-trader/internal/events"
)

var log = logrus.WithField("component", "export")

// MessageWriter is the part of *kafka.Writer the exporter uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a writer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           200 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
	}
}

// Exporter forwards every bus event as one Kafka message keyed by topic.
type Exporter struct {
	Bus    *events.Bus
	Writer MessageWriter
	Now    func() time.Time
}

// Run blocks until ctx is done, then unsubscribes and closes the writer.
// A failed write is logged and the event dropped; the bus never waits on Kafka.
func (x *Exporter) Run(ctx context.Context) {
	now := x.Now
	if now == nil {
		now = time.Now
	}
	stream, stop := x.Bus.SubscribeAll(events.All, 256)
	defer func() {
		stop()
		if err := x.Writer.Close(); err != nil {
			log.WithError(err).Warn("kafka writer close failed")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-stream:
			if !ok {
				return
			}
			value, err := json.Marshal(env)
			if err != nil {
				log.WithError(err).WithField("event", env.Event).Warn("cannot encode event")
				continue
			}
			msg := kafka.Message{Key: []byte(env.Event), Value: value, Time: now().UTC()}
			if err := x.Writer.WriteMessages(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.WithError(err).WithField("event", env.Event).Warn("kafka write failed")
			}
		}
	}
}
