// Package events publishes domain events to Kafka for downstream
// consumers (analytics, webhooks). The broker is optional: a nil
// Publisher swallows every publication.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	// FormPublished fires when a form transitions to PUBLISHED.
	FormPublished = "form.published"
	// ResponseSubmitted fires on every accepted public submission.
	ResponseSubmitted = "response.submitted"
)

// Publisher wraps a Kafka writer.
type Publisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

// NewPublisher constructs a Kafka-backed publisher. It returns nil when no
// brokers are configured, and a nil Publisher is safe to publish against.
func NewPublisher(brokers []string, topic string, log *zap.Logger) *Publisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           5 * time.Second,
		BatchSize:              1,
	}
	return &Publisher{writer: writer, log: log}
}

// Publish emits one event keyed by the subject's id. Failures are logged
// and never propagated: event delivery is fire-and-forget relative to the
// request that triggered it.
func (p *Publisher) Publish(ctx context.Context, eventType, key string, data any) {
	if p == nil || p.writer == nil {
		return
	}

	value, err := json.Marshal(map[string]any{
		"type":       eventType,
		"occurredAt": time.Now().UTC().Format(time.RFC3339Nano),
		"data":       data,
	})
	if err != nil {
		p.log.Warn("marshal event", zap.String("type", eventType), zap.Error(err))
		return
	}

	msg := kafka.Message{Key: []byte(key), Value: value}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warn("publish event", zap.String("type", eventType), zap.Error(err))
	}
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
