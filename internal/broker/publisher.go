// Package broker publishes persisted domain events to Kafka for downstream consumers.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Record is the value written for every event.
type Record struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    time.Time       `json:"at"`
}

type Publisher struct {
	w *kafka.Writer
}

func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
	}}
}

// Publish writes event keyed by key; records sharing a key keep their order.
func (p *Publisher) Publish(ctx context.Context, key, event string, data any) error {
	value, err := Encode(event, data, time.Now().UTC())
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.w.Close()
}

func Encode(event string, data any, at time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Record{Event: event, Data: raw, At: at})
}
