package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"claimsgate/internal/platform/config"
)

// KafkaBus publishes events to a Kafka topic, keyed by subject so all
// events for one claim land on the same partition in order.
type KafkaBus struct {
	client *kgo.Client
	topic  string
}

// NewKafkaBus connects to the brokers named in cfg.
func NewKafkaBus(cfg config.Kafka) (*KafkaBus, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Seeds...),
		kgo.DefaultProduceTopic(cfg.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return &KafkaBus{client: client, topic: cfg.Topic}, nil
}

// Publish produces synchronously; the caller decides whether failure aborts
// (it never does on the settlement path).
func (b *KafkaBus) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	record := &kgo.Record{
		Topic: b.topic,
		Key:   []byte(event.Subject),
		Value: value,
	}
	if err := b.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes and releases the underlying client.
func (b *KafkaBus) Close() {
	b.client.Close()
}
