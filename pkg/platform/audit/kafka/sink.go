// Package kafka streams audit events to a Kafka topic so the compliance
// trail outlives the service and feeds downstream retention pipelines.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	audit "praisa/pkg/platform/audit"
)

// Sink implements audit.Store by producing one JSON record per event. Events
// are keyed by source ID so per-hospital ordering is preserved within a
// partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// NewSink connects a producer to the given brokers.
func NewSink(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka audit sink: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// Append produces the event synchronously; the publisher's async buffer
// keeps this off the request path.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.SourceID),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes outstanding records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
