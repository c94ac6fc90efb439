// v1
// kafka.go

package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaBackend publishes snapshots to a Kafka topic. Slash-separated topic
// prefixes are mapped onto Kafka's dotted naming.
type KafkaBackend struct {
	log *slog.Logger

	mu      sync.Mutex
	writer  *kafka.Writer
	healthy bool
}

func NewKafkaBackend(log *slog.Logger) *KafkaBackend {
	return &KafkaBackend{log: log.With(slog.String("component", "kafka"))}
}

func (b *KafkaBackend) Connect(ctx context.Context, cfg Config) error {
	// The writer dials lazily; dial once now so connect failures surface
	// here instead of on the first publish.
	conn, err := kafka.DialContext(ctx, "tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("kafka dial: %w", err)
	}
	_ = conn.Close()

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Addr()),
		Topic:                  kafkaTopic(cfg.DataTopic()),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}

	b.mu.Lock()
	b.writer = w
	b.healthy = true
	b.mu.Unlock()
	return nil
}

func (b *KafkaBackend) Publish(ctx context.Context, topic string, payload []byte) error {
	b.mu.Lock()
	w := b.writer
	b.mu.Unlock()
	if w == nil {
		return errors.New("kafka writer not connected")
	}

	err := w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(kafkaTopic(topic)),
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		b.mu.Lock()
		b.healthy = false
		b.mu.Unlock()
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (b *KafkaBackend) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writer != nil && b.healthy
}

func (b *KafkaBackend) Close() {
	b.mu.Lock()
	w := b.writer
	b.writer = nil
	b.healthy = false
	b.mu.Unlock()
	if w != nil {
		if err := w.Close(); err != nil {
			b.log.Error("failed to close kafka writer", "err", err)
		}
	}
}
