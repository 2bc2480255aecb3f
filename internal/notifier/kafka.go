package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publishes each message as a JSON document keyed by match id.
type Kafka struct {
	writer messageWriter
	locale string
	now    func() time.Time
}

// NewKafka creates a notifier writing to topic on the given brokers.
func NewKafka(brokers []string, topic, locale string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newKafka(writer, locale), nil
}

func newKafka(w messageWriter, locale string) *Kafka {
	return &Kafka{writer: w, locale: locale, now: time.Now}
}

// Notify writes one record.
func (k *Kafka) Notify(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(envelope{Message: msg, Locale: k.locale, SentAt: k.now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	record := kafka.Message{Key: []byte(msg.MatchID), Value: payload}
	if err := k.writer.WriteMessages(ctx, record); err != nil {
		return fmt.Errorf("writing to kafka: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
