package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streadway/amqp"
)

type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQP publishes each message as a persistent JSON document to an exchange.
type AMQP struct {
	publisher  publisher
	exchange   string
	routingKey string
	locale     string
	now        func() time.Time
	close      func() error
}

// AMQPConfig configures the AMQP notifier.
type AMQPConfig struct {
	URL        string
	Exchange   string
	RoutingKey string
	Locale     string
}

// DialAMQP connects to the broker and declares the exchange as a durable
// topic exchange when one is named.
func DialAMQP(cfg AMQPConfig) (*AMQP, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("amqp url is required")
	}

	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("opening amqp channel: %w", err)
	}

	if cfg.Exchange != "" {
		if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
			ch.Close()
			conn.Close()
			return nil, fmt.Errorf("declaring exchange %s: %w", cfg.Exchange, err)
		}
	}

	n := newAMQP(ch, cfg)
	n.close = func() error {
		ch.Close()
		return conn.Close()
	}
	return n, nil
}

func newAMQP(p publisher, cfg AMQPConfig) *AMQP {
	return &AMQP{
		publisher:  p,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		locale:     cfg.Locale,
		now:        time.Now,
	}
}

// Notify publishes one message. The routing key defaults to
// "worldcup.<event type>".
func (a *AMQP) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sentAt := a.now().UTC()
	body, err := json.Marshal(envelope{Message: msg, Locale: a.locale, SentAt: sentAt})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	key := a.routingKey
	if key == "" {
		key = "worldcup." + msg.Type
	}

	err = a.publisher.Publish(a.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.EventID,
		Timestamp:    sentAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publishing to amqp: %w", err)
	}
	return nil
}

// Close closes the channel and connection.
func (a *AMQP) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}
