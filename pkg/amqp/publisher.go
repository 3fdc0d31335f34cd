package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/opsdesk/reservations-backend/pkg/config"
	"github.com/opsdesk/reservations-backend/pkg/logger"
)

var (
	ErrNotInitialized = errors.New("amqp publisher not initialized")
	ErrNacked         = errors.New("broker did not confirm message")
)

// Message is a single delivery routed by Key on the configured exchange.
type Message struct {
	Key         string
	Body        []byte
	MessageID   string
	ContentType string
	Headers     map[string]any
	Timestamp   time.Time
}

// channel is the subset of *amqp.Channel the publisher relies on.
type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Confirm(noWait bool) error
	PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error)
	IsClosed() bool
	Close() error
}

// Publisher writes persistent messages to a durable topic exchange and waits
// for broker confirms.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// NewPublisher dials the broker, declares the exchange and enables confirms.
func NewPublisher(ctx context.Context, cfg config.AMQPConfig, logg *logger.Logger) (*Publisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("%s is required", config.EnvAMQPURL)
	}
	if strings.TrimSpace(cfg.Exchange) == "" {
		return nil, errors.New("amqp exchange is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	p, err := newPublisher(ch, cfg.Exchange)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn

	if logg != nil {
		logg.Info(logg.WithField(ctx, "exchange", cfg.Exchange), "amqp publisher initialized")
	}
	return p, nil
}

func newPublisher(ch channel, exchange string) (*Publisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}
	return &Publisher{ch: ch, exchange: exchange}, nil
}

// Exchange returns the exchange messages are published to.
func (p *Publisher) Exchange() string {
	if p == nil {
		return ""
	}
	return p.exchange
}

// Publish sends msg and blocks until the broker acks or nacks it.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	if p == nil || p.ch == nil {
		return ErrNotInitialized
	}
	if strings.TrimSpace(msg.Key) == "" {
		return errors.New("routing key is required")
	}

	contentType := msg.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	// confirms are matched by delivery tag, so publishes share one channel serially
	p.mu.Lock()
	confirm, err := p.ch.PublishWithDeferredConfirmWithContext(ctx, p.exchange, msg.Key, false, false, amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.MessageID,
		Timestamp:    ts.UTC(),
		Headers:      amqp.Table(msg.Headers),
		Body:         msg.Body,
	})
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Key, err)
	}
	if confirm == nil {
		return nil
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("await confirm %s: %w", msg.Key, err)
	}
	if !acked {
		return fmt.Errorf("%w: %s", ErrNacked, msg.Key)
	}
	return nil
}

// Ping reports whether the channel is still open.
func (p *Publisher) Ping(ctx context.Context) error {
	if p == nil || p.ch == nil {
		return ErrNotInitialized
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.ch.IsClosed() {
		return errors.New("amqp channel closed")
	}
	return nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
