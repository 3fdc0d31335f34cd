package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/opsdesk/reservations-backend/pkg/amqp"
	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/outbox/registry"
)

// sink delivers one resolved outbox row to a broker.
type sink interface {
	Name() string
	Ping(context.Context) error
	Deliver(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error
}

func messageAttributes(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]string {
	return map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"tenant_id":      event.TenantID.String(),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type pubSubSink struct {
	client  pubSubClient
	factory publisherFactory
}

func newPubSubSink(client pubSubClient, factory publisherFactory) (*pubSubSink, error) {
	if client == nil {
		return nil, errors.New("pubsub client is required")
	}
	if factory == nil {
		factory = func(topic string) publisher {
			return newGCPPubPublisher(client.Publisher(topic))
		}
	}
	return &pubSubSink{client: client, factory: factory}, nil
}

func (s *pubSubSink) Name() string { return "pubsub" }

func (s *pubSubSink) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

func (s *pubSubSink) Deliver(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.factory(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %s", topic))
	}

	msg := &gcppubsub.Message{
		Data:       event.Payload,
		Attributes: messageAttributes(event, resolved),
	}

	result := pub.Publish(ctx, msg)
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %s", topic))
	}
	_, err := result.Get(ctx)
	return err
}

func newGCPPubPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}

type amqpPublisher interface {
	Ping(context.Context) error
	Publish(context.Context, amqp.Message) error
}

// amqpSink routes by event type on a topic exchange, so bindings such as
// "booking.*" select event families.
type amqpSink struct {
	pub amqpPublisher
}

func newAMQPSink(pub amqpPublisher) (*amqpSink, error) {
	if pub == nil {
		return nil, errors.New("amqp publisher is required")
	}
	return &amqpSink{pub: pub}, nil
}

func (s *amqpSink) Name() string { return "amqp" }

func (s *amqpSink) Ping(ctx context.Context) error { return s.pub.Ping(ctx) }

func (s *amqpSink) Deliver(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	key := strings.TrimSpace(string(event.EventType))
	if key == "" {
		return registry.NewNonRetryableError(errors.New("event type missing"))
	}

	headers := make(map[string]any)
	for k, v := range messageAttributes(event, resolved) {
		headers[k] = v
	}

	return s.pub.Publish(ctx, amqp.Message{
		Key:       key,
		Body:      event.Payload,
		MessageID: resolved.Envelope.EventID,
		Headers:   headers,
		Timestamp: resolved.Envelope.OccurredAt,
	})
}
