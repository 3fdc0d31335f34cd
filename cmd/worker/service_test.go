package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opsdesk/reservations-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type blockingConsumer struct{ started chan struct{} }

func (b *blockingConsumer) Run(ctx context.Context) error {
	close(b.started)
	<-ctx.Done()
	return ctx.Err()
}

type failingConsumer struct{ err error }

func (f failingConsumer) Run(context.Context) error { return f.err }

func newWorker(t *testing.T, redisErr error, consumer runner) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Logger:               logger.Nop(),
		DB:                   stubPinger{},
		Redis:                stubPinger{err: redisErr},
		PubSub:               stubPinger{},
		NotificationConsumer: consumer,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestRunStopsWhenDependencyUnavailable(t *testing.T) {
	svc := newWorker(t, errors.New("connection refused"), failingConsumer{})
	if err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected readiness failure")
	}
}

func TestRunReturnsConsumerError(t *testing.T) {
	boom := errors.New("subscription deleted")
	svc := newWorker(t, nil, failingConsumer{err: boom})
	if err := svc.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected consumer error, got %v", err)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	consumer := &blockingConsumer{started: make(chan struct{})}
	svc := newWorker(t, nil, consumer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	<-consumer.started
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestNewServiceRequiresConsumer(t *testing.T) {
	_, err := NewService(ServiceParams{
		Logger: logger.Nop(),
		DB:     stubPinger{},
		Redis:  stubPinger{},
		PubSub: stubPinger{},
	})
	if err == nil {
		t.Fatal("expected error without consumer")
	}
}
