// Package dedupe guards at-least-once event consumers against redelivery.
// A consumer marks an event id before handling it and forgets the marker if
// handling fails, so the redelivered message is processed again.
package dedupe

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/redis"
)

// Guard records processed event ids per consumer with Redis SETNX and a TTL.
// Keys look like `rsv:idempotency:evt:<consumer>:<event_id>`.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Mark reports whether the event was already seen by consumer, marking it
// as seen when it was not.
func (g *Guard) Mark(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return false, err
	}
	fresh, err := g.store.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

// Forget drops the marker so a redelivery is handled again.
func (g *Guard) Forget(ctx context.Context, consumer string, eventID uuid.UUID) error {
	key, err := g.key(consumer, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(consumer string, eventID uuid.UUID) (string, error) {
	if consumer == "" {
		return "", errors.New("consumer name is required")
	}
	if eventID == uuid.Nil {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey("evt:"+consumer, eventID.String()), nil
}
