package revocation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"

	redisclient "github.com/opsdesk/reservations-backend/pkg/redis"
)

type store interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type keyer interface {
	RevokedTokenKey(jti string) string
}

// Checker exposes the read-only surface needed by middleware.
type Checker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Denylist records revoked access tokens by jti until they would have
// expired anyway.
type Denylist struct {
	store  store
	keyer  keyer
	maxTTL time.Duration
}

// NewDenylist constructs a denylist backed by Redis. maxTTL bounds how long a
// revocation is kept and should equal the access token lifetime.
func NewDenylist(client *redisclient.Client, maxTTL time.Duration) (*Denylist, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if maxTTL <= 0 {
		return nil, fmt.Errorf("revocation ttl must be positive")
	}
	return &Denylist{store: client, keyer: client, maxTTL: maxTTL}, nil
}

// Revoke marks jti as revoked. expiresAt, when known, shortens the entry.
func (d *Denylist) Revoke(ctx context.Context, jti string, now, expiresAt time.Time) error {
	jti = strings.TrimSpace(jti)
	if jti == "" {
		return fmt.Errorf("jti is required")
	}
	ttl := d.maxTTL
	if !expiresAt.IsZero() {
		remaining := expiresAt.Sub(now)
		if remaining <= 0 {
			return nil
		}
		if remaining < ttl {
			ttl = remaining
		}
	}
	return d.store.Set(ctx, d.keyer.RevokedTokenKey(jti), now.UTC().Format(time.RFC3339), ttl)
}

func (d *Denylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, nil
	}
	_, err := d.store.Get(ctx, d.keyer.RevokedTokenKey(jti))
	if errors.Is(err, redislib.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
