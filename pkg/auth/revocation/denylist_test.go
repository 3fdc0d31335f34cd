package revocation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type mockStore struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) RevokedTokenKey(jti string) string {
	return "revoked:" + jti
}

func TestDenylistRevokeAndCheck(t *testing.T) {
	store := newMockStore()
	list := &Denylist{store: store, keyer: store, maxTTL: time.Hour}
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	revoked, err := list.IsRevoked(ctx, "jti-1")
	if err != nil || revoked {
		t.Fatalf("expected not revoked, got %v %v", revoked, err)
	}

	if err := list.Revoke(ctx, "jti-1", now, now.Add(10*time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	revoked, err = list.IsRevoked(ctx, "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked, got %v %v", revoked, err)
	}
	if ttl := store.ttls["revoked:jti-1"]; ttl != 10*time.Minute {
		t.Fatalf("expected ttl bounded by token expiry, got %s", ttl)
	}
}

func TestDenylistSkipsExpiredTokens(t *testing.T) {
	store := newMockStore()
	list := &Denylist{store: store, keyer: store, maxTTL: time.Hour}
	now := time.Now()

	if err := list.Revoke(context.Background(), "old", now, now.Add(-time.Minute)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(store.data) != 0 {
		t.Fatalf("expected nothing stored for an expired token")
	}
	if err := list.Revoke(context.Background(), " ", now, time.Time{}); err == nil {
		t.Fatal("expected error for empty jti")
	}
}

func TestNewDenylistValidatesInput(t *testing.T) {
	if _, err := NewDenylist(nil, time.Hour); err == nil {
		t.Fatal("expected error for nil client")
	}
}
