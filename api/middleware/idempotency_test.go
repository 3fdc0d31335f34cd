package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

func requestWithPattern(method, url, pattern string) *http.Request {
	req := httptest.NewRequest(method, url, strings.NewReader(`{}`))
	rc := chi.NewRouteContext()
	rc.RoutePatterns = []string{pattern}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestRequiresKeySelection(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		pattern string
		want    bool
	}{
		{"create booking", http.MethodPost, "/api/v1/bookings", true},
		{"create hold", http.MethodPost, "/api/v1/holds", true},
		{"confirm hold", http.MethodPost, "/api/v1/holds/{id}/confirm", true},
		{"extend hold", http.MethodPost, "/api/v1/holds/{id}/extend", true},
		{"release hold", http.MethodPost, "/api/v1/holds/{id}/release", true},
		{"reschedule", http.MethodPost, "/api/v1/bookings/{id}/reschedule", true},
		{"cancel", http.MethodPost, "/api/v1/bookings/{id}/cancel", true},
		{"availability is a read", http.MethodPost, "/api/v1/availability", false},
		{"get reservation", http.MethodGet, "/api/v1/reservations/{id}", false},
		{"notification read", http.MethodPost, "/api/v1/notifications/{id}/read", false},
	}

	for _, tt := range tests {
		if got := requiresKey(tt.method, tt.pattern); got != tt.want {
			t.Fatalf("%s: expected %v got %v", tt.name, tt.want, got)
		}
	}
}

func TestIdempotencyMiddlewareRequiresHeader(t *testing.T) {
	handlerCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/holds", "/api/v1/holds")
	resp := httptest.NewRecorder()
	Idempotency(nil)(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if handlerCalled {
		t.Fatalf("handler should not run without idempotency key")
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected error code %s got %s", pkgerrors.CodeValidation, payload.Error.Code)
	}
}

func TestIdempotencyMiddlewarePassesKeyDownstream(t *testing.T) {
	var seen string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = IdempotencyKeyFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := requestWithPattern(http.MethodPost, "/api/v1/holds/abc/confirm", "/api/v1/holds/{id}/confirm")
	req.Header.Set(IdempotencyKeyHeader, "  confirm-1 ")
	resp := httptest.NewRecorder()
	Idempotency(nil)(handler).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if seen != "confirm-1" {
		t.Fatalf("expected trimmed key, got %q", seen)
	}
}

func TestIdempotencyMiddlewareRejectsLongKey(t *testing.T) {
	req := requestWithPattern(http.MethodPost, "/api/v1/bookings", "/api/v1/bookings")
	req.Header.Set(IdempotencyKeyHeader, strings.Repeat("k", 256))
	resp := httptest.NewRecorder()
	Idempotency(nil)(okHandler()).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestIdempotencyMiddlewareIgnoresReads(t *testing.T) {
	req := requestWithPattern(http.MethodGet, "/api/v1/reservations/abc", "/api/v1/reservations/{id}")
	resp := httptest.NewRecorder()
	Idempotency(nil)(okHandler()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
