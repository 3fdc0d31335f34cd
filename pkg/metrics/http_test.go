package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsLabelsUnmatchedRoutes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("/api/v1/holds/{id}/confirm", http.MethodPost, http.StatusOK, 20*time.Millisecond)
	m.Observe("", http.MethodGet, http.StatusNotFound, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/v1/holds/{id}/confirm"); err != nil || got != 1 {
		t.Fatalf("expected one confirm request, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "unmatched"); err != nil || got != 1 {
		t.Fatalf("expected one unmatched request, got %f (%v)", got, err)
	}
}

func TestCommandMetricsCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCommandMetrics(reg)
	m.Observe("create_booking", OutcomeReplayed, "", 5*time.Millisecond)
	m.IncConflict("create_booking")
	m.IncRetry("create_booking")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, name := range []string{"reservation_command_total", "reservation_conflicts_total", "reservation_command_retries_total"} {
		if got, err := fetchCounterValue(mfs, name, "operation", "create_booking"); err != nil || got != 1 {
			t.Fatalf("%s: expected 1, got %f (%v)", name, got, err)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var h *HTTPMetrics
	h.Observe("/", http.MethodGet, http.StatusOK, time.Millisecond)
	NewCommandMetrics(nil).Observe("x", OutcomeOK, "", time.Millisecond)
	NewHoldMetrics(nil).SetLapsed(1, 1)
}
