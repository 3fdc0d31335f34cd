package cron

import (
	"context"
	"testing"
)

type stubJob struct {
	name string
}

func (s *stubJob) Name() string              { return s.name }
func (s *stubJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRunOrder(t *testing.T) {
	registry := NewRegistry()
	report := &stubJob{name: "hold-expiry-report"}
	retention := &stubJob{name: "outbox-retention"}
	if err := registry.Register(report); err != nil {
		t.Fatalf("register report: %v", err)
	}
	if err := registry.Register(retention); err != nil {
		t.Fatalf("register retention: %v", err)
	}

	jobs := registry.Jobs()
	if len(jobs) != 2 || jobs[0] != report || jobs[1] != retention {
		t.Fatalf("unexpected jobs %v", registry.Names())
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal slice leaked")
	}
}

func TestRegistryRejectsDuplicateAndUnnamedJobs(t *testing.T) {
	registry := NewRegistry(&stubJob{name: "outbox-retention"}, nil, &stubJob{name: "outbox-retention"})
	if got := registry.Names(); len(got) != 1 {
		t.Fatalf("expected duplicate skipped, got %v", got)
	}
	if err := registry.Register(&stubJob{name: "outbox-retention"}); err == nil {
		t.Fatal("expected duplicate name error")
	}
	if err := registry.Register(&stubJob{name: "  "}); err == nil {
		t.Fatal("expected empty name error")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("expected nil job error")
	}
}
