package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("RESERVATIONS_TEST_PORT", "  ")
	if got := Get("RESERVATIONS_TEST_PORT", "8080"); got != "8080" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("RESERVATIONS_TEST_PORT", " 9090 ")
	if got := Get("RESERVATIONS_TEST_PORT", "8080"); got != "9090" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestFirstHonoursKeyOrder(t *testing.T) {
	t.Setenv("RESERVATIONS_TEST_A", "")
	t.Setenv("RESERVATIONS_TEST_B", "b")
	t.Setenv("RESERVATIONS_TEST_C", "c")
	if got := First("none", "RESERVATIONS_TEST_A", "RESERVATIONS_TEST_B", "RESERVATIONS_TEST_C"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := First("none"); got != "none" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
