package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opsdesk/reservations-backend/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", "*_"+suffix+".sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected one %s migration, got %d", suffix, len(matches))
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func assertContains(t *testing.T, content string, checks ...string) {
	t.Helper()
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReservationsMigrationContainsConstraints(t *testing.T) {
	assertContains(t, readMigration(t, "create_reservations"),
		"CREATE TABLE IF NOT EXISTS reservations",
		"CHECK (start_at < end_at)",
		"CHECK (kind <> 'hold' OR expires_at IS NOT NULL)",
		"WHERE kind = 'hold' AND status = 'active'",
		"CREATE TABLE IF NOT EXISTS reservation_resources",
		"PRIMARY KEY (reservation_id, resource_id)",
		"REFERENCES reservations (id) ON DELETE CASCADE",
		"DROP TABLE IF EXISTS reservation_resources",
		"DROP TABLE IF EXISTS reservations",
	)
}

func TestIdempotencyMigrationKeysByTenantOperationKey(t *testing.T) {
	assertContains(t, readMigration(t, "create_idempotency_records"),
		"CREATE TABLE IF NOT EXISTS idempotency_records",
		"CONSTRAINT idempotency_records_pkey PRIMARY KEY (tenant_id, operation, idempotency_key)",
		"DROP TABLE IF EXISTS idempotency_records",
	)
}

func TestOutboxMigrationIndexesUnpublishedRows(t *testing.T) {
	assertContains(t, readMigration(t, "create_outbox"),
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"WHERE published_at IS NULL",
		"CREATE TABLE IF NOT EXISTS outbox_dlq",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_outbox_dlq_event_id ON outbox_dlq (event_id)",
	)
}

func TestNotificationsMigrationDedupesByEvent(t *testing.T) {
	assertContains(t, readMigration(t, "create_notifications"),
		"CREATE TABLE IF NOT EXISTS notifications",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_event_id ON notifications (event_id)",
		"DROP TABLE IF EXISTS notifications",
	)
}

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("ValidateDir: %v", err)
	}
}
