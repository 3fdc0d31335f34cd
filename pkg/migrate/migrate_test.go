package migrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/reservations-backend/pkg/config"
	"github.com/opsdesk/reservations-backend/pkg/db"
	"github.com/opsdesk/reservations-backend/pkg/logger"
)

func TestCreateSQLMigrationWritesTemplate(t *testing.T) {
	dir := t.TempDir()
	nowFunc = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	t.Cleanup(func() { nowFunc = time.Now })

	path, err := CreateSQLMigration(dir, "  Add Waitlist-Entries ")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20260304050607_add_waitlist_entries.sql"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "-- +goose Up")
	require.Contains(t, string(data), "-- rollback add_waitlist_entries")
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "add waitlist entries")
	require.Error(t, err, "same second and name must not overwrite")
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	_, err := CreateSQLMigration(t.TempDir(), "!!!")
	require.Error(t, err)
}

func TestValidateDirRejectsBadFiles(t *testing.T) {
	cases := map[string]map[string]string{
		"bad name": {
			"create_things.sql": "-- +goose Up\n-- +goose Down\n",
		},
		"missing down": {
			"20260101000000_things.sql": "-- +goose Up\nSELECT 1;\n",
		},
		"unbalanced block": {
			"20260101000000_things.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n",
		},
		"duplicate version": {
			"20260101000000_a.sql": "-- +goose Up\n-- +goose Down\n",
			"20260101000000_b.sql": "-- +goose Up\n-- +goose Down\n",
		},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			for file, body := range files {
				require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(body), 0o644))
			}
			require.Error(t, ValidateDir(dir))
		})
	}
}

func TestMigrateToVersionValidatesInput(t *testing.T) {
	err := MigrateToVersion(context.Background(), nil, DefaultDir, "")
	require.Error(t, err)

	err = MigrateToVersion(context.Background(), nil, DefaultDir, "2026")
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "YYYYMMDDHHMMSS"))

	err = MigrateToVersion(context.Background(), nil, DefaultDir, "20260105090000")
	require.EqualError(t, err, "db is required")
}

func TestMaybeRunDevAutoMigratesSQLite(t *testing.T) {
	dsn := fmt.Sprintf("file:migrate_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	client := db.Wrap(conn)

	cfg := &config.Config{}
	cfg.App.Env = config.AppEnvDev
	cfg.FeatureFlags.AutoMigrate = true
	cfg.FeatureFlags.UseSQLite = true

	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), client))
	for _, table := range []string{"reservations", "reservation_resources", "idempotency_records", "outbox_events", "outbox_dlq", "notifications"} {
		require.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestMaybeRunDevSkipsOutsideDev(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "prod"
	cfg.FeatureFlags.AutoMigrate = true
	require.NoError(t, MaybeRunDev(context.Background(), cfg, logger.Nop(), nil))
}
