package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/enums"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:audit_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.AuditEntry{}))
	return conn
}

func TestRecordAndList(t *testing.T) {
	db := newTestDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()
	tenantID := uuid.New()
	entityID := uuid.New()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if err := rec.Record(ctx, tx, Entry{
			TenantID: tenantID, Actor: "alice", Action: enums.AuditActionCreate,
			EntityID: entityID, Metadata: map[string]any{"kind": "booking"}, At: base,
		}); err != nil {
			return err
		}
		return rec.Record(ctx, tx, Entry{
			TenantID: tenantID, Actor: "bob", Action: enums.AuditActionCancel,
			EntityID: entityID, At: base.Add(time.Minute),
		})
	}))

	rows, err := rec.List(ctx, tenantID, Filter{EntityID: &entityID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, enums.AuditActionCancel, rows[0].Action)
	assert.Equal(t, "alice", rows[1].Actor)
	assert.Equal(t, EntityReservation, rows[1].EntityType)
	assert.JSONEq(t, `{"kind":"booking"}`, string(rows[1].Metadata))

	cancel := enums.AuditActionCancel
	rows, err = rec.List(ctx, tenantID, Filter{Action: &cancel})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = rec.List(ctx, uuid.New(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRecordRolledBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()
	tenantID := uuid.New()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := rec.Record(ctx, tx, Entry{TenantID: tenantID, Actor: "alice", Action: enums.AuditActionCreate, EntityID: uuid.New()}); err != nil {
			return err
		}
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	rows, err := rec.List(ctx, tenantID, Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRecordValidation(t *testing.T) {
	db := newTestDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()

	err := rec.Record(ctx, nil, Entry{TenantID: uuid.New(), Action: enums.AuditActionCreate})
	require.Error(t, err)

	err = rec.Record(ctx, db, Entry{TenantID: uuid.New(), Action: "delete"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = rec.Record(ctx, db, Entry{Action: enums.AuditActionCreate})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
