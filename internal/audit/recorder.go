package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdesk/reservations-backend/pkg/db"
	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/enums"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

const (
	EntityReservation = "reservation"

	defaultListLimit = 100
	maxListLimit     = 500
)

// Entry describes one state change. Metadata is marshalled as JSON.
type Entry struct {
	TenantID   uuid.UUID
	Actor      string
	Action     enums.AuditAction
	EntityType string
	EntityID   uuid.UUID
	Metadata   any
	At         time.Time
}

// Filter narrows List. Zero values are ignored.
type Filter struct {
	EntityID *uuid.UUID
	Action   *enums.AuditAction
	Since    *time.Time
	Limit    int
}

// Recorder appends audit entries. Writes always go through the caller's
// transaction so an entry exists iff the change it describes committed.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(conn *gorm.DB) *Recorder {
	return &Recorder{db: conn}
}

func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, entry Entry) error {
	if tx == nil {
		return fmt.Errorf("audit record requires a transaction")
	}
	if entry.TenantID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "audit entry requires tenant id")
	}
	if !entry.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid audit action %q", entry.Action))
	}

	var metadata json.RawMessage
	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal audit metadata")
		}
		metadata = raw
	}

	at := entry.At
	if at.IsZero() {
		at = time.Now()
	}
	entityType := entry.EntityType
	if entityType == "" {
		entityType = EntityReservation
	}

	row := models.AuditEntry{
		ID:         uuid.New(),
		TenantID:   entry.TenantID,
		Actor:      entry.Actor,
		Action:     entry.Action,
		EntityType: entityType,
		EntityID:   entry.EntityID,
		Metadata:   metadata,
		CreatedAt:  at.UTC(),
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert audit entry")
	}
	return nil
}

// List returns the tenant's entries newest first.
func (r *Recorder) List(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]models.AuditEntry, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	query := r.db.WithContext(ctx).Scopes(db.TenantScope(tenantID))
	if filter.EntityID != nil {
		query = query.Where("entity_id = ?", *filter.EntityID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", filter.Since.UTC())
	}

	var rows []models.AuditEntry
	if err := query.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list audit entries")
	}
	return rows, nil
}
