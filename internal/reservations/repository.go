package reservations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdesk/reservations-backend/internal/repo"
	"github.com/opsdesk/reservations-backend/pkg/db"
	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/enums"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

// Repository persists reservations. Every method is tenant scoped and takes
// the transaction it should run in; a nil tx falls back to the base handle.
type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// Create inserts the reservation and one link row per resource.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, res *models.Reservation, resourceIDs []uuid.UUID) error {
	conn := r.Conn(ctx, tx)
	if err := conn.Omit("Resources").Create(res).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert reservation")
	}
	links := make([]models.ReservationResource, 0, len(resourceIDs))
	for _, id := range resourceIDs {
		links = append(links, models.ReservationResource{
			ReservationID: res.ID,
			ResourceID:    id,
			TenantID:      res.TenantID,
		})
	}
	if err := conn.Create(&links).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert reservation resources")
	}
	res.Resources = links
	return nil
}

// FindByID loads a reservation of the tenant. Other tenants' rows read as not found.
func (r *Repository) FindByID(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID) (*models.Reservation, error) {
	var res models.Reservation
	err := r.Conn(ctx, tx).
		Scopes(db.TenantScope(tenantID)).
		Preload("Resources", func(q *gorm.DB) *gorm.DB { return q.Order("resource_id ASC") }).
		Where("id = ?", id).
		Take(&res).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservation")
	}
	return &res, nil
}

// UpdateVersioned applies updates only if the row still has expectedVersion,
// and bumps the version. Zero affected rows means a concurrent writer won.
func (r *Repository) UpdateVersioned(ctx context.Context, tx *gorm.DB, tenantID, id uuid.UUID, expectedVersion int, updates map[string]any) error {
	updates["version"] = expectedVersion + 1
	res := r.Conn(ctx, tx).
		Model(&models.Reservation{}).
		Scopes(db.TenantScope(tenantID)).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update reservation")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation modified concurrently").
			WithDetails(map[string]any{"reservation_id": id, "expected_version": expectedVersion})
	}
	return nil
}

// FindConflicts returns ids of reservations that block iv on any of the
// resources: confirmed bookings and holds that are still live at now.
func (r *Repository) FindConflicts(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, resourceIDs []uuid.UUID, iv Interval, exclude *uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	if len(resourceIDs) == 0 {
		return nil, nil
	}
	query := r.Conn(ctx, tx).
		Table("reservations").
		Joins("JOIN reservation_resources ON reservation_resources.reservation_id = reservations.id").
		Scopes(db.TenantScopeOn("reservations", tenantID)).
		Where("reservation_resources.resource_id IN ?", resourceIDs).
		Where("(reservations.status = ? OR (reservations.status = ? AND reservations.expires_at > ?))",
			enums.ReservationStatusConfirmed, enums.ReservationStatusActive, now.UTC()).
		Where("reservations.start_at < ? AND reservations.end_at > ?", iv.End.UTC(), iv.Start.UTC())
	if exclude != nil {
		query = query.Where("reservations.id <> ?", *exclude)
	}

	var ids []uuid.UUID
	if err := query.Distinct("reservations.id").Pluck("reservations.id", &ids).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check conflicts")
	}
	sortIDs(ids)
	return ids, nil
}

// ListFilter narrows ListByResource.
type ListFilter struct {
	From time.Time
	To   time.Time
	// IncludeInactive adds cancelled bookings and lapsed holds.
	IncludeInactive bool
	Limit           int
}

// ListByResource returns reservations touching the resource, ordered by start.
func (r *Repository) ListByResource(ctx context.Context, tenantID, resourceID uuid.UUID, filter ListFilter, now time.Time) ([]models.Reservation, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := r.Conn(ctx, nil).
		Scopes(db.TenantScope(tenantID)).
		Preload("Resources", func(q *gorm.DB) *gorm.DB { return q.Order("resource_id ASC") }).
		Where("id IN (?)", r.Conn(ctx, nil).Table("reservation_resources").
			Select("reservation_id").
			Where("tenant_id = ? AND resource_id = ?", tenantID, resourceID))
	if !filter.From.IsZero() {
		query = query.Where("end_at > ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		query = query.Where("start_at < ?", filter.To.UTC())
	}
	if !filter.IncludeInactive {
		query = query.Where("(status = ? OR (status = ? AND expires_at > ?))",
			enums.ReservationStatusConfirmed, enums.ReservationStatusActive, now.UTC())
	}

	var rows []models.Reservation
	if err := query.Order("start_at ASC").Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reservations")
	}
	return rows, nil
}

// LapsedHoldCount is one row of the hold expiry report.
type LapsedHoldCount struct {
	TenantID uuid.UUID
	Count    int64
}

// CountLapsedHolds groups active holds whose TTL passed before now by tenant.
// It only reads; lapsed holds are never rewritten.
func (r *Repository) CountLapsedHolds(ctx context.Context, now time.Time) ([]LapsedHoldCount, error) {
	var rows []LapsedHoldCount
	err := r.Conn(ctx, nil).
		Model(&models.Reservation{}).
		Select("tenant_id, COUNT(*) AS count").
		Where("kind = ? AND status = ? AND expires_at <= ?", enums.ReservationKindHold, enums.ReservationStatusActive, now.UTC()).
		Group("tenant_id").
		Order("tenant_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count lapsed holds")
	}
	return rows, nil
}
