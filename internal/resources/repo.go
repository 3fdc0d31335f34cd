package resources

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdesk/reservations-backend/internal/repo"
	"github.com/opsdesk/reservations-backend/pkg/db"
	"github.com/opsdesk/reservations-backend/pkg/db/models"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

func (r *Repository) Create(ctx context.Context, resource *models.Resource) error {
	if err := r.Conn(ctx, nil).Create(resource).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert resource")
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Resource, error) {
	var resource models.Resource
	err := r.Conn(ctx, nil).Scopes(db.TenantScope(tenantID)).Where("id = ?", id).Take(&resource).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load resource")
	}
	return &resource, nil
}

// FindByIDs returns the tenant's resources among ids; missing ids are simply absent.
func (r *Repository) FindByIDs(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, ids []uuid.UUID) ([]models.Resource, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Resource
	err := r.Conn(ctx, tx).Scopes(db.TenantScope(tenantID)).Where("id IN ?", ids).Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load resources")
	}
	return rows, nil
}

func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Resource, error) {
	query := r.Conn(ctx, nil).Scopes(db.TenantScope(tenantID))
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.Resource
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list resources")
	}
	return rows, nil
}

func (r *Repository) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	res := r.Conn(ctx, nil).
		Model(&models.Resource{}).
		Scopes(db.TenantScope(tenantID)).
		Where("id = ?", id).
		Update("active", active)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "update resource")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found")
	}
	return nil
}
