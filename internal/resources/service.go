package resources

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdesk/reservations-backend/pkg/db/models"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

// Directory is the read-only view the reservation engine needs.
type Directory struct {
	repo *Repository
}

func NewDirectory(repo *Repository) *Directory {
	return &Directory{repo: repo}
}

// RequireActive fails with NotFound when any id is unknown to the tenant and
// with Validation when any resource is inactive. Existing reservations on an
// inactive resource are left alone; only new intervals are refused.
func (d *Directory) RequireActive(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, ids []uuid.UUID) error {
	rows, err := d.repo.FindByIDs(ctx, tx, tenantID, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]models.Resource, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}

	var missing, inactive []string
	for _, id := range ids {
		row, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id.String())
		case !row.Active:
			inactive = append(inactive, id.String())
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "resource not found").
			WithDetails(map[string]any{"resource_ids": missing})
	}
	if len(inactive) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("resource inactive: %s", strings.Join(inactive, ", "))).
			WithDetails(map[string]any{"resource_ids": inactive})
	}
	return nil
}

// Admin backs the resource management commands of the admin CLI.
type Admin struct {
	repo *Repository
	now  func() time.Time
}

func NewAdmin(repo *Repository) *Admin {
	return &Admin{repo: repo, now: time.Now}
}

func (a *Admin) Add(ctx context.Context, tenantID uuid.UUID, resourceType, name string) (*models.Resource, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	resourceType = strings.TrimSpace(resourceType)
	name = strings.TrimSpace(name)
	if resourceType == "" || name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource type and name are required")
	}
	now := a.now().UTC()
	resource := &models.Resource{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Type:      resourceType,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.repo.Create(ctx, resource); err != nil {
		return nil, err
	}
	return resource, nil
}

func (a *Admin) SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error {
	return a.repo.SetActive(ctx, tenantID, id, active)
}

func (a *Admin) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Resource, error) {
	return a.repo.List(ctx, tenantID, activeOnly)
}
