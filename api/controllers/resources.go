package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/api/responses"
	"github.com/opsdesk/reservations-backend/api/validators"
	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/logger"
)

type resourceAdmin interface {
	Add(ctx context.Context, tenantID uuid.UUID, resourceType, name string) (*models.Resource, error)
	SetActive(ctx context.Context, tenantID, id uuid.UUID, active bool) error
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool) ([]models.Resource, error)
}

type createResourceRequest struct {
	Type string `json:"type" validate:"required,max=64"`
	Name string `json:"name" validate:"required,max=200"`
}

type resourceDTO struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

func toResourceDTO(res models.Resource) resourceDTO {
	return resourceDTO{ID: res.ID, Type: res.Type, Name: res.Name, Active: res.Active, CreatedAt: res.CreatedAt}
}

func ListResources(admin resourceAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		activeOnly, err := validators.ParseQueryBool(r, "active_only")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := admin.List(r.Context(), tenantID, activeOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := make([]resourceDTO, 0, len(rows))
		for _, row := range rows {
			out = append(out, toResourceDTO(row))
		}
		responses.WriteSuccess(w, out)
	}
}

func CreateResource(admin resourceAdmin, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createResourceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		res, err := admin.Add(r.Context(), tenantID,
			validators.SanitizeString(req.Type, 64),
			validators.SanitizeString(req.Name, 200))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toResourceDTO(*res))
	}
}

// SetResourceActive returns a handler that activates or deactivates the
// resource in the path. Existing reservations are left untouched.
func SetResourceActive(admin resourceAdmin, active bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.PathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := admin.SetActive(r.Context(), tenantID, id, active); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"id": id, "active": active})
	}
}
