package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/api/responses"
	"github.com/opsdesk/reservations-backend/api/validators"
	"github.com/opsdesk/reservations-backend/internal/audit"
	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/enums"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
	"github.com/opsdesk/reservations-backend/pkg/logger"
)

type auditLister interface {
	List(ctx context.Context, tenantID uuid.UUID, filter audit.Filter) ([]models.AuditEntry, error)
}

// ListAudit returns the tenant's audit trail, newest first.
func ListAudit(lister auditLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter audit.Filter
		if filter.EntityID, err = validators.ParseQueryUUID(r, "entity_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if raw := r.URL.Query().Get("action"); raw != "" {
			action, err := enums.ParseAuditAction(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
				return
			}
			filter.Action = &action
		}
		since, err := validators.ParseQueryTime(r, "since")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !since.IsZero() {
			filter.Since = &since
		}
		if filter.Limit, err = validators.ParseQueryInt(r, "limit", 100, 1, 500); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := lister.List(r.Context(), tenantID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toAuditEntryDTOs(rows))
	}
}
