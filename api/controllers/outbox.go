package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/api/responses"
	"github.com/opsdesk/reservations-backend/api/validators"
	"github.com/opsdesk/reservations-backend/pkg/db/models"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
	"github.com/opsdesk/reservations-backend/pkg/logger"
)

type outboxReader interface {
	ListPending(ctx context.Context, tenantID uuid.UUID, limit int) ([]models.OutboxEvent, error)
	ListByAggregate(ctx context.Context, tenantID, aggregateID uuid.UUID) ([]models.OutboxEvent, error)
}

// ListOutboxEvents shows unpublished events, or every event of one
// aggregate when aggregate_id is given.
func ListOutboxEvents(reader outboxReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		aggregateID, err := validators.ParseQueryUUID(r, "aggregate_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var rows []models.OutboxEvent
		if aggregateID != nil {
			rows, err = reader.ListByAggregate(r.Context(), tenantID, *aggregateID)
		} else {
			limit, perr := validators.ParseQueryInt(r, "limit", 50, 1, 500)
			if perr != nil {
				responses.WriteError(r.Context(), logg, w, perr)
				return
			}
			rows, err = reader.ListPending(r.Context(), tenantID, limit)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list outbox events"))
			return
		}
		responses.WriteSuccess(w, toOutboxEventDTOs(rows))
	}
}
