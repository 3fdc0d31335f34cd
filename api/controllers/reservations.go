package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/api/middleware"
	"github.com/opsdesk/reservations-backend/api/responses"
	"github.com/opsdesk/reservations-backend/api/validators"
	"github.com/opsdesk/reservations-backend/internal/reservations"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
	"github.com/opsdesk/reservations-backend/pkg/logger"
)

type createBookingRequest struct {
	ResourceIDs []uuid.UUID `json:"resource_ids" validate:"required,min=1,unique"`
	Start       time.Time   `json:"start" validate:"required"`
	End         time.Time   `json:"end" validate:"required"`
}

type createHoldRequest struct {
	ResourceIDs []uuid.UUID `json:"resource_ids" validate:"required,min=1,unique"`
	Start       time.Time   `json:"start" validate:"required"`
	End         time.Time   `json:"end" validate:"required"`
	TTLSeconds  int         `json:"ttl_seconds" validate:"required,min=1"`
}

type extendHoldRequest struct {
	TTLSeconds int `json:"ttl_seconds" validate:"required,min=1"`
}

type rescheduleRequest struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type availabilityRequest struct {
	ResourceIDs []uuid.UUID `json:"resource_ids" validate:"required,min=1"`
	Start       time.Time   `json:"start" validate:"required"`
	End         time.Time   `json:"end" validate:"required"`
}

// commandMeta resolves tenant, actor and idempotency key from the request
// context. None of them are ever read from the body.
func commandMeta(r *http.Request) (reservations.CommandMeta, error) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	if tenantID == uuid.Nil {
		return reservations.CommandMeta{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	key := middleware.IdempotencyKeyFromContext(r.Context())
	if key == "" {
		return reservations.CommandMeta{}, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required")
	}
	return reservations.CommandMeta{
		TenantID:       tenantID,
		Actor:          middleware.ActorFromContext(r.Context()),
		IdempotencyKey: key,
	}, nil
}

func tenantFromRequest(r *http.Request) (uuid.UUID, error) {
	tenantID := middleware.TenantIDFromContext(r.Context())
	if tenantID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "tenant context missing")
	}
	return tenantID, nil
}

// runCommand is the shared tail of every command handler.
func runCommand(w http.ResponseWriter, r *http.Request, logg *logger.Logger, exec func(context.Context) (reservations.Result, error)) {
	result, err := exec(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteCommand(w, result.StatusCode, result.Reservation, result.Replayed)
}

func CreateBooking(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := commandMeta(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createBookingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runCommand(w, r, logg, func(ctx context.Context) (reservations.Result, error) {
			return svc.CreateBooking(ctx, reservations.CreateBooking{
				CommandMeta: meta,
				ResourceIDs: req.ResourceIDs,
				Start:       req.Start,
				End:         req.End,
			})
		})
	}
}

func CreateHold(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, err := commandMeta(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req createHoldRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runCommand(w, r, logg, func(ctx context.Context) (reservations.Result, error) {
			return svc.CreateHold(ctx, reservations.CreateHold{
				CommandMeta: meta,
				ResourceIDs: req.ResourceIDs,
				Start:       req.Start,
				End:         req.End,
				TTLSeconds:  req.TTLSeconds,
			})
		})
	}
}

func ConfirmHold(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, holdID, err := commandTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runCommand(w, r, logg, func(ctx context.Context) (reservations.Result, error) {
			return svc.ConfirmHold(ctx, reservations.ConfirmHold{CommandMeta: meta, HoldID: holdID})
		})
	}
}

func ExtendHold(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, holdID, err := commandTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req extendHoldRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runCommand(w, r, logg, func(ctx context.Context) (reservations.Result, error) {
			return svc.ExtendHold(ctx, reservations.ExtendHold{CommandMeta: meta, HoldID: holdID, TTLSeconds: req.TTLSeconds})
		})
	}
}

func ReleaseHold(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, holdID, err := commandTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runCommand(w, r, logg, func(ctx context.Context) (reservations.Result, error) {
			return svc.ReleaseHold(ctx, reservations.ReleaseHold{CommandMeta: meta, HoldID: holdID})
		})
	}
}

func RescheduleBooking(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, bookingID, err := commandTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req rescheduleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		runCommand(w, r, logg, func(ctx context.Context) (reservations.Result, error) {
			return svc.RescheduleBooking(ctx, reservations.RescheduleBooking{
				CommandMeta: meta,
				BookingID:   bookingID,
				Start:       req.Start,
				End:         req.End,
			})
		})
	}
}

// CancelBooking accepts an empty body; the reason is optional.
func CancelBooking(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meta, bookingID, err := commandTarget(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req cancelRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		runCommand(w, r, logg, func(ctx context.Context) (reservations.Result, error) {
			return svc.CancelBooking(ctx, reservations.CancelBooking{
				CommandMeta: meta,
				BookingID:   bookingID,
				Reason:      validators.SanitizeString(req.Reason, 500),
			})
		})
	}
}

func commandTarget(r *http.Request) (reservations.CommandMeta, uuid.UUID, error) {
	meta, err := commandMeta(r)
	if err != nil {
		return meta, uuid.Nil, err
	}
	id, err := validators.PathUUID(r, "id")
	if err != nil {
		return meta, uuid.Nil, err
	}
	return meta, id, nil
}

func GetReservation(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
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
		view, err := svc.Get(r.Context(), tenantID, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ListResourceReservations supports from, to, include_inactive and limit.
func ListResourceReservations(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resourceID, err := validators.PathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter reservations.ListFilter
		if filter.From, err = validators.ParseQueryTime(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.To, err = validators.ParseQueryTime(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.IncludeInactive, err = validators.ParseQueryBool(r, "include_inactive"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Limit, err = validators.ParseQueryInt(r, "limit", 100, 1, 500); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.ListByResource(r.Context(), tenantID, resourceID, filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}

func CheckAvailability(svc reservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, err := tenantFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req availabilityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.CheckAvailability(r.Context(), tenantID, req.ResourceIDs, req.Start, req.End)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
