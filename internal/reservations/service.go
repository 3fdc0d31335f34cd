package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opsdesk/reservations-backend/internal/audit"
	"github.com/opsdesk/reservations-backend/internal/idempotency"
	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/enums"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
	"github.com/opsdesk/reservations-backend/pkg/logger"
	"github.com/opsdesk/reservations-backend/pkg/metrics"
	"github.com/opsdesk/reservations-backend/pkg/outbox"
	"github.com/opsdesk/reservations-backend/pkg/outbox/payloads"
)

const (
	defaultMaxHoldTTL    = time.Hour
	defaultRetryAttempts = 3
	maxReasonLength      = 500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type resourceDirectory interface {
	RequireActive(ctx context.Context, tx *gorm.DB, tenantID uuid.UUID, ids []uuid.UUID) error
}

type idempotencyStore interface {
	Begin(ctx context.Context, tx *gorm.DB, scope idempotency.Scope) (idempotency.Outcome, error)
	Commit(ctx context.Context, tx *gorm.DB, scope idempotency.Scope, entityID uuid.UUID, statusCode int, response any) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

// Service is the reservation command and query surface.
type Service interface {
	CreateBooking(ctx context.Context, cmd CreateBooking) (Result, error)
	CreateHold(ctx context.Context, cmd CreateHold) (Result, error)
	ConfirmHold(ctx context.Context, cmd ConfirmHold) (Result, error)
	ExtendHold(ctx context.Context, cmd ExtendHold) (Result, error)
	ReleaseHold(ctx context.Context, cmd ReleaseHold) (Result, error)
	RescheduleBooking(ctx context.Context, cmd RescheduleBooking) (Result, error)
	CancelBooking(ctx context.Context, cmd CancelBooking) (Result, error)

	Get(ctx context.Context, tenantID, id uuid.UUID) (View, error)
	ListByResource(ctx context.Context, tenantID, resourceID uuid.UUID, filter ListFilter) ([]View, error)
	CheckAvailability(ctx context.Context, tenantID uuid.UUID, resourceIDs []uuid.UUID, start, end time.Time) (Availability, error)
}

// Options carries the optional collaborators of the service.
type Options struct {
	Logger        *logger.Logger
	Metrics       *metrics.CommandMetrics
	Now           func() time.Time
	MaxHoldTTL    time.Duration
	RetryAttempts int
}

type service struct {
	tx        txRunner
	repo      *Repository
	resources resourceDirectory
	locker    Locker
	idem      idempotencyStore
	outbox    outboxPublisher
	audit     auditRecorder

	logg       *logger.Logger
	metrics    *metrics.CommandMetrics
	now        func() time.Time
	maxHoldTTL time.Duration
	retries    int
}

// NewService wires the reservation engine.
func NewService(
	tx txRunner,
	repo *Repository,
	resources resourceDirectory,
	locker Locker,
	idem idempotencyStore,
	publisher outboxPublisher,
	recorder auditRecorder,
	opts Options,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("reservation repository required")
	}
	if resources == nil {
		return nil, fmt.Errorf("resource directory required")
	}
	if locker == nil {
		return nil, fmt.Errorf("resource locker required")
	}
	if idem == nil {
		return nil, fmt.Errorf("idempotency store required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if recorder == nil {
		return nil, fmt.Errorf("audit recorder required")
	}

	svc := &service{
		tx:         tx,
		repo:       repo,
		resources:  resources,
		locker:     locker,
		idem:       idem,
		outbox:     publisher,
		audit:      recorder,
		logg:       opts.Logger,
		metrics:    opts.Metrics,
		now:        opts.Now,
		maxHoldTTL: opts.MaxHoldTTL,
		retries:    opts.RetryAttempts,
	}
	if svc.logg == nil {
		svc.logg = logger.Nop()
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.maxHoldTTL <= 0 {
		svc.maxHoldTTL = defaultMaxHoldTTL
	}
	if svc.retries <= 0 {
		svc.retries = defaultRetryAttempts
	}
	return svc, nil
}

// commandTx is the per-attempt state shared by a command body.
type commandTx struct {
	tx       *gorm.DB
	now      time.Time
	releases []func()
}

func (c *commandTx) release() {
	for i := len(c.releases) - 1; i >= 0; i-- {
		c.releases[i]()
	}
	c.releases = nil
}

func (s *service) CreateBooking(ctx context.Context, cmd CreateBooking) (Result, error) {
	iv, err := NewInterval(cmd.Start, cmd.End)
	if err != nil {
		return Result{}, err
	}
	ids, err := normalizeResourceIDs(cmd.ResourceIDs)
	if err != nil {
		return Result{}, err
	}
	cmd.ResourceIDs, cmd.Start, cmd.End = ids, iv.Start, iv.End

	return s.execute(ctx, OpCreateBooking, cmd.CommandMeta, cmd, func(ctx context.Context, c *commandTx) (Result, error) {
		res := &models.Reservation{
			ID:       uuid.New(),
			TenantID: cmd.TenantID,
			Kind:     enums.ReservationKindBooking,
			Status:   enums.ReservationStatusConfirmed,
			StartAt:  iv.Start,
			EndAt:    iv.End,
		}
		res.ConfirmedAt = &c.now
		return s.create(ctx, c, cmd.CommandMeta, OpCreateBooking, res, ids)
	})
}

func (s *service) CreateHold(ctx context.Context, cmd CreateHold) (Result, error) {
	iv, err := NewInterval(cmd.Start, cmd.End)
	if err != nil {
		return Result{}, err
	}
	ids, err := normalizeResourceIDs(cmd.ResourceIDs)
	if err != nil {
		return Result{}, err
	}
	ttl, err := ttlDuration(cmd.TTLSeconds, s.maxHoldTTL)
	if err != nil {
		return Result{}, err
	}
	cmd.ResourceIDs, cmd.Start, cmd.End = ids, iv.Start, iv.End

	return s.execute(ctx, OpCreateHold, cmd.CommandMeta, cmd, func(ctx context.Context, c *commandTx) (Result, error) {
		expiresAt := c.now.Add(ttl)
		res := &models.Reservation{
			ID:        uuid.New(),
			TenantID:  cmd.TenantID,
			Kind:      enums.ReservationKindHold,
			Status:    enums.ReservationStatusActive,
			StartAt:   iv.Start,
			EndAt:     iv.End,
			ExpiresAt: &expiresAt,
		}
		return s.create(ctx, c, cmd.CommandMeta, OpCreateHold, res, ids)
	})
}

func (s *service) create(ctx context.Context, c *commandTx, meta CommandMeta, op string, res *models.Reservation, ids []uuid.UUID) (Result, error) {
	iv := Interval{Start: res.StartAt, End: res.EndAt}
	if err := s.resources.RequireActive(ctx, c.tx, meta.TenantID, ids); err != nil {
		return Result{}, err
	}
	if err := s.lock(ctx, c, meta.TenantID, ids); err != nil {
		return Result{}, err
	}
	if err := s.ensureFree(ctx, c, op, meta.TenantID, ids, iv, nil); err != nil {
		return Result{}, err
	}

	res.IdempotencyKey = meta.IdempotencyKey
	res.Actor = meta.Actor
	res.Version = 1
	res.CreatedAt = c.now
	res.UpdatedAt = c.now
	if err := s.repo.Create(ctx, c.tx, res, ids); err != nil {
		return Result{}, err
	}

	view := toView(res, c.now)
	if err := s.emit(ctx, c, meta, enums.EventBookingCreated, view, bookingEvent(view)); err != nil {
		return Result{}, err
	}
	if err := s.record(ctx, c, meta, enums.AuditActionCreate, res.ID, map[string]any{"kind": res.Kind}); err != nil {
		return Result{}, err
	}
	return Result{StatusCode: http.StatusCreated, Reservation: view}, nil
}

func (s *service) ConfirmHold(ctx context.Context, cmd ConfirmHold) (Result, error) {
	if cmd.HoldID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "hold id is required")
	}
	return s.execute(ctx, OpConfirmHold, cmd.CommandMeta, cmd, func(ctx context.Context, c *commandTx) (Result, error) {
		res, err := s.loadLocked(ctx, c, cmd.TenantID, cmd.HoldID)
		if err != nil {
			return Result{}, err
		}
		if err := requireLiveHold(res, c.now); err != nil {
			return Result{}, err
		}
		ids := res.ResourceIDs()
		if err := s.ensureFree(ctx, c, OpConfirmHold, cmd.TenantID, ids, Interval{Start: res.StartAt, End: res.EndAt}, &res.ID); err != nil {
			return Result{}, err
		}

		updated, err := s.update(ctx, c, res, map[string]any{
			"status":       enums.ReservationStatusConfirmed,
			"confirmed_at": c.now,
		})
		if err != nil {
			return Result{}, err
		}
		view := toView(updated, c.now)
		if err := s.emit(ctx, c, cmd.CommandMeta, enums.EventBookingConfirmed, view, bookingEvent(view)); err != nil {
			return Result{}, err
		}
		if err := s.record(ctx, c, cmd.CommandMeta, enums.AuditActionConfirm, res.ID, nil); err != nil {
			return Result{}, err
		}
		return Result{StatusCode: http.StatusOK, Reservation: view}, nil
	})
}

func (s *service) ExtendHold(ctx context.Context, cmd ExtendHold) (Result, error) {
	if cmd.HoldID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "hold id is required")
	}
	ttl, err := ttlDuration(cmd.TTLSeconds, s.maxHoldTTL)
	if err != nil {
		return Result{}, err
	}
	return s.execute(ctx, OpExtendHold, cmd.CommandMeta, cmd, func(ctx context.Context, c *commandTx) (Result, error) {
		res, err := s.loadLocked(ctx, c, cmd.TenantID, cmd.HoldID)
		if err != nil {
			return Result{}, err
		}
		if err := requireLiveHold(res, c.now); err != nil {
			return Result{}, err
		}
		previous := *res.ExpiresAt
		expiresAt := c.now.Add(ttl)
		updated, err := s.update(ctx, c, res, map[string]any{"expires_at": expiresAt})
		if err != nil {
			return Result{}, err
		}
		view := toView(updated, c.now)
		if err := s.emit(ctx, c, cmd.CommandMeta, enums.EventBookingHoldExtended, view, bookingEvent(view)); err != nil {
			return Result{}, err
		}
		meta := map[string]any{"previous_expires_at": previous.UTC(), "expires_at": expiresAt}
		if err := s.record(ctx, c, cmd.CommandMeta, enums.AuditActionExtend, res.ID, meta); err != nil {
			return Result{}, err
		}
		return Result{StatusCode: http.StatusOK, Reservation: view}, nil
	})
}

func (s *service) ReleaseHold(ctx context.Context, cmd ReleaseHold) (Result, error) {
	if cmd.HoldID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "hold id is required")
	}
	return s.execute(ctx, OpReleaseHold, cmd.CommandMeta, cmd, func(ctx context.Context, c *commandTx) (Result, error) {
		res, err := s.loadLocked(ctx, c, cmd.TenantID, cmd.HoldID)
		if err != nil {
			return Result{}, err
		}
		if res.Kind == enums.ReservationKindHold && res.Status == enums.ReservationStatusCancelled && !wasConfirmed(res) {
			return Result{StatusCode: http.StatusOK, Reservation: toView(res, c.now)}, nil
		}
		if err := requireLiveHold(res, c.now); err != nil {
			return Result{}, err
		}
		updated, err := s.update(ctx, c, res, map[string]any{
			"status":       enums.ReservationStatusCancelled,
			"cancelled_at": c.now,
		})
		if err != nil {
			return Result{}, err
		}
		view := toView(updated, c.now)
		if err := s.emit(ctx, c, cmd.CommandMeta, enums.EventBookingHoldReleased, view, bookingEvent(view)); err != nil {
			return Result{}, err
		}
		if err := s.record(ctx, c, cmd.CommandMeta, enums.AuditActionRelease, res.ID, nil); err != nil {
			return Result{}, err
		}
		return Result{StatusCode: http.StatusOK, Reservation: view}, nil
	})
}

func (s *service) RescheduleBooking(ctx context.Context, cmd RescheduleBooking) (Result, error) {
	if cmd.BookingID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	iv, err := NewInterval(cmd.Start, cmd.End)
	if err != nil {
		return Result{}, err
	}
	cmd.Start, cmd.End = iv.Start, iv.End

	return s.execute(ctx, OpRescheduleBooking, cmd.CommandMeta, cmd, func(ctx context.Context, c *commandTx) (Result, error) {
		res, err := s.loadLocked(ctx, c, cmd.TenantID, cmd.BookingID)
		if err != nil {
			return Result{}, err
		}
		if err := requireConfirmedBooking(res, "reschedule"); err != nil {
			return Result{}, err
		}
		ids := res.ResourceIDs()
		if err := s.resources.RequireActive(ctx, c.tx, cmd.TenantID, ids); err != nil {
			return Result{}, err
		}
		if err := s.ensureFree(ctx, c, OpRescheduleBooking, cmd.TenantID, ids, iv, &res.ID); err != nil {
			return Result{}, err
		}

		previous := Interval{Start: res.StartAt.UTC(), End: res.EndAt.UTC()}
		updated, err := s.update(ctx, c, res, map[string]any{
			"start_at": iv.Start,
			"end_at":   iv.End,
		})
		if err != nil {
			return Result{}, err
		}
		view := toView(updated, c.now)
		payload := payloads.BookingRescheduledEvent{
			BookingEvent:    bookingEvent(view),
			PreviousStartAt: previous.Start,
			PreviousEndAt:   previous.End,
		}
		if err := s.emit(ctx, c, cmd.CommandMeta, enums.EventBookingRescheduled, view, payload); err != nil {
			return Result{}, err
		}
		meta := map[string]any{
			"previous_start": previous.Start,
			"previous_end":   previous.End,
			"start":          iv.Start,
			"end":            iv.End,
		}
		if err := s.record(ctx, c, cmd.CommandMeta, enums.AuditActionReschedule, res.ID, meta); err != nil {
			return Result{}, err
		}
		return Result{StatusCode: http.StatusOK, Reservation: view}, nil
	})
}

func (s *service) CancelBooking(ctx context.Context, cmd CancelBooking) (Result, error) {
	if cmd.BookingID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "booking id is required")
	}
	cmd.Reason = strings.TrimSpace(cmd.Reason)
	if utf8.RuneCountInString(cmd.Reason) > maxReasonLength {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("reason exceeds %d characters", maxReasonLength))
	}

	return s.execute(ctx, OpCancelBooking, cmd.CommandMeta, cmd, func(ctx context.Context, c *commandTx) (Result, error) {
		res, err := s.loadLocked(ctx, c, cmd.TenantID, cmd.BookingID)
		if err != nil {
			return Result{}, err
		}
		if res.Status == enums.ReservationStatusCancelled && wasConfirmed(res) {
			// Second cancel: success without a new event or audit entry.
			return Result{StatusCode: http.StatusOK, Reservation: toView(res, c.now)}, nil
		}
		if err := requireConfirmedBooking(res, "cancel"); err != nil {
			return Result{}, err
		}

		updates := map[string]any{
			"status":       enums.ReservationStatusCancelled,
			"cancelled_at": c.now,
		}
		if cmd.Reason != "" {
			updates["cancel_reason"] = cmd.Reason
		}
		updated, err := s.update(ctx, c, res, updates)
		if err != nil {
			return Result{}, err
		}
		view := toView(updated, c.now)
		payload := payloads.BookingCancelledEvent{BookingEvent: bookingEvent(view), Reason: cmd.Reason}
		if err := s.emit(ctx, c, cmd.CommandMeta, enums.EventBookingCancelled, view, payload); err != nil {
			return Result{}, err
		}
		if err := s.record(ctx, c, cmd.CommandMeta, enums.AuditActionCancel, res.ID, map[string]any{"reason": cmd.Reason}); err != nil {
			return Result{}, err
		}
		return Result{StatusCode: http.StatusOK, Reservation: view}, nil
	})
}

// execute runs body exactly once per (tenant, operation, key). The idempotency
// claim, the mutation, the outbox event, the audit entry and the cached result
// share one transaction.
func (s *service) execute(ctx context.Context, op string, meta CommandMeta, request any, body func(context.Context, *commandTx) (Result, error)) (Result, error) {
	started := s.now()
	if meta.TenantID == uuid.Nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if strings.TrimSpace(meta.Actor) == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if strings.TrimSpace(meta.IdempotencyKey) == "" {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	if len(meta.IdempotencyKey) > idempotency.MaxKeyLength {
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("idempotency key exceeds %d characters", idempotency.MaxKeyLength))
	}
	hash, err := idempotency.HashRequest(request)
	if err != nil {
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash request")
	}
	scope := idempotency.Scope{
		TenantID:    meta.TenantID,
		Operation:   op,
		Key:         meta.IdempotencyKey,
		RequestHash: hash,
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"operation":       op,
		"tenant_id":       meta.TenantID.String(),
		"actor":           meta.Actor,
		"idempotency_key": meta.IdempotencyKey,
	})

	var result Result
	for attempt := 1; ; attempt++ {
		result, err = s.attempt(ctx, scope, body)
		if !errors.Is(err, idempotency.ErrKeyInFlight) || attempt >= s.retries {
			break
		}
		s.metrics.IncRetry(op)
		s.logg.Debug(ctx, "idempotency key in flight, retrying")
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		case <-time.After(time.Duration(attempt) * 25 * time.Millisecond):
		}
	}
	if errors.Is(err, idempotency.ErrKeyInFlight) {
		err = pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a request with this idempotency key is still in progress")
	}

	s.observe(ctx, op, result, err, s.now().Sub(started))
	if err != nil {
		return Result{}, err
	}
	return result, nil
}

func (s *service) attempt(ctx context.Context, scope idempotency.Scope, body func(context.Context, *commandTx) (Result, error)) (Result, error) {
	c := &commandTx{now: s.now().UTC()}
	defer c.release()

	var result Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		c.tx = tx
		outcome, err := s.idem.Begin(ctx, tx, scope)
		if err != nil {
			return err
		}
		if outcome.Cached {
			var cached Result
			if err := json.Unmarshal(outcome.Response, &cached); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cached result")
			}
			cached.Replayed = true
			result = cached
			return nil
		}

		res, err := body(ctx, c)
		if err != nil {
			return err
		}
		if err := s.idem.Commit(ctx, tx, scope, res.Reservation.ID, res.StatusCode, res); err != nil {
			return err
		}
		result = res
		return nil
	})
	return result, err
}

func (s *service) observe(ctx context.Context, op string, result Result, err error, elapsed time.Duration) {
	switch {
	case err != nil:
		code := pkgerrors.CodeOf(err)
		s.metrics.Observe(op, metrics.OutcomeError, string(code), elapsed)
		if code == pkgerrors.CodeConflict {
			s.metrics.IncConflict(op)
		}
		if code == pkgerrors.CodeInternal || code == pkgerrors.CodeDependency {
			s.logg.Error(ctx, "reservation command failed", err)
		} else {
			s.logg.Info(s.logg.WithField(ctx, "error_code", code), "reservation command rejected")
		}
	case result.Replayed:
		s.metrics.Observe(op, metrics.OutcomeReplayed, "", elapsed)
		s.logg.Info(s.logg.WithField(ctx, "reservation_id", result.Reservation.ID.String()), "reservation command replayed")
	default:
		s.metrics.Observe(op, metrics.OutcomeOK, "", elapsed)
		s.logg.Info(s.logg.WithField(ctx, "reservation_id", result.Reservation.ID.String()), "reservation command applied")
	}
}

func (s *service) lock(ctx context.Context, c *commandTx, tenantID uuid.UUID, ids []uuid.UUID) error {
	sorted := append([]uuid.UUID(nil), ids...)
	sortIDs(sorted)
	release, err := s.locker.Lock(ctx, c.tx, tenantID, sorted)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock resources")
	}
	c.releases = append(c.releases, release)
	return nil
}

// loadLocked reads the reservation, locks its resources, then reads it again
// so the state checks see whatever the previous lock holder committed.
func (s *service) loadLocked(ctx context.Context, c *commandTx, tenantID, id uuid.UUID) (*models.Reservation, error) {
	res, err := s.repo.FindByID(ctx, c.tx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.lock(ctx, c, tenantID, res.ResourceIDs()); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, c.tx, tenantID, id)
}

func (s *service) ensureFree(ctx context.Context, c *commandTx, op string, tenantID uuid.UUID, ids []uuid.UUID, iv Interval, exclude *uuid.UUID) error {
	conflicts, err := s.repo.FindConflicts(ctx, c.tx, tenantID, ids, iv, exclude, c.now)
	if err != nil {
		return err
	}
	if len(conflicts) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "requested interval overlaps an existing reservation").
		WithDetails(map[string]any{"conflicting_reservation_ids": conflicts, "operation": op})
}

func (s *service) update(ctx context.Context, c *commandTx, res *models.Reservation, updates map[string]any) (*models.Reservation, error) {
	updates["updated_at"] = c.now
	if err := s.repo.UpdateVersioned(ctx, c.tx, res.TenantID, res.ID, res.Version, updates); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, c.tx, res.TenantID, res.ID)
}

func (s *service) emit(ctx context.Context, c *commandTx, meta CommandMeta, eventType enums.OutboxEventType, view View, data any) error {
	err := s.outbox.Emit(ctx, c.tx, outbox.DomainEvent{
		TenantID:      meta.TenantID,
		EventType:     eventType,
		AggregateType: enums.AggregateReservation,
		AggregateID:   view.ID,
		Actor:         &outbox.ActorRef{Actor: meta.Actor, TenantID: meta.TenantID},
		Data:          data,
		OccurredAt:    c.now,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "enqueue outbox event")
	}
	return nil
}

func (s *service) record(ctx context.Context, c *commandTx, meta CommandMeta, action enums.AuditAction, entityID uuid.UUID, metadata any) error {
	return s.audit.Record(ctx, c.tx, audit.Entry{
		TenantID:   meta.TenantID,
		Actor:      meta.Actor,
		Action:     action,
		EntityType: audit.EntityReservation,
		EntityID:   entityID,
		Metadata:   metadata,
		At:         c.now,
	})
}

func requireLiveHold(res *models.Reservation, now time.Time) error {
	switch res.Kind {
	case enums.ReservationKindHold:
	case enums.ReservationKindBooking:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation is a booking, not a hold")
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown reservation kind %q", res.Kind))
	}

	switch EffectiveStatus(res, now) {
	case enums.ReservationStatusActive:
		return nil
	case enums.ReservationStatusExpired:
		return pkgerrors.New(pkgerrors.CodeHoldExpired, "hold has expired").
			WithDetails(map[string]any{"hold_id": res.ID, "expires_at": res.ExpiresAt})
	case enums.ReservationStatusConfirmed:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "hold is already confirmed")
	case enums.ReservationStatusCancelled:
		return pkgerrors.New(pkgerrors.CodeStateConflict, "hold was released")
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown reservation status %q", res.Status))
	}
}

func requireConfirmedBooking(res *models.Reservation, action string) error {
	switch res.Kind {
	case enums.ReservationKindBooking:
	case enums.ReservationKindHold:
		// A confirmed hold behaves as a booking from here on.
		if !wasConfirmed(res) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s a hold that is not confirmed", action))
		}
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown reservation kind %q", res.Kind))
	}

	switch res.Status {
	case enums.ReservationStatusConfirmed:
		return nil
	case enums.ReservationStatusCancelled:
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s a cancelled booking", action))
	case enums.ReservationStatusActive:
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s a booking that is not confirmed", action))
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unknown reservation status %q", res.Status))
	}
}

func wasConfirmed(res *models.Reservation) bool {
	return res.Kind == enums.ReservationKindBooking || res.ConfirmedAt != nil
}

func bookingEvent(view View) payloads.BookingEvent {
	return payloads.BookingEvent{
		ReservationID: view.ID,
		Kind:          view.Kind,
		Status:        view.Status,
		ResourceIDs:   view.ResourceIDs,
		StartAt:       view.Start,
		EndAt:         view.End,
		ExpiresAt:     view.ExpiresAt,
		Version:       view.Version,
	}
}
