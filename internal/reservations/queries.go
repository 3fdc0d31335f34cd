package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

func (s *service) Get(ctx context.Context, tenantID, id uuid.UUID) (View, error) {
	if tenantID == uuid.Nil || id == uuid.Nil {
		return View{}, pkgerrors.New(pkgerrors.CodeNotFound, "reservation not found")
	}
	res, err := s.repo.FindByID(ctx, nil, tenantID, id)
	if err != nil {
		return View{}, err
	}
	return toView(res, s.now().UTC()), nil
}

func (s *service) ListByResource(ctx context.Context, tenantID, resourceID uuid.UUID, filter ListFilter) ([]View, error) {
	if tenantID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must be before to")
	}
	now := s.now().UTC()
	rows, err := s.repo.ListByResource(ctx, tenantID, resourceID, filter, now)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(rows))
	for i := range rows {
		views = append(views, toView(&rows[i], now))
	}
	return views, nil
}

// CheckAvailability is advisory: it takes no locks, so a later create may
// still lose the race and report a conflict.
func (s *service) CheckAvailability(ctx context.Context, tenantID uuid.UUID, resourceIDs []uuid.UUID, start, end time.Time) (Availability, error) {
	if tenantID == uuid.Nil {
		return Availability{}, pkgerrors.New(pkgerrors.CodeValidation, "tenant id is required")
	}
	iv, err := NewInterval(start, end)
	if err != nil {
		return Availability{}, err
	}
	ids, err := normalizeResourceIDs(resourceIDs)
	if err != nil {
		return Availability{}, err
	}
	conflicts, err := s.repo.FindConflicts(ctx, nil, tenantID, ids, iv, nil, s.now().UTC())
	if err != nil {
		return Availability{}, err
	}
	if conflicts == nil {
		conflicts = []uuid.UUID{}
	}
	return Availability{Available: len(conflicts) == 0, ConflictingIDs: conflicts}, nil
}
