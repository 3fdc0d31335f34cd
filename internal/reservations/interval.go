package reservations

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

// Interval is a half-open range [Start, End). Back-to-back intervals do not overlap.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval validates and normalizes an interval to UTC.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if !start.Before(end) {
		return Interval{}, pkgerrors.New(pkgerrors.CodeValidation, "start must be before end").
			WithDetails(map[string]any{"start": start, "end": end})
	}
	return Interval{Start: start.UTC(), End: end.UTC()}, nil
}

func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// normalizeResourceIDs rejects empty sets, nil ids and duplicates, and returns
// a sorted copy. Sorted order is also the lock acquisition order.
func normalizeResourceIDs(ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one resource id is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "resource id must not be empty")
		}
		if _, dup := seen[id]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("resource %s listed more than once", id))
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sortIDs(out)
	return out, nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })
}

func ttlDuration(ttlSeconds int, max time.Duration) (time.Duration, error) {
	if ttlSeconds <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "ttl_seconds must be positive")
	}
	ttl := time.Duration(ttlSeconds) * time.Second
	if max > 0 && ttl > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("ttl_seconds exceeds maximum of %d", int(max.Seconds())))
	}
	return ttl, nil
}
