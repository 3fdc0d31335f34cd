package reservations

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
)

func TestNewInterval(t *testing.T) {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	iv, err := NewInterval(start, start.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, iv.Start.Location())
	assert.Equal(t, 8, iv.Start.Hour())
	assert.Equal(t, time.Hour, iv.Duration())

	_, err = NewInterval(start, start)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = NewInterval(start, start.Add(-time.Minute))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = NewInterval(time.Time{}, start)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestIntervalOverlapsIsHalfOpen(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	a := Interval{Start: base, End: base.Add(time.Hour)}

	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"identical", a, true},
		{"back to back after", Interval{Start: a.End, End: a.End.Add(time.Hour)}, false},
		{"back to back before", Interval{Start: base.Add(-time.Hour), End: base}, false},
		{"partial", Interval{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)}, true},
		{"contained", Interval{Start: base.Add(10 * time.Minute), End: base.Add(20 * time.Minute)}, true},
		{"disjoint", Interval{Start: base.Add(2 * time.Hour), End: base.Add(3 * time.Hour)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, a.Overlaps(tc.other))
			assert.Equal(t, tc.want, tc.other.Overlaps(a))
		})
	}
}

func TestNormalizeResourceIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	ids, err := normalizeResourceIDs([]uuid.UUID{a, b})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.True(t, ids[0].String() < ids[1].String())

	_, err = normalizeResourceIDs(nil)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = normalizeResourceIDs([]uuid.UUID{a, a})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = normalizeResourceIDs([]uuid.UUID{uuid.Nil})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestTTLDuration(t *testing.T) {
	ttl, err := ttlDuration(90, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, ttl)

	for _, bad := range []int{0, -5, 3601} {
		_, err := ttlDuration(bad, time.Hour)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "ttl %d", bad)
	}
}
