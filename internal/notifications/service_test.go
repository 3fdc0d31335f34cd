package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/enums"
	pkgerrors "github.com/opsdesk/reservations-backend/pkg/errors"
	"github.com/opsdesk/reservations-backend/pkg/logger"
	"github.com/opsdesk/reservations-backend/pkg/outbox"
	"github.com/opsdesk/reservations-backend/pkg/outbox/payloads"
	"github.com/opsdesk/reservations-backend/pkg/outbox/registry"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:notifications_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Notification{}))
	return conn
}

func seedNotifications(t *testing.T, repo Repository, tenantID uuid.UUID, n int, base time.Time) []models.Notification {
	t.Helper()
	out := make([]models.Notification, 0, n)
	for i := 0; i < n; i++ {
		row := &models.Notification{
			TenantID:      tenantID,
			EventID:       uuid.New(),
			ReservationID: uuid.New(),
			Type:          enums.NotificationTypeBookingUpdate,
			Title:         "Booking created",
			Message:       "m",
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		created, err := repo.Create(context.Background(), row)
		require.NoError(t, err)
		require.True(t, created)
		out = append(out, *row)
	}
	return out
}

func TestServiceListPagesNewestFirst(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc, err := NewService(repo)
	require.NoError(t, err)

	tenantID := uuid.New()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	rows := seedNotifications(t, repo, tenantID, 3, base)
	seedNotifications(t, repo, uuid.New(), 2, base)

	first, err := svc.List(context.Background(), ListParams{TenantID: tenantID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, rows[2].ID, first.Items[0].ID)
	assert.Equal(t, rows[1].ID, first.Items[1].ID)
	require.NotEmpty(t, first.Cursor)

	second, err := svc.List(context.Background(), ListParams{TenantID: tenantID, Limit: 2, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 1)
	assert.Equal(t, rows[0].ID, second.Items[0].ID)
	assert.Empty(t, second.Cursor)
}

func TestServiceListWalksEveryRowAcrossPages(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc, err := NewService(repo)
	require.NoError(t, err)

	tenantID := uuid.New()
	base := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	rows := seedNotifications(t, repo, tenantID, 5, base)
	// Two rows share a timestamp so the id tiebreak is exercised.
	tied := seedNotifications(t, repo, tenantID, 1, base.Add(2*time.Minute))
	rows = append(rows, tied...)

	seen := map[uuid.UUID]bool{}
	cursor := ""
	for pages := 0; pages < 10; pages++ {
		page, err := svc.List(context.Background(), ListParams{TenantID: tenantID, Limit: 2, Cursor: cursor})
		require.NoError(t, err)
		for _, item := range page.Items {
			assert.False(t, seen[item.ID], "notification %s returned twice", item.ID)
			seen[item.ID] = true
		}
		if page.Cursor == "" {
			break
		}
		cursor = page.Cursor
	}
	assert.Len(t, seen, len(rows))
}

func TestServiceListValidates(t *testing.T) {
	svc, err := NewService(NewRepository(newTestDB(t)))
	require.NoError(t, err)

	_, err = svc.List(context.Background(), ListParams{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.List(context.Background(), ListParams{TenantID: uuid.New(), Cursor: "not a cursor!"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestServiceMarkReadIsTenantScoped(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	svc, err := NewService(repo)
	require.NoError(t, err)

	tenantID := uuid.New()
	row := seedNotifications(t, repo, tenantID, 1, time.Now().UTC())[0]

	err = svc.MarkRead(context.Background(), uuid.New(), row.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	require.NoError(t, svc.MarkRead(context.Background(), tenantID, row.ID))
	// second read is a no-op, not a miss
	require.NoError(t, svc.MarkRead(context.Background(), tenantID, row.ID))

	unread, err := svc.List(context.Background(), ListParams{TenantID: tenantID, UnreadOnly: true})
	require.NoError(t, err)
	assert.Empty(t, unread.Items)
}

func TestRepositoryCreateIgnoresDuplicateEvent(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	eventID := uuid.New()
	first := &models.Notification{TenantID: uuid.New(), EventID: eventID, ReservationID: uuid.New(), Type: enums.NotificationTypeHoldUpdate, Title: "t", Message: "m"}
	created, err := repo.Create(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, created)

	dup := &models.Notification{TenantID: first.TenantID, EventID: eventID, ReservationID: first.ReservationID, Type: enums.NotificationTypeHoldUpdate, Title: "t", Message: "m"}
	created, err = repo.Create(context.Background(), dup)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRepositoryDeleteOlderThan(t *testing.T) {
	repo := NewRepository(newTestDB(t))
	tenantID := uuid.New()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	seedNotifications(t, repo, tenantID, 3, base)

	deleted, err := repo.DeleteOlderThan(context.Background(), nil, base.Add(90*time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
}

type fakeGuard struct {
	seen      map[uuid.UUID]bool
	forgotten []uuid.UUID
	markErr   error
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{seen: map[uuid.UUID]bool{}}
}

func (f *fakeGuard) Mark(_ context.Context, _ string, id uuid.UUID) (bool, error) {
	if f.markErr != nil {
		return false, f.markErr
	}
	if f.seen[id] {
		return true, nil
	}
	f.seen[id] = true
	return false, nil
}

func (f *fakeGuard) Forget(_ context.Context, _ string, id uuid.UUID) error {
	delete(f.seen, id)
	f.forgotten = append(f.forgotten, id)
	return nil
}

type failingCreator struct{}

func (failingCreator) Create(context.Context, *models.Notification) (bool, error) {
	return false, errors.New("db down")
}

func bookingMessage(t *testing.T, eventType enums.OutboxEventType, tenantID uuid.UUID, payload payloads.BookingEvent) (Message, uuid.UUID) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	eventID := uuid.New()
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		EventType:  string(eventType),
		TenantID:   tenantID,
		OccurredAt: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		Data:       data,
	})
	require.NoError(t, err)
	return Message{ID: "m-" + eventID.String(), Attributes: map[string]string{"event_type": string(eventType)}, Data: raw}, eventID
}

func samplePayload(kind enums.ReservationKind) payloads.BookingEvent {
	start := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	return payloads.BookingEvent{
		ReservationID: uuid.New(),
		Kind:          kind,
		Status:        enums.ReservationStatusActive,
		ResourceIDs:   []uuid.UUID{uuid.New()},
		StartAt:       start,
		EndAt:         start.Add(time.Hour),
		Version:       1,
	}
}

func TestConsumerWritesOneNotificationPerEvent(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	guard := newFakeGuard()
	consumer, err := NewConsumer(repo, nil, guard, registry.NewBookingDecoders(), logger.Nop())
	require.NoError(t, err)

	tenantID := uuid.New()
	payload := samplePayload(enums.ReservationKindHold)
	msg, eventID := bookingMessage(t, enums.EventBookingCreated, tenantID, payload)

	assert.True(t, consumer.Handle(context.Background(), msg))
	assert.True(t, consumer.Handle(context.Background(), msg))

	var rows []models.Notification
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, eventID, rows[0].EventID)
	assert.Equal(t, tenantID, rows[0].TenantID)
	assert.Equal(t, payload.ReservationID, rows[0].ReservationID)
	assert.Equal(t, enums.NotificationTypeHoldUpdate, rows[0].Type)
	assert.Equal(t, "Hold placed", rows[0].Title)
}

func TestConsumerDuplicateAfterMarkerLossStillSingleRow(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	consumer, err := NewConsumer(repo, nil, newFakeGuard(), registry.NewBookingDecoders(), logger.Nop())
	require.NoError(t, err)

	msg, _ := bookingMessage(t, enums.EventBookingCancelled, uuid.New(), samplePayload(enums.ReservationKindBooking))
	assert.True(t, consumer.Handle(context.Background(), msg))

	// a fresh guard simulates an expired redis marker
	consumer.guard = newFakeGuard()
	assert.True(t, consumer.Handle(context.Background(), msg))

	var count int64
	require.NoError(t, conn.Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestConsumerNacksAndForgetsOnHandlerFailure(t *testing.T) {
	guard := newFakeGuard()
	consumer, err := NewConsumer(failingCreator{}, nil, guard, registry.NewBookingDecoders(), logger.Nop())
	require.NoError(t, err)

	msg, eventID := bookingMessage(t, enums.EventBookingConfirmed, uuid.New(), samplePayload(enums.ReservationKindHold))
	assert.False(t, consumer.Handle(context.Background(), msg))
	assert.Equal(t, []uuid.UUID{eventID}, guard.forgotten)
	assert.False(t, guard.seen[eventID])
}

func TestConsumerNacksWhenGuardUnavailable(t *testing.T) {
	guard := newFakeGuard()
	guard.markErr = errors.New("redis down")
	consumer, err := NewConsumer(NewRepository(newTestDB(t)), nil, guard, registry.NewBookingDecoders(), logger.Nop())
	require.NoError(t, err)

	msg, _ := bookingMessage(t, enums.EventBookingRescheduled, uuid.New(), samplePayload(enums.ReservationKindBooking))
	assert.False(t, consumer.Handle(context.Background(), msg))
}

func TestConsumerAcksMalformedMessages(t *testing.T) {
	conn := newTestDB(t)
	consumer, err := NewConsumer(NewRepository(conn), nil, newFakeGuard(), registry.NewBookingDecoders(), logger.Nop())
	require.NoError(t, err)

	assert.True(t, consumer.Handle(context.Background(), Message{ID: "1", Data: []byte("not json")}))

	unknown, _ := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), EventType: "invoice.paid", Data: json.RawMessage(`{}`)})
	assert.True(t, consumer.Handle(context.Background(), Message{ID: "2", Data: unknown}))

	missing, _ := bookingMessage(t, enums.EventBookingCreated, uuid.New(), payloads.BookingEvent{})
	assert.True(t, consumer.Handle(context.Background(), missing))

	var count int64
	require.NoError(t, conn.Model(&models.Notification{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestConsumerRunRequiresSubscription(t *testing.T) {
	consumer, err := NewConsumer(failingCreator{}, nil, newFakeGuard(), registry.NewBookingDecoders(), logger.Nop())
	require.NoError(t, err)
	assert.Error(t, consumer.Run(context.Background()))
}
