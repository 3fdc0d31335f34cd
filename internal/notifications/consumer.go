package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/db/models"
	"github.com/opsdesk/reservations-backend/pkg/enums"
	"github.com/opsdesk/reservations-backend/pkg/logger"
	"github.com/opsdesk/reservations-backend/pkg/outbox"
	"github.com/opsdesk/reservations-backend/pkg/outbox/payloads"
)

const bookingNotificationConsumer = "booking-notifications"

type creator interface {
	Create(ctx context.Context, n *models.Notification) (bool, error)
}

type eventGuard interface {
	Mark(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Forget(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

// Consumer turns delivered booking events into tenant notifications.
type Consumer struct {
	repo         creator
	subscription *pubsub.Subscriber
	guard        eventGuard
	decoders     payloadDecoder
	logg         *logger.Logger
}

// NewConsumer builds a booking notification consumer. subscription may be nil
// when messages are fed through Handle directly.
func NewConsumer(repo creator, subscription *pubsub.Subscriber, guard eventGuard, decoders payloadDecoder, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if guard == nil {
		return nil, fmt.Errorf("event guard required")
	}
	if decoders == nil {
		return nil, fmt.Errorf("payload decoders required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		guard:        guard,
		decoders:     decoders,
		logg:         logg,
	}, nil
}

// Run receives from the bookings subscription until ctx is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return fmt.Errorf("bookings subscription not configured")
	}
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.Handle(ctx, Message{ID: msg.ID, Attributes: msg.Attributes, Data: msg.Data}) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Message is the broker-neutral view of one delivery.
type Message struct {
	ID         string
	Attributes map[string]string
	Data       []byte
}

// Handle processes one delivery and reports whether it should be acked.
// Malformed messages are acked so they do not redeliver forever.
func (c *Consumer) Handle(ctx context.Context, msg Message) bool {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	})

	envelope, err := outbox.DecodeEnvelope(msg.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}
	eventType := enums.OutboxEventType(envelope.EventType)
	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping non-booking event")
		return true
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return true
	}
	logCtx = c.logg.WithTenantID(logCtx, envelope.TenantID.String())
	logCtx = c.logg.WithField(logCtx, "event_id", eventID.String())

	decoded, err := c.decoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		return true
	}
	payload, ok := decoded.(*payloads.BookingEvent)
	if !ok || payload.ReservationID == uuid.Nil {
		c.logg.Warn(logCtx, "booking payload missing reservation id")
		return true
	}

	already, err := c.guard.Mark(ctx, bookingNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return true
	}

	notification := buildNotification(envelope, eventID, eventType, payload)
	created, err := c.repo.Create(ctx, notification)
	if err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		if forgetErr := c.guard.Forget(ctx, bookingNotificationConsumer, eventID); forgetErr != nil {
			c.logg.Error(logCtx, "failed to clear idempotency marker", forgetErr)
		}
		return false
	}
	if !created {
		c.logg.Info(logCtx, "notification already recorded")
		return true
	}
	c.logg.Info(c.logg.WithField(logCtx, "reservation_id", payload.ReservationID.String()), "tenant notified of booking event")
	return true
}

func buildNotification(envelope outbox.PayloadEnvelope, eventID uuid.UUID, eventType enums.OutboxEventType, payload *payloads.BookingEvent) *models.Notification {
	title, kind := describe(eventType, payload.Kind)
	window := fmt.Sprintf("%s to %s", payload.StartAt.UTC().Format(time.RFC3339), payload.EndAt.UTC().Format(time.RFC3339))
	message := fmt.Sprintf("Reservation %s (%s) is now %s.", payload.ReservationID, window, payload.Status)
	if eventType == enums.EventBookingHoldExtended && payload.ExpiresAt != nil {
		message = fmt.Sprintf("Hold %s now expires at %s.", payload.ReservationID, payload.ExpiresAt.UTC().Format(time.RFC3339))
	}

	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &models.Notification{
		ID:            uuid.New(),
		TenantID:      envelope.TenantID,
		EventID:       eventID,
		ReservationID: payload.ReservationID,
		Type:          kind,
		Title:         title,
		Message:       strings.TrimSpace(message),
		CreatedAt:     createdAt,
	}
}

func describe(eventType enums.OutboxEventType, kind enums.ReservationKind) (string, enums.NotificationType) {
	switch eventType {
	case enums.EventBookingCreated:
		if kind == enums.ReservationKindHold {
			return "Hold placed", enums.NotificationTypeHoldUpdate
		}
		return "Booking created", enums.NotificationTypeBookingUpdate
	case enums.EventBookingConfirmed:
		return "Hold confirmed", enums.NotificationTypeBookingUpdate
	case enums.EventBookingRescheduled:
		return "Booking rescheduled", enums.NotificationTypeBookingUpdate
	case enums.EventBookingCancelled:
		return "Booking cancelled", enums.NotificationTypeBookingUpdate
	case enums.EventBookingHoldExtended:
		return "Hold extended", enums.NotificationTypeHoldUpdate
	case enums.EventBookingHoldReleased:
		return "Hold released", enums.NotificationTypeHoldUpdate
	default:
		return "Reservation updated", enums.NotificationTypeBookingUpdate
	}
}
