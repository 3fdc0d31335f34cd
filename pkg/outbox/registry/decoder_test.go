package registry

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/enums"
	"github.com/opsdesk/reservations-backend/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventBookingCreated, 1, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"status":"confirmed"}`)
	output, err := reg.Decode(enums.EventBookingCreated, 1, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["status"] != "confirmed" {
		t.Fatalf("unexpected output %+v", output)
	}

	if _, err := reg.Decode(enums.EventBookingCreated, 2, input); err == nil {
		t.Fatalf("expected unknown version to fail")
	}
}

func TestBookingDecodersCoverEveryEvent(t *testing.T) {
	reg := NewBookingDecoders()
	id := uuid.New()
	raw, err := json.Marshal(payloads.BookingCancelledEvent{
		BookingEvent: payloads.BookingEvent{ReservationID: id, Status: enums.ReservationStatusCancelled},
		Reason:       "customer request",
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, eventType := range []enums.OutboxEventType{
		enums.EventBookingCreated,
		enums.EventBookingConfirmed,
		enums.EventBookingCancelled,
		enums.EventBookingRescheduled,
		enums.EventBookingHoldExtended,
		enums.EventBookingHoldReleased,
	} {
		out, err := reg.Decode(eventType, 1, raw)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", eventType, err)
		}
		event, ok := out.(*payloads.BookingEvent)
		if !ok || event.ReservationID != id {
			t.Fatalf("%s: unexpected output %+v", eventType, out)
		}
	}
}
