package controllers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/reservations-backend/pkg/db/models"
)

type auditEntryDTO struct {
	ID         uuid.UUID       `json:"id"`
	Actor      string          `json:"actor"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   uuid.UUID       `json:"entity_id"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

func toAuditEntryDTOs(rows []models.AuditEntry) []auditEntryDTO {
	out := make([]auditEntryDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, auditEntryDTO{
			ID:         row.ID,
			Actor:      row.Actor,
			Action:     string(row.Action),
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Metadata:   row.Metadata,
			CreatedAt:  row.CreatedAt,
		})
	}
	return out
}

type outboxEventDTO struct {
	ID            uuid.UUID       `json:"id"`
	EventType     string          `json:"event_type"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	Payload       json.RawMessage `json:"payload"`
	CreatedAt     time.Time       `json:"created_at"`
	PublishedAt   *time.Time      `json:"published_at,omitempty"`
	AttemptCount  int             `json:"attempt_count"`
	LastError     *string         `json:"last_error,omitempty"`
}

func toOutboxEventDTOs(rows []models.OutboxEvent) []outboxEventDTO {
	out := make([]outboxEventDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, outboxEventDTO{
			ID:            row.ID,
			EventType:     string(row.EventType),
			AggregateType: string(row.AggregateType),
			AggregateID:   row.AggregateID,
			Payload:       row.Payload,
			CreatedAt:     row.CreatedAt,
			PublishedAt:   row.PublishedAt,
			AttemptCount:  row.AttemptCount,
			LastError:     row.LastError,
		})
	}
	return out
}

type notificationDTO struct {
	ID            uuid.UUID  `json:"id"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	ReadAt        *time.Time `json:"read_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toNotificationDTOs(rows []models.Notification) []notificationDTO {
	out := make([]notificationDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, notificationDTO{
			ID:            row.ID,
			ReservationID: row.ReservationID,
			Type:          string(row.Type),
			Title:         row.Title,
			Message:       row.Message,
			ReadAt:        row.ReadAt,
			CreatedAt:     row.CreatedAt,
		})
	}
	return out
}
