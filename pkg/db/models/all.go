package models

// All lists every persisted model, in dependency order. Used by tests and the
// sqlite dev bootstrap; Postgres schemas come from goose migrations.
func All() []any {
	return []any{
		&Resource{},
		&Reservation{},
		&ReservationResource{},
		&IdempotencyRecord{},
		&AuditEntry{},
		&OutboxEvent{},
		&OutboxDLQ{},
		&Notification{},
	}
}
