package instance

import "github.com/opsdesk/reservations-backend/pkg/env"

// GetID returns the process instance identifier. Hosted platforms expose
// their own dyno or pod name; local runs fall back to the given default.
func GetID(fallback string) string {
	return env.First(fallback, "RESERVATIONS_INSTANCE_ID", "DYNO")
}
