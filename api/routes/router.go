package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opsdesk/reservations-backend/api/controllers"
	"github.com/opsdesk/reservations-backend/api/middleware"
	"github.com/opsdesk/reservations-backend/internal/audit"
	"github.com/opsdesk/reservations-backend/internal/notifications"
	"github.com/opsdesk/reservations-backend/internal/reservations"
	"github.com/opsdesk/reservations-backend/internal/resources"
	"github.com/opsdesk/reservations-backend/pkg/auth/revocation"
	"github.com/opsdesk/reservations-backend/pkg/config"
	"github.com/opsdesk/reservations-backend/pkg/db"
	"github.com/opsdesk/reservations-backend/pkg/enums"
	"github.com/opsdesk/reservations-backend/pkg/logger"
	"github.com/opsdesk/reservations-backend/pkg/metrics"
	"github.com/opsdesk/reservations-backend/pkg/outbox"
)

// RedisBackend is the slice of the redis client the HTTP surface needs.
type RedisBackend interface {
	Ping(ctx context.Context) error
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything NewRouter wires into handlers.
type Dependencies struct {
	DB             db.Pinger
	Redis          RedisBackend
	Revocations    revocation.Checker
	Reservations   reservations.Service
	Resources      *resources.Admin
	Audit          *audit.Recorder
	Outbox         *outbox.Repository
	Notifications  notifications.Service
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.HTTP.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["database"] = deps.DB
	}
	if deps.Redis != nil {
		readiness["redis"] = deps.Redis
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	writePolicy := middleware.NewRateLimitPolicy("writes", cfg.HTTP.RateLimitWindow, cfg.HTTP.TenantWriteLimit)
	var limiter middleware.RateLimiterStore
	if deps.Redis != nil {
		limiter = deps.Redis
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Revocations, logg))

		// Inline groups run after routing so Idempotency sees the full pattern.
		r.Group(func(r chi.Router) {
			r.Use(
				middleware.RequireWriter(logg),
				middleware.TenantRateLimit(writePolicy, limiter, logg),
				middleware.Idempotency(logg),
			)
			r.Post("/bookings", controllers.CreateBooking(deps.Reservations, logg))
			r.Post("/bookings/{id}/reschedule", controllers.RescheduleBooking(deps.Reservations, logg))
			r.Post("/bookings/{id}/cancel", controllers.CancelBooking(deps.Reservations, logg))
			r.Post("/holds", controllers.CreateHold(deps.Reservations, logg))
			r.Post("/holds/{id}/confirm", controllers.ConfirmHold(deps.Reservations, logg))
			r.Post("/holds/{id}/extend", controllers.ExtendHold(deps.Reservations, logg))
			r.Post("/holds/{id}/release", controllers.ReleaseHold(deps.Reservations, logg))
		})

		r.Get("/reservations/{id}", controllers.GetReservation(deps.Reservations, logg))
		r.Get("/resources/{id}/reservations", controllers.ListResourceReservations(deps.Reservations, logg))
		r.Post("/availability", controllers.CheckAvailability(deps.Reservations, logg))
		r.Get("/audit", controllers.ListAudit(deps.Audit, logg))
		r.Get("/outbox/events", controllers.ListOutboxEvents(deps.Outbox, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{id}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
		})

		r.Route("/admin/resources", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
			r.Get("/", controllers.ListResources(deps.Resources, logg))
			r.Post("/", controllers.CreateResource(deps.Resources, logg))
			r.Post("/{id}/activate", controllers.SetResourceActive(deps.Resources, true, logg))
			r.Post("/{id}/deactivate", controllers.SetResourceActive(deps.Resources, false, logg))
		})
	})

	return r
}
