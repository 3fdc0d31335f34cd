package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/opsdesk/reservations-backend/api/routes"
	"github.com/opsdesk/reservations-backend/internal/audit"
	"github.com/opsdesk/reservations-backend/internal/idempotency"
	"github.com/opsdesk/reservations-backend/internal/notifications"
	"github.com/opsdesk/reservations-backend/internal/reservations"
	"github.com/opsdesk/reservations-backend/internal/resources"
	"github.com/opsdesk/reservations-backend/pkg/auth/revocation"
	"github.com/opsdesk/reservations-backend/pkg/config"
	"github.com/opsdesk/reservations-backend/pkg/db"
	"github.com/opsdesk/reservations-backend/pkg/env"
	"github.com/opsdesk/reservations-backend/pkg/instance"
	"github.com/opsdesk/reservations-backend/pkg/logger"
	"github.com/opsdesk/reservations-backend/pkg/metrics"
	"github.com/opsdesk/reservations-backend/pkg/migrate"
	"github.com/opsdesk/reservations-backend/pkg/outbox"
	"github.com/opsdesk/reservations-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "api"

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(redisClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing connections", err)
		}
	}()

	denylist, err := revocation.NewDenylist(redisClient, cfg.JWT.TokenTTL())
	if err != nil {
		logg.Error(context.Background(), "failed to create token denylist", err)
		os.Exit(1)
	}

	resourceRepo := resources.NewRepository(dbClient.DB())
	outboxRepo := outbox.NewRepository(dbClient.DB())
	auditRecorder := audit.NewRecorder(dbClient.DB())

	reservationService, err := reservations.NewService(
		dbClient,
		reservations.NewRepository(dbClient.DB()),
		resources.NewDirectory(resourceRepo),
		reservations.NewLocker(dbClient.Dialect()),
		idempotency.NewStore(),
		outbox.NewService(outboxRepo, logg),
		auditRecorder,
		reservations.Options{
			Logger:        logg,
			Metrics:       metrics.NewCommandMetrics(prometheus.DefaultRegisterer),
			MaxHoldTTL:    cfg.Reservations.HoldMaxTTL,
			RetryAttempts: cfg.Reservations.TxRetryAttempts,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reservation service", err)
		os.Exit(1)
	}

	notificationService, err := notifications.NewService(notifications.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID("local"),
		"dialect":  dbClient.Dialect(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:             dbClient,
			Redis:          redisClient,
			Revocations:    denylist,
			Reservations:   reservationService,
			Resources:      resources.NewAdmin(resourceRepo),
			Audit:          auditRecorder,
			Outbox:         outboxRepo,
			Notifications:  notificationService,
			HTTPMetrics:    metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
			MetricsHandler: promhttp.Handler(),
		}),
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "api server shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown incomplete", err)
		}
	}
}
