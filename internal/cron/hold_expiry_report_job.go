package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/opsdesk/reservations-backend/internal/reservations"
	"github.com/opsdesk/reservations-backend/pkg/logger"
	"github.com/opsdesk/reservations-backend/pkg/metrics"
)

type HoldExpiryReportJobParams struct {
	Logger     *logger.Logger
	Repository lapsedHoldCounter
	Metrics    *metrics.HoldMetrics
}

type lapsedHoldCounter interface {
	CountLapsedHolds(ctx context.Context, now time.Time) ([]reservations.LapsedHoldCount, error)
}

// NewHoldExpiryReportJob reports active holds past their TTL. Lapsed holds
// already read as expired, so the job never writes; a concurrent confirm
// cannot race it.
func NewHoldExpiryReportJob(params HoldExpiryReportJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	return &holdExpiryReportJob{
		logg:    params.Logger,
		repo:    params.Repository,
		metrics: params.Metrics,
		now:     time.Now,
	}, nil
}

type holdExpiryReportJob struct {
	logg    *logger.Logger
	repo    lapsedHoldCounter
	metrics *metrics.HoldMetrics
	now     func() time.Time
}

func (j *holdExpiryReportJob) Name() string { return "hold-expiry-report" }

func (j *holdExpiryReportJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	counts, err := j.repo.CountLapsedHolds(ctx, now)
	if err != nil {
		return fmt.Errorf("hold expiry report: %w", err)
	}

	var total, tenantMax int64
	for _, row := range counts {
		total += row.Count
		if row.Count > tenantMax {
			tenantMax = row.Count
		}
		tenantCtx := j.logg.WithTenantID(ctx, row.TenantID.String())
		j.logg.Info(j.logg.WithField(tenantCtx, "lapsed_holds", row.Count), "tenant has lapsed holds")
	}
	j.metrics.SetLapsed(total, tenantMax)

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"tenants":      len(counts),
		"lapsed_holds": total,
		"as_of":        now,
	}), "hold expiry report complete")
	return nil
}
