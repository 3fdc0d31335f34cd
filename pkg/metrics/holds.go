package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HoldMetrics exposes the periodic lapsed-hold report.
type HoldMetrics struct {
	lapsed    prometheus.Gauge
	lapsedMax prometheus.Gauge
}

func NewHoldMetrics(reg prometheus.Registerer) *HoldMetrics {
	if reg == nil {
		return &HoldMetrics{}
	}
	lapsed := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reservation_lapsed_holds",
		Help: "Active holds whose TTL has passed, across all tenants, at the last report.",
	})
	lapsedMax := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reservation_lapsed_holds_tenant_max",
		Help: "Largest per-tenant count of lapsed holds at the last report.",
	})
	reg.MustRegister(lapsed, lapsedMax)
	return &HoldMetrics{lapsed: lapsed, lapsedMax: lapsedMax}
}

// SetLapsed records the totals of one report.
func (h *HoldMetrics) SetLapsed(total, tenantMax int64) {
	if h == nil || h.lapsed == nil {
		return
	}
	h.lapsed.Set(float64(total))
	h.lapsedMax.Set(float64(tenantMax))
}
