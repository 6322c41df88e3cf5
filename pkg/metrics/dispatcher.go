package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// DispatcherMetrics records notification fan-out outcomes.
type DispatcherMetrics struct {
	dispatched  *prometheus.CounterVec
	pushSkipped *prometheus.CounterVec
	pushFailed  *prometheus.CounterVec
}

// NewDispatcherMetrics registers the dispatcher metrics on the provided registerer.
func NewDispatcherMetrics(reg prometheus.Registerer) *DispatcherMetrics {
	if reg == nil {
		return &DispatcherMetrics{}
	}
	dispatched := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "In-app notification rows persisted, by type.",
	}, []string{"type"})
	pushSkipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_push_skipped_total",
		Help: "Push deliveries skipped, by reason (disabled, quiet_hours, no_subscription).",
	}, []string{"reason"})
	pushFailed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_push_failed_total",
		Help: "Best-effort push deliveries that failed, by type.",
	}, []string{"type"})
	reg.MustRegister(dispatched, pushSkipped, pushFailed)
	return &DispatcherMetrics{
		dispatched:  dispatched,
		pushSkipped: pushSkipped,
		pushFailed:  pushFailed,
	}
}

// IncDispatched counts a persisted in-app notification.
func (d *DispatcherMetrics) IncDispatched(notificationType string) {
	if d == nil || d.dispatched == nil {
		return
	}
	d.dispatched.WithLabelValues(normalizeLabel(notificationType)).Inc()
}

// IncPushSkipped counts a skipped push attempt.
func (d *DispatcherMetrics) IncPushSkipped(reason string) {
	if d == nil || d.pushSkipped == nil {
		return
	}
	d.pushSkipped.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncPushFailed counts a failed push attempt.
func (d *DispatcherMetrics) IncPushFailed(notificationType string) {
	if d == nil || d.pushFailed == nil {
		return
	}
	d.pushFailed.WithLabelValues(normalizeLabel(notificationType)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
