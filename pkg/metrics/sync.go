package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics records realtime subscription health.
type SyncMetrics struct {
	active     *prometheus.GaugeVec
	reconnects *prometheus.CounterVec
	merged     *prometheus.CounterVec
}

// NewSyncMetrics registers the sync hub metrics on the provided registerer.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	active := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "sync_subscriptions_active",
		Help: "Live feed subscriptions, by entity.",
	}, []string{"entity"})
	reconnects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_reconnects_total",
		Help: "Feed reconnect attempts that led to a reconciling refetch.",
	}, []string{"entity"})
	merged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_events_merged_total",
		Help: "Feed events merged into local views, by entity and op.",
	}, []string{"entity", "op"})
	reg.MustRegister(active, reconnects, merged)
	return &SyncMetrics{active: active, reconnects: reconnects, merged: merged}
}

// SubscriptionOpened bumps the active gauge for the entity.
func (s *SyncMetrics) SubscriptionOpened(entity string) {
	if s == nil || s.active == nil {
		return
	}
	s.active.WithLabelValues(normalizeLabel(entity)).Inc()
}

// SubscriptionClosed drops the active gauge for the entity.
func (s *SyncMetrics) SubscriptionClosed(entity string) {
	if s == nil || s.active == nil {
		return
	}
	s.active.WithLabelValues(normalizeLabel(entity)).Dec()
}

// IncReconnect counts a successful resubscribe + refetch.
func (s *SyncMetrics) IncReconnect(entity string) {
	if s == nil || s.reconnects == nil {
		return
	}
	s.reconnects.WithLabelValues(normalizeLabel(entity)).Inc()
}

// IncMerged counts an applied merge.
func (s *SyncMetrics) IncMerged(entity, op string) {
	if s == nil || s.merged == nil {
		return
	}
	s.merged.WithLabelValues(normalizeLabel(entity), normalizeLabel(op)).Inc()
}
