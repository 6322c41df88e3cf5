package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "notification-cleanup"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "job_success", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "job_failure", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestDispatcherMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDispatcherMetrics(reg)
	metrics.IncDispatched("order_update")
	metrics.IncDispatched("order_update")
	metrics.IncPushSkipped("quiet_hours")
	metrics.IncPushFailed("order_update")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "notifications_dispatched_total", "type", "order_update"); err != nil {
		t.Fatalf("fetch dispatched: %v", err)
	} else if got != 2 {
		t.Fatalf("expected dispatched=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "notifications_push_skipped_total", "reason", "quiet_hours"); err != nil {
		t.Fatalf("fetch skipped: %v", err)
	} else if got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "notifications_push_failed_total", "type", "order_update"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failed=1, got %f", got)
	}
}

func TestSyncMetricsTracksActiveGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewSyncMetrics(reg)
	metrics.SubscriptionOpened("orders")
	metrics.SubscriptionOpened("orders")
	metrics.SubscriptionClosed("orders")
	metrics.IncReconnect("orders")
	metrics.IncMerged("orders", "update")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchGaugeValue(mfs, "sync_subscriptions_active", "entity", "orders"); err != nil {
		t.Fatalf("fetch active: %v", err)
	} else if got != 1 {
		t.Fatalf("expected active=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "sync_reconnects_total", "entity", "orders"); err != nil {
		t.Fatalf("fetch reconnects: %v", err)
	} else if got != 1 {
		t.Fatalf("expected reconnects=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "sync_events_merged_total", "entity", "orders"); err != nil {
		t.Fatalf("fetch merged: %v", err)
	} else if got != 1 {
		t.Fatalf("expected merged=1, got %f", got)
	}
}

func TestNilRegistererProducesInertMetrics(t *testing.T) {
	cron := NewCronJobMetrics(nil)
	cron.ObserveDuration("job", time.Second)
	cron.IncSuccess("job")
	cron.IncFailure("job")

	dispatcher := NewDispatcherMetrics(nil)
	dispatcher.IncDispatched("order_update")
	dispatcher.IncPushSkipped("disabled")
	dispatcher.IncPushFailed("order_update")

	sync := NewSyncMetrics(nil)
	sync.SubscriptionOpened("orders")
	sync.SubscriptionClosed("orders")
	sync.IncReconnect("orders")
	sync.IncMerged("orders", "insert")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchGaugeValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetGauge().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("gauge %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
