package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	previewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meal_subscriptions_previews_total",
		Help: "Proration previews by kind (variant, addons) and outcome.",
	}, []string{"kind", "outcome"})

	changesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meal_subscriptions_changes_total",
		Help: "Subscription changes by kind (variant, addons), mode (now, scheduled) and outcome.",
	}, []string{"kind", "mode", "outcome"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meal_subscriptions_upstream_request_duration_seconds",
		Help:    "Latency of calls to the upstream billing and catalog services.",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)

func CountPreview(kind string, err error) {
	previewsTotal.WithLabelValues(kind, outcome(err)).Inc()
}

func CountChange(kind, mode string, err error) {
	changesTotal.WithLabelValues(kind, mode, outcome(err)).Inc()
}

func ObserveUpstream(endpoint string, start time.Time) {
	upstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
