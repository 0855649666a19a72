package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records delivery counts and processing latency per gateway.
type WebhookMetrics struct {
	received *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Webhook outcome label values.
const (
	OutcomeRecorded  = "recorded"
	OutcomeDuplicate = "duplicate"
	OutcomeFlagged   = "flagged"
	OutcomeRejected  = "rejected"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"
)

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_deliveries_received",
		Help: "Webhook deliveries received per gateway.",
	}, []string{"gateway"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_delivery_outcomes",
		Help: "Terminal outcome of each webhook delivery.",
	}, []string{"gateway", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_processing_duration_seconds",
		Help:    "Duration of webhook processing in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway"})
	reg.MustRegister(received, outcomes, duration)
	return &WebhookMetrics{
		received: received,
		outcomes: outcomes,
		duration: duration,
	}
}

// IncReceived increments the delivery counter for the named gateway.
func (w *WebhookMetrics) IncReceived(gateway string) {
	if w == nil || w.received == nil {
		return
	}
	w.received.WithLabelValues(normalizeLabel(gateway)).Inc()
}

// IncOutcome increments the terminal outcome counter for the named gateway.
func (w *WebhookMetrics) IncOutcome(gateway, outcome string) {
	if w == nil || w.outcomes == nil {
		return
	}
	w.outcomes.WithLabelValues(normalizeLabel(gateway), normalizeLabel(outcome)).Inc()
}

// ObserveDuration records the processing duration for the named gateway.
func (w *WebhookMetrics) ObserveDuration(gateway string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(gateway)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
