package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayCallMetrics records latency and outcomes for outbound gateway calls.
type GatewayCallMetrics struct {
	duration *prometheus.HistogramVec
	total    *prometheus.CounterVec
}

// NewGatewayCallMetrics registers the gateway call metrics on the provided registerer.
func NewGatewayCallMetrics(reg prometheus.Registerer) *GatewayCallMetrics {
	if reg == nil {
		return &GatewayCallMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_call_duration_seconds",
		Help:    "Duration of payment gateway API calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_calls_total",
		Help: "Payment gateway API calls by operation and outcome.",
	}, []string{"operation", "outcome"})
	reg.MustRegister(duration, total)
	return &GatewayCallMetrics{duration: duration, total: total}
}

// Observe records one completed gateway call.
func (g *GatewayCallMetrics) Observe(operation, outcome string, elapsed time.Duration) {
	if g == nil || g.duration == nil {
		return
	}
	g.duration.WithLabelValues(normalizeLabel(operation)).Observe(elapsed.Seconds())
	g.total.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// CallbackMetrics counts return-callback decisions by outcome.
type CallbackMetrics struct {
	outcomes *prometheus.CounterVec
}

// NewCallbackMetrics registers the callback metrics on the provided registerer.
func NewCallbackMetrics(reg prometheus.Registerer) *CallbackMetrics {
	if reg == nil {
		return &CallbackMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_callbacks_total",
		Help: "Return callback decisions by outcome.",
	}, []string{"outcome", "verified"})
	reg.MustRegister(outcomes)
	return &CallbackMetrics{outcomes: outcomes}
}

// Inc records one callback decision.
func (c *CallbackMetrics) Inc(outcome string, verified bool) {
	if c == nil || c.outcomes == nil {
		return
	}
	label := "false"
	if verified {
		label = "true"
	}
	c.outcomes.WithLabelValues(normalizeLabel(outcome), label).Inc()
}

// WebhookMetrics counts webhook ingestion results.
type WebhookMetrics struct {
	results *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	results := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhooks_total",
		Help: "Webhook ingestion results.",
	}, []string{"result"})
	reg.MustRegister(results)
	return &WebhookMetrics{results: results}
}

// Inc records one webhook ingestion result.
func (w *WebhookMetrics) Inc(result string) {
	if w == nil || w.results == nil {
		return
	}
	w.results.WithLabelValues(normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
