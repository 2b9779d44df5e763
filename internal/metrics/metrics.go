// Package metrics registers the Prometheus instruments the handlers
// record into and exposes them over /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Verification outcome labels.
const (
	OutcomeVerified  = "verified"
	OutcomeNoMatch   = "no_match"
	OutcomeMismatch  = "mismatch"
	OutcomeDuplicate = "duplicate"
	OutcomeRejected  = "rejected"
	OutcomeError     = "error"
)

var (
	// WebhookEvents counts received chat events by message type.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harnkan_webhook_events_total",
		Help: "Chat webhook events received, by message type.",
	}, []string{"type"})

	// ExpensesCreated counts persisted expenses by payment type.
	ExpensesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harnkan_expenses_created_total",
		Help: "Expenses persisted, by payment type.",
	}, []string{"payment_type"})

	// SlipVerifications counts slip submissions by final outcome.
	SlipVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harnkan_slip_verifications_total",
		Help: "Slip verification attempts, by outcome.",
	}, []string{"outcome"})

	// SlipVerificationDuration observes end-to-end slip handling time.
	SlipVerificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "harnkan_slip_verification_duration_seconds",
		Help:    "End-to-end slip verification latency.",
		Buckets: prometheus.DefBuckets,
	})
)

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
