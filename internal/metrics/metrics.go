package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WebhookEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "Razorpay webhook deliveries by event type and outcome",
		},
		[]string{"event_type", "outcome"},
	)

	CheckoutsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_checkouts_total",
			Help: "Checkouts initiated by kind, region, tier and billing cycle",
		},
		[]string{"kind", "region", "tier", "cycle"},
	)

	UsageChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_usage_checks_total",
			Help: "Usage gate decisions by feature and result",
		},
		[]string{"feature", "result"},
	)

	ExchangeRateFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "billing_exchange_rate_fallbacks_total",
			Help: "Exchange rate lookups that fell back to the static rate",
		},
	)
)

func RecordWebhook(eventType, outcome string) {
	WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
}

func RecordCheckout(kind, region, tier, cycle string) {
	CheckoutsTotal.WithLabelValues(kind, region, tier, cycle).Inc()
}

func RecordUsageCheck(feature string, allowed bool) {
	result := "denied"
	if allowed {
		result = "allowed"
	}
	UsageChecksTotal.WithLabelValues(feature, result).Inc()
}

func RecordRateFallback() {
	ExchangeRateFallbacksTotal.Inc()
}
