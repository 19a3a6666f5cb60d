package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordWebhook(t *testing.T) {
	before := testutil.ToFloat64(WebhookEventsTotal.WithLabelValues("subscription.charged", "processed"))
	RecordWebhook("subscription.charged", "processed")
	after := testutil.ToFloat64(WebhookEventsTotal.WithLabelValues("subscription.charged", "processed"))

	assert.Equal(t, before+1, after)
}

func TestRecordUsageCheck(t *testing.T) {
	allowed := testutil.ToFloat64(UsageChecksTotal.WithLabelValues("cover_letter", "allowed"))
	denied := testutil.ToFloat64(UsageChecksTotal.WithLabelValues("cover_letter", "denied"))

	RecordUsageCheck("cover_letter", true)
	RecordUsageCheck("cover_letter", false)
	RecordUsageCheck("cover_letter", false)

	assert.Equal(t, allowed+1, testutil.ToFloat64(UsageChecksTotal.WithLabelValues("cover_letter", "allowed")))
	assert.Equal(t, denied+2, testutil.ToFloat64(UsageChecksTotal.WithLabelValues("cover_letter", "denied")))
}

func TestRecordRateFallback(t *testing.T) {
	before := testutil.ToFloat64(ExchangeRateFallbacksTotal)
	RecordRateFallback()
	assert.Equal(t, before+1, testutil.ToFloat64(ExchangeRateFallbacksTotal))
}
