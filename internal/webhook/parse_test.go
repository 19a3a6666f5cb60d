package webhook

import (
	"encoding/json"
	"testing"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envelope(t *testing.T, raw string) *dto.RazorpayWebhook {
	t.Helper()
	var w dto.RazorpayWebhook
	require.NoError(t, json.Unmarshal([]byte(raw), &w))
	return &w
}

func TestParseSubscriptionCharged(t *testing.T) {
	userID := uuid.New()
	w := envelope(t, `{
		"event": "subscription.charged",
		"payload": {
			"subscription": {"entity": {"id": "sub_9", "current_start": 1735689600, "current_end": 1738368000, "notes": {"user_id": "`+userID.String()+`"}}},
			"payment": {"entity": {"id": "pay_9", "order_id": "order_9", "amount": 133400, "currency": "INR", "method": "upi", "notes": []}}
		}
	}`)

	ev, err := Parse(w)
	require.NoError(t, err)

	charged, ok := ev.(SubscriptionCharged)
	require.True(t, ok, "got %T", ev)
	assert.Equal(t, userID, charged.User())
	assert.Equal(t, "sub_9", charged.GatewaySubscriptionID())
	assert.Equal(t, int64(133400), charged.Payment.Amount)
	assert.Equal(t, "upi", charged.Payment.Method)
	require.NotNil(t, charged.Period.Start)
	assert.Equal(t, int64(1735689600), charged.Period.Start.Unix())
}

func TestParseUserIDFromPaymentNotes(t *testing.T) {
	userID := uuid.New()
	w := envelope(t, `{
		"event": "payment.failed",
		"payload": {
			"payment": {"entity": {"id": "pay_1", "amount": 49900, "currency": "INR", "error_code": "BAD_REQUEST_ERROR", "error_description": "Card declined", "notes": {"user_id": "`+userID.String()+`"}}}
		}
	}`)

	ev, err := Parse(w)
	require.NoError(t, err)

	failed, ok := ev.(PaymentFailed)
	require.True(t, ok)
	assert.Equal(t, userID, failed.User())
	assert.Equal(t, "BAD_REQUEST_ERROR", failed.ErrorCode)
	assert.Equal(t, "Card declined", failed.ErrorDescription)
}

func TestParseMissingUserID(t *testing.T) {
	w := envelope(t, `{"event": "subscription.activated", "payload": {"subscription": {"entity": {"id": "sub_1", "notes": []}}}}`)

	_, err := Parse(w)
	assert.ErrorIs(t, err, ErrMissingUserID)

	w = envelope(t, `{"event": "subscription.activated", "payload": {"subscription": {"entity": {"id": "sub_1", "notes": {"user_id": "nope"}}}}}`)
	_, err = Parse(w)
	assert.ErrorIs(t, err, ErrMissingUserID)
}

func TestParseMissingPaymentEntity(t *testing.T) {
	w := envelope(t, `{"event": "subscription.charged", "payload": {"subscription": {"entity": {"id": "sub_1", "notes": {"user_id": "`+uuid.NewString()+`"}}}}}`)

	_, err := Parse(w)
	assert.ErrorIs(t, err, ErrMissingEntity)
}

func TestParseUnhandledNeedsNoUser(t *testing.T) {
	w := envelope(t, `{"event": "refund.created", "payload": {}}`)

	ev, err := Parse(w)
	require.NoError(t, err)
	assert.IsType(t, Unhandled{}, ev)
	assert.Equal(t, "refund.created", ev.Name())
}

func TestParseInvoicePaidNextBilling(t *testing.T) {
	userID := uuid.New()
	w := envelope(t, `{
		"event": "invoice.paid",
		"payload": {
			"invoice": {"entity": {"id": "inv_1", "subscription_id": "sub_2", "billing_start": 1735689600, "billing_end": 1738368000, "notes": {"user_id": "`+userID.String()+`"}}}
		}
	}`)

	ev, err := Parse(w)
	require.NoError(t, err)

	paid, ok := ev.(InvoicePaid)
	require.True(t, ok)
	assert.Equal(t, "sub_2", paid.GatewaySubscriptionID())
	require.NotNil(t, paid.NextBillingAt)
	assert.Equal(t, int64(1738368000), paid.NextBillingAt.Unix())
}

func TestParseCompletedAndExpiredShareVariant(t *testing.T) {
	for _, name := range []string{TypeSubscriptionCompleted, TypeSubscriptionExpired} {
		w := envelope(t, `{"event": "`+name+`", "payload": {"subscription": {"entity": {"id": "sub_1", "notes": {"user_id": "`+uuid.NewString()+`"}}}}}`)
		ev, err := Parse(w)
		require.NoError(t, err)
		assert.IsType(t, SubscriptionEnded{}, ev, name)
	}
}
