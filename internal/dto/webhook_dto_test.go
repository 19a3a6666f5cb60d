package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotesUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Notes
	}{
		{name: "object", in: `{"user_id":"abc","attempt":2}`, want: Notes{"user_id": "abc", "attempt": "2"}},
		{name: "empty array", in: `[]`, want: Notes{}},
		{name: "null", in: `null`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Notes
			require.NoError(t, json.Unmarshal([]byte(tt.in), &n))
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestRazorpayWebhookDecode(t *testing.T) {
	raw := `{
		"entity": "event",
		"event": "subscription.charged",
		"contains": ["subscription", "payment"],
		"payload": {
			"subscription": {"entity": {"id": "sub_1", "status": "active", "current_start": 1700000000, "current_end": 1702592000, "notes": {"user_id": "u1"}}},
			"payment": {"entity": {"id": "pay_1", "amount": 49900, "currency": "INR", "status": "captured", "method": "card", "notes": []}}
		},
		"created_at": 1700000001
	}`

	var w RazorpayWebhook
	require.NoError(t, json.Unmarshal([]byte(raw), &w))

	require.NotNil(t, w.Payload.Subscription)
	require.NotNil(t, w.Payload.Payment)
	assert.Nil(t, w.Payload.Invoice)
	assert.Equal(t, "u1", w.Payload.Subscription.Entity.Notes["user_id"])
	assert.Equal(t, int64(1702592000), *w.Payload.Subscription.Entity.CurrentEnd)
	assert.Equal(t, int64(49900), w.Payload.Payment.Entity.Amount)
	assert.Empty(t, w.Payload.Payment.Entity.Notes)
}
