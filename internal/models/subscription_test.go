package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEntitles(t *testing.T) {
	start := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	gatewayID := "sub_1"

	tests := []struct {
		name string
		sub  Subscription
		at   time.Time
		want bool
	}{
		{"active one-time within period", Subscription{Status: StatusActive, CurrentPeriodEnd: end}, end.Add(-time.Second), true},
		{"active one-time at period end", Subscription{Status: StatusActive, CurrentPeriodEnd: end}, end, false},
		{"active one-time long after", Subscription{Status: StatusActive, CurrentPeriodEnd: end}, end.AddDate(5, 0, 0), false},
		{"active recurring past period end", Subscription{Status: StatusActive, RazorpaySubscriptionID: &gatewayID, CurrentPeriodEnd: end}, end.AddDate(0, 0, 2), true},
		{"trialing mandate", Subscription{Status: StatusAuthenticated, TrialActive: true, RazorpaySubscriptionID: &gatewayID}, start, true},
		{"mandate without trial", Subscription{Status: StatusAuthenticated, RazorpaySubscriptionID: &gatewayID}, start, false},
		{"pending", Subscription{Status: StatusPending, CurrentPeriodEnd: end}, start, false},
		{"cancelled", Subscription{Status: StatusCancelled, RazorpaySubscriptionID: &gatewayID}, start, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sub.Entitles(tt.at))
		})
	}
}
