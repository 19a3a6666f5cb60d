package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/gateway"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/repository"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/webhook"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test"

func newWebhookService(repo repository.Repository, secret string) *WebhookService {
	svc := NewWebhookService(repo, secret)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func subscriptionEvent(event string, userID uuid.UUID, subID string) []byte {
	return []byte(fmt.Sprintf(`{
		"entity": "event",
		"event": %q,
		"payload": {"subscription": {"entity": {"id": %q, "customer_id": "cust_1", "current_start": 1741600000, "current_end": 1744278400, "notes": {"user_id": %q}}}}
	}`, event, subID, userID.String()))
}

func chargedEvent(userID uuid.UUID, subID string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{
		"entity": "event",
		"event": "subscription.charged",
		"payload": {
			"subscription": {"entity": {"id": %q, "notes": {"user_id": %q}}},
			"payment": {"entity": {"id": "pay_1", "order_id": "order_1", "amount": %d, "currency": "INR", "status": "captured", "method": "card", "notes": []}}
		}
	}`, subID, userID.String(), amount))
}

func process(t *testing.T, svc *WebhookService, body []byte, eventID string) *WebhookResult {
	t.Helper()
	res, err := svc.Process(context.Background(), body, gateway.SignWebhook(body, testWebhookSecret), eventID)
	require.NoError(t, err)
	return res
}

func TestWebhookIdempotent(t *testing.T) {
	repo := repository.NewMemory()
	svc := newWebhookService(repo, testWebhookSecret)
	userID := seedSubscription(t, repo, "premium", models.StatusActive, false)
	body := chargedEvent(userID, "", 49900)

	first := process(t, svc, body, "evt_1")
	assert.Equal(t, OutcomeApplied, first.Outcome)

	second := process(t, svc, body, "evt_1")
	assert.Equal(t, OutcomeDuplicate, second.Outcome)

	txns, err := repo.ListPaymentTransactions(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, txns, 1)

	event, ok := repo.WebhookEvent("evt_1")
	require.True(t, ok)
	assert.True(t, event.SignatureValid)
	assert.NotNil(t, event.ProcessedAt)
	assert.Empty(t, event.ProcessingError)
}

func TestWebhookHashFallbackEventID(t *testing.T) {
	repo := repository.NewMemory()
	svc := newWebhookService(repo, testWebhookSecret)
	userID := seedSubscription(t, repo, "premium", models.StatusActive, false)
	body := chargedEvent(userID, "", 49900)

	first := process(t, svc, body, "")
	assert.Contains(t, first.EventID, "hash:")
	second := process(t, svc, body, "  ")
	assert.Equal(t, OutcomeDuplicate, second.Outcome)
	assert.Equal(t, first.EventID, second.EventID)
}

func TestWebhookSignatureRejected(t *testing.T) {
	repo := repository.NewMemory()
	svc := newWebhookService(repo, testWebhookSecret)
	userID := seedSubscription(t, repo, "premium", models.StatusActive, false)

	body := subscriptionEvent(webhook.TypeSubscriptionCancelled, userID, "sub_1")
	signature := gateway.SignWebhook(body, testWebhookSecret)
	tampered := subscriptionEvent(webhook.TypeSubscriptionHalted, userID, "sub_1")

	_, err := svc.Process(context.Background(), tampered, signature, "evt_tampered")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = svc.Process(context.Background(), body, "", "evt_unsigned")
	assert.ErrorIs(t, err, ErrMissingSignature)

	sub, err := repo.GetSubscriptionByUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, sub.Status)
	_, claimed := repo.WebhookEvent("evt_tampered")
	assert.False(t, claimed)
}

func TestWebhookDegradedModeWithoutSecret(t *testing.T) {
	repo := repository.NewMemory()
	svc := newWebhookService(repo, "")
	userID := seedSubscription(t, repo, "premium", models.StatusActive, false)

	res, err := svc.Process(context.Background(), subscriptionEvent(webhook.TypeSubscriptionPaused, userID, "sub_1"), "", "evt_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, res.Outcome)

	event, _ := repo.WebhookEvent("evt_1")
	assert.False(t, event.SignatureValid)
	sub, _ := repo.GetSubscriptionByUser(context.Background(), userID)
	assert.Equal(t, models.StatusPaused, sub.Status)
}

func TestWebhookInvalidPayload(t *testing.T) {
	svc := newWebhookService(repository.NewMemory(), testWebhookSecret)
	body := []byte(`{"event":`)

	_, err := svc.Process(context.Background(), body, gateway.SignWebhook(body, testWebhookSecret), "evt_1")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestWebhookMissingUserIDMarkedProcessed(t *testing.T) {
	repo := repository.NewMemory()
	svc := newWebhookService(repo, testWebhookSecret)
	body := []byte(`{"event":"subscription.activated","payload":{"subscription":{"entity":{"id":"sub_1","notes":[]}}}}`)

	res := process(t, svc, body, "evt_no_user")

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.ErrorIs(t, res.Err, webhook.ErrMissingUserID)
	event, ok := repo.WebhookEvent("evt_no_user")
	require.True(t, ok)
	assert.NotNil(t, event.ProcessedAt)
	assert.NotEmpty(t, event.ProcessingError)

	// Redelivery is not reprocessed.
	assert.Equal(t, OutcomeDuplicate, process(t, svc, body, "evt_no_user").Outcome)
}

func TestWebhookUnknownUserRecordsError(t *testing.T) {
	repo := repository.NewMemory()
	svc := newWebhookService(repo, testWebhookSecret)

	res := process(t, svc, subscriptionEvent(webhook.TypeSubscriptionActivated, uuid.New(), "sub_1"), "evt_1")

	assert.ErrorIs(t, res.Err, ErrNoSubscription)
}

func TestWebhookUnhandledEventIgnored(t *testing.T) {
	repo := repository.NewMemory()
	svc := newWebhookService(repo, testWebhookSecret)

	res := process(t, svc, []byte(`{"event":"refund.processed","payload":{}}`), "evt_refund")

	assert.Equal(t, OutcomeIgnored, res.Outcome)
	assert.NoError(t, res.Err)
}

func TestWebhookLifecycle(t *testing.T) {
	repo := repository.NewMemory()
	svc := newWebhookService(repo, testWebhookSecret)
	ctx := context.Background()

	userID := uuid.New()
	subID := "sub_live"
	require.NoError(t, repo.UpsertSubscription(ctx, &models.Subscription{
		UserID:                 userID,
		PlanID:                 "premium_monthly_india",
		Tier:                   "premium",
		Region:                 "india",
		BillingCycle:           "monthly",
		Status:                 models.StatusPending,
		TrialDays:              7,
		RazorpaySubscriptionID: &subID,
		CurrentPeriodStart:     fixedNow,
		CurrentPeriodEnd:       fixedNow.AddDate(0, 1, 0),
	}))

	status := func() *models.Subscription {
		sub, err := repo.GetSubscriptionByUser(ctx, userID)
		require.NoError(t, err)
		return sub
	}

	process(t, svc, subscriptionEvent(webhook.TypeSubscriptionAuthenticated, userID, subID), "evt_auth")
	sub := status()
	assert.Equal(t, models.StatusAuthenticated, sub.Status)
	assert.True(t, sub.TrialActive)
	assert.Equal(t, "cust_1", *sub.RazorpayCustomerID)

	process(t, svc, subscriptionEvent(webhook.TypeSubscriptionActivated, userID, subID), "evt_act")
	sub = status()
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.True(t, sub.TrialActive)
	assert.Equal(t, int64(1741600000), sub.CurrentPeriodStart.Unix())

	process(t, svc, subscriptionEvent(webhook.TypeSubscriptionCancelled, userID, subID), "evt_cancel")
	sub = status()
	assert.Equal(t, models.StatusCancelled, sub.Status)
	require.NotNil(t, sub.CancelledAt)
	assert.Equal(t, fixedNow, *sub.CancelledAt)

	// A late activated retry must not un-cancel.
	res := process(t, svc, subscriptionEvent(webhook.TypeSubscriptionActivated, userID, subID), "evt_act_retry")
	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, models.StatusCancelled, status().Status)

	process(t, svc, subscriptionEvent(webhook.TypeSubscriptionCompleted, userID, subID), "evt_done")
	assert.Equal(t, models.StatusExpired, status().Status)
}

func TestCheckoutThenChargedWebhook(t *testing.T) {
	checkout, repo, _ := newSubscriptionService(t)
	hooks := newWebhookService(repo, testWebhookSecret)
	user := testUser()
	ctx := context.Background()

	order, err := checkout.CreateOrder(ctx, user, orderReq("row", "premium", "monthly", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(125200), order.Amount)

	res := process(t, hooks, chargedEvent(user.ID, "sub_x", order.Amount), "evt_charged")
	require.NoError(t, res.Err)

	sub, err := repo.GetSubscriptionByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, sub.Status)

	txns, err := repo.ListPaymentTransactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.PaymentCaptured, txns[0].Status)
	assert.True(t, decimal.NewFromInt(1252).Equal(txns[0].Amount), txns[0].Amount.String())
	assert.Equal(t, sub.ID, txns[0].SubscriptionID)
}

func orderPaidEvent(userID uuid.UUID, orderID string, amount int64) []byte {
	return []byte(fmt.Sprintf(`{
		"entity": "event",
		"event": "order.paid",
		"payload": {
			"payment": {"entity": {"id": "pay_%s", "order_id": %q, "amount": %d, "currency": "INR", "status": "captured", "method": "upi", "notes": {"user_id": %q}}},
			"order": {"entity": {"id": %q, "amount": %d, "amount_paid": %d, "currency": "INR", "status": "paid", "notes": {"user_id": %q}}}
		}
	}`, orderID, orderID, amount, userID.String(), orderID, amount, amount, userID.String()))
}

func TestOrderPaidForReplacedOrderDoesNotActivate(t *testing.T) {
	checkout, repo, _ := newSubscriptionService(t)
	hooks := newWebhookService(repo, testWebhookSecret)
	user := testUser()
	ctx := context.Background()

	cheap, err := checkout.CreateOrder(ctx, user, orderReq("india", "professional", "monthly", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(29900), cheap.Amount)
	pricey, err := checkout.CreateOrder(ctx, user, orderReq("india", "ultimate", "annual", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(959000), pricey.Amount)

	res := process(t, hooks, orderPaidEvent(user.ID, cheap.OrderID, cheap.Amount), "evt_paid_cheap")
	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeSkipped, res.Outcome)

	sub, err := repo.GetSubscriptionByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, sub.Status)
	assert.Equal(t, "ultimate", sub.Tier)
	assert.False(t, sub.Entitles(fixedNow))

	txns, err := repo.ListPaymentTransactions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, cheap.OrderID, txns[0].RazorpayOrderID)

	res = process(t, hooks, orderPaidEvent(user.ID, pricey.OrderID, pricey.Amount), "evt_paid_pricey")
	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeApplied, res.Outcome)

	sub, err = repo.GetSubscriptionByUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, sub.Status)
	assert.Equal(t, fixedNow, sub.CurrentPeriodStart)
	assert.Equal(t, fixedNow.AddDate(1, 0, 0), sub.CurrentPeriodEnd)
	assert.True(t, sub.Entitles(fixedNow))
	assert.False(t, sub.Entitles(fixedNow.AddDate(1, 0, 0)))
}
