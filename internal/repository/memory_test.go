package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUpsertSubscriptionKeepsOneRowPerUser(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	userID := uuid.New()

	first := &models.Subscription{UserID: userID, PlanID: "premium_monthly_india", Status: models.StatusPending}
	require.NoError(t, repo.UpsertSubscription(ctx, first))

	second := &models.Subscription{UserID: userID, PlanID: "ultimate_annual_india", Status: models.StatusPending}
	require.NoError(t, repo.UpsertSubscription(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	got, err := repo.GetSubscriptionByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "ultimate_annual_india", got.PlanID)
}

func TestMemoryGetSubscriptionNotFound(t *testing.T) {
	_, err := NewMemory().GetSubscriptionByUser(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClaimWebhookEventOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()

	claimed, err := repo.ClaimWebhookEvent(ctx, &models.WebhookEvent{RazorpayEventID: "evt_1", EventType: "subscription.activated"})
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = repo.ClaimWebhookEvent(ctx, &models.WebhookEvent{RazorpayEventID: "evt_1", EventType: "subscription.activated"})
	require.NoError(t, err)
	assert.False(t, claimed)

	require.NoError(t, repo.MarkWebhookProcessed(ctx, "evt_1", "boom"))
	event, ok := repo.WebhookEvent("evt_1")
	require.True(t, ok)
	assert.NotNil(t, event.ProcessedAt)
	assert.Equal(t, "boom", event.ProcessingError)
}

func TestMemoryIncrementUsageConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory()
	userID := uuid.New()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.IncrementUsage(ctx, userID, "ai_customization", start, end)
		}()
	}
	wg.Wait()

	count, err := repo.GetUsageCount(ctx, userID, "ai_customization", start)
	require.NoError(t, err)
	assert.Equal(t, 25, count)

	count, err = repo.GetUsageCount(ctx, userID, "ai_customization", end)
	require.NoError(t, err)
	assert.Zero(t, count)

	counters, err := repo.ListUsage(ctx, userID, start)
	require.NoError(t, err)
	assert.Len(t, counters, 1)
}
