package repository

import (
	"context"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/models"
	"github.com/google/uuid"
)

// Memory is an in-process Repository for tests and local runs without
// Postgres. It mirrors the unique constraints of the SQL schema.
type Memory struct {
	mu            sync.Mutex
	subscriptions map[uuid.UUID]models.Subscription
	transactions  []models.PaymentTransaction
	events        map[string]models.WebhookEvent
	usage         map[usageKey]models.UsageCounter
	now           func() time.Time
}

type usageKey struct {
	user    uuid.UUID
	feature string
	period  int64
}

func NewMemory() *Memory {
	return &Memory{
		subscriptions: make(map[uuid.UUID]models.Subscription),
		events:        make(map[string]models.WebhookEvent),
		usage:         make(map[usageKey]models.UsageCounter),
		now:           time.Now,
	}
}

func (m *Memory) UpsertSubscription(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.subscriptions[sub.UserID]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		if sub.ID == uuid.Nil {
			sub.ID = uuid.New()
		}
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	m.subscriptions[sub.UserID] = *sub
	return nil
}

func (m *Memory) GetSubscriptionByUser(_ context.Context, userID uuid.UUID) (*models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sub, ok := m.subscriptions[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &sub, nil
}

func (m *Memory) LockSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	return m.GetSubscriptionByUser(ctx, userID)
}

func (m *Memory) SaveSubscription(_ context.Context, sub *models.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
		sub.CreatedAt = m.now()
	}
	sub.UpdatedAt = m.now()
	m.subscriptions[sub.UserID] = *sub
	return nil
}

func (m *Memory) InsertPaymentTransaction(_ context.Context, txn *models.PaymentTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	txn.CreatedAt = m.now()
	m.transactions = append(m.transactions, *txn)
	return nil
}

func (m *Memory) ListPaymentTransactions(_ context.Context, userID uuid.UUID) ([]models.PaymentTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.PaymentTransaction
	for i := len(m.transactions) - 1; i >= 0; i-- {
		if m.transactions[i].UserID == userID {
			out = append(out, m.transactions[i])
		}
	}
	return out, nil
}

func (m *Memory) ClaimWebhookEvent(_ context.Context, event *models.WebhookEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[event.RazorpayEventID]; ok {
		return false, nil
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	event.CreatedAt = m.now()
	m.events[event.RazorpayEventID] = *event
	return true, nil
}

func (m *Memory) MarkWebhookProcessed(_ context.Context, eventID, processingError string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[eventID]
	if !ok {
		return nil
	}
	now := m.now()
	event.ProcessedAt = &now
	event.ProcessingError = processingError
	m.events[eventID] = event
	return nil
}

// WebhookEvent returns the stored event row, for assertions.
func (m *Memory) WebhookEvent(eventID string) (models.WebhookEvent, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, ok := m.events[eventID]
	return event, ok
}

func (m *Memory) GetUsageCount(_ context.Context, userID uuid.UUID, feature string, periodStart time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.usage[usageKey{userID, feature, periodStart.UnixNano()}].UsageCount, nil
}

func (m *Memory) IncrementUsage(_ context.Context, userID uuid.UUID, feature string, periodStart, periodEnd time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := usageKey{userID, feature, periodStart.UnixNano()}
	counter, ok := m.usage[key]
	if !ok {
		counter = models.UsageCounter{
			ID:          uuid.New(),
			UserID:      userID,
			FeatureType: feature,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
			CreatedAt:   m.now(),
		}
	}
	counter.UsageCount++
	counter.UpdatedAt = m.now()
	m.usage[key] = counter
	return nil
}

func (m *Memory) ListUsage(_ context.Context, userID uuid.UUID, periodStart time.Time) ([]models.UsageCounter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.UsageCounter
	for key, counter := range m.usage {
		if key.user == userID && key.period == periodStart.UnixNano() {
			out = append(out, counter)
		}
	}
	return out, nil
}

// WithTx runs fn directly; the memory store has no rollback.
func (m *Memory) WithTx(_ context.Context, fn func(Repository) error) error {
	return fn(m)
}
