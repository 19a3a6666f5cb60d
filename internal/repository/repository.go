package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("record not found")

// Repository is the persistence surface of the billing subsystem.
type Repository interface {
	// UpsertSubscription inserts or replaces the caller's single subscription
	// row, keyed by user_id, and reloads it so ID is populated.
	UpsertSubscription(ctx context.Context, sub *models.Subscription) error
	GetSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	// LockSubscriptionByUser is GetSubscriptionByUser with SELECT ... FOR UPDATE;
	// only meaningful inside WithTx.
	LockSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	SaveSubscription(ctx context.Context, sub *models.Subscription) error

	InsertPaymentTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	ListPaymentTransactions(ctx context.Context, userID uuid.UUID) ([]models.PaymentTransaction, error)

	// ClaimWebhookEvent records the event and reports whether this call was
	// the first to see its razorpay_event_id.
	ClaimWebhookEvent(ctx context.Context, event *models.WebhookEvent) (bool, error)
	MarkWebhookProcessed(ctx context.Context, eventID, processingError string) error

	GetUsageCount(ctx context.Context, userID uuid.UUID, feature string, periodStart time.Time) (int, error)
	IncrementUsage(ctx context.Context, userID uuid.UUID, feature string, periodStart, periodEnd time.Time) error
	ListUsage(ctx context.Context, userID uuid.UUID, periodStart time.Time) ([]models.UsageCounter, error)

	// WithTx runs fn against a repository bound to a single transaction.
	WithTx(ctx context.Context, fn func(Repository) error) error
}

type gormRepository struct {
	db *gorm.DB
}

func New(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) UpsertSubscription(ctx context.Context, sub *models.Subscription) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plan_id",
			"tier",
			"region",
			"billing_cycle",
			"status",
			"razorpay_subscription_id",
			"razorpay_order_id",
			"razorpay_customer_id",
			"amount",
			"currency",
			"current_period_start",
			"current_period_end",
			"next_billing_at",
			"trial_active",
			"trial_days",
			"cancelled_at",
			"metadata",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	return r.db.WithContext(ctx).Where("user_id = ?", sub.UserID).First(sub).Error
}

func (r *gormRepository) GetSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) LockSubscriptionByUser(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) SaveSubscription(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Save(sub).Error
}

func (r *gormRepository) InsertPaymentTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *gormRepository) ListPaymentTransactions(ctx context.Context, userID uuid.UUID) ([]models.PaymentTransaction, error) {
	var txns []models.PaymentTransaction
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&txns).Error
	return txns, err
}

func (r *gormRepository) ClaimWebhookEvent(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "razorpay_event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) MarkWebhookProcessed(ctx context.Context, eventID, processingError string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("razorpay_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"processed_at":     &now,
			"processing_error": processingError,
		}).Error
}

func (r *gormRepository) GetUsageCount(ctx context.Context, userID uuid.UUID, feature string, periodStart time.Time) (int, error) {
	var counter models.UsageCounter
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND feature_type = ? AND period_start = ?", userID, feature, periodStart).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return counter.UsageCount, nil
}

// IncrementUsage is a single upsert so concurrent increments never lose a count.
func (r *gormRepository) IncrementUsage(ctx context.Context, userID uuid.UUID, feature string, periodStart, periodEnd time.Time) error {
	counter := models.UsageCounter{
		UserID:      userID,
		FeatureType: feature,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		UsageCount:  1,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "user_id"},
			{Name: "feature_type"},
			{Name: "period_start"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"usage_count": gorm.Expr("usage_counters.usage_count + 1"),
			"updated_at":  time.Now(),
		}),
	}).Create(&counter).Error
}

func (r *gormRepository) ListUsage(ctx context.Context, userID uuid.UUID, periodStart time.Time) ([]models.UsageCounter, error) {
	var counters []models.UsageCounter
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND period_start = ?", userID, periodStart).
		Find(&counters).Error
	return counters, err
}

func (r *gormRepository) WithTx(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormRepository{db: tx})
	})
}
