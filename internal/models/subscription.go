package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	StatusPending       = "pending"
	StatusAuthenticated = "authenticated"
	StatusActive        = "active"
	StatusPaused        = "paused"
	StatusHalted        = "halted"
	StatusCancelled     = "cancelled"
	StatusExpired       = "expired"
)

const (
	CycleMonthly = "monthly"
	CycleAnnual  = "annual"
)

// Subscription is the single billing row a user owns. Checkouts upsert on
// user_id, so a new plan selection replaces any in-flight record.
type Subscription struct {
	ID                     uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID                 uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	PlanID                 string          `gorm:"size:100;not null" json:"plan_id"`
	Tier                   string          `gorm:"size:30;not null" json:"tier"`
	Region                 string          `gorm:"size:10;not null" json:"region"`
	BillingCycle           string          `gorm:"size:10;not null" json:"billing_cycle"`
	Status                 string          `gorm:"size:20;not null;default:'pending';index" json:"status"`
	RazorpaySubscriptionID *string         `gorm:"size:64;index" json:"razorpay_subscription_id"`
	RazorpayOrderID        *string         `gorm:"size:64;index" json:"razorpay_order_id"`
	RazorpayCustomerID     *string         `gorm:"size:64" json:"razorpay_customer_id"`
	Amount                 decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0" json:"amount"`
	Currency               string          `gorm:"size:3;not null;default:'INR'" json:"currency"`
	CurrentPeriodStart     time.Time       `json:"current_period_start"`
	CurrentPeriodEnd       time.Time       `json:"current_period_end"`
	NextBillingAt          *time.Time      `json:"next_billing_at"`
	TrialActive            bool            `gorm:"not null;default:false" json:"trial_active"`
	TrialDays              int             `gorm:"not null;default:0" json:"trial_days"`
	CancelledAt            *time.Time      `json:"cancelled_at"`
	Metadata               datatypes.JSON  `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// IsTerminal reports whether webhook transitions out of the current status
// are suppressed.
func (s *Subscription) IsTerminal() bool {
	return s.Status == StatusCancelled || s.Status == StatusExpired
}

// IsRecurring reports whether the row is bound to a gateway subscription,
// which keeps it current through renewal webhooks.
func (s *Subscription) IsRecurring() bool {
	return s.RazorpaySubscriptionID != nil && *s.RazorpaySubscriptionID != ""
}

// Entitles reports whether the subscription unlocks its tier at now. A
// one-time purchase gets no renewal events, so it lapses at the end of its
// paid period.
func (s *Subscription) Entitles(now time.Time) bool {
	if !s.IsRecurring() && !now.Before(s.CurrentPeriodEnd) {
		return false
	}
	switch s.Status {
	case StatusActive:
		return true
	case StatusAuthenticated:
		return s.TrialActive
	default:
		return false
	}
}
