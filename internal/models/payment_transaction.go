package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	PaymentCaptured = "captured"
	PaymentFailed   = "failed"
)

// PaymentTransaction is an append-only audit row, one per gateway charge event.
type PaymentTransaction struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index" json:"user_id"`
	SubscriptionID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"subscription_id"`
	RazorpayPaymentID string          `gorm:"size:64;index" json:"razorpay_payment_id"`
	RazorpayOrderID   string          `gorm:"size:64" json:"razorpay_order_id"`
	Amount            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	Status            string          `gorm:"size:20;not null;index" json:"status"`
	PaymentMethod     string          `gorm:"size:30" json:"payment_method"`
	Metadata          datatypes.JSON  `gorm:"type:jsonb;default:'{}'" json:"metadata"`
	CreatedAt         time.Time       `json:"created_at"`
}
