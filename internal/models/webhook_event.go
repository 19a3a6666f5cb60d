package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WebhookEvent records every gateway event the receiver has claimed. The
// unique razorpay_event_id is what makes delivery at-most-once.
type WebhookEvent struct {
	ID              uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RazorpayEventID string         `gorm:"size:191;not null;uniqueIndex" json:"razorpay_event_id"`
	EventType       string         `gorm:"size:100;not null;index" json:"event_type"`
	Payload         datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	SignatureValid  bool           `gorm:"not null;default:false" json:"signature_valid"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
	ProcessingError string         `gorm:"type:text" json:"processing_error"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
}
