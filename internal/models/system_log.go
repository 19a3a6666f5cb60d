package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog stores ERROR+ log records so billing failures stay queryable
// next to the rows they concern.
type SystemLog struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Timestamp      time.Time      `gorm:"not null;index" json:"timestamp"`
	Level          string         `gorm:"size:10;not null;index" json:"level"`
	Message        string         `gorm:"type:text" json:"message"`
	RequestID      string         `gorm:"size:36;index" json:"request_id"`
	UserID         *string        `gorm:"size:36;index" json:"user_id"`
	EventID        string         `gorm:"size:191;index" json:"event_id"`
	EventType      string         `gorm:"size:100" json:"event_type"`
	SubscriptionID string         `gorm:"size:64" json:"subscription_id"`
	Error          string         `gorm:"type:text" json:"error"`
	Extra          datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"extra"`
	CreatedAt      time.Time      `json:"created_at"`
}
