package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageCounter counts gated feature invocations within one billing period.
// A new period starts a new row; counters are never reset in place.
type UsageCounter struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_usage_user_feature_period,priority:1" json:"user_id"`
	FeatureType string    `gorm:"size:30;not null;uniqueIndex:idx_usage_user_feature_period,priority:2" json:"feature_type"`
	PeriodStart time.Time `gorm:"not null;uniqueIndex:idx_usage_user_feature_period,priority:3" json:"period_start"`
	PeriodEnd   time.Time `gorm:"not null" json:"period_end"`
	UsageCount  int       `gorm:"not null;default:0" json:"usage_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
