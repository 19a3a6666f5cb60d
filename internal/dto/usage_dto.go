package dto

import "time"

type FeatureUsage struct {
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

type UsageSummaryResponse struct {
	Tier        string                  `json:"tier"`
	PeriodStart *time.Time              `json:"periodStart,omitempty"`
	PeriodEnd   *time.Time              `json:"periodEnd,omitempty"`
	Features    map[string]FeatureUsage `json:"features"`
}

type CustomizeResumeRequest struct {
	ResumeText     string `json:"resumeText" validate:"required,max=20000"`
	JobDescription string `json:"jobDescription" validate:"required,max=10000"`
}

type CustomizeResumeResponse struct {
	Content string `json:"content"`
}
