package dto

import "time"

type CreateOrderRequest struct {
	PlanID       string `json:"planId" validate:"required"`
	BillingCycle string `json:"billingCycle" validate:"required,oneof=monthly annual"`
	Region       string `json:"region" validate:"required,oneof=india row"`
	Tier         string `json:"tier" validate:"required,oneof=professional premium ultimate"`
	CouponCode   string `json:"couponCode,omitempty"`
}

// CreateOrderResponse feeds the gateway's hosted checkout widget. Amount is
// in subunits; OriginalAmount and DiscountAmount are in major units.
type CreateOrderResponse struct {
	OrderID        string  `json:"orderId"`
	Amount         int64   `json:"amount"`
	Currency       string  `json:"currency"`
	KeyID          string  `json:"keyId"`
	UserName       string  `json:"userName"`
	UserEmail      string  `json:"userEmail"`
	CouponApplied  bool    `json:"couponApplied"`
	DiscountAmount float64 `json:"discountAmount"`
	OriginalAmount float64 `json:"originalAmount"`
}

type CreateSubscriptionResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	KeyID          string `json:"keyId"`
	UserName       string `json:"userName"`
	UserEmail      string `json:"userEmail"`
	TrialDays      int    `json:"trialDays"`
	ShortURL       string `json:"shortUrl,omitempty"`
}

type ValidateCouponRequest struct {
	CouponCode string  `json:"couponCode" validate:"required"`
	PlanAmount float64 `json:"planAmount" validate:"gt=0"`
}

type ValidateCouponResponse struct {
	Valid          bool    `json:"valid"`
	Discount       float64 `json:"discount,omitempty"`
	DiscountType   string  `json:"discountType,omitempty"`
	DiscountAmount float64 `json:"discountAmount,omitempty"`
	FinalAmount    float64 `json:"finalAmount,omitempty"`
	Error          string  `json:"error,omitempty"`
}

type CancelSubscriptionRequest struct {
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}

type CancelSubscriptionResponse struct {
	Success     bool      `json:"success"`
	CancelledAt time.Time `json:"cancelledAt"`
	Message     string    `json:"message"`
}

type SubscriptionStatusResponse struct {
	Status             string     `json:"status"`
	Tier               string     `json:"tier"`
	EffectiveTier      string     `json:"effectiveTier"`
	Entitled           bool       `json:"entitled"`
	PlanID             string     `json:"planId,omitempty"`
	BillingCycle       string     `json:"billingCycle,omitempty"`
	TrialActive        bool       `json:"trialActive"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	NextBillingAt      *time.Time `json:"nextBillingAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
}

type PlanResponse struct {
	ID           string         `json:"id"`
	Tier         string         `json:"tier"`
	BillingCycle string         `json:"billingCycle"`
	Price        float64        `json:"price"`
	Currency     string         `json:"currency"`
	TrialDays    int            `json:"trialDays"`
	Limits       map[string]int `json:"limits"`
}

type PricingResponse struct {
	Region string         `json:"region"`
	Plans  []PlanResponse `json:"plans"`
}
