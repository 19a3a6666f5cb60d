package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/gateway"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/models"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/pricing"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingFields      = errors.New("planId, billingCycle, region and tier are required")
	ErrInvalidPlan        = errors.New("selected plan does not exist")
	ErrZeroAmount         = errors.New("final amount must be greater than zero")
	ErrPlanNotConfigured  = errors.New("recurring billing is not configured for this plan")
	ErrCouponNotSupported = errors.New("coupons apply to one-time orders only")
	ErrNoSubscription     = errors.New("subscription not found")
	ErrAlreadyCancelled   = errors.New("subscription is already cancelled")
	ErrNotRecurring       = errors.New("only recurring subscriptions can be cancelled")
)

const (
	monthlyTotalCount = 12
	annualTotalCount  = 3
)

// RateProvider supplies the USD->INR rate for rest-of-world checkouts.
type RateProvider interface {
	USDToINR(ctx context.Context) float64
}

// GatewayPlans maps a catalog entry to the gateway's recurring plan id.
type GatewayPlans interface {
	GatewayPlanID(region, tier, cycle string) (string, bool)
}

type SubscriptionService struct {
	repo    repository.Repository
	gateway gateway.Client
	rates   RateProvider
	plans   GatewayPlans
	now     func() time.Time
}

func NewSubscriptionService(repo repository.Repository, gw gateway.Client, rates RateProvider, plans GatewayPlans) *SubscriptionService {
	return &SubscriptionService{
		repo:    repo,
		gateway: gw,
		rates:   rates,
		plans:   plans,
		now:     time.Now,
	}
}

// quote is the server-side price of a checkout, always in INR.
type quote struct {
	plan         pricing.Plan
	original     decimal.Decimal
	discount     decimal.Decimal
	final        decimal.Decimal
	exchangeRate float64
	couponCode   string
}

func (s *SubscriptionService) quote(ctx context.Context, req *dto.CreateOrderRequest) (*quote, error) {
	if req.PlanID == "" || req.BillingCycle == "" || req.Region == "" || req.Tier == "" {
		return nil, ErrMissingFields
	}

	region, okR := pricing.ParseRegion(req.Region)
	tier, okT := pricing.ParseTier(req.Tier)
	cycle, okC := pricing.ParseCycle(req.BillingCycle)
	if !okR || !okT || !okC || tier == pricing.TierFree {
		return nil, ErrInvalidPlan
	}

	plan, err := pricing.Lookup(region, tier, cycle)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if !strings.EqualFold(strings.TrimSpace(req.PlanID), plan.ID) {
		return nil, fmt.Errorf("%w: planId %q does not match %s", ErrInvalidPlan, req.PlanID, plan.ID)
	}

	q := &quote{plan: plan, original: plan.Price}
	if region == pricing.RegionROW {
		q.exchangeRate = s.rates.USDToINR(ctx)
		q.original = pricing.Convert(plan.Price, q.exchangeRate)
	}
	q.final = q.original

	if code := strings.TrimSpace(req.CouponCode); code != "" {
		res, err := pricing.ApplyCoupon(code, q.original)
		if err != nil {
			return nil, err
		}
		q.couponCode = res.Coupon.Code
		q.discount = res.DiscountAmount
		q.final = res.FinalAmount
	}

	if !q.final.IsPositive() {
		return nil, ErrZeroAmount
	}
	return q, nil
}

func (s *SubscriptionService) pendingRow(userID uuid.UUID, q *quote) *models.Subscription {
	now := s.now().UTC()
	end := pricing.PeriodEnd(now, q.plan.Cycle)

	meta := map[string]interface{}{
		"original_amount": q.original.StringFixed(2),
		"discount_amount": q.discount.StringFixed(2),
		"final_amount":    q.final.StringFixed(2),
	}
	if q.couponCode != "" {
		meta["coupon_code"] = q.couponCode
	}
	if q.exchangeRate > 0 {
		meta["exchange_rate"] = q.exchangeRate
		meta["list_price_usd"] = q.plan.Price.StringFixed(2)
	}

	return &models.Subscription{
		UserID:             userID,
		PlanID:             q.plan.ID,
		Tier:               string(q.plan.Tier),
		Region:             string(q.plan.Region),
		BillingCycle:       string(q.plan.Cycle),
		Status:             models.StatusPending,
		Amount:             q.final,
		Currency:           pricing.CurrencyINR,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   end,
		TrialDays:          q.plan.TrialDays,
		Metadata:           models.JSONMap(meta),
	}
}

func checkoutNotes(userID uuid.UUID, q *quote) map[string]string {
	notes := map[string]string{
		"user_id":       userID.String(),
		"plan_id":       q.plan.ID,
		"tier":          string(q.plan.Tier),
		"billing_cycle": string(q.plan.Cycle),
		"region":        string(q.plan.Region),
	}
	if q.couponCode != "" {
		notes["coupon_code"] = q.couponCode
	}
	return notes
}

// CreateOrder prices the selection, opens a one-time gateway order and
// records the caller's subscription as pending. The remote order is created
// first; if the local write then fails the order is orphaned and logged.
func (s *SubscriptionService) CreateOrder(ctx context.Context, user dto.Identity, req *dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	q, err := s.quote(ctx, req)
	if err != nil {
		return nil, err
	}

	order, err := s.gateway.CreateOrder(ctx, gateway.OrderRequest{
		Amount:   pricing.ToSubunits(q.final),
		Currency: pricing.CurrencyINR,
		Receipt:  fmt.Sprintf("rcpt_%s_%d", user.ID.String()[:8], s.now().Unix()),
		Notes:    checkoutNotes(user.ID, q),
	})
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	sub := s.pendingRow(user.ID, q)
	sub.RazorpayOrderID = &order.ID
	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		slog.Error("gateway order orphaned: local subscription write failed",
			"user_id", user.ID.String(), "order_id", order.ID, "error", err)
		return nil, fmt.Errorf("save subscription: %w", err)
	}

	metrics.RecordCheckout("order", sub.Region, sub.Tier, sub.BillingCycle)
	slog.Info("checkout order created",
		"user_id", user.ID.String(), "order_id", order.ID, "plan_id", sub.PlanID, "amount", q.final.String())

	return &dto.CreateOrderResponse{
		OrderID:        order.ID,
		Amount:         pricing.ToSubunits(q.final),
		Currency:       pricing.CurrencyINR,
		KeyID:          s.gateway.KeyID(),
		UserName:       user.Name,
		UserEmail:      user.Email,
		CouponApplied:  q.couponCode != "",
		DiscountAmount: q.discount.InexactFloat64(),
		OriginalAmount: q.original.InexactFloat64(),
	}, nil
}

// CreateSubscription starts a recurring gateway subscription against the
// configured plan for the selection.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, user dto.Identity, req *dto.CreateOrderRequest) (*dto.CreateSubscriptionResponse, error) {
	if strings.TrimSpace(req.CouponCode) != "" {
		return nil, ErrCouponNotSupported
	}
	q, err := s.quote(ctx, req)
	if err != nil {
		return nil, err
	}

	planID, ok := s.plans.GatewayPlanID(string(q.plan.Region), string(q.plan.Tier), string(q.plan.Cycle))
	if !ok {
		return nil, ErrPlanNotConfigured
	}

	totalCount := monthlyTotalCount
	if q.plan.Cycle == pricing.CycleAnnual {
		totalCount = annualTotalCount
	}

	subReq := gateway.SubscriptionRequest{
		PlanID:         planID,
		TotalCount:     totalCount,
		CustomerNotify: 1,
		Notes:          checkoutNotes(user.ID, q),
	}
	if q.plan.TrialDays > 0 {
		subReq.StartAt = s.now().AddDate(0, 0, q.plan.TrialDays).Unix()
	}

	remote, err := s.gateway.CreateSubscription(ctx, subReq)
	if err != nil {
		return nil, fmt.Errorf("create gateway subscription: %w", err)
	}

	sub := s.pendingRow(user.ID, q)
	sub.RazorpaySubscriptionID = &remote.ID
	if err := s.repo.UpsertSubscription(ctx, sub); err != nil {
		slog.Error("gateway subscription orphaned: local subscription write failed",
			"user_id", user.ID.String(), "subscription_id", remote.ID, "error", err)
		return nil, fmt.Errorf("save subscription: %w", err)
	}

	metrics.RecordCheckout("subscription", sub.Region, sub.Tier, sub.BillingCycle)
	slog.Info("checkout subscription created",
		"user_id", user.ID.String(), "subscription_id", remote.ID, "plan_id", sub.PlanID)

	return &dto.CreateSubscriptionResponse{
		SubscriptionID: remote.ID,
		Amount:         pricing.ToSubunits(q.final),
		Currency:       pricing.CurrencyINR,
		KeyID:          s.gateway.KeyID(),
		UserName:       user.Name,
		UserEmail:      user.Email,
		TrialDays:      q.plan.TrialDays,
		ShortURL:       remote.ShortURL,
	}, nil
}

// ValidateCoupon evaluates a code against an amount without side effects.
func (s *SubscriptionService) ValidateCoupon(req *dto.ValidateCouponRequest) (*dto.ValidateCouponResponse, error) {
	res, err := pricing.ApplyCoupon(req.CouponCode, decimal.NewFromFloat(req.PlanAmount))
	if err != nil {
		return &dto.ValidateCouponResponse{Valid: false, Error: err.Error()}, err
	}
	return &dto.ValidateCouponResponse{
		Valid:          true,
		Discount:       res.Coupon.Value.InexactFloat64(),
		DiscountType:   string(res.Coupon.Type),
		DiscountAmount: res.DiscountAmount.InexactFloat64(),
		FinalAmount:    res.FinalAmount.InexactFloat64(),
	}, nil
}

// Cancel asks the gateway to stop the subscription at the end of the current
// period and stamps cancelled_at. Status moves when the gateway's
// subscription.cancelled webhook arrives.
func (s *SubscriptionService) Cancel(ctx context.Context, userID uuid.UUID, subscriptionID string) (*dto.CancelSubscriptionResponse, error) {
	sub, err := s.repo.GetSubscriptionByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	if !sub.IsRecurring() {
		return nil, ErrNotRecurring
	}
	if *sub.RazorpaySubscriptionID != subscriptionID {
		return nil, ErrNoSubscription
	}
	if sub.IsTerminal() {
		return nil, ErrAlreadyCancelled
	}

	if _, err := s.gateway.CancelSubscription(ctx, subscriptionID, true); err != nil {
		return nil, fmt.Errorf("cancel gateway subscription: %w", err)
	}

	now := s.now().UTC()
	sub.CancelledAt = &now
	meta := models.DecodeJSONMap(sub.Metadata)
	meta["cancel_at_cycle_end"] = true
	sub.Metadata = models.JSONMap(meta)
	if err := s.repo.SaveSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("save subscription: %w", err)
	}

	slog.Info("subscription cancellation requested", "user_id", userID.String(), "subscription_id", subscriptionID)

	return &dto.CancelSubscriptionResponse{
		Success:     true,
		CancelledAt: now,
		Message:     "Subscription will be cancelled at the end of the current billing period",
	}, nil
}

// GetSubscription reports the caller's row and what it entitles them to.
func (s *SubscriptionService) GetSubscription(ctx context.Context, userID uuid.UUID) (*dto.SubscriptionStatusResponse, error) {
	sub, err := s.repo.GetSubscriptionByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		free := string(pricing.TierFree)
		return &dto.SubscriptionStatusResponse{Status: free, Tier: free, EffectiveTier: free}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	entitled := sub.Entitles(s.now())
	effective := string(pricing.TierFree)
	if entitled {
		effective = sub.Tier
	}

	start, end := sub.CurrentPeriodStart, sub.CurrentPeriodEnd
	return &dto.SubscriptionStatusResponse{
		Status:             sub.Status,
		Tier:               sub.Tier,
		EffectiveTier:      effective,
		Entitled:           entitled,
		PlanID:             sub.PlanID,
		BillingCycle:       sub.BillingCycle,
		TrialActive:        sub.TrialActive,
		CurrentPeriodStart: &start,
		CurrentPeriodEnd:   &end,
		NextBillingAt:      sub.NextBillingAt,
		CancelledAt:        sub.CancelledAt,
	}, nil
}
