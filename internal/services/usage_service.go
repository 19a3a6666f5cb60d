package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/dto"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/pricing"
	"github.com/ahmetcoskunkizilkaya/resume-billing/internal/repository"
	"github.com/google/uuid"
)

var (
	ErrUsageLimitReached = errors.New("usage limit reached for this billing period")
	ErrUnknownFeature    = errors.New("unknown feature type")
)

// UsageService gates features on the caller's tier and per-period counters.
// Check and increment are separate calls, so two concurrent requests can
// both pass the check; the overshoot is tolerated as a soft limit.
type UsageService struct {
	repo repository.Repository
	now  func() time.Time
}

func NewUsageService(repo repository.Repository) *UsageService {
	return &UsageService{repo: repo, now: time.Now}
}

// entitlement is the tier and counting window a user is currently on.
type entitlement struct {
	tier        pricing.Tier
	periodStart time.Time
	periodEnd   time.Time
}

func (s *UsageService) resolve(ctx context.Context, userID uuid.UUID) (entitlement, error) {
	free := entitlement{tier: pricing.TierFree}

	sub, err := s.repo.GetSubscriptionByUser(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return free, nil
	}
	if err != nil {
		return free, fmt.Errorf("load subscription: %w", err)
	}
	if !sub.Entitles(s.now()) {
		return free, nil
	}

	tier, ok := pricing.ParseTier(sub.Tier)
	if !ok {
		return free, nil
	}
	return entitlement{
		tier:        tier,
		periodStart: sub.CurrentPeriodStart,
		periodEnd:   sub.CurrentPeriodEnd,
	}, nil
}

// CheckUsageLimit reports whether the user may invoke feature once more in
// the current period.
func (s *UsageService) CheckUsageLimit(ctx context.Context, userID uuid.UUID, feature pricing.FeatureType) (bool, error) {
	ent, err := s.resolve(ctx, userID)
	if err != nil {
		return false, err
	}

	limit := pricing.LimitFor(ent.tier, feature)
	switch {
	case limit == pricing.Unlimited:
		metrics.RecordUsageCheck(string(feature), true)
		return true, nil
	case limit <= 0:
		metrics.RecordUsageCheck(string(feature), false)
		return false, nil
	}

	count, err := s.repo.GetUsageCount(ctx, userID, string(feature), ent.periodStart)
	if err != nil {
		return false, fmt.Errorf("load usage: %w", err)
	}

	allowed := count < limit
	metrics.RecordUsageCheck(string(feature), allowed)
	return allowed, nil
}

// IncrementUsage records one successful use. Call it only after the gated
// action completed.
func (s *UsageService) IncrementUsage(ctx context.Context, userID uuid.UUID, feature pricing.FeatureType) error {
	ent, err := s.resolve(ctx, userID)
	if err != nil {
		return err
	}
	if ent.tier == pricing.TierFree {
		return nil
	}
	return s.repo.IncrementUsage(ctx, userID, string(feature), ent.periodStart, ent.periodEnd)
}

func (s *UsageService) Summary(ctx context.Context, userID uuid.UUID) (*dto.UsageSummaryResponse, error) {
	ent, err := s.resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.UsageSummaryResponse{
		Tier:     string(ent.tier),
		Features: make(map[string]dto.FeatureUsage, len(pricing.Features)),
	}

	used := make(map[string]int)
	if ent.tier != pricing.TierFree {
		start, end := ent.periodStart, ent.periodEnd
		resp.PeriodStart, resp.PeriodEnd = &start, &end

		counters, err := s.repo.ListUsage(ctx, userID, ent.periodStart)
		if err != nil {
			return nil, fmt.Errorf("load usage: %w", err)
		}
		for _, c := range counters {
			used[c.FeatureType] = c.UsageCount
		}
	}

	for _, f := range pricing.Features {
		limit := pricing.LimitFor(ent.tier, f)
		u := dto.FeatureUsage{Used: used[string(f)], Limit: limit}
		if limit == pricing.Unlimited {
			u.Unlimited = true
			u.Remaining = -1
		} else if u.Used < limit {
			u.Remaining = limit - u.Used
		}
		resp.Features[string(f)] = u
	}
	return resp, nil
}
