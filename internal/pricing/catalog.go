// Package pricing holds the static plan catalog, per-tier feature limits,
// coupon table and the money rounding rules shared by checkout.
package pricing

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Region string

const (
	RegionIndia Region = "india"
	RegionROW   Region = "row"
)

type Tier string

const (
	TierFree         Tier = "free"
	TierProfessional Tier = "professional"
	TierPremium      Tier = "premium"
	TierUltimate     Tier = "ultimate"
)

type BillingCycle string

const (
	CycleMonthly BillingCycle = "monthly"
	CycleAnnual  BillingCycle = "annual"
)

type FeatureType string

const (
	FeatureAICustomization FeatureType = "ai_customization"
	FeatureInterviewPrep   FeatureType = "interview_prep"
	FeatureJobMatching     FeatureType = "job_matching"
	FeatureCoverLetter     FeatureType = "cover_letter"
)

// Unlimited is the limit sentinel for features without a quota.
const Unlimited = -1

const (
	CurrencyINR = "INR"
	CurrencyUSD = "USD"
)

var ErrUnknownPlan = errors.New("unknown plan")

// Features lists every gated feature in display order.
var Features = []FeatureType{
	FeatureAICustomization,
	FeatureInterviewPrep,
	FeatureJobMatching,
	FeatureCoverLetter,
}

type Limits map[FeatureType]int

type Plan struct {
	ID        string          `json:"id"`
	Region    Region          `json:"region"`
	Tier      Tier            `json:"tier"`
	Cycle     BillingCycle    `json:"billing_cycle"`
	Price     decimal.Decimal `json:"price"`
	Currency  string          `json:"currency"`
	TrialDays int             `json:"trial_days"`
	Limits    Limits          `json:"limits"`
}

var tierLimits = map[Tier]Limits{
	TierFree: {
		FeatureAICustomization: 0,
		FeatureInterviewPrep:   0,
		FeatureJobMatching:     0,
		FeatureCoverLetter:     0,
	},
	TierProfessional: {
		FeatureAICustomization: 15,
		FeatureInterviewPrep:   5,
		FeatureJobMatching:     20,
		FeatureCoverLetter:     10,
	},
	TierPremium: {
		FeatureAICustomization: 50,
		FeatureInterviewPrep:   25,
		FeatureJobMatching:     Unlimited,
		FeatureCoverLetter:     40,
	},
	TierUltimate: {
		FeatureAICustomization: Unlimited,
		FeatureInterviewPrep:   Unlimited,
		FeatureJobMatching:     Unlimited,
		FeatureCoverLetter:     Unlimited,
	},
}

var trialDays = map[Tier]int{
	TierProfessional: 0,
	TierPremium:      7,
	TierUltimate:     14,
}

type priceRow struct {
	monthly string
	annual  string
}

// India rows are in INR, rest-of-world rows in USD.
var prices = map[Region]map[Tier]priceRow{
	RegionIndia: {
		TierProfessional: {monthly: "299", annual: "2870"},
		TierPremium:      {monthly: "499", annual: "4790"},
		TierUltimate:     {monthly: "999", annual: "9590"},
	},
	RegionROW: {
		TierProfessional: {monthly: "9.99", annual: "95.90"},
		TierPremium:      {monthly: "14.99", annual: "143.90"},
		TierUltimate:     {monthly: "29.99", annual: "287.90"},
	},
}

func ParseRegion(s string) (Region, bool) {
	r := Region(strings.ToLower(strings.TrimSpace(s)))
	_, ok := prices[r]
	return r, ok
}

func ParseTier(s string) (Tier, bool) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	_, ok := tierLimits[t]
	return t, ok
}

func ParseCycle(s string) (BillingCycle, bool) {
	c := BillingCycle(strings.ToLower(strings.TrimSpace(s)))
	return c, c == CycleMonthly || c == CycleAnnual
}

// PeriodEnd is the end of one billing cycle starting at start.
func PeriodEnd(start time.Time, cycle BillingCycle) time.Time {
	if cycle == CycleAnnual {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

func ParseFeature(s string) (FeatureType, bool) {
	f := FeatureType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := tierLimits[TierFree][f]
	return f, ok
}

// PlanID is the local catalog identifier stored on subscriptions.
func PlanID(region Region, tier Tier, cycle BillingCycle) string {
	return fmt.Sprintf("%s_%s_%s", tier, cycle, region)
}

// Lookup resolves the canonical catalog row. Client-submitted prices are
// never consulted.
func Lookup(region Region, tier Tier, cycle BillingCycle) (Plan, error) {
	row, ok := prices[region][tier]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %s/%s/%s", ErrUnknownPlan, region, tier, cycle)
	}

	var raw string
	switch cycle {
	case CycleMonthly:
		raw = row.monthly
	case CycleAnnual:
		raw = row.annual
	default:
		return Plan{}, fmt.Errorf("%w: %s/%s/%s", ErrUnknownPlan, region, tier, cycle)
	}

	currency := CurrencyINR
	if region == RegionROW {
		currency = CurrencyUSD
	}

	return Plan{
		ID:        PlanID(region, tier, cycle),
		Region:    region,
		Tier:      tier,
		Cycle:     cycle,
		Price:     decimal.RequireFromString(raw),
		Currency:  currency,
		TrialDays: trialDays[tier],
		Limits:    LimitsFor(tier),
	}, nil
}

// PlansForRegion returns the paid catalog for a region, cheapest first.
func PlansForRegion(region Region) []Plan {
	var out []Plan
	for tier := range prices[region] {
		for _, cycle := range []BillingCycle{CycleMonthly, CycleAnnual} {
			if p, err := Lookup(region, tier, cycle); err == nil {
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cycle != out[j].Cycle {
			return out[i].Cycle == CycleMonthly
		}
		return out[i].Price.LessThan(out[j].Price)
	})
	return out
}

// LimitsFor returns a copy of the tier's limits; unknown tiers get the free limits.
func LimitsFor(tier Tier) Limits {
	src, ok := tierLimits[tier]
	if !ok {
		src = tierLimits[TierFree]
	}
	out := make(Limits, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// LimitFor returns the feature quota for a tier (Unlimited means no quota).
func LimitFor(tier Tier, feature FeatureType) int {
	limits, ok := tierLimits[tier]
	if !ok {
		limits = tierLimits[TierFree]
	}
	return limits[feature]
}
