package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	p, err := Lookup(RegionROW, TierPremium, CycleMonthly)
	require.NoError(t, err)

	assert.Equal(t, "premium_monthly_row", p.ID)
	assert.Equal(t, CurrencyUSD, p.Currency)
	assert.Equal(t, "14.99", p.Price.String())
	assert.Equal(t, 7, p.TrialDays)

	p, err = Lookup(RegionIndia, TierUltimate, CycleAnnual)
	require.NoError(t, err)
	assert.Equal(t, CurrencyINR, p.Currency)
	assert.Equal(t, "9590", p.Price.String())
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup(RegionIndia, TierFree, CycleMonthly)
	assert.ErrorIs(t, err, ErrUnknownPlan)

	_, err = Lookup(RegionIndia, TierPremium, BillingCycle("weekly"))
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestLimits(t *testing.T) {
	for _, f := range Features {
		assert.Equal(t, 0, LimitFor(TierFree, f), "free tier must gate %s", f)
		assert.Equal(t, Unlimited, LimitFor(TierUltimate, f))
	}
	assert.Equal(t, 0, LimitFor(Tier("bogus"), FeatureCoverLetter))

	limits := LimitsFor(TierPremium)
	limits[FeatureCoverLetter] = 9999
	assert.Equal(t, 40, LimitFor(TierPremium, FeatureCoverLetter), "LimitsFor must return a copy")
}

func TestPlansForRegion(t *testing.T) {
	plans := PlansForRegion(RegionIndia)
	require.Len(t, plans, 6)

	assert.Equal(t, TierProfessional, plans[0].Tier)
	assert.Equal(t, CycleMonthly, plans[0].Cycle)
	assert.Equal(t, CycleAnnual, plans[5].Cycle)
	assert.Equal(t, TierUltimate, plans[5].Tier)
}

func TestParsers(t *testing.T) {
	r, ok := ParseRegion(" INDIA ")
	assert.True(t, ok)
	assert.Equal(t, RegionIndia, r)

	_, ok = ParseRegion("eu")
	assert.False(t, ok)

	_, ok = ParseCycle("weekly")
	assert.False(t, ok)

	f, ok := ParseFeature("cover_letter")
	assert.True(t, ok)
	assert.Equal(t, FeatureCoverLetter, f)
}

func TestPeriodEnd(t *testing.T) {
	start := time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC), PeriodEnd(start, CycleMonthly))
	assert.Equal(t, time.Date(2026, 1, 31, 8, 0, 0, 0, time.UTC), PeriodEnd(start, CycleAnnual))
}

func TestMoney(t *testing.T) {
	assert.Equal(t, int64(1334), Convert(d("14.99"), 89).IntPart())
	assert.Equal(t, int64(133400), ToSubunits(d("1334")))
	assert.Equal(t, int64(1999), ToSubunits(d("19.99")))
	assert.Equal(t, "499.5", FromSubunits(49950).String())
}
