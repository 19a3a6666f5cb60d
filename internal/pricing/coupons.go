package pricing

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFlat       DiscountType = "flat"
)

var (
	ErrInvalidCoupon      = errors.New("invalid coupon code")
	ErrCouponMinimumSpend = errors.New("plan amount is below the coupon minimum")
)

// Coupon amounts (flat value, cap, minimum) are in the settlement currency.
type Coupon struct {
	Code        string
	Type        DiscountType
	Value       decimal.Decimal
	MaxDiscount decimal.Decimal // zero means uncapped
	MinAmount   decimal.Decimal
	Description string
}

var coupons = map[string]Coupon{
	"SAVE20": {
		Code:        "SAVE20",
		Type:        DiscountPercentage,
		Value:       decimal.NewFromInt(20),
		MaxDiscount: decimal.NewFromInt(1000),
		Description: "20% off",
	},
	"WELCOME10": {
		Code:        "WELCOME10",
		Type:        DiscountPercentage,
		Value:       decimal.NewFromInt(10),
		MaxDiscount: decimal.NewFromInt(200),
		Description: "10% off your first plan",
	},
	"LAUNCH50": {
		Code:        "LAUNCH50",
		Type:        DiscountPercentage,
		Value:       decimal.NewFromInt(50),
		MaxDiscount: decimal.NewFromInt(500),
		MinAmount:   decimal.NewFromInt(499),
		Description: "Half price launch offer",
	},
	"FLAT100": {
		Code:        "FLAT100",
		Type:        DiscountFlat,
		Value:       decimal.NewFromInt(100),
		Description: "100 off",
	},
}

type CouponResult struct {
	Coupon         Coupon
	OriginalAmount decimal.Decimal
	DiscountAmount decimal.Decimal
	FinalAmount    decimal.Decimal
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func LookupCoupon(code string) (Coupon, bool) {
	c, ok := coupons[normalizeCode(code)]
	return c, ok
}

// ApplyCoupon computes the discount for amount. The discount never exceeds
// the cap nor the amount itself, so the final amount is never negative.
func ApplyCoupon(code string, amount decimal.Decimal) (CouponResult, error) {
	c, ok := LookupCoupon(code)
	if !ok {
		return CouponResult{}, ErrInvalidCoupon
	}
	if amount.LessThan(c.MinAmount) {
		return CouponResult{}, ErrCouponMinimumSpend
	}

	var discount decimal.Decimal
	switch c.Type {
	case DiscountPercentage:
		discount = amount.Mul(c.Value).Div(hundred)
		if c.MaxDiscount.IsPositive() && discount.GreaterThan(c.MaxDiscount) {
			discount = c.MaxDiscount
		}
	case DiscountFlat:
		discount = c.Value
	}

	discount = RoundMoney(decimal.Min(discount, amount))
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	final := decimal.Max(amount.Sub(discount), decimal.Zero)

	return CouponResult{
		Coupon:         c,
		OriginalAmount: amount,
		DiscountAmount: discount,
		FinalAmount:    RoundMoney(final),
	}, nil
}
