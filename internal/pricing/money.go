package pricing

import "github.com/shopspring/decimal"

// Rounding policy: money is carried as decimal major units; display and
// discount amounts are rounded half-up to two places, converted charges to
// whole units, and subunits (paise/cents) are derived exactly from those.

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds to two decimal places, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// RoundWhole rounds to the nearest whole currency unit.
func RoundWhole(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// ToSubunits converts major units to the integer amount gateways expect.
func ToSubunits(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromSubunits converts a gateway amount back to major units.
func FromSubunits(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}

// Convert multiplies an amount by a rate and rounds to whole units.
func Convert(amount decimal.Decimal, rate float64) decimal.Decimal {
	return RoundWhole(amount.Mul(decimal.NewFromFloat(rate)))
}
