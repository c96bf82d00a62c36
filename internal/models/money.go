package models

import (
	"encoding/json"
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// CentsInRange reports whether amount converts to int64 cents without overflow
func CentsInRange(amount decimal.Decimal) bool {
	cents := amount.Mul(hundred).Round(0)
	return cents.LessThanOrEqual(maxCents) && cents.GreaterThanOrEqual(minCents)
}

// ToCents converts a decimal amount to integer minor units, rounding half away from zero
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromCents converts integer minor units back to a decimal amount
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// centsJSON renders cents as a bare JSON number with two decimals, e.g. 1999.99
func centsJSON(cents int64) json.Number {
	return json.Number(FromCents(cents).StringFixed(2))
}
