// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/shopspring/decimal"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val decimal.Decimal) decimal.Decimal {
	return val.Round(constants.DecimalPlaces)
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2 decimal.Decimal, tolerance float64) bool {
	return val1.Sub(val2).Abs().LessThanOrEqual(decimal.NewFromFloat(tolerance))
}

// FloatWithinTolerance is WithinTolerance for plain rates.
func FloatWithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Sum adds up all values, returning zero for an empty list.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// ApplyRate multiplies an amount by a fractional rate and rounds to cents.
func ApplyRate(amount decimal.Decimal, rate float64) decimal.Decimal {
	return Round(amount.Mul(decimal.NewFromFloat(rate)))
}

// CalculatePercentage calculates what percentage value is of total
func CalculatePercentage(value, total decimal.Decimal) float64 {
	if total.IsZero() {
		return 0
	}
	return value.Div(total).InexactFloat64() * constants.PercentageMultiplier
}
