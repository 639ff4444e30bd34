// Package format renders amounts and rates for human-readable output.
package format

import (
	"strings"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/shopspring/decimal"
)

// Symbol returns the display symbol of a currency code.
func Symbol(moneda string) string {
	switch moneda {
	case constants.MonedaDolares:
		return "US$"
	case constants.MonedaSoles, "":
		return "S/"
	default:
		return moneda
	}
}

// Currency returns a currency string with its symbol and thousands separators (e.g., "-S/ 1,234.56").
func Currency(amount decimal.Decimal, moneda string) string {
	formatted := formatPositiveCurrency(amount.Abs())
	if amount.IsNegative() {
		return "-" + Symbol(moneda) + " " + formatted
	}
	return Symbol(moneda) + " " + formatted
}

// Percent renders a fractional rate as a percentage with the given decimals (e.g., 0.126825 -> "12.68%").
func Percent(rate float64, decimals int32) string {
	return decimal.NewFromFloat(rate * constants.PercentageMultiplier).StringFixed(decimals) + "%"
}

func formatPositiveCurrency(value decimal.Decimal) string {
	formatted := value.StringFixed(constants.DecimalPlaces)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return intPart + "." + decPart
}
