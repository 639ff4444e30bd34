package loans

import (
	"math"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// NominalToEffective converts a nominal annual rate compounded m times a year
// into its effective annual rate.
func NominalToEffective(tna, m float64) float64 {
	return math.Pow(1+tna/m, m) - 1
}

// EffectiveToPeriod converts an effective annual rate into the effective rate
// of a period spanning periodMonths months.
func EffectiveToPeriod(tea float64, periodMonths int) float64 {
	return math.Pow(1+tea, float64(periodMonths)/constants.MonthsPerYear) - 1
}

// PeriodToEffective is the inverse of EffectiveToPeriod.
func PeriodToEffective(rate float64, periodMonths int) float64 {
	return math.Pow(1+rate, constants.MonthsPerYear/float64(periodMonths)) - 1
}

// AnnualEffectiveRate normalizes the contract rate to an effective annual rate.
func AnnualEffectiveRate(tipo TipoTasa, tasa float64, capitalizacion Capitalizacion) (float64, error) {
	switch tipo {
	case TasaEfectiva:
		return tasa, nil
	case TasaNominal:
		if capitalizacion == "" {
			return 0, invalid("capitalizacion", "es obligatoria para una tasa nominal")
		}
		m, ok := capitalizacion.PorAnio()
		if !ok {
			return 0, invalid("capitalizacion", "frecuencia desconocida %q", capitalizacion)
		}
		return NominalToEffective(tasa, m), nil
	default:
		return 0, invalid("tipo_tasa", "debe ser EFECTIVA o NOMINAL, se recibió %q", tipo)
	}
}

// CalculatePeriodicPayment calculates the level installment of a French
// amortization for the given principal, periodic rate and number of periods.
func CalculatePeriodicPayment(principal decimal.Decimal, periodRate float64, periods int) decimal.Decimal {
	if periods <= 0 {
		return decimal.Zero
	}
	if periodRate == 0 {
		// For zero interest, simply divide the principal by term
		return mathutil.Round(principal.Div(decimal.NewFromInt(int64(periods))))
	}

	factor := periodRate / (1 - math.Pow(1+periodRate, -float64(periods)))
	return mathutil.Round(principal.Mul(decimal.NewFromFloat(factor)))
}

// CalculateInterestPayment calculates the interest accrued on a balance over
// one period.
func CalculateInterestPayment(balance decimal.Decimal, periodRate float64) decimal.Decimal {
	return mathutil.ApplyRate(balance, periodRate)
}

// CalculateDesgravamen calculates the credit life insurance of a period on the
// balance selected by the entity rule.
func CalculateDesgravamen(saldo, montoPrestamo decimal.Decimal, rate float64, base DesgravamenBase) decimal.Decimal {
	if rate == 0 {
		return decimal.Zero
	}
	if base == DesgravamenInicial {
		return mathutil.ApplyRate(montoPrestamo, rate)
	}
	return mathutil.ApplyRate(saldo, rate)
}

// ConvertCurrency converts an amount quoted in one currency into another using
// the soles-per-dollar exchange rate.
func ConvertCurrency(amount decimal.Decimal, from, to string, tipoCambio decimal.Decimal) (decimal.Decimal, error) {
	if from == "" || to == "" || from == to {
		return amount, nil
	}
	if !tipoCambio.IsPositive() {
		return decimal.Zero, invalid("tipo_cambio", "se requiere un tipo de cambio positivo para convertir %s a %s", from, to)
	}
	switch {
	case from == constants.MonedaSoles && to == constants.MonedaDolares:
		return mathutil.Round(amount.Div(tipoCambio)), nil
	case from == constants.MonedaDolares && to == constants.MonedaSoles:
		return mathutil.Round(amount.Mul(tipoCambio)), nil
	default:
		return decimal.Zero, invalid("moneda", "conversión de %s a %s no soportada", from, to)
	}
}
