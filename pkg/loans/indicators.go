package loans

import (
	"context"
	"math"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// IRROptions bounds the root search of the internal rate of return.
type IRROptions struct {
	Tolerance     float64
	MaxIterations int
}

func (o IRROptions) withDefaults() IRROptions {
	if o.Tolerance <= 0 {
		o.Tolerance = constants.DefaultIRRTolerance
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = constants.DefaultIRRMaxIterations
	}
	return o
}

// NPV evaluates the net present value of a flow series at a periodic rate,
// with flows[0] undiscounted.
func NPV(rate float64, flows []float64) float64 {
	total := 0.0
	discount := 1.0
	for _, flow := range flows {
		if flow != 0 {
			total += flow / discount
		}
		discount *= 1 + rate
	}
	return total
}

func npvDerivative(rate float64, flows []float64) float64 {
	total := 0.0
	for t := 1; t < len(flows); t++ {
		total -= float64(t) * flows[t] / math.Pow(1+rate, float64(t+1))
	}
	return total
}

// IRR finds the periodic rate at which the flow series has zero net present
// value. Newton-Raphson starts from guess; when it diverges the root is
// bracketed and bisected. The iteration budget covers both phases.
func IRR(ctx context.Context, flows []float64, guess float64, opts IRROptions) (float64, error) {
	opts = opts.withDefaults()

	if !hasSignChange(flows) {
		return 0, &ConvergenceError{Motivo: "el flujo de caja no cambia de signo"}
	}

	// Steep period rates, e.g. annual installments on a very high TEA, can
	// sit above the fixed bound.
	upper := max(constants.IRRUpperBound, 2*guess+1)

	iterations := 0
	rate := guess
	for iterations < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return 0, &ConvergenceError{Iteraciones: iterations, Motivo: "cancelado", Err: err}
		}
		iterations++

		value := NPV(rate, flows)
		slope := npvDerivative(rate, flows)
		if slope == 0 || math.IsNaN(slope) || math.IsInf(slope, 0) {
			break
		}
		next := rate - value/slope
		if math.IsNaN(next) || next <= constants.IRRLowerBound || next >= upper {
			break
		}
		if mathutil.FloatWithinTolerance(next, rate, opts.Tolerance) {
			return next, nil
		}
		rate = next
	}

	low, high := constants.IRRLowerBound, upper
	fLow := NPV(low, flows)
	fHigh := NPV(high, flows)
	if math.IsNaN(fLow) || math.IsNaN(fHigh) || fLow*fHigh > 0 {
		return 0, &ConvergenceError{Iteraciones: iterations, Motivo: "no se encontró una raíz en el intervalo de búsqueda"}
	}

	for iterations < opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return 0, &ConvergenceError{Iteraciones: iterations, Motivo: "cancelado", Err: err}
		}
		iterations++

		mid := (low + high) / 2
		fMid := NPV(mid, flows)
		if fMid == 0 || (high-low)/2 < opts.Tolerance {
			return mid, nil
		}
		if fLow*fMid < 0 {
			high = mid
		} else {
			low, fLow = mid, fMid
		}
	}

	return 0, &ConvergenceError{Iteraciones: iterations, Motivo: "se alcanzó el máximo de iteraciones"}
}

func hasSignChange(flows []float64) bool {
	positive, negative := false, false
	for _, flow := range flows {
		if flow > 0 {
			positive = true
		} else if flow < 0 {
			negative = true
		}
	}
	return positive && negative
}

// NetPresentValue discounts the flow series at the period equivalent of the
// annual effective opportunity cost cok. A zero cok disables the indicator.
func NetPresentValue(flows []decimal.Decimal, cok float64, periodMonths int) decimal.Decimal {
	if cok == 0 || len(flows) == 0 {
		return decimal.Zero
	}
	rate := EffectiveToPeriod(cok, periodMonths)

	total := decimal.Zero
	for t, flow := range flows {
		factor := math.Pow(1+rate, -float64(t))
		total = total.Add(flow.Mul(decimal.NewFromFloat(factor)))
	}
	return mathutil.Round(total)
}

func toFloats(flows []decimal.Decimal) []float64 {
	out := make([]float64, len(flows))
	for i, flow := range flows {
		out[i] = flow.InexactFloat64()
	}
	return out
}
