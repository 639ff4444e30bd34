package loans

import (
	"context"

	"github.com/iwvelando/mortgage-simulator/pkg/datetime"
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Options tune the numerical parts of the engine.
type Options struct {
	IRR IRROptions
}

// Engine simulates mortgage loans. It holds no mutable state, so a single
// instance may serve concurrent simulations.
type Engine struct {
	logger *zap.Logger
	opts   Options
}

// NewEngine creates a new engine instance
func NewEngine(logger *zap.Logger, opts Options) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.IRR = opts.IRR.withDefaults()
	return &Engine{logger: logger, opts: opts}
}

// Simulate validates the request, builds the installment schedule and derives
// the financial indicators. Identical requests produce identical results.
func (e *Engine) Simulate(ctx context.Context, req LoanRequest) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := resolveTerms(req)
	if err != nil {
		e.logger.Debug("rejected loan request",
			zap.String("op", "loans.Simulate"),
			zap.Error(err),
		)
		return nil, err
	}

	cuotas, cuotaBase := buildSchedule(req.Cargos, t)

	if req.FechaInicio != "" {
		dates, err := datetime.PaymentDates(req.FechaInicio, t.periodMonths, len(cuotas))
		if err != nil {
			return nil, invalid("fecha_inicio", "%s", err.Error())
		}
		for i := range cuotas {
			cuotas[i].FechaPago = dates[i]
		}
	}

	flows := make([]decimal.Decimal, 0, len(cuotas)+1)
	flows = append(flows, t.flujoInicial)
	for _, c := range cuotas {
		flows = append(flows, c.Flujo)
	}

	tir, err := IRR(ctx, toFloats(flows), t.periodRate, e.opts.IRR)
	if err != nil {
		e.logger.Warn("internal rate of return did not converge",
			zap.String("op", "loans.Simulate"),
			zap.Error(err),
		)
		return nil, err
	}

	result := &Result{
		Plan:   summarize(req, t, cuotas, cuotaBase),
		Cuotas: cuotas,
		Indicadores: Indicadores{
			TCEA: PeriodToEffective(tir, t.periodMonths),
			TIR:  tir,
			VAN:  NetPresentValue(flows, req.Cok, t.periodMonths),
			TEA:  t.tea,
		},
		FlujoInicial: t.flujoInicial,
	}

	e.logger.Debug("simulation computed",
		zap.String("op", "loans.Simulate"),
		zap.String("monto_prestamo", t.montoPrestamo.StringFixed(2)),
		zap.Int("total_cuotas", t.totalCuotas),
		zap.Float64("tcea", result.Indicadores.TCEA),
	)

	return result, nil
}

// buildSchedule runs the grace window and then a French amortization over the
// remaining periods. Every amount is rounded to cents as it is produced and the
// final installment amortizes whatever balance is left.
func buildSchedule(cargos Cargos, t terms) ([]Cuota, decimal.Decimal) {
	seguroRiesgo := mathutil.Round(cargos.SeguroRiesgo)
	comision := mathutil.Round(cargos.Comision)
	portes := mathutil.Round(cargos.Portes)
	gastos := mathutil.Round(cargos.GastosAdministrativos)

	cuotas := make([]Cuota, 0, t.totalCuotas)
	saldo := t.montoPrestamo
	cuotaBase := decimal.Zero

	for k := 1; k <= t.totalCuotas; k++ {
		c := Cuota{
			Numero:                k,
			TipoGracia:            eligibility.SinGracia,
			SaldoInicial:          saldo,
			Interes:               CalculateInterestPayment(saldo, t.periodRate),
			SeguroDesgravamen:     CalculateDesgravamen(saldo, t.montoPrestamo, cargos.SeguroDesgravamen, cargos.DesgravamenBase),
			SeguroRiesgo:          seguroRiesgo,
			Comision:              comision,
			Portes:                portes,
			GastosAdministrativos: gastos,
			Amortizacion:          decimal.Zero,
			Cuota:                 decimal.Zero,
		}

		switch {
		case k <= t.graceCuotas && t.graceTipo == eligibility.GraciaTotal:
			// Interest is capitalized and nothing is paid towards the loan.
			c.TipoGracia = eligibility.GraciaTotal
			saldo = saldo.Add(c.Interes)
		case k <= t.graceCuotas && t.graceTipo == eligibility.GraciaParcial:
			c.TipoGracia = eligibility.GraciaParcial
			c.Cuota = c.Interes
		default:
			if k == t.graceCuotas+1 {
				cuotaBase = CalculatePeriodicPayment(saldo, t.periodRate, t.totalCuotas-t.graceCuotas)
			}
			c.Amortizacion = cuotaBase.Sub(c.Interes)
			if k == t.totalCuotas || c.Amortizacion.GreaterThan(saldo) {
				c.Amortizacion = saldo
			}
			c.Cuota = c.Interes.Add(c.Amortizacion)
			saldo = saldo.Sub(c.Amortizacion)
		}

		c.SaldoFinal = saldo
		c.Flujo = c.Cuota.Add(c.Cargos()).Neg()
		cuotas = append(cuotas, c)
	}

	return cuotas, cuotaBase
}

func summarize(req LoanRequest, t terms, cuotas []Cuota, cuotaBase decimal.Decimal) Plan {
	plan := Plan{
		Moneda:           t.moneda,
		PrecioVenta:      req.PrecioVenta,
		CuotaInicial:     req.CuotaInicial,
		BonoAplicable:    t.bono,
		MontoPrestamo:    t.montoPrestamo,
		NumAnios:         req.NumAnios,
		TotalCuotas:      len(cuotas),
		FrecuenciaPago:   req.FrecuenciaPago,
		TipoTasa:         req.TipoTasa,
		TasaInteresAnual: req.TasaInteresAnual,
		Capitalizacion:   req.Capitalizacion,
		TasaPeriodo:      t.periodRate,
		TipoGracia:       t.graceTipo,
		MesesGracia:      req.PeriodoGracia.Meses,
		Cok:              req.Cok,
		CuotaBase:        cuotaBase,
		CostosIniciales:  mathutil.Round(req.Cargos.CostosIniciales),
	}

	for _, c := range cuotas {
		plan.TotalIntereses = plan.TotalIntereses.Add(c.Interes)
		plan.TotalAmortizacion = plan.TotalAmortizacion.Add(c.Amortizacion)
		plan.TotalCargos = plan.TotalCargos.Add(c.Cargos())
		plan.TotalPagado = plan.TotalPagado.Sub(c.Flujo)
	}
	return plan
}
