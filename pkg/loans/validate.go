package loans

import (
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/datetime"
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// terms are the request parameters resolved for scheduling.
type terms struct {
	periodMonths   int
	periodsPerYear int
	totalCuotas    int
	graceCuotas    int
	graceTipo      eligibility.TipoGracia
	tea            float64
	periodRate     float64
	moneda         string
	bono           decimal.Decimal
	montoPrestamo  decimal.Decimal
	flujoInicial   decimal.Decimal
}

// resolveTerms validates the request and derives the scheduling terms. No
// schedule is built when an error is returned.
func resolveTerms(req LoanRequest) (terms, error) {
	var t terms

	if !req.PrecioVenta.IsPositive() {
		return t, invalid("precio_venta", "debe ser mayor que cero")
	}
	if req.CuotaInicial.IsNegative() {
		return t, invalid("cuota_inicial", "no puede ser negativa")
	}
	if req.CuotaInicial.GreaterThanOrEqual(req.PrecioVenta) {
		return t, invalid("cuota_inicial", "debe ser menor que el precio de venta (%s >= %s)",
			req.CuotaInicial.StringFixed(2), req.PrecioVenta.StringFixed(2))
	}
	if req.NumAnios <= 0 {
		return t, invalid("num_anios", "debe ser mayor que cero")
	}
	if req.NumAnios > constants.MaxNumAnios {
		return t, invalid("num_anios", "no puede exceder %d años", constants.MaxNumAnios)
	}

	periodMonths, ok := req.FrecuenciaPago.Meses()
	if !ok {
		return t, invalid("frecuencia_pago", "frecuencia desconocida %q", req.FrecuenciaPago)
	}
	t.periodMonths = periodMonths
	t.periodsPerYear = constants.MonthsPerYear / periodMonths
	t.totalCuotas = req.NumAnios * t.periodsPerYear

	if req.TasaInteresAnual < 0 {
		return t, invalid("tasa_interes_anual", "no puede ser negativa")
	}
	tea, err := AnnualEffectiveRate(req.TipoTasa, req.TasaInteresAnual, req.Capitalizacion)
	if err != nil {
		return t, err
	}
	t.tea = tea
	t.periodRate = EffectiveToPeriod(tea, periodMonths)

	if err := resolveGrace(req, &t); err != nil {
		return t, err
	}
	if err := validateCargos(req.Cargos); err != nil {
		return t, err
	}
	if req.Cok < 0 {
		return t, invalid("cok", "no puede ser negativo")
	}
	if req.FechaInicio != "" {
		if err := datetime.ValidateDate(req.FechaInicio); err != nil {
			return t, invalid("fecha_inicio", "%s", err.Error())
		}
	}

	bono, err := resolveBono(req)
	if err != nil {
		return t, err
	}
	t.bono = bono

	return t, resolvePrincipal(req, &t)
}

func resolveGrace(req LoanRequest, t *terms) error {
	tipo := req.PeriodoGracia.Tipo
	if tipo == "" {
		tipo = eligibility.SinGracia
	}
	meses := req.PeriodoGracia.Meses

	if decision := req.Gracia.Check(tipo, meses); !decision.Eligible {
		return invalid("periodo_gracia", "%s", decision.Reason)
	}
	if meses%t.periodMonths != 0 {
		return invalid("periodo_gracia", "los meses de gracia (%d) deben ser múltiplo de %d para la frecuencia %s",
			meses, t.periodMonths, req.FrecuenciaPago)
	}
	t.graceTipo = tipo
	t.graceCuotas = meses / t.periodMonths
	if t.graceCuotas >= t.totalCuotas {
		return invalid("periodo_gracia", "el periodo de gracia (%d cuotas) consume todo el plazo (%d cuotas)",
			t.graceCuotas, t.totalCuotas)
	}
	return nil
}

func validateCargos(c Cargos) error {
	if c.SeguroDesgravamen < 0 {
		return invalid("seguro_desgravamen", "la tasa no puede ser negativa")
	}
	switch c.DesgravamenBase {
	case "", DesgravamenSaldo, DesgravamenInicial:
	default:
		return invalid("desgravamen_base", "debe ser SALDO o INICIAL, se recibió %q", c.DesgravamenBase)
	}
	amounts := []struct {
		campo string
		valor decimal.Decimal
	}{
		{"seguro_riesgo", c.SeguroRiesgo},
		{"comision", c.Comision},
		{"portes", c.Portes},
		{"gastos_administrativos", c.GastosAdministrativos},
		{"costos_iniciales", c.CostosIniciales},
	}
	for _, a := range amounts {
		if a.valor.IsNegative() {
			return invalid(a.campo, "no puede ser negativo")
		}
	}
	return nil
}

func resolveBono(req LoanRequest) (decimal.Decimal, error) {
	bono := req.BonoAplicable
	if bono.Monto.IsNegative() {
		return decimal.Zero, invalid("bono_aplicable", "no puede ser negativo")
	}
	if bono.Solicitado && !bono.Monto.IsPositive() {
		return decimal.Zero, invalid("bono_aplicable", "se solicitó el bono pero no se resolvió su monto")
	}
	if !bono.Monto.IsPositive() {
		return decimal.Zero, nil
	}
	if req.BonoDecision != nil && !req.BonoDecision.Eligible {
		return decimal.Zero, &EligibilityError{Regla: "bono_techo_propio", Motivo: req.BonoDecision.Reason}
	}
	return bono.Monto, nil
}

func resolvePrincipal(req LoanRequest, t *terms) error {
	t.moneda = req.Moneda
	if t.moneda == "" {
		t.moneda = req.MonedaInmueble
	}
	if t.moneda == "" {
		t.moneda = constants.MonedaSoles
	}
	if !knownCurrency(t.moneda) {
		return invalid("moneda", "moneda desconocida %q", t.moneda)
	}
	if req.MonedaInmueble != "" && !knownCurrency(req.MonedaInmueble) {
		return invalid("moneda_inmueble", "moneda desconocida %q", req.MonedaInmueble)
	}

	financedBase := req.PrecioVenta.Sub(req.CuotaInicial).Sub(t.bono)
	monto, err := ConvertCurrency(financedBase, req.MonedaInmueble, t.moneda, req.TipoCambio)
	if err != nil {
		return err
	}
	monto = mathutil.Round(monto)
	if !monto.IsPositive() {
		return invalid("monto_prestamo", "el monto a financiar debe ser mayor que cero (%s)", monto.StringFixed(2))
	}
	t.montoPrestamo = monto

	t.flujoInicial = mathutil.Round(monto.Sub(req.Cargos.CostosIniciales))
	if !t.flujoInicial.IsPositive() {
		return invalid("costos_iniciales", "los costos iniciales (%s) absorben todo el desembolso",
			req.Cargos.CostosIniciales.StringFixed(2))
	}
	return nil
}

func knownCurrency(moneda string) bool {
	return moneda == constants.MonedaSoles || moneda == constants.MonedaDolares
}
