package loans

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/mathutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func intPtr(v int) *int {
	return &v
}

// baseRequest is the reference scenario: 150000 property, 30000 down payment,
// 20 years of monthly installments at a 10% effective annual rate.
func baseRequest() LoanRequest {
	return LoanRequest{
		PrecioVenta:      decimal.NewFromInt(150000),
		CuotaInicial:     decimal.NewFromInt(30000),
		NumAnios:         20,
		FrecuenciaPago:   "mensual",
		TipoTasa:         TasaEfectiva,
		TasaInteresAnual: 0.10,
		PeriodoGracia:    PeriodoGracia{Tipo: eligibility.SinGracia},
	}
}

func simulate(t *testing.T, req LoanRequest) *Result {
	t.Helper()
	result, err := NewEngine(zap.NewNop(), Options{}).Simulate(context.Background(), req)
	require.NoError(t, err)
	return result
}

// assertScheduleInvariants checks the properties every schedule must hold.
func assertScheduleInvariants(t *testing.T, result *Result) {
	t.Helper()
	require.NotEmpty(t, result.Cuotas)

	assert.True(t, result.Cuotas[0].SaldoInicial.Equal(result.Plan.MontoPrestamo),
		"first saldo_inicial %s should equal monto_prestamo %s", result.Cuotas[0].SaldoInicial, result.Plan.MontoPrestamo)

	for i, c := range result.Cuotas {
		assert.Equal(t, i+1, c.Numero)
		if i+1 < len(result.Cuotas) {
			next := result.Cuotas[i+1]
			assert.True(t, c.SaldoFinal.Equal(next.SaldoInicial),
				"cuota %d saldo_final %s != cuota %d saldo_inicial %s", c.Numero, c.SaldoFinal, next.Numero, next.SaldoInicial)
		}
		expectedFlujo := c.Cuota.Add(c.Cargos()).Neg()
		assert.True(t, c.Flujo.Equal(expectedFlujo), "cuota %d flujo %s != %s", c.Numero, c.Flujo, expectedFlujo)
		assert.True(t, inCents(c.Interes, c.Amortizacion, c.Cuota, c.SaldoFinal, c.Flujo),
			"cuota %d has amounts with more than two decimals", c.Numero)
	}

	final := result.Cuotas[len(result.Cuotas)-1]
	assert.True(t, final.SaldoFinal.IsZero(), "final saldo should be exactly zero, got %s", final.SaldoFinal)
	assert.Equal(t, len(result.Cuotas), result.Plan.TotalCuotas)
}

func inCents(values ...decimal.Decimal) bool {
	for _, v := range values {
		if !v.Round(2).Equal(v) {
			return false
		}
	}
	return true
}

func TestSimulateReferenceScenario(t *testing.T) {
	result := simulate(t, baseRequest())
	assertScheduleInvariants(t, result)

	assert.Equal(t, "120000.00", result.Plan.MontoPrestamo.StringFixed(2))
	assert.Equal(t, 240, result.Plan.TotalCuotas)
	assert.InDelta(t, 0.007974, result.Plan.TasaPeriodo, 1e-6)
	assert.Equal(t, "1123.97", result.Plan.CuotaBase.StringFixed(2))
	assert.InDelta(t, 0.10, result.Indicadores.TEA, 1e-12)

	// Without fees the all-in cost equals the contract rate.
	assert.InDelta(t, result.Indicadores.TEA, result.Indicadores.TCEA, 1e-4)
	assert.True(t, result.FlujoInicial.Equal(result.Plan.MontoPrestamo))
	assert.True(t, result.Indicadores.VAN.IsZero(), "van without cok should be zero")

	sumAmortizacion := decimal.Zero
	sumInteres := decimal.Zero
	for _, c := range result.Cuotas {
		sumAmortizacion = sumAmortizacion.Add(c.Amortizacion)
		sumInteres = sumInteres.Add(c.Interes)
		assert.True(t, c.SeguroDesgravamen.IsZero())
	}
	assert.True(t, mathutil.WithinTolerance(sumAmortizacion, result.Plan.MontoPrestamo, constants.CurrencyTolerance))
	assert.True(t, sumInteres.Equal(result.Plan.TotalIntereses))
	assert.True(t, result.Plan.TotalPagado.Equal(sumAmortizacion.Add(sumInteres)))
}

func TestSimulateNominalRate(t *testing.T) {
	req := baseRequest()
	req.TipoTasa = TasaNominal
	req.TasaInteresAnual = 0.12
	req.Capitalizacion = "mensual"

	result := simulate(t, req)
	assertScheduleInvariants(t, result)
	assert.InDelta(t, 0.126825, result.Indicadores.TEA, 1e-6)
	assert.InDelta(t, 0.01, result.Plan.TasaPeriodo, 1e-12)
}

func TestSimulatePaymentFrequencies(t *testing.T) {
	tests := []struct {
		frecuencia Frecuencia
		cuotas     int
	}{
		{"mensual", 240},
		{"bimestral", 120},
		{"trimestral", 80},
		{"cuatrimestral", 60},
		{"semestral", 40},
		{"anual", 20},
	}

	for _, tt := range tests {
		t.Run(string(tt.frecuencia), func(t *testing.T) {
			req := baseRequest()
			req.FrecuenciaPago = tt.frecuencia

			result := simulate(t, req)
			assertScheduleInvariants(t, result)
			assert.Equal(t, tt.cuotas, result.Plan.TotalCuotas)
			assert.InDelta(t, result.Indicadores.TEA, result.Indicadores.TCEA, 1e-4)
		})
	}
}

func TestSimulateTotalGrace(t *testing.T) {
	req := baseRequest()
	req.PeriodoGracia = PeriodoGracia{Tipo: eligibility.GraciaTotal, Meses: 6}

	result := simulate(t, req)
	assertScheduleInvariants(t, result)

	capitalizado := decimal.Zero
	for _, c := range result.Cuotas[:6] {
		assert.Equal(t, eligibility.GraciaTotal, c.TipoGracia)
		assert.True(t, c.Amortizacion.IsZero())
		assert.True(t, c.Cuota.IsZero())
		assert.True(t, c.Interes.IsPositive())
		assert.True(t, c.SaldoFinal.GreaterThan(c.SaldoInicial), "cuota %d should capitalize interest", c.Numero)
		assert.True(t, c.SaldoFinal.Equal(c.SaldoInicial.Add(c.Interes)))
		assert.True(t, c.Flujo.IsZero(), "flujo during total grace carries only charges")
		capitalizado = capitalizado.Add(c.Interes)
	}
	assert.Equal(t, eligibility.SinGracia, result.Cuotas[6].TipoGracia)
	assert.True(t, result.Cuotas[6].Amortizacion.IsPositive())

	sumAmortizacion := decimal.Zero
	for _, c := range result.Cuotas {
		sumAmortizacion = sumAmortizacion.Add(c.Amortizacion)
	}
	assert.True(t, sumAmortizacion.Equal(result.Plan.MontoPrestamo.Add(capitalizado)),
		"amortized %s should equal principal plus capitalized interest", sumAmortizacion)

	// The level installment is recomputed on the grown balance over 234 periods.
	expectedBase := CalculatePeriodicPayment(result.Cuotas[6].SaldoInicial, result.Plan.TasaPeriodo, 234)
	assert.True(t, result.Plan.CuotaBase.Equal(expectedBase))

	// Capitalization keeps the cost of credit at the contract rate.
	assert.InDelta(t, result.Indicadores.TEA, result.Indicadores.TCEA, 1e-4)
}

func TestSimulatePartialGrace(t *testing.T) {
	req := baseRequest()
	req.PeriodoGracia = PeriodoGracia{Tipo: eligibility.GraciaParcial, Meses: 12}

	result := simulate(t, req)
	assertScheduleInvariants(t, result)

	for _, c := range result.Cuotas[:12] {
		assert.Equal(t, eligibility.GraciaParcial, c.TipoGracia)
		assert.True(t, c.SaldoFinal.Equal(c.SaldoInicial))
		assert.True(t, c.Interes.IsPositive())
		assert.True(t, c.Amortizacion.IsZero())
		assert.True(t, c.Cuota.Equal(c.Interes))
		assert.True(t, c.Flujo.Equal(c.Interes.Neg()))
	}
	assert.True(t, result.Cuotas[12].SaldoInicial.Equal(result.Plan.MontoPrestamo))

	sumAmortizacion := decimal.Zero
	for _, c := range result.Cuotas {
		sumAmortizacion = sumAmortizacion.Add(c.Amortizacion)
	}
	assert.True(t, sumAmortizacion.Equal(result.Plan.MontoPrestamo))
}

func TestSimulateGraceAlignedToQuarters(t *testing.T) {
	req := baseRequest()
	req.FrecuenciaPago = "trimestral"
	req.PeriodoGracia = PeriodoGracia{Tipo: eligibility.GraciaParcial, Meses: 6}

	result := simulate(t, req)
	assertScheduleInvariants(t, result)
	assert.Equal(t, eligibility.GraciaParcial, result.Cuotas[1].TipoGracia)
	assert.Equal(t, eligibility.SinGracia, result.Cuotas[2].TipoGracia)
}

func TestSimulateAncillaryCharges(t *testing.T) {
	req := baseRequest()
	req.Cargos = Cargos{
		SeguroDesgravamen:     0.0005,
		SeguroRiesgo:          decimal.NewFromInt(20),
		Comision:              decimal.NewFromInt(5),
		Portes:                decimal.RequireFromString("3.50"),
		GastosAdministrativos: decimal.NewFromInt(10),
		CostosIniciales:       decimal.NewFromInt(1500),
	}

	result := simulate(t, req)
	assertScheduleInvariants(t, result)

	first := result.Cuotas[0]
	assert.Equal(t, "60.00", first.SeguroDesgravamen.StringFixed(2))
	assert.Equal(t, "20.00", first.SeguroRiesgo.StringFixed(2))
	assert.Equal(t, "3.50", first.Portes.StringFixed(2))
	assert.Equal(t, "98.50", first.Cargos().StringFixed(2))
	assert.True(t, first.Flujo.Equal(first.Cuota.Add(decimal.RequireFromString("98.50")).Neg()))

	// Desgravamen on the outstanding balance decreases over time.
	last := result.Cuotas[len(result.Cuotas)-1]
	assert.True(t, last.SeguroDesgravamen.LessThan(first.SeguroDesgravamen))

	assert.Equal(t, "118500.00", result.FlujoInicial.StringFixed(2))
	assert.Equal(t, "1500.00", result.Plan.CostosIniciales.StringFixed(2))
	assert.Greater(t, result.Indicadores.TCEA, result.Indicadores.TEA+0.005)
	assert.True(t, result.Plan.TotalCargos.IsPositive())
}

func TestSimulateDesgravamenOnInitialBalance(t *testing.T) {
	req := baseRequest()
	req.Cargos = Cargos{SeguroDesgravamen: 0.0005, DesgravamenBase: DesgravamenInicial}

	result := simulate(t, req)
	for _, c := range result.Cuotas {
		assert.Equal(t, "60.00", c.SeguroDesgravamen.StringFixed(2))
	}
}

func TestSimulateVANAtOwnRate(t *testing.T) {
	req := baseRequest()
	req.Cargos = Cargos{SeguroRiesgo: decimal.NewFromInt(15), CostosIniciales: decimal.NewFromInt(800)}

	first := simulate(t, req)
	req.Cok = first.Indicadores.TCEA

	second := simulate(t, req)
	assert.InDelta(t, 0, second.Indicadores.VAN.InexactFloat64(), 1.0)

	// A higher opportunity cost favours the borrower.
	req.Cok = 0.20
	third := simulate(t, req)
	assert.True(t, third.Indicadores.VAN.IsPositive())
}

func TestSimulateZeroRate(t *testing.T) {
	req := baseRequest()
	req.TasaInteresAnual = 0

	result := simulate(t, req)
	assertScheduleInvariants(t, result)
	assert.Equal(t, "500.00", result.Plan.CuotaBase.StringFixed(2))
	assert.True(t, result.Plan.TotalIntereses.IsZero())
	assert.InDelta(t, 0, result.Indicadores.TIR, 1e-7)
}

func TestSimulateSteepAnnualRate(t *testing.T) {
	req := baseRequest()
	req.FrecuenciaPago = "anual"
	req.NumAnios = 2
	req.TasaInteresAnual = 12

	result := simulate(t, req)
	assertScheduleInvariants(t, result)
	assert.InDelta(t, 12, result.Indicadores.TIR, 1e-4)
	assert.InDelta(t, 12, result.Indicadores.TCEA, 1e-4)
}

func TestSimulateBono(t *testing.T) {
	t.Run("eligible", func(t *testing.T) {
		req := baseRequest()
		req.PrecioVenta = decimal.NewFromInt(120000)
		req.CuotaInicial = decimal.NewFromInt(12000)
		req.BonoAplicable = Bono{Monto: decimal.NewFromInt(25000), Solicitado: true}
		decision := eligibility.Allow()
		req.BonoDecision = &decision

		result := simulate(t, req)
		assertScheduleInvariants(t, result)
		assert.Equal(t, "83000.00", result.Plan.MontoPrestamo.StringFixed(2))
		assert.Equal(t, "25000.00", result.Plan.BonoAplicable.StringFixed(2))
	})

	t.Run("ineligible", func(t *testing.T) {
		req := baseRequest()
		req.BonoAplicable = Bono{Monto: decimal.NewFromInt(25000), Solicitado: true}
		decision := eligibility.Deny("el precio de venta supera el tope del bono")
		req.BonoDecision = &decision

		_, err := NewEngine(nil, Options{}).Simulate(context.Background(), req)
		var eerr *EligibilityError
		require.True(t, errors.As(err, &eerr), "expected EligibilityError, got %v", err)
		assert.Contains(t, eerr.Error(), "tope del bono")
	})

	t.Run("flag without amount", func(t *testing.T) {
		req := baseRequest()
		req.BonoAplicable = Bono{Solicitado: true}

		_, err := NewEngine(nil, Options{}).Simulate(context.Background(), req)
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "bono_aplicable", verr.Campo)
	})
}

func TestSimulateCurrencyConversion(t *testing.T) {
	req := baseRequest()
	req.MonedaInmueble = "PEN"
	req.Moneda = "USD"
	req.TipoCambio = decimal.RequireFromString("3.75")

	result := simulate(t, req)
	assertScheduleInvariants(t, result)
	assert.Equal(t, "USD", result.Plan.Moneda)
	assert.Equal(t, "32000.00", result.Plan.MontoPrestamo.StringFixed(2))
}

func TestSimulatePaymentDates(t *testing.T) {
	req := baseRequest()
	req.FechaInicio = "2025-01"

	result := simulate(t, req)
	assert.Equal(t, "2025-02", result.Cuotas[0].FechaPago)
	assert.Equal(t, "2045-01", result.Cuotas[len(result.Cuotas)-1].FechaPago)

	withoutDates := simulate(t, baseRequest())
	assert.Empty(t, withoutDates.Cuotas[0].FechaPago)
}

func TestSimulateValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*LoanRequest)
		campo  string
	}{
		{"down payment equals price", func(r *LoanRequest) { r.CuotaInicial = r.PrecioVenta }, "cuota_inicial"},
		{"down payment above price", func(r *LoanRequest) { r.CuotaInicial = decimal.NewFromInt(200000) }, "cuota_inicial"},
		{"negative down payment", func(r *LoanRequest) { r.CuotaInicial = decimal.NewFromInt(-1) }, "cuota_inicial"},
		{"zero price", func(r *LoanRequest) { r.PrecioVenta = decimal.Zero }, "precio_venta"},
		{"zero years", func(r *LoanRequest) { r.NumAnios = 0 }, "num_anios"},
		{"term above the ceiling", func(r *LoanRequest) { r.NumAnios = 20000 }, "num_anios"},
		{"unknown frequency", func(r *LoanRequest) { r.FrecuenciaPago = "quincenal" }, "frecuencia_pago"},
		{"unknown rate type", func(r *LoanRequest) { r.TipoTasa = "SIMPLE" }, "tipo_tasa"},
		{"negative rate", func(r *LoanRequest) { r.TasaInteresAnual = -0.01 }, "tasa_interes_anual"},
		{"nominal without capitalization", func(r *LoanRequest) { r.TipoTasa = TasaNominal }, "capitalizacion"},
		{"grace not a multiple of the period", func(r *LoanRequest) {
			r.FrecuenciaPago = "trimestral"
			r.PeriodoGracia = PeriodoGracia{Tipo: eligibility.GraciaParcial, Meses: 4}
		}, "periodo_gracia"},
		{"grace above entity maximum", func(r *LoanRequest) {
			r.Gracia = eligibility.GracePolicy{MaxMeses: intPtr(6)}
			r.PeriodoGracia = PeriodoGracia{Tipo: eligibility.GraciaTotal, Meses: 12}
		}, "periodo_gracia"},
		{"grace type not permitted", func(r *LoanRequest) {
			r.Gracia = eligibility.GracePolicy{Permitidos: []eligibility.TipoGracia{eligibility.GraciaParcial}}
			r.PeriodoGracia = PeriodoGracia{Tipo: eligibility.GraciaTotal, Meses: 6}
		}, "periodo_gracia"},
		{"months without grace type", func(r *LoanRequest) {
			r.PeriodoGracia = PeriodoGracia{Tipo: eligibility.SinGracia, Meses: 6}
		}, "periodo_gracia"},
		{"grace consumes the term", func(r *LoanRequest) {
			r.NumAnios = 1
			r.PeriodoGracia = PeriodoGracia{Tipo: eligibility.GraciaParcial, Meses: 12}
		}, "periodo_gracia"},
		{"currency mismatch without rate", func(r *LoanRequest) {
			r.MonedaInmueble = "PEN"
			r.Moneda = "USD"
		}, "tipo_cambio"},
		{"unknown currency", func(r *LoanRequest) { r.Moneda = "EUR" }, "moneda"},
		{"negative charge", func(r *LoanRequest) { r.Cargos.Portes = decimal.NewFromInt(-1) }, "portes"},
		{"unknown desgravamen base", func(r *LoanRequest) { r.Cargos.DesgravamenBase = "PROMEDIO" }, "desgravamen_base"},
		{"upfront costs above disbursement", func(r *LoanRequest) { r.Cargos.CostosIniciales = decimal.NewFromInt(130000) }, "costos_iniciales"},
		{"subsidy covers the whole loan", func(r *LoanRequest) { r.BonoAplicable = Bono{Monto: decimal.NewFromInt(120000), Solicitado: true} }, "monto_prestamo"},
		{"bad start date", func(r *LoanRequest) { r.FechaInicio = "enero" }, "fecha_inicio"},
		{"negative cok", func(r *LoanRequest) { r.Cok = -0.1 }, "cok"},
	}

	engine := NewEngine(nil, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(&req)

			result, err := engine.Simulate(context.Background(), req)
			assert.Nil(t, result)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.campo, verr.Campo)
			assert.NotEmpty(t, verr.Error())
		})
	}
}

func TestSimulateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(nil, Options{}).Simulate(ctx, baseRequest())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimulateIdempotent(t *testing.T) {
	req := baseRequest()
	req.PeriodoGracia = PeriodoGracia{Tipo: eligibility.GraciaTotal, Meses: 3}
	req.Cargos = Cargos{SeguroDesgravamen: 0.00028, SeguroRiesgo: decimal.NewFromInt(12)}
	req.Cok = 0.12

	first, err := json.Marshal(simulate(t, req))
	require.NoError(t, err)
	second, err := json.Marshal(simulate(t, req))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

// numericDecimalJSON switches decimals to bare JSON numbers, as the binaries
// do at startup, for the duration of the test.
func numericDecimalJSON(t *testing.T) {
	t.Helper()
	prev := decimal.MarshalJSONWithoutQuotes
	decimal.MarshalJSONWithoutQuotes = true
	t.Cleanup(func() { decimal.MarshalJSONWithoutQuotes = prev })
}

func TestDecimalEncodingUntouchedByPackage(t *testing.T) {
	assert.False(t, decimal.MarshalJSONWithoutQuotes, "the loans package must not change decimal encoding globally")

	payload, err := json.Marshal(simulate(t, baseRequest()).Plan)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"monto_prestamo":"120000"`)
}

func TestResultJSONShape(t *testing.T) {
	numericDecimalJSON(t)
	payload, err := json.Marshal(simulate(t, baseRequest()))
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &decoded))
	for _, key := range []string{"plan", "cuotas", "indicadores", "flujoInicial"} {
		assert.Contains(t, decoded, key)
	}

	var indicadores map[string]interface{}
	require.NoError(t, json.Unmarshal(decoded["indicadores"], &indicadores))
	for _, key := range []string{"tcea", "tir", "van", "TEA"} {
		assert.Contains(t, indicadores, key)
	}

	var cuotas []map[string]interface{}
	require.NoError(t, json.Unmarshal(decoded["cuotas"], &cuotas))
	for _, key := range []string{"numero", "saldo_inicial", "interes", "cuota", "amortizacion",
		"seguro_desgravamen", "seguro_riesgo", "comision", "portes", "gastos_administrativos", "flujo", "saldo_final"} {
		assert.Contains(t, cuotas[0], key)
	}
	// Amounts are plain JSON numbers.
	_, isNumber := cuotas[0]["saldo_inicial"].(float64)
	assert.True(t, isNumber)
}

func TestLoanRequestFromClientJSON(t *testing.T) {
	body := `{
		"precio_venta": 150000,
		"cuota_inicial": 30000,
		"bono_aplicable": false,
		"num_anios": 20,
		"frecuencia_pago": "mensual",
		"tipo_tasa": "NOMINAL",
		"tasa_interes_anual": 0.12,
		"capitalizacion": 30,
		"periodo_gracia": {"tipo": "PARCIAL", "meses": 3}
	}`

	var req LoanRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	assert.Equal(t, Capitalizacion("mensual"), req.Capitalizacion)
	assert.False(t, req.BonoAplicable.Solicitado)

	result := simulate(t, req)
	assertScheduleInvariants(t, result)
	assert.Equal(t, 3, result.Plan.MesesGracia)
	assert.Equal(t, eligibility.GraciaParcial, result.Plan.TipoGracia)
}
