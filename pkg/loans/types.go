// Package loans provides the mortgage amortization engine: rate normalization,
// schedule construction with grace periods, and the financial indicators
// (TCEA, TIR, VAN) derived from the borrower's cash flows.
package loans

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// Frecuencia is the installment frequency of a loan.
type Frecuencia string

var frecuenciaMeses = map[Frecuencia]int{
	constants.FrecuenciaMensual:       1,
	constants.FrecuenciaBimestral:     2,
	constants.FrecuenciaTrimestral:    3,
	constants.FrecuenciaCuatrimestral: 4,
	constants.FrecuenciaSemestral:     6,
	constants.FrecuenciaAnual:         12,
}

// Meses returns the length of one installment period in months.
func (f Frecuencia) Meses() (int, bool) {
	meses, ok := frecuenciaMeses[Frecuencia(strings.ToLower(string(f)))]
	return meses, ok
}

// PeriodosPorAnio returns the number of installments per year.
func (f Frecuencia) PeriodosPorAnio() (int, bool) {
	meses, ok := f.Meses()
	if !ok {
		return 0, false
	}
	return constants.MonthsPerYear / meses, true
}

// TipoTasa distinguishes effective from nominal annual rates.
type TipoTasa string

const (
	TasaEfectiva TipoTasa = "EFECTIVA"
	TasaNominal  TipoTasa = "NOMINAL"
)

// Capitalizacion is the compounding frequency of a nominal rate. The client
// sends it either as a frequency name or as a number, usually the days per
// compounding period (30 for monthly, 360 for yearly).
type Capitalizacion string

var capitalizacionPorAnio = map[Capitalizacion]float64{
	constants.CapitalizacionDiaria:    constants.DaysPerYear,
	constants.FrecuenciaMensual:       12,
	constants.FrecuenciaBimestral:     6,
	constants.FrecuenciaTrimestral:    4,
	constants.FrecuenciaCuatrimestral: 3,
	constants.FrecuenciaSemestral:     2,
	constants.FrecuenciaAnual:         1,
}

var capitalizacionPorDias = map[int]Capitalizacion{
	1:   constants.CapitalizacionDiaria,
	30:  constants.FrecuenciaMensual,
	60:  constants.FrecuenciaBimestral,
	90:  constants.FrecuenciaTrimestral,
	120: constants.FrecuenciaCuatrimestral,
	180: constants.FrecuenciaSemestral,
	360: constants.FrecuenciaAnual,
	// Counts that cannot be days are read as compounding periods per year.
	2:  constants.FrecuenciaSemestral,
	3:  constants.FrecuenciaCuatrimestral,
	4:  constants.FrecuenciaTrimestral,
	6:  constants.FrecuenciaBimestral,
	12: constants.FrecuenciaMensual,
}

// PorAnio returns the number of compounding periods per year.
func (c Capitalizacion) PorAnio() (float64, bool) {
	m, ok := capitalizacionPorAnio[Capitalizacion(strings.ToLower(string(c)))]
	return m, ok
}

// UnmarshalJSON accepts a frequency name or a day count.
func (c *Capitalizacion) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = Capitalizacion(strings.ToLower(strings.TrimSpace(name)))
		return nil
	}
	var days int
	if err := json.Unmarshal(data, &days); err != nil {
		return fmt.Errorf("capitalizacion debe ser un nombre de frecuencia o un número de días: %s", data)
	}
	if days == 0 {
		*c = ""
		return nil
	}
	named, ok := capitalizacionPorDias[days]
	if !ok {
		return fmt.Errorf("capitalizacion de %d días no soportada", days)
	}
	*c = named
	return nil
}

// DesgravamenBase selects the balance the credit life insurance is charged on.
type DesgravamenBase string

const (
	DesgravamenSaldo   DesgravamenBase = "SALDO"
	DesgravamenInicial DesgravamenBase = "INICIAL"
)

// Bono is the Techo Propio subsidy. The client may send either an amount or a
// flag; a flag without an amount has to be resolved before simulation.
type Bono struct {
	Monto      decimal.Decimal
	Solicitado bool
}

// UnmarshalJSON accepts a boolean or a number.
func (b *Bono) UnmarshalJSON(data []byte) error {
	var flag bool
	if err := json.Unmarshal(data, &flag); err == nil {
		*b = Bono{Solicitado: flag}
		return nil
	}
	var monto decimal.Decimal
	if err := monto.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("bono_aplicable debe ser booleano o monto: %w", err)
	}
	*b = Bono{Monto: monto, Solicitado: monto.IsPositive()}
	return nil
}

// MarshalJSON always renders the resolved amount.
func (b Bono) MarshalJSON() ([]byte, error) {
	return b.Monto.MarshalJSON()
}

// PeriodoGracia is the requested grace period.
type PeriodoGracia struct {
	Tipo  eligibility.TipoGracia `json:"tipo"`
	Meses int                    `json:"meses"`
}

// Cargos are the ancillary charges of each installment, already resolved for
// the installment period. SeguroDesgravamen is a rate per installment period;
// the rest are amounts per installment.
type Cargos struct {
	SeguroDesgravamen     float64         `json:"seguro_desgravamen"`
	DesgravamenBase       DesgravamenBase `json:"desgravamen_base,omitempty"`
	SeguroRiesgo          decimal.Decimal `json:"seguro_riesgo"`
	Comision              decimal.Decimal `json:"comision"`
	Portes                decimal.Decimal `json:"portes"`
	GastosAdministrativos decimal.Decimal `json:"gastos_administrativos"`
	// CostosIniciales are deducted from the disbursement.
	CostosIniciales decimal.Decimal `json:"costos_iniciales"`
}

// LoanRequest holds everything the engine needs for a simulation. Entity and
// property lookups happen before the engine is invoked.
type LoanRequest struct {
	PrecioVenta      decimal.Decimal `json:"precio_venta"`
	CuotaInicial     decimal.Decimal `json:"cuota_inicial"`
	BonoAplicable    Bono            `json:"bono_aplicable"`
	NumAnios         int             `json:"num_anios"`
	FrecuenciaPago   Frecuencia      `json:"frecuencia_pago"`
	TipoTasa         TipoTasa        `json:"tipo_tasa"`
	TasaInteresAnual float64         `json:"tasa_interes_anual"`
	Capitalizacion   Capitalizacion  `json:"capitalizacion,omitempty"`
	PeriodoGracia    PeriodoGracia   `json:"periodo_gracia"`

	// Moneda is the loan currency; MonedaInmueble the currency the price is
	// quoted in. TipoCambio is soles per dollar.
	Moneda         string          `json:"moneda"`
	MonedaInmueble string          `json:"moneda_inmueble,omitempty"`
	TipoCambio     decimal.Decimal `json:"tipo_cambio"`

	Cok         float64 `json:"cok"`
	Cargos      Cargos  `json:"cargos"`
	FechaInicio string  `json:"fecha_inicio,omitempty"`

	// Gracia carries the entity's grace policy.
	Gracia eligibility.GracePolicy `json:"condiciones_gracia"`
	// BonoDecision is the resolved subsidy eligibility; nil means the amount
	// was already vetted by the caller.
	BonoDecision *eligibility.Decision `json:"-"`
}

// Cuota is one installment of the schedule.
type Cuota struct {
	Numero                int                    `json:"numero"`
	FechaPago             string                 `json:"fecha_pago,omitempty"`
	TipoGracia            eligibility.TipoGracia `json:"tipo_gracia"`
	SaldoInicial          decimal.Decimal        `json:"saldo_inicial"`
	Interes               decimal.Decimal        `json:"interes"`
	Cuota                 decimal.Decimal        `json:"cuota"`
	Amortizacion          decimal.Decimal        `json:"amortizacion"`
	SeguroDesgravamen     decimal.Decimal        `json:"seguro_desgravamen"`
	SeguroRiesgo          decimal.Decimal        `json:"seguro_riesgo"`
	Comision              decimal.Decimal        `json:"comision"`
	Portes                decimal.Decimal        `json:"portes"`
	GastosAdministrativos decimal.Decimal        `json:"gastos_administrativos"`
	Flujo                 decimal.Decimal        `json:"flujo"`
	SaldoFinal            decimal.Decimal        `json:"saldo_final"`
}

// Cargos returns the sum of the ancillary charges of the installment.
func (c Cuota) Cargos() decimal.Decimal {
	return mathutil.Sum(c.SeguroDesgravamen, c.SeguroRiesgo, c.Comision, c.Portes, c.GastosAdministrativos)
}

// Plan is the aggregate of a simulation, echoing the request fields.
type Plan struct {
	Moneda            string                 `json:"moneda"`
	PrecioVenta       decimal.Decimal        `json:"precio_venta"`
	CuotaInicial      decimal.Decimal        `json:"cuota_inicial"`
	BonoAplicable     decimal.Decimal        `json:"bono_aplicable"`
	MontoPrestamo     decimal.Decimal        `json:"monto_prestamo"`
	NumAnios          int                    `json:"num_anios"`
	TotalCuotas       int                    `json:"total_cuotas"`
	FrecuenciaPago    Frecuencia             `json:"frecuencia_pago"`
	TipoTasa          TipoTasa               `json:"tipo_tasa"`
	TasaInteresAnual  float64                `json:"tasa_interes_anual"`
	Capitalizacion    Capitalizacion         `json:"capitalizacion,omitempty"`
	TasaPeriodo       float64                `json:"tasa_periodo"`
	TipoGracia        eligibility.TipoGracia `json:"tipo_gracia"`
	MesesGracia       int                    `json:"meses_gracia"`
	Cok               float64                `json:"cok"`
	CuotaBase         decimal.Decimal        `json:"cuota_base"`
	TotalIntereses    decimal.Decimal        `json:"total_intereses"`
	TotalAmortizacion decimal.Decimal        `json:"total_amortizacion"`
	TotalCargos       decimal.Decimal        `json:"total_cargos"`
	TotalPagado       decimal.Decimal        `json:"total_pagado"`
	CostosIniciales   decimal.Decimal        `json:"costos_iniciales"`
}

// Indicadores are the financial indicators of a simulation.
type Indicadores struct {
	TCEA float64         `json:"tcea"`
	TIR  float64         `json:"tir"`
	VAN  decimal.Decimal `json:"van"`
	TEA  float64         `json:"TEA"`
}

// Result is the simulation payload consumed by the results view.
type Result struct {
	Plan         Plan            `json:"plan"`
	Cuotas       []Cuota         `json:"cuotas"`
	Indicadores  Indicadores     `json:"indicadores"`
	FlujoInicial decimal.Decimal `json:"flujoInicial"`
}
