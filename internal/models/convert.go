package models

import (
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"gorm.io/datatypes"
)

// Owner identifies who a plan belongs to and what it was simulated against.
type Owner struct {
	UserID              uint64
	EntidadFinancieraID uint64
	LocalID             uint64
}

// NewPlanPago maps a simulation result to its persisted form. Cuotas are
// attached and get their PlanPagoID when the plan is created.
func NewPlanPago(owner Owner, solicitud []byte, result *loans.Result) PlanPago {
	p := result.Plan
	plan := PlanPago{
		UserID:              owner.UserID,
		EntidadFinancieraID: owner.EntidadFinancieraID,
		LocalID:             owner.LocalID,
		Moneda:              p.Moneda,
		PrecioVenta:         p.PrecioVenta,
		CuotaInicial:        p.CuotaInicial,
		BonoAplicable:       p.BonoAplicable,
		MontoPrestamo:       p.MontoPrestamo,
		NumAnios:            p.NumAnios,
		TotalCuotas:         p.TotalCuotas,
		FrecuenciaPago:      string(p.FrecuenciaPago),
		TipoTasa:            string(p.TipoTasa),
		TasaInteres:         p.TasaInteresAnual,
		Capitalizacion:      string(p.Capitalizacion),
		TipoGracia:          string(p.TipoGracia),
		MesesGracia:         p.MesesGracia,
		CuotaBase:           p.CuotaBase,
		TotalIntereses:      p.TotalIntereses,
		TotalPagado:         p.TotalPagado,
		FlujoInicial:        result.FlujoInicial,
		TEA:                 result.Indicadores.TEA,
		TCEA:                result.Indicadores.TCEA,
		TIR:                 result.Indicadores.TIR,
		VAN:                 result.Indicadores.VAN,
		Cuotas:              make([]Cuota, 0, len(result.Cuotas)),
	}
	if len(solicitud) > 0 {
		plan.Solicitud = datatypes.JSON(solicitud)
	}
	for _, c := range result.Cuotas {
		plan.Cuotas = append(plan.Cuotas, Cuota{
			Numero:                c.Numero,
			FechaPago:             c.FechaPago,
			TipoGracia:            string(c.TipoGracia),
			SaldoInicial:          c.SaldoInicial,
			Interes:               c.Interes,
			Cuota:                 c.Cuota,
			Amortizacion:          c.Amortizacion,
			SeguroDesgravamen:     c.SeguroDesgravamen,
			SeguroRiesgo:          c.SeguroRiesgo,
			Comision:              c.Comision,
			Portes:                c.Portes,
			GastosAdministrativos: c.GastosAdministrativos,
			Flujo:                 c.Flujo,
			SaldoFinal:            c.SaldoFinal,
		})
	}
	return plan
}

// ToLoanCuota returns the row in the shape the simulation endpoints use.
func (c Cuota) ToLoanCuota() loans.Cuota {
	return loans.Cuota{
		Numero:                c.Numero,
		FechaPago:             c.FechaPago,
		TipoGracia:            eligibility.TipoGracia(c.TipoGracia),
		SaldoInicial:          c.SaldoInicial,
		Interes:               c.Interes,
		Cuota:                 c.Cuota,
		Amortizacion:          c.Amortizacion,
		SeguroDesgravamen:     c.SeguroDesgravamen,
		SeguroRiesgo:          c.SeguroRiesgo,
		Comision:              c.Comision,
		Portes:                c.Portes,
		GastosAdministrativos: c.GastosAdministrativos,
		Flujo:                 c.Flujo,
		SaldoFinal:            c.SaldoFinal,
	}
}
