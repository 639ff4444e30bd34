package config

import (
	"strings"

	"github.com/iwvelando/mortgage-simulator/internal/catalog"
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/shopspring/decimal"
)

// EngineOptions returns the engine settings.
func (c *Configuration) EngineOptions() loans.Options {
	return loans.Options{
		IRR: loans.IRROptions{
			Tolerance:     c.Engine.IRRTolerance,
			MaxIterations: c.Engine.IRRMaxIterations,
		},
	}
}

// BonoRules returns the subsidy ceilings as eligibility rules.
func (c *Configuration) BonoRules() eligibility.BonoRules {
	return eligibility.BonoRules{
		PrecioMaximo:  decimal.NewFromFloat(c.Bono.PrecioMaximo),
		IngresoMaximo: decimal.NewFromFloat(c.Bono.IngresoMaximo),
		MontoMaximo:   decimal.NewFromFloat(c.Bono.MontoMaximo),
	}
}

// DefaultTipoCambio is the exchange rate applied when a request carries none.
func (c *Configuration) DefaultTipoCambio() decimal.Decimal {
	return decimal.NewFromFloat(c.TipoCambio)
}

// Catalog converts the configured entities and properties into a catalog.
func (c *Configuration) Catalog() *catalog.Catalog {
	entidades := make([]catalog.EntidadFinanciera, 0, len(c.Entidades))
	for _, e := range c.Entidades {
		entidades = append(entidades, catalog.EntidadFinanciera{
			ID:                       e.ID,
			Nombre:                   e.Nombre,
			Moneda:                   strings.ToUpper(strings.TrimSpace(e.Moneda)),
			TasaInteres:              e.TasaInteres,
			TipoTasa:                 loans.TipoTasa(strings.ToUpper(strings.TrimSpace(e.TipoTasa))),
			FrecuenciaNominal:        e.FrecuenciaNominal,
			FrecuenciaEfectiva:       e.FrecuenciaEfectiva,
			Capitalizacion:           loans.Capitalizacion(strings.ToLower(strings.TrimSpace(e.Capitalizacion))),
			SeguroDesgravamen:        e.SeguroDesgravamen,
			AplicaSeguroDesgravamen:  e.AplicaSeguroDesgravamen,
			DesgravamenBase:          loans.DesgravamenBase(strings.ToUpper(strings.TrimSpace(e.DesgravamenBase))),
			AplicaBonoTechoPropio:    e.AplicaBonoTechoPropio,
			MaxMesesGracia:           e.MaxMesesGracia,
			PeriodosGraciaPermitidos: e.PeriodosGraciaPermitidos,
			Activo:                   e.Activo,
		})
	}

	locales := make([]catalog.Local, 0, len(c.Locales))
	for _, l := range c.Locales {
		locales = append(locales, catalog.Local{
			ID:        l.ID,
			Nombre:    l.Nombre,
			Direccion: l.Direccion,
			Tipo:      l.Tipo,
			Precio:    decimal.NewFromFloat(l.Precio),
			Moneda:    strings.ToUpper(strings.TrimSpace(l.Moneda)),
			ImagenURL: l.ImagenURL,
			CostoInicial: catalog.CostoInicial{
				CostesNotariales:   decimal.NewFromFloat(l.CostoInicial.CostesNotariales),
				CostesRegistrales:  decimal.NewFromFloat(l.CostoInicial.CostesRegistrales),
				Tasacion:           decimal.NewFromFloat(l.CostoInicial.Tasacion),
				ComisionEstudio:    decimal.NewFromFloat(l.CostoInicial.ComisionEstudio),
				ComisionActivacion: decimal.NewFromFloat(l.CostoInicial.ComisionActivacion),
				SeguroRiesgo:       decimal.NewFromFloat(l.CostoInicial.SeguroRiesgo),
			},
			CostoPeriodico: catalog.CostoPeriodico{
				ComisionPeriodica:      decimal.NewFromFloat(l.CostoPeriodico.ComisionPeriodica),
				Portes:                 decimal.NewFromFloat(l.CostoPeriodico.Portes),
				GastosAdministrativos:  decimal.NewFromFloat(l.CostoPeriodico.GastosAdministrativos),
				SeguroContraTodoRiesgo: decimal.NewFromFloat(l.CostoPeriodico.SeguroContraTodoRiesgo),
			},
		})
	}

	return catalog.New(entidades, locales)
}
