package planpago

import (
	"github.com/iwvelando/mortgage-simulator/internal/catalog"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/iwvelando/mortgage-simulator/pkg/mathutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// resolve fills the engine request from the catalog. Values the client sent
// win over catalog values.
func (s *Service) resolve(sol Solicitud) (loans.LoanRequest, error) {
	req := sol.LoanRequest
	req.BonoDecision = nil

	if req.TipoCambio.IsZero() {
		req.TipoCambio = s.opts.TipoCambio
	}
	periodMonths, _ := req.FrecuenciaPago.Meses()

	var entidad *catalog.EntidadFinanciera
	if sol.EntidadFinancieraID != 0 {
		e, err := s.catalog.Entidad(uint(sol.EntidadFinancieraID))
		if err != nil {
			return req, err
		}
		entidad = &e
		if err := applyEntidad(&req, e, periodMonths); err != nil {
			return req, err
		}
	}

	if sol.LocalID != 0 {
		local, err := s.catalog.Local(uint(sol.LocalID))
		if err != nil {
			return req, err
		}
		if err := applyLocal(&req, local, periodMonths); err != nil {
			return req, err
		}
	}

	decision, err := s.evaluateBono(&req, entidad, sol.IngresosMensuales)
	if err != nil {
		return req, err
	}
	req.BonoDecision = decision

	s.logger.Debug("resolved loan request",
		zap.String("op", "planpago.resolve"),
		zap.Uint64("entidad_id", sol.EntidadFinancieraID),
		zap.Uint64("local_id", sol.LocalID),
		zap.String("moneda", req.Moneda),
		zap.Float64("tasa", req.TasaInteresAnual),
	)
	return req, nil
}

func applyEntidad(req *loans.LoanRequest, e catalog.EntidadFinanciera, periodMonths int) error {
	if req.TasaInteresAnual <= 0 {
		req.TasaInteresAnual = e.TasaInteres
		req.TipoTasa = e.TipoTasa
		req.Capitalizacion = e.Capitalizacion
	}
	if req.TipoTasa == "" {
		req.TipoTasa = e.TipoTasa
	}
	if req.TipoTasa == loans.TasaNominal && req.Capitalizacion == "" {
		req.Capitalizacion = e.Capitalizacion
	}
	if req.Moneda == "" {
		req.Moneda = e.Moneda
	}

	if e.AplicaSeguroDesgravamen && req.Cargos.SeguroDesgravamen == 0 && periodMonths > 0 {
		req.Cargos.SeguroDesgravamen = e.SeguroDesgravamen * float64(periodMonths)
		if req.Cargos.DesgravamenBase == "" {
			req.Cargos.DesgravamenBase = e.DesgravamenBase
		}
	}

	policy, err := e.GracePolicy()
	if err != nil {
		return err
	}
	req.Gracia = policy
	return nil
}

// applyLocal takes the price and costs of the property. Periodic costs are
// monthly and are scaled to the installment period; all costs are converted
// to the loan currency.
func applyLocal(req *loans.LoanRequest, l catalog.Local, periodMonths int) error {
	if req.PrecioVenta.IsZero() {
		req.PrecioVenta = l.Precio
		if req.MonedaInmueble == "" {
			req.MonedaInmueble = l.Moneda
		}
	}

	loanMoneda := req.Moneda
	if loanMoneda == "" {
		loanMoneda = req.MonedaInmueble
	}
	if loanMoneda == "" {
		loanMoneda = constants.MonedaSoles
	}
	convert := func(amount decimal.Decimal) (decimal.Decimal, error) {
		if amount.IsZero() || l.Moneda == "" || l.Moneda == loanMoneda {
			return amount, nil
		}
		converted, err := loans.ConvertCurrency(amount, l.Moneda, loanMoneda, req.TipoCambio)
		if err != nil {
			return decimal.Zero, err
		}
		return mathutil.Round(converted), nil
	}

	if req.Cargos.CostosIniciales.IsZero() {
		v, err := convert(l.CostoInicial.Total())
		if err != nil {
			return err
		}
		req.Cargos.CostosIniciales = v
	}
	if periodMonths <= 0 {
		return nil
	}

	months := decimal.NewFromInt(int64(periodMonths))
	periodic := []struct {
		target *decimal.Decimal
		value  decimal.Decimal
	}{
		{&req.Cargos.Comision, l.CostoPeriodico.ComisionPeriodica},
		{&req.Cargos.Portes, l.CostoPeriodico.Portes},
		{&req.Cargos.GastosAdministrativos, l.CostoPeriodico.GastosAdministrativos},
		{&req.Cargos.SeguroRiesgo, l.CostoPeriodico.SeguroContraTodoRiesgo},
	}
	for _, p := range periodic {
		if !p.target.IsZero() {
			continue
		}
		v, err := convert(p.value.Mul(months))
		if err != nil {
			return err
		}
		*p.target = v
	}
	return nil
}

// evaluateBono decides on the Techo Propio subsidy. A bare flag is resolved
// to the configured subsidy amount. Without an entity only the price, income
// and amount ceilings apply.
func (s *Service) evaluateBono(req *loans.LoanRequest, entidad *catalog.EntidadFinanciera,
	ingresos decimal.Decimal) (*eligibility.Decision, error) {
	if req.BonoAplicable.Solicitado && req.BonoAplicable.Monto.IsZero() && s.opts.BonoRules.MontoMaximo.IsPositive() {
		req.BonoAplicable.Monto = s.opts.BonoRules.MontoMaximo
	}
	if !req.BonoAplicable.Monto.IsPositive() {
		return nil, nil
	}

	precio := req.PrecioVenta
	precioMoneda := req.MonedaInmueble
	if precioMoneda == "" {
		precioMoneda = req.Moneda
	}
	if precioMoneda == constants.MonedaDolares {
		converted, err := loans.ConvertCurrency(precio, constants.MonedaDolares, constants.MonedaSoles, req.TipoCambio)
		if err != nil {
			return nil, err
		}
		precio = converted
	}

	decision := s.opts.BonoRules.Evaluate(eligibility.BonoInput{
		EntidadAplica:     entidad == nil || entidad.AplicaBonoTechoPropio,
		PrecioVenta:       precio,
		IngresosMensuales: ingresos,
		Monto:             req.BonoAplicable.Monto,
	})
	return &decision, nil
}
