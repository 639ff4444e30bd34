// Package eligibility holds the policy rules that decide whether a loan request
// may use a grace period or the Techo Propio subsidy. The rules are keyed by
// the financial entity's configuration and are evaluated before any amortization
// arithmetic takes place.
package eligibility

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TipoGracia is the grace-period policy of a loan.
type TipoGracia string

const (
	SinGracia     TipoGracia = "SIN_GRACIA"
	GraciaParcial TipoGracia = "PARCIAL"
	GraciaTotal   TipoGracia = "TOTAL"
)

// Valid reports whether t is one of the known grace types.
func (t TipoGracia) Valid() bool {
	switch t {
	case SinGracia, GraciaParcial, GraciaTotal:
		return true
	}
	return false
}

// Decision is the outcome of a rule evaluation.
type Decision struct {
	Eligible bool   `json:"elegible"`
	Reason   string `json:"motivo,omitempty"`
}

// Allow returns a passing decision.
func Allow() Decision {
	return Decision{Eligible: true}
}

// Deny returns a failing decision with a formatted reason.
func Deny(format string, args ...interface{}) Decision {
	return Decision{Eligible: false, Reason: fmt.Sprintf(format, args...)}
}

// GracePolicy describes which grace periods an entity grants. A nil MaxMeses
// means the entity sets no ceiling and an empty Permitidos list allows every
// grace type.
type GracePolicy struct {
	MaxMeses   *int         `json:"max_meses_gracia,omitempty"`
	Permitidos []TipoGracia `json:"periodos_gracia_permitidos,omitempty"`
}

// Allows reports whether the policy lists the grace type.
func (p GracePolicy) Allows(tipo TipoGracia) bool {
	if tipo == SinGracia || len(p.Permitidos) == 0 {
		return true
	}
	for _, permitido := range p.Permitidos {
		if permitido == tipo {
			return true
		}
	}
	return false
}

// Check evaluates a requested grace period against the policy. Alignment of
// the months with the installment period is checked by the engine, which knows
// the payment frequency.
func (p GracePolicy) Check(tipo TipoGracia, meses int) Decision {
	if !tipo.Valid() {
		return Deny("tipo de periodo de gracia desconocido: %q", tipo)
	}
	if meses < 0 {
		return Deny("los meses de gracia no pueden ser negativos (%d)", meses)
	}
	if tipo == SinGracia {
		if meses > 0 {
			return Deny("se indicaron %d meses de gracia sin tipo de gracia", meses)
		}
		return Allow()
	}
	if meses == 0 {
		return Deny("el periodo de gracia %s requiere al menos un periodo", tipo)
	}
	if !p.Allows(tipo) {
		return Deny("la entidad no permite periodo de gracia %s", tipo)
	}
	if p.MaxMeses != nil && meses > *p.MaxMeses {
		return Deny("los meses de gracia (%d) exceden el máximo de la entidad (%d)", meses, *p.MaxMeses)
	}
	return Allow()
}

// ParsePermitidos parses the entity's periodos_gracia_permitidos field, e.g.
// "PARCIAL,TOTAL", "AMBOS", or "SIN_GRACIA".
func ParsePermitidos(raw string) ([]TipoGracia, error) {
	fields := strings.FieldsFunc(strings.ToUpper(raw), func(r rune) bool {
		return r == ',' || r == ';' || r == '/' || r == ' ' || r == '|'
	})

	var out []TipoGracia
	seen := make(map[TipoGracia]struct{})
	add := func(t TipoGracia) {
		if _, ok := seen[t]; !ok {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	for _, field := range fields {
		switch field {
		case "AMBOS", "TODOS":
			add(GraciaParcial)
			add(GraciaTotal)
		default:
			tipo := TipoGracia(field)
			if !tipo.Valid() {
				return nil, fmt.Errorf("periodo de gracia permitido desconocido: %q", field)
			}
			add(tipo)
		}
	}
	return out, nil
}

// BonoRules are the Techo Propio eligibility ceilings. Zero values disable the
// corresponding check.
type BonoRules struct {
	PrecioMaximo  decimal.Decimal
	IngresoMaximo decimal.Decimal
	MontoMaximo   decimal.Decimal
}

// BonoInput carries the facts needed to decide on a subsidy request.
type BonoInput struct {
	EntidadAplica     bool
	PrecioVenta       decimal.Decimal
	IngresosMensuales decimal.Decimal
	Monto             decimal.Decimal
}

// Evaluate decides whether the subsidy may be applied. A request without a
// subsidy amount is always eligible.
func (r BonoRules) Evaluate(in BonoInput) Decision {
	if !in.Monto.IsPositive() {
		return Allow()
	}
	if !in.EntidadAplica {
		return Deny("la entidad financiera no aplica el Bono Techo Propio")
	}
	if r.PrecioMaximo.IsPositive() && in.PrecioVenta.GreaterThan(r.PrecioMaximo) {
		return Deny("el precio de venta %s supera el tope del bono de %s",
			in.PrecioVenta.StringFixed(2), r.PrecioMaximo.StringFixed(2))
	}
	if r.IngresoMaximo.IsPositive() {
		if !in.IngresosMensuales.IsPositive() {
			return Deny("se requieren los ingresos mensuales para evaluar el bono")
		}
		if in.IngresosMensuales.GreaterThan(r.IngresoMaximo) {
			return Deny("los ingresos mensuales %s superan el tope del bono de %s",
				in.IngresosMensuales.StringFixed(2), r.IngresoMaximo.StringFixed(2))
		}
	}
	if r.MontoMaximo.IsPositive() && in.Monto.GreaterThan(r.MontoMaximo) {
		return Deny("el bono solicitado %s supera el máximo de %s",
			in.Monto.StringFixed(2), r.MontoMaximo.StringFixed(2))
	}
	return Allow()
}
