// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
)

// EntidadConfig is the subset of a financial entity that is checked.
type EntidadConfig struct {
	ID                       string
	Moneda                   string
	TasaInteres              float64
	TipoTasa                 string
	Capitalizacion           string
	SeguroDesgravamen        float64
	MaxMesesGracia           *int
	PeriodosGraciaPermitidos string
	Activo                   bool
}

// LocalConfig is the subset of a property that is checked.
type LocalConfig struct {
	ID     string
	Moneda string
	Precio float64
}

// ConfigValidator validates the catalog as a whole.
type ConfigValidator struct {
	Entidades []EntidadConfig
	Locales   []LocalConfig
}

func knownCurrency(moneda string) bool {
	return moneda == constants.MonedaSoles || moneda == constants.MonedaDolares
}

// ValidateEntidad checks an entity's terms and returns warnings for values
// that would make every simulation against it fail or look suspicious.
func ValidateEntidad(e EntidadConfig) []string {
	var warnings []string

	if !knownCurrency(e.Moneda) {
		warnings = append(warnings, fmt.Sprintf("Entidad '%s' has unknown currency %q", e.ID, e.Moneda))
	}
	if e.TasaInteres <= 0 {
		warnings = append(warnings, fmt.Sprintf("Entidad '%s' has non-positive rate %.4f", e.ID, e.TasaInteres))
	} else if e.TasaInteres > 1 {
		warnings = append(warnings, fmt.Sprintf("Entidad '%s' rate %.4f looks like a percentage; rates are fractions",
			e.ID, e.TasaInteres))
	}
	if _, err := loans.AnnualEffectiveRate(loans.TipoTasa(e.TipoTasa), e.TasaInteres,
		loans.Capitalizacion(e.Capitalizacion)); err != nil {
		warnings = append(warnings, fmt.Sprintf("Entidad '%s' rate terms are invalid: %v", e.ID, err))
	}
	if e.SeguroDesgravamen < 0 || e.SeguroDesgravamen > 0.01 {
		warnings = append(warnings, fmt.Sprintf("Entidad '%s' monthly desgravamen rate %.5f is outside [0, 0.01]",
			e.ID, e.SeguroDesgravamen))
	}
	if e.MaxMesesGracia != nil && *e.MaxMesesGracia < 0 {
		warnings = append(warnings, fmt.Sprintf("Entidad '%s' has negative max_meses_gracia", e.ID))
	}
	if _, err := eligibility.ParsePermitidos(e.PeriodosGraciaPermitidos); err != nil {
		warnings = append(warnings, fmt.Sprintf("Entidad '%s': %v", e.ID, err))
	}

	return warnings
}

// ValidateLocal checks a property record.
func ValidateLocal(l LocalConfig) []string {
	var warnings []string

	if !knownCurrency(l.Moneda) {
		warnings = append(warnings, fmt.Sprintf("Local '%s' has unknown currency %q", l.ID, l.Moneda))
	}
	if l.Precio <= 0 {
		warnings = append(warnings, fmt.Sprintf("Local '%s' has non-positive price %.2f", l.ID, l.Precio))
	}

	return warnings
}

// ValidateAll validates the entire catalog and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string

	seen := make(map[string]bool)
	for _, entidad := range cv.Entidades {
		if seen[entidad.ID] {
			warnings = append(warnings, fmt.Sprintf("Entidad id '%s' is duplicated", entidad.ID))
		}
		seen[entidad.ID] = true

		// Inactive entities cannot be simulated against
		if !entidad.Activo {
			continue
		}
		warnings = append(warnings, ValidateEntidad(entidad)...)
	}

	seen = make(map[string]bool)
	for _, local := range cv.Locales {
		if seen[local.ID] {
			warnings = append(warnings, fmt.Sprintf("Local id '%s' is duplicated", local.ID))
		}
		seen[local.ID] = true
		warnings = append(warnings, ValidateLocal(local)...)
	}

	return warnings
}
