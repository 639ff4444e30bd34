// Package catalog holds the financial entities and properties a simulation
// can be run against.
package catalog

import (
	"errors"
	"fmt"

	"github.com/iwvelando/mortgage-simulator/pkg/eligibility"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when an id is not in the catalog.
var ErrNotFound = errors.New("catalog: not found")

// EntidadFinanciera is a lender and the terms it offers.
type EntidadFinanciera struct {
	ID                 uint                 `json:"id"`
	Nombre             string               `json:"nombre"`
	Moneda             string               `json:"moneda"`
	TasaInteres        float64              `json:"tasa_interes"`
	TipoTasa           loans.TipoTasa       `json:"tipo_tasa"`
	FrecuenciaNominal  string               `json:"frecuencia_nominal,omitempty"`
	FrecuenciaEfectiva string               `json:"frecuencia_efectiva,omitempty"`
	Capitalizacion     loans.Capitalizacion `json:"capitalizacion,omitempty"`
	// SeguroDesgravamen is a monthly rate.
	SeguroDesgravamen        float64               `json:"seguro_desgravamen"`
	AplicaSeguroDesgravamen  bool                  `json:"aplica_seguro_desgravamen"`
	DesgravamenBase          loans.DesgravamenBase `json:"desgravamen_base,omitempty"`
	AplicaBonoTechoPropio    bool                  `json:"aplica_bono_techo_propio"`
	MaxMesesGracia           *int                  `json:"max_meses_gracia"`
	PeriodosGraciaPermitidos string                `json:"periodos_gracia_permitidos"`
	Activo                   bool                  `json:"activo"`
}

// GracePolicy parses the entity's grace conditions.
func (e EntidadFinanciera) GracePolicy() (eligibility.GracePolicy, error) {
	permitidos, err := eligibility.ParsePermitidos(e.PeriodosGraciaPermitidos)
	if err != nil {
		return eligibility.GracePolicy{}, fmt.Errorf("entidad %d: %w", e.ID, err)
	}
	return eligibility.GracePolicy{MaxMeses: e.MaxMesesGracia, Permitidos: permitidos}, nil
}

// CostoInicial are the costs paid once when the loan is disbursed.
type CostoInicial struct {
	CostesNotariales   decimal.Decimal `json:"costes_notariales"`
	CostesRegistrales  decimal.Decimal `json:"costes_registrales"`
	Tasacion           decimal.Decimal `json:"tasacion"`
	ComisionEstudio    decimal.Decimal `json:"comision_estudio"`
	ComisionActivacion decimal.Decimal `json:"comision_activacion"`
	SeguroRiesgo       decimal.Decimal `json:"seguro_riesgo"`
}

// Total sums the upfront costs.
func (c CostoInicial) Total() decimal.Decimal {
	return c.CostesNotariales.
		Add(c.CostesRegistrales).
		Add(c.Tasacion).
		Add(c.ComisionEstudio).
		Add(c.ComisionActivacion).
		Add(c.SeguroRiesgo)
}

// CostoPeriodico are monthly costs charged with every installment.
type CostoPeriodico struct {
	ComisionPeriodica      decimal.Decimal `json:"comision_periodica"`
	Portes                 decimal.Decimal `json:"portes"`
	GastosAdministrativos  decimal.Decimal `json:"gastos_administrativos"`
	SeguroContraTodoRiesgo decimal.Decimal `json:"seguro_contra_todo_riesgo"`
}

// Local is a property for sale.
type Local struct {
	ID             uint            `json:"id"`
	Nombre         string          `json:"nombre"`
	Direccion      string          `json:"direccion"`
	Tipo           string          `json:"tipo"`
	Precio         decimal.Decimal `json:"precio"`
	Moneda         string          `json:"moneda"`
	ImagenURL      string          `json:"imagen_url,omitempty"`
	CostoInicial   CostoInicial    `json:"costo_inicial"`
	CostoPeriodico CostoPeriodico  `json:"costo_periodico"`
}

// Catalog is a read-only index of entities and properties. It is safe for
// concurrent use.
type Catalog struct {
	entidades   []EntidadFinanciera
	locales     []Local
	entidadByID map[uint]int
	localByID   map[uint]int
}

// New indexes the given entities and properties. When an id repeats, the last
// record wins.
func New(entidades []EntidadFinanciera, locales []Local) *Catalog {
	c := &Catalog{
		entidadByID: make(map[uint]int, len(entidades)),
		localByID:   make(map[uint]int, len(locales)),
	}
	for _, e := range entidades {
		if i, ok := c.entidadByID[e.ID]; ok {
			c.entidades[i] = e
			continue
		}
		c.entidadByID[e.ID] = len(c.entidades)
		c.entidades = append(c.entidades, e)
	}
	for _, l := range locales {
		if i, ok := c.localByID[l.ID]; ok {
			c.locales[i] = l
			continue
		}
		c.localByID[l.ID] = len(c.locales)
		c.locales = append(c.locales, l)
	}
	return c
}

// Entidad returns an active entity by id.
func (c *Catalog) Entidad(id uint) (EntidadFinanciera, error) {
	i, ok := c.entidadByID[id]
	if !ok || !c.entidades[i].Activo {
		return EntidadFinanciera{}, fmt.Errorf("entidad financiera %d: %w", id, ErrNotFound)
	}
	return c.entidades[i], nil
}

// Local returns a property by id.
func (c *Catalog) Local(id uint) (Local, error) {
	i, ok := c.localByID[id]
	if !ok {
		return Local{}, fmt.Errorf("local %d: %w", id, ErrNotFound)
	}
	return c.locales[i], nil
}

// Entidades lists the active entities in configuration order.
func (c *Catalog) Entidades() []EntidadFinanciera {
	out := make([]EntidadFinanciera, 0, len(c.entidades))
	for _, e := range c.entidades {
		if e.Activo {
			out = append(out, e)
		}
	}
	return out
}

// Locales lists every property in configuration order.
func (c *Catalog) Locales() []Local {
	out := make([]Local, len(c.locales))
	copy(out, c.locales)
	return out
}
