package models

import (
	"github.com/shopspring/decimal"
)

// Cuota is one installment row of a persisted plan.
type Cuota struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	PlanPagoID uint64 `gorm:"not null;uniqueIndex:idx_cuota_plan_numero,priority:1" json:"planPagoId"`
	Numero     int    `gorm:"not null;uniqueIndex:idx_cuota_plan_numero,priority:2" json:"numero"`

	FechaPago  string `gorm:"type:varchar(7)" json:"fecha_pago,omitempty"`
	TipoGracia string `gorm:"type:varchar(20);not null" json:"tipo_gracia"`

	SaldoInicial          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"saldo_inicial"`
	Interes               decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"interes"`
	Cuota                 decimal.Decimal `gorm:"column:cuota;type:numeric(18,2);not null;default:0" json:"cuota"`
	Amortizacion          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"amortizacion"`
	SeguroDesgravamen     decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"seguro_desgravamen"`
	SeguroRiesgo          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"seguro_riesgo"`
	Comision              decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"comision"`
	Portes                decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"portes"`
	GastosAdministrativos decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"gastos_administrativos"`
	Flujo                 decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"flujo"`
	SaldoFinal            decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"saldo_final"`
}

func (Cuota) TableName() string {
	return "cuotas"
}
