package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PlanPago is a persisted simulation: the plan summary, its indicators and
// the request it was computed from.
type PlanPago struct {
	ID                  uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID              uint64 `gorm:"not null;index" json:"userId"`
	EntidadFinancieraID uint64 `gorm:"not null;default:0" json:"entidadFinancieraId"`
	LocalID             uint64 `gorm:"not null;default:0" json:"localId"`

	Moneda         string          `gorm:"type:varchar(3);not null" json:"moneda"`
	PrecioVenta    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"precio_venta"`
	CuotaInicial   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"cuota_inicial"`
	BonoAplicable  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"bono_aplicable"`
	MontoPrestamo  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"monto_prestamo"`
	NumAnios       int             `gorm:"not null" json:"num_anios"`
	TotalCuotas    int             `gorm:"not null" json:"total_cuotas"`
	FrecuenciaPago string          `gorm:"type:varchar(20);not null" json:"frecuencia_pago"`
	TipoTasa       string          `gorm:"type:varchar(10);not null" json:"tipo_tasa"`
	TasaInteres    float64         `gorm:"not null" json:"tasa_interes_anual"`
	Capitalizacion string          `gorm:"type:varchar(20)" json:"capitalizacion,omitempty"`
	TipoGracia     string          `gorm:"type:varchar(20);not null" json:"tipo_gracia"`
	MesesGracia    int             `gorm:"not null;default:0" json:"meses_gracia"`

	CuotaBase      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"cuota_base"`
	TotalIntereses decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_intereses"`
	TotalPagado    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_pagado"`
	FlujoInicial   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"flujoInicial"`

	TEA  float64         `gorm:"column:tea;not null" json:"TEA"`
	TCEA float64         `gorm:"column:tcea;not null" json:"tcea"`
	TIR  float64         `gorm:"column:tir;not null" json:"tir"`
	VAN  decimal.Decimal `gorm:"column:van;type:numeric(18,2);not null;default:0" json:"van"`

	// Solicitud is the request snapshot the plan was computed from.
	Solicitud datatypes.JSON `gorm:"type:jsonb" json:"solicitud,omitempty"`

	Cuotas []Cuota `gorm:"foreignKey:PlanPagoID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

func (PlanPago) TableName() string {
	return "planes_pago"
}
