package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SesionCaja represents the lifecycle of a cash register session ("caja").
// At most one session has Abierta=true at any time — OpenCaja enforces it.
// SaldoEfectivo is the running cash balance, mutated only by the ledger
// operations in CajaService; it never goes below zero (reversals clamp to 0).
type SesionCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UsuarioID    uuid.UUID       `gorm:"type:uuid;not null"`
	Abierta      bool            `gorm:"not null;default:true;index"`
	MontoInicial decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SaldoEfectivo decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// MontoCierre and Desvio are set on close, against the declared count.
	MontoCierre   *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Desvio        *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Observaciones *string
	OpenedAt      time.Time `gorm:"autoCreateTime"`
	ClosedAt      *time.Time

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID"`
}

// TableName overrides GORM's default pluralization.
func (SesionCaja) TableName() string { return "sesiones_caja" }

// MovimientoCaja is an immutable event in the cash register ledger.
// Tipo: "apertura" | "cierre" | "ingreso" | "retiro" | "pago"
// Monto is always >= 0; the signed effect on the balance is encoded in Tipo
// (pago/ingreso add, retiro subtracts). Movements are NEVER modified or
// deleted — cancellations create inverse entries.
type MovimientoCaja struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SesionCajaID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Tipo         string          `gorm:"type:varchar(20);not null"`
	MetodoPago   *string         `gorm:"type:varchar(20)"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Descripcion  string          `gorm:"not null"`
	// ReferenciaID links to the originating Servicio, Venta, or manual operation
	ReferenciaID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt    time.Time
}

// TableName overrides GORM's default pluralization.
func (MovimientoCaja) TableName() string { return "movimientos_caja" }
