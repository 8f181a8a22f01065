package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Pago is a recorded settlement against a Servicio or a Venta (exactly one of
// ServicioID / VentaID is set). One parent record may have several pagos
// (split payments). Deleted only as part of cancellation, after its cash
// effect has been reverted.
// Metodo: "efectivo" | "tarjeta" | "transferencia"
type Pago struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ServicioID *uuid.UUID `gorm:"type:uuid;index"`
	VentaID    *uuid.UUID `gorm:"type:uuid;index"`
	Metodo     string     `gorm:"type:varchar(20);not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt  time.Time
}
