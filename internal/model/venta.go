package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Venta is a counter sale of products, without an associated vehicle.
// Like Servicio, it is deleted only through its cancellation workflow.
type Venta struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroTicket   int        `gorm:"uniqueIndex;not null"`
	ClienteID      *uuid.UUID `gorm:"type:uuid;index"`
	UsuarioID      uuid.UUID  `gorm:"type:uuid;not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	DescuentoTotal decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// PagoID is the directly-referenced payment; additional split payments
	// reference the venta via Pago.VentaID.
	PagoID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Cliente *Cliente    `gorm:"foreignKey:ClienteID"`
	Items   []VentaItem `gorm:"foreignKey:VentaID"`
}

// VentaItem is one product line in a counter sale.
type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization.
func (VentaItem) TableName() string { return "venta_items" }
