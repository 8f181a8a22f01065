package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TipoServicio is a catalog entry for a kind of work the lavadero performs
// (lavado básico, encerado, limpieza de tapizados, etc.).
type TipoServicio struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string          `gorm:"not null"`
	Precio    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Activo    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides GORM's default pluralization.
func (TipoServicio) TableName() string { return "tipos_servicio" }

// Servicio is a work order for one vehicle: the service types performed,
// products consumed (directly or inside promotion bundles), charges, and
// payments. Deleted only through ServicioService.AnularServicio, which first
// undoes the financial and inventory side effects.
type Servicio struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NumeroOrden       int        `gorm:"uniqueIndex;not null"`
	ClienteID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	VehiculoID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmpleadoID        *uuid.UUID `gorm:"type:uuid"`
	PrecioBase        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CargosAdicionales decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Descuento         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total             decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Notas             *string
	// PagoID is the directly-referenced payment recorded at registration time.
	// Additional payments reference the servicio via Pago.ServicioID.
	PagoID    *uuid.UUID `gorm:"type:uuid"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Cliente     *Cliente            `gorm:"foreignKey:ClienteID"`
	Vehiculo    *Vehiculo           `gorm:"foreignKey:VehiculoID"`
	Tipos       []ServicioTipo      `gorm:"foreignKey:ServicioID"`
	Items       []ServicioItem      `gorm:"foreignKey:ServicioID"`
	Promociones []ServicioPromocion `gorm:"foreignKey:ServicioID"`
}

// ServicioTipo records one service type performed on the order, with the
// price charged at registration time.
type ServicioTipo struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ServicioID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	TipoServicioID uuid.UUID       `gorm:"type:uuid;not null"`
	Precio         decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	TipoServicio *TipoServicio `gorm:"foreignKey:TipoServicioID"`
}

// TableName overrides GORM's default pluralization.
func (ServicioTipo) TableName() string { return "servicio_tipos" }

// ServicioItem is a direct product line item consumed by the servicio.
type ServicioItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ServicioID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization.
func (ServicioItem) TableName() string { return "servicio_items" }

// ServicioPromocion records a promotion bundle consumed by the servicio.
// Cantidad is the number of bundles; the per-product consumption is
// Cantidad × PromocionProducto.Cantidad.
type ServicioPromocion struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ServicioID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PromocionID uuid.UUID       `gorm:"type:uuid;not null"`
	Cantidad    int             `gorm:"not null"`
	Precio      decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Promocion *Promocion `gorm:"foreignKey:PromocionID"`
}

// TableName overrides GORM's default pluralization.
func (ServicioPromocion) TableName() string { return "servicio_promociones" }
