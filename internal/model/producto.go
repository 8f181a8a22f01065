package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is an inventory item (shampoo, wax, air fresheners, etc.) consumed
// by servicios or sold over the counter.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre      string    `gorm:"index;not null"`
	Descripcion *string
	Categoria   string          `gorm:"not null;default:'general'"`
	PrecioCosto decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PrecioVenta decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	StockActual int             `gorm:"not null;default:0"`
	StockMinimo int             `gorm:"not null;default:5"`
	Activo      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Promocion is a sellable bundle of products consumed as a unit but restocked
// component-wise on cancellation.
type Promocion struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string          `gorm:"not null"`
	Precio    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Activa    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Productos []PromocionProducto `gorm:"foreignKey:PromocionID"`
}

// PromocionProducto links a product (with its per-bundle quantity) to a promotion.
type PromocionProducto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PromocionID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductoID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Cantidad    int       `gorm:"not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID"`
}

// TableName overrides GORM's default pluralization.
func (PromocionProducto) TableName() string { return "promocion_productos" }
