package dto

import "github.com/shopspring/decimal"

// ─── Filter ──────────────────────────────────────────────────────────────────

type ProductoFilter struct {
	Nombre    string `form:"nombre"`
	Categoria string `form:"categoria"`
	Activo    string `form:"activo"` // "false" = inactivos, "all" = todos, default activos
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre      string          `json:"nombre"       validate:"required,min=2,max=120"`
	Descripcion *string         `json:"descripcion"`
	Categoria   string          `json:"categoria"    validate:"omitempty,max=60"`
	PrecioCosto decimal.Decimal `json:"precio_costo" validate:"min=0"`
	PrecioVenta decimal.Decimal `json:"precio_venta" validate:"required,gt=0"`
	StockActual int             `json:"stock_actual" validate:"min=0"`
	StockMinimo int             `json:"stock_minimo" validate:"min=0"`
}

type ActualizarProductoRequest struct {
	Nombre      string           `json:"nombre"       validate:"omitempty,min=2,max=120"`
	Descripcion *string          `json:"descripcion"`
	Categoria   string           `json:"categoria"    validate:"omitempty,max=60"`
	PrecioCosto *decimal.Decimal `json:"precio_costo"`
	PrecioVenta *decimal.Decimal `json:"precio_venta"`
	StockMinimo *int             `json:"stock_minimo" validate:"omitempty,min=0"`
}

type AjustarStockRequest struct {
	Delta  int    `json:"delta"  validate:"required"`
	Motivo string `json:"motivo" validate:"required,min=3"`
}

type PromocionProductoRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

type CrearPromocionRequest struct {
	Nombre    string                     `json:"nombre"    validate:"required,min=2,max=120"`
	Precio    decimal.Decimal            `json:"precio"    validate:"required,gt=0"`
	Productos []PromocionProductoRequest `json:"productos" validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID          string          `json:"id"`
	Nombre      string          `json:"nombre"`
	Descripcion *string         `json:"descripcion"`
	Categoria   string          `json:"categoria"`
	PrecioCosto decimal.Decimal `json:"precio_costo"`
	PrecioVenta decimal.Decimal `json:"precio_venta"`
	StockActual int             `json:"stock_actual"`
	StockMinimo int             `json:"stock_minimo"`
	Activo      bool            `json:"activo"`
}

type ProductoListResponse struct {
	Data  []ProductoResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

type PromocionProductoResponse struct {
	ProductoID string `json:"producto_id"`
	Producto   string `json:"producto"`
	Cantidad   int    `json:"cantidad"`
}

type PromocionResponse struct {
	ID        string                      `json:"id"`
	Nombre    string                      `json:"nombre"`
	Precio    decimal.Decimal             `json:"precio"`
	Activa    bool                        `json:"activa"`
	Productos []PromocionProductoResponse `json:"productos"`
}

type AlertaStockResponse struct {
	ProductoID  string `json:"producto_id"`
	Nombre      string `json:"nombre"`
	StockActual int    `json:"stock_actual"`
	StockMinimo int    `json:"stock_minimo"`
}

type MovimientoStockResponse struct {
	ID            string  `json:"id"`
	ProductoID    string  `json:"producto_id"`
	Producto      string  `json:"producto"`
	Tipo          string  `json:"tipo"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior int     `json:"stock_anterior"`
	StockNuevo    int     `json:"stock_nuevo"`
	Motivo        string  `json:"motivo"`
	ReferenciaID  *string `json:"referencia_id"`
	CreatedAt     string  `json:"created_at"`
}
