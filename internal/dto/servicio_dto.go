package dto

import "github.com/shopspring/decimal"

// ─── Filter ──────────────────────────────────────────────────────────────────

// ServicioFilter is bound from query string of GET /v1/servicios.
type ServicioFilter struct {
	Fecha     string `form:"fecha"` // YYYY-MM-DD; empty = today
	ClienteID string `form:"cliente_id" validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemServicioRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad"    validate:"required,min=1"`
}

type PromocionServicioRequest struct {
	PromocionID string `json:"promocion_id" validate:"required,uuid"`
	Cantidad    int    `json:"cantidad"     validate:"required,min=1"`
}

type PagoRequest struct {
	Metodo string          `json:"metodo" validate:"required,oneof=efectivo tarjeta transferencia"`
	Monto  decimal.Decimal `json:"monto"  validate:"required"`
}

type RegistrarServicioRequest struct {
	ClienteID         string                     `json:"cliente_id"  validate:"required,uuid"`
	VehiculoID        string                     `json:"vehiculo_id" validate:"required,uuid"`
	EmpleadoID        *string                    `json:"empleado_id" validate:"omitempty,uuid"`
	Tipos             []string                   `json:"tipos"       validate:"required,min=1,dive,uuid"`
	Items             []ItemServicioRequest      `json:"items"       validate:"dive"`
	Promociones       []PromocionServicioRequest `json:"promociones" validate:"dive"`
	CargosAdicionales decimal.Decimal            `json:"cargos_adicionales" validate:"min=0"`
	Descuento         decimal.Decimal            `json:"descuento"          validate:"min=0"`
	Notas             *string                    `json:"notas"`
	Pagos             []PagoRequest              `json:"pagos" validate:"required,min=1,dive"`
	// ClienteEmail: optional — when present, the email worker mails the PDF receipt.
	ClienteEmail *string `json:"cliente_email" validate:"omitempty,email"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemServicioResponse struct {
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type PromocionServicioResponse struct {
	Promocion string          `json:"promocion"`
	Cantidad  int             `json:"cantidad"`
	Precio    decimal.Decimal `json:"precio"`
}

type ServicioResponse struct {
	ID                string                      `json:"id"`
	NumeroOrden       int                         `json:"numero_orden"`
	ClienteID         string                      `json:"cliente_id"`
	Cliente           string                      `json:"cliente"`
	VehiculoID        string                      `json:"vehiculo_id"`
	Patente           string                      `json:"patente"`
	Tipos             []string                    `json:"tipos"`
	Items             []ItemServicioResponse      `json:"items"`
	Promociones       []PromocionServicioResponse `json:"promociones"`
	PrecioBase        decimal.Decimal             `json:"precio_base"`
	CargosAdicionales decimal.Decimal             `json:"cargos_adicionales"`
	Descuento         decimal.Decimal             `json:"descuento"`
	Total             decimal.Decimal             `json:"total"`
	Pagos             []PagoRequest               `json:"pagos"`
	Notas             *string                     `json:"notas"`
	CreatedAt         string                      `json:"created_at"`
}

type ServicioListResponse struct {
	Data  []ServicioResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// AnulacionResponse reports which cancellation steps completed. When the
// workflow aborts midway the completed list tells the operator exactly how
// far it got (the records that remain can be inspected and retried by hand).
type AnulacionResponse struct {
	ServicioID       string   `json:"servicio_id"`
	PasosCompletados []string `json:"pasos_completados"`
	CajaAjustada     bool     `json:"caja_ajustada"`
}
