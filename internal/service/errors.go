package service

import "errors"

// Sentinel errors shared across services. Handlers map them to HTTP statuses;
// the cancellation workflow branches on ErrNoCajaAbierta to keep cash
// reconciliation best-effort.
var (
	// ErrNoCajaAbierta signals that a ledger posting was attempted with no
	// open till. Callers log it and proceed — cash bookkeeping never blocks
	// the primary record mutation.
	ErrNoCajaAbierta = errors.New("no hay una caja abierta")

	// ErrCajaYaAbierta guards the single-open-till invariant.
	ErrCajaYaAbierta = errors.New("ya existe una caja abierta")

	// ErrMontoInvalido rejects non-positive monetary amounts.
	ErrMontoInvalido = errors.New("el monto debe ser mayor a cero")

	ErrServicioNoEncontrado = errors.New("servicio no encontrado")
	ErrVentaNoEncontrada    = errors.New("venta no encontrada")
	ErrClienteNoEncontrado  = errors.New("cliente no encontrado")
	ErrProductoNoEncontrado = errors.New("producto no encontrado")
	ErrStockInsuficiente    = errors.New("stock insuficiente")
	ErrPagosInsuficientes   = errors.New("el monto total de pagos es insuficiente")
)
