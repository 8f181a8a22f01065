package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AbrirCajaRequest struct {
	MontoInicial decimal.Decimal `json:"monto_inicial" validate:"min=0"`
}

type CerrarCajaRequest struct {
	MontoDeclarado decimal.Decimal `json:"monto_declarado" validate:"min=0"`
	Observaciones  *string         `json:"observaciones"`
}

type MovimientoManualRequest struct {
	Tipo        string          `json:"tipo"        validate:"required,oneof=ingreso retiro"`
	Monto       decimal.Decimal `json:"monto"       validate:"required,gt=0"`
	Descripcion string          `json:"descripcion" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CajaResponse struct {
	ID            string           `json:"id"`
	UsuarioID     string           `json:"usuario_id"`
	Abierta       bool             `json:"abierta"`
	MontoInicial  decimal.Decimal  `json:"monto_inicial"`
	SaldoEfectivo decimal.Decimal  `json:"saldo_efectivo"`
	MontoCierre   *decimal.Decimal `json:"monto_cierre"`
	Desvio        *decimal.Decimal `json:"desvio"`
	Observaciones *string          `json:"observaciones"`
	OpenedAt      string           `json:"opened_at"`
	ClosedAt      *string          `json:"closed_at"`
}

type MovimientoCajaResponse struct {
	ID           string          `json:"id"`
	Tipo         string          `json:"tipo"`
	MetodoPago   *string         `json:"metodo_pago"`
	Monto        decimal.Decimal `json:"monto"`
	Descripcion  string          `json:"descripcion"`
	ReferenciaID *string         `json:"referencia_id"`
	CreatedAt    string          `json:"created_at"`
}
