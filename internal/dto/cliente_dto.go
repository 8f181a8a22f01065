package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	Nombre   string  `json:"nombre"   validate:"required,min=2,max=120"`
	Telefono *string `json:"telefono" validate:"omitempty,min=6,max=30"`
	Email    *string `json:"email"    validate:"omitempty,email"`
}

type ActualizarClienteRequest struct {
	Nombre   string  `json:"nombre"   validate:"omitempty,min=2,max=120"`
	Telefono *string `json:"telefono" validate:"omitempty,min=6,max=30"`
	Email    *string `json:"email"    validate:"omitempty,email"`
}

type CrearVehiculoRequest struct {
	Patente       string  `json:"patente" validate:"required,min=5,max=10"`
	Marca         string  `json:"marca"   validate:"required,min=2,max=60"`
	Modelo        string  `json:"modelo"  validate:"omitempty,max=60"`
	Color         string  `json:"color"   validate:"omitempty,max=30"`
	Observaciones *string `json:"observaciones"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type VehiculoResponse struct {
	ID            string  `json:"id"`
	ClienteID     string  `json:"cliente_id"`
	Patente       string  `json:"patente"`
	Marca         string  `json:"marca"`
	Modelo        string  `json:"modelo"`
	Color         string  `json:"color"`
	Observaciones *string `json:"observaciones"`
}

type ClienteResponse struct {
	ID        string             `json:"id"`
	Nombre    string             `json:"nombre"`
	Telefono  *string            `json:"telefono"`
	Email     *string            `json:"email"`
	Puntos    int                `json:"puntos"`
	Activo    bool               `json:"activo"`
	Vehiculos []VehiculoResponse `json:"vehiculos"`
	CreatedAt string             `json:"created_at"`
}

type ClienteFilter struct {
	Nombre  string `form:"nombre"`
	Patente string `form:"patente"`
	Page    int    `form:"page,default=1"  validate:"min=1"`
	Limit   int    `form:"limit,default=50" validate:"min=1,max=200"`
}
