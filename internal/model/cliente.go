package model

import (
	"time"

	"github.com/google/uuid"
)

// Cliente is a customer of the lavadero. Puntos is the running loyalty
// balance: accrued when a servicio or venta is registered, reverted
// (best-effort) when one is cancelled.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"index;not null"`
	Telefono  *string
	Email     *string
	Puntos    int  `gorm:"not null;default:0"`
	Activo    bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Vehiculos []Vehiculo `gorm:"foreignKey:ClienteID"`
}

// Vehiculo belongs to exactly one Cliente. Patente is the license plate.
type Vehiculo struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ClienteID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Patente       string    `gorm:"index;not null"`
	Marca         string
	Modelo        string
	Color         string
	Observaciones *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
