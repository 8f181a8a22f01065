package repository

import (
	"context"
	"time"

	"zonagarage/internal/dto"
	"zonagarage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error)
	Update(ctx context.Context, c *model.Cliente) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// AjustarPuntos increments or decrements the loyalty balance atomically.
	AjustarPuntos(ctx context.Context, id uuid.UUID, delta int) error
	ListModifiedSince(ctx context.Context, since time.Time) ([]model.Cliente, error)

	// Vehiculos
	CreateVehiculo(ctx context.Context, v *model.Vehiculo) error
	FindVehiculoByID(ctx context.Context, id uuid.UUID) (*model.Vehiculo, error)
	ListVehiculos(ctx context.Context, clienteID uuid.UUID) ([]model.Vehiculo, error)
	DeleteVehiculo(ctx context.Context, id uuid.UUID) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Preload("Vehiculos").First(&c, id).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context, filter dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var clientes []model.Cliente
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Cliente{}).Where("activo = true")
	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.Patente != "" {
		q = q.Where("id IN (SELECT cliente_id FROM vehiculos WHERE patente ILIKE ?)", "%"+filter.Patente+"%")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Vehiculos").Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&clientes).Error
	return clientes, total, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clienteRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Cliente{}).Where("id = ?", id).Update("activo", false).Error
}

func (r *clienteRepo) AjustarPuntos(ctx context.Context, id uuid.UUID, delta int) error {
	// GREATEST keeps the balance from going negative when a cancellation
	// reverts more points than the client currently has.
	return r.db.WithContext(ctx).Model(&model.Cliente{}).Where("id = ?", id).
		Update("puntos", gorm.Expr("GREATEST(puntos + ?, 0)", delta)).Error
}

func (r *clienteRepo) ListModifiedSince(ctx context.Context, since time.Time) ([]model.Cliente, error) {
	var clientes []model.Cliente
	err := r.db.WithContext(ctx).Where("updated_at > ?", since).Find(&clientes).Error
	return clientes, err
}

func (r *clienteRepo) CreateVehiculo(ctx context.Context, v *model.Vehiculo) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *clienteRepo) FindVehiculoByID(ctx context.Context, id uuid.UUID) (*model.Vehiculo, error) {
	var v model.Vehiculo
	err := r.db.WithContext(ctx).First(&v, id).Error
	return &v, err
}

func (r *clienteRepo) ListVehiculos(ctx context.Context, clienteID uuid.UUID) ([]model.Vehiculo, error) {
	var vehiculos []model.Vehiculo
	err := r.db.WithContext(ctx).Where("cliente_id = ?", clienteID).Order("created_at ASC").Find(&vehiculos).Error
	return vehiculos, err
}

func (r *clienteRepo) DeleteVehiculo(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Vehiculo{}, id).Error
}
