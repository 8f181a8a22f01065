package repository

import (
	"context"
	"time"

	"zonagarage/internal/dto"
	"zonagarage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ServicioRepository interface {
	Create(ctx context.Context, s *model.Servicio) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Servicio, error)
	List(ctx context.Context, filter dto.ServicioFilter) ([]model.Servicio, int64, error)
	NextNumeroOrden(ctx context.Context) (int, error)
	// SetPagoDirecto persists the directly-referenced payment recorded at
	// registration time.
	SetPagoDirecto(ctx context.Context, id, pagoID uuid.UUID) error
	// Delete removes the servicio and its line items. Only the cancellation
	// workflow calls this, after reverting stock and cash effects.
	Delete(ctx context.Context, id uuid.UUID) error
	ListModifiedSince(ctx context.Context, since time.Time) ([]model.Servicio, error)

	// Catálogo de tipos de servicio
	CreateTipoServicio(ctx context.Context, t *model.TipoServicio) error
	FindTipoServicioByID(ctx context.Context, id uuid.UUID) (*model.TipoServicio, error)
	ListTiposServicio(ctx context.Context) ([]model.TipoServicio, error)

	DB() *gorm.DB
}

type servicioRepo struct{ db *gorm.DB }

func NewServicioRepository(db *gorm.DB) ServicioRepository { return &servicioRepo{db: db} }

func (r *servicioRepo) DB() *gorm.DB { return r.db }

func (r *servicioRepo) Create(ctx context.Context, s *model.Servicio) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *servicioRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Servicio, error) {
	var s model.Servicio
	err := r.db.WithContext(ctx).
		Preload("Cliente").
		Preload("Vehiculo").
		Preload("Tipos.TipoServicio").
		Preload("Items.Producto").
		Preload("Promociones.Promocion.Productos").
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *servicioRepo) List(ctx context.Context, filter dto.ServicioFilter) ([]model.Servicio, int64, error) {
	var servicios []model.Servicio
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Servicio{})

	fecha := filter.Fecha
	if fecha == "" {
		fecha = time.Now().Format("2006-01-02")
	}
	q = q.Where("DATE(created_at) = ?", fecha)

	if filter.ClienteID != "" {
		q = q.Where("cliente_id = ?", filter.ClienteID)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Cliente").Preload("Vehiculo").
		Preload("Tipos.TipoServicio").Preload("Items.Producto").Preload("Promociones.Promocion").
		Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&servicios).Error
	return servicios, total, err
}

func (r *servicioRepo) NextNumeroOrden(ctx context.Context) (int, error) {
	// Uses a PostgreSQL sequence for atomic order number generation
	var num int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('servicios_numero_orden_seq')").Scan(&num).Error
	return num, err
}

func (r *servicioRepo) SetPagoDirecto(ctx context.Context, id, pagoID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Servicio{}).
		Where("id = ?", id).Update("pago_id", pagoID).Error
}

func (r *servicioRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Tipos", "Items", "Promociones").Delete(&model.Servicio{ID: id}).Error
}

func (r *servicioRepo) ListModifiedSince(ctx context.Context, since time.Time) ([]model.Servicio, error) {
	var servicios []model.Servicio
	err := r.db.WithContext(ctx).Where("updated_at > ?", since).Find(&servicios).Error
	return servicios, err
}

func (r *servicioRepo) CreateTipoServicio(ctx context.Context, t *model.TipoServicio) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *servicioRepo) FindTipoServicioByID(ctx context.Context, id uuid.UUID) (*model.TipoServicio, error) {
	var t model.TipoServicio
	err := r.db.WithContext(ctx).First(&t, id).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *servicioRepo) ListTiposServicio(ctx context.Context) ([]model.TipoServicio, error) {
	var tipos []model.TipoServicio
	err := r.db.WithContext(ctx).Where("activo = true").Order("nombre ASC").Find(&tipos).Error
	return tipos, err
}
