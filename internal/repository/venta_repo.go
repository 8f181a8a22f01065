package repository

import (
	"context"
	"time"

	"zonagarage/internal/dto"
	"zonagarage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VentaRepository interface {
	Create(ctx context.Context, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error)
	NextTicketNumber(ctx context.Context) (int, error)
	// SetPagoDirecto persists the directly-referenced payment recorded at
	// registration time.
	SetPagoDirecto(ctx context.Context, id, pagoID uuid.UUID) error
	// Delete removes the venta and its items. Only the cancellation workflow
	// calls this, after reverting stock and cash effects.
	Delete(ctx context.Context, id uuid.UUID) error
	ListModifiedSince(ctx context.Context, since time.Time) ([]model.Venta, error)
	DB() *gorm.DB
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) Create(ctx context.Context, v *model.Venta) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).Preload("Cliente").Preload("Items.Producto").First(&v, id).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *ventaRepo) List(ctx context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var ventas []model.Venta
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Venta{})

	fecha := filter.Fecha
	if fecha == "" {
		fecha = time.Now().Format("2006-01-02")
	}
	q = q.Where("DATE(created_at) = ?", fecha)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Cliente").Preload("Items.Producto").
		Order("created_at DESC").Limit(filter.Limit).Offset(offset).Find(&ventas).Error
	return ventas, total, err
}

func (r *ventaRepo) NextTicketNumber(ctx context.Context) (int, error) {
	var num int
	err := r.db.WithContext(ctx).Raw("SELECT nextval('ventas_numero_ticket_seq')").Scan(&num).Error
	return num, err
}

func (r *ventaRepo) SetPagoDirecto(ctx context.Context, id, pagoID uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Venta{}).
		Where("id = ?", id).Update("pago_id", pagoID).Error
}

func (r *ventaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Select("Items").Delete(&model.Venta{ID: id}).Error
}

func (r *ventaRepo) ListModifiedSince(ctx context.Context, since time.Time) ([]model.Venta, error) {
	var ventas []model.Venta
	err := r.db.WithContext(ctx).Where("updated_at > ?", since).Find(&ventas).Error
	return ventas, err
}
