package repository

import (
	"context"

	"zonagarage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PagoRepository interface {
	Create(ctx context.Context, p *model.Pago) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pago, error)
	FindByServicioID(ctx context.Context, servicioID uuid.UUID) ([]model.Pago, error)
	FindByVentaID(ctx context.Context, ventaID uuid.UUID) ([]model.Pago, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type pagoRepo struct{ db *gorm.DB }

func NewPagoRepository(db *gorm.DB) PagoRepository { return &pagoRepo{db: db} }

func (r *pagoRepo) Create(ctx context.Context, p *model.Pago) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pagoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pago, error) {
	var p model.Pago
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pagoRepo) FindByServicioID(ctx context.Context, servicioID uuid.UUID) ([]model.Pago, error) {
	var pagos []model.Pago
	err := r.db.WithContext(ctx).Where("servicio_id = ?", servicioID).Order("created_at ASC").Find(&pagos).Error
	return pagos, err
}

func (r *pagoRepo) FindByVentaID(ctx context.Context, ventaID uuid.UUID) ([]model.Pago, error) {
	var pagos []model.Pago
	err := r.db.WithContext(ctx).Where("venta_id = ?", ventaID).Order("created_at ASC").Find(&pagos).Error
	return pagos, err
}

func (r *pagoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Pago{}, id).Error
}
