package repository

import (
	"context"

	"zonagarage/internal/dto"
	"zonagarage/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for products and
// promotions. Services depend on this interface, not on the concrete GORM
// implementation, enabling clean unit testing via fakes.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error)
	ListBajoStock(ctx context.Context) ([]model.Producto, error)
	Update(ctx context.Context, p *model.Producto) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error

	// AjustarStock incrementa o decrementa stock_actual atómicamente.
	AjustarStock(ctx context.Context, id uuid.UUID, delta int) error

	// Promociones
	CreatePromocion(ctx context.Context, p *model.Promocion) error
	FindPromocionByID(ctx context.Context, id uuid.UUID) (*model.Promocion, error)
	ListPromociones(ctx context.Context) ([]model.Promocion, error)
	DesactivarPromocion(ctx context.Context, id uuid.UUID) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, filter dto.ProductoFilter) ([]model.Producto, int64, error) {
	var productos []model.Producto
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Producto{})

	// Activo filter: "false" = inactivos, "all" = todos, anything else = activos (default)
	switch filter.Activo {
	case "false":
		q = q.Where("activo = false")
	case "all":
		// no filter
	default:
		q = q.Where("activo = true")
	}

	if filter.Nombre != "" {
		q = q.Where("nombre ILIKE ?", "%"+filter.Nombre+"%")
	}
	if filter.Categoria != "" {
		q = q.Where("categoria = ?", filter.Categoria)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Order("nombre ASC").Limit(filter.Limit).Offset(offset).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) ListBajoStock(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo = true AND stock_actual <= stock_minimo").
		Order("stock_actual ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).Update("activo", false).Error
}

func (r *productoRepo) Reactivar(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).Update("activo", true).Error
}

func (r *productoRepo) AjustarStock(ctx context.Context, id uuid.UUID, delta int) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("id = ?", id).
		Update("stock_actual", gorm.Expr("stock_actual + ?", delta)).Error
}

func (r *productoRepo) CreatePromocion(ctx context.Context, p *model.Promocion) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindPromocionByID(ctx context.Context, id uuid.UUID) (*model.Promocion, error) {
	var p model.Promocion
	err := r.db.WithContext(ctx).Preload("Productos.Producto").First(&p, id).Error
	return &p, err
}

func (r *productoRepo) ListPromociones(ctx context.Context) ([]model.Promocion, error) {
	var promos []model.Promocion
	err := r.db.WithContext(ctx).Where("activa = true").Preload("Productos.Producto").Find(&promos).Error
	return promos, err
}

func (r *productoRepo) DesactivarPromocion(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.Promocion{}).Where("id = ?", id).Update("activa", false).Error
}

func (r *productoRepo) DB() *gorm.DB { return r.db }
