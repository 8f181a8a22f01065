package service

import (
	"context"
	"errors"
	"fmt"

	"zonagarage/internal/dto"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// InventarioService manages product stock: consumption when a servicio or
// venta is registered, restocking when one is cancelled, manual adjustments,
// and low-stock alerts. Every change leaves a MovimientoStock audit entry.
type InventarioService interface {
	// ConsumirStock decrements stock for a consumed line item.
	ConsumirStock(ctx context.Context, productoID uuid.UUID, cantidad int, tipo, motivo string, referenciaID uuid.UUID) error

	// ReponerStock restocks quantities released by a cancellation. A missing
	// product is skipped with a warning — never fatal to the caller.
	ReponerStock(ctx context.Context, productoID uuid.UUID, cantidad int, motivo string, referenciaID uuid.UUID) error

	AjusteManual(ctx context.Context, productoID uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error)
	ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error)
	ListarMovimientos(ctx context.Context, filter repository.MovimientoStockFilter) ([]dto.MovimientoStockResponse, int64, error)
}

type inventarioService struct {
	productoRepo   repository.ProductoRepository
	movimientoRepo repository.MovimientoStockRepository
}

func NewInventarioService(productoRepo repository.ProductoRepository, movimientoRepo repository.MovimientoStockRepository) InventarioService {
	return &inventarioService{productoRepo: productoRepo, movimientoRepo: movimientoRepo}
}

func (s *inventarioService) ConsumirStock(ctx context.Context, productoID uuid.UUID, cantidad int, tipo, motivo string, referenciaID uuid.UUID) error {
	if cantidad <= 0 {
		return nil
	}
	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		return ErrProductoNoEncontrado
	}
	if p.StockActual < cantidad {
		return fmt.Errorf("%w: %s (disponible %d, requerido %d)", ErrStockInsuficiente, p.Nombre, p.StockActual, cantidad)
	}

	if err := s.productoRepo.AjustarStock(ctx, productoID, -cantidad); err != nil {
		return err
	}

	ref := referenciaID
	mov := &model.MovimientoStock{
		ProductoID:    productoID,
		Tipo:          tipo,
		Cantidad:      -cantidad,
		StockAnterior: p.StockActual,
		StockNuevo:    p.StockActual - cantidad,
		Motivo:        motivo,
		ReferenciaID:  &ref,
	}
	return s.movimientoRepo.Create(ctx, mov)
}

func (s *inventarioService) ReponerStock(ctx context.Context, productoID uuid.UUID, cantidad int, motivo string, referenciaID uuid.UUID) error {
	if cantidad <= 0 {
		return nil
	}
	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		// Product removed since the servicio was registered — skip this line
		// item, the rest of the cancellation continues.
		log.Warn().
			Str("producto_id", productoID.String()).
			Int("cantidad", cantidad).
			Msg("inventario: producto inexistente al reponer stock — se omite")
		return nil
	}

	if err := s.productoRepo.AjustarStock(ctx, productoID, cantidad); err != nil {
		return err
	}

	ref := referenciaID
	mov := &model.MovimientoStock{
		ProductoID:    productoID,
		Tipo:          "restauracion_anulacion",
		Cantidad:      cantidad,
		StockAnterior: p.StockActual,
		StockNuevo:    p.StockActual + cantidad,
		Motivo:        motivo,
		ReferenciaID:  &ref,
	}
	return s.movimientoRepo.Create(ctx, mov)
}

func (s *inventarioService) AjusteManual(ctx context.Context, productoID uuid.UUID, req dto.AjustarStockRequest) (*dto.ProductoResponse, error) {
	p, err := s.productoRepo.FindByID(ctx, productoID)
	if err != nil {
		return nil, ErrProductoNoEncontrado
	}
	if req.Delta < 0 && p.StockActual+req.Delta < 0 {
		return nil, errors.New("el ajuste dejaría el stock en negativo")
	}

	if err := s.productoRepo.AjustarStock(ctx, productoID, req.Delta); err != nil {
		return nil, err
	}

	mov := &model.MovimientoStock{
		ProductoID:    productoID,
		Tipo:          "ajuste_manual",
		Cantidad:      req.Delta,
		StockAnterior: p.StockActual,
		StockNuevo:    p.StockActual + req.Delta,
		Motivo:        req.Motivo,
	}
	if err := s.movimientoRepo.Create(ctx, mov); err != nil {
		return nil, err
	}

	p.StockActual += req.Delta
	return productoToResponse(p), nil
}

func (s *inventarioService) ObtenerAlertas(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.productoRepo.ListBajoStock(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []dto.AlertaStockResponse{}, nil
		}
		return nil, err
	}
	alertas := make([]dto.AlertaStockResponse, 0, len(productos))
	for _, p := range productos {
		alertas = append(alertas, dto.AlertaStockResponse{
			ProductoID:  p.ID.String(),
			Nombre:      p.Nombre,
			StockActual: p.StockActual,
			StockMinimo: p.StockMinimo,
		})
	}
	return alertas, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter repository.MovimientoStockFilter) ([]dto.MovimientoStockResponse, int64, error) {
	movs, total, err := s.movimientoRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.MovimientoStockResponse, 0, len(movs))
	for _, m := range movs {
		nombre := ""
		if m.Producto != nil {
			nombre = m.Producto.Nombre
		}
		var ref *string
		if m.ReferenciaID != nil {
			r := m.ReferenciaID.String()
			ref = &r
		}
		out = append(out, dto.MovimientoStockResponse{
			ID:            m.ID.String(),
			ProductoID:    m.ProductoID.String(),
			Producto:      nombre,
			Tipo:          m.Tipo,
			Cantidad:      m.Cantidad,
			StockAnterior: m.StockAnterior,
			StockNuevo:    m.StockNuevo,
			Motivo:        m.Motivo,
			ReferenciaID:  ref,
			CreatedAt:     m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return out, total, nil
}
