package service

import (
	"context"
	"errors"
	"fmt"

	"zonagarage/internal/dto"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"

	"github.com/google/uuid"
)

type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	List(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	Reactivar(ctx context.Context, id uuid.UUID) error

	CrearPromocion(ctx context.Context, req dto.CrearPromocionRequest) (*dto.PromocionResponse, error)
	ListPromociones(ctx context.Context) ([]dto.PromocionResponse, error)
	DesactivarPromocion(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo repository.ProductoRepository
}

func NewProductoService(repo repository.ProductoRepository) ProductoService {
	return &productoService{repo: repo}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	categoria := req.Categoria
	if categoria == "" {
		categoria = "general"
	}
	p := &model.Producto{
		Nombre:      req.Nombre,
		Descripcion: req.Descripcion,
		Categoria:   categoria,
		PrecioCosto: req.PrecioCosto,
		PrecioVenta: req.PrecioVenta,
		StockActual: req.StockActual,
		StockMinimo: req.StockMinimo,
		Activo:      true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrProductoNoEncontrado
	}
	return productoToResponse(p), nil
}

func (s *productoService) List(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	productos, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		items = append(items, *productoToResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrProductoNoEncontrado
	}
	if req.Nombre != "" {
		p.Nombre = req.Nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.Categoria != "" {
		p.Categoria = req.Categoria
	}
	if req.PrecioCosto != nil {
		p.PrecioCosto = *req.PrecioCosto
	}
	if req.PrecioVenta != nil {
		if !req.PrecioVenta.IsPositive() {
			return nil, ErrMontoInvalido
		}
		p.PrecioVenta = *req.PrecioVenta
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return productoToResponse(p), nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return ErrProductoNoEncontrado
	}
	return s.repo.SoftDelete(ctx, id)
}

func (s *productoService) Reactivar(ctx context.Context, id uuid.UUID) error {
	return s.repo.Reactivar(ctx, id)
}

// ── Promociones ───────────────────────────────────────────────────────────────

func (s *productoService) CrearPromocion(ctx context.Context, req dto.CrearPromocionRequest) (*dto.PromocionResponse, error) {
	promo := &model.Promocion{
		Nombre: req.Nombre,
		Precio: req.Precio,
		Activa: true,
	}
	for _, pp := range req.Productos {
		pid, err := uuid.Parse(pp.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id inválido: %w", err)
		}
		// Every component must exist before the bundle is sellable.
		if _, err := s.repo.FindByID(ctx, pid); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProductoNoEncontrado, pp.ProductoID)
		}
		promo.Productos = append(promo.Productos, model.PromocionProducto{
			ProductoID: pid,
			Cantidad:   pp.Cantidad,
		})
	}
	if err := s.repo.CreatePromocion(ctx, promo); err != nil {
		return nil, err
	}
	loaded, err := s.repo.FindPromocionByID(ctx, promo.ID)
	if err != nil {
		return promocionToResponse(promo), nil
	}
	return promocionToResponse(loaded), nil
}

func (s *productoService) ListPromociones(ctx context.Context) ([]dto.PromocionResponse, error) {
	promos, err := s.repo.ListPromociones(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PromocionResponse, 0, len(promos))
	for i := range promos {
		out = append(out, *promocionToResponse(&promos[i]))
	}
	return out, nil
}

func (s *productoService) DesactivarPromocion(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindPromocionByID(ctx, id); err != nil {
		return errors.New("promoción no encontrada")
	}
	return s.repo.DesactivarPromocion(ctx, id)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:          p.ID.String(),
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Categoria:   p.Categoria,
		PrecioCosto: p.PrecioCosto,
		PrecioVenta: p.PrecioVenta,
		StockActual: p.StockActual,
		StockMinimo: p.StockMinimo,
		Activo:      p.Activo,
	}
}

func promocionToResponse(p *model.Promocion) *dto.PromocionResponse {
	resp := &dto.PromocionResponse{
		ID:     p.ID.String(),
		Nombre: p.Nombre,
		Precio: p.Precio,
		Activa: p.Activa,
	}
	for _, pp := range p.Productos {
		nombre := ""
		if pp.Producto != nil {
			nombre = pp.Producto.Nombre
		}
		resp.Productos = append(resp.Productos, dto.PromocionProductoResponse{
			ProductoID: pp.ProductoID.String(),
			Producto:   nombre,
			Cantidad:   pp.Cantidad,
		})
	}
	return resp
}
