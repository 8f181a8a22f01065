package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zonagarage/internal/dto"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"
	"zonagarage/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type VentaService interface {
	RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	AnularVenta(ctx context.Context, id uuid.UUID) (*dto.AnulacionResponse, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	pagoRepo     repository.PagoRepository
	clienteRepo  repository.ClienteRepository
	productoRepo repository.ProductoRepository
	inventario   InventarioService
	caja         CajaService
	dispatcher   *worker.Dispatcher
}

func NewVentaService(
	repo repository.VentaRepository,
	pagoRepo repository.PagoRepository,
	clienteRepo repository.ClienteRepository,
	productoRepo repository.ProductoRepository,
	inventario InventarioService,
	caja CajaService,
	dispatcher *worker.Dispatcher,
) VentaService {
	return &ventaService{
		repo:         repo,
		pagoRepo:     pagoRepo,
		clienteRepo:  clienteRepo,
		productoRepo: productoRepo,
		inventario:   inventario,
		caja:         caja,
		dispatcher:   dispatcher,
	}
}

func (s *ventaService) RegistrarVenta(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	var clienteID *uuid.UUID
	nombreCliente := clienteSinNombre
	if req.ClienteID != nil {
		cid, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, fmt.Errorf("cliente_id inválido: %w", err)
		}
		cliente, err := s.clienteRepo.FindByID(ctx, cid)
		if err != nil {
			return nil, ErrClienteNoEncontrado
		}
		clienteID = &cid
		nombreCliente = cliente.Nombre
	}

	// Resolve & price every line item before touching stock.
	type resolvedItem struct {
		producto  *model.Producto
		cantidad  int
		descuento decimal.Decimal
	}
	var items []resolvedItem
	subtotal := decimal.Zero
	descuentoTotal := decimal.Zero
	for _, item := range req.Items {
		pid, err := uuid.Parse(item.ProductoID)
		if err != nil {
			return nil, fmt.Errorf("producto_id inválido: %w", err)
		}
		p, err := s.productoRepo.FindByID(ctx, pid)
		if err != nil {
			return nil, ErrProductoNoEncontrado
		}
		if p.StockActual < item.Cantidad {
			return nil, fmt.Errorf("%w: %s", ErrStockInsuficiente, p.Nombre)
		}
		subtotal = subtotal.Add(p.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad))))
		descuentoTotal = descuentoTotal.Add(item.Descuento)
		items = append(items, resolvedItem{producto: p, cantidad: item.Cantidad, descuento: item.Descuento})
	}

	total := subtotal.Sub(descuentoTotal)
	totalPagos := decimal.Zero
	for _, pago := range req.Pagos {
		totalPagos = totalPagos.Add(pago.Monto)
	}
	if totalPagos.LessThan(total) {
		return nil, ErrPagosInsuficientes
	}
	vuelto := totalPagos.Sub(total)

	numeroTicket, err := s.repo.NextTicketNumber(ctx)
	if err != nil {
		return nil, err
	}

	venta := model.Venta{
		NumeroTicket:   numeroTicket,
		ClienteID:      clienteID,
		UsuarioID:      usuarioID,
		Subtotal:       subtotal,
		DescuentoTotal: descuentoTotal,
		Total:          total,
	}
	for _, it := range items {
		venta.Items = append(venta.Items, model.VentaItem{
			ProductoID:     it.producto.ID,
			Cantidad:       it.cantidad,
			PrecioUnitario: it.producto.PrecioVenta,
			Subtotal:       it.producto.PrecioVenta.Mul(decimal.NewFromInt(int64(it.cantidad))).Sub(it.descuento),
		})
	}
	if err := s.repo.Create(ctx, &venta); err != nil {
		return nil, err
	}

	motivo := fmt.Sprintf("Venta #%d", numeroTicket)
	for _, it := range items {
		if err := s.inventario.ConsumirStock(ctx, it.producto.ID, it.cantidad, "venta", motivo, venta.ID); err != nil {
			return nil, fmt.Errorf("error descontando stock de %s: %w", it.producto.Nombre, err)
		}
	}

	vid := venta.ID
	for i, pago := range req.Pagos {
		p := model.Pago{VentaID: &vid, Metodo: pago.Metodo, Monto: pago.Monto}
		if err := s.pagoRepo.Create(ctx, &p); err != nil {
			return nil, err
		}
		if i == 0 {
			venta.PagoID = &p.ID
			if err := s.repo.SetPagoDirecto(ctx, venta.ID, p.ID); err != nil {
				return nil, err
			}
		}
		if pago.Metodo == MetodoEfectivo {
			if err := s.caja.RegistrarPagoEfectivo(ctx, pago.Monto, venta.ID, nombreCliente, motivo); err != nil {
				if errors.Is(err, ErrNoCajaAbierta) {
					log.Warn().
						Str("venta_id", venta.ID.String()).
						Msg("venta: pago en efectivo sin caja abierta — no se registró en caja")
				} else {
					return nil, err
				}
			}
		}
	}

	if clienteID != nil {
		if puntos := int(total.IntPart()); puntos > 0 {
			if err := s.clienteRepo.AjustarPuntos(ctx, *clienteID, puntos); err != nil {
				log.Warn().Err(err).Str("cliente_id", clienteID.String()).Msg("venta: no se pudieron acreditar puntos")
			}
		}
	}

	if s.dispatcher != nil && req.ClienteEmail != nil && *req.ClienteEmail != "" {
		_ = s.dispatcher.EnqueueComprobante(ctx, worker.ComprobanteJobPayload{
			VentaID: venta.ID.String(),
			ToEmail: *req.ClienteEmail,
		})
	}

	resp := ventaToResponse(&venta)
	resp.Vuelto = vuelto
	for _, pago := range req.Pagos {
		resp.Pagos = append(resp.Pagos, pago)
	}
	for i, it := range items {
		resp.Items[i].Producto = it.producto.Nombre
	}
	return resp, nil
}

// AnularVenta mirrors the servicio cancellation: restock first, reverse cash,
// delete pagos (direct reference first, deduplicated), delete the venta last.
func (s *ventaService) AnularVenta(ctx context.Context, id uuid.UUID) (*dto.AnulacionResponse, error) {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrVentaNoEncontrada
	}

	pagos, err := s.pagoRepo.FindByVentaID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("no se pudieron recuperar los pagos de la venta: %w", err)
	}

	var completados []string
	fracaso := func(paso string, err error) error {
		return fmt.Errorf("anulación interrumpida en %q (pasos completados: [%s]): %w",
			paso, strings.Join(completados, ", "), err)
	}

	motivo := fmt.Sprintf("Anulación venta #%d", venta.NumeroTicket)
	for _, item := range venta.Items {
		if err := s.inventario.ReponerStock(ctx, item.ProductoID, item.Cantidad, motivo, venta.ID); err != nil {
			log.Warn().Err(err).
				Str("producto_id", item.ProductoID.String()).
				Msg("anulación: no se pudo reponer stock — se omite el renglón")
		}
	}
	completados = append(completados, pasoRevertirStock)

	nombreCliente := clienteSinNombre
	if venta.Cliente != nil && venta.Cliente.Nombre != "" {
		nombreCliente = venta.Cliente.Nombre
	}

	cajaAjustada := true
	for _, pago := range pagos {
		if pago.Metodo != MetodoEfectivo {
			continue
		}
		if err := s.caja.RevertirPagoEfectivo(ctx, pago.Monto, venta.ID, nombreCliente, motivo); err != nil {
			if errors.Is(err, ErrNoCajaAbierta) {
				cajaAjustada = false
				log.Warn().
					Str("venta_id", venta.ID.String()).
					Str("pago_id", pago.ID.String()).
					Msg("anulación: sin caja abierta — la reversa de efectivo queda pendiente")
				continue
			}
			return nil, fracaso(pasoRevertirCaja, err)
		}
	}
	completados = append(completados, pasoRevertirCaja)

	if venta.ClienteID != nil {
		if puntos := int(venta.Total.IntPart()); puntos > 0 {
			if err := s.clienteRepo.AjustarPuntos(ctx, *venta.ClienteID, -puntos); err != nil {
				log.Warn().Err(err).Str("cliente_id", venta.ClienteID.String()).
					Msg("anulación: no se pudieron revertir puntos")
			}
		}
	}
	completados = append(completados, pasoRevertirPuntos)

	eliminados := make(map[uuid.UUID]bool)
	if venta.PagoID != nil {
		if err := s.pagoRepo.Delete(ctx, *venta.PagoID); err != nil {
			return nil, fracaso(pasoEliminarPagos, err)
		}
		eliminados[*venta.PagoID] = true
	}
	for _, pago := range pagos {
		if eliminados[pago.ID] {
			continue
		}
		if err := s.pagoRepo.Delete(ctx, pago.ID); err != nil {
			return nil, fracaso(pasoEliminarPagos, err)
		}
		eliminados[pago.ID] = true
	}
	completados = append(completados, pasoEliminarPagos)

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fracaso("eliminar_venta", err)
	}
	completados = append(completados, "eliminar_venta")

	return &dto.AnulacionResponse{
		ServicioID:       id.String(),
		PasosCompletados: completados,
		CajaAjustada:     cajaAjustada,
	}, nil
}

func (s *ventaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrVentaNoEncontrada
	}
	resp := ventaToResponse(venta)
	if pagos, err := s.pagoRepo.FindByVentaID(ctx, id); err == nil {
		for _, p := range pagos {
			resp.Pagos = append(resp.Pagos, dto.PagoRequest{Metodo: p.Metodo, Monto: p.Monto})
		}
	}
	return resp, nil
}

func (s *ventaService) ListVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	ventas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		items = append(items, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:             v.ID.String(),
		NumeroTicket:   v.NumeroTicket,
		Subtotal:       v.Subtotal,
		DescuentoTotal: v.DescuentoTotal,
		Total:          v.Total,
		Vuelto:         decimal.Zero,
		CreatedAt:      v.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if v.ClienteID != nil {
		cid := v.ClienteID.String()
		resp.ClienteID = &cid
	}
	for _, item := range v.Items {
		nombre := ""
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		resp.Items = append(resp.Items, dto.ItemVentaResponse{
			Producto:       nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	return resp
}
