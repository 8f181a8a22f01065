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

// clienteSinNombre is the attribution placeholder used when the paying
// client's record can no longer be resolved during cancellation.
const clienteSinNombre = "Consumidor final"

type ServicioService interface {
	RegistrarServicio(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarServicioRequest) (*dto.ServicioResponse, error)
	ObtenerServicio(ctx context.Context, id uuid.UUID) (*dto.ServicioResponse, error)
	ListServicios(ctx context.Context, filter dto.ServicioFilter) (*dto.ServicioListResponse, error)
	AnularServicio(ctx context.Context, id uuid.UUID) (*dto.AnulacionResponse, error)
	ListTipos(ctx context.Context) ([]model.TipoServicio, error)
	CrearTipo(ctx context.Context, nombre string, precio decimal.Decimal) (*model.TipoServicio, error)
}

type servicioService struct {
	repo         repository.ServicioRepository
	pagoRepo     repository.PagoRepository
	clienteRepo  repository.ClienteRepository
	productoRepo repository.ProductoRepository
	inventario   InventarioService
	caja         CajaService
	dispatcher   *worker.Dispatcher
}

func NewServicioService(
	repo repository.ServicioRepository,
	pagoRepo repository.PagoRepository,
	clienteRepo repository.ClienteRepository,
	productoRepo repository.ProductoRepository,
	inventario InventarioService,
	caja CajaService,
	dispatcher *worker.Dispatcher,
) ServicioService {
	return &servicioService{
		repo:         repo,
		pagoRepo:     pagoRepo,
		clienteRepo:  clienteRepo,
		productoRepo: productoRepo,
		inventario:   inventario,
		caja:         caja,
		dispatcher:   dispatcher,
	}
}

// ── RegistrarServicio ─────────────────────────────────────────────────────────
//  1. Resolve cliente, vehículo, and service type catalog entries
//  2. Resolve product line items and promotion bundles (pre-flight stock check)
//  3. Validate total pagos >= total servicio
//  4. Create servicio + pagos, descontar stock, post cash movements
//  5. Accrue loyalty points; (async) mail the PDF receipt

func (s *servicioService) RegistrarServicio(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarServicioRequest) (*dto.ServicioResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, fmt.Errorf("cliente_id inválido: %w", err)
	}
	vehiculoID, err := uuid.Parse(req.VehiculoID)
	if err != nil {
		return nil, fmt.Errorf("vehiculo_id inválido: %w", err)
	}

	cliente, err := s.clienteRepo.FindByID(ctx, clienteID)
	if err != nil {
		return nil, ErrClienteNoEncontrado
	}
	vehiculo, err := s.clienteRepo.FindVehiculoByID(ctx, vehiculoID)
	if err != nil || vehiculo.ClienteID != clienteID {
		return nil, errors.New("vehículo no encontrado para este cliente")
	}

	// Resolve service types — PrecioBase is the sum of catalog prices.
	precioBase := decimal.Zero
	var tipos []model.ServicioTipo
	for _, tipoID := range req.Tipos {
		tid, err := uuid.Parse(tipoID)
		if err != nil {
			return nil, fmt.Errorf("tipo de servicio inválido: %w", err)
		}
		tipo, err := s.repo.FindTipoServicioByID(ctx, tid)
		if err != nil {
			return nil, fmt.Errorf("tipo de servicio %s no encontrado", tipoID)
		}
		precioBase = precioBase.Add(tipo.Precio)
		tipos = append(tipos, model.ServicioTipo{TipoServicioID: tipo.ID, Precio: tipo.Precio})
	}

	// Resolve direct product line items (pre-flight, before any write).
	type resolvedItem struct {
		productoID uuid.UUID
		nombre     string
		precio     decimal.Decimal
		cantidad   int
	}
	var items []resolvedItem
	itemsSubtotal := decimal.Zero
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
		itemsSubtotal = itemsSubtotal.Add(p.PrecioVenta.Mul(decimal.NewFromInt(int64(item.Cantidad))))
		items = append(items, resolvedItem{productoID: pid, nombre: p.Nombre, precio: p.PrecioVenta, cantidad: item.Cantidad})
	}

	// Resolve promotion bundles.
	type resolvedPromo struct {
		promo    *model.Promocion
		cantidad int
	}
	var promos []resolvedPromo
	promosSubtotal := decimal.Zero
	for _, pr := range req.Promociones {
		prid, err := uuid.Parse(pr.PromocionID)
		if err != nil {
			return nil, fmt.Errorf("promocion_id inválido: %w", err)
		}
		promo, err := s.productoRepo.FindPromocionByID(ctx, prid)
		if err != nil {
			return nil, fmt.Errorf("promoción %s no encontrada", pr.PromocionID)
		}
		promosSubtotal = promosSubtotal.Add(promo.Precio.Mul(decimal.NewFromInt(int64(pr.Cantidad))))
		promos = append(promos, resolvedPromo{promo: promo, cantidad: pr.Cantidad})
	}

	total := precioBase.Add(itemsSubtotal).Add(promosSubtotal).Add(req.CargosAdicionales).Sub(req.Descuento)

	totalPagos := decimal.Zero
	for _, pago := range req.Pagos {
		totalPagos = totalPagos.Add(pago.Monto)
	}
	if totalPagos.LessThan(total) {
		return nil, ErrPagosInsuficientes
	}

	numeroOrden, err := s.repo.NextNumeroOrden(ctx)
	if err != nil {
		return nil, err
	}

	var empleadoID *uuid.UUID
	if req.EmpleadoID != nil {
		if eid, err := uuid.Parse(*req.EmpleadoID); err == nil {
			empleadoID = &eid
		}
	}

	servicio := model.Servicio{
		NumeroOrden:       numeroOrden,
		ClienteID:         clienteID,
		VehiculoID:        vehiculoID,
		EmpleadoID:        empleadoID,
		PrecioBase:        precioBase,
		CargosAdicionales: req.CargosAdicionales,
		Descuento:         req.Descuento,
		Total:             total,
		Notas:             req.Notas,
		Tipos:             tipos,
	}
	for _, it := range items {
		servicio.Items = append(servicio.Items, model.ServicioItem{
			ProductoID:     it.productoID,
			Cantidad:       it.cantidad,
			PrecioUnitario: it.precio,
			Subtotal:       it.precio.Mul(decimal.NewFromInt(int64(it.cantidad))),
		})
	}
	for _, pr := range promos {
		servicio.Promociones = append(servicio.Promociones, model.ServicioPromocion{
			PromocionID: pr.promo.ID,
			Cantidad:    pr.cantidad,
			Precio:      pr.promo.Precio,
		})
	}

	if err := s.repo.Create(ctx, &servicio); err != nil {
		return nil, err
	}

	// Descontar stock: direct items, then promotion components.
	motivo := fmt.Sprintf("Servicio #%d", numeroOrden)
	for _, it := range items {
		if err := s.inventario.ConsumirStock(ctx, it.productoID, it.cantidad, "servicio", motivo, servicio.ID); err != nil {
			return nil, fmt.Errorf("error descontando stock de %s: %w", it.nombre, err)
		}
	}
	for _, pr := range promos {
		for _, pp := range pr.promo.Productos {
			if err := s.inventario.ConsumirStock(ctx, pp.ProductoID, pp.Cantidad*pr.cantidad, "servicio", motivo, servicio.ID); err != nil {
				return nil, fmt.Errorf("error descontando stock de promoción %s: %w", pr.promo.Nombre, err)
			}
		}
	}

	// Record pagos; the first one becomes the servicio's direct reference.
	sid := servicio.ID
	for i, pago := range req.Pagos {
		p := model.Pago{ServicioID: &sid, Metodo: pago.Metodo, Monto: pago.Monto}
		if err := s.pagoRepo.Create(ctx, &p); err != nil {
			return nil, err
		}
		if i == 0 {
			servicio.PagoID = &p.ID
			if err := s.repo.SetPagoDirecto(ctx, servicio.ID, p.ID); err != nil {
				return nil, err
			}
		}

		// Cash postings are best-effort: a closed till never blocks the ticket.
		if pago.Metodo == MetodoEfectivo {
			if err := s.caja.RegistrarPagoEfectivo(ctx, pago.Monto, servicio.ID, cliente.Nombre, motivo); err != nil {
				if errors.Is(err, ErrNoCajaAbierta) {
					log.Warn().
						Str("servicio_id", servicio.ID.String()).
						Msg("servicio: pago en efectivo sin caja abierta — no se registró en caja")
				} else {
					return nil, err
				}
			}
		}
	}

	// Loyalty: 1 punto per whole currency unit of the total.
	puntos := int(total.IntPart())
	if puntos > 0 {
		if err := s.clienteRepo.AjustarPuntos(ctx, clienteID, puntos); err != nil {
			log.Warn().Err(err).Str("cliente_id", clienteID.String()).Msg("servicio: no se pudieron acreditar puntos")
		}
	}

	// Async PDF receipt (best-effort — fire & forget)
	if s.dispatcher != nil && req.ClienteEmail != nil && *req.ClienteEmail != "" {
		_ = s.dispatcher.EnqueueComprobante(ctx, worker.ComprobanteJobPayload{
			ServicioID: servicio.ID.String(),
			ToEmail:    *req.ClienteEmail,
		})
	}

	loaded, err := s.repo.FindByID(ctx, servicio.ID)
	if err != nil {
		return servicioToResponse(&servicio), nil
	}
	return servicioToResponse(loaded), nil
}

// ── AnularServicio ────────────────────────────────────────────────────────────
// Fully reverses a servicio's footprint: inventory first, then cash, then the
// payment records, and the servicio itself last. Irreversible deletion happens
// at the end so a mid-flight failure leaves inspectable records behind; the
// returned progress list names every step that completed.

const (
	pasoRevertirStock    = "revertir_stock"
	pasoRevertirCaja     = "revertir_caja"
	pasoRevertirPuntos   = "revertir_puntos"
	pasoEliminarPagos    = "eliminar_pagos"
	pasoEliminarServicio = "eliminar_servicio"
)

func (s *servicioService) AnularServicio(ctx context.Context, id uuid.UUID) (*dto.AnulacionResponse, error) {
	// 1. Load — a missing servicio aborts before any side effect.
	servicio, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrServicioNoEncontrado
	}

	// 2. Collect pagos up front; the deletion set is fixed from here on.
	pagos, err := s.pagoRepo.FindByServicioID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("no se pudieron recuperar los pagos del servicio: %w", err)
	}

	var completados []string
	fracaso := func(paso string, err error) error {
		return fmt.Errorf("anulación interrumpida en %q (pasos completados: [%s]): %w",
			paso, strings.Join(completados, ", "), err)
	}

	// 3. Revert inventory. Per-line-item failures are logged and skipped —
	// a missing product must not strand the rest of the reversal.
	motivo := fmt.Sprintf("Anulación servicio #%d", servicio.NumeroOrden)
	for _, item := range servicio.Items {
		if err := s.inventario.ReponerStock(ctx, item.ProductoID, item.Cantidad, motivo, servicio.ID); err != nil {
			log.Warn().Err(err).
				Str("producto_id", item.ProductoID.String()).
				Msg("anulación: no se pudo reponer stock — se omite el renglón")
		}
	}
	for _, sp := range servicio.Promociones {
		if sp.Promocion == nil {
			continue
		}
		for _, pp := range sp.Promocion.Productos {
			if err := s.inventario.ReponerStock(ctx, pp.ProductoID, pp.Cantidad*sp.Cantidad, motivo, servicio.ID); err != nil {
				log.Warn().Err(err).
					Str("producto_id", pp.ProductoID.String()).
					Msg("anulación: no se pudo reponer stock de promoción — se omite el renglón")
			}
		}
	}
	completados = append(completados, pasoRevertirStock)

	// 4. Revert cash for every efectivo pago. A closed till is logged and
	// tolerated (the discrepancy is visible in the movement ledger of the
	// next session); any other failure is fatal.
	nombreCliente := clienteSinNombre
	if servicio.Cliente != nil && servicio.Cliente.Nombre != "" {
		nombreCliente = servicio.Cliente.Nombre
	} else if cliente, err := s.clienteRepo.FindByID(ctx, servicio.ClienteID); err == nil {
		nombreCliente = cliente.Nombre
	}

	cajaAjustada := true
	for _, pago := range pagos {
		if pago.Metodo != MetodoEfectivo {
			continue
		}
		if err := s.caja.RevertirPagoEfectivo(ctx, pago.Monto, servicio.ID, nombreCliente, motivo); err != nil {
			if errors.Is(err, ErrNoCajaAbierta) {
				cajaAjustada = false
				log.Warn().
					Str("servicio_id", servicio.ID.String()).
					Str("pago_id", pago.ID.String()).
					Msg("anulación: sin caja abierta — la reversa de efectivo queda pendiente")
				continue
			}
			return nil, fracaso(pasoRevertirCaja, err)
		}
	}
	completados = append(completados, pasoRevertirCaja)

	// Loyalty reversal is best-effort, like cash.
	puntos := int(servicio.Total.IntPart())
	if puntos > 0 {
		if err := s.clienteRepo.AjustarPuntos(ctx, servicio.ClienteID, -puntos); err != nil {
			log.Warn().Err(err).Str("cliente_id", servicio.ClienteID.String()).
				Msg("anulación: no se pudieron revertir puntos")
		}
	}
	completados = append(completados, pasoRevertirPuntos)

	// 5. Delete pagos: the direct reference first, then anything else the
	// collection query found. The eliminados set guarantees each pago is
	// deleted exactly once even when both paths reach it.
	eliminados := make(map[uuid.UUID]bool)
	if servicio.PagoID != nil {
		if err := s.pagoRepo.Delete(ctx, *servicio.PagoID); err != nil {
			return nil, fracaso(pasoEliminarPagos, err)
		}
		eliminados[*servicio.PagoID] = true
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

	// 6. Delete the servicio itself, last.
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fracaso(pasoEliminarServicio, err)
	}
	completados = append(completados, pasoEliminarServicio)

	return &dto.AnulacionResponse{
		ServicioID:       id.String(),
		PasosCompletados: completados,
		CajaAjustada:     cajaAjustada,
	}, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *servicioService) ObtenerServicio(ctx context.Context, id uuid.UUID) (*dto.ServicioResponse, error) {
	servicio, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrServicioNoEncontrado
	}
	resp := servicioToResponse(servicio)
	pagos, err := s.pagoRepo.FindByServicioID(ctx, id)
	if err == nil {
		for _, p := range pagos {
			resp.Pagos = append(resp.Pagos, dto.PagoRequest{Metodo: p.Metodo, Monto: p.Monto})
		}
	}
	return resp, nil
}

func (s *servicioService) ListServicios(ctx context.Context, filter dto.ServicioFilter) (*dto.ServicioListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	servicios, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ServicioResponse, 0, len(servicios))
	for i := range servicios {
		items = append(items, *servicioToResponse(&servicios[i]))
	}
	return &dto.ServicioListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *servicioService) ListTipos(ctx context.Context) ([]model.TipoServicio, error) {
	return s.repo.ListTiposServicio(ctx)
}

func (s *servicioService) CrearTipo(ctx context.Context, nombre string, precio decimal.Decimal) (*model.TipoServicio, error) {
	if !precio.IsPositive() {
		return nil, ErrMontoInvalido
	}
	tipo := &model.TipoServicio{Nombre: nombre, Precio: precio, Activo: true}
	if err := s.repo.CreateTipoServicio(ctx, tipo); err != nil {
		return nil, err
	}
	return tipo, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func servicioToResponse(sv *model.Servicio) *dto.ServicioResponse {
	resp := &dto.ServicioResponse{
		ID:                sv.ID.String(),
		NumeroOrden:       sv.NumeroOrden,
		ClienteID:         sv.ClienteID.String(),
		VehiculoID:        sv.VehiculoID.String(),
		PrecioBase:        sv.PrecioBase,
		CargosAdicionales: sv.CargosAdicionales,
		Descuento:         sv.Descuento,
		Total:             sv.Total,
		Notas:             sv.Notas,
		CreatedAt:         sv.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if sv.Cliente != nil {
		resp.Cliente = sv.Cliente.Nombre
	}
	if sv.Vehiculo != nil {
		resp.Patente = sv.Vehiculo.Patente
	}
	for _, t := range sv.Tipos {
		if t.TipoServicio != nil {
			resp.Tipos = append(resp.Tipos, t.TipoServicio.Nombre)
		}
	}
	for _, item := range sv.Items {
		nombre := ""
		if item.Producto != nil {
			nombre = item.Producto.Nombre
		}
		resp.Items = append(resp.Items, dto.ItemServicioResponse{
			Producto:       nombre,
			Cantidad:       item.Cantidad,
			PrecioUnitario: item.PrecioUnitario,
			Subtotal:       item.Subtotal,
		})
	}
	for _, pr := range sv.Promociones {
		nombre := ""
		if pr.Promocion != nil {
			nombre = pr.Promocion.Nombre
		}
		resp.Promociones = append(resp.Promociones, dto.PromocionServicioResponse{
			Promocion: nombre,
			Cantidad:  pr.Cantidad,
			Precio:    pr.Precio,
		})
	}
	return resp
}
