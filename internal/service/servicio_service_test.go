package service_test

import (
	"context"
	"testing"

	"zonagarage/internal/dto"
	"zonagarage/internal/events"
	"zonagarage/internal/model"
	"zonagarage/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// servicioFixture wires the full service graph over in-memory fakes:
// one cliente with one vehículo, a catalog tipo at $50, a shampoo product
// ($10, stock 10), and a promo bundle at $30 containing 2 units of wax
// (stock 10).
type servicioFixture struct {
	servicios *fakeServicioRepo
	pagos     *fakePagoRepo
	clientes  *fakeClienteRepo
	productos *fakeProductoRepo
	movStock  *fakeMovimientoStockRepo
	caja      *fakeCajaRepo

	cajaSvc service.CajaService
	svc     service.ServicioService

	cliente  *model.Cliente
	vehiculo *model.Vehiculo
	tipo     *model.TipoServicio
	shampoo  *model.Producto
	cera     *model.Producto
	promo    *model.Promocion
}

func newServicioFixture(t *testing.T) *servicioFixture {
	t.Helper()
	ctx := context.Background()

	f := &servicioFixture{
		pagos:     newFakePagoRepo(),
		clientes:  newFakeClienteRepo(),
		productos: newFakeProductoRepo(),
		movStock:  &fakeMovimientoStockRepo{},
		caja:      newFakeCajaRepo(),
	}
	f.servicios = newFakeServicioRepo(f.clientes, f.productos)

	f.cliente = &model.Cliente{Nombre: "Juan Pérez", Activo: true}
	require.NoError(t, f.clientes.Create(ctx, f.cliente))
	f.vehiculo = &model.Vehiculo{ClienteID: f.cliente.ID, Patente: "AB123CD"}
	require.NoError(t, f.clientes.CreateVehiculo(ctx, f.vehiculo))

	f.tipo = &model.TipoServicio{Nombre: "Lavado completo", Precio: decimal.NewFromInt(50), Activo: true}
	require.NoError(t, f.servicios.CreateTipoServicio(ctx, f.tipo))

	f.shampoo = &model.Producto{Nombre: "Shampoo", PrecioVenta: decimal.NewFromInt(10), StockActual: 10, StockMinimo: 2, Activo: true}
	require.NoError(t, f.productos.Create(ctx, f.shampoo))
	f.cera = &model.Producto{Nombre: "Cera", PrecioVenta: decimal.NewFromInt(20), StockActual: 10, StockMinimo: 2, Activo: true}
	require.NoError(t, f.productos.Create(ctx, f.cera))

	f.promo = &model.Promocion{
		Nombre: "Combo encerado",
		Precio: decimal.NewFromInt(30),
		Activa: true,
		Productos: []model.PromocionProducto{
			{ProductoID: f.cera.ID, Cantidad: 2},
		},
	}
	require.NoError(t, f.productos.CreatePromocion(ctx, f.promo))

	inventario := service.NewInventarioService(f.productos, f.movStock)
	f.cajaSvc = service.NewCajaService(f.caja, events.NewNopNotifier())
	f.svc = service.NewServicioService(f.servicios, f.pagos, f.clientes, f.productos, inventario, f.cajaSvc, nil)
	return f
}

// registrarRequest builds the standard order: 1 tipo, 2 shampoo, 1 promo
// bundle → total = 50 + 20 + 30 = 100, paid in cash.
func (f *servicioFixture) registrarRequest() dto.RegistrarServicioRequest {
	return dto.RegistrarServicioRequest{
		ClienteID:  f.cliente.ID.String(),
		VehiculoID: f.vehiculo.ID.String(),
		Tipos:      []string{f.tipo.ID.String()},
		Items: []dto.ItemServicioRequest{
			{ProductoID: f.shampoo.ID.String(), Cantidad: 2},
		},
		Promociones: []dto.PromocionServicioRequest{
			{PromocionID: f.promo.ID.String(), Cantidad: 1},
		},
		Pagos: []dto.PagoRequest{
			{Metodo: "efectivo", Monto: decimal.NewFromInt(100)},
		},
	}
}

func TestRegistrarServicio(t *testing.T) {
	f := newServicioFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	resp, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), f.registrarRequest())
	require.NoError(t, err)

	assert.Equal(t, 1, resp.NumeroOrden)
	assert.Equal(t, "100", resp.Total.String())
	assert.Equal(t, "50", resp.PrecioBase.String())

	// Stock: 2 shampoo directly, 2 cera via the promo (1 bundle × 2).
	assert.Equal(t, 8, f.productos.stockDe(f.shampoo.ID))
	assert.Equal(t, 8, f.productos.stockDe(f.cera.ID))

	// Cash: the efectivo pago raised the till balance.
	abierta, err := f.cajaSvc.GetAbierta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "200", abierta.SaldoEfectivo.String())

	// Loyalty: 1 punto per whole peso.
	assert.Equal(t, 100, f.cliente.Puntos)

	// The first pago is persisted as the direct reference.
	sv, err := f.servicios.FindByID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	require.NotNil(t, sv.PagoID)
}

func TestRegistrarServicioPagosInsuficientes(t *testing.T) {
	f := newServicioFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	req := f.registrarRequest()
	req.Pagos = []dto.PagoRequest{{Metodo: "efectivo", Monto: decimal.NewFromInt(99)}}

	_, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, service.ErrPagosInsuficientes)

	// Rejected before any write.
	assert.Equal(t, 10, f.productos.stockDe(f.shampoo.ID))
	assert.Empty(t, f.servicios.servicios)
	assert.Empty(t, f.pagos.pagos)
}

func TestRegistrarServicioStockInsuficiente(t *testing.T) {
	f := newServicioFixture(t)

	req := f.registrarRequest()
	req.Items[0].Cantidad = 11

	_, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), req)
	assert.ErrorIs(t, err, service.ErrStockInsuficiente)
	assert.Empty(t, f.servicios.servicios)
}

func TestRegistrarServicioVehiculoAjeno(t *testing.T) {
	f := newServicioFixture(t)
	otro := &model.Cliente{Nombre: "Otra Persona", Activo: true}
	require.NoError(t, f.clientes.Create(context.Background(), otro))

	req := f.registrarRequest()
	req.ClienteID = otro.ID.String()

	_, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), req)
	assert.ErrorContains(t, err, "vehículo no encontrado")
}

func TestRegistrarServicioDescuentoYCargos(t *testing.T) {
	f := newServicioFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	req := f.registrarRequest()
	req.CargosAdicionales = decimal.NewFromInt(15)
	req.Descuento = decimal.NewFromInt(25)
	req.Pagos = []dto.PagoRequest{{Metodo: "tarjeta", Monto: decimal.NewFromInt(90)}}

	resp, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, "90", resp.Total.String()) // 100 + 15 - 25

	// Card payments never touch the till.
	abierta, err := f.cajaSvc.GetAbierta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100", abierta.SaldoEfectivo.String())
}

func TestRegistrarServicioSinCajaAbierta(t *testing.T) {
	f := newServicioFixture(t)

	// A closed till never blocks the ticket: the servicio and its pago are
	// recorded, only the ledger posting is skipped.
	resp, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), f.registrarRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, resp.ID)
	assert.Len(t, f.pagos.pagos, 1)
	assert.Empty(t, f.caja.movimientos)
}

func TestAnularServicio(t *testing.T) {
	f := newServicioFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	resp, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), f.registrarRequest())
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	anulacion, err := f.svc.AnularServicio(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"revertir_stock", "revertir_caja", "revertir_puntos",
		"eliminar_pagos", "eliminar_servicio",
	}, anulacion.PasosCompletados)
	assert.True(t, anulacion.CajaAjustada)

	// Inventory restored, promo components included.
	assert.Equal(t, 10, f.productos.stockDe(f.shampoo.ID))
	assert.Equal(t, 10, f.productos.stockDe(f.cera.ID))

	// Cash reversed back to the opening balance.
	abierta, err := f.cajaSvc.GetAbierta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100", abierta.SaldoEfectivo.String())

	// Loyalty reverted; pagos and servicio gone.
	assert.Equal(t, 0, f.cliente.Puntos)
	assert.Empty(t, f.pagos.pagos)
	assert.Empty(t, f.servicios.servicios)
}

func TestAnularServicioPagosDeduplicados(t *testing.T) {
	f := newServicioFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	// Split payment: the first pago is also the direct reference, so the
	// deletion loop sees it twice and must delete it exactly once.
	req := f.registrarRequest()
	req.Pagos = []dto.PagoRequest{
		{Metodo: "efectivo", Monto: decimal.NewFromInt(60)},
		{Metodo: "tarjeta", Monto: decimal.NewFromInt(40)},
	}
	resp, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	_, err = f.svc.AnularServicio(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)

	assert.Equal(t, 2, f.pagos.deleteCalls)
	assert.Empty(t, f.pagos.pagos)
}

func TestAnularServicioInexistente(t *testing.T) {
	f := newServicioFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	_, err := f.svc.AnularServicio(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrServicioNoEncontrado)

	// Aborted before any side effect.
	assert.Equal(t, 10, f.productos.stockDe(f.shampoo.ID))
	assert.Empty(t, f.caja.movimientosPorTipo("retiro"))
}

func TestAnularServicioSinCajaAbierta(t *testing.T) {
	f := newServicioFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	resp, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), f.registrarRequest())
	require.NoError(t, err)

	_, err = f.cajaSvc.Cerrar(context.Background(), dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(200),
	})
	require.NoError(t, err)

	// No open till: the cash reversal stays pending but every other step runs.
	anulacion, err := f.svc.AnularServicio(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)

	assert.False(t, anulacion.CajaAjustada)
	assert.Contains(t, anulacion.PasosCompletados, "eliminar_servicio")
	assert.Equal(t, 10, f.productos.stockDe(f.shampoo.ID))
	assert.Empty(t, f.servicios.servicios)
}

func TestAnularServicioProductoEliminado(t *testing.T) {
	f := newServicioFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	resp, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), f.registrarRequest())
	require.NoError(t, err)

	// The shampoo disappears from the catalog before the cancellation: its
	// line is skipped, the rest of the reversal still completes.
	delete(f.productos.productos, f.shampoo.ID)

	anulacion, err := f.svc.AnularServicio(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)

	assert.Contains(t, anulacion.PasosCompletados, "eliminar_servicio")
	assert.Equal(t, 10, f.productos.stockDe(f.cera.ID))
	assert.Empty(t, f.servicios.servicios)
}

func TestAnularServicioRestockPromocionPorComponente(t *testing.T) {
	f := newServicioFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	// 3 bundles × 2 cera per bundle = 6 units consumed and later restored.
	req := f.registrarRequest()
	req.Items = nil
	req.Promociones = []dto.PromocionServicioRequest{
		{PromocionID: f.promo.ID.String(), Cantidad: 3},
	}
	req.Pagos = []dto.PagoRequest{{Metodo: "efectivo", Monto: decimal.NewFromInt(140)}}

	resp, err := f.svc.RegistrarServicio(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, 4, f.productos.stockDe(f.cera.ID))

	_, err = f.svc.AnularServicio(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, 10, f.productos.stockDe(f.cera.ID))
}

func TestCrearTipoServicio(t *testing.T) {
	f := newServicioFixture(t)

	tipo, err := f.svc.CrearTipo(context.Background(), "Encerado premium", decimal.NewFromInt(80))
	require.NoError(t, err)
	assert.True(t, tipo.Activo)

	_, err = f.svc.CrearTipo(context.Background(), "Gratis", decimal.Zero)
	assert.ErrorIs(t, err, service.ErrMontoInvalido)

	tipos, err := f.svc.ListTipos(context.Background())
	require.NoError(t, err)
	assert.Len(t, tipos, 2) // fixture tipo + the new one
}
