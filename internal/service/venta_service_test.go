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

type ventaFixture struct {
	ventas    *fakeVentaRepo
	pagos     *fakePagoRepo
	clientes  *fakeClienteRepo
	productos *fakeProductoRepo
	caja      *fakeCajaRepo

	cajaSvc service.CajaService
	svc     service.VentaService

	cliente      *model.Cliente
	aromatizante *model.Producto
}

func newVentaFixture(t *testing.T) *ventaFixture {
	t.Helper()
	ctx := context.Background()

	f := &ventaFixture{
		pagos:     newFakePagoRepo(),
		clientes:  newFakeClienteRepo(),
		productos: newFakeProductoRepo(),
		caja:      newFakeCajaRepo(),
	}
	f.ventas = newFakeVentaRepo(f.clientes)

	f.cliente = &model.Cliente{Nombre: "Ana Gómez", Activo: true}
	require.NoError(t, f.clientes.Create(ctx, f.cliente))

	f.aromatizante = &model.Producto{Nombre: "Aromatizante", PrecioVenta: decimal.NewFromInt(15), StockActual: 20, StockMinimo: 3, Activo: true}
	require.NoError(t, f.productos.Create(ctx, f.aromatizante))

	inventario := service.NewInventarioService(f.productos, &fakeMovimientoStockRepo{})
	f.cajaSvc = service.NewCajaService(f.caja, events.NewNopNotifier())
	f.svc = service.NewVentaService(f.ventas, f.pagos, f.clientes, f.productos, inventario, f.cajaSvc, nil)
	return f
}

func TestRegistrarVenta(t *testing.T) {
	f := newVentaFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	cid := f.cliente.ID.String()
	resp, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		ClienteID: &cid,
		Items: []dto.ItemVentaRequest{
			{ProductoID: f.aromatizante.ID.String(), Cantidad: 3, Descuento: decimal.NewFromInt(5)},
		},
		Pagos: []dto.PagoRequest{
			{Metodo: "efectivo", Monto: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, resp.NumeroTicket)
	assert.Equal(t, "45", resp.Subtotal.String())
	assert.Equal(t, "40", resp.Total.String()) // 3×15 − 5
	assert.Equal(t, "10", resp.Vuelto.String())
	assert.Equal(t, 17, f.productos.stockDe(f.aromatizante.ID))

	abierta, err := f.cajaSvc.GetAbierta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "150", abierta.SaldoEfectivo.String())

	assert.Equal(t, 40, f.cliente.Puntos)
}

func TestRegistrarVentaSinCliente(t *testing.T) {
	f := newVentaFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	resp, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: f.aromatizante.ID.String(), Cantidad: 1},
		},
		Pagos: []dto.PagoRequest{
			{Metodo: "efectivo", Monto: decimal.NewFromInt(15)},
		},
	})
	require.NoError(t, err)

	assert.Nil(t, resp.ClienteID)
	assert.True(t, resp.Vuelto.IsZero())
	// Anonymous sales accrue no points.
	assert.Equal(t, 0, f.cliente.Puntos)
}

func TestRegistrarVentaStockInsuficiente(t *testing.T) {
	f := newVentaFixture(t)

	_, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: f.aromatizante.ID.String(), Cantidad: 21},
		},
		Pagos: []dto.PagoRequest{
			{Metodo: "efectivo", Monto: decimal.NewFromInt(500)},
		},
	})
	assert.ErrorIs(t, err, service.ErrStockInsuficiente)
	assert.Empty(t, f.ventas.ventas)
}

func TestRegistrarVentaPagosInsuficientes(t *testing.T) {
	f := newVentaFixture(t)

	_, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: f.aromatizante.ID.String(), Cantidad: 2},
		},
		Pagos: []dto.PagoRequest{
			{Metodo: "efectivo", Monto: decimal.NewFromInt(29)},
		},
	})
	assert.ErrorIs(t, err, service.ErrPagosInsuficientes)
	assert.Equal(t, 20, f.productos.stockDe(f.aromatizante.ID))
}

func TestAnularVenta(t *testing.T) {
	f := newVentaFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	cid := f.cliente.ID.String()
	resp, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		ClienteID: &cid,
		Items: []dto.ItemVentaRequest{
			{ProductoID: f.aromatizante.ID.String(), Cantidad: 2},
		},
		Pagos: []dto.PagoRequest{
			{Metodo: "efectivo", Monto: decimal.NewFromInt(30)},
		},
	})
	require.NoError(t, err)

	anulacion, err := f.svc.AnularVenta(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"revertir_stock", "revertir_caja", "revertir_puntos",
		"eliminar_pagos", "eliminar_venta",
	}, anulacion.PasosCompletados)
	assert.True(t, anulacion.CajaAjustada)

	assert.Equal(t, 20, f.productos.stockDe(f.aromatizante.ID))
	assert.Equal(t, 0, f.cliente.Puntos)
	assert.Empty(t, f.pagos.pagos)
	assert.Empty(t, f.ventas.ventas)

	abierta, err := f.cajaSvc.GetAbierta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "100", abierta.SaldoEfectivo.String())
}

func TestAnularVentaInexistente(t *testing.T) {
	f := newVentaFixture(t)

	_, err := f.svc.AnularVenta(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrVentaNoEncontrada)
}

func TestAnularVentaSinCajaAbierta(t *testing.T) {
	f := newVentaFixture(t)
	abrirCaja(t, f.cajaSvc, 100)

	resp, err := f.svc.RegistrarVenta(context.Background(), uuid.New(), dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{
			{ProductoID: f.aromatizante.ID.String(), Cantidad: 2},
		},
		Pagos: []dto.PagoRequest{
			{Metodo: "efectivo", Monto: decimal.NewFromInt(30)},
		},
	})
	require.NoError(t, err)

	_, err = f.cajaSvc.Cerrar(context.Background(), dto.CerrarCajaRequest{
		MontoDeclarado: decimal.NewFromInt(130),
	})
	require.NoError(t, err)

	anulacion, err := f.svc.AnularVenta(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)

	assert.False(t, anulacion.CajaAjustada)
	assert.Contains(t, anulacion.PasosCompletados, "eliminar_venta")
	assert.Empty(t, f.ventas.ventas)
}
