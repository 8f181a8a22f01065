package service_test

import (
	"context"
	"errors"
	"time"

	"zonagarage/internal/dto"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory fakes implementing the repository interfaces. They mimic the
// relevant GORM behavior: Create assigns IDs, Find* return ErrRecordNotFound
// on a miss, and FindByID hydrates associations the way Preload would.

// ── CajaRepository ────────────────────────────────────────────────────────────

type fakeCajaRepo struct {
	sesiones    map[uuid.UUID]*model.SesionCaja
	movimientos []model.MovimientoCaja
}

func newFakeCajaRepo() *fakeCajaRepo {
	return &fakeCajaRepo{sesiones: make(map[uuid.UUID]*model.SesionCaja)}
}

func (r *fakeCajaRepo) CreateSesion(_ context.Context, s *model.SesionCaja) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.OpenedAt = time.Now()
	r.sesiones[s.ID] = s
	return nil
}

func (r *fakeCajaRepo) FindSesionAbierta(_ context.Context) (*model.SesionCaja, error) {
	for _, s := range r.sesiones {
		if s.Abierta {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeCajaRepo) FindSesionByID(_ context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	s, ok := r.sesiones[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *fakeCajaRepo) UpdateSesion(_ context.Context, s *model.SesionCaja) error {
	r.sesiones[s.ID] = s
	return nil
}

func (r *fakeCajaRepo) ActualizarSaldo(_ context.Context, id uuid.UUID, saldo decimal.Decimal) error {
	s, ok := r.sesiones[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.SaldoEfectivo = saldo
	return nil
}

func (r *fakeCajaRepo) CreateMovimiento(_ context.Context, m *model.MovimientoCaja) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *fakeCajaRepo) ListMovimientos(_ context.Context, sesionCajaID uuid.UUID) ([]model.MovimientoCaja, error) {
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.SesionCajaID == sesionCajaID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeCajaRepo) ListSesiones(_ context.Context, page, limit int) ([]model.SesionCaja, int64, error) {
	all := make([]model.SesionCaja, 0, len(r.sesiones))
	for _, s := range r.sesiones {
		all = append(all, *s)
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// movimientosPorTipo counts ledger entries of one tipo across all sessions.
func (r *fakeCajaRepo) movimientosPorTipo(tipo string) []model.MovimientoCaja {
	var out []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.Tipo == tipo {
			out = append(out, m)
		}
	}
	return out
}

var _ repository.CajaRepository = (*fakeCajaRepo)(nil)

// ── ProductoRepository ────────────────────────────────────────────────────────

type fakeProductoRepo struct {
	productos map[uuid.UUID]*model.Producto
	promos    map[uuid.UUID]*model.Promocion
}

func newFakeProductoRepo() *fakeProductoRepo {
	return &fakeProductoRepo{
		productos: make(map[uuid.UUID]*model.Producto),
		promos:    make(map[uuid.UUID]*model.Promocion),
	}
}

func (r *fakeProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.productos[p.ID] = p
	return nil
}

func (r *fakeProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := r.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, int64, error) {
	out := make([]model.Producto, 0, len(r.productos))
	for _, p := range r.productos {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *fakeProductoRepo) ListBajoStock(_ context.Context) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		if p.Activo && p.StockActual <= p.StockMinimo {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.productos[p.ID] = p
	return nil
}

func (r *fakeProductoRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = false
	return nil
}

func (r *fakeProductoRepo) Reactivar(_ context.Context, id uuid.UUID) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = true
	return nil
}

func (r *fakeProductoRepo) AjustarStock(_ context.Context, id uuid.UUID, delta int) error {
	p, ok := r.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockActual += delta
	return nil
}

func (r *fakeProductoRepo) CreatePromocion(_ context.Context, p *model.Promocion) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.promos[p.ID] = p
	return nil
}

func (r *fakeProductoRepo) FindPromocionByID(_ context.Context, id uuid.UUID) (*model.Promocion, error) {
	p, ok := r.promos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeProductoRepo) ListPromociones(_ context.Context) ([]model.Promocion, error) {
	var out []model.Promocion
	for _, p := range r.promos {
		if p.Activa {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProductoRepo) DesactivarPromocion(_ context.Context, id uuid.UUID) error {
	p, ok := r.promos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activa = false
	return nil
}

func (r *fakeProductoRepo) DB() *gorm.DB { return nil }

func (r *fakeProductoRepo) stockDe(id uuid.UUID) int { return r.productos[id].StockActual }

var _ repository.ProductoRepository = (*fakeProductoRepo)(nil)

// ── MovimientoStockRepository ─────────────────────────────────────────────────

type fakeMovimientoStockRepo struct {
	movimientos []model.MovimientoStock
}

func (r *fakeMovimientoStockRepo) Create(_ context.Context, m *model.MovimientoStock) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *fakeMovimientoStockRepo) List(_ context.Context, filter repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	var out []model.MovimientoStock
	for _, m := range r.movimientos {
		if filter.ProductoID != nil && m.ProductoID != *filter.ProductoID {
			continue
		}
		if filter.Tipo != "" && m.Tipo != filter.Tipo {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

var _ repository.MovimientoStockRepository = (*fakeMovimientoStockRepo)(nil)

// ── ClienteRepository ─────────────────────────────────────────────────────────

type fakeClienteRepo struct {
	clientes  map[uuid.UUID]*model.Cliente
	vehiculos map[uuid.UUID]*model.Vehiculo
}

func newFakeClienteRepo() *fakeClienteRepo {
	return &fakeClienteRepo{
		clientes:  make(map[uuid.UUID]*model.Cliente),
		vehiculos: make(map[uuid.UUID]*model.Vehiculo),
	}
}

func (r *fakeClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.clientes[c.ID] = c
	return nil
}

func (r *fakeClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := r.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (r *fakeClienteRepo) List(_ context.Context, _ dto.ClienteFilter) ([]model.Cliente, int64, error) {
	var out []model.Cliente
	for _, c := range r.clientes {
		if c.Activo {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.clientes[c.ID] = c
	return nil
}

func (r *fakeClienteRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	c, ok := r.clientes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Activo = false
	return nil
}

func (r *fakeClienteRepo) AjustarPuntos(_ context.Context, id uuid.UUID, delta int) error {
	c, ok := r.clientes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Puntos += delta
	if c.Puntos < 0 {
		c.Puntos = 0
	}
	return nil
}

func (r *fakeClienteRepo) ListModifiedSince(_ context.Context, _ time.Time) ([]model.Cliente, error) {
	return nil, nil
}

func (r *fakeClienteRepo) CreateVehiculo(_ context.Context, v *model.Vehiculo) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.vehiculos[v.ID] = v
	return nil
}

func (r *fakeClienteRepo) FindVehiculoByID(_ context.Context, id uuid.UUID) (*model.Vehiculo, error) {
	v, ok := r.vehiculos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (r *fakeClienteRepo) ListVehiculos(_ context.Context, clienteID uuid.UUID) ([]model.Vehiculo, error) {
	var out []model.Vehiculo
	for _, v := range r.vehiculos {
		if v.ClienteID == clienteID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeClienteRepo) DeleteVehiculo(_ context.Context, id uuid.UUID) error {
	delete(r.vehiculos, id)
	return nil
}

var _ repository.ClienteRepository = (*fakeClienteRepo)(nil)

// ── PagoRepository ────────────────────────────────────────────────────────────

// fakePagoRepo errors on deleting a missing pago so tests catch double
// deletions (the real workflow must delete each pago exactly once).
type fakePagoRepo struct {
	pagos       map[uuid.UUID]*model.Pago
	orden       []uuid.UUID
	deleteCalls int
}

func newFakePagoRepo() *fakePagoRepo {
	return &fakePagoRepo{pagos: make(map[uuid.UUID]*model.Pago)}
}

func (r *fakePagoRepo) Create(_ context.Context, p *model.Pago) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.pagos[p.ID] = p
	r.orden = append(r.orden, p.ID)
	return nil
}

func (r *fakePagoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Pago, error) {
	p, ok := r.pagos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakePagoRepo) FindByServicioID(_ context.Context, servicioID uuid.UUID) ([]model.Pago, error) {
	var out []model.Pago
	for _, id := range r.orden {
		p, ok := r.pagos[id]
		if ok && p.ServicioID != nil && *p.ServicioID == servicioID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePagoRepo) FindByVentaID(_ context.Context, ventaID uuid.UUID) ([]model.Pago, error) {
	var out []model.Pago
	for _, id := range r.orden {
		p, ok := r.pagos[id]
		if ok && p.VentaID != nil && *p.VentaID == ventaID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakePagoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.deleteCalls++
	if _, ok := r.pagos[id]; !ok {
		return errors.New("pago inexistente")
	}
	delete(r.pagos, id)
	return nil
}

var _ repository.PagoRepository = (*fakePagoRepo)(nil)

// ── ServicioRepository ────────────────────────────────────────────────────────

// fakeServicioRepo hydrates Cliente and Promociones on FindByID the way the
// GORM Preload chain does, using the sibling fakes as the lookup source.
type fakeServicioRepo struct {
	servicios map[uuid.UUID]*model.Servicio
	tipos     map[uuid.UUID]*model.TipoServicio
	nextOrden int

	clientes  *fakeClienteRepo
	productos *fakeProductoRepo
}

func newFakeServicioRepo(clientes *fakeClienteRepo, productos *fakeProductoRepo) *fakeServicioRepo {
	return &fakeServicioRepo{
		servicios: make(map[uuid.UUID]*model.Servicio),
		tipos:     make(map[uuid.UUID]*model.TipoServicio),
		clientes:  clientes,
		productos: productos,
	}
}

func (r *fakeServicioRepo) Create(_ context.Context, s *model.Servicio) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.CreatedAt = time.Now()
	r.servicios[s.ID] = s
	return nil
}

func (r *fakeServicioRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Servicio, error) {
	s, ok := r.servicios[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if c, ok := r.clientes.clientes[s.ClienteID]; ok {
		s.Cliente = c
	}
	for i := range s.Promociones {
		if p, ok := r.productos.promos[s.Promociones[i].PromocionID]; ok {
			s.Promociones[i].Promocion = p
		}
	}
	return s, nil
}

func (r *fakeServicioRepo) List(_ context.Context, _ dto.ServicioFilter) ([]model.Servicio, int64, error) {
	var out []model.Servicio
	for _, s := range r.servicios {
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeServicioRepo) NextNumeroOrden(_ context.Context) (int, error) {
	r.nextOrden++
	return r.nextOrden, nil
}

func (r *fakeServicioRepo) SetPagoDirecto(_ context.Context, id, pagoID uuid.UUID) error {
	s, ok := r.servicios[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	pid := pagoID
	s.PagoID = &pid
	return nil
}

func (r *fakeServicioRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.servicios[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.servicios, id)
	return nil
}

func (r *fakeServicioRepo) ListModifiedSince(_ context.Context, _ time.Time) ([]model.Servicio, error) {
	return nil, nil
}

func (r *fakeServicioRepo) CreateTipoServicio(_ context.Context, t *model.TipoServicio) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.tipos[t.ID] = t
	return nil
}

func (r *fakeServicioRepo) FindTipoServicioByID(_ context.Context, id uuid.UUID) (*model.TipoServicio, error) {
	t, ok := r.tipos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *fakeServicioRepo) ListTiposServicio(_ context.Context) ([]model.TipoServicio, error) {
	var out []model.TipoServicio
	for _, t := range r.tipos {
		if t.Activo {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeServicioRepo) DB() *gorm.DB { return nil }

var _ repository.ServicioRepository = (*fakeServicioRepo)(nil)

// ── VentaRepository ───────────────────────────────────────────────────────────

type fakeVentaRepo struct {
	ventas     map[uuid.UUID]*model.Venta
	nextTicket int

	clientes *fakeClienteRepo
}

func newFakeVentaRepo(clientes *fakeClienteRepo) *fakeVentaRepo {
	return &fakeVentaRepo{ventas: make(map[uuid.UUID]*model.Venta), clientes: clientes}
}

func (r *fakeVentaRepo) Create(_ context.Context, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()
	r.ventas[v.ID] = v
	return nil
}

func (r *fakeVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if v.ClienteID != nil {
		if c, ok := r.clientes.clientes[*v.ClienteID]; ok {
			v.Cliente = c
		}
	}
	return v, nil
}

func (r *fakeVentaRepo) List(_ context.Context, _ dto.VentaFilter) ([]model.Venta, int64, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *fakeVentaRepo) NextTicketNumber(_ context.Context) (int, error) {
	r.nextTicket++
	return r.nextTicket, nil
}

func (r *fakeVentaRepo) SetPagoDirecto(_ context.Context, id, pagoID uuid.UUID) error {
	v, ok := r.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	pid := pagoID
	v.PagoID = &pid
	return nil
}

func (r *fakeVentaRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.ventas[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.ventas, id)
	return nil
}

func (r *fakeVentaRepo) ListModifiedSince(_ context.Context, _ time.Time) ([]model.Venta, error) {
	return nil, nil
}

func (r *fakeVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*fakeVentaRepo)(nil)
