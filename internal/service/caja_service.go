package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"zonagarage/internal/dto"
	"zonagarage/internal/events"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MetodoEfectivo is the only payment method that moves physical cash and
// therefore the only one the ledger posts against the till.
const MetodoEfectivo = "efectivo"

type CajaService interface {
	Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error)
	Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.CajaResponse, error)
	GetAbierta(ctx context.Context) (*dto.CajaResponse, error)
	RegistrarMovimiento(ctx context.Context, usuarioNombre string, req dto.MovimientoManualRequest) error
	Historial(ctx context.Context, page, limit int) ([]dto.CajaResponse, int64, error)
	Movimientos(ctx context.Context, sesionID uuid.UUID) ([]dto.MovimientoCajaResponse, error)

	// RegistrarPagoEfectivo posts a cash payment against the open till:
	// appends a "pago" movement and raises the running balance. Returns
	// ErrNoCajaAbierta when nothing is open — callers treat that as
	// non-fatal and proceed.
	RegistrarPagoEfectivo(ctx context.Context, monto decimal.Decimal, referenciaID uuid.UUID, actor, concepto string) error

	// RevertirPagoEfectivo is the inverse posting used during cancellation:
	// appends a "retiro" movement and lowers the balance, clamped at zero.
	// Same ErrNoCajaAbierta contract as RegistrarPagoEfectivo.
	RevertirPagoEfectivo(ctx context.Context, monto decimal.Decimal, referenciaID uuid.UUID, actor, concepto string) error
}

type cajaService struct {
	repo     repository.CajaRepository
	notifier events.Notifier

	// saldoMu serializes every read-then-write cycle on the open till's
	// balance. The lookup and the update are separate round trips; without
	// this, two concurrent postings lose updates.
	saldoMu *keyedMutex
}

func NewCajaService(repo repository.CajaRepository, notifier events.Notifier) CajaService {
	return &cajaService{repo: repo, notifier: notifier, saldoMu: newKeyedMutex()}
}

// ── Abrir ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Abrir(ctx context.Context, usuarioID uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error) {
	// Guard: at most one open session at a time
	if existing, err := s.repo.FindSesionAbierta(ctx); err == nil && existing != nil {
		return nil, ErrCajaYaAbierta
	}

	sesion := &model.SesionCaja{
		UsuarioID:     usuarioID,
		Abierta:       true,
		MontoInicial:  req.MontoInicial,
		SaldoEfectivo: req.MontoInicial,
	}
	if err := s.repo.CreateSesion(ctx, sesion); err != nil {
		return nil, err
	}

	metodo := MetodoEfectivo
	mov := &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         "apertura",
		MetodoPago:   &metodo,
		Monto:        req.MontoInicial,
		Descripcion:  "Apertura de caja",
	}
	if err := s.repo.CreateMovimiento(ctx, mov); err != nil {
		return nil, err
	}

	return cajaToResponse(sesion), nil
}

// ── Cerrar ────────────────────────────────────────────────────────────────────

func (s *cajaService) Cerrar(ctx context.Context, req dto.CerrarCajaRequest) (*dto.CajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx)
	if err != nil || sesion == nil {
		return nil, ErrNoCajaAbierta
	}

	s.saldoMu.Lock(sesion.ID)
	defer s.saldoMu.Unlock(sesion.ID)

	desvio := req.MontoDeclarado.Sub(sesion.SaldoEfectivo)

	metodo := MetodoEfectivo
	mov := &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         "cierre",
		MetodoPago:   &metodo,
		Monto:        req.MontoDeclarado,
		Descripcion:  fmt.Sprintf("Cierre de caja — desvío %s", desvio.StringFixed(2)),
	}
	if err := s.repo.CreateMovimiento(ctx, mov); err != nil {
		return nil, err
	}

	montoDeclarado := req.MontoDeclarado
	now := time.Now()
	sesion.Abierta = false
	sesion.MontoCierre = &montoDeclarado
	sesion.Desvio = &desvio
	sesion.Observaciones = req.Observaciones
	sesion.ClosedAt = &now

	if err := s.repo.UpdateSesion(ctx, sesion); err != nil {
		return nil, err
	}
	return cajaToResponse(sesion), nil
}

// ── GetAbierta ────────────────────────────────────────────────────────────────

func (s *cajaService) GetAbierta(ctx context.Context) (*dto.CajaResponse, error) {
	sesion, err := s.repo.FindSesionAbierta(ctx)
	if err != nil || sesion == nil {
		return nil, ErrNoCajaAbierta
	}
	return cajaToResponse(sesion), nil
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Ingreso / retiro manual. Movements are immutable — no Update/Delete.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, usuarioNombre string, req dto.MovimientoManualRequest) error {
	if !req.Monto.IsPositive() {
		return ErrMontoInvalido
	}

	sesion, err := s.repo.FindSesionAbierta(ctx)
	if err != nil || sesion == nil {
		return ErrNoCajaAbierta
	}

	s.saldoMu.Lock(sesion.ID)
	defer s.saldoMu.Unlock(sesion.ID)

	// Re-read inside the critical section so the balance math sees the
	// latest committed saldo.
	sesion, err = s.repo.FindSesionByID(ctx, sesion.ID)
	if err != nil {
		return err
	}

	metodo := MetodoEfectivo
	mov := &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         req.Tipo,
		MetodoPago:   &metodo,
		Monto:        req.Monto,
		Descripcion:  fmt.Sprintf("%s — %s", req.Descripcion, usuarioNombre),
	}
	if err := s.repo.CreateMovimiento(ctx, mov); err != nil {
		return err
	}

	nuevo := sesion.SaldoEfectivo
	delta := req.Monto
	if req.Tipo == "retiro" {
		delta = req.Monto.Neg()
	}
	nuevo = nuevo.Add(delta)
	if nuevo.IsNegative() {
		nuevo = decimal.Zero
	}
	if err := s.repo.ActualizarSaldo(ctx, sesion.ID, nuevo); err != nil {
		return err
	}

	s.notifier.PublicarCajaActualizada(ctx, events.CajaActualizada{
		SesionCajaID: sesion.ID.String(),
		NuevoSaldo:   nuevo,
		Delta:        delta,
		Descripcion:  req.Descripcion,
	})
	return nil
}

// ── Ledger postings ───────────────────────────────────────────────────────────

func (s *cajaService) RegistrarPagoEfectivo(ctx context.Context, monto decimal.Decimal, referenciaID uuid.UUID, actor, concepto string) error {
	descripcion := fmt.Sprintf("Pago en efectivo — %s (%s)", concepto, actor)
	return s.postear(ctx, "pago", monto, referenciaID, descripcion, false)
}

func (s *cajaService) RevertirPagoEfectivo(ctx context.Context, monto decimal.Decimal, referenciaID uuid.UUID, actor, concepto string) error {
	descripcion := fmt.Sprintf("Reversa por anulación — %s (%s)", concepto, actor)
	return s.postear(ctx, "retiro", monto, referenciaID, descripcion, true)
}

// postear appends one ledger movement and adjusts the running balance under
// the till mutex. reversa subtracts (clamped at zero); otherwise adds.
func (s *cajaService) postear(ctx context.Context, tipo string, monto decimal.Decimal, referenciaID uuid.UUID, descripcion string, reversa bool) error {
	if !monto.IsPositive() {
		return ErrMontoInvalido
	}

	abierta, err := s.repo.FindSesionAbierta(ctx)
	if err != nil || abierta == nil {
		return ErrNoCajaAbierta
	}

	s.saldoMu.Lock(abierta.ID)
	defer s.saldoMu.Unlock(abierta.ID)

	sesion, err := s.repo.FindSesionByID(ctx, abierta.ID)
	if err != nil {
		return err
	}
	if !sesion.Abierta {
		// Closed between lookup and lock acquisition.
		return ErrNoCajaAbierta
	}

	metodo := MetodoEfectivo
	ref := referenciaID
	mov := &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         tipo,
		MetodoPago:   &metodo,
		Monto:        monto,
		Descripcion:  descripcion,
		ReferenciaID: &ref,
	}
	if err := s.repo.CreateMovimiento(ctx, mov); err != nil {
		return err
	}

	var nuevo, delta decimal.Decimal
	if reversa {
		nuevo = sesion.SaldoEfectivo.Sub(monto)
		if nuevo.IsNegative() {
			nuevo = decimal.Zero
		}
		delta = monto.Neg()
	} else {
		nuevo = sesion.SaldoEfectivo.Add(monto)
		delta = monto
	}
	if err := s.repo.ActualizarSaldo(ctx, sesion.ID, nuevo); err != nil {
		return err
	}

	s.notifier.PublicarCajaActualizada(ctx, events.CajaActualizada{
		SesionCajaID: sesion.ID.String(),
		NuevoSaldo:   nuevo,
		Delta:        delta,
		Descripcion:  descripcion,
	})
	return nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cajaService) Historial(ctx context.Context, page, limit int) ([]dto.CajaResponse, int64, error) {
	sesiones, total, err := s.repo.ListSesiones(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.CajaResponse, 0, len(sesiones))
	for i := range sesiones {
		out = append(out, *cajaToResponse(&sesiones[i]))
	}
	return out, total, nil
}

func (s *cajaService) Movimientos(ctx context.Context, sesionID uuid.UUID) ([]dto.MovimientoCajaResponse, error) {
	if _, err := s.repo.FindSesionByID(ctx, sesionID); err != nil {
		return nil, errors.New("sesión de caja no encontrada")
	}
	movs, err := s.repo.ListMovimientos(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoCajaResponse, 0, len(movs))
	for _, m := range movs {
		var ref *string
		if m.ReferenciaID != nil {
			r := m.ReferenciaID.String()
			ref = &r
		}
		out = append(out, dto.MovimientoCajaResponse{
			ID:           m.ID.String(),
			Tipo:         m.Tipo,
			MetodoPago:   m.MetodoPago,
			Monto:        m.Monto,
			Descripcion:  m.Descripcion,
			ReferenciaID: ref,
			CreatedAt:    m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func cajaToResponse(s *model.SesionCaja) *dto.CajaResponse {
	resp := &dto.CajaResponse{
		ID:            s.ID.String(),
		UsuarioID:     s.UsuarioID.String(),
		Abierta:       s.Abierta,
		MontoInicial:  s.MontoInicial,
		SaldoEfectivo: s.SaldoEfectivo,
		MontoCierre:   s.MontoCierre,
		Desvio:        s.Desvio,
		Observaciones: s.Observaciones,
		OpenedAt:      s.OpenedAt.Format("2006-01-02T15:04:05Z"),
	}
	if s.ClosedAt != nil {
		t := s.ClosedAt.Format("2006-01-02T15:04:05Z")
		resp.ClosedAt = &t
	}
	return resp
}
