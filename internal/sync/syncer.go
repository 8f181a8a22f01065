package sync

import (
	"context"
	stdsync "sync"
	"time"

	"zonagarage/internal/infra"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"

	"github.com/rs/zerolog/log"
)

// maxErrores bounds the in-memory error log exposed by Status.
const maxErrores = 50

// SyncError is one failed push, kept for the status endpoint.
type SyncError struct {
	Tabla     string    `json:"tabla"`
	Mensaje   string    `json:"mensaje"`
	OcurridoA time.Time `json:"ocurrido_a"`
}

// Status is a snapshot of the syncer for the admin endpoint.
type Status struct {
	UltimaSync     *time.Time  `json:"ultima_sync"`
	CircuitBreaker string      `json:"circuit_breaker"`
	Errores        []SyncError `json:"errores"`
}

// Syncer periodically pushes locally-modified records to the remote mirror.
// Pushes go through a circuit breaker so a downed remote is probed, not
// hammered. The syncer is strictly one-way (local → remote) and best-effort:
// a failed cycle is retried on the next tick starting from the same watermark.
type Syncer struct {
	remote    *RemoteClient
	cb        *infra.CircuitBreaker
	clientes  repository.ClienteRepository
	servicios repository.ServicioRepository
	ventas    repository.VentaRepository
	interval  time.Duration

	mu       stdsync.Mutex
	lastSync *time.Time
	errores  []SyncError

	cancel context.CancelFunc
	runCh  chan struct{}
	done   chan struct{}
}

func NewSyncer(
	remote *RemoteClient,
	cb *infra.CircuitBreaker,
	clientes repository.ClienteRepository,
	servicios repository.ServicioRepository,
	ventas repository.VentaRepository,
	interval time.Duration,
) *Syncer {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Syncer{
		remote:    remote,
		cb:        cb,
		clientes:  clientes,
		servicios: servicios,
		ventas:    ventas,
		interval:  interval,
		runCh:     make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop for graceful shutdown.
func (s *Syncer) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		log.Info().Dur("interval", s.interval).Msg("syncer: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("syncer: shutting down")
				return
			case <-ticker.C:
				s.runCycle(ctx)
			case <-s.runCh:
				s.runCycle(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the current cycle to finish.
func (s *Syncer) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// ForceRun schedules an immediate cycle without waiting for the next tick.
func (s *Syncer) ForceRun() {
	select {
	case s.runCh <- struct{}{}:
	default: // a run is already pending
	}
}

// Estado returns the current sync status snapshot.
func (s *Syncer) Estado() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	errores := make([]SyncError, len(s.errores))
	copy(errores, s.errores)
	return Status{
		UltimaSync:     s.lastSync,
		CircuitBreaker: s.cb.State().String(),
		Errores:        errores,
	}
}

func (s *Syncer) runCycle(ctx context.Context) {
	if s.cb.State() == infra.CBOpen {
		log.Debug().Msg("syncer: circuit breaker open, skipping cycle")
		return
	}

	s.mu.Lock()
	var since time.Time
	if s.lastSync != nil {
		since = *s.lastSync
	}
	s.mu.Unlock()

	started := time.Now()
	ok := true
	ok = s.pushClientes(ctx, since) && ok
	ok = s.pushServicios(ctx, since) && ok
	ok = s.pushVentas(ctx, since) && ok

	if ok {
		// Advance the watermark only after a fully clean cycle so failed
		// rows are retried next time.
		s.mu.Lock()
		s.lastSync = &started
		s.mu.Unlock()
		log.Info().Dur("took", time.Since(started)).Msg("syncer: cycle completed")
	}
}

func (s *Syncer) pushClientes(ctx context.Context, since time.Time) bool {
	clientes, err := s.clientes.ListModifiedSince(ctx, since)
	if err != nil {
		s.recordError("clientes", err)
		return false
	}
	if len(clientes) == 0 {
		return true
	}
	rows := make([]map[string]interface{}, 0, len(clientes))
	for i := range clientes {
		rows = append(rows, clienteRow(&clientes[i]))
	}
	return s.push(ctx, "clientes", rows)
}

func (s *Syncer) pushServicios(ctx context.Context, since time.Time) bool {
	servicios, err := s.servicios.ListModifiedSince(ctx, since)
	if err != nil {
		s.recordError("servicios", err)
		return false
	}
	if len(servicios) == 0 {
		return true
	}
	rows := make([]map[string]interface{}, 0, len(servicios))
	for i := range servicios {
		rows = append(rows, servicioRow(&servicios[i]))
	}
	return s.push(ctx, "servicios", rows)
}

func (s *Syncer) pushVentas(ctx context.Context, since time.Time) bool {
	ventas, err := s.ventas.ListModifiedSince(ctx, since)
	if err != nil {
		s.recordError("ventas", err)
		return false
	}
	if len(ventas) == 0 {
		return true
	}
	rows := make([]map[string]interface{}, 0, len(ventas))
	for i := range ventas {
		rows = append(rows, ventaRow(&ventas[i]))
	}
	return s.push(ctx, "ventas", rows)
}

func (s *Syncer) push(ctx context.Context, tabla string, rows []map[string]interface{}) bool {
	err := s.cb.Execute(func() error {
		return s.remote.UpsertRows(ctx, tabla, rows)
	})
	if err != nil {
		s.recordError(tabla, err)
		return false
	}
	log.Debug().Str("tabla", tabla).Int("rows", len(rows)).Msg("syncer: pushed")
	return true
}

func (s *Syncer) recordError(tabla string, err error) {
	log.Warn().Err(err).Str("tabla", tabla).Msg("syncer: push failed")
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errores = append(s.errores, SyncError{
		Tabla:     tabla,
		Mensaje:   err.Error(),
		OcurridoA: time.Now(),
	})
	if len(s.errores) > maxErrores {
		s.errores = s.errores[len(s.errores)-maxErrores:]
	}
}

// ── Row mappers ───────────────────────────────────────────────────────────────

func clienteRow(c *model.Cliente) map[string]interface{} {
	return map[string]interface{}{
		"id":         c.ID.String(),
		"nombre":     c.Nombre,
		"telefono":   c.Telefono,
		"email":      c.Email,
		"puntos":     c.Puntos,
		"activo":     c.Activo,
		"updated_at": c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func servicioRow(sv *model.Servicio) map[string]interface{} {
	return map[string]interface{}{
		"id":           sv.ID.String(),
		"numero_orden": sv.NumeroOrden,
		"cliente_id":   sv.ClienteID.String(),
		"vehiculo_id":  sv.VehiculoID.String(),
		"total":        sv.Total.StringFixed(2),
		"updated_at":   sv.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ventaRow(v *model.Venta) map[string]interface{} {
	row := map[string]interface{}{
		"id":            v.ID.String(),
		"numero_ticket": v.NumeroTicket,
		"total":         v.Total.StringFixed(2),
		"updated_at":    v.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if v.ClienteID != nil {
		row["cliente_id"] = v.ClienteID.String()
	}
	return row
}
