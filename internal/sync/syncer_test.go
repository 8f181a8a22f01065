package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"zonagarage/internal/infra"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Partial fakes: the syncer only calls ListModifiedSince, everything else is
// left to the embedded nil interface.

type fakeClienteSource struct {
	repository.ClienteRepository
	rows []model.Cliente
}

func (f *fakeClienteSource) ListModifiedSince(_ context.Context, _ time.Time) ([]model.Cliente, error) {
	return f.rows, nil
}

type fakeServicioSource struct {
	repository.ServicioRepository
	rows []model.Servicio
}

func (f *fakeServicioSource) ListModifiedSince(_ context.Context, _ time.Time) ([]model.Servicio, error) {
	return f.rows, nil
}

type fakeVentaSource struct {
	repository.VentaRepository
	rows []model.Venta
}

func (f *fakeVentaSource) ListModifiedSince(_ context.Context, _ time.Time) ([]model.Venta, error) {
	return f.rows, nil
}

func newTestSyncer(remoteURL string, cb *infra.CircuitBreaker) *Syncer {
	clientes := &fakeClienteSource{rows: []model.Cliente{
		{ID: uuid.New(), Nombre: "Juan Pérez", Puntos: 120, Activo: true, UpdatedAt: time.Now()},
	}}
	servicios := &fakeServicioSource{rows: []model.Servicio{
		{ID: uuid.New(), NumeroOrden: 7, ClienteID: uuid.New(), VehiculoID: uuid.New(),
			Total: decimal.NewFromInt(100), UpdatedAt: time.Now()},
	}}
	ventas := &fakeVentaSource{rows: []model.Venta{
		{ID: uuid.New(), NumeroTicket: 3, Total: decimal.NewFromInt(45), UpdatedAt: time.Now()},
	}}
	if cb == nil {
		cb = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}
	return NewSyncer(NewRemoteClient(remoteURL, "test-key"), cb, clientes, servicios, ventas, time.Minute)
}

func TestRunCycleAdvancesWatermark(t *testing.T) {
	var tablas []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tablas = append(tablas, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("apikey"))
		assert.Equal(t, "resolution=merge-duplicates", r.Header.Get("Prefer"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := newTestSyncer(srv.URL, nil)
	s.runCycle(context.Background())

	estado := s.Estado()
	require.NotNil(t, estado.UltimaSync)
	assert.Empty(t, estado.Errores)
	assert.Equal(t, "closed", estado.CircuitBreaker)
	assert.Equal(t, []string{"/rest/v1/clientes", "/rest/v1/servicios", "/rest/v1/ventas"}, tablas)
}

func TestRunCycleFailureKeepsWatermark(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := newTestSyncer(srv.URL, nil)
	s.runCycle(context.Background())

	// A dirty cycle never advances the watermark, so the same rows are
	// retried next time.
	estado := s.Estado()
	assert.Nil(t, estado.UltimaSync)
	assert.NotEmpty(t, estado.Errores)
}

func TestRunCycleSkipsWhenCircuitOpen(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		OpenTimeout:      time.Minute,
	})
	require.Error(t, cb.Execute(func() error { return assert.AnError }))
	require.Equal(t, infra.CBOpen, cb.State())

	s := newTestSyncer(srv.URL, cb)
	s.runCycle(context.Background())

	assert.Zero(t, hits)
	assert.Nil(t, s.Estado().UltimaSync)
}

func TestErroresAcotados(t *testing.T) {
	s := newTestSyncer("http://127.0.0.1:0", nil)
	for i := 0; i < maxErrores+20; i++ {
		s.recordError("clientes", assert.AnError)
	}
	assert.Len(t, s.Estado().Errores, maxErrores)
}
