package worker

// comprobante_worker.go
// Processes receipt jobs from QueueComprobante: loads the servicio or venta,
// renders the thermal PDF, and enqueues an email job with the attachment.

import (
	"context"
	"encoding/json"
	"fmt"

	"zonagarage/internal/infra"
	"zonagarage/internal/model"
	"zonagarage/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ComprobanteJobPayload is the job envelope sent to QueueComprobante.
// Exactly one of ServicioID / VentaID is set.
type ComprobanteJobPayload struct {
	ServicioID string `json:"servicio_id,omitempty"`
	VentaID    string `json:"venta_id,omitempty"`
	ToEmail    string `json:"to_email"`
}

type ComprobanteWorker struct {
	servicioRepo   repository.ServicioRepository
	ventaRepo      repository.VentaRepository
	pagoRepo       repository.PagoRepository
	dispatcher     *Dispatcher
	pdfStoragePath string
	nombreNegocio  string
}

func NewComprobanteWorker(
	servicioRepo repository.ServicioRepository,
	ventaRepo repository.VentaRepository,
	pagoRepo repository.PagoRepository,
	dispatcher *Dispatcher,
	pdfStoragePath string,
	nombreNegocio string,
) *ComprobanteWorker {
	return &ComprobanteWorker{
		servicioRepo:   servicioRepo,
		ventaRepo:      ventaRepo,
		pagoRepo:       pagoRepo,
		dispatcher:     dispatcher,
		pdfStoragePath: pdfStoragePath,
		nombreNegocio:  nombreNegocio,
	}
}

// Process renders the PDF and hands off to the email queue. A returned error
// requeues the job (the pool retries up to maxJobAttempts, then DLQ).
func (w *ComprobanteWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ComprobanteJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("comprobante_worker: invalid payload")
		return nil // malformed payloads are not retryable
	}

	var (
		pdfPath string
		subject string
		numero  int
		err     error
	)
	switch {
	case payload.ServicioID != "":
		pdfPath, numero, err = w.RenderServicio(ctx, payload.ServicioID)
		subject = fmt.Sprintf("%s — Comprobante de servicio N° %d", w.nombreNegocio, numero)
	case payload.VentaID != "":
		pdfPath, numero, err = w.RenderVenta(ctx, payload.VentaID)
		subject = fmt.Sprintf("%s — Ticket N° %d", w.nombreNegocio, numero)
	default:
		log.Warn().Msg("comprobante_worker: payload without servicio_id or venta_id")
		return nil
	}
	if err != nil {
		log.Error().Err(err).Msg("comprobante_worker: PDF generation failed")
		return err
	}
	log.Info().Str("pdf", pdfPath).Msg("comprobante_worker: PDF generated")

	if payload.ToEmail == "" {
		return nil
	}
	emailJob := EmailJobPayload{
		ToEmail: payload.ToEmail,
		Subject: subject,
		Body:    "Adjunto encontrarás tu comprobante.\n¡Gracias por tu visita!",
		PDFPath: pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("email", payload.ToEmail).Msg("comprobante_worker: failed to enqueue email")
		return err
	}
	return nil
}

// RenderServicio generates (or regenerates) the PDF for a servicio and
// returns its path and order number. Also used by the download endpoint.
func (w *ComprobanteWorker) RenderServicio(ctx context.Context, id string) (string, int, error) {
	sid, err := uuid.Parse(id)
	if err != nil {
		return "", 0, fmt.Errorf("comprobante_worker: invalid servicio_id %q", id)
	}
	sv, err := w.servicioRepo.FindByID(ctx, sid)
	if err != nil {
		return "", 0, fmt.Errorf("comprobante_worker: servicio not found: %w", err)
	}
	pagos, err := w.pagoRepo.FindByServicioID(ctx, sid)
	if err != nil {
		pagos = []model.Pago{}
	}
	path, err := infra.GenerateServicioPDF(sv, pagos, w.nombreNegocio, w.pdfStoragePath)
	return path, sv.NumeroOrden, err
}

// RenderVenta generates (or regenerates) the PDF for a venta and returns its
// path and ticket number.
func (w *ComprobanteWorker) RenderVenta(ctx context.Context, id string) (string, int, error) {
	vid, err := uuid.Parse(id)
	if err != nil {
		return "", 0, fmt.Errorf("comprobante_worker: invalid venta_id %q", id)
	}
	venta, err := w.ventaRepo.FindByID(ctx, vid)
	if err != nil {
		return "", 0, fmt.Errorf("comprobante_worker: venta not found: %w", err)
	}
	pagos, err := w.pagoRepo.FindByVentaID(ctx, vid)
	if err != nil {
		pagos = []model.Pago{}
	}
	path, err := infra.GenerateVentaPDF(venta, pagos, w.nombreNegocio, w.pdfStoragePath)
	return path, venta.NumeroTicket, err
}
