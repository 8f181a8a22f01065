package infra

// pdf.go — Thermal receipt-style PDF comprobantes using go-pdf/fpdf.
// A7-size (74mm × 105mm) output, one file per order/ticket under storagePath.

import (
	"fmt"
	"os"
	"path/filepath"

	"zonagarage/internal/model"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

// GenerateServicioPDF writes the receipt for a completed servicio and returns
// the absolute path of the generated file.
func GenerateServicioPDF(sv *model.Servicio, pagos []model.Pago, nombreNegocio, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("servicio_%d.pdf", sv.NumeroOrden))

	pdf, contentW := newReceipt()
	pageW, _ := pdf.GetPageSize()

	header(pdf, contentW, nombreNegocio, "Comprobante de Servicio")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Orden N° %d", sv.NumeroOrden), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sv.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if sv.Cliente != nil {
		pdf.CellFormat(contentW, 4, "Cliente: "+sv.Cliente.Nombre, "", 1, "L", false, 0, "")
	}
	if sv.Vehiculo != nil {
		pdf.CellFormat(contentW, 4, fmt.Sprintf("Vehículo: %s %s (%s)", sv.Vehiculo.Marca, sv.Vehiculo.Modelo, sv.Vehiculo.Patente), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	separator(pdf, pageW)

	// Service types performed
	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(contentW*0.68, 5, "Servicio", "B", 0, "L", false, 0, "")
	pdf.CellFormat(contentW*0.32, 5, "Precio", "B", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	for _, t := range sv.Tipos {
		nombre := "Servicio"
		if t.TipoServicio != nil {
			nombre = truncar(t.TipoServicio.Nombre, 26)
		}
		pdf.CellFormat(contentW*0.68, 5, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(contentW*0.32, 5, "$"+t.Precio.StringFixed(2), "", 1, "R", false, 0, "")
	}

	// Products and promotion bundles
	col1, col2, col3 := contentW*0.52, contentW*0.16, contentW*0.32
	if len(sv.Items) > 0 || len(sv.Promociones) > 0 {
		pdf.Ln(1)
		pdf.SetFont("Helvetica", "B", 7)
		pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		for _, item := range sv.Items {
			nombre := ""
			if item.Producto != nil {
				nombre = truncar(item.Producto.Nombre, 22)
			}
			pdf.CellFormat(col1, 5, nombre, "", 0, "L", false, 0, "")
			pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
			pdf.CellFormat(col3, 5, "$"+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
		}
		for _, pr := range sv.Promociones {
			nombre := "Promoción"
			if pr.Promocion != nil {
				nombre = truncar(pr.Promocion.Nombre, 22)
			}
			subtotal := pr.Precio.Mul(decimal.NewFromInt(int64(pr.Cantidad)))
			pdf.CellFormat(col1, 5, nombre, "", 0, "L", false, 0, "")
			pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", pr.Cantidad), "", 0, "C", false, 0, "")
			pdf.CellFormat(col3, 5, "$"+subtotal.StringFixed(2), "", 1, "R", false, 0, "")
		}
	}

	pdf.Ln(2)
	separator(pdf, pageW)

	pdf.SetFont("Helvetica", "", 7)
	if !sv.CargosAdicionales.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Cargos adicionales:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+sv.CargosAdicionales.StringFixed(2), "", 1, "R", false, 0, "")
	}
	if !sv.Descuento.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Descuento:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-$"+sv.Descuento.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+sv.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pagosSection(pdf, col1+col2, col3, pagos)
	footer(pdf, contentW)

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// GenerateVentaPDF writes the receipt for a counter sale and returns the
// absolute path of the generated file.
func GenerateVentaPDF(venta *model.Venta, pagos []model.Pago, nombreNegocio, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	filePath := filepath.Join(storagePath, fmt.Sprintf("ticket_%d.pdf", venta.NumeroTicket))

	pdf, contentW := newReceipt()
	pageW, _ := pdf.GetPageSize()

	header(pdf, contentW, nombreNegocio, "Comprobante de Compra")

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Ticket N° %d", venta.NumeroTicket), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, venta.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	separator(pdf, pageW)

	col1, col2, col3 := contentW*0.52, contentW*0.16, contentW*0.32
	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, item := range venta.Items {
		nombre := ""
		if item.Producto != nil {
			nombre = truncar(item.Producto.Nombre, 22)
		}
		pdf.CellFormat(col1, 5, nombre, "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", item.Cantidad), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, "$"+item.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	separator(pdf, pageW)

	pdf.SetFont("Helvetica", "", 7)
	if !venta.DescuentoTotal.IsZero() {
		pdf.CellFormat(col1+col2, 5, "Descuento:", "", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 5, "-$"+venta.DescuentoTotal.StringFixed(2), "", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, "$"+venta.Total.StringFixed(2), "", 1, "R", false, 0, "")

	pagosSection(pdf, col1+col2, col3, pagos)
	footer(pdf, contentW)

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return filePath, nil
}

// ── Layout helpers ────────────────────────────────────────────────────────────

func newReceipt() (*fpdf.Fpdf, float64) {
	// A7 ≈ 74mm × 105mm — close to thermal receipt paper
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	return pdf, pageW - 8
}

func header(pdf *fpdf.Fpdf, contentW float64, nombreNegocio, subtitulo string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, nombreNegocio, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, subtitulo, "", 1, "C", false, 0, "")
	pdf.Ln(2)
}

func separator(pdf *fpdf.Fpdf, pageW float64) {
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)
}

func pagosSection(pdf *fpdf.Fpdf, labelW, amountW float64, pagos []model.Pago) {
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "", 7)
	for _, pago := range pagos {
		pdf.CellFormat(labelW, 4, "Pago ("+pago.Metodo+"):", "", 0, "L", false, 0, "")
		pdf.CellFormat(amountW, 4, "$"+pago.Monto.StringFixed(2), "", 1, "R", false, 0, "")
	}
}

func footer(pdf *fpdf.Fpdf, contentW float64) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "¡Gracias por su visita!", "", 1, "C", false, 0, "")
}

func truncar(s string, max int) string {
	if len(s) > max {
		return s[:max-1] + "…"
	}
	return s
}
