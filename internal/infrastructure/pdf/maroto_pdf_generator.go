// Package pdf genera el justificante PDF de un registro de facturación
// VERI*FACTU con el código QR de cotejo de la AEAT.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Razón social + NIF  │  N° Factura + Fecha          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DESTINATARIOS: Nombre + NIF                                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DESGLOSE: Impuesto | Clave | Calificación | Tipo | Base | Cuota │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Cuota total / Importe total                        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER VERI*FACTU: Huella + CSV + QR + Leyenda              │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appbilling "github.com/jhoicas/verifactu-api/internal/application/billing"
	"github.com/jhoicas/verifactu-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 128, Green: 0, Blue: 32}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa billing.ReceiptGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateReceipt genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateReceipt(_ context.Context, data appbilling.ReceiptData) ([]byte, error) {
	rec := data.Record
	if rec == nil {
		return nil, errors.New("pdf: registro nulo")
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Factura verificable VERI*FACTU", true).
		WithAuthor(rec.IssuerName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(rec))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(recipientsRow(rec))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range breakdownRows(rec.Breakdown) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(rec))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	for _, r := range verifactuFooterRows(data) {
		m.AddRows(r)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: razón social + NIF (izq) y número + fecha de expedición (der).
func headerRow(rec *entity.InvoiceSubmission) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New(rec.IssuerName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("NIF: "+rec.ID.IssuerNIF, props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("FACTURA "+rec.InvoiceType, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New(rec.ID.SeriesNumber, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
			}),
			text.New("Fecha: "+spanishDate(rec.ID.IssueDate), props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// recipientsRow: destinatarios o la mención de factura sin destinatario.
func recipientsRow(rec *entity.InvoiceSubmission) core.Row {
	names := make([]string, 0, len(rec.Recipients))
	for _, p := range rec.Recipients {
		names = append(names, fmt.Sprintf("%s (NIF %s)", p.Name, p.NIF))
	}
	detail := strings.Join(names, "   |   ")
	if detail == "" {
		detail = "Factura sin identificación del destinatario"
	}
	return row.New(14).Add(
		col.New(12).Add(
			text.New("DESTINATARIOS", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(detail, props.Text{Size: 9, Top: 6}),
			text.New(nonEmpty(rec.OperationDescription, "-"), props.Text{
				Size: 8, Top: 11, Color: colorGray,
			}),
		),
	)
}

// tableHeaderRow: cabecera de la tabla de desglose.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Impuesto", 2, align.Center),
		h("Régimen", 2, align.Center),
		h("Calificación", 2, align.Center),
		h("Tipo %", 2, align.Right),
		h("Base", 2, align.Right),
		h("Cuota", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// breakdownRows: una fila por línea de desglose, en el orden del registro.
func breakdownRows(lines []entity.BreakdownLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	cell := func(s string, a align.Type) core.Col {
		return col.New(2).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Right: 1}))
	}
	for _, l := range lines {
		qualification := l.OperationQualification
		if l.ExemptOperation != "" {
			qualification = l.ExemptOperation
		}
		result = append(result, row.New(7).Add(
			cell(l.TaxType, align.Center),
			cell(l.RegimeKey, align.Center),
			cell(qualification, align.Center),
			cell(l.TaxRate.StringFixed(2), align.Right),
			cell(formatMoney(l.TaxableBase), align.Right),
			cell(formatMoney(l.TaxAmount), align.Right),
		))
	}
	return result
}

// totalsRow: bloque de totales alineado a la derecha.
func totalsRow(rec *entity.InvoiceSubmission) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2,
		})
	}
	grandLabel := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 2, Top: 6,
		})
	}
	value := func(s string) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1})
	}
	grandValue := func(s string) core.Component {
		return text.New(s, props.Text{
			Style: fontstyle.Bold, Size: 10, Align: align.Right,
			Color: colorPrimary, Right: 1, Top: 6,
		})
	}

	return row.New(16).Add(
		col.New(4),
		col.New(4).Add(
			label("Cuota total:"),
			grandLabel("IMPORTE TOTAL:"),
		),
		col.New(4).Add(
			value(formatMoney(rec.TaxAmount.Decimal)),
			grandValue(formatMoney(rec.TotalAmount.Decimal)),
		),
	)
}

// verifactuFooterRows: huella partida + CSV + código QR + leyenda.
func verifactuFooterRows(data appbilling.ReceiptData) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("REGISTRO DE FACTURACIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}

	if data.Record.Hash != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("Huella (SHA-256):", props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
		)))
		for _, chunk := range splitEvery(data.Record.Hash, 80) {
			rows = append(rows, row.New(4).Add(col.New(12).Add(
				text.New(chunk, props.Text{Size: 6.5, Color: colorGray, Top: 0.5, Left: 2}),
			)))
		}
	}
	if data.CSV != "" {
		rows = append(rows, row.New(5).Add(col.New(12).Add(
			text.New("CSV AEAT: "+data.CSV, props.Text{Size: 7, Top: 1}),
		)))
	}

	rows = append(rows, row.New(3))

	if data.VerificationURL != "" {
		rows = append(rows, row.New(50).Add(
			col.New(4).Add(code.NewQr(data.VerificationURL, props.Rect{
				Percent: 95,
				Center:  true,
			})),
			col.New(8).Add(
				text.New("QR tributario:\nescanee el código para cotejar\nesta factura en la sede de la AEAT.", props.Text{
					Size: 8, Top: 4, Left: 3, Color: colorGray,
				}),
				text.New("VERI*FACTU", props.Text{
					Style: fontstyle.Bold, Size: 14, Top: 22,
					Left: 3, Color: colorPrimary,
				}),
			),
		))
	}

	legend := "Factura verificable en la sede electrónica de la AEAT."
	if data.Environment != "" && data.Environment != "production" {
		legend += " Entorno de pruebas: sin validez tributaria."
	}
	rows = append(rows, row.New(8).Add(col.New(12).Add(
		text.New(legend, props.Text{Size: 6.5, Color: colorGray, Top: 2}),
	)))

	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney formatea un importe en euros con separador de miles.
// Ej: 121 → "121,00 €", 1234567.5 → "1.234.567,50 €"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	return sign + string(buf) + "," + frac + " €"
}

// spanishDate convierte YYYY-MM-DD a DD-MM-YYYY; otros formatos se devuelven igual.
func spanishDate(iso string) string {
	parts := strings.Split(iso, "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return iso
	}
	return parts[2] + "-" + parts[1] + "-" + parts[0]
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

var _ appbilling.ReceiptGenerator = (*MarotoPDFGenerator)(nil)
