package document

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"

	"github.com/rxpad/rxpad/internal/domain/prescription"
	"github.com/rxpad/rxpad/internal/platform/metrics"
)

// Page geometry in points on US letter paper.
type layout struct {
	left, top, right, bottom float64
}

var layouts = map[Variant]layout{
	VariantPreprinted: {left: 72, top: 120, right: 72, bottom: 100},
	VariantLetterhead: {left: 54, top: 48, right: 54, bottom: 72},
}

var (
	// Rx table column widths: 2.5in, 1.5in, 2in.
	columnWidths = []float64{180, 108, 144}

	accent    = [3]int{0x1e, 0x40, 0xaf}
	headerBg  = [3]int{0xe0, 0xe7, 0xff}
	gridColor = [3]int{0x80, 0x80, 0x80}
)

const (
	bodySize    = 10.0
	sectionSize = 12.0
	lineHeight  = 14.0
	cellPadding = 8.0
)

// Renderer encodes composed documents as PDF. It is safe for concurrent use;
// every call builds its own fpdf instance.
type Renderer struct {
	composer *Composer
	font     *GlyphFont
	logger   zerolog.Logger
}

func NewRenderer(composer *Composer, font *GlyphFont, logger zerolog.Logger) *Renderer {
	return &Renderer{
		composer: composer,
		font:     font,
		logger:   logger.With().Str("component", "document").Logger(),
	}
}

// Render composes p and returns the complete PDF.
func (r *Renderer) Render(_ context.Context, p *prescription.Prescription) ([]byte, error) {
	start := time.Now()
	doc := r.composer.Compose(p)

	fontLabel := FontGlyph
	if r.font == nil {
		fontLabel = FontFallback
		if nonLatinText(doc) {
			r.logger.Warn().
				Str("prescription_id", p.ID).
				Msg("glyph font unavailable; non-Latin text rendered with the fallback font")
		}
	}

	out, err := r.encode(doc, p.CreatedAt, r.font)
	if err != nil && r.font != nil {
		r.logger.Warn().Err(err).
			Str("prescription_id", p.ID).
			Str("font", r.font.Path).
			Msg("glyph font failed; re-rendered with the fallback font")
		fontLabel = FontFallback
		out, err = r.encode(doc, p.CreatedAt, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("render prescription %s: %w", p.ID, err)
	}

	metrics.DocumentRenders.WithLabelValues(string(doc.Variant), fontLabel).Inc()
	metrics.DocumentRenderDuration.WithLabelValues(string(doc.Variant)).Observe(time.Since(start).Seconds())
	return out, nil
}

// pageWriter wraps fpdf with the font choice for one document.
type pageWriter struct {
	pdf    *fpdf.Fpdf
	geo    layout
	family string
	// tr converts UTF-8 to the fallback font's code page; identity for the
	// glyph font.
	tr    func(string) string
	split func(text string, width float64) []string
}

func newPageWriter(variant Variant, font *GlyphFont) *pageWriter {
	geo := layouts[variant]
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(geo.left, geo.top, geo.right)
	pdf.SetAutoPageBreak(true, geo.bottom)
	pdf.SetCatalogSort(true)

	w := &pageWriter{pdf: pdf, geo: geo}
	if font != nil {
		pdf.AddUTF8FontFromBytes(glyphFamily, "", font.data)
		pdf.AddUTF8FontFromBytes(glyphFamily, "B", font.data)
		w.family = glyphFamily
		w.tr = func(s string) string { return s }
		w.split = pdf.SplitText
	} else {
		w.family = fallbackFamily
		w.tr = pdf.UnicodeTranslatorFromDescriptor("")
		w.split = func(text string, width float64) []string {
			var lines []string
			for _, l := range pdf.SplitLines([]byte(text), width) {
				lines = append(lines, string(l))
			}
			return lines
		}
	}
	return w
}

// encode draws doc with font, or the fallback font when font is nil. A panic
// inside fpdf is returned as an error.
func (r *Renderer) encode(doc *Document, created time.Time, font *GlyphFont) (out []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("encode pdf: %v", rec)
		}
	}()

	w := newPageWriter(doc.Variant, font)
	pdf := w.pdf

	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("rxpad", false)
	pdf.SetCreationDate(created)
	pdf.SetModificationDate(created)
	if doc.Variant == VariantLetterhead && doc.Letterhead.Footer != "" {
		pdf.SetFooterFunc(func() { w.footer(doc.Letterhead.Footer) })
	}
	pdf.AddPage()

	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockHeader:
			w.header(doc.Letterhead)
		case BlockPatient, BlockNotes:
			w.section(b.Title)
			w.paragraph("", b.Text)
		case BlockDiagnosis, BlockInvestigations:
			w.paragraph(b.Label, b.Text)
		case BlockMedicines:
			w.section(b.Title)
			w.table(MedicineColumns, b.Rows)
		case BlockSignature:
			w.signature(b.Label, b.Text)
		}
	}

	if pdf.Err() {
		return nil, pdf.Error()
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (w *pageWriter) contentWidth() float64 {
	pageW, _ := w.pdf.GetPageSize()
	return pageW - w.geo.left - w.geo.right
}

func (w *pageWriter) color(c [3]int) {
	w.pdf.SetTextColor(c[0], c[1], c[2])
}

func (w *pageWriter) header(lh Letterhead) {
	pdf := w.pdf
	half := w.contentWidth() / 2
	y := pdf.GetY()

	w.color(accent)
	pdf.SetFont(w.family, "B", 14)
	pdf.SetXY(w.geo.left, y)
	pdf.CellFormat(half, 18, w.tr(lh.Left.Name), "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 18, w.tr(lh.Right.Name), "", 1, "R", false, 0, "")

	w.color([3]int{0x33, 0x33, 0x33})
	pdf.SetFont(w.family, "", 9)
	pdf.CellFormat(half, 12, w.tr(lh.Left.Credentials), "", 0, "L", false, 0, "")
	pdf.CellFormat(half, 12, w.tr(lh.Right.Credentials), "", 1, "R", false, 0, "")

	if lh.Institution != "" {
		pdf.SetFont(w.family, "B", 11)
		pdf.CellFormat(0, 16, w.tr(lh.Institution), "", 1, "C", false, 0, "")
	}

	pdf.SetDrawColor(accent[0], accent[1], accent[2])
	pdf.SetLineWidth(1)
	lineY := pdf.GetY() + 4
	pdf.Line(w.geo.left, lineY, w.geo.left+w.contentWidth(), lineY)
	pdf.SetY(lineY + 12)
}

func (w *pageWriter) section(title string) {
	w.pdf.Ln(10)
	w.color(accent)
	w.pdf.SetFont(w.family, "B", sectionSize)
	w.pdf.CellFormat(0, 16, w.tr(title), "", 1, "L", false, 0, "")
	w.pdf.Ln(4)
}

// paragraph writes text wrapped to the content width, with an optional bold
// label leading the first line.
func (w *pageWriter) paragraph(label, text string) {
	pdf := w.pdf
	pdf.SetTextColor(0, 0, 0)
	if label != "" {
		pdf.SetFont(w.family, "B", bodySize)
		pdf.Write(lineHeight, w.tr(label+" "))
	}
	pdf.SetFont(w.family, "", bodySize)
	pdf.Write(lineHeight, w.tr(text))
	pdf.Ln(lineHeight + 4)
}

func (w *pageWriter) table(columns []string, rows [][]string) {
	pdf := w.pdf
	pdf.SetDrawColor(gridColor[0], gridColor[1], gridColor[2])
	pdf.SetLineWidth(0.5)

	// The header never sits alone at the foot of a page.
	first := w.rowHeight(columns, true)
	if len(rows) > 0 {
		first += w.rowHeight(rows[0], false)
	}
	if first > w.spaceLeft() {
		pdf.AddPage()
	}
	w.tableRow(columns, true)
	for _, row := range rows {
		if w.rowHeight(row, false) > w.spaceLeft() {
			pdf.AddPage()
			w.tableRow(columns, true)
		}
		w.tableRow(row, false)
	}
	pdf.Ln(20)
}

func (w *pageWriter) spaceLeft() float64 {
	_, pageH := w.pdf.GetPageSize()
	return pageH - w.geo.bottom - w.pdf.GetY()
}

func (w *pageWriter) cellLines(row []string) [][]string {
	lines := make([][]string, len(row))
	for i, text := range row {
		lines[i] = w.split(w.tr(text), columnWidths[i]-2*cellPadding)
		if len(lines[i]) == 0 {
			lines[i] = []string{""}
		}
	}
	return lines
}

func (w *pageWriter) rowHeight(row []string, header bool) float64 {
	w.pdf.SetFont(w.family, rowStyle(header), bodySize)
	n := 1
	for _, l := range w.cellLines(row) {
		if len(l) > n {
			n = len(l)
		}
	}
	return float64(n)*lineHeight + 2*cellPadding
}

func rowStyle(header bool) string {
	if header {
		return "B"
	}
	return ""
}

func (w *pageWriter) tableRow(row []string, header bool) {
	pdf := w.pdf
	style, fill := rowStyle(header), header
	if header {
		pdf.SetFillColor(headerBg[0], headerBg[1], headerBg[2])
		w.color(accent)
	} else {
		pdf.SetTextColor(0, 0, 0)
	}

	h := w.rowHeight(row, header)
	pdf.SetFont(w.family, style, bodySize)
	lines := w.cellLines(row)

	x, y := w.geo.left, pdf.GetY()
	for i, cell := range lines {
		rectStyle := "D"
		if fill {
			rectStyle = "FD"
		}
		pdf.Rect(x, y, columnWidths[i], h, rectStyle)
		for j, line := range cell {
			pdf.SetXY(x+cellPadding, y+cellPadding+float64(j)*lineHeight)
			pdf.CellFormat(columnWidths[i]-2*cellPadding, lineHeight, line, "", 0, "L", false, 0, "")
		}
		x += columnWidths[i]
	}
	pdf.SetXY(w.geo.left, y+h)
}

func (w *pageWriter) signature(name, credentials string) {
	pdf := w.pdf
	width := w.contentWidth()
	if w.spaceLeft() < 90 {
		pdf.AddPage()
	}
	pdf.Ln(40)
	x := w.geo.left + width - 200
	y := pdf.GetY()
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(x, y, x+200, y)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(x, y+4)
	pdf.SetFont(w.family, "B", bodySize)
	pdf.CellFormat(200, lineHeight, w.tr(name), "", 2, "C", false, 0, "")
	if strings.TrimSpace(credentials) != "" {
		pdf.SetFont(w.family, "", 9)
		pdf.CellFormat(200, 12, w.tr(credentials), "", 2, "C", false, 0, "")
	}
}

func (w *pageWriter) footer(text string) {
	pdf := w.pdf
	_, pageH := pdf.GetPageSize()
	pdf.SetY(pageH - w.geo.bottom + 24)
	pdf.SetFont(w.family, "", 8)
	pdf.SetTextColor(0x66, 0x66, 0x66)
	pdf.CellFormat(0, 10, w.tr(text), "T", 0, "C", false, 0, "")
}
