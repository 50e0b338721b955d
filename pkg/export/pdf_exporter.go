package export

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	utf8Family = "Body"
	coreFamily = "Arial"
	lineHeight = 5.0
)

// ErrFontRequired is returned when no UTF-8 TTF font is configured. Core
// PDF fonts have no Cyrillic glyphs.
var ErrFontRequired = errors.New("pdf export requires a UTF-8 TTF font (EXPORT_FONT_PATH)")

// PDFExporter renders tables and cards with a UTF-8 TTF font.
type PDFExporter struct {
	fontPath string
	// coreFont renders with Arial and cp1252; only Latin text survives.
	coreFont bool
}

// NewPDFExporter constructs a PDF exporter. Rendering fails with
// ErrFontRequired while fontPath is empty.
func NewPDFExporter(fontPath string) *PDFExporter {
	return &PDFExporter{fontPath: fontPath}
}

// CheckFont reports whether fontPath names a readable font file.
func CheckFont(fontPath string) error {
	if fontPath == "" {
		return ErrFontRequired
	}
	info, err := os.Stat(fontPath)
	if err != nil {
		return fmt.Errorf("pdf font: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("pdf font %s is a directory", fontPath)
	}
	return nil
}

// TableDocument is a titled table with optional subtitle and signature lines.
type TableDocument struct {
	Title     string
	Subtitle  []string
	Data      Dataset
	Widths    []float64
	Footer    []string
	Landscape bool
}

// Card is a label/value sheet grouped into sections.
type Card struct {
	Header    []string
	Photo     io.Reader
	PhotoType string
	Sections  []CardSection
	Footer    []string
}

type CardSection struct {
	Title string
	Rows  []CardRow
}

type CardRow struct {
	Label string
	Value string
}

type document struct {
	*gofpdf.Fpdf
	family string
	tr     func(string) string
}

func (e *PDFExporter) newDocument(orientation string) (*document, error) {
	if e.fontPath == "" && !e.coreFont {
		return nil, ErrFontRequired
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	doc := &document{Fpdf: pdf, family: coreFamily, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if e.fontPath != "" {
		pdf.AddUTF8Font(utf8Family, "", e.fontPath)
		pdf.AddUTF8Font(utf8Family, "B", e.fontPath)
		doc.family = utf8Family
		doc.tr = func(s string) string { return s }
	}
	return doc, nil
}

func (d *document) font(style string, size float64) {
	d.SetFont(d.family, style, size)
}

func (d *document) centered(lines []string, style string, size float64) {
	d.font(style, size)
	for _, line := range lines {
		d.MultiCell(0, lineHeight+1, d.tr(line), "", "C", false)
	}
}

func (d *document) output() ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := d.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderTable creates a PDF with a heading block and a bordered, wrapping table.
func (e *PDFExporter) RenderTable(table TableDocument) ([]byte, error) {
	headers := table.Data.Headers
	if len(headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation := "P"
	if table.Landscape {
		orientation = "L"
	}
	doc, err := e.newDocument(orientation)
	if err != nil {
		return nil, err
	}
	doc.AddPage()

	if table.Title != "" {
		doc.centered([]string{strings.ToUpper(table.Title)}, "B", 12)
	}
	doc.centered(table.Subtitle, "", 10)
	doc.Ln(4)

	widths := columnWidths(doc, len(headers), table.Widths)

	drawHeader := func() {
		doc.font("B", 8)
		doc.SetFillColor(240, 240, 240)
		doc.tableRow(widths, headers, true)
	}
	drawHeader()

	doc.font("", 8)
	_, pageHeight := doc.GetPageSize()
	_, _, _, bottom := doc.GetMargins()
	for _, record := range table.Data.Records() {
		if doc.GetY()+doc.rowHeight(widths, record) > pageHeight-bottom {
			doc.AddPage()
			drawHeader()
			doc.font("", 8)
		}
		doc.tableRow(widths, record, false)
	}

	if len(table.Footer) > 0 {
		doc.Ln(10)
		doc.font("", 10)
		for _, line := range table.Footer {
			doc.MultiCell(0, lineHeight+2, doc.tr(line), "", "L", false)
		}
	}
	return doc.output()
}

func columnWidths(doc *document, n int, weights []float64) []float64 {
	pageWidth, _ := doc.GetPageSize()
	left, _, right, _ := doc.GetMargins()
	usable := pageWidth - left - right

	widths := make([]float64, n)
	total := 0.0
	for i := range widths {
		w := 1.0
		if i < len(weights) && weights[i] > 0 {
			w = weights[i]
		}
		widths[i] = w
		total += w
	}
	for i := range widths {
		widths[i] = widths[i] / total * usable
	}
	return widths
}

func (d *document) rowHeight(widths []float64, values []string) float64 {
	lines := 1
	for i, value := range values {
		if n := len(d.SplitLines([]byte(d.tr(value)), widths[i]-2)); n > lines {
			lines = n
		}
	}
	return float64(lines) * lineHeight
}

func (d *document) tableRow(widths []float64, values []string, fill bool) {
	height := d.rowHeight(widths, values)
	left, _, _, _ := d.GetMargins()
	x, y := left, d.GetY()
	style := "D"
	if fill {
		style = "FD"
	}
	for i, value := range values {
		d.Rect(x, y, widths[i], height, style)
		d.SetXY(x, y)
		d.MultiCell(widths[i], lineHeight, d.tr(value), "", "L", false)
		x += widths[i]
	}
	d.SetXY(left, y+height)
}

// RenderCard creates a one-student sheet. Rows with empty values are skipped.
func (e *PDFExporter) RenderCard(card Card) ([]byte, error) {
	doc, err := e.newDocument("P")
	if err != nil {
		return nil, err
	}
	doc.AddPage()

	pageWidth, _ := doc.GetPageSize()
	_, top, right, _ := doc.GetMargins()
	if card.Photo != nil && card.PhotoType != "" {
		opts := gofpdf.ImageOptions{ImageType: card.PhotoType}
		doc.RegisterImageOptionsReader("photo", opts, card.Photo)
		doc.ImageOptions("photo", pageWidth-right-30, top, 30, 40, false, opts, 0, "")
	}

	doc.centered(card.Header, "B", 12)
	doc.Ln(4)

	for _, section := range card.Sections {
		doc.font("B", 11)
		doc.CellFormat(0, lineHeight+2, doc.tr(strings.ToUpper(section.Title)), "B", 1, "L", false, 0, "")
		doc.Ln(1)
		for _, row := range section.Rows {
			if row.Value == "" {
				continue
			}
			doc.cardRow(row)
		}
		doc.Ln(3)
	}

	if len(card.Footer) > 0 {
		doc.Ln(8)
		doc.font("", 10)
		for _, line := range card.Footer {
			doc.MultiCell(0, lineHeight+3, doc.tr(line), "", "L", false)
		}
	}
	return doc.output()
}

func (d *document) cardRow(row CardRow) {
	pageWidth, _ := d.GetPageSize()
	left, _, right, _ := d.GetMargins()
	labelWidth := (pageWidth - left - right) * 0.4
	y := d.GetY()

	d.font("B", 10)
	d.MultiCell(labelWidth, lineHeight, d.tr(row.Label+":"), "", "L", false)
	labelEnd := d.GetY()

	d.SetXY(left+labelWidth, y)
	d.font("", 10)
	d.MultiCell(0, lineHeight, d.tr(row.Value), "", "L", false)
	if labelEnd > d.GetY() {
		d.SetY(labelEnd)
	}
}
