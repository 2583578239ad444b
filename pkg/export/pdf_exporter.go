package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Section is a titled list of label/value pairs.
type Section struct {
	Title  string
	Fields []KeyValue
}

// KeyValue is one labelled line of a document section.
type KeyValue struct {
	Label string
	Value string
}

// Document is a free-form report made of sections and an optional item list.
type Document struct {
	Title    string
	Subtitle string
	Sections []Section
	// Items is rendered as a bulleted list after the sections.
	ItemsTitle string
	Items      []string
}

// PDFExporter renders datasets and documents into PDF.
type PDFExporter struct {
	now func() time.Time
}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{now: time.Now}
}

// ContentType reports the MIME type of Render output.
func (e *PDFExporter) ContentType() string { return "application/pdf" }

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation := "P"
	width := 190.0
	if len(data.Headers) > 5 {
		orientation = "L"
		width = 277.0
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(title)), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := width / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, tr(header), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			pdf.CellFormat(colWidth, 7, tr(row[header]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	e.footer(pdf, tr)
	return output(pdf)
}

// RenderDocument lays out a sectioned document such as an enrollment dossier.
func (e *PDFExporter) RenderDocument(doc Document) ([]byte, error) {
	if doc.Title == "" {
		return nil, fmt.Errorf("pdf document requires a title")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	for _, section := range doc.Sections {
		pdf.SetFont("Arial", "B", 11)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(0, 7, tr(section.Title), "", 1, "L", true, 0, "")
		pdf.Ln(1)
		for _, field := range section.Fields {
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(50, 6, tr(field.Label), "", 0, "L", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			value := field.Value
			if value == "" {
				value = "-"
			}
			pdf.MultiCell(0, 6, tr(value), "", "L", false)
		}
		pdf.Ln(3)
	}

	if len(doc.Items) > 0 {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, tr(doc.ItemsTitle), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		for _, item := range doc.Items {
			pdf.CellFormat(0, 6, tr("- "+item), "", 1, "L", false, 0, "")
		}
	}

	e.footer(pdf, tr)
	return output(pdf)
}

func (e *PDFExporter) footer(pdf *gofpdf.Fpdf, tr func(string) string) {
	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	stamp := fmt.Sprintf("Gerado em %s", e.now().Format("02/01/2006 15:04"))
	pdf.CellFormat(0, 5, tr(stamp), "", 1, "R", false, 0, "")
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
