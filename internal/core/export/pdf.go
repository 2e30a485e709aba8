package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfHeaderHeight = 7.0
	pdfRowHeight    = 6.0
)

// PDFExporter implements PDF export using gofpdf
type PDFExporter struct{}

// NewPDFExporter creates a new PDF exporter
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Export exports data to PDF format
func (p *PDFExporter) Export(job *Job, tables []Table, writer io.Writer) error {
	pdf, err := renderPDF(job, tables)
	if err != nil {
		return err
	}

	// Write to output
	if err := pdf.Output(writer); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	return nil
}

// GetContentType returns the MIME type for PDF files
func (p *PDFExporter) GetContentType() string {
	return "application/pdf"
}

// GetFileExtension returns the file extension for PDF files
func (p *PDFExporter) GetFileExtension() string {
	return ".pdf"
}

// renderPDF lays out every table with fixed-width columns. Each table starts
// on a new page and its header row is redrawn whenever a row would cross the
// bottom margin.
func renderPDF(job *Job, tables []Table) (*gofpdf.Fpdf, error) {
	if len(tables) == 0 {
		return nil, ErrEmptyExport
	}

	style := job.Style

	orientation := "P"
	if style.Orientation == "landscape" {
		orientation = "L"
	}
	pageSize := style.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}
	fontSize := style.FontSize
	if fontSize <= 0 {
		fontSize = 9
	}
	// gofpdf core fonts only; custom families fall back to Arial
	fontFamily := "Arial"

	pdf := gofpdf.New(orientation, "mm", pageSize, "")
	pdf.SetAutoPageBreak(false, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pageWidth, pageHeight := pdf.GetPageSize()
	leftMargin, _, rightMargin, bottomMargin := pdf.GetMargins()
	usableWidth := pageWidth - leftMargin - rightMargin
	safeHeight := pageHeight - bottomMargin - 10

	for i, table := range tables {
		pdf.AddPage()

		if i == 0 && job.Title != "" {
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont(fontFamily, "B", 14)
			pdf.CellFormat(0, 10, tr(job.Title), "", 1, "L", false, 0, "")
		}

		// Add table name
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont(fontFamily, "B", 11)
		pdf.CellFormat(0, 7, tr(table.Name), "", 1, "L", false, 0, "")

		// Add metadata (date)
		if !job.CreatedAt.IsZero() {
			pdf.SetFont(fontFamily, "I", 8)
			pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s", job.CreatedAt.UTC().Format("2006-01-02 15:04:05")), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)

		colWidth := usableWidth / float64(len(table.Columns))

		drawHeader := func() {
			pdf.SetFont(fontFamily, "B", fontSize)
			fill := style.HeaderBgColor != ""
			if fill {
				r, g, b := hexToRGB(style.HeaderBgColor)
				pdf.SetFillColor(r, g, b)
				pdf.SetTextColor(255, 255, 255) // White text
			}
			for _, header := range table.Columns {
				pdf.CellFormat(colWidth, pdfHeaderHeight, fitText(pdf, tr(header), colWidth), "1", 0, "C", fill, 0, "")
			}
			pdf.Ln(-1)

			// Reset text color for data rows
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont(fontFamily, "", fontSize)
		}

		drawHeader()

		for rowIdx, row := range table.Cells {
			if pdf.GetY()+pdfRowHeight > safeHeight {
				pdf.AddPage()
				drawHeader()
			}

			// Alternate row colors
			if style.AlternateRows {
				bg := style.RowBgColor1
				if rowIdx%2 == 1 {
					bg = style.RowBgColor2
				}
				r, g, b := hexToRGB(bg)
				pdf.SetFillColor(r, g, b)
			}

			for _, value := range row {
				pdf.CellFormat(colWidth, pdfRowHeight, fitText(pdf, tr(value), colWidth), "1", 0, "L", style.AlternateRows, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}

	return pdf, nil
}

// fitText truncates s with an ellipsis so it fits inside a cell of width w
func fitText(pdf *gofpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}

	// translated text is single-byte, so byte slicing is safe here
	for n := len(s) - 1; n > 0; n-- {
		candidate := s[:n] + "..."
		if pdf.GetStringWidth(candidate) <= limit {
			return candidate
		}
	}
	return ""
}

// hexToRGB converts hex color to RGB values
func hexToRGB(hex string) (int, int, int) {
	// Remove # if present
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}

	// Default to white if invalid
	if len(hex) != 6 {
		return 255, 255, 255
	}

	// Parse hex
	var r, g, b int
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return r, g, b
}
