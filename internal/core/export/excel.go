package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const maxSheetNameLen = 31

// ExcelExporter implements Excel export using excelize
type ExcelExporter struct{}

// NewExcelExporter creates a new Excel exporter
func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

// Export writes one worksheet per table
func (e *ExcelExporter) Export(job *Job, tables []Table, writer io.Writer) error {
	if len(tables) == 0 {
		return ErrEmptyExport
	}

	f := excelize.NewFile()
	defer f.Close()

	style := job.Style

	headerStyle, err := e.createHeaderStyle(f, style)
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// Create alternating row styles if enabled
	oddRowStyle, err := e.createRowStyle(f, style, style.RowBgColor1)
	if err != nil {
		return fmt.Errorf("failed to create row style: %w", err)
	}
	evenRowStyle := oddRowStyle
	if style.AlternateRows {
		if evenRowStyle, err = e.createRowStyle(f, style, style.RowBgColor2); err != nil {
			return fmt.Errorf("failed to create row style: %w", err)
		}
	}

	used := make(map[string]bool, len(tables))
	for i, table := range tables {
		name := uniqueSheetName(table.Name, used)

		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}

		if err := e.writeTable(f, name, table, style, headerStyle, oddRowStyle, evenRowStyle); err != nil {
			return err
		}
	}

	// Write to output
	if err := f.Write(writer); err != nil {
		return fmt.Errorf("failed to write Excel file: %w", err)
	}

	return nil
}

func (e *ExcelExporter) writeTable(f *excelize.File, sheet string, table Table, style ExportStyle, headerStyle, oddRowStyle, evenRowStyle int) error {
	widths := make([]int, len(table.Columns))

	// Write headers
	for colIndex, header := range table.Columns {
		cell := columnNumberToName(colIndex+1) + "1"
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
		widths[colIndex] = utf8.RuneCountInString(header)
	}

	// Write data rows
	for rowIdx, row := range table.Values {
		rowNum := strconv.Itoa(rowIdx + 2)
		rowStyle := oddRowStyle
		if rowIdx%2 == 1 {
			rowStyle = evenRowStyle
		}

		for colIndex, value := range row {
			cell := columnNumberToName(colIndex+1) + rowNum
			if err := f.SetCellValue(sheet, cell, cellValue(value, table.Cells[rowIdx][colIndex])); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, rowStyle); err != nil {
				return err
			}
			if n := utf8.RuneCountInString(table.Cells[rowIdx][colIndex]); n > widths[colIndex] {
				widths[colIndex] = n
			}
		}
	}

	// Auto width, capped
	maxWidth := style.MaxColumnWidth
	if maxWidth <= 0 {
		maxWidth = 50
	}
	for colIndex, w := range widths {
		colName := columnNumberToName(colIndex + 1)
		if err := f.SetColWidth(sheet, colName, colName, ColumnWidth(w, maxWidth)); err != nil {
			return err
		}
	}

	// Freeze header row if enabled
	if style.FreezeHeader {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			XSplit:      0,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze header: %w", err)
		}
	}

	// Add auto-filter if enabled
	if style.AutoFilter && len(table.Columns) > 0 {
		lastCol := columnNumberToName(len(table.Columns))
		lastRow := 1 + len(table.Values)
		if err := f.AutoFilter(sheet, fmt.Sprintf("A1:%s%d", lastCol, lastRow), nil); err != nil {
			return fmt.Errorf("failed to add auto filter: %w", err)
		}
	}

	return nil
}

// GetContentType returns the MIME type for Excel files
func (e *ExcelExporter) GetContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// GetFileExtension returns the file extension for Excel files
func (e *ExcelExporter) GetFileExtension() string {
	return ".xlsx"
}

// ColumnWidth is the longest cell plus padding, capped at max
func ColumnWidth(longest int, max float64) float64 {
	w := float64(longest + 2)
	if w > max {
		return max
	}
	return w
}

// numbers stay numeric in the sheet, everything else uses the display text
func cellValue(value interface{}, display string) interface{} {
	switch value.(type) {
	case int, int32, int64, uint64, float32, float64:
		return value
	default:
		return display
	}
}

// createHeaderStyle creates the header style
func (e *ExcelExporter) createHeaderStyle(f *excelize.File, style ExportStyle) (int, error) {
	headerStyle := &excelize.Style{
		Font: &excelize.Font{
			Bold:   style.HeaderBold,
			Size:   style.FontSize,
			Family: style.FontFamily,
			Color:  "FFFFFF",
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	}

	if style.HeaderBgColor != "" {
		headerStyle.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{stripHashFromColor(style.HeaderBgColor)},
		}
	} else {
		headerStyle.Font.Color = "000000"
	}

	return f.NewStyle(headerStyle)
}

// createRowStyle creates a row style with background color
func (e *ExcelExporter) createRowStyle(f *excelize.File, style ExportStyle, bgColor string) (int, error) {
	rowStyle := &excelize.Style{
		Font: &excelize.Font{
			Size:   style.FontSize,
			Family: style.FontFamily,
		},
	}

	// Only add fill if bgColor is not white
	if bgColor != "" && !strings.EqualFold(bgColor, "#FFFFFF") {
		rowStyle.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{stripHashFromColor(bgColor)},
		}
	}

	return f.NewStyle(rowStyle)
}

// uniqueSheetName strips characters Excel rejects, truncates to 31 runes
// and de-duplicates within one workbook
func uniqueSheetName(name string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	if clean == "" {
		clean = "Sheet"
	}
	if utf8.RuneCountInString(clean) > maxSheetNameLen {
		clean = string([]rune(clean)[:maxSheetNameLen])
	}

	candidate := clean
	for i := 2; used[strings.ToLower(candidate)]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		base := []rune(clean)
		if len(base)+len(suffix) > maxSheetNameLen {
			base = base[:maxSheetNameLen-len(suffix)]
		}
		candidate = string(base) + suffix
	}
	used[strings.ToLower(candidate)] = true

	return candidate
}

// columnNumberToName converts column number to Excel column name (1 -> A, 27 -> AA)
func columnNumberToName(col int) string {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+(col%26))) + name
		col /= 26
	}
	return name
}

// stripHashFromColor removes # from hex color codes
func stripHashFromColor(color string) string {
	if len(color) > 0 && color[0] == '#' {
		return color[1:]
	}
	return color
}
