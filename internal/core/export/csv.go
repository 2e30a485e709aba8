package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter writes a single table as RFC 4180 CSV
type CSVExporter struct{}

// NewCSVExporter creates a new CSV exporter
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Export writes the first table. Multi-table CSV goes through the zip path
// in Service.
func (e *CSVExporter) Export(job *Job, tables []Table, writer io.Writer) error {
	if len(tables) == 0 {
		return ErrEmptyExport
	}
	return writeCSV(tables[0], writer)
}

// GetContentType returns the MIME type for CSV files
func (e *CSVExporter) GetContentType() string {
	return "text/csv"
}

// GetFileExtension returns the file extension for CSV files
func (e *CSVExporter) GetFileExtension() string {
	return ".csv"
}

func writeCSV(table Table, writer io.Writer) error {
	w := csv.NewWriter(writer)

	if err := w.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	if err := w.WriteAll(table.Cells); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}

	return nil
}
