package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ExportFormat represents the export file format
type ExportFormat string

const (
	FormatPDF   ExportFormat = "pdf"
	FormatExcel ExportFormat = "excel"
	FormatCSV   ExportFormat = "csv"
	FormatJSON  ExportFormat = "json"
)

// ErrEmptyExport is returned before any encoding when there is nothing to write
var ErrEmptyExport = errors.New("no records to export")

// UnsupportedFormatError is returned for an unknown format name
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported export format: %s", e.Format)
}

// ParseFormat maps a request value to an ExportFormat. "xlsx" is accepted
// as an alias for excel.
func ParseFormat(value string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	case "json":
		return FormatJSON, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", &UnsupportedFormatError{Format: value}
	}
}

// Exporter is the interface for all export formats. Tables arrive already
// normalized and non-empty.
type Exporter interface {
	Export(job *Job, tables []Table, writer io.Writer) error
	GetContentType() string
	GetFileExtension() string
}

// Field is one key/value pair of a Record
type Field struct {
	Key   string
	Value interface{}
}

// Record is an ordered set of fields. Column order in every format follows
// the order fields were added.
type Record []Field

// F is shorthand for building a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Get returns the value stored under key
func (r Record) Get(key string) (interface{}, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Keys returns the field names in order
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// MarshalJSON writes the record as an object with keys in field order
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Sheet is a named sequence of uniformly shaped records
type Sheet struct {
	Name    string
	Records []Record
}

// Job describes one export request
type Job struct {
	Title     string
	Format    ExportFormat
	Sheets    []Sheet
	CreatedAt time.Time
	Style     ExportStyle
}

// Document is an encoded export ready to be sent or written
type Document struct {
	Format      ExportFormat
	ContentType string
	Extension   string
	Body        []byte
}

// ExportStyle defines styling options for exports
type ExportStyle struct {
	// PDF specific
	Orientation string // "portrait" or "landscape"
	PageSize    string // "A4", "Letter", etc.

	// Common styling
	HeaderBold    bool
	HeaderBgColor string // Hex color
	AlternateRows bool
	RowBgColor1   string // Hex color for odd rows
	RowBgColor2   string // Hex color for even rows

	// Font settings
	FontFamily string
	FontSize   float64

	// Excel specific
	FreezeHeader   bool
	AutoFilter     bool
	MaxColumnWidth float64
}

// DefaultStyle returns default export styling
func DefaultStyle() ExportStyle {
	return ExportStyle{
		Orientation:    "landscape",
		PageSize:       "A4",
		HeaderBold:     true,
		HeaderBgColor:  "#4472C4",
		AlternateRows:  true,
		RowBgColor1:    "#FFFFFF",
		RowBgColor2:    "#F2F2F2",
		FontFamily:     "Arial",
		FontSize:       9,
		FreezeHeader:   true,
		AutoFilter:     true,
		MaxColumnWidth: 50,
	}
}
