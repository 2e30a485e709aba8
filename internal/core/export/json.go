package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"
)

// JSONExporter writes tables as pretty-printed JSON. One table becomes an
// array of objects, several become an object keyed by table name. Cells keep
// their JSON type, but times and floats read the same as in the other
// formats.
type JSONExporter struct {
	indent string
}

// NewJSONExporter creates a new JSON exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{indent: "  "}
}

// Export exports data to JSON format
func (e *JSONExporter) Export(job *Job, tables []Table, writer io.Writer) error {
	if len(tables) == 0 {
		return ErrEmptyExport
	}

	var payload json.Marshaler = tableRecords(tables[0])
	if len(tables) > 1 {
		payload = namedTables(tables)
	}

	body, err := json.MarshalIndent(payload, "", e.indent)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	if _, err := writer.Write(body); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// GetContentType returns the MIME type for JSON files
func (e *JSONExporter) GetContentType() string {
	return "application/json"
}

// GetFileExtension returns the file extension for JSON files
func (e *JSONExporter) GetFileExtension() string {
	return ".json"
}

type recordList []Record

func (l recordList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Record(l))
}

func tableRecords(t Table) recordList {
	records := make(recordList, len(t.Values))
	for r, row := range t.Values {
		record := make(Record, len(t.Columns))
		for c, col := range t.Columns {
			record[c] = Field{Key: col, Value: jsonCell(row[c])}
		}
		records[r] = record
	}
	return records
}

// jsonCell applies FormatCell's time layout and float precision while
// leaving numbers as numbers
func jsonCell(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time, *time.Time:
		if text := FormatCell(v); text != "" {
			return text
		}
		return nil
	case float32:
		return round2(float64(v))
	case float64:
		return round2(v)
	default:
		return value
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

type namedTables []Table

func (n namedTables) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range n {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(t.Name)
		if err != nil {
			return nil, err
		}
		value, err := tableRecords(t).MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
