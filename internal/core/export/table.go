package export

import (
	"fmt"
	"strconv"
	"time"
)

// Table is a sheet normalized to a fixed column set. Values keeps the raw
// cell values (nil for missing keys); Cells holds their display strings.
type Table struct {
	Name    string
	Columns []string
	Values  [][]interface{}
	Cells   [][]string
}

// Normalize turns sheets into tables. Columns come from the first record of
// each sheet, later records are projected onto them. Empty sheets are
// dropped; if nothing is left ErrEmptyExport is returned.
func Normalize(sheets []Sheet) ([]Table, error) {
	tables := make([]Table, 0, len(sheets))

	for i, sheet := range sheets {
		if len(sheet.Records) == 0 {
			continue
		}

		name := sheet.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}

		columns := sheet.Records[0].Keys()
		table := Table{
			Name:    name,
			Columns: columns,
			Values:  make([][]interface{}, len(sheet.Records)),
			Cells:   make([][]string, len(sheet.Records)),
		}

		for r, record := range sheet.Records {
			values := make([]interface{}, len(columns))
			cells := make([]string, len(columns))
			for c, col := range columns {
				if v, ok := record.Get(col); ok {
					values[c] = v
					cells[c] = FormatCell(v)
				}
			}
			table.Values[r] = values
			table.Cells[r] = cells
		}

		tables = append(tables, table)
	}

	if len(tables) == 0 {
		return nil, ErrEmptyExport
	}

	return tables, nil
}

// FormatCell renders a value the same way in every format: integral numbers
// without decimals, other floats with two, times as RFC3339 UTC
func FormatCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(time.RFC3339)
	case *time.Time:
		if v == nil {
			return ""
		}
		return FormatCell(*v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}
