package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func userRecords(n int) []Record {
	records := make([]Record, n)
	for i := range records {
		records[i] = Record{
			F("User ID", fmt.Sprintf("u%d", i+1)),
			F("Name", fmt.Sprintf("User %d", i+1)),
			F("Resume Count", i),
			F("Score", 1.5),
		}
	}
	return records
}

func TestExport_EmptyFailsBeforeEncoding(t *testing.T) {
	svc := NewService()

	for _, format := range []ExportFormat{FormatCSV, FormatExcel, FormatJSON, FormatPDF} {
		doc, err := svc.Export(&Job{Format: format, Sheets: []Sheet{{Name: "Users"}}})
		assert.Nil(t, doc)
		assert.True(t, errors.Is(err, ErrEmptyExport), "format %s", format)
	}

	_, err := svc.Export(&Job{Format: FormatCSV})
	assert.ErrorIs(t, err, ErrEmptyExport)
}

func TestExport_UnsupportedFormat(t *testing.T) {
	_, err := NewService().Export(&Job{Format: "docx", Sheets: []Sheet{{Records: userRecords(1)}}})

	var formatErr *UnsupportedFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, "docx", formatErr.Format)
}

func TestExport_CSVUsesFirstRecordColumns(t *testing.T) {
	records := []Record{
		{F("id", "1"), F("name", "Ada"), F("views", 3)},
		{F("name", "Linus"), F("id", "2"), F("extra", "ignored")},
		{F("id", "3"), F("views", 2.5)},
	}

	doc, err := NewService().Export(&Job{Format: FormatCSV, Sheets: []Sheet{{Name: "Resumes", Records: records}}})
	require.NoError(t, err)
	assert.Equal(t, "text/csv", doc.ContentType)
	assert.Equal(t, ".csv", doc.Extension)

	rows, err := csv.NewReader(bytes.NewReader(doc.Body)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "name", "views"},
		{"1", "Ada", "3"},
		{"2", "Linus", ""},
		{"3", "", "2.50"},
	}, rows)
}

func TestExport_CSVMultiSheetIsZipped(t *testing.T) {
	doc, err := NewService().Export(&Job{
		Format: FormatCSV,
		Sheets: []Sheet{
			{Name: "Summary", Records: []Record{{F("Metric", "Total Users"), F("Value", 3)}}},
			{Name: "Template Usage", Records: []Record{{F("Template", "modern"), F("Count", 2)}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "application/zip", doc.ContentType)

	zr, err := zip.NewReader(bytes.NewReader(doc.Body), int64(len(doc.Body)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "summary.csv", zr.File[0].Name)
	assert.Equal(t, "template_usage.csv", zr.File[1].Name)
}

func TestExport_JSONRoundTripPreservesOrder(t *testing.T) {
	records := userRecords(4)
	doc, err := NewService().Export(&Job{Format: FormatJSON, Sheets: []Sheet{{Name: "Users", Records: records}}})
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(doc.Body, &decoded))
	require.Len(t, decoded, len(records))

	for i, record := range records {
		for _, field := range record {
			want, _ := json.Marshal(field.Value)
			got, _ := json.Marshal(decoded[i][field.Key])
			assert.JSONEq(t, string(want), string(got))
		}
	}

	// key order follows the record
	first := bytes.Index(doc.Body, []byte(`"User ID"`))
	second := bytes.Index(doc.Body, []byte(`"Name"`))
	third := bytes.Index(doc.Body, []byte(`"Resume Count"`))
	assert.True(t, first < second && second < third)
}

func TestExport_JSONFormatsLikeOtherFormats(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 5, 7, 123456789, time.FixedZone("CET", 3600))
	var never *time.Time
	records := []Record{
		{F("Created", created), F("Last Login", never), F("Rate", 33.333333), F("Views", int64(7))},
	}

	doc, err := NewService().Export(&Job{Format: FormatJSON, Sheets: []Sheet{{Name: "Users", Records: records}}})
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(doc.Body, &decoded))
	require.Len(t, decoded, 1)

	row := decoded[0]
	assert.Equal(t, FormatCell(created), row["Created"])
	assert.Equal(t, "2025-03-14T08:05:07Z", row["Created"])
	assert.Nil(t, row["Last Login"])
	assert.Equal(t, 33.33, row["Rate"])
	assert.Equal(t, 7.0, row["Views"])
}

func TestExport_JSONMultiSheetIsKeyedByName(t *testing.T) {
	doc, err := NewService().Export(&Job{
		Format: FormatJSON,
		Sheets: []Sheet{
			{Name: "Summary", Records: []Record{{F("Metric", "Total"), F("Value", 1)}}},
			{Name: "Users", Records: userRecords(2)},
		},
	})
	require.NoError(t, err)

	var decoded map[string][]map[string]interface{}
	require.NoError(t, json.Unmarshal(doc.Body, &decoded))
	assert.Len(t, decoded["Summary"], 1)
	assert.Len(t, decoded["Users"], 2)
}

func TestExport_Excel(t *testing.T) {
	long := bytes.Repeat([]byte("x"), 120)
	records := userRecords(3)
	records[0] = append(records[0], F("Notes", string(long)))

	doc, err := NewService().Export(&Job{
		Format: FormatExcel,
		Sheets: []Sheet{
			{Name: "Users", Records: records},
			{Name: "Summary", Records: []Record{{F("Metric", "Total"), F("Value", 3)}}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, ".xlsx", doc.Extension)

	f, err := excelize.OpenReader(bytes.NewReader(doc.Body))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Users", "Summary"}, f.GetSheetList())

	header, err := f.GetCellValue("Users", "A1")
	require.NoError(t, err)
	assert.Equal(t, "User ID", header)

	name, err := f.GetCellValue("Users", "B3")
	require.NoError(t, err)
	assert.Equal(t, "User 2", name)

	styleID, err := f.GetCellStyle("Users", "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	assert.True(t, style.Font.Bold)

	width, err := f.GetColWidth("Users", "E")
	require.NoError(t, err)
	assert.Equal(t, 50.0, width)

	panes, err := f.GetPanes("Users")
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
}

func TestExport_PDFPaginatesAndRepeatsHeader(t *testing.T) {
	job := &Job{
		Title:  "Users Export",
		Format: FormatPDF,
		Style:  DefaultStyle(),
		Sheets: []Sheet{{Name: "Users", Records: userRecords(120)}},
	}
	tables, err := Normalize(job.Sheets)
	require.NoError(t, err)

	pdf, err := renderPDF(job, tables)
	require.NoError(t, err)
	assert.Greater(t, pdf.PageCount(), 1)

	doc, err := NewService().Export(job)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF")))
	assert.Equal(t, "application/pdf", doc.ContentType)
}

func TestExport_PDFSmallTableIsOnePage(t *testing.T) {
	job := &Job{Format: FormatPDF, Style: DefaultStyle(), Sheets: []Sheet{{Name: "Users", Records: userRecords(3)}}}
	tables, err := Normalize(job.Sheets)
	require.NoError(t, err)

	pdf, err := renderPDF(job, tables)
	require.NoError(t, err)
	assert.Equal(t, 1, pdf.PageCount())
}

func TestBundle(t *testing.T) {
	doc, err := Bundle([]BundleFile{
		{Name: "users.csv", Body: []byte("a\n1\n")},
		{Name: "users.csv", Body: []byte("b\n2\n")},
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(doc.Body), int64(len(doc.Body)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "users.csv", zr.File[0].Name)
	assert.Equal(t, "users_2.csv", zr.File[1].Name)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "b\n2\n", string(body))

	_, err = Bundle(nil)
	assert.ErrorIs(t, err, ErrEmptyExport)
}

func TestFilename(t *testing.T) {
	at := time.Unix(1700000000, 0)
	assert.Equal(t, "users_export_1700000000.csv", Filename("users", ".csv", at))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatExcel, f)

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestFormatCell(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	var nilTime *time.Time

	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "3", FormatCell(3.0))
	assert.Equal(t, "3.14", FormatCell(3.14159))
	assert.Equal(t, "42", FormatCell(int64(42)))
	assert.Equal(t, "true", FormatCell(true))
	assert.Equal(t, "2025-01-02T02:04:05Z", FormatCell(ts))
	assert.Equal(t, "", FormatCell(nilTime))
}
