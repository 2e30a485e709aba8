package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"time"
)

const zipContentType = "application/zip"

// Service provides high-level export functionality
type Service struct {
	exporters map[ExportFormat]Exporter
	now       func() time.Time
}

// NewService creates a new export service
func NewService() *Service {
	return &Service{
		exporters: map[ExportFormat]Exporter{
			FormatCSV:   NewCSVExporter(),
			FormatExcel: NewExcelExporter(),
			FormatJSON:  NewJSONExporter(),
			FormatPDF:   NewPDFExporter(),
		},
		now: time.Now,
	}
}

// Export validates the job, normalizes its sheets once and hands the tables
// to the exporter for job.Format. CSV with more than one table is returned
// as a zip of one CSV per table.
func (s *Service) Export(job *Job) (*Document, error) {
	exporter, ok := s.exporters[job.Format]
	if !ok {
		return nil, &UnsupportedFormatError{Format: string(job.Format)}
	}

	tables, err := Normalize(job.Sheets)
	if err != nil {
		return nil, err
	}

	if job.Style == (ExportStyle{}) {
		job.Style = DefaultStyle()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}

	if job.Format == FormatCSV && len(tables) > 1 {
		return s.csvBundle(tables)
	}

	var buf bytes.Buffer
	if err := exporter.Export(job, tables, &buf); err != nil {
		return nil, fmt.Errorf("%s export failed: %w", job.Format, err)
	}

	return &Document{
		Format:      job.Format,
		ContentType: exporter.GetContentType(),
		Extension:   exporter.GetFileExtension(),
		Body:        buf.Bytes(),
	}, nil
}

func (s *Service) csvBundle(tables []Table) (*Document, error) {
	files := make([]BundleFile, 0, len(tables))
	for _, table := range tables {
		var buf bytes.Buffer
		if err := writeCSV(table, &buf); err != nil {
			return nil, err
		}
		files = append(files, BundleFile{Name: slug(table.Name) + ".csv", Body: buf.Bytes()})
	}

	doc, err := Bundle(files)
	if err != nil {
		return nil, err
	}
	doc.Format = FormatCSV
	return doc, nil
}

// BundleFile is one entry of a zip bundle
type BundleFile struct {
	Name string
	Body []byte
}

// Bundle zips files into one archive. Duplicate names get a numeric suffix.
func Bundle(files []BundleFile) (*Document, error) {
	if len(files) == 0 {
		return nil, ErrEmptyExport
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	seen := make(map[string]int, len(files))

	for _, file := range files {
		name := file.Name
		if n := seen[name]; n > 0 {
			ext := ""
			if i := strings.LastIndex(name, "."); i > 0 {
				name, ext = name[:i], name[i:]
			}
			name = fmt.Sprintf("%s_%d%s", name, n+1, ext)
		}
		seen[file.Name]++

		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to bundle: %w", name, err)
		}
		if _, err := w.Write(file.Body); err != nil {
			return nil, fmt.Errorf("failed to write %s to bundle: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize bundle: %w", err)
	}

	return &Document{
		ContentType: zipContentType,
		Extension:   ".zip",
		Body:        buf.Bytes(),
	}, nil
}

// Filename builds "<entity>_export_<unix>.<ext>"
func Filename(entity, extension string, at time.Time) string {
	return fmt.Sprintf("%s_export_%d%s", entity, at.Unix(), extension)
}

func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
}
