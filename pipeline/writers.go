package pipeline

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ShujaGraphy7/LeadScout-Pro/models"
)

var csvHeader = []string{
	"name", "business_type", "address", "phone", "email", "website",
	"rating", "status", "hours", "description", "services", "scraped_at",
}

func recordRow(rec *models.BusinessRecord) []string {
	return []string{
		rec.Name,
		rec.BusinessType,
		rec.Address,
		rec.Phone,
		rec.Email,
		rec.Website,
		rec.Rating,
		rec.Status,
		rec.Hours,
		rec.Description,
		strings.Join(rec.Services, "; "),
		rec.ScrapedAt.Format(time.RFC3339),
	}
}

// CSVWriter writes records to CSV.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter initialises a CSV writer and writes the header row.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create csv file: %w", err)
	}

	writer := csv.NewWriter(f)
	if err := writer.Write(csvHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush csv header: %w", err)
	}

	return &CSVWriter{
		file:   f,
		writer: writer,
	}, nil
}

// Write appends records to the CSV output.
func (cw *CSVWriter) Write(records []*models.BusinessRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	for _, rec := range records {
		if err := cw.writer.Write(recordRow(rec)); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (cw *CSVWriter) Close() error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("flush csv writer: %w", err)
	}
	return cw.file.Close()
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	info, err := cw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat csv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("csv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends records in JSONL format.
func (jw *JSONWriter) Write(records []*models.BusinessRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	for _, rec := range records {
		if err := jw.encoder.Encode(rec); err != nil {
			return fmt.Errorf("encode json record: %w", err)
		}
	}

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}

	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

// XLSWriter produces a spreadsheet Excel opens directly. The file is an
// HTML table with an .xls extension, written in one shot at Close so it
// buffers records in memory until then.
type XLSWriter struct {
	filename string
	records  []*models.BusinessRecord
	written  bool
	mu       sync.Mutex
}

// NewXLSWriter prepares an XLS writer for the given path.
func NewXLSWriter(filename string) (*XLSWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &XLSWriter{filename: filename}, nil
}

// Write buffers records for the final render.
func (xw *XLSWriter) Write(records []*models.BusinessRecord) error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	xw.records = append(xw.records, records...)
	return nil
}

// Close renders the buffered records and writes the file.
func (xw *XLSWriter) Close() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if err := os.WriteFile(xw.filename, RenderXLS(xw.records), 0o644); err != nil {
		return fmt.Errorf("write xls file: %w", err)
	}
	xw.written = true
	return nil
}

// Validate ensures the spreadsheet was rendered.
func (xw *XLSWriter) Validate() error {
	xw.mu.Lock()
	defer xw.mu.Unlock()

	if !xw.written {
		return fmt.Errorf("xls file was not written")
	}
	info, err := os.Stat(xw.filename)
	if err != nil {
		return fmt.Errorf("stat xls file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("xls file is empty")
	}
	return nil
}

// RenderCSV renders records as a complete CSV document, header included.
func RenderCSV(records []*models.BusinessRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(recordRow(rec)); err != nil {
			return nil, fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderXLS renders records as Excel-compatible HTML table markup.
func RenderXLS(records []*models.BusinessRecord) []byte {
	var buf bytes.Buffer
	buf.WriteString("<html xmlns:x=\"urn:schemas-microsoft-com:office:excel\">\n")
	buf.WriteString("<head><meta charset=\"UTF-8\"></head>\n<body>\n<table border=\"1\">\n<tr>")
	for _, h := range csvHeader {
		buf.WriteString("<th>")
		buf.WriteString(html.EscapeString(h))
		buf.WriteString("</th>")
	}
	buf.WriteString("</tr>\n")
	for _, rec := range records {
		buf.WriteString("<tr>")
		for _, cell := range recordRow(rec) {
			buf.WriteString("<td>")
			buf.WriteString(html.EscapeString(cell))
			buf.WriteString("</td>")
		}
		buf.WriteString("</tr>\n")
	}
	buf.WriteString("</table>\n</body>\n</html>\n")
	return buf.Bytes()
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
