package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ShujaGraphy7/LeadScout-Pro/models"
)

func sampleRecords() []*models.BusinessRecord {
	ts := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []*models.BusinessRecord{
		{
			Name:         "Joe's Pizza",
			BusinessType: "Pizza restaurant",
			Address:      "123 Main Street",
			Phone:        "(555) 123-4567",
			Website:      "joespizza.example",
			Rating:       "4.5 (120)",
			Services:     []string{"Delivery", "Dine-in"},
			ScrapedAt:    ts,
		},
		{
			Name:      "Maria's Tacos",
			Address:   "456 Oak Avenue",
			ScrapedAt: ts,
		},
	}
}

func TestCSVWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("new csv writer: %v", err)
	}

	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header plus 2 records", len(rows))
	}
	if rows[0][0] != "name" || rows[0][len(rows[0])-1] != "scraped_at" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "Joe's Pizza" {
		t.Errorf("rows[1][0] = %q", rows[1][0])
	}
	if !strings.Contains(rows[1][10], "Delivery; Dine-in") {
		t.Errorf("services column = %q, want joined list", rows[1][10])
	}
}

func TestJSONWriterEmitsJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.jsonl")
	w, err := NewJSONWriter(path)
	if err != nil {
		t.Fatalf("new json writer: %v", err)
	}
	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	var rec models.BusinessRecord
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if rec.Name != "Joe's Pizza" {
		t.Fatalf("Name = %q", rec.Name)
	}
}

func TestXLSWriterRendersTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leads.xls")
	w, err := NewXLSWriter(path)
	if err != nil {
		t.Fatalf("new xls writer: %v", err)
	}

	if err := w.Validate(); err == nil {
		t.Fatal("Validate passed before Close")
	}

	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "<table") {
		t.Error("output lacks a table element")
	}
	if !strings.Contains(content, "<td>Joe&#39;s Pizza</td>") {
		t.Error("record cell missing or not HTML-escaped")
	}
	if !strings.Contains(content, "<th>phone</th>") {
		t.Error("header row missing")
	}
}

func TestDualWriterWritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "leads.csv")
	jsonPath := filepath.Join(dir, "leads.json")

	w, err := NewDualWriter(csvPath, jsonPath)
	if err != nil {
		t.Fatalf("new dual writer: %v", err)
	}
	if err := w.Write(sampleRecords()); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	for _, p := range []string{csvPath, jsonPath} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", p)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	data, err := RenderCSV(sampleRecords())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse rendered csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
}

func TestRenderXLSEscapesMarkup(t *testing.T) {
	data := RenderXLS([]*models.BusinessRecord{
		{Name: "Joe's <Pizza> & Co"},
	})
	content := string(data)
	if strings.Contains(content, "<Pizza>") {
		t.Fatal("markup in field values must be escaped")
	}
	if !strings.Contains(content, "Joe&#39;s &lt;Pizza&gt; &amp; Co") {
		t.Fatalf("escaped cell not found in %q", content)
	}
}

func TestWritersCreateMissingDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "leads.csv")
	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("new csv writer: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("stat: %v", err)
	}
}
