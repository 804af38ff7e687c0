package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/ShujaGraphy7/LeadScout-Pro/models"
)

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestExtractSummary(t *testing.T) {
	doc := parseDoc(t, resultsPage(testCard("Joe's Pizza", "Pizza restaurant", "123 Main Street")))
	card := doc.Find(".Nv2PK").First()

	e := NewExtractor(DefaultPatterns())
	rec := e.ExtractSummary(card)

	if rec.Name != "Joe's Pizza" {
		t.Errorf("Name = %q, want %q", rec.Name, "Joe's Pizza")
	}
	if rec.BusinessType != "Pizza restaurant" {
		t.Errorf("BusinessType = %q, want %q", rec.BusinessType, "Pizza restaurant")
	}
	if rec.Address != "123 Main Street" {
		t.Errorf("Address = %q, want %q", rec.Address, "123 Main Street")
	}
	if rec.Phone != "(555) 123-4567" {
		t.Errorf("Phone = %q, want %q", rec.Phone, "(555) 123-4567")
	}
	if rec.Rating != "4.5 (120)" {
		t.Errorf("Rating = %q, want %q", rec.Rating, "4.5 (120)")
	}
}

func TestExtractSummaryRejectsSeparatorAddress(t *testing.T) {
	html := resultsPage(`<div class="Nv2PK">
		<div class="qBF1Pd">Some Shop</div>
		<div class="W4Efsd"><span>type</span><span>·</span></div>
	</div>`)
	doc := parseDoc(t, html)
	card := doc.Find(".Nv2PK").First()

	rec := NewExtractor(DefaultPatterns()).ExtractSummary(card)
	if rec.Address != "" {
		t.Fatalf("Address = %q, want empty for separator glyph", rec.Address)
	}
}

func TestExtractSummaryNilCard(t *testing.T) {
	rec := NewExtractor(DefaultPatterns()).ExtractSummary(nil)
	if rec == nil || rec.Name != "" {
		t.Fatalf("nil card should yield an empty record, got %+v", rec)
	}
}

func TestExtractDetail(t *testing.T) {
	doc := parseDoc(t, resultsPage(testPanel(
		"Joe's Pizza", "Pizza restaurant", "123 Main Street", "(555) 123-4567", "joespizza.example")))

	e := NewExtractor(DefaultPatterns())
	if !e.PanelOpen(doc) {
		t.Fatal("PanelOpen = false, want true")
	}
	if got := e.PanelName(doc); got != "Joe's Pizza" {
		t.Fatalf("PanelName = %q, want %q", got, "Joe's Pizza")
	}

	rec := e.ExtractDetail(doc)
	if rec.Name != "Joe's Pizza" {
		t.Errorf("Name = %q, want %q", rec.Name, "Joe's Pizza")
	}
	if rec.Address != "123 Main Street" {
		t.Errorf("Address = %q, want %q", rec.Address, "123 Main Street")
	}
	if rec.Phone != "(555) 123-4567" {
		t.Errorf("Phone = %q, want %q", rec.Phone, "(555) 123-4567")
	}
	if rec.Website != "joespizza.example" {
		t.Errorf("Website = %q, want %q", rec.Website, "joespizza.example")
	}
}

func TestPanelOpenAbsent(t *testing.T) {
	doc := parseDoc(t, resultsPage(testCard("Joe's Pizza", "Pizza restaurant", "123 Main Street")))
	if NewExtractor(DefaultPatterns()).PanelOpen(doc) {
		t.Fatal("PanelOpen = true on a page without a detail overlay")
	}
}

// Name and type patterns for the detail view also match summary-card
// markup, so a panel-less page must yield an empty detail record, not
// the first card's fields.
func TestExtractDetailIgnoresCardsWithoutPanel(t *testing.T) {
	doc := parseDoc(t, resultsPage(
		testCard("Joe's Pizza", "Pizza restaurant", "123 Main Street"),
		testCard("Maria's Tacos", "Mexican restaurant", "456 Oak Avenue"),
	))

	e := NewExtractor(DefaultPatterns())
	rec := e.ExtractDetail(doc)
	if rec.Name != "" || rec.BusinessType != "" || rec.Address != "" {
		t.Fatalf("ExtractDetail leaked card fields on a panel-less page: %+v", rec)
	}
	if got := e.PanelName(doc); got != "" {
		t.Fatalf("PanelName = %q, want empty on a panel-less page", got)
	}
}

func TestMergeDetailWins(t *testing.T) {
	summary := &models.BusinessRecord{
		Name:    "Joe's Pizza",
		Address: "123 Main Street",
		Phone:   "(555) 000-0000",
		Rating:  "4.5 (120)",
	}
	detail := &models.BusinessRecord{
		Name:    "Joe's Pizza",
		Phone:   "(555) 123-4567",
		Website: "joespizza.example",
	}

	merged := Merge(summary, detail)

	if merged.Phone != "(555) 123-4567" {
		t.Errorf("Phone = %q, want the detail value", merged.Phone)
	}
	if merged.Address != "123 Main Street" {
		t.Errorf("Address = %q, want the summary fallback", merged.Address)
	}
	if merged.Rating != "4.5 (120)" {
		t.Errorf("Rating = %q, want the summary fallback", merged.Rating)
	}
	if merged.Website != "joespizza.example" {
		t.Errorf("Website = %q, want the detail value", merged.Website)
	}
}

func TestMergeNilInputs(t *testing.T) {
	if rec := Merge(nil, nil); rec == nil {
		t.Fatal("Merge(nil, nil) returned nil")
	}
	summary := &models.BusinessRecord{Name: "Joe's Pizza"}
	if rec := Merge(summary, nil); rec.Name != "Joe's Pizza" {
		t.Fatalf("Merge(summary, nil).Name = %q, want summary name", rec.Name)
	}
}

func TestCleanNormalizesFields(t *testing.T) {
	rec := Clean(&models.BusinessRecord{
		Name:     "  Joe's   Pizza ",
		Address:  "123  Main\nStreet",
		Services: []string{" Delivery ", "", "Dine-in"},
	})

	if rec.Name != "Joe's Pizza" {
		t.Errorf("Name = %q, want collapsed whitespace", rec.Name)
	}
	if rec.Address != "123 Main Street" {
		t.Errorf("Address = %q, want collapsed whitespace", rec.Address)
	}
	if len(rec.Services) != 2 || rec.Services[0] != "Delivery" || rec.Services[1] != "Dine-in" {
		t.Errorf("Services = %v, want empty entries dropped", rec.Services)
	}
}
