package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ShujaGraphy7/LeadScout-Pro/models"
)

// Extractor produces best-effort partial records from DOM snapshots. It
// is a pure reader: every field lookup walks its pattern list in
// priority order and takes the first non-empty match, and the absence
// of all patterns leaves the field empty.
type Extractor struct {
	patterns Patterns
}

// NewExtractor builds an extractor over the given pattern lists.
func NewExtractor(p Patterns) *Extractor {
	return &Extractor{patterns: p}
}

// ExtractSummary reads fields from within a single card's subtree.
func (e *Extractor) ExtractSummary(card *goquery.Selection) *models.BusinessRecord {
	rec := &models.BusinessRecord{}
	if card == nil {
		return rec
	}

	rec.Name = firstText(card, e.patterns.CardName)
	rec.BusinessType = firstText(card, e.patterns.CardType)

	// The address slot shares markup with separator glyphs; accept only
	// text that looks like a street address.
	if addr := firstText(card, e.patterns.CardAddress); acceptAddress(addr) {
		rec.Address = addr
	}

	rec.Phone = firstText(card, e.patterns.CardPhone)

	if site := firstText(card, e.patterns.CardWebsite); strings.Contains(site, ".") {
		rec.Website = site
	}

	rec.Rating = combineRating(
		firstText(card, e.patterns.CardRating),
		firstText(card, e.patterns.CardReviews),
	)

	if status := firstText(card, e.patterns.CardStatus); acceptStatus(status) {
		rec.Status = status
	}
	if hours := firstText(card, e.patterns.CardHours); acceptHours(hours) {
		rec.Hours = hours
	}
	if desc := firstText(card, e.patterns.CardDescription); acceptDescription(desc) {
		rec.Description = desc
	}

	rec.Services = allTexts(card, e.patterns.CardServices)
	return rec
}

// ExtractDetail reads fields from the open detail overlay. Several
// detail patterns also match summary-card markup, so extraction is
// scoped to the panel subtree; a page with no open detail view yields
// an empty record rather than stray card fields.
func (e *Extractor) ExtractDetail(doc *goquery.Document) *models.BusinessRecord {
	rec := &models.BusinessRecord{}
	panel := e.panel(doc)
	if panel == nil {
		return rec
	}

	rec.Name = firstText(panel, e.patterns.DetailName)
	rec.BusinessType = firstText(panel, e.patterns.DetailType)
	rec.Address = firstText(panel, e.patterns.DetailAddress)
	rec.Phone = firstText(panel, e.patterns.DetailPhone)
	rec.Website = firstText(panel, e.patterns.DetailWebsite)
	rec.Rating = combineRating(
		firstText(panel, e.patterns.DetailRating),
		firstText(panel, e.patterns.DetailReviews),
	)
	rec.Status = firstText(panel, e.patterns.DetailStatus)
	rec.Hours = firstText(panel, e.patterns.DetailHours)
	rec.Services = allTexts(panel, e.patterns.DetailServices)
	return rec
}

// PanelOpen reports whether a detail overlay is present in the snapshot.
func (e *Extractor) PanelOpen(doc *goquery.Document) bool {
	return e.panel(doc) != nil
}

// PanelName returns the display name of the entity whose detail view is
// currently open, or "" when no panel is open or no name can be read.
func (e *Extractor) PanelName(doc *goquery.Document) string {
	panel := e.panel(doc)
	if panel == nil {
		return ""
	}
	return firstText(panel, e.patterns.DetailName)
}

// panel resolves the open detail overlay's subtree, or nil when no
// panel pattern matches.
func (e *Extractor) panel(doc *goquery.Document) *goquery.Selection {
	if doc == nil {
		return nil
	}
	for _, sel := range e.patterns.DetailPanel {
		if matches := doc.Find(sel); matches.Length() > 0 {
			return matches.First()
		}
	}
	return nil
}

// Merge overlays detail on top of summary field by field: a non-empty
// detail value wins, a missing one keeps the summary value as fallback.
// The result is cleaned (whitespace normalized, empty services dropped).
func Merge(summary, detail *models.BusinessRecord) *models.BusinessRecord {
	if summary == nil {
		summary = &models.BusinessRecord{}
	}
	if detail == nil {
		detail = &models.BusinessRecord{}
	}

	pick := func(d, s string) string {
		if strings.TrimSpace(d) != "" {
			return d
		}
		return s
	}

	merged := &models.BusinessRecord{
		Name:         pick(detail.Name, summary.Name),
		BusinessType: pick(detail.BusinessType, summary.BusinessType),
		Address:      pick(detail.Address, summary.Address),
		Phone:        pick(detail.Phone, summary.Phone),
		Email:        pick(detail.Email, summary.Email),
		Website:      pick(detail.Website, summary.Website),
		Rating:       pick(detail.Rating, summary.Rating),
		Status:       pick(detail.Status, summary.Status),
		Hours:        pick(detail.Hours, summary.Hours),
		Description:  pick(detail.Description, summary.Description),
	}
	if len(detail.Services) > 0 {
		merged.Services = detail.Services
	} else {
		merged.Services = summary.Services
	}
	return Clean(merged)
}

// Clean normalizes all text fields in place and filters empty service
// entries. Returns rec for chaining.
func Clean(rec *models.BusinessRecord) *models.BusinessRecord {
	rec.Name = normalizeText(rec.Name)
	rec.BusinessType = normalizeText(rec.BusinessType)
	rec.Address = normalizeText(rec.Address)
	rec.Phone = normalizeText(rec.Phone)
	rec.Email = normalizeText(rec.Email)
	rec.Website = normalizeText(rec.Website)
	rec.Rating = normalizeText(rec.Rating)
	rec.Status = normalizeText(rec.Status)
	rec.Hours = normalizeText(rec.Hours)
	rec.Description = normalizeText(rec.Description)

	services := rec.Services[:0]
	for _, s := range rec.Services {
		if cleaned := normalizeText(s); cleaned != "" {
			services = append(services, cleaned)
		}
	}
	rec.Services = services
	return rec
}

// firstText walks selectors in priority order and returns the first
// non-empty trimmed text.
func firstText(scope *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if text := normalizeText(scope.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// allTexts collects non-empty texts from every match of the first
// selector that matches at all.
func allTexts(scope *goquery.Selection, selectors []string) []string {
	for _, sel := range selectors {
		matches := scope.Find(sel)
		if matches.Length() == 0 {
			continue
		}
		var out []string
		matches.Each(func(_ int, s *goquery.Selection) {
			if text := normalizeText(s.Text()); text != "" {
				out = append(out, text)
			}
		})
		return out
	}
	return nil
}

func combineRating(rating, reviews string) string {
	if rating == "" {
		return ""
	}
	if reviews == "" {
		return rating
	}
	return rating + " " + reviews
}

func acceptAddress(s string) bool {
	return s != "" && !strings.Contains(s, "·") && len(s) > 5
}

func acceptStatus(s string) bool {
	return strings.Contains(s, "Open") || strings.Contains(s, "Closed")
}

func acceptHours(s string) bool {
	return strings.Contains(s, "Opens") || strings.Contains(s, "Closes")
}

func acceptDescription(s string) bool {
	return len(s) > 20 &&
		!strings.Contains(s, "·") &&
		!strings.Contains(s, "Open") &&
		!strings.Contains(s, "Closed")
}
