package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ShujaGraphy7/LeadScout-Pro/models"
)

// Handle is an opaque reference to one rendered result card. It is
// valid only for the snapshot it was scanned from: Selector and Index
// re-address the card on the live page, Name carries its dedup
// identity, and Summary is the card-scoped extraction.
type Handle struct {
	Selector string
	Index    int
	Name     string
	Summary  *models.BusinessRecord

	card *goquery.Selection
}

// Scanner discovers the currently-rendered result cards. It is a pure
// reader of document snapshots; cross-scan bookkeeping belongs to the
// controller.
type Scanner struct {
	surface   Surface
	patterns  Patterns
	extractor *Extractor
	metrics   *Metrics
	logger    *slog.Logger

	// Summaries keyed by display name. Virtualized rendering destroys
	// and recreates card nodes across scans; the cache avoids
	// re-extracting a card whose name was already seen.
	summaries *lru.Cache[string, *models.BusinessRecord]
}

// NewScanner builds a scanner over the given surface.
func NewScanner(surface Surface, patterns Patterns, metrics *Metrics, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	cache, _ := lru.New[string, *models.BusinessRecord](512)
	return &Scanner{
		surface:   surface,
		patterns:  patterns,
		extractor: NewExtractor(patterns),
		metrics:   metrics,
		logger:    logger,
		summaries: cache,
	}
}

// Scan queries the current render tree for all result cards, in
// document order, deduplicated by display name within this single scan.
// An empty result is a normal outcome, not an error: it covers both
// end-of-results and an unsupported page layout.
func (s *Scanner) Scan(ctx context.Context) ([]*Handle, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveScan(time.Since(start)) }()

	html, err := s.surface.Document(ctx)
	if err != nil {
		return nil, SurfaceError{Op: "document", Err: err}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, SurfaceError{Op: "parse", Err: err}
	}

	selector, cards := s.findCards(doc)
	if cards == nil {
		return nil, nil
	}

	seen := make(map[string]struct{}, cards.Length())
	var handles []*Handle
	cards.Each(func(i int, card *goquery.Selection) {
		summary := s.summarize(card)
		name := summary.Name
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		handles = append(handles, &Handle{
			Selector: selector,
			Index:    i,
			Name:     name,
			Summary:  summary,
			card:     card,
		})
	})

	s.metrics.IncCardsScanned(len(handles))
	s.logger.Debug("visibility scan",
		slog.String("selector", selector),
		slog.Int("cards", len(handles)),
	)
	return handles, nil
}

// CountVisible returns the number of unique cards currently rendered,
// without touching the scanner's cache bookkeeping semantics.
func (s *Scanner) CountVisible(ctx context.Context) (int, error) {
	handles, err := s.Scan(ctx)
	if err != nil {
		return 0, err
	}
	return len(handles), nil
}

func (s *Scanner) findCards(doc *goquery.Document) (string, *goquery.Selection) {
	for _, sel := range s.patterns.Cards {
		if matches := doc.Find(sel); matches.Length() > 0 {
			return sel, matches
		}
	}
	return "", nil
}

func (s *Scanner) summarize(card *goquery.Selection) *models.BusinessRecord {
	name := firstText(card, s.patterns.CardName)
	if name != "" {
		if cached, ok := s.summaries.Get(name); ok {
			return cached
		}
	}
	summary := s.extractor.ExtractSummary(card)
	if summary.Name != "" {
		s.summaries.Add(summary.Name, summary)
	}
	return summary
}
