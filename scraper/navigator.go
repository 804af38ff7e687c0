package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ShujaGraphy7/LeadScout-Pro/models"
)

// Navigator brings up the detail view for one card and extracts it.
// The host page has a single detail-view slot: only one entity's panel
// can be open at a time, and the navigator deliberately leaves it open
// after extraction so the next card can short-circuit when the panel
// already shows the same entity.
type Navigator struct {
	surface   Surface
	patterns  Patterns
	extractor *Extractor

	detailTimeout time.Duration
	retryTimeout  time.Duration
	pollInterval  time.Duration

	// lastEntity caches the display name of the entity whose panel was
	// most recently opened and left behind.
	lastEntity string

	metrics *Metrics
	logger  *slog.Logger
}

// NewNavigator builds a navigator. detailTimeout bounds the wait for
// the panel after a click; retryTimeout bounds the shorter wait after
// the synthetic-click fallback.
func NewNavigator(surface Surface, patterns Patterns, detailTimeout, retryTimeout, pollInterval time.Duration, metrics *Metrics, logger *slog.Logger) *Navigator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{
		surface:       surface,
		patterns:      patterns,
		extractor:     NewExtractor(patterns),
		detailTimeout: detailTimeout,
		retryTimeout:  retryTimeout,
		pollInterval:  pollInterval,
		metrics:       metrics,
		logger:        logger,
	}
}

// LastEntity returns the name cached from the most recent navigation.
func (n *Navigator) LastEntity() string {
	return n.lastEntity
}

// Open brings up the card's detail view and returns its extraction as a
// partial record. Every failure mode is non-fatal: a card without a
// click affordance, a panel that never appears, or an internal fault
// all yield an empty (or summary-less) partial record so the scrape
// loop can continue with the next card.
func (n *Navigator) Open(ctx context.Context, h *Handle) (rec *models.BusinessRecord) {
	defer func() {
		if r := recover(); r != nil {
			n.metrics.IncFaults()
			n.logger.Error("navigation fault contained", slog.Any("panic", r))
			rec = &models.BusinessRecord{}
		}
	}()

	target, ok := n.findAffordance(h)
	if !ok {
		n.metrics.IncNavigation("no_affordance")
		return &models.BusinessRecord{}
	}

	// Short-circuit: the previous card's panel may still show this very
	// entity after a virtualized re-render.
	if doc := n.snapshot(ctx); doc != nil {
		if name := n.extractor.PanelName(doc); name != "" && name == h.Name {
			n.metrics.IncNavigation("short_circuit")
			n.lastEntity = name
			return n.extractor.ExtractDetail(doc)
		}
	}

	clicked, err := n.surface.Click(ctx, h.Selector, h.Index, target)
	if err != nil || !clicked {
		n.logger.Debug("click missed",
			slog.String("card", h.Name),
			slog.Any("error", err),
		)
	}

	opened := pollUntil(ctx, n.pollInterval, n.detailTimeout, n.panelVisible)
	if !opened {
		// Some hosts ignore programmatic .click(); retry with a
		// synthetic event dispatch and a shorter wait.
		if _, err := n.surface.DispatchClick(ctx, h.Selector, h.Index, target); err != nil {
			n.logger.Debug("synthetic click failed",
				slog.String("card", h.Name),
				slog.Any("error", err),
			)
		}
		opened = pollUntil(ctx, n.pollInterval, n.retryTimeout, n.panelVisible)
	}

	if opened {
		n.metrics.IncNavigation("opened")
	} else {
		n.metrics.IncNavigation("timeout")
	}

	// Extraction is optimistic: attempted whether or not the panel was
	// confirmed. It is scoped to the panel subtree, so an absent panel
	// yields an empty partial record rather than leaking card fields.
	doc := n.snapshot(ctx)
	if doc == nil {
		return &models.BusinessRecord{}
	}
	detail := n.extractor.ExtractDetail(doc)
	if detail.Name != "" {
		n.lastEntity = detail.Name
	}
	return detail
}

func (n *Navigator) findAffordance(h *Handle) (string, bool) {
	if h.card == nil {
		return "", false
	}
	for _, sel := range n.patterns.ClickTargets {
		if h.card.Find(sel).Length() > 0 {
			return sel, true
		}
		if h.card.Is(sel) {
			return sel, true
		}
	}
	return "", false
}

func (n *Navigator) panelVisible(ctx context.Context) bool {
	doc := n.snapshot(ctx)
	return doc != nil && n.extractor.PanelOpen(doc)
}

func (n *Navigator) snapshot(ctx context.Context) *goquery.Document {
	html, err := n.surface.Document(ctx)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}
