package scraper

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ShujaGraphy7/LeadScout-Pro/config"
	"github.com/ShujaGraphy7/LeadScout-Pro/models"
)

// Enricher augments a record with data from outside the host page
// (e.g. the business's own website). Implementations must be best
// effort: they fill empty fields and never fail the record.
type Enricher interface {
	Enrich(ctx context.Context, rec *models.BusinessRecord)
}

// SessionOptions carries per-start overrides of the persisted settings.
type SessionOptions struct {
	MaxResults    int
	ExtractPhones *bool
	AutoScroll    *bool
}

// session is the state of one scrape run. It is created fresh on every
// start and owned exclusively by the controller's loop; the only
// outside influence is the cooperative cancel flag.
type session struct {
	mu      sync.Mutex
	records []*models.BusinessRecord
	seen    map[string]struct{}

	targetCount    int
	processedCards int
	duplicates     int
	invalid        int
	scrolls        int
	startTime      time.Time

	extractPhones bool
	autoScroll    bool

	cancelRequested bool
}

func (s *session) cancel() {
	s.mu.Lock()
	s.cancelRequested = true
	s.mu.Unlock()
}

func (s *session) cancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelRequested
}

func (s *session) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *session) append(rec *models.BusinessRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[rec.Key()] = struct{}{}
	s.records = append(s.records, rec)
	return len(s.records)
}

func (s *session) duplicate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, dup := s.seen[key]
	return dup
}

func (s *session) snapshot() []*models.BusinessRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.BusinessRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Controller owns the scrape state machine: Idle -> Running -> Idle.
// Idle is both initial and terminal; every session returns to it
// whether it ends by user request, exhaustion, or internal fault.
type Controller struct {
	surface   Surface
	cfg       *config.Config
	patterns  Patterns
	scanner   *Scanner
	driver    *ScrollDriver
	navigator *Navigator
	sink      Sink
	metrics   *Metrics
	enricher  Enricher
	logger    *slog.Logger

	mu      sync.Mutex
	current *session
	last    []*models.BusinessRecord
}

// ControllerOptions configures optional collaborators.
type ControllerOptions struct {
	Patterns *Patterns
	Sink     Sink
	Metrics  *Metrics
	Enricher Enricher
	Logger   *slog.Logger
}

// NewController wires the supporting components over one surface.
func NewController(surface Surface, cfg *config.Config, opts ControllerOptions) *Controller {
	patterns := DefaultPatterns()
	if opts.Patterns != nil {
		patterns = *opts.Patterns
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics

	return &Controller{
		surface:   surface,
		cfg:       cfg,
		patterns:  patterns,
		scanner:   NewScanner(surface, patterns, metrics, logger),
		driver:    NewScrollDriver(surface, patterns, cfg.ScrollMargin, cfg.ScrollSettle, metrics, logger),
		navigator: NewNavigator(surface, patterns, cfg.DetailTimeout, cfg.RetryTimeout, cfg.PollInterval, metrics, logger),
		sink:      opts.Sink,
		metrics:   metrics,
		enricher:  opts.Enricher,
		logger:    logger,
	}
}

// Running reports whether a session is in flight.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Count returns the number of records accumulated by the running
// session, or by the most recently finished one.
func (c *Controller) Count() int {
	c.mu.Lock()
	s, last := c.current, c.last
	c.mu.Unlock()
	if s != nil {
		return s.count()
	}
	return len(last)
}

// Records returns a snapshot of the accumulated records: the running
// session's if one is active, otherwise the last finished session's.
func (c *Controller) Records() []*models.BusinessRecord {
	c.mu.Lock()
	s := c.current
	last := c.last
	c.mu.Unlock()
	if s != nil {
		return s.snapshot()
	}
	out := make([]*models.BusinessRecord, len(last))
	copy(out, last)
	return out
}

// Stop requests cooperative cancellation of the running session. The
// loop observes the flag between steps, never mid-step; worst-case stop
// latency is one card's full extraction plus one pacing interval. Stop
// on an idle controller is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s != nil {
		s.cancel()
	}
}

// Start begins a session asynchronously. It returns ErrBusy when one is
// already running; otherwise the started event has been emitted by the
// time it returns.
func (c *Controller) Start(ctx context.Context, opts SessionOptions) error {
	s, err := c.begin(opts)
	if err != nil {
		return err
	}
	go func() {
		result := c.loop(ctx, s)
		c.finish(s, result)
	}()
	return nil
}

// Run executes one session synchronously and returns its result. It
// returns ErrBusy when a session is already running.
func (c *Controller) Run(ctx context.Context, opts SessionOptions) (*models.ScrapeResult, error) {
	s, err := c.begin(opts)
	if err != nil {
		return nil, err
	}
	result := c.loop(ctx, s)
	c.finish(s, result)
	return result, nil
}

func (c *Controller) begin(opts SessionOptions) (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		return nil, ErrBusy
	}

	target := opts.MaxResults
	if target == 0 {
		target = c.cfg.MaxResults
	}
	extractPhones := c.cfg.ExtractPhones
	if opts.ExtractPhones != nil {
		extractPhones = *opts.ExtractPhones
	}
	autoScroll := c.cfg.AutoScroll
	if opts.AutoScroll != nil {
		autoScroll = *opts.AutoScroll
	}

	s := &session{
		seen:          make(map[string]struct{}),
		targetCount:   config.ClampMaxResults(target),
		startTime:     time.Now(),
		extractPhones: extractPhones,
		autoScroll:    autoScroll,
	}
	c.current = s

	c.logger.Info("scrape started",
		slog.Int("target", s.targetCount),
		slog.Bool("auto_scroll", s.autoScroll),
		slog.Bool("extract_phones", s.extractPhones),
	)
	c.publish(Event{Kind: EventStarted, Timestamp: time.Now()})
	return s, nil
}

func (c *Controller) finish(s *session, result *models.ScrapeResult) {
	c.mu.Lock()
	c.current = nil
	c.last = result.Records
	c.mu.Unlock()

	c.metrics.IncSession(result.Reason)
	kind := EventCompleted
	if result.Stopped {
		kind = EventStopped
	}
	c.publish(Event{
		Kind:       kind,
		TotalCount: result.TotalCount,
		Reason:     result.Reason,
		Timestamp:  time.Now(),
	})
	c.logger.Info("scrape finished",
		slog.String("reason", result.Reason),
		slog.Int("records", result.TotalCount),
		slog.Int("duplicates", result.DuplicateCount),
		slog.Int("invalid", result.InvalidCount),
	)
}

// loop drives discover -> extract -> navigate -> merge -> dedupe ->
// emit until the target is reached, the feed is exhausted, or stop is
// requested. It runs on a single goroutine; every suspension is a
// bounded timed yield.
func (c *Controller) loop(ctx context.Context, s *session) *models.ScrapeResult {
	reason := ReasonExhausted
	stopped := false
	ready := c.waitReady(ctx, s)
	if !ready {
		reason = ReasonSurfaceNeverReady
	}

	// Consecutive scroll rounds that produced no growth. The host can
	// report scrollable geometry while refusing to render more; without
	// a stall bound the loop would spin on it forever.
	stalls := 0
	const maxStalls = 2

	for ready {
		if s.cancelled() || ctx.Err() != nil {
			stopped = true
			reason = ReasonStopped
			break
		}

		handles, err := c.scanner.Scan(ctx)
		if err != nil {
			c.logger.Error("scan failed",
				slog.Any("error", err),
				slog.String("error_type", errorTypeLabel(err)),
			)
		}

		start := s.processedCards
		if start > len(handles) {
			start = len(handles)
		}
		newCards := handles[start:]

		if len(newCards) == 0 {
			if !s.autoScroll || !c.driver.CanScrollFurther(ctx) {
				break
			}
			if !c.driver.RequestMore(ctx) {
				stalls++
				if stalls >= maxStalls {
					break
				}
			} else {
				stalls = 0
			}
			s.scrolls++
			sleepCtx(ctx, c.cfg.SettleInterval)
			continue
		}
		stalls = 0

		for _, h := range newCards {
			if s.cancelled() || ctx.Err() != nil {
				stopped = true
				reason = ReasonStopped
				break
			}
			if s.count() >= s.targetCount {
				break
			}
			c.processCard(ctx, s, h)
			sleepCtx(ctx, c.cfg.PacingInterval)
		}

		s.processedCards = len(handles)

		if stopped {
			break
		}
		if s.count() >= s.targetCount {
			reason = ReasonTargetReached
			break
		}
		if !s.autoScroll || !c.driver.CanScrollFurther(ctx) {
			break
		}
		if c.driver.RequestMore(ctx) {
			stalls = 0
		} else {
			stalls++
			if stalls >= maxStalls {
				break
			}
		}
		s.scrolls++
		sleepCtx(ctx, c.cfg.SettleInterval)
	}

	if !stopped && s.cancelled() {
		stopped = true
		reason = ReasonStopped
	}

	return &models.ScrapeResult{
		Records:        s.snapshot(),
		StartTime:      s.startTime,
		EndTime:        time.Now(),
		TotalCount:     s.count(),
		ProcessedCards: s.processedCards,
		DuplicateCount: s.duplicates,
		InvalidCount:   s.invalid,
		ScrollCount:    s.scrolls,
		Stopped:        stopped,
		Reason:         reason,
	}
}

// processCard handles one card end to end. Any internal fault is
// contained here: a single bad card must never abort the session.
func (c *Controller) processCard(ctx context.Context, s *session, h *Handle) {
	defer func() {
		if r := recover(); r != nil {
			c.metrics.IncFaults()
			c.logger.Error("card processing fault contained",
				slog.String("card", h.Name),
				slog.Any("panic", r),
			)
		}
	}()
	start := time.Now()
	defer func() { c.metrics.ObserveCard(time.Since(start)) }()

	detail := c.navigator.Open(ctx, h)
	rec := Merge(h.Summary, detail)

	if !IsValidName(rec.Name) {
		s.invalid++
		c.metrics.IncInvalidNames()
		return
	}

	key := rec.Key()
	if s.duplicate(key) {
		s.duplicates++
		c.metrics.IncDuplicates()
		c.logger.Debug("duplicate skipped", slog.String("name", rec.Name))
		return
	}

	if s.extractPhones && c.enricher != nil {
		c.enricher.Enrich(ctx, rec)
	}

	rec.ScrapedAt = time.Now()
	total := s.append(rec)
	c.metrics.IncRecords()
	c.logger.Info("record found",
		slog.String("name", rec.Name),
		slog.Int("total", total),
	)
	c.publish(Event{
		Kind:       EventRecordFound,
		Record:     rec,
		TotalCount: total,
		Timestamp:  time.Now(),
	})
}

// waitReady blocks (bounded) until the host surface shows evidence of
// having initialized. Failure is non-fatal: the session still ends with
// a normal completion event carrying count 0.
func (c *Controller) waitReady(ctx context.Context, s *session) bool {
	return pollUntil(ctx, c.cfg.PollInterval, c.cfg.ReadyTimeout, func(ctx context.Context) bool {
		if s.cancelled() {
			return true
		}
		doc := c.snapshot(ctx)
		if doc == nil {
			return false
		}
		for _, sel := range c.patterns.Ready {
			if doc.Find(sel).Length() > 0 {
				return true
			}
		}
		return false
	})
}

func (c *Controller) publish(e Event) {
	if c.sink != nil {
		c.sink.Publish(e)
	}
}

// Inspection is a read-only diagnostic snapshot of the page and the
// controller, produced without mutating scrape state.
type Inspection struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	VisibleCards    int      `json:"visible_cards"`
	ScrollRegion    bool     `json:"scroll_region"`
	CanScroll       bool     `json:"can_scroll"`
	PatternsPresent []string `json:"patterns_present"`
	Running         bool     `json:"running"`
	RecordCount     int      `json:"record_count"`
}

// Inspect reports what the scraper can currently see.
func (c *Controller) Inspect(ctx context.Context) (*Inspection, error) {
	ins := &Inspection{
		Running:     c.Running(),
		RecordCount: c.Count(),
	}

	url, title, err := c.surface.Location(ctx)
	if err == nil {
		ins.URL = url
		ins.Title = title
	}

	handles, err := c.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	ins.VisibleCards = len(handles)

	_, _, ins.ScrollRegion = c.driver.FindRegion(ctx)
	ins.CanScroll = c.driver.CanScrollFurther(ctx)

	if doc := c.snapshot(ctx); doc != nil {
		for _, group := range [][]string{c.patterns.CardName, c.patterns.CardPhone, c.patterns.DetailPanel} {
			for _, sel := range group {
				if doc.Find(sel).Length() > 0 {
					ins.PatternsPresent = append(ins.PatternsPresent, sel)
					break
				}
			}
		}
	}
	return ins, nil
}

func (c *Controller) snapshot(ctx context.Context) *goquery.Document {
	html, err := c.surface.Document(ctx)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return doc
}
