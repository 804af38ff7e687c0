package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scrape loop.
type Metrics struct {
	Registry             *prometheus.Registry
	CardsScannedTotal    prometheus.Counter
	RecordsTotal         prometheus.Counter
	DuplicatesTotal      prometheus.Counter
	InvalidNamesTotal    prometheus.Counter
	ScrollAttemptsTotal  *prometheus.CounterVec
	NavigationsTotal     *prometheus.CounterVec
	SessionsTotal        *prometheus.CounterVec
	ScanDuration         prometheus.Histogram
	CardProcessDuration  prometheus.Histogram
	InternalFaultsTotal  prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	cardsScanned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_cards_scanned_total",
		Help: "Total result cards discovered by visibility scans.",
	})
	records := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_records_total",
		Help: "Total business records emitted.",
	})
	duplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_duplicates_total",
		Help: "Total records discarded as duplicates.",
	})
	invalidNames := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_invalid_names_total",
		Help: "Total records discarded by the name plausibility filter.",
	})
	scrollAttempts := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_scroll_attempts_total",
			Help: "Scroll attempts by outcome.",
		},
		[]string{"outcome"},
	)
	navigations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_navigations_total",
			Help: "Detail-view navigations by outcome.",
		},
		[]string{"outcome"},
	)
	sessions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadscout_sessions_total",
			Help: "Scrape sessions by terminal reason.",
		},
		[]string{"reason"},
	)
	scanDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "leadscout_scan_duration_seconds",
		Help:    "Duration of one visibility scan.",
		Buckets: prometheus.DefBuckets,
	})
	cardDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "leadscout_card_process_duration_seconds",
		Help:    "End-to-end processing time for one card.",
		Buckets: prometheus.DefBuckets,
	})
	faults := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leadscout_internal_faults_total",
		Help: "Internal faults contained at the per-card boundary.",
	})

	registry.MustRegister(cardsScanned, records, duplicates, invalidNames,
		scrollAttempts, navigations, sessions, scanDuration, cardDuration, faults)

	return &Metrics{
		Registry:            registry,
		CardsScannedTotal:   cardsScanned,
		RecordsTotal:        records,
		DuplicatesTotal:     duplicates,
		InvalidNamesTotal:   invalidNames,
		ScrollAttemptsTotal: scrollAttempts,
		NavigationsTotal:    navigations,
		SessionsTotal:       sessions,
		ScanDuration:        scanDuration,
		CardProcessDuration: cardDuration,
		InternalFaultsTotal: faults,
	}
}

// IncCardsScanned adds n discovered cards.
func (m *Metrics) IncCardsScanned(n int) {
	if m == nil {
		return
	}
	m.CardsScannedTotal.Add(float64(n))
}

// IncRecords increments the emitted-records counter.
func (m *Metrics) IncRecords() {
	if m == nil {
		return
	}
	m.RecordsTotal.Inc()
}

// IncDuplicates increments the duplicate-discard counter.
func (m *Metrics) IncDuplicates() {
	if m == nil {
		return
	}
	m.DuplicatesTotal.Inc()
}

// IncInvalidNames increments the plausibility-discard counter.
func (m *Metrics) IncInvalidNames() {
	if m == nil {
		return
	}
	m.InvalidNamesTotal.Inc()
}

// IncScroll records one scroll attempt with its outcome label.
func (m *Metrics) IncScroll(outcome string) {
	if m == nil {
		return
	}
	m.ScrollAttemptsTotal.WithLabelValues(outcome).Inc()
}

// IncNavigation records one detail navigation with its outcome label.
func (m *Metrics) IncNavigation(outcome string) {
	if m == nil {
		return
	}
	m.NavigationsTotal.WithLabelValues(outcome).Inc()
}

// IncSession records one finished session with its terminal reason.
func (m *Metrics) IncSession(reason string) {
	if m == nil {
		return
	}
	m.SessionsTotal.WithLabelValues(reason).Inc()
}

// ObserveScan records the duration of one visibility scan.
func (m *Metrics) ObserveScan(d time.Duration) {
	if m == nil {
		return
	}
	m.ScanDuration.Observe(d.Seconds())
}

// ObserveCard records the processing time of one card.
func (m *Metrics) ObserveCard(d time.Duration) {
	if m == nil {
		return
	}
	m.CardProcessDuration.Observe(d.Seconds())
}

// IncFaults increments the contained-fault counter.
func (m *Metrics) IncFaults() {
	if m == nil {
		return
	}
	m.InternalFaultsTotal.Inc()
}
