package scraper

import (
	"context"
	"log/slog"
	"time"
)

// ScrollDriver inspects and drives the results-list scroll container to
// make the host page render more content.
type ScrollDriver struct {
	surface  Surface
	patterns Patterns
	margin   float64
	settle   time.Duration
	metrics  *Metrics
	logger   *slog.Logger
}

// NewScrollDriver builds a driver. margin is the px tolerance band that
// treats "almost at bottom" as "at bottom"; settle bounds the wait for
// lazy content after each scroll attempt.
func NewScrollDriver(surface Surface, patterns Patterns, margin float64, settle time.Duration, metrics *Metrics, logger *slog.Logger) *ScrollDriver {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScrollDriver{
		surface:  surface,
		patterns: patterns,
		margin:   margin,
		settle:   settle,
		metrics:  metrics,
		logger:   logger,
	}
}

// FindRegion locates the results-list scroll container: the first
// candidate pattern whose content height exceeds its visible height.
// When the primary list misses it sweeps the broader fallback set with
// the same overflow test.
func (d *ScrollDriver) FindRegion(ctx context.Context) (string, Region, bool) {
	for _, sel := range d.patterns.ScrollRegions {
		if r, ok := d.probe(ctx, sel); ok {
			return sel, r, true
		}
	}
	for _, sel := range d.patterns.ScrollFallback {
		if r, ok := d.probe(ctx, sel); ok {
			return sel, r, true
		}
	}
	return "", Region{}, false
}

func (d *ScrollDriver) probe(ctx context.Context, sel string) (Region, bool) {
	r, found, err := d.surface.RegionMetrics(ctx, sel)
	if err != nil || !found {
		return Region{}, false
	}
	if r.Height <= r.ViewHeight {
		return Region{}, false
	}
	return r, true
}

// CanScrollFurther reports whether the container is still meaningfully
// above its bottom.
func (d *ScrollDriver) CanScrollFurther(ctx context.Context) bool {
	_, r, ok := d.FindRegion(ctx)
	if !ok {
		return false
	}
	return r.Top+r.ViewHeight < r.Height-d.margin
}

// RequestMore asks the host page for more content. It tries three
// scroll distances in order: 80% of the viewport, a fixed 500px step,
// and a jump to the bottom. After each it waits for lazy content and
// checks whether the content height grew; the first growth wins.
// Returns whether new content appeared.
func (d *ScrollDriver) RequestMore(ctx context.Context) bool {
	sel, r, ok := d.FindRegion(ctx)
	if !ok {
		d.metrics.IncScroll("no_region")
		return false
	}

	before := r.Height
	targets := []float64{
		r.Top + r.ViewHeight*0.8,
		r.Top + 500,
		r.Height,
	}

	for i, top := range targets {
		if ctx.Err() != nil {
			return false
		}
		if err := d.surface.ScrollTo(ctx, sel, top); err != nil {
			d.logger.Debug("scroll failed",
				slog.Int("strategy", i+1),
				slog.Any("error", err),
			)
			continue
		}
		if !sleepCtx(ctx, d.settle) {
			return false
		}
		after, found, err := d.surface.RegionMetrics(ctx, sel)
		if err == nil && found && after.Height > before {
			d.metrics.IncScroll("grew")
			d.logger.Debug("new content loaded",
				slog.Int("strategy", i+1),
				slog.Float64("before", before),
				slog.Float64("after", after.Height),
			)
			return true
		}
	}

	d.metrics.IncScroll("no_growth")
	return false
}
