// Package browser drives a Chrome instance and exposes the live page
// to the scraper through the scraper.Surface boundary.
package browser

import (
	"context"
	"log/slog"

	"github.com/chromedp/chromedp"
)

// Options configures the Chrome process.
type Options struct {
	Headless  bool
	UserAgent string
	ExecPath  string
	Width     int
	Height    int
}

// NewAllocator creates a Chrome exec allocator context. One allocator
// means one Chrome process; tabs are children of it.
func NewAllocator(parent context.Context, opts Options) (context.Context, context.CancelFunc) {
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1440
	}
	if height <= 0 {
		height = 900
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(opts.UserAgent),
		chromedp.WindowSize(width, height),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	return chromedp.NewExecAllocator(parent, allocOpts...)
}

// Tab owns one browser tab.
type Tab struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// NewTab opens a tab under the allocator context.
func NewTab(allocCtx context.Context, logger *slog.Logger) *Tab {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...interface{}) {
			logger.Debug("chromedp", slog.String("msg", "log"), slog.Any("args", args))
		}),
	)
	return &Tab{ctx: ctx, cancel: cancel, logger: logger}
}

// Navigate loads url and waits for the document to land.
func (t *Tab) Navigate(ctx context.Context, url string) error {
	return t.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

// Close tears the tab down.
func (t *Tab) Close() {
	t.cancel()
}

// run executes chromedp actions on the tab, honoring the caller's
// context for cancellation.
func (t *Tab) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	opCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(opCtx, actions...)
}
