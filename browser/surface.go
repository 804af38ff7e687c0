package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/ShujaGraphy7/LeadScout-Pro/scraper"
)

// Document returns the full serialized DOM of the tab.
func (t *Tab) Document(ctx context.Context) (string, error) {
	var html string
	err := t.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", scraper.SurfaceError{Op: "document", Err: err}
	}
	return html, nil
}

// Click performs a native click on the target inside the index-th
// container match. Reports whether an element was found.
func (t *Tab) Click(ctx context.Context, container string, index int, target string) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const cards = document.querySelectorAll(%q);
		const card = cards[%d];
		if (!card) return false;
		let el = card;
		if (%q !== "") {
			el = card.matches(%q) ? card : card.querySelector(%q);
		}
		if (!el) return false;
		el.click();
		return true;
	})()`, container, index, target, target, target)

	var clicked bool
	if err := t.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, scraper.SurfaceError{Op: "click", Err: err}
	}
	return clicked, nil
}

// DispatchClick fires a synthetic MouseEvent at the target instead of
// a native click. Some listings swallow native clicks but still react
// to bubbled events.
func (t *Tab) DispatchClick(ctx context.Context, container string, index int, target string) (bool, error) {
	script := fmt.Sprintf(`(() => {
		const cards = document.querySelectorAll(%q);
		const card = cards[%d];
		if (!card) return false;
		let el = card;
		if (%q !== "") {
			el = card.matches(%q) ? card : card.querySelector(%q);
		}
		if (!el) return false;
		el.dispatchEvent(new MouseEvent('click', {bubbles: true, cancelable: true, view: window}));
		return true;
	})()`, container, index, target, target, target)

	var clicked bool
	if err := t.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return false, scraper.SurfaceError{Op: "dispatch_click", Err: err}
	}
	return clicked, nil
}

type regionMetrics struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	View   float64 `json:"view"`
}

// RegionMetrics reads scroll geometry for the first match of selector.
// The second return is false when nothing matches.
func (t *Tab) RegionMetrics(ctx context.Context, selector string) (scraper.Region, bool, error) {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return null;
		return {top: el.scrollTop, height: el.scrollHeight, view: el.clientHeight};
	})()`, selector)

	var m *regionMetrics
	if err := t.run(ctx, chromedp.Evaluate(script, &m)); err != nil {
		return scraper.Region{}, false, scraper.SurfaceError{Op: "region_metrics", Err: err}
	}
	if m == nil {
		return scraper.Region{}, false, nil
	}
	return scraper.Region{Top: m.Top, Height: m.Height, ViewHeight: m.View}, true, nil
}

// ScrollTo scrolls the first match of selector to the given offset.
func (t *Tab) ScrollTo(ctx context.Context, selector string, top float64) error {
	script := fmt.Sprintf(`(() => {
		const el = document.querySelector(%q);
		if (!el) return false;
		el.scrollTo({top: %f, behavior: 'smooth'});
		return true;
	})()`, selector, top)

	var ok bool
	if err := t.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return scraper.SurfaceError{Op: "scroll", Err: err}
	}
	if !ok {
		return scraper.SurfaceError{Op: "scroll", Err: fmt.Errorf("no element matches %q", selector)}
	}
	return nil
}

// Location reports the tab's current URL and title.
func (t *Tab) Location(ctx context.Context) (string, string, error) {
	var url, title string
	err := t.run(ctx,
		chromedp.Location(&url),
		chromedp.Title(&title),
	)
	if err != nil {
		return "", "", scraper.SurfaceError{Op: "location", Err: err}
	}
	return url, title, nil
}

var _ scraper.Surface = (*Tab)(nil)
