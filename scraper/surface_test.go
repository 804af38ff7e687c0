package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSurface is a scripted stand-in for the live page. Tests mutate
// its document and geometry through callbacks to simulate the host
// page reacting to clicks and scrolls.
type fakeSurface struct {
	mu sync.Mutex

	html      string
	region    Region
	hasRegion bool

	clickOK    bool
	clickErr   error
	onClick    func(container string, index int, target string)
	onDispatch func(container string, index int, target string)
	onScroll   func(top float64)

	clicks     int
	dispatches int
	scrolls    int
}

func newFakeSurface(html string) *fakeSurface {
	return &fakeSurface{html: html, clickOK: true}
}

func (f *fakeSurface) setHTML(html string) {
	f.mu.Lock()
	f.html = html
	f.mu.Unlock()
}

func (f *fakeSurface) setRegion(r Region) {
	f.mu.Lock()
	f.region = r
	f.hasRegion = true
	f.mu.Unlock()
}

func (f *fakeSurface) Document(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.html, nil
}

func (f *fakeSurface) Click(ctx context.Context, container string, index int, target string) (bool, error) {
	f.mu.Lock()
	f.clicks++
	cb := f.onClick
	ok, err := f.clickOK, f.clickErr
	f.mu.Unlock()
	if cb != nil {
		cb(container, index, target)
	}
	return ok, err
}

func (f *fakeSurface) DispatchClick(ctx context.Context, container string, index int, target string) (bool, error) {
	f.mu.Lock()
	f.dispatches++
	cb := f.onDispatch
	f.mu.Unlock()
	if cb != nil {
		cb(container, index, target)
	}
	return true, nil
}

func (f *fakeSurface) RegionMetrics(ctx context.Context, selector string) (Region, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hasRegion {
		return Region{}, false, nil
	}
	return f.region, true, nil
}

func (f *fakeSurface) ScrollTo(ctx context.Context, selector string, top float64) error {
	f.mu.Lock()
	f.scrolls++
	cb := f.onScroll
	f.mu.Unlock()
	if cb != nil {
		cb(top)
	}
	return nil
}

func (f *fakeSurface) Location(ctx context.Context) (string, string, error) {
	return "https://maps.example.test/search/pizza", "pizza - Search", nil
}

func (f *fakeSurface) clickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clicks
}

func (f *fakeSurface) dispatchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dispatches
}

// testCard renders one result card in the markup shape the default
// patterns expect.
func testCard(name, businessType, address string) string {
	return fmt.Sprintf(`<div class="Nv2PK">
		<a class="hfpxzc" href="/maps/place/%s"></a>
		<div class="qBF1Pd fontHeadlineSmall kiIehc Hi2drd">%s</div>
		<button class="DkEaL">%s</button>
		<span class="MW4etd">4.5</span>
		<span class="UY7F9">(120)</span>
		<div class="W4Efsd"><span>%s</span><span>%s</span></div>
		<span class="UsdlK">(555) 123-4567</span>
	</div>`, strings.ReplaceAll(name, " ", "+"), name, businessType, businessType, address)
}

// testPanel renders an open detail overlay for the named entity.
func testPanel(name, businessType, address, phone, website string) string {
	return fmt.Sprintf(`<div class="m6QErb DxyBCb kA9KIf dS8AEf XiKgde">
		<h1 class="DUwDvf lfPIob">%s</h1>
		<button class="DkEaL">%s</button>
		<div class="Io6YTe fontBodyMedium kR99db fdkmkc">%s</div>
		<button data-item-id="phone:tel"><div class="Io6YTe">%s</div></button>
		<a data-item-id="authority" href="https://%s"><div class="Io6YTe">%s</div></a>
		<div class="fontDisplayLarge">4.7</div>
	</div>`, name, businessType, address, phone, website, website)
}

func resultsPage(body ...string) string {
	return `<html><body><input aria-label="Search Google Maps">` +
		strings.Join(body, "\n") + `</body></html>`
}
