package scraper

import (
	"context"
	"testing"
)

func newTestDriver(surface Surface) *ScrollDriver {
	return NewScrollDriver(surface, DefaultPatterns(), 50, 0, nil, testLogger())
}

func TestFindRegionRequiresOverflow(t *testing.T) {
	surface := newFakeSurface(resultsPage())
	driver := newTestDriver(surface)

	if _, _, ok := driver.FindRegion(context.Background()); ok {
		t.Fatal("FindRegion found a region with no metrics available")
	}

	// Content fits the viewport: not a scroll container.
	surface.setRegion(Region{Top: 0, Height: 400, ViewHeight: 400})
	if _, _, ok := driver.FindRegion(context.Background()); ok {
		t.Fatal("FindRegion accepted a region without overflow")
	}

	surface.setRegion(Region{Top: 0, Height: 1000, ViewHeight: 400})
	sel, r, ok := driver.FindRegion(context.Background())
	if !ok {
		t.Fatal("FindRegion missed an overflowing region")
	}
	if sel == "" {
		t.Fatal("FindRegion returned an empty selector")
	}
	if r.Height != 1000 {
		t.Fatalf("Height = %v, want 1000", r.Height)
	}
}

func TestCanScrollFurther(t *testing.T) {
	cases := []struct {
		name   string
		region Region
		want   bool
	}{
		{"top of long list", Region{Top: 0, Height: 1000, ViewHeight: 400}, true},
		{"mid list", Region{Top: 300, Height: 1000, ViewHeight: 400}, true},
		{"at bottom", Region{Top: 600, Height: 1000, ViewHeight: 400}, false},
		{"within margin of bottom", Region{Top: 560, Height: 1000, ViewHeight: 400}, false},
		{"just above margin", Region{Top: 540, Height: 1000, ViewHeight: 400}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			surface := newFakeSurface(resultsPage())
			surface.setRegion(tc.region)
			driver := newTestDriver(surface)
			if got := driver.CanScrollFurther(context.Background()); got != tc.want {
				t.Fatalf("CanScrollFurther = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRequestMoreDetectsGrowth(t *testing.T) {
	surface := newFakeSurface(resultsPage())
	surface.setRegion(Region{Top: 0, Height: 1000, ViewHeight: 400})
	surface.onScroll = func(top float64) {
		// The host lazy-loads another page of results.
		surface.setRegion(Region{Top: top, Height: 1400, ViewHeight: 400})
	}
	driver := newTestDriver(surface)

	if !driver.RequestMore(context.Background()) {
		t.Fatal("RequestMore = false, want growth detected")
	}
	if surface.scrolls != 1 {
		t.Fatalf("scrolls = %d, want the first strategy to win", surface.scrolls)
	}
}

func TestRequestMoreExhaustsStrategies(t *testing.T) {
	surface := newFakeSurface(resultsPage())
	surface.setRegion(Region{Top: 0, Height: 1000, ViewHeight: 400})
	driver := newTestDriver(surface)

	if driver.RequestMore(context.Background()) {
		t.Fatal("RequestMore = true with no growth")
	}
	if surface.scrolls != 3 {
		t.Fatalf("scrolls = %d, want all three strategies tried", surface.scrolls)
	}
}

func TestRequestMoreNoRegion(t *testing.T) {
	surface := newFakeSurface(resultsPage())
	driver := newTestDriver(surface)

	if driver.RequestMore(context.Background()) {
		t.Fatal("RequestMore = true without a scroll region")
	}
	if surface.scrolls != 0 {
		t.Fatalf("scrolls = %d, want 0", surface.scrolls)
	}
}
