package scraper

import "context"

// Region describes the scroll geometry of one element on the live page.
type Region struct {
	Top        float64 // current scroll offset
	Height     float64 // total content height
	ViewHeight float64 // visible height
}

// Surface is the boundary to the live render tree. The scraper only
// ever snapshots the document, invokes click affordances, and drives a
// scroll container through it; everything else works on snapshots.
//
// Click and DispatchClick address an element as the index-th match of
// container, optionally descending to the first target match inside it.
// They report whether an element was actually hit.
type Surface interface {
	Document(ctx context.Context) (string, error)
	Click(ctx context.Context, container string, index int, target string) (bool, error)
	DispatchClick(ctx context.Context, container string, index int, target string) (bool, error)
	RegionMetrics(ctx context.Context, selector string) (Region, bool, error)
	ScrollTo(ctx context.Context, selector string, top float64) error
	Location(ctx context.Context) (url string, title string, err error)
}
