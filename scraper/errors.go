package scraper

import (
	"context"
	"errors"
	"fmt"
)

// ErrBusy is returned by Start/Run while a session is already running.
// The caller's session state is left untouched.
var ErrBusy = errors.New("scrape already in progress")

// SurfaceError wraps a failure talking to the live page.
type SurfaceError struct {
	Op  string
	Err error
}

func (e SurfaceError) Error() string {
	return fmt.Sprintf("surface %s: %v", e.Op, e.Err)
}

func (e SurfaceError) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		var se SurfaceError
		if errors.As(err, &se) {
			return "surface"
		}
		return "other"
	}
}
