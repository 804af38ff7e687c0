package scraper

import (
	"time"

	"github.com/ShujaGraphy7/LeadScout-Pro/models"
)

// EventKind identifies a lifecycle or record event.
type EventKind string

const (
	EventStarted     EventKind = "started"
	EventRecordFound EventKind = "record_found"
	EventStopped     EventKind = "stopped"
	EventCompleted   EventKind = "completed"
)

// Terminal reasons carried on completed events. The event kind and its
// count semantics are identical for all of them; the reason is a
// diagnostic for collaborators that want to tell "zero results" apart
// from "the target surface never appeared".
const (
	ReasonTargetReached     = "target_reached"
	ReasonExhausted         = "exhausted"
	ReasonSurfaceNeverReady = "surface_never_ready"
	ReasonStopped           = "stopped"
)

// Event is published by the controller to its collaborators. Record is
// set only on record_found events.
type Event struct {
	Kind       EventKind              `json:"kind"`
	Record     *models.BusinessRecord `json:"record,omitempty"`
	TotalCount int                    `json:"total_count"`
	Reason     string                 `json:"reason,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Sink consumes controller events. Publish must not block for long: it
// runs on the scrape loop's thread.
type Sink interface {
	Publish(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Publish calls f(e).
func (f SinkFunc) Publish(e Event) { f(e) }

type multiSink []Sink

func (m multiSink) Publish(e Event) {
	for _, s := range m {
		if s != nil {
			s.Publish(e)
		}
	}
}

// MultiSink fans events out to every given sink in order.
func MultiSink(sinks ...Sink) Sink {
	return multiSink(sinks)
}
