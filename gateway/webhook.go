package gateway

import (
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ShujaGraphy7/LeadScout-Pro/scraper"
)

// WebhookSink relays scrape events to an external HTTP endpoint as
// JSON POSTs. A single delivery goroutine drains a buffered queue, so
// events arrive in emission order; a failed post is logged and dropped,
// never blocking the scrape loop.
type WebhookSink struct {
	client *resty.Client
	url    string
	logger *slog.Logger

	events chan scraper.Event
	done   chan struct{}
	once   sync.Once
}

// NewWebhookSink builds a sink posting to url and starts its delivery
// worker.
func NewWebhookSink(url string, logger *slog.Logger) *WebhookSink {
	if logger == nil {
		logger = slog.Default()
	}
	client := resty.New().
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json")
	w := &WebhookSink{
		client: client,
		url:    url,
		logger: logger,
		events: make(chan scraper.Event, 64),
		done:   make(chan struct{}),
	}
	go w.deliver()
	return w
}

// Client exposes the underlying resty client for tests.
func (w *WebhookSink) Client() *resty.Client {
	return w.client
}

// Publish implements scraper.Sink. It enqueues without blocking; when
// the queue is full the event is dropped with a warning.
func (w *WebhookSink) Publish(ev scraper.Event) {
	select {
	case w.events <- ev:
	default:
		w.logger.Warn("webhook queue full, event dropped",
			slog.String("kind", string(ev.Kind)))
	}
}

// Close drains the queue and stops the delivery worker.
func (w *WebhookSink) Close() {
	w.once.Do(func() {
		close(w.events)
	})
	<-w.done
}

func (w *WebhookSink) deliver() {
	defer close(w.done)
	for ev := range w.events {
		resp, err := w.client.R().
			SetBody(ev).
			Post(w.url)
		if err != nil {
			w.logger.Warn("webhook delivery failed",
				slog.String("kind", string(ev.Kind)),
				slog.String("error", err.Error()))
			continue
		}
		if resp.IsError() {
			w.logger.Warn("webhook rejected event",
				slog.String("kind", string(ev.Kind)),
				slog.Int("status", resp.StatusCode()))
		}
	}
}

var _ scraper.Sink = (*WebhookSink)(nil)
