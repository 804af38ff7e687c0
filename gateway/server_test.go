package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ShujaGraphy7/LeadScout-Pro/config"
	"github.com/ShujaGraphy7/LeadScout-Pro/scraper"
)

// stubSurface serves a fixed two-card results page.
type stubSurface struct{}

func (stubSurface) Document(ctx context.Context) (string, error) {
	card := func(name, address string) string {
		return fmt.Sprintf(`<div class="Nv2PK">
			<a class="hfpxzc" href="/maps/place/x"></a>
			<div class="qBF1Pd">%s</div>
			<div class="W4Efsd"><span>Restaurant</span><span>%s</span></div>
		</div>`, name, address)
	}
	return `<html><body><input aria-label="Search Google Maps">` +
		card("Joe's Pizza", "123 Main Street") +
		card("Maria's Tacos", "456 Oak Avenue") +
		`</body></html>`, nil
}

func (stubSurface) Click(ctx context.Context, container string, index int, target string) (bool, error) {
	return true, nil
}

func (stubSurface) DispatchClick(ctx context.Context, container string, index int, target string) (bool, error) {
	return true, nil
}

func (stubSurface) RegionMetrics(ctx context.Context, selector string) (scraper.Region, bool, error) {
	return scraper.Region{}, false, nil
}

func (stubSurface) ScrollTo(ctx context.Context, selector string, top float64) error {
	return nil
}

func (stubSurface) Location(ctx context.Context) (string, string, error) {
	return "https://maps.example.test/search/pizza", "pizza - Search", nil
}

func testController() *scraper.Controller {
	cfg := config.DefaultConfig()
	cfg.PacingInterval = 0
	cfg.SettleInterval = 0
	cfg.ScrollSettle = 0
	cfg.DetailTimeout = 10 * time.Millisecond
	cfg.RetryTimeout = 5 * time.Millisecond
	cfg.PollInterval = time.Millisecond
	cfg.ReadyTimeout = 100 * time.Millisecond
	return scraper.NewController(stubSurface{}, cfg, scraper.ControllerOptions{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func newTestServer() (*Server, *scraper.Controller) {
	c := testController()
	return NewServer(c, slog.New(slog.NewTextHandler(io.Discard, nil))), c
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func waitIdle(t *testing.T, c *scraper.Controller) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for c.Running() {
		select {
		case <-deadline:
			t.Fatal("controller never returned to idle")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPing(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(s, http.MethodGet, "/api/ping", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "alive" {
		t.Fatalf("status field = %q, want alive", body["status"])
	}
}

func TestStartAndConflict(t *testing.T) {
	s, c := newTestServer()

	rec := doRequest(s, http.MethodPost, "/api/start", `{"max_results": 2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(s, http.MethodPost, "/api/start", `{"max_results": 2}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second start status = %d, want 409", rec.Code)
	}

	waitIdle(t, c)
}

func TestStartRejectsMalformedBody(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(s, http.MethodPost, "/api/start", `{"max_results": "ten"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStopAlwaysAccepted(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(s, http.MethodPost, "/api/stop", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("stop on idle status = %d, want 200", rec.Code)
	}
}

func TestInspect(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(s, http.MethodGet, "/api/inspect", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body.String())
	}
	var ins scraper.Inspection
	if err := json.Unmarshal(rec.Body.Bytes(), &ins); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ins.VisibleCards != 2 {
		t.Fatalf("visible_cards = %d, want 2", ins.VisibleCards)
	}
	if ins.Running {
		t.Fatal("running = true on an idle controller")
	}
}

func TestLeadsAndExportAfterRun(t *testing.T) {
	s, c := newTestServer()

	if _, err := c.Run(context.Background(), scraper.SessionOptions{MaxResults: 2}); err != nil {
		t.Fatalf("run: %v", err)
	}

	rec := doRequest(s, http.MethodGet, "/api/leads", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("leads status = %d, want 200", rec.Code)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}

	rec = doRequest(s, http.MethodGet, "/api/export?format=csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("csv export status = %d, want 200", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "name,") {
		t.Fatalf("csv export body does not start with the header: %q", rec.Body.String()[:20])
	}

	rec = doRequest(s, http.MethodGet, "/api/export?format=xls", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("xls export status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "<table") {
		t.Fatal("xls export body lacks table markup")
	}

	rec = doRequest(s, http.MethodGet, "/api/export?format=pdf", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown format status = %d, want 400", rec.Code)
	}
}

func TestExportEmpty(t *testing.T) {
	s, _ := newTestServer()
	rec := doRequest(s, http.MethodGet, "/api/export", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 with no leads", rec.Code)
	}
}
