// Package enrich harvests contact details from business websites.
// Listings expose a website link far more often than a phone number or
// an email, so when phone extraction is requested the record's website
// is fetched and mined for the missing fields.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ShujaGraphy7/LeadScout-Pro/models"
)

var (
	emailRegex = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Z|a-z]{2,}\b`)

	invalidEmailPatterns = []string{
		"example.com",
		"@example",
		".png",
		".jpg",
		".gif",
		"sampleemail",
		"youremail",
		"noreply",
	}

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`),
		regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`),
	}

	nonDigitRegexp = regexp.MustCompile(`\D`)

	socialDomainsToSkip = []string{
		"facebook.com",
		"linkedin.com",
		"instagram.com",
		"youtube.com",
		"twitter.com",
	}
)

// contact is what one website fetch yields.
type contact struct {
	Phone string
	Email string
}

// Enricher fetches business websites and fills empty Phone and Email
// fields. Results are cached per site so repeated listings with the
// same website cost one fetch.
type Enricher struct {
	base   *colly.Collector
	cache  *lru.Cache[string, contact]
	logger *slog.Logger

	mu sync.Mutex // serializes base.Clone
}

// Options configures the enricher.
type Options struct {
	UserAgent string
	Timeout   time.Duration
	CacheSize int
	Transport http.RoundTripper // test hook
	Logger    *slog.Logger
}

// NewEnricher builds an enricher with its own collector and cache.
func NewEnricher(opts Options) (*Enricher, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	base := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.MaxDepth(1),
	)
	base.IgnoreRobotsTxt = true
	base.SetRequestTimeout(opts.Timeout)
	if opts.Transport != nil {
		base.WithTransport(opts.Transport)
	}

	cache, err := lru.New[string, contact](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create enrich cache: %w", err)
	}

	return &Enricher{
		base:   base,
		cache:  cache,
		logger: opts.Logger,
	}, nil
}

// Enrich fills the record's empty Phone and Email fields from its
// website. Records without a usable website are left untouched.
func (e *Enricher) Enrich(ctx context.Context, rec *models.BusinessRecord) {
	if rec == nil || rec.Website == "" {
		return
	}
	if rec.Phone != "" && rec.Email != "" {
		return
	}

	site := normalizeSite(rec.Website)
	if site == "" || isSocialDomain(site) {
		return
	}

	info, ok := e.cache.Get(site)
	if !ok {
		var err error
		info, err = e.fetch(ctx, site)
		if err != nil {
			e.logger.Debug("enrichment fetch failed",
				slog.String("site", site),
				slog.String("error", err.Error()))
			return
		}
		e.cache.Add(site, info)
	}

	if rec.Phone == "" {
		rec.Phone = info.Phone
	}
	if rec.Email == "" {
		rec.Email = info.Email
	}
}

func (e *Enricher) fetch(ctx context.Context, site string) (contact, error) {
	e.mu.Lock()
	c := e.base.Clone()
	e.mu.Unlock()

	var (
		info contact
		mu   sync.Mutex
	)

	c.OnHTML("body", func(el *colly.HTMLElement) {
		text := el.Text
		html, _ := el.DOM.Html()

		mu.Lock()
		defer mu.Unlock()
		if info.Email == "" {
			info.Email = findEmail(text + " " + html)
		}
		if info.Phone == "" {
			info.Phone = findPhone(text)
		}
	})

	c.OnHTML(`a[href^="mailto:"]`, func(el *colly.HTMLElement) {
		addr := strings.TrimPrefix(el.Attr("href"), "mailto:")
		if i := strings.IndexByte(addr, '?'); i >= 0 {
			addr = addr[:i]
		}
		mu.Lock()
		defer mu.Unlock()
		if info.Email == "" && validEmail(addr) {
			info.Email = strings.ToLower(addr)
		}
	})

	c.OnHTML(`a[href^="tel:"]`, func(el *colly.HTMLElement) {
		number := strings.TrimPrefix(el.Attr("href"), "tel:")
		mu.Lock()
		defer mu.Unlock()
		if info.Phone == "" && plausiblePhone(number) {
			info.Phone = strings.TrimSpace(number)
		}
	})

	c.OnRequest(func(r *colly.Request) {
		select {
		case <-ctx.Done():
			r.Abort()
		default:
		}
	})

	var fetchErr error
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	if err := c.Visit(site); err != nil {
		return contact{}, err
	}
	c.Wait()

	if fetchErr != nil && info == (contact{}) {
		return contact{}, fetchErr
	}
	return info, nil
}

// normalizeSite trims the listing's website to a fetchable URL.
func normalizeSite(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if !strings.HasPrefix(site, "http://") && !strings.HasPrefix(site, "https://") {
		site = "https://" + site
	}
	return site
}

func isSocialDomain(site string) bool {
	lower := strings.ToLower(site)
	for _, d := range socialDomainsToSkip {
		if strings.Contains(lower, d) {
			return true
		}
	}
	return false
}

func findEmail(text string) string {
	for _, match := range emailRegex.FindAllString(text, -1) {
		if validEmail(match) {
			return strings.ToLower(match)
		}
	}
	return ""
}

func validEmail(addr string) bool {
	if addr == "" || !emailRegex.MatchString(addr) {
		return false
	}
	lower := strings.ToLower(addr)
	for _, inv := range invalidEmailPatterns {
		if strings.Contains(lower, inv) {
			return false
		}
	}
	return true
}

func findPhone(text string) string {
	for _, re := range phonePatterns {
		for _, match := range re.FindAllString(text, -1) {
			if plausiblePhone(match) {
				return strings.TrimSpace(match)
			}
		}
	}
	return ""
}

// plausiblePhone filters out matches that are dates, prices, or zip
// codes by digit count.
func plausiblePhone(s string) bool {
	digits := nonDigitRegexp.ReplaceAllString(s, "")
	return len(digits) >= 7 && len(digits) <= 15
}
