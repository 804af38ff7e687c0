// Package config holds runtime configuration for the scraper.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Target-count bounds for one scrape session.
const (
	DefaultMaxResults = 10
	MinMaxResults     = 1
	MaxMaxResults     = 50
)

// Config holds scraper configuration.
type Config struct {
	SearchURL     string
	MaxResults    int
	ExtractPhones bool
	AutoScroll    bool

	// Browser
	Headless   bool
	UserAgent  string
	ChromePath string

	// Timing. Every wait against the host page is bounded.
	PacingInterval time.Duration // between cards
	SettleInterval time.Duration // after a scroll round
	ScrollSettle   time.Duration // per scroll strategy
	DetailTimeout  time.Duration // detail panel appearing
	RetryTimeout   time.Duration // synthetic-click retry
	PollInterval   time.Duration // condition polling step
	ReadyTimeout   time.Duration // host surface initializing
	GlobalTimeout  time.Duration

	ScrollMargin float64 // px tolerance treated as "at bottom"

	// Enrichment (website contact harvesting)
	EnrichTimeout   time.Duration
	EnrichCacheSize int
	PhoneMinDigits  int

	// Output
	OutputFile         string
	OutputFormat       string // csv, json, xls, or dual
	PipelineBufferSize int
	BatchSize          int

	// Serving
	ListenAddr  string
	MetricsAddr string
	WebhookURL  string

	SelectorsFile string
	Verbose       bool
}

// DefaultConfig returns conservative defaults mirroring the interactive
// pacing a host page tolerates.
func DefaultConfig() *Config {
	return &Config{
		SearchURL:     "https://www.google.com/maps/search/",
		MaxResults:    DefaultMaxResults,
		ExtractPhones: false,
		AutoScroll:    true,

		Headless: true,
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",

		PacingInterval: 1 * time.Second,
		SettleInterval: 2 * time.Second,
		ScrollSettle:   3 * time.Second,
		DetailTimeout:  3 * time.Second,
		RetryTimeout:   2 * time.Second,
		PollInterval:   250 * time.Millisecond,
		ReadyTimeout:   15 * time.Second,
		GlobalTimeout:  30 * time.Minute,

		ScrollMargin: 50,

		EnrichTimeout:   15 * time.Second,
		EnrichCacheSize: 256,
		PhoneMinDigits:  7,

		OutputFile:         "output/leads.csv",
		OutputFormat:       "csv",
		PipelineBufferSize: 128,
		BatchSize:          16,

		ListenAddr:  ":8080",
		MetricsAddr: "",
	}
}

// ClampMaxResults bounds a requested target count to the supported
// range. Non-positive values fall back to the default.
func ClampMaxResults(n int) int {
	if n <= 0 {
		return DefaultMaxResults
	}
	if n < MinMaxResults {
		return MinMaxResults
	}
	if n > MaxMaxResults {
		return MaxMaxResults
	}
	return n
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SearchURL == "" {
		return fmt.Errorf("search URL cannot be empty")
	}
	parsed, err := url.Parse(c.SearchURL)
	if err != nil {
		return fmt.Errorf("invalid search URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("search URL must include a host")
	}
	if c.MaxResults < MinMaxResults || c.MaxResults > MaxMaxResults {
		return fmt.Errorf("max results must be between %d and %d", MinMaxResults, MaxMaxResults)
	}
	if c.PacingInterval < 0 {
		return fmt.Errorf("pacing interval cannot be negative")
	}
	if c.SettleInterval < 0 {
		return fmt.Errorf("settle interval cannot be negative")
	}
	if c.ScrollSettle < 0 {
		return fmt.Errorf("scroll settle cannot be negative")
	}
	if c.DetailTimeout <= 0 {
		return fmt.Errorf("detail timeout must be positive")
	}
	if c.RetryTimeout <= 0 {
		return fmt.Errorf("retry timeout must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.ReadyTimeout <= 0 {
		return fmt.Errorf("ready timeout must be positive")
	}
	if c.ScrollMargin < 0 {
		return fmt.Errorf("scroll margin cannot be negative")
	}
	if c.EnrichCacheSize <= 0 {
		return fmt.Errorf("enrich cache size must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "csv", "json", "xls", "dual":
	default:
		return fmt.Errorf("output format must be csv, json, xls, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	return nil
}

// FileSettings is the persisted user-settings subset of Config. It
// round-trips through a YAML file so a session's knobs survive restarts.
type FileSettings struct {
	SearchURL     *string `yaml:"search_url"`
	MaxResults    *int    `yaml:"max_results"`
	ExtractPhones *bool   `yaml:"extract_phones"`
	AutoScroll    *bool   `yaml:"auto_scroll"`
	Headless      *bool   `yaml:"headless"`
	OutputFile    *string `yaml:"output_file"`
	OutputFormat  *string `yaml:"output_format"`
	ListenAddr    *string `yaml:"listen_addr"`
	MetricsAddr   *string `yaml:"metrics_addr"`
	WebhookURL    *string `yaml:"webhook_url"`
	SelectorsFile *string `yaml:"selectors_file"`
}

// LoadFile applies settings from a YAML file on top of c. A missing key
// leaves the current value untouched.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fs FileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	fs.apply(c)
	return nil
}

func (fs *FileSettings) apply(c *Config) {
	if fs.SearchURL != nil {
		c.SearchURL = *fs.SearchURL
	}
	if fs.MaxResults != nil {
		c.MaxResults = ClampMaxResults(*fs.MaxResults)
	}
	if fs.ExtractPhones != nil {
		c.ExtractPhones = *fs.ExtractPhones
	}
	if fs.AutoScroll != nil {
		c.AutoScroll = *fs.AutoScroll
	}
	if fs.Headless != nil {
		c.Headless = *fs.Headless
	}
	if fs.OutputFile != nil {
		c.OutputFile = *fs.OutputFile
	}
	if fs.OutputFormat != nil {
		c.OutputFormat = *fs.OutputFormat
	}
	if fs.ListenAddr != nil {
		c.ListenAddr = *fs.ListenAddr
	}
	if fs.MetricsAddr != nil {
		c.MetricsAddr = *fs.MetricsAddr
	}
	if fs.WebhookURL != nil {
		c.WebhookURL = *fs.WebhookURL
	}
	if fs.SelectorsFile != nil {
		c.SelectorsFile = *fs.SelectorsFile
	}
}

// EnvString reads a string environment override.
func EnvString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}

// EnvBool reads a boolean environment override.
func EnvBool(key string) (bool, bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, false, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, false, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, true, nil
}
