package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShujaGraphy7/LeadScout-Pro/browser"
	"github.com/ShujaGraphy7/LeadScout-Pro/config"
	"github.com/ShujaGraphy7/LeadScout-Pro/enrich"
	"github.com/ShujaGraphy7/LeadScout-Pro/gateway"
	"github.com/ShujaGraphy7/LeadScout-Pro/models"
	"github.com/ShujaGraphy7/LeadScout-Pro/pipeline"
	"github.com/ShujaGraphy7/LeadScout-Pro/scraper"
)

func main() {
	defaultCfg := config.DefaultConfig()
	maxDefault := defaultCfg.MaxResults
	if value, ok, err := config.EnvInt("LEADSCOUT_MAX"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid LEADSCOUT_MAX: %v\n", err)
		os.Exit(1)
	} else if ok {
		maxDefault = value
	}
	urlDefault := ""
	if value, ok := config.EnvString("LEADSCOUT_URL"); ok {
		urlDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("LEADSCOUT_OUTPUT"); ok {
		outputDefault = value
	}
	listenDefault := defaultCfg.ListenAddr
	if value, ok := config.EnvString("LEADSCOUT_LISTEN_ADDR"); ok {
		listenDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("LEADSCOUT_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	headlessDefault := defaultCfg.Headless
	if value, ok, err := config.EnvBool("LEADSCOUT_HEADLESS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid LEADSCOUT_HEADLESS: %v\n", err)
		os.Exit(1)
	} else if ok {
		headlessDefault = value
	}

	searchURL := flag.String("url", urlDefault, "Google Maps search results URL to scrape")
	query := flag.String("query", "", "Search query; builds the Maps URL when -url is not given")
	maxResults := flag.Int("max", maxDefault, "Target number of leads (1-50)")
	extractPhones := flag.Bool("extract-phones", false, "Harvest phone/email from business websites")
	autoScroll := flag.Bool("auto-scroll", true, "Scroll the results list to load more cards")
	headless := flag.Bool("headless", headlessDefault, "Run Chrome headless")
	chromePath := flag.String("chrome-path", "", "Path to the Chrome binary")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", "csv", "Output format: csv, json, xls, or dual")
	serve := flag.Bool("serve", false, "Expose the HTTP control API instead of running one session")
	listenAddr := flag.String("listen", listenDefault, "Control API listen address")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	webhookURL := flag.String("webhook", "", "URL receiving scrape events as JSON POSTs")
	configFile := flag.String("config", "", "YAML settings file")
	selectorsFile := flag.String("selectors", "", "YAML selector overrides file")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	if *configFile != "" {
		if err := cfg.LoadFile(*configFile); err != nil {
			slog.Error("loading config file", slog.Any("error", err))
			os.Exit(1)
		}
	}
	applyFlags(cfg, *searchURL, *query, *maxResults, *extractPhones, *autoScroll,
		*headless, *chromePath, *outputFile, *outputFormat, *listenAddr,
		*metricsAddr, *webhookURL, *selectorsFile, *verbose)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	patterns := scraper.DefaultPatterns()
	if cfg.SelectorsFile != "" {
		loaded, err := scraper.LoadPatterns(cfg.SelectorsFile)
		if err != nil {
			slog.Error("loading selectors file", slog.Any("error", err))
			os.Exit(1)
		}
		patterns = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting browser",
		slog.Bool("headless", cfg.Headless),
		slog.String("url", cfg.SearchURL),
	)

	allocCtx, allocCancel := browser.NewAllocator(ctx, browser.Options{
		Headless:  cfg.Headless,
		UserAgent: cfg.UserAgent,
		ExecPath:  cfg.ChromePath,
	})
	defer allocCancel()

	tab := browser.NewTab(allocCtx, logger)
	defer tab.Close()

	navCtx, navCancel := context.WithTimeout(ctx, cfg.ReadyTimeout)
	err := tab.Navigate(navCtx, cfg.SearchURL)
	navCancel()
	if err != nil {
		slog.Error("opening search page", slog.Any("error", err))
		os.Exit(1)
	}

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		slog.Error("creating writer", slog.Any("error", err))
		os.Exit(1)
	}

	p := pipeline.NewPipeline(writer, pipeline.Options{
		BufferSize: cfg.PipelineBufferSize,
		BatchSize:  cfg.BatchSize,
		Logger:     logger,
	})
	p.Start(1)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	sinks := []scraper.Sink{p.Sink()}
	var webhook *gateway.WebhookSink
	if cfg.WebhookURL != "" {
		webhook = gateway.NewWebhookSink(cfg.WebhookURL, logger)
		sinks = append(sinks, webhook)
		slog.Info("webhook relay enabled", slog.String("url", cfg.WebhookURL))
	}

	var enricher scraper.Enricher
	if cfg.ExtractPhones {
		enricher, err = enrich.NewEnricher(enrich.Options{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.EnrichTimeout,
			CacheSize: cfg.EnrichCacheSize,
			Logger:    logger,
		})
		if err != nil {
			slog.Error("initialising enricher", slog.Any("error", err))
			os.Exit(1)
		}
	}

	metrics := scraper.NewMetrics()
	controller := scraper.NewController(tab, cfg, scraper.ControllerOptions{
		Patterns: &patterns,
		Sink:     scraper.MultiSink(sinks...),
		Metrics:  metrics,
		Enricher: enricher,
		Logger:   logger,
	})

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	start := time.Now()
	var result *models.ScrapeResult

	if *serve {
		server := gateway.NewServer(controller, logger)
		slog.Info("control API listening", slog.String("addr", cfg.ListenAddr))
		if err := server.Run(ctx, cfg.ListenAddr); err != nil {
			slog.Error("control API failed", slog.Any("error", err))
		}
		controller.Stop()
	} else {
		runCtx, cancel := context.WithTimeout(ctx, cfg.GlobalTimeout)
		result, err = controller.Run(runCtx, scraper.SessionOptions{
			MaxResults: cfg.MaxResults,
		})
		cancel()
		if err != nil {
			slog.Error("scraping failed", slog.Any("error", err))
			os.Exit(1)
		}
	}

	if webhook != nil {
		webhook.Close()
	}
	if err := p.Close(); err != nil {
		slog.Error("pipeline shutdown failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Close(); err != nil {
		slog.Error("close writer", slog.Any("error", err))
		os.Exit(1)
	}
	if err := writer.Validate(); err != nil {
		slog.Error("output validation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if result != nil {
		printSummary(result, time.Since(start), cfg.OutputFile, p.GetMetrics())
	}
}

func applyFlags(cfg *config.Config, searchURL, query string, maxResults int,
	extractPhones, autoScroll, headless bool, chromePath, outputFile,
	outputFormat, listenAddr, metricsAddr, webhookURL, selectorsFile string,
	verbose bool) {

	switch {
	case searchURL != "":
		cfg.SearchURL = searchURL
	case query != "":
		cfg.SearchURL = "https://www.google.com/maps/search/" + url.PathEscape(query)
	}
	cfg.MaxResults = config.ClampMaxResults(maxResults)
	cfg.ExtractPhones = extractPhones
	cfg.AutoScroll = autoScroll
	cfg.Headless = headless
	if chromePath != "" {
		cfg.ChromePath = chromePath
	}
	cfg.OutputFile = outputFile
	cfg.OutputFormat = strings.ToLower(outputFormat)
	cfg.ListenAddr = listenAddr
	cfg.MetricsAddr = metricsAddr
	if webhookURL != "" {
		cfg.WebhookURL = webhookURL
	}
	if selectorsFile != "" {
		cfg.SelectorsFile = selectorsFile
	}
	cfg.Verbose = verbose
}

func createWriter(format, filename string) (pipeline.OutputWriter, error) {
	switch format {
	case "json":
		return pipeline.NewJSONWriter(filename)
	case "csv":
		return pipeline.NewCSVWriter(filename)
	case "xls":
		return pipeline.NewXLSWriter(filename)
	case "dual":
		jsonFilename := strings.TrimSuffix(filename, ".csv") + ".json"
		return pipeline.NewDualWriter(filename, jsonFilename)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.ScrapeResult, duration time.Duration, outputFile string, metrics map[string]interface{}) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	fmt.Printf("  Leads found:   %d\n", result.TotalCount)
	fmt.Printf("  Cards seen:    %d\n", result.ProcessedCards)
	fmt.Printf("  Duplicates:    %d\n", result.DuplicateCount)
	fmt.Printf("  Invalid names: %d\n", result.InvalidCount)
	fmt.Printf("  Scroll rounds: %d\n", result.ScrollCount)
	fmt.Printf("  Outcome:       %s\n", result.Reason)
	if valErrors, ok := metrics["validation_errors"].(map[string]int); ok && len(valErrors) > 0 {
		fmt.Printf("  Validation:    %v\n", valErrors)
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
