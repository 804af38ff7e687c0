// Package gateway exposes scrape control over HTTP. It is the
// replacement for driving the scraper interactively: start and stop
// sessions, watch progress, and download the collected leads.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ShujaGraphy7/LeadScout-Pro/pipeline"
	"github.com/ShujaGraphy7/LeadScout-Pro/scraper"
)

// Server wraps the gin engine around a scrape controller.
type Server struct {
	router     *gin.Engine
	controller *scraper.Controller
	logger     *slog.Logger
	httpServer *http.Server
}

// startRequest is the POST /api/start payload. Pointer fields
// distinguish "absent" from zero values.
type startRequest struct {
	MaxResults    int   `json:"max_results"`
	ExtractPhones *bool `json:"extract_phones"`
	AutoScroll    *bool `json:"auto_scroll"`
}

// NewServer builds the HTTP gateway.
func NewServer(controller *scraper.Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)))
	})

	s := &Server{
		router:     router,
		controller: controller,
		logger:     logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	api.GET("/ping", s.handlePing)
	api.POST("/start", s.handleStart)
	api.POST("/stop", s.handleStop)
	api.GET("/inspect", s.handleInspect)
	api.GET("/leads", s.handleLeads)
	api.GET("/export", s.handleExport)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) handleStart(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	opts := scraper.SessionOptions{
		MaxResults:    req.MaxResults,
		ExtractPhones: req.ExtractPhones,
		AutoScroll:    req.AutoScroll,
	}
	// The session outlives the request, so it must not inherit the
	// request's cancellation.
	if err := s.controller.Start(context.WithoutCancel(c.Request.Context()), opts); err != nil {
		if errors.Is(err, scraper.ErrBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "a scrape session is already running"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("scrape session started", slog.Int("max_results", opts.MaxResults))
	c.JSON(http.StatusOK, gin.H{"status": "started"})
}

func (s *Server) handleStop(c *gin.Context) {
	s.controller.Stop()
	c.JSON(http.StatusOK, gin.H{"status": "stopping"})
}

func (s *Server) handleInspect(c *gin.Context) {
	ins, err := s.controller.Inspect(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ins)
}

func (s *Server) handleLeads(c *gin.Context) {
	records := s.controller.Records()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(records),
		"leads":   records,
		"running": s.controller.Running(),
	})
}

func (s *Server) handleExport(c *gin.Context) {
	records := s.controller.Records()
	if len(records) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no leads collected yet"})
		return
	}

	format := c.DefaultQuery("format", "csv")
	switch format {
	case "csv":
		data, err := pipeline.RenderCSV(records)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="leads.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "xls":
		c.Header("Content-Disposition", `attachment; filename="leads.xls"`)
		c.Data(http.StatusOK, "application/vnd.ms-excel", pipeline.RenderXLS(records))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or xls"})
	}
}
