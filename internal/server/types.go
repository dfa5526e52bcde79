// Package server exposes the extraction pipeline over HTTP: multipart
// uploads for extraction and quality checks, JSON verification, Prometheus
// metrics and a WebSocket channel with progress updates.
package server

import (
	"context"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/idscan/internal/catalog"
	"github.com/MeKo-Tech/idscan/internal/config"
	"github.com/MeKo-Tech/idscan/internal/pipeline"
	"github.com/MeKo-Tech/idscan/internal/verify"
)

// pipelineInterface defines what the server needs from the pipeline.
type pipelineInterface interface {
	Process(ctx context.Context, img image.Image) (*pipeline.Result, error)
	ProcessPDF(ctx context.Context, filename, pageRange string) (*pipeline.PDFResult, error)
	ApplyCorrections(res *pipeline.Result, corrections map[string]string)
	Catalog() *catalog.Catalog
	Engines() []string
	Config() pipeline.Config
	Info() map[string]any
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    pipelineInterface
	cfg         config.ServerConfig
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// New creates a server around a built pipeline.
func New(pl *pipeline.Pipeline, cfg config.ServerConfig, logger *slog.Logger) *Server {
	return newServer(pl, cfg, logger)
}

func newServer(pl pipelineInterface, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		pipeline: pl,
		cfg:      cfg,
		logger:   logger.With("component", "server"),
	}
	if cfg.RateLimitPerMin > 0 {
		s.rateLimiter = NewRateLimiter(cfg.RateLimitPerMin)
	}
	return s
}

// Close releases the underlying pipeline.
func (s *Server) Close() error {
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/engines", s.corsMiddleware(s.enginesHandler))
	mux.HandleFunc("/extract", s.corsMiddleware(s.rateLimitMiddleware(s.extractHandler)))
	mux.HandleFunc("/verify", s.corsMiddleware(s.rateLimitMiddleware(s.verifyHandler)))
	mux.HandleFunc("/quality", s.corsMiddleware(s.rateLimitMiddleware(s.qualityHandler)))
	mux.HandleFunc("/ws/extract", s.extractWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// requestTimeout bounds request-scoped processing.
func (s *Server) requestTimeout() time.Duration {
	if s.cfg.TimeoutSec <= 0 {
		return 2 * time.Minute
	}
	return time.Duration(s.cfg.TimeoutSec) * time.Second
}

func (s *Server) maxUploadBytes() int64 {
	mb := int64(s.cfg.MaxUploadMB)
	if mb <= 0 {
		mb = 50
	}
	return mb << 20
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// EnginesResponse is returned by GET /engines.
type EnginesResponse struct {
	Engines []string       `json:"engines"`
	Count   int            `json:"count"`
	Info    map[string]any `json:"info,omitempty"`
}

// ExtractResponse is returned by POST /extract.
type ExtractResponse struct {
	Success      bool               `json:"success"`
	Result       *pipeline.Result   `json:"result,omitempty"`
	PDF          *pipeline.PDFResult `json:"pdf,omitempty"`
	Verification *verify.Report     `json:"verification,omitempty"`
	Error        string             `json:"error,omitempty"`
}

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	Extracted map[string]string `json:"extracted"`
	Reference map[string]string `json:"reference"`
}

// VerifyResponse is returned by POST /verify.
type VerifyResponse struct {
	Success bool           `json:"success"`
	Report  *verify.Report `json:"report,omitempty"`
	Error   string         `json:"error,omitempty"`
}
