// Package pipeline wires quality gating, multi-engine OCR, field assembly,
// merging and value cleaning into one document extraction flow.
package pipeline

import (
	"errors"
	"image"
	"log/slog"
	"runtime"
	"time"

	"github.com/MeKo-Tech/idscan/internal/catalog"
	"github.com/MeKo-Tech/idscan/internal/engine"
	"github.com/MeKo-Tech/idscan/internal/extraction"
	"github.com/MeKo-Tech/idscan/internal/input"
	"github.com/MeKo-Tech/idscan/internal/quality"
)

// AnalyzerFunc produces an image quality report. It is pluggable so tests
// and callers with precomputed reports can bypass pixel analysis.
type AnalyzerFunc func(image.Image) quality.Report

// Config holds pipeline settings. Zero values select defaults.
type Config struct {
	// QualityThreshold gates extraction; see quality.Gate.
	QualityThreshold float64
	// DisableQualityGate skips image analysis entirely. Intended for inputs
	// already screened upstream.
	DisableQualityGate bool
	// MaxWorkers bounds concurrent engine runs per page.
	MaxWorkers int
	// EngineTimeout bounds each engine's Detect call.
	EngineTimeout time.Duration
	// MaxImageDim scales oversized inputs down before analysis and OCR.
	MaxImageDim int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		QualityThreshold: quality.DefaultThreshold,
		MaxWorkers:       runtime.NumCPU(),
		EngineTimeout:    60 * time.Second,
		MaxImageDim:      input.MaxDimension,
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg      Config
	cat      *catalog.Catalog
	registry *engine.Registry
	analyze  AnalyzerFunc
	logger   *slog.Logger
}

// NewBuilder creates a pipeline builder with defaults and an empty engine
// registry.
func NewBuilder() *Builder {
	return &Builder{
		cfg:      DefaultConfig(),
		cat:      catalog.Default(),
		registry: engine.NewRegistry(),
		analyze:  quality.Analyze,
		logger:   slog.Default(),
	}
}

// WithCatalog replaces the default field catalog.
func (b *Builder) WithCatalog(cat *catalog.Catalog) *Builder {
	if cat != nil {
		b.cat = cat
	}
	return b
}

// WithEngine registers an engine factory. Registration order determines
// merge tie-breaking.
func (b *Builder) WithEngine(id string, factory engine.Factory) *Builder {
	b.registry.Register(id, factory)
	return b
}

// WithRegistry replaces the engine registry wholesale.
func (b *Builder) WithRegistry(r *engine.Registry) *Builder {
	if r != nil {
		b.registry = r
	}
	return b
}

// WithQualityThreshold sets the gate threshold; values <= 0 keep the default.
func (b *Builder) WithQualityThreshold(threshold float64) *Builder {
	if threshold > 0 {
		b.cfg.QualityThreshold = threshold
	}
	return b
}

// WithQualityGate enables or disables the pre-OCR quality gate.
func (b *Builder) WithQualityGate(enabled bool) *Builder {
	b.cfg.DisableQualityGate = !enabled
	return b
}

// WithMaxWorkers bounds concurrent engine runs per page.
func (b *Builder) WithMaxWorkers(n int) *Builder {
	if n > 0 {
		b.cfg.MaxWorkers = n
	}
	return b
}

// WithEngineTimeout bounds each engine's Detect call.
func (b *Builder) WithEngineTimeout(d time.Duration) *Builder {
	if d > 0 {
		b.cfg.EngineTimeout = d
	}
	return b
}

// WithMaxImageDim sets the downscale bound for oversized inputs.
func (b *Builder) WithMaxImageDim(dim int) *Builder {
	if dim > 0 {
		b.cfg.MaxImageDim = dim
	}
	return b
}

// WithAnalyzer replaces the image quality analyzer.
func (b *Builder) WithAnalyzer(fn AnalyzerFunc) *Builder {
	if fn != nil {
		b.analyze = fn
	}
	return b
}

// WithLogger sets the structured logger.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	if logger != nil {
		b.logger = logger
	}
	return b
}

// Config returns a copy of the current config.
func (b *Builder) Config() Config { return b.cfg }

// Build validates the configuration and assembles the pipeline. Engines are
// not constructed here; the registry defers that to first use.
func (b *Builder) Build() (*Pipeline, error) {
	if b.registry.Len() == 0 {
		return nil, errors.New("no engines registered")
	}
	return &Pipeline{
		cfg:       b.cfg,
		cat:       b.cat,
		registry:  b.registry,
		assembler: extraction.NewAssembler(b.cat),
		analyze:   b.analyze,
		logger:    b.logger.With("component", "pipeline"),
	}, nil
}

// Pipeline runs the full extraction flow. It is safe for concurrent use.
type Pipeline struct {
	cfg       Config
	cat       *catalog.Catalog
	registry  *engine.Registry
	assembler *extraction.Assembler
	analyze   AnalyzerFunc
	logger    *slog.Logger
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Catalog returns the field catalog the pipeline resolves labels against.
func (p *Pipeline) Catalog() *catalog.Catalog { return p.cat }

// Engines returns the registered engine ids in registration order.
func (p *Pipeline) Engines() []string { return p.registry.IDs() }

// Close releases every engine that was constructed.
func (p *Pipeline) Close() error { return p.registry.Close() }

// Info returns key pipeline properties for diagnostics endpoints.
func (p *Pipeline) Info() map[string]any {
	return map[string]any{
		"engines":           p.registry.IDs(),
		"catalog_fields":    len(p.cat.Fields()),
		"quality_threshold": p.cfg.QualityThreshold,
		"quality_gate":      !p.cfg.DisableQualityGate,
		"max_workers":       p.cfg.MaxWorkers,
		"engine_timeout":    p.cfg.EngineTimeout.String(),
	}
}
