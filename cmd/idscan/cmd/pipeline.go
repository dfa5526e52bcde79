package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/idscan/internal/config"
	"github.com/MeKo-Tech/idscan/internal/engine"
	"github.com/MeKo-Tech/idscan/internal/pipeline"
)

// buildPipeline assembles the extraction pipeline from the resolved config.
func buildPipeline(cfg *config.Config, logger *slog.Logger) (*pipeline.Pipeline, error) {
	b := pipeline.NewBuilder().
		WithQualityThreshold(cfg.Pipeline.QualityThreshold).
		WithQualityGate(cfg.Pipeline.QualityGate).
		WithMaxWorkers(cfg.Pipeline.MaxWorkers).
		WithEngineTimeout(cfg.Pipeline.EngineTimeout()).
		WithMaxImageDim(cfg.Pipeline.MaxImageDim).
		WithLogger(logger)

	if cfg.Pipeline.Engines.Tesseract.Enabled {
		languages := cfg.Pipeline.Engines.Tesseract.Languages
		b.WithEngine(engine.TesseractID, func() (engine.Engine, error) {
			return engine.NewTesseract(languages...), nil
		})
	}
	if cfg.Pipeline.Engines.Handwriting.Enabled {
		hw := cfg.Pipeline.Engines.Handwriting
		b.WithEngine("handwriting", func() (engine.Engine, error) {
			return engine.NewRemote("handwriting", engine.CapabilityHandwritten, hw.Endpoint, hw.Timeout()), nil
		})
	}
	return b.Build()
}

// selectEngines restricts the configured engines to the named subset.
func selectEngines(cfg *config.Config, names []string) error {
	cfg.Pipeline.Engines.Tesseract.Enabled = false
	cfg.Pipeline.Engines.Handwriting.Enabled = false
	for _, name := range names {
		switch name {
		case engine.TesseractID:
			cfg.Pipeline.Engines.Tesseract.Enabled = true
		case "handwriting":
			cfg.Pipeline.Engines.Handwriting.Enabled = true
		default:
			return fmt.Errorf("unknown engine %q (tesseract, handwriting)", name)
		}
	}
	return nil
}
