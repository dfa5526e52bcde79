package pipeline

import (
	"context"
	"image"
	"sync"

	"github.com/MeKo-Tech/idscan/internal/extraction"
)

// engineOutput is one engine's detections for a page, or its failure.
type engineOutput struct {
	id         string
	detections []extraction.Detection
	err        error
}

// runEngines fans the page out to every registered engine. Results come back
// in registration order so downstream merging stays deterministic. A failed
// engine yields an entry with err set; the caller decides whether partial
// output is enough.
func (p *Pipeline) runEngines(ctx context.Context, img image.Image, pageIndex int) []engineOutput {
	ids := p.registry.IDs()
	outputs := make([]engineOutput, len(ids))

	sem := make(chan struct{}, p.cfg.MaxWorkers)
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(slot int, engineID string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			outputs[slot] = p.runEngine(ctx, engineID, img, pageIndex)
		}(i, id)
	}
	wg.Wait()
	return outputs
}

func (p *Pipeline) runEngine(ctx context.Context, engineID string, img image.Image, pageIndex int) engineOutput {
	out := engineOutput{id: engineID}

	eng, err := p.registry.Get(engineID)
	if err != nil {
		p.logger.Warn("engine unavailable", "engine", engineID, "error", err)
		out.err = err
		return out
	}

	runCtx := ctx
	if p.cfg.EngineTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.cfg.EngineTimeout)
		defer cancel()
	}

	out.detections, out.err = eng.Detect(runCtx, img, pageIndex)
	if out.err != nil {
		p.logger.Warn("engine failed", "engine", engineID, "page", pageIndex, "error", out.err)
		return out
	}
	p.logger.Debug("engine finished", "engine", engineID, "page", pageIndex, "detections", len(out.detections))
	return out
}
