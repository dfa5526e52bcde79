package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/idscan/internal/extraction"
	"github.com/MeKo-Tech/idscan/internal/input"
	"github.com/MeKo-Tech/idscan/internal/pdf"
	"github.com/MeKo-Tech/idscan/internal/quality"
	"github.com/MeKo-Tech/idscan/internal/verify"
)

// ErrAllEnginesFailed means no engine produced any detections for the page.
var ErrAllEnginesFailed = errors.New("all engines failed")

// Process runs one page image through the full flow: quality gate, parallel
// OCR, assembly, cross-engine merge and value cleaning. A gate recapture
// verdict returns a result with only the quality fields set and a nil error;
// the caller checks NeedsRecapture.
func (p *Pipeline) Process(ctx context.Context, img image.Image) (*Result, error) {
	return p.processPage(ctx, img, 0)
}

func (p *Pipeline) processPage(ctx context.Context, img image.Image, pageIndex int) (*Result, error) {
	if img == nil {
		return nil, errors.New("nil input image")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img = input.NormalizeSize(img, p.cfg.MaxImageDim)
	res := &Result{PageIndex: pageIndex}

	if !p.cfg.DisableQualityGate {
		report := p.analyze(img)
		gate := quality.Gate(report, p.cfg.QualityThreshold)
		res.Quality = &report
		res.QualityDecision = gate.Decision
		res.QualityWarnings = gate.Warnings
		if gate.Decision == quality.DecisionRecaptureRequired {
			p.logger.Info("quality gate stopped extraction",
				"page", pageIndex, "score", report.OverallScore, "decision", gate.Decision)
			return res, nil
		}
	}

	outputs := p.runEngines(ctx, img, pageIndex)

	var perEngine []extraction.ExtractionResult
	for _, out := range outputs {
		if out.err != nil {
			if res.EngineErrors == nil {
				res.EngineErrors = make(map[string]string)
			}
			res.EngineErrors[out.id] = out.err.Error()
			continue
		}
		perEngine = append(perEngine, p.assembler.Assemble(out.id, out.detections))
	}

	if len(perEngine) == 0 {
		res.Failed = true
		return res, fmt.Errorf("%w: page %d", ErrAllEnginesFailed, pageIndex)
	}

	merged, engineScores := extraction.Merge(perEngine)
	res.EngineScores = engineScores

	res.Fields = make([]extraction.FieldEntry, 0, len(merged))
	for _, entry := range merged {
		cleaned := extraction.Clean(entry.Key, entry.Value, p.cat)
		entry.Value = cleaned.Value
		entry.FormatValid = cleaned.FormatValid
		entry.Issues = append(entry.Issues, cleaned.Issues...)
		entry.Suggestions = extraction.SuggestCorrections(entry.Value, entry.Confidence)
		res.Fields = append(res.Fields, entry)
	}

	res.rebuildMaps()
	res.DocumentConfidence = extraction.DocumentConfidence(res.Fields)

	p.logger.Info("page processed",
		"page", pageIndex,
		"fields", len(res.Fields),
		"engines", len(perEngine),
		"engine_errors", len(res.EngineErrors),
		"document_confidence", res.DocumentConfidence)
	return res, nil
}

// ProcessFile loads an image file and processes it as a single page.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	if input.IsPDF(path) {
		return nil, errors.New("path is a PDF, use ProcessPDF")
	}
	img, meta, err := input.LoadImage(path)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("image loaded", "path", path, "format", meta.Format,
		"width", meta.Width, "height", meta.Height)
	return p.Process(ctx, img)
}

// ProcessPDF extracts page images from a PDF and processes each selected
// page. Pages with multiple embedded images keep the extraction that read
// the most fields.
func (p *Pipeline) ProcessPDF(ctx context.Context, filename, pageRange string) (*PDFResult, error) {
	pages, err := pdf.ExtractPages(filename, pageRange)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("no page images found in %s", filename)
	}

	out := &PDFResult{Filename: filename, TotalPages: len(pages)}
	for _, page := range pages {
		best, err := p.processBestImage(ctx, page)
		if err != nil {
			return nil, err
		}
		out.Pages = append(out.Pages, *best)
	}
	return out, nil
}

func (p *Pipeline) processBestImage(ctx context.Context, page pdf.Page) (*Result, error) {
	var best *Result
	var lastErr error
	for _, img := range page.Images {
		res, err := p.processPage(ctx, img, page.Number-1)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			lastErr = err
			continue
		}
		if best == nil || len(res.Fields) > len(best.Fields) {
			best = res
		}
	}
	if best == nil {
		if lastErr != nil {
			return nil, fmt.Errorf("page %d: %w", page.Number, lastErr)
		}
		return nil, fmt.Errorf("page %d: no processable images", page.Number)
	}
	return best, nil
}

// ApplyCorrections overwrites field values with operator-supplied ones.
// Corrected entries get full confidence and no source engine; keys absent
// from the result are added. Cleaning is reapplied so corrected values still
// carry format validation.
func (p *Pipeline) ApplyCorrections(res *Result, corrections map[string]string) {
	if len(corrections) == 0 {
		return
	}
	seen := make(map[string]bool, len(res.Fields))
	for i := range res.Fields {
		key := res.Fields[i].Key
		corrected, ok := corrections[key]
		if !ok {
			continue
		}
		seen[key] = true
		p.correctEntry(&res.Fields[i], corrected)
	}
	for key, corrected := range corrections {
		if seen[key] {
			continue
		}
		entry := extraction.FieldEntry{Key: key}
		p.correctEntry(&entry, corrected)
		res.Fields = append(res.Fields, entry)
	}
	res.rebuildMaps()
	res.DocumentConfidence = extraction.DocumentConfidence(res.Fields)
}

func (p *Pipeline) correctEntry(entry *extraction.FieldEntry, value string) {
	cleaned := extraction.Clean(entry.Key, value, p.cat)
	entry.Value = cleaned.Value
	entry.FormatValid = cleaned.FormatValid
	entry.Issues = cleaned.Issues
	entry.Confidence = 1.0
	entry.Zone = extraction.ZoneHigh
	entry.SourceEngine = ""
}

// Verify compares the result's extracted fields against reference data.
func (p *Pipeline) Verify(res *Result, reference map[string]string) verify.Report {
	return verify.Verify(res.ExtractedFields, reference, p.cat)
}

func (r *Result) rebuildMaps() {
	r.ExtractedFields = make(map[string]string, len(r.Fields))
	r.Confidence = make(map[string]float64, len(r.Fields))
	r.ConfidenceZone = make(map[string]extraction.Zone, len(r.Fields))
	for _, f := range r.Fields {
		r.ExtractedFields[f.Key] = f.Value
		r.Confidence[f.Key] = f.Confidence
		r.ConfidenceZone[f.Key] = f.Zone
	}
}
