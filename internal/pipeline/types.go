package pipeline

import (
	"github.com/MeKo-Tech/idscan/internal/extraction"
	"github.com/MeKo-Tech/idscan/internal/quality"
)

// Result is the outcome of running one page through the pipeline. When the
// quality gate demands a recapture, only the quality fields are populated.
type Result struct {
	// Fields holds the merged, cleaned field entries in first-seen order.
	Fields []extraction.FieldEntry `json:"fields"`

	// ExtractedFields maps canonical keys to cleaned values for quick access.
	ExtractedFields map[string]string `json:"extracted_fields,omitempty"`

	// Confidence and ConfidenceZone mirror Fields keyed by canonical key.
	Confidence     map[string]float64         `json:"confidence,omitempty"`
	ConfidenceZone map[string]extraction.Zone `json:"confidence_zone,omitempty"`

	// DocumentConfidence is the area-weighted confidence over all detections
	// from every engine that produced output.
	DocumentConfidence float64 `json:"document_confidence"`

	// EngineScores holds each successful engine's document score.
	// EngineErrors records engines that ran but failed; partial failures do
	// not fail the page.
	EngineScores map[string]float64 `json:"engine_scores,omitempty"`
	EngineErrors map[string]string  `json:"engine_errors,omitempty"`

	Quality         *quality.Report  `json:"quality,omitempty"`
	QualityDecision quality.Decision `json:"quality_decision,omitempty"`
	QualityWarnings []string         `json:"quality_warnings,omitempty"`

	// PageIndex is the zero-based page this result belongs to. Single images
	// are page 0.
	PageIndex int `json:"page_index"`

	// Failed is set when every engine errored and no fields could be read.
	Failed bool `json:"failed,omitempty"`
}

// FieldValue returns the cleaned value for a canonical key, if extracted.
func (r *Result) FieldValue(key string) (string, bool) {
	v, ok := r.ExtractedFields[key]
	return v, ok
}

// NeedsRecapture reports whether the quality gate stopped extraction.
func (r *Result) NeedsRecapture() bool {
	return r.QualityDecision == quality.DecisionRecaptureRequired
}

// PDFResult aggregates per-page results for a multi-page document.
type PDFResult struct {
	Filename   string   `json:"filename"`
	TotalPages int      `json:"total_pages"`
	Pages      []Result `json:"pages"`
}
