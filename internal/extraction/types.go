package extraction

// BoundingBox locates a detection in source-image pixel coordinates.
type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Area returns the box area, never negative.
func (b BoundingBox) Area() float64 {
	if b.W <= 0 || b.H <= 0 {
		return 0
	}
	return float64(b.W) * float64(b.H)
}

// Detection is one raw unit of OCR engine output. Detections are immutable
// once produced by an engine.
type Detection struct {
	Text          string      `json:"text"`
	Box           BoundingBox `json:"box"`
	RawConfidence float64     `json:"raw_confidence"`
	EngineID      string      `json:"engine_id"`
	PageIndex     int         `json:"page_index"`
}

// Zone is the three-tier confidence classification shown to users.
type Zone string

const (
	ZoneHigh   Zone = "high"
	ZoneMedium Zone = "medium"
	ZoneLow    Zone = "low"
)

// FieldEntry is a resolved semantic field. Entries are created by assembly
// and merging; a manual correction overwrites Value, pins Confidence to 1.0
// and clears SourceEngine.
type FieldEntry struct {
	Key          string      `json:"key"`
	Label        string      `json:"label,omitempty"` // raw OCR label, kept for unknown fields
	Value        string      `json:"value"`
	Confidence   float64     `json:"confidence"`
	Zone         Zone        `json:"confidence_zone"`
	SourceEngine string      `json:"source_engine,omitempty"`
	FormatValid  bool        `json:"format_valid"`
	Issues       []string    `json:"issues,omitempty"`
	Suggestions  []string    `json:"suggestions,omitempty"` // confusion-repair candidates for low-confidence values
	Box          BoundingBox `json:"box,omitempty"`
}

// ExtractionResult is the per-engine output before merging. It is discarded
// after the merge step.
type ExtractionResult struct {
	EngineID      string       `json:"engine_id"`
	Fields        []FieldEntry `json:"fields"`
	DocumentScore float64      `json:"document_score"`
}
