package quality

// Recommendation is the analyzer's own assessment of an image. The gate makes
// the binding decision; the recommendation is advisory for capture UIs.
type Recommendation string

const (
	RecommendProceed     Recommendation = "PROCEED"
	RecommendWithCaution Recommendation = "PROCEED_WITH_CAUTION"
	RecommendRecapture   Recommendation = "RECAPTURE"
)

// Report holds image quality scores on a 0-100 scale. It is produced once per
// page and never mutated afterward.
type Report struct {
	OverallScore   float64        `json:"overall_score"`
	Blur           float64        `json:"blur"`
	Brightness     float64        `json:"brightness"`
	Contrast       float64        `json:"contrast"`
	Noise          float64        `json:"noise"`
	Resolution     float64        `json:"resolution"`
	Warnings       []string       `json:"warnings,omitempty"`
	Recommendation Recommendation `json:"recommendation"`
}
