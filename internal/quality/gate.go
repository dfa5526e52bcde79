package quality

// Decision is the gate's verdict on whether extraction may run.
type Decision string

const (
	DecisionProceed            Decision = "PROCEED"
	DecisionProceedWithWarning Decision = "PROCEED_WITH_WARNING"
	DecisionRecaptureRequired  Decision = "RECAPTURE_REQUIRED"
)

// DefaultThreshold is the overall score at or above which extraction proceeds
// without warnings.
const DefaultThreshold = 70.0

// warnBand is subtracted from the threshold to form the warn-and-proceed
// floor.
const warnBand = 20.0

// GateResult carries the decision and, for warn-and-proceed, the report's
// warnings for display.
type GateResult struct {
	Decision Decision `json:"decision"`
	Warnings []string `json:"warnings,omitempty"`
}

// Gate decides from the image-level report alone whether extraction should
// run. RECAPTURE_REQUIRED is a short-circuit: the pipeline must not run OCR.
// A threshold of 0 or below selects the default.
func Gate(report Report, threshold float64) GateResult {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	low := threshold - warnBand
	if low < 0 {
		low = 0
	}

	switch {
	case report.OverallScore >= threshold:
		return GateResult{Decision: DecisionProceed}
	case report.OverallScore >= low:
		return GateResult{Decision: DecisionProceedWithWarning, Warnings: report.Warnings}
	default:
		return GateResult{Decision: DecisionRecaptureRequired, Warnings: report.Warnings}
	}
}
