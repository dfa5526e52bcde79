// Package verify compares extracted document fields against reference data
// and classifies each field as passing, corrected, mismatched or missing.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/MeKo-Tech/idscan/internal/catalog"
	"github.com/MeKo-Tech/idscan/internal/extraction"
)

// Status classifies a single field comparison.
type Status string

const (
	StatusPass      Status = "PASS"
	StatusCorrected Status = "CORRECTED"
	StatusMismatch  Status = "MISMATCH"
	StatusMissing   Status = "MISSING"
)

// OverallStatus is the document-level rollup. MISSING fields are excluded:
// with nothing to compare against they neither pass nor fail.
type OverallStatus string

const (
	OverallPass                OverallStatus = "PASS"
	OverallPassWithCorrections OverallStatus = "PASS_WITH_CORRECTIONS"
	OverallFail                OverallStatus = "FAIL"
)

// correctionThreshold is the similarity at or above which a differing value
// is treated as an OCR artifact rather than a real mismatch.
const correctionThreshold = 0.85

// FieldResult is the per-field comparison outcome.
type FieldResult struct {
	Field           string          `json:"field"`
	Extracted       string          `json:"extracted_value"`
	Reference       string          `json:"reference_value,omitempty"`
	MatchPercentage float64         `json:"match_percentage"`
	Status          Status          `json:"status"`
	ConfidenceLevel extraction.Zone `json:"confidence_level"`
	Issues          []string        `json:"issues,omitempty"`
}

// Summary counts field outcomes for quick display.
type Summary struct {
	TotalFields int `json:"total_fields"`
	Passed      int `json:"passed"`
	Corrected   int `json:"corrected"`
	Mismatched  int `json:"mismatched"`
	Missing     int `json:"missing"`
}

// Report is the one-shot verification result. It is read-only after creation.
type Report struct {
	Fields        []FieldResult     `json:"fields"`
	OverallStatus OverallStatus     `json:"overall_status"`
	Summary       Summary           `json:"summary"`
	CleanedData   map[string]string `json:"cleaned_data"`
}

// Verify compares extracted fields against optional reference data. Both
// sides are cleaned with the field's type rules before comparison. A nil
// reference is legitimate: every field reports MISSING and confidence falls
// back to format validity.
func Verify(extracted, reference map[string]string, cat *catalog.Catalog) Report {
	report := Report{CleanedData: make(map[string]string, len(extracted))}

	for _, key := range orderedKeys(extracted, cat) {
		cleaned := extraction.Clean(key, extracted[key], cat)
		report.CleanedData[key] = cleaned.Value

		fr := FieldResult{
			Field:     key,
			Extracted: cleaned.Value,
			Issues:    cleaned.Issues,
		}

		refRaw, hasRef := lookupReference(reference, key)
		if !hasRef {
			fr.Status = StatusMissing
			fr.ConfidenceLevel = formatConfidence(cleaned.FormatValid)
		} else {
			refCleaned := extraction.Clean(key, refRaw, cat)
			fr.Reference = refCleaned.Value
			classify(&fr, cleaned.Value, refCleaned.Value)
		}

		report.Fields = append(report.Fields, fr)
		switch fr.Status {
		case StatusPass:
			report.Summary.Passed++
		case StatusCorrected:
			report.Summary.Corrected++
		case StatusMismatch:
			report.Summary.Mismatched++
		case StatusMissing:
			report.Summary.Missing++
		}
	}
	report.Summary.TotalFields = len(report.Fields)
	report.OverallStatus = rollup(report.Summary)
	return report
}

// classify fills status, match percentage and confidence for a field with
// reference data present.
func classify(fr *FieldResult, extracted, reference string) {
	if strings.EqualFold(extracted, reference) {
		fr.Status = StatusPass
		fr.MatchPercentage = 100
		fr.ConfidenceLevel = extraction.ZoneHigh
		return
	}

	sim := extraction.Similarity(strings.ToLower(extracted), strings.ToLower(reference))
	fr.MatchPercentage = sim * 100
	if sim >= correctionThreshold {
		fr.Status = StatusCorrected
		fr.ConfidenceLevel = extraction.ZoneHigh
		fr.Issues = append(fr.Issues, "value corrected against reference - likely OCR artifact")
		return
	}

	fr.Status = StatusMismatch
	if sim >= 0.60 {
		fr.ConfidenceLevel = extraction.ZoneMedium
	} else {
		fr.ConfidenceLevel = extraction.ZoneLow
	}
	fr.Issues = append(fr.Issues,
		fmt.Sprintf("extracted %q does not match reference %q", extracted, reference))
}

func rollup(s Summary) OverallStatus {
	switch {
	case s.Mismatched > 0:
		return OverallFail
	case s.Corrected > 0:
		return OverallPassWithCorrections
	default:
		return OverallPass
	}
}

func formatConfidence(formatValid bool) extraction.Zone {
	if formatValid {
		return extraction.ZoneMedium
	}
	return extraction.ZoneLow
}

// lookupReference is exact-key lookup; callers are expected to supply
// reference data keyed by canonical keys.
func lookupReference(reference map[string]string, key string) (string, bool) {
	if reference == nil {
		return "", false
	}
	v, ok := reference[key]
	return v, ok
}

// orderedKeys sorts field keys by catalog declaration order, then
// alphabetically for keys outside the catalog, so reports are deterministic.
func orderedKeys(extracted map[string]string, cat *catalog.Catalog) []string {
	keys := make([]string, 0, len(extracted))
	for k := range extracted {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := cat.Position(keys[i]), cat.Position(keys[j])
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})
	return keys
}
