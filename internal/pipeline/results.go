package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ToJSON renders the result as indented JSON.
func (r *Result) ToJSON() (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling result: %w", err)
	}
	return string(b), nil
}

// ToText renders the result as a human-readable report for terminal output.
func (r *Result) ToText() string {
	var sb strings.Builder

	if r.Quality != nil {
		fmt.Fprintf(&sb, "Quality: %.1f (%s)\n", r.Quality.OverallScore, r.QualityDecision)
		for _, w := range r.QualityWarnings {
			fmt.Fprintf(&sb, "  warning: %s\n", w)
		}
	}
	if r.NeedsRecapture() {
		sb.WriteString("Recapture required, extraction skipped.\n")
		return sb.String()
	}
	if r.Failed {
		sb.WriteString("Extraction failed: no engine produced output.\n")
		for _, id := range sortedKeys(r.EngineErrors) {
			fmt.Fprintf(&sb, "  %s: %s\n", id, r.EngineErrors[id])
		}
		return sb.String()
	}

	fmt.Fprintf(&sb, "Document confidence: %.2f\n", r.DocumentConfidence)
	fmt.Fprintf(&sb, "Fields (%d):\n", len(r.Fields))
	for _, f := range r.Fields {
		fmt.Fprintf(&sb, "  %-24s %-30q %.2f %s", f.Key, f.Value, f.Confidence, f.Zone)
		if !f.FormatValid {
			sb.WriteString(" [invalid]")
		}
		sb.WriteByte('\n')
		for _, issue := range f.Issues {
			fmt.Fprintf(&sb, "    issue: %s\n", issue)
		}
	}
	for _, id := range sortedKeys(r.EngineErrors) {
		fmt.Fprintf(&sb, "Engine %s failed: %s\n", id, r.EngineErrors[id])
	}
	return sb.String()
}

// ToJSON renders the multi-page result as indented JSON.
func (r *PDFResult) ToJSON() (string, error) {
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling PDF result: %w", err)
	}
	return string(b), nil
}

// ToText renders the multi-page result as a human-readable report.
func (r *PDFResult) ToText() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d page(s)\n", r.Filename, r.TotalPages)
	for _, page := range r.Pages {
		fmt.Fprintf(&sb, "--- Page %d ---\n", page.PageIndex+1)
		sb.WriteString(page.ToText())
	}
	return sb.String()
}

// sortedKeys gives map iteration a stable order for rendering.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
