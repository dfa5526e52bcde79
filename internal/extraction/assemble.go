package extraction

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/idscan/internal/catalog"
)

// Assembler turns a page's raw detections into one per-engine extraction
// result. It holds only the read-only catalog and is safe for concurrent use.
type Assembler struct {
	cat *catalog.Catalog
}

// NewAssembler creates an assembler over the given field catalog.
func NewAssembler(cat *catalog.Catalog) *Assembler {
	return &Assembler{cat: cat}
}

// Assemble resolves labels to canonical keys and pairs them with values.
// Detections whose label clears no canonical match become unknown_N entries;
// no detection is silently dropped.
func (a *Assembler) Assemble(engineID string, detections []Detection) ExtractionResult {
	result := ExtractionResult{EngineID: engineID}
	entries := make(map[string]FieldEntry)
	order := make([]string, 0, len(detections))
	unknownCount := 0

	var allText strings.Builder
	for i, det := range detections {
		allText.WriteString(det.Text)
		allText.WriteByte(' ')

		label, value, valueConf, ok := a.pairLabelValue(det, detections, i)
		if !ok {
			continue
		}

		key, _, matched := MatchKey(label, a.cat)
		rawLabel := ""
		if !matched {
			normalized := NormalizeLabel(label)
			if normalized == "" || IsGarbage(value) {
				continue
			}
			unknownCount++
			key = fmt.Sprintf("unknown_%d", unknownCount)
			rawLabel = normalized
		}

		entry := FieldEntry{
			Key:          key,
			Label:        rawLabel,
			Value:        strings.TrimSpace(value),
			Confidence:   valueConf,
			SourceEngine: engineID,
			FormatValid:  true,
			Box:          det.Box,
		}
		entry.Zone = ZoneOf(entry.Confidence)

		if existing, seen := entries[key]; seen {
			if entry.Confidence > existing.Confidence {
				entries[key] = entry
			}
			continue
		}
		entries[key] = entry
		order = append(order, key)
	}

	for _, key := range order {
		result.Fields = append(result.Fields, entries[key])
	}
	result.DocumentScore = DocumentScore(allText.String())
	return result
}

// pairLabelValue extracts a (label, value) pair from a detection. A colon
// splits in place; a label-only detection is paired with the nearest
// detection to its right in the same line band, or the one directly below.
func (a *Assembler) pairLabelValue(det Detection, all []Detection, idx int) (string, string, float64, bool) {
	text := strings.TrimSpace(det.Text)
	if text == "" {
		return "", "", 0, false
	}
	conf := Normalize(det.RawConfidence, det.EngineID)

	if i := strings.Index(text, ":"); i >= 0 {
		label := strings.TrimSpace(text[:i])
		value := strings.TrimSpace(text[i+1:])
		if label != "" && value != "" {
			return label, value, conf, true
		}
		if label != "" && value == "" {
			// "Name:" with the value in a neighboring detection
			if neighbor, ok := a.neighborValue(det, all, idx); ok {
				return label, neighbor.Text, Normalize(neighbor.RawConfidence, neighbor.EngineID), true
			}
		}
		return "", "", 0, false
	}

	// No separator: only treat as a label when it actually matches the
	// catalog, otherwise this is free text (a value for some other label).
	if _, _, matched := MatchKey(text, a.cat); matched {
		if neighbor, ok := a.neighborValue(det, all, idx); ok {
			return text, neighbor.Text, Normalize(neighbor.RawConfidence, neighbor.EngineID), true
		}
	}
	return "", "", 0, false
}

// neighborValue finds the detection most likely holding the value for a
// label-only detection: same line band to the right first, then directly
// below within 1.5x the label height.
func (a *Assembler) neighborValue(label Detection, all []Detection, idx int) (Detection, bool) {
	var best Detection
	bestDist := -1

	labelMidY := label.Box.Y + label.Box.H/2
	for j, cand := range all {
		if j == idx || strings.TrimSpace(cand.Text) == "" || strings.Contains(cand.Text, ":") {
			continue
		}
		candMidY := cand.Box.Y + cand.Box.H/2
		sameLine := absInt(candMidY-labelMidY) <= maxIntPair(label.Box.H, 1)
		if sameLine && cand.Box.X > label.Box.X {
			dist := cand.Box.X - (label.Box.X + label.Box.W)
			if dist >= 0 && (bestDist < 0 || dist < bestDist) {
				best, bestDist = cand, dist
			}
		}
	}
	if bestDist >= 0 {
		return best, true
	}

	// fall back to the next detection directly below the label
	for j, cand := range all {
		if j == idx || strings.TrimSpace(cand.Text) == "" || strings.Contains(cand.Text, ":") {
			continue
		}
		dy := cand.Box.Y - (label.Box.Y + label.Box.H)
		if dy >= 0 && dy <= label.Box.H*3/2 && absInt(cand.Box.X-label.Box.X) <= label.Box.W {
			return cand, true
		}
	}
	return Detection{}, false
}

// DocumentScore is an engine-level extraction quality heuristic combining
// text length, character variety, alphanumeric ratio and word count. Higher
// means a more credible overall read.
func DocumentScore(text string) float64 {
	if text == "" {
		return 0
	}
	var score float64

	length := len(text)
	score += float64(minIntPair(length, 100))

	unique := make(map[rune]struct{})
	alnum := 0
	for _, r := range text {
		unique[r] = struct{}{}
		if ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			alnum++
		}
	}
	score += float64(len(unique)) / float64(length) * 50
	score += float64(alnum) / float64(length) * 30
	score += float64(minIntPair(len(strings.Fields(text)), 20))

	return score
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func minIntPair(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxIntPair(a, b int) int {
	if a > b {
		return a
	}
	return b
}
