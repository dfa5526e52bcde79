package extraction

import "fmt"

// Merge combines per-engine extraction results into one field list plus a
// per-engine document score map. For each key the entry with the highest
// normalized confidence wins; ties fall to the engine with the higher
// document score, then to the earlier result in the caller-supplied order.
// A field reported by any engine always survives the merge.
//
// An empty input yields empty outputs, not an error: the caller decides
// whether zero engines is fatal.
func Merge(results []ExtractionResult) ([]FieldEntry, map[string]float64) {
	engineScores := make(map[string]float64, len(results))
	merged := make(map[string]FieldEntry)
	order := make([]string, 0)

	for _, res := range results {
		engineScores[res.EngineID] = res.DocumentScore
		for _, entry := range res.Fields {
			id := mergeIdentity(entry)
			existing, seen := merged[id]
			if !seen {
				merged[id] = entry
				order = append(order, id)
				continue
			}
			if wins(entry, res.DocumentScore, existing, engineScores[existing.SourceEngine]) {
				merged[id] = entry
			}
		}
	}

	fields := make([]FieldEntry, 0, len(order))
	unknownCount := 0
	for _, id := range order {
		entry := merged[id]
		if entry.Label != "" {
			// renumber unknown placeholders in merged order
			unknownCount++
			entry.Key = fmt.Sprintf("unknown_%d", unknownCount)
		}
		fields = append(fields, entry)
	}
	return fields, engineScores
}

// mergeIdentity lets unknown fields from different engines compete by their
// raw label instead of their per-engine placeholder number.
func mergeIdentity(entry FieldEntry) string {
	if entry.Label != "" {
		return "label:" + entry.Label
	}
	return entry.Key
}

// wins reports whether the challenger entry beats the incumbent. Equal
// confidence and equal document score keep the incumbent, so the first
// engine in input order wins exact ties.
func wins(challenger FieldEntry, challengerDocScore float64, incumbent FieldEntry, incumbentDocScore float64) bool {
	if challenger.Confidence != incumbent.Confidence {
		return challenger.Confidence > incumbent.Confidence
	}
	return challengerDocScore > incumbentDocScore
}
