package extraction

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Zone thresholds. ZoneOf is a pure function of the normalized confidence.
const (
	HighConfidenceThreshold   = 0.85
	MediumConfidenceThreshold = 0.60
)

// Scale identifies an engine's native confidence range.
type Scale int

const (
	ScaleUnit    Scale = iota // already 0-1
	ScalePercent              // 0-100
)

// engineScales maps engine identifiers to their known native confidence
// scale. Unknown engines are assumed to emit 0-1 values.
var engineScales = map[string]Scale{
	"tesseract":   ScalePercent,
	"handwriting": ScaleUnit,
	"remote":      ScaleUnit,
}

// Normalize rescales an engine-native confidence into [0,1]. Out-of-range
// inputs are clamped rather than rejected.
func Normalize(raw float64, engineID string) float64 {
	if engineScales[engineID] == ScalePercent {
		raw /= 100.0
	}
	return clamp01(raw)
}

// NormalizeLogProbs converts per-character log-probabilities into a single
// [0,1] confidence by exponentiating their mean.
func NormalizeLogProbs(logProbs []float64) float64 {
	if len(logProbs) == 0 {
		return 0
	}
	var sum float64
	for _, lp := range logProbs {
		sum += lp
	}
	return clamp01(math.Exp(sum / float64(len(logProbs))))
}

// ZoneOf classifies a normalized confidence: high at or above 0.85, medium
// at or above 0.60, low below.
func ZoneOf(confidence float64) Zone {
	switch {
	case confidence >= HighConfidenceThreshold:
		return ZoneHigh
	case confidence >= MediumConfidenceThreshold:
		return ZoneMedium
	default:
		return ZoneLow
	}
}

// TextQuality scores extracted text on length, character diversity, special
// character ratio and whitespace ratio. Returns a value in [0,1].
func TextQuality(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	length := float64(utf8.RuneCountInString(text))

	var lengthScore float64
	switch {
	case length < 3:
		lengthScore = length / 3.0
	case length <= 30:
		lengthScore = 1.0
	default:
		lengthScore = math.Max(0.5, 1.0-(length-30)/100.0)
	}

	var hasLetters, hasDigits bool
	var special, whitespace int
	for _, r := range text {
		switch {
		case unicode.IsLetter(r):
			hasLetters = true
		case unicode.IsDigit(r):
			hasDigits = true
		case r == ' ' || r == '\t' || r == '\n':
			whitespace++
		case r == '-' || r == '/' || r == '.':
			// common in dates and ids, not penalized
		default:
			special++
		}
	}

	diversityScore := 0.3
	switch {
	case hasLetters && hasDigits:
		diversityScore = 1.0
	case hasLetters || hasDigits:
		diversityScore = 0.7
	}

	specialScore := math.Max(0.3, 1.0-(float64(special)/length)*2.0)
	whitespaceScore := math.Max(0.5, 1.0-(float64(whitespace)/length)*2.0)

	quality := lengthScore*0.3 + diversityScore*0.3 + specialScore*0.2 + whitespaceScore*0.2
	return clamp01(quality)
}

// CombinedConfidence blends engine confidence with an image quality signal
// (0-1) and a text quality heuristic. Engine confidence dominates.
func CombinedConfidence(ocrConf, imageQuality float64, text string) float64 {
	return clamp01(ocrConf*0.5 + imageQuality*0.3 + TextQuality(text)*0.2)
}

// DocumentConfidence aggregates entry confidences weighted by bounding-box
// area. Entries without geometry weigh 1.
func DocumentConfidence(entries []FieldEntry) float64 {
	if len(entries) == 0 {
		return 0
	}
	var weightedSum, totalWeight float64
	for _, e := range entries {
		weight := e.Box.Area()
		if weight == 0 {
			weight = 1
		}
		weightedSum += e.Confidence * weight
		totalWeight += weight
	}
	return weightedSum / totalWeight
}

// confusionPairs lists common OCR character confusions in a fixed order so
// suggestions are deterministic.
var confusionPairs = []struct {
	from rune
	to   []rune
}{
	{'0', []rune{'O', 'D'}},
	{'O', []rune{'0', 'Q'}},
	{'1', []rune{'I', 'l'}},
	{'I', []rune{'1', 'l'}},
	{'l', []rune{'1', 'I'}},
	{'5', []rune{'S'}},
	{'S', []rune{'5'}},
	{'8', []rune{'B'}},
	{'B', []rune{'8'}},
	{'2', []rune{'Z'}},
	{'Z', []rune{'2'}},
}

// SuggestCorrections produces up to three single-character substitution
// alternatives for low-confidence text. High-confidence text yields none.
func SuggestCorrections(text string, confidence float64) []string {
	if text == "" || confidence >= HighConfidenceThreshold {
		return nil
	}
	var suggestions []string
	runes := []rune(text)
	for i, r := range runes {
		for _, pair := range confusionPairs {
			if pair.from != r {
				continue
			}
			for _, repl := range pair.to {
				candidate := string(runes[:i]) + string(repl) + string(runes[i+1:])
				if candidate != text && !containsString(suggestions, candidate) {
					suggestions = append(suggestions, candidate)
					if len(suggestions) == 3 {
						return suggestions
					}
				}
			}
		}
	}
	return suggestions
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
