package extraction

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/MeKo-Tech/idscan/internal/catalog"
)

// SimilarityFloor is the minimum label similarity for a canonical match.
// Labels below the floor become unknown fields rather than being dropped.
const SimilarityFloor = 0.55

// tieEpsilon bounds how close two candidate similarities must be for the
// substring tie-break to apply.
const tieEpsilon = 0.02

// labelFold decomposes with compatibility mappings and strips combining
// marks so "Né" and "Ne" compare equal.
var labelFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeLabel canonicalizes a raw OCR label: Unicode fold, lower-case,
// punctuation stripped, whitespace collapsed.
func NormalizeLabel(label string) string {
	folded, _, err := transform.String(labelFold, label)
	if err != nil {
		folded = label
	}
	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			// punctuation, colons etc. collapse into a single separator
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Similarity is a normalized Levenshtein ratio: 1 for identical strings,
// 0 for fully disjoint ones.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 || lb == 0 {
		return 0
	}
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// levenshtein computes edit distance with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// MatchKey resolves a raw OCR label to a canonical catalog key. It returns
// the key, the best similarity found and whether the similarity cleared the
// floor. The function is deterministic and side-effect free.
func MatchKey(rawLabel string, cat *catalog.Catalog) (string, float64, bool) {
	label := NormalizeLabel(rawLabel)
	if label == "" {
		return "", 0, false
	}

	var best matchCandidate
	for _, field := range cat.Fields() {
		sim, substring := fieldSimilarity(label, field)
		c := matchCandidate{key: field.Key, sim: sim, substring: substring}
		if c.beats(best) {
			best = c
		}
	}

	if best.sim < SimilarityFloor {
		return "", best.sim, false
	}
	return best.key, best.sim, true
}

type matchCandidate struct {
	key       string
	sim       float64
	substring bool
}

// beats implements the tie-break rule: clear similarity wins outright; within
// epsilon an exact substring match beats a purely fuzzy one. Earlier catalog
// entries win remaining ties, keeping matching deterministic.
func (c matchCandidate) beats(best matchCandidate) bool {
	if best.key == "" {
		return true
	}
	if c.sim > best.sim+tieEpsilon {
		return true
	}
	if best.sim > c.sim+tieEpsilon {
		return false
	}
	if c.substring != best.substring {
		return c.substring
	}
	return c.sim > best.sim
}

// fieldSimilarity returns the best similarity between a normalized label and
// any alias (or the key itself) of a catalog field, and whether any alias
// matched as an exact substring.
func fieldSimilarity(label string, field catalog.Field) (float64, bool) {
	best := Similarity(label, NormalizeLabel(field.Key))
	substring := false
	for _, alias := range field.Aliases {
		a := NormalizeLabel(alias)
		if a == "" {
			continue
		}
		if strings.Contains(label, a) || strings.Contains(a, label) {
			substring = true
		}
		if s := Similarity(label, a); s > best {
			best = s
		}
	}
	return best, substring
}
