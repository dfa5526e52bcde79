package extraction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestZoneBoundaries(t *testing.T) {
	tests := []struct {
		confidence float64
		want       Zone
	}{
		{0.0, ZoneLow},
		{0.59, ZoneLow},
		{0.60, ZoneMedium},
		{0.84, ZoneMedium},
		{0.85, ZoneHigh},
		{1.0, ZoneHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ZoneOf(tt.confidence), "confidence %v", tt.confidence)
	}
}

func TestNormalizeScales(t *testing.T) {
	assert.InDelta(t, 0.91, Normalize(91, "tesseract"), 1e-9)
	assert.InDelta(t, 0.91, Normalize(0.91, "handwriting"), 1e-9)
	assert.InDelta(t, 0.5, Normalize(0.5, "some-new-engine"), 1e-9)
}

func TestNormalizeClamps(t *testing.T) {
	assert.Equal(t, 1.0, Normalize(120, "tesseract"))
	assert.Equal(t, 0.0, Normalize(-3, "tesseract"))
	assert.Equal(t, 1.0, Normalize(1.4, "handwriting"))
	assert.Equal(t, 0.0, Normalize(-0.1, "handwriting"))
}

func TestNormalizeLogProbs(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeLogProbs(nil))

	got := NormalizeLogProbs([]float64{math.Log(0.9), math.Log(0.9)})
	assert.InDelta(t, 0.9, got, 1e-9)

	// very negative log-probs clamp toward zero, never below
	assert.GreaterOrEqual(t, NormalizeLogProbs([]float64{-50}), 0.0)
}

func TestTextQuality(t *testing.T) {
	assert.Equal(t, 0.0, TextQuality(""))
	assert.Equal(t, 0.0, TextQuality("   "))

	good := TextQuality("AB1234CD99")
	junk := TextQuality("!!%@#&*^!!")
	assert.Greater(t, good, junk)

	for _, s := range []string{"x", "John Smith", "01/01/1990", "!!!", "a very long line of text that keeps going well past thirty characters"} {
		q := TextQuality(s)
		assert.GreaterOrEqual(t, q, 0.0, "%q", s)
		assert.LessOrEqual(t, q, 1.0, "%q", s)
	}

	// accented names score like their plain equivalents; length and the
	// ratio denominators count runes, not bytes
	assert.InDelta(t, TextQuality("JOSE GARCIA"), TextQuality("JOSÉ GARCÍA"), 1e-9)
}

func TestCombinedConfidence(t *testing.T) {
	// engine confidence dominates the blend
	high := CombinedConfidence(0.95, 0.9, "John Smith")
	low := CombinedConfidence(0.2, 0.9, "John Smith")
	assert.Greater(t, high, low)
	assert.LessOrEqual(t, high, 1.0)
}

func TestDocumentConfidence(t *testing.T) {
	assert.Equal(t, 0.0, DocumentConfidence(nil))

	entries := []FieldEntry{
		{Confidence: 0.9, Box: BoundingBox{W: 100, H: 20}},
		{Confidence: 0.5, Box: BoundingBox{W: 10, H: 2}},
	}
	got := DocumentConfidence(entries)
	// the large region dominates the weighted mean
	assert.Greater(t, got, 0.85)
	assert.Less(t, got, 0.9+1e-9)

	// entries without geometry average evenly
	flat := DocumentConfidence([]FieldEntry{{Confidence: 1.0}, {Confidence: 0.0}})
	assert.InDelta(t, 0.5, flat, 1e-9)
}

func TestSuggestCorrections(t *testing.T) {
	assert.Nil(t, SuggestCorrections("AB12", 0.95), "high confidence needs no suggestions")
	assert.Nil(t, SuggestCorrections("", 0.1))

	got := SuggestCorrections("A0C", 0.4)
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 3)
	assert.Contains(t, got, "AOC")

	// deterministic across calls
	assert.Equal(t, got, SuggestCorrections("A0C", 0.4))
}
