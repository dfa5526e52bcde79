package extraction

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/idscan/internal/catalog"
)

func det(text string, x, y, w, h int, conf float64) Detection {
	return Detection{
		Text:          text,
		Box:           BoundingBox{X: x, Y: y, W: w, H: h},
		RawConfidence: conf,
		EngineID:      "handwriting",
	}
}

func TestAssembleColonPairs(t *testing.T) {
	a := NewAssembler(catalog.Default())

	dets := []Detection{
		det("Name: John Smith", 10, 10, 200, 20, 0.92),
		det("DOB: 01/01/1990", 10, 40, 200, 20, 0.88),
		det("Mobile: 1234567890", 10, 70, 200, 20, 0.75),
	}
	res := a.Assemble("handwriting", dets)
	require.Len(t, res.Fields, 3)

	byKey := make(map[string]FieldEntry)
	for _, f := range res.Fields {
		byKey[f.Key] = f
	}
	assert.Equal(t, "John Smith", byKey["fullName"].Value)
	assert.Equal(t, "01/01/1990", byKey["dateOfBirth"].Value)
	assert.Equal(t, "1234567890", byKey["phone"].Value)
	assert.InDelta(t, 0.92, byKey["fullName"].Confidence, 1e-9)
	assert.Equal(t, ZoneHigh, byKey["fullName"].Zone)
	assert.Equal(t, "handwriting", byKey["fullName"].SourceEngine)
	assert.Greater(t, res.DocumentScore, 0.0)
}

func TestAssembleLabelOnlySameLine(t *testing.T) {
	a := NewAssembler(catalog.Default())

	dets := []Detection{
		det("Name:", 10, 10, 60, 20, 0.9),
		det("Jane Doe", 90, 12, 120, 20, 0.8),
	}
	res := a.Assemble("handwriting", dets)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, "fullName", res.Fields[0].Key)
	assert.Equal(t, "Jane Doe", res.Fields[0].Value)
	// the value detection's confidence carries the content
	assert.InDelta(t, 0.8, res.Fields[0].Confidence, 1e-9)
}

func TestAssembleLabelBelow(t *testing.T) {
	a := NewAssembler(catalog.Default())

	dets := []Detection{
		det("Date of Birth", 10, 10, 120, 20, 0.9),
		det("01/01/1990", 12, 34, 110, 20, 0.85),
	}
	res := a.Assemble("handwriting", dets)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, "dateOfBirth", res.Fields[0].Key)
	assert.Equal(t, "01/01/1990", res.Fields[0].Value)
}

func TestAssembleUnknownFields(t *testing.T) {
	a := NewAssembler(catalog.Default())

	dets := []Detection{
		det("Quxflag: enabled", 10, 10, 200, 20, 0.7),
		det("Zorp: 12345", 10, 40, 200, 20, 0.6),
	}
	res := a.Assemble("handwriting", dets)
	require.Len(t, res.Fields, 2)
	assert.Equal(t, "unknown_1", res.Fields[0].Key)
	assert.Equal(t, "quxflag", res.Fields[0].Label)
	assert.Equal(t, "enabled", res.Fields[0].Value)
	assert.Equal(t, "unknown_2", res.Fields[1].Key)
}

func TestAssembleDuplicateKeyKeepsHigherConfidence(t *testing.T) {
	a := NewAssembler(catalog.Default())

	dets := []Detection{
		det("Name: Jon Smith", 10, 10, 200, 20, 0.6),
		det("Full Name: John Smith", 10, 200, 200, 20, 0.9),
	}
	res := a.Assemble("handwriting", dets)
	require.Len(t, res.Fields, 1)
	assert.Equal(t, "John Smith", res.Fields[0].Value)
}

func TestAssembleEmpty(t *testing.T) {
	a := NewAssembler(catalog.Default())
	res := a.Assemble("handwriting", nil)
	assert.Empty(t, res.Fields)
	assert.Equal(t, 0.0, res.DocumentScore)
}

func TestDocumentScore(t *testing.T) {
	assert.Equal(t, 0.0, DocumentScore(""))
	long := DocumentScore("Name: John Smith DOB: 01/01/1990 Address: 12 High Street")
	short := DocumentScore("x")
	assert.Greater(t, long, short)
}

func TestAssembleManyUnknownNumbering(t *testing.T) {
	a := NewAssembler(catalog.Default())
	var dets []Detection
	for i := range 5 {
		dets = append(dets, det(fmt.Sprintf("Gibberish%d: value%d", i, i), 10, 10+30*i, 200, 20, 0.5))
	}
	res := a.Assemble("handwriting", dets)
	require.Len(t, res.Fields, 5)
	for i, f := range res.Fields {
		assert.Equal(t, fmt.Sprintf("unknown_%d", i+1), f.Key)
	}
}
