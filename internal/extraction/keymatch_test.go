package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MeKo-Tech/idscan/internal/catalog"
)

func TestNormalizeLabel(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Date of Birth:  ", "date of birth"},
		{"D.O.B", "d o b"},
		{"NAME", "name"},
		{"Tele-phone   No.", "tele phone no"},
		{"Né(e)", "ne e"},
		{"", ""},
		{"::::", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLabel(tt.in), "input %q", tt.in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("dob", "dob"))
	assert.Equal(t, 0.0, Similarity("", "dob"))
	assert.InDelta(t, 0.9, Similarity("jon smith", "john smith"), 1e-9)
	assert.Less(t, Similarity("zzzz", "dob"), 0.3)
}

func TestMatchKeyAliases(t *testing.T) {
	cat := catalog.Default()

	tests := []struct {
		label string
		want  string
	}{
		{"DOB:", "dateOfBirth"},
		{"D.O.B", "dateOfBirth"},
		{"Date ofbimn", "dateOfBirth"},
		{"Date of Birth", "dateOfBirth"},
		{"Mobile Number", "phone"},
		{"E-Mail", "email"},
		{"Surname", "lastName"},
		{"Fathers Name", "fatherName"},
		{"Passport No", "passportNumber"},
	}
	for _, tt := range tests {
		key, sim, ok := MatchKey(tt.label, cat)
		assert.True(t, ok, "label %q (best sim %.2f)", tt.label, sim)
		assert.Equal(t, tt.want, key, "label %q", tt.label)
		assert.GreaterOrEqual(t, sim, SimilarityFloor)
	}
}

func TestMatchKeyRejectsBelowFloor(t *testing.T) {
	cat := catalog.Default()
	for _, label := range []string{"xqzwkj", "~~~", ""} {
		_, _, ok := MatchKey(label, cat)
		assert.False(t, ok, "label %q should not match", label)
	}
}

func TestMatchKeyDeterministic(t *testing.T) {
	cat := catalog.Default()
	k1, s1, ok1 := MatchKey("Date ofbimn", cat)
	for range 20 {
		k2, s2, ok2 := MatchKey("Date ofbimn", cat)
		assert.Equal(t, k1, k2)
		assert.Equal(t, s1, s2)
		assert.Equal(t, ok1, ok2)
	}
}

func TestMatchKeySubstringTieBreak(t *testing.T) {
	// Both keys score identically on fuzzy distance; only the second has an
	// exact substring match, so it must win despite declaration order.
	cat := catalog.New([]catalog.Field{
		{Key: "fuzzyOnly", Type: catalog.TypeGeneric, Aliases: []string{"abcx"}},
		{Key: "substring", Type: catalog.TypeGeneric, Aliases: []string{"abc"}},
	})
	key, _, ok := MatchKey("abcd", cat)
	assert.True(t, ok)
	assert.Equal(t, "substring", key)
}
