package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/MeKo-Tech/idscan/internal/catalog"
)

// CleanResult is the outcome of type-specific value cleaning. Cleaning never
// fails: an invalid value is returned best-effort with FormatValid false.
type CleanResult struct {
	Value       string   `json:"value"`
	FormatValid bool     `json:"format_valid"`
	Issues      []string `json:"issues,omitempty"`
}

// dateFormats are tried in order; the first that parses wins. Output is
// always re-serialized as DD/MM/YYYY. Non-padded day/month elements accept
// both "5/6/1990" and "05/06/1990".
var dateFormats = []string{
	"2/1/2006",
	"2006-1-2",
	"2-1-2006",
	"1/2/2006",
}

const dateOutputFormat = "02/01/2006"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// garbagePatterns flag values that are OCR noise rather than data.
var garbagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[^a-zA-Z0-9\s]{3,}$`),
	regexp.MustCompile(`^\?+$`),
	regexp.MustCompile(`^[^\w\s]{1,3}$`),
}

// digitToLetter repairs digit-for-letter OCR confusions in alphabetic
// contexts. Repair runs before type-specific stripping so repairable
// characters are not discarded.
var digitToLetter = map[rune]rune{
	'0': 'o',
	'1': 'i',
	'5': 's',
	'8': 'b',
}

// letterToDigit is the inverse map for numeric contexts.
var letterToDigit = map[rune]rune{
	'o': '0', 'O': '0',
	'i': '1', 'I': '1', 'l': '1',
	'b': '8', 'B': '8',
	's': '5', 'S': '5',
	'z': '2', 'Z': '2',
}

// Clean applies the type-specific rules for the given canonical key. It is a
// pure transformation: diagnostics are returned as issue strings, never as
// errors.
func Clean(key, raw string, cat *catalog.Catalog) CleanResult {
	trimmed := collapseWhitespace(raw)
	res := CleanResult{Value: trimmed, FormatValid: true}

	if trimmed == "" {
		res.FormatValid = false
		res.Issues = append(res.Issues, "empty value")
		return res
	}
	if allCapsLetters(trimmed) {
		res.Issues = append(res.Issues, "all uppercase - may indicate raw OCR output")
	}
	if IsGarbage(trimmed) {
		res.Issues = append(res.Issues, "value looks like OCR noise")
	}

	switch cat.TypeOf(key) {
	case catalog.TypeName:
		cleanName(&res)
	case catalog.TypeDate:
		cleanDate(&res)
	case catalog.TypePhone:
		cleanPhone(&res)
	case catalog.TypeEmail:
		cleanEmail(&res)
	case catalog.TypeID:
		cleanID(&res)
	default:
		// address, gender and generic fields are whitespace-trimmed only
	}
	return res
}

// cleanName keeps alphabetic characters and single spaces. Digit confusions
// are repaired first (0->O etc.); remaining digits are stripped and flagged.
func cleanName(res *CleanResult) {
	repaired, repairedCount := repairAlphaDigits(res.Value)
	if repairedCount > 0 {
		res.Issues = append(res.Issues, "repaired digit/letter OCR confusions in name")
	}

	var b strings.Builder
	droppedDigit := false
	for _, r := range repaired {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune(' ')
		case unicode.IsDigit(r):
			droppedDigit = true
		}
	}
	res.Value = collapseWhitespace(b.String())
	if droppedDigit {
		res.Issues = append(res.Issues, "digits removed from name - possible OCR misread")
	}
	if res.Value == "" {
		res.FormatValid = false
		res.Issues = append(res.Issues, "name has no alphabetic characters")
	}
}

func cleanDate(res *CleanResult) {
	candidate := repairNumeric(res.Value)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, candidate); err == nil {
			res.Value = t.Format(dateOutputFormat)
			return
		}
	}
	res.FormatValid = false
	res.Issues = append(res.Issues, fmt.Sprintf("unparseable date %q", res.Value))
}

func cleanPhone(res *CleanResult) {
	repaired := repairNumeric(res.Value)
	var b strings.Builder
	for _, r := range repaired {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	res.Value = b.String()
	if len(res.Value) != 10 {
		res.FormatValid = false
		res.Issues = append(res.Issues,
			fmt.Sprintf("phone number has %d digits (expected 10)", len(res.Value)))
	}
}

func cleanEmail(res *CleanResult) {
	res.Value = strings.ToLower(strings.ReplaceAll(res.Value, " ", ""))
	if !emailPattern.MatchString(res.Value) {
		res.FormatValid = false
		res.Issues = append(res.Issues, "invalid email format")
	}
}

// cleanID upper-cases and removes internal whitespace. ID formats vary too
// widely to normalize further.
func cleanID(res *CleanResult) {
	var b strings.Builder
	for _, r := range strings.ToUpper(res.Value) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	res.Value = b.String()
	if res.Value == "" {
		res.FormatValid = false
		res.Issues = append(res.Issues, "empty id value")
	}
}

// IsGarbage reports whether a value looks like OCR noise: punctuation-only
// runs or 1-2 character non-numeric fragments.
func IsGarbage(value string) bool {
	v := strings.TrimSpace(value)
	if v == "" {
		return true
	}
	for _, p := range garbagePatterns {
		if p.MatchString(v) {
			return true
		}
	}
	if len(v) <= 2 && !isAllDigits(v) {
		return true
	}
	return false
}

// repairAlphaDigits substitutes digits with their letter confusions when a
// neighboring character is a letter, matching the neighbor's case.
func repairAlphaDigits(s string) (string, int) {
	runes := []rune(s)
	count := 0
	for i, r := range runes {
		letter, ok := digitToLetter[r]
		if !ok {
			continue
		}
		neighbor, hasNeighbor := adjacentLetter(runes, i)
		if !hasNeighbor {
			continue
		}
		if unicode.IsUpper(neighbor) {
			letter = unicode.ToUpper(letter)
		}
		runes[i] = letter
		count++
	}
	return string(runes), count
}

// repairNumeric substitutes letter confusions with digits when the value is
// digit-dominated, so "O1/O1/199O" repairs to "01/01/1990" but a plain word
// is left alone.
func repairNumeric(s string) string {
	digits, letters := 0, 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	if digits == 0 || letters > digits {
		return s
	}
	runes := []rune(s)
	for i, r := range runes {
		if d, ok := letterToDigit[r]; ok {
			runes[i] = d
		}
	}
	return string(runes)
}

func adjacentLetter(runes []rune, i int) (rune, bool) {
	if i > 0 && unicode.IsLetter(runes[i-1]) {
		return runes[i-1], true
	}
	if i+1 < len(runes) && unicode.IsLetter(runes[i+1]) {
		return runes[i+1], true
	}
	return 0, false
}

func allCapsLetters(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
