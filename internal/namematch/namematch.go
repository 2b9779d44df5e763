// Package namematch confirms payee identity from the inconsistently
// formatted name fields on bank-transfer slips. Slips may carry Thai or
// English names, honorific prefixes, abbreviations and punctuation;
// matching is normalized bidirectional containment.
package namematch

import (
	"strings"
	"unicode"
)

// Confidence scores per matched slip field. The formal display name is
// considered the stronger signal.
const (
	ConfidenceDisplayName = 0.95
	ConfidenceName        = 0.90
)

// Slip field identifiers recorded on verified settlements.
const (
	FieldDisplayName = "displayName"
	FieldName        = "name"
)

// honorifics are stripped only when anchored at the start of the
// normalized string. Ordered longest-first so "นางสาว" wins over "นาง".
var honorifics = []string{
	"นางสาว",
	"น.ส.",
	"ด.ช.",
	"ด.ญ.",
	"นาย",
	"นาง",
	"MISS",
	"MRS",
	"MR",
	"MS",
	"บจก.",
	"หจก.",
}

// englishTitles need a dot or space after them; stripping the bare
// letters would eat the front of names like "MSORN".
var englishTitles = map[string]bool{
	"MISS": true,
	"MRS":  true,
	"MR":   true,
	"MS":   true,
}

// Result reports the outcome of a receiver identity check.
type Result struct {
	Matched    bool
	Field      string
	Confidence float64

	// NormalizedRegistered and NormalizedSlip carry the strings that
	// were actually compared, for diagnostics on a failed match.
	NormalizedRegistered string
	NormalizedSlip       string
}

// Normalize upper-cases the name, strips one leading honorific and
// removes every rune that is not a Latin letter, digit or Thai letter.
func Normalize(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	for _, h := range honorifics {
		rest, ok := strings.CutPrefix(s, h)
		if !ok {
			continue
		}
		if englishTitles[h] && !strings.HasPrefix(rest, ".") && !strings.HasPrefix(rest, " ") {
			continue
		}
		// "MR." style: the table holds the bare title, eat the dot too.
		rest = strings.TrimPrefix(rest, ".")
		s = strings.TrimSpace(rest)
		break
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r >= 'ก' && r <= '๙': // Thai letters, marks and digits
			b.WriteRune(r)
		}
	}
	return b.String()
}

// contains reports bidirectional containment: either normalized string
// being a substring of the other is a match. This handles both "slip
// name is fuller" and "registered name is fuller" cases.
func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Match compares the registered real name against the slip's receiver
// name fields, display name first. On failure the result carries both
// normalized strings from the last comparison attempted.
func Match(registered, slipDisplayName, slipName string) Result {
	reg := Normalize(registered)

	display := Normalize(slipDisplayName)
	if contains(reg, display) {
		return Result{
			Matched:              true,
			Field:                FieldDisplayName,
			Confidence:           ConfidenceDisplayName,
			NormalizedRegistered: reg,
			NormalizedSlip:       display,
		}
	}

	plain := Normalize(slipName)
	if contains(reg, plain) {
		return Result{
			Matched:              true,
			Field:                FieldName,
			Confidence:           ConfidenceName,
			NormalizedRegistered: reg,
			NormalizedSlip:       plain,
		}
	}

	slip := display
	if slip == "" {
		slip = plain
	}
	return Result{
		NormalizedRegistered: reg,
		NormalizedSlip:       slip,
	}
}
