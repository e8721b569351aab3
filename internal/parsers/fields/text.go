package fields

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	percentRe    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*%`)
)

// CleanDescription trims and collapses runs of whitespace. It never rejects
// content.
func CleanDescription(raw string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
}

// RemoveDiacritics strips combining marks after NFD decomposition, so
// "descripción" becomes "descripcion".
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// FoldHeader lower-cases, trims and accent-folds a header cell
func FoldHeader(raw string) string {
	return strings.ToLower(RemoveDiacritics(strings.TrimSpace(raw)))
}

// IsValidDescription rejects blank text and the literal tokens some
// exports write for missing values.
func IsValidDescription(desc string) bool {
	d := strings.ToLower(strings.TrimSpace(desc))
	switch d {
	case "", "true", "false", "null":
		return false
	}
	return true
}

// ParsePercentText extracts a discount percentage from free text such as
// "Dcto. nena del 7,00%". Without a percent pattern the whole cell is read
// as a number and accepted only within [0,100].
func ParsePercentText(raw string) float64 {
	if m := percentRe.FindStringSubmatch(raw); m != nil {
		return ParseLocaleDecimal(m[1])
	}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0
	}
	v := ParseLocaleDecimal(trimmed)
	if v < 0 || v > 100 {
		return 0
	}
	return v
}

// ParsePercentCell parses a plain percentage column, tolerating a
// trailing "%" sign.
func ParsePercentCell(raw string) float64 {
	return ParseLocaleDecimal(strings.ReplaceAll(raw, "%", ""))
}
