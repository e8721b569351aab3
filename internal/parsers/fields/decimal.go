package fields

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	pipeSpaceRe  = regexp.MustCompile(`[|\s]`)
	nonStockRe   = regexp.MustCompile(`[^0-9-]`)
	nonNumericRe = regexp.MustCompile(`[^0-9.,]`)
)

// ParseLocaleDecimal parses numbers written with either Spanish or English
// separators: "1.351,75", "1,351.75", "7,94", "3.39".
// When both separators appear the last one is the decimal separator. A lone
// comma is decimal if at most two digits follow it, thousands otherwise.
// Blank or unparseable input yields 0.
func ParseLocaleDecimal(raw string) float64 {
	cleaned := pipeSpaceRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" || cleaned == "-" {
		return 0
	}
	return parseNormalized(normalizeSeparators(cleaned, false))
}

// ParseRate parses an exchange rate published with Venezuelan formatting.
// Everything but digits and separators is dropped and the last separator is
// always the decimal one.
func ParseRate(raw string) float64 {
	cleaned := nonNumericRe.ReplaceAllString(raw, "")
	if cleaned == "" {
		return 0
	}
	return parseNormalized(normalizeSeparators(cleaned, true))
}

// normalizeSeparators rewrites s so that '.' is the only decimal separator.
// lastIsDecimal forces a lone comma to be read as decimal.
func normalizeSeparators(s string, lastIsDecimal bool) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			return strings.ReplaceAll(s, ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if lastIsDecimal || len(s)-lastComma-1 <= 2 {
			return strings.ReplaceAll(s, ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

func parseNormalized(s string) float64 {
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err == nil {
		v, _ := d.Float64()
		return v
	}
	// Values such as "1.2.3" survive separator handling; fall back to the
	// float grammar before giving up.
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseStock keeps digits and minus signs and parses the result as an
// integer. Anything unparseable is 0.
func ParseStock(raw string) int {
	cleaned := nonStockRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return 0
	}
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}

// ParseVat parses a VAT percentage column
func ParseVat(raw string) float64 {
	return ParseLocaleDecimal(strings.ReplaceAll(raw, "%", ""))
}

// Round2 rounds a money amount to cents using decimal arithmetic
func Round2(v float64) float64 {
	r, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return r
}
