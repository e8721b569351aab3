package csv

import (
	"strings"
	"unicode/utf8"
)

// DetectDelimiter detects the CSV delimiter by analyzing the first few lines
func DetectDelimiter(content string) CsvDelimiter {
	lines := strings.Split(content, "\n")

	// Take first 5 non-empty lines
	sampleLines := make([]string, 0, 5)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			sampleLines = append(sampleLines, trimmed)
			if len(sampleLines) >= 5 {
				break
			}
		}
	}

	if len(sampleLines) == 0 {
		return DelimiterSemicolon
	}

	delimiters := []CsvDelimiter{DelimiterSemicolon, DelimiterComma, DelimiterTab}
	bestDelimiter := DelimiterSemicolon
	maxConsistency := 0.0

	for _, delim := range delimiters {
		delimStr := string(delim)
		sum := 0
		counts := make([]int, 0, len(sampleLines))
		for _, line := range sampleLines {
			count := strings.Count(line, delimStr)
			counts = append(counts, count)
			sum += count
		}

		avgCount := float64(sum) / float64(len(counts))
		if avgCount == 0 {
			continue
		}

		// All lines should have similar counts
		variance := 0.0
		for _, c := range counts {
			diff := float64(c) - avgCount
			variance += diff * diff
		}
		variance /= float64(len(counts))

		consistency := avgCount / (1.0 + variance)
		if consistency > maxConsistency {
			maxConsistency = consistency
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// SplitCSVLine splits a CSV line. A quote only opens a quoted field at the
// start of the field; quotes inside unquoted text are kept literally, as
// supplier descriptions use them for inches ("5\" TAB").
func SplitCSVLine(line string, delimiter rune, quoteChar rune) []string {
	fields := make([]string, 0, 10)
	var current strings.Builder
	inQuotes := false
	fieldStart := true

	for i := 0; i < len(line); {
		r, width := utf8.DecodeRuneInString(line[i:])
		i += width

		if inQuotes {
			if r == quoteChar {
				// Escaped quote (double quote)
				if next, w := utf8.DecodeRuneInString(line[i:]); i < len(line) && next == quoteChar {
					current.WriteRune(quoteChar)
					i += w
					continue
				}
				inQuotes = false
				continue
			}
			current.WriteRune(r)
			continue
		}

		if r == quoteChar && fieldStart {
			inQuotes = true
			fieldStart = false
			continue
		}

		if r == delimiter {
			fields = append(fields, current.String())
			current.Reset()
			fieldStart = true
			continue
		}

		current.WriteRune(r)
		fieldStart = false
	}

	fields = append(fields, current.String())
	return fields
}
