package csv

import (
	"fmt"
	"strings"

	"github.com/farmaintel/price-service/internal/parsers/charset"
	"github.com/farmaintel/price-service/internal/parsers/header"
	"github.com/rs/zerolog/log"
)

// Parser reads delimited text into rows of trimmed cells
type Parser struct {
	options CsvParserOptions
}

// NewParser creates a new CSV parser with the given options
func NewParser(options CsvParserOptions) *Parser {
	if options.QuoteChar == 0 {
		options.QuoteChar = '"'
	}
	return &Parser{
		options: options,
	}
}

// Parse decodes content and splits it into rows. Blank lines are kept as
// empty rows so that row indices match file line numbers.
func (p *Parser) Parse(content []byte) (header.Rows, error) {
	opts := p.options

	if opts.Encoding == "" {
		opts.Encoding = CsvEncoding(charset.DetectEncoding(content))
	}

	decoded, err := charset.Decode(content, charset.Encoding(opts.Encoding))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	if opts.Delimiter == "" {
		opts.Delimiter = DetectDelimiter(decoded)
		log.Debug().Str("delimiter", string(opts.Delimiter)).Msg("Detected CSV delimiter")
	}

	delimRune := []rune(string(opts.Delimiter))[0]
	lines := splitLines(decoded)
	// Drop the empty line produced by a trailing newline
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	rows := make(header.Rows, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			rows = append(rows, []string{})
			continue
		}

		fields := SplitCSVLine(line, delimRune, opts.QuoteChar)
		for i, f := range fields {
			fields[i] = strings.TrimSpace(f)
		}
		rows = append(rows, fields)
	}

	return rows, nil
}

// splitLines splits content into lines handling different line endings
func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// IsEmptyRow checks if a row is empty
func IsEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
