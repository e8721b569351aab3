package csv

// CsvDelimiter represents supported CSV delimiters
type CsvDelimiter string

const (
	DelimiterComma     CsvDelimiter = ","
	DelimiterSemicolon CsvDelimiter = ";"
	DelimiterTab       CsvDelimiter = "\t"
)

// CsvEncoding represents supported encodings
type CsvEncoding string

const (
	EncodingUTF8        CsvEncoding = "utf-8"
	EncodingWindows1252 CsvEncoding = "windows-1252"
	EncodingISO88591    CsvEncoding = "iso-8859-1"
)

// CsvParserOptions represents CSV parser options. Empty Delimiter and
// Encoding are detected from the content.
type CsvParserOptions struct {
	Delimiter CsvDelimiter `json:"delimiter,omitempty"`
	Encoding  CsvEncoding  `json:"encoding,omitempty"`
	QuoteChar rune         `json:"quoteChar,omitempty"`
}

// DefaultOptions returns default CSV parser options
func DefaultOptions() CsvParserOptions {
	return CsvParserOptions{
		Delimiter: DelimiterSemicolon,
		Encoding:  EncodingUTF8,
		QuoteChar: '"',
	}
}
