package xlsx

// XlsxParserOptions represents XLSX parser options
type XlsxParserOptions struct {
	// SheetNameOrIndex specifies which sheet to read (default: first sheet)
	// Can be a string (sheet name) or int (sheet index, 0-based)
	SheetNameOrIndex interface{} `json:"sheetNameOrIndex,omitempty"`
}

// DefaultOptions returns default XLSX parser options
func DefaultOptions() XlsxParserOptions {
	return XlsxParserOptions{}
}

// InvalidIndex indicates a column was not found or not specified
const InvalidIndex = -1
