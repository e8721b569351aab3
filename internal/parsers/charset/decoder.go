package charset

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding represents a text encoding
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1252 Encoding = "windows-1252"
	EncodingISO88591    Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding detects the encoding of a byte buffer. Spreadsheet tools on
// Spanish-locale Windows save CSV as Windows-1252, so anything that is not
// valid UTF-8 is assumed to be that.
func DetectEncoding(data []byte) Encoding {
	if bytes.HasPrefix(data, utf8BOM) || utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1252
}

// Decode converts a byte buffer from the specified encoding to a UTF-8
// string. A leading BOM is dropped.
func Decode(data []byte, enc Encoding) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	// Valid UTF-8 is returned as-is whatever the caller asked for; exports
	// labelled as legacy encodings are frequently UTF-8 already.
	if utf8.Valid(data) {
		return string(data), nil
	}

	var decoder *encoding.Decoder
	switch enc {
	case EncodingISO88591:
		decoder = charmap.ISO8859_1.NewDecoder()
	default:
		decoder = charmap.Windows1252.NewDecoder()
	}

	result, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), decoder))
	if err != nil {
		return "", err
	}
	return string(result), nil
}
