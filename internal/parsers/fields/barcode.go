package fields

import (
	"regexp"
	"strings"
)

var nonAlnumRe = regexp.MustCompile(`[^0-9A-Za-z]`)

// minPaddedBarcodeLen is the shortest numeric code whose leading zeros are
// treated as padding
const minPaddedBarcodeLen = 6

// CleanBarcode strips everything but ASCII letters and digits. Numeric codes
// of at least six digits lose their leading zeros so that zero-padded and
// unpadded exports of the same product share one key. All-zero codes are
// kept as they are.
// Returns empty string when nothing usable remains; callers must reject it.
func CleanBarcode(raw string) string {
	bc := nonAlnumRe.ReplaceAllString(strings.TrimSpace(raw), "")
	if len(bc) >= minPaddedBarcodeLen && bc[0] == '0' && isDigits(bc) {
		if trimmed := strings.TrimLeft(bc, "0"); trimmed != "" {
			bc = trimmed
		}
	}
	return bc
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
