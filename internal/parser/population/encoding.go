package population

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeBody converts a raw response body to a UTF-8 string. Recent files
// are UTF-8 (often BOM-prefixed); older years are published in the Thai
// national charset (TIS-620 / Windows-874). Bodies that are not valid UTF-8
// are decoded as Windows-874; if even that fails, the bytes are passed
// through unchanged and left to the field parser to reject.
func DecodeBody(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	decoded, err := charmap.Windows874.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(decoded)
}
