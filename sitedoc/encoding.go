package sitedoc

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"
)

// plainMarkers are substrings whose presence means the content is already
// plain text and must not be decode-probed.
var plainMarkers = []string{"<!DOCTYPE", "/*", "function", "const"}

// looksEncoded reports whether content should be probed as base64: longer
// than 100 characters and free of every plain-text marker.
func looksEncoded(s string) bool {
	if len(s) <= 100 {
		return false
	}
	for _, m := range plainMarkers {
		if strings.Contains(s, m) {
			return false
		}
	}
	return true
}

// DecodeContent normalizes file content that generation services sometimes
// deliver base64-encoded. Content that looks plain is returned as-is; a
// speculative decode that fails for any reason (bad alphabet, bad padding,
// non-UTF-8 result) is swallowed and the original string kept.
func DecodeContent(s string) string {
	if !looksEncoded(s) {
		return s
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	if !utf8.Valid(decoded) {
		return s
	}
	return string(decoded)
}

// EncodeContent is the inverse used when handing content back to services
// that expect the encoded form.
func EncodeContent(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
