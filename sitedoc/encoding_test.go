package sitedoc

import (
	"strings"
	"testing"
)

func TestDecodeContent_RoundTrip(t *testing.T) {
	original := "<html><body>" + strings.Repeat("<div>block</div>", 20) + "</body></html>"
	encoded := EncodeContent(original)

	if got := DecodeContent(encoded); got != original {
		t.Fatalf("round trip: got %q", got)
	}
}

func TestDecodeContent_PlainHTMLUntouched(t *testing.T) {
	plain := "<!DOCTYPE html><html><body>" + strings.Repeat("x", 200) + "</body></html>"
	if got := DecodeContent(plain); got != plain {
		t.Fatal("plain HTML with DOCTYPE marker was modified")
	}
}

func TestDecodeContent_ShortContentUntouched(t *testing.T) {
	short := "aGVsbG8=" // valid base64, but under the length threshold
	if got := DecodeContent(short); got != short {
		t.Fatalf("short content: got %q", got)
	}
}

func TestDecodeContent_InvalidBase64Swallowed(t *testing.T) {
	// Long, no markers, but spaces make it invalid base64.
	notB64 := strings.Repeat("lorem ipsum dolor sit amet ", 10)
	if got := DecodeContent(notB64); got != notB64 {
		t.Fatal("invalid base64 was not returned unmodified")
	}
}

func TestDecodeContent_MarkersBlockProbing(t *testing.T) {
	for _, marker := range []string{"/*", "function", "const"} {
		s := marker + strings.Repeat("A", 200)
		if got := DecodeContent(s); got != s {
			t.Fatalf("marker %q: content was probed", marker)
		}
	}
}

func TestDecodeContent_NonUTF8Swallowed(t *testing.T) {
	// Valid base64 of bytes that are not valid UTF-8.
	raw := make([]byte, 120)
	for i := range raw {
		raw[i] = 0xFF
	}
	encoded := EncodeContent(string(raw))
	if got := DecodeContent(encoded); got != encoded {
		t.Fatal("non-UTF-8 decode result should be discarded")
	}
}
