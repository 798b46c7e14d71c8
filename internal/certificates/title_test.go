package certificates

import (
	"encoding/base64"
	"net/url"
	"testing"
)

func TestDecodeTitleDoubleEncoded(t *testing.T) {
	original := "Базы данных и SQL"
	encoded := base64.StdEncoding.EncodeToString([]byte(url.PathEscape(original)))

	if got := DecodeTitle(encoded); got != original {
		t.Fatalf("expected %q, got %q", original, got)
	}
}

func TestDecodeTitlePlainASCII(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("Intro%20to%20Go"))
	if got := DecodeTitle(encoded); got != "Intro to Go" {
		t.Fatalf("expected decoded title, got %q", got)
	}
}

func TestDecodeTitleFallsBackOnGarbage(t *testing.T) {
	cases := []string{
		"Обычный заголовок",  // not base64 at all
		"%%%not-encoded%%%",  // invalid everywhere
		"aGVsbG8l",           // valid base64, invalid percent encoding ("hello%")
		"",                   // empty stays empty
	}
	for _, raw := range cases {
		if got := DecodeTitle(raw); got != raw {
			t.Fatalf("expected raw fallback for %q, got %q", raw, got)
		}
	}
}
