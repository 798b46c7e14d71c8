package certificates

import (
	"encoding/base64"
	"net/url"
	"unicode/utf8"
)

// DecodeTitle reverses the transport encoding applied to course titles:
// clients base64-encode the percent-encoded title because some browsers
// mangle non-ASCII multipart fields. Any decode failure falls back to the
// raw value unmodified; a bad title never fails the pipeline.
func DecodeTitle(raw string) string {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || !utf8.Valid(decoded) {
		return raw
	}
	unescaped, err := url.PathUnescape(string(decoded))
	if err != nil {
		return raw
	}
	return unescaped
}
