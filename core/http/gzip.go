package http

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"strings"
)

// ErrDecompressedTooLarge is returned by DecompressGzip when the inflated
// body would exceed the caller's size cap (spec testable property S7).
var ErrDecompressedTooLarge = errors.New("http: decompressed body exceeds configured limit")

// DecompressGzip inflates an RFC 1952 gzip stream, refusing to read past
// limit bytes of decompressed output. It reads one extra byte beyond limit
// so it can distinguish "exactly limit bytes" from "more than limit bytes"
// without buffering the whole stream first.
func DecompressGzip(body []byte, limit int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	limited := io.LimitReader(zr, limit+1)
	out, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, ErrDecompressedTooLarge
	}
	return out, nil
}

// CompressGzip deflates body at the default compression level. Used for
// outbound response bodies when the client's Accept-Encoding advertises
// gzip support.
func CompressGzip(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// AcceptsGzip reports whether an Accept-Encoding header value lists gzip
// among its comma-separated codings, ignoring any ";q=..." parameter on a
// coding. This is not full RFC 7231 q-value parsing — "gzip;q=0" still
// counts as accepted — which is sufficient for a header this library only
// ever inspects for a yes/no signal.
func AcceptsGzip(acceptEncoding string) bool {
	for _, part := range splitComma(acceptEncoding) {
		if semi := strings.IndexByte(part, ';'); semi >= 0 {
			part = part[:semi]
		}
		if trimmedEqualFold(part, "gzip") {
			return true
		}
	}
	return false
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func trimmedEqualFold(s, target string) bool {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}
	s = s[start:end]
	if len(s) != len(target) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != target[i] {
			return false
		}
	}
	return true
}
