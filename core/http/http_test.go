package http

import (
	"bufio"
	"strings"
	"testing"
)

func TestParseRequestLineAndQuery(t *testing.T) {
	raw := "GET /api/widgets?color=red&size=&tag=a%20b HTTP/1.1\r\n" +
		"Host: example.com\r\n" +
		"Cookie: session=abc123; theme = dark\r\n" +
		"\r\n"

	req, err := ParseRequest(bufio.NewReader(strings.NewReader(raw)), ParseOptions{})
	if err != nil {
		t.Fatalf("ParseRequest: %v", err)
	}
	if req.Method != GET {
		t.Fatalf("method = %v, want GET", req.Method)
	}
	if req.Target != "/api/widgets" {
		t.Fatalf("target = %q, want /api/widgets", req.Target)
	}
	if v, ok := req.Arg("color"); !ok || v != "red" {
		t.Fatalf("arg color = %q, %v; want red, true", v, ok)
	}
	if v, ok := req.Arg("size"); !ok || v != "" {
		t.Fatalf("arg size = %q, %v; want empty, true", v, ok)
	}
	if v, ok := req.Arg("tag"); !ok || v != "a b" {
		t.Fatalf("arg tag = %q, %v; want 'a b', true", v, ok)
	}
	if v, ok := req.Cookie("theme"); !ok || v != "dark" {
		t.Fatalf("cookie theme = %q, %v; want dark, true", v, ok)
	}
}

func TestParseRequestUnsupportedMethod(t *testing.T) {
	raw := "TRACE / HTTP/1.1\r\n\r\n"
	_, err := ParseRequest(bufio.NewReader(strings.NewReader(raw)), ParseOptions{})
	if err != ErrUnsupportedMethod {
		t.Fatalf("err = %v, want ErrUnsupportedMethod", err)
	}
}

func TestParseRequestMalformedRequestLine(t *testing.T) {
	raw := "GET\r\n\r\n"
	_, err := ParseRequest(bufio.NewReader(strings.NewReader(raw)), ParseOptions{})
	if err != ErrMalformedRequestLine {
		t.Fatalf("err = %v, want ErrMalformedRequestLine", err)
	}
}

func TestCookieHeaderParsing(t *testing.T) {
	cookies := ParseCookieHeader(" a=1 ; b = 2; novalue; c=3=4")
	want := []Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}, {Name: "c", Value: "3=4"}}
	if len(cookies) != len(want) {
		t.Fatalf("got %d cookies, want %d: %+v", len(cookies), len(want), cookies)
	}
	for i, c := range cookies {
		if c != want[i] {
			t.Fatalf("cookie[%d] = %+v, want %+v", i, c, want[i])
		}
	}
}

func TestMimeTypeForTarget(t *testing.T) {
	cases := map[string]string{
		"/index.html":  "text/html",
		"/app.js":      "text/javascript",
		"/data.json":   "application/json; charset=utf-8",
		"/favicon.ico": "image/vnd.microsoft.icon",
		"/noext":       "",
		"/dir.v2/file": "",
	}
	for target, want := range cases {
		if got := MimeTypeForTarget(target); got != want {
			t.Errorf("MimeTypeForTarget(%q) = %q, want %q", target, got, want)
		}
	}
}

func TestGzipRoundTrip(t *testing.T) {
	body := []byte("the quick brown fox jumps over the lazy dog")
	compressed, err := CompressGzip(body)
	if err != nil {
		t.Fatalf("CompressGzip: %v", err)
	}
	decompressed, err := DecompressGzip(compressed, int64(len(body)))
	if err != nil {
		t.Fatalf("DecompressGzip: %v", err)
	}
	if string(decompressed) != string(body) {
		t.Fatalf("round trip mismatch: got %q", decompressed)
	}
}

func TestGzipDecompressionOverLimit(t *testing.T) {
	body := []byte(strings.Repeat("x", 1000))
	compressed, err := CompressGzip(body)
	if err != nil {
		t.Fatalf("CompressGzip: %v", err)
	}
	if _, err := DecompressGzip(compressed, 10); err != ErrDecompressedTooLarge {
		t.Fatalf("err = %v, want ErrDecompressedTooLarge", err)
	}
}

func TestAcceptsGzip(t *testing.T) {
	if !AcceptsGzip("deflate, gzip;q=0.8") {
		t.Fatal("expected gzip to be accepted")
	}
	if AcceptsGzip("br, identity") {
		t.Fatal("expected gzip to not be accepted")
	}
}

func TestStatusBodySynthesis(t *testing.T) {
	r := NotFound("")
	body := r.StatusBody(GET)
	if !strings.Contains(string(body), `"status":404`) {
		t.Fatalf("status body = %s, want status 404", body)
	}
	if !strings.Contains(string(body), `"error":true`) {
		t.Fatalf("status body = %s, want error:true", body)
	}

	ok := Response{Code: 200, Reason: "OK"}
	okBody := ok.StatusBody(GET)
	if !strings.Contains(string(okBody), `"error":false`) {
		t.Fatalf("status body = %s, want error:false", okBody)
	}

	optionsResp := Response{Code: 200, Reason: "OK"}
	if body := optionsResp.StatusBody(OPTIONS); len(body) != 0 {
		t.Fatalf("OPTIONS with empty body should stay empty, got %s", body)
	}
}

func TestResolvedMimeType(t *testing.T) {
	r := Response{}
	if got := r.ResolvedMimeType("/style.css"); got != "text/css" {
		t.Fatalf("ResolvedMimeType = %q, want text/css", got)
	}
	if got := r.ResolvedMimeType("/noext"); got != DefaultMimeType {
		t.Fatalf("ResolvedMimeType fallback = %q, want %q", got, DefaultMimeType)
	}
}
