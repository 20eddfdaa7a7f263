package http

import (
	"bufio"
	"errors"
	"fmt"
	"net/textproto"
	"strconv"
	"strings"
)

// errMalformedEscape is returned by percent-decoding helpers on an invalid
// or truncated %XX sequence; callers turn it into a 400.
var errMalformedEscape = errors.New("http: malformed percent-escape")

// ErrMalformedRequestLine is returned when the first line of a request
// cannot be split into method, target and HTTP version.
var ErrMalformedRequestLine = errors.New("http: malformed request line")

// ErrUnsupportedMethod is returned when the request-line verb is not one
// of the six this library understands.
var ErrUnsupportedMethod = errors.New("http: unsupported method")

// DefaultMaxDecompressedSize bounds how large a gzip-decoded body may grow
// when ParseOptions.MaxDecompressedSize is zero or negative.
const DefaultMaxDecompressedSize = 10 * 1024 * 1024

// ParseOptions controls behaviour that varies per server instance but
// isn't part of the wire format itself.
type ParseOptions struct {
	MaxDecompressedSize int64
	IsHTTPS             bool
}

// ParseRequest reads one HTTP/1.1 request (request-line, headers, body)
// from r. It percent-decodes the target, splits off and parses the query
// string, parses cookies, and gzip-decompresses the body when
// Content-Encoding: gzip is present, refusing a decompressed body that
// would exceed opts.MaxDecompressedSize.
func ParseRequest(r *bufio.Reader, opts ParseOptions) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}
	method, target, httpMinorVersion, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	tp := textproto.NewReader(r)
	headers, err := tp.ReadMIMEHeader()
	if err != nil && len(headers) == 0 {
		return nil, fmt.Errorf("http: reading headers: %w", err)
	}

	req := NewRequest()
	req.Method = method
	req.IsHTTPS = opts.IsHTTPS
	req.KeepAlive = keepAliveFor(httpMinorVersion, headers.Get("Connection"))

	path, query := splitTarget(target)
	decodedPath, err := pathDecode(path)
	if err != nil {
		return nil, ErrMalformedRequestLine
	}
	req.Target = decodedPath
	req.Arguments = parseQuery(query)
	req.Cookies = ParseCookieHeader(headers.Get("Cookie"))
	req.AuthorizationHeader = headers.Get("Authorization")

	limit := opts.MaxDecompressedSize
	if limit <= 0 {
		limit = DefaultMaxDecompressedSize
	}
	req.AcceptsGzip = AcceptsGzip(headers.Get("Accept-Encoding"))

	body, err := readBody(r, headers)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(headers.Get("Content-Encoding"), "gzip") {
		body, err = DecompressGzip(body, limit)
		if err != nil {
			return nil, err
		}
	}
	req.Body = body

	return req, nil
}

func parseRequestLine(line string) (method Method, target string, httpMinorVersion int, err error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return 0, "", 0, ErrMalformedRequestLine
	}
	if !strings.HasPrefix(parts[2], "HTTP/1.") || len(parts[2]) != len("HTTP/1.X") {
		return 0, "", 0, ErrMalformedRequestLine
	}
	minor, ok := hexDigit(parts[2][len(parts[2])-1])
	if !ok || minor > 1 {
		return 0, "", 0, ErrMalformedRequestLine
	}
	method, ok = ParseMethod(parts[0])
	if !ok {
		return 0, "", 0, ErrUnsupportedMethod
	}
	return method, parts[1], int(minor), nil
}

// keepAliveFor applies HTTP/1.x's default keep-alive rule: HTTP/1.1
// connections stay open unless "Connection: close" is sent; HTTP/1.0
// connections close unless "Connection: keep-alive" is sent.
func keepAliveFor(httpMinorVersion int, connectionHeader string) bool {
	hasClose := trimmedEqualFold(connectionHeader, "close")
	hasKeepAlive := trimmedEqualFold(connectionHeader, "keep-alive")
	if httpMinorVersion >= 1 {
		return !hasClose
	}
	return hasKeepAlive
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func readBody(r *bufio.Reader, headers textproto.MIMEHeader) ([]byte, error) {
	cl := headers.Get("Content-Length")
	if cl == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(cl)
	if err != nil || n < 0 {
		return nil, ErrMalformedRequestLine
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if _, err := readFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

