package http

import "strings"

// Cookie is a single name/value pair parsed out of a request's Cookie
// header.
type Cookie struct {
	Name  string
	Value string
}

// ParseCookieHeader splits a Cookie header into its constituent pairs.
// Segments are separated by ';', each segment is split on its first '=',
// and surrounding whitespace is trimmed from both name and value.
// Segments without an '=' are skipped. Order is preserved so a repeated
// cookie name keeps "last one wins" semantics for callers that walk the
// slice looking it up linearly.
func ParseCookieHeader(header string) []Cookie {
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ";")
	cookies := make([]Cookie, 0, len(parts))
	for _, part := range parts {
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(part[:eq])
		value := strings.TrimSpace(part[eq+1:])
		if name == "" {
			continue
		}
		cookies = append(cookies, Cookie{Name: name, Value: value})
	}
	return cookies
}

// Lookup returns the value of the last cookie named name, and whether it
// was found.
func Lookup(cookies []Cookie, name string) (string, bool) {
	value, found := "", false
	for _, c := range cookies {
		if c.Name == name {
			value, found = c.Value, true
		}
	}
	return value, found
}

// SetCookieHeader renders a Set-Cookie header value for name=value. attrs
// are appended verbatim (e.g. "Path=/", "HttpOnly", "Max-Age=3600"), each
// preceded by "; ".
func SetCookieHeader(name, value string, attrs ...string) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)
	for _, a := range attrs {
		b.WriteString("; ")
		b.WriteString(a)
	}
	return b.String()
}

// SetCookie is a response-side cookie: a name/value pair plus the raw
// attribute strings ("Path=/", "HttpOnly", ...) to append to its
// Set-Cookie header.
type SetCookie struct {
	Name  string
	Value string
	Attrs []string
}

// Header renders this SetCookie as a full Set-Cookie header value.
func (c SetCookie) Header() string {
	return SetCookieHeader(c.Name, c.Value, c.Attrs...)
}
