package http

import (
	"fmt"
	"strconv"
)

// statusDocument is the canonical JSON body synthesized for any non-OPTIONS
// response whose handler left Body empty. It lets every endpoint, including
// ones that never write a body, produce a machine-readable result.
type statusDocument struct {
	Error  bool   `json:"error"`
	Status int    `json:"status"`
	Reason string `json:"reason"`
}

// renderStatusJSON hand-builds the status document instead of calling
// encoding/json.Marshal: the shape is fixed and tiny, and Reason may contain
// characters that need escaping, so a small escaper is cheaper than paying
// for reflection on every bodiless response.
func renderStatusJSON(code int, reason string) []byte {
	errFlag := "false"
	if code/100 != 2 {
		errFlag = "true"
	}
	var b []byte
	b = append(b, `{"error":`...)
	b = append(b, errFlag...)
	b = append(b, `,"status":`...)
	b = append(b, strconv.Itoa(code)...)
	b = append(b, `,"reason":"`...)
	b = appendJSONEscaped(b, reason)
	b = append(b, `"}`...)
	return b
}

func appendJSONEscaped(dst []byte, s string) []byte {
	for _, r := range s {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if r < 0x20 {
				dst = append(dst, []byte(fmt.Sprintf(`\u%04x`, r))...)
				continue
			}
			dst = append(dst, []byte(string(r))...)
		}
	}
	return dst
}
