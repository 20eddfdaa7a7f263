package http

import "strings"

// mimeTypes maps a lowercase file extension (no leading dot) to its
// Content-Type value. Transcribed from the MIME table the serving layer
// this library generalises has always shipped, extension for extension and
// value for value — including the charset suffixes on "json"/"txt" that a
// naive table tends to drop.
var mimeTypes = map[string]string{
	"json":   "application/json; charset=utf-8",
	"bin":    "application/octet-stream",
	"bz":     "application/x-bzip",
	"bz2":    "application/x-bzip2",
	"css":    "text/css",
	"csv":    "text/csv",
	"gz":     "application/gzip",
	"gif":    "image/gif",
	"htm":    "text/html",
	"html":   "text/html",
	"ico":    "image/vnd.microsoft.icon",
	"jar":    "application/java-archive",
	"jpeg":   "image/jpeg",
	"jpg":    "image/jpeg",
	"js":     "text/javascript",
	"mjs":    "text/javascript",
	"otf":    "font/otf",
	"png":    "image/png",
	"svg":    "image/svg+xml",
	"tar":    "application/x-tar",
	"tiff":   "image/tiff",
	"ttf":    "font/ttf",
	"txt":    "text/plain; charset=utf-8",
	"xhtml":  "application/xhtml+xml",
	"xml":    "application/xml",
	"zip":    "application/zip",
	"7z":     "application/x-7z-compressed",
	"jsonld": "application/ld+json",
}

// DefaultMimeType is used when the target has no recognised extension and
// the handler didn't set one explicitly — this is, after all, a REST
// serving library, so JSON is the reasonable fallback.
const DefaultMimeType = "application/json; charset=utf-8"

// MimeTypeForExtension returns the Content-Type registered for ext (without
// a leading dot), or "" if ext is not in the table.
func MimeTypeForExtension(ext string) string {
	return mimeTypes[strings.ToLower(ext)]
}

// MimeTypeForTarget infers a Content-Type from a request/file target's
// extension, the part after the last '.' in its final path segment. It
// returns "" if target has no extension or the extension isn't recognised.
func MimeTypeForTarget(target string) string {
	slash := strings.LastIndexByte(target, '/')
	name := target
	if slash >= 0 {
		name = target[slash+1:]
	}
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return ""
	}
	return MimeTypeForExtension(name[dot+1:])
}
