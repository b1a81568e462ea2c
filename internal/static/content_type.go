package static

import (
	"path/filepath"
	"strings"
)

// DefaultContentType is used for extensions missing from the table.
const DefaultContentType = "application/octet-stream"

// contentTypes is the fixed extension table. Keys are lower case and
// include the leading dot.
var contentTypes = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".js":    "application/javascript",
	".mjs":   "application/javascript",
	".json":  "application/json",
	".xml":   "application/xml",
	".txt":   "text/plain",
	".csv":   "text/csv",
	".md":    "text/markdown",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".webp":  "image/webp",
	".pdf":   "application/pdf",
	".wasm":  "application/wasm",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// ContentTypeFor returns the content type for name from the fixed table,
// or "" when the extension is unknown.
func ContentTypeFor(name string) string {
	return contentTypes[strings.ToLower(filepath.Ext(name))]
}
