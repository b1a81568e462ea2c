package middleware

import (
	"net/http"
)

// DefaultSecurityHeaders returns the headers SecurityHeaders sets when no
// overrides are given.
func DefaultSecurityHeaders() map[string]string {
	return map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	}
}

// MergeSecurityHeaders applies overrides on top of the defaults. An empty
// override value drops the header.
func MergeSecurityHeaders(overrides map[string]string) map[string]string {
	headers := DefaultSecurityHeaders()
	for name, value := range overrides {
		name = http.CanonicalHeaderKey(name)
		if value == "" {
			delete(headers, name)
			continue
		}
		headers[name] = value
	}
	return headers
}

// SecurityHeaders sets headers on every response before the handler runs,
// so handlers may still override them.
func SecurityHeaders(headers map[string]string) Middleware {
	return func(next http.Handler) http.Handler {
		if len(headers) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, value := range headers {
				h.Set(name, value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
