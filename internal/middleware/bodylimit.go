package middleware

import (
	"io"
	"net/http"

	"github.com/vyrodovalexey/avroute/internal/observability"
)

// BodyLimit returns a middleware that limits the request body size.
// A Content-Length above maxSize is rejected with 413 before the body is
// read; a body that grows past maxSize fails on read. maxSize <= 0 disables
// the limit.
func BodyLimit(maxSize int64, logger observability.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if maxSize <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxSize {
				logger.WithContext(r.Context()).Warn("request body too large",
					observability.Int64("content_length", r.ContentLength),
					observability.Int64("max_size", maxSize),
					observability.String("path", r.URL.Path),
				)

				GetMiddlewareMetrics().bodyLimitRejected.Inc()

				w.Header().Set(HeaderContentType, ContentTypeTextPlain)
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_, _ = io.WriteString(w, ErrRequestEntityTooLarge)
				return
			}

			if r.Body != nil {
				r.Body = &limitedReadCloser{
					ReadCloser: r.Body,
					remaining:  maxSize,
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// limitedReadCloser wraps an io.ReadCloser and limits the number of bytes that can be read.
type limitedReadCloser struct {
	io.ReadCloser
	remaining int64
}

// Read reads up to len(p) bytes into p, respecting the remaining limit.
func (l *limitedReadCloser) Read(p []byte) (int, error) {
	if l.remaining <= 0 {
		// Distinguish an exact-size body from an oversized one.
		var probe [1]byte
		n, err := l.ReadCloser.Read(probe[:])
		if n > 0 {
			return 0, ErrBodyTooLarge
		}
		return 0, err
	}

	if int64(len(p)) > l.remaining {
		p = p[:l.remaining]
	}

	n, err := l.ReadCloser.Read(p)
	l.remaining -= int64(n)

	return n, err
}
