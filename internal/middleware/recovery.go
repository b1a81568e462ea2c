package middleware

import (
	"io"
	"net/http"
	"runtime/debug"

	"github.com/vyrodovalexey/avroute/internal/observability"
)

// Recovery returns a middleware that recovers from panics outside the
// dispatcher and answers 500 in plain text.
func Recovery(logger observability.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.WithContext(r.Context()).Error("panic recovered",
						observability.String("path", r.URL.Path),
						observability.String("method", r.Method),
						observability.Any("error", err),
						observability.String("stack", string(debug.Stack())),
					)

					GetMiddlewareMetrics().panicsRecovered.Inc()

					w.Header().Set(HeaderContentType, ContentTypeTextPlain)
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = io.WriteString(w, ErrInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
