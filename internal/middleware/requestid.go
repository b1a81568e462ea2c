package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/avroute/internal/observability"
)

// RequestID returns a middleware that adds a request ID to each request.
// An incoming X-Request-ID is kept; otherwise a UUID is generated and set on
// the request so later stages see the same value.
func RequestID() Middleware {
	return RequestIDWithGenerator(func() string {
		return uuid.New().String()
	})
}

// RequestIDWithGenerator returns a middleware that uses a custom ID generator.
func RequestIDWithGenerator(generator func() string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = generator()
				r.Header.Set(RequestIDHeader, requestID)
			}

			ctx := observability.ContextWithRequestID(r.Context(), requestID)
			r = r.WithContext(ctx)

			w.Header().Set(RequestIDHeader, requestID)

			next.ServeHTTP(w, r)
		})
	}
}
