package middleware

// Header names.
const (
	HeaderContentType = "Content-Type"

	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = "X-Request-ID"
)

// Content types.
const (
	ContentTypeTextPlain = "text/plain"
)

// Response bodies written by middleware.
const (
	ErrInternalServerError   = "Internal Server Error"
	ErrRequestEntityTooLarge = "Request Entity Too Large"
)
