package middleware

import "errors"

// ErrBodyTooLarge is returned by a limited body once it grows past the limit.
var ErrBodyTooLarge = errors.New("request body size exceeded")
