// Package util provides utility functions and types shared by the router,
// the dispatcher and the transport.
//
// # Error Conventions
//
// This project follows a standardized error pattern across all packages:
//
//   - Sentinel errors (errors.New) for well-known, stable conditions
//     that callers check with errors.Is(). Example: ErrNotFound.
//   - Structured error types for context-rich errors that carry
//     additional fields (e.g., RouteNotFoundError, FilterRejectedError).
//     Each type implements Error(), Unwrap() (if wrapping), and Is().
//   - fmt.Errorf with %w for ad-hoc wrapping that adds context to an
//     existing error without introducing a new type.
//
// All dispatch errors are resolved to a concrete response by the
// dispatcher; none of them escape to the transport.
package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Common sentinel errors.
var (
	ErrNotFound         = errors.New("not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
	ErrFilterRejected   = errors.New("filter rejected request")
	ErrHandlerFailure   = errors.New("handler failure")
	ErrConfigInvalid    = errors.New("invalid configuration")
)

// Response bodies for the statuses the dispatcher derives itself.
const (
	BodyNotFound         = "Not found"
	BodyMethodNotAllowed = "Method not allowed"
	BodyInternalError    = "Internal Server Error"
	BodyFileNotFound     = "File not found"
)

// ConfigError represents a configuration-related error.
type ConfigError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error at %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfigInvalid {
		return true
	}
	_, ok := target.(*ConfigError)
	return ok || errors.Is(e.Cause, target)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// NewConfigErrorWithCause creates a new ConfigError with a cause.
func NewConfigErrorWithCause(field, message string, cause error) *ConfigError {
	return &ConfigError{Field: field, Message: message, Cause: cause}
}

// RouteNotFoundError is returned when no endpoint pattern matches the path.
type RouteNotFoundError struct {
	Path   string
	Method string
}

// Error implements the error interface.
func (e *RouteNotFoundError) Error() string {
	return fmt.Sprintf("no route found for %s %s", e.Method, e.Path)
}

// Is checks if the error matches the target.
func (e *RouteNotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*RouteNotFoundError)
	return ok
}

// NewRouteNotFoundError creates a new RouteNotFoundError.
func NewRouteNotFoundError(method, path string) *RouteNotFoundError {
	return &RouteNotFoundError{Path: path, Method: method}
}

// MethodNotAllowedError is returned when a pattern matches the path but no
// endpoint on it accepts the method.
type MethodNotAllowedError struct {
	Path   string
	Method string
}

// Error implements the error interface.
func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s not allowed for %s", e.Method, e.Path)
}

// Is checks if the error matches the target.
func (e *MethodNotAllowedError) Is(target error) bool {
	if target == ErrMethodNotAllowed {
		return true
	}
	_, ok := target.(*MethodNotAllowedError)
	return ok
}

// NewMethodNotAllowedError creates a new MethodNotAllowedError.
func NewMethodNotAllowedError(method, path string) *MethodNotAllowedError {
	return &MethodNotAllowedError{Path: path, Method: method}
}

// FilterRejectedError carries the status and body chosen by an aborting filter.
type FilterRejectedError struct {
	Route  string
	Status int
	Body   string
}

// Error implements the error interface.
func (e *FilterRejectedError) Error() string {
	return fmt.Sprintf("filter rejected %s with status %d", e.Route, e.Status)
}

// Is checks if the error matches the target.
func (e *FilterRejectedError) Is(target error) bool {
	if target == ErrFilterRejected {
		return true
	}
	_, ok := target.(*FilterRejectedError)
	return ok
}

// NewFilterRejectedError creates a new FilterRejectedError.
func NewFilterRejectedError(route string, status int, body string) *FilterRejectedError {
	return &FilterRejectedError{Route: route, Status: status, Body: body}
}

// HandlerFailureError wraps an error returned by, or a panic raised in, a handler.
type HandlerFailureError struct {
	Route    string
	Panicked bool
	Cause    error
}

// Error implements the error interface.
func (e *HandlerFailureError) Error() string {
	if e.Panicked {
		return fmt.Sprintf("handler for %s panicked: %v", e.Route, e.Cause)
	}
	return fmt.Sprintf("handler for %s failed: %v", e.Route, e.Cause)
}

// Unwrap returns the underlying error.
func (e *HandlerFailureError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *HandlerFailureError) Is(target error) bool {
	if target == ErrHandlerFailure {
		return true
	}
	_, ok := target.(*HandlerFailureError)
	return ok || errors.Is(e.Cause, target)
}

// NewHandlerFailureError creates a new HandlerFailureError.
func NewHandlerFailureError(route string, cause error) *HandlerFailureError {
	return &HandlerFailureError{Route: route, Cause: cause}
}

// NewHandlerPanicError creates a HandlerFailureError for a recovered panic value.
func NewHandlerPanicError(route string, recovered interface{}) *HandlerFailureError {
	cause, ok := recovered.(error)
	if !ok {
		cause = fmt.Errorf("%v", recovered)
	}
	return &HandlerFailureError{Route: route, Panicked: true, Cause: cause}
}

// StaticFileNotFoundError is returned for a missing file, a directory, or a
// path escaping the base directory. The reason is for logs only.
type StaticFileNotFoundError struct {
	Path   string
	Reason string
	Cause  error
}

// Error implements the error interface.
func (e *StaticFileNotFoundError) Error() string {
	return fmt.Sprintf("static file %s not found: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying error.
func (e *StaticFileNotFoundError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target.
func (e *StaticFileNotFoundError) Is(target error) bool {
	if target == ErrNotFound {
		return true
	}
	_, ok := target.(*StaticFileNotFoundError)
	return ok
}

// NewStaticFileNotFoundError creates a new StaticFileNotFoundError.
func NewStaticFileNotFoundError(path, reason string, cause error) *StaticFileNotFoundError {
	return &StaticFileNotFoundError{Path: path, Reason: reason, Cause: cause}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StatusFor maps a dispatch error to the response status and body.
func StatusFor(err error) (status int, body string) {
	var (
		filterErr *FilterRejectedError
		staticErr *StaticFileNotFoundError
	)

	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &filterErr):
		return filterErr.Status, filterErr.Body
	case errors.As(err, &staticErr):
		return http.StatusNotFound, BodyFileNotFound
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, BodyNotFound
	case errors.Is(err, ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, BodyMethodNotAllowed
	default:
		return http.StatusInternalServerError, BodyInternalError
	}
}

// IsClientError returns true if the error resolves to a 4xx status.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	status, _ := StatusFor(err)
	return status >= 400 && status < 500
}

// IsServerError returns true if the error resolves to a 5xx status.
func IsServerError(err error) bool {
	if err == nil {
		return false
	}
	status, _ := StatusFor(err)
	return status >= 500
}
