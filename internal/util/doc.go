// Package util provides utility functions and types for the router.
//
// This package contains shared utilities used across the module
// including the dispatch error taxonomy and validation functions.
//
// # Error Types
//
// Structured error types for consistent error handling:
//
//   - RouteNotFoundError: no endpoint pattern matches the path (404)
//   - MethodNotAllowedError: the path matches, the method does not (405)
//   - FilterRejectedError: a filter aborted with its own status and body
//   - HandlerFailureError: a handler returned an error or panicked (500)
//   - StaticFileNotFoundError: missing file or traversal attempt (404)
//   - ConfigError: configuration validation errors
//
// StatusFor resolves any of them to the status and body written back:
//
//	status, body := util.StatusFor(err)
//
// # Validation
//
// Input validation helpers for ports, methods, headers and prefixes:
//
//	err := util.ValidateHTTPMethod("GET")
//	err := util.ValidateHeaderName("X-Custom-Header")
package util
