package util

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// headerNameRegex validates HTTP header names according to RFC 7230.
var headerNameRegex = regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9A-Za-z]+$`)

// supportedMethods are the only methods an endpoint can be registered for.
var supportedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"DELETE": true,
}

// ValidateHeaderName validates an HTTP header name.
func ValidateHeaderName(name string) error {
	if name == "" {
		return fmt.Errorf("header name cannot be empty")
	}

	if !headerNameRegex.MatchString(name) {
		return fmt.Errorf("invalid header name: %s", name)
	}

	return nil
}

// ValidatePort validates a port number.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got: %d", port)
	}
	return nil
}

// ValidateNonNegativePort validates a port number where 0 selects a free port.
func ValidateNonNegativePort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got: %d", port)
	}
	return nil
}

// ValidateDuration validates that a duration is not negative.
func ValidateDuration(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("duration cannot be negative: %v", d)
	}
	return nil
}

// ValidatePositiveDuration validates that a duration is positive.
func ValidatePositiveDuration(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("duration must be positive: %v", d)
	}
	return nil
}

// ValidateHTTPMethod validates that a method is one endpoints can be bound to.
func ValidateHTTPMethod(method string) error {
	if !supportedMethods[method] {
		return fmt.Errorf("unsupported HTTP method: %q", method)
	}
	return nil
}

// IsSupportedMethod reports whether the method is GET, POST, PUT or DELETE.
func IsSupportedMethod(method string) bool {
	return supportedMethods[method]
}

// ValidateHTTPStatusCode validates an HTTP status code.
func ValidateHTTPStatusCode(code int) error {
	if code < 100 || code > 599 {
		return fmt.Errorf("HTTP status code must be between 100 and 599, got: %d", code)
	}
	return nil
}

// ValidatePathPrefix validates a URL path prefix such as "/static".
func ValidatePathPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("path prefix cannot be empty")
	}
	if !strings.HasPrefix(prefix, "/") {
		return fmt.Errorf("path prefix must start with '/': %s", prefix)
	}
	if strings.Contains(prefix, "?") {
		return fmt.Errorf("path prefix cannot contain a query: %s", prefix)
	}
	return nil
}

// ValidateNonEmpty validates that a string value is not empty.
func ValidateNonEmpty(value, name string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	return nil
}
