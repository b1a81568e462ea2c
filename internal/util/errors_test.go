package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		field          string
		message        string
		cause          error
		expectedString string
	}{
		{
			name:           "with field",
			field:          "server.port",
			message:        "port out of range",
			expectedString: "config error at server.port: port out of range",
		},
		{
			name:           "without field",
			message:        "invalid configuration",
			expectedString: "config error: invalid configuration",
		},
		{
			name:           "with cause",
			field:          "static.mounts[0].dir",
			message:        "invalid directory",
			cause:          errors.New("does not exist"),
			expectedString: "config error at static.mounts[0].dir: invalid directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var err *ConfigError
			if tt.cause != nil {
				err = NewConfigErrorWithCause(tt.field, tt.message, tt.cause)
			} else {
				err = NewConfigError(tt.field, tt.message)
			}

			assert.Equal(t, tt.expectedString, err.Error())
			assert.Equal(t, tt.cause, err.Unwrap())
			assert.ErrorIs(t, err, ErrConfigInvalid)
		})
	}
}

func TestDispatchErrors_Is(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"route not found", NewRouteNotFoundError("GET", "/x"), ErrNotFound},
		{"method not allowed", NewMethodNotAllowedError("DELETE", "/x"), ErrMethodNotAllowed},
		{"filter rejected", NewFilterRejectedError("/foo/bar", 403, "Access Denied"), ErrFilterRejected},
		{"handler failure", NewHandlerFailureError("/x", errors.New("boom")), ErrHandlerFailure},
		{"handler panic", NewHandlerPanicError("/x", "boom"), ErrHandlerFailure},
		{"static file", NewStaticFileNotFoundError("/static/a", "missing", nil), ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.ErrorIs(t, tt.err, tt.sentinel)
			assert.ErrorIs(t, fmt.Errorf("wrapped: %w", tt.err), tt.sentinel)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestHandlerFailureError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("database down")
	err := NewHandlerFailureError("/users/(\\w+)", cause)

	assert.ErrorIs(t, err, cause)
	assert.False(t, err.Panicked)
	assert.Contains(t, err.Error(), "failed")

	panicErr := NewHandlerPanicError("/users/(\\w+)", cause)
	assert.True(t, panicErr.Panicked)
	assert.ErrorIs(t, panicErr, cause)
	assert.Contains(t, panicErr.Error(), "panicked")

	stringPanic := NewHandlerPanicError("/x", "plain string")
	require.Error(t, stringPanic.Cause)
	assert.Equal(t, "plain string", stringPanic.Cause.Error())
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"nil", nil, http.StatusOK, ""},
		{"not found", NewRouteNotFoundError("GET", "/x"), http.StatusNotFound, BodyNotFound},
		{"method not allowed", NewMethodNotAllowedError("DELETE", "/x"), http.StatusMethodNotAllowed, BodyMethodNotAllowed},
		{"filter", NewFilterRejectedError("/x", http.StatusForbidden, "Access Denied"), http.StatusForbidden, "Access Denied"},
		{"handler", NewHandlerFailureError("/x", errors.New("boom")), http.StatusInternalServerError, BodyInternalError},
		{"static", NewStaticFileNotFoundError("/s/../x", "outside base directory", nil), http.StatusNotFound, BodyFileNotFound},
		{"wrapped static", fmt.Errorf("serve: %w", NewStaticFileNotFoundError("/s/x", "missing", nil)), http.StatusNotFound, BodyFileNotFound},
		{"unknown", errors.New("something else"), http.StatusInternalServerError, BodyInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, body := StatusFor(tt.err)
			assert.Equal(t, tt.expectedStatus, status)
			assert.Equal(t, tt.expectedBody, body)
		})
	}
}

func TestIsClientAndServerError(t *testing.T) {
	t.Parallel()

	assert.False(t, IsClientError(nil))
	assert.False(t, IsServerError(nil))

	assert.True(t, IsClientError(NewRouteNotFoundError("GET", "/")))
	assert.True(t, IsClientError(NewFilterRejectedError("/", 429, "Too Many Requests")))
	assert.False(t, IsClientError(NewHandlerFailureError("/", errors.New("x"))))

	assert.True(t, IsServerError(NewHandlerFailureError("/", errors.New("x"))))
	assert.False(t, IsServerError(NewMethodNotAllowedError("PUT", "/")))
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, WrapError(nil, "context"))

	err := WrapError(ErrNotFound, "lookup")
	assert.EqualError(t, err, "lookup: not found")
	assert.ErrorIs(t, err, ErrNotFound)
}
