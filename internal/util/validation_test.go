package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidateHeaderName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		header  string
		wantErr bool
	}{
		{"simple", "sucks", false},
		{"canonical", "X-Request-ID", false},
		{"empty", "", true},
		{"space", "X Header", true},
		{"colon", "X:Header", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateHeaderName(tt.header)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateHTTPMethod(t *testing.T) {
	t.Parallel()

	for _, m := range []string{"GET", "POST", "PUT", "DELETE"} {
		assert.NoError(t, ValidateHTTPMethod(m), m)
		assert.True(t, IsSupportedMethod(m), m)
	}

	for _, m := range []string{"PATCH", "HEAD", "OPTIONS", "get", "", "*"} {
		assert.Error(t, ValidateHTTPMethod(m), m)
		assert.False(t, IsSupportedMethod(m), m)
	}
}

func TestValidatePorts(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePort(8080))
	assert.Error(t, ValidatePort(0))
	assert.Error(t, ValidatePort(70000))

	assert.NoError(t, ValidateNonNegativePort(0))
	assert.NoError(t, ValidateNonNegativePort(65535))
	assert.Error(t, ValidateNonNegativePort(-1))
}

func TestValidateDurations(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateDuration(0))
	assert.Error(t, ValidateDuration(-time.Second))
	assert.NoError(t, ValidatePositiveDuration(time.Second))
	assert.Error(t, ValidatePositiveDuration(0))
}

func TestValidateHTTPStatusCode(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateHTTPStatusCode(403))
	assert.Error(t, ValidateHTTPStatusCode(99))
	assert.Error(t, ValidateHTTPStatusCode(600))
}

func TestValidatePathPrefix(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidatePathPrefix("/static"))
	assert.NoError(t, ValidatePathPrefix("/"))
	assert.Error(t, ValidatePathPrefix(""))
	assert.Error(t, ValidatePathPrefix("static"))
	assert.Error(t, ValidatePathPrefix("/static?x=1"))
}

func TestValidateNonEmpty(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateNonEmpty("x", "name"))
	assert.EqualError(t, ValidateNonEmpty("  ", "name"), "name cannot be empty")
}
