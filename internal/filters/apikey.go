package filters

import (
	"errors"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
)

// API key defaults.
const (
	DefaultAPIKeyHeader = "X-API-Key"

	// BodyUnauthorized is the body of a 401 rejection.
	BodyUnauthorized = "Unauthorized"
)

// ErrNoAPIKeys is returned when an API key filter is built without keys.
var ErrNoAPIKeys = errors.New("at least one API key hash is required")

// APIKey rejects requests whose key header does not match one of a set of
// bcrypt hashes.
type APIKey struct {
	header string
	hashes [][]byte
	logger observability.Logger
}

// APIKeyOption is a functional option for the API key filter.
type APIKeyOption func(*APIKey)

// WithAPIKeyHeader sets the header the key is read from.
func WithAPIKeyHeader(name string) APIKeyOption {
	return func(a *APIKey) {
		if name != "" {
			a.header = name
		}
	}
}

// WithAPIKeyLogger sets the logger.
func WithAPIKeyLogger(logger observability.Logger) APIKeyOption {
	return func(a *APIKey) {
		a.logger = logger
	}
}

// NewAPIKey creates an API key filter accepting any key matching one of
// hashes. Every hash must be a valid bcrypt hash.
func NewAPIKey(hashes []string, opts ...APIKeyOption) (*APIKey, error) {
	if len(hashes) == 0 {
		return nil, ErrNoAPIKeys
	}

	a := &APIKey{
		header: DefaultAPIKeyHeader,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}

	for _, h := range hashes {
		if _, err := bcrypt.Cost([]byte(h)); err != nil {
			return nil, err
		}
		a.hashes = append(a.hashes, []byte(h))
	}

	return a, nil
}

// HashAPIKey returns the bcrypt hash of key for use in configuration.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Apply implements router.Filter.
func (a *APIKey) Apply(req *router.Request, _ *router.Response, _ *router.Params) router.Outcome {
	key := req.Header(a.header)
	if key == "" {
		return router.Abort(http.StatusUnauthorized, BodyUnauthorized)
	}

	for _, h := range a.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(key)) == nil {
			return router.Continue()
		}
	}

	a.logger.Warn("invalid API key",
		observability.String("path", req.Path),
		observability.String("header", a.header),
	)
	return router.Abort(http.StatusUnauthorized, BodyUnauthorized)
}
