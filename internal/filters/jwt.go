package filters

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
)

// JWT defaults.
const (
	// SubjectParam is the param the JWT filter stores the token subject in.
	SubjectParam = "jwt.sub"

	// DefaultJWTClockSkew is the tolerated clock skew for exp and nbf.
	DefaultJWTClockSkew = 30 * time.Second

	bearerPrefix = "bearer "
)

// ErrEmptyJWTSecret is returned when a JWT filter is built without a secret.
var ErrEmptyJWTSecret = errors.New("jwt secret is required")

// JWT admits requests carrying a valid HS256 bearer token in the
// Authorization header. The token subject is exposed to the handler as the
// jwt.sub param.
type JWT struct {
	secret   []byte
	issuer   string
	audience string
	skew     time.Duration
	logger   observability.Logger
	now      func() time.Time
}

// JWTOption is a functional option for the JWT filter.
type JWTOption func(*JWT)

// WithJWTIssuer requires the iss claim to equal issuer.
func WithJWTIssuer(issuer string) JWTOption {
	return func(j *JWT) {
		j.issuer = issuer
	}
}

// WithJWTAudience requires the aud claim to contain audience.
func WithJWTAudience(audience string) JWTOption {
	return func(j *JWT) {
		j.audience = audience
	}
}

// WithJWTLogger sets the logger.
func WithJWTLogger(logger observability.Logger) JWTOption {
	return func(j *JWT) {
		j.logger = logger
	}
}

// NewJWT creates a JWT filter verifying HS256 signatures with secret.
func NewJWT(secret string, opts ...JWTOption) (*JWT, error) {
	if secret == "" {
		return nil, ErrEmptyJWTSecret
	}

	j := &JWT{
		secret: []byte(secret),
		skew:   DefaultJWTClockSkew,
		logger: observability.NopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j, nil
}

// Validate parses and verifies token and returns its claims.
func (j *JWT) Validate(token string) (jwt.Token, error) {
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, j.secret),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(j.skew),
		jwt.WithClock(jwt.ClockFunc(j.now)),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}
	if j.audience != "" {
		opts = append(opts, jwt.WithAudience(j.audience))
	}
	return jwt.Parse([]byte(token), opts...)
}

// Apply implements router.Filter.
func (j *JWT) Apply(req *router.Request, _ *router.Response, params *router.Params) router.Outcome {
	auth := req.Header("Authorization")
	if len(auth) <= len(bearerPrefix) || !strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
		return router.Abort(http.StatusUnauthorized, BodyUnauthorized)
	}

	token, err := j.Validate(strings.TrimSpace(auth[len(bearerPrefix):]))
	if err != nil {
		j.logger.Warn("jwt validation failed",
			observability.String("path", req.Path),
			observability.Error(err),
		)
		return router.Abort(http.StatusUnauthorized, BodyUnauthorized)
	}

	if sub := token.Subject(); sub != "" {
		params.Set(SubjectParam, sub)
	}
	return router.Continue()
}
