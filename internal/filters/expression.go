package filters

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
	"github.com/vyrodovalexey/avroute/internal/util"
)

// ExpressionFilter lets a request through when a CEL expression evaluates
// to true. The expression sees:
//
//	method  string
//	path    string
//	query   string
//	body    string
//	headers map(string, string), lower-case names, first value only
//	params  map(string, string)
type ExpressionFilter struct {
	expression string
	program    cel.Program
	denyStatus int
	denyBody   string
	logger     observability.Logger
}

// ExpressionOption is a functional option for an ExpressionFilter.
type ExpressionOption func(*ExpressionFilter)

// WithDenyResponse overrides the status and body used when the expression
// evaluates to false.
func WithDenyResponse(status int, body string) ExpressionOption {
	return func(f *ExpressionFilter) {
		f.denyStatus = status
		f.denyBody = body
	}
}

// WithExpressionLogger sets the logger.
func WithExpressionLogger(logger observability.Logger) ExpressionOption {
	return func(f *ExpressionFilter) {
		f.logger = logger
	}
}

// Expression compiles expr into a filter.
func Expression(expr string, opts ...ExpressionOption) (*ExpressionFilter, error) {
	env, err := newExpressionEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", issues.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) && !ast.OutputType().IsExactType(cel.DynType) {
		return nil, fmt.Errorf("expression must evaluate to bool, got %s", ast.OutputType())
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program: %w", err)
	}

	f := &ExpressionFilter{
		expression: expr,
		program:    program,
		denyStatus: http.StatusForbidden,
		denyBody:   BodyAccessDenied,
		logger:     observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

// MustExpression is like Expression but panics on a compile error.
func MustExpression(expr string, opts ...ExpressionOption) *ExpressionFilter {
	f, err := Expression(expr, opts...)
	if err != nil {
		panic(err)
	}
	return f
}

func newExpressionEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("method", cel.StringType),
		cel.Variable("path", cel.StringType),
		cel.Variable("query", cel.StringType),
		cel.Variable("body", cel.StringType),
		cel.Variable("headers", cel.MapType(cel.StringType, cel.StringType)),
		cel.Variable("params", cel.MapType(cel.StringType, cel.StringType)),
	)
}

// Apply implements router.Filter.
func (f *ExpressionFilter) Apply(req *router.Request, _ *router.Response, params *router.Params) router.Outcome {
	headers := make(map[string]string, len(req.Headers))
	for name, values := range req.Headers {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}

	out, _, err := f.program.Eval(map[string]interface{}{
		"method":  req.Method,
		"path":    req.Path,
		"query":   req.RawQuery,
		"body":    req.Body,
		"headers": headers,
		"params":  params.Map(),
	})
	if err != nil {
		f.logger.Error("filter expression evaluation failed",
			observability.String("expression", f.expression),
			observability.String("path", req.Path),
			observability.Error(err),
		)
		return router.Abort(http.StatusInternalServerError, util.BodyInternalError)
	}

	allowed, ok := out.Value().(bool)
	if !ok {
		f.logger.Error("filter expression returned a non-bool value",
			observability.String("expression", f.expression),
			observability.String("type", out.Type().TypeName()),
		)
		return router.Abort(http.StatusInternalServerError, util.BodyInternalError)
	}

	if !allowed {
		return router.Abort(f.denyStatus, f.denyBody)
	}
	return router.Continue()
}

// String returns the source expression.
func (f *ExpressionFilter) String() string {
	return f.expression
}
