package filters

import (
	"net/http"

	"github.com/vyrodovalexey/avroute/internal/router"
)

// BodyAccessDenied is the body of a 403 produced by the built-in filters.
const BodyAccessDenied = "Access Denied"

// DenyHeader rejects any request carrying the named header, whatever its
// value, with 403 Access Denied.
func DenyHeader(name string) router.Filter {
	return router.FilterFunc(func(req *router.Request, _ *router.Response, _ *router.Params) router.Outcome {
		if req.HasHeader(name) {
			return router.Abort(http.StatusForbidden, BodyAccessDenied)
		}
		return router.Continue()
	})
}

// RequireHeader rejects requests whose named header is absent or, when
// value is not empty, differs from value.
func RequireHeader(name, value string) router.Filter {
	return router.FilterFunc(func(req *router.Request, _ *router.Response, _ *router.Params) router.Outcome {
		if !req.HasHeader(name) {
			return router.Abort(http.StatusForbidden, BodyAccessDenied)
		}
		if value != "" && req.Header(name) != value {
			return router.Abort(http.StatusForbidden, BodyAccessDenied)
		}
		return router.Continue()
	})
}
