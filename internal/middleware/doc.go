// Package middleware provides net/http middleware wrapped around the
// transport.
//
// The transport stacks them as:
//
//	handler := middleware.Recovery(logger)(
//	    middleware.RequestID()(
//	        middleware.Logging(logger)(
//	            middleware.SecurityHeaders(headers)(
//	                middleware.BodyLimit(maxSize, logger)(engine),
//	            ),
//	        ),
//	    ),
//	)
//
// Chain builds the same stack from a list, outermost first.
package middleware
