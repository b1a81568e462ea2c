// Package filters provides ready-made request filters for router groups.
//
//	reg.Group("/admin", func(g *router.Group) {
//	    g.Filter(filters.DenyHeader("X-Blocked"))
//	    g.Filter(filters.MustExpression(`headers["x-role"] == "admin"`))
//	    g.Filter(filters.NewRateLimiter(10, 20, filters.WithKeyHeader("X-Client-ID")))
//	})
//
// Every filter reports a rejection as router.Abort with an explicit status
// and body; none of them touch the response otherwise.
//
// NewRedisRateLimiter shares its limit across instances through Redis.
// NewAPIKey and NewJWT authenticate with bcrypt hashed keys and HS256 bearer
// tokens. NewBreaker is not a filter: it wraps a handler and answers 503
// while its circuit is open.
package filters
