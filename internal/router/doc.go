// Package router provides route registration and matching primitives.
//
// Endpoints are registered under nested groups whose prefixes concatenate
// literally with the endpoint pattern. The combined pattern is a regular
// expression anchored to the whole path; its capture groups become
// positional parameters "1", "2", ... followed by query parameters in
// order of appearance.
//
// # Usage
//
//	reg := router.NewRegistry()
//	reg.Root().GET(`/users/(\w+)`, func(req *router.Request, res *router.Response, p *router.Params) error {
//	    _, err := res.WriteString("User profile: " + p.Get("1"))
//	    return err
//	})
//	reg.Group("/admin", func(g *router.Group) {
//	    g.Filter(guard)
//	    g.GET("/stats", stats)
//	})
//	reg.Freeze()
//
// Filters attached to a group guard every endpoint in it and in its nested
// groups; the chain runs from the outermost group inwards. The registry is
// write-once: registration after Freeze panics.
package router
