package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/vyrodovalexey/avroute/internal/config"
	"github.com/vyrodovalexey/avroute/internal/filters"
	"github.com/vyrodovalexey/avroute/internal/observability"
	"github.com/vyrodovalexey/avroute/internal/router"
)

// adminExpression admits requests that declare the admin role.
const adminExpression = `"x-role" in headers && headers["x-role"] == "admin"`

// errUnstableWork is returned by the unstable handler when asked to fail.
var errUnstableWork = errors.New("work failed")

// unstableWork fails when the fail query parameter is true.
func unstableWork(_ *router.Request, res *router.Response, p *router.Params) error {
	if p.Get("fail") == "true" {
		return errUnstableWork
	}
	_, err := res.WriteString("work done")
	return err
}

// registerRoutes installs the demo application and the configured static
// mounts on reg.
func registerRoutes(
	reg *router.Registry,
	cfg *config.Config,
	rf routeFilters,
	logger observability.Logger,
) error {
	root := reg.Root()

	root.GET(`/users/(\w+)`, func(_ *router.Request, res *router.Response, p *router.Params) error {
		_, err := res.WriteString("User profile: " + p.Get("1"))
		return err
	})
	root.POST("/echo", func(req *router.Request, res *router.Response, _ *router.Params) error {
		res.SetStatus(http.StatusCreated)
		_, err := res.WriteString("You sent: " + req.Body)
		return err
	})
	root.PUT("/update", func(req *router.Request, res *router.Response, _ *router.Params) error {
		_, err := res.WriteString("Updated data: " + req.Body)
		return err
	})

	reg.Group("/api", func(g *router.Group) {
		g.GET(`/test/(\w+)`, func(_ *router.Request, res *router.Response, p *router.Params) error {
			_, err := res.WriteString("Parameter: " + p.Get("1"))
			return err
		})
	})
	reg.Group("/api2", func(g *router.Group) {
		g.GET(`/test/(\w+)?(.*)`, func(_ *router.Request, res *router.Response, p *router.Params) error {
			_, err := res.WriteString(p.String())
			return err
		})
	})
	reg.Group("/foo", func(g *router.Group) {
		g.Filter(filters.DenyHeader("sucks"))
		g.GET("/bar", func(_ *router.Request, res *router.Response, _ *router.Params) error {
			_, err := res.WriteString("bar")
			return err
		})
	})

	admin, err := filters.Expression(adminExpression, filters.WithExpressionLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to build admin filter: %w", err)
	}
	reg.Group("/admin", func(g *router.Group) {
		g.Filter(admin)
		g.GET("/routes", func(_ *router.Request, res *router.Response, _ *router.Params) error {
			_, err := res.WriteString(strconv.Itoa(len(reg.Endpoints())) + " endpoints")
			return err
		})
	})

	reg.Group("/limited", func(g *router.Group) {
		g.Filter(rf.rateLimit)
		g.GET("/ping", func(_ *router.Request, res *router.Response, _ *router.Params) error {
			_, err := res.WriteString("pong")
			return err
		})
	})

	reg.Group("/unstable", func(g *router.Group) {
		work := filters.NewBreaker("unstable-work", router.HandlerFunc(unstableWork), rf.breaker...)
		g.Endpoint(http.MethodGet, "/work", work)
	})

	if rf.apiKey != nil {
		reg.Group("/secure", func(g *router.Group) {
			g.Filter(rf.apiKey)
			g.GET("/whoami", func(_ *router.Request, res *router.Response, _ *router.Params) error {
				_, err := res.WriteString("authorized")
				return err
			})
		})
	}

	if rf.jwt != nil {
		reg.Group("/me", func(g *router.Group) {
			g.Filter(rf.jwt)
			g.GET("/profile", func(_ *router.Request, res *router.Response, p *router.Params) error {
				_, err := res.WriteString("Hello, " + p.Get(filters.SubjectParam))
				return err
			})
		})
	}

	for _, m := range cfg.Static.Mounts {
		reg.ServeStatic(m.Prefix, m.Dir)
	}

	return nil
}
