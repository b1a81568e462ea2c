package router

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/vyrodovalexey/avroute/internal/util"
)

// Endpoint is one registered method, pattern and handler. Its filter chain
// is resolved when the registry is frozen.
type Endpoint struct {
	Method  string
	Pattern *Pattern
	Handler Handler

	group   *Group
	filters []Filter
}

// Route returns the full pattern source, used as the route label.
func (e *Endpoint) Route() string {
	return e.Pattern.String()
}

// Filters returns the resolved filter chain, root group first.
func (e *Endpoint) Filters() []Filter {
	return e.filters
}

// StaticMount maps a URL prefix to a directory.
type StaticMount struct {
	Prefix string
	Dir    string
}

// Registry stores endpoints, groups and static mounts. It is written during
// startup and read-only once frozen.
type Registry struct {
	mu        sync.Mutex
	root      *Group
	pending   []*Endpoint
	endpoints []*Endpoint
	statics   []StaticMount
	frozen    atomic.Bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	r.root = &Group{registry: r}
	return r
}

// Root returns the root group, whose prefix is empty.
func (r *Registry) Root() *Group {
	return r.root
}

// Group opens a group under the root. See (*Group).Group.
func (r *Registry) Group(prefix string, fn func(*Group)) *Group {
	return r.root.Group(prefix, fn)
}

// Endpoint registers an endpoint on the root group.
func (r *Registry) Endpoint(method, pattern string, h Handler) *Endpoint {
	return r.root.Endpoint(method, pattern, h)
}

// HandleFunc registers a handler function on the root group.
func (r *Registry) HandleFunc(method, pattern string, fn HandlerFunc) *Endpoint {
	return r.root.HandleFunc(method, pattern, fn)
}

// Filter attaches a filter to the root group, so it guards every endpoint.
func (r *Registry) Filter(f Filter) {
	r.root.Filter(f)
}

// ServeStatic mounts dir under urlPrefix.
func (r *Registry) ServeStatic(urlPrefix, dir string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mustNotBeFrozen()

	if err := util.ValidatePathPrefix(urlPrefix); err != nil {
		panic(fmt.Sprintf("router: static mount: %v", err))
	}
	if dir == "" {
		panic("router: static mount " + urlPrefix + ": directory cannot be empty")
	}
	for _, m := range r.statics {
		if m.Prefix == urlPrefix {
			panic("router: duplicate static mount " + urlPrefix)
		}
	}

	r.statics = append(r.statics, StaticMount{Prefix: urlPrefix, Dir: dir})
}

// Freeze resolves every endpoint's filter chain and makes the registry
// read-only. Calling it again has no effect.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen.Load() {
		return
	}

	endpoints := make([]*Endpoint, 0, len(r.pending))
	for _, e := range r.pending {
		e.filters = e.group.chain()
		endpoints = append(endpoints, e)
	}
	r.endpoints = endpoints
	r.pending = nil
	r.frozen.Store(true)
}

// Frozen reports whether Freeze has been called.
func (r *Registry) Frozen() bool {
	return r.frozen.Load()
}

// Endpoints returns the endpoints in registration order. Before Freeze it
// returns nil.
func (r *Registry) Endpoints() []*Endpoint {
	if !r.frozen.Load() {
		return nil
	}
	out := make([]*Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// StaticMounts returns the static mounts in registration order.
func (r *Registry) StaticMounts() []StaticMount {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]StaticMount, len(r.statics))
	copy(out, r.statics)
	return out
}

// mustNotBeFrozen panics when registration happens after Freeze.
// Must be called with r.mu held.
func (r *Registry) mustNotBeFrozen() {
	if r.frozen.Load() {
		panic("router: registration after the registry was frozen")
	}
}

// Group is a path prefix with the filters attached to it. Nested groups
// concatenate their prefixes literally.
type Group struct {
	registry *Registry
	parent   *Group
	prefix   string
	filters  []Filter
}

// Prefix returns the accumulated prefix of the group.
func (g *Group) Prefix() string {
	return g.prefix
}

// Group opens a nested group and passes it to fn.
func (g *Group) Group(prefix string, fn func(*Group)) *Group {
	child := g.newChild(prefix)
	if fn != nil {
		fn(child)
	}
	return child
}

func (g *Group) newChild(prefix string) *Group {
	g.registry.mu.Lock()
	defer g.registry.mu.Unlock()
	g.registry.mustNotBeFrozen()
	return &Group{
		registry: g.registry,
		parent:   g,
		prefix:   g.prefix + prefix,
	}
}

// Filter attaches f to the group. It guards every endpoint registered in
// the group or any group nested in it.
func (g *Group) Filter(f Filter) {
	if f == nil {
		panic("router: nil filter")
	}
	g.registry.mu.Lock()
	defer g.registry.mu.Unlock()
	g.registry.mustNotBeFrozen()
	g.filters = append(g.filters, f)
}

// FilterFunc attaches a filter function to the group.
func (g *Group) FilterFunc(fn FilterFunc) {
	if fn == nil {
		panic("router: nil filter")
	}
	g.Filter(fn)
}

// Endpoint registers h for method on the group's prefix followed by pattern.
func (g *Group) Endpoint(method, pattern string, h Handler) *Endpoint {
	if !util.IsSupportedMethod(method) {
		panic(fmt.Sprintf("router: unsupported method %q for %s", method, g.prefix+pattern))
	}
	if h == nil {
		panic("router: nil handler for " + method + " " + g.prefix + pattern)
	}

	compiled := MustCompile(g.prefix + pattern)

	g.registry.mu.Lock()
	defer g.registry.mu.Unlock()
	g.registry.mustNotBeFrozen()

	e := &Endpoint{
		Method:  method,
		Pattern: compiled,
		Handler: h,
		group:   g,
	}
	g.registry.pending = append(g.registry.pending, e)
	return e
}

// HandleFunc registers a handler function.
func (g *Group) HandleFunc(method, pattern string, fn HandlerFunc) *Endpoint {
	if fn == nil {
		panic("router: nil handler for " + method + " " + g.prefix + pattern)
	}
	return g.Endpoint(method, pattern, fn)
}

// GET registers a GET endpoint.
func (g *Group) GET(pattern string, fn HandlerFunc) *Endpoint {
	return g.HandleFunc(http.MethodGet, pattern, fn)
}

// POST registers a POST endpoint.
func (g *Group) POST(pattern string, fn HandlerFunc) *Endpoint {
	return g.HandleFunc(http.MethodPost, pattern, fn)
}

// PUT registers a PUT endpoint.
func (g *Group) PUT(pattern string, fn HandlerFunc) *Endpoint {
	return g.HandleFunc(http.MethodPut, pattern, fn)
}

// DELETE registers a DELETE endpoint.
func (g *Group) DELETE(pattern string, fn HandlerFunc) *Endpoint {
	return g.HandleFunc(http.MethodDelete, pattern, fn)
}

// chain returns the filters of g and its ancestors, outermost first.
func (g *Group) chain() []Filter {
	var lineage []*Group
	for cur := g; cur != nil; cur = cur.parent {
		lineage = append(lineage, cur)
	}

	var out []Filter
	for i := len(lineage) - 1; i >= 0; i-- {
		out = append(out, lineage[i].filters...)
	}
	return out
}
