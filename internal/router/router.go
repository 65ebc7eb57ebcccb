// Package router implements the HTTP dispatch engine used by the service.
// Routes are matched segment by segment against the raw request target,
// :name segments act as wildcards, and registration order decides which
// route wins when several could match.
package router

import (
	"fmt"
	"net/http"
	"strings"
)

// Next resumes the remainder of the current handler chain. A handler that
// neither sends a response nor calls next halts the chain.
type Next func()

// HandlerFunc handles one step of a chain. Middlewares call next to pass
// control on; terminal handlers usually just send a response.
type HandlerFunc func(c *Ctx, next Next)

type endpoint struct {
	method   string
	handlers []HandlerFunc
}

type route struct {
	path      string
	endpoints []endpoint
}

// Router dispatches requests to registered routes and child routers.
// Middlewares given to New run before any matching; middlewares given to
// SubRouter run once a path inside that child matches, before the method
// is checked.
type Router struct {
	prefix      string
	middlewares []HandlerFunc
	scoped      []HandlerFunc
	routes      []*route
	children    []*Router
}

// New creates a root router. A non-empty prefix must be a valid path and
// is prepended to every route registered on it. Middlewares run for every
// request dispatched through this router, before route matching.
func New(prefix string, middlewares ...HandlerFunc) *Router {
	if prefix != "" {
		checkPath(prefix)
	}
	return &Router{prefix: prefix, middlewares: middlewares}
}

// SubRouter creates a child router mounted under prefix. The given
// middlewares run whenever a path registered inside the child matches.
// Children are consulted in creation order, after this router's own routes.
func (r *Router) SubRouter(prefix string, middlewares ...HandlerFunc) *Router {
	checkPath(prefix)
	child := &Router{prefix: r.prefix + prefix, scoped: middlewares}
	r.children = append(r.children, child)
	return child
}

func (r *Router) Get(path string, handlers ...HandlerFunc) {
	r.register(http.MethodGet, path, handlers)
}

func (r *Router) Post(path string, handlers ...HandlerFunc) {
	r.register(http.MethodPost, path, handlers)
}

func (r *Router) Put(path string, handlers ...HandlerFunc) {
	r.register(http.MethodPut, path, handlers)
}

func (r *Router) Patch(path string, handlers ...HandlerFunc) {
	r.register(http.MethodPatch, path, handlers)
}

func (r *Router) Delete(path string, handlers ...HandlerFunc) {
	r.register(http.MethodDelete, path, handlers)
}

// register panics on malformed paths so wiring mistakes surface at
// construction, not per request. Registering another method on an already
// known path appends to that path's endpoint list.
func (r *Router) register(method, path string, handlers []HandlerFunc) {
	checkPath(path)
	full := r.prefix + path
	for _, rt := range r.routes {
		if rt.path == full {
			rt.endpoints = append(rt.endpoints, endpoint{method: method, handlers: handlers})
			return
		}
	}
	r.routes = append(r.routes, &route{
		path:      full,
		endpoints: []endpoint{{method: method, handlers: handlers}},
	})
}

func checkPath(path string) {
	if !strings.HasPrefix(path, "/") {
		panic(fmt.Sprintf("router: path %q must start with '/'", path))
	}
	if strings.HasSuffix(path, "/") {
		panic(fmt.Sprintf("router: path %q must not end with '/'", path))
	}
	if strings.Contains(path, "?") {
		panic(fmt.Sprintf("router: path %q must not contain a query string", path))
	}
}

// ServeHTTP dispatches the request through this router tree and falls back
// to a 404 envelope when nothing handled it.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	c := newCtx(w, req)
	if !r.dispatch(c) && !c.sent {
		c.SendError(http.StatusNotFound, "route not found")
	}
}

// dispatch reports whether the request was handled. Order: this router's
// own middlewares, then routes in registration order, then children.
// The first structural path match claims the request even when the method
// does not fit, which yields the 405.
func (r *Router) dispatch(c *Ctx) bool {
	if len(r.middlewares) > 0 {
		execChain(c, r.middlewares)
		if c.sent {
			return true
		}
	}
	for _, rt := range r.routes {
		params, query, ok := matchTarget(rt.path, c.target)
		if !ok {
			continue
		}
		c.params, c.query = params, query
		if len(r.scoped) > 0 {
			execChain(c, r.scoped)
			if c.sent {
				return true
			}
		}
		for _, ep := range rt.endpoints {
			if ep.method == c.Request.Method {
				execChain(c, ep.handlers)
				return true
			}
		}
		c.SendError(http.StatusMethodNotAllowed, "method not allowed")
		return true
	}
	for _, child := range r.children {
		if child.dispatch(c) {
			return true
		}
	}
	return false
}

// execChain runs handlers as a continuation chain. next is a no-op once
// the chain is exhausted or a response was sent.
func execChain(c *Ctx, handlers []HandlerFunc) {
	i := 0
	var next Next
	next = func() {
		if i >= len(handlers) || c.sent {
			return
		}
		h := handlers[i]
		i++
		h(c, next)
	}
	next()
}

// matchTarget matches the raw request target (path plus optional ?query)
// against a route path. Segment counts must be equal, :name segments match
// anything and bind a param, and the final target segment is compared with
// its query stripped.
func matchTarget(routePath, target string) (params, query map[string]string, ok bool) {
	routeSegs := strings.Split(strings.TrimPrefix(routePath, "/"), "/")
	targetSegs := strings.Split(strings.TrimPrefix(target, "/"), "/")
	if len(routeSegs) != len(targetSegs) {
		return nil, nil, false
	}

	params = map[string]string{}
	var rawQuery string
	last := len(targetSegs) - 1
	for i, rs := range routeSegs {
		ts := targetSegs[i]
		if i == last {
			ts, rawQuery, _ = strings.Cut(ts, "?")
		}
		if strings.HasPrefix(rs, ":") {
			params[rs[1:]] = ts
			continue
		}
		if rs != ts {
			return nil, nil, false
		}
	}
	return params, parseQuery(rawQuery), true
}

// parseQuery splits &-separated key=value pairs, dropping any pair with an
// empty key or value.
func parseQuery(rawQuery string) map[string]string {
	query := map[string]string{}
	if rawQuery == "" {
		return query
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" || value == "" {
			continue
		}
		query[key] = value
	}
	return query
}
