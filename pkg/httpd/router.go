package httpd

import (
	"fmt"
	"os"
	"time"

	"github.com/fluxorio/poolserve/pkg/config"
)

// Route is a canned response: a status line, a preloaded body, and an
// optional artificial delay before writing (the /sleep route).
type Route struct {
	Status string
	Body   []byte
	Delay  time.Duration
}

// Router maps request paths to canned responses. The table is explicit and
// passed in, never inlined into the handler, so the handler stays testable
// independent of the pool and the listener. Lookups are read-only after
// construction and need no locking.
type Router struct {
	routes   map[string]Route
	notFound Route
}

// NewRouter creates a Router from an explicit route table and a fallback
// response for unknown paths.
func NewRouter(routes map[string]Route, notFound Route) *Router {
	table := make(map[string]Route, len(routes))
	for path, route := range routes {
		table[path] = route
	}
	return &Router{
		routes:   table,
		notFound: notFound,
	}
}

// NewRouterFromConfig builds a Router from configuration, loading each
// route's body file into memory. A missing or unreadable file fails
// construction rather than surfacing per-request.
func NewRouterFromConfig(cfg *config.Config) (*Router, error) {
	routes := make(map[string]Route, len(cfg.Routes))
	for path, rc := range cfg.Routes {
		route, err := loadRoute(rc)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", path, err)
		}
		routes[path] = route
	}
	notFound, err := loadRoute(cfg.NotFound)
	if err != nil {
		return nil, fmt.Errorf("not_found route: %w", err)
	}
	return NewRouter(routes, notFound), nil
}

func loadRoute(rc config.RouteConfig) (Route, error) {
	body, err := os.ReadFile(rc.File)
	if err != nil {
		return Route{}, fmt.Errorf("read body file: %w", err)
	}
	return Route{
		Status: rc.Status,
		Body:   body,
		Delay:  time.Duration(rc.DelayMS) * time.Millisecond,
	}, nil
}

// Resolve returns the route for path, or the not-found fallback.
func (r *Router) Resolve(path string) Route {
	if route, ok := r.routes[path]; ok {
		return route
	}
	return r.notFound
}

// NotFound returns the fallback route.
func (r *Router) NotFound() Route {
	return r.notFound
}
