// Copyright 2025 The Vessel Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/vessel-dev/vessel/request"
)

// Handler is the function invoked for a matched route. It receives the
// request context and the populated request, and returns a response intent:
// a *response.Response, a []byte, a string, any JSON-encodable value, or
// nil for 204 No Content. Returning a non-nil error produces an error
// response instead; see the errors package for deliberate status-carrying
// errors.
type Handler func(ctx context.Context, r *request.Request) (any, error)

// Route is one (method, path) → handler binding in its compiled form.
type Route struct {
	// Method is the HTTP method, uppercase.
	Method string

	// Path is the full route pattern, with mount prefixes applied.
	Path string

	// Handler is the function invoked on a match.
	Handler Handler

	pattern compiledPattern
}

// RouteInfo describes a registered route for introspection.
type RouteInfo struct {
	Method string
	Path   string
}

// noopLogger discards all records. Used when no logger is configured so
// logging calls are always safe.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// httpMethods is the set of methods accepted by route registration.
var httpMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// Router owns an ordered route table and a set of mounted children.
//
// A Router has two phases: a single-threaded build phase (registration and
// mounting) and a concurrent serve phase. The transition happens on the
// first Resolve call, which flattens the router tree into one immutable
// matching structure. Registration after that point panics.
type Router struct {
	logger *slog.Logger

	routes []*Route
	mounts []mount

	frozen     atomic.Bool
	freezeOnce sync.Once
	matcher    *matcher
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for build-phase diagnostics. Defaults to
// a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// New creates a Router.
//
// Example:
//
//	r, err := router.New()
//	if err != nil {
//	    return err
//	}
//	r.GET("/users/{id:int}", getUser)
func New(opts ...Option) (*Router, error) {
	r := &Router{logger: noopLogger}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = noopLogger
	}
	return r, nil
}

// MustNew creates a Router and panics on failure. Intended for top-level
// setup code where configuration errors are programming errors.
func MustNew(opts ...Option) *Router {
	r, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("router: %v", err))
	}
	return r
}

// AddRoute registers a handler for the given method and path pattern.
//
// The method must be an uppercase HTTP method. The pattern must compile
// (see the package documentation for the syntax). Registering the same
// (method, path) twice returns ErrDuplicateRoute; registering a different
// method on an existing path is how a path gains additional methods.
func (r *Router) AddRoute(method, path string, h Handler) error {
	r.checkMutable()

	if h == nil {
		return ErrNilHandler
	}
	if !httpMethods[method] {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	cp, err := compilePattern(path)
	if err != nil {
		return err
	}
	for _, existing := range r.routes {
		if existing.Method == method && existing.Path == path {
			return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, path)
		}
	}

	r.routes = append(r.routes, &Route{
		Method:  method,
		Path:    path,
		Handler: h,
		pattern: cp,
	})
	return nil
}

// Handle registers the handler for every listed method on one path. All
// registrations are validated before any is applied, so a failure leaves
// the router unchanged.
func (r *Router) Handle(path string, h Handler, methods ...string) error {
	r.checkMutable()

	if h == nil {
		return ErrNilHandler
	}
	cp, err := compilePattern(path)
	if err != nil {
		return err
	}
	for _, method := range methods {
		if !httpMethods[method] {
			return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
		}
		for _, existing := range r.routes {
			if existing.Method == method && existing.Path == path {
				return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, path)
			}
		}
	}

	for _, method := range methods {
		r.routes = append(r.routes, &Route{
			Method:  method,
			Path:    path,
			Handler: h,
			pattern: cp,
		})
	}
	return nil
}

// GET registers a handler for GET requests. It panics on a registration
// error; use AddRoute when errors should be handled programmatically.
func (r *Router) GET(path string, h Handler) { r.mustAdd(http.MethodGet, path, h) }

// POST registers a handler for POST requests.
func (r *Router) POST(path string, h Handler) { r.mustAdd(http.MethodPost, path, h) }

// PUT registers a handler for PUT requests.
func (r *Router) PUT(path string, h Handler) { r.mustAdd(http.MethodPut, path, h) }

// PATCH registers a handler for PATCH requests.
func (r *Router) PATCH(path string, h Handler) { r.mustAdd(http.MethodPatch, path, h) }

// DELETE registers a handler for DELETE requests.
func (r *Router) DELETE(path string, h Handler) { r.mustAdd(http.MethodDelete, path, h) }

// HEAD registers a handler for HEAD requests.
func (r *Router) HEAD(path string, h Handler) { r.mustAdd(http.MethodHead, path, h) }

// OPTIONS registers a handler for OPTIONS requests.
func (r *Router) OPTIONS(path string, h Handler) { r.mustAdd(http.MethodOptions, path, h) }

func (r *Router) mustAdd(method, path string, h Handler) {
	if err := r.AddRoute(method, path, h); err != nil {
		panic(fmt.Sprintf("router: %s %s: %v", method, path, err))
	}
}

// checkMutable panics if the router is already frozen. Registration and
// serving are mutually exclusive phases; this keeps the serve-phase read
// path lock-free.
func (r *Router) checkMutable() {
	if r.frozen.Load() {
		panic("router: cannot register routes after the router is frozen")
	}
}

// Freeze flattens the router tree into its immutable matching structure.
// Freeze is idempotent and safe for concurrent use; Resolve calls it
// automatically on first use.
//
// Mounting may compose two routes to the same (method, path); that is
// legal, and flatten order breaks the tie: the parent's own registrations
// match before any mount, mounts in mount order after that. The shadowed
// route is logged since it usually indicates a mount prefix mistake.
func (r *Router) Freeze() {
	r.freezeOnce.Do(func() {
		flat := make([]*Route, 0, len(r.routes))
		r.collect("", &flat)

		seen := make(map[string]bool, len(flat))
		for _, rt := range flat {
			key := rt.Method + " " + rt.Path
			if seen[key] {
				r.logger.Warn("mounted route shadowed by earlier registration", "route", key)
				continue
			}
			seen[key] = true
		}

		r.matcher = newMatcher(flat)
		r.frozen.Store(true)
		r.logger.Debug("route table frozen", "routes", len(flat))
	})
}

// Frozen reports whether the route table is immutable.
func (r *Router) Frozen() bool {
	return r.frozen.Load()
}

// Resolve matches a method and path against the route table, freezing the
// router on first use. The result distinguishes found, not found, and
// method-not-allowed outcomes; see MatchResult.
func (r *Router) Resolve(method, path string) MatchResult {
	r.Freeze()
	return r.matcher.match(method, path)
}

// Routes returns the flattened route table, freezing the router on first
// use. Routes appear in match-priority order: this router's registrations
// first, then each mount's routes in mount order.
func (r *Router) Routes() []RouteInfo {
	r.Freeze()
	infos := make([]RouteInfo, len(r.matcher.routes))
	for i, rt := range r.matcher.routes {
		infos[i] = RouteInfo{Method: rt.Method, Path: rt.Path}
	}
	return infos
}
