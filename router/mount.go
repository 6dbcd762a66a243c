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
	"fmt"
	"strings"
)

// mount attaches a child router's routes under a path prefix.
type mount struct {
	prefix string
	child  *Router
}

// Mount attaches child's routes under the given path prefix.
//
// Prefixes compose across nesting levels: mounting B at "/api" after B
// mounted C at "/v1" serves C's routes under "/api/v1". The prefix must be
// made of literal segments; parameters belong in the routes themselves.
//
// Mounting is a build-time operation. The child's routes are read when the
// parent freezes, in mount order after the parent's own routes, so match
// priority is deterministic. Mounting a router into itself, directly or
// through intermediaries, returns ErrMountCycle.
//
// Example:
//
//	api := router.MustNew()
//	api.GET("/users", listUsers)
//
//	root := router.MustNew()
//	if err := root.Mount("/api/v1", api); err != nil {
//	    return err
//	}
func (r *Router) Mount(prefix string, child *Router) error {
	r.checkMutable()

	if child == nil {
		return ErrNilRouter
	}
	if child == r || child.reaches(r) {
		return ErrMountCycle
	}

	norm, err := normalizeMountPrefix(prefix)
	if err != nil {
		return err
	}

	r.mounts = append(r.mounts, mount{prefix: norm, child: child})
	r.logger.Debug("mounted sub-router", "prefix", norm)
	return nil
}

// reaches reports whether target is reachable through r's mount tree.
func (r *Router) reaches(target *Router) bool {
	for _, m := range r.mounts {
		if m.child == target || m.child.reaches(target) {
			return true
		}
	}
	return false
}

// normalizeMountPrefix canonicalizes a mount prefix: a leading slash, no
// trailing slash, literal segments only. The root prefix normalizes to the
// empty string so composed paths never gain a double slash.
func normalizeMountPrefix(prefix string) (string, error) {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return "", nil
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}

	cp, err := compilePattern(prefix)
	if err != nil {
		return "", err
	}
	if !cp.static {
		return "", &PatternError{Pattern: prefix, Reason: "mount prefix must be literal"}
	}
	return prefix, nil
}

// joinMountPath composes an accumulated mount prefix with a route path.
// A route registered at "/" sits at the prefix itself.
func joinMountPath(prefix, path string) string {
	if prefix == "" {
		return path
	}
	if path == "/" {
		return prefix
	}
	return prefix + path
}

// collect appends this router's routes, then each mount's routes, to out,
// with the accumulated prefix applied. Child routers are marked frozen so
// late registrations fail loudly instead of silently missing from the
// parent's table.
func (r *Router) collect(prefix string, out *[]*Route) {
	for _, rt := range r.routes {
		full := joinMountPath(prefix, rt.Path)
		if full == rt.Path {
			*out = append(*out, rt)
			continue
		}
		cp, err := compilePattern(full)
		if err != nil {
			// The prefix is literal and the route compiled at registration
			// time, so composition cannot fail.
			panic(fmt.Sprintf("router: composed pattern %q: %v", full, err))
		}
		*out = append(*out, &Route{
			Method:  rt.Method,
			Path:    full,
			Handler: rt.Handler,
			pattern: cp,
		})
	}

	for _, m := range r.mounts {
		m.child.collect(prefix+m.prefix, out)
		m.child.frozen.Store(true)
	}
}
