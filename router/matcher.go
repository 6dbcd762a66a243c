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

import "sort"

// MatchCode classifies the outcome of a route lookup.
type MatchCode uint8

const (
	// MatchNotFound means no registered pattern matched the path.
	MatchNotFound MatchCode = iota

	// MatchFound means a route matched both the path and the method.
	MatchFound

	// MatchMethodNotAllowed means at least one pattern matched the path,
	// but none for the requested method.
	MatchMethodNotAllowed
)

// MatchResult is the outcome of resolving (method, path) against the route
// table.
type MatchResult struct {
	// Code classifies the outcome.
	Code MatchCode

	// Route is the matched route. Nil unless Code is MatchFound.
	Route *Route

	// Params holds the extracted path parameters. Nil when the pattern has
	// none.
	Params map[string]string

	// Allow lists the methods that would have matched the path, sorted.
	// Populated only when Code is MatchMethodNotAllowed.
	Allow []string
}

// matcher is the immutable matching structure built when a router freezes.
// Routes are scanned in registration order so the first registered route
// wins ties; a static table short-circuits full-literal patterns the
// ordered scan would pick anyway.
type matcher struct {
	routes []*Route
	static map[string]map[string]*Route // path → method → route
}

func newMatcher(routes []*Route) *matcher {
	m := &matcher{
		routes: routes,
		static: make(map[string]map[string]*Route),
	}
	for _, rt := range routes {
		if !rt.pattern.static {
			continue
		}
		// Registration order is the only priority rule, even against
		// literals: a route enters the static table only when the ordered
		// scan agrees, so an earlier parameterized route keeps shadowing it.
		if m.scanWinner(rt.Method, splitPath(rt.Path)) != rt {
			continue
		}
		byMethod := m.static[rt.Path]
		if byMethod == nil {
			byMethod = make(map[string]*Route, 1)
			m.static[rt.Path] = byMethod
		}
		byMethod[rt.Method] = rt
	}
	return m
}

// scanWinner returns the route the ordered scan picks for the given method
// and path segments, without extracting parameters.
func (m *matcher) scanWinner(method string, segs []string) *Route {
	for _, rt := range m.routes {
		if rt.Method != method {
			continue
		}
		if _, ok := rt.pattern.match(segs); ok {
			return rt
		}
	}
	return nil
}

// match resolves a method and path against the route table.
func (m *matcher) match(method, path string) MatchResult {
	if path == "" {
		path = "/"
	}

	// Static fast path. Only taken on a full hit: a miss still has to run
	// the ordered scan so parameterized routes and Allow collection see
	// every candidate.
	if byMethod, ok := m.static[path]; ok {
		if rt, ok := byMethod[method]; ok {
			return MatchResult{Code: MatchFound, Route: rt}
		}
	}

	segs := splitPath(path)
	var allowed map[string]bool

	for _, rt := range m.routes {
		params, ok := rt.pattern.match(segs)
		if !ok {
			continue
		}
		if rt.Method == method {
			return MatchResult{Code: MatchFound, Route: rt, Params: params}
		}
		if allowed == nil {
			allowed = make(map[string]bool, 2)
		}
		allowed[rt.Method] = true
	}

	if len(allowed) > 0 {
		allow := make([]string, 0, len(allowed))
		for method := range allowed {
			allow = append(allow, method)
		}
		sort.Strings(allow)
		return MatchResult{Code: MatchMethodNotAllowed, Allow: allow}
	}
	return MatchResult{Code: MatchNotFound}
}
