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
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// paramKind is the type annotation of a pattern parameter. The kind decides
// whether a path segment is an acceptable value for the parameter during
// matching; conversion failure makes the route a non-match, never an error.
type paramKind uint8

const (
	kindString paramKind = iota // any single segment (default)
	kindInt                     // base-10 integer segment
	kindFloat                   // floating-point segment
	kindUUID                    // RFC 4122 UUID segment
	kindPath                    // trailing remainder, may span segments
)

// paramKinds maps the annotation names accepted in patterns.
var paramKinds = map[string]paramKind{
	"str":   kindString,
	"int":   kindInt,
	"float": kindFloat,
	"uuid":  kindUUID,
	"path":  kindPath,
}

func (k paramKind) String() string {
	switch k {
	case kindInt:
		return "int"
	case kindFloat:
		return "float"
	case kindUUID:
		return "uuid"
	case kindPath:
		return "path"
	default:
		return "str"
	}
}

// accepts reports whether value converts to the kind.
func (k paramKind) accepts(value string) bool {
	switch k {
	case kindInt:
		_, err := strconv.ParseInt(value, 10, 64)
		return err == nil
	case kindFloat:
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	case kindUUID:
		_, err := uuid.Parse(value)
		return err == nil
	default:
		return true
	}
}

// segment is one compiled element of a pattern: either a literal or a named
// parameter.
type segment struct {
	literal string
	name    string
	kind    paramKind
	param   bool
}

// compiledPattern is the matchable form of a route pattern.
type compiledPattern struct {
	raw      string
	segments []segment
	nparams  int
	static   bool // no parameters, matchable by string equality
	trailing bool // last segment is a path-remainder parameter
}

// compilePattern parses a route pattern into its segment list.
//
// Grammar: patterns start with "/" and consist of "/"-separated segments.
// A segment is either a literal or "{name}" / "{name:kind}" where kind is
// one of str, int, float, uuid, path. A path parameter must be the final
// segment. Parameter names must be unique within a pattern.
func compilePattern(pattern string) (compiledPattern, error) {
	if pattern == "" {
		return compiledPattern{}, &PatternError{Pattern: pattern, Reason: "pattern is empty"}
	}
	if pattern[0] != '/' {
		return compiledPattern{}, &PatternError{Pattern: pattern, Reason: "pattern must start with /"}
	}

	cp := compiledPattern{raw: pattern, static: true}
	if pattern == "/" {
		return cp, nil
	}

	parts := strings.Split(pattern[1:], "/")
	cp.segments = make([]segment, 0, len(parts))
	seen := make(map[string]bool, 2)

	for i, part := range parts {
		if !strings.HasPrefix(part, "{") {
			if strings.ContainsAny(part, "{}") {
				return compiledPattern{}, &PatternError{
					Pattern: pattern,
					Reason:  "parameters must span a whole segment",
				}
			}
			cp.segments = append(cp.segments, segment{literal: part})
			continue
		}

		if !strings.HasSuffix(part, "}") {
			return compiledPattern{}, &PatternError{Pattern: pattern, Reason: "unclosed parameter"}
		}

		name := part[1 : len(part)-1]
		kind := kindString
		if colon := strings.IndexByte(name, ':'); colon >= 0 {
			kindName := name[colon+1:]
			name = name[:colon]
			k, ok := paramKinds[kindName]
			if !ok {
				return compiledPattern{}, &PatternError{
					Pattern: pattern,
					Reason:  "unknown parameter kind " + strconv.Quote(kindName),
				}
			}
			kind = k
		}
		if name == "" {
			return compiledPattern{}, &PatternError{Pattern: pattern, Reason: "parameter has no name"}
		}
		if strings.ContainsAny(name, "{}/") {
			return compiledPattern{}, &PatternError{
				Pattern: pattern,
				Reason:  "invalid parameter name " + strconv.Quote(name),
			}
		}
		if seen[name] {
			return compiledPattern{}, &PatternError{
				Pattern: pattern,
				Reason:  "duplicate parameter name " + strconv.Quote(name),
			}
		}
		seen[name] = true

		if kind == kindPath && i != len(parts)-1 {
			return compiledPattern{}, &PatternError{
				Pattern: pattern,
				Reason:  "path parameter must be the final segment",
			}
		}

		cp.segments = append(cp.segments, segment{name: name, kind: kind, param: true})
		cp.nparams++
		cp.static = false
		if kind == kindPath {
			cp.trailing = true
		}
	}

	return cp, nil
}

// splitPath splits a request path into segments. The root path has zero
// segments; a trailing slash produces a final empty segment, so "/users"
// and "/users/" are distinct paths.
func splitPath(path string) []string {
	if path == "" || path == "/" {
		return nil
	}
	if path[0] == '/' {
		path = path[1:]
	}
	return strings.Split(path, "/")
}

// match attempts to bind the path segments to the pattern. On success it
// returns the extracted parameter values in a freshly allocated map, nil
// when the pattern has no parameters.
func (cp *compiledPattern) match(segs []string) (map[string]string, bool) {
	n := len(cp.segments)
	if cp.trailing {
		// Everything before the remainder must be present.
		if len(segs) < n-1 {
			return nil, false
		}
	} else if len(segs) != n {
		return nil, false
	}

	var params map[string]string
	for i, s := range cp.segments {
		if s.kind == kindPath {
			if params == nil {
				params = make(map[string]string, cp.nparams)
			}
			params[s.name] = strings.Join(segs[i:], "/")
			return params, true
		}
		if !s.param {
			if segs[i] != s.literal {
				return nil, false
			}
			continue
		}
		if !s.kind.accepts(segs[i]) {
			return nil, false
		}
		if params == nil {
			params = make(map[string]string, cp.nparams)
		}
		params[s.name] = segs[i]
	}
	return params, true
}
