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
	"errors"
	"fmt"
)

var (
	// ErrNilHandler is returned when a route is registered with a nil
	// handler.
	ErrNilHandler = errors.New("router: handler is nil")

	// ErrNilRouter is returned when Mount is called with a nil child.
	ErrNilRouter = errors.New("router: child router is nil")

	// ErrUnknownMethod is returned when a route is registered with a method
	// outside the HTTP method set (methods must be uppercase).
	ErrUnknownMethod = errors.New("router: unknown HTTP method")

	// ErrDuplicateRoute is returned when a (method, path) pair is
	// registered twice on the same router.
	ErrDuplicateRoute = errors.New("router: duplicate route")

	// ErrMountCycle is returned when mounting a router would create a
	// cycle, including mounting a router into itself.
	ErrMountCycle = errors.New("router: mount would create a cycle")
)

// PatternError describes an invalid route pattern. It is returned by
// registration and mounting when a pattern cannot be compiled.
type PatternError struct {
	Pattern string // the offending pattern
	Reason  string // what is wrong with it
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("router: invalid pattern %q: %s", e.Pattern, e.Reason)
}
