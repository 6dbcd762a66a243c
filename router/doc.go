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

// Package router provides route registration, sub-router mounting, and
// request matching for the Vessel engine.
//
// Routes bind an HTTP method and a path pattern to a handler. Patterns are
// made of literal segments and named parameters with optional type
// annotations:
//
//	r := router.MustNew()
//	r.GET("/users/{id:int}", getUser)
//	r.GET("/files/{name:path}", getFile)
//
// Parameter kinds are str (the default), int, float, uuid, and path. A path
// parameter absorbs the remaining segments and must come last. A typed
// parameter that fails to convert makes the route a non-match for that
// request, so overlapping patterns with different types can disambiguate:
//
//	r.GET("/items/{id:int}", byID)  // matches /items/42
//	r.GET("/items/{slug}", bySlug)  // matches /items/new
//
// When several routes could match, the first registered wins. Matching
// distinguishes "no route for this path" from "path exists, method does
// not", so the dispatcher can answer 405 with an Allow header.
//
// Sub-routers are attached with Mount, which composes path prefixes:
//
//	api := router.MustNew()
//	api.GET("/users", listUsers)
//	root := router.MustNew()
//	root.Mount("/api/v1", api) // serves GET /api/v1/users
//
// Registration and mounting are build-time operations. The route table
// freezes on the first Resolve call (or an explicit Freeze); after that the
// table is immutable and lookups need no synchronization. Registering a
// route on a frozen router panics.
//
// Thread safety: Resolve is safe for concurrent use once the router is
// frozen. Registration is not synchronized and belongs in single-threaded
// setup code.
package router
