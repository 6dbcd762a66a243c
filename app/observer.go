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

package app

import (
	"context"

	"github.com/vessel-dev/vessel/request"
)

// Observer receives the start and end of every dispatched request. The
// metrics.Recorder and tracing.Tracer types satisfy it, so the
// observability stack wires in through WithObserver without adapters.
//
// The dispatcher calls OnRequestStart after the request is constructed and
// before the handler runs, threading the returned context into the handler
// so spans and baggage propagate. The returned state travels to
// OnRequestEnd untouched; a nil state excludes the request and
// OnRequestEnd is not called for it, though an enriched context is still
// honored.
type Observer interface {
	// OnRequestStart begins observing a request. It may derive a new
	// context (span, baggage) and return opaque per-request state.
	OnRequestStart(ctx context.Context, req *request.Request) (context.Context, any)

	// OnRequestEnd completes the observation. statusCode and responseSize
	// describe what went to the wire; route is the matched route pattern,
	// or "" when no route matched.
	OnRequestEnd(ctx context.Context, state any, statusCode int, responseSize int64, route string)
}

// observation pairs an observer with the state it returned, so only
// observers that opted in see the end of the request.
type observation struct {
	observer Observer
	state    any
}
