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

package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/vessel-dev/vessel/request"
)

// attrPrefixHeader prefixes recorded request header attributes.
const attrPrefixHeader = "http.request.header."

// OnRequestStart begins the sample for a dispatched request. It
// satisfies the app package's observer contract, so a Recorder can be
// passed to app.WithObserver directly.
//
// The returned state is a *RequestMetrics, or nil when the path is
// excluded or the Recorder is disabled; a nil state tells the
// dispatcher to skip OnRequestEnd.
func (r *Recorder) OnRequestStart(ctx context.Context, req *request.Request) (context.Context, any) {
	if r.ShouldExcludePath(req.Path()) {
		return ctx, nil
	}

	m := r.BeginRequest(ctx)
	if m == nil {
		return ctx, nil
	}

	m.AddAttributes(attribute.String("http.method", req.Method()))

	if ua := req.Header().Get("User-Agent"); ua != "" {
		m.AddAttributes(attribute.String("http.user_agent", ua))
	}

	for i, name := range r.recordHeaders {
		if v := req.Header().Get(name); v != "" {
			m.AddAttributes(attribute.String(attrPrefixHeader+r.recordHeadersLow[i], v))
		}
	}

	if size := req.ContentLength(); size > 0 {
		r.RecordRequestSize(ctx, m, size)
	}

	return ctx, m
}

// OnRequestEnd completes the sample started by OnRequestStart. The
// route is the matched pattern, not the concrete path.
func (r *Recorder) OnRequestEnd(ctx context.Context, state any, statusCode int, responseSize int64, route string) {
	m, ok := state.(*RequestMetrics)
	if !ok {
		return
	}

	r.Finish(ctx, m, statusCode, responseSize, route)
}
