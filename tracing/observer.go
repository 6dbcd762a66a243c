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

package tracing

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vessel-dev/vessel/request"
)

// requestSpan is the per-request observer state. The method is kept so
// the span can be renamed to "METHOD route" once the matched route
// template is known at the end of the request.
type requestSpan struct {
	span   trace.Span
	method string
}

// StartRequestSpan starts a server span for the request. Trace context
// is extracted from the request headers first, so even unsampled
// requests propagate their remote parent downstream; the sampling
// decision then determines whether a recording span is created.
//
// The span is named "METHOD path" at this point; FinishRequestSpan and
// the observer rename it to the matched route.
func (t *Tracer) StartRequestSpan(ctx context.Context, req *request.Request) (context.Context, trace.Span) {
	if !t.ready() {
		return ctx, trace.SpanFromContext(ctx)
	}

	select {
	case <-ctx.Done():
		t.emitDebug("Context cancelled before span creation",
			"path", req.Path(), "method", req.Method())
		return ctx, trace.SpanFromContext(ctx)
	default:
	}

	ctx = t.ExtractTraceContext(ctx, req.Header())

	if !t.shouldSample() {
		t.emitDebug("Request not sampled",
			"path", req.Path(), "method", req.Method(), "sample_rate", t.sampleRate)
		return ctx, trace.SpanFromContext(ctx)
	}

	sb := t.spanNamePool.Get().(*strings.Builder)
	sb.Reset()
	sb.WriteString(req.Method())
	sb.WriteByte(' ')
	sb.WriteString(req.Path())
	spanName := sb.String()
	t.spanNamePool.Put(sb)

	ctx, span := t.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindServer))

	// Parse-free capacity estimate; query params are only walked when
	// they will actually be recorded.
	estimatedCap := 7 + len(t.recordHeaders)
	if t.recordParams && req.RawQuery() != "" {
		estimatedCap += 2
	}
	attrs := make([]attribute.KeyValue, 0, estimatedCap)

	url := req.Path()
	if rq := req.RawQuery(); rq != "" {
		url += "?" + rq
	}

	attrs = append(attrs,
		attribute.String("http.method", req.Method()),
		attribute.String("http.url", url),
		attribute.String("http.host", req.Header().Get("Host")),
		attribute.String("http.route", req.Path()),
		attribute.String("http.user_agent", req.Header().Get("User-Agent")),
		attribute.String("service.name", t.serviceName),
		attribute.String("service.version", t.serviceVersion),
	)

	if t.recordParams && req.RawQuery() != "" {
		for key, values := range req.QueryValues() {
			if len(values) > 0 && t.shouldRecordParam(key) {
				attrs = append(attrs, attribute.StringSlice(attrPrefixParam+key, values))
			}
		}
	}

	for i, header := range t.recordHeaders {
		if value := req.Header().Get(header); value != "" {
			attrs = append(attrs, attribute.String(attrPrefixHeader+t.recordHeadersLow[i], value))
		}
	}

	span.SetAttributes(attrs...)

	if t.spanStartHook != nil {
		t.spanStartHook(ctx, span, req)
	}

	return ctx, span
}

// FinishRequestSpan records the status code on the span, sets the span
// status from it, and ends the span. Safe to call with a nil or
// non-recording span.
func (t *Tracer) FinishRequestSpan(span trace.Span, statusCode int) {
	if !t.enabled || span == nil || !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int("http.status_code", statusCode))

	if statusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if t.spanFinishHook != nil {
		t.spanFinishHook(span, statusCode)
	}

	span.End()
}

// OnRequestStart begins the span lifecycle for a request. A nil state
// means the request is not traced (excluded path, not sampled, or the
// tracer is not running); the returned context still carries any
// extracted remote trace context.
func (t *Tracer) OnRequestStart(ctx context.Context, req *request.Request) (context.Context, any) {
	if !t.enabled || t.ShouldExcludePath(req.Path()) {
		return ctx, nil
	}

	ctx, span := t.StartRequestSpan(ctx, req)
	if span == nil || !span.IsRecording() {
		return ctx, nil
	}

	return ctx, &requestSpan{span: span, method: req.Method()}
}

// OnRequestEnd completes the span started by OnRequestStart. When the
// request matched a route, the span is renamed from the raw path to
// the route template so span names stay low-cardinality.
func (t *Tracer) OnRequestEnd(ctx context.Context, state any, statusCode int, responseSize int64, route string) {
	rs, ok := state.(*requestSpan)
	if !ok || rs == nil {
		return
	}

	span := rs.span
	if !t.enabled || span == nil || !span.IsRecording() {
		return
	}

	if route != "" {
		span.SetName(rs.method + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
	}
	if responseSize > 0 {
		span.SetAttributes(attribute.Int64("http.response_size", responseSize))
	}

	t.FinishRequestSpan(span, statusCode)
}
