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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vessel-dev/vessel/logging"
	"github.com/vessel-dev/vessel/metrics"
	"github.com/vessel-dev/vessel/request"
	"github.com/vessel-dev/vessel/tracing"
)

// The observability packages plug in without adapters.
var (
	_ Observer = (*metrics.Recorder)(nil)
	_ Observer = (*tracing.Tracer)(nil)
)

type ctxKey string

// recordingObserver captures the observer lifecycle for assertions.
type recordingObserver struct {
	state      any
	starts     int
	ends       int
	endStatus  int
	endSize    int64
	endRoute   string
	endState   any
	enrichWith ctxKey
}

func (o *recordingObserver) OnRequestStart(ctx context.Context, req *request.Request) (context.Context, any) {
	o.starts++
	if o.enrichWith != "" {
		ctx = context.WithValue(ctx, o.enrichWith, "enriched")
	}

	return ctx, o.state
}

func (o *recordingObserver) OnRequestEnd(ctx context.Context, state any, statusCode int, responseSize int64, route string) {
	o.ends++
	o.endState = state
	o.endStatus = statusCode
	o.endSize = responseSize
	o.endRoute = route
}

func TestApp_ObserverSeesRequestOutcome(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{state: "req-state"}
	a := newTestApp(t, WithObserver(obs))
	a.GET("/users/{id}", func(ctx context.Context, r *request.Request) (any, error) {
		return "abcdef", nil
	})

	a.Test("GET", "/users/42")

	assert.Equal(t, 1, obs.starts)
	assert.Equal(t, 1, obs.ends)
	assert.Equal(t, "req-state", obs.endState)
	assert.Equal(t, http.StatusOK, obs.endStatus)
	assert.Equal(t, int64(6), obs.endSize)
	assert.Equal(t, "/users/{id}", obs.endRoute)
}

func TestApp_ObserverSeesErrorStatus(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{state: struct{}{}}
	a := newTestApp(t, WithObserver(obs))

	a.Test("GET", "/nope")

	assert.Equal(t, http.StatusNotFound, obs.endStatus)
	assert.Empty(t, obs.endRoute)
}

func TestApp_ObserverNilStateSkipsEnd(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{state: nil, enrichWith: ctxKey("sampled-out")}
	a := newTestApp(t, WithObserver(obs))

	var handlerSaw any
	a.GET("/x", func(ctx context.Context, r *request.Request) (any, error) {
		handlerSaw = ctx.Value(ctxKey("sampled-out"))

		return nil, nil
	})

	a.Test("GET", "/x")

	// No state means no end call, but the enriched context still reaches
	// the handler.
	assert.Equal(t, 1, obs.starts)
	assert.Zero(t, obs.ends)
	assert.Equal(t, "enriched", handlerSaw)
}

func TestApp_ObserversRunInRegistrationOrder(t *testing.T) {
	t.Parallel()

	var order []string
	first := &orderedObserver{name: "first", order: &order}
	second := &orderedObserver{name: "second", order: &order}

	a := newTestApp(t, WithObserver(first), WithObserver(second))
	a.GET("/x", func(ctx context.Context, r *request.Request) (any, error) {
		return nil, nil
	})

	a.Test("GET", "/x")

	require.Equal(t, []string{"first:start", "second:start", "first:end", "second:end"}, order)
}

type orderedObserver struct {
	name  string
	order *[]string
}

func (o *orderedObserver) OnRequestStart(ctx context.Context, req *request.Request) (context.Context, any) {
	*o.order = append(*o.order, o.name+":start")

	return ctx, o.name
}

func (o *orderedObserver) OnRequestEnd(ctx context.Context, state any, statusCode int, responseSize int64, route string) {
	*o.order = append(*o.order, o.name+":end")
}

func TestApp_MetricsRecorderRoundTrip(t *testing.T) {
	t.Parallel()

	recorder := metrics.TestingRecorder(t, "app-observer-test")

	a := newTestApp(t, WithObserver(recorder))
	a.GET("/orders/{id}", func(ctx context.Context, r *request.Request) (any, error) {
		return "pong", nil
	})

	ex := a.Test("GET", "/orders/42")
	require.Equal(t, http.StatusOK, ex.Status())

	handler, err := recorder.Handler()
	require.NoError(t, err)

	scrape := httptest.NewRecorder()
	handler.ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := scrape.Body.String()
	assert.Contains(t, body, `http_route="/orders/{id}"`)
	assert.Contains(t, body, `http_status_code="200"`)
}

func TestApp_TracerRoundTrip(t *testing.T) {
	t.Parallel()

	tracer, spans := tracing.TestingTracerWithSpans(t)

	a := newTestApp(t, WithObserver(tracer))
	a.GET("/orders/{id}", func(ctx context.Context, r *request.Request) (any, error) {
		return nil, nil
	})

	a.Test("GET", "/orders/42")

	ended := spans.Ended()
	require.Len(t, ended, 1)
	// The span is renamed to the route template once the match is known.
	assert.Equal(t, "GET /orders/{id}", ended[0].Name())
}

func TestApp_RequestLogCarriesTraceCorrelation(t *testing.T) {
	t.Parallel()

	tracer, _ := tracing.TestingTracerWithSpans(t)
	logger, buf := logging.NewTestLogger()

	a := newTestApp(t, WithLogger(logger), WithObserver(tracer))
	a.GET("/ping", func(ctx context.Context, r *request.Request) (any, error) {
		return nil, nil
	})

	a.Test("GET", "/ping")

	out := buf.String()
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "trace_id")
	assert.Contains(t, out, "req.id")
}
