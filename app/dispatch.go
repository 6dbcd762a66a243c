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
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/vessel-dev/vessel/errors"
	"github.com/vessel-dev/vessel/request"
	"github.com/vessel-dev/vessel/response"
	"github.com/vessel-dev/vessel/router"
	"github.com/vessel-dev/vessel/transport"
)

// Dispatch runs one exchange through the full pipeline: resolve the route,
// construct the request, invoke the handler, build the response, send it.
// It returns when the response has been written (or delivery failed, which
// is logged). Serve calls it for every accepted exchange; it is exported
// for custom serving loops and tests.
//
// Dispatch never panics: handler panics become 500 responses, and internal
// error causes are logged but not sent to the client.
func (a *App) Dispatch(ctx context.Context, ex transport.Exchange) {
	start := time.Now()
	info := ex.Request()

	id := info.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}

	match := a.resolve(info.Method, info.Path)

	reqOpts := make([]request.Option, 0, 4)
	reqOpts = append(reqOpts, request.WithID(id))
	if a.registry != nil {
		reqOpts = append(reqOpts, request.WithCodecs(a.registry))
	}

	var route string
	if match.Code == router.MatchFound {
		route = match.Route.Path
		reqOpts = append(reqOpts,
			request.WithParams(match.Params),
			request.WithRouteTemplate(route))
	}
	req := request.New(info, ex.Body(), reqOpts...)

	// Observers may enrich the context (spans, baggage) even when they
	// return no state; only those that returned state see the end.
	var observations []observation
	for _, obs := range a.observers {
		var state any
		ctx, state = obs.OnRequestStart(ctx, req)
		if state != nil {
			observations = append(observations, observation{observer: obs, state: state})
		}
	}

	logger := a.requestLogger(ctx, req)

	resp := a.respond(ctx, req, match, logger)

	size, err := a.send(ctx, ex, resp, info.Method == http.MethodHead)
	if err != nil {
		logger.Warn("response delivery failed", "error", err)
	}

	for _, o := range observations {
		o.observer.OnRequestEnd(ctx, o.state, resp.StatusCode(), size, route)
	}

	logger.Debug("request completed",
		"status", resp.StatusCode(),
		"bytes", size,
		"duration_ms", time.Since(start).Milliseconds())
}

// resolve matches the request against the route table. A HEAD request
// without a HEAD route falls back to the GET route for the same path; the
// send step suppresses the body.
func (a *App) resolve(method, path string) router.MatchResult {
	match := a.router.Resolve(method, path)
	if method == http.MethodHead && match.Code == router.MatchMethodNotAllowed {
		if getMatch := a.router.Resolve(http.MethodGet, path); getMatch.Code == router.MatchFound {
			return getMatch
		}
	}

	return match
}

// respond produces the finalized response for a resolved request. It
// always returns a response; every failure path renders through the error
// formatter.
func (a *App) respond(ctx context.Context, req *request.Request, match router.MatchResult, logger *slog.Logger) *response.Response {
	switch match.Code {
	case router.MatchNotFound:
		return a.renderError(req, errors.NotFound(""), logger)
	case router.MatchMethodNotAllowed:
		notAllowed := errors.New(http.StatusMethodNotAllowed, "").
			WithHeader("Allow", strings.Join(match.Allow, ", "))

		return a.renderError(req, notAllowed, logger)
	}

	result, err := a.invoke(ctx, match.Route.Handler, req, logger)
	if err != nil {
		return a.renderError(req, err, logger)
	}

	resp, err := a.builder.Build(result)
	if err != nil {
		logger.Error("response encoding failed", "error", err)

		return a.renderError(req, errors.Internal(""), logger)
	}

	return resp
}

// invoke calls the handler with panic recovery. A panic is logged with its
// stack and surfaces as a generic 500.
func (a *App) invoke(ctx context.Context, h router.Handler, req *request.Request, logger *slog.Logger) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("handler panicked", "panic", rec, "stack", string(debug.Stack()))
			result = nil
			err = errors.Internal("")
		}
	}()

	return h(ctx, req)
}

// renderError turns an error into a finalized response through the
// configured formatter. Errors that do not declare an HTTP status are
// replaced with a generic 500 before formatting, so internal causes never
// reach the wire.
func (a *App) renderError(req *request.Request, err error, logger *slog.Logger) *response.Response {
	if errors.StatusOf(err) == 0 {
		logger.Error("request failed", "error", err)
		err = errors.Internal("")
	}

	fr := a.formatter.Format(req, err)

	opts := make([]response.Option, 0, 2+len(fr.Headers))
	opts = append(opts, response.WithStatus(fr.Status), response.WithContentType(fr.ContentType))
	for key, values := range fr.Headers {
		for _, value := range values {
			opts = append(opts, response.WithAddedHeader(key, value))
		}
	}

	resp, buildErr := a.builder.Build(fr.Body, opts...)
	if buildErr != nil {
		// The formatter produced a body the codec registry cannot encode.
		// Fall back to the plain generic body rather than failing the
		// exchange.
		logger.Error("error response encoding failed", "error", buildErr)
		resp, _ = a.builder.Build(
			response.Raw("application/json; charset=utf-8", []byte(`{"message":"Internal Server Error"}`)),
			response.WithStatus(http.StatusInternalServerError),
		)
	}

	return resp
}

// send writes the response to the exchange. HEAD responses keep all their
// headers, Content-Length included, but the body stays home. It returns
// the number of body bytes written.
func (a *App) send(ctx context.Context, ex transport.Exchange, resp *response.Response, headRequest bool) (int64, error) {
	if err := ex.WriteStart(ctx, resp.StatusCode(), resp.Header()); err != nil {
		return 0, err
	}

	body := resp.Body()
	if headRequest || len(body) == 0 {
		return 0, ex.WriteChunk(ctx, nil, true)
	}

	if err := ex.WriteChunk(ctx, body, true); err != nil {
		return 0, err
	}

	return int64(len(body)), nil
}

// requestLogger derives the request-scoped logger: request identity
// attributes first, then trace correlation when the context carries a
// valid span.
func (a *App) requestLogger(ctx context.Context, req *request.Request) *slog.Logger {
	attrs := make([]any, 0, 8)
	attrs = append(attrs,
		fieldHTTPMethod, req.Method(),
		fieldHTTPTarget, req.Path(),
		fieldRequestID, req.ID(),
	)
	if route := req.RouteTemplate(); route != "" {
		attrs = append(attrs, fieldHTTPRoute, route)
	}

	logger := a.logger.With(attrs...)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		logger = logger.With(
			fieldTraceID, sc.TraceID().String(),
			fieldSpanID, sc.SpanID().String(),
		)
	}

	return logger
}
