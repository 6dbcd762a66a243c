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
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vessel-dev/vessel/request"
)

// Option configures a [Tracer] during New.
type Option func(*Tracer)

// SpanStartHook is called after a request span is started, with the
// request context, the span, and the request. Use it for custom
// attribute injection or APM integration.
type SpanStartHook func(ctx context.Context, span trace.Span, req *request.Request)

// SpanFinishHook is called just before a request span ends, with the
// span and the response status code.
type SpanFinishHook func(span trace.Span, statusCode int)

// WithTracerProvider supplies an externally managed TracerProvider.
// The Tracer will not shut it down, and provider options (WithOTLP,
// WithStdout, ...) are ignored.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(...)
//	tracer, err := tracing.New(
//	    tracing.WithTracerProvider(tp),
//	    tracing.WithServiceName("orders"),
//	)
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = provider
		t.customTracerProvider = true
	}
}

// WithGlobalTracerProvider additionally registers the tracer provider
// as the process-global OpenTelemetry provider. Off by default so
// multiple Tracers can coexist.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) {
		t.registerGlobal = true
	}
}

// WithServiceName sets the service name recorded on every span as
// 'service.name'.
func WithServiceName(name string) Option {
	return func(t *Tracer) {
		t.serviceName = name
	}
}

// WithServiceVersion sets the service version recorded on every span
// as 'service.version'.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) {
		t.serviceVersion = version
	}
}

// WithSampleRate sets the sampling rate between 0.0 (nothing) and 1.0
// (everything). Out-of-range values are clamped.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithSampleRate(0.1)) // 10% of requests
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) {
		if rate < 0.0 {
			rate = 0.0
		}
		if rate > 1.0 {
			rate = 1.0
		}
		t.sampleRate = rate
	}
}

// WithDisabled turns tracing off entirely. All span operations become
// no-ops.
func WithDisabled() Option {
	return func(t *Tracer) {
		t.enabled = false
	}
}

// WithExcludePaths excludes exact paths from tracing. Useful for
// health checks and scrape endpoints.
//
// At most [MaxExcludedPaths] paths are kept; use
// WithExcludePathPattern for larger sets.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithExcludePaths("/health", "/metrics"))
func WithExcludePaths(paths ...string) Option {
	return func(t *Tracer) {
		for i, path := range paths {
			if i >= MaxExcludedPaths {
				t.emitWarning("Excluded paths limit reached",
					"limit", MaxExcludedPaths,
					"dropped", len(paths)-MaxExcludedPaths,
					"hint", "use WithExcludePathPattern for large path sets",
				)
				break
			}
			t.excludePaths[path] = true
		}
	}
}

// WithExcludePathPattern excludes paths matching a regular expression
// from tracing. An invalid pattern makes New return an error.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithExcludePathPattern("^/(health|ready|live)"))
func WithExcludePathPattern(pattern string) Option {
	return func(t *Tracer) {
		compiled, err := regexp.Compile(pattern)
		if err != nil {
			t.validationErrors = append(t.validationErrors,
				fmt.Errorf("invalid exclude pattern %q: %w", pattern, err))
			return
		}
		t.excludePatterns = append(t.excludePatterns, compiled)
	}
}

// WithExcludePrefixes excludes whole path hierarchies from tracing.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithExcludePrefixes("/debug/", "/internal/"))
func WithExcludePrefixes(prefixes ...string) Option {
	return func(t *Tracer) {
		t.excludePrefixes = append(t.excludePrefixes, prefixes...)
	}
}

// WithRecordHeaders records the given request headers as span
// attributes under 'http.request.header.{name}' (lowercased).
// Sensitive headers such as Authorization and Cookie are always
// dropped.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithRecordHeaders("X-Request-ID", "X-Tenant"))
func WithRecordHeaders(headers ...string) Option {
	return func(t *Tracer) {
		filtered := make([]string, 0, len(headers))
		for _, h := range headers {
			if !sensitiveHeaders[strings.ToLower(h)] {
				filtered = append(filtered, h)
			}
		}

		t.recordHeaders = filtered
		t.recordHeadersLow = make([]string, len(filtered))
		for i, h := range filtered {
			t.recordHeadersLow[i] = strings.ToLower(h)
		}
	}
}

// WithDisableParams stops query parameters from being recorded as span
// attributes. Use when parameters may carry sensitive data.
func WithDisableParams() Option {
	return func(t *Tracer) {
		t.recordParams = false
	}
}

// WithRecordParams restricts recorded query parameters to the given
// names. Without it all parameters are recorded (unless
// WithDisableParams is set).
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithRecordParams("page", "limit"))
func WithRecordParams(params ...string) Option {
	return func(t *Tracer) {
		if len(params) > 0 {
			t.recordParamsList = make([]string, len(params))
			copy(t.recordParamsList, params)
			t.recordParams = true
		}
	}
}

// WithExcludeParams blacklists query parameters from tracing. Takes
// precedence over WithRecordParams.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithExcludeParams("password", "token"))
func WithExcludeParams(params ...string) Option {
	return func(t *Tracer) {
		for _, param := range params {
			t.excludeParams[param] = true
		}
	}
}

// WithCustomTracer supplies a pre-built OpenTelemetry tracer instead
// of one created from the provider.
func WithCustomTracer(tracer trace.Tracer) Option {
	return func(t *Tracer) {
		t.tracer = tracer
	}
}

// WithCustomPropagator replaces the default W3C Trace Context and
// Baggage propagator.
func WithCustomPropagator(propagator propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		t.propagator = propagator
	}
}

// WithEventHandler sets a custom handler for internal operational
// events. Use for alerting integration or non-slog logging systems.
//
// Example:
//
//	tracing.New(tracing.WithEventHandler(func(e tracing.Event) {
//	    if e.Type == tracing.EventError {
//	        alerting.Notify(e.Message)
//	    }
//	}))
func WithEventHandler(handler EventHandler) Option {
	return func(t *Tracer) {
		t.eventHandler = handler
	}
}

// WithLogger routes internal operational events to the given slog
// logger. Convenience wrapper around WithEventHandler.
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}

// WithSpanStartHook registers a callback invoked after each request
// span starts.
//
// Example:
//
//	hook := func(ctx context.Context, span trace.Span, req *request.Request) {
//	    if tenant := req.Header().Get("X-Tenant-ID"); tenant != "" {
//	        span.SetAttributes(attribute.String("tenant.id", tenant))
//	    }
//	}
//	tracer := tracing.MustNew(tracing.WithSpanStartHook(hook))
func WithSpanStartHook(hook SpanStartHook) Option {
	return func(t *Tracer) {
		t.spanStartHook = hook
	}
}

// WithSpanFinishHook registers a callback invoked just before each
// request span ends.
func WithSpanFinishHook(hook SpanFinishHook) Option {
	return func(t *Tracer) {
		t.spanFinishHook = hook
	}
}

// OTLPOption configures OTLP provider behavior.
type OTLPOption func(*otlpConfig)

type otlpConfig struct {
	insecure bool
}

// OTLPInsecure disables TLS on the OTLP gRPC connection. Intended for
// local development collectors.
func OTLPInsecure() OTLPOption {
	return func(c *otlpConfig) {
		c.insecure = true
	}
}

// WithOTLP exports spans to an OTLP gRPC collector. Endpoint format is
// "host:port".
//
// Only one provider can be configured; a second provider option makes
// New return an error.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithOTLP("localhost:4317", tracing.OTLPInsecure()))
func WithOTLP(endpoint string, opts ...OTLPOption) Option {
	return func(t *Tracer) {
		if t.providerSet {
			t.validationErrors = append(t.validationErrors,
				fmt.Errorf("provider: multiple providers configured (already have %q, cannot add %q); only one provider allowed", t.provider, OTLPProvider))

			return
		}
		t.provider = OTLPProvider
		t.otlpEndpoint = endpoint
		t.providerSet = true

		cfg := &otlpConfig{}
		for _, opt := range opts {
			opt(cfg)
		}
		t.otlpInsecure = cfg.insecure
	}
}

// WithOTLPHTTP exports spans to an OTLP HTTP collector. Endpoint
// format is "http://host:port" or "https://host:port".
//
// Only one provider can be configured; a second provider option makes
// New return an error.
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithOTLPHTTP("http://localhost:4318"))
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		if t.providerSet {
			t.validationErrors = append(t.validationErrors,
				fmt.Errorf("provider: multiple providers configured (already have %q, cannot add %q); only one provider allowed", t.provider, OTLPHTTPProvider))

			return
		}
		t.provider = OTLPHTTPProvider
		t.otlpEndpoint = endpoint
		t.providerSet = true
	}
}

// WithStdout prints spans to stdout. Development only.
//
// Only one provider can be configured; a second provider option makes
// New return an error.
func WithStdout() Option {
	return func(t *Tracer) {
		if t.providerSet {
			t.validationErrors = append(t.validationErrors,
				fmt.Errorf("provider: multiple providers configured (already have %q, cannot add %q); only one provider allowed", t.provider, StdoutProvider))

			return
		}
		t.provider = StdoutProvider
		t.providerSet = true
	}
}

// WithNoop configures the noop provider explicitly (it is also the
// default). Spans are created but never exported.
func WithNoop() Option {
	return func(t *Tracer) {
		if t.providerSet {
			t.validationErrors = append(t.validationErrors,
				fmt.Errorf("provider: multiple providers configured (already have %q, cannot add %q); only one provider allowed", t.provider, NoopProvider))

			return
		}
		t.provider = NoopProvider
		t.providerSet = true
	}
}
