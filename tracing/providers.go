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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// tracerName is the instrumentation scope for spans created by this
// package.
const tracerName = "github.com/vessel-dev/vessel/tracing"

// initializeProvider sets up the trace pipeline for providers that do
// not need a network connection. The OTLP providers are only marked as
// deferred here; Start(ctx) finishes them.
func (t *Tracer) initializeProvider() error {
	if !t.enabled {
		return nil
	}

	if t.customTracerProvider {
		return t.initCustomProvider()
	}

	switch t.provider {
	case NoopProvider:
		return t.initNoopProvider()
	case StdoutProvider:
		return t.initStdoutProvider()
	case OTLPProvider, OTLPHTTPProvider:
		t.providerDeferred.Store(true)
		return nil
	default:
		return fmt.Errorf("unsupported tracing provider: %s", t.provider)
	}
}

// initializeProviderWithContext finishes the provider setup that needs
// a context for connection establishment.
func (t *Tracer) initializeProviderWithContext(ctx context.Context) error {
	switch t.provider {
	case OTLPProvider:
		return t.initOTLPProvider(ctx)
	case OTLPHTTPProvider:
		return t.initOTLPHTTPProvider(ctx)
	default:
		return fmt.Errorf("provider %s does not require context initialization", t.provider)
	}
}

func (t *Tracer) initCustomProvider() error {
	if t.tracerProvider == nil {
		return fmt.Errorf("custom tracer provider is nil")
	}

	t.emitDebug("Using custom user-provided tracer provider")
	if t.tracer == nil {
		t.tracer = t.tracerProvider.Tracer(tracerName)
	}
	t.registerGlobalProvider()

	return nil
}

func (t *Tracer) initNoopProvider() error {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(createResource(t.serviceName, t.serviceVersion)),
	)

	t.sdkProvider = tp
	t.tracerProvider = tp
	if t.tracer == nil {
		t.tracer = tp.Tracer(tracerName)
	}
	t.registerGlobalProvider()

	return nil
}

func (t *Tracer) initStdoutProvider() error {
	exporter, err := stdouttrace.New(
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("create stdout exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(createResource(t.serviceName, t.serviceVersion)),
	)

	t.sdkProvider = tp
	t.tracerProvider = tp
	if t.tracer == nil {
		t.tracer = tp.Tracer(tracerName)
	}
	t.registerGlobalProvider()

	t.emitInfo("Tracing initialized", "provider", StdoutProvider, "service", t.serviceName)

	return nil
}

func (t *Tracer) initOTLPProvider(ctx context.Context) error {
	opts := []otlptracegrpc.Option{}
	if t.otlpEndpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(t.otlpEndpoint))
	}
	if t.otlpInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create OTLP gRPC exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(createResource(t.serviceName, t.serviceVersion)),
	)

	t.sdkProvider = tp
	t.tracerProvider = tp
	if t.tracer == nil {
		t.tracer = tp.Tracer(tracerName)
	}
	t.registerGlobalProvider()

	t.emitInfo("Tracing initialized",
		"provider", OTLPProvider, "endpoint", t.otlpEndpoint, "service", t.serviceName)

	return nil
}

func (t *Tracer) initOTLPHTTPProvider(ctx context.Context) error {
	opts := []otlptracehttp.Option{}
	if t.otlpEndpoint != "" {
		// The exporter wants a bare host:port; the scheme only decides
		// whether TLS is used.
		endpoint := t.otlpEndpoint
		isHTTP := false

		if trimmed, ok := strings.CutPrefix(endpoint, "http://"); ok {
			endpoint = trimmed
			isHTTP = true
		} else if trimmed, ok := strings.CutPrefix(endpoint, "https://"); ok {
			endpoint = trimmed
		}
		if idx := strings.Index(endpoint, "/"); idx != -1 {
			endpoint = endpoint[:idx]
		}

		opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
		if isHTTP {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create OTLP HTTP exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(createResource(t.serviceName, t.serviceVersion)),
	)

	t.sdkProvider = tp
	t.tracerProvider = tp
	if t.tracer == nil {
		t.tracer = tp.Tracer(tracerName)
	}
	t.registerGlobalProvider()

	t.emitInfo("Tracing initialized",
		"provider", OTLPHTTPProvider, "endpoint", t.otlpEndpoint, "service", t.serviceName)

	return nil
}

func (t *Tracer) registerGlobalProvider() {
	if t.registerGlobal {
		t.emitDebug("Setting global OpenTelemetry tracer provider", "provider", t.provider)
		otel.SetTracerProvider(t.tracerProvider)
		return
	}
	t.emitDebug("Skipping global tracer provider registration", "provider", t.provider)
}

func createResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}
