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
	"net/http"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event from the tracing system: export
// failures, provider lifecycle, configuration warnings.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events. Implementations can
// log events, forward them to alerting, or ignore them.
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler that logs events through the
// given logger. A nil logger yields a handler that discards everything.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}

	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

const (
	// DefaultServiceName is used when no service name is configured.
	DefaultServiceName = "vessel-service"

	// DefaultServiceVersion is used when no service version is configured.
	DefaultServiceVersion = "1.0.0"

	// DefaultSampleRate samples every request.
	DefaultSampleRate = 1.0
)

// Attribute key prefixes for recorded request data.
const (
	attrPrefixParam  = "http.request.param."
	attrPrefixHeader = "http.request.header."
)

// samplingMultiplier is the 64-bit golden ratio constant for
// multiplicative hashing. Multiplying by an odd constant is a
// bijection mod 2^64, so consecutive counter values map to well-spread
// hashes and a sample rate of r accepts close to r of any window of
// requests.
const samplingMultiplier = 0x9E3779B97F4A7C15

// MaxExcludedPaths caps how many exact paths can be excluded from
// tracing. Use WithExcludePathPattern for larger sets.
const MaxExcludedPaths = 1000

// Provider selects the trace exporter.
type Provider string

const (
	// NoopProvider exports nothing (default).
	NoopProvider Provider = "noop"
	// StdoutProvider prints spans to stdout (development only).
	StdoutProvider Provider = "stdout"
	// OTLPProvider pushes spans to an OTLP gRPC collector.
	OTLPProvider Provider = "otlp"
	// OTLPHTTPProvider pushes spans to an OTLP HTTP collector.
	OTLPHTTPProvider Provider = "otlp-http"
)

// sensitiveHeaders are never recorded as span attributes.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
	"www-authenticate":    true,
}

// Tracer owns the OpenTelemetry trace pipeline and the request span
// lifecycle. It is immutable after New: all configuration goes through
// options, and the exclusion sets and header lists are read-only
// afterwards, so concurrent use needs no locking.
//
// By default the Tracer does NOT set the global OpenTelemetry tracer
// provider; use WithGlobalTracerProvider for that. Multiple Tracers can
// coexist in one process.
type Tracer struct {
	tracer         trace.Tracer
	propagator     propagation.TextMapPropagator
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider
	eventHandler   EventHandler

	excludePaths    map[string]bool
	excludePrefixes []string
	excludePatterns []*regexp.Regexp

	recordHeaders    []string
	recordHeadersLow []string

	serviceName    string
	serviceVersion string
	provider       Provider
	otlpEndpoint   string

	// Query parameter recording: nil list means all params, the map
	// blacklists individual names.
	recordParamsList []string
	excludeParams    map[string]bool

	spanStartHook  SpanStartHook
	spanFinishHook SpanFinishHook

	sampleRate        float64
	samplingCounter   atomic.Uint64
	samplingThreshold uint64

	shutdownOnce sync.Once
	shutdownErr  error

	isStarted        atomic.Bool
	providerDeferred atomic.Bool
	warnNotStarted   sync.Once

	validationErrors []error

	spanNamePool sync.Pool

	recordParams         bool
	otlpInsecure         bool
	enabled              bool
	providerSet          bool
	customTracerProvider bool
	registerGlobal       bool
}

// New creates a [Tracer] with the given options. For the OTLP providers
// only configuration happens here; the network exporter is created by
// [Tracer.Start], which supplies the lifecycle context.
//
// Defaults: noop provider, 100% sampling, query parameters recorded.
func New(opts ...Option) (*Tracer, error) {
	t := newDefaultTracer()

	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("tracing: invalid configuration: %w", err)
	}

	if err := t.initializeProvider(); err != nil {
		return nil, fmt.Errorf("tracing: initialize provider: %w", err)
	}

	return t, nil
}

// MustNew creates a [Tracer] or panics. Intended for main functions.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic(err.Error())
	}

	return t
}

func newDefaultTracer() *Tracer {
	t := &Tracer{
		enabled:        true,
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultServiceVersion,
		provider:       NoopProvider,
		sampleRate:     DefaultSampleRate,
		recordParams:   true,
		excludePaths:   make(map[string]bool),
		excludeParams:  make(map[string]bool),
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	}

	t.spanNamePool = sync.Pool{
		New: func() any {
			return &strings.Builder{}
		},
	}

	return t
}

func (t *Tracer) validate() error {
	if len(t.validationErrors) > 0 {
		msgs := make([]string, 0, len(t.validationErrors))
		for _, err := range t.validationErrors {
			msgs = append(msgs, err.Error())
		}
		return fmt.Errorf("configuration errors: %s", strings.Join(msgs, "; "))
	}

	if t.serviceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if t.serviceVersion == "" {
		return fmt.Errorf("service version cannot be empty")
	}
	if t.sampleRate < 0.0 || t.sampleRate > 1.0 {
		return fmt.Errorf("sample rate must be between 0.0 and 1.0, got %f", t.sampleRate)
	}

	// Precompute the integer threshold the per-request hash is compared
	// against.
	switch {
	case t.sampleRate == 1.0:
		t.samplingThreshold = ^uint64(0)
	case t.sampleRate == 0.0:
		t.samplingThreshold = 0
	default:
		t.samplingThreshold = uint64(t.sampleRate * float64(^uint64(0)))
	}

	switch t.provider {
	case NoopProvider, StdoutProvider:
	case OTLPProvider:
		if t.otlpEndpoint == "" {
			t.emitWarning("OTLP endpoint not specified, will use default", "default", "localhost:4317")
			t.otlpEndpoint = "localhost:4317"
		}
	case OTLPHTTPProvider:
		if t.otlpEndpoint == "" {
			t.emitWarning("OTLP endpoint not specified, will use default", "default", "http://localhost:4318")
			t.otlpEndpoint = "http://localhost:4318"
		}
	default:
		return fmt.Errorf("unsupported tracing provider: %s", t.provider)
	}

	return nil
}

// Start brings up the exporter whose creation was deferred from New.
// Only the OTLP providers need it; for the others Start is a no-op.
// Start is idempotent.
func (t *Tracer) Start(ctx context.Context) error {
	if !t.enabled {
		return nil
	}

	if !t.isStarted.CompareAndSwap(false, true) {
		return nil
	}

	if t.providerDeferred.Load() {
		if err := t.initializeProviderWithContext(ctx); err != nil {
			t.isStarted.Store(false)
			return fmt.Errorf("tracing: initialize OTLP provider: %w", err)
		}
		t.providerDeferred.Store(false)
	}

	return nil
}

// Shutdown flushes pending spans and shuts down the tracer provider.
// User-supplied providers are left alone. Shutdown is idempotent; all
// concurrent calls observe the result of the single shutdown.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if !t.enabled {
		return nil
	}

	t.shutdownOnce.Do(func() {
		if t.customTracerProvider {
			t.emitDebug("Skipping shutdown of custom tracer provider (managed by user)")
			return
		}
		if t.sdkProvider == nil {
			return
		}

		t.emitDebug("Shutting down tracer provider")
		if err := t.sdkProvider.Shutdown(ctx); err != nil {
			t.emitError("Error shutting down tracer provider", "error", err)
			t.shutdownErr = fmt.Errorf("tracing: tracer provider shutdown: %w", err)
			return
		}
		t.emitDebug("Tracer provider shut down successfully")
	})

	return t.shutdownErr
}

// ready reports whether a tracer exists to start spans on. With the OTLP
// providers it is created by Start, so anything traced earlier is
// dropped with a single warning.
func (t *Tracer) ready() bool {
	if !t.enabled {
		return false
	}
	if t.tracer == nil {
		t.warnNotStarted.Do(func() {
			t.emitWarning("Tracer not started, dropping spans until Start is called",
				"provider", t.provider)
		})
		return false
	}

	return true
}

// IsEnabled reports whether tracing records anything at all.
func (t *Tracer) IsEnabled() bool {
	return t.enabled
}

// ServiceName returns the configured service name.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// ServiceVersion returns the configured service version.
func (t *Tracer) ServiceVersion() string {
	return t.serviceVersion
}

// GetTracer returns the underlying OpenTelemetry tracer, for manual
// span creation outside the request lifecycle.
func (t *Tracer) GetTracer() trace.Tracer {
	return t.tracer
}

// GetPropagator returns the configured trace context propagator.
func (t *Tracer) GetPropagator() propagation.TextMapPropagator {
	return t.propagator
}

// Provider returns the configured tracing provider.
func (t *Tracer) Provider() Provider {
	if !t.enabled {
		return ""
	}

	return t.provider
}

// ShouldExcludePath reports whether requests for path are excluded from
// tracing. Exact matches, prefixes, and patterns are checked in that
// order.
func (t *Tracer) ShouldExcludePath(path string) bool {
	if t.excludePaths[path] {
		return true
	}

	for _, prefix := range t.excludePrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	for _, pattern := range t.excludePatterns {
		if pattern.MatchString(path) {
			return true
		}
	}

	return false
}

// shouldSample makes the per-request sampling decision. The counter
// hash spreads accepted requests uniformly instead of accepting a
// leading burst.
func (t *Tracer) shouldSample() bool {
	if t.sampleRate >= 1.0 {
		return true
	}
	if t.sampleRate == 0.0 {
		return false
	}

	counter := t.samplingCounter.Add(1)
	return counter*samplingMultiplier <= t.samplingThreshold
}

// shouldRecordParam applies the blacklist first, then the whitelist
// when one is configured.
func (t *Tracer) shouldRecordParam(param string) bool {
	if t.excludeParams[param] {
		return false
	}

	if t.recordParamsList != nil {
		for _, p := range t.recordParamsList {
			if p == param {
				return true
			}
		}
		return false
	}

	return true
}

// StartSpan starts a span with the given name. Returns the original
// context and the surrounding span when tracing is disabled or the
// context is already cancelled.
//
// Example:
//
//	ctx, span := tracer.StartSpan(ctx, "database-query")
//	defer tracer.FinishSpan(span, http.StatusOK)
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if !t.ready() {
		return ctx, trace.SpanFromContext(ctx)
	}

	select {
	case <-ctx.Done():
		return ctx, trace.SpanFromContext(ctx)
	default:
	}

	return t.tracer.Start(ctx, name, opts...)
}

// FinishSpan completes the span, deriving the span status from the HTTP
// status code: >= 400 is an error, anything else is OK. Safe to call
// with a nil or non-recording span.
func (t *Tracer) FinishSpan(span trace.Span, statusCode int) {
	if !t.enabled || span == nil || !span.IsRecording() {
		return
	}

	if statusCode >= 400 {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// SetSpanAttribute adds an attribute to the span. String, int, int64,
// float64, and bool map to their native attribute types; everything
// else is rendered with fmt.
func (t *Tracer) SetSpanAttribute(span trace.Span, key string, value any) {
	if !t.enabled || span == nil || !span.IsRecording() {
		return
	}
	span.SetAttributes(buildAttribute(key, value))
}

// AddSpanEvent adds an event to the span with optional attributes.
func (t *Tracer) AddSpanEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	if !t.enabled || span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// ExtractTraceContext extracts W3C trace context from request headers
// into a new context. Returns the original context when nothing is
// found.
func (t *Tracer) ExtractTraceContext(ctx context.Context, headers http.Header) context.Context {
	if !t.enabled {
		return ctx
	}

	return t.propagator.Extract(ctx, propagation.HeaderCarrier(headers))
}

// InjectTraceContext injects the current trace context into headers, so
// it propagates across service boundaries.
func (t *Tracer) InjectTraceContext(ctx context.Context, headers http.Header) {
	if !t.enabled {
		return
	}

	t.propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}

// buildAttribute creates an attribute from a key and a dynamically
// typed value. When the type is known at compile time, call the
// attribute package directly.
func buildAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

// TraceID returns the trace ID of the active span in ctx, or empty when
// there is none. Useful for correlating logs with traces.
func TraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}

// SpanID returns the span ID of the active span in ctx, or empty when
// there is none.
func SpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}

	return ""
}

// SetSpanAttributeFromContext adds an attribute to the active span in
// ctx. No-op when no span is recording.
func SetSpanAttributeFromContext(ctx context.Context, key string, value any) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(buildAttribute(key, value))
}

// AddSpanEventFromContext adds an event to the active span in ctx.
// No-op when no span is recording.
func AddSpanEventFromContext(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

func (t *Tracer) emitError(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventError, Message: msg, Args: args})
	}
}

func (t *Tracer) emitWarning(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventWarning, Message: msg, Args: args})
	}
}

func (t *Tracer) emitInfo(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventInfo, Message: msg, Args: args})
	}
}

func (t *Tracer) emitDebug(msg string, args ...any) {
	if t.eventHandler != nil {
		t.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
	}
}
