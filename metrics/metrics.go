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
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Default histogram buckets. These suit most request-serving workloads;
// override with WithDurationBuckets and WithSizeBuckets.
var (
	// DefaultDurationBuckets are histogram boundaries for request duration
	// in seconds, covering sub-millisecond to 10 second responses.
	DefaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

	// DefaultSizeBuckets are histogram boundaries for request and response
	// sizes in bytes, covering 100B to 10MB.
	DefaultSizeBuckets = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
)

// EventType represents the severity of an internal operational event.
type EventType int

const (
	EventError EventType = iota
	EventWarning
	EventInfo
	EventDebug
)

// Event is an internal operational event from the metrics system: export
// failures, server lifecycle, configuration warnings.
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

// Provider selects the metrics exporter.
type Provider string

const (
	// PrometheusProvider exposes metrics for scraping (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider pushes metrics to an OTLP HTTP collector.
	OTLPProvider Provider = "otlp"
	// StdoutProvider prints metrics to stdout (development only).
	StdoutProvider Provider = "stdout"
)

// sensitiveHeaders are never recorded as metric attributes.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
	"www-authenticate":    true,
}

// Recorder owns the OpenTelemetry metrics pipeline and the built-in
// request instruments. All methods are safe for concurrent use.
//
// By default the Recorder does NOT set the global OpenTelemetry meter
// provider; use WithGlobalMeterProvider for that. Multiple Recorders can
// coexist in one process.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	prometheusHandler  http.Handler
	prometheusRegistry *promclient.Registry
	metricsServer      *http.Server
	eventHandler       EventHandler

	// Built-in request instruments.
	requestDuration      metric.Float64Histogram
	requestCount         metric.Int64Counter
	activeRequests       metric.Int64UpDownCounter
	requestSize          metric.Int64Histogram
	responseSize         metric.Int64Histogram
	errorCount           metric.Int64Counter
	customMetricFailures metric.Int64Counter

	// Custom instruments, created on first use.
	customMu          sync.RWMutex
	customCounters    map[string]metric.Int64Counter
	customHistograms  map[string]metric.Float64Histogram
	customGauges      map[string]metric.Float64Gauge
	customMetricCount int

	durationBuckets []float64
	sizeBuckets     []float64

	validationErrors []error

	exportInterval time.Duration

	serviceName    string
	serviceVersion string
	otlpEndpoint   string
	metricsAddr    string
	metricsPath    string

	serviceNameAttr    attribute.KeyValue
	serviceVersionAttr attribute.KeyValue

	// Request observer configuration.
	pathFilter       *pathFilter
	recordHeaders    []string
	recordHeadersLow []string

	serverMu sync.Mutex

	maxCustomMetrics int

	provider            Provider
	providerSetCount    int
	isShuttingDown      atomic.Bool
	isStarted           atomic.Bool
	providerDeferred    atomic.Bool
	warnNotStarted      sync.Once
	enabled             bool
	autoStartServer     bool
	strictAddr          bool
	customMeterProvider bool
	registerGlobal      bool
}

// New creates a [Recorder] with the given options. For the OTLP provider
// only configuration happens here; the network exporter is created by
// [Recorder.Start], which supplies the lifecycle context.
func New(opts ...Option) (*Recorder, error) {
	r := newDefaultRecorder()

	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("metrics: invalid configuration: %w", err)
	}

	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("metrics: initialize provider: %w", err)
	}

	return r, nil
}

// MustNew creates a [Recorder] or panics. Intended for main functions.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic(err.Error())
	}

	return r
}

func newDefaultRecorder() *Recorder {
	r := &Recorder{
		enabled:          true,
		serviceName:      "vessel-service",
		serviceVersion:   "1.0.0",
		provider:         PrometheusProvider,
		exportInterval:   30 * time.Second,
		metricsAddr:      ":9090",
		metricsPath:      "/metrics",
		autoStartServer:  true,
		maxCustomMetrics: 1000,
		durationBuckets:  DefaultDurationBuckets,
		sizeBuckets:      DefaultSizeBuckets,
		pathFilter:       newPathFilter(),
		customCounters:   make(map[string]metric.Int64Counter),
		customHistograms: make(map[string]metric.Float64Histogram),
		customGauges:     make(map[string]metric.Float64Gauge),
	}

	r.initCommonAttributes()

	return r
}

// initCommonAttributes pre-computes the attributes attached to every
// request sample.
func (r *Recorder) initCommonAttributes() {
	r.serviceNameAttr = attribute.String("service.name", r.serviceName)
	r.serviceVersionAttr = attribute.String("service.version", r.serviceVersion)
}

func (r *Recorder) validate() error {
	if len(r.validationErrors) > 0 {
		return fmt.Errorf("configuration errors: %v", r.validationErrors)
	}

	if r.providerSetCount > 1 {
		return fmt.Errorf("conflicting provider options: only one of WithPrometheus, WithOTLP, or WithStdout can be used")
	}

	if r.serviceName == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if r.serviceVersion == "" {
		return fmt.Errorf("service version cannot be empty")
	}
	if r.maxCustomMetrics < 1 {
		return fmt.Errorf("maxCustomMetrics must be at least 1, got %d", r.maxCustomMetrics)
	}

	if r.exportInterval < time.Second {
		r.emitWarning("Export interval is very low, may cause high CPU usage", "interval", r.exportInterval)
	}

	switch r.provider {
	case PrometheusProvider:
		if r.metricsAddr == "" {
			return fmt.Errorf("metrics address cannot be empty for Prometheus provider")
		}
		if r.metricsPath == "" {
			return fmt.Errorf("metrics path cannot be empty for Prometheus provider")
		}
	case OTLPProvider:
		if r.otlpEndpoint == "" {
			r.emitWarning("OTLP endpoint not specified, will use default", "default", "http://localhost:4318")
			r.otlpEndpoint = "http://localhost:4318"
		}
	case StdoutProvider:
	default:
		return fmt.Errorf("unsupported metrics provider: %s", r.provider)
	}

	return nil
}

// Start brings up the runtime side of the Recorder: the Prometheus scrape
// server when auto-start is enabled, and the OTLP exporter whose creation
// was deferred from New. Cancelling ctx shuts the scrape server down.
// Start is idempotent.
func (r *Recorder) Start(ctx context.Context) error {
	if !r.enabled {
		return nil
	}

	if !r.isStarted.CompareAndSwap(false, true) {
		return nil
	}

	if r.providerDeferred.Load() {
		if err := r.initOTLPProvider(ctx); err != nil {
			r.isStarted.Store(false)
			return fmt.Errorf("metrics: initialize OTLP provider: %w", err)
		}
		r.providerDeferred.Store(false)
	}

	if r.autoStartServer && r.provider == PrometheusProvider {
		r.startMetricsServer(ctx)
	}

	return nil
}

// Shutdown flushes pending metrics, stops the scrape server, and shuts
// down the meter provider. User-supplied providers are left alone.
// Shutdown is idempotent.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.enabled {
		return nil
	}

	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}

	var errs []error

	if err := r.stopMetricsServer(ctx); err != nil {
		errs = append(errs, err)
	}

	if r.customMeterProvider {
		r.emitDebug("Skipping shutdown of custom meter provider (managed by user)")
	} else if err := r.shutdownSDKMeterProvider(ctx); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("metrics: shutdown: %v", errs)
	}

	return nil
}

func (r *Recorder) shutdownSDKMeterProvider(ctx context.Context) error {
	mp, ok := r.meterProvider.(*sdkmetric.MeterProvider)
	if !ok {
		return nil
	}

	if err := mp.ForceFlush(ctx); err != nil {
		// Flush failure should not block shutdown.
		r.emitWarning("metrics flush warning", "error", err)
	}

	if err := mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("meter provider shutdown: %w", err)
	}

	return nil
}

// ForceFlush immediately exports pending metric data. Useful for
// push-based providers before a deployment or at checkpoints; a no-op for
// Prometheus, which is collected on scrape.
func (r *Recorder) ForceFlush(ctx context.Context) error {
	if !r.enabled || r.isShuttingDown.Load() {
		return nil
	}

	if mp, ok := r.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.ForceFlush(ctx); err != nil {
			return fmt.Errorf("metrics: force flush: %w", err)
		}
	}

	return nil
}

// Handler returns the Prometheus scrape handler. Use it to serve metrics
// from your own mux together with [WithServerDisabled].
func (r *Recorder) Handler() (http.Handler, error) {
	if !r.enabled {
		return nil, fmt.Errorf("metrics: not enabled")
	}

	if r.provider != PrometheusProvider || r.prometheusHandler == nil {
		return nil, fmt.Errorf("metrics: handler only available with Prometheus provider, current provider: %s", r.provider)
	}

	return r.prometheusHandler, nil
}

// Provider returns the configured metrics provider.
func (r *Recorder) Provider() Provider {
	if !r.enabled {
		return ""
	}

	return r.provider
}

// ServerAddress returns the listen address of the scrape server, or empty
// when the server is disabled or the provider is not Prometheus.
func (r *Recorder) ServerAddress() string {
	if !r.enabled || r.provider != PrometheusProvider || !r.autoStartServer {
		return ""
	}

	return r.metricsAddr
}

// Path returns the scrape endpoint path, or empty when the provider is
// not Prometheus.
func (r *Recorder) Path() string {
	if !r.enabled || r.provider != PrometheusProvider {
		return ""
	}

	return r.metricsPath
}

// IsEnabled reports whether the Recorder records anything at all.
func (r *Recorder) IsEnabled() bool {
	return r.enabled
}

// ServiceName returns the configured service name.
func (r *Recorder) ServiceName() string {
	return r.serviceName
}

// ServiceVersion returns the configured service version.
func (r *Recorder) ServiceVersion() string {
	return r.serviceVersion
}

// ShouldExcludePath reports whether requests for path are excluded from
// recording.
func (r *Recorder) ShouldExcludePath(path string) bool {
	return r.pathFilter.shouldExclude(path)
}

func (r *Recorder) emitError(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventError, Message: msg, Args: args})
	}
}

func (r *Recorder) emitWarning(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventWarning, Message: msg, Args: args})
	}
}

func (r *Recorder) emitInfo(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventInfo, Message: msg, Args: args})
	}
}

func (r *Recorder) emitDebug(msg string, args ...any) {
	if r.eventHandler != nil {
		r.eventHandler(Event{Type: EventDebug, Message: msg, Args: args})
	}
}
