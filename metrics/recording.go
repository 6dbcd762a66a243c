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
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metricNameRegex validates metric names against OpenTelemetry
// conventions: start with a letter, then alphanumerics, underscores,
// dots, and hyphens.
var metricNameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

// maxMetricNameLength is the maximum allowed length for metric names.
const maxMetricNameLength = 255

// reservedPrefixes cannot be used for custom metrics. They belong to
// Prometheus internals or to the built-in request instruments.
var reservedPrefixes = []string{
	"__",
	"http_",
	"vessel_",
}

// limitError is returned when the custom metrics limit is reached.
type limitError struct {
	metricName string
	limit      int
	current    int
}

func (e *limitError) Error() string {
	return fmt.Sprintf("metrics limit reached: cannot create '%s' (current: %d, limit: %d)",
		e.metricName, e.current, e.limit)
}

func validateMetricName(name string) error {
	if name == "" {
		return fmt.Errorf("metric name cannot be empty")
	}
	if len(name) > maxMetricNameLength {
		return fmt.Errorf("metric name too long: %d characters (max %d)", len(name), maxMetricNameLength)
	}
	// Reserved prefixes first: "__" would also trip the character check,
	// and the caller deserves the more specific message.
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return fmt.Errorf("metric name '%s' uses reserved prefix '%s': reserved prefixes are %v",
				name, prefix, reservedPrefixes)
		}
	}
	if !metricNameRegex.MatchString(name) {
		return fmt.Errorf("invalid metric name '%s': must start with letter and contain only alphanumeric, underscore, dot, or hyphen", name)
	}

	return nil
}

// RequestMetrics carries the in-flight sample for a single request,
// from [Recorder.BeginRequest] to [Recorder.Finish].
type RequestMetrics struct {
	StartTime  time.Time
	Attributes []attribute.KeyValue
}

// AddAttributes appends attributes to the sample. Call before
// [Recorder.Finish]. Safe on a nil receiver.
func (m *RequestMetrics) AddAttributes(attrs ...attribute.KeyValue) {
	if m == nil {
		return
	}
	m.Attributes = append(m.Attributes, attrs...)
}

// ready reports whether instruments exist to record on. With the OTLP
// provider they are created by Start, so anything recorded earlier is
// dropped with a single warning.
func (r *Recorder) ready() bool {
	if !r.enabled {
		return false
	}
	if r.meter == nil {
		r.warnNotStarted.Do(func() {
			r.emitWarning("Recorder not started, dropping samples until Start is called",
				"provider", r.provider)
		})
		return false
	}

	return true
}

// BeginRequest starts the sample for one request: stamps the start time
// and increments the active-request gauge. Returns nil when the
// Recorder is disabled or not started; Finish accepts a nil sample.
func (r *Recorder) BeginRequest(ctx context.Context) *RequestMetrics {
	if !r.ready() {
		return nil
	}

	m := &RequestMetrics{
		StartTime: time.Now(),
	}

	m.Attributes = make([]attribute.KeyValue, 2, 8)
	m.Attributes[0] = r.serviceNameAttr
	m.Attributes[1] = r.serviceVersionAttr

	r.activeRequests.Add(ctx, 1, metric.WithAttributes(m.Attributes...))

	return m
}

// Finish completes the sample: records duration, request count, error
// count for status >= 400, and response size when known. The route is
// the pattern ("/users/{id}"), not the concrete path, to keep
// cardinality bounded. A nil sample is a no-op.
func (r *Recorder) Finish(ctx context.Context, m *RequestMetrics, statusCode int, responseSize int64, route string) {
	if m == nil {
		return
	}

	duration := time.Since(m.StartTime).Seconds()

	finalAttributes := append(m.Attributes,
		attribute.Int("http.status_code", statusCode),
		attribute.String("http.status_class", statusClass(statusCode)),
		attribute.String("http.route", route),
	)

	r.requestDuration.Record(ctx, duration, metric.WithAttributes(finalAttributes...))
	r.requestCount.Add(ctx, 1, metric.WithAttributes(finalAttributes...))
	r.activeRequests.Add(ctx, -1, metric.WithAttributes(finalAttributes...))

	if statusCode >= 400 {
		r.errorCount.Add(ctx, 1, metric.WithAttributes(finalAttributes...))
	}

	if responseSize > 0 {
		r.responseSize.Record(ctx, responseSize, metric.WithAttributes(finalAttributes...))
	}
}

// RecordRequestSize records the request body size for an in-flight
// sample, when the size is known up front.
func (r *Recorder) RecordRequestSize(ctx context.Context, m *RequestMetrics, size int64) {
	if m == nil || size <= 0 {
		return
	}
	r.requestSize.Record(ctx, size, metric.WithAttributes(m.Attributes...))
}

// statusClass returns the HTTP status class (2xx, 3xx, 4xx, 5xx).
func statusClass(statusCode int) string {
	switch statusCode / 100 {
	case 2:
		return "2xx"
	case 3:
		return "3xx"
	case 4:
		return "4xx"
	case 5:
		return "5xx"
	default:
		return "unknown"
	}
}

// RecordHistogram records a custom histogram metric with the given name
// and value. The instrument is created on first use.
//
// Example:
//
//	err := recorder.RecordHistogram(ctx, "processing_duration", 1.5,
//	    attribute.String("operation", "create_user"))
func (r *Recorder) RecordHistogram(ctx context.Context, name string, value float64, attributes ...attribute.KeyValue) error {
	if !r.ready() {
		return nil
	}

	histogram, err := r.getOrCreateHistogram(name)
	if err != nil {
		r.customMetricFailures.Add(ctx, 1)
		return fmt.Errorf("record histogram %q: %w", name, err)
	}

	histogram.Record(ctx, value, metric.WithAttributes(attributes...))

	return nil
}

// IncrementCounter increments a custom counter metric by 1.
//
// Example:
//
//	err := recorder.IncrementCounter(ctx, "cache_misses",
//	    attribute.String("cache", "session"))
func (r *Recorder) IncrementCounter(ctx context.Context, name string, attributes ...attribute.KeyValue) error {
	return r.AddCounter(ctx, name, 1, attributes...)
}

// AddCounter adds a value to a custom counter metric.
//
// Example:
//
//	err := recorder.AddCounter(ctx, "bytes_processed", 1024,
//	    attribute.String("type", "upload"))
func (r *Recorder) AddCounter(ctx context.Context, name string, value int64, attributes ...attribute.KeyValue) error {
	if !r.ready() {
		return nil
	}

	counter, err := r.getOrCreateCounter(name)
	if err != nil {
		r.customMetricFailures.Add(ctx, 1)
		return fmt.Errorf("add counter %q: %w", name, err)
	}

	counter.Add(ctx, value, metric.WithAttributes(attributes...))

	return nil
}

// SetGauge sets a custom gauge metric to the given value.
//
// Example:
//
//	err := recorder.SetGauge(ctx, "queue_depth", 42,
//	    attribute.String("queue", "orders"))
func (r *Recorder) SetGauge(ctx context.Context, name string, value float64, attributes ...attribute.KeyValue) error {
	if !r.ready() {
		return nil
	}

	gauge, err := r.getOrCreateGauge(name)
	if err != nil {
		r.customMetricFailures.Add(ctx, 1)
		return fmt.Errorf("set gauge %q: %w", name, err)
	}

	gauge.Record(ctx, value, metric.WithAttributes(attributes...))

	return nil
}

// initializeMetrics creates the built-in request instruments.
func (r *Recorder) initializeMetrics() error {
	var err error

	r.requestDuration, err = r.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("Duration of HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("create request duration histogram: %w", err)
	}

	r.requestCount, err = r.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return fmt.Errorf("create request count counter: %w", err)
	}

	r.activeRequests, err = r.meter.Int64UpDownCounter(
		"http_requests_active",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return fmt.Errorf("create active requests gauge: %w", err)
	}

	r.requestSize, err = r.meter.Int64Histogram(
		"http_request_size_bytes",
		metric.WithDescription("Size of HTTP request bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	)
	if err != nil {
		return fmt.Errorf("create request size histogram: %w", err)
	}

	r.responseSize, err = r.meter.Int64Histogram(
		"http_response_size_bytes",
		metric.WithDescription("Size of HTTP response bodies in bytes"),
		metric.WithUnit("By"),
		metric.WithExplicitBucketBoundaries(r.sizeBuckets...),
	)
	if err != nil {
		return fmt.Errorf("create response size histogram: %w", err)
	}

	r.errorCount, err = r.meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP error responses"),
	)
	if err != nil {
		return fmt.Errorf("create error count counter: %w", err)
	}

	r.customMetricFailures, err = r.meter.Int64Counter(
		"custom_metric_failures_total",
		metric.WithDescription("Total number of custom metric creation failures"),
	)
	if err != nil {
		return fmt.Errorf("create custom metric failures counter: %w", err)
	}

	return nil
}

// getOrCreateCounter gets or creates a custom counter metric.
// Safe for concurrent use.
func (r *Recorder) getOrCreateCounter(name string) (metric.Int64Counter, error) {
	r.customMu.RLock()
	if counter, exists := r.customCounters[name]; exists {
		r.customMu.RUnlock()
		return counter, nil
	}
	r.customMu.RUnlock()

	// Validate only when creating a new instrument.
	if err := validateMetricName(name); err != nil {
		return nil, err
	}

	r.customMu.Lock()
	defer r.customMu.Unlock()

	// Double-check after acquiring the write lock.
	if counter, exists := r.customCounters[name]; exists {
		return counter, nil
	}

	if r.customMetricCount >= r.maxCustomMetrics {
		return nil, &limitError{
			metricName: name,
			limit:      r.maxCustomMetrics,
			current:    r.customMetricCount,
		}
	}

	counter, err := r.meter.Int64Counter(
		name,
		metric.WithDescription("Custom counter metric"),
	)
	if err != nil {
		return nil, err
	}

	r.customCounters[name] = counter
	r.customMetricCount++

	return counter, nil
}

// getOrCreateHistogram gets or creates a custom histogram metric.
// Safe for concurrent use.
func (r *Recorder) getOrCreateHistogram(name string) (metric.Float64Histogram, error) {
	r.customMu.RLock()
	if histogram, exists := r.customHistograms[name]; exists {
		r.customMu.RUnlock()
		return histogram, nil
	}
	r.customMu.RUnlock()

	if err := validateMetricName(name); err != nil {
		return nil, err
	}

	r.customMu.Lock()
	defer r.customMu.Unlock()

	if histogram, exists := r.customHistograms[name]; exists {
		return histogram, nil
	}

	if r.customMetricCount >= r.maxCustomMetrics {
		return nil, &limitError{
			metricName: name,
			limit:      r.maxCustomMetrics,
			current:    r.customMetricCount,
		}
	}

	histogram, err := r.meter.Float64Histogram(
		name,
		metric.WithDescription("Custom histogram metric"),
	)
	if err != nil {
		return nil, err
	}

	r.customHistograms[name] = histogram
	r.customMetricCount++

	return histogram, nil
}

// getOrCreateGauge gets or creates a custom gauge metric.
// Safe for concurrent use.
func (r *Recorder) getOrCreateGauge(name string) (metric.Float64Gauge, error) {
	r.customMu.RLock()
	if gauge, exists := r.customGauges[name]; exists {
		r.customMu.RUnlock()
		return gauge, nil
	}
	r.customMu.RUnlock()

	if err := validateMetricName(name); err != nil {
		return nil, err
	}

	r.customMu.Lock()
	defer r.customMu.Unlock()

	if gauge, exists := r.customGauges[name]; exists {
		return gauge, nil
	}

	if r.customMetricCount >= r.maxCustomMetrics {
		return nil, &limitError{
			metricName: name,
			limit:      r.maxCustomMetrics,
			current:    r.customMetricCount,
		}
	}

	gauge, err := r.meter.Float64Gauge(
		name,
		metric.WithDescription("Custom gauge metric"),
	)
	if err != nil {
		return nil, err
	}

	r.customGauges[name] = gauge
	r.customMetricCount++

	return gauge, nil
}

// CustomMetricCount returns the number of custom instruments created.
func (r *Recorder) CustomMetricCount() int {
	r.customMu.RLock()
	defer r.customMu.RUnlock()

	return r.customMetricCount
}
