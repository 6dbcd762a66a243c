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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

// scrapeBody collects the recorder's Prometheus exposition through its
// handler, without a running scrape server.
func scrapeBody(t *testing.T, r *Recorder) string {
	t.Helper()

	handler, err := r.Handler()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	return w.Body.String()
}

func TestRecorder_RequestLifecycle(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "lifecycle-test")
	ctx := context.Background()

	m := recorder.BeginRequest(ctx)
	require.NotNil(t, m)
	recorder.Finish(ctx, m, http.StatusOK, 1024, "/users/{id}")

	body := scrapeBody(t, recorder)

	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "http_request_duration_seconds")
	assert.Contains(t, body, "http_response_size_bytes")
	assert.Contains(t, body, `http_route="/users/{id}"`)
	assert.Contains(t, body, `http_status_class="2xx"`)
	assert.Contains(t, body, `service_name="lifecycle-test"`)
}

func TestRecorder_ErrorResponsesCounted(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "errors-test")
	ctx := context.Background()

	for range 3 {
		m := recorder.BeginRequest(ctx)
		recorder.Finish(ctx, m, http.StatusInternalServerError, 0, "/boom")
	}

	m := recorder.BeginRequest(ctx)
	recorder.Finish(ctx, m, http.StatusOK, 0, "/fine")

	body := scrapeBody(t, recorder)

	assert.Contains(t, body, "http_errors_total")
	assert.Contains(t, body, `http_status_class="5xx"`)
}

func TestRecorder_RequestSizeRecorded(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "sizes-test")
	ctx := context.Background()

	m := recorder.BeginRequest(ctx)
	recorder.RecordRequestSize(ctx, m, 2048)
	recorder.Finish(ctx, m, http.StatusCreated, 16, "/uploads")

	body := scrapeBody(t, recorder)

	assert.Contains(t, body, "http_request_size_bytes")
}

func TestRecorder_NilSampleIsNoOp(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "nil-sample-test")
	ctx := context.Background()

	assert.NotPanics(t, func() {
		recorder.Finish(ctx, nil, http.StatusOK, 0, "/")
		recorder.RecordRequestSize(ctx, nil, 100)

		var m *RequestMetrics
		m.AddAttributes(attribute.String("k", "v"))
	})
}

func TestRecorder_SamplesDroppedBeforeStart(t *testing.T) {
	t.Parallel()

	var events []Event

	recorder, err := New(
		WithOTLP("http://localhost:4318"),
		WithEventHandler(func(e Event) { events = append(events, e) }),
	)
	require.NoError(t, err)

	// OTLP instruments are created by Start; until then samples drop
	// with a single warning.
	assert.Nil(t, recorder.BeginRequest(context.Background()))
	assert.Nil(t, recorder.BeginRequest(context.Background()))

	var warnings int
	for _, e := range events {
		if e.Type == EventWarning && strings.Contains(e.Message, "not started") {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)

	require.NoError(t, recorder.Shutdown(context.Background()))
}

func TestCustomMetrics_RecordedAndExposed(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "custom-test")
	ctx := context.Background()

	require.NoError(t, recorder.IncrementCounter(ctx, "business_events_total",
		attribute.String("event", "signup")))
	require.NoError(t, recorder.AddCounter(ctx, "bytes_processed", 1024))
	require.NoError(t, recorder.RecordHistogram(ctx, "processing_duration_seconds", 0.25))
	require.NoError(t, recorder.SetGauge(ctx, "queue_depth", 42))

	assert.Equal(t, 4, recorder.CustomMetricCount())

	body := scrapeBody(t, recorder)

	assert.Contains(t, body, "business_events_total")
	assert.Contains(t, body, "bytes_processed")
	assert.Contains(t, body, "processing_duration_seconds")
	assert.Contains(t, body, "queue_depth")
	assert.Contains(t, body, `event="signup"`)
}

func TestCustomMetrics_InstrumentsReused(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "reuse-test")
	ctx := context.Background()

	for range 5 {
		require.NoError(t, recorder.IncrementCounter(ctx, "cache_misses"))
	}

	assert.Equal(t, 1, recorder.CustomMetricCount())
	assert.Regexp(t, `cache_misses_total(\{[^}]*\})? 5`, scrapeBody(t, recorder))
}

func TestCustomMetrics_InvalidNamesRejected(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "invalid-name-test")
	ctx := context.Background()

	tests := []struct {
		name       string
		metricName string
		wantErr    string
	}{
		{"empty", "", "cannot be empty"},
		{"starts with digit", "1_requests", "invalid metric name"},
		{"contains space", "my metric", "invalid metric name"},
		{"too long", strings.Repeat("a", 256), "too long"},
		{"prometheus reserved", "__internal", "reserved prefix"},
		{"request metrics reserved", "http_things", "reserved prefix"},
		{"package reserved", "vessel_things", "reserved prefix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := recorder.IncrementCounter(ctx, tt.metricName)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Zero(t, recorder.CustomMetricCount())
	assert.Contains(t, scrapeBody(t, recorder), "custom_metric_failures_total")
}

func TestCustomMetrics_LimitEnforced(t *testing.T) {
	t.Parallel()

	recorder := TestingRecorder(t, "limit-test", WithMaxCustomMetrics(2))
	ctx := context.Background()

	require.NoError(t, recorder.IncrementCounter(ctx, "first_counter"))
	require.NoError(t, recorder.RecordHistogram(ctx, "second_histogram", 1))

	err := recorder.SetGauge(ctx, "third_gauge", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metrics limit reached")

	// Existing instruments keep working at the limit.
	require.NoError(t, recorder.IncrementCounter(ctx, "first_counter"))
	assert.Equal(t, 2, recorder.CustomMetricCount())
}

func TestValidateMetricName(t *testing.T) {
	t.Parallel()

	assert.NoError(t, validateMetricName("requests_processed"))
	assert.NoError(t, validateMetricName("app.cache.hits"))
	assert.NoError(t, validateMetricName("latency-p99"))

	assert.Error(t, validateMetricName(""))
	assert.Error(t, validateMetricName("9lives"))
	assert.Error(t, validateMetricName("with space"))
	assert.Error(t, validateMetricName("__reserved"))
	assert.Error(t, validateMetricName("http_requests"))
	assert.Error(t, validateMetricName("vessel_internal"))
	assert.Error(t, validateMetricName(strings.Repeat("x", maxMetricNameLength+1)))
}

func TestStatusClass(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status int
		want   string
	}{
		{200, "2xx"},
		{204, "2xx"},
		{301, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{599, "5xx"},
		{100, "unknown"},
		{0, "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusClass(tt.status))
	}
}
