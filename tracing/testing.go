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
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestingTracer creates a [Tracer] with test defaults: noop provider,
// 100% sampling, shutdown via t.Cleanup. Later options override the
// defaults.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    tracer := tracing.TestingTracer(t)
//	    // ...
//	}
func TestingTracer(t testing.TB, opts ...Option) *Tracer {
	t.Helper()

	defaultOpts := []Option{
		WithServiceName("test-service"),
		WithServiceVersion("v1.0.0"),
		WithSampleRate(1.0),
	}
	allOpts := append(defaultOpts, opts...)

	tracer, err := New(allOpts...)
	if err != nil {
		t.Fatalf("TestingTracer: create tracer: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			t.Logf("TestingTracer: shutdown warning: %v", err)
		}
	})

	return tracer
}

// TestingTracerWithSpans creates a [Tracer] backed by an in-memory
// span recorder, so tests can assert on the spans a request produced.
//
// Example:
//
//	tracer, spans := tracing.TestingTracerWithSpans(t)
//	// ... run requests through tracer ...
//	ended := spans.Ended()
//	require.Len(t, ended, 1)
//	assert.Equal(t, "GET /orders/{id}", ended[0].Name())
func TestingTracerWithSpans(t testing.TB, opts ...Option) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	defaultOpts := []Option{
		WithServiceName("test-service"),
		WithServiceVersion("v1.0.0"),
		WithSampleRate(1.0),
		WithTracerProvider(tp),
	}
	allOpts := append(defaultOpts, opts...)

	tracer, err := New(allOpts...)
	if err != nil {
		t.Fatalf("TestingTracerWithSpans: create tracer: %v", err)
	}

	// The recorder's provider is ours, not the caller's, so shut it
	// down here rather than through Tracer.Shutdown.
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			t.Logf("TestingTracerWithSpans: shutdown warning: %v", err)
		}
	})

	return tracer, recorder
}

// TestingTracerWithStdout creates a [Tracer] that prints spans to
// stdout. Useful when debugging a test.
func TestingTracerWithStdout(t testing.TB, opts ...Option) *Tracer {
	t.Helper()

	defaultOpts := []Option{
		WithServiceName("test-service"),
		WithServiceVersion("v1.0.0"),
		WithStdout(),
		WithSampleRate(1.0),
	}
	allOpts := append(defaultOpts, opts...)

	tracer, err := New(allOpts...)
	if err != nil {
		t.Fatalf("TestingTracerWithStdout: create tracer: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(ctx); err != nil {
			t.Logf("TestingTracerWithStdout: shutdown warning: %v", err)
		}
	})

	return tracer
}
