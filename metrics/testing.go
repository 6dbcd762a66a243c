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
	"errors"
	"fmt"
	"net"
	"testing"
	"time"
)

// ErrServerNotReady is returned when the metrics server fails to start
// within the timeout.
var ErrServerNotReady = errors.New("metrics server not ready")

// TestingRecorder creates a [Recorder] for unit tests: Prometheus
// provider with the scrape server disabled, so samples can be asserted
// through [Recorder.Handler] without binding a port. Shutdown runs via
// t.Cleanup.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    recorder := metrics.TestingRecorder(t, "test-service")
//	    // Use recorder...
//	}
func TestingRecorder(t testing.TB, serviceName string, opts ...Option) *Recorder {
	t.Helper()

	defaultOpts := []Option{
		WithServiceName(serviceName),
		WithPrometheus(":0", "/metrics"),
		WithServerDisabled(),
	}

	allOpts := append(defaultOpts, opts...)

	recorder, err := New(allOpts...)
	if err != nil {
		t.Fatalf("TestingRecorder: create recorder: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.Shutdown(ctx); err != nil {
			t.Logf("TestingRecorder: shutdown warning: %v", err)
		}
	})

	return recorder
}

// TestingRecorderWithServer creates a started [Recorder] serving scrapes
// on an ephemeral port. [Recorder.ServerAddress] reports the bound
// address. Shutdown runs via t.Cleanup.
func TestingRecorderWithServer(t testing.TB, serviceName string, opts ...Option) *Recorder {
	t.Helper()

	defaultOpts := []Option{
		WithServiceName(serviceName),
		WithPrometheus(":0", "/metrics"),
	}

	allOpts := append(defaultOpts, opts...)

	recorder, err := New(allOpts...)
	if err != nil {
		t.Fatalf("TestingRecorderWithServer: create recorder: %v", err)
	}

	if err := recorder.Start(context.Background()); err != nil {
		t.Fatalf("TestingRecorderWithServer: start recorder: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.Shutdown(ctx); err != nil {
			t.Logf("TestingRecorderWithServer: shutdown warning: %v", err)
		}
	})

	return recorder
}

// WaitForMetricsServer waits until the metrics server accepts
// connections on address, or the timeout elapses.
func WaitForMetricsServer(t testing.TB, address string, timeout time.Duration) error {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", address, 100*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}

	return fmt.Errorf("%w after %v", ErrServerNotReady, timeout)
}
