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
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/vessel-dev/vessel/metrics"

// initializeProvider wires the provider selected at construction time.
// The OTLP exporter opens a network connection, so its creation is
// deferred to Start; the other providers are ready when New returns.
func (r *Recorder) initializeProvider() error {
	if !r.enabled {
		return nil
	}

	if r.customMeterProvider {
		if r.meterProvider == nil {
			return fmt.Errorf("custom meter provider is nil")
		}
		r.emitDebug("Using custom user-provided meter provider")
		r.meter = r.meterProvider.Meter(meterName)

		return r.initializeMetrics()
	}

	switch r.provider {
	case PrometheusProvider:
		return r.initPrometheusProvider()
	case OTLPProvider:
		r.providerDeferred.Store(true)
		return nil
	case StdoutProvider:
		return r.initStdoutProvider()
	default:
		return fmt.Errorf("unsupported metrics provider: %s", r.provider)
	}
}

// initPrometheusProvider builds the Prometheus pipeline on a private
// registry so multiple Recorders do not collide on the global one. The
// scrape server itself is started by Start.
func (r *Recorder) initPrometheusProvider() error {
	r.prometheusRegistry = promclient.NewRegistry()

	exporter, err := prometheus.New(
		prometheus.WithRegisterer(r.prometheusRegistry),
	)
	if err != nil {
		return fmt.Errorf("create Prometheus exporter: %w", err)
	}

	r.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)

	r.prometheusHandler = promhttp.HandlerFor(
		r.prometheusRegistry,
		promhttp.HandlerOpts{},
	)

	r.registerGlobalProvider("prometheus")
	r.meter = r.meterProvider.Meter(meterName)

	return r.initializeMetrics()
}

// initOTLPProvider creates the OTLP HTTP exporter and its periodic
// reader. Called from Start with the lifecycle context.
func (r *Recorder) initOTLPProvider(ctx context.Context) error {
	var opts []otlpmetrichttp.Option

	if r.otlpEndpoint != "" {
		endpoint := r.otlpEndpoint
		insecure := false

		if strings.HasPrefix(endpoint, "http://") {
			endpoint = strings.TrimPrefix(endpoint, "http://")
			insecure = true
		} else if strings.HasPrefix(endpoint, "https://") {
			endpoint = strings.TrimPrefix(endpoint, "https://")
		}

		// The exporter wants host:port without a path.
		if idx := strings.Index(endpoint, "/"); idx != -1 {
			endpoint = endpoint[:idx]
		}

		opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		if insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create OTLP exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(r.exportInterval),
	)

	r.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)

	r.registerGlobalProvider("otlp")
	r.meter = r.meterProvider.Meter(meterName)

	return r.initializeMetrics()
}

func (r *Recorder) initStdoutProvider() error {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return fmt.Errorf("create stdout exporter: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(
		exporter,
		sdkmetric.WithInterval(r.exportInterval),
	)

	r.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)

	r.registerGlobalProvider("stdout")
	r.meter = r.meterProvider.Meter(meterName)

	return r.initializeMetrics()
}

func (r *Recorder) registerGlobalProvider(provider string) {
	if r.registerGlobal {
		r.emitDebug("Setting global OpenTelemetry meter provider", "provider", provider)
		otel.SetMeterProvider(r.meterProvider)
	} else {
		r.emitDebug("Skipping global meter provider registration", "provider", provider)
	}
}

// startMetricsServer starts the dedicated scrape server. In flexible
// mode (the default) it probes upward from the configured address until
// it finds a free port; WithStrictAddress fails instead. The server runs
// until ctx is cancelled or Shutdown is called.
func (r *Recorder) startMetricsServer(ctx context.Context) {
	if r.prometheusHandler == nil {
		return
	}

	if r.isShuttingDown.Load() {
		r.emitDebug("Not starting metrics server: shutdown in progress")
		return
	}

	var (
		ln         net.Listener
		actualAddr string
		err        error
	)

	originalAddr := r.metricsAddr

	if r.strictAddr {
		ln, err = net.Listen("tcp", r.metricsAddr)
		if err != nil {
			r.emitError("Failed to start metrics server on required address (strict mode)",
				"error", err, "address", r.metricsAddr)
			return
		}
		actualAddr = r.metricsAddr
	} else {
		ln, actualAddr, err = findAvailableListener(r.metricsAddr)
		if err != nil {
			r.emitError("Failed to find available address for metrics server",
				"error", err, "preferred_address", r.metricsAddr)
			return
		}
	}

	r.metricsAddr = actualAddr

	mux := http.NewServeMux()
	mux.Handle(r.metricsPath, r.prometheusHandler)

	server := &http.Server{
		Addr:         actualAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	r.serverMu.Lock()
	r.metricsServer = server
	r.serverMu.Unlock()

	metricsPath := r.metricsPath
	done := make(chan struct{})

	go func() {
		defer close(done)

		if actualAddr != originalAddr {
			r.emitWarning("Metrics server using different address than requested",
				"actual_address", actualAddr+metricsPath,
				"requested_address", originalAddr,
				"path", metricsPath,
				"reason", "requested address was unavailable",
				"recommendation", "use WithStrictAddress() to fail instead of auto-discovering")
		} else {
			r.emitInfo("Metrics server starting",
				"address", actualAddr+metricsPath,
				"path", metricsPath)
		}

		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			r.serverMu.Lock()
			if r.metricsServer == server {
				r.metricsServer = nil
			}
			r.serverMu.Unlock()
			r.emitError("Metrics server error", "error", err)
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}

		r.serverMu.Lock()
		srv := r.metricsServer
		r.metricsServer = nil
		r.serverMu.Unlock()

		if srv == nil {
			return
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			r.emitError("Error shutting down metrics server", "error", err)
		}
	}()
}

// stopMetricsServer stops the dedicated metrics server.
func (r *Recorder) stopMetricsServer(ctx context.Context) error {
	r.serverMu.Lock()
	server := r.metricsServer
	r.metricsServer = nil
	r.serverMu.Unlock()

	if server == nil {
		return nil
	}

	r.emitDebug("Shutting down metrics server")
	if err := server.Shutdown(ctx); err != nil {
		r.emitError("Error shutting down metrics server", "error", err)
		return fmt.Errorf("metrics server shutdown: %w", err)
	}
	r.emitDebug("Metrics server shut down successfully")

	return nil
}

// findAvailableListener opens a listener on the preferred address, or
// failing that on one of the next 100 ports. Port 0 asks the kernel for
// an ephemeral port; the returned address always reflects the port
// actually bound.
func findAvailableListener(preferred string) (net.Listener, string, error) {
	host, portStr, err := net.SplitHostPort(preferred)
	if err != nil {
		// Bare port number without a colon.
		host, portStr = "", strings.TrimPrefix(preferred, ":")
	}

	portNum, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, "", fmt.Errorf("invalid metrics address: %s", preferred)
	}

	for i := range 100 {
		addr := net.JoinHostPort(host, strconv.Itoa(portNum+i))

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			continue
		}

		if portNum == 0 {
			if tcp, ok := ln.Addr().(*net.TCPAddr); ok {
				addr = net.JoinHostPort(host, strconv.Itoa(tcp.Port))
			}
		}

		return ln, addr, nil
	}

	return nil, "", fmt.Errorf("no available port found starting from %s", preferred)
}
