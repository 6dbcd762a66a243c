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
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a Recorder under construction.
type Option func(*Recorder)

// WithMeterProvider supplies a custom OpenTelemetry meter provider. The
// Recorder will not manage its lifecycle: Shutdown leaves it running and
// provider options (WithPrometheus, WithOTLP, WithStdout) are ignored.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider registers the meter provider as the global
// OpenTelemetry default via otel.SetMeterProvider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) {
		r.registerGlobal = true
	}
}

// WithServiceName sets the service.name attribute on every sample.
func WithServiceName(name string) Option {
	return func(r *Recorder) {
		r.serviceName = name
		r.initCommonAttributes()
	}
}

// WithServiceVersion sets the service.version attribute on every sample.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) {
		r.serviceVersion = version
		r.initCommonAttributes()
	}
}

// WithExportInterval sets the export interval for the push-based
// providers (OTLP, stdout).
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) {
		r.exportInterval = interval
	}
}

// WithDurationBuckets overrides the request duration histogram
// boundaries, in seconds.
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		r.durationBuckets = buckets
	}
}

// WithSizeBuckets overrides the request/response size histogram
// boundaries, in bytes.
func WithSizeBuckets(buckets ...float64) Option {
	return func(r *Recorder) {
		r.sizeBuckets = buckets
	}
}

// WithServerDisabled turns off the automatic Prometheus scrape server.
// Serve [Recorder.Handler] from your own mux instead.
func WithServerDisabled() Option {
	return func(r *Recorder) {
		r.autoStartServer = false
	}
}

// WithStrictAddress makes the scrape server require its exact listen
// address instead of probing for a free port nearby.
func WithStrictAddress() Option {
	return func(r *Recorder) {
		r.strictAddr = true
	}
}

// WithMaxCustomMetrics caps how many distinct custom instruments can be
// created. The default is 1000.
func WithMaxCustomMetrics(maxLimit int) Option {
	return func(r *Recorder) {
		r.maxCustomMetrics = maxLimit
	}
}

// WithDisabled turns the Recorder into a no-op. Begin/Finish and custom
// metric calls all short-circuit.
func WithDisabled() Option {
	return func(r *Recorder) {
		r.enabled = false
	}
}

// WithEventHandler sets the handler for internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(r *Recorder) {
		r.eventHandler = handler
	}
}

// WithLogger routes internal operational events to the given logger.
// Convenience wrapper around [WithEventHandler].
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}

// WithPrometheus selects the Prometheus provider with the given scrape
// server address and endpoint path.
//
// Example:
//
//	recorder := metrics.MustNew(
//	    metrics.WithPrometheus(":9090", "/metrics"),
//	    metrics.WithServiceName("orders"),
//	)
func WithPrometheus(addr, path string) Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.providerSetCount++
		if addr != "" && !strings.HasPrefix(addr, ":") && !strings.Contains(addr, ":") {
			addr = ":" + addr
		}
		r.metricsAddr = addr
		if path != "" && !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		r.metricsPath = path
	}
}

// WithOTLP selects the OTLP HTTP provider pushing to endpoint. The
// exporter is created by [Recorder.Start].
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.providerSetCount++
		r.otlpEndpoint = endpoint
	}
}

// WithStdout selects the stdout provider. Development and debugging only.
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.providerSetCount++
	}
}

// WithExcludePaths excludes exact request paths from recording. Useful
// for health checks and the scrape endpoint itself.
func WithExcludePaths(paths ...string) Option {
	return func(r *Recorder) {
		r.pathFilter.addPaths(paths...)
	}
}

// WithExcludePrefixes excludes whole path hierarchies from recording,
// such as /debug/ or /internal/.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(r *Recorder) {
		r.pathFilter.addPrefixes(prefixes...)
	}
}

// WithExcludePatterns excludes paths matching the given regular
// expressions from recording. Invalid patterns surface as a configuration
// error from New.
func WithExcludePatterns(patterns ...string) Option {
	return func(r *Recorder) {
		for _, pattern := range patterns {
			compiled, err := regexp.Compile(pattern)
			if err != nil {
				r.validationErrors = append(r.validationErrors,
					fmt.Errorf("invalid exclude pattern %q: %w", pattern, err))
				continue
			}
			r.pathFilter.addPatterns(compiled)
		}
	}
}

// WithRecordHeaders records the named request headers as sample
// attributes under http.request.header.{name}. Sensitive headers
// (Authorization, Cookie, and similar) are silently dropped.
func WithRecordHeaders(headers ...string) Option {
	return func(r *Recorder) {
		filtered := make([]string, 0, len(headers))
		for _, h := range headers {
			if !sensitiveHeaders[strings.ToLower(h)] {
				filtered = append(filtered, h)
			}
		}
		r.recordHeaders = filtered
		r.recordHeadersLow = make([]string, len(filtered))
		for i, h := range filtered {
			r.recordHeadersLow[i] = strings.ToLower(h)
		}
	}
}
