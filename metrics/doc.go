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

// Package metrics records request and custom application metrics through
// OpenTelemetry.
//
// A [Recorder] owns the meter provider, the built-in request instruments
// (duration, count, active, sizes, errors), and any custom counters,
// histograms, and gauges created at runtime. Three exporters are
// supported: Prometheus (pull, the default, with an optional dedicated
// scrape server), OTLP over HTTP (push), and stdout (development).
//
// The Recorder implements the app package's request observer contract, so
// it can be attached to an application directly:
//
//	recorder := metrics.MustNew(
//	    metrics.WithServiceName("orders"),
//	    metrics.WithPrometheus(":9090", "/metrics"),
//	    metrics.WithExcludePaths("/health"),
//	)
//
//	a := app.MustNew(app.WithObserver(recorder))
//
// By default the Recorder does not touch the global OpenTelemetry meter
// provider; use [WithGlobalMeterProvider] to register it globally. This
// keeps multiple Recorder instances able to coexist in one process.
package metrics
