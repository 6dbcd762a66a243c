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

// Package tracing records distributed traces for requests through
// OpenTelemetry.
//
// A [Tracer] owns the tracer provider and the per-request span
// lifecycle: it extracts W3C trace context from incoming headers, makes
// the sampling decision, opens a server span named "METHOD path", and
// renames it to the matched route pattern when the request finishes.
// Four providers are supported: noop (the default, nothing exported),
// stdout (development), OTLP over gRPC, and OTLP over HTTP.
//
// The Tracer implements the app package's request observer contract, so
// it can be attached to an application directly:
//
//	tracer := tracing.MustNew(
//	    tracing.WithServiceName("orders"),
//	    tracing.WithOTLP("localhost:4317", tracing.OTLPInsecure()),
//	    tracing.WithSampleRate(0.1),
//	    tracing.WithExcludePaths("/health"),
//	)
//
//	a := app.MustNew(app.WithObserver(tracer))
//
// By default the Tracer does not touch the global OpenTelemetry tracer
// provider; use [WithGlobalTracerProvider] to register it globally. This
// keeps multiple Tracer instances able to coexist in one process.
package tracing
