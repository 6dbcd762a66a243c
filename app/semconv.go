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

package app

// Field names for request-scoped log records. They follow OpenTelemetry
// semantic conventions where one exists, so records correlate with spans
// and metrics in standard tooling.

// HTTP fields.
const (
	fieldHTTPMethod = "http.method"
	fieldHTTPRoute  = "http.route"
	fieldHTTPTarget = "http.target"
)

// Trace correlation fields.
const (
	fieldTraceID = "trace_id"
	fieldSpanID  = "span_id"
)

// Request identification.
const (
	fieldRequestID = "req.id"
)
