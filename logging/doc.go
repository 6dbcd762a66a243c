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

// Package logging builds the slog loggers the engine runs on.
//
// Everything downstream consumes a plain *slog.Logger; this package only
// owns construction: handler selection (JSON, text, or colored console),
// level control, service identity attributes, and redaction of sensitive
// attribute keys.
//
//	cfg := logging.MustNew(
//	    logging.WithJSONHandler(),
//	    logging.WithLevel(logging.LevelDebug),
//	    logging.WithServiceName("orders"),
//	)
//	logger := cfg.Logger()
//
// The level can be changed at runtime through Config.SetLevel; handlers
// read it through a slog.LevelVar, so no reconfiguration is involved.
// Noop returns a logger that discards everything, for tests and for
// embedding in larger binaries that manage their own logging.
package logging
