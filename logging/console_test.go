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

package logging

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newConsoleLogger(t *testing.T, opts ...Option) (*Config, *bytes.Buffer) {
	t.Helper()

	buf := &bytes.Buffer{}
	cfg := MustNew(append([]Option{WithConsoleHandler(), WithOutput(buf)}, opts...)...)

	return cfg, buf
}

func TestConsoleHandler_RendersRecord(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)
	cfg.Logger().Info("server started", "port", 8080)

	out := buf.String()
	assert.Contains(t, out, "server started")
	assert.Contains(t, out, "port=8080")
	assert.Contains(t, out, "INFO")
	assert.Contains(t, out, colorGreen)
}

func TestConsoleHandler_ErrorUsesRed(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)
	cfg.Logger().Error("boom")

	assert.Contains(t, buf.String(), colorRed)
}

func TestConsoleHandler_LevelGating(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)

	cfg.Logger().Debug("hidden")
	assert.Zero(t, buf.Len())

	require.NoError(t, cfg.SetLevel(LevelDebug))
	cfg.Logger().Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestConsoleHandler_GroupsFlattenToDottedKeys(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)

	cfg.Logger().WithGroup("http").Info("handled", "status", 200)
	cfg.Logger().WithGroup("a").WithGroup("b").Info("nested", "x", 1)

	out := buf.String()
	assert.Contains(t, out, "http.status=200")
	assert.Contains(t, out, "a.b.x=1")
}

func TestConsoleHandler_InlineGroupAttr(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)

	cfg.Logger().Info("request",
		slog.Group("req", slog.String("method", "GET"), slog.Int("size", 42)),
	)

	out := buf.String()
	assert.Contains(t, out, "req.method=GET")
	assert.Contains(t, out, "req.size=42")
}

func TestConsoleHandler_EmptyGroupKeyInlines(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)

	cfg.Logger().Info("request", slog.Group("", slog.String("method", "GET")))

	assert.Contains(t, buf.String(), "method=GET")
}

func TestConsoleHandler_AttrsKeepGroupFromAddTime(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)

	logger := cfg.Logger().With("service", "api").WithGroup("db").With("driver", "pg")
	logger.Info("query", "ms", 12)

	out := buf.String()
	assert.Contains(t, out, "service=api")
	assert.Contains(t, out, "db.driver=pg")
	assert.Contains(t, out, "db.ms=12")
	assert.NotContains(t, out, "db.service")
}

func TestConsoleHandler_RedactsSensitiveKeys(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)
	cfg.Logger().Info("auth", "password", "hunter2")

	out := buf.String()
	assert.Contains(t, out, "password=***REDACTED***")
	assert.NotContains(t, out, "hunter2")
}

func TestConsoleHandler_RedactsStoredAttrs(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)
	cfg.Logger().With("token", "tok-123").Info("auth")

	out := buf.String()
	assert.Contains(t, out, "token=***REDACTED***")
	assert.NotContains(t, out, "tok-123")
}

func TestConsoleHandler_Source(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t, WithSource(true))
	cfg.Logger().Info("here")

	assert.Contains(t, buf.String(), "console_test.go:")
}

func TestConsoleHandler_ValueKinds(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)

	at := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	cfg.Logger().Info("kinds",
		"ok", true,
		"ratio", 3.5,
		"took", 1500*time.Millisecond,
		"at", at,
	)

	out := buf.String()
	assert.Contains(t, out, "ok=true")
	assert.Contains(t, out, "ratio=3.5")
	assert.Contains(t, out, "took=1.5s")
	assert.Contains(t, out, "at=2024-03-01T10:30:00Z")
}

func TestConsoleHandler_ResolvesLogValuer(t *testing.T) {
	t.Parallel()

	cfg, buf := newConsoleLogger(t)
	cfg.Logger().Info("resolved", "v", lazyValue{})

	assert.Contains(t, buf.String(), "v=computed")
}

type lazyValue struct{}

func (lazyValue) LogValue() slog.Value {
	return slog.StringValue("computed")
}
