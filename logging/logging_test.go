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
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []Option
	}{
		{
			name: "default config",
			opts: nil,
		},
		{
			name: "with JSON handler",
			opts: []Option{WithJSONHandler()},
		},
		{
			name: "with text handler",
			opts: []Option{WithTextHandler()},
		},
		{
			name: "with console handler",
			opts: []Option{WithConsoleHandler()},
		},
		{
			name: "with debug level",
			opts: []Option{WithLevel(LevelDebug)},
		},
		{
			name: "with service identity",
			opts: []Option{
				WithServiceName("orders"),
				WithServiceVersion("v1.2.0"),
				WithEnvironment("staging"),
			},
		},
		{
			name: "with source",
			opts: []Option{WithSource(true)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := New(tt.opts...)
			require.NoError(t, err)
			require.NotNil(t, cfg)
			assert.NotNil(t, cfg.Logger())
		})
	}
}

func TestNew_ValidationErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name:    "nil output",
			opts:    []Option{WithOutput(nil)},
			wantErr: ErrNilOutput,
		},
		{
			name:    "nil custom logger",
			opts:    []Option{WithCustomLogger(nil)},
			wantErr: ErrNilLogger,
		},
		{
			name:    "unknown handler type",
			opts:    []Option{WithHandlerType("xml")},
			wantErr: ErrInvalidHandler,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := New(tt.opts...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, cfg)
		})
	}
}

func TestNew_UnknownHandlerTypeNamesIt(t *testing.T) {
	t.Parallel()

	_, err := New(WithHandlerType("xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"xml"`)
}

func TestMustNew_PanicsOnInvalidConfig(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustNew(WithOutput(nil))
	})
}

func TestNew_DefaultLevelIsInfo(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cfg := MustNew(WithOutput(buf))

	cfg.Logger().Debug("hidden")
	cfg.Logger().Info("visible")

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0].Level)
	assert.Equal(t, "visible", entries[0].Message)
}

func TestNew_TextHandlerOutput(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cfg := MustNew(WithTextHandler(), WithOutput(buf))

	cfg.Logger().Info("ready", "port", 8080)

	out := buf.String()
	assert.Contains(t, out, "msg=ready")
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "port=8080")
}

func TestConfig_SetLevel(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cfg := MustNew(WithOutput(buf))

	cfg.Logger().Debug("before")
	require.NoError(t, cfg.SetLevel(LevelDebug))
	cfg.Logger().Debug("after")

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "after", entries[0].Message)
	assert.Equal(t, LevelDebug, cfg.Level())
}

func TestConfig_SetLevel_CustomLoggerRejected(t *testing.T) {
	t.Parallel()

	cfg := MustNew(WithCustomLogger(Noop()))

	err := cfg.SetLevel(LevelDebug)
	assert.ErrorIs(t, err, ErrCannotChangeLevel)
}

func TestConfig_CustomLoggerAdopted(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	custom := slog.New(slog.NewTextHandler(buf, nil))

	cfg := MustNew(WithCustomLogger(custom))
	assert.Same(t, custom, cfg.Logger())
}

func TestConfig_RedactsSensitiveKeys(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cfg := MustNew(WithOutput(buf))

	cfg.Logger().Info("login",
		"username", "ada",
		"password", "hunter2",
		"token", "tok-123",
		"api_key", "key-456",
	)

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	attrs := entries[0].Attrs
	assert.Equal(t, "ada", attrs["username"])
	assert.Equal(t, "***REDACTED***", attrs["password"])
	assert.Equal(t, "***REDACTED***", attrs["token"])
	assert.Equal(t, "***REDACTED***", attrs["api_key"])
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestConfig_CustomReplaceAttrRunsAfterRedaction(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cfg := MustNew(
		WithOutput(buf),
		WithReplaceAttr(func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == "color" {
				return slog.String("color", "custom")
			}
			return a
		}),
	)

	cfg.Logger().Info("paint", "color", "blue", "password", "hunter2")

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "custom", entries[0].Attrs["color"])
	assert.Equal(t, "***REDACTED***", entries[0].Attrs["password"])
}

func TestConfig_ServiceAttrsAttached(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cfg := MustNew(
		WithOutput(buf),
		WithServiceName("orders"),
		WithServiceVersion("v1.2.0"),
		WithEnvironment("staging"),
	)

	cfg.Logger().Info("up")

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "orders", entries[0].Attrs["service"])
	assert.Equal(t, "v1.2.0", entries[0].Attrs["version"])
	assert.Equal(t, "staging", entries[0].Attrs["env"])
	assert.Equal(t, "orders", cfg.ServiceName())
}

func TestConfig_ServiceAttrsOmittedWhenUnset(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cfg := MustNew(WithOutput(buf))

	cfg.Logger().Info("up")

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Attrs, "service")
	assert.NotContains(t, entries[0].Attrs, "version")
	assert.NotContains(t, entries[0].Attrs, "env")
}

func TestConfig_With(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	cfg := MustNew(WithOutput(buf))

	cfg.With("component", "router").Info("ready")

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "router", entries[0].Attrs["component"])
}

func TestWithGlobalLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	buf := &bytes.Buffer{}
	MustNew(WithOutput(buf), WithGlobalLogger())

	slog.Info("through the default")

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "through the default", entries[0].Message)
}

func TestNoop(t *testing.T) {
	t.Parallel()

	logger := Noop()
	require.NotNil(t, logger)
	assert.False(t, logger.Enabled(context.Background(), LevelError))

	// Must not panic.
	logger.Info("ignored", "k", "v")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{input: "debug", want: LevelDebug},
		{input: "DEBUG", want: LevelDebug},
		{input: "info", want: LevelInfo},
		{input: " Warn ", want: LevelWarn},
		{input: "warning", want: LevelWarn},
		{input: "error", want: LevelError},
		{input: "fatal", want: LevelInfo, wantErr: true},
		{input: "", want: LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidLevel)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseHandlerType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    HandlerType
		wantErr bool
	}{
		{input: "json", want: JSONHandler},
		{input: "JSON", want: JSONHandler},
		{input: "text", want: TextHandler},
		{input: " console ", want: ConsoleHandler},
		{input: "logfmt", want: JSONHandler, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, err := ParseHandlerType(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidHandler)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewTestLogger(t *testing.T) {
	t.Parallel()

	logger, buf := NewTestLogger()

	logger.Debug("first", "step", 1)
	logger.Info("second", "step", 2)

	entries, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "DEBUG", entries[0].Level)
	assert.Equal(t, "first", entries[0].Message)
	assert.EqualValues(t, 1, entries[0].Attrs["step"])
	assert.Equal(t, "INFO", entries[1].Level)
	assert.Equal(t, "second", entries[1].Message)
}

func TestParseJSONLogEntries_DoesNotConsumeBuffer(t *testing.T) {
	t.Parallel()

	logger, buf := NewTestLogger()
	logger.Info("kept")

	first, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)
	second, err := ParseJSONLogEntries(buf)
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
	assert.Positive(t, buf.Len())
}

func TestParseJSONLogEntries_RejectsMalformedLine(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBufferString("not json\n")

	_, err := ParseJSONLogEntries(buf)
	assert.Error(t, err)
}
