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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// HandlerType selects the log output format.
type HandlerType string

const (
	// JSONHandler outputs structured JSON logs, one object per line.
	JSONHandler HandlerType = "json"
	// TextHandler outputs key=value text logs.
	TextHandler HandlerType = "text"
	// ConsoleHandler outputs human-readable colored logs for development.
	ConsoleHandler HandlerType = "console"
)

// Level is the slog level type, re-exported so callers can configure
// logging without importing log/slog.
type Level = slog.Level

const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// redactedKeys are attribute keys whose values never reach the output.
var redactedKeys = map[string]struct{}{
	"password":      {},
	"token":         {},
	"secret":        {},
	"api_key":       {},
	"authorization": {},
}

// Config holds logger construction settings and the logger built from
// them. Build once with New, then hand Config.Logger() around.
type Config struct {
	handlerType HandlerType
	output      io.Writer
	level       *slog.LevelVar

	serviceName    string
	serviceVersion string
	environment    string

	addSource   bool
	replaceAttr func(groups []string, a slog.Attr) slog.Attr

	customLogger   *slog.Logger
	useCustom      bool
	registerGlobal bool

	logger *slog.Logger
}

// Option configures a logger under construction.
type Option func(*Config)

func defaultConfig() *Config {
	level := &slog.LevelVar{}
	level.Set(LevelInfo)

	return &Config{
		handlerType: JSONHandler,
		output:      os.Stdout,
		level:       level,
	}
}

// New builds a logger from the options. By default it logs JSON to
// stdout at info level and does not touch the global slog default; use
// WithGlobalLogger to register it globally.
//
// Example:
//
//	cfg, err := logging.New(
//	    logging.WithTextHandler(),
//	    logging.WithLevel(logging.LevelDebug),
//	    logging.WithServiceName("orders"),
//	)
func New(opts ...Option) (*Config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.build(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// MustNew builds a logger or panics. Intended for main functions where a
// broken logging setup should stop the process.
func MustNew(opts ...Option) *Config {
	cfg, err := New(opts...)
	if err != nil {
		panic("logging: " + err.Error())
	}

	return cfg
}

func (c *Config) validate() error {
	if c.output == nil {
		return ErrNilOutput
	}
	if c.useCustom && c.customLogger == nil {
		return ErrNilLogger
	}

	return nil
}

func (c *Config) build() error {
	if c.useCustom {
		c.logger = c.customLogger
		if c.registerGlobal {
			slog.SetDefault(c.logger)
		}

		return nil
	}

	opts := &slog.HandlerOptions{
		Level:       c.level,
		AddSource:   c.addSource,
		ReplaceAttr: c.buildReplaceAttr(),
	}

	var handler slog.Handler
	switch c.handlerType {
	case JSONHandler:
		handler = slog.NewJSONHandler(c.output, opts)
	case TextHandler:
		handler = slog.NewTextHandler(c.output, opts)
	case ConsoleHandler:
		handler = newConsoleHandler(c.output, opts)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidHandler, c.handlerType)
	}

	c.logger = slog.New(handler)
	if attrs := c.serviceAttrs(); len(attrs) > 0 {
		c.logger = c.logger.With(attrs...)
	}
	if c.registerGlobal {
		slog.SetDefault(c.logger)
	}

	return nil
}

// buildReplaceAttr chains sensitive-key redaction in front of any
// user-provided replacer.
func (c *Config) buildReplaceAttr() func(groups []string, a slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if _, ok := redactedKeys[a.Key]; ok {
			return slog.String(a.Key, "***REDACTED***")
		}
		if c.replaceAttr != nil {
			return c.replaceAttr(groups, a)
		}

		return a
	}
}

// serviceAttrs returns the identity attributes attached to every record.
// Unset fields contribute nothing, so the default logger stays clean.
func (c *Config) serviceAttrs() []any {
	var attrs []any
	if c.serviceName != "" {
		attrs = append(attrs, "service", c.serviceName)
	}
	if c.serviceVersion != "" {
		attrs = append(attrs, "version", c.serviceVersion)
	}
	if c.environment != "" {
		attrs = append(attrs, "env", c.environment)
	}

	return attrs
}

// Logger returns the built slog logger.
func (c *Config) Logger() *slog.Logger {
	return c.logger
}

// With returns the built logger extended with additional attributes.
func (c *Config) With(args ...any) *slog.Logger {
	return c.logger.With(args...)
}

// SetLevel changes the minimum log level at runtime. The handlers read
// the level through a slog.LevelVar, so the change is immediate and safe
// under concurrency. Not supported with a custom logger.
func (c *Config) SetLevel(level Level) error {
	if c.useCustom {
		return ErrCannotChangeLevel
	}
	c.level.Set(level)

	return nil
}

// Level returns the current minimum log level.
func (c *Config) Level() Level {
	return c.level.Level()
}

// ServiceName returns the configured service name.
func (c *Config) ServiceName() string {
	return c.serviceName
}

// Noop returns a logger that discards every record.
func Noop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel converts a level name into a Level. It accepts debug, info,
// warn, warning, and error in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// ParseHandlerType converts a format name into a HandlerType.
func ParseHandlerType(s string) (HandlerType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return JSONHandler, nil
	case "text":
		return TextHandler, nil
	case "console":
		return ConsoleHandler, nil
	default:
		return JSONHandler, fmt.Errorf("%w: %q", ErrInvalidHandler, s)
	}
}

// WithHandlerType sets the logging handler type.
func WithHandlerType(t HandlerType) Option {
	return func(c *Config) { c.handlerType = t }
}

// WithJSONHandler selects JSON structured logging (the default).
func WithJSONHandler() Option {
	return WithHandlerType(JSONHandler)
}

// WithTextHandler selects key=value text logging.
func WithTextHandler() Option {
	return WithHandlerType(TextHandler)
}

// WithConsoleHandler selects human-readable console logging.
func WithConsoleHandler() Option {
	return WithHandlerType(ConsoleHandler)
}

// WithOutput sets the output writer.
func WithOutput(w io.Writer) Option {
	return func(c *Config) { c.output = w }
}

// WithLevel sets the minimum log level.
func WithLevel(l Level) Option {
	return func(c *Config) { c.level.Set(l) }
}

// WithServiceName attaches a service attribute to every record.
func WithServiceName(name string) Option {
	return func(c *Config) { c.serviceName = name }
}

// WithServiceVersion attaches a version attribute to every record.
func WithServiceVersion(version string) Option {
	return func(c *Config) { c.serviceVersion = version }
}

// WithEnvironment attaches an env attribute to every record.
func WithEnvironment(env string) Option {
	return func(c *Config) { c.environment = env }
}

// WithSource adds source file and line to every record.
func WithSource(enabled bool) Option {
	return func(c *Config) { c.addSource = enabled }
}

// WithReplaceAttr sets a custom attribute replacer. Sensitive-key
// redaction runs first; the custom replacer sees what's left.
func WithReplaceAttr(fn func(groups []string, a slog.Attr) slog.Attr) Option {
	return func(c *Config) { c.replaceAttr = fn }
}

// WithCustomLogger adopts an externally built slog.Logger. Handler and
// level options are ignored in that case.
func WithCustomLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.customLogger = l
		c.useCustom = true
	}
}

// WithGlobalLogger registers the built logger as the slog default.
func WithGlobalLogger() Option {
	return func(c *Config) { c.registerGlobal = true }
}
