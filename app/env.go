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

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vessel-dev/vessel/logging"
)

// EnvPrefix is the environment variable prefix for Vessel framework settings.
const EnvPrefix = "VESSEL_"

// Environment variable names recognized by [WithEnv] and [WithEnvPrefix].
const (
	// Core application settings
	EnvMode           = "ENV"             // Environment mode: "development" or "production"
	EnvServiceName    = "SERVICE_NAME"    // Service name for log metadata
	EnvServiceVersion = "SERVICE_VERSION" // Service version

	// Server settings
	EnvPort            = "PORT"             // Listen port (e.g., "8080")
	EnvHost            = "HOST"             // Listen host/interface (e.g., "127.0.0.1")
	EnvReadTimeout     = "READ_TIMEOUT"     // Request read timeout (e.g., "10s")
	EnvWriteTimeout    = "WRITE_TIMEOUT"    // Response write timeout (e.g., "10s")
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT" // Graceful shutdown timeout (e.g., "30s")
	EnvH2C             = "H2C"              // Cleartext HTTP/2: "true" or "false"

	// Logging settings
	EnvLogLevel  = "LOG_LEVEL"  // Log level: "debug", "info", "warn", "error"
	EnvLogFormat = "LOG_FORMAT" // Log format: "json", "text", or "console"
)

// envConfig holds parse errors encountered while applying overrides.
type envConfig struct {
	errors []error
}

// addError records a parsing error for later reporting.
func (e *envConfig) addError(envVar string, err error) {
	e.errors = append(e.errors, fmt.Errorf("invalid environment variable %s: %w", envVar, err))
}

// WithEnv enables environment variable overrides for framework configuration.
// Environment variables use the VESSEL_ prefix and take precedence over
// programmatic configuration; parse failures surface as validation errors
// from [New].
//
// Supported variables:
//
//	Core:
//	  VESSEL_ENV                - Environment mode: "development" or "production"
//	  VESSEL_SERVICE_NAME       - Service name for log metadata
//	  VESSEL_SERVICE_VERSION    - Service version
//
//	Server:
//	  VESSEL_PORT               - Listen port (e.g., "8080")
//	  VESSEL_HOST               - Listen host/interface (e.g., "127.0.0.1")
//	  VESSEL_READ_TIMEOUT       - Request read timeout (e.g., "10s")
//	  VESSEL_WRITE_TIMEOUT      - Response write timeout (e.g., "10s")
//	  VESSEL_SHUTDOWN_TIMEOUT   - Graceful shutdown timeout (e.g., "30s")
//	  VESSEL_H2C                - Cleartext HTTP/2: "true" or "false"
//
//	Logging:
//	  VESSEL_LOG_LEVEL          - Log level: "debug", "info", "warn", "error"
//	  VESSEL_LOG_FORMAT         - Log format: "json", "text", or "console"
//
// Logging variables extend the [WithLogging] configuration; a logger
// injected through [WithLogger] is used as-is and ignores them.
//
// Example:
//
//	export VESSEL_ENV=production
//	export VESSEL_PORT=3000
//	export VESSEL_LOG_LEVEL=warn
//
//	app := app.MustNew(
//	    app.WithServiceName("orders-api"),
//	    app.WithEnv(),  // Applies environment overrides
//	)
func WithEnv() Option {
	return WithEnvPrefix(EnvPrefix)
}

// WithEnvPrefix enables environment variable overrides with a custom prefix.
// Use this when deploying multiple Vessel services that need different
// configurations.
//
// The prefix is prepended to the standard variable names. For example, with
// prefix "ORDERS_":
//   - ORDERS_ENV instead of VESSEL_ENV
//   - ORDERS_PORT instead of VESSEL_PORT
//
// Example:
//
//	// Service 1: uses ORDERS_ENV, ORDERS_PORT, etc.
//	app.MustNew(
//	    app.WithServiceName("orders-api"),
//	    app.WithEnvPrefix("ORDERS_"),
//	)
//
//	// Service 2: uses PAYMENTS_ENV, PAYMENTS_PORT, etc.
//	app.MustNew(
//	    app.WithServiceName("payments-api"),
//	    app.WithEnvPrefix("PAYMENTS_"),
//	)
func WithEnvPrefix(prefix string) Option {
	return func(c *config) {
		env := &envConfig{}
		applyEnvOverrides(c, prefix, env)

		// Collect errors for the validation phase
		if len(env.errors) > 0 {
			c.envErrors = append(c.envErrors, env.errors...)
		}
	}
}

// applyEnvOverrides applies environment variable values to the configuration.
func applyEnvOverrides(c *config, prefix string, env *envConfig) {
	// Core settings
	applyEnvString(prefix, EnvMode, &c.environment)
	applyEnvString(prefix, EnvServiceName, &c.serviceName)
	applyEnvString(prefix, EnvServiceVersion, &c.serviceVersion)

	// Server settings
	applyEnvInt(prefix, EnvPort, &c.server.port, env)
	applyEnvString(prefix, EnvHost, &c.server.host)
	applyEnvDuration(prefix, EnvReadTimeout, &c.server.readTimeout, env)
	applyEnvDuration(prefix, EnvWriteTimeout, &c.server.writeTimeout, env)
	applyEnvDuration(prefix, EnvShutdownTimeout, &c.server.shutdownTimeout, env)
	if h2c, isSet := applyEnvBool(prefix, EnvH2C); isSet {
		c.server.h2c = h2c
	}

	// Logging settings
	applyEnvLogging(c, prefix)
}

// applyEnvString sets a string value from environment if present.
func applyEnvString(prefix, key string, target *string) {
	if v := os.Getenv(prefix + key); v != "" {
		*target = v
	}
}

// applyEnvInt sets an int value from environment if present.
func applyEnvInt(prefix, key string, target *int, env *envConfig) {
	fullKey := prefix + key
	if v := os.Getenv(fullKey); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			env.addError(fullKey, err)
			return
		}
		*target = parsed
	}
}

// applyEnvDuration sets a duration value from environment if present.
func applyEnvDuration(prefix, key string, target *time.Duration, env *envConfig) {
	fullKey := prefix + key
	if v := os.Getenv(fullKey); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			env.addError(fullKey, err)
			return
		}
		*target = parsed
	}
}

// applyEnvBool parses a boolean value from environment.
func applyEnvBool(prefix, key string) (value, isSet bool) {
	v := os.Getenv(prefix + key)
	if v == "" {
		return false, false
	}
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes", true
}

// applyEnvLogging appends logging options derived from environment
// variables. They land after programmatic options, so the environment wins
// when both set the same knob.
func applyEnvLogging(c *config, prefix string) {
	level := os.Getenv(prefix + EnvLogLevel)
	format := os.Getenv(prefix + EnvLogFormat)

	if level == "" && format == "" {
		return
	}

	if level != "" {
		var logLevel logging.Level
		switch strings.ToLower(level) {
		case "debug":
			logLevel = logging.LevelDebug
		case "info":
			logLevel = logging.LevelInfo
		case "warn", "warning":
			logLevel = logging.LevelWarn
		case "error":
			logLevel = logging.LevelError
		default:
			logLevel = logging.LevelInfo
		}
		c.loggingOpts = append(c.loggingOpts, logging.WithLevel(logLevel))
	}

	if format != "" {
		switch strings.ToLower(format) {
		case "json":
			c.loggingOpts = append(c.loggingOpts, logging.WithJSONHandler())
		case "text":
			c.loggingOpts = append(c.loggingOpts, logging.WithTextHandler())
		case "console":
			c.loggingOpts = append(c.loggingOpts, logging.WithConsoleHandler())
		}
	}
}
