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
	"log/slog"
	"time"

	"github.com/vessel-dev/vessel/codec"
	"github.com/vessel-dev/vessel/errors"
	"github.com/vessel-dev/vessel/logging"
	"github.com/vessel-dev/vessel/router"
)

// Option configures an App during New.
type Option func(*config)

// WithServiceName sets the service name used in log and observability
// metadata. An empty name fails validation.
func WithServiceName(name string) Option {
	return func(c *config) {
		c.serviceName = name
	}
}

// WithServiceVersion sets the service version used in log and
// observability metadata. An empty version fails validation.
func WithServiceVersion(version string) Option {
	return func(c *config) {
		c.serviceVersion = version
	}
}

// WithEnvironment sets the environment mode, "development" or
// "production".
func WithEnvironment(env string) Option {
	return func(c *config) {
		c.environment = env
	}
}

// WithLogger adopts an externally built logger as the app's base logger.
// It wins over WithLogging, and environment logging overrides do not apply
// to it.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithLogging builds the app logger through the logging package with the
// service identity attached. Without WithLogging or WithLogger the app
// logs nothing.
//
// Example:
//
//	app.New(
//	    app.WithServiceName("orders-api"),
//	    app.WithLogging(logging.WithJSONHandler(), logging.WithLevel(logging.LevelDebug)),
//	)
func WithLogging(opts ...logging.Option) Option {
	return func(c *config) {
		c.loggingOpts = append(c.loggingOpts, opts...)
	}
}

// WithErrorFormatter sets the formatter for error responses. The default
// is errors.Simple, the flat {"message": ...} convention.
//
// Example:
//
//	app.New(app.WithErrorFormatter(errors.NewRFC9457("https://api.example.com/problems")))
func WithErrorFormatter(formatter errors.Formatter) Option {
	return func(c *config) {
		c.formatter = formatter
	}
}

// WithCodecs sets the codec registry used to decode request bodies and
// encode structured response values. Without it, requests and responses
// fall back to their built-in JSON and XML handling.
//
// Example:
//
//	app.New(app.WithCodecs(codecs.New()))
func WithCodecs(registry *codec.Registry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

// WithRouterOptions passes options through to the underlying router.
// Multiple calls accumulate.
func WithRouterOptions(opts ...router.Option) Option {
	return func(c *config) {
		c.routerOpts = append(c.routerOpts, opts...)
	}
}

// WithObserver registers a request observer. Observers run in registration
// order on request start and end; metrics.Recorder and tracing.Tracer
// plug in directly.
//
// Example:
//
//	recorder := metrics.MustNew(metrics.WithPrometheus(":9090", "/metrics"))
//	tracer := tracing.MustNew(tracing.WithOTLP("localhost:4317"))
//	app.New(
//	    app.WithObserver(recorder),
//	    app.WithObserver(tracer),
//	)
func WithObserver(obs Observer) Option {
	return func(c *config) {
		if obs != nil {
			c.observers = append(c.observers, obs)
		}
	}
}

// ServerOption configures the settings ListenAndServe hands to the
// net/http bridge.
type ServerOption func(*serverConfig)

// WithHost sets the listen interface used when ListenAndServe is called
// with an empty address.
func WithHost(host string) ServerOption {
	return func(sc *serverConfig) {
		sc.host = host
	}
}

// WithPort sets the listen port used when ListenAndServe is called with an
// empty address. Port 0 asks the kernel for a free port.
func WithPort(port int) ServerOption {
	return func(sc *serverConfig) {
		sc.port = port
	}
}

// WithReadTimeout sets how long the server may take to read an entire
// request, body included.
func WithReadTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.readTimeout = d
	}
}

// WithWriteTimeout sets how long the server may take to write the
// response.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.writeTimeout = d
	}
}

// WithIdleTimeout sets how long a keep-alive connection may sit idle.
func WithIdleTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.idleTimeout = d
	}
}

// WithReadHeaderTimeout sets how long the server may take to read request
// headers.
func WithReadHeaderTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.readHeaderTimeout = d
	}
}

// WithMaxHeaderBytes caps the size of request headers.
func WithMaxHeaderBytes(n int) ServerOption {
	return func(sc *serverConfig) {
		sc.maxHeaderBytes = n
	}
}

// WithShutdownTimeout bounds graceful shutdown: how long in-flight
// requests may take to drain once serving stops.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(sc *serverConfig) {
		sc.shutdownTimeout = d
	}
}

// WithH2C enables cleartext HTTP/2 on the bridge.
func WithH2C() ServerOption {
	return func(sc *serverConfig) {
		sc.h2c = true
	}
}

// WithServerConfig applies server options on top of the defaults.
//
// Example:
//
//	app.New(
//	    app.WithServerConfig(
//	        app.WithPort(3000),
//	        app.WithReadTimeout(15*time.Second),
//	        app.WithWriteTimeout(15*time.Second),
//	    ),
//	)
func WithServerConfig(opts ...ServerOption) Option {
	return func(c *config) {
		for _, opt := range opts {
			opt(c.server)
		}
	}
}
