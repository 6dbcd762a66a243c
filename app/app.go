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
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/vessel-dev/vessel/codec"
	"github.com/vessel-dev/vessel/errors"
	"github.com/vessel-dev/vessel/logging"
	"github.com/vessel-dev/vessel/response"
	"github.com/vessel-dev/vessel/router"
	"github.com/vessel-dev/vessel/transport/nethttp"
)

// Handler is the function invoked for a matched route. It is the router's
// handler type, re-exported so applications can write handlers without
// importing the router package.
type Handler = router.Handler

// Environment mode values accepted by WithEnvironment.
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Defaults applied by New before options run.
const (
	DefaultServiceName = "vessel-app"
	DefaultVersion     = "1.0.0"
	DefaultEnvironment = EnvironmentDevelopment

	DefaultHost = ""
	DefaultPort = 8080

	DefaultReadTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second
	DefaultMaxHeaderBytes    = 1 << 20 // 1 MB
	DefaultShutdownTimeout   = 30 * time.Second
)

// config holds all app configuration assembled from options.
type config struct {
	serviceName    string
	serviceVersion string
	environment    string

	server *serverConfig

	logger      *slog.Logger // explicit logger, wins over loggingOpts
	loggingOpts []logging.Option

	formatter  errors.Formatter
	registry   *codec.Registry
	routerOpts []router.Option
	observers  []Observer

	envErrors []error
}

// serverConfig holds the settings handed to the net/http bridge by
// ListenAndServe. Serve with a caller-supplied transport ignores them.
type serverConfig struct {
	host string
	port int

	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	readHeaderTimeout time.Duration
	maxHeaderBytes    int
	shutdownTimeout   time.Duration

	h2c bool
}

// addr composes the listen address from host and port.
func (sc *serverConfig) addr() string {
	return net.JoinHostPort(sc.host, strconv.Itoa(sc.port))
}

// validate checks the server settings, collecting every failure.
func (sc *serverConfig) validate() *ValidationError {
	var errs ValidationError

	if sc.port < 0 || sc.port > 65535 {
		errs.Add(newRangeError("server.port", sc.port, "must be between 0 and 65535"))
	}
	if sc.readTimeout <= 0 {
		errs.Add(newTimeoutError("server.readTimeout", sc.readTimeout))
	}
	if sc.writeTimeout <= 0 {
		errs.Add(newTimeoutError("server.writeTimeout", sc.writeTimeout))
	}
	if sc.idleTimeout <= 0 {
		errs.Add(newTimeoutError("server.idleTimeout", sc.idleTimeout))
	}
	if sc.readHeaderTimeout <= 0 {
		errs.Add(newTimeoutError("server.readHeaderTimeout", sc.readHeaderTimeout))
	}
	if sc.shutdownTimeout <= 0 {
		errs.Add(newTimeoutError("server.shutdownTimeout", sc.shutdownTimeout))
	}

	// A read timeout above the write timeout lets a request upload in full
	// and then fail during response delivery.
	if sc.readTimeout > 0 && sc.writeTimeout > 0 && sc.readTimeout > sc.writeTimeout {
		errs.Add(newRangeError("server.readTimeout", sc.readTimeout,
			"must not exceed server.writeTimeout"))
	}
	if sc.shutdownTimeout > 0 && sc.shutdownTimeout < time.Second {
		errs.Add(newRangeError("server.shutdownTimeout", sc.shutdownTimeout,
			"must be at least 1 second for graceful shutdown"))
	}
	if sc.maxHeaderBytes < 1024 {
		errs.Add(newRangeError("server.maxHeaderBytes", sc.maxHeaderBytes,
			"must be at least 1024 bytes to fit standard request headers"))
	}

	return &errs
}

// defaultConfig returns a configuration with default values.
func defaultConfig() *config {
	return &config{
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultVersion,
		environment:    DefaultEnvironment,
		server: &serverConfig{
			host:              DefaultHost,
			port:              DefaultPort,
			readTimeout:       DefaultReadTimeout,
			writeTimeout:      DefaultWriteTimeout,
			idleTimeout:       DefaultIdleTimeout,
			readHeaderTimeout: DefaultReadHeaderTimeout,
			maxHeaderBytes:    DefaultMaxHeaderBytes,
			shutdownTimeout:   DefaultShutdownTimeout,
		},
		formatter: errors.NewSimple(),
	}
}

// validate collects every configuration problem before returning, so a
// misconfigured app reports all issues at once.
func (c *config) validate() error {
	var errs ValidationError

	if c.serviceName == "" {
		errs.Add(newEmptyFieldError("serviceName"))
	}
	if c.serviceVersion == "" {
		errs.Add(newEmptyFieldError("serviceVersion"))
	}
	if c.environment != EnvironmentDevelopment && c.environment != EnvironmentProduction {
		errs.Add(newInvalidEnumError("environment", c.environment,
			EnvironmentDevelopment, EnvironmentProduction))
	}

	if serverErrs := c.server.validate(); serverErrs.HasErrors() {
		errs.Errors = append(errs.Errors, serverErrs.Errors...)
	}

	for _, err := range c.envErrors {
		errs.Add(&ConfigError{
			Field:      "env",
			Value:      nil,
			Message:    err.Error(),
			Constraint: "env",
		})
	}

	return errs.ToError()
}

// buildLogger resolves the app logger. An explicit WithLogger wins; logging
// options build one through the logging package with the service identity
// attached; otherwise the logger discards everything.
func (c *config) buildLogger() (*slog.Logger, error) {
	if c.logger != nil {
		return c.logger, nil
	}
	if len(c.loggingOpts) == 0 {
		return logging.Noop(), nil
	}

	opts := []logging.Option{
		logging.WithServiceName(c.serviceName),
		logging.WithServiceVersion(c.serviceVersion),
		logging.WithEnvironment(c.environment),
	}
	opts = append(opts, c.loggingOpts...)

	lc, err := logging.New(opts...)
	if err != nil {
		return nil, err
	}

	return lc.Logger(), nil
}

// App is the assembled engine: router, dispatcher, response builder, and
// the lifecycle around them.
//
// Build an App with New, register routes, then call Serve or ListenAndServe.
// Route and hook registration happen before serving; the route table freezes
// when the first request is resolved and registration afterwards panics.
type App struct {
	config    *config
	router    *router.Router
	builder   *response.Builder
	registry  *codec.Registry
	logger    *slog.Logger
	formatter errors.Formatter
	observers []Observer
	hooks     *hooks

	mu     sync.Mutex
	bridge *nethttp.Server
}

// New creates an App from the options. It returns a *ValidationError
// listing every invalid setting when configuration is bad.
//
// Example:
//
//	a, err := app.New(
//	    app.WithServiceName("orders-api"),
//	    app.WithServiceVersion("v1.2.0"),
//	    app.WithLogging(logging.WithJSONHandler()),
//	)
func New(opts ...Option) (*App, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger, err := cfg.buildLogger()
	if err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	routerOpts := append([]router.Option{router.WithLogger(logger)}, cfg.routerOpts...)
	r, err := router.New(routerOpts...)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	var builderOpts []response.BuilderOption
	if cfg.registry != nil {
		builderOpts = append(builderOpts, response.WithRegistry(cfg.registry))
	}

	a := &App{
		config:    cfg,
		router:    r,
		builder:   response.NewBuilder(builderOpts...),
		registry:  cfg.registry,
		logger:    logger,
		formatter: cfg.formatter,
		observers: cfg.observers,
	}
	a.hooks = &hooks{frozen: r.Frozen}

	return a, nil
}

// MustNew creates an App and panics on error. Intended for main functions
// where a configuration error should abort startup.
func MustNew(opts ...Option) *App {
	a, err := New(opts...)
	if err != nil {
		panic(fmt.Sprintf("app initialization failed: %v", err))
	}

	return a
}

// Logger returns the app's base logger. Request handling derives
// request-scoped loggers from it.
func (a *App) Logger() *slog.Logger {
	return a.logger
}

// Router returns the underlying router, for registration styles the App
// surface does not mirror.
func (a *App) Router() *router.Router {
	return a.router
}

// ServiceName returns the configured service name.
func (a *App) ServiceName() string {
	return a.config.serviceName
}

// ServiceVersion returns the configured service version.
func (a *App) ServiceVersion() string {
	return a.config.serviceVersion
}

// Environment returns the configured environment mode.
func (a *App) Environment() string {
	return a.config.environment
}

// GET registers a handler for GET requests. Registration shortcuts panic on
// error; use AddRoute to handle registration errors programmatically.
func (a *App) GET(path string, h Handler) { a.router.GET(path, h) }

// POST registers a handler for POST requests.
func (a *App) POST(path string, h Handler) { a.router.POST(path, h) }

// PUT registers a handler for PUT requests.
func (a *App) PUT(path string, h Handler) { a.router.PUT(path, h) }

// PATCH registers a handler for PATCH requests.
func (a *App) PATCH(path string, h Handler) { a.router.PATCH(path, h) }

// DELETE registers a handler for DELETE requests.
func (a *App) DELETE(path string, h Handler) { a.router.DELETE(path, h) }

// HEAD registers a handler for HEAD requests. GET routes already answer
// HEAD with the body suppressed; register HEAD explicitly only when the
// HEAD behavior must differ.
func (a *App) HEAD(path string, h Handler) { a.router.HEAD(path, h) }

// OPTIONS registers a handler for OPTIONS requests.
func (a *App) OPTIONS(path string, h Handler) { a.router.OPTIONS(path, h) }

// AddRoute registers a handler for the given method and path, returning
// registration errors instead of panicking.
func (a *App) AddRoute(method, path string, h Handler) error {
	return a.router.AddRoute(method, path, h)
}

// Handle registers the handler for every listed method on one path.
func (a *App) Handle(path string, h Handler, methods ...string) error {
	return a.router.Handle(path, h, methods...)
}

// Mount attaches a sub-router's routes under a path prefix.
//
// Example:
//
//	api := router.MustNew()
//	api.GET("/users", listUsers)
//	a.Mount("/api/v1", api)
func (a *App) Mount(prefix string, child *router.Router) error {
	return a.router.Mount(prefix, child)
}

// Routes returns the flattened route table. Calling Routes freezes the
// router.
func (a *App) Routes() []router.RouteInfo {
	return a.router.Routes()
}
