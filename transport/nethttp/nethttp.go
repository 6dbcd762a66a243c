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

package nethttp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/vessel-dev/vessel/transport"
)

// Production-safe server defaults, applied when the corresponding option
// is not given.
const (
	DefaultReadTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultIdleTimeout       = 60 * time.Second
	DefaultReadHeaderTimeout = 2 * time.Second
	DefaultMaxHeaderBytes    = 1 << 20 // 1 MB
)

// Option configures a Server.
type Option func(*options)

type options struct {
	readTimeout       time.Duration
	writeTimeout      time.Duration
	idleTimeout       time.Duration
	readHeaderTimeout time.Duration
	maxHeaderBytes    int
	h2c               bool
	logger            *slog.Logger
}

func defaultOptions() *options {
	return &options{
		readTimeout:       DefaultReadTimeout,
		writeTimeout:      DefaultWriteTimeout,
		idleTimeout:       DefaultIdleTimeout,
		readHeaderTimeout: DefaultReadHeaderTimeout,
		maxHeaderBytes:    DefaultMaxHeaderBytes,
	}
}

// WithReadTimeout sets the maximum duration for reading an entire request,
// body included.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}

// WithWriteTimeout sets the maximum duration for writing the response.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}

// WithIdleTimeout sets how long a keep-alive connection may sit idle.
func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		o.idleTimeout = d
	}
}

// WithReadHeaderTimeout sets the maximum duration for reading request
// headers.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readHeaderTimeout = d
	}
}

// WithMaxHeaderBytes caps the size of request headers.
func WithMaxHeaderBytes(n int) Option {
	return func(o *options) {
		o.maxHeaderBytes = n
	}
}

// WithH2C enables cleartext HTTP/2. Use only in development or behind a
// trusted load balancer; over TLS, HTTP/2 negotiates via ALPN without it.
func WithH2C() Option {
	return func(o *options) {
		o.h2c = true
	}
}

// WithLogger routes the http.Server's internal error log through the given
// structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Server is a [transport.Transport] backed by net/http. Incoming requests
// queue as exchanges on an unbuffered channel; Accept hands them to the
// engine one at a time.
type Server struct {
	exchanges chan *exchange
	done      chan struct{}
	closeOnce sync.Once

	srv *http.Server

	mu sync.Mutex
	ln net.Listener
}

var _ transport.Transport = (*Server)(nil)

// NewServer creates a Server that will listen on addr. The server does not
// listen until ListenAndServe is called.
//
// Example:
//
//	srv := nethttp.NewServer(":8080",
//	    nethttp.WithReadTimeout(15*time.Second),
//	    nethttp.WithLogger(logger),
//	)
func NewServer(addr string, opts ...Option) *Server {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	s := &Server{
		exchanges: make(chan *exchange),
		done:      make(chan struct{}),
	}

	handler := http.Handler(http.HandlerFunc(s.serveHTTP))
	if o.h2c {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       o.readTimeout,
		WriteTimeout:      o.writeTimeout,
		IdleTimeout:       o.idleTimeout,
		ReadHeaderTimeout: o.readHeaderTimeout,
		MaxHeaderBytes:    o.maxHeaderBytes,
	}
	if o.logger != nil {
		s.srv.ErrorLog = slog.NewLogLogger(o.logger.Handler(), slog.LevelError)
	}

	return s
}

// serveHTTP turns one request into an exchange, hands it to the engine,
// and parks until the engine writes the final response chunk. Returning
// earlier would invalidate the ResponseWriter under the engine.
func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	ex := newExchange(w, r)

	select {
	case s.exchanges <- ex:
	case <-s.done:
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	<-ex.done
}

// Accept implements [transport.Transport]. It blocks until a request
// arrives, the server shuts down (io.EOF), or ctx is done.
func (s *Server) Accept(ctx context.Context) (transport.Exchange, error) {
	select {
	case ex := <-s.exchanges:
		return ex, nil
	case <-s.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ListenAndServe binds the listener and serves until Shutdown or Close.
// Like http.Server, it reports http.ErrServerClosed after a graceful stop.
// On any other error it also ends the Accept stream, so an engine blocked
// in Accept is released when the bind fails.
func (s *Server) ListenAndServe() error {
	addr := s.srv.Addr
	if addr == "" {
		addr = ":http"
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.close()
		return err
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	err = s.srv.Serve(ln)
	if !errors.Is(err, http.ErrServerClosed) {
		s.close()
	}

	return err
}

// Shutdown stops accepting connections and waits for in-flight exchanges
// to finish, bounded by ctx. Only after the drain does the Accept stream
// end with io.EOF; an un-accepted exchange holds its connection open, so
// nothing is dropped in between.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.close()

	return err
}

// Close force-closes the listener and all active connections, then ends
// the Accept stream.
func (s *Server) Close() error {
	err := s.srv.Close()
	s.close()

	return err
}

func (s *Server) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// Handler exposes the bridge as an http.Handler, h2c wrapping included.
// Useful for mounting the bridge in httptest servers.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Addr returns the bound listener address, or nil before ListenAndServe
// binds. With port 0 it reports the port the kernel picked.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}

	return s.ln.Addr()
}
