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
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/vessel-dev/vessel/transport"
	"github.com/vessel-dev/vessel/transport/nethttp"
)

// Serve accepts exchanges from the transport until it reports io.EOF
// (shutdown) or ctx is canceled, dispatching each on its own goroutine.
//
// OnStart hooks run before the first Accept; the route table freezes at
// the same point. When the loop ends, Serve waits for in-flight exchanges
// to drain within the shutdown timeout, runs OnShutdown hooks in LIFO
// order, and returns.
//
// Canceling ctx stops accepting but does not cancel in-flight handlers;
// they run to completion under the drain timeout, the same contract
// net/http gives handlers during Shutdown.
func (a *App) Serve(ctx context.Context, t transport.Transport) error {
	if err := a.executeStartHooks(ctx); err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	a.router.Freeze()

	a.logger.Info("server started",
		"service", a.config.serviceName,
		"environment", a.config.environment,
		"routes", len(a.Routes()))

	var (
		wg        sync.WaitGroup
		acceptErr error
	)
	for {
		ex, err := t.Accept(ctx)
		if err != nil {
			// io.EOF is the transport's graceful end; a done context is the
			// caller's stop signal. Anything else is a real failure.
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				acceptErr = fmt.Errorf("accept exchange: %w", err)
			}

			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			// Detached from the serve context so shutdown lets in-flight
			// requests finish; context values still flow.
			a.Dispatch(context.WithoutCancel(ctx), ex)
		}()
	}

	a.drain(&wg)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.server.shutdownTimeout)
	defer cancel()
	a.executeShutdownHooks(shutdownCtx)

	a.logger.Info("server stopped")

	return acceptErr
}

// drain waits for in-flight exchanges, giving up after the shutdown
// timeout so a stuck handler cannot wedge shutdown forever.
func (a *App) drain(wg *sync.WaitGroup) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	drainCtx, cancel := context.WithTimeout(context.Background(), a.config.server.shutdownTimeout)
	defer cancel()

	select {
	case <-done:
	case <-drainCtx.Done():
		a.logger.Warn("shutdown drain timed out with requests in flight")
	}
}

// ListenAndServe serves HTTP on addr through the net/http bridge,
// configured with the app's server settings. An empty addr falls back to
// the configured host and port. It blocks until Shutdown is called or the
// listener fails.
//
// Example:
//
//	go func() {
//	    <-ctx.Done()
//	    shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	    defer cancel()
//	    a.Shutdown(shutdownCtx)
//	}()
//	if err := a.ListenAndServe(":8080"); err != nil {
//	    log.Fatal(err)
//	}
func (a *App) ListenAndServe(addr string) error {
	sc := a.config.server
	if addr == "" {
		addr = sc.addr()
	}

	bridgeOpts := []nethttp.Option{
		nethttp.WithReadTimeout(sc.readTimeout),
		nethttp.WithWriteTimeout(sc.writeTimeout),
		nethttp.WithIdleTimeout(sc.idleTimeout),
		nethttp.WithReadHeaderTimeout(sc.readHeaderTimeout),
		nethttp.WithMaxHeaderBytes(sc.maxHeaderBytes),
		nethttp.WithLogger(a.logger),
	}
	if sc.h2c {
		bridgeOpts = append(bridgeOpts, nethttp.WithH2C())
	}
	bridge := nethttp.NewServer(addr, bridgeOpts...)

	a.mu.Lock()
	if a.bridge != nil {
		a.mu.Unlock()

		return fmt.Errorf("app: already serving")
	}
	a.bridge = bridge
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.bridge = nil
		a.mu.Unlock()
	}()

	a.logger.Info("listening", "address", addr, "h2c", sc.h2c)

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- bridge.ListenAndServe()
	}()

	serveErr := a.Serve(context.Background(), bridge)

	// Unbind the listener in case Serve stopped on its own, e.g. a failed
	// OnStart hook. After a graceful Shutdown this is a no-op.
	_ = bridge.Close()

	err := <-listenErr
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return serveErr
}

// Addr returns the bound listener address while ListenAndServe is running,
// or nil. With port 0 it reports the port the kernel picked.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	bridge := a.bridge
	a.mu.Unlock()

	if bridge == nil {
		return nil
	}

	return bridge.Addr()
}

// Shutdown gracefully stops a server started with ListenAndServe: the
// listener closes, in-flight requests finish, and the accept loop drains.
// ctx bounds how long in-flight requests may take. Shutdown on an app that
// is not listening is a no-op.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	bridge := a.bridge
	a.mu.Unlock()

	if bridge == nil {
		return nil
	}

	return bridge.Shutdown(ctx)
}
