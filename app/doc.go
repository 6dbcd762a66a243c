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

// Package app ties the Vessel engine together: it owns the dispatcher that
// drives one request/response exchange from route resolution through handler
// invocation to the wire, plus the lifecycle, configuration, and
// observability glue around it.
//
// An App is built once with functional options, routes are registered, and
// then the app serves exchanges from a transport:
//
//	a := app.MustNew(
//	    app.WithServiceName("orders-api"),
//	    app.WithLogger(logger),
//	)
//	a.GET("/orders/{id:int}", func(ctx context.Context, r *request.Request) (any, error) {
//	    order, err := store.Find(ctx, r.Param("id"))
//	    if err != nil {
//	        return nil, errors.NotFound("order not found")
//	    }
//	    return order, nil
//	})
//
//	if err := a.ListenAndServe(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// Handlers return a value and an error. The value becomes the response body
// through the response builder (structured values are encoded by content
// type, []byte and string pass through, *response.Response is explicit, nil
// is 204 No Content). A returned *errors.Error controls the status code and
// error body; any other error renders as a generic 500 with the cause logged
// but never sent to the client.
//
// # Serving
//
// Serve runs the accept loop against any transport.Transport, handling each
// exchange on its own goroutine and draining in-flight work before it
// returns. ListenAndServe wraps Serve with the net/http bridge from
// transport/nethttp, and Shutdown stops it gracefully:
//
//	go func() {
//	    <-ctx.Done()
//	    shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	    defer cancel()
//	    a.Shutdown(shutdownCtx)
//	}()
//
// # Lifecycle hooks
//
// OnStart hooks run sequentially before the accept loop and abort startup on
// the first error. OnShutdown hooks run in reverse registration order after
// the loop has drained, so dependencies tear down in the opposite order they
// were built.
//
// # Observers
//
// Observers receive the start and end of every dispatched request. The
// metrics.Recorder and tracing.Tracer types satisfy the interface, so wiring
// the full observability stack is one option each:
//
//	a := app.MustNew(
//	    app.WithObserver(recorder),
//	    app.WithObserver(tracer),
//	)
//
// # Environment overrides
//
// WithEnv applies VESSEL_-prefixed environment variables (PORT, HOST,
// LOG_LEVEL, LOG_FORMAT, READ_TIMEOUT, WRITE_TIMEOUT, SHUTDOWN_TIMEOUT, H2C)
// over programmatic configuration; WithEnvPrefix does the same under a
// custom prefix. Invalid values fail New rather than being silently ignored.
package app
