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
	"fmt"
)

// StartHook runs before the accept loop. Returning an error aborts startup.
type StartHook func(ctx context.Context) error

// ShutdownHook runs during graceful shutdown. Hooks run in reverse
// registration order, so resources tear down opposite to how they were
// built.
type ShutdownHook func(ctx context.Context)

// hooks holds the registered lifecycle callbacks. Registration is not
// synchronized; it belongs in setup code, like route registration, and
// panics once the router has frozen.
type hooks struct {
	frozen     func() bool
	onStart    []StartHook
	onShutdown []ShutdownHook
}

func (h *hooks) checkMutable() {
	if h.frozen != nil && h.frozen() {
		panic("app: cannot register hooks after the router is frozen")
	}
}

// OnStart registers a hook to run before the app starts serving. Hooks run
// sequentially in registration order; the first error aborts startup and is
// returned from Serve.
//
// Example:
//
//	a.OnStart(func(ctx context.Context) error {
//	    return db.PingContext(ctx)
//	})
func (a *App) OnStart(hook StartHook) {
	a.hooks.checkMutable()
	a.hooks.onStart = append(a.hooks.onStart, hook)
}

// OnShutdown registers a hook to run during graceful shutdown, after the
// accept loop has stopped and in-flight requests have drained. Hooks run in
// reverse registration order.
//
// Example:
//
//	a.OnShutdown(func(ctx context.Context) {
//	    db.Close()
//	})
func (a *App) OnShutdown(hook ShutdownHook) {
	a.hooks.checkMutable()
	a.hooks.onShutdown = append(a.hooks.onShutdown, hook)
}

// executeStartHooks runs OnStart hooks sequentially, stopping at the first
// error.
func (a *App) executeStartHooks(ctx context.Context) error {
	for i, hook := range a.hooks.onStart {
		if err := hook(ctx); err != nil {
			return fmt.Errorf("OnStart hook %d failed: %w", i, err)
		}
	}

	return nil
}

// executeShutdownHooks runs OnShutdown hooks in LIFO order. A panicking
// hook is logged and does not stop the remaining hooks; shutdown must
// finish.
func (a *App) executeShutdownHooks(ctx context.Context) {
	for i := len(a.hooks.onShutdown) - 1; i >= 0; i-- {
		a.runShutdownHook(ctx, a.hooks.onShutdown[i], i)
	}
}

func (a *App) runShutdownHook(ctx context.Context, hook ShutdownHook, index int) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("OnShutdown hook panicked", "hook", index, "panic", rec)
		}
	}()
	hook(ctx)
}
