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

package transport

import "errors"

var (
	// ErrDisconnected is returned by a body read or response write when the
	// client went away before the exchange completed.
	ErrDisconnected = errors.New("transport: client disconnected")

	// ErrResponseStarted is returned by WriteStart when the response has
	// already been started on this exchange.
	ErrResponseStarted = errors.New("transport: response already started")

	// ErrResponseNotStarted is returned by WriteChunk when WriteStart has
	// not been called yet.
	ErrResponseNotStarted = errors.New("transport: response not started")

	// ErrResponseEnded is returned by WriteChunk after the final chunk has
	// been sent.
	ErrResponseEnded = errors.New("transport: response already ended")

	// ErrClosed is returned by operations on a transport that has been
	// closed.
	ErrClosed = errors.New("transport: closed")
)
