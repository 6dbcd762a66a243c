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

// Package transport defines the contract between the Vessel engine and the
// low-level servers that feed it requests.
//
// A Transport delivers a stream of request/response exchanges. The engine
// accepts exchanges in a loop, handles each one on its own goroutine, and
// responds through the exchange's write callbacks. The engine never owns
// sockets, TLS, or timeouts; those belong to the transport implementation.
//
// The request body is delivered as an ordered sequence of chunks so the
// engine can defer reading it until a handler actually asks for it. A
// transport signals early client disconnects with [ErrDisconnected] so a
// pending body read fails instead of hanging.
//
// Two implementations ship with Vessel: the in-memory transport in
// testing.go (scripted exchanges with recorded responses) and the net/http
// bridge in the nethttp subpackage.
package transport
