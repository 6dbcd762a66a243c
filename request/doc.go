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

// Package request holds the per-request view handlers receive: parsed
// metadata (method, path, headers, query, cookies, path parameters) plus a
// lazily-read body.
//
// Metadata is parsed eagerly when the Request is built. The body is not
// touched until a handler asks for it, and then exactly one read pass is
// made against the transport no matter how many accessors run:
//
//	func createUser(ctx context.Context, r *request.Request) (any, error) {
//	    user, err := request.JSON[CreateUserRequest](ctx, r)
//	    if err != nil {
//	        return nil, err
//	    }
//	    // ...
//	}
//
// Body access follows a small state machine. Buffering accessors (Bytes,
// JSON, MsgPack, Form, Decode) read the whole body once and cache it;
// calling them again returns the cached result. Stream gives incremental
// chunks instead and is only available before any buffering accessor has
// run; a fully drained stream leaves the body buffered, so later Bytes
// calls still succeed. Mixing the other way around fails with
// [ErrBodyConsumed].
//
// A Request is owned by the goroutine handling it and is not safe for
// concurrent use.
package request
