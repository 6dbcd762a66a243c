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

// Package response turns handler return values into wire-ready responses.
//
// A Response carries a status code, headers, and either an encoded body or
// a value that still needs encoding. Handlers usually return plain Go
// values and let the Builder pick the representation, but they can take
// full control with the constructors:
//
//	return response.JSON(user), nil
//	return response.Text("pong"), nil
//	return response.Redirect(http.StatusFound, "/login"), nil
//
// The Builder normalizes every supported return shape into a finalized
// Response: nil becomes 204 No Content, []byte passes through untouched,
// string becomes text/plain, and any other value is encoded through the
// codec registry for its declared content type (JSON when none is
// declared). Content-Length is always recomputed from the encoded body, so
// a stale caller-set value can never reach the wire.
package response
