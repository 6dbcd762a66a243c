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

// Package nethttp bridges the standard library HTTP server onto the
// transport contract. Each incoming request becomes one
// [transport.Exchange]: the connection goroutine parks while the engine
// reads the body and writes the response, and resumes once the final
// response chunk lands.
//
// The bridge owns the listener lifecycle. ListenAndServe blocks until
// Shutdown or Close; Shutdown stops accepting, lets in-flight exchanges
// finish, and only then ends the Accept stream with io.EOF, so an engine
// draining on EOF never loses a request.
//
//	srv := nethttp.NewServer(":8080", nethttp.WithH2C())
//	go srv.ListenAndServe()
//
//	for {
//	    ex, err := srv.Accept(ctx)
//	    if err != nil {
//	        break
//	    }
//	    go handle(ex)
//	}
//
// Requests that arrive while the bridge is shutting down are refused with
// 503 before they reach the engine.
package nethttp
