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

import (
	"context"
	"net/http"
)

// RequestInfo describes the request line and headers of one exchange.
// It is populated by the transport before the exchange is handed to the
// engine; the body is delivered separately, chunk by chunk, through
// [Exchange.Body].
type RequestInfo struct {
	// Method is the HTTP method verb, uppercase (e.g. "GET").
	Method string

	// Path is the decoded request path, without the query string.
	Path string

	// RawQuery is the undecoded query string, without the leading "?".
	RawQuery string

	// Proto is the protocol version string (e.g. "HTTP/1.1").
	Proto string

	// Header holds the request headers with canonical MIME keys.
	Header http.Header

	// ContentLength is the declared body length in bytes, or -1 when the
	// transport does not know it (chunked encoding, no body, etc.).
	ContentLength int64

	// RemoteAddr is the network address of the client, when known.
	RemoteAddr string
}

// Chunk is one piece of a request body.
type Chunk struct {
	// Data is the chunk payload. It may be empty on the final chunk.
	Data []byte

	// More reports whether further chunks follow. The final chunk of a
	// body carries More == false.
	More bool
}

// BodyReader delivers the request body of a single exchange as an ordered
// sequence of chunks.
//
// Read blocks until the transport has a chunk, the body ends, or ctx is
// done. After the final chunk (More == false) has been returned, further
// calls return io.EOF. If the client disconnects before the body is
// complete, Read returns [ErrDisconnected].
type BodyReader interface {
	Read(ctx context.Context) (Chunk, error)
}

// Exchange is a single request/response cycle delivered by a Transport.
//
// The engine reads the request via Request and Body, then responds by
// calling WriteStart exactly once followed by one or more WriteChunk calls,
// the final one with last == true. Implementations must reject calls that
// violate that ordering with [ErrResponseStarted] or
// [ErrResponseNotStarted] so protocol bugs surface loudly.
type Exchange interface {
	// Request returns the request metadata. The returned value is owned by
	// the exchange and must not be mutated.
	Request() *RequestInfo

	// Body returns the reader for the request body. Every call returns the
	// same underlying reader; body bytes are delivered exactly once.
	Body() BodyReader

	// WriteStart begins the response with the given status code and
	// headers. It must be called exactly once, before any WriteChunk.
	WriteStart(ctx context.Context, status int, header http.Header) error

	// WriteChunk sends a piece of the response body. The final call must
	// pass last == true, after which the exchange is complete and no
	// further writes are accepted.
	WriteChunk(ctx context.Context, data []byte, last bool) error
}

// Transport delivers request/response exchanges to the engine.
//
// Accept blocks until the next exchange arrives. It returns io.EOF once the
// transport has shut down and no further exchanges will be delivered, or
// ctx.Err() when the caller's context is done. Accept may be called from a
// single goroutine only; the exchanges it returns are independent and are
// handled concurrently.
type Transport interface {
	Accept(ctx context.Context) (Exchange, error)
}
