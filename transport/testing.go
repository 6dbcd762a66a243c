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
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
)

// TestTransport is an in-memory Transport for tests. Exchanges are queued
// with Enqueue and drained by Accept; Close ends the stream so Accept
// returns io.EOF once the queue is empty.
//
// Example:
//
//	tr := transport.NewTestTransport(4)
//	ex := transport.NewTestExchange("GET", "/users/42")
//	tr.Enqueue(ex)
//	tr.Close()
type TestTransport struct {
	mu     sync.Mutex
	queue  chan Exchange
	closed bool
}

// NewTestTransport creates a TestTransport able to buffer up to size queued
// exchanges.
func NewTestTransport(size int) *TestTransport {
	if size < 1 {
		size = 1
	}
	return &TestTransport{queue: make(chan Exchange, size)}
}

// Enqueue adds an exchange to the accept queue. It panics if the transport
// is already closed, mirroring a send on a closed channel.
func (t *TestTransport) Enqueue(ex Exchange) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		panic("transport: Enqueue after Close")
	}
	t.queue <- ex
}

// Close marks the end of the exchange stream. Accept drains any queued
// exchanges and then returns io.EOF.
func (t *TestTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
}

// Accept implements [Transport].
func (t *TestTransport) Accept(ctx context.Context) (Exchange, error) {
	select {
	case ex, ok := <-t.queue:
		if !ok {
			return nil, io.EOF
		}
		return ex, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TestOption configures a [TestExchange].
type TestOption func(*TestExchange)

// WithHeader adds a request header to the exchange.
func WithHeader(key, value string) TestOption {
	return func(ex *TestExchange) {
		ex.info.Header.Add(key, value)
	}
}

// WithRawQuery sets the undecoded query string.
func WithRawQuery(raw string) TestOption {
	return func(ex *TestExchange) {
		ex.info.RawQuery = raw
	}
}

// WithBody sets the request body as a single chunk and declares its length.
func WithBody(data []byte) TestOption {
	return func(ex *TestExchange) {
		ex.chunks = [][]byte{data}
		ex.info.ContentLength = int64(len(data))
	}
}

// WithBodyChunks sets the request body as a scripted chunk sequence. The
// declared length is the total size of all chunks.
func WithBodyChunks(chunks ...[]byte) TestOption {
	return func(ex *TestExchange) {
		ex.chunks = chunks
		var n int64
		for _, c := range chunks {
			n += int64(len(c))
		}
		ex.info.ContentLength = n
	}
}

// WithDeclaredLength overrides the Content-Length the transport reports,
// regardless of the actual chunk sizes. Useful for length-mismatch tests.
func WithDeclaredLength(n int64) TestOption {
	return func(ex *TestExchange) {
		ex.info.ContentLength = n
	}
}

// WithDisconnectAfter makes the body reader fail with [ErrDisconnected]
// after n chunks have been delivered.
func WithDisconnectAfter(n int) TestOption {
	return func(ex *TestExchange) {
		ex.disconnectAfter = n
	}
}

// TestExchange is a scripted in-memory [Exchange]. The request side is
// fixed at construction; the response side records everything the engine
// writes so tests can assert on status, headers, and body.
type TestExchange struct {
	info            RequestInfo
	chunks          [][]byte
	disconnectAfter int

	mu        sync.Mutex
	bodyReads int
	bodyPos   int
	bodyDone  bool

	status  int
	header  http.Header
	body    bytes.Buffer
	started bool
	ended   bool
	done    chan struct{}
}

// NewTestExchange creates an exchange for the given method and path.
// By default it has no body (ContentLength 0) and no query string.
func NewTestExchange(method, path string, opts ...TestOption) *TestExchange {
	ex := &TestExchange{
		info: RequestInfo{
			Method:     method,
			Path:       path,
			Proto:      "HTTP/1.1",
			Header:     make(http.Header),
			RemoteAddr: "192.0.2.1:1234",
		},
		disconnectAfter: -1,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// Request implements [Exchange].
func (ex *TestExchange) Request() *RequestInfo { return &ex.info }

// Body implements [Exchange].
func (ex *TestExchange) Body() BodyReader { return (*testBody)(ex) }

// testBody reads the scripted chunks. Each Read call is counted so tests
// can assert how many transport passes an accessor triggered.
type testBody TestExchange

func (b *testBody) Read(ctx context.Context) (Chunk, error) {
	if err := ctx.Err(); err != nil {
		return Chunk{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.disconnectAfter >= 0 && b.bodyPos >= b.disconnectAfter {
		return Chunk{}, ErrDisconnected
	}
	if b.bodyDone {
		return Chunk{}, io.EOF
	}
	b.bodyReads++

	if len(b.chunks) == 0 {
		b.bodyDone = true
		return Chunk{}, io.EOF
	}

	data := b.chunks[b.bodyPos]
	b.bodyPos++
	more := b.bodyPos < len(b.chunks)
	if !more {
		b.bodyDone = true
	}
	return Chunk{Data: data, More: more}, nil
}

// WriteStart implements [Exchange].
func (ex *TestExchange) WriteStart(ctx context.Context, status int, header http.Header) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()
	if ex.started {
		return ErrResponseStarted
	}
	ex.started = true
	ex.status = status
	ex.header = make(http.Header, len(header))
	for k, vs := range header {
		ex.header[k] = append([]string(nil), vs...)
	}
	return nil
}

// WriteChunk implements [Exchange].
func (ex *TestExchange) WriteChunk(ctx context.Context, data []byte, last bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ex.mu.Lock()
	defer ex.mu.Unlock()
	if !ex.started {
		return ErrResponseNotStarted
	}
	if ex.ended {
		return ErrResponseEnded
	}
	ex.body.Write(data)
	if last {
		ex.ended = true
		close(ex.done)
	}
	return nil
}

// Done is closed once the final response chunk has been written.
func (ex *TestExchange) Done() <-chan struct{} { return ex.done }

// Status returns the recorded response status code.
func (ex *TestExchange) Status() int {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.status
}

// Header returns the recorded response headers.
func (ex *TestExchange) Header() http.Header {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.header
}

// ResponseBody returns the bytes written so far.
func (ex *TestExchange) ResponseBody() []byte {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return append([]byte(nil), ex.body.Bytes()...)
}

// Ended reports whether the final chunk has been written.
func (ex *TestExchange) Ended() bool {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.ended
}

// BodyReads returns how many times the engine called Read on the request
// body. A fully buffered read of an n-chunk body counts n reads (or one for
// an empty body); a cached re-access counts zero.
func (ex *TestExchange) BodyReads() int {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.bodyReads
}
