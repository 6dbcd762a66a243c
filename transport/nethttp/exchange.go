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

package nethttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/vessel-dev/vessel/transport"
)

// bodyChunkSize is the read buffer size for request bodies.
const bodyChunkSize = 32 * 1024

// exchange adapts one net/http request/response pair to
// [transport.Exchange]. The done channel closes when the response is
// complete (or abandoned), releasing the parked connection goroutine.
type exchange struct {
	info transport.RequestInfo
	body *bodyReader

	w       http.ResponseWriter
	flusher http.Flusher

	mu      sync.Mutex
	started bool
	ended   bool

	done chan struct{}
}

var _ transport.Exchange = (*exchange)(nil)

func newExchange(w http.ResponseWriter, r *http.Request) *exchange {
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	// net/http moves the Host header into Request.Host; put it back so the
	// engine sees the request as it arrived on the wire.
	if r.Host != "" {
		header.Set("Host", r.Host)
	}

	flusher, _ := w.(http.Flusher)

	return &exchange{
		info: transport.RequestInfo{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Proto:         r.Proto,
			Header:        header,
			ContentLength: r.ContentLength,
			RemoteAddr:    r.RemoteAddr,
		},
		body:    &bodyReader{src: r.Body},
		w:       w,
		flusher: flusher,
		done:    make(chan struct{}),
	}
}

// Request implements [transport.Exchange].
func (ex *exchange) Request() *transport.RequestInfo { return &ex.info }

// Body implements [transport.Exchange].
func (ex *exchange) Body() transport.BodyReader { return ex.body }

// WriteStart implements [transport.Exchange].
func (ex *exchange) WriteStart(ctx context.Context, status int, header http.Header) error {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if ex.started {
		return transport.ErrResponseStarted
	}
	if err := ctx.Err(); err != nil {
		// The engine is abandoning the exchange; release the connection.
		ex.finish()
		return err
	}
	ex.started = true

	h := ex.w.Header()
	for k, vs := range header {
		h[k] = append([]string(nil), vs...)
	}
	ex.w.WriteHeader(status)

	return nil
}

// WriteChunk implements [transport.Exchange]. A failed write maps to
// [transport.ErrDisconnected] and completes the exchange: once bytes stop
// reaching the client the response can never finish on the wire.
func (ex *exchange) WriteChunk(ctx context.Context, data []byte, last bool) error {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if !ex.started {
		return transport.ErrResponseNotStarted
	}
	if ex.ended {
		return transport.ErrResponseEnded
	}
	if err := ctx.Err(); err != nil {
		ex.finish()
		return err
	}

	if len(data) > 0 {
		if _, err := ex.w.Write(data); err != nil {
			ex.finish()
			return fmt.Errorf("%w: %v", transport.ErrDisconnected, err)
		}
	}

	if last {
		ex.finish()
		return nil
	}
	if ex.flusher != nil {
		ex.flusher.Flush()
	}

	return nil
}

// finish marks the exchange complete and unparks the connection goroutine.
// Callers hold ex.mu.
func (ex *exchange) finish() {
	if !ex.ended {
		ex.ended = true
		close(ex.done)
	}
}

// bodyReader delivers the request body in chunks of at most bodyChunkSize.
// The engine reads sequentially from a single goroutine, so no locking is
// needed; err is sticky and holds io.EOF once the body is exhausted.
type bodyReader struct {
	src io.Reader
	buf []byte
	err error
}

// Read implements [transport.BodyReader]. Mid-body failures surface as
// [transport.ErrDisconnected]; data received in the same read is delivered
// first and the error follows on the next call.
func (b *bodyReader) Read(ctx context.Context) (transport.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return transport.Chunk{}, err
	}
	if b.err != nil {
		return transport.Chunk{}, b.err
	}
	if b.buf == nil {
		b.buf = make([]byte, bodyChunkSize)
	}

	for {
		n, err := b.src.Read(b.buf)
		if n > 0 {
			data := append([]byte(nil), b.buf[:n]...)
			switch {
			case err == nil:
				return transport.Chunk{Data: data, More: true}, nil
			case errors.Is(err, io.EOF):
				b.err = io.EOF
				return transport.Chunk{Data: data, More: false}, nil
			default:
				b.err = fmt.Errorf("%w: %v", transport.ErrDisconnected, err)
				return transport.Chunk{Data: data, More: true}, nil
			}
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			b.err = io.EOF
			return transport.Chunk{}, io.EOF
		default:
			b.err = fmt.Errorf("%w: %v", transport.ErrDisconnected, err)
			return transport.Chunk{}, b.err
		}
	}
}
