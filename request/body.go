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

package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vessel-dev/vessel/codec"
	"github.com/vessel-dev/vessel/codec/codecs"
	"github.com/vessel-dev/vessel/codec/msgpack"
	"github.com/vessel-dev/vessel/transport"
)

// bodyState tracks body consumption. The decoded caches sit on top of
// stateBuffered: a body is "Decoded" for a format once its cache entry
// exists, and several formats may be decoded from the same buffer.
type bodyState int

const (
	stateUnread bodyState = iota
	stateStreaming
	stateBuffered
	stateFailed
)

// Body is the lazily-read request body.
//
// No transport read happens until the first accessor runs. Buffering
// accessors read the body once and cache both the raw bytes and any decoded
// value, keyed by format, so repeated access never touches the transport
// again. Stream hands out the chunks incrementally instead; draining it to
// io.EOF leaves the body buffered as if Bytes had run.
//
// A failed transport read (disconnect, cancellation, length mismatch) is
// terminal: every later accessor returns the same error. Decode failures
// are not terminal; the buffered bytes remain available.
//
// Thread safety: a Body belongs to the goroutine handling its request and
// must not be shared.
type Body struct {
	source         transport.BodyReader
	contentType    string
	declaredLength int64
	registry       *codec.Registry

	state    bodyState
	buf      []byte
	received int64
	err      error

	decoded map[string]any
	form    *codec.Form
}

// BodyOption configures a Body.
type BodyOption func(*Body)

// WithRegistry sets the codec registry used by Decode and DecodeTo.
// Without it the package default registry, which knows every built-in
// format, is used.
func WithRegistry(reg *codec.Registry) BodyOption {
	return func(b *Body) {
		b.registry = reg
	}
}

// NewBody creates a Body over a transport body reader. contentType is the
// declared Content-Type header value ("" when absent); declaredLength is
// the declared Content-Length, or -1 when unknown.
func NewBody(source transport.BodyReader, contentType string, declaredLength int64, opts ...BodyOption) *Body {
	b := &Body{
		source:         source,
		contentType:    contentType,
		declaredLength: declaredLength,
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// ContentType returns the declared Content-Type header value, unparsed.
func (b *Body) ContentType() string { return b.contentType }

// DeclaredLength returns the declared Content-Length, or -1 when unknown.
func (b *Body) DeclaredLength() int64 { return b.declaredLength }

// Consumed reports whether any transport read has happened.
func (b *Body) Consumed() bool { return b.state != stateUnread }

// Stream returns an incremental reader over the body. It is only available
// while the body is untouched; after a buffering accessor has run it fails
// with [ErrBodyConsumed]. The returned reader is single-pass and uses ctx
// for every transport read.
//
// Draining the reader to io.EOF buffers the body, so Bytes and the decode
// accessors still work afterwards. Abandoning it halfway leaves the body
// consumed.
func (b *Body) Stream(ctx context.Context) (io.Reader, error) {
	switch b.state {
	case stateUnread:
		b.state = stateStreaming
		return &streamReader{ctx: ctx, body: b}, nil
	case stateFailed:
		return nil, b.err
	default:
		return nil, ErrBodyConsumed
	}
}

// Bytes returns the full body, reading it from the transport on first call
// and serving the cached copy afterwards. The returned slice is shared;
// callers must not modify it.
//
// Errors:
//   - [ErrBodyConsumed]: a partially drained Stream is outstanding
//   - [LengthMismatchError]: received bytes disagree with Content-Length
//   - [transport.ErrDisconnected] (wrapped): client went away mid-body
func (b *Body) Bytes(ctx context.Context) ([]byte, error) {
	switch b.state {
	case stateBuffered:
		return b.buf, nil
	case stateFailed:
		return nil, b.err
	case stateStreaming:
		return nil, ErrBodyConsumed
	}

	var buf []byte
	for {
		chunk, err := b.source.Read(ctx)
		if len(chunk.Data) > 0 {
			buf = append(buf, chunk.Data...)
			b.received += int64(len(chunk.Data))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, b.fail(fmt.Errorf("request: read body: %w", err))
		}
		if !chunk.More {
			break
		}
	}

	if err := b.finishBuffering(buf); err != nil {
		return nil, err
	}

	return b.buf, nil
}

// JSON decodes the body as JSON into an untyped value and caches the
// result. Use the package-level [JSON] helper to decode into a struct.
//
// Errors: [DecodeError] on malformed input, plus any Bytes error.
func (b *Body) JSON(ctx context.Context) (any, error) {
	return b.decodeCached(ctx, codec.MediaTypeJSON, func(data []byte, v *any) error {
		return codec.JSONTo(data, v)
	})
}

// MsgPack decodes the body as MessagePack into an untyped value and caches
// the result. Use the package-level [MsgPack] helper to decode into a
// struct.
//
// Errors: [DecodeError] on malformed input, plus any Bytes error.
func (b *Body) MsgPack(ctx context.Context) (any, error) {
	return b.decodeCached(ctx, codec.MediaTypeMsgPack, func(data []byte, v *any) error {
		return msgpack.MsgPackTo(data, v)
	})
}

// Form parses the body as form data per the declared content type:
// URL-encoded values, or values plus files for multipart. The parsed form
// is cached.
//
// Errors: [DecodeError] when the content type is not a form encoding or
// the payload is malformed, plus any Bytes error.
func (b *Body) Form(ctx context.Context) (*codec.Form, error) {
	if b.form != nil {
		return b.form, nil
	}

	if !codec.IsFormType(b.contentType) {
		return nil, &DecodeError{ContentType: b.contentType, Err: codec.ErrNotForm}
	}

	data, err := b.Bytes(ctx)
	if err != nil {
		return nil, err
	}

	form, err := codec.ParseForm(data, b.contentType)
	if err != nil {
		return nil, &DecodeError{ContentType: b.contentType, Err: err}
	}
	b.form = form

	return form, nil
}

// Decode decodes the body according to its declared content type and
// caches the result. Form content types yield a *codec.Form; everything
// else goes through the codec registry into an untyped value. A missing
// content type is treated as JSON.
//
// Errors: [DecodeError] on unknown content types and malformed input, plus
// any Bytes error.
func (b *Body) Decode(ctx context.Context) (any, error) {
	ct := b.effectiveContentType()
	if codec.IsFormType(ct) {
		form, err := b.Form(ctx)
		if err != nil {
			return nil, err
		}
		return form, nil
	}

	return b.decodeCached(ctx, ct, func(data []byte, v *any) error {
		return b.reg().Unmarshal(ct, data, v)
	})
}

// DecodeTo decodes the body according to its declared content type into
// out, which must be a non-nil pointer. Unlike the untyped accessors the
// result is not cached; each call re-decodes from the buffered bytes.
// Form content types are not registry-decodable; use Form for those.
//
// Errors: [DecodeError] on unknown content types and malformed input, plus
// any Bytes error.
func (b *Body) DecodeTo(ctx context.Context, out any) error {
	ct := b.effectiveContentType()

	data, err := b.Bytes(ctx)
	if err != nil {
		return err
	}

	if err := b.reg().Unmarshal(ct, data, out); err != nil {
		return &DecodeError{ContentType: ct, Err: err}
	}

	return nil
}

// decodeCached runs decode against the buffered body under a per-format
// cache entry.
func (b *Body) decodeCached(ctx context.Context, key string, decode func([]byte, *any) error) (any, error) {
	if v, ok := b.decoded[key]; ok {
		return v, nil
	}

	data, err := b.Bytes(ctx)
	if err != nil {
		return nil, err
	}

	var v any
	if err := decode(data, &v); err != nil {
		return nil, &DecodeError{ContentType: key, Err: err}
	}

	if b.decoded == nil {
		b.decoded = make(map[string]any, 2)
	}
	b.decoded[key] = v

	return v, nil
}

func (b *Body) effectiveContentType() string {
	if b.contentType == "" {
		return codec.MediaTypeJSON
	}

	return b.contentType
}

func (b *Body) reg() *codec.Registry {
	if b.registry != nil {
		return b.registry
	}

	return codecs.Default()
}

// finishBuffering validates the declared length and moves the body to its
// buffered state.
func (b *Body) finishBuffering(data []byte) error {
	if b.declaredLength >= 0 && b.received != b.declaredLength {
		return b.fail(&LengthMismatchError{Declared: b.declaredLength, Received: b.received})
	}
	b.buf = data
	b.state = stateBuffered

	return nil
}

// fail moves the body to its terminal failed state. Every later accessor
// returns the same error.
func (b *Body) fail(err error) error {
	b.state = stateFailed
	b.err = err

	return err
}

// streamReader adapts the chunked transport reader to io.Reader, teeing
// everything it delivers so a fully drained stream leaves the body
// buffered.
type streamReader struct {
	ctx     context.Context
	body    *Body
	tee     bytes.Buffer
	pending []byte
	sawEnd  bool
	err     error
}

func (r *streamReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(r.pending) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		if r.sawEnd {
			if err := r.body.finishBuffering(r.tee.Bytes()); err != nil {
				r.err = err
				return 0, err
			}
			r.err = io.EOF
			return 0, io.EOF
		}

		chunk, err := r.body.source.Read(r.ctx)
		if len(chunk.Data) > 0 {
			r.body.received += int64(len(chunk.Data))
			r.tee.Write(chunk.Data)
			r.pending = chunk.Data
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.sawEnd = true
				continue
			}
			r.err = r.body.fail(fmt.Errorf("request: read body: %w", err))
			return 0, r.err
		}
		if !chunk.More {
			r.sawEnd = true
		}
	}

	n := copy(p, r.pending)
	r.pending = r.pending[n:]

	return n, nil
}
