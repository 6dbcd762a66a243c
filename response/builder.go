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

package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/vessel-dev/vessel/codec"
	"github.com/vessel-dev/vessel/codec/codecs"
)

// defaultJSONContentType is used for value responses that declare no
// content type of their own.
const defaultJSONContentType = "application/json; charset=utf-8"

// Builder finalizes handler return values into wire-ready responses.
// The zero value uses the full default codec registry and is safe for
// concurrent use.
type Builder struct {
	registry *codec.Registry
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRegistry sets the codec registry used to encode value responses.
//
// Example:
//
//	b := response.NewBuilder(response.WithRegistry(
//	    codec.NewRegistry(codec.JSONCodec()),
//	))
func WithRegistry(registry *codec.Registry) BuilderOption {
	return func(b *Builder) {
		b.registry = registry
	}
}

// NewBuilder returns a Builder for handler return values.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build normalizes a handler return value into a finalized Response.
//
// The supported shapes are:
//
//   - nil: 204 No Content
//   - *Response: used as-is; the value is encoded if it still needs it
//   - json.RawMessage: pre-encoded JSON, sent untouched
//   - []byte: raw body, application/octet-stream unless declared otherwise
//   - string: text/plain
//   - anything else: encoded through the codec registry for the declared
//     content type, JSON when none is declared
//
// Options are applied before encoding, so WithContentType can steer a
// value response toward any registered codec:
//
//	resp, err := b.Build(event, response.WithContentType("application/msgpack"))
//
// Build never mutates a *Response passed in by the handler; it finalizes a
// copy. Finalizing fills the default content type, appends the utf-8
// charset to bare text/* types, recomputes Content-Length from the encoded
// body, and strips the body from 1xx, 204, and 304 responses.
func (b *Builder) Build(result any, opts ...Option) (*Response, error) {
	var resp *Response

	switch v := result.(type) {
	case nil:
		resp = &Response{status: http.StatusNoContent}
	case *Response:
		if v == nil {
			resp = &Response{status: http.StatusNoContent}
		} else {
			resp = v.clone()
		}
	case json.RawMessage:
		resp = &Response{status: http.StatusOK, body: []byte(v)}
		resp.Header().Set("Content-Type", defaultJSONContentType)
	case []byte:
		resp = &Response{status: http.StatusOK, body: v}
	case string:
		resp = &Response{status: http.StatusOK, body: []byte(v)}
		resp.Header().Set("Content-Type", codec.MediaTypeText)
	default:
		resp = &Response{status: http.StatusOK, value: result, hasValue: true}
	}

	for _, opt := range opts {
		opt(resp)
	}

	if resp.hasValue && resp.body == nil {
		if err := b.encode(resp); err != nil {
			return nil, err
		}
	}

	b.finalize(resp)

	return resp, nil
}

// encode serializes a value response through the registry codec for its
// declared content type.
func (b *Builder) encode(resp *Response) error {
	contentType := resp.contentType()
	if contentType == "" {
		contentType = defaultJSONContentType
		resp.Header().Set("Content-Type", contentType)
	}

	body, err := b.reg().Marshal(contentType, resp.value)
	if err != nil {
		return fmt.Errorf("response: encode %T: %w", resp.value, err)
	}

	resp.body = body

	return nil
}

// finalize fills derived headers and enforces bodyless status codes.
func (b *Builder) finalize(resp *Response) {
	if resp.status == 0 {
		resp.status = http.StatusOK
	}

	if bodyless(resp.status) {
		resp.body = nil
		if resp.header != nil {
			resp.header.Del("Content-Length")
		}

		return
	}

	contentType := resp.contentType()
	switch {
	case contentType == "" && len(resp.body) > 0:
		resp.Header().Set("Content-Type", codec.MediaTypeBinary)
	case strings.HasPrefix(contentType, "text/") && !strings.Contains(contentType, "charset="):
		resp.Header().Set("Content-Type", contentType+"; charset=utf-8")
	}

	// Caller headers survive finalization except Content-Length, which
	// must describe the body actually going to the wire.
	resp.Header().Set("Content-Length", strconv.Itoa(len(resp.body)))
}

func (b *Builder) reg() *codec.Registry {
	if b.registry != nil {
		return b.registry
	}

	return codecs.Default()
}

// bodyless reports whether a status code forbids a message body.
func bodyless(status int) bool {
	return status < http.StatusOK ||
		status == http.StatusNoContent ||
		status == http.StatusNotModified
}
