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
	"net/http"

	"github.com/vessel-dev/vessel/codec"
)

// Response is a handler's reply before it reaches the wire. It holds the
// status code, headers, and either an already-encoded body or a value the
// Builder still has to encode. The zero value is not useful; use New or one
// of the constructors.
//
// A Response built by a constructor is an intent, not a finished message:
// Content-Length, the charset parameter, and the default content type are
// filled in by Builder.Build.
type Response struct {
	status   int
	header   http.Header
	body     []byte
	value    any
	hasValue bool
}

// Option mutates a Response under construction. Options are accepted by
// every constructor and by Builder.Build, where they are applied before
// encoding.
type Option func(*Response)

// WithStatus overrides the status code.
func WithStatus(code int) Option {
	return func(r *Response) {
		r.status = code
	}
}

// WithHeader sets a response header, replacing any existing value for the
// key.
//
// Example:
//
//	response.JSON(user, response.WithHeader("Cache-Control", "no-store"))
func WithHeader(key, value string) Option {
	return func(r *Response) {
		r.Header().Set(key, value)
	}
}

// WithAddedHeader appends a response header value without replacing
// existing ones. Useful for repeatable headers such as Set-Cookie or Vary.
func WithAddedHeader(key, value string) Option {
	return func(r *Response) {
		r.Header().Add(key, value)
	}
}

// WithContentType declares the body's content type. For value responses
// the Builder uses it to pick the codec; for byte responses it is sent
// as-is.
func WithContentType(contentType string) Option {
	return func(r *Response) {
		r.Header().Set("Content-Type", contentType)
	}
}

// WithCookie appends a Set-Cookie header for the given cookie.
//
// Example:
//
//	response.NoContent(response.WithCookie(&http.Cookie{
//	    Name:     "session",
//	    Value:    token,
//	    Path:     "/",
//	    HttpOnly: true,
//	}))
func WithCookie(cookie *http.Cookie) Option {
	return func(r *Response) {
		r.Header().Add("Set-Cookie", cookie.String())
	}
}

// New returns an empty response with the given status code.
func New(status int, opts ...Option) *Response {
	r := &Response{status: status}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// JSON returns a 200 response whose value is JSON-encoded by the Builder.
func JSON(v any, opts ...Option) *Response {
	r := &Response{status: http.StatusOK, value: v, hasValue: true}
	r.Header().Set("Content-Type", "application/json; charset=utf-8")
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// MsgPack returns a 200 response whose value is MessagePack-encoded by the
// Builder.
func MsgPack(v any, opts ...Option) *Response {
	r := &Response{status: http.StatusOK, value: v, hasValue: true}
	r.Header().Set("Content-Type", codec.MediaTypeMsgPack)
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Text returns a 200 text/plain response.
func Text(s string, opts ...Option) *Response {
	r := &Response{status: http.StatusOK, body: []byte(s)}
	r.Header().Set("Content-Type", codec.MediaTypeText)
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// HTML returns a 200 text/html response.
func HTML(s string, opts ...Option) *Response {
	r := &Response{status: http.StatusOK, body: []byte(s)}
	r.Header().Set("Content-Type", codec.MediaTypeHTML)
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Raw returns a 200 response with a pre-encoded body. An empty contentType
// is filled with application/octet-stream when the response is built.
func Raw(contentType string, body []byte, opts ...Option) *Response {
	r := &Response{status: http.StatusOK, body: body}
	if contentType != "" {
		r.Header().Set("Content-Type", contentType)
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// NoContent returns a 204 response with no body.
func NoContent(opts ...Option) *Response {
	return New(http.StatusNoContent, opts...)
}

// Redirect returns a bodyless response with a Location header.
//
// Example:
//
//	response.Redirect(http.StatusSeeOther, "/orders/"+id)
func Redirect(status int, location string, opts ...Option) *Response {
	r := &Response{status: status}
	r.Header().Set("Location", location)
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// StatusCode returns the response status code.
func (r *Response) StatusCode() int {
	return r.status
}

// Header returns the response headers, allocating them on first use.
func (r *Response) Header() http.Header {
	if r.header == nil {
		r.header = make(http.Header)
	}

	return r.header
}

// Body returns the encoded body. For value responses it is nil until the
// Builder encodes them.
func (r *Response) Body() []byte {
	return r.body
}

// contentType reports the declared Content-Type, or "" when unset.
func (r *Response) contentType() string {
	if r.header == nil {
		return ""
	}

	return r.header.Get("Content-Type")
}

// clone returns a copy whose headers are independent of the original.
// Build finalizes the copy so the handler's response stays untouched.
func (r *Response) clone() *Response {
	cp := *r
	if r.header != nil {
		cp.header = r.header.Clone()
	}

	return &cp
}
