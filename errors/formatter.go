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

package errors

import (
	"errors"
	"net/http"

	"github.com/vessel-dev/vessel/request"
)

// Formatter renders an error into response components. Implementations
// decide the body shape; the dispatcher decides how it reaches the wire.
//
// Example:
//
//	formatter := errors.NewRFC9457("https://api.example.com/problems")
//	fr := formatter.Format(req, err)
//	resp, _ := builder.Build(fr.Body,
//	    response.WithStatus(fr.Status),
//	    response.WithContentType(fr.ContentType))
type Formatter interface {
	// Format converts an error into response components. req carries the
	// request being answered and may be nil when the failure happened
	// before a request existed.
	Format(req *request.Request, err error) Response
}

// Response is a formatted error, ready to be encoded and sent.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body value, still to be encoded.
	Body any

	// Headers are additional headers to set (optional).
	Headers http.Header
}

// ErrorType lets errors declare their own HTTP status code. Errors that
// do not implement it render as 500.
//
// Example:
//
//	type QuotaError struct{ Limit int }
//
//	func (e QuotaError) Error() string   { return "quota exceeded" }
//	func (e QuotaError) HTTPStatus() int { return http.StatusTooManyRequests }
type ErrorType interface {
	error
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrorDetails lets errors provide additional structured information,
// such as field-level validation results.
type ErrorDetails interface {
	error
	// Details returns structured information about the error.
	Details() any
}

// ErrorCode lets errors provide a machine-readable code.
//
// Example:
//
//	func (e QuotaError) Code() string { return "QUOTA_EXCEEDED" }
type ErrorCode interface {
	error
	// Code returns a machine-readable error code.
	Code() string
}

// NewSimple returns the Simple formatter.
func NewSimple() *Simple {
	return &Simple{}
}

// NewRFC9457 returns an RFC 9457 Problem Details formatter. baseURL is
// prepended to problem type slugs to build full URIs and may be empty.
//
// Example:
//
//	formatter := errors.NewRFC9457("https://api.example.com/problems")
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{BaseURL: baseURL}
}

// NewJSONAPI returns a JSON:API error formatter.
func NewJSONAPI() *JSONAPI {
	return &JSONAPI{}
}

// StatusOf reports the HTTP status code an error resolves to through the
// ErrorType interface, or 0 when the error declares none. Callers use the
// zero return to distinguish opted-in application errors from internal
// failures that must not leak.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}

	return 0
}

// WithStatus wraps an error with an explicit HTTP status code. The result
// implements ErrorType, so formatters honor the status while errors.Is
// and errors.As still reach the wrapped error. A nil err renders as the
// standard status text.
//
// Example:
//
//	return errors.WithStatus(storage.ErrNoRows, http.StatusNotFound)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}

	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}
