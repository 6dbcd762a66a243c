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
	"net/http"
)

// Error is an application error with an HTTP identity. Handlers return it
// to control the status code, message, extra headers, and extra body
// fields of the error response.
//
// Error implements ErrorType and ErrorDetails, so any Formatter renders
// it without special configuration.
//
// Example:
//
//	return nil, errors.New(http.StatusTooEarly, "replay detected").
//	    WithHeader("Retry-After", "2").
//	    WithField("attempt", attempt)
type Error struct {
	// Status is the HTTP status code.
	Status int

	// Message is the human-readable description sent to the client.
	Message string

	// Headers are merged into the error response (optional).
	Headers http.Header

	// Fields are merged into the error body (optional).
	Fields map[string]any
}

// New returns an Error with the given status code and message. An empty
// message falls back to the standard status text, so New(404, "") reads
// "Not Found".
func New(status int, message string) *Error {
	if message == "" {
		message = http.StatusText(status)
	}

	return &Error{Status: status, Message: message}
}

// Convenience constructors for the common client and server failures.
// An empty message falls back to the standard status text.

// BadRequest returns a 400 Error.
func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

// Unauthorized returns a 401 Error.
func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

// Forbidden returns a 403 Error.
func Forbidden(message string) *Error {
	return New(http.StatusForbidden, message)
}

// NotFound returns a 404 Error.
func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Conflict returns a 409 Error.
func Conflict(message string) *Error {
	return New(http.StatusConflict, message)
}

// Internal returns a 500 Error.
func Internal(message string) *Error {
	return New(http.StatusInternalServerError, message)
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// HTTPStatus implements ErrorType.
func (e *Error) HTTPStatus() int {
	return e.Status
}

// Details implements ErrorDetails. It returns the extra fields, or nil
// when there are none.
func (e *Error) Details() any {
	if len(e.Fields) == 0 {
		return nil
	}

	return e.Fields
}

// WithField adds a field to the error body and returns the receiver for
// chaining.
func (e *Error) WithField(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	e.Fields[key] = value

	return e
}

// WithHeader sets a header on the error response and returns the receiver
// for chaining.
//
// Example:
//
//	errors.New(http.StatusMethodNotAllowed, "").WithHeader("Allow", "GET, POST")
func (e *Error) WithHeader(key, value string) *Error {
	if e.Headers == nil {
		e.Headers = make(http.Header)
	}
	e.Headers.Set(key, value)

	return e
}
