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

// Package errors carries application errors from handlers to the wire.
//
// Error is the type handlers return when a failure should surface to the
// client with a specific status code:
//
//	return nil, errors.NotFound("user not found")
//	return nil, errors.BadRequest("email is required").
//	    WithField("field", "email")
//
// How an error is rendered is decided by a Formatter. The package ships
// three:
//   - Simple: plain JSON objects, {"message": ...} (the default)
//   - RFC9457: RFC 9457 Problem Details (application/problem+json)
//   - JSONAPI: JSON:API error arrays (application/vnd.api+json)
//
// Formatters never send anything themselves; Format returns the status,
// content type, body value, and extra headers, and the dispatcher turns
// that into a wire response.
//
// Domain errors outside this package can participate by implementing the
// optional interfaces:
//   - ErrorType: declare an HTTP status code
//   - ErrorDetails: provide structured details
//   - ErrorCode: provide a machine-readable code
//
// An error that implements none of them renders as a generic 500, so
// internal failures never leak detail by accident.
package errors
