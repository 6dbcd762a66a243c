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
	"errors"
	"fmt"
)

// Static errors for request operations.
var (
	// ErrBodyConsumed is returned when a body accessor conflicts with an
	// earlier access: Stream after a buffering call, or a buffering call
	// while a partially drained stream is outstanding.
	ErrBodyConsumed = errors.New("request: body already consumed")

	// ErrParamMissing is returned when a typed accessor names a path
	// parameter the route did not capture.
	ErrParamMissing = errors.New("request: missing parameter")

	// ErrParamInvalid is returned when a path parameter cannot be parsed
	// as the requested type.
	ErrParamInvalid = errors.New("request: invalid parameter value")
)

// DecodeError reports a body decode failure. It carries the media type the
// body was decoded as and the underlying cause. Decode failures are
// recoverable: the buffered body stays available and other accessors keep
// working.
type DecodeError struct {
	// ContentType is the media type the decode was attempted with.
	ContentType string

	// Err is the underlying decode failure.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("request: decode %s body: %v", e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// LengthMismatchError reports disagreement between the declared
// Content-Length and the bytes actually received from the transport. It is
// a protocol-level failure: the body is unusable afterwards.
type LengthMismatchError struct {
	// Declared is the Content-Length the request announced.
	Declared int64

	// Received is the number of body bytes the transport delivered.
	Received int64
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("request: content length mismatch: declared %d, received %d", e.Declared, e.Received)
}
