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

package codec

import "errors"

// Static errors for codec operations.
var (
	// ErrUnknownContentType is returned by Registry lookups when no codec is
	// registered for the requested media type.
	ErrUnknownContentType = errors.New("codec: unknown content type")

	// ErrNotForm is returned by ParseForm when the content type is neither
	// application/x-www-form-urlencoded nor multipart/form-data.
	ErrNotForm = errors.New("codec: content type is not a form")

	// ErrMissingBoundary is returned by ParseForm when a multipart content
	// type carries no boundary parameter.
	ErrMissingBoundary = errors.New("codec: multipart content type missing boundary")

	// ErrFileNotFound is returned by Form.File when no file exists for the
	// field name.
	ErrFileNotFound = errors.New("codec: file not found")

	// ErrNoFilesFound is returned by Form.Files when no files exist for the
	// field name.
	ErrNoFilesFound = errors.New("codec: no files found")
)
