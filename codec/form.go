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

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/url"
)

// defaultMaxFormMemory bounds the in-memory portion of a parsed multipart
// form. Parts beyond it spill to temporary files.
const defaultMaxFormMemory = 32 << 20 // 32 MB

// Form holds parsed form data from a URL-encoded or multipart body.
// Values are always present; files only for multipart/form-data.
//
// Example:
//
//	form, err := codec.ParseForm(body, contentType)
//	if err != nil {
//	    return err
//	}
//	name := form.Get("name")
//	avatar, err := form.File("avatar")
type Form struct {
	values url.Values
	files  map[string][]*multipart.FileHeader
}

// NewForm creates a Form from already-parsed values and files.
// Either argument may be nil.
func NewForm(values url.Values, files map[string][]*multipart.FileHeader) *Form {
	if values == nil {
		values = url.Values{}
	}

	return &Form{values: values, files: files}
}

// IsFormType reports whether the Content-Type header value names a form
// encoding this package can parse.
func IsFormType(contentType string) bool {
	switch normalizeMediaType(contentType) {
	case MediaTypeForm, MediaTypeMultipart:
		return true
	default:
		return false
	}
}

// ParseForm parses a request body as form data according to its content
// type. application/x-www-form-urlencoded bodies yield values only;
// multipart/form-data bodies yield values and files.
//
// Errors:
//   - [ErrNotForm]: the content type is not a form encoding
//   - [ErrMissingBoundary]: a multipart content type without a boundary
func ParseForm(data []byte, contentType string) (*Form, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("codec: invalid content type %q: %w", contentType, err)
	}

	switch mediaType {
	case MediaTypeForm:
		values, err := url.ParseQuery(string(data))
		if err != nil {
			return nil, fmt.Errorf("codec: parse form: %w", err)
		}

		return NewForm(values, nil), nil

	case MediaTypeMultipart:
		boundary, ok := params["boundary"]
		if !ok || boundary == "" {
			return nil, ErrMissingBoundary
		}

		reader := multipart.NewReader(bytes.NewReader(data), boundary)
		mf, err := reader.ReadForm(defaultMaxFormMemory)
		if err != nil {
			return nil, fmt.Errorf("codec: parse multipart form: %w", err)
		}

		return NewForm(url.Values(mf.Value), mf.File), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrNotForm, contentType)
	}
}

// Get returns the first value for the key, or "" when absent.
func (f *Form) Get(key string) string {
	if vals := f.values[key]; len(vals) > 0 {
		return vals[0]
	}
	// Bracket notation fallback: tags[]=go&tags[]=rust
	if vals := f.values[key+"[]"]; len(vals) > 0 {
		return vals[0]
	}

	return ""
}

// GetAll returns all values for the key. It supports both repeated key
// patterns ("tags=go&tags=rust") and bracket notation ("tags[]=go").
func (f *Form) GetAll(key string) []string {
	if vals := f.values[key]; len(vals) > 0 {
		return vals
	}

	return f.values[key+"[]"]
}

// Has returns whether the key exists in form values.
func (f *Form) Has(key string) bool {
	return f.values.Has(key) || f.values.Has(key+"[]")
}

// Values returns the underlying form values.
func (f *Form) Values() url.Values {
	return f.values
}

// File returns the first uploaded file for the given field name.
// Returns [ErrFileNotFound] if no file exists for the field name.
//
// Example:
//
//	file, err := form.File("avatar")
//	if err != nil {
//	    return err
//	}
//	src, err := file.Open()
func (f *Form) File(name string) (*multipart.FileHeader, error) {
	headers := f.files[name]
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrFileNotFound, name)
	}

	return headers[0], nil
}

// Files returns all uploaded files for the given field name.
// Returns [ErrNoFilesFound] if no files exist for the field name.
func (f *Form) Files(name string) ([]*multipart.FileHeader, error) {
	headers := f.files[name]
	if len(headers) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoFilesFound, name)
	}

	return headers, nil
}

// HasFile returns true if at least one file exists for the field name.
func (f *Form) HasFile(name string) bool {
	return len(f.files[name]) > 0
}

// FileNames returns the field names that carry at least one file.
func (f *Form) FileNames() []string {
	names := make([]string, 0, len(f.files))
	for name, headers := range f.files {
		if len(headers) > 0 {
			names = append(names, name)
		}
	}

	return names
}
