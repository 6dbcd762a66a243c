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
	"fmt"
	"mime"
	"sort"
	"strings"
)

// Common media types understood by the codec package and its subpackages.
const (
	MediaTypeJSON      = "application/json"
	MediaTypeXML       = "application/xml"
	MediaTypeForm      = "application/x-www-form-urlencoded"
	MediaTypeMultipart = "multipart/form-data"
	MediaTypeMsgPack   = "application/msgpack"
	MediaTypeYAML      = "application/yaml"
	MediaTypeTOML      = "application/toml"
	MediaTypeProto     = "application/x-protobuf"
	MediaTypeText      = "text/plain"
	MediaTypeHTML      = "text/html"
	MediaTypeBinary    = "application/octet-stream"
)

// Codec converts between bytes and Go values for one media type.
//
// Implementations must be safe for concurrent use; all codecs in this
// package and its subpackages are.
type Codec interface {
	// ContentType returns the canonical media type the codec produces,
	// without parameters.
	ContentType() string

	// Marshal encodes v into the codec's wire format.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v, which must be a non-nil pointer.
	Unmarshal(data []byte, v any) error
}

// Registry dispatches codec operations on a Content-Type header value.
//
// Lookup normalizes the media type (parameters stripped, lowercased) and
// falls back along structured syntax suffixes: a miss on
// "application/vnd.api+json" retries as "application/json".
//
// Thread safety: Register calls must complete before the registry is used
// concurrently. Lookup, Marshal, and Unmarshal are safe for concurrent use
// once registration is done.
type Registry struct {
	codecs map[string]Codec
}

// NewRegistry creates a registry with each codec registered under its
// canonical content type.
//
// Example:
//
//	reg := codec.NewRegistry(
//	    codec.JSONCodec(),
//	    codec.XMLCodec(),
//	    msgpack.Codec(),
//	)
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{codecs: make(map[string]Codec, len(codecs))}
	for _, c := range codecs {
		r.Register(c)
	}

	return r
}

// Register adds a codec under its canonical content type plus any extra
// aliases. Registering the same media type twice replaces the earlier codec.
//
// Example:
//
//	reg.Register(codec.JSONCodec(), "text/json")
func (r *Registry) Register(c Codec, aliases ...string) {
	r.codecs[normalizeMediaType(c.ContentType())] = c
	for _, alias := range aliases {
		r.codecs[normalizeMediaType(alias)] = c
	}
}

// Lookup returns the codec for the given Content-Type header value.
// Parameters such as charset are ignored.
func (r *Registry) Lookup(contentType string) (Codec, bool) {
	mt := normalizeMediaType(contentType)
	if c, ok := r.codecs[mt]; ok {
		return c, true
	}

	// Structured syntax suffix: application/foo+json falls back to the
	// registered codec for application/json.
	if idx := strings.LastIndexByte(mt, '+'); idx >= 0 {
		if slash := strings.IndexByte(mt, '/'); slash >= 0 {
			if c, ok := r.codecs[mt[:slash+1]+mt[idx+1:]]; ok {
				return c, true
			}
		}
	}

	return nil, false
}

// Unmarshal decodes data into v using the codec registered for contentType.
// Returns an error wrapping [ErrUnknownContentType] when no codec matches.
func (r *Registry) Unmarshal(contentType string, data []byte, v any) error {
	c, ok := r.Lookup(contentType)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	return c.Unmarshal(data, v)
}

// Marshal encodes v using the codec registered for contentType.
// Returns an error wrapping [ErrUnknownContentType] when no codec matches.
func (r *Registry) Marshal(contentType string, v any) ([]byte, error) {
	c, ok := r.Lookup(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContentType, contentType)
	}

	return c.Marshal(v)
}

// ContentTypes returns the registered media types in sorted order.
func (r *Registry) ContentTypes() []string {
	types := make([]string, 0, len(r.codecs))
	for mt := range r.codecs {
		types = append(types, mt)
	}
	sort.Strings(types)

	return types
}

// normalizeMediaType strips parameters and lowercases the media type.
// Malformed header values degrade to a manual strip instead of failing so
// that lookup errors surface as unknown content types.
func normalizeMediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = contentType
		if idx := strings.IndexByte(mt, ';'); idx >= 0 {
			mt = mt[:idx]
		}
		mt = strings.ToLower(strings.TrimSpace(mt))
	}

	return mt
}
