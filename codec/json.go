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
	"encoding/json"
)

// JSON decodes JSON bytes to type T.
//
// Example:
//
//	user, err := codec.JSON[CreateUserRequest](body)
//
//	// With options
//	user, err := codec.JSON[CreateUserRequest](body, codec.WithDisallowUnknown())
func JSON[T any](data []byte, opts ...Option) (T, error) {
	var result T
	if err := JSONTo(data, &result, opts...); err != nil {
		return result, err
	}

	return result, nil
}

// JSONTo decodes JSON bytes into out.
//
// Example:
//
//	var user CreateUserRequest
//	err := codec.JSONTo(body, &user)
func JSONTo(data []byte, out any, opts ...Option) error {
	cfg := applyOptions(opts)
	if !cfg.disallowUnknown && !cfg.useNumber {
		return json.Unmarshal(data, out)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	if cfg.disallowUnknown {
		decoder.DisallowUnknownFields()
	}
	if cfg.useNumber {
		decoder.UseNumber()
	}

	return decoder.Decode(out)
}

// jsonCodec implements Codec for application/json.
type jsonCodec struct{}

// JSONCodec returns the Codec for application/json.
func JSONCodec() Codec { return jsonCodec{} }

func (jsonCodec) ContentType() string { return MediaTypeJSON }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
