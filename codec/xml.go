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

import "encoding/xml"

// XML decodes XML bytes to type T.
//
// Example:
//
//	user, err := codec.XML[CreateUserRequest](body)
func XML[T any](data []byte) (T, error) {
	var result T
	if err := XMLTo(data, &result); err != nil {
		return result, err
	}

	return result, nil
}

// XMLTo decodes XML bytes into out.
//
// Example:
//
//	var user CreateUserRequest
//	err := codec.XMLTo(body, &user)
func XMLTo(data []byte, out any) error {
	return xml.Unmarshal(data, out)
}

// xmlCodec implements Codec for application/xml.
//
// Unmarshal into an interface target is not supported by encoding/xml;
// callers decoding XML should provide a concrete struct.
type xmlCodec struct{}

// XMLCodec returns the Codec for application/xml. It also serves text/xml
// when registered with that alias.
func XMLCodec() Codec { return xmlCodec{} }

func (xmlCodec) ContentType() string { return MediaTypeXML }

func (xmlCodec) Marshal(v any) ([]byte, error) { return xml.Marshal(v) }

func (xmlCodec) Unmarshal(data []byte, v any) error { return xml.Unmarshal(data, v) }
