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

// Package codec converts request and response bodies between bytes and Go
// values, keyed by media type.
//
// The package ships JSON and XML codecs plus form parsing (URL-encoded and
// multipart). Additional formats live in subpackages so their dependencies
// stay optional: codec/msgpack, codec/yaml, codec/toml, and codec/proto.
//
// Decoding bytes directly:
//
//	user, err := codec.JSON[CreateUserRequest](body)
//
//	var user CreateUserRequest
//	err := codec.JSONTo(body, &user)
//
// Dispatching on a Content-Type header goes through a Registry:
//
//	reg := codec.NewRegistry(codec.JSONCodec(), codec.XMLCodec())
//	var v any
//	err := reg.Unmarshal("application/json; charset=utf-8", body, &v)
//
// Media type parameters are ignored during lookup, and structured syntax
// suffixes fall back to their base format, so "application/vnd.api+json"
// resolves to the JSON codec unless a more specific codec is registered.
package codec
