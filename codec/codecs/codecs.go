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

// Package codecs assembles a codec registry covering every format the
// codec tree ships. It exists so consumers get the full set with one
// import instead of wiring each subpackage by hand.
package codecs

import (
	"sync"

	"github.com/vessel-dev/vessel/codec"
	"github.com/vessel-dev/vessel/codec/msgpack"
	"github.com/vessel-dev/vessel/codec/proto"
	"github.com/vessel-dev/vessel/codec/toml"
	"github.com/vessel-dev/vessel/codec/yaml"
)

var (
	defaultOnce sync.Once
	defaultReg  *codec.Registry
)

// New builds a registry with every built-in codec registered: JSON, XML
// (plus the text/xml alias), MessagePack (json struct tags), YAML, TOML,
// and protobuf. The caller owns the returned registry and may add or
// replace codecs freely.
func New() *codec.Registry {
	reg := codec.NewRegistry(
		codec.JSONCodec(),
		codec.XMLCodec(),
		msgpack.NewCodec(msgpack.WithJSONTag()),
		yaml.NewCodec(),
		toml.NewCodec(),
		proto.NewCodec(),
	)
	reg.Register(codec.XMLCodec(), "text/xml")

	return reg
}

// Default returns the shared registry with every built-in codec. It must
// be treated as read-only; callers that want to customize should build
// their own with [New].
func Default() *codec.Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
	})

	return defaultReg
}
