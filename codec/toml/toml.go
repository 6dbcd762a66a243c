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

// Package toml provides TOML support for the codec package.
//
// This package extends the codec registry with TOML serialization, using
// github.com/BurntSushi/toml for encoding and decoding.
//
// Example:
//
//	type Settings struct {
//	    Host string `toml:"host"`
//	    Port int    `toml:"port"`
//	}
//
//	settings, err := toml.TOML[Settings](body)
package toml

import (
	"github.com/BurntSushi/toml"

	"github.com/vessel-dev/vessel/codec"
)

// Metadata is an alias for toml.MetaData to simplify imports.
type Metadata = toml.MetaData

// TOML decodes TOML bytes to type T.
//
// Example:
//
//	settings, err := toml.TOML[Settings](body)
func TOML[T any](data []byte) (T, error) {
	var result T
	if err := TOMLTo(data, &result); err != nil {
		return result, err
	}

	return result, nil
}

// TOMLWithMetadata decodes TOML bytes to type T and returns decode metadata.
// The metadata contains information about which keys were decoded.
//
// Example:
//
//	settings, meta, err := toml.TOMLWithMetadata[Settings](body)
//	if len(meta.Undecoded()) > 0 {
//	    log.Printf("unknown keys: %v", meta.Undecoded())
//	}
func TOMLWithMetadata[T any](data []byte) (T, Metadata, error) {
	var result T
	meta, err := toml.Decode(string(data), &result)
	if err != nil {
		return result, meta, err
	}

	return result, meta, nil
}

// TOMLTo decodes TOML bytes into out.
//
// Example:
//
//	var settings Settings
//	err := toml.TOMLTo(body, &settings)
func TOMLTo(data []byte, out any) error {
	// An interface target needs an addressable map underneath, which
	// toml.Unmarshal does not synthesize on its own.
	if p, ok := out.(*any); ok {
		m := map[string]any{}
		if err := toml.Unmarshal(data, &m); err != nil {
			return err
		}
		*p = m

		return nil
	}

	return toml.Unmarshal(data, out)
}

// Marshal encodes v into TOML bytes.
func Marshal(v any) ([]byte, error) {
	return toml.Marshal(v)
}

// registryCodec implements codec.Codec for application/toml.
type registryCodec struct{}

// NewCodec returns a codec.Codec for application/toml, suitable for
// registering in a codec.Registry.
//
// Example:
//
//	reg := codec.NewRegistry(codec.JSONCodec(), toml.NewCodec())
func NewCodec() codec.Codec {
	return registryCodec{}
}

func (registryCodec) ContentType() string { return codec.MediaTypeTOML }

func (registryCodec) Marshal(v any) ([]byte, error) { return toml.Marshal(v) }

func (registryCodec) Unmarshal(data []byte, v any) error { return TOMLTo(data, v) }
