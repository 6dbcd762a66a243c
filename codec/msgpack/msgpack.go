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

// Package msgpack provides MessagePack support for the codec package.
//
// This package extends the codec registry with MessagePack serialization,
// using github.com/vmihailenco/msgpack/v5 for encoding and decoding.
//
// Example:
//
//	type Message struct {
//	    ID      int64  `json:"id"`
//	    Content string `json:"content"`
//	}
//
//	msg, err := msgpack.MsgPack[Message](body, msgpack.WithJSONTag())
//	if err != nil {
//	    // handle error
//	}
package msgpack

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/vessel-dev/vessel/codec"
)

// Option configures MessagePack encode and decode behavior.
type Option func(*config)

// config holds MessagePack-specific configuration.
type config struct {
	useJSONTag      bool // Use json tag for field names instead of msgpack
	disallowUnknown bool // Disallow unknown fields
}

// WithJSONTag enables using JSON struct tags for field names.
// By default, msgpack struct tags are used.
func WithJSONTag() Option {
	return func(c *config) {
		c.useJSONTag = true
	}
}

// WithDisallowUnknown enables strict mode that returns an error
// if the MessagePack data contains fields not in the struct.
func WithDisallowUnknown() Option {
	return func(c *config) {
		c.disallowUnknown = true
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// MsgPack decodes MessagePack bytes to type T.
//
// Example:
//
//	msg, err := msgpack.MsgPack[Message](body)
//
//	// With options
//	msg, err := msgpack.MsgPack[Message](body, msgpack.WithJSONTag())
func MsgPack[T any](data []byte, opts ...Option) (T, error) {
	var result T
	if err := MsgPackTo(data, &result, opts...); err != nil {
		return result, err
	}

	return result, nil
}

// MsgPackTo decodes MessagePack bytes into out.
//
// Example:
//
//	var msg Message
//	err := msgpack.MsgPackTo(body, &msg)
func MsgPackTo(data []byte, out any, opts ...Option) error {
	cfg := applyOptions(opts)
	if !cfg.useJSONTag && !cfg.disallowUnknown {
		return msgpack.Unmarshal(data, out)
	}

	return decodeWithConfig(data, out, cfg)
}

// Marshal encodes v into MessagePack bytes.
//
// Example:
//
//	data, err := msgpack.Marshal(msg, msgpack.WithJSONTag())
func Marshal(v any, opts ...Option) ([]byte, error) {
	cfg := applyOptions(opts)
	if !cfg.useJSONTag {
		return msgpack.Marshal(v)
	}

	return encodeWithConfig(v, cfg)
}

func decodeWithConfig(data []byte, out any, cfg *config) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	if cfg.useJSONTag {
		dec.SetCustomStructTag("json")
	}
	if cfg.disallowUnknown {
		dec.DisallowUnknownFields(true)
	}

	return dec.Decode(out)
}

func encodeWithConfig(v any, cfg *config) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if cfg.useJSONTag {
		enc.SetCustomStructTag("json")
	}
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// registryCodec implements codec.Codec for application/msgpack.
type registryCodec struct {
	cfg *config
}

// NewCodec returns a codec.Codec for application/msgpack, suitable for
// registering in a codec.Registry.
//
// Example:
//
//	reg := codec.NewRegistry(
//	    codec.JSONCodec(),
//	    msgpack.NewCodec(msgpack.WithJSONTag()),
//	)
func NewCodec(opts ...Option) codec.Codec {
	return registryCodec{cfg: applyOptions(opts)}
}

func (registryCodec) ContentType() string { return codec.MediaTypeMsgPack }

func (c registryCodec) Marshal(v any) ([]byte, error) {
	if !c.cfg.useJSONTag {
		return msgpack.Marshal(v)
	}

	return encodeWithConfig(v, c.cfg)
}

func (c registryCodec) Unmarshal(data []byte, v any) error {
	if !c.cfg.useJSONTag && !c.cfg.disallowUnknown {
		return msgpack.Unmarshal(data, v)
	}

	return decodeWithConfig(data, v, c.cfg)
}
