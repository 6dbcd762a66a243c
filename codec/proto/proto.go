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

// Package proto provides Protocol Buffers support for the codec package.
//
// This package extends the codec registry with protobuf binary
// serialization, using google.golang.org/protobuf for encoding and
// decoding.
//
// Example:
//
//	user, err := proto.Proto[*pb.User](body)
package proto

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/proto"

	"github.com/vessel-dev/vessel/codec"
)

// Message is an alias for proto.Message to simplify imports.
type Message = proto.Message

// ErrNotProtoMessage is returned when a value passed through the registry
// codec does not implement proto.Message.
var ErrNotProtoMessage = errors.New("proto: value does not implement proto.Message")

// Option configures protobuf decode behavior.
type Option func(*config)

// config holds protobuf-specific configuration.
type config struct {
	allowPartial   bool
	discardUnknown bool
	recursionLimit int
}

// WithAllowPartial allows messages with missing required fields.
func WithAllowPartial() Option {
	return func(c *config) {
		c.allowPartial = true
	}
}

// WithDiscardUnknown discards unknown fields instead of preserving them.
func WithDiscardUnknown() Option {
	return func(c *config) {
		c.discardUnknown = true
	}
}

// WithRecursionLimit sets the maximum message nesting depth.
func WithRecursionLimit(limit int) Option {
	return func(c *config) {
		c.recursionLimit = limit
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

func (c *config) toUnmarshalOptions() proto.UnmarshalOptions {
	return proto.UnmarshalOptions{
		AllowPartial:   c.allowPartial,
		DiscardUnknown: c.discardUnknown,
		RecursionLimit: c.recursionLimit,
	}
}

// Proto decodes protobuf bytes to type T.
// T must implement proto.Message.
//
// Example:
//
//	user, err := proto.Proto[*pb.User](body)
//
//	// With options
//	user, err := proto.Proto[*pb.User](body, proto.WithDiscardUnknown())
func Proto[T Message](data []byte, opts ...Option) (T, error) {
	var result T

	// T is a pointer to a proto message, so allocate through reflection.
	result = result.ProtoReflect().New().Interface().(T)

	if err := ProtoTo(data, result, opts...); err != nil {
		var zero T
		return zero, err
	}

	return result, nil
}

// ProtoTo decodes protobuf bytes into out.
// out must implement proto.Message.
//
// Example:
//
//	var user pb.User
//	err := proto.ProtoTo(body, &user)
func ProtoTo(data []byte, out Message, opts ...Option) error {
	cfg := applyOptions(opts)

	return cfg.toUnmarshalOptions().Unmarshal(data, out)
}

// Marshal encodes a proto message into protobuf bytes.
func Marshal(m Message) ([]byte, error) {
	return proto.Marshal(m)
}

// registryCodec implements codec.Codec for application/x-protobuf.
//
// Both sides of the codec require proto.Message values; anything else
// fails with [ErrNotProtoMessage]. Decoding into an interface target is
// not possible without the concrete message type.
type registryCodec struct {
	cfg *config
}

// NewCodec returns a codec.Codec for application/x-protobuf, suitable for
// registering in a codec.Registry.
//
// Example:
//
//	reg := codec.NewRegistry(codec.JSONCodec(), proto.NewCodec())
func NewCodec(opts ...Option) codec.Codec {
	return registryCodec{cfg: applyOptions(opts)}
}

func (registryCodec) ContentType() string { return codec.MediaTypeProto }

func (registryCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}

	return proto.Marshal(m)
}

func (c registryCodec) Unmarshal(data []byte, v any) error {
	m, ok := v.(Message)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}

	return c.cfg.toUnmarshalOptions().Unmarshal(data, m)
}
