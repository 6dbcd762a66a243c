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

// Package yaml provides YAML support for the codec package.
//
// This package extends the codec registry with YAML serialization, using
// gopkg.in/yaml.v3 for encoding and decoding.
//
// Example:
//
//	type Job struct {
//	    Name     string `yaml:"name"`
//	    Schedule string `yaml:"schedule"`
//	}
//
//	job, err := yaml.YAML[Job](body)
package yaml

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/vessel-dev/vessel/codec"
)

// Option configures YAML decode behavior.
type Option func(*config)

// config holds YAML-specific configuration.
type config struct {
	knownFields bool
}

// WithKnownFields enables strict mode that returns an error if the YAML
// document contains fields not in the target struct.
func WithKnownFields() Option {
	return func(c *config) {
		c.knownFields = true
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// YAML decodes YAML bytes to type T.
//
// Example:
//
//	job, err := yaml.YAML[Job](body)
//
//	// With options
//	job, err := yaml.YAML[Job](body, yaml.WithKnownFields())
func YAML[T any](data []byte, opts ...Option) (T, error) {
	var result T
	if err := YAMLTo(data, &result, opts...); err != nil {
		return result, err
	}

	return result, nil
}

// YAMLTo decodes YAML bytes into out.
//
// Example:
//
//	var job Job
//	err := yaml.YAMLTo(body, &job)
func YAMLTo(data []byte, out any, opts ...Option) error {
	cfg := applyOptions(opts)
	if !cfg.knownFields {
		return yaml.Unmarshal(data, out)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	return dec.Decode(out)
}

// Marshal encodes v into YAML bytes.
func Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

// registryCodec implements codec.Codec for application/yaml.
type registryCodec struct {
	cfg *config
}

// NewCodec returns a codec.Codec for application/yaml, suitable for
// registering in a codec.Registry.
//
// Example:
//
//	reg := codec.NewRegistry(codec.JSONCodec(), yaml.NewCodec())
func NewCodec(opts ...Option) codec.Codec {
	return registryCodec{cfg: applyOptions(opts)}
}

func (registryCodec) ContentType() string { return codec.MediaTypeYAML }

func (registryCodec) Marshal(v any) ([]byte, error) { return yaml.Marshal(v) }

func (c registryCodec) Unmarshal(data []byte, v any) error {
	if !c.cfg.knownFields {
		return yaml.Unmarshal(data, v)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	return dec.Decode(v)
}
