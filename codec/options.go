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

// Option configures decode behavior for the JSON and XML helpers.
type Option func(*config)

// config holds decode configuration.
type config struct {
	disallowUnknown bool
	useNumber       bool
}

// WithDisallowUnknown enables strict mode that returns an error when the
// input contains fields not present in the target struct.
//
// Example:
//
//	user, err := codec.JSON[CreateUserRequest](body, codec.WithDisallowUnknown())
func WithDisallowUnknown() Option {
	return func(c *config) {
		c.disallowUnknown = true
	}
}

// WithUseNumber decodes JSON numbers into json.Number instead of float64
// when the target is an interface value.
func WithUseNumber() Option {
	return func(c *config) {
		c.useNumber = true
	}
}

func applyOptions(opts []Option) *config {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}
