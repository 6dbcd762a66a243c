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

package app

import (
	"fmt"
	"strings"
	"time"
)

// ConfigError describes a single invalid configuration value.
type ConfigError struct {
	// Field is the configuration field name, e.g. "server.readTimeout".
	Field string

	// Value is the rejected value.
	Value any

	// Message describes what is wrong with the value.
	Message string

	// Constraint names the violated constraint, e.g. "required" or
	// "positive". Useful for programmatic handling.
	Constraint string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationError aggregates every configuration problem found during New,
// so a misconfigured app reports all failures at once instead of one per
// run.
type ValidationError struct {
	Errors []*ConfigError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "configuration validation failed: " + e.Errors[0].Error()
	}

	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}

	return fmt.Sprintf("configuration validation failed with %d errors: %s",
		len(e.Errors), strings.Join(msgs, "; "))
}

// Add appends a configuration error.
func (e *ValidationError) Add(err *ConfigError) {
	e.Errors = append(e.Errors, err)
}

// HasErrors reports whether any errors were collected.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns the ValidationError as an error, or nil when no errors
// were collected.
func (e *ValidationError) ToError() error {
	if !e.HasErrors() {
		return nil
	}

	return e
}

// newEmptyFieldError reports a required field left empty.
func newEmptyFieldError(field string) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      "",
		Message:    "must not be empty",
		Constraint: "required",
	}
}

// newInvalidEnumError reports a value outside an allowed set.
func newInvalidEnumError(field string, value any, allowed ...string) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Message:    "must be one of: " + strings.Join(allowed, ", "),
		Constraint: "enum",
	}
}

// newTimeoutError reports a timeout that is not positive.
func newTimeoutError(field string, value time.Duration) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Message:    "must be positive",
		Constraint: "positive",
	}
}

// newRangeError reports a numeric value outside its allowed range.
func newRangeError(field string, value any, message string) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Message:    message,
		Constraint: "range",
	}
}
