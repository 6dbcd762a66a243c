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

package logging

import "errors"

var (
	// ErrNilLogger indicates a nil custom logger was provided to
	// [WithCustomLogger].
	ErrNilLogger = errors.New("logging: custom logger is nil")

	// ErrNilOutput indicates a nil output writer was provided to
	// [WithOutput].
	ErrNilOutput = errors.New("logging: output writer is nil")

	// ErrInvalidHandler indicates an unsupported handler type. Valid
	// types: JSONHandler, TextHandler, ConsoleHandler.
	ErrInvalidHandler = errors.New("logging: invalid handler type")

	// ErrInvalidLevel indicates an unparseable log level. Valid levels:
	// debug, info, warn, error.
	ErrInvalidLevel = errors.New("logging: invalid log level")

	// ErrCannotChangeLevel is returned by [Config.SetLevel] when a
	// custom logger is in use; its level is controlled externally.
	ErrCannotChangeLevel = errors.New("logging: cannot change level on custom logger")
)
