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

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
)

// NewTestLogger returns a debug-level JSON logger writing into the
// returned buffer. Tests decode the buffer with ParseJSONLogEntries to
// assert on what was logged.
func NewTestLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := MustNew(
		WithJSONHandler(),
		WithOutput(buf),
		WithLevel(LevelDebug),
	)

	return cfg.Logger(), buf
}

// LogEntry is one decoded JSON log record.
type LogEntry struct {
	Level   string
	Message string
	Attrs   map[string]any
}

// ParseJSONLogEntries decodes the JSON records in buf without consuming
// it. The time key is dropped; everything except level and msg lands in
// Attrs.
func ParseJSONLogEntries(buf *bytes.Buffer) ([]LogEntry, error) {
	scanner := bufio.NewScanner(bytes.NewReader(buf.Bytes()))

	var entries []LogEntry
	for scanner.Scan() {
		var record map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, err
		}

		entry := LogEntry{Attrs: make(map[string]any)}
		if level, ok := record[slog.LevelKey].(string); ok {
			entry.Level = level
		}
		if msg, ok := record[slog.MessageKey].(string); ok {
			entry.Message = msg
		}
		for k, v := range record {
			if k != slog.TimeKey && k != slog.LevelKey && k != slog.MessageKey {
				entry.Attrs[k] = v
			}
		}

		entries = append(entries, entry)
	}

	return entries, scanner.Err()
}
