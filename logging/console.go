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
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[37m"
	colorWhite  = "\033[97m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

var consoleBuilderPool = sync.Pool{
	New: func() any {
		return &strings.Builder{}
	},
}

// consoleHandler is a slog.Handler with compact, colored output meant for
// a developer's terminal. Production aggregation should use JSONHandler.
type consoleHandler struct {
	opts   *slog.HandlerOptions
	output io.Writer
	attrs  []slog.Attr
	prefix string
}

func newConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *consoleHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}

	return &consoleHandler{opts: opts, output: w}
}

// Enabled implements slog.Handler.
func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}

	return level >= minLevel
}

// Handle implements slog.Handler.
func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	b := consoleBuilderPool.Get().(*strings.Builder)
	b.Reset()
	defer consoleBuilderPool.Put(b)

	b.WriteString(colorDim)
	b.WriteString(r.Time.Format("15:04:05.000"))
	b.WriteString(colorReset)
	b.WriteString(" ")

	b.WriteString(levelColor(r.Level))
	b.WriteString(colorBold)
	fmt.Fprintf(b, "%-5s", r.Level.String())
	b.WriteString(colorReset)
	b.WriteString(" ")

	b.WriteString(colorWhite)
	b.WriteString(r.Message)
	b.WriteString(colorReset)

	if r.NumAttrs() > 0 || len(h.attrs) > 0 {
		b.WriteString(" ")
		// Stored attrs already went through ReplaceAttr and carry their
		// prefix from WithAttrs time; record attrs take both here.
		for _, a := range h.attrs {
			appendAttr(b, nil, "", a)
		}
		r.Attrs(func(a slog.Attr) bool {
			appendAttr(b, h.opts.ReplaceAttr, h.prefix, a)
			return true
		})
	}

	if h.opts.AddSource && r.PC != 0 {
		if src := recordSource(r.PC); src != "" {
			b.WriteString(" ")
			b.WriteString(colorGray)
			b.WriteString("(" + src + ")")
			b.WriteString(colorReset)
		}
	}

	b.WriteString("\n")

	_, err := io.WriteString(h.output, b.String())

	return err
}

// WithAttrs implements slog.Handler.
func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rep := h.opts.ReplaceAttr
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	for _, a := range attrs {
		a.Value = a.Value.Resolve()
		if rep != nil && a.Value.Kind() != slog.KindGroup {
			a = rep(nil, a)
			if a.Equal(slog.Attr{}) {
				continue
			}
			a.Value = a.Value.Resolve()
		}
		a.Key = h.prefix + a.Key
		merged = append(merged, a)
	}

	return &consoleHandler{opts: h.opts, output: h.output, attrs: merged, prefix: h.prefix}
}

// WithGroup implements slog.Handler. Groups flatten into dotted key
// prefixes, which reads better on one line than nesting.
func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &consoleHandler{
		opts:   h.opts,
		output: h.output,
		attrs:  h.attrs,
		prefix: h.prefix + name + ".",
	}
}

func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorGreen
	default:
		return colorBlue
	}
}

func appendAttr(b *strings.Builder, rep func([]string, slog.Attr) slog.Attr, prefix string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, rep, groupPrefix, ga)
		}

		return
	}

	if rep != nil {
		a = rep(nil, a)
		if a.Equal(slog.Attr{}) {
			return
		}
		a.Value = a.Value.Resolve()
	}

	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteString("=")

	switch a.Value.Kind() {
	case slog.KindString:
		b.WriteString(a.Value.String())
	case slog.KindInt64:
		b.WriteString(strconv.FormatInt(a.Value.Int64(), 10))
	case slog.KindUint64:
		b.WriteString(strconv.FormatUint(a.Value.Uint64(), 10))
	case slog.KindBool:
		b.WriteString(strconv.FormatBool(a.Value.Bool()))
	case slog.KindFloat64:
		b.WriteString(strconv.FormatFloat(a.Value.Float64(), 'f', -1, 64))
	case slog.KindDuration:
		b.WriteString(a.Value.Duration().String())
	case slog.KindTime:
		b.WriteString(a.Value.Time().Format(time.RFC3339))
	default:
		fmt.Fprint(b, a.Value.Any())
	}

	b.WriteString(" ")
}

// recordSource returns "file:line" for a pc. Only the filename is kept;
// full paths add clutter without adding identification.
func recordSource(pc uintptr) string {
	frames := runtime.CallersFrames([]uintptr{pc})
	f, _ := frames.Next()
	if f.File == "" {
		return ""
	}

	file := f.File
	if idx := strings.LastIndexByte(file, '/'); idx >= 0 {
		file = file[idx+1:]
	}

	return fmt.Sprintf("%s:%d", file, f.Line)
}
