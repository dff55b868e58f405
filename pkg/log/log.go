// Copyright 2025 walteh LLC
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

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 12 // Width for status text
)

// Status is the outcome of a command for one file.
type Status string

const (
	StatusEncrypted Status = "encrypted"
	StatusDecrypted Status = "decrypted"
	StatusValid     Status = "valid"
	StatusSkipped   Status = "skipped"
	StatusGenerated Status = "generated"
	StatusFailed    Status = "failed"
)

// 🎯 FileResult is one file's line in a command summary.
type FileResult struct {
	Path   string // File path
	Status Status // Outcome
	Detail string // Optional trailing note
}

// 🎯 Logger prints human CLI output and mirrors it into zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	results []FileResult
}

// 🏭 New creates a new logger. Structured records go to stderr at level.
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

func (l *Logger) formatFileResult(r FileResult) string {
	var symbol rune
	var symbolColor color.Attribute
	switch r.Status {
	case StatusFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case StatusSkipped:
		symbol = '-'
		symbolColor = color.FgYellow
	case StatusValid, StatusGenerated:
		symbol = '✓'
		symbolColor = color.FgGreen
	default:
		symbol = '⟳'
		symbolColor = color.FgBlue
	}

	line := fmt.Sprintf("%s%s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, r.Path),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", statusWidth, r.Status)))

	if r.Detail != "" {
		line += " " + color.New(color.Faint).Sprint(r.Detail)
	}
	return line
}

// 📝 FileResult prints one file's outcome
func (l *Logger) FileResult(r FileResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.results = append(l.results, r)
	fmt.Fprintln(l.console, l.formatFileResult(r))

	evt := l.zlog.Info()
	if r.Status == StatusFailed {
		evt = l.zlog.Error()
	}
	evt.Str("file", r.Path).Str("status", string(r.Status)).Str("detail", r.Detail).Msg("file result")
}

// Count reports how many results with the given status were printed.
func (l *Logger) Count(status Status) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for _, r := range l.results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Failed counts the failed results printed so far.
func (l *Logger) Failed() int {
	return l.Count(StatusFailed)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("secretconf")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
