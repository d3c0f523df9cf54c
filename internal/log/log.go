// SPDX-License-Identifier: Apache-2.0

// Package log provides the leveled logger threaded through the migration
// runner and the CLI; the schema merger, diff engine and emitter take no
// logger. Library callers (tests, runner.NewWithConn's default) use NewNoop;
// the CLI wires NewPterm.
package log

import "github.com/pterm/pterm"

// Logger is the minimal leveled logging surface used by the migration runner
// and the CLI.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
}

type ptermLogger struct{}

// NewPterm returns a Logger that writes through pterm's default loggers.
func NewPterm() Logger { return ptermLogger{} }

func (ptermLogger) Debug(format string, args ...any) { pterm.Debug.Printfln(format, args...) }
func (ptermLogger) Info(format string, args ...any)  { pterm.Info.Printfln(format, args...) }
func (ptermLogger) Warn(format string, args ...any)  { pterm.Warning.Printfln(format, args...) }

type noopLogger struct{}

// NewNoop returns a Logger that discards every message, for library use and
// tests that don't want CLI output.
func NewNoop() Logger { return noopLogger{} }

func (noopLogger) Debug(format string, args ...any) {}
func (noopLogger) Info(format string, args ...any)  {}
func (noopLogger) Warn(format string, args ...any)  {}
