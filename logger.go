// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for earth and its sub-packages.
// By default, earth produces no log output. Pass nil to restore the silent
// default.
//
// Log levels used by earth:
//   - [slog.LevelDebug]: dispatch extents, buffer sizes, mask rebuilds
//   - [slog.LevelInfo]: engine selection, GPU adapter selected
//   - [slog.LevelWarn]: GPU fallback, failed or discarded grid loads
//
// Example:
//
//	earth.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
//
// A GPU engine registration that failed before the call is reported on l.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	if e := RegisteredGPUEngine(); e != nil {
		propagateLogger(e, l)
	}
	if err := GPUInitError(); err != nil {
		l.Warn("GPU engine not available", "err", err)
	}
}

// Logger returns the current logger. Sub-packages (gpu/, internal/gpu)
// share it without introducing import cycles.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by engines that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to an engine if it implements
// loggerSetter. Called from SetLogger and RegisterGPUEngine so the GPU
// engine always has the current logger.
func propagateLogger(e Engine, l *slog.Logger) {
	if ls, ok := e.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
