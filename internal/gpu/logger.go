// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/earth"
)

// engineLogger is the logger handed over by earth.SetLogger, tagged with
// the engine name. Nil until the first propagation.
var engineLogger atomic.Pointer[slog.Logger]

// slogger returns the engine logger, or the earth logger before
// SetLogger has propagated one.
func slogger() *slog.Logger {
	if l := engineLogger.Load(); l != nil {
		return l
	}
	return earth.Logger()
}

// setLogger installs l for the package. Nil reverts to the earth logger.
func setLogger(l *slog.Logger) {
	if l == nil {
		engineLogger.Store(nil)
		return
	}
	engineLogger.Store(l.With("engine", engineName))
}
