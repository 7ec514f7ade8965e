// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"errors"
	"sync"

	"github.com/gogpu/earth/projection"
)

// ErrFallbackToCPU indicates the GPU engine cannot handle the current
// combination. The pipeline transparently falls back to CPU rendering.
var ErrFallbackToCPU = errors.New("earth: falling back to CPU rendering")

// ErrUnsupportedProjection is returned by an engine's Setup for a family it
// cannot render.
var ErrUnsupportedProjection = errors.New("earth: projection not supported by engine")

// ErrNotSetup is returned by Render before a successful Setup.
var ErrNotSetup = errors.New("earth: engine not set up")

// Engine renders an overlay on a globe into a Frame.
//
// Setup prepares everything that depends on the projection family and the
// overlay; it is called again whenever either changes and never panics.
// Render draws one frame for the current globe state, confining work to
// globe.Bounds(view). The returned frame is owned by the engine and valid
// until the next Render or Close.
type Engine interface {
	// Name returns the engine name (e.g., "software", "wgpu").
	Name() string

	// Setup prepares the engine for family and ov.
	Setup(family projection.Family, ov *Overlay) error

	// Render draws one frame. A nil mask means only
	// projection.Invert decides visibility.
	Render(globe *Globe, mask *Mask, view View) (*Frame, error)

	// Close releases engine resources.
	Close()
}

// GPUEngine is an Engine backed by a GPU device.
//
// Implementations are provided by GPU backend packages. Users opt in via
// blank import:
//
//	import _ "github.com/gogpu/earth/gpu" // enables GPU rendering
type GPUEngine interface {
	Engine

	// Init acquires the GPU device. Called once during registration.
	Init() error

	// Supports reports whether the engine can render family.
	Supports(family projection.Family) bool
}

// DeviceProviderAware is an optional interface for GPU engines that can
// share a device with an external provider (e.g., a gogpu window).
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	gpuMu      sync.RWMutex
	gpuEng     GPUEngine
	gpuInitErr error // last failed registration, reported by SetLogger
)

// RegisterGPUEngine registers the GPU engine used by pipelines in Auto and
// GPU modes.
//
// Only one engine can be registered. Subsequent calls replace the previous
// one. If Init fails the engine is not registered and the error is
// returned.
func RegisterGPUEngine(e GPUEngine) error {
	if e == nil {
		return errors.New("earth: GPU engine must not be nil")
	}
	if err := e.Init(); err != nil {
		gpuMu.Lock()
		gpuInitErr = err
		gpuMu.Unlock()
		Logger().Warn("GPU engine not available", "err", err)
		return err
	}
	propagateLogger(e, Logger())
	gpuMu.Lock()
	old := gpuEng
	gpuEng = e
	gpuInitErr = nil
	gpuMu.Unlock()
	if old != nil {
		old.Close()
	}
	return nil
}

// RegisteredGPUEngine returns the registered GPU engine, or nil if none.
func RegisteredGPUEngine() GPUEngine {
	gpuMu.RLock()
	e := gpuEng
	gpuMu.RUnlock()
	return e
}

// GPUInitError returns why the last GPU engine registration failed, or nil
// when it succeeded or none was attempted. Registration usually runs in a
// package init, before the application has set a logger.
func GPUInitError() error {
	gpuMu.RLock()
	defer gpuMu.RUnlock()
	return gpuInitErr
}

// unregisterGPUEngine removes the registered engine without closing it and
// forgets a failed registration.
func unregisterGPUEngine() {
	gpuMu.Lock()
	gpuEng = nil
	gpuInitErr = nil
	gpuMu.Unlock()
}

// SetEngineDeviceProvider passes a device provider to the registered GPU
// engine. It is a no-op when no engine is registered or the engine does not
// support device sharing.
//
// The provider should implement HalDevice() any and HalQueue() any methods
// that return wgpu/hal types.
func SetEngineDeviceProvider(provider any) error {
	e := RegisteredGPUEngine()
	if e == nil {
		return nil
	}
	if dpa, ok := e.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
