// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

// Package gpu registers the wgpu field engine for hardware-accelerated
// rendering.
//
// Import this package to render overlays with a compute shader. If GPU
// initialization fails (no Vulkan adapter available), registration is
// skipped, the error is reported by earth.GPUInitError and logged by
// earth.SetLogger, and pipelines render on the CPU.
//
// Usage:
//
//	import _ "github.com/gogpu/earth/gpu" // enable GPU rendering
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/earth"
	gpuimpl "github.com/gogpu/earth/internal/gpu"
)

func init() {
	// A failure is kept by earth.GPUInitError and logged again once the
	// application calls earth.SetLogger.
	_ = earth.RegisterGPUEngine(&gpuimpl.FieldEngine{})
}

// SetDeviceProvider configures the registered GPU engine to use a shared
// GPU device from an external provider (e.g., a gogpu window) instead of
// its own instance.
//
// The provider must also expose HalDevice() any and HalQueue() any for
// direct HAL access. Pipelines must call Setup again afterwards.
func SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	return earth.SetEngineDeviceProvider(provider)
}
