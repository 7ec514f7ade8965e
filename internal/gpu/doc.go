// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

// Package gpu implements the earth GPU engine on gogpu/wgpu HAL compute
// shaders.
//
// FieldEngine samples a packed data grid for every pixel of the projected
// globe bounds in a single compute dispatch and reads the frame back into
// host memory. The overlay (grid, palette and constant uniforms) is uploaded
// once per Setup; each Render only rewrites the uniform block with the
// current projection state.
//
// # Shader
//
// shaders/field.wgsl inverts the projection (orthographic through its
// pole-folded form, stereographic, azimuthal equidistant and
// equirectangular), fetches the four surrounding texels, unpacks them with
// the internal/texel scheme and maps the blended value through the 256-entry
// palette. The shader contains no loops.
//
// # Fallback
//
// Setup returns earth.ErrUnsupportedProjection for families without a
// shader path and earth.ErrFallbackToCPU when the device is unavailable or
// the grid exceeds the packing domain. The earth pipeline then renders on
// the CPU.
//
// Users enable the engine with a blank import of github.com/gogpu/earth/gpu.
package gpu
