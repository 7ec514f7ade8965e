// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"fmt"
	"strings"

	"github.com/gogpu/earth/projection"
)

// EngineMode selects the rendering engine.
type EngineMode int

const (
	// EngineAuto uses the GPU engine when one is registered and supports
	// the projection family, and the software engine otherwise.
	EngineAuto EngineMode = iota

	// EngineGPU prefers the GPU engine. Unsupported families and GPU
	// failures still fall back to the software engine.
	EngineGPU

	// EngineCPU always uses the software engine.
	EngineCPU
)

// String returns the engine mode name.
func (m EngineMode) String() string {
	switch m {
	case EngineAuto:
		return "auto"
	case EngineGPU:
		return "gpu"
	case EngineCPU:
		return "cpu"
	default:
		return "unknown"
	}
}

// ParseEngineMode parses "auto", "gpu" or "cpu", case-insensitively.
func ParseEngineMode(s string) (EngineMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EngineAuto, nil
	case "gpu":
		return EngineGPU, nil
	case "cpu", "software":
		return EngineCPU, nil
	default:
		return EngineAuto, fmt.Errorf("earth: unknown engine mode %q", s)
	}
}

// SelectEngine reports whether the GPU engine should be used for family.
//
// The GPU path needs a working engine and a family whose inverse the
// shader implements; everything else renders on the CPU.
func SelectEngine(mode EngineMode, gpuAvailable bool, family projection.Family) bool {
	if mode == EngineCPU || !gpuAvailable {
		return false
	}
	return family.GPUSupported()
}
