// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
)

//go:embed shaders/field.wgsl
var fieldShaderSource string

var (
	fieldOnce  sync.Once
	fieldSPIRV []uint32
	fieldErr   error
)

// compileField compiles the field shader to SPIR-V. The result is cached
// for the process.
func compileField() ([]uint32, error) {
	fieldOnce.Do(func() {
		spirvBytes, err := naga.Compile(fieldShaderSource)
		if err != nil {
			fieldErr = fmt.Errorf("gpu: compile field shader: %w", err)
			return
		}
		// SPIR-V is little-endian 32-bit words.
		fieldSPIRV = make([]uint32, len(spirvBytes)/4)
		for i := range fieldSPIRV {
			fieldSPIRV[i] = uint32(spirvBytes[i*4]) |
				uint32(spirvBytes[i*4+1])<<8 |
				uint32(spirvBytes[i*4+2])<<16 |
				uint32(spirvBytes[i*4+3])<<24
		}
	})
	return fieldSPIRV, fieldErr
}
