// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

// PipelineOption configures a Pipeline during creation.
//
// Example:
//
//	// Auto selection, default mask border
//	p := earth.NewPipeline()
//
//	// Software only, wider border
//	p := earth.NewPipeline(earth.WithEngineMode(earth.EngineCPU), earth.WithMaskBorder(4))
type PipelineOption func(*pipelineOptions)

// pipelineOptions holds optional configuration for Pipeline creation.
type pipelineOptions struct {
	mode     EngineMode
	border   int
	gpu      GPUEngine
	gpuSet   bool
	software Engine
}

// defaultPipelineOptions returns the default pipeline options.
func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{
		mode:   EngineAuto,
		border: DefaultMaskBorder,
	}
}

// WithEngineMode sets how the pipeline chooses between GPU and CPU.
func WithEngineMode(m EngineMode) PipelineOption {
	return func(o *pipelineOptions) {
		o.mode = m
	}
}

// WithMaskBorder sets the mask erosion radius in pixels. Negative values
// are treated as zero.
func WithMaskBorder(n int) PipelineOption {
	return func(o *pipelineOptions) {
		o.border = max(n, 0)
	}
}

// WithGPUEngine uses e instead of the registered GPU engine. Passing nil
// disables the GPU path. The pipeline does not close e.
func WithGPUEngine(e GPUEngine) PipelineOption {
	return func(o *pipelineOptions) {
		o.gpu = e
		o.gpuSet = true
	}
}

// WithSoftwareEngine replaces the default SoftwareEngine. The pipeline
// closes it on Close.
func WithSoftwareEngine(e Engine) PipelineOption {
	return func(o *pipelineOptions) {
		o.software = e
	}
}
