// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// frameState is everything one frame needs. It is immutable once stored;
// every transition builds a new state and swaps it in.
type frameState struct {
	globe   *Globe // snapshot
	view    View
	mask    *Mask // nil while a gesture is in progress
	overlay *Overlay
	engine  Engine
	gpu     bool
}

// Pipeline composes a globe, its mask and an overlay into frames, choosing
// between the GPU engine and the software engine.
//
// Setup re-evaluates the engine choice on every projection or data change.
// A GPU failure other than a decline or a race with Setup disables the GPU
// for the lifetime of the pipeline and the frame is rendered on the CPU.
//
// Render may run concurrently with Setup, Move, Settle and Resize; those
// transitions are serialized among themselves.
type Pipeline struct {
	opts     pipelineOptions
	software Engine
	gpu      GPUEngine

	mu          sync.Mutex // serializes transitions
	state       atomic.Pointer[frameState]
	gpuDisabled atomic.Bool

	frameMu sync.Mutex
	last    *Frame
}

// NewPipeline creates a pipeline. Without WithGPUEngine it uses the engine
// registered with RegisterGPUEngine at creation time, if any.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	o := defaultPipelineOptions()
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pipeline{opts: o, software: o.software, gpu: o.gpu}
	if p.software == nil {
		p.software = NewSoftwareEngine()
	}
	if !o.gpuSet {
		p.gpu = RegisteredGPUEngine()
	}
	return p
}

// Setup prepares rendering of ov on globe in view. It snapshots the globe,
// builds the mask and selects an engine. When no engine accepts the
// combination the previous state is kept and the error returned.
func (p *Pipeline) Setup(globe *Globe, view View, ov *Overlay) error {
	if err := ov.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	engine, usingGPU, err := p.selectEngine(globe, ov)
	if err != nil {
		return err
	}
	p.state.Store(&frameState{
		globe:   globe.Clone(),
		view:    view,
		mask:    globe.NewMask(view, p.opts.border),
		overlay: ov,
		engine:  engine,
		gpu:     usingGPU,
	})
	Logger().Info("pipeline setup", "engine", engine.Name(), "family", globe.Family().String(),
		"width", view.Width, "height", view.Height)
	return nil
}

// selectEngine sets up the GPU engine when the mode and family allow it and
// falls back to the software engine otherwise.
func (p *Pipeline) selectEngine(globe *Globe, ov *Overlay) (Engine, bool, error) {
	family := globe.Family()
	if SelectEngine(p.opts.mode, p.GPUAvailable(), family) {
		err := p.gpu.Setup(family, ov)
		switch {
		case err == nil:
			return p.gpu, true, nil
		case errors.Is(err, ErrUnsupportedProjection), errors.Is(err, ErrFallbackToCPU):
			Logger().Debug("GPU engine declined", "family", family.String(), "err", err)
		default:
			Logger().Warn("GPU engine setup failed, using software engine", "err", err)
			p.gpuDisabled.Store(true)
		}
	}
	if err := p.software.Setup(family, ov); err != nil {
		return nil, false, fmt.Errorf("earth: setup %s: %w", p.software.Name(), err)
	}
	return p.software, false, nil
}

// Move replaces the globe snapshot during a gesture. The mask is dropped
// until Settle so frames test visibility with the projection alone.
func (p *Pipeline) Move(globe *Globe) error {
	return p.transition(func(st *frameState) error {
		if globe.Family() != st.globe.Family() {
			return fmt.Errorf("earth: move from %v to %v needs Setup", st.globe.Family(), globe.Family())
		}
		st.globe = globe.Clone()
		st.mask = nil
		return nil
	})
}

// Settle replaces the globe snapshot at gesture end and rebuilds the mask.
func (p *Pipeline) Settle(globe *Globe) error {
	return p.transition(func(st *frameState) error {
		if globe.Family() != st.globe.Family() {
			return fmt.Errorf("earth: settle from %v to %v needs Setup", st.globe.Family(), globe.Family())
		}
		st.globe = globe.Clone()
		st.mask = globe.NewMask(st.view, p.opts.border)
		Logger().Debug("mask rebuilt", "visible", st.mask.Count())
		return nil
	})
}

// Resize changes the view and rebuilds the mask for globe.
func (p *Pipeline) Resize(globe *Globe, view View) error {
	return p.transition(func(st *frameState) error {
		if globe.Family() != st.globe.Family() {
			return fmt.Errorf("earth: resize from %v to %v needs Setup", st.globe.Family(), globe.Family())
		}
		st.globe = globe.Clone()
		st.view = view
		st.mask = globe.NewMask(view, p.opts.border)
		return nil
	})
}

func (p *Pipeline) transition(fn func(st *frameState) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.state.Load()
	if cur == nil {
		return ErrNotSetup
	}
	next := *cur
	if err := fn(&next); err != nil {
		return err
	}
	p.state.Store(&next)
	return nil
}

// Render draws a frame for the current state. When the engine fails, the
// previous frame is returned with the error.
//
// A GPU render that races a Setup (ErrNotSetup) is simply skipped. A GPU
// engine that declines the frame (ErrFallbackToCPU) moves this state to
// the software engine without disabling the GPU for later Setups. Any
// other GPU failure disables the GPU for the lifetime of the pipeline.
func (p *Pipeline) Render() (*Frame, error) {
	st := p.state.Load()
	if st == nil {
		return nil, ErrNotSetup
	}
	frame, err := st.engine.Render(st.globe, st.mask, st.view)

	p.frameMu.Lock()
	defer p.frameMu.Unlock()
	if err != nil {
		switch {
		case !st.gpu:
			Logger().Warn("frame skipped", "engine", st.engine.Name(), "err", err)
		case errors.Is(err, ErrNotSetup):
			Logger().Debug("frame skipped during setup", "engine", st.engine.Name(), "err", err)
		case errors.Is(err, ErrFallbackToCPU), errors.Is(err, ErrUnsupportedProjection):
			Logger().Debug("GPU engine declined frame", "err", err)
			p.demote(st, false)
		default:
			Logger().Warn("frame skipped", "engine", st.engine.Name(), "err", err)
			p.demote(st, true)
		}
		return p.last, fmt.Errorf("earth: render %s: %w", st.engine.Name(), err)
	}
	p.last = frame
	return frame, nil
}

// demote moves the current state onto the software engine. disable also
// rules the GPU out for every later Setup; without it only a state from
// the same Setup as failed is moved.
func (p *Pipeline) demote(failed *frameState, disable bool) {
	if disable {
		p.gpuDisabled.Store(true)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	cur := p.state.Load()
	if cur == nil || !cur.gpu {
		return
	}
	if !disable && (cur.overlay != failed.overlay || cur.globe.Family() != failed.globe.Family()) {
		return
	}
	if err := p.software.Setup(cur.globe.Family(), cur.overlay); err != nil {
		Logger().Warn("software fallback failed", "err", err)
		return
	}
	next := *cur
	next.engine = p.software
	next.gpu = false
	p.state.Store(&next)
}

// Engine returns the name of the engine rendering the current state, or
// "" before Setup.
func (p *Pipeline) Engine() string {
	if st := p.state.Load(); st != nil {
		return st.engine.Name()
	}
	return ""
}

// UsingGPU reports whether the current state renders on the GPU.
func (p *Pipeline) UsingGPU() bool {
	st := p.state.Load()
	return st != nil && st.gpu
}

// GPUAvailable reports whether a GPU engine is present and not disabled.
func (p *Pipeline) GPUAvailable() bool {
	return p.gpu != nil && !p.gpuDisabled.Load()
}

// Mask returns the current mask, nil during a gesture or before Setup.
func (p *Pipeline) Mask() *Mask {
	if st := p.state.Load(); st != nil {
		return st.mask
	}
	return nil
}

// View returns the current view.
func (p *Pipeline) View() View {
	if st := p.state.Load(); st != nil {
		return st.view
	}
	return View{}
}

// Close releases the software engine. The GPU engine belongs to the
// registry or the caller and is left open.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Store(nil)
	p.software.Close()
}
