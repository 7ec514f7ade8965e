// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"fmt"
	"sync"

	"github.com/gogpu/earth/projection"
)

// SoftwareEngine renders on the CPU. It supports every projection family
// and is the fallback for everything the GPU engine cannot do.
//
// For each pixel inside the globe bounds that the mask marks visible, it
// inverts the projection, interpolates the grid and colors the sample
// through the overlay's scale. The scan runs on the calling goroutine, one
// pass over the bounds.
type SoftwareEngine struct {
	mu      sync.Mutex
	overlay *Overlay
	shader  shader
	frame   *Frame
}

// NewSoftwareEngine creates a software engine.
func NewSoftwareEngine() *SoftwareEngine {
	return &SoftwareEngine{}
}

// Name implements Engine.
func (e *SoftwareEngine) Name() string { return "software" }

// Setup implements Engine. Every family is supported.
func (e *SoftwareEngine) Setup(family projection.Family, ov *Overlay) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("earth: software setup: %v", r)
		}
	}()
	if !family.Valid() {
		return fmt.Errorf("earth: software setup: %w", ErrUnsupportedProjection)
	}
	if err := ov.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overlay = ov
	e.shader = newShader(ov)
	return nil
}

// Render implements Engine.
func (e *SoftwareEngine) Render(globe *Globe, mask *Mask, view View) (*Frame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.overlay == nil {
		return nil, ErrNotSetup
	}
	if e.frame == nil || e.frame.View() != view {
		e.frame = NewFrame(view.Width, view.Height)
	} else {
		e.frame.Clear()
	}
	if mask != nil && !mask.Matches(view) {
		mask = nil
	}

	b := globe.Bounds(view)
	if b.Empty() {
		return e.frame, nil
	}
	proj := globe.Projection()
	g := e.overlay.Grid
	sh := e.shader
	frame := e.frame

	for y := b.Y; y <= b.YMax; y++ {
		for x := b.X; x <= b.XMax; x++ {
			if mask != nil && !mask.IsVisible(x, y) {
				continue
			}
			lon, lat, ok := proj.Invert(float64(x), float64(y))
			if !ok {
				continue
			}
			s, ok := g.Interpolate(lon, lat)
			if !ok {
				continue
			}
			frame.SetPremul(x, y, sh.pixel(s.Value, lon, lat))
		}
	}
	Logger().Debug("software frame", "x", b.X, "y", b.Y, "w", b.Width, "h", b.Height)
	return frame, nil
}

// Close implements Engine.
func (e *SoftwareEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overlay = nil
	e.frame = nil
}
