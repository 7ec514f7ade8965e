// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package session holds the interactive state shared by the control server
// and the terminal viewer: one globe, its overlay and the pipeline that
// renders them.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/geo/r2"

	"github.com/gogpu/earth"
	"github.com/gogpu/earth/grid"
	"github.com/gogpu/earth/projection"
)

// overlayProduct is the loader product all overlay loads compete under, so
// a newer setOverlay supersedes an older one still in flight.
const overlayProduct = "overlay"

// ErrNoLoader is returned by SetOverlay when a grid key is given but the
// session has no loader.
var ErrNoLoader = errors.New("session: no grid source configured")

// Config describes the initial state of a session.
type Config struct {
	Family      projection.Family
	Orientation string
	View        earth.View
	Overlay     *earth.Overlay

	// Loader resolves grid keys passed to SetOverlay. Optional.
	Loader *earth.Loader

	// SettleInterval paces mask rebuilds after wheel zooms. Zero means
	// earth.DefaultFrameInterval.
	SettleInterval time.Duration

	Options []earth.PipelineOption
}

// Status is a snapshot of the session for status endpoints and footers.
type Status struct {
	Projection  string `json:"projection"`
	Orientation string `json:"orientation"`
	Engine      string `json:"engine"`
	GPU         bool   `json:"gpu"`
	GPUError    string `json:"gpu_error,omitempty"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Scale       string `json:"scale"`
	Grid        string `json:"grid,omitempty"`
	Frames      uint64 `json:"frames"`
}

// Session serializes changes to a globe and forwards them to its pipeline.
// Render may be called from any goroutine.
type Session struct {
	mu       sync.Mutex
	globe    *earth.Globe
	view     earth.View
	overlay  *earth.Overlay
	gridKey  string
	loader   *earth.Loader
	pipeline *earth.Pipeline
	gesture  *earth.Manipulator

	zoomEnd *earth.Throttle
	zooming bool // mask dropped by Zoom, not yet rebuilt
	closed  bool

	frames      atomic.Uint64
	zoomSettles atomic.Uint64
}

// New creates a session and sets up its pipeline.
func New(cfg Config) (*Session, error) {
	if cfg.View.Empty() {
		return nil, fmt.Errorf("session: empty view %dx%d", cfg.View.Width, cfg.View.Height)
	}
	globe := earth.NewGlobe(cfg.Family)
	globe.SetOrientation(cfg.Orientation, cfg.View)
	s := &Session{
		globe:    globe,
		view:     cfg.View,
		overlay:  cfg.Overlay,
		loader:   cfg.Loader,
		pipeline: earth.NewPipeline(cfg.Options...),
	}
	s.zoomEnd = earth.NewThrottle(cfg.SettleInterval, s.settleZoom)
	if err := s.pipeline.Setup(globe, cfg.View, cfg.Overlay); err != nil {
		s.pipeline.Close()
		return nil, err
	}
	return s, nil
}

// SetProjection switches the globe to family f, keeping the center of the
// view and fitting the scale to the new silhouette.
func (s *Session) SetProjection(f projection.Family) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelGesture()

	next := earth.NewGlobe(f)
	next.SetOrientation(center(s.globe.Orientation()), s.view)
	if err := s.pipeline.Setup(next, s.view, s.overlay); err != nil {
		return err
	}
	s.globe = next
	s.zooming = false
	return nil
}

// SetOrientation restores a "lon,lat,scale" orientation.
func (s *Session) SetOrientation(o string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelGesture()
	s.globe.SetOrientation(o, s.view)
	return s.settle()
}

// SetOverlay replaces the overlay grid and color scale. An empty key keeps
// the current grid and an empty scale name keeps the current scale. The
// grid is loaded outside the session lock; a newer SetOverlay supersedes
// this one with earth.ErrSuperseded. Changes committed meanwhile, such as
// the terminator, are kept.
func (s *Session) SetOverlay(ctx context.Context, key, scaleName string) error {
	var scale *earth.ColorScale
	if scaleName != "" {
		var err error
		if scale, err = earth.LookupScale(scaleName); err != nil {
			return err
		}
	}
	var g *grid.Grid
	if key != "" {
		if s.loader == nil {
			return ErrNoLoader
		}
		var err error
		if g, err = s.loader.Load(ctx, overlayProduct, key); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.overlay
	if scale != nil {
		next.Scale = scale
	}
	if g != nil {
		next.Grid = g
	}
	if err := s.pipeline.Setup(s.globe, s.view, &next); err != nil {
		return err
	}
	s.overlay = &next
	s.zooming = false
	if key != "" {
		s.gridKey = key
	}
	return nil
}

// SetTerminator shades the night side for the sun at t. The zero time
// turns shading off.
func (s *Session) SetTerminator(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := *s.overlay
	next.Terminator = t
	if err := s.pipeline.Setup(s.globe, s.view, &next); err != nil {
		return err
	}
	s.overlay = &next
	s.zooming = false
	return nil
}

// Resize changes the view, keeping the orientation.
func (s *Session) Resize(view earth.View) error {
	if view.Empty() {
		return fmt.Errorf("session: empty view %dx%d", view.Width, view.Height)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if view == s.view {
		return nil
	}
	s.cancelGesture()
	o := s.globe.Orientation()
	s.view = view
	s.globe.SetOrientation(o, view)
	if err := s.pipeline.Resize(s.globe, view); err != nil {
		return err
	}
	s.zooming = false
	return nil
}

// BeginDrag starts a rotation gesture at screen point (x, y).
func (s *Session) BeginDrag(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelGesture()
	s.gesture = s.globe.Manipulator(r2.Point{X: x, Y: y}, s.globe.Projection().Scale())
}

// Drag moves the gesture to (x, y). The mask is dropped until EndDrag.
func (s *Session) Drag(x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture == nil {
		return nil
	}
	s.gesture.Move(&r2.Point{X: x, Y: y}, s.globe.Projection().Scale())
	return s.pipeline.Move(s.globe)
}

// EndDrag finishes the gesture and rebuilds the mask.
func (s *Session) EndDrag() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gesture == nil {
		return nil
	}
	s.gesture.End()
	s.gesture = nil
	return s.settle()
}

// Zoom multiplies the scale by factor around the view center. Like a drag
// it drops the mask; the mask is rebuilt once the zooms pause, at most
// once per settle interval however fast they arrive.
func (s *Session) Zoom(factor float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelGesture()
	k := s.globe.Projection().Scale()
	m := s.globe.Manipulator(s.view.Center(), k)
	m.Move(nil, k*factor)
	m.End()
	if err := s.pipeline.Move(s.globe); err != nil {
		return err
	}
	s.zooming = true
	s.zoomEnd.Trigger()
	return nil
}

// settle rebuilds the mask for the current globe. Callers hold s.mu.
func (s *Session) settle() error {
	if err := s.pipeline.Settle(s.globe); err != nil {
		return err
	}
	s.zooming = false
	return nil
}

// settleZoom runs on the throttle goroutine after a burst of zooms. A drag
// started meanwhile settles on its own.
func (s *Session) settleZoom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.zooming || s.closed || s.gesture != nil {
		return
	}
	if err := s.settle(); err != nil {
		earth.Logger().Warn("session: mask rebuild after zoom failed", "err", err)
		return
	}
	s.zoomSettles.Add(1)
}

// cancelGesture ends a gesture interrupted by another change.
func (s *Session) cancelGesture() {
	if s.gesture != nil {
		s.gesture.End()
		s.gesture = nil
	}
}

// Render draws the current state. On failure the previous frame, if any,
// is returned with the error.
func (s *Session) Render() (*earth.Frame, error) {
	frame, err := s.pipeline.Render()
	if err == nil {
		s.frames.Add(1)
	}
	return frame, err
}

// Mask returns the current visibility mask, nil during a drag.
func (s *Session) Mask() *earth.Mask {
	return s.pipeline.Mask()
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	var gpuErr string
	if err := earth.GPUInitError(); err != nil {
		gpuErr = err.Error()
	}
	return Status{
		Projection:  s.globe.Family().String(),
		Orientation: s.globe.Orientation(),
		Engine:      s.pipeline.Engine(),
		GPU:         s.pipeline.UsingGPU(),
		GPUError:    gpuErr,
		Width:       s.view.Width,
		Height:      s.view.Height,
		Scale:       s.overlay.Scale.Name(),
		Grid:        s.gridKey,
		Frames:      s.frames.Load(),
	}
}

// Close releases the pipeline.
func (s *Session) Close() {
	s.zoomEnd.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelGesture()
	s.pipeline.Close()
}

// center returns the "lon,lat" part of an orientation.
func center(orientation string) string {
	parts := strings.Split(orientation, ",")
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "," + parts[1]
}
