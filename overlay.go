// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"errors"
	"time"

	"github.com/golang/geo/s2"

	"github.com/gogpu/earth/grid"
	"github.com/gogpu/earth/internal/color"
	"github.com/gogpu/earth/solar"
)

// Overlay defaults.
const (
	DefaultOverlayAlpha = 255
	DefaultNightLevel   = 0.25
)

// ErrInvalidOverlay is returned by Setup when the overlay lacks a grid or
// a color scale.
var ErrInvalidOverlay = errors.New("earth: overlay needs a grid and a color scale")

// Overlay is the data rendered over the globe: a grid colorized through a
// scale, optionally shaded by the day/night terminator.
type Overlay struct {
	Grid  *grid.Grid
	Scale *ColorScale

	// Alpha is the overlay opacity. Zero means DefaultOverlayAlpha.
	Alpha uint8

	// Terminator, when non-zero, dims the night side for the sun position
	// at that instant.
	Terminator time.Time

	// NightLevel is the linear-light intensity kept on the night side, in
	// (0, 1]. Zero means DefaultNightLevel.
	NightLevel float64
}

// Validate reports whether the overlay can be rendered.
func (o *Overlay) Validate() error {
	if o == nil || o.Grid == nil || o.Scale == nil {
		return ErrInvalidOverlay
	}
	return nil
}

// Opacity returns the effective alpha.
func (o *Overlay) Opacity() uint8 {
	if o.Alpha == 0 {
		return DefaultOverlayAlpha
	}
	return o.Alpha
}

// Night returns the effective night level.
func (o *Overlay) Night() float64 {
	if o.NightLevel <= 0 || o.NightLevel > 1 {
		return DefaultNightLevel
	}
	return o.NightLevel
}

// SubSolar returns the sub-solar point for the terminator and whether
// shading is enabled.
func (o *Overlay) SubSolar() (s2.LatLng, bool) {
	if o.Terminator.IsZero() {
		return s2.LatLng{}, false
	}
	return solar.SubSolarPoint(o.Terminator), true
}

// shader colors grid samples for one overlay on the host.
type shader struct {
	scale   *ColorScale
	alpha   uint8
	night   float64
	sub     s2.LatLng
	shading bool
}

func newShader(o *Overlay) shader {
	sub, ok := o.SubSolar()
	return shader{scale: o.Scale, alpha: o.Opacity(), night: o.Night(), sub: sub, shading: ok}
}

// pixel returns the premultiplied color for value at (lon, lat).
func (s shader) pixel(value, lon, lat float64) [4]uint8 {
	c := s.scale.Gradient(value, s.alpha)
	if s.shading {
		day := solar.DayFactor(solar.ZenithAngle(lat, lon, s.sub))
		c = color.Shade(c, float32(s.night+(1-s.night)*day))
	}
	return color.Premultiply(c)
}
