// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package projection

import (
	"math"

	"github.com/golang/geo/r2"
)

// Default state of a freshly created projection.
const (
	DefaultScale     = 150
	DefaultPrecision = 0.1 // degrees
)

// Projection is a rotated, scaled and translated projection of one Family.
//
// Projection is mutable and not safe for concurrent use. Renderers that
// need a stable view take a Clone.
type Projection struct {
	family    Family
	raw       raw
	rotate    [3]float64
	rot       rotation
	fold      Folded
	scale     float64
	translate r2.Point
	precision float64
	clip      float64 // radians, 0 when not clipped by angle
}

// New returns a projection of family f with zero rotation, the default
// scale and precision, and translate at the origin. Invalid families are
// treated as Orthographic.
func New(f Family) *Projection {
	if !f.Valid() {
		f = Orthographic
	}
	p := &Projection{
		family:    f,
		raw:       newRaw(f),
		scale:     DefaultScale,
		precision: DefaultPrecision,
		clip:      clipAngle(f),
	}
	p.SetRotate([3]float64{})
	return p
}

// Clone returns an independent copy of p.
func (p *Projection) Clone() *Projection {
	c := *p
	return &c
}

// Family returns the projection family.
func (p *Projection) Family() Family { return p.family }

// Rotate returns the rotation [λ0, φ0, γ0] in degrees.
func (p *Projection) Rotate() [3]float64 { return p.rotate }

// SetRotate sets the rotation [λ0, φ0, γ0] in degrees.
func (p *Projection) SetRotate(r [3]float64) {
	p.rotate = r
	p.rot = newRotation(r)
	p.fold = FoldOrthographic(r)
}

// Folded returns the pole-normalized orthographic orientation for the
// current rotation. It is meaningful for every family but only the
// orthographic inverse consumes it.
func (p *Projection) Folded() Folded { return p.fold }

// Scale returns the scale in pixels per unit.
func (p *Projection) Scale() float64 { return p.scale }

// SetScale sets the scale in pixels per unit.
func (p *Projection) SetScale(k float64) { p.scale = k }

// Translate returns the screen position of the projection center.
func (p *Projection) Translate() r2.Point { return p.translate }

// SetTranslate sets the screen position of the projection center.
func (p *Projection) SetTranslate(t r2.Point) { p.translate = t }

// Precision returns the outline sampling step in degrees.
func (p *Projection) Precision() float64 { return p.precision }

// SetPrecision sets the outline sampling step in degrees. Non-positive
// values restore the default.
func (p *Projection) SetPrecision(deg float64) {
	if deg <= 0 {
		deg = DefaultPrecision
	}
	p.precision = deg
}

// ClipAngle returns the angular radius of the visible cap in degrees, or 0
// for families that are not clipped by angle.
func (p *Projection) ClipAngle() float64 { return p.clip * degrees }

// Forward projects (lon, lat) in degrees to screen pixels. It reports false
// for points hidden by the clip angle.
func (p *Projection) Forward(lon, lat float64) (r2.Point, bool) {
	lambda, phi := p.rot.forward(lon*radians, lat*radians)
	if p.clip > 0 && math.Cos(lambda)*math.Cos(phi) < math.Cos(p.clip)-epsilon*epsilon {
		return r2.Point{}, false
	}
	x, y := p.raw.forward(lambda, phi)
	return r2.Point{X: p.translate.X + p.scale*x, Y: p.translate.Y - p.scale*y}, true
}

// Invert maps screen pixels to (lon, lat) in degrees. Longitudes are
// normalized to [-180, 180). It reports false outside the valid domain.
func (p *Projection) Invert(x, y float64) (lon, lat float64, ok bool) {
	ux := (x - p.translate.X) / p.scale
	uy := (p.translate.Y - y) / p.scale
	if p.family == Orthographic {
		return p.fold.Invert(ux, uy)
	}
	lambda, phi, ok := p.raw.invert(ux, uy)
	if !ok {
		return 0, 0, false
	}
	lambda, phi = p.rot.invert(lambda, phi)
	return wrapLon(lambda * degrees), phi * degrees, true
}

// Unit converts a screen pixel to unit plane coordinates (y up).
func (p *Projection) Unit(x, y float64) r2.Point {
	return r2.Point{X: (x - p.translate.X) / p.scale, Y: (p.translate.Y - y) / p.scale}
}
