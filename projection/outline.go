// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package projection

import (
	"math"

	"github.com/golang/geo/r2"
)

// Outline returns the silhouette of the whole sphere in screen pixels,
// sampled every Precision degrees along its boundary.
func (p *Projection) Outline() []r2.Point {
	pts := p.unitOutline(p.radius())
	for i, u := range pts {
		pts[i] = r2.Point{X: p.translate.X + p.scale*u.X, Y: p.translate.Y - p.scale*u.Y}
	}
	return pts
}

// Extent returns the screen bounding box of the silhouette.
func (p *Projection) Extent() r2.Rect {
	return r2.RectFromPoints(p.Outline()...)
}

// UnitExtent returns the bounding box of the silhouette at unit scale,
// centered on the projection origin with y up.
func (p *Projection) UnitExtent() r2.Rect {
	return r2.RectFromPoints(p.unitOutline(p.radius())...)
}

// FitExtent returns the unit-scale region that must fit within a viewport.
// It equals UnitExtent except for the stereographic projection, whose
// silhouette is unbounded; there the visible hemisphere is fitted.
func (p *Projection) FitExtent() r2.Rect {
	r := p.radius()
	if p.family == Stereographic {
		r = 2
	}
	return r2.RectFromPoints(p.unitOutline(r)...)
}

// radius returns the plane radius of the azimuthal disk, or 0 for
// families whose silhouette is the image of the antimeridian cut.
func (p *Projection) radius() float64 {
	switch p.family {
	case Orthographic:
		return 1
	case Stereographic:
		return 2 * math.Tan(p.clip/2)
	case AzimuthalEquidistant:
		return p.clip
	default:
		return 0
	}
}

func (p *Projection) unitOutline(radius float64) []r2.Point {
	step := p.precision * radians
	if radius > 0 {
		n := int(math.Ceil(2 * math.Pi / step))
		pts := make([]r2.Point, 0, n)
		for i := 0; i < n; i++ {
			s, c := math.Sincos(float64(i) * 2 * math.Pi / float64(n))
			pts = append(pts, r2.Point{X: radius * c, Y: radius * s})
		}
		return pts
	}

	// Walk the boundary of the rotated frame: both sides of the
	// antimeridian and both poles.
	nPhi := int(math.Ceil(math.Pi / step))
	nLambda := int(math.Ceil(2 * math.Pi / step))
	pts := make([]r2.Point, 0, 2*(nPhi+nLambda)+4)
	add := func(lambda, phi float64) {
		x, y := p.raw.forward(lambda, phi)
		pts = append(pts, r2.Point{X: x, Y: y})
	}
	for i := 0; i <= nPhi; i++ {
		phi := -halfPi + float64(i)*math.Pi/float64(nPhi)
		add(math.Pi, phi)
		add(-math.Pi, phi)
	}
	for i := 0; i <= nLambda; i++ {
		lambda := -math.Pi + float64(i)*2*math.Pi/float64(nLambda)
		add(lambda, halfPi)
		add(lambda, -halfPi)
	}
	return pts
}
