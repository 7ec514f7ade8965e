// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package projection

import "math"

// Folded is the canonical orthographic orientation after pole-crossing
// normalization. Phi0 always lies in [-90, 90]; a rotation that carried the
// view over a pole is expressed as a longitude shift of 180° and a screen
// flip (Flip == -1). The GPU shader consumes exactly these values, so the
// CPU inverse below and the shader agree on every pixel.
type Folded struct {
	Lambda0 float64 // degrees
	Phi0    float64 // degrees, in [-90, 90]
	Gamma   float64 // degrees
	Flip    float64 // +1 or -1
}

// FoldOrthographic normalizes the rotation [λ0, φ0, γ0] of an orthographic
// projection.
func FoldOrthographic(rotate [3]float64) Folded {
	f := Folded{Lambda0: rotate[0], Gamma: rotate[2], Flip: 1}
	i := normalize(rotate[1]+90, 360)
	if i > 180 {
		f.Flip = -1
		f.Phi0 = 270 - i
		f.Lambda0 += 180
	} else {
		f.Phi0 = i - 90
	}
	return f
}

// Invert maps unit-plane coordinates (y up) to geographic degrees using the
// closed-form orthographic inverse centered on (-λ0, -φ0).
func (f Folded) Invert(x, y float64) (lon, lat float64, ok bool) {
	sg, cg := math.Sincos(f.Gamma * radians)
	xs := (x*cg + y*sg) * f.Flip
	ys := (y*cg - x*sg) * f.Flip
	rho := math.Hypot(xs, ys)
	if rho > 1 {
		return 0, 0, false
	}
	phiC := -f.Phi0 * radians
	sinC, cosC := math.Sincos(phiC)
	if rho == 0 {
		return wrapLon(-f.Lambda0), -f.Phi0, true
	}
	c := math.Asin(rho)
	sc, cc := math.Sincos(c)
	lat = asin(cc*sinC+ys*sc*cosC/rho) * degrees
	lon = -f.Lambda0 + math.Atan2(xs*sc, rho*cosC*cc-ys*sinC*sc)*degrees
	return wrapLon(lon), lat, true
}

// wrapLon normalizes a longitude in degrees to [-180, 180).
func wrapLon(lon float64) float64 {
	return normalize(lon+180, 360) - 180
}
