// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package projection implements the cartographic projections used to draw
// geophysical fields on a rotatable, zoomable globe.
//
// A [Projection] combines three parts:
//
//   - a raw projection for one [Family], mapping rotated spherical
//     coordinates (radians) to unit plane coordinates and back
//   - a three-axis rotation (λ0, φ0, γ0 in degrees), applied before the raw
//     projection exactly as d3-geo does
//   - a scale (pixels per unit) and a translate (screen origin)
//
// Forward maps (lon, lat) in degrees to screen pixels. Invert maps screen
// pixels back to (lon, lat) and reports false for pixels outside the
// projection's valid domain.
//
//	p := projection.New(projection.Orthographic)
//	p.SetRotate([3]float64{-30, 10, 0})
//	p.SetScale(270)
//	p.SetTranslate(r2.Point{X: 400, Y: 300})
//	if lon, lat, ok := p.Invert(400, 300); ok {
//	    // lon == 30, lat == -10
//	}
//
// The set of families is closed. Orthographic, Stereographic,
// AzimuthalEquidistant and Equirectangular have GPU shader support;
// ConicEquidistant and WinkelTripel render on the CPU only.
package projection
