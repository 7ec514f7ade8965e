// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package projection

import "math"

// rotation is the three-axis spherical rotation [λ0, φ0, γ0]: a longitude
// shift by λ0 followed by rotations by φ0 and γ0 about the two horizontal
// axes. The composition matches d3-geo's geoRotation.
type rotation struct {
	dLambda            float64
	cosPhi, sinPhi     float64
	cosGamma, sinGamma float64
}

func newRotation(angles [3]float64) rotation {
	r := rotation{dLambda: angles[0] * radians}
	r.sinPhi, r.cosPhi = math.Sincos(angles[1] * radians)
	r.sinGamma, r.cosGamma = math.Sincos(angles[2] * radians)
	return r
}

// forward rotates geographic radians into the projection frame.
func (r rotation) forward(lambda, phi float64) (float64, float64) {
	lambda = wrapPi(lambda + r.dLambda)
	cp := math.Cos(phi)
	x := math.Cos(lambda) * cp
	y := math.Sin(lambda) * cp
	z := math.Sin(phi)
	k := z*r.cosPhi + x*r.sinPhi
	return math.Atan2(y*r.cosGamma-k*r.sinGamma, x*r.cosPhi-z*r.sinPhi),
		asin(k*r.cosGamma + y*r.sinGamma)
}

// invert maps projection-frame radians back to geographic radians.
func (r rotation) invert(lambda, phi float64) (float64, float64) {
	cp := math.Cos(phi)
	x := math.Cos(lambda) * cp
	y := math.Sin(lambda) * cp
	z := math.Sin(phi)
	k := z*r.cosGamma - y*r.sinGamma
	lambda = math.Atan2(y*r.cosGamma+z*r.sinGamma, x*r.cosPhi+k*r.sinPhi)
	phi = asin(k*r.cosPhi - x*r.sinPhi)
	return wrapPi(lambda - r.dLambda), phi
}

// wrapPi folds an angle that is at most one turn out of range into [-π, π].
func wrapPi(a float64) float64 {
	switch {
	case a > math.Pi:
		return a - 2*math.Pi
	case a < -math.Pi:
		return a + 2*math.Pi
	}
	return a
}
