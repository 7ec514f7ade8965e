// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package projection

import "math"

const (
	epsilon   = 1e-6
	halfPi    = math.Pi / 2
	radians   = math.Pi / 180
	degrees   = 180 / math.Pi
	clipLimit = (180 - 1e-4) * radians
)

// raw is a unit projection of rotated spherical coordinates in radians.
// invert reports false outside the family's valid domain.
type raw interface {
	forward(lambda, phi float64) (x, y float64)
	invert(x, y float64) (lambda, phi float64, ok bool)
}

// newRaw returns the raw projection for f. The switch is exhaustive over
// the enumerated families.
func newRaw(f Family) raw {
	switch f {
	case Orthographic:
		return orthographicRaw{}
	case Stereographic:
		return stereographicRaw{}
	case AzimuthalEquidistant:
		return azimuthalEquidistantRaw{}
	case Equirectangular:
		return equirectangularRaw{}
	case ConicEquidistant:
		return newConicEquidistantRaw(0, 60*radians)
	case WinkelTripel:
		return winkelTripelRaw{}
	}
	return orthographicRaw{}
}

// clipAngle returns the angular radius (radians) of the visible cap for
// azimuthal families, or 0 when the family is not clipped by angle.
func clipAngle(f Family) float64 {
	switch f {
	case Orthographic:
		return halfPi
	case Stereographic, AzimuthalEquidistant:
		return clipLimit
	default:
		return 0
	}
}

// azimuthalInvert inverts an azimuthal projection whose radial function
// maps plane radius rho to angular distance c = angle(rho).
func azimuthalInvert(x, y float64, angle func(float64) float64) (float64, float64) {
	z := math.Hypot(x, y)
	c := angle(z)
	sc, cc := math.Sincos(c)
	lambda := math.Atan2(x*sc, z*cc)
	var phi float64
	if z != 0 {
		phi = asin(y * sc / z)
	}
	return lambda, phi
}

type orthographicRaw struct{}

func (orthographicRaw) forward(lambda, phi float64) (float64, float64) {
	return math.Cos(phi) * math.Sin(lambda), math.Sin(phi)
}

func (orthographicRaw) invert(x, y float64) (float64, float64, bool) {
	if math.Hypot(x, y) > 1 {
		return 0, 0, false
	}
	lambda, phi := azimuthalInvert(x, y, asin)
	return lambda, phi, true
}

type stereographicRaw struct{}

func (stereographicRaw) forward(lambda, phi float64) (float64, float64) {
	cy := math.Cos(phi)
	k := 1 + math.Cos(lambda)*cy
	return cy * math.Sin(lambda) / k, math.Sin(phi) / k
}

func (stereographicRaw) invert(x, y float64) (float64, float64, bool) {
	if 2*math.Atan(math.Hypot(x, y)) > clipLimit {
		return 0, 0, false
	}
	lambda, phi := azimuthalInvert(x, y, func(z float64) float64 { return 2 * math.Atan(z) })
	return lambda, phi, true
}

type azimuthalEquidistantRaw struct{}

func (azimuthalEquidistantRaw) forward(lambda, phi float64) (float64, float64) {
	cy := math.Cos(phi)
	c := math.Acos(clamp(math.Cos(lambda)*cy, -1, 1))
	k := 1.0
	if c != 0 {
		k = c / math.Sin(c)
	}
	return k * cy * math.Sin(lambda), k * math.Sin(phi)
}

func (azimuthalEquidistantRaw) invert(x, y float64) (float64, float64, bool) {
	if math.Hypot(x, y) > clipLimit {
		return 0, 0, false
	}
	lambda, phi := azimuthalInvert(x, y, func(z float64) float64 { return z })
	return lambda, phi, true
}

type equirectangularRaw struct{}

func (equirectangularRaw) forward(lambda, phi float64) (float64, float64) {
	return lambda, phi
}

func (equirectangularRaw) invert(x, y float64) (float64, float64, bool) {
	if math.Abs(x) > math.Pi || math.Abs(y) > halfPi {
		return 0, 0, false
	}
	return x, y, true
}

// conicEquidistantRaw is the equidistant conic for standard parallels y0, y1.
type conicEquidistantRaw struct {
	n, g float64
}

func newConicEquidistantRaw(y0, y1 float64) conicEquidistantRaw {
	cy0 := math.Cos(y0)
	n := math.Sin(y0)
	if y1 != y0 {
		n = (cy0 - math.Cos(y1)) / (y1 - y0)
	}
	return conicEquidistantRaw{n: n, g: cy0/n + y0}
}

func (c conicEquidistantRaw) forward(lambda, phi float64) (float64, float64) {
	gy := c.g - phi
	nx := c.n * lambda
	return gy * math.Sin(nx), c.g - gy*math.Cos(nx)
}

func (c conicEquidistantRaw) invert(x, y float64) (float64, float64, bool) {
	gy := c.g - y
	l := math.Atan2(x, math.Abs(gy)) * sign(gy)
	if gy*c.n < 0 {
		l -= math.Pi * sign(x) * sign(gy)
	}
	lambda := l / c.n
	phi := c.g - sign(c.n)*math.Hypot(x, gy)
	if math.Abs(lambda) > math.Pi+epsilon || math.Abs(phi) > halfPi+epsilon {
		return 0, 0, false
	}
	return lambda, phi, true
}

type winkelTripelRaw struct{}

func (winkelTripelRaw) forward(lambda, phi float64) (float64, float64) {
	ax, ay := aitoff(lambda, phi)
	return (ax + lambda/halfPi) / 2, (ay + phi) / 2
}

func aitoff(lambda, phi float64) (float64, float64) {
	cy := math.Cos(phi)
	half := lambda / 2
	s := sinci(math.Acos(clamp(cy*math.Cos(half), -1, 1)))
	return 2 * cy * math.Sin(half) * s, math.Sin(phi) * s
}

func sinci(x float64) float64 {
	if x == 0 {
		return 1
	}
	return x / math.Sin(x)
}

// invert solves the Winkel tripel equations by Newton iteration and
// rejects solutions that leave the sphere or fail to reproject.
func (w winkelTripelRaw) invert(x, y float64) (float64, float64, bool) {
	lambda, phi := x, y
	for i := 0; i < 25; i++ {
		sinPhi, cosPhi := math.Sincos(phi)
		sin2Phi := math.Sin(2 * phi)
		sinSqPhi, cosSqPhi := sinPhi*sinPhi, cosPhi*cosPhi
		sinLambda := math.Sin(lambda)
		sinHalf, cosHalf := math.Sincos(lambda / 2)
		sinSqHalf := sinHalf * sinHalf

		c := 1 - cosSqPhi*cosHalf*cosHalf
		var e, f float64
		if c != 0 {
			f = 1 / c
			e = math.Acos(clamp(cosPhi*cosHalf, -1, 1)) * math.Sqrt(f)
		}
		fx := 0.5*(2*e*cosPhi*sinHalf+lambda/halfPi) - x
		fy := 0.5*(e*sinPhi+phi) - y
		dxdl := 0.5*f*(cosSqPhi*sinSqHalf+e*cosPhi*cosHalf*sinSqPhi) + 0.5/halfPi
		dxdp := f * (sinLambda*sin2Phi/4 - e*sinPhi*sinHalf)
		dydl := 0.125 * f * (sin2Phi*sinHalf - e*sinPhi*cosSqPhi*sinLambda)
		dydp := 0.5*f*(sinSqPhi*cosHalf+e*sinSqHalf*cosPhi) + 0.5
		den := dxdp*dydl - dydp*dxdl
		if den == 0 {
			return 0, 0, false
		}
		dl := (fy*dxdp - fx*dydp) / den
		dp := (fx*dydl - fy*dxdl) / den
		lambda -= dl
		phi -= dp
		if math.Abs(dl) <= epsilon && math.Abs(dp) <= epsilon {
			break
		}
	}
	if math.Abs(lambda) > math.Pi+epsilon || math.Abs(phi) > halfPi+epsilon {
		return 0, 0, false
	}
	fx, fy := w.forward(lambda, phi)
	if math.Abs(fx-x) > 1e-4 || math.Abs(fy-y) > 1e-4 {
		return 0, 0, false
	}
	return lambda, phi, true
}

func asin(x float64) float64 {
	return math.Asin(clamp(x, -1, 1))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

// normalize returns x modulo m in [0, m).
func normalize(x, m float64) float64 {
	r := math.Mod(x, m)
	if r < 0 {
		r += m
	}
	if r >= m {
		return 0
	}
	return r
}
