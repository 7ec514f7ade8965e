// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package color

// Shade scales the linear-light intensity of the straight (non
// premultiplied) sRGB color c by f in [0,1]. Alpha is unchanged.
func Shade(c [4]uint8, f float32) [4]uint8 {
	if f >= 1 {
		return c
	}
	if f < 0 {
		f = 0
	}
	return [4]uint8{
		LinearToSRGBFast(SRGBToLinearFast(c[0]) * f),
		LinearToSRGBFast(SRGBToLinearFast(c[1]) * f),
		LinearToSRGBFast(SRGBToLinearFast(c[2]) * f),
		c[3],
	}
}

// Premultiply multiplies the color channels of c by its alpha.
func Premultiply(c [4]uint8) [4]uint8 {
	a := uint32(c[3])
	switch a {
	case 255:
		return c
	case 0:
		return [4]uint8{}
	}
	return [4]uint8{
		uint8((uint32(c[0])*a + 127) / 255),
		uint8((uint32(c[1])*a + 127) / 255),
		uint8((uint32(c[2])*a + 127) / 255),
		c[3],
	}
}

// Lerp blends a and b channel-wise at t in [0,1] with rounding.
func Lerp(a, b [4]uint8, t float64) [4]uint8 {
	var out [4]uint8
	for i := range out {
		v := float64(a[i]) + (float64(b[i])-float64(a[i]))*t
		out[i] = uint8(v + 0.5)
	}
	return out
}
