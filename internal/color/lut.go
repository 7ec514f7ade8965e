// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package color provides the sRGB transfer functions used to shade field
// colors in linear light.
//
// The lookup tables give O(1) byte conversions for the software engine's
// per-pixel path. The float functions in convert.go are the reference the
// GPU shader mirrors.
package color

import "math"

// sRGBToLinearLUT converts sRGB byte [0-255] → linear float32 [0.0-1.0].
var sRGBToLinearLUT [256]float32

// linearToSRGBLUT converts linear [0.0-1.0] → sRGB byte with 12-bit input
// precision.
var linearToSRGBLUT [4096]uint8

func init() {
	for i := 0; i < 256; i++ {
		sRGBToLinearLUT[i] = SRGBToLinear(float32(i) / 255.0)
	}
	for i := 0; i < 4096; i++ {
		s := LinearToSRGB(float32(i) / 4095.0)
		linearToSRGBLUT[i] = ToByte(s)
	}
}

// SRGBToLinearFast converts an sRGB byte to linear light.
//
//	r := SRGBToLinearFast(128) // ~0.2159 (not 0.5!)
func SRGBToLinearFast(s uint8) float32 {
	return sRGBToLinearLUT[s]
}

// LinearToSRGBFast converts linear light to an sRGB byte. Input is
// clamped to [0.0, 1.0].
//
//	s := LinearToSRGBFast(0.5) // 188 (not 128!)
func LinearToSRGBFast(l float32) uint8 {
	if l < 0 {
		l = 0
	}
	if l > 1 {
		l = 1
	}
	index := int(l*4095.0 + 0.5)
	if index > 4095 {
		index = 4095
	}
	return linearToSRGBLUT[index]
}

// linearToSRGBSlow is the math.Pow reference for LinearToSRGBFast.
func linearToSRGBSlow(l float32) uint8 {
	lf := math.Max(0, math.Min(1, float64(l)))
	return ToByte(LinearToSRGB(float32(lf)))
}
