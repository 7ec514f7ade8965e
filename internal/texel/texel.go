// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package texel packs floating-point samples into RGBA8 texels for GPU
// transport.
//
// A texel stores |x| as 24-bit fixed point with 6 fractional bits in R, G
// and B (R is the low byte) and the sign in A: 0xFF for x >= 0, 0x80 for
// x < 0. The all-zero texel is NIL. The representable domain is
// |x| <= MaxMagnitude and the round-trip error is at most Tolerance.
// Magnitudes beyond the domain saturate.
package texel

import (
	"encoding/binary"
	"math"
)

const (
	// FracBits is the number of fractional bits of the fixed-point magnitude.
	FracBits = 6

	// Scale converts a magnitude to fixed point.
	Scale = 1 << FracBits

	maxFixed = 1<<24 - 1

	// MaxMagnitude is the largest magnitude that packs without saturating.
	MaxMagnitude = float64(maxFixed) / Scale

	// Tolerance bounds |Unpack(Pack(x)) - x| inside the domain.
	Tolerance = 0.5 / Scale

	alphaPositive = 0xFF
	alphaNegative = 0x80

	// alphaNIL is the threshold below which a texel decodes as NIL. The
	// shader applies the same threshold.
	alphaNIL = 0x40
)

// Texel is one packed RGBA8 value.
type Texel [4]uint8

// NIL is the texel reserved for missing samples.
var NIL = Texel{}

// Pack encodes x. NaN packs as NIL.
func Pack(x float64) Texel {
	if math.IsNaN(x) {
		return NIL
	}
	m := math.Round(math.Abs(x) * Scale)
	if m > maxFixed {
		m = maxFixed
	}
	f := uint32(m)
	a := uint8(alphaPositive)
	if x < 0 && f != 0 {
		a = alphaNegative
	}
	return Texel{uint8(f), uint8(f >> 8), uint8(f >> 16), a} //nolint:gosec // masked to 8 bits
}

// Unpack decodes t. ok is false for NIL.
func Unpack(t Texel) (x float64, ok bool) {
	if t[3] < alphaNIL {
		return 0, false
	}
	f := uint32(t[0]) | uint32(t[1])<<8 | uint32(t[2])<<16
	x = float64(f) / Scale
	if t[3] < alphaPositive {
		x = -x
	}
	return x, true
}

// Uint32 returns t as the little-endian word the shader reads from a
// storage buffer.
func (t Texel) Uint32() uint32 {
	return binary.LittleEndian.Uint32(t[:])
}

// FromUint32 is the inverse of Texel.Uint32.
func FromUint32(w uint32) Texel {
	var t Texel
	binary.LittleEndian.PutUint32(t[:], w)
	return t
}

// Encode packs values into little-endian storage words, appending to dst.
// NaN entries become NIL.
func Encode(dst []byte, values []float32) []byte {
	for _, v := range values {
		dst = binary.LittleEndian.AppendUint32(dst, Pack(float64(v)).Uint32())
	}
	return dst
}
