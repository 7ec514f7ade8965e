// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"math"

	"github.com/golang/geo/r2"
)

// View is the size of the viewport in pixels.
type View struct {
	Width, Height int
}

// Center returns the viewport center.
func (v View) Center() r2.Point {
	return r2.Point{X: float64(v.Width) / 2, Y: float64(v.Height) / 2}
}

// Empty reports whether the view has no pixels.
func (v View) Empty() bool { return v.Width <= 0 || v.Height <= 0 }

// Bounds is an inclusive pixel rectangle clamped to a viewport.
type Bounds struct {
	X, Y          int // upper left
	XMax, YMax    int // lower right, inclusive
	Width, Height int
}

// Empty reports whether b covers no pixels.
func (b Bounds) Empty() bool { return b.Width <= 0 || b.Height <= 0 }

// Contains reports whether pixel (x, y) lies inside b.
func (b Bounds) Contains(x, y int) bool {
	return x >= b.X && x <= b.XMax && y >= b.Y && y <= b.YMax
}

// evenRound rounds x to the nearest even integer.
func evenRound(x float64) float64 {
	r := math.Round(x)
	if math.Mod(r, 2) != 0 {
		if x < r {
			r--
		} else {
			r++
		}
	}
	return r
}
