// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package grid

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidHeader is returned when a header does not describe a usable lattice.
var ErrInvalidHeader = errors.New("grid: invalid header")

// Kind distinguishes scalar grids from vector (u, v) grids.
type Kind uint8

const (
	// Scalar grids hold one value per cell.
	Scalar Kind = iota

	// Vector grids hold u and v components per cell.
	Vector
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Vector:
		return "vector"
	default:
		return "unknown"
	}
}

// Header describes the lattice geometry and the product it carries.
type Header struct {
	Lo1, La1 float64 // origin in degrees, La1 is the northernmost row
	Dx, Dy   float64 // positive steps in degrees
	Nx, Ny   int

	RefTime      time.Time
	ForecastTime int // hours after RefTime

	Parameter string // e.g. "temp", "wind"
	Name      string
	Level     string
	Units     string
}

// Validate reports whether h describes a non-empty lattice with positive steps.
func (h Header) Validate() error {
	switch {
	case h.Nx <= 0 || h.Ny <= 0:
		return fmt.Errorf("%w: lattice %dx%d", ErrInvalidHeader, h.Nx, h.Ny)
	case !(h.Dx > 0) || !(h.Dy > 0) || math.IsInf(h.Dx, 0) || math.IsInf(h.Dy, 0):
		return fmt.Errorf("%w: step %vx%v", ErrInvalidHeader, h.Dx, h.Dy)
	case math.IsNaN(h.Lo1) || math.IsNaN(h.La1) || math.IsInf(h.Lo1, 0) || math.IsInf(h.La1, 0):
		return fmt.Errorf("%w: origin (%v,%v)", ErrInvalidHeader, h.Lo1, h.La1)
	}
	return nil
}

// Continuous reports whether the lattice wraps around the globe in longitude.
func (h Header) Continuous() bool {
	return math.Floor(float64(h.Nx)*h.Dx) >= 360
}

// ValidTime returns the time the data is valid for.
func (h Header) ValidTime() time.Time {
	return h.RefTime.Add(time.Duration(h.ForecastTime) * time.Hour)
}

// RecordLen returns the number of samples a source must supply.
func (h Header) RecordLen() int { return h.Nx * h.Ny }
