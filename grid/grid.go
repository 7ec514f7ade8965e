// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package grid

import (
	"fmt"
	"math"
)

// Accessor returns the sample at row-major index i, or false when the
// sample is missing.
type Accessor func(i int) (float64, bool)

// Floats returns an Accessor over values. NaN, infinities and indices past
// the end of values are missing.
func Floats(values []float64) Accessor {
	return func(i int) (float64, bool) {
		if i < 0 || i >= len(values) {
			return 0, false
		}
		v := values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	}
}

// Sample is an interpolated or lattice value. For vector grids Value holds
// the magnitude sqrt(U²+V²) so scalar consumers read a uniform field.
type Sample struct {
	Value  float64
	U, V   float64
	Vector bool
}

// Grid is an immutable lattice of scalar or vector samples.
type Grid struct {
	header Header
	kind   Kind
	cols   int
	rows   int
	u, v   []float32 // cols*rows, NaN marks missing cells
}

// Build lays scalar samples row-major into a new grid.
func Build(h Header, values Accessor) (*Grid, error) {
	return build(h, Scalar, values, nil)
}

// BuildVector lays u and v components row-major into a new grid.
func BuildVector(h Header, u, v Accessor) (*Grid, error) {
	return build(h, Vector, u, v)
}

func build(h Header, kind Kind, u, v Accessor) (*Grid, error) {
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if u == nil || (kind == Vector && v == nil) {
		return nil, fmt.Errorf("grid: nil accessor for %s grid", kind)
	}
	cols := h.Nx
	if h.Continuous() {
		cols++
	}
	g := &Grid{header: h, kind: kind, cols: cols, rows: h.Ny}
	g.u = fill(h, cols, u)
	if kind == Vector {
		g.v = fill(h, cols, v)
	}
	return g, nil
}

func fill(h Header, cols int, values Accessor) []float32 {
	out := make([]float32, cols*h.Ny)
	nan := float32(math.NaN())
	for j := 0; j < h.Ny; j++ {
		row := out[j*cols : (j+1)*cols]
		for i := 0; i < h.Nx; i++ {
			if x, ok := values(j*h.Nx + i); ok {
				row[i] = float32(x)
			} else {
				row[i] = nan
			}
		}
		if cols > h.Nx {
			row[h.Nx] = row[0]
		}
	}
	return out
}

// Header returns the lattice header.
func (g *Grid) Header() Header { return g.header }

// Kind returns whether the grid is scalar or vector.
func (g *Grid) Kind() Kind { return g.kind }

// Columns returns the number of stored columns, including the wraparound
// column of continuous grids.
func (g *Grid) Columns() int { return g.cols }

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Continuous reports whether the grid carries a wraparound column.
func (g *Grid) Continuous() bool { return g.cols > g.header.Nx }

// Raw returns the stored components of cell (i, j) with NaN for missing
// cells. v is NaN for scalar grids. Out-of-range cells are missing.
func (g *Grid) Raw(i, j int) (u, v float32) {
	nan := float32(math.NaN())
	if i < 0 || j < 0 || i >= g.cols || j >= g.rows {
		return nan, nan
	}
	k := j*g.cols + i
	if g.kind == Vector {
		return g.u[k], g.v[k]
	}
	return g.u[k], nan
}

// At returns the lattice sample at column i, row j.
func (g *Grid) At(i, j int) (Sample, bool) {
	if i < 0 || j < 0 || i >= g.cols || j >= g.rows {
		return Sample{}, false
	}
	k := j*g.cols + i
	u := float64(g.u[k])
	if math.IsNaN(u) {
		return Sample{}, false
	}
	if g.kind == Scalar {
		return Sample{Value: u}, true
	}
	v := float64(g.v[k])
	if math.IsNaN(v) {
		return Sample{}, false
	}
	return Sample{Value: math.Hypot(u, v), U: u, V: v, Vector: true}, true
}

// Interpolate returns the bilinear blend of the four cells surrounding
// (lon, lat) in degrees. It reports false when any of the four cells is
// missing or lies outside the lattice. A cell one past the last row or
// column is accepted only when its blend weight is exactly zero.
//
// Interpolate is pure: the same point against the same grid always yields
// the same sample.
func (g *Grid) Interpolate(lon, lat float64) (Sample, bool) {
	h := &g.header
	i := floorMod(lon-h.Lo1, 360) / h.Dx
	j := (h.La1 - lat) / h.Dy
	if math.IsNaN(i) || math.IsNaN(j) {
		return Sample{}, false
	}

	fi, fj := math.Floor(i), math.Floor(j)
	x, y := i-fi, j-fj
	c0, r0 := int(fi), int(fj)
	c1, r1 := c0+1, r0+1
	if r0 < 0 || c0 >= g.cols || r0 >= g.rows {
		return Sample{}, false
	}
	if c1 >= g.cols {
		if x != 0 {
			return Sample{}, false
		}
		c1 = c0
	}
	if r1 >= g.rows {
		if y != 0 {
			return Sample{}, false
		}
		r1 = r0
	}

	k00, k10 := r0*g.cols+c0, r0*g.cols+c1
	k01, k11 := r1*g.cols+c0, r1*g.cols+c1
	u, ok := blend(g.u, k00, k10, k01, k11, x, y)
	if !ok {
		return Sample{}, false
	}
	if g.kind == Scalar {
		return Sample{Value: u}, true
	}
	v, ok := blend(g.v, k00, k10, k01, k11, x, y)
	if !ok {
		return Sample{}, false
	}
	return Sample{Value: math.Hypot(u, v), U: u, V: v, Vector: true}, true
}

func blend(values []float32, k00, k10, k01, k11 int, x, y float64) (float64, bool) {
	g00, g10 := float64(values[k00]), float64(values[k10])
	g01, g11 := float64(values[k01]), float64(values[k11])
	if math.IsNaN(g00) || math.IsNaN(g10) || math.IsNaN(g01) || math.IsNaN(g11) {
		return 0, false
	}
	rx, ry := 1-x, 1-y
	return g00*rx*ry + g10*x*ry + g01*rx*y + g11*x*y, true
}

// ForEachPoint calls fn for every lattice point, excluding the wraparound
// column, with longitudes normalized to [-180, 180). ok is false for
// missing cells.
func (g *Grid) ForEachPoint(fn func(lon, lat float64, s Sample, ok bool)) {
	h := &g.header
	for j := 0; j < h.Ny; j++ {
		lat := h.La1 - float64(j)*h.Dy
		for i := 0; i < h.Nx; i++ {
			lon := floorMod(180+h.Lo1+float64(i)*h.Dx, 360) - 180
			s, ok := g.At(i, j)
			fn(lon, lat, s, ok)
		}
	}
}

// Range returns the minimum and maximum of Sample.Value over all present
// cells. ok is false when every cell is missing.
func (g *Grid) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for j := 0; j < g.rows; j++ {
		for i := 0; i < g.header.Nx; i++ {
			if s, present := g.At(i, j); present {
				lo = math.Min(lo, s.Value)
				hi = math.Max(hi, s.Value)
				ok = true
			}
		}
	}
	return lo, hi, ok
}

// floorMod returns a modulo n with the sign of n.
func floorMod(a, n float64) float64 {
	return a - n*math.Floor(a/n)
}

// Bytes returns the approximate memory held by the grid's samples.
func (g *Grid) Bytes() int {
	return 4 * (len(g.u) + len(g.v))
}
