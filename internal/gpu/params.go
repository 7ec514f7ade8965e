// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/gogpu/earth"
	"github.com/gogpu/earth/grid"
	"github.com/gogpu/earth/internal/texel"
	"github.com/gogpu/earth/projection"
)

// Flags of fieldParams.Extent[3].
const (
	flagVector  = 1 << 0
	flagShading = 1 << 1
)

const radians = math.Pi / 180

// fieldParams is the uniform block of shaders/field.wgsl. Every member is
// a 16-byte vector so the Go layout matches WGSL uniform alignment.
type fieldParams struct {
	View    [4]uint32  // frame width, frame height, bounds x, bounds y
	Extent  [4]uint32  // bounds width, bounds height, family, flags
	Lattice [4]uint32  // columns, rows, v offset, unused
	Grid    [4]float32 // lo1, la1, dx, dy
	Screen  [4]float32 // translate x, translate y, scale, flip
	Rotate  [4]float32 // lambda0, cos phi0, sin phi0 (radians)
	Gamma   [4]float32 // cos gamma, sin gamma, clip radius
	Scale   [4]float32 // lo, hi, alpha, night level
	Sun     [4]float32 // sin lat, cos lat, lon (radians)
}

const paramsSize = uint64(unsafe.Sizeof(fieldParams{}))

// overlayParams holds the members of fieldParams fixed by Setup.
type overlayParams struct {
	family  projection.Family
	lattice [4]uint32
	grid    [4]float32
	scale   [4]float32
	sun     [4]float32
	flags   uint32
}

func newOverlayParams(family projection.Family, ov *earth.Overlay) overlayParams {
	g := ov.Grid
	h := g.Header()
	op := overlayParams{family: family}
	op.lattice = [4]uint32{uint32(g.Columns()), uint32(g.Rows()), 0, 0} //nolint:gosec // lattice sizes fit uint32
	if g.Kind() == grid.Vector {
		op.lattice[2] = uint32(g.Columns() * g.Rows()) //nolint:gosec // lattice sizes fit uint32
		op.flags |= flagVector
	}
	op.grid = [4]float32{float32(h.Lo1), float32(h.La1), float32(h.Dx), float32(h.Dy)}
	lo, hi := ov.Scale.Bounds()
	op.scale = [4]float32{float32(lo), float32(hi), float32(ov.Opacity()) / 255, float32(ov.Night())}
	if sub, ok := ov.SubSolar(); ok {
		sl, cl := math.Sincos(sub.Lat.Radians())
		op.sun = [4]float32{float32(sl), float32(cl), float32(sub.Lng.Radians()), 0}
		op.flags |= flagShading
	}
	return op
}

// frameParams completes the uniform block for one frame.
func (op *overlayParams) frameParams(p *projection.Projection, view earth.View, b earth.Bounds) fieldParams {
	fp := fieldParams{
		View:    [4]uint32{uint32(view.Width), uint32(view.Height), uint32(b.X), uint32(b.Y)}, //nolint:gosec // clamped to the view
		Extent:  [4]uint32{uint32(b.Width), uint32(b.Height), uint32(op.family), op.flags}, //nolint:gosec // clamped to the view
		Lattice: op.lattice,
		Grid:    op.grid,
		Scale:   op.scale,
		Sun:     op.sun,
	}
	t := p.Translate()
	flip := 1.0
	var lambda0, phi0, gamma float64
	if op.family == projection.Orthographic {
		f := p.Folded()
		lambda0, phi0, gamma, flip = f.Lambda0, f.Phi0, f.Gamma, f.Flip
	} else {
		r := p.Rotate()
		lambda0, phi0, gamma = r[0], r[1], r[2]
	}
	sp, cp := math.Sincos(phi0 * radians)
	sg, cg := math.Sincos(gamma * radians)
	fp.Screen = [4]float32{float32(t.X), float32(t.Y), float32(p.Scale()), float32(flip)}
	fp.Rotate = [4]float32{float32(lambda0 * radians), float32(cp), float32(sp), 0}
	fp.Gamma = [4]float32{float32(cg), float32(sg), float32(p.ClipAngle() * radians), 0}
	return fp
}

func (fp *fieldParams) bytes() []byte {
	return structToBytes(unsafe.Pointer(fp), unsafe.Sizeof(*fp)) //nolint:gosec // safe struct access
}

func structToBytes(ptr unsafe.Pointer, size uintptr) []byte {
	return unsafe.Slice((*byte)(ptr), size) //nolint:gosec // safe struct serialization
}

// encodeField packs the grid into the storage words the shader reads: all
// u components row-major over Columns x Rows, then all v components for
// vector grids.
func encodeField(g *grid.Grid) []byte {
	cols, rows := g.Columns(), g.Rows()
	n := cols * rows
	vector := g.Kind() == grid.Vector
	if vector {
		n *= 2
	}
	u := make([]float32, 0, n)
	var v []float32
	if vector {
		v = make([]float32, 0, cols*rows)
	}
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			a, b := g.Raw(i, j)
			u = append(u, a)
			if vector {
				v = append(v, b)
			}
		}
	}
	out := texel.Encode(make([]byte, 0, 4*n), u)
	return texel.Encode(out, v)
}

// encodePalette packs the 256 straight-alpha palette entries as
// little-endian r|g<<8|b<<16|a<<24 words.
func encodePalette(s *earth.ColorScale) []byte {
	pal := s.Palette()
	out := make([]byte, 0, 4*len(pal))
	for _, c := range pal {
		out = binary.LittleEndian.AppendUint32(out, packRGBA(c))
	}
	return out
}

func packRGBA(c [4]uint8) uint32 {
	return uint32(c[0]) | uint32(c[1])<<8 | uint32(c[2])<<16 | uint32(c[3])<<24
}

func unpackRGBA(w uint32) [4]uint8 {
	return [4]uint8{uint8(w), uint8(w >> 8), uint8(w >> 16), uint8(w >> 24)} //nolint:gosec // masked to 8 bits
}

// fitsTexels reports whether every sample of g is inside the packing
// domain.
func fitsTexels(g *grid.Grid) bool {
	lo, hi, ok := g.Range()
	if !ok {
		return true
	}
	return math.Abs(lo) <= texel.MaxMagnitude && math.Abs(hi) <= texel.MaxMagnitude
}
