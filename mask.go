// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"image"
	"image/color"
	"io"

	"github.com/mi-v/img1b"
	"github.com/mi-v/img1b/png"
)

// DefaultMaskBorder is the erosion radius in pixels applied to the
// silhouette so anti-aliased edges never show field color.
const DefaultMaskBorder = 2

// Mask marks the pixels of a viewport that lie on the globe. It is the
// silhouette eroded by a disk of radius Border; the viewport edge counts
// as outside.
//
// A Mask is immutable once built and safe for concurrent reads.
type Mask struct {
	width, height int
	border        int
	bits          []uint8 // one byte per pixel, row major
	count         int
}

// BuildMask builds a width×height mask from inside, which reports whether
// an integer pixel lies on the globe, eroded by border pixels.
func BuildMask(width, height, border int, inside func(x, y int) bool) *Mask {
	m := &Mask{width: max(width, 0), height: max(height, 0), border: max(border, 0)}
	n := m.width * m.height
	sil := make([]uint8, n)
	for y := 0; y < m.height; y++ {
		row := sil[y*m.width:]
		for x := 0; x < m.width; x++ {
			if inside(x, y) {
				row[x] = 1
			}
		}
	}
	if m.border == 0 {
		m.bits = sil
		for _, b := range sil {
			m.count += int(b)
		}
		return m
	}

	disk := diskOffsets(m.border)
	m.bits = make([]uint8, n)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if sil[y*m.width+x] == 0 || !m.survives(sil, disk, x, y) {
				continue
			}
			m.bits[y*m.width+x] = 1
			m.count++
		}
	}
	return m
}

// NewMask builds the mask for the globe's current projection in view.
// Only pixels inside the clamped bounds are tested.
func (g *Globe) NewMask(view View, border int) *Mask {
	p := g.proj
	b := g.Bounds(view)
	return BuildMask(view.Width, view.Height, border, func(x, y int) bool {
		if !b.Contains(x, y) {
			return false
		}
		_, _, ok := p.Invert(float64(x), float64(y))
		return ok
	})
}

func (m *Mask) survives(sil []uint8, disk []image.Point, x, y int) bool {
	for _, d := range disk {
		px, py := x+d.X, y+d.Y
		if px < 0 || py < 0 || px >= m.width || py >= m.height {
			return false
		}
		if sil[py*m.width+px] == 0 {
			return false
		}
	}
	return true
}

// diskOffsets lists the offsets of the Euclidean disk of radius r.
func diskOffsets(r int) []image.Point {
	var pts []image.Point
	for j := -r; j <= r; j++ {
		for i := -r; i <= r; i++ {
			if i*i+j*j <= r*r {
				pts = append(pts, image.Point{X: i, Y: j})
			}
		}
	}
	return pts
}

// Width returns the mask width in pixels.
func (m *Mask) Width() int { return m.width }

// Height returns the mask height in pixels.
func (m *Mask) Height() int { return m.height }

// Border returns the erosion radius the mask was built with.
func (m *Mask) Border() int { return m.border }

// Count returns the number of visible pixels.
func (m *Mask) Count() int { return m.count }

// Matches reports whether m was built for view.
func (m *Mask) Matches(view View) bool {
	return m != nil && m.width == view.Width && m.height == view.Height
}

// IsVisible reports whether pixel (x, y) is on the globe. Pixels outside
// the mask are not visible.
func (m *Mask) IsVisible(x, y int) bool {
	if x < 0 || y < 0 || x >= m.width || y >= m.height {
		return false
	}
	return m.bits[y*m.width+x] != 0
}

// Image returns the mask as a 1-bit image, white where visible.
func (m *Mask) Image() *img1b.Image {
	stride := (m.width + 7) / 8
	pix := make([]uint8, stride*m.height)
	for y := 0; y < m.height; y++ {
		for x := 0; x < m.width; x++ {
			if m.bits[y*m.width+x] != 0 {
				pix[y*stride+x/8] |= 0x80 >> (x % 8)
			}
		}
	}
	return &img1b.Image{
		Pix:    pix,
		Stride: stride,
		Rect:   image.Rect(0, 0, m.width, m.height),
		Palette: color.Palette{
			color.Black,
			color.White,
		},
	}
}

// WritePNG encodes the mask as a 1-bit PNG.
func (m *Mask) WritePNG(w io.Writer) error {
	return png.Encode(w, m.Image())
}
