// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
)

// Frame is a premultiplied RGBA raster the engines render into.
// Pixels off the globe or over missing data are transparent.
type Frame struct {
	width  int
	height int
	data   []uint8 // premultiplied RGBA, 4 bytes per pixel
}

// NewFrame creates a transparent frame with the given dimensions.
func NewFrame(width, height int) *Frame {
	width, height = max(width, 0), max(height, 0)
	return &Frame{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// Width returns the width of the frame.
func (f *Frame) Width() int { return f.width }

// Height returns the height of the frame.
func (f *Frame) Height() int { return f.height }

// View returns the frame's dimensions as a View.
func (f *Frame) View() View { return View{Width: f.width, Height: f.height} }

// Data returns the raw pixel data (premultiplied RGBA).
func (f *Frame) Data() []uint8 { return f.data }

// SetPremul sets a premultiplied pixel. Out-of-bounds writes are ignored.
func (f *Frame) SetPremul(x, y int, c [4]uint8) {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return
	}
	i := (y*f.width + x) * 4
	copy(f.data[i:i+4], c[:])
}

// Pixel returns the premultiplied pixel at (x, y), transparent when out of
// bounds.
func (f *Frame) Pixel(x, y int) [4]uint8 {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return [4]uint8{}
	}
	i := (y*f.width + x) * 4
	return [4]uint8{f.data[i], f.data[i+1], f.data[i+2], f.data[i+3]}
}

// Clear makes every pixel transparent.
func (f *Frame) Clear() {
	clear(f.data)
}

// CopyFrom copies src into f. Both frames must have the same size.
func (f *Frame) CopyFrom(src *Frame) error {
	if src.width != f.width || src.height != f.height {
		return fmt.Errorf("earth: frame size %dx%d, source %dx%d", f.width, f.height, src.width, src.height)
	}
	copy(f.data, src.data)
	return nil
}

// ToImage converts the frame to an image.RGBA, which is premultiplied too.
func (f *Frame) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	copy(img.Pix, f.data)
	return img
}

// WritePNG encodes the frame as PNG.
func (f *Frame) WritePNG(w io.Writer) error {
	return png.Encode(w, f.ToImage())
}

// SavePNG saves the frame to a PNG file.
func (f *Frame) SavePNG(path string) error {
	out, err := os.Create(path) //nolint:gosec // path is user-provided intentionally
	if err != nil {
		return err
	}
	if err := f.WritePNG(out); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// At implements the image.Image interface.
func (f *Frame) At(x, y int) color.Color {
	p := f.Pixel(x, y)
	return color.RGBA{R: p[0], G: p[1], B: p[2], A: p[3]}
}

// Bounds implements the image.Image interface.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.width, f.height)
}

// ColorModel implements the image.Image interface.
func (f *Frame) ColorModel() color.Model {
	return color.RGBAModel
}
