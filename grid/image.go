// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package grid

import (
	"fmt"
	"image"
	"image/color"
	"io"

	// Registered decoders for raster products. PNG and JPEG come from the
	// standard library; TIFF covers 16-bit elevation and cloud rasters.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// PixelFunc converts a 16-bit gray level to a sample value. Returning
// false marks the pixel missing.
type PixelFunc func(gray uint16, alpha uint16) (float64, bool)

// Gray8 maps luminance to [0, 255] and treats fully transparent pixels as
// missing.
func Gray8(gray, alpha uint16) (float64, bool) {
	if alpha == 0 {
		return 0, false
	}
	return float64(gray) / 257, true
}

// GlobalHeader returns the header of an equirectangular w×h raster that
// covers the whole globe, with samples at pixel centers.
func GlobalHeader(w, h int) Header {
	dx, dy := 360/float64(w), 180/float64(h)
	return Header{
		Lo1: -180 + dx/2, La1: 90 - dy/2,
		Dx: dx, Dy: dy,
		Nx: w, Ny: h,
	}
}

// FromImage builds a scalar grid from an image whose pixels are lattice
// cells. If h has no lattice, the raster is treated as a global
// equirectangular image. fn defaults to Gray8.
func FromImage(img image.Image, h Header, fn PixelFunc) (*Grid, error) {
	b := img.Bounds()
	if h.Nx == 0 && h.Ny == 0 {
		meta := h
		h = GlobalHeader(b.Dx(), b.Dy())
		h.Parameter, h.Name, h.Level, h.Units = meta.Parameter, meta.Name, meta.Level, meta.Units
		h.RefTime, h.ForecastTime = meta.RefTime, meta.ForecastTime
	}
	if h.Nx != b.Dx() || h.Ny != b.Dy() {
		return nil, fmt.Errorf("%w: lattice %dx%d for %dx%d image", ErrInvalidHeader, h.Nx, h.Ny, b.Dx(), b.Dy())
	}
	if fn == nil {
		fn = Gray8
	}
	return Build(h, func(i int) (float64, bool) {
		x, y := b.Min.X+i%h.Nx, b.Min.Y+i/h.Nx
		c := img.At(x, y)
		_, _, _, a := c.RGBA()
		g := color.Gray16Model.Convert(c).(color.Gray16)
		return fn(g.Y, uint16(a)) //nolint:gosec // RGBA alpha is 16-bit
	})
}

// DecodeImage decodes a raster in any registered format and builds a grid
// from it with FromImage.
func DecodeImage(r io.Reader, h Header, fn PixelFunc) (*Grid, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("grid: decode image: %w", err)
	}
	g, err := FromImage(img, h, fn)
	if err != nil {
		return nil, fmt.Errorf("grid: %s raster: %w", format, err)
	}
	return g, nil
}
