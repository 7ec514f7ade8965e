// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"errors"
	"math"
	"sort"

	"github.com/gogpu/earth/internal/color"
)

// PaletteSize is the number of entries in a ColorScale palette.
const PaletteSize = 256

// ErrEmptyScale is returned by NewColorScale when no stops are given.
var ErrEmptyScale = errors.New("earth: color scale needs at least one stop")

// ColorStop pins an opaque sRGB color to a data value.
type ColorStop struct {
	Value float64
	Color [3]uint8
}

// ColorScale maps data values to colors by linear interpolation between
// stops in sRGB. Values outside Bounds take the nearest end color.
//
// The GPU engine samples Palette and the software engine calls Gradient;
// the two agree exactly at every palette step.
type ColorScale struct {
	name  string
	stops []ColorStop
}

// NewColorScale builds a scale from stops in any order.
func NewColorScale(name string, stops ...ColorStop) (*ColorScale, error) {
	if len(stops) == 0 {
		return nil, ErrEmptyScale
	}
	sorted := make([]ColorStop, len(stops))
	copy(sorted, stops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value < sorted[j].Value
	})
	return &ColorScale{name: name, stops: sorted}, nil
}

// mustScale is NewColorScale for the built-in tables.
func mustScale(name string, stops ...ColorStop) *ColorScale {
	s, err := NewColorScale(name, stops...)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the scale's name.
func (s *ColorScale) Name() string { return s.name }

// Bounds returns the values of the first and last stop.
func (s *ColorScale) Bounds() (lo, hi float64) {
	return s.stops[0].Value, s.stops[len(s.stops)-1].Value
}

// Gradient returns the straight (non premultiplied) RGBA color for value
// with the given alpha. NaN maps to transparent black.
func (s *ColorScale) Gradient(value float64, alpha uint8) [4]uint8 {
	if math.IsNaN(value) {
		return [4]uint8{}
	}
	n := len(s.stops)
	i := sort.Search(n, func(i int) bool { return s.stops[i].Value > value })
	var c [4]uint8
	switch {
	case i == 0:
		c = opaque(s.stops[0].Color)
	case i == n:
		c = opaque(s.stops[n-1].Color)
	default:
		a, b := s.stops[i-1], s.stops[i]
		t := (value - a.Value) / (b.Value - a.Value)
		c = color.Lerp(opaque(a.Color), opaque(b.Color), t)
	}
	c[3] = alpha
	return c
}

// PaletteValue returns the data value sampled by palette entry i.
func (s *ColorScale) PaletteValue(i int) float64 {
	lo, hi := s.Bounds()
	return lo + (hi-lo)*float64(i)/(PaletteSize-1)
}

// Palette returns the scale sampled at PaletteSize evenly spaced values
// across Bounds, fully opaque.
func (s *ColorScale) Palette() [PaletteSize][4]uint8 {
	var p [PaletteSize][4]uint8
	for i := range p {
		p[i] = s.Gradient(s.PaletteValue(i), 255)
	}
	return p
}

func opaque(c [3]uint8) [4]uint8 {
	return [4]uint8{c[0], c[1], c[2], 255}
}
