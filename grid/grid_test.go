// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package grid

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// globalHeader is a 1° global lattice starting at (0, 90).
func globalHeader() Header {
	return Header{Lo1: 0, La1: 90, Dx: 1, Dy: 1, Nx: 360, Ny: 181}
}

func smooth(h Header) []float64 {
	values := make([]float64, h.RecordLen())
	for j := 0; j < h.Ny; j++ {
		for i := 0; i < h.Nx; i++ {
			lon := h.Lo1 + float64(i)*h.Dx
			lat := h.La1 - float64(j)*h.Dy
			values[j*h.Nx+i] = 10*math.Cos(lat*math.Pi/180)*math.Sin(lon*math.Pi/180) + lat/9
		}
	}
	return values
}

func mustBuild(t *testing.T, h Header, values []float64) *Grid {
	t.Helper()
	g, err := Build(h, Floats(values))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestBuildWrapColumn(t *testing.T) {
	h := globalHeader()
	g := mustBuild(t, h, smooth(h))
	if !g.Continuous() || g.Columns() != 361 {
		t.Fatalf("global grid: continuous=%v columns=%d, want true 361", g.Continuous(), g.Columns())
	}
	for j := 0; j < g.Rows(); j++ {
		a, _ := g.Raw(0, j)
		b, _ := g.Raw(360, j)
		if a != b {
			t.Fatalf("row %d: wrap column %v != column 0 %v", j, b, a)
		}
	}

	regional := Header{Lo1: -10, La1: 60, Dx: 0.5, Dy: 0.5, Nx: 100, Ny: 50}
	r := mustBuild(t, regional, smooth(regional))
	if r.Continuous() || r.Columns() != 100 {
		t.Errorf("regional grid: continuous=%v columns=%d", r.Continuous(), r.Columns())
	}
}

func TestBuildInvalid(t *testing.T) {
	bad := []Header{
		{Dx: 1, Dy: 1, Nx: 0, Ny: 10},
		{Dx: 0, Dy: 1, Nx: 10, Ny: 10},
		{Dx: 1, Dy: -1, Nx: 10, Ny: 10},
		{Dx: 1, Dy: 1, Nx: 10, Ny: 10, Lo1: math.NaN()},
	}
	for _, h := range bad {
		if _, err := Build(h, Floats(nil)); !errors.Is(err, ErrInvalidHeader) {
			t.Errorf("Build(%+v) err = %v, want ErrInvalidHeader", h, err)
		}
	}
}

func TestInterpolateLattice(t *testing.T) {
	h := globalHeader()
	values := smooth(h)
	g := mustBuild(t, h, values)

	for _, pt := range [][2]int{{0, 0}, {10, 45}, {359, 90}, {180, 180}} {
		i, j := pt[0], pt[1]
		lon := h.Lo1 + float64(i)*h.Dx
		lat := h.La1 - float64(j)*h.Dy
		s, ok := g.Interpolate(lon, lat)
		if !ok {
			t.Fatalf("Interpolate(%v,%v) not ok", lon, lat)
		}
		want := float64(float32(values[j*h.Nx+i]))
		if math.Abs(s.Value-want) > 1e-9 {
			t.Errorf("Interpolate(%v,%v) = %v, want %v", lon, lat, s.Value, want)
		}
	}
}

func TestInterpolateBilinear(t *testing.T) {
	h := Header{Lo1: 0, La1: 10, Dx: 10, Dy: 10, Nx: 2, Ny: 2}
	g := mustBuild(t, h, []float64{0, 10, 20, 30})
	tests := []struct {
		lon, lat, want float64
	}{
		{0, 10, 0},
		{10, 10, 10},
		{0, 0, 20},
		{10, 0, 30},
		{5, 5, 15},
		{2.5, 10, 2.5},
		{0, 7.5, 5},
	}
	for _, tt := range tests {
		s, ok := g.Interpolate(tt.lon, tt.lat)
		if !ok || math.Abs(s.Value-tt.want) > 1e-9 {
			t.Errorf("Interpolate(%v,%v) = %v,%v; want %v", tt.lon, tt.lat, s.Value, ok, tt.want)
		}
	}

	for _, pt := range [][2]float64{{11, 5}, {5, 11}, {5, -1}, {-1, 5}} {
		if s, ok := g.Interpolate(pt[0], pt[1]); ok {
			t.Errorf("Interpolate(%v) = %v, want out of range", pt, s.Value)
		}
	}
}

func TestWraparoundContinuity(t *testing.T) {
	h := globalHeader()
	g := mustBuild(t, h, smooth(h))
	rng := rand.New(rand.NewSource(1))
	for n := 0; n < 1000; n++ {
		lon := rng.Float64()*360 - 180
		lat := rng.Float64()*180 - 90
		a, okA := g.Interpolate(lon, lat)
		b, okB := g.Interpolate(lon+360, lat)
		if okA != okB {
			t.Fatalf("(%v,%v): ok %v vs %v", lon, lat, okA, okB)
		}
		if math.Abs(a.Value-b.Value) > 1e-6 {
			t.Fatalf("(%v,%v): %v vs %v at lon+360", lon, lat, a.Value, b.Value)
		}
	}

	// Between the last column and the wrap column.
	s, ok := g.Interpolate(359.5, 0)
	if !ok {
		t.Fatal("Interpolate(359.5, 0) not ok across the antimeridian")
	}
	first, _ := g.At(0, 90)
	last, _ := g.At(359, 90)
	if want := (first.Value + last.Value) / 2; math.Abs(s.Value-want) > 1e-6 {
		t.Errorf("Interpolate(359.5,0) = %v, want %v", s.Value, want)
	}
}

func TestNILPropagation(t *testing.T) {
	h := Header{Lo1: 0, La1: 20, Dx: 10, Dy: 10, Nx: 3, Ny: 3}
	nan := math.NaN()
	g := mustBuild(t, h, []float64{
		1, 2, 3,
		4, nan, 6,
		7, 8, 9,
	})
	// Every cell touching the missing center is NIL, never zero-filled.
	for _, pt := range [][2]float64{{5, 15}, {15, 15}, {5, 5}, {15, 5}, {10, 10}} {
		if s, ok := g.Interpolate(pt[0], pt[1]); ok {
			t.Errorf("Interpolate(%v) = %v, want missing", pt, s.Value)
		}
	}
	if s, ok := g.Interpolate(20, 0); !ok || s.Value != 9 {
		t.Errorf("Interpolate(20,0) = %v,%v; want 9", s.Value, ok)
	}
	if _, ok := g.At(1, 1); ok {
		t.Error("At(1,1) should be missing")
	}
}

func TestVectorInterpolate(t *testing.T) {
	h := Header{Lo1: 0, La1: 10, Dx: 10, Dy: 10, Nx: 2, Ny: 2}
	g, err := BuildVector(h, Floats([]float64{3, 3, 3, 3}), Floats([]float64{4, 4, 4, -4}))
	if err != nil {
		t.Fatal(err)
	}
	s, ok := g.Interpolate(0, 10)
	if !ok || !s.Vector || s.U != 3 || s.V != 4 || s.Value != 5 {
		t.Errorf("Interpolate(0,10) = %+v,%v; want u=3 v=4 |5|", s, ok)
	}
	s, ok = g.Interpolate(5, 5)
	if !ok || math.Abs(s.V-2) > 1e-9 || math.Abs(s.Value-math.Hypot(3, 2)) > 1e-9 {
		t.Errorf("Interpolate(5,5) = %+v,%v", s, ok)
	}
}

func TestForEachPoint(t *testing.T) {
	h := Header{Lo1: 0, La1: 90, Dx: 90, Dy: 90, Nx: 4, Ny: 3}
	g := mustBuild(t, h, []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})
	var lons []float64
	count := 0
	g.ForEachPoint(func(lon, lat float64, s Sample, ok bool) {
		if !ok {
			t.Fatalf("(%v,%v) missing", lon, lat)
		}
		if count < 4 {
			lons = append(lons, lon)
		}
		count++
	})
	if count != 12 {
		t.Fatalf("visited %d points, want 12 (wrap column excluded)", count)
	}
	want := []float64{0, 90, -180, -90}
	for i := range want {
		if lons[i] != want[i] {
			t.Errorf("lon[%d] = %v, want %v", i, lons[i], want[i])
		}
	}
}

func TestDeterministic(t *testing.T) {
	h := globalHeader()
	g := mustBuild(t, h, smooth(h))
	a, _ := g.Interpolate(12.345, -67.89)
	for i := 0; i < 10; i++ {
		b, _ := g.Interpolate(12.345, -67.89)
		if a != b {
			t.Fatalf("Interpolate not deterministic: %v vs %v", a, b)
		}
	}
}

func TestRange(t *testing.T) {
	h := Header{Lo1: 0, La1: 10, Dx: 10, Dy: 10, Nx: 2, Ny: 2}
	g := mustBuild(t, h, []float64{-3, math.NaN(), 7, 2})
	lo, hi, ok := g.Range()
	if !ok || lo != -3 || hi != 7 {
		t.Errorf("Range = %v,%v,%v; want -3,7,true", lo, hi, ok)
	}
}
