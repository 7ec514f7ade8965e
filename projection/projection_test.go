// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package projection

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r2"
)

func lonDiff(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func TestParseFamily(t *testing.T) {
	for _, f := range Families() {
		got, err := ParseFamily(f.String())
		if err != nil {
			t.Fatalf("ParseFamily(%q): %v", f.String(), err)
		}
		if got != f {
			t.Errorf("ParseFamily(%q) = %v, want %v", f.String(), got, f)
		}
	}

	aliases := map[string]Family{
		"Orthographic":          Orthographic,
		"azimuthal-equidistant": AzimuthalEquidistant,
		"winkel tripel":         WinkelTripel,
		"conic":                 ConicEquidistant,
	}
	for in, want := range aliases {
		got, err := ParseFamily(in)
		if err != nil || got != want {
			t.Errorf("ParseFamily(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	if _, err := ParseFamily("mercator"); !errors.Is(err, ErrUnknownFamily) {
		t.Errorf("ParseFamily(mercator) err = %v, want ErrUnknownFamily", err)
	}
}

func TestGPUSupported(t *testing.T) {
	tests := []struct {
		f    Family
		want bool
	}{
		{Orthographic, true},
		{Stereographic, true},
		{AzimuthalEquidistant, true},
		{Equirectangular, true},
		{ConicEquidistant, false},
		{WinkelTripel, false},
	}
	for _, tt := range tests {
		if got := tt.f.GPUSupported(); got != tt.want {
			t.Errorf("%v.GPUSupported() = %v, want %v", tt.f, got, tt.want)
		}
	}
	if Family(42).Valid() {
		t.Error("Family(42) should be invalid")
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		family Family
		rotate [3]float64
		maxLon float64
		maxLat float64
	}{
		{"orthographic", Orthographic, [3]float64{-30, 10, 0}, 180, 89},
		{"orthographic/gamma", Orthographic, [3]float64{40, -25, 15}, 180, 89},
		{"orthographic/over-pole", Orthographic, [3]float64{10, 110, 0}, 180, 89},
		{"stereographic", Stereographic, [3]float64{-30, 10, 0}, 180, 89},
		{"azimuthal_equidistant", AzimuthalEquidistant, [3]float64{120, -45, 0}, 180, 89},
		{"equirectangular", Equirectangular, [3]float64{0, 0, 0}, 179, 89},
		{"equirectangular/rotated", Equirectangular, [3]float64{-30, 0, 0}, 179, 89},
		{"conic_equidistant", ConicEquidistant, [3]float64{0, 0, 0}, 170, 80},
		{"winkel3", WinkelTripel, [3]float64{0, 0, 0}, 170, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.family)
			p.SetRotate(tt.rotate)
			p.SetScale(200)
			p.SetTranslate(r2.Point{X: 400, Y: 300})

			checked := 0
			for lat := -tt.maxLat; lat <= tt.maxLat; lat += 7 {
				for lon := -tt.maxLon; lon <= tt.maxLon; lon += 11 {
					pt, ok := p.Forward(lon, lat)
					if !ok {
						continue
					}
					gotLon, gotLat, ok := p.Invert(pt.X, pt.Y)
					if !ok {
						t.Fatalf("Invert(Forward(%v,%v)) not ok", lon, lat)
					}
					if lonDiff(gotLon, lon) > 0.1 && math.Abs(lat) < 89 || math.Abs(gotLat-lat) > 0.1 {
						t.Fatalf("round trip (%v,%v) -> (%v,%v)", lon, lat, gotLon, gotLat)
					}
					checked++
				}
			}
			if checked == 0 {
				t.Fatal("no visible sample points")
			}
		})
	}
}

func TestFoldOrthographic(t *testing.T) {
	tests := []struct {
		rotate [3]float64
		want   Folded
	}{
		{[3]float64{-30, 10, 0}, Folded{Lambda0: -30, Phi0: 10, Flip: 1}},
		{[3]float64{-5, 95, 0}, Folded{Lambda0: 175, Phi0: 85, Flip: -1}},
		{[3]float64{0, -95, 7}, Folded{Lambda0: 180, Phi0: -85, Gamma: 7, Flip: -1}},
		{[3]float64{20, 450, 0}, Folded{Lambda0: 20, Phi0: 90, Flip: 1}},
	}
	for _, tt := range tests {
		got := FoldOrthographic(tt.rotate)
		if math.Abs(got.Lambda0-tt.want.Lambda0) > 1e-9 ||
			math.Abs(got.Phi0-tt.want.Phi0) > 1e-9 ||
			got.Gamma != tt.want.Gamma || got.Flip != tt.want.Flip {
			t.Errorf("FoldOrthographic(%v) = %+v, want %+v", tt.rotate, got, tt.want)
		}
	}
}

// TestFoldedMatchesRotation checks the folded closed-form inverse against
// the general rotation composed with the raw orthographic inverse.
func TestFoldedMatchesRotation(t *testing.T) {
	rotations := [][3]float64{
		{0, 0, 0},
		{-30, 10, 0},
		{-5, 95, 0},
		{60, -130, 20},
		{200, 270, -35},
		{15, 45, 90},
	}
	for _, r := range rotations {
		fold := FoldOrthographic(r)
		rot := newRotation(r)
		for y := -0.95; y <= 0.95; y += 0.1 {
			for x := -0.95; x <= 0.95; x += 0.1 {
				lon, lat, ok := fold.Invert(x, y)
				lambda, phi, rawOK := orthographicRaw{}.invert(x, y)
				if ok != rawOK {
					t.Fatalf("rotation %v (%v,%v): ok mismatch %v vs %v", r, x, y, ok, rawOK)
				}
				if !ok {
					continue
				}
				lambda, phi = rot.invert(lambda, phi)
				wantLon, wantLat := lambda*degrees, phi*degrees
				if math.Abs(lat-wantLat) > 1e-6 || (math.Abs(lat) < 89.99 && lonDiff(lon, wantLon) > 1e-6) {
					t.Fatalf("rotation %v (%v,%v): folded (%v,%v), rotated (%v,%v)",
						r, x, y, lon, lat, wantLon, wantLat)
				}
			}
		}
	}
}

func TestInvertOutsideDomain(t *testing.T) {
	tests := []struct {
		family Family
		x, y   float64
	}{
		{Orthographic, 400 + 101, 300},
		{Orthographic, 400, 300 - 101},
		{AzimuthalEquidistant, 400 + 100*3.2, 300},
		{Equirectangular, 400 + 100*3.2, 300},
		{Equirectangular, 400, 300 + 100*1.6},
		{WinkelTripel, 400 + 100*2.7, 300},
	}
	for _, tt := range tests {
		p := New(tt.family)
		p.SetScale(100)
		p.SetTranslate(r2.Point{X: 400, Y: 300})
		if lon, lat, ok := p.Invert(tt.x, tt.y); ok {
			t.Errorf("%v.Invert(%v,%v) = (%v,%v), want not ok", tt.family, tt.x, tt.y, lon, lat)
		}
	}
}

func TestForwardClip(t *testing.T) {
	p := New(Orthographic)
	p.SetRotate([3]float64{-30, 10, 0})
	if _, ok := p.Forward(30, -10); !ok {
		t.Error("center point should be visible")
	}
	if _, ok := p.Forward(-150, 10); ok {
		t.Error("antipode should be clipped")
	}
}

func TestCenterInvert(t *testing.T) {
	p := New(Orthographic)
	p.SetRotate([3]float64{-30, 10, 0})
	p.SetScale(300)
	p.SetTranslate(r2.Point{X: 400, Y: 300})
	lon, lat, ok := p.Invert(400, 300)
	if !ok || math.Abs(lon-30) > 1e-9 || math.Abs(lat+10) > 1e-9 {
		t.Errorf("Invert(center) = (%v,%v,%v), want (30,-10,true)", lon, lat, ok)
	}
}

func TestExtent(t *testing.T) {
	p := New(Orthographic)
	p.SetScale(100)
	p.SetTranslate(r2.Point{X: 400, Y: 300})
	e := p.Extent()
	if math.Abs(e.X.Lo-300) > 1e-6 || math.Abs(e.X.Hi-500) > 1e-6 ||
		math.Abs(e.Y.Lo-200) > 1e-3 || math.Abs(e.Y.Hi-400) > 1e-3 {
		t.Errorf("Extent = %v, want [300,500]x[200,400]", e)
	}

	eq := New(Equirectangular).UnitExtent()
	if math.Abs(eq.X.Hi-math.Pi) > 1e-9 || math.Abs(eq.Y.Hi-math.Pi/2) > 1e-9 {
		t.Errorf("equirectangular UnitExtent = %v", eq)
	}

	s := New(Stereographic)
	if got := s.FitExtent().X.Hi; math.Abs(got-2) > 1e-9 {
		t.Errorf("stereographic FitExtent half-width = %v, want 2", got)
	}
}

func TestPrecision(t *testing.T) {
	p := New(Orthographic)
	if p.Precision() != DefaultPrecision {
		t.Fatalf("Precision = %v", p.Precision())
	}
	coarse := len(p.Outline())
	p.SetPrecision(1)
	if got := len(p.Outline()); got >= coarse {
		t.Errorf("outline at 1° has %d points, at 0.1° %d", got, coarse)
	}
	p.SetPrecision(0)
	if p.Precision() != DefaultPrecision {
		t.Errorf("SetPrecision(0) = %v, want default", p.Precision())
	}
}

func TestCloneIndependent(t *testing.T) {
	p := New(Orthographic)
	c := p.Clone()
	c.SetRotate([3]float64{10, 20, 30})
	c.SetScale(999)
	if p.Rotate() != [3]float64{} || p.Scale() != DefaultScale {
		t.Error("Clone shares state with original")
	}
}
