// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"errors"
	"math"
	"runtime"
	"testing"
	"time"

	"github.com/gogpu/earth/grid"
	"github.com/gogpu/earth/projection"
)

// fieldGrid builds a 1° global scalar grid from fn(lon, lat). NaN marks
// missing cells.
func fieldGrid(t *testing.T, fn func(lon, lat float64) float64) *grid.Grid {
	t.Helper()
	h := grid.Header{Lo1: 0, La1: 90, Dx: 1, Dy: 1, Nx: 360, Ny: 181}
	values := make([]float64, h.RecordLen())
	for j := 0; j < h.Ny; j++ {
		for i := 0; i < h.Nx; i++ {
			values[j*h.Nx+i] = fn(float64(i), 90-float64(j))
		}
	}
	g, err := grid.Build(h, grid.Floats(values))
	if err != nil {
		t.Fatalf("grid.Build: %v", err)
	}
	return g
}

func constantGrid(t *testing.T, v float64) *grid.Grid {
	t.Helper()
	return fieldGrid(t, func(lon, lat float64) float64 { return v })
}

// grayScale maps [0, 255] to gray levels one to one.
func grayScale(t *testing.T) *ColorScale {
	t.Helper()
	s, err := NewColorScale("gray",
		ColorStop{0, [3]uint8{0, 0, 0}},
		ColorStop{255, [3]uint8{255, 255, 255}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func centeredGlobe(f projection.Family, view View) *Globe {
	g := NewGlobe(f)
	g.SetOrientation("0,0", view)
	return g
}

func TestSoftwareEngineRender(t *testing.T) {
	view := View{Width: 200, Height: 160}
	globe := centeredGlobe(projection.Orthographic, view)
	mask := globe.NewMask(view, DefaultMaskBorder)

	e := NewSoftwareEngine()
	defer e.Close()
	if err := e.Setup(globe.Family(), &Overlay{Grid: constantGrid(t, 100), Scale: grayScale(t)}); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	frame, err := e.Render(globe, mask, view)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := frame.Pixel(100, 80); got != [4]uint8{100, 100, 100, 255} {
		t.Errorf("center pixel = %v, want [100 100 100 255]", got)
	}
	if got := frame.Pixel(0, 0); got != [4]uint8{} {
		t.Errorf("corner pixel = %v, want transparent", got)
	}
	for y := 0; y < view.Height; y++ {
		for x := 0; x < view.Width; x++ {
			if frame.Pixel(x, y)[3] != 0 && !mask.IsVisible(x, y) {
				t.Fatalf("pixel (%d, %d) painted outside mask", x, y)
			}
		}
	}
}

func TestSoftwareEngineStartsNoGoroutines(t *testing.T) {
	view := View{Width: 120, Height: 90}
	globe := centeredGlobe(projection.Orthographic, view)
	before := runtime.NumGoroutine()

	e := NewSoftwareEngine()
	defer e.Close()
	if err := e.Setup(globe.Family(), &Overlay{Grid: constantGrid(t, 7), Scale: grayScale(t)}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Render(globe, nil, view); err != nil {
		t.Fatal(err)
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("goroutines = %d after Setup and Render, want at most %d", after, before)
	}
}

func TestSoftwareEngineAlpha(t *testing.T) {
	view := View{Width: 100, Height: 100}
	globe := centeredGlobe(projection.Equirectangular, view)

	e := NewSoftwareEngine()
	defer e.Close()
	ov := &Overlay{Grid: constantGrid(t, 200), Scale: grayScale(t), Alpha: 128}
	if err := e.Setup(globe.Family(), ov); err != nil {
		t.Fatal(err)
	}
	frame, err := e.Render(globe, nil, view)
	if err != nil {
		t.Fatal(err)
	}
	// (200*128+127)/255 = 100
	if got := frame.Pixel(50, 50); got != [4]uint8{100, 100, 100, 128} {
		t.Errorf("center pixel = %v, want premultiplied [100 100 100 128]", got)
	}
}

func TestSoftwareEngineMissingData(t *testing.T) {
	view := View{Width: 200, Height: 200}
	globe := centeredGlobe(projection.Orthographic, view)

	// Data only in the eastern hemisphere in front of the viewer.
	g := fieldGrid(t, func(lon, lat float64) float64 {
		if lon > 0 && lon < 180 {
			return 50
		}
		return math.NaN()
	})
	e := NewSoftwareEngine()
	defer e.Close()
	if err := e.Setup(globe.Family(), &Overlay{Grid: g, Scale: grayScale(t)}); err != nil {
		t.Fatal(err)
	}
	frame, err := e.Render(globe, nil, view)
	if err != nil {
		t.Fatal(err)
	}
	if got := frame.Pixel(140, 100); got[3] != 255 {
		t.Errorf("east pixel = %v, want opaque", got)
	}
	if got := frame.Pixel(60, 100); got != [4]uint8{} {
		t.Errorf("west pixel over missing data = %v, want transparent", got)
	}
}

func TestSoftwareEngineTerminator(t *testing.T) {
	view := View{Width: 200, Height: 200}
	// March equinox at 12:00 UTC: the sun is near (0, 0).
	noon := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

	render := func(lon string, ov *Overlay) [4]uint8 {
		globe := NewGlobe(projection.Orthographic)
		globe.SetOrientation(lon+",0", view)
		e := NewSoftwareEngine()
		defer e.Close()
		if err := e.Setup(globe.Family(), ov); err != nil {
			t.Fatal(err)
		}
		frame, err := e.Render(globe, nil, view)
		if err != nil {
			t.Fatal(err)
		}
		return frame.Pixel(100, 100)
	}

	g := constantGrid(t, 200)
	day := render("0", &Overlay{Grid: g, Scale: grayScale(t), Terminator: noon})
	night := render("180", &Overlay{Grid: g, Scale: grayScale(t), Terminator: noon})
	plain := render("180", &Overlay{Grid: g, Scale: grayScale(t)})

	if day != plain {
		t.Errorf("day side = %v, want unshaded %v", day, plain)
	}
	if night[0] >= plain[0] || night[3] != 255 {
		t.Errorf("night side = %v, want darker than %v with alpha kept", night, plain)
	}
}

func TestSoftwareEngineErrors(t *testing.T) {
	e := NewSoftwareEngine()
	defer e.Close()
	view := View{Width: 10, Height: 10}
	if _, err := e.Render(NewGlobe(projection.Orthographic), nil, view); !errors.Is(err, ErrNotSetup) {
		t.Errorf("Render before Setup error = %v, want ErrNotSetup", err)
	}
	if err := e.Setup(projection.Orthographic, &Overlay{}); !errors.Is(err, ErrInvalidOverlay) {
		t.Errorf("Setup(empty overlay) error = %v, want ErrInvalidOverlay", err)
	}
	if err := e.Setup(projection.Orthographic, nil); !errors.Is(err, ErrInvalidOverlay) {
		t.Errorf("Setup(nil) error = %v, want ErrInvalidOverlay", err)
	}
	if err := e.Setup(projection.Family(200), &Overlay{Grid: constantGrid(t, 1), Scale: grayScale(t)}); !errors.Is(err, ErrUnsupportedProjection) {
		t.Errorf("Setup(invalid family) error = %v, want ErrUnsupportedProjection", err)
	}
}

func TestSoftwareEngineAllFamilies(t *testing.T) {
	view := View{Width: 120, Height: 90}
	g := constantGrid(t, 10)
	for _, f := range projection.Families() {
		t.Run(f.String(), func(t *testing.T) {
			globe := centeredGlobe(f, view)
			e := NewSoftwareEngine()
			defer e.Close()
			if err := e.Setup(f, &Overlay{Grid: g, Scale: grayScale(t)}); err != nil {
				t.Fatal(err)
			}
			frame, err := e.Render(globe, globe.NewMask(view, DefaultMaskBorder), view)
			if err != nil {
				t.Fatal(err)
			}
			if got := frame.Pixel(60, 45); got[3] != 255 {
				t.Errorf("center pixel = %v, want opaque", got)
			}
		})
	}
}
