// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/gogpu/earth"
	"github.com/gogpu/earth/grid"
	"github.com/gogpu/earth/projection"
)

// shaderMirror evaluates shaders/field.wgsl on the host in float32. It
// reads the same uniform block and storage words the engine uploads, so
// it checks the host packing as well as the shader arithmetic.
type shaderMirror struct {
	p       fieldParams
	field   []uint32
	palette []uint32
}

func newShaderMirror(p fieldParams, field, palette []byte) *shaderMirror {
	return &shaderMirror{p: p, field: words(field), palette: words(palette)}
}

func words(b []byte) []uint32 {
	out := make([]uint32, len(b)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return out
}

func sin32(x float32) float32      { return float32(math.Sin(float64(x))) }
func cos32(x float32) float32      { return float32(math.Cos(float64(x))) }
func asin32(x float32) float32     { return float32(math.Asin(float64(x))) }
func acos32(x float32) float32     { return float32(math.Acos(float64(x))) }
func atan32(x float32) float32     { return float32(math.Atan(float64(x))) }
func atan232(y, x float32) float32 { return float32(math.Atan2(float64(y), float64(x))) }
func sqrt32(x float32) float32     { return float32(math.Sqrt(float64(x))) }
func floor32(x float32) float32    { return float32(math.Floor(float64(x))) }
func pow32(x, y float32) float32   { return float32(math.Pow(float64(x), float64(y))) }
func fract32(x float32) float32    { return x - floor32(x) }

func clamp32(x, lo, hi float32) float32 {
	return float32(math.Max(float64(lo), math.Min(float64(hi), float64(x))))
}

const (
	pi32      float32 = math.Pi
	degrees32 float32 = 180 / math.Pi
	radians32 float32 = math.Pi / 180
)

func wrapLon32(lon float32) float32 {
	return fract32((lon+180)/360)*360 - 180
}

type geo32 struct {
	lon, lat float32
	ok       bool
}

func (m *shaderMirror) invertOrthographic(x, y float32) geo32 {
	cg, sg, flip := m.p.Gamma[0], m.p.Gamma[1], m.p.Screen[3]
	xs := (x*cg + y*sg) * flip
	ys := (y*cg - x*sg) * flip
	rho2 := xs*xs + ys*ys
	if rho2 > 1 {
		return geo32{}
	}
	cosc, sinc := m.p.Rotate[1], -m.p.Rotate[2]
	cc := sqrt32(1 - rho2)
	lat := asin32(clamp32(cc*sinc+ys*cosc, -1, 1))
	lon := -m.p.Rotate[0] + atan232(xs, cosc*cc-ys*sinc)
	return geo32{wrapLon32(lon * degrees32), lat * degrees32, true}
}

func (m *shaderMirror) invertAzimuthal(x, y, z, c float32) geo32 {
	sc, cc := sin32(c), cos32(c)
	lambda := atan232(x*sc, z*cc)
	var phi float32
	if z > 0 {
		phi = asin32(clamp32(y*sc/z, -1, 1))
	}
	return m.unrotate(lambda, phi)
}

func (m *shaderMirror) unrotate(lambda, phi float32) geo32 {
	cp := cos32(phi)
	x := cos32(lambda) * cp
	y := sin32(lambda) * cp
	z := sin32(phi)
	cosp, sinp := m.p.Rotate[1], m.p.Rotate[2]
	cg, sg := m.p.Gamma[0], m.p.Gamma[1]
	k := z*cg - y*sg
	lon := atan232(y*cg+z*sg, x*cosp+k*sinp) - m.p.Rotate[0]
	lat := asin32(clamp32(k*cosp-x*sinp, -1, 1))
	return geo32{wrapLon32(lon * degrees32), lat * degrees32, true}
}

func (m *shaderMirror) invert(x, y float32) geo32 {
	family := projection.Family(m.p.Extent[2])
	if family == projection.Orthographic {
		return m.invertOrthographic(x, y)
	}
	z := sqrt32(x*x + y*y)
	clip := m.p.Gamma[2]
	switch family {
	case projection.Stereographic:
		c := 2 * atan32(z)
		if c > clip {
			return geo32{}
		}
		return m.invertAzimuthal(x, y, z, c)
	case projection.AzimuthalEquidistant:
		if z > clip {
			return geo32{}
		}
		return m.invertAzimuthal(x, y, z, z)
	}
	if float32(math.Abs(float64(x))) > pi32 || float32(math.Abs(float64(y))) > pi32/2 {
		return geo32{}
	}
	return m.unrotate(x, y)
}

func (m *shaderMirror) texel(k uint32) (float32, bool) {
	w := m.field[k]
	a := w >> 24
	if a < 64 {
		return 0, false
	}
	v := float32(w&0xFFFFFF) / 64
	if a < 255 {
		v = -v
	}
	return v, true
}

type corner32 struct {
	u, v  float32
	valid bool
}

func (m *shaderMirror) corner(c, r uint32, inside bool) corner32 {
	if !inside {
		return corner32{}
	}
	k := r*m.p.Lattice[0] + c
	u, uok := m.texel(k)
	if m.p.Extent[3]&flagVector == 0 {
		return corner32{u: u, valid: uok}
	}
	v, vok := m.texel(m.p.Lattice[2] + k)
	return corner32{u: u, v: v, valid: uok && vok}
}

func (m *shaderMirror) magnitude(u, v float32) float32 {
	if m.p.Extent[3]&flagVector == 0 {
		return u
	}
	return sqrt32(u*u + v*v)
}

func (m *shaderMirror) sample(lon, lat float32) (float32, bool) {
	cols, rows := m.p.Lattice[0], m.p.Lattice[1]
	i := fract32((lon-m.p.Grid[0])/360) * 360 / m.p.Grid[2]
	j := (m.p.Grid[1] - lat) / m.p.Grid[3]
	if j < 0 || j > float32(rows-1) {
		return 0, false
	}
	fi, fj := floor32(i), floor32(j)
	x, y := i-fi, j-fj
	c0, r0 := uint32(fi), uint32(fj)
	if c0 >= cols {
		return 0, false
	}
	c1 := min(c0+1, cols-1)
	r1 := min(r0+1, rows-1)
	right := c0+1 < cols || x == 0

	g00 := m.corner(c0, r0, true)
	g10 := m.corner(c1, r0, right)
	g01 := m.corner(c0, r1, true)
	g11 := m.corner(c1, r1, right)
	rx, ry := 1-x, 1-y
	if g00.valid && g10.valid && g01.valid && g11.valid {
		u := g00.u*rx*ry + g10.u*x*ry + g01.u*rx*y + g11.u*x*y
		v := g00.v*rx*ry + g10.v*x*ry + g01.v*rx*y + g11.v*x*y
		return m.magnitude(u, v), true
	}
	var u, v, total float32
	for _, c := range []struct {
		g corner32
		w float32
	}{{g00, rx * ry}, {g10, x * ry}, {g01, rx * y}, {g11, x * y}} {
		if !c.g.valid {
			continue
		}
		u += c.g.u * c.w
		v += c.g.v * c.w
		total += c.w
	}
	if total <= 0 {
		return 0, false
	}
	return m.magnitude(u/total, v/total), true
}

func (m *shaderMirror) paletteColor(i uint32) [4]float32 {
	c := unpackRGBA(m.palette[i])
	return [4]float32{float32(c[0]) / 255, float32(c[1]) / 255, float32(c[2]) / 255, float32(c[3]) / 255}
}

func (m *shaderMirror) colorize(value float32) [4]float32 {
	lo, hi := m.p.Scale[0], m.p.Scale[1]
	var t float32
	if hi > lo {
		t = clamp32((value-lo)/(hi-lo), 0, 1)
	}
	p := t * 255
	fp := floor32(p)
	i0 := uint32(fp)
	i1 := min(i0+1, 255)
	a, b := m.paletteColor(i0), m.paletteColor(i1)
	var out [4]float32
	for k := range out {
		out[k] = a[k] + (b[k]-a[k])*(p-fp)
	}
	return out
}

func toLinear32(s float32) float32 {
	if s <= 0.04045 {
		return s / 12.92
	}
	return pow32((s+0.055)/1.055, 2.4)
}

func toSRGB32(l float32) float32 {
	if l <= 0.0031308 {
		return l * 12.92
	}
	return 1.055*pow32(l, 1/2.4) - 0.055
}

func (m *shaderMirror) shade(c [4]float32, lon, lat float32) [4]float32 {
	phi := lat * radians32
	dl := lon*radians32 - m.p.Sun[2]
	cosz := sin32(phi)*m.p.Sun[0] + cos32(phi)*m.p.Sun[1]*cos32(dl)
	zenith := acos32(clamp32(cosz, -1, 1))
	const night, day = 100 * radians32, 80 * radians32
	t := clamp32((zenith-night)/(day-night), 0, 1)
	f := m.p.Scale[3] + (1-m.p.Scale[3])*t*t*(3-2*t)
	if f >= 1 {
		return c
	}
	return [4]float32{
		toSRGB32(toLinear32(c[0]) * f),
		toSRGB32(toLinear32(c[1]) * f),
		toSRGB32(toLinear32(c[2]) * f),
		c[3],
	}
}

func toByte32(v float32) uint32 {
	return uint32(floor32(clamp32(v, 0, 1)*255 + 0.5))
}

func (m *shaderMirror) pixel(ix, iy uint32) uint32 {
	px := float32(m.p.View[2] + ix)
	py := float32(m.p.View[3] + iy)
	ux := (px - m.p.Screen[0]) / m.p.Screen[2]
	uy := (m.p.Screen[1] - py) / m.p.Screen[2]
	g := m.invert(ux, uy)
	if !g.ok {
		return 0
	}
	v, ok := m.sample(g.lon, g.lat)
	if !ok {
		return 0
	}
	c := m.colorize(v)
	if m.p.Extent[3]&flagShading != 0 {
		c = m.shade(c, g.lon, g.lat)
	}
	a := c[3] * m.p.Scale[2]
	return toByte32(c[0]*a) | toByte32(c[1]*a)<<8 | toByte32(c[2]*a)<<16 | toByte32(a)<<24
}

// readback returns what the pixel buffer would hold after one dispatch.
func (m *shaderMirror) readback() []byte {
	w, h := m.p.Extent[0], m.p.Extent[1]
	out := make([]byte, 0, 4*w*h)
	for y := uint32(0); y < h; y++ {
		for x := uint32(0); x < w; x++ {
			out = binary.LittleEndian.AppendUint32(out, m.pixel(x, y))
		}
	}
	return out
}

// mirrorRender renders one frame the way FieldEngine.Render does, with the
// dispatch replaced by the mirror.
func mirrorRender(globe *earth.Globe, ov *earth.Overlay, mask *earth.Mask, view earth.View) *earth.Frame {
	op := newOverlayParams(globe.Family(), ov)
	b := globe.Bounds(view)
	frame := earth.NewFrame(view.Width, view.Height)
	if b.Empty() {
		return frame
	}
	m := newShaderMirror(op.frameParams(globe.Projection(), view, b), encodeField(ov.Grid), encodePalette(ov.Scale))
	copyBounds(frame, m.readback(), b, mask)
	return frame
}

func softwareRender(t *testing.T, globe *earth.Globe, ov *earth.Overlay, mask *earth.Mask, view earth.View) *earth.Frame {
	t.Helper()
	e := earth.NewSoftwareEngine()
	t.Cleanup(e.Close)
	if err := e.Setup(globe.Family(), ov); err != nil {
		t.Fatalf("software Setup: %v", err)
	}
	frame, err := e.Render(globe, mask, view)
	if err != nil {
		t.Fatalf("software Render: %v", err)
	}
	return frame
}

// compareFrames fails when any channel differs by more than tol and
// returns the number of painted pixels.
func compareFrames(t *testing.T, got, want *earth.Frame, tol int) int {
	t.Helper()
	painted, bad := 0, 0
	for y := 0; y < want.Height(); y++ {
		for x := 0; x < want.Width(); x++ {
			g, w := got.Pixel(x, y), want.Pixel(x, y)
			if w[3] != 0 {
				painted++
			}
			for k := range g {
				if d := int(g[k]) - int(w[k]); d > tol || d < -tol {
					if bad < 5 {
						t.Errorf("pixel (%d,%d) = %v, want %v (±%d)", x, y, g, w, tol)
					}
					bad++
					break
				}
			}
		}
	}
	if bad > 0 {
		t.Errorf("%d pixels differ", bad)
	}
	return painted
}

// smoothGrid is a 1° global scalar field in [28, 228].
func smoothGrid(t *testing.T) *grid.Grid {
	t.Helper()
	return buildGrid(t, func(lon, lat float64) float64 {
		return 128 + 100*math.Sin(lat*math.Pi/180)*math.Cos(lon*math.Pi/180)
	})
}

func buildGrid(t *testing.T, fn func(lon, lat float64) float64) *grid.Grid {
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

func grayScale(t *testing.T) *earth.ColorScale {
	t.Helper()
	s, err := earth.NewColorScale("gray",
		earth.ColorStop{Value: 0, Color: [3]uint8{0, 0, 0}},
		earth.ColorStop{Value: 255, Color: [3]uint8{255, 255, 255}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMirrorMatchesSoftwareEngine(t *testing.T) {
	view := earth.View{Width: 160, Height: 120}
	tests := []struct {
		family      projection.Family
		orientation string
	}{
		{projection.Orthographic, "20.00,30.00"},
		{projection.Orthographic, "-75.00,-60.00"},
		{projection.Stereographic, "10.00,45.00"},
		{projection.AzimuthalEquidistant, "-120.00,15.00"},
		{projection.Equirectangular, "0.00,0.00"},
	}
	ov := &earth.Overlay{Grid: smoothGrid(t), Scale: grayScale(t)}
	for _, tt := range tests {
		t.Run(tt.family.String()+"/"+tt.orientation, func(t *testing.T) {
			globe := earth.NewGlobe(tt.family)
			globe.SetOrientation(tt.orientation, view)
			mask := globe.NewMask(view, earth.DefaultMaskBorder)

			want := softwareRender(t, globe, ov, mask, view)
			got := mirrorRender(globe, ov, mask, view)
			if painted := compareFrames(t, got, want, 2); painted == 0 {
				t.Error("software frame is empty")
			}
		})
	}
}

func TestMirrorMatchesSoftwareEngineAcrossPole(t *testing.T) {
	view := earth.View{Width: 120, Height: 120}
	globe := earth.NewGlobe(projection.Orthographic)
	globe.SetOrientation("0,0", view)
	p := globe.Projection()
	r := p.Rotate()
	r[1] = 120 // past the north pole, folds with a flip
	p.SetRotate(r)
	if p.Folded().Flip != -1 {
		t.Fatalf("rotation %v does not fold", r)
	}
	mask := globe.NewMask(view, earth.DefaultMaskBorder)
	ov := &earth.Overlay{Grid: smoothGrid(t), Scale: grayScale(t)}

	want := softwareRender(t, globe, ov, mask, view)
	got := mirrorRender(globe, ov, mask, view)
	compareFrames(t, got, want, 2)
}

func TestMirrorMatchesSoftwareEngineVector(t *testing.T) {
	view := earth.View{Width: 120, Height: 100}
	h := grid.Header{Lo1: 0, La1: 90, Dx: 2.5, Dy: 2.5, Nx: 144, Ny: 73}
	u := make([]float64, h.RecordLen())
	v := make([]float64, h.RecordLen())
	for j := 0; j < h.Ny; j++ {
		for i := 0; i < h.Nx; i++ {
			lon, lat := float64(i)*h.Dx, 90-float64(j)*h.Dy
			u[j*h.Nx+i] = 20 * math.Cos(lat*math.Pi/180)
			v[j*h.Nx+i] = -10 * math.Sin(lon*math.Pi/90)
		}
	}
	g, err := grid.BuildVector(h, grid.Floats(u), grid.Floats(v))
	if err != nil {
		t.Fatal(err)
	}
	scale, err := earth.NewColorScale("speed",
		earth.ColorStop{Value: 0, Color: [3]uint8{0, 0, 64}},
		earth.ColorStop{Value: 25, Color: [3]uint8{240, 200, 40}},
	)
	if err != nil {
		t.Fatal(err)
	}
	ov := &earth.Overlay{Grid: g, Scale: scale, Alpha: 200}

	globe := earth.NewGlobe(projection.Orthographic)
	globe.SetOrientation("40,-20", view)
	mask := globe.NewMask(view, earth.DefaultMaskBorder)

	want := softwareRender(t, globe, ov, mask, view)
	got := mirrorRender(globe, ov, mask, view)
	compareFrames(t, got, want, 2)
}

func TestMirrorMatchesSoftwareEngineTerminator(t *testing.T) {
	view := earth.View{Width: 140, Height: 140}
	ov := &earth.Overlay{
		Grid:       smoothGrid(t),
		Scale:      grayScale(t),
		Terminator: time.Date(2024, 6, 21, 18, 0, 0, 0, time.UTC),
	}
	globe := earth.NewGlobe(projection.Orthographic)
	globe.SetOrientation("-90,20", view)
	mask := globe.NewMask(view, earth.DefaultMaskBorder)

	want := softwareRender(t, globe, ov, mask, view)
	got := mirrorRender(globe, ov, mask, view)
	compareFrames(t, got, want, 3)
}

func TestMirrorMissingData(t *testing.T) {
	view := earth.View{Width: 100, Height: 100}
	// Western hemisphere missing.
	g := buildGrid(t, func(lon, lat float64) float64 {
		if lon >= 180 {
			return math.NaN()
		}
		return 100
	})
	ov := &earth.Overlay{Grid: g, Scale: grayScale(t)}
	globe := earth.NewGlobe(projection.Orthographic)
	globe.SetOrientation("0,0", view)

	frame := mirrorRender(globe, ov, nil, view)
	if got := frame.Pixel(70, 50); got != [4]uint8{100, 100, 100, 255} {
		t.Errorf("east pixel = %v, want [100 100 100 255]", got)
	}
	if got := frame.Pixel(30, 50); got != [4]uint8{} {
		t.Errorf("west pixel = %v, want transparent", got)
	}
}

func TestMirrorPartialCorners(t *testing.T) {
	// Corners around lon 0..90, lat 0..-90; (0, 0) is missing.
	nan := math.NaN()
	h := grid.Header{Lo1: 0, La1: 90, Dx: 90, Dy: 90, Nx: 4, Ny: 3}
	g, err := grid.Build(h, grid.Floats([]float64{
		1, 1, 1, 1,
		nan, 10, 1, 1,
		20, 30, 1, 1,
	}))
	if err != nil {
		t.Fatal(err)
	}
	ov := &earth.Overlay{Grid: g, Scale: grayScale(t)}
	view := earth.View{Width: 64, Height: 64}
	globe := earth.NewGlobe(projection.Equirectangular)
	globe.SetOrientation("0,0", view)
	op := newOverlayParams(globe.Family(), ov)
	m := newShaderMirror(op.frameParams(globe.Projection(), view, globe.Bounds(view)),
		encodeField(g), encodePalette(ov.Scale))

	tests := []struct {
		name     string
		lon, lat float32
		want     float32
		ok       bool
	}{
		// Weights 0.24, 0.24, 0.16 of 10, 20, 30 renormalized by 0.64.
		{"near corner missing", 36, -36, 18.75, true},
		{"far corner present only", 0, 0, 0, false},
		{"missing corner on a cell edge", 0, -45, 20, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.sample(tt.lon, tt.lat)
			if ok != tt.ok {
				t.Fatalf("sample(%v, %v) ok = %v, want %v", tt.lon, tt.lat, ok, tt.ok)
			}
			if ok && math.Abs(float64(got-tt.want)) > 1e-3 {
				t.Errorf("sample(%v, %v) = %v, want %v", tt.lon, tt.lat, got, tt.want)
			}
		})
	}
}
