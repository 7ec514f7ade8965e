// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gogpu/earth/projection"
)

// Scale extent shared by all families.
const (
	MinScale = 25
	MaxScale = 3000
)

// fitMargin leaves a margin around the fitted silhouette.
const fitMargin = 0.9

// boundsSlack absorbs rounding noise in the sampled outline.
const boundsSlack = 1e-6

// Globe owns one projection plus the state derived from it: clamped
// bounds, the orientation codec and the drag/zoom manipulator.
//
// A Globe is mutated in place during a gesture and is not safe for
// concurrent use. Renderers receive snapshots taken with Clone.
type Globe struct {
	proj *projection.Projection
}

// NewGlobe returns a globe of family f with the family's default
// projection state.
func NewGlobe(f projection.Family) *Globe {
	return &Globe{proj: projection.New(f)}
}

// Family returns the projection family.
func (g *Globe) Family() projection.Family { return g.proj.Family() }

// Projection returns the live projection. Callers may read it freely and
// mutate it only from the goroutine that owns the globe.
func (g *Globe) Projection() *projection.Projection { return g.proj }

// Clone returns a snapshot that shares no state with g.
func (g *Globe) Clone() *Globe {
	return &Globe{proj: g.proj.Clone()}
}

// ScaleExtent returns the range of scales a gesture or orientation may set.
func (g *Globe) ScaleExtent() (lo, hi float64) { return MinScale, MaxScale }

// NewProjection returns a projection of the globe's family with the
// default rotation and precision, centered in view at the fitted scale.
func (g *Globe) NewProjection(view View) *projection.Projection {
	p := projection.New(g.Family())
	p.SetTranslate(view.Center())
	p.SetScale(g.Fit(view))
	return p
}

// Fit returns the largest even scale at which the silhouette fits inside
// view with a small margin.
func (g *Globe) Fit(view View) float64 {
	e := projection.New(g.Family()).FitExtent()
	k := fitMargin * math.Min(float64(view.Width)/e.X.Length(), float64(view.Height)/e.Y.Length())
	return evenRound(k)
}

// ProjectedSize returns the silhouette's width and height in pixels at the
// current scale, each rounded to the nearest even integer.
func (g *Globe) ProjectedSize() (w, h int) {
	e := g.proj.UnitExtent()
	k := g.proj.Scale()
	return int(evenRound(e.X.Length() * k)), int(evenRound(e.Y.Length() * k))
}

// Bounds returns the silhouette's bounding box clamped to view. Both
// engines confine their work to it.
func (g *Globe) Bounds(view View) Bounds {
	e := g.proj.Extent()
	c := e.Center()
	w, h := g.ProjectedSize()
	x0, x1 := c.X-float64(w)/2, c.X+float64(w)/2
	y0, y1 := c.Y-float64(h)/2, c.Y+float64(h)/2

	b := Bounds{
		X:    clampInt(int(math.Floor(x0+boundsSlack)), 0, view.Width),
		Y:    clampInt(int(math.Floor(y0+boundsSlack)), 0, view.Height),
		XMax: clampInt(int(math.Ceil(x1-boundsSlack)), -1, view.Width-1),
		YMax: clampInt(int(math.Ceil(y1-boundsSlack)), -1, view.Height-1),
	}
	b.Width = max(b.XMax-b.X+1, 0)
	b.Height = max(b.YMax-b.Y+1, 0)
	return b
}

// Orientation returns the persisted form "lon,lat,scale" of the current
// view: the negated rotation with two decimals and the rounded scale.
func (g *Globe) Orientation() string {
	r := g.proj.Rotate()
	return fmt.Sprintf("%.2f,%.2f,%d", fixed2(-r[0]), fixed2(-r[1]), int(math.Round(g.proj.Scale())))
}

// SetOrientation restores a view from its "lon,lat,scale" form. Missing or
// non-numeric angles fall back to the default rotation and a missing or
// non-numeric scale falls back to Fit. The scale is clamped to
// ScaleExtent and even-rounded; translate is re-centered in view. The
// screen rotation γ0 is preserved.
func (g *Globe) SetOrientation(s string, view View) {
	lon, lat, scale := math.NaN(), math.NaN(), math.NaN()
	if parts := strings.Split(s, ","); len(parts) >= 2 {
		lon, lat = parseFinite(parts[0]), parseFinite(parts[1])
		if len(parts) >= 3 {
			scale = parseFinite(parts[2])
		}
	}

	gamma := g.proj.Rotate()[2]
	if !math.IsNaN(lon) && !math.IsNaN(lat) {
		g.proj.SetRotate([3]float64{-lon, -lat, gamma})
	} else {
		g.proj.SetRotate(g.NewProjection(view).Rotate())
	}
	if math.IsNaN(scale) {
		scale = g.Fit(view)
	}
	g.proj.SetScale(g.normalizeScale(scale))
	g.proj.SetTranslate(view.Center())
}

// normalizeScale clamps k to the scale extent and rounds it to even.
func (g *Globe) normalizeScale(k float64) float64 {
	lo, hi := g.ScaleExtent()
	return evenRound(math.Max(lo, math.Min(hi, k)))
}

func parseFinite(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// fixed2 rounds to two decimals and clears negative zero.
func fixed2(x float64) float64 {
	return math.Round(x*100)/100 + 0
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
