// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package earth

import (
	"github.com/golang/geo/r2"
)

// gesturePrecision multiplies the projection precision while a gesture is
// in progress so the outline is cheap to recompute on every move.
const gesturePrecision = 10

// Manipulator translates a drag or zoom gesture into rotation and scale
// updates on its globe. It is created at gesture start and ended once.
type Manipulator struct {
	globe       *Globe
	start       r2.Point
	sensitivity float64
	rotation    [2]float64 // starting rotation in sensitivity units
	precision   float64
	zooming     bool
	ended       bool
}

// Manipulator starts a gesture at screen point start. startScale is the
// scale when the gesture began; drag sensitivity is inversely proportional
// to it so a pixel of movement covers the same screen arc at any zoom.
func (g *Globe) Manipulator(start r2.Point, startScale float64) *Manipulator {
	if startScale <= 0 {
		startScale = g.proj.Scale()
	}
	sens := 60 / startScale
	r := g.proj.Rotate()
	m := &Manipulator{
		globe:       g,
		start:       start,
		sensitivity: sens,
		rotation:    [2]float64{r[0] / sens, -r[1] / sens},
		precision:   g.proj.Precision(),
	}
	g.proj.SetPrecision(m.precision * gesturePrecision)
	return m
}

// Move applies one gesture step. A nil mouse is a pure zoom: only the
// scale changes. The scale is clamped to the globe's extent and
// even-rounded.
func (m *Manipulator) Move(mouse *r2.Point, scale float64) {
	p := m.globe.proj
	if mouse != nil {
		xd := mouse.X - m.start.X + m.rotation[0]
		yd := mouse.Y - m.start.Y + m.rotation[1]
		gamma := p.Rotate()[2]
		p.SetRotate([3]float64{xd * m.sensitivity, -yd * m.sensitivity, gamma})
	} else {
		m.zooming = true
	}
	p.SetScale(m.globe.normalizeScale(scale))
}

// Zooming reports whether any step of the gesture was a pure zoom.
func (m *Manipulator) Zooming() bool { return m.zooming }

// End finishes the gesture and restores the projection precision.
// Calling End more than once has no effect.
func (m *Manipulator) End() {
	if m.ended {
		return
	}
	m.ended = true
	m.globe.proj.SetPrecision(m.precision)
}
