// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package tui is a terminal globe viewer. Each cell shows two pixels of
// the frame with a half block; dragging with the mouse rotates the globe
// and the wheel zooms.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/gogpu/earth"
	"github.com/gogpu/earth/internal/session"
	"github.com/gogpu/earth/projection"
)

// Rows taken by the header and the footer.
const (
	headerHeight = 1
	footerHeight = 1
)

// zoomStep is the scale factor of one wheel notch or key press.
const zoomStep = 1.25

// frameMsg carries a rendered frame from the throttle goroutine.
type frameMsg struct {
	frame *earth.Frame
	err   error
}

// Model is the bubbletea model of the viewer.
type Model struct {
	session  *session.Session
	throttle *earth.Throttle
	frames   chan frameMsg

	width  int
	height int

	frame    *earth.Frame
	dragging bool
	status   string
	err      error
}

// New returns a viewer of s. Redraws are paced by a throttle at the
// default frame interval.
func New(s *session.Session) Model {
	frames := make(chan frameMsg, 1)
	return Model{
		session:  s,
		throttle: earth.NewThrottle(earth.DefaultFrameInterval, func() { render(s, frames) }),
		frames:   frames,
		status:   "drag to rotate, wheel or +/- to zoom, p projection, r reset, q quit",
	}
}

// Init waits for the first frame.
func (m Model) Init() tea.Cmd {
	m.throttle.Trigger()
	return waitForFrame(m.frames)
}

// Close stops the redraw throttle.
func (m Model) Close() {
	m.throttle.Stop()
}

// render draws one frame and hands a private copy to the UI, replacing a
// frame the UI has not picked up yet.
func render(s *session.Session, out chan frameMsg) {
	f, err := s.Render()
	msg := frameMsg{err: err}
	if f != nil {
		msg.frame = earth.NewFrame(f.Width(), f.Height())
		if cerr := msg.frame.CopyFrom(f); cerr != nil {
			msg.frame, msg.err = nil, cerr
		}
	}
	for {
		select {
		case out <- msg:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

func waitForFrame(frames <-chan frameMsg) tea.Cmd {
	return func() tea.Msg { return <-frames }
}

// mapView returns the view that fills the map area of a w×h terminal.
func mapView(w, h int) earth.View {
	return earth.View{Width: max(w, 1), Height: 2 * max(h-headerHeight-footerHeight, 1)}
}

// nextFamily cycles through the projection families.
func nextFamily(name string) projection.Family {
	families := projection.Families()
	for i, f := range families {
		if f.String() == name {
			return families[(i+1)%len(families)]
		}
	}
	return families[0]
}
