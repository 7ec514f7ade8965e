// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.apply(m.session.Resize(mapView(m.width, m.height)))
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.Close()
			return m, tea.Quit
		case "+", "=":
			m.apply(m.session.Zoom(zoomStep))
		case "-", "_":
			m.apply(m.session.Zoom(1 / zoomStep))
		case "p":
			f := nextFamily(m.session.Status().Projection)
			if m.apply(m.session.SetProjection(f)) {
				m.status = fmt.Sprintf("projection: %s", f)
			}
		case "r":
			if m.apply(m.session.SetOrientation("")) {
				m.status = "orientation reset"
			}
		}
	case tea.MouseMsg:
		// Pixel rows are twice as dense as cell rows.
		x, y := float64(msg.X), float64(2*(msg.Y-headerHeight))
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.apply(m.session.Zoom(zoomStep))
		case msg.Button == tea.MouseButtonWheelDown:
			m.apply(m.session.Zoom(1 / zoomStep))
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			m.dragging = true
			m.session.BeginDrag(x, y)
		case msg.Action == tea.MouseActionMotion && m.dragging:
			m.apply(m.session.Drag(x, y))
		case msg.Action == tea.MouseActionRelease && m.dragging:
			m.dragging = false
			m.apply(m.session.EndDrag())
		default:
			return m, nil
		}
	case frameMsg:
		if msg.frame != nil {
			m.frame = msg.frame
		}
		m.err = msg.err
		return m, waitForFrame(m.frames)
	}
	return m, nil
}

// apply records the outcome of a session change and schedules a redraw
// when it succeeded.
func (m *Model) apply(err error) bool {
	if err != nil {
		m.err = err
		return false
	}
	m.err = nil
	m.throttle.Trigger()
	return true
}
