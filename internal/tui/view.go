// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/gogpu/earth"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}
	st := m.session.Status()

	header := titleStyle.Render("earth") + " " + dimStyle.Render(fmt.Sprintf("%s  %s", st.Projection, st.Scale))
	header = lipgloss.NewStyle().Width(m.width).MaxHeight(headerHeight).Render(header)

	rows := m.height - headerHeight - footerHeight
	body := blankCells(m.width, rows)
	if m.frame != nil {
		body = renderCells(m.frame, m.width, rows)
	}

	var footer string
	if m.err != nil {
		footer = errStyle.Render(m.err.Error())
	} else {
		footer = dimStyle.Render(m.status)
	}
	right := dimStyle.Render(fmt.Sprintf("%s  %s", st.Orientation, st.Engine))
	footer = lipgloss.NewStyle().MaxWidth(max(m.width-lipgloss.Width(right)-1, 0)).Render(footer)
	gap := max(1, m.width-lipgloss.Width(footer)-lipgloss.Width(right))
	footer = lipgloss.NewStyle().MaxWidth(m.width).Render(footer + strings.Repeat(" ", gap) + right)

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body, footer))
}

// renderCells draws f as cols×rows cells. Cell (x, y) shows pixel (x, 2y)
// in the upper half and (x, 2y+1) in the lower half; fully transparent
// halves are left blank.
func renderCells(f *earth.Frame, cols, rows int) string {
	var b strings.Builder
	for y := range rows {
		if y > 0 {
			b.WriteByte('\n')
		}
		for x := range cols {
			top, bottom := f.Pixel(x, 2*y), f.Pixel(x, 2*y+1)
			switch {
			case top[3] == 0 && bottom[3] == 0:
				b.WriteByte(' ')
			case bottom[3] == 0:
				b.WriteString(lipgloss.NewStyle().Foreground(hexColor(top)).Render("▀"))
			case top[3] == 0:
				b.WriteString(lipgloss.NewStyle().Foreground(hexColor(bottom)).Render("▄"))
			default:
				b.WriteString(lipgloss.NewStyle().Foreground(hexColor(top)).Background(hexColor(bottom)).Render("▀"))
			}
		}
	}
	return b.String()
}

func blankCells(cols, rows int) string {
	line := strings.Repeat(" ", max(cols, 0))
	lines := make([]string, max(rows, 0))
	for i := range lines {
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// hexColor converts a premultiplied pixel to its color over black.
func hexColor(c [4]uint8) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c[0], c[1], c[2]))
}
