package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	sidebarWidth = 28
	headerHeight = 1
	// slider row + status/help row
	footerHeight = 2
)

// layout is the screen geometry shared by View and mouse handling.
type layout struct {
	contentW, contentH int
	originX, originY   int
	mapW, mapH         int
}

func (m Model) layout() layout {
	l := layout{originY: headerHeight}
	l.contentH = max(4, m.height-headerHeight-footerHeight)
	l.contentW = max(10, m.width)
	if m.showSidebar {
		l.originX = sidebarWidth + 1
	}
	l.mapW = max(10, l.contentW-l.originX-1)
	l.mapH = l.contentH
	return l
}

// cellToPixel maps a map cell to the canvas pixel at its left/top edge.
func cellToPixel(cx, cy int) (float64, float64) {
	return float64(cx * 2), float64(cy * 4)
}

// highlightCols styles the cell columns [from, to) of every line.
func highlightCols(lines []string, from, to int, st lipgloss.Style) []string {
	out := make([]string, len(lines))
	for i, ln := range lines {
		r := []rune(ln)
		a, b := min(max(from, 0), len(r)), min(max(to, 0), len(r))
		if a >= b {
			out[i] = ln
			continue
		}
		out[i] = string(r[:a]) + st.Render(string(r[a:b])) + string(r[b:])
	}
	return out
}

func padRight(s string, n int) string {
	if n <= 0 {
		return s
	}
	return s + strings.Repeat(" ", n)
}
