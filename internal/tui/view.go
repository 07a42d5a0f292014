package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	l := m.layout()

	// Header
	title := " perdiag ─ persistence diagram viewer "
	if m.ctrl.Loaded() {
		title = " perdiag ─ " + m.sourceName() + " "
	}
	header := titleStyle.Render(title)
	header = lipgloss.NewStyle().Width(l.contentW).Padding(0).Render(header)

	// Sidebar
	var sidebar string
	if m.showSidebar {
		sidebar = lipgloss.NewStyle().Width(sidebarWidth).Render(m.l.View())
	}

	var mapView string
	switch {
	case m.showTable:
		m.tbl.SetHeight(min(l.mapH-2, 20))
		tableBox := boxStyle.Render(m.tbl.View())
		mapView = lipgloss.Place(l.mapW, l.mapH, lipgloss.Center, lipgloss.Center, tableBox)
	case m.pasteMode:
		m.ta.SetWidth(l.mapW)
		m.ta.SetHeight(min(l.mapH, 12))
		mapView = lipgloss.NewStyle().Width(l.mapW).Height(l.mapH).Render(m.ta.View())
	default:
		mapView = lipgloss.NewStyle().Width(l.mapW).Height(l.mapH).Render(m.renderDiagram())
	}

	// Full key help as a popup over the body
	popup := ""
	if m.help.ShowAll {
		box := boxStyle.Render(m.help.View(keys))
		popup = lipgloss.Place(l.contentW, lipgloss.Height(box), lipgloss.Left, lipgloss.Center, box)
	}

	var body string
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, sidebar, " ", mapView)
	} else {
		body = mapView
	}

	// Footer: slider row, then status and short help
	sliderRow := ""
	if s := m.ctrl.Slider(); s != nil {
		sliderRow = s.Element().View()
	}
	if sel := m.ctrl.Selection(); sel != nil {
		if v := sel.Element().View(); v != "" {
			sliderRow += dimStyle.Render("  " + v)
		}
	}
	sliderRow = lipgloss.NewStyle().Width(l.contentW).Render(" " + sliderRow)

	status := dimStyle.Render(" " + m.status + " ")
	if m.statusErr {
		status = errStyle.Render(" " + m.status + " ")
	}
	help := ""
	if !m.help.ShowAll {
		help = dimStyle.Render("  ") + m.help.ShortHelpView(keys.ShortHelp())
	}
	coords := ""
	if x, y, ok := m.hoverData(); ok {
		coords = dimStyle.Render(fmt.Sprintf("  x=%.4g y=%.4g  ", x, y))
	}
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, status, help)
	spacerW := max(0, l.contentW-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.NewStyle().Width(l.contentW).MaxHeight(1).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, popup, body, sliderRow, footer)
	return appStyle.Width(l.contentW).Height(m.height).MaxHeight(m.height).Render(ui)
}

// renderDiagram returns the braille canvas with the selection columns shaded.
func (m Model) renderDiagram() string {
	if !m.ctrl.Loaded() {
		msg := dimStyle.Render("no diagram loaded: Tab to pick a file, p to paste WKT")
		return lipgloss.Place(m.mapW, m.mapH, lipgloss.Center, lipgloss.Center, msg)
	}
	lines := m.canvas.Lines()
	// an in-progress drag replaces the committed range
	if sel := m.ctrl.Selection(); sel != nil {
		if b, ok := sel.Dragging(); ok {
			lines = highlightCols(lines, int(b.Min)/2, int(math.Ceil(b.Max/2)), dragStyle)
		} else if b, ok := m.ctrl.ActiveSelectionBounds(); ok {
			lines = highlightCols(lines, int(b.Min)/2, int(math.Ceil(b.Max/2)), selectStyle)
		}
	}
	for i, ln := range lines {
		lines[i] = padRight(ln, m.mapW-lipgloss.Width(ln))
	}
	return strings.Join(lines, "\n")
}

// hoverData converts the hovered pixel to data coordinates.
func (m Model) hoverData() (float64, float64, bool) {
	if !m.hovering {
		return 0, 0, false
	}
	v := m.ctrl.Snapshot()
	if !v.Loaded {
		return 0, 0, false
	}
	mp, err := v.Mapper()
	if err != nil {
		return 0, 0, false
	}
	return mp.FromScreenX(m.hoverX), mp.FromScreenY(m.hoverY), true
}
