package tui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"perdiag/internal/canvas"
	"perdiag/internal/events"
	"perdiag/internal/geom"
	"perdiag/internal/render"
)

// the canvas is painted from timer goroutines, so the view is refreshed on a
// fixed frame rate rather than per chunk
const frameRate = 30

type frameMsg time.Time

func frameTick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return frameMsg(t) })
}

type eventMsg events.Event

func waitForEvent(ch <-chan events.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

type exportedMsg struct {
	path string
	err  error
}

func exportCmd(ctrl *render.Controller, opts Options) tea.Cmd {
	path := opts.ExportPath
	return func() tea.Msg {
		r := canvas.NewRaster(opts.ExportWidth, opts.ExportHeight, color.White)
		if err := ctrl.Export(context.Background(), r, render.WithExportPadding(opts.ExportPadding)); err != nil {
			return exportedMsg{path: path, err: err}
		}
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{path: path, err: err}
		}
		if err := r.PNG(f); err != nil {
			f.Close()
			return exportedMsg{path: path, err: err}
		}
		return exportedMsg{path: path, err: f.Close()}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		return m, frameTick()
	case eventMsg:
		m.handleEvent(events.Event(msg))
		return m, waitForEvent(m.events)
	case loadedMsg:
		m.handleLoaded(msg)
		return m, nil
	case exportedMsg:
		if msg.err != nil {
			m.setError("export: " + msg.err.Error())
		} else {
			m.setStatus("exported " + msg.path)
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
	case tea.KeyMsg:
		// If list is visible and filtering, send keys to list and ignore global commands
		if m.showSidebar && m.l.FilterState() == list.Filtering {
			var cmd tea.Cmd
			m.l, cmd = m.l.Update(msg)
			return m, cmd
		}
		if m.pasteMode {
			switch msg.String() {
			case "esc":
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			case "enter":
				w := strings.TrimSpace(m.ta.Value())
				if w == "" {
					m.setStatus("paste: empty")
					return m, nil
				}
				m.pasteMode = false
				m.ta.Blur()
				m.setStatus("loading pasted wkt")
				return m, m.loadWKT(w)
			}
			var cmd tea.Cmd
			m.ta, cmd = m.ta.Update(msg)
			return m, cmd
		}
		if m.showTable && !key.Matches(msg, keys.Table, keys.Quit, keys.Help) {
			var cmd tea.Cmd
			m.tbl, cmd = m.tbl.Update(msg)
			return m, cmd
		}
		switch {
		case key.Matches(msg, keys.Quit):
			m.stop()
			return m, tea.Quit
		case key.Matches(msg, keys.Sidebar):
			m.showSidebar = !m.showSidebar
			if m.showSidebar {
				m.refreshDir()
			}
			m.resize()
		case key.Matches(msg, keys.Paste):
			m.pasteMode = true
			m.ta.SetValue("")
			m.setStatus("paste mode")
			m.ta.Focus()
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, keys.Table):
			m.showTable = !m.showTable
			if m.showTable {
				m.refreshPairsTable()
			}
		case key.Matches(msg, keys.LowerDown):
			m.nudge(render.LowerHandle, -1)
		case key.Matches(msg, keys.LowerUp):
			m.nudge(render.LowerHandle, 1)
		case key.Matches(msg, keys.UpperDown):
			m.nudge(render.UpperHandle, -1)
		case key.Matches(msg, keys.UpperUp):
			m.nudge(render.UpperHandle, 1)
		case key.Matches(msg, keys.Reset):
			if s := m.ctrl.Slider(); s != nil {
				s.Reset()
			}
		case key.Matches(msg, keys.ClearSel):
			if s := m.ctrl.Selection(); s != nil {
				s.Clear()
			}
		case key.Matches(msg, keys.Export):
			m.setStatus("exporting " + m.opts.ExportPath)
			return m, exportCmd(m.ctrl, m.opts)
		case key.Matches(msg, keys.Enter):
			if m.showSidebar {
				if it, ok := m.l.SelectedItem().(fileItem); ok {
					m.setStatus("loading " + it.title)
					return m, m.loadFile(it.path)
				}
				return m, nil
			}
			if s := m.ctrl.Slider(); s != nil {
				s.Commit()
			}
		}
	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	// Pass messages to list when visible
	if m.showSidebar {
		var cmd tea.Cmd
		m.l, cmd = m.l.Update(msg)
		return m, cmd
	}
	return m, nil
}

// resize fits the braille canvas and the controller to the map area.
func (m *Model) resize() {
	l := m.layout()
	if m.showSidebar {
		m.l.SetSize(sidebarWidth-2, l.contentH-2)
	}
	if s := m.ctrl.Slider(); s != nil {
		s.SetWidth(l.contentW / 2)
	}
	if l.mapW == m.mapW && l.mapH == m.mapH {
		return
	}
	m.mapW, m.mapH = l.mapW, l.mapH
	m.canvas.Resize(l.mapW, l.mapH)
	w, h := m.canvas.Size()
	if err := m.ctrl.Resize(w, h); err != nil {
		m.setError("resize: " + err.Error())
		return
	}
	m.log.Debug("canvas resized", slog.Int("cols", l.mapW), slog.Int("rows", l.mapH))
}

// nudge moves a slider handle and applies it at once, as the keyboard has
// no drag to finish.
func (m *Model) nudge(h render.Handle, steps int) {
	s := m.ctrl.Slider()
	if s == nil {
		return
	}
	s.Nudge(h, steps)
	s.Commit()
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.pasteMode || m.showTable {
		return
	}
	l := m.layout()
	cx, cy := msg.X-l.originX, msg.Y-l.originY
	inMap := cx >= 0 && cx < l.mapW && cy >= 0 && cy < l.mapH
	px, py := cellToPixel(cx, cy)
	m.hovering = inMap
	m.hoverX, m.hoverY = px, py

	sel := m.ctrl.Selection()
	if sel == nil {
		return
	}
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && inMap:
		sel.Begin(px)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonRight:
		sel.Clear()
	case msg.Action == tea.MouseActionMotion:
		sel.Drag(px)
	case msg.Action == tea.MouseActionRelease:
		sel.End(px)
	}
}

func (m *Model) handleEvent(ev events.Event) {
	switch ev.Type {
	case events.Error:
		if err, ok := ev.Data.(error); ok {
			m.setError(err.Error())
		}
	case events.PointsDrawn:
		if v, ok := ev.Data.(render.View); ok {
			pts, _ := v.FilteredPoints()
			m.setStatus(fmt.Sprintf("drew %d of %d pairs", len(pts), len(v.Points)))
		}
		if m.showTable {
			m.refreshPairsTable()
		}
	case events.SelectionEnd:
		if b, ok := ev.Data.(geom.Bounds); ok {
			m.setStatus(fmt.Sprintf("selection x %.0f…%.0f px", b.Min, b.Max))
		}
	case events.SelectionHidden:
		m.setStatus("selection cleared")
	case events.PersistenceBoundsSet:
		if b, ok := ev.Data.(geom.Bounds); ok {
			m.setStatus(fmt.Sprintf("persistence [%.4g, %.4g]", b.Min, b.Max))
		}
	}
}

func (m *Model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *Model) setError(s string) {
	m.log.Warn("viewer error", slog.String("err", s))
	m.status, m.statusErr = s, true
}
