package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	list "github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"perdiag/internal/geom"
)

const loadTimeout = 30 * time.Second

type fileItem struct {
	title, desc string
	path        string
}

func (f fileItem) Title() string       { return f.title }
func (f fileItem) Description() string { return f.desc }
func (f fileItem) FilterValue() string { return f.title }

// loadedMsg reports a finished load; source is the file path or empty for
// pasted WKT.
type loadedMsg struct {
	source string
	err    error
}

func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.setError("read dir: " + err.Error())
		return
	}
	var items []list.Item
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !geom.Supported(name) {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		items = append(items, fileItem{title: name, desc: ext, path: filepath.Join(m.cwd, name)})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].(fileItem).Title() < items[j].(fileItem).Title() })
	m.l.SetItems(items)
	if len(items) == 0 {
		m.status = "no diagrams (" + strings.Join(geom.Extensions, " ") + ") in " + m.cwd
	}
}

// loadFile loads p off the UI goroutine through the controller's loader.
func (m Model) loadFile(p string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return loadedMsg{source: p, err: ctrl.Load(ctx, p)}
	}
}

// loadWKT loads pasted text.
func (m Model) loadWKT(text string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		return loadedMsg{err: ctrl.LoadWith(ctx, geom.WKTLoader{}, text)}
	}
}

func (m *Model) handleLoaded(msg loadedMsg) {
	if msg.err != nil {
		m.setError(msg.err.Error())
		return
	}
	m.selPath = msg.source
	name := m.sourceName()
	pb := m.ctrl.PersistenceBounds()
	m.setStatus(fmt.Sprintf("loaded: %s  pairs=%d  persistence=[%.4g, %.4g]", name, len(m.ctrl.Points()), pb.Min, pb.Max))
	if p := m.opts.Persistence; p != nil {
		m.opts.Persistence = nil
		m.ctrl.SetActivePersistenceBounds(*p)
	} else {
		m.ctrl.Update()
	}
	if m.showTable {
		m.refreshPairsTable()
	}
}

func (m Model) sourceName() string {
	if m.selPath == "" {
		return "<pasted wkt>"
	}
	return filepath.Base(m.selPath)
}
