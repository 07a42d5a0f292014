package tui

import (
	"log/slog"
	"os"

	"github.com/charmbracelet/bubbles/help"
	list "github.com/charmbracelet/bubbles/list"
	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"perdiag/internal/canvas"
	"perdiag/internal/config"
	"perdiag/internal/events"
	"perdiag/internal/geom"
	"perdiag/internal/render"
)

// Options configures the viewer beyond the controller's settings.
type Options struct {
	Logger *slog.Logger
	// Dir is listed in the file sidebar; the working directory when empty.
	Dir string
	// ExportPath receives the PNG written by the export key.
	ExportPath   string
	ExportWidth  int
	ExportHeight int
	// ExportPadding is in raster pixels; the defaults when zero.
	ExportPadding config.Padding
	// Persistence filters the first dataset loaded.
	Persistence *geom.Bounds
}

// TerminalPadding leaves room for axis labels on a braille canvas, where a
// cell is 2x4 pixels.
var TerminalPadding = config.Padding{Left: 20, Top: 4, Right: 4, Bottom: 12}

type Model struct {
	width  int
	height int

	showSidebar bool

	status    string
	statusErr bool

	log  *slog.Logger
	opts Options

	// File explorer
	cwd     string
	l       list.Model
	selPath string
	pending string

	// Diagram
	ctrl   *render.Controller
	canvas *canvas.Braille
	events <-chan events.Event
	stop   func()

	// last applied map size in cells
	mapW int
	mapH int

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// pairs table
	showTable bool
	tbl       table.Model

	// hover state, in canvas pixels
	hovering bool
	hoverX   float64
	hoverY   float64

	help help.Model
}

// New builds a viewer around ctrl, which must draw onto surface.
func New(ctrl *render.Controller, surface *canvas.Braille, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.ExportPath == "" {
		opts.ExportPath = "perdiag.png"
	}
	if opts.ExportWidth <= 0 || opts.ExportHeight <= 0 {
		opts.ExportWidth, opts.ExportHeight = 1000, 1000
	}
	if opts.ExportPadding == (config.Padding{}) {
		opts.ExportPadding = config.Default().Padding
	}
	m := Model{
		showSidebar: false,
		status:      "perdiag ready",
		log:         opts.Logger.With(slog.String("component", "tui")),
		opts:        opts,
		ctrl:        ctrl,
		canvas:      surface,
		help:        help.New(),
	}
	m.events, m.stop = ctrl.Events().Listen(64)
	m.cwd = opts.Dir
	if m.cwd == "" {
		m.cwd, _ = os.Getwd()
	}
	// list setup
	d := list.NewDefaultDelegate()
	d.ShowDescription = false
	m.l = list.New(nil, d, 0, 0)
	m.l.Title = "Diagrams"
	m.l.SetShowHelp(false)
	m.l.SetShowStatusBar(false)
	m.l.SetFilteringEnabled(true)
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT here (LINESTRING or MULTILINESTRING of lower/upper pairs). Enter to load; Esc to cancel."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	// pairs table setup
	m.tbl = table.New(table.WithColumns(pairColumns), table.WithFocused(true))
	m.tbl.SetHeight(12)
	m.refreshDir()
	return m
}

// NewWithPath loads a diagram at launch.
func NewWithPath(ctrl *render.Controller, surface *canvas.Braille, opts Options, path string) Model {
	m := New(ctrl, surface, opts)
	m.pending = path
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{frameTick(), waitForEvent(m.events)}
	if m.pending != "" {
		cmds = append(cmds, m.loadFile(m.pending))
	}
	return tea.Batch(cmds...)
}
