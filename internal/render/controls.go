package render

import (
	"context"
	"image/color"
	"log/slog"

	"perdiag/internal/canvas"
	"perdiag/internal/config"
	"perdiag/internal/events"
	"perdiag/internal/geom"
	"perdiag/internal/pipeline"
)

// Element is what a control shows to the host UI.
type Element interface {
	ID() string
	// View renders the element as text; empty when it has nothing to show.
	View() string
}

// Control reacts to every controller Update.
type Control interface {
	Element() Element
	Update(View) error
}

// exporter is implemented by controls that contribute to Export.
type exporter interface {
	Export(View, canvas.Surface) error
}

// Host is the narrow view of the controller a control is built with.
type Host struct {
	ID       string
	Events   *events.Dispatcher
	Logger   *slog.Logger
	Settings config.Settings

	SetPersistence func(geom.Bounds)
	SetSelection   func(*geom.Bounds)
	Report         func(error)
	// Paint runs fn on the surface while gen is still current.
	Paint     func(gen uint64, fn func(canvas.Surface) error) (bool, error)
	DrawPoint PointDrawFunc

	ctx context.Context
}

// Pen is what a PointDrawFunc may use.
type Pen struct {
	Mapper  pipeline.Mapper
	Surface canvas.Surface
}

type PointDrawFunc func(p geom.PointPair, pen Pen) error

// DefaultPointDraw draws a line from the lower to the upper point.
func DefaultPointDraw(stroke color.Color) PointDrawFunc {
	return func(p geom.PointPair, pen Pen) error {
		pen.Surface.Line(pen.Mapper.ToScreen(p.Lower()), pen.Mapper.ToScreen(p.Upper()), stroke)
		return nil
	}
}

type registration struct {
	name    string
	enabled func(config.Settings) bool
	factory func(Host) (Control, error)
}

// registry is in update order: the renderer draws before the controls that
// read its result.
var registry = []registration{
	{"renderer", func(config.Settings) bool { return true }, newRenderer},
	{"selection", func(s config.Settings) bool { return s.EnableSelection }, newSelection},
	{"slider", func(s config.Settings) bool { return s.EnableSlider }, newSlider},
	{"axes", func(s config.Settings) bool { return s.EnableAxes }, newAxes},
}

type element struct {
	id   string
	view func() string
}

func (e element) ID() string   { return e.id }
func (e element) View() string { return e.view() }

func noView() string { return "" }
