// Package render owns a loaded persistence diagram, its filter state and
// the controls that draw or drive it.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"perdiag/internal/canvas"
	"perdiag/internal/config"
	"perdiag/internal/events"
	"perdiag/internal/geom"
)

// MissingContextError reports a draw attempted without a surface.
type MissingContextError struct {
	Op string
}

func (e *MissingContextError) Error() string {
	return fmt.Sprintf("%s: no drawing surface", e.Op)
}

type Option func(*Controller)

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func WithLoader(l geom.Loader) Option {
	return func(c *Controller) { c.loader = l }
}

// WithPointDrawFunc replaces the per-pair drawing, which defaults to a line
// from lower to upper in the stroke colour.
func WithPointDrawFunc(f PointDrawFunc) Option {
	return func(c *Controller) { c.drawPoint = f }
}

// WithErrorHandler receives every error caught during Update, besides the
// events.Error notification.
func WithErrorHandler(f func(error)) Option {
	return func(c *Controller) { c.onError = f }
}

func WithEvents(d *events.Dispatcher) Option {
	return func(c *Controller) { c.events = d }
}

// Controller is the single writer of the dataset and the filter bounds.
// Controls get an immutable View on every Update.
type Controller struct {
	log       *slog.Logger
	events    *events.Dispatcher
	loader    geom.Loader
	drawPoint PointDrawFunc
	onError   func(error)

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	settings   config.Settings
	surface    canvas.Surface
	loaded     bool
	points     []geom.PointPair
	box        geom.Box
	pers       geom.Bounds
	activePers *geom.Bounds
	activeSel  *geom.Bounds

	gen atomic.Uint64
	// paintMu orders every surface write against the generation check.
	paintMu sync.Mutex

	controls []Control
}

func New(settings config.Settings, surface canvas.Surface, opts ...Option) (*Controller, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		settings: settings,
		surface:  surface,
		loader:   geom.FileLoader{},
		box:      geom.EmptyBox(),
		pers:     geom.Unbounded(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	c.log = c.log.With(slog.String("component", "render"))
	if c.events == nil {
		c.events = events.NewDispatcher()
	}
	if c.drawPoint == nil {
		c.drawPoint = DefaultPointDraw(canvas.MustParseColor(settings.StrokeStyle))
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	for _, r := range registry {
		if !r.enabled(settings) {
			continue
		}
		ctl, err := r.factory(c.host(r.name))
		if err != nil {
			return nil, fmt.Errorf("control %s: %w", r.name, err)
		}
		c.controls = append(c.controls, ctl)
	}
	return c, nil
}

func (c *Controller) host(id string) Host {
	return Host{
		ID:             id,
		Events:         c.events,
		Logger:         c.log.With(slog.String("control", id)),
		Settings:       c.settings,
		SetPersistence: c.SetActivePersistenceBounds,
		SetSelection:   c.SetActiveSelectionBounds,
		Report:         c.report,
		Paint:          c.paint,
		DrawPoint:      c.drawPoint,
		ctx:            c.ctx,
	}
}

// Close stops pending chunk draws.
func (c *Controller) Close() { c.cancel() }

func (c *Controller) Events() *events.Dispatcher { return c.events }

func (c *Controller) SetLoader(l geom.Loader) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loader = l
}

// Load replaces the dataset with what the configured loader returns for
// source and clears both active bounds. On error the previous dataset stays.
// Load does not redraw; call Update.
func (c *Controller) Load(ctx context.Context, source string) error {
	c.mu.Lock()
	l := c.loader
	c.mu.Unlock()
	return c.LoadWith(ctx, l, source)
}

func (c *Controller) LoadWith(ctx context.Context, l geom.Loader, source string) error {
	data, err := l.Load(ctx, source)
	if err != nil {
		var le *geom.LoadError
		if !errors.As(err, &le) {
			err = &geom.LoadError{Source: source, Err: err}
		}
		c.log.Warn("load failed", slog.String("source", source), slog.Any("err", err))
		return err
	}
	c.mu.Lock()
	c.points = data.Points
	c.box = data.Bounds
	c.pers = data.PersistenceBounds
	c.activePers = nil
	c.activeSel = nil
	c.loaded = true
	c.mu.Unlock()

	c.log.Info("dataset loaded", slog.String("source", source), slog.Int("pairs", len(data.Points)))
	c.events.Dispatch(events.DataLoaded, data.Bounds)
	return nil
}

// SetActivePersistenceBounds narrows the persistence filter and redraws.
// An unbounded b unsets the filter.
func (c *Controller) SetActivePersistenceBounds(b geom.Bounds) {
	c.mu.Lock()
	if b.IsUnbounded() {
		c.activePers = nil
	} else {
		c.activePers = &b
	}
	c.mu.Unlock()
	c.Update()
}

// SetActiveSelectionBounds sets the screen x-range filter (nil unsets) and
// redraws.
func (c *Controller) SetActiveSelectionBounds(b *geom.Bounds) {
	c.mu.Lock()
	if b == nil || b.IsUnbounded() {
		c.activeSel = nil
	} else {
		sel := *b
		c.activeSel = &sel
	}
	c.mu.Unlock()
	c.Update()
}

// Update starts a new redraw generation and hands its View to every control.
func (c *Controller) Update() {
	gen := c.gen.Add(1)
	v := c.snapshot(gen, &c.gen)
	c.log.Debug("update", slog.Uint64("gen", gen), slog.Bool("loaded", v.Loaded))
	for _, ctl := range c.controls {
		if err := ctl.Update(v); err != nil {
			c.report(fmt.Errorf("%s: %w", ctl.Element().ID(), err))
		}
	}
}

// Generation is the current redraw generation.
func (c *Controller) Generation() uint64 { return c.gen.Load() }

// Snapshot returns the current state without starting a redraw.
func (c *Controller) Snapshot() View {
	return c.snapshot(c.gen.Load(), &c.gen)
}

func (c *Controller) snapshot(gen uint64, current *atomic.Uint64) View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Generation:        gen,
		Loaded:            c.loaded,
		Settings:          c.settings,
		Points:            c.points,
		Bounds:            c.box,
		PersistenceBounds: c.pers,
		ActivePersistence: c.pers,
		ActiveSelection:   geom.Unbounded(),
		Surface:           c.surface,
		current:           current,
	}
	if c.activePers != nil {
		v.ActivePersistence = *c.activePers
	}
	if c.activeSel != nil {
		v.ActiveSelection = *c.activeSel
		v.SelectionSet = true
	}
	return v
}

func (c *Controller) report(err error) {
	c.log.Error("update failed", slog.Any("err", err))
	c.events.Dispatch(events.Error, err)
	if c.onError != nil {
		c.onError(err)
	}
}

// paint runs fn on the surface unless gen has been superseded.
func (c *Controller) paint(gen uint64, fn func(canvas.Surface) error) (bool, error) {
	c.paintMu.Lock()
	defer c.paintMu.Unlock()
	if c.gen.Load() != gen {
		return false, nil
	}
	c.mu.Lock()
	s := c.surface
	c.mu.Unlock()
	if s == nil {
		return false, &MissingContextError{Op: "paint"}
	}
	return true, fn(s)
}

// Resize changes the canvas size. The selection is in screen space, so it is
// cleared, which also redraws.
func (c *Controller) Resize(w, h int) error {
	c.mu.Lock()
	s := c.settings
	s.CanvasWidth, s.CanvasHeight = w, h
	if err := s.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}
	c.settings = s
	c.mu.Unlock()
	c.SetActiveSelectionBounds(nil)
	return nil
}

// ExportOption adjusts the settings of one Export.
type ExportOption func(*config.Settings)

// WithExportPadding replaces the padding, e.g. when the live canvas counts
// terminal cells and the export counts raster pixels.
func WithExportPadding(p config.Padding) ExportOption {
	return func(s *config.Settings) { s.Padding = p }
}

// Export draws the current filtered view onto s in one synchronous pass,
// sized to s and without events.
func (c *Controller) Export(ctx context.Context, s canvas.Surface, opts ...ExportOption) error {
	if s == nil {
		return &MissingContextError{Op: "export"}
	}
	src := c.snapshot(0, nil)
	v := src
	v.Settings.CanvasWidth, v.Settings.CanvasHeight = s.Size()
	for _, o := range opts {
		o(&v.Settings)
	}
	v.Surface = s
	if err := v.Settings.Validate(); err != nil {
		return err
	}
	if v.SelectionSet {
		// the selection is in pixels of the live canvas
		from, err := src.Mapper()
		if err != nil {
			return err
		}
		to, err := v.Mapper()
		if err != nil {
			return err
		}
		v.ActiveSelection = geom.NewBounds(
			to.ToScreenX(from.FromScreenX(src.ActiveSelection.Min)),
			to.ToScreenX(from.FromScreenX(src.ActiveSelection.Max)),
		)
	}
	for _, ctl := range c.controls {
		if err := ctx.Err(); err != nil {
			return err
		}
		if ex, ok := ctl.(exporter); ok {
			if err := ex.Export(v, s); err != nil {
				return fmt.Errorf("%s: %w", ctl.Element().ID(), err)
			}
		}
	}
	return nil
}

func (c *Controller) Settings() config.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

func (c *Controller) Loaded() bool                         { return c.Snapshot().Loaded }
func (c *Controller) Points() []geom.PointPair             { return c.Snapshot().Points }
func (c *Controller) Bounds() geom.Box                     { return c.Snapshot().Bounds }
func (c *Controller) PersistenceBounds() geom.Bounds       { return c.Snapshot().PersistenceBounds }
func (c *Controller) ActivePersistenceBounds() geom.Bounds { return c.Snapshot().ActivePersistence }

// ActiveSelectionBounds reports the selection and whether one is set.
func (c *Controller) ActiveSelectionBounds() (geom.Bounds, bool) {
	v := c.Snapshot()
	return v.ActiveSelection, v.SelectionSet
}

func (c *Controller) XMin() float64 { return c.Snapshot().XMin() }
func (c *Controller) XMax() float64 { return c.Snapshot().XMax() }
func (c *Controller) YMin() float64 { return c.Snapshot().YMin() }
func (c *Controller) YMax() float64 { return c.Snapshot().YMax() }

func (c *Controller) FilteredPoints() ([]geom.PointPair, error) {
	return c.Snapshot().FilteredPoints()
}

func (c *Controller) FilteredPointsChunked() ([][]geom.PointPair, error) {
	return c.Snapshot().FilteredPointsChunked()
}

// Renderer, Slider, Selection and Axes return the registered control, or nil
// when it is disabled.
func (c *Controller) Renderer() *Renderer   { return findControl[*Renderer](c) }
func (c *Controller) Slider() *Slider       { return findControl[*Slider](c) }
func (c *Controller) Selection() *Selection { return findControl[*Selection](c) }
func (c *Controller) Axes() *Axes           { return findControl[*Axes](c) }

// Controls lists the registered controls in update order.
func (c *Controller) Controls() []Control { return c.controls }

func findControl[T Control](c *Controller) T {
	for _, ctl := range c.controls {
		if t, ok := ctl.(T); ok {
			return t
		}
	}
	var zero T
	return zero
}
