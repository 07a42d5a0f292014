package render

import (
	"fmt"
	"strconv"

	"seehuhn.de/go/geom/vec"

	"perdiag/internal/canvas"
	"perdiag/internal/events"
)

// Axes draws the x and y axis with ticks and labels once the renderer has
// finished a pass.
type Axes struct {
	host Host
	el   element
	off  func()
}

func newAxes(h Host) (Control, error) {
	a := &Axes{host: h, el: element{id: h.ID, view: noView}}
	a.off = h.Events.On(events.PointsDrawn, a.onPointsDrawn)
	return a, nil
}

func (a *Axes) Element() Element { return a.el }

// Update does nothing; the axes follow PointsDrawn.
func (a *Axes) Update(View) error { return nil }

func (a *Axes) onPointsDrawn(e events.Event) {
	v, ok := e.Data.(View)
	if !ok {
		return
	}
	if _, err := a.host.Paint(v.Generation, func(s canvas.Surface) error { return drawAxes(s, v) }); err != nil {
		a.host.Report(fmt.Errorf("%s: %w", a.host.ID, err))
	}
}

func (a *Axes) Export(v View, s canvas.Surface) error {
	if !v.Loaded || len(v.Points) == 0 {
		return nil
	}
	return drawAxes(s, v)
}

// Detach stops listening for redraws.
func (a *Axes) Detach() { a.off() }

func drawAxes(s canvas.Surface, v View) error {
	m, err := v.Mapper()
	if err != nil {
		return err
	}
	st := v.Settings
	area := st.DrawingArea()
	axisCol := canvas.MustParseColor(st.AxesColor)
	tickCol := canvas.MustParseColor(st.AxesTickColor)
	textCol := canvas.MustParseColor(st.AxesTextColor)

	// y axis up the left edge, x axis along the bottom
	s.Line(vec.Vec2{X: area.LLx, Y: area.LLy}, vec.Vec2{X: area.LLx, Y: area.URy}, axisCol)
	s.Line(vec.Vec2{X: area.LLx, Y: area.LLy}, vec.Vec2{X: area.URx, Y: area.LLy}, axisCol)

	lh := s.LineHeight()
	xb, yb := m.XBounds(), m.YBounds()

	n, tl := st.AxesTickCount.X(), st.AxesTickLength.X()
	for i := 0; i <= n; i++ {
		val := xb.Min + xb.Width/float64(n)*float64(i)
		x := m.ToScreenX(val)
		s.Line(vec.Vec2{X: x, Y: area.LLy}, vec.Vec2{X: x, Y: area.LLy + tl}, tickCol)
		label := strconv.FormatFloat(val, 'f', st.AxesTickFractions.X(), 64)
		s.Text(vec.Vec2{X: x - s.TextWidth(label)/2, Y: area.LLy + tl + 1}, label, textCol)
	}

	n, tl = st.AxesTickCount.Y(), st.AxesTickLength.Y()
	for i := 0; i <= n; i++ {
		val := yb.Min + yb.Width/float64(n)*float64(i)
		y := m.ToScreenY(val)
		s.Line(vec.Vec2{X: area.LLx - tl, Y: y}, vec.Vec2{X: area.LLx, Y: y}, tickCol)
		label := strconv.FormatFloat(val, 'f', st.AxesTickFractions.Y(), 64)
		s.Text(vec.Vec2{X: area.LLx - tl - 2 - s.TextWidth(label), Y: y - lh/2}, label, textCol)
	}
	return nil
}
