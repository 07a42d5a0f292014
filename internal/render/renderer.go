package render

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"perdiag/internal/canvas"
	"perdiag/internal/events"
	"perdiag/internal/geom"
	"perdiag/internal/pipeline"
)

// Renderer clears the surface and draws the filtered pairs in chunks. Each
// chunk paints only while its generation is current, so a superseded pass
// never draws over a newer one.
type Renderer struct {
	host Host
	log  *slog.Logger
	el   element

	mu   sync.Mutex
	pass *pipeline.Pass
}

func newRenderer(h Host) (Control, error) {
	return &Renderer{host: h, log: h.Logger, el: element{id: h.ID, view: noView}}, nil
}

func (r *Renderer) Element() Element { return r.el }

func (r *Renderer) Update(v View) error {
	if v.Surface == nil {
		return &MissingContextError{Op: "render"}
	}
	r.mu.Lock()
	if r.pass != nil {
		r.pass.Cancel()
		r.pass = nil
	}
	r.mu.Unlock()

	r.host.Events.Dispatch(events.PointsCleared, v)
	ok, err := r.host.Paint(v.Generation, func(s canvas.Surface) error {
		s.Clear()
		return nil
	})
	if err != nil || !ok || !v.Loaded || len(v.Points) == 0 {
		return err
	}
	m, err := v.Mapper()
	if err != nil {
		return err
	}
	chunks, err := v.FilteredPointsChunked()
	if err != nil {
		return err
	}
	stroke := canvas.MustParseColor(v.Settings.StrokeStyle)
	ok, err = r.host.Paint(v.Generation, func(s canvas.Surface) error {
		drawDiagonal(s, m, v.Points, stroke)
		return nil
	})
	if err != nil || !ok {
		return err
	}

	sched := pipeline.Scheduler{Wait: v.Settings.WaitTime, Logger: r.log}
	pass := sched.Draw(r.host.ctx, chunks, func(chunk []geom.PointPair, i int) error {
		_, err := r.host.Paint(v.Generation, func(s canvas.Surface) error {
			return drawChunk(r.host.DrawPoint, Pen{Mapper: m, Surface: s}, chunk)
		})
		return err
	})
	r.mu.Lock()
	r.pass = pass
	r.mu.Unlock()

	go func() {
		<-pass.Done()
		if err := pass.Err(); err != nil {
			r.host.Report(fmt.Errorf("%s: %w", r.host.ID, err))
		}
		if v.Stale() || r.host.ctx.Err() != nil {
			r.log.Debug("pass superseded", slog.Uint64("gen", v.Generation))
			return
		}
		r.log.Debug("pass drawn", slog.Uint64("gen", v.Generation), slog.Int("chunks", pass.Drawn()))
		r.host.Events.Dispatch(events.PointsDrawn, v)
	}()
	return nil
}

// Pass is the most recent chunked draw, nil before the first.
func (r *Renderer) Pass() *pipeline.Pass {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pass
}

func (r *Renderer) Export(v View, s canvas.Surface) error {
	s.Clear()
	if !v.Loaded || len(v.Points) == 0 {
		return nil
	}
	m, err := v.Mapper()
	if err != nil {
		return err
	}
	pts, err := v.FilteredPoints()
	if err != nil {
		return err
	}
	drawDiagonal(s, m, v.Points, canvas.MustParseColor(v.Settings.StrokeStyle))
	return drawChunk(r.host.DrawPoint, Pen{Mapper: m, Surface: s}, pts)
}

// drawDiagonal joins the lower points of the first and last pair of the
// full set.
func drawDiagonal(s canvas.Surface, m pipeline.Mapper, pts []geom.PointPair, c color.Color) {
	first, last := pts[0].Lower(), pts[len(pts)-1].Lower()
	s.Line(m.ToScreen(first), m.ToScreen(last), c)
}

func drawChunk(draw PointDrawFunc, pen Pen, chunk []geom.PointPair) error {
	for _, p := range chunk {
		if err := draw(p, pen); err != nil {
			return err
		}
	}
	return nil
}
