package render

import (
	"sync/atomic"

	"perdiag/internal/canvas"
	"perdiag/internal/config"
	"perdiag/internal/geom"
	"perdiag/internal/pipeline"
)

// View is an immutable snapshot of the controller taken for one redraw
// generation. Points is shared with the controller and must not be modified.
type View struct {
	Generation uint64
	Loaded     bool
	Settings   config.Settings

	Points            []geom.PointPair
	Bounds            geom.Box
	PersistenceBounds geom.Bounds
	// ActivePersistence equals PersistenceBounds while no filter is set.
	ActivePersistence geom.Bounds
	// ActiveSelection is unbounded unless SelectionSet.
	ActiveSelection geom.Bounds
	SelectionSet    bool

	Surface canvas.Surface

	current *atomic.Uint64
}

// Stale reports whether a newer Update has started since this view was
// taken.
func (v View) Stale() bool {
	return v.current != nil && v.current.Load() != v.Generation
}

func (v View) XMin() float64 { return v.Bounds[0] }
func (v View) XMax() float64 { return v.Bounds[1] }
func (v View) YMin() float64 { return v.Bounds[2] }
func (v View) YMax() float64 { return v.Bounds[3] }

// Mapper maps the full data bounds onto the padded canvas.
func (v View) Mapper() (pipeline.Mapper, error) {
	return pipeline.NewMapper(v.Bounds.X(), v.Bounds.Y(), v.Settings.DrawingArea())
}

// FilteredPoints applies the selection, then the persistence filter.
func (v View) FilteredPoints() ([]geom.PointPair, error) {
	if !v.Loaded {
		return nil, nil
	}
	var toScreenX func(float64) float64
	if v.SelectionSet {
		m, err := v.Mapper()
		if err != nil {
			return nil, err
		}
		toScreenX = m.ToScreenX
	}
	pers := geom.Unbounded()
	if !v.ActivePersistence.Equal(v.PersistenceBounds) {
		pers = v.ActivePersistence
	}
	return pipeline.Filter(v.Points, v.ActiveSelection, pers, toScreenX)
}

func (v View) FilteredPointsChunked() ([][]geom.PointPair, error) {
	pts, err := v.FilteredPoints()
	if err != nil {
		return nil, err
	}
	return pipeline.Chunk(pts, v.Settings.Chunks), nil
}
