package pipeline

import (
	"slices"

	"perdiag/internal/geom"
)

// Filter keeps the pairs whose lower x maps into the screen selection and
// whose persistence lies in pers. Both checks are inclusive; an unbounded
// Bounds disables its stage. The selection stage runs first and is the only
// one that needs toScreenX.
func Filter(points []geom.PointPair, sel, pers geom.Bounds, toScreenX func(float64) float64) ([]geom.PointPair, error) {
	out := points
	if !sel.IsUnbounded() {
		if toScreenX == nil {
			return nil, &DegenerateRangeError{Axis: "x", Min: sel.Min, Max: sel.Max}
		}
		out = keep(out, func(p geom.PointPair) bool {
			return sel.Contains(toScreenX(p.Lower().X))
		})
	}
	if !pers.IsUnbounded() {
		out = keep(out, func(p geom.PointPair) bool {
			return pers.Contains(p.Persistence())
		})
	}
	return out, nil
}

func keep(points []geom.PointPair, pred func(geom.PointPair) bool) []geom.PointPair {
	out := make([]geom.PointPair, 0, len(points))
	for _, p := range points {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

// Chunk splits points into consecutive groups of n; the last may be shorter.
func Chunk(points []geom.PointPair, n int) [][]geom.PointPair {
	if n < 1 {
		panic("pipeline: chunk size must be >= 1")
	}
	if len(points) == 0 {
		return nil
	}
	return slices.Collect(slices.Chunk(points, n))
}
