// Package pipeline turns a point set into screen geometry: the data to pixel
// mapping, the selection and persistence filters, and the chunked draw
// scheduler.
package pipeline

import (
	"errors"
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"perdiag/internal/geom"
)

var ErrDegenerateRange = errors.New("degenerate range")

// DegenerateRangeError reports an axis whose data range has zero width or is
// not finite, typically an empty or one-point dataset.
type DegenerateRangeError struct {
	Axis     string
	Min, Max float64
}

func (e *DegenerateRangeError) Error() string {
	return fmt.Sprintf("%s axis: degenerate range [%g, %g]", e.Axis, e.Min, e.Max)
}

func (e *DegenerateRangeError) Is(target error) bool { return target == ErrDegenerateRange }

// Mapper rescales data coordinates linearly into a pixel rectangle.
// Screen y grows downwards, so an area with LLy > URy puts data ymin at the
// bottom.
type Mapper struct {
	x, y geom.Bounds
	area rect.Rect
}

func NewMapper(x, y geom.Bounds, area rect.Rect) (Mapper, error) {
	if err := checkRange("x", x); err != nil {
		return Mapper{}, err
	}
	if err := checkRange("y", y); err != nil {
		return Mapper{}, err
	}
	return Mapper{x: x, y: y, area: area}, nil
}

func checkRange(axis string, b geom.Bounds) error {
	if b.Max == b.Min || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) || math.IsNaN(b.Min) || math.IsNaN(b.Max) {
		return &DegenerateRangeError{Axis: axis, Min: b.Min, Max: b.Max}
	}
	return nil
}

func rescale(v, dMin, dMax, rMin, rMax float64) float64 {
	return (v-dMin)/(dMax-dMin)*(rMax-rMin) + rMin
}

func (m Mapper) ToScreenX(x float64) float64 {
	return rescale(x, m.x.Min, m.x.Max, m.area.LLx, m.area.URx)
}

func (m Mapper) ToScreenY(y float64) float64 {
	return rescale(y, m.y.Min, m.y.Max, m.area.LLy, m.area.URy)
}

func (m Mapper) ToScreen(p geom.Point3D) vec.Vec2 {
	return vec.Vec2{X: m.ToScreenX(p.X), Y: m.ToScreenY(p.Y)}
}

// FromScreenX is the inverse of ToScreenX.
func (m Mapper) FromScreenX(sx float64) float64 {
	return rescale(sx, m.area.LLx, m.area.URx, m.x.Min, m.x.Max)
}

func (m Mapper) FromScreenY(sy float64) float64 {
	return rescale(sy, m.area.LLy, m.area.URy, m.y.Min, m.y.Max)
}

func (m Mapper) XBounds() geom.Bounds { return m.x }
func (m Mapper) YBounds() geom.Bounds { return m.y }
func (m Mapper) Area() rect.Rect      { return m.area }
