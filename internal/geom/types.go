package geom

import "math"

// Point3D is a critical point position.
type Point3D struct {
	X float64
	Y float64
	Z float64
}

// NoCriticalType marks a pair whose source file carried no critical type array.
const NoCriticalType = -1

// PointPair is one persistence feature: a lower and an upper critical point.
// Persistence is fixed at construction; use NewPointPair.
type PointPair struct {
	lower, upper     Point3D
	ctLower, ctUpper int
	persistence      float64
}

func NewPointPair(lower, upper Point3D) PointPair {
	return NewTypedPointPair(lower, upper, NoCriticalType, NoCriticalType)
}

// NewTypedPointPair builds a pair carrying critical type markers for both ends.
func NewTypedPointPair(lower, upper Point3D, ctLower, ctUpper int) PointPair {
	return PointPair{
		lower:       lower,
		upper:       upper,
		ctLower:     ctLower,
		ctUpper:     ctUpper,
		persistence: upper.Y - lower.Y,
	}
}

func (p PointPair) Lower() Point3D { return p.lower }
func (p PointPair) Upper() Point3D { return p.upper }

func (p PointPair) CriticalTypeLower() int { return p.ctLower }
func (p PointPair) CriticalTypeUpper() int { return p.ctUpper }

func (p PointPair) Persistence() float64 { return p.persistence }

// Bounds is a closed interval [Min, Max].
type Bounds struct {
	Min   float64
	Max   float64
	Width float64
}

func NewBounds(min, max float64) Bounds {
	return Bounds{Min: min, Max: max, Width: max - min}
}

// NewBoundsWidth keeps an explicitly supplied width.
func NewBoundsWidth(min, max, width float64) Bounds {
	return Bounds{Min: min, Max: max, Width: width}
}

// Unbounded is the [-Inf, +Inf] sentinel used for "no filter".
func Unbounded() Bounds {
	return NewBounds(math.Inf(-1), math.Inf(1))
}

func (b Bounds) IsUnbounded() bool {
	return math.IsInf(b.Min, -1) && math.IsInf(b.Max, 1)
}

// Contains is inclusive at both ends.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Equal compares Min, Max and Width. NaN widths compare equal.
func (b Bounds) Equal(o Bounds) bool {
	return b.Min == o.Min && b.Max == o.Max && (b.Width == o.Width || (math.IsNaN(b.Width) && math.IsNaN(o.Width)))
}

// Box holds axis-aligned data bounds as [xmin, xmax, ymin, ymax, zmin, zmax].
type Box [6]float64

// EmptyBox is the bounds of an unloaded dataset.
func EmptyBox() Box {
	inf := math.Inf(1)
	return Box{-inf, inf, -inf, inf, -inf, inf}
}

func (b Box) X() Bounds { return NewBounds(b[0], b[1]) }
func (b Box) Y() Bounds { return NewBounds(b[2], b[3]) }
func (b Box) Z() Bounds { return NewBounds(b[4], b[5]) }

// Data is what a loader hands to the controller.
type Data struct {
	Points            []PointPair
	Bounds            Box
	PersistenceBounds Bounds
}

// NewData derives the box and persistence bounds from pairs.
func NewData(points []PointPair) Data {
	d := Data{Points: points, Bounds: EmptyBox(), PersistenceBounds: Unbounded()}
	for i, p := range points {
		if i == 0 {
			d.Bounds = Box{p.lower.X, p.lower.X, p.lower.Y, p.lower.Y, p.lower.Z, p.lower.Z}
			d.PersistenceBounds = NewBounds(p.persistence, p.persistence)
		}
		d.Bounds.extend(p.lower)
		d.Bounds.extend(p.upper)
		if p.persistence < d.PersistenceBounds.Min {
			d.PersistenceBounds = NewBounds(p.persistence, d.PersistenceBounds.Max)
		}
		if p.persistence > d.PersistenceBounds.Max {
			d.PersistenceBounds = NewBounds(d.PersistenceBounds.Min, p.persistence)
		}
	}
	return d
}

func (b *Box) extend(p Point3D) {
	if p.X < b[0] {
		b[0] = p.X
	}
	if p.X > b[1] {
		b[1] = p.X
	}
	if p.Y < b[2] {
		b[2] = p.Y
	}
	if p.Y > b[3] {
		b[3] = p.Y
	}
	if p.Z < b[4] {
		b[4] = p.Z
	}
	if p.Z > b[5] {
		b[5] = p.Z
	}
}
