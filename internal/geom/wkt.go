package geom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ParseWKT reads pairs written as two-vertex line strings.
// Supported: LINESTRING [Z] (x y [z], x y [z]) and
// MULTILINESTRING [Z] ((x y [z], x y [z]), ...). The first vertex of each
// line is the lower point.
func ParseWKT(wkt string) ([]PointPair, error) {
	s := strings.TrimSpace(wkt)
	if s == "" {
		return nil, errors.New("empty wkt")
	}
	up := strings.ToUpper(s)
	parseVertex := func(tup string) (Point3D, error) {
		parts := strings.Fields(strings.TrimSpace(tup))
		if len(parts) < 2 || len(parts) > 3 {
			return Point3D{}, fmt.Errorf("wkt: bad vertex %q", strings.TrimSpace(tup))
		}
		var c [3]float64
		for i, p := range parts {
			v, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return Point3D{}, fmt.Errorf("wkt: bad vertex %q: %w", strings.TrimSpace(tup), err)
			}
			c[i] = v
		}
		return Point3D{X: c[0], Y: c[1], Z: c[2]}, nil
	}
	parseLine := func(block string) (PointPair, error) {
		tups := strings.Split(block, ",")
		if len(tups) != 2 {
			return PointPair{}, fmt.Errorf("wkt: pair needs exactly 2 vertices, got %d", len(tups))
		}
		lower, err := parseVertex(tups[0])
		if err != nil {
			return PointPair{}, err
		}
		upper, err := parseVertex(tups[1])
		if err != nil {
			return PointPair{}, err
		}
		return NewPointPair(lower, upper), nil
	}
	switch {
	case strings.HasPrefix(up, "MULTILINESTRING"):
		i := strings.Index(s, "(")
		j := strings.LastIndex(s, ")")
		if i < 0 || j <= i {
			return nil, errors.New("wkt multilinestring: invalid")
		}
		var pairs []PointPair
		for _, part := range strings.Split(s[i+1:j], ")") {
			part = strings.TrimLeft(part, " \t\r\n,(")
			if strings.TrimSpace(part) == "" {
				continue
			}
			p, err := parseLine(part)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, p)
		}
		if len(pairs) == 0 {
			return nil, errors.New("wkt multilinestring: no lines")
		}
		return pairs, nil
	case strings.HasPrefix(up, "LINESTRING"):
		i := strings.Index(s, "(")
		j := strings.LastIndex(s, ")")
		if i < 0 || j <= i {
			return nil, errors.New("wkt linestring: invalid")
		}
		p, err := parseLine(s[i+1 : j])
		if err != nil {
			return nil, err
		}
		return []PointPair{p}, nil
	}
	return nil, errors.New("unsupported wkt type")
}
