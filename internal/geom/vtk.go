package geom

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadVTK reads a legacy ASCII VTK file whose POINTS hold persistence pairs:
// point 2i is the lower and point 2i+1 the upper critical point. A point data
// array whose name contains "critical" supplies the critical type markers.
func LoadVTK(path string) ([]PointPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadVTK(f)
}

// ReadVTK parses legacy VTK from r. See LoadVTK.
func ReadVTK(r io.Reader) ([]PointPair, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var header []string
	for len(header) < 3 && sc.Scan() {
		header = append(header, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(header) < 3 || !strings.HasPrefix(strings.ToLower(header[0]), "# vtk datafile") {
		return nil, errors.New("vtk: missing header")
	}
	switch strings.ToUpper(header[2]) {
	case "ASCII":
	case "BINARY":
		return nil, errors.New("vtk: binary files are not supported")
	default:
		return nil, fmt.Errorf("vtk: unknown encoding %q", header[2])
	}

	var toks []string
	for sc.Scan() {
		toks = append(toks, strings.Fields(sc.Text())...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	t := &vtkTokens{toks: toks}
	var (
		coords      []float64
		critical    []float64
		inPointData bool
		dataLen     int
	)
	for !t.done() {
		kw := strings.ToUpper(t.next())
		switch kw {
		case "DATASET":
			t.next()
		case "POINTS":
			n, err := t.count()
			if err != nil {
				return nil, fmt.Errorf("vtk: POINTS: %w", err)
			}
			t.next() // data type
			if coords, err = t.floats(3 * n); err != nil {
				return nil, fmt.Errorf("vtk: POINTS: %w", err)
			}
		case "POINT_DATA":
			n, err := t.count()
			if err != nil {
				return nil, fmt.Errorf("vtk: POINT_DATA: %w", err)
			}
			inPointData, dataLen = true, n
		case "CELL_DATA":
			n, err := t.count()
			if err != nil {
				return nil, fmt.Errorf("vtk: CELL_DATA: %w", err)
			}
			inPointData, dataLen = false, n
		case "SCALARS":
			name := t.next()
			t.next() // data type
			comps := 1
			if n, err := strconv.Atoi(t.peek()); err == nil && strings.EqualFold(t.at(1), "LOOKUP_TABLE") {
				comps = n
				t.next()
			}
			if strings.EqualFold(t.peek(), "LOOKUP_TABLE") {
				t.next()
				t.next()
			}
			vals, err := t.floats(comps * dataLen)
			if err != nil {
				return nil, fmt.Errorf("vtk: SCALARS %s: %w", name, err)
			}
			if inPointData && comps == 1 && isCriticalName(name) {
				critical = vals
			}
		case "FIELD":
			t.next() // field name
			arrays, err := t.count()
			if err != nil {
				return nil, fmt.Errorf("vtk: FIELD: %w", err)
			}
			for range arrays {
				name := t.next()
				comps, err1 := t.count()
				tuples, err2 := t.count()
				if err := errors.Join(err1, err2); err != nil {
					return nil, fmt.Errorf("vtk: FIELD array %s: %w", name, err)
				}
				t.next() // data type
				vals, err := t.floats(comps * tuples)
				if err != nil {
					return nil, fmt.Errorf("vtk: FIELD array %s: %w", name, err)
				}
				if inPointData && comps == 1 && isCriticalName(name) {
					critical = vals
				}
			}
		case "VECTORS", "NORMALS", "TENSORS", "COLOR_SCALARS", "LOOKUP_TABLE":
			t.skip(2)
			t.skipNumbers()
		case "TEXTURE_COORDINATES":
			t.skip(3)
			t.skipNumbers()
		case "OFFSETS", "CONNECTIVITY":
			t.skip(1)
			t.skipNumbers()
		default:
			// VERTICES, LINES, POLYGONS, CELLS, CELL_TYPES, METADATA and friends
			t.skipNumbers()
		}
	}

	if len(coords) == 0 {
		return nil, errors.New("vtk: no points")
	}
	n := len(coords) / 3
	if n%2 != 0 {
		return nil, fmt.Errorf("vtk: odd number of points (%d), expected lower/upper pairs", n)
	}
	if critical != nil && len(critical) != n {
		critical = nil
	}
	pairs := make([]PointPair, 0, n/2)
	for i := 0; i < len(coords); i += 6 {
		lower := Point3D{coords[i], coords[i+1], coords[i+2]}
		upper := Point3D{coords[i+3], coords[i+4], coords[i+5]}
		ctl, ctu := NoCriticalType, NoCriticalType
		if critical != nil {
			ctl, ctu = int(critical[i/3]), int(critical[i/3+1])
		}
		pairs = append(pairs, NewTypedPointPair(lower, upper, ctl, ctu))
	}
	return pairs, nil
}

func isCriticalName(name string) bool {
	return strings.Contains(strings.ToLower(name), "critical")
}

type vtkTokens struct {
	toks []string
	pos  int
}

func (t *vtkTokens) done() bool { return t.pos >= len(t.toks) }

func (t *vtkTokens) peek() string { return t.at(0) }

func (t *vtkTokens) at(off int) string {
	if t.pos+off >= len(t.toks) {
		return ""
	}
	return t.toks[t.pos+off]
}

func (t *vtkTokens) next() string {
	s := t.peek()
	t.pos++
	return s
}

func (t *vtkTokens) skip(n int) {
	t.pos += n
}

func (t *vtkTokens) count() (int, error) {
	s := t.next()
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("expected integer, got %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative count %d", n)
	}
	return n, nil
}

func (t *vtkTokens) floats(n int) ([]float64, error) {
	if t.pos+n > len(t.toks) {
		return nil, fmt.Errorf("expected %d values, file ends after %d", n, len(t.toks)-t.pos)
	}
	out := make([]float64, n)
	for i := range out {
		v, err := strconv.ParseFloat(t.toks[t.pos], 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = v
		t.pos++
	}
	return out, nil
}

func (t *vtkTokens) skipNumbers() {
	for !t.done() {
		if _, err := strconv.ParseFloat(t.peek(), 64); err != nil {
			return
		}
		t.pos++
	}
}
