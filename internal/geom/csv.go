package geom

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// csvColumns maps each coordinate slot to its accepted header names.
var csvColumns = [6][]string{
	{"x1", "lower_x", "birth_x"},
	{"y1", "lower_y", "birth_y"},
	{"z1", "lower_z", "birth_z"},
	{"x2", "upper_x", "death_x"},
	{"y2", "upper_y", "death_y"},
	{"z2", "upper_z", "death_z"},
}

var csvCriticalColumns = [2][]string{
	{"ct1", "critical_type_lower", "lower_type"},
	{"ct2", "critical_type_upper", "upper_type"},
}

// LoadCSV reads one pair per row. Column detection is by header
// (x1,y1,z1,x2,y2,z2 or lower_x..upper_z, case-insensitive); z columns and
// critical type columns (ct1, ct2) are optional.
func LoadCSV(path string) ([]PointPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

func ReadCSV(r io.Reader) ([]PointPair, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, errors.New("empty csv")
	}
	header := recs[0]
	find := func(names []string) int {
		for i, h := range header {
			lh := strings.ToLower(strings.TrimSpace(h))
			for _, n := range names {
				if lh == n {
					return i
				}
			}
		}
		return -1
	}
	var idx [6]int
	for i, names := range csvColumns {
		idx[i] = find(names)
	}
	for _, required := range []int{0, 1, 3, 4} {
		if idx[required] == -1 {
			return nil, fmt.Errorf("csv: column %s not found", csvColumns[required][0])
		}
	}
	ctIdx := [2]int{find(csvCriticalColumns[0]), find(csvCriticalColumns[1])}

	var pairs []PointPair
	for line, row := range recs[1:] {
		var v [6]float64
		for i, col := range idx {
			if col == -1 {
				continue
			}
			if col >= len(row) {
				return nil, fmt.Errorf("csv: row %d: missing column %s", line+2, csvColumns[i][0])
			}
			x, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
			if err != nil {
				return nil, fmt.Errorf("csv: row %d: %w", line+2, err)
			}
			v[i] = x
		}
		ct := [2]int{NoCriticalType, NoCriticalType}
		for i, col := range ctIdx {
			if col == -1 || col >= len(row) {
				continue
			}
			if n, err := strconv.Atoi(strings.TrimSpace(row[col])); err == nil {
				ct[i] = n
			}
		}
		pairs = append(pairs, NewTypedPointPair(
			Point3D{X: v[0], Y: v[1], Z: v[2]},
			Point3D{X: v[3], Y: v[4], Z: v[5]},
			ct[0], ct[1],
		))
	}
	if len(pairs) == 0 {
		return nil, errors.New("csv: no pairs parsed")
	}
	return pairs, nil
}
