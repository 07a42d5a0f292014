package geom

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// LoadJSON reads pairs from JSON. Accepted shapes:
//
//	[{"lower": [x, y, z], "upper": [x, y, z], "critical_types": [a, b]}, ...]
//	{"pairs": [...same as above...]}
//	{"points": [x1, y1, z1, x2, y2, z2, ...], "critical_types": [...]}
//
// The flat "points" form mirrors a raw point array dump: every six values make
// one pair.
func LoadJSON(path string) ([]PointPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

func ReadJSON(r io.Reader) ([]PointPair, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	parsePoint := func(v any) (Point3D, bool) {
		a, ok := v.([]any)
		if !ok || len(a) < 2 {
			return Point3D{}, false
		}
		var c [3]float64
		for i := 0; i < len(a) && i < 3; i++ {
			f, ok := a[i].(float64)
			if !ok {
				return Point3D{}, false
			}
			c[i] = f
		}
		return Point3D{X: c[0], Y: c[1], Z: c[2]}, true
	}
	parseTypes := func(v any) (int, int) {
		a, ok := v.([]any)
		if !ok || len(a) != 2 {
			return NoCriticalType, NoCriticalType
		}
		l, lok := a[0].(float64)
		u, uok := a[1].(float64)
		if !lok || !uok {
			return NoCriticalType, NoCriticalType
		}
		return int(l), int(u)
	}
	parsePairs := func(arr []any) ([]PointPair, error) {
		pairs := make([]PointPair, 0, len(arr))
		for i, el := range arr {
			obj, ok := el.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("json: pair %d is not an object", i)
			}
			lower, lok := parsePoint(obj["lower"])
			upper, uok := parsePoint(obj["upper"])
			if !lok || !uok {
				return nil, fmt.Errorf("json: pair %d needs lower and upper coordinates", i)
			}
			ctl, ctu := parseTypes(obj["critical_types"])
			pairs = append(pairs, NewTypedPointPair(lower, upper, ctl, ctu))
		}
		return pairs, nil
	}
	parseFlat := func(obj map[string]any) ([]PointPair, error) {
		arr, ok := obj["points"].([]any)
		if !ok {
			return nil, errors.New("json: points must be an array")
		}
		if len(arr)%6 != 0 {
			return nil, fmt.Errorf("json: %d coordinates do not form whole pairs", len(arr))
		}
		vals := make([]float64, len(arr))
		for i, v := range arr {
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("json: coordinate %d is not a number", i)
			}
			vals[i] = f
		}
		types, _ := obj["critical_types"].([]any)
		if len(types) != len(vals)/3 {
			types = nil
		}
		pairs := make([]PointPair, 0, len(vals)/6)
		for i := 0; i < len(vals); i += 6 {
			ctl, ctu := NoCriticalType, NoCriticalType
			if types != nil {
				ctl, ctu = parseTypes([]any{types[i/3], types[i/3+1]})
			}
			pairs = append(pairs, NewTypedPointPair(
				Point3D{X: vals[i], Y: vals[i+1], Z: vals[i+2]},
				Point3D{X: vals[i+3], Y: vals[i+4], Z: vals[i+5]},
				ctl, ctu,
			))
		}
		return pairs, nil
	}

	var pairs []PointPair
	switch v := raw.(type) {
	case []any:
		pairs, err = parsePairs(v)
	case map[string]any:
		if arr, ok := v["pairs"].([]any); ok {
			pairs, err = parsePairs(arr)
		} else if _, ok := v["points"]; ok {
			pairs, err = parseFlat(v)
		} else {
			err = errors.New("json: expected \"pairs\" or \"points\"")
		}
	default:
		err = errors.New("json: expected an array or an object")
	}
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, errors.New("json: no pairs found")
	}
	return pairs, nil
}
