package geom

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Loader turns a source (usually a path) into point pairs.
type Loader interface {
	Load(ctx context.Context, source string) (Data, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, source string) (Data, error)

func (f LoaderFunc) Load(ctx context.Context, source string) (Data, error) { return f(ctx, source) }

// LoadError reports a dataset that could not be loaded. The caller may retry
// with another source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Extensions lists the file types FileLoader understands.
var Extensions = []string{".vtk", ".csv", ".json", ".wkt"}

// FileLoader picks a parser by file extension.
type FileLoader struct{}

func (FileLoader) Load(ctx context.Context, path string) (Data, error) {
	if err := ctx.Err(); err != nil {
		return Data{}, &LoadError{Source: path, Err: err}
	}
	var (
		pts []PointPair
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".vtk":
		pts, err = LoadVTK(path)
	case ".csv":
		pts, err = LoadCSV(path)
	case ".json":
		pts, err = LoadJSON(path)
	case ".wkt":
		var b []byte
		b, err = os.ReadFile(path)
		if err == nil {
			pts, err = ParseWKT(string(b))
		}
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return Data{}, &LoadError{Source: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return Data{}, &LoadError{Source: path, Err: err}
	}
	return NewData(pts), nil
}

// WKTLoader treats the source itself as WKT text (paste mode).
type WKTLoader struct{}

func (WKTLoader) Load(_ context.Context, text string) (Data, error) {
	pts, err := ParseWKT(text)
	if err != nil {
		return Data{}, &LoadError{Source: "<pasted wkt>", Err: err}
	}
	return NewData(pts), nil
}

// Supported reports whether FileLoader can open path.
func Supported(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}
