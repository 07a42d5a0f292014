// Package canvas holds the drawing surfaces the renderer paints on: a
// braille grid for terminals and an RGBA raster for image export.
package canvas

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
	"seehuhn.de/go/geom/vec"
)

// Surface is a 2D drawing target measured in pixels, origin top-left.
// Implementations must be safe for concurrent use.
type Surface interface {
	Size() (w, h int)
	Clear()
	Line(a, b vec.Vec2, c color.Color)
	// Text draws s with its top-left corner at at.
	Text(at vec.Vec2, s string, c color.Color)
	TextWidth(s string) float64
	LineHeight() float64
}

// ParseColor accepts #rgb, #rrggbb, rgb(), rgba() and the basic CSS names.
func ParseColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("empty colour")
	case strings.HasPrefix(s, "#"):
		hex := s[1:]
		if len(hex) != 3 && len(hex) != 6 {
			return nil, fmt.Errorf("bad hex colour %q", s)
		}
		for _, r := range hex {
			if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
				return nil, fmt.Errorf("bad hex colour %q", s)
			}
		}
		return drawing.ColorFromHex(hex), nil
	case strings.HasPrefix(s, "rgb"):
		return drawing.ParseColor(s), nil
	case strings.EqualFold(s, "transparent"):
		return drawing.ColorTransparent, nil
	}
	c := drawing.ColorFromKnown(s)
	if c.IsZero() {
		return nil, fmt.Errorf("unknown colour %q", s)
	}
	return c, nil
}

// MustParseColor is ParseColor for values already validated by config.
func MustParseColor(s string) color.Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}
