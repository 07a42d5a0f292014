package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"seehuhn.de/go/geom/rect"

	"perdiag/internal/canvas"
)

// ConfigurationError reports an invalid setting or an unknown padding side.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

// Settings drives the renderer and its controls.
type Settings struct {
	CanvasWidth  int     `yaml:"canvas_width"`
	CanvasHeight int     `yaml:"canvas_height"`
	Padding      Padding `yaml:"padding"`

	StrokeStyle string `yaml:"stroke_style"`
	FillStyle   string `yaml:"fill_style"`

	// Chunks is the number of pairs drawn per scheduled step.
	Chunks   int           `yaml:"chunks"`
	WaitTime time.Duration `yaml:"wait_time"`

	EnableSelection bool `yaml:"enable_selection"`
	EnableSlider    bool `yaml:"enable_slider"`
	EnableAxes      bool `yaml:"enable_axes"`

	AxesTickCount     AxisInts   `yaml:"axes_tick_count"`
	AxesTickLength    AxisFloats `yaml:"axes_tick_length"`
	AxesTickFractions AxisInts   `yaml:"axes_tick_fractions"`
	AxesColor         string     `yaml:"axes_color"`
	AxesTickColor     string     `yaml:"axes_tick_color"`
	AxesTextColor     string     `yaml:"axes_text_color"`

	SelectionMinWidth float64 `yaml:"selection_min_width"`
}

func Default() Settings {
	return Settings{
		CanvasWidth:       500,
		CanvasHeight:      500,
		Padding:           Padding{Left: 20, Top: 10, Right: 10, Bottom: 20},
		StrokeStyle:       "#000",
		FillStyle:         "#000",
		Chunks:            100,
		WaitTime:          5 * time.Millisecond,
		EnableSelection:   true,
		EnableSlider:      true,
		EnableAxes:        true,
		AxesTickCount:     AxisInts{5, 5},
		AxesTickLength:    AxisFloats{5, 5},
		AxesTickFractions: AxisInts{2, 2},
		AxesColor:         "#000",
		AxesTickColor:     "#000",
		AxesTextColor:     "#000",
		SelectionMinWidth: 5,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Settings, error) {
	s := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(b, &s); err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			return s, ce
		}
		return s, fmt.Errorf("config %s: %w", path, err)
	}
	return s, s.Validate()
}

// Validate checks ranges and colour strings.
func (s Settings) Validate() error {
	if s.Chunks < 1 {
		return &ConfigurationError{Key: "chunks", Reason: "must be >= 1"}
	}
	if s.WaitTime < 0 {
		return &ConfigurationError{Key: "wait_time", Reason: "must be >= 0"}
	}
	if s.CanvasWidth < 1 || s.CanvasHeight < 1 {
		return &ConfigurationError{Key: "canvas_width/canvas_height", Reason: "must be >= 1"}
	}
	for _, side := range Sides {
		v, _ := s.Padding.Get(side)
		if v < 0 {
			return &ConfigurationError{Key: "padding." + side, Reason: "must be >= 0"}
		}
	}
	if s.Padding.Left+s.Padding.Right >= float64(s.CanvasWidth) {
		return &ConfigurationError{Key: "padding", Reason: "left+right leaves no drawing width"}
	}
	if s.Padding.Top+s.Padding.Bottom >= float64(s.CanvasHeight) {
		return &ConfigurationError{Key: "padding", Reason: "top+bottom leaves no drawing height"}
	}
	for i, n := range s.AxesTickCount {
		if n < 1 {
			return &ConfigurationError{Key: fmt.Sprintf("axes_tick_count[%d]", i), Reason: "must be >= 1"}
		}
	}
	for i, n := range s.AxesTickFractions {
		if n < 0 || n > 12 {
			return &ConfigurationError{Key: fmt.Sprintf("axes_tick_fractions[%d]", i), Reason: "must be in [0,12]"}
		}
	}
	if s.SelectionMinWidth < 0 {
		return &ConfigurationError{Key: "selection_min_width", Reason: "must be >= 0"}
	}
	colors := []struct{ key, val string }{
		{"stroke_style", s.StrokeStyle},
		{"fill_style", s.FillStyle},
		{"axes_color", s.AxesColor},
		{"axes_tick_color", s.AxesTickColor},
		{"axes_text_color", s.AxesTextColor},
	}
	for _, c := range colors {
		if _, err := canvas.ParseColor(c.val); err != nil {
			return &ConfigurationError{Key: c.key, Reason: err.Error()}
		}
	}
	return nil
}

// DrawingArea is the padded canvas rectangle in pixels. LLy is the bottom
// edge in canvas pixel space, so LLy > URy and the y axis maps inverted.
func (s Settings) DrawingArea() rect.Rect {
	return rect.Rect{
		LLx: s.Padding.Left,
		LLy: float64(s.CanvasHeight) - s.Padding.Bottom,
		URx: float64(s.CanvasWidth) - s.Padding.Right,
		URy: s.Padding.Top,
	}
}
