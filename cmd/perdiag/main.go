package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"perdiag/internal/canvas"
	"perdiag/internal/config"
	"perdiag/internal/events"
	"perdiag/internal/geom"
	"perdiag/internal/render"
	"perdiag/internal/tui"
)

var flags struct {
	Config      string
	LogPath     string
	LogLevel    string
	PNG         string
	Width       int
	Height      int
	Persistence string
	Chunks      int
	Wait        time.Duration
	NoAxes      bool
	Timeout     time.Duration
}

func main() {
	flag.StringVar(&flags.Config, "config", "", "YAML settings file (defaults apply to missing keys)")
	flag.StringVar(&flags.LogPath, "log", "", "Write logs to this file (default: discard)")
	flag.StringVar(&flags.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.StringVar(&flags.PNG, "png", "", "Render the diagram to this PNG file and exit instead of starting the viewer")
	flag.IntVar(&flags.Width, "width", 0, "Canvas width in pixels for -png and viewer exports (0 = from settings)")
	flag.IntVar(&flags.Height, "height", 0, "Canvas height in pixels for -png and viewer exports (0 = from settings)")
	flag.StringVar(&flags.Persistence, "persistence", "", "Only draw pairs with persistence in min:max")
	flag.IntVar(&flags.Chunks, "chunks", 0, "Pairs drawn per scheduled step (0 = from settings)")
	flag.DurationVar(&flags.Wait, "wait", -1, "Delay between scheduled steps (negative = from settings)")
	flag.BoolVar(&flags.NoAxes, "no-axes", false, "Do not draw axes")
	flag.DurationVar(&flags.Timeout, "timeout", time.Minute, "Give up on -png rendering after this long")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [diagram.vtk|.csv|.json|.wkt]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, closeLog, err := newLogger(flags.LogPath, flags.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer closeLog()

	settings, err := loadSettings()
	if err != nil {
		log.Fatal(err)
	}
	var pers *geom.Bounds
	if flags.Persistence != "" {
		b, err := parseRange(flags.Persistence)
		if err != nil {
			log.Fatalf("-persistence: %v", err)
		}
		pers = &b
	}

	if flags.PNG != "" {
		if flag.NArg() != 1 {
			log.Fatal("-png needs exactly one diagram file")
		}
		if err := renderPNG(logger, settings, flag.Arg(0), flags.PNG, pers); err != nil {
			log.Fatal(err)
		}
		return
	}

	if err := runViewer(logger, settings, pers); err != nil {
		log.Fatal(err)
	}
}

func newLogger(path, level string) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("-log-level: %w", err)
	}
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	l := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(l)
	return l, func() { f.Close() }, nil
}

// loadSettings applies the config file and then the flags that were set.
func loadSettings() (config.Settings, error) {
	s := config.Default()
	if flags.Config != "" {
		var err error
		if s, err = config.Load(flags.Config); err != nil {
			return s, err
		}
	}
	if flags.Width > 0 {
		s.CanvasWidth = flags.Width
	}
	if flags.Height > 0 {
		s.CanvasHeight = flags.Height
	}
	if flags.Chunks > 0 {
		s.Chunks = flags.Chunks
	}
	if flags.Wait >= 0 {
		s.WaitTime = flags.Wait
	}
	if flags.NoAxes {
		s.EnableAxes = false
	}
	return s, s.Validate()
}

// parseRange reads "min:max".
func parseRange(s string) (geom.Bounds, error) {
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return geom.Bounds{}, errors.New("expected min:max")
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return geom.Bounds{}, err
	}
	b, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return geom.Bounds{}, err
	}
	if a > b {
		return geom.Bounds{}, fmt.Errorf("min %g is above max %g", a, b)
	}
	return geom.NewBounds(a, b), nil
}

// renderPNG runs one full chunked pass onto a raster and writes it out.
func renderPNG(logger *slog.Logger, settings config.Settings, src, dst string, pers *geom.Bounds) error {
	ctx, cancel := context.WithTimeout(context.Background(), flags.Timeout)
	defer cancel()

	errs := make(chan error, 16)
	r := canvas.NewRaster(settings.CanvasWidth, settings.CanvasHeight, color.White)
	ctrl, err := render.New(settings, r,
		render.WithLogger(logger),
		render.WithErrorHandler(func(err error) {
			select {
			case errs <- err:
			default:
			}
		}),
	)
	if err != nil {
		return err
	}
	defer ctrl.Close()
	drawn, stop := ctrl.Events().Listen(4, events.PointsDrawn)
	defer stop()

	if err := ctrl.Load(ctx, src); err != nil {
		return err
	}
	if len(ctrl.Points()) == 0 {
		return fmt.Errorf("%s: no pairs", src)
	}
	if pers != nil {
		ctrl.SetActivePersistenceBounds(*pers)
	} else {
		ctrl.Update()
	}
	gen := ctrl.Generation()

wait:
	for {
		select {
		case ev := <-drawn:
			if v, ok := ev.Data.(render.View); ok && v.Generation == gen {
				break wait
			}
		case err := <-errs:
			return err
		case <-ctx.Done():
			return fmt.Errorf("render %s: %w", src, ctx.Err())
		}
	}

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := r.PNG(f); err != nil {
		f.Close()
		return err
	}
	logger.Info("png written", slog.String("src", src), slog.String("dst", dst))
	return f.Close()
}

func runViewer(logger *slog.Logger, settings config.Settings, pers *geom.Bounds) error {
	b := canvas.NewBraille(80, 24)
	// the viewer resizes the canvas to the terminal
	live := settings
	live.CanvasWidth, live.CanvasHeight = b.Size()
	live.Padding = tui.TerminalPadding
	ctrl, err := render.New(live, b, render.WithLogger(logger))
	if err != nil {
		return err
	}
	defer ctrl.Close()

	opts := tui.Options{
		Logger:        logger,
		ExportPath:    "perdiag.png",
		ExportWidth:   settings.CanvasWidth,
		ExportHeight:  settings.CanvasHeight,
		ExportPadding: settings.Padding,
		Persistence:   pers,
	}
	var m tea.Model
	if flag.NArg() > 0 {
		m = tui.NewWithPath(ctrl, b, opts, flag.Arg(0))
	} else {
		m = tui.New(ctrl, b, opts)
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}
