package render

import (
	"context"
	"errors"
	"image/color"
	"slices"
	"sync"
	"testing"
	"time"

	"seehuhn.de/go/geom/vec"

	"perdiag/internal/config"
	"perdiag/internal/events"
	"perdiag/internal/geom"
	"perdiag/internal/pipeline"
)

type segment struct{ a, b vec.Vec2 }

// recSurface records what is drawn since the last Clear.
type recSurface struct {
	mu     sync.Mutex
	w, h   int
	lines  []segment
	texts  []string
	clears int
}

func newRecSurface(w, h int) *recSurface { return &recSurface{w: w, h: h} }

func (s *recSurface) Size() (int, int) { return s.w, s.h }

func (s *recSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines, s.texts = nil, nil
	s.clears++
}

func (s *recSurface) Line(a, b vec.Vec2, _ color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, segment{a, b})
}

func (s *recSurface) Text(_ vec.Vec2, str string, _ color.Color) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.texts = append(s.texts, str)
}

func (s *recSurface) TextWidth(str string) float64 { return float64(len(str)) }
func (s *recSurface) LineHeight() float64         { return 1 }

func (s *recSurface) snapshot() ([]segment, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lines), slices.Clone(s.texts)
}

// pairsWith builds one pair per persistence value at x = index.
func pairsWith(pers ...float64) []geom.PointPair {
	out := make([]geom.PointPair, len(pers))
	for i, p := range pers {
		x := float64(i)
		out[i] = geom.NewPointPair(geom.Point3D{X: x, Y: x}, geom.Point3D{X: x, Y: x + p})
	}
	return out
}

func staticLoader(pts []geom.PointPair) geom.Loader {
	return geom.LoaderFunc(func(ctx context.Context, source string) (geom.Data, error) {
		return geom.NewData(pts), nil
	})
}

func testSettings() config.Settings {
	s := config.Default()
	s.WaitTime = 0
	s.EnableAxes = false
	return s
}

func newTestController(t *testing.T, s config.Settings, surf *recSurface, pts []geom.PointPair, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithLoader(staticLoader(pts))}, opts...)
	var c *Controller
	var err error
	if surf == nil {
		c, err = New(s, nil, opts...)
	} else {
		c, err = New(s, surf, opts...)
	}
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(c.Close)
	if pts != nil {
		if err := c.Load(context.Background(), "test"); err != nil {
			t.Fatalf("Load: %v", err)
		}
	}
	return c
}

// waitDrawn waits for PointsDrawn of generation gen.
func waitDrawn(t *testing.T, ch <-chan events.Event, gen uint64) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-ch:
			if v, ok := ev.Data.(View); ok && v.Generation == gen {
				return
			}
		case <-timeout:
			t.Fatalf("no PointsDrawn for generation %d", gen)
		}
	}
}

func TestUnloadedState(t *testing.T) {
	c := newTestController(t, testSettings(), newRecSurface(500, 500), nil)
	if c.Loaded() {
		t.Fatalf("new controller reports loaded")
	}
	if len(c.Points()) != 0 {
		t.Fatalf("unloaded points = %d", len(c.Points()))
	}
	if !c.PersistenceBounds().IsUnbounded() {
		t.Fatalf("unloaded persistence bounds = %+v", c.PersistenceBounds())
	}
	pts, err := c.FilteredPoints()
	if err != nil || len(pts) != 0 {
		t.Fatalf("unloaded FilteredPoints = %v, %v", pts, err)
	}
	c.Update()
}

func TestLoadResetsActiveBounds(t *testing.T) {
	c := newTestController(t, testSettings(), newRecSurface(500, 500), pairsWith(1, 5, 9))
	loaded := 0
	c.Events().On(events.DataLoaded, func(events.Event) { loaded++ })

	c.SetActivePersistenceBounds(geom.NewBounds(4, 9))
	c.SetActiveSelectionBounds(&geom.Bounds{Min: 100, Max: 200, Width: 100})
	if err := c.Load(context.Background(), "again"); err != nil {
		t.Fatal(err)
	}
	if loaded != 1 {
		t.Fatalf("DataLoaded dispatched %d times", loaded)
	}
	if !c.ActivePersistenceBounds().Equal(c.PersistenceBounds()) {
		t.Fatalf("active persistence not reset: %+v", c.ActivePersistenceBounds())
	}
	if _, set := c.ActiveSelectionBounds(); set {
		t.Fatalf("selection not reset")
	}
	if c.XMin() != 0 || c.XMax() != 2 || c.YMin() != 0 || c.YMax() != 11 {
		t.Fatalf("bounds = %v", c.Bounds())
	}
}

func TestLoadFailureKeepsState(t *testing.T) {
	c := newTestController(t, testSettings(), newRecSurface(500, 500), pairsWith(1, 2))
	boom := errors.New("unreadable")
	bad := geom.LoaderFunc(func(context.Context, string) (geom.Data, error) { return geom.Data{}, boom })

	err := c.LoadWith(context.Background(), bad, "broken.vtk")
	var le *geom.LoadError
	if !errors.As(err, &le) || le.Source != "broken.vtk" || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want LoadError wrapping boom", err)
	}
	if !c.Loaded() || len(c.Points()) != 2 {
		t.Fatalf("state changed by failed load: loaded=%v points=%d", c.Loaded(), len(c.Points()))
	}
}

func TestPersistenceFilterThroughController(t *testing.T) {
	c := newTestController(t, testSettings(), newRecSurface(500, 500), pairsWith(1, 5, 9))
	c.SetActivePersistenceBounds(geom.NewBounds(4, 9))
	pts, err := c.FilteredPoints()
	if err != nil {
		t.Fatal(err)
	}
	var got []float64
	for _, p := range pts {
		got = append(got, p.Persistence())
	}
	if !slices.Equal(got, []float64{5, 9}) {
		t.Fatalf("persistences = %v", got)
	}
	chunks, err := c.FilteredPointsChunked()
	if err != nil || len(chunks) != 1 {
		t.Fatalf("chunks = %v, %v", chunks, err)
	}
}

func TestMissingSurfaceReported(t *testing.T) {
	var got []error
	c := newTestController(t, testSettings(), nil, pairsWith(1, 2), WithErrorHandler(func(err error) { got = append(got, err) }))
	evErrs := 0
	c.Events().On(events.Error, func(events.Event) { evErrs++ })
	c.Update()
	var mce *MissingContextError
	if len(got) == 0 || !errors.As(got[0], &mce) {
		t.Fatalf("errors = %v, want MissingContextError", got)
	}
	if evErrs == 0 {
		t.Fatalf("no error event")
	}
	if err := c.Export(context.Background(), nil); !errors.As(err, &mce) {
		t.Fatalf("Export(nil) = %v", err)
	}
}

func TestDegenerateRangeReported(t *testing.T) {
	var (
		mu  sync.Mutex
		got error
	)
	surf := newRecSurface(500, 500)
	c := newTestController(t, testSettings(), surf, pairsWith(1, 2, 3), WithErrorHandler(func(err error) {
		mu.Lock()
		got = err
		mu.Unlock()
	}))
	ch, stop := c.Events().Listen(4, events.PointsDrawn)
	defer stop()
	c.Update()
	waitDrawn(t, ch, c.Generation())
	if lines, _ := surf.snapshot(); len(lines) == 0 {
		t.Fatalf("nothing drawn for the first dataset")
	}

	one := []geom.PointPair{geom.NewPointPair(geom.Point3D{X: 1, Y: 1}, geom.Point3D{X: 1, Y: 2})}
	if err := c.LoadWith(context.Background(), staticLoader(one), "one"); err != nil {
		t.Fatalf("LoadWith: %v", err)
	}
	c.Update()
	mu.Lock()
	err := got
	mu.Unlock()
	if !errors.Is(err, pipeline.ErrDegenerateRange) {
		t.Fatalf("err = %v, want degenerate range", err)
	}
	if lines, texts := surf.snapshot(); len(lines) != 0 || len(texts) != 0 {
		t.Fatalf("canvas kept %d lines and %d labels of the old dataset", len(lines), len(texts))
	}
}

func TestOnePointsDrawnPerPass(t *testing.T) {
	s := testSettings()
	s.Chunks = 2
	s.WaitTime = 10 * time.Millisecond
	c := newTestController(t, s, newRecSurface(500, 500), pairsWith(1, 2, 3, 4, 5))

	var (
		mu             sync.Mutex
		drawn, cleared int
	)
	c.Events().On(events.PointsDrawn, func(events.Event) { mu.Lock(); drawn++; mu.Unlock() })
	c.Events().On(events.PointsCleared, func(events.Event) { mu.Lock(); cleared++; mu.Unlock() })
	ch, stop := c.Events().Listen(4, events.PointsDrawn)
	defer stop()

	start := time.Now()
	c.Update()
	waitDrawn(t, ch, c.Generation())
	if el := time.Since(start); el < 20*time.Millisecond {
		t.Fatalf("pass finished after %s, want >= 20ms", el)
	}
	if p := c.Renderer().Pass(); p == nil || p.Drawn() != 3 {
		t.Fatalf("pass drew %v chunks", p)
	}
	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if drawn != 1 || cleared != 1 {
		t.Fatalf("drawn=%d cleared=%d, want 1 and 1", drawn, cleared)
	}
}

func TestRapidSelectionShowsOnlyLatest(t *testing.T) {
	s := testSettings()
	s.Chunks = 1
	s.WaitTime = 5 * time.Millisecond
	surf := newRecSurface(500, 500)
	c := newTestController(t, s, surf, pairsWith(1, 1, 1, 1, 1, 1, 1, 1, 1, 1))
	ch, stop := c.Events().Listen(8, events.PointsDrawn)
	defer stop()

	// x 0..9 maps onto 20..490
	first := geom.NewBounds(0, 250)
	second := geom.NewBounds(250, 500)
	c.SetActiveSelectionBounds(&first)
	c.SetActiveSelectionBounds(&second)
	waitDrawn(t, ch, c.Generation())
	time.Sleep(80 * time.Millisecond)

	want, err := c.FilteredPoints()
	if err != nil {
		t.Fatal(err)
	}
	lines, _ := surf.snapshot()
	if len(lines) != len(want)+1 {
		t.Fatalf("canvas has %d lines, want diagonal + %d", len(lines), len(want))
	}
	m, _ := c.Snapshot().Mapper()
	for i, p := range want {
		if got := lines[i+1].a.X; got != m.ToScreenX(p.Lower().X) {
			t.Fatalf("line %d at x=%v, want %v", i+1, got, m.ToScreenX(p.Lower().X))
		}
		if lines[i+1].a.X < second.Min {
			t.Fatalf("line from the superseded selection at x=%v", lines[i+1].a.X)
		}
	}
}

func TestCustomPointDraw(t *testing.T) {
	var (
		mu    sync.Mutex
		calls int
	)
	draw := func(p geom.PointPair, pen Pen) error {
		mu.Lock()
		calls++
		mu.Unlock()
		pen.Surface.Line(pen.Mapper.ToScreen(p.Upper()), pen.Mapper.ToScreen(p.Upper()), nil)
		return nil
	}
	c := newTestController(t, testSettings(), newRecSurface(500, 500), pairsWith(1, 2, 3), WithPointDrawFunc(draw))
	ch, stop := c.Events().Listen(2, events.PointsDrawn)
	defer stop()
	c.Update()
	waitDrawn(t, ch, c.Generation())
	mu.Lock()
	defer mu.Unlock()
	if calls != 3 {
		t.Fatalf("draw func called %d times", calls)
	}
}

func TestChunkErrorReported(t *testing.T) {
	boom := errors.New("ink ran out")
	errs := make(chan error, 4)
	draw := func(p geom.PointPair, pen Pen) error { return boom }
	c := newTestController(t, testSettings(), newRecSurface(500, 500), pairsWith(1, 2),
		WithPointDrawFunc(draw), WithErrorHandler(func(err error) { errs <- err }))
	c.Update()
	select {
	case err := <-errs:
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("chunk error not reported")
	}
}

func TestSliderLifecycle(t *testing.T) {
	s := testSettings()
	c := newTestController(t, s, newRecSurface(500, 500), pairsWith(0, 10))
	var seen []events.Type
	var mu sync.Mutex
	c.Events().OnAny(func(e events.Event) {
		switch e.Type {
		case events.SliderCreated, events.SliderDestroyed, events.PersistenceBoundsUpdating, events.PersistenceBoundsSet:
			mu.Lock()
			seen = append(seen, e.Type)
			mu.Unlock()
		}
	})
	sl := c.Slider()
	if sl == nil {
		t.Fatalf("slider not registered")
	}
	c.Update()
	sl.Nudge(LowerHandle, 30)
	sel, _ := sl.Selected()
	if sel.Min != 3 || sel.Max != 10 {
		t.Fatalf("after nudge = %+v", sel)
	}
	sl.Nudge(LowerHandle, 500)
	if sel, _ = sl.Selected(); sel.Min != 10 {
		t.Fatalf("lower handle passed the upper: %+v", sel)
	}
	sl.Set(3, 10)
	sl.Commit()
	if got := c.ActivePersistenceBounds(); !got.Equal(geom.NewBounds(3, 10)) {
		t.Fatalf("active persistence = %+v", got)
	}
	if err := c.Load(context.Background(), "reload"); err != nil {
		t.Fatal(err)
	}
	c.Update()

	mu.Lock()
	defer mu.Unlock()
	want := []events.Type{
		events.SliderCreated,
		events.PersistenceBoundsUpdating,
		events.PersistenceBoundsUpdating,
		events.PersistenceBoundsUpdating,
		events.PersistenceBoundsSet,
		events.SliderDestroyed,
		events.SliderCreated,
	}
	if !slices.Equal(seen, want) {
		t.Fatalf("events = %v\nwant     %v", seen, want)
	}
	if sl.Element().View() == "" {
		t.Fatalf("slider has no view")
	}
}

func TestControlElementsTrackState(t *testing.T) {
	c := newTestController(t, testSettings(), newRecSurface(500, 500), pairsWith(1, 2, 3))
	for _, ctl := range c.Controls() {
		if ctl.Element().ID() == "" {
			t.Fatalf("%T has no element id", ctl)
		}
	}
	el := c.Selection().Element()
	if el.View() != "" {
		t.Fatalf("idle selection view = %q", el.View())
	}
	c.Selection().Begin(100)
	c.Selection().Drag(200)
	if got := el.View(); got != "selecting x 100…200" {
		t.Fatalf("view during drag = %q", got)
	}
}

func TestSelectionGestures(t *testing.T) {
	c := newTestController(t, testSettings(), newRecSurface(500, 500), pairsWith(1, 2, 3))
	sel := c.Selection()
	if sel == nil {
		t.Fatalf("selection not registered")
	}
	var ends, hidden int
	c.Events().On(events.SelectionEnd, func(events.Event) { ends++ })
	c.Events().On(events.SelectionHidden, func(events.Event) { hidden++ })

	if sel.Begin(5) {
		t.Fatalf("press inside half the left padding accepted")
	}
	if !sel.Begin(100) {
		t.Fatalf("press rejected")
	}
	sel.Drag(102)
	sel.End(102)
	if _, set := c.ActiveSelectionBounds(); set || ends != 0 {
		t.Fatalf("narrow selection applied")
	}

	sel.Begin(300)
	sel.Drag(200)
	if b, ok := sel.Dragging(); !ok || b.Min != 200 || b.Max != 300 {
		t.Fatalf("dragging = %+v %v", b, ok)
	}
	sel.End(100)
	b, set := c.ActiveSelectionBounds()
	if !set || b.Min != 100 || b.Max != 300 || ends != 1 {
		t.Fatalf("selection = %+v set=%v ends=%d", b, set, ends)
	}

	sel.Clear()
	if _, set := c.ActiveSelectionBounds(); set || hidden != 1 {
		t.Fatalf("clear left selection set=%v hidden=%d", set, hidden)
	}
}

func TestResizeClearsSelection(t *testing.T) {
	c := newTestController(t, testSettings(), newRecSurface(500, 500), pairsWith(1, 2, 3))
	c.SetActiveSelectionBounds(&geom.Bounds{Min: 50, Max: 300, Width: 250})
	if err := c.Resize(200, 100); err != nil {
		t.Fatal(err)
	}
	if _, set := c.ActiveSelectionBounds(); set {
		t.Fatalf("selection survived resize")
	}
	if got := c.Settings().CanvasWidth; got != 200 {
		t.Fatalf("canvas width = %d", got)
	}
	var ce *config.ConfigurationError
	if err := c.Resize(10, 10); !errors.As(err, &ce) {
		t.Fatalf("Resize below padding = %v", err)
	}
}

func TestAxesFollowPointsDrawn(t *testing.T) {
	s := testSettings()
	s.EnableAxes = true
	surf := newRecSurface(500, 500)
	c := newTestController(t, s, surf, pairsWith(1, 2, 3))
	ch, stop := c.Events().Listen(2, events.PointsDrawn)
	defer stop()
	c.Update()
	waitDrawn(t, ch, c.Generation())

	lines, texts := surf.snapshot()
	// diagonal + 3 pairs + 2 axis lines + 6 ticks per axis
	if len(lines) != 1+3+2+12 {
		t.Fatalf("lines = %d", len(lines))
	}
	if len(texts) != 12 || texts[0] != "0.00" || texts[5] != "2.00" {
		t.Fatalf("labels = %v", texts)
	}
}

func TestExport(t *testing.T) {
	s := testSettings()
	s.EnableAxes = true
	c := newTestController(t, s, newRecSurface(500, 500), pairsWith(1, 5, 9))
	c.SetActivePersistenceBounds(geom.NewBounds(4, 9))

	out := newRecSurface(300, 200)
	if err := c.Export(context.Background(), out); err != nil {
		t.Fatalf("Export: %v", err)
	}
	lines, texts := out.snapshot()
	if len(lines) != 1+2+2+12 || len(texts) != 12 {
		t.Fatalf("export drew %d lines, %d labels", len(lines), len(texts))
	}
	if out.clears != 1 {
		t.Fatalf("export cleared %d times", out.clears)
	}
}

func TestExportRescalesSelection(t *testing.T) {
	c := newTestController(t, testSettings(), newRecSurface(500, 500), pairsWith(1, 1, 1, 1, 1, 1, 1, 1, 1, 1))
	// x 5..9 on the 500px canvas
	sel := geom.NewBounds(250, 500)
	c.SetActiveSelectionBounds(&sel)

	out := newRecSurface(1000, 250)
	if err := c.Export(context.Background(), out); err != nil {
		t.Fatal(err)
	}
	lines, _ := out.snapshot()
	if len(lines) != 1+5 {
		t.Fatalf("export drew %d lines, want diagonal + 5", len(lines))
	}
	if got := lines[1].a.X; got < 500 {
		t.Fatalf("first exported pair at x=%v, want the right half", got)
	}
}
