package pipeline

import (
	"context"
	"errors"
	"math"
	"slices"
	"sync"
	"testing"
	"time"

	"seehuhn.de/go/geom/rect"

	"perdiag/internal/geom"
)

func pair(x, y1, y2 float64) geom.PointPair {
	return geom.NewPointPair(geom.Point3D{X: x, Y: y1}, geom.Point3D{X: x, Y: y2})
}

func samplePairs(n int) []geom.PointPair {
	out := make([]geom.PointPair, n)
	for i := range out {
		out[i] = pair(float64(i), float64(i), float64(i+i%4))
	}
	return out
}

func TestFilterUnsetIsIdentity(t *testing.T) {
	for _, n := range []int{0, 1, 7, 50} {
		in := samplePairs(n)
		out, err := Filter(in, geom.Unbounded(), geom.Unbounded(), nil)
		if err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		if !slices.Equal(in, out) {
			t.Fatalf("n=%d: filter changed the input", n)
		}
	}
}

func TestFilterPersistenceInclusive(t *testing.T) {
	in := samplePairs(40)
	for _, b := range []geom.Bounds{geom.NewBounds(1, 2), geom.NewBounds(0, 0), geom.NewBounds(3, 3), geom.NewBounds(-1, 10)} {
		out, err := Filter(in, geom.Unbounded(), b, nil)
		if err != nil {
			t.Fatalf("%v: %v", b, err)
		}
		for _, p := range out {
			if p.Persistence() < b.Min || p.Persistence() > b.Max {
				t.Fatalf("%v: kept persistence %v", b, p.Persistence())
			}
		}
		kept := 0
		for _, p := range in {
			if p.Persistence() >= b.Min && p.Persistence() <= b.Max {
				kept++
			}
		}
		if kept != len(out) {
			t.Fatalf("%v: kept %d, want %d", b, len(out), kept)
		}
	}
}

func TestFilterPersistenceScenario(t *testing.T) {
	in := []geom.PointPair{pair(0, 0, 1), pair(1, 0, 5), pair(2, 0, 9)}
	out, err := Filter(in, geom.Unbounded(), geom.NewBounds(4, 9), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].Persistence() != 5 || out[1].Persistence() != 9 {
		t.Fatalf("got %v", out)
	}
}

func TestFilterSelection(t *testing.T) {
	in := samplePairs(10)
	m, err := NewMapper(geom.NewBounds(0, 9), geom.NewBounds(0, 12), rect.Rect{LLx: 0, URx: 90, LLy: 100, URy: 0})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Filter(in, geom.NewBounds(20, 50), geom.Unbounded(), m.ToScreenX)
	if err != nil {
		t.Fatal(err)
	}
	var xs []float64
	for _, p := range out {
		xs = append(xs, p.Lower().X)
	}
	if !slices.Equal(xs, []float64{2, 3, 4, 5}) {
		t.Fatalf("selected xs = %v", xs)
	}
}

func TestFilterSelectionWithoutMapper(t *testing.T) {
	_, err := Filter(samplePairs(3), geom.NewBounds(0, 1), geom.Unbounded(), nil)
	if !errors.Is(err, ErrDegenerateRange) {
		t.Fatalf("err = %v, want ErrDegenerateRange", err)
	}
}

func TestChunk(t *testing.T) {
	for _, tc := range []struct{ len, n int }{{0, 3}, {5, 2}, {6, 3}, {1, 10}, {101, 100}} {
		in := samplePairs(tc.len)
		chunks := Chunk(in, tc.n)
		want := (tc.len + tc.n - 1) / tc.n
		if len(chunks) != want {
			t.Fatalf("%v: %d chunks, want %d", tc, len(chunks), want)
		}
		var joined []geom.PointPair
		for i, c := range chunks {
			if i < len(chunks)-1 && len(c) != tc.n {
				t.Fatalf("%v: chunk %d has %d", tc, i, len(c))
			}
			joined = append(joined, c...)
		}
		if !slices.Equal(joined, in) {
			t.Fatalf("%v: chunks do not reassemble the input", tc)
		}
	}
	var sizes []int
	for _, c := range Chunk(samplePairs(5), 2) {
		sizes = append(sizes, len(c))
	}
	if !slices.Equal(sizes, []int{2, 2, 1}) {
		t.Fatalf("sizes = %v", sizes)
	}
}

func TestMapperMonotonic(t *testing.T) {
	x, y := geom.NewBounds(-3, 7), geom.NewBounds(2, 4)
	normal, err := NewMapper(x, y, rect.Rect{LLx: 10, URx: 110, LLy: 0, URy: 50})
	if err != nil {
		t.Fatal(err)
	}
	inverted, err := NewMapper(x, y, rect.Rect{LLx: 10, URx: 110, LLy: 50, URy: 0})
	if err != nil {
		t.Fatal(err)
	}
	if got := normal.ToScreenX(-3); got != 10 {
		t.Fatalf("ToScreenX(min) = %v", got)
	}
	if got := normal.ToScreenX(7); got != 110 {
		t.Fatalf("ToScreenX(max) = %v", got)
	}
	for v := 2.0; v < 4; v += 0.25 {
		if normal.ToScreenY(v) > normal.ToScreenY(v+0.25) {
			t.Fatalf("normal range not order preserving at %v", v)
		}
		if inverted.ToScreenY(v) < inverted.ToScreenY(v+0.25) {
			t.Fatalf("inverted range not order reversing at %v", v)
		}
	}
	if got := inverted.ToScreenY(2); got != 50 {
		t.Fatalf("inverted ToScreenY(min) = %v", got)
	}
	if got := normal.FromScreenX(normal.ToScreenX(1.5)); math.Abs(got-1.5) > 1e-9 {
		t.Fatalf("FromScreenX round trip = %v", got)
	}
}

func TestMapperDegenerate(t *testing.T) {
	area := rect.Rect{URx: 1, LLy: 1}
	for _, b := range []geom.Bounds{geom.NewBounds(1, 1), geom.Unbounded(), geom.NewBounds(math.NaN(), 1)} {
		_, err := NewMapper(b, geom.NewBounds(0, 1), area)
		var de *DegenerateRangeError
		if !errors.As(err, &de) || de.Axis != "x" {
			t.Fatalf("%v: err = %v", b, err)
		}
	}
}

func TestSchedulerTiming(t *testing.T) {
	s := Scheduler{Wait: 10 * time.Millisecond}
	var (
		mu    sync.Mutex
		order []int
	)
	start := time.Now()
	p := s.Draw(context.Background(), Chunk(samplePairs(5), 2), func(c []geom.PointPair, i int) error {
		mu.Lock()
		order = append(order, i)
		mu.Unlock()
		return nil
	})
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if el := time.Since(start); el < 20*time.Millisecond {
		t.Fatalf("pass settled after %s, want >= 20ms", el)
	}
	if p.Drawn() != 3 {
		t.Fatalf("drawn = %d", p.Drawn())
	}
	if !slices.Equal(order, []int{0, 1, 2}) {
		t.Fatalf("order = %v", order)
	}
}

func TestSchedulerChunkErrorsIsolated(t *testing.T) {
	s := Scheduler{}
	boom := errors.New("boom")
	p := s.Draw(context.Background(), Chunk(samplePairs(8), 2), func(c []geom.PointPair, i int) error {
		switch i {
		case 1:
			return boom
		case 2:
			panic("bad chunk")
		}
		return nil
	})
	err := p.Wait(context.Background())
	var ce *ChunkError
	if !errors.As(err, &ce) || ce.Index != 1 || !errors.Is(err, boom) {
		t.Fatalf("err = %v, want chunk 1 boom", err)
	}
	if p.Drawn() != 2 {
		t.Fatalf("drawn = %d, want 2", p.Drawn())
	}
}

func TestSchedulerEmpty(t *testing.T) {
	p := Scheduler{Wait: time.Hour}.Draw(context.Background(), nil, nil)
	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatalf("empty pass never settled")
	}
}

func TestSchedulerCancel(t *testing.T) {
	s := Scheduler{Wait: 50 * time.Millisecond}
	started := make(chan struct{}, 4)
	p := s.Draw(context.Background(), Chunk(samplePairs(4), 1), func(c []geom.PointPair, i int) error {
		started <- struct{}{}
		return nil
	})
	<-started
	p.Cancel()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if p.Drawn() != 1 {
		t.Fatalf("drawn = %d after cancel, want 1", p.Drawn())
	}
}
