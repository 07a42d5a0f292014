package render

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"perdiag/internal/events"
	"perdiag/internal/geom"
)

// Handle picks one end of the slider.
type Handle int

const (
	LowerHandle Handle = iota
	UpperHandle
)

// SliderSteps is how many Nudge steps span the full range.
const SliderSteps = 100

var (
	sliderTrack = lipgloss.NewStyle().Foreground(lipgloss.Color("#374151"))
	sliderFill  = lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED"))
	sliderLabel = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Slider is a two-handle range over the dataset's persistence bounds.
// Handle moves are local until Commit hands them to the controller.
type Slider struct {
	host Host
	el   element

	mu      sync.Mutex
	created bool
	rng     geom.Bounds
	sel     geom.Bounds
	width   int
}

func newSlider(h Host) (Control, error) {
	s := &Slider{host: h, width: 40}
	s.el = element{id: h.ID, view: s.view}
	return s, nil
}

func (s *Slider) Element() Element { return s.el }

// Update recreates the slider unless its selection already matches the
// controller's active persistence bounds.
func (s *Slider) Update(v View) error {
	if !v.Loaded {
		return nil
	}
	s.mu.Lock()
	if s.created && s.sel.Equal(v.ActivePersistence) && s.rng.Equal(v.PersistenceBounds) {
		s.mu.Unlock()
		return nil
	}
	recreate := s.created
	s.created = false
	s.mu.Unlock()

	if recreate {
		s.host.Events.Dispatch(events.SliderDestroyed, nil)
	}

	s.mu.Lock()
	s.rng = v.PersistenceBounds
	s.sel = v.ActivePersistence
	s.created = true
	sel := s.sel
	s.mu.Unlock()
	s.host.Events.Dispatch(events.SliderCreated, sel)
	return nil
}

// Selected returns the handle positions.
func (s *Slider) Selected() (geom.Bounds, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel, s.created
}

// Nudge moves one handle by steps of 1/SliderSteps of the range. The handles
// never cross or leave the range.
func (s *Slider) Nudge(h Handle, steps int) {
	s.mu.Lock()
	if !s.created {
		s.mu.Unlock()
		return
	}
	d := s.rng.Width / SliderSteps * float64(steps)
	lo, hi := s.sel.Min, s.sel.Max
	if h == LowerHandle {
		lo = math.Min(math.Max(lo+d, s.rng.Min), hi)
	} else {
		hi = math.Max(math.Min(hi+d, s.rng.Max), lo)
	}
	s.mu.Unlock()
	s.Set(lo, hi)
}

// Set moves both handles, clamped to the range.
func (s *Slider) Set(lo, hi float64) {
	s.mu.Lock()
	if !s.created {
		s.mu.Unlock()
		return
	}
	lo = math.Max(lo, s.rng.Min)
	hi = math.Min(hi, s.rng.Max)
	if lo > hi {
		lo, hi = hi, lo
	}
	s.sel = geom.NewBounds(lo, hi)
	sel := s.sel
	s.mu.Unlock()
	s.host.Events.Dispatch(events.PersistenceBoundsUpdating, sel)
}

// Commit publishes the handle positions as the active persistence bounds.
func (s *Slider) Commit() {
	s.mu.Lock()
	if !s.created {
		s.mu.Unlock()
		return
	}
	sel := s.sel
	s.mu.Unlock()
	s.host.Events.Dispatch(events.PersistenceBoundsSet, sel)
	s.host.SetPersistence(sel)
}

// Reset moves the handles to the full range and commits.
func (s *Slider) Reset() {
	s.mu.Lock()
	rng, ok := s.rng, s.created
	s.mu.Unlock()
	if !ok {
		return
	}
	s.Set(rng.Min, rng.Max)
	s.Commit()
}

// SetWidth sets the bar width in cells used by the element view.
func (s *Slider) SetWidth(w int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(w, 4)
}

func (s *Slider) view() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return ""
	}
	w := s.width
	pos := func(v float64) int {
		if s.rng.Width <= 0 {
			return 0
		}
		return min(w-1, max(0, int(math.Round((v-s.rng.Min)/s.rng.Width*float64(w-1)))))
	}
	lo, hi := pos(s.sel.Min), pos(s.sel.Max)
	var b strings.Builder
	b.WriteString(sliderTrack.Render(strings.Repeat("─", lo)))
	b.WriteString(sliderFill.Render("[" + strings.Repeat("━", max(0, hi-lo-1))))
	if hi > lo {
		b.WriteString(sliderFill.Render("]"))
	}
	b.WriteString(sliderTrack.Render(strings.Repeat("─", max(0, w-hi-1))))
	label := fmt.Sprintf(" %.4g … %.4g", s.sel.Min, s.sel.Max)
	return b.String() + sliderLabel.Render(label)
}
