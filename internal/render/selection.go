package render

import (
	"fmt"
	"math"
	"sync"

	"perdiag/internal/events"
	"perdiag/internal/geom"
)

// Selection turns a horizontal drag over the canvas into screen x-bounds.
// Positions are canvas pixels.
type Selection struct {
	host Host
	el   element

	mu        sync.Mutex
	active    bool
	start     float64
	cur       float64
	padLeft   float64
	minWidth  float64
	committed geom.Bounds
	set       bool
}

func newSelection(h Host) (Control, error) {
	s := &Selection{
		host:     h,
		padLeft:  h.Settings.Padding.Left,
		minWidth: h.Settings.SelectionMinWidth,
	}
	s.el = element{id: h.ID, view: s.view}
	return s, nil
}

func (s *Selection) Element() Element { return s.el }

func (s *Selection) view() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.active:
		return fmt.Sprintf("selecting x %.0f…%.0f", math.Min(s.start, s.cur), math.Max(s.start, s.cur))
	case s.set:
		return fmt.Sprintf("selection x %.0f…%.0f", s.committed.Min, s.committed.Max)
	}
	return ""
}

func (s *Selection) Update(v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.padLeft = v.Settings.Padding.Left
	s.minWidth = v.Settings.SelectionMinWidth
	s.committed, s.set = v.ActiveSelection, v.SelectionSet
	return nil
}

// Begin starts a drag at x. Presses left of half the left padding are
// ignored.
func (s *Selection) Begin(x float64) bool {
	s.mu.Lock()
	if x < s.padLeft/2 {
		s.mu.Unlock()
		return false
	}
	s.active, s.start, s.cur = true, x, x
	s.mu.Unlock()
	s.host.Events.Dispatch(events.SelectionStart, x)
	return true
}

func (s *Selection) Drag(x float64) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.cur = x
	b := geom.NewBounds(math.Min(s.start, x), math.Max(s.start, x))
	s.mu.Unlock()
	s.host.Events.Dispatch(events.SelectionUpdating, b)
}

// End finishes the drag. A selection narrower than the configured minimum
// is dropped and leaves the filter unchanged.
func (s *Selection) End(x float64) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	b := geom.NewBounds(math.Min(s.start, x), math.Max(s.start, x))
	tooNarrow := b.Width < s.minWidth
	s.mu.Unlock()
	if tooNarrow {
		return
	}
	s.host.SetSelection(&b)
	s.host.Events.Dispatch(events.SelectionEnd, b)
}

// Clear drops any drag and unsets the selection filter.
func (s *Selection) Clear() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
	s.host.SetSelection(nil)
	s.host.Events.Dispatch(events.SelectionHidden, nil)
}

// Dragging returns the in-progress range.
func (s *Selection) Dragging() (geom.Bounds, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return geom.Bounds{}, false
	}
	return geom.NewBounds(math.Min(s.start, s.cur), math.Max(s.start, s.cur)), true
}
