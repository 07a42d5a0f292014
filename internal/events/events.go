// Package events is a small typed broadcast used by the renderer and its
// controls to announce state transitions.
package events

import "sync"

type Type string

const (
	DataLoaded                Type = "dataloaded"
	SelectionStart            Type = "selectionstart"
	SelectionUpdating         Type = "selectionupdating"
	SelectionHidden           Type = "selectionhidden"
	SelectionEnd              Type = "selectionend"
	SliderDestroyed           Type = "sliderdestroyed"
	SliderCreated             Type = "slidercreated"
	PersistenceBoundsUpdating Type = "persistenceboundsupdating"
	PersistenceBoundsSet      Type = "persistenceboundsset"
	PointsDrawn               Type = "pointsdrawn"
	PointsCleared             Type = "pointscleared"
	Error                     Type = "error"
)

// Event is one notification. Data depends on Type: geom.Bounds for bounds
// events, the renderer's view for point events, an error for Error.
type Event struct {
	Type Type
	Data any
}

type Handler func(Event)

type handlerEntry struct {
	id    uint64
	types map[Type]bool // nil = all
	fn    Handler
}

// Dispatcher delivers events synchronously, in registration order, to the
// handlers registered at dispatch time. Events without listeners are dropped.
type Dispatcher struct {
	mu       sync.Mutex
	nextID   uint64
	handlers []handlerEntry
}

func NewDispatcher() *Dispatcher { return &Dispatcher{} }

// On registers h for t and returns a function that removes it.
func (d *Dispatcher) On(t Type, h Handler) (off func()) {
	return d.add(map[Type]bool{t: true}, h)
}

// OnAny registers h for every type.
func (d *Dispatcher) OnAny(h Handler) (off func()) {
	return d.add(nil, h)
}

func (d *Dispatcher) add(types map[Type]bool, h Handler) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.handlers = append(d.handlers, handlerEntry{id: id, types: types, fn: h})
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, e := range d.handlers {
			if e.id == id {
				d.handlers = append(d.handlers[:i:i], d.handlers[i+1:]...)
				return
			}
		}
	}
}

// Dispatch calls the matching handlers. Handlers may register or dispatch
// themselves; they see the handler list as it was when Dispatch started.
func (d *Dispatcher) Dispatch(t Type, data any) {
	d.mu.Lock()
	hs := make([]Handler, 0, len(d.handlers))
	for _, e := range d.handlers {
		if e.types == nil || e.types[t] {
			hs = append(hs, e.fn)
		}
	}
	d.mu.Unlock()
	ev := Event{Type: t, Data: data}
	for _, h := range hs {
		h(ev)
	}
}

// Listen forwards matching events (all when types is empty) to a buffered
// channel. Events are dropped while the buffer is full. stop unregisters and
// closes the channel.
func (d *Dispatcher) Listen(buf int, types ...Type) (<-chan Event, func()) {
	ch := make(chan Event, buf)
	var (
		mu     sync.Mutex
		closed bool
	)
	send := func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
		}
	}
	var off func()
	if len(types) == 0 {
		off = d.OnAny(send)
	} else {
		set := make(map[Type]bool, len(types))
		for _, t := range types {
			set[t] = true
		}
		off = d.add(set, send)
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			off()
			mu.Lock()
			closed = true
			close(ch)
			mu.Unlock()
		})
	}
}
