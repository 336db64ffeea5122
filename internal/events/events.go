// Package events is the small event-target model the editor wires itself
// against. The viewer window dispatches translated input into named
// targets; components subscribe with a context and are unsubscribed when
// that context is cancelled.
package events

import (
	"context"
	"sort"
	"sync"

	"github.com/example/battlemap/internal/geom"
)

// Type names an event kind.
type Type string

const (
	PointerDown   Type = "pointerdown"
	PointerMove   Type = "pointermove"
	PointerUp     Type = "pointerup"
	PointerCancel Type = "pointercancel"
	Resize        Type = "resize"
	Click         Type = "click"
	KeyDown       Type = "keydown"
)

// PointerType distinguishes input devices. Only touch pointers take part
// in multi-finger gestures.
type PointerType int

const (
	Mouse PointerType = iota
	Pen
	Touch
)

func (p PointerType) String() string {
	switch p {
	case Pen:
		return "pen"
	case Touch:
		return "touch"
	default:
		return "mouse"
	}
}

// Button values for pointer events.
const (
	ButtonPrimary   = 0
	ButtonMiddle    = 1
	ButtonSecondary = 2
)

// Event is a single dispatched event. Fields unrelated to Type are zero.
type Event struct {
	Type Type

	// Pointer events. Pos is relative to the canvas viewport origin.
	PointerID   int
	PointerType PointerType
	Button      int
	Pos         geom.Point

	// Click events: Action names the control, Value its argument.
	Action string
	Value  string

	// KeyDown events.
	Key   string
	Ctrl  bool
	Shift bool

	// Resize events.
	Width, Height int
}

// Listener handles an event.
type Listener func(Event)

type registration struct {
	ctx context.Context
	typ Type
	fn  Listener
}

// Target is a named dispatch point, the equivalent of one UI element.
type Target struct {
	name string

	mu        sync.Mutex
	next      int
	listeners map[int]registration
	captured  map[int]bool
}

// NewTarget returns an empty target.
func NewTarget(name string) *Target {
	return &Target{name: name, listeners: map[int]registration{}, captured: map[int]bool{}}
}

// Name returns the target name.
func (t *Target) Name() string { return t.name }

// Listen registers fn for typ until ctx is done. A cancelled listener is
// never called again, even before its removal has run.
func (t *Target) Listen(ctx context.Context, typ Type, fn Listener) {
	if ctx.Err() != nil {
		return
	}
	t.mu.Lock()
	id := t.next
	t.next++
	t.listeners[id] = registration{ctx: ctx, typ: typ, fn: fn}
	t.mu.Unlock()
	context.AfterFunc(ctx, func() {
		t.mu.Lock()
		delete(t.listeners, id)
		t.mu.Unlock()
	})
}

// Dispatch delivers e to every listener registered for its type, in
// registration order, and reports whether any listener ran.
func (t *Target) Dispatch(e Event) bool {
	t.mu.Lock()
	ids := make([]int, 0, len(t.listeners))
	for id, r := range t.listeners {
		if r.typ == e.Type && r.ctx.Err() == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	fns := make([]Listener, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, t.listeners[id].fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn(e)
	}
	return len(fns) > 0
}

// ListenerCount reports how many live listeners are registered.
func (t *Target) ListenerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, r := range t.listeners {
		if r.ctx.Err() == nil {
			n++
		}
	}
	return n
}

// SetPointerCapture routes later events of pointer id to t even when they
// leave its area.
func (t *Target) SetPointerCapture(id int) {
	t.mu.Lock()
	t.captured[id] = true
	t.mu.Unlock()
}

// ReleasePointerCapture undoes SetPointerCapture.
func (t *Target) ReleasePointerCapture(id int) {
	t.mu.Lock()
	delete(t.captured, id)
	t.mu.Unlock()
}

// HasPointerCapture reports whether pointer id is captured by t.
func (t *Target) HasPointerCapture(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.captured[id]
}

// Document is the set of targets present on the current page.
type Document struct {
	mu      sync.Mutex
	targets map[string]*Target
}

// NewDocument creates targets for every name.
func NewDocument(names ...string) *Document {
	d := &Document{targets: map[string]*Target{}}
	for _, n := range names {
		d.targets[n] = NewTarget(n)
	}
	return d
}

// Lookup returns the named target.
func (d *Document) Lookup(name string) (*Target, bool) {
	if d == nil {
		return nil, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.targets[name]
	return t, ok
}

// Dispatch sends e to the named target. Missing targets are ignored.
func (d *Document) Dispatch(name string, e Event) bool {
	t, ok := d.Lookup(name)
	if !ok {
		return false
	}
	return t.Dispatch(e)
}
