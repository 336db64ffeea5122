package viewer

import (
	"image"
	"strings"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/touch"

	"github.com/example/battlemap/internal/editor"
	"github.com/example/battlemap/internal/events"
	"github.com/example/battlemap/internal/geom"
	"github.com/example/battlemap/internal/toolbar"
)

// mousePointer is the pointer id used for the mouse. Touch sequences are
// offset past it.
const mousePointer = 1

// router turns window input into events on the document targets.
type router struct {
	doc    *events.Document
	layout func() Layout

	mouseDown bool
	touches   map[touch.Sequence]bool
	hover     image.Point
}

func newRouter(doc *events.Document, layout func() Layout) *router {
	return &router{doc: doc, layout: layout, touches: map[touch.Sequence]bool{}}
}

func (r *router) canvas() *events.Target {
	t, _ := r.doc.Lookup(editor.TargetCanvas)
	return t
}

func (r *router) captured(id int) bool {
	t := r.canvas()
	return t != nil && t.HasPointerCapture(id)
}

func (r *router) click(action, value string) {
	r.doc.Dispatch(editor.TargetToolbar, events.Event{Type: events.Click, Action: action, Value: value})
}

// press handles a primary press at p outside the canvas routing. It
// reports whether a control consumed it. An open popover is dismissed by
// any press that is not inside it and not on a popover toggle.
func (r *router) press(l Layout, p image.Point) bool {
	c, hit := l.Hit(p)
	inPopover := p.In(l.Popover)
	if !l.Popover.Empty() && !inPopover && !(hit && c.Action == toolbar.ActionPopover) {
		r.click(toolbar.ActionOutside, "")
	}
	if hit {
		r.doc.Dispatch(c.Target, events.Event{Type: events.Click, Action: c.Action, Value: c.Value})
		return true
	}
	return inPopover || !p.In(l.Canvas)
}

func local(l Layout, x, y float32) geom.Point {
	return geom.Pt(float64(x)-float64(l.Canvas.Min.X), float64(y)-float64(l.Canvas.Min.Y))
}

func mouseButton(b mouse.Button) int {
	switch b {
	case mouse.ButtonMiddle:
		return events.ButtonMiddle
	case mouse.ButtonRight:
		return events.ButtonSecondary
	default:
		return events.ButtonPrimary
	}
}

// mouse routes e and reports whether the window needs a repaint.
func (r *router) mouse(e mouse.Event) bool {
	p := image.Pt(int(e.X), int(e.Y))
	l := r.layout()
	if e.Button.IsWheel() {
		if e.Direction == mouse.DirRelease {
			return false
		}
		switch e.Button {
		case mouse.ButtonWheelUp:
			r.click(toolbar.ActionZoomIn, "")
		case mouse.ButtonWheelDown:
			r.click(toolbar.ActionZoomOut, "")
		default:
			return false
		}
		return true
	}
	ev := events.Event{PointerID: mousePointer, PointerType: events.Mouse, Button: mouseButton(e.Button), Pos: local(l, e.X, e.Y)}
	switch e.Direction {
	case mouse.DirPress:
		if r.mouseDown {
			return false
		}
		if e.Button == mouse.ButtonLeft && r.press(l, p) {
			return true
		}
		if !p.In(l.Canvas) {
			return false
		}
		r.mouseDown = true
		ev.Type = events.PointerDown
		r.doc.Dispatch(editor.TargetCanvas, ev)
	case mouse.DirRelease:
		if !r.mouseDown {
			return false
		}
		r.mouseDown = false
		ev.Type = events.PointerUp
		if p.In(l.Canvas) || r.captured(mousePointer) {
			r.doc.Dispatch(editor.TargetCanvas, ev)
		} else {
			r.doc.Dispatch(editor.TargetWindow, ev)
		}
	default:
		prev := r.hover
		r.hover = p
		if !r.mouseDown {
			pc, _ := l.Hit(prev)
			nc, _ := l.Hit(p)
			return pc.Rect != nc.Rect
		}
		if p.In(l.Canvas) || r.captured(mousePointer) {
			ev.Type = events.PointerMove
			r.doc.Dispatch(editor.TargetCanvas, ev)
		}
	}
	return true
}

// touch routes e and reports whether the window needs a repaint.
func (r *router) touch(e touch.Event) bool {
	p := image.Pt(int(e.X), int(e.Y))
	l := r.layout()
	id := mousePointer + 1 + int(e.Sequence)
	ev := events.Event{PointerID: id, PointerType: events.Touch, Pos: local(l, e.X, e.Y)}
	switch e.Type {
	case touch.TypeBegin:
		if len(r.touches) == 0 && r.press(l, p) {
			return true
		}
		if !p.In(l.Canvas) {
			return false
		}
		r.touches[e.Sequence] = true
		ev.Type = events.PointerDown
		r.doc.Dispatch(editor.TargetCanvas, ev)
	case touch.TypeMove:
		if !r.touches[e.Sequence] {
			return false
		}
		ev.Type = events.PointerMove
		r.doc.Dispatch(editor.TargetCanvas, ev)
	case touch.TypeEnd:
		if !r.touches[e.Sequence] {
			return false
		}
		delete(r.touches, e.Sequence)
		ev.Type = events.PointerUp
		if p.In(l.Canvas) || r.captured(id) {
			r.doc.Dispatch(editor.TargetCanvas, ev)
		} else {
			r.doc.Dispatch(editor.TargetWindow, ev)
		}
	}
	return true
}

// cancel ends every pointer still down, for example when the window
// loses focus.
func (r *router) cancel() {
	if r.mouseDown {
		r.mouseDown = false
		r.doc.Dispatch(editor.TargetCanvas, events.Event{Type: events.PointerCancel, PointerID: mousePointer, PointerType: events.Mouse})
	}
	for seq := range r.touches {
		delete(r.touches, seq)
		r.doc.Dispatch(editor.TargetCanvas, events.Event{Type: events.PointerCancel, PointerID: mousePointer + 1 + int(seq), PointerType: events.Touch})
	}
}

// resize reports the canvas area size to the window target.
func (r *router) resize() {
	c := r.layout().Canvas
	r.doc.Dispatch(editor.TargetWindow, events.Event{Type: events.Resize, Width: c.Dx(), Height: c.Dy()})
}

// keyName returns the name used for e in KeyDown events, or "" when the
// key has no binding.
func keyName(e key.Event) string {
	switch e.Code {
	case key.CodeEscape:
		return "Escape"
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		return "Enter"
	case key.CodeDeleteBackspace:
		return "Backspace"
	case key.CodeTab:
		return "Tab"
	case key.CodeKeypadPlusSign:
		return "+"
	case key.CodeKeypadHyphenMinus:
		return "-"
	}
	if e.Rune > 0 {
		return strings.ToLower(string(e.Rune))
	}
	return ""
}

// key dispatches a key press to the window target.
func (r *router) key(e key.Event) bool {
	if e.Direction == key.DirRelease {
		return false
	}
	name := keyName(e)
	if name == "" {
		return false
	}
	r.doc.Dispatch(editor.TargetWindow, events.Event{
		Type:  events.KeyDown,
		Key:   name,
		Ctrl:  e.Modifiers&key.ModControl != 0,
		Shift: e.Modifiers&key.ModShift != 0,
	})
	return true
}
