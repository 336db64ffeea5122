// Package pointer turns raw pointer events into strokes, taps and pans,
// deferring to the gesture classifier whenever two fingers are down.
package pointer

import (
	"github.com/example/battlemap/internal/events"
	"github.com/example/battlemap/internal/geom"
	"github.com/example/battlemap/internal/gesture"
	"github.com/example/battlemap/internal/raster"
)

// DefaultDragThreshold is the touch movement in screen pixels that turns a
// pending touch into a stroke.
const DefaultDragThreshold = 6

// Canvas receives the drawing side of the protocol.
type Canvas interface {
	// BeginStroke records an undo point before the first mutation.
	BeginStroke()
	Dot(p geom.Point)
	Line(from, to geom.Point)
	// Commit persists the drawing layer. Callers do not wait on it.
	Commit()
}

// Capturer keeps delivering a pointer's events after it leaves the canvas.
type Capturer interface {
	SetPointerCapture(id int)
	ReleasePointerCapture(id int)
}

// State is the session state of the coordinator.
type State int

const (
	Idle State = iota
	Pending
	Drawing
	Panning
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Drawing:
		return "drawing"
	case Panning:
		return "panning"
	default:
		return "idle"
	}
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDragThreshold overrides DefaultDragThreshold.
func WithDragThreshold(px float64) Option {
	return func(c *Coordinator) {
		if px > 0 {
			c.threshold = px
		}
	}
}

// WithTool sets the function queried for the active tool on every down.
func WithTool(fn func() raster.Tool) Option {
	return func(c *Coordinator) { c.tool = fn }
}

// WithCapture sets the pointer capture target.
func WithCapture(cp Capturer) Option {
	return func(c *Coordinator) { c.capture = cp }
}

// Coordinator is the per-map pointer state machine. It is driven from the
// UI goroutine only.
type Coordinator struct {
	gesture   *gesture.Classifier
	view      gesture.Viewport
	canvas    Canvas
	capture   Capturer
	tool      func() raster.Tool
	threshold float64

	state   State
	pointer int

	startScreen geom.Point
	startCanvas geom.Point
	last        geom.Point
	panScroll   geom.Point
}

// New returns an idle coordinator.
func New(g *gesture.Classifier, view gesture.Viewport, canvas Canvas, opts ...Option) *Coordinator {
	c := &Coordinator{
		gesture:   g,
		view:      view,
		canvas:    canvas,
		threshold: DefaultDragThreshold,
		tool:      func() raster.Tool { return raster.ToolBrush },
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current session state.
func (c *Coordinator) State() State { return c.state }

// ToCanvas converts a viewport position into drawing layer coordinates.
func ToCanvas(view gesture.Viewport, p geom.Point) geom.Point {
	s := view.Scale()
	if !geom.Finite(s) || s <= 0 {
		s = 1
	}
	return view.Scroll().Add(p).Div(s)
}

// Down handles pointerdown.
func (c *Coordinator) Down(e events.Event) {
	if c.gesture != nil && c.gesture.Down(e) {
		c.abort()
		return
	}
	if c.state != Idle {
		return
	}
	if e.PointerType != events.Touch && e.Button != events.ButtonPrimary {
		return
	}
	tool := c.tool()
	switch {
	case tool == raster.ToolPan:
		c.begin(Panning, e)
		c.panScroll = c.view.Scroll()
	case !tool.Draws():
		return
	case e.PointerType == events.Touch:
		c.begin(Pending, e)
		c.startCanvas = ToCanvas(c.view, e.Pos)
	default:
		c.begin(Drawing, e)
		p := ToCanvas(c.view, e.Pos)
		c.canvas.BeginStroke()
		c.canvas.Dot(p)
		c.last = p
		c.canvas.Commit()
	}
}

// Move handles pointermove.
func (c *Coordinator) Move(e events.Event) {
	if c.gesture != nil && c.gesture.Move(e) {
		return
	}
	if c.state == Idle || e.PointerID != c.pointer {
		return
	}
	switch c.state {
	case Panning:
		c.view.SetScroll(c.panScroll.Sub(e.Pos.Sub(c.startScreen)))
	case Pending:
		if geom.Distance(e.Pos, c.startScreen) < c.threshold {
			return
		}
		p := ToCanvas(c.view, e.Pos)
		c.canvas.BeginStroke()
		c.canvas.Line(c.startCanvas, p)
		c.last = p
		c.state = Drawing
	case Drawing:
		p := ToCanvas(c.view, e.Pos)
		c.canvas.Line(c.last, p)
		c.last = p
	}
}

// Up handles pointerup. A pending touch that never crossed the drag
// threshold becomes a single dot.
func (c *Coordinator) Up(e events.Event) {
	if c.gesture != nil && c.gesture.Up(e) {
		return
	}
	if c.state == Idle || e.PointerID != c.pointer {
		return
	}
	switch c.state {
	case Pending:
		c.canvas.BeginStroke()
		c.canvas.Dot(c.startCanvas)
		c.canvas.Commit()
	case Drawing:
		c.canvas.Commit()
	}
	c.reset()
}

// Cancel handles pointercancel: a pending touch is dropped, an active
// stroke keeps what it drew and is committed.
func (c *Coordinator) Cancel(e events.Event) {
	if c.gesture != nil && c.gesture.Cancel(e) {
		return
	}
	if c.state == Idle || e.PointerID != c.pointer {
		return
	}
	if c.state == Drawing {
		c.canvas.Commit()
	}
	c.reset()
}

// Reset drops any in-flight session without drawing or committing.
func (c *Coordinator) Reset() { c.reset() }

// Destroy resets the session and the gesture classifier.
func (c *Coordinator) Destroy() {
	c.reset()
	if c.gesture != nil {
		c.gesture.Destroy()
	}
}

func (c *Coordinator) begin(s State, e events.Event) {
	c.state = s
	c.pointer = e.PointerID
	c.startScreen = e.Pos
	if c.capture != nil {
		c.capture.SetPointerCapture(e.PointerID)
	}
}

// abort ends the session because a second finger arrived. A pending touch
// never drew anything so it is dropped; a stroke already on the layer is
// committed as it stands.
func (c *Coordinator) abort() {
	if c.state == Drawing {
		c.canvas.Commit()
	}
	c.reset()
}

func (c *Coordinator) reset() {
	if c.state != Idle && c.capture != nil {
		c.capture.ReleasePointerCapture(c.pointer)
	}
	c.state = Idle
	c.pointer = 0
	c.startScreen, c.startCanvas, c.last, c.panScroll = geom.Point{}, geom.Point{}, geom.Point{}, geom.Point{}
}
