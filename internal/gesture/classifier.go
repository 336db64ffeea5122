// Package gesture tells two-finger pan/zoom apart from single-finger
// drawing and applies the resulting scroll and scale to a viewport.
package gesture

import (
	"math"

	"github.com/example/battlemap/internal/events"
	"github.com/example/battlemap/internal/geom"
)

// Config holds the empirically tuned pinch constants.
type Config struct {
	// PinchDeadzone is the distance change in pixels below which a
	// two-finger move is treated as pure panning.
	PinchDeadzone float64
	// PinchPanRatio is how much larger than the concurrent pan
	// displacement the distance change must be before it zooms.
	PinchPanRatio float64
	MinScale      float64
	MaxScale      float64
}

// DefaultConfig returns the stock constants.
func DefaultConfig() Config {
	return Config{
		PinchDeadzone: 28,
		PinchPanRatio: 0.35,
		MinScale:      0.6,
		MaxScale:      3.0,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PinchDeadzone <= 0 {
		c.PinchDeadzone = d.PinchDeadzone
	}
	if c.PinchPanRatio <= 0 {
		c.PinchPanRatio = d.PinchPanRatio
	}
	if c.MinScale <= 0 {
		c.MinScale = d.MinScale
	}
	if c.MaxScale < c.MinScale {
		c.MaxScale = math.Max(d.MaxScale, c.MinScale)
	}
	return c
}

// Viewport is the scrollable, scalable view of the canvas. Scroll is the
// screen offset of the scaled content.
type Viewport interface {
	Scroll() geom.Point
	SetScroll(geom.Point)
	Scale() float64
	SetScale(float64)
}

// Mode is the classifier state.
type Mode int

const (
	Idle Mode = iota
	PanZoom
)

func (m Mode) String() string {
	if m == PanZoom {
		return "pan-zoom"
	}
	return "idle"
}

// Classifier tracks touch pointers. It is owned by the UI goroutine.
type Classifier struct {
	cfg  Config
	view Viewport

	pointers map[int]geom.Point
	order    []int
	mode     Mode

	anchorMid    geom.Point
	anchorScroll geom.Point
	baseDist     float64
	baseScale    float64
}

// New returns an idle classifier driving view.
func New(view Viewport, cfg Config) *Classifier {
	return &Classifier{
		cfg:      cfg.withDefaults(),
		view:     view,
		pointers: map[int]geom.Point{},
	}
}

// Config returns the effective constants.
func (c *Classifier) Config() Config { return c.cfg }

// Mode returns the current state.
func (c *Classifier) Mode() Mode { return c.mode }

// Active reports whether a pan-zoom gesture is in progress.
func (c *Classifier) Active() bool { return c.mode == PanZoom }

// Touches returns the number of tracked touch pointers.
func (c *Classifier) Touches() int { return len(c.pointers) }

// Down records a touch pointer and reports whether a gesture is now
// active. Mouse and pen pointers are ignored.
func (c *Classifier) Down(e events.Event) bool {
	if e.PointerType != events.Touch || c.view == nil {
		return false
	}
	if _, ok := c.pointers[e.PointerID]; !ok {
		c.order = append(c.order, e.PointerID)
	}
	c.pointers[e.PointerID] = e.Pos
	if c.mode == Idle && len(c.pointers) >= 2 {
		c.mode = PanZoom
		c.rebase()
	}
	return c.mode == PanZoom
}

// Move updates a tracked pointer. It reports true when the event was
// consumed by the gesture and must not draw.
func (c *Classifier) Move(e events.Event) bool {
	if e.PointerType != events.Touch {
		return false
	}
	if _, ok := c.pointers[e.PointerID]; !ok {
		return false
	}
	c.pointers[e.PointerID] = e.Pos
	if c.mode != PanZoom {
		return false
	}

	a, b := c.pair()
	mid := geom.Midpoint(a, b)
	dist := geom.Distance(a, b)
	pan := mid.Sub(c.anchorMid)
	c.view.SetScroll(c.anchorScroll.Sub(pan))

	delta := math.Abs(dist - c.baseDist)
	if c.baseDist > 0 && delta > c.cfg.PinchDeadzone && delta > c.cfg.PinchPanRatio*pan.Len() {
		c.Zoom(c.baseScale*dist/c.baseDist, mid)
		c.anchorMid = mid
		c.anchorScroll = c.view.Scroll()
	}
	return true
}

// Up forgets a pointer. It reports whether the pointer belonged to an
// active gesture, in which case its release must not end a stroke.
func (c *Classifier) Up(e events.Event) bool {
	if _, ok := c.pointers[e.PointerID]; !ok {
		return false
	}
	was := c.mode == PanZoom
	delete(c.pointers, e.PointerID)
	for i, id := range c.order {
		if id == e.PointerID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	switch {
	case len(c.pointers) < 2:
		c.mode = Idle
		c.anchorMid, c.anchorScroll = geom.Point{}, geom.Point{}
		c.baseDist, c.baseScale = 0, 0
	case was:
		// a third finger took over one of the tracked pair
		c.rebase()
	}
	return was
}

// Cancel is Up for an interrupted pointer.
func (c *Classifier) Cancel(e events.Event) bool { return c.Up(e) }

// Zoom sets the view scale, clamped to the configured range, keeping the
// content point under anchor fixed on screen. It returns the applied
// scale.
func (c *Classifier) Zoom(scale float64, anchor geom.Point) float64 {
	if c.view == nil {
		return 0
	}
	return Zoom(c.view, scale, anchor, c.cfg)
}

// Zoom is the anchor-preserving rescale shared by pinch and the toolbar
// zoom buttons.
func Zoom(view Viewport, scale float64, anchor geom.Point, cfg Config) float64 {
	cfg = cfg.withDefaults()
	next := geom.Clamp(scale, cfg.MinScale, cfg.MaxScale)
	prev := view.Scale()
	if !geom.Finite(prev) || prev <= 0 {
		prev = 1
	}
	content := view.Scroll().Add(anchor).Div(prev)
	view.SetScale(next)
	view.SetScroll(content.Mul(next).Sub(anchor))
	return next
}

// Destroy drops every tracked pointer and returns to idle.
func (c *Classifier) Destroy() {
	c.pointers = map[int]geom.Point{}
	c.order = nil
	c.mode = Idle
	c.anchorMid, c.anchorScroll = geom.Point{}, geom.Point{}
	c.baseDist, c.baseScale = 0, 0
}

func (c *Classifier) pair() (geom.Point, geom.Point) {
	return c.pointers[c.order[0]], c.pointers[c.order[1]]
}

func (c *Classifier) rebase() {
	a, b := c.pair()
	c.anchorMid = geom.Midpoint(a, b)
	c.anchorScroll = c.view.Scroll()
	c.baseDist = geom.Distance(a, b)
	c.baseScale = c.view.Scale()
	if !geom.Finite(c.baseScale) || c.baseScale <= 0 {
		c.baseScale = 1
	}
}
