// Package toolbar holds the tool, color and brush size selection and maps
// toolbar clicks and keyboard shortcuts onto editor actions. It knows
// nothing about how strokes are drawn.
package toolbar

import (
	"strconv"
	"strings"

	"github.com/example/battlemap/internal/events"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/palette"
	"github.com/example/battlemap/internal/raster"
)

// Popover names.
const (
	PopoverTools  = "tools"
	PopoverColors = "colors"
	PopoverSizes  = "sizes"
	PopoverMaps   = "maps"
)

// Click actions understood by HandleClick.
const (
	ActionTool      = "tool"
	ActionColor     = "color"
	ActionSize      = "size"
	ActionUndo      = "undo"
	ActionRedo      = "redo"
	ActionClear     = "clear"
	ActionZoomIn    = "zoom-in"
	ActionZoomOut   = "zoom-out"
	ActionZoomReset = "zoom-reset"
	ActionPopover   = "popover"
	ActionOutside   = "outside"
)

// Sizes are the brush sizes offered in the size menu and stepped through by
// the bracket keys.
var Sizes = []int{1, 2, 4, 6, 8, 12, 16, 24, 32, 48, 64}

// Actions are the editor operations the toolbar triggers. Nil entries are
// skipped.
type Actions struct {
	Undo      func()
	Redo      func()
	Clear     func()
	ZoomIn    func()
	ZoomOut   func()
	ZoomReset func()
	// Changed runs after the tool, color or size changed.
	Changed func()
}

// Controller is used from the UI goroutine.
type Controller struct {
	maps     *mapstate.Collection
	actions  Actions
	popovers *Popovers
}

// New returns a controller storing its selection in maps.
func New(maps *mapstate.Collection, actions Actions) *Controller {
	return &Controller{
		maps:     maps,
		actions:  actions,
		popovers: NewPopovers(PopoverTools, PopoverColors, PopoverSizes, PopoverMaps),
	}
}

// Popovers returns the popover registry.
func (c *Controller) Popovers() *Popovers { return c.popovers }

// Tool returns the active tool.
func (c *Controller) Tool() raster.Tool {
	return raster.ParseTool(c.maps.UI().ActiveTool)
}

// SetTool selects tool. Unknown names are ignored.
func (c *Controller) SetTool(tool string) bool {
	if !mapstate.KnownTool(tool) {
		return false
	}
	if c.maps.UI().ActiveTool == tool {
		return true
	}
	c.maps.UpdateUI(func(ui *mapstate.UIState) { ui.ActiveTool = tool })
	c.changed()
	return true
}

// ColorKey returns the color key of the active map.
func (c *Controller) ColorKey() string { return c.maps.Active().ColorKey }

// SetColor sets the color of the active map.
func (c *Controller) SetColor(key string) {
	key = palette.Normalize(key)
	c.maps.Update(c.maps.ActiveID(), func(m *mapstate.MapEntry) { m.ColorKey = key })
	c.changed()
}

// Size returns the brush size of the active map.
func (c *Controller) Size() int { return c.maps.Active().BrushSize }

// SetSize sets the brush size of the active map, clamped to the brush
// range, and returns the stored value.
func (c *Controller) SetSize(n int) int {
	switch {
	case n < mapstate.MinBrushSize:
		n = mapstate.MinBrushSize
	case n > mapstate.MaxBrushSize:
		n = mapstate.MaxBrushSize
	}
	c.maps.Update(c.maps.ActiveID(), func(m *mapstate.MapEntry) { m.BrushSize = n })
	c.maps.UpdateUI(func(ui *mapstate.UIState) { ui.BrushSize = n })
	c.changed()
	return n
}

// StepSize moves to the next larger (dir > 0) or smaller preset size.
func (c *Controller) StepSize(dir int) int {
	cur := c.Size()
	next := cur
	if dir > 0 {
		for _, s := range Sizes {
			if s > cur {
				next = s
				break
			}
		}
	} else {
		for i := len(Sizes) - 1; i >= 0; i-- {
			if Sizes[i] < cur {
				next = Sizes[i]
				break
			}
		}
	}
	return c.SetSize(next)
}

// Brush returns the brush for the active map and tool.
func (c *Controller) Brush() raster.Brush {
	m := c.maps.Active()
	return raster.Brush{
		Tool:  c.Tool(),
		Size:  float64(m.BrushSize),
		Color: palette.Color(m.ColorKey),
	}
}

// HandleClick runs the action named by e and reports whether the toolbar
// owned it.
func (c *Controller) HandleClick(e events.Event) bool {
	switch e.Action {
	case ActionTool:
		if c.SetTool(e.Value) {
			c.popovers.Close(PopoverTools)
		}
	case ActionColor:
		c.SetColor(e.Value)
		c.popovers.Close(PopoverColors)
	case ActionSize:
		n, err := strconv.Atoi(strings.TrimSpace(e.Value))
		if err != nil {
			return true
		}
		c.SetSize(n)
		c.popovers.Close(PopoverSizes)
	case ActionUndo:
		call(c.actions.Undo)
	case ActionRedo:
		call(c.actions.Redo)
	case ActionClear:
		c.popovers.CloseAll()
		call(c.actions.Clear)
	case ActionZoomIn:
		call(c.actions.ZoomIn)
	case ActionZoomOut:
		call(c.actions.ZoomOut)
	case ActionZoomReset:
		call(c.actions.ZoomReset)
	case ActionPopover:
		c.popovers.Toggle(e.Value)
	case ActionOutside:
		c.popovers.Outside()
	default:
		return false
	}
	return true
}

// HandleKey applies keyboard shortcuts and reports whether e was used.
func (c *Controller) HandleKey(e events.Event) bool {
	key := strings.ToLower(e.Key)
	if e.Ctrl {
		switch {
		case key == "z" && e.Shift, key == "y":
			call(c.actions.Redo)
		case key == "z":
			call(c.actions.Undo)
		default:
			return false
		}
		return true
	}
	switch key {
	case "escape":
		if c.popovers.Current() == "" {
			return false
		}
		c.popovers.CloseAll()
	case "b":
		c.SetTool(string(raster.ToolBrush))
	case "e":
		c.SetTool(string(raster.ToolEraser))
	case "h":
		c.SetTool(string(raster.ToolPan))
	case "[":
		c.StepSize(-1)
	case "]":
		c.StepSize(1)
	case "+", "=":
		call(c.actions.ZoomIn)
	case "-":
		call(c.actions.ZoomOut)
	case "0":
		call(c.actions.ZoomReset)
	default:
		return false
	}
	return true
}

func (c *Controller) changed() { call(c.actions.Changed) }

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
