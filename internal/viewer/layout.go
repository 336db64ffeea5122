package viewer

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/example/battlemap/internal/editor"
	"github.com/example/battlemap/internal/maplist"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/palette"
	"github.com/example/battlemap/internal/raster"
	"github.com/example/battlemap/internal/toolbar"
)

const (
	tabHeight    = 24
	statusHeight = 24
	buttonHeight = 24
	buttonGap    = 2
	padding      = 4
	swatchSize   = 24
	maxTabWidth  = 160
)

// toolbarWidth is widened at start up to fit the longest button label.
var toolbarWidth = 112

// Actions handled by the window itself rather than the editor.
const (
	ActionPasteBackground = "background-paste"
	ActionClearBackground = "background-clear"
	ActionCopy            = "copy"
)

// Snapshot is the editor state a frame is laid out and painted from.
type Snapshot struct {
	Maps     []mapstate.MapEntry
	ActiveID string
	Tool     raster.Tool
	ColorKey string
	Size     int
	Popover  string
	CanUndo  bool
	CanRedo  bool
	Status   string
	Hover    image.Point
}

func snapshotOf(ed *editor.Editor) Snapshot {
	if ed == nil {
		return Snapshot{}
	}
	st := Snapshot{
		Maps:     ed.Maps().List(),
		ActiveID: ed.Maps().ActiveID(),
		CanUndo:  ed.CanUndo(),
		CanRedo:  ed.CanRedo(),
		Status:   ed.Status(),
	}
	if tb := ed.Toolbar(); tb != nil {
		st.Tool = tb.Tool()
		st.ColorKey = tb.ColorKey()
		st.Size = tb.Size()
		st.Popover = tb.Popovers().Current()
	}
	return st
}

// Control is a clickable area that dispatches a Click event.
type Control struct {
	Rect      image.Rectangle
	Target    string
	Action    string
	Value     string
	Label     string
	Swatch    color.RGBA
	HasSwatch bool
	Selected  bool
	Disabled  bool
	Tab       bool
}

// Layout places every region of the window.
type Layout struct {
	Width, Height int
	Tabs          image.Rectangle
	Toolbar       image.Rectangle
	Canvas        image.Rectangle
	Status        image.Rectangle
	Popover       image.Rectangle
	Controls      []Control
}

// Hit returns the topmost enabled control under p.
func (l Layout) Hit(p image.Point) (Control, bool) {
	for i := len(l.Controls) - 1; i >= 0; i-- {
		c := l.Controls[i]
		if p.In(c.Rect) {
			if c.Disabled {
				return Control{}, false
			}
			return c, true
		}
	}
	return Control{}, false
}

func measure(s string) int {
	d := &font.Drawer{Face: basicfont.Face7x13}
	return d.MeasureString(s).Ceil()
}

func fitToolbar(labels ...string) {
	for _, lbl := range labels {
		if w := measure(lbl) + 2*padding + 8; w > toolbarWidth {
			toolbarWidth = w
		}
	}
}

func toolLabel(t raster.Tool) string {
	switch t {
	case raster.ToolEraser:
		return "Eraser"
	case raster.ToolPan:
		return "Pan"
	default:
		return "Brush"
	}
}

func truncate(s string, width int) string {
	for s != "" && measure(s) > width {
		r := []rune(s)
		s = strings.TrimSpace(string(r[:len(r)-1]))
		if measure(s+"…") <= width {
			return s + "…"
		}
	}
	return s
}

// Compute lays out a w by h window for st.
func Compute(w, h int, st Snapshot) Layout {
	l := Layout{Width: w, Height: h}
	l.Tabs = image.Rect(0, 0, w, tabHeight)
	l.Toolbar = image.Rect(0, tabHeight, toolbarWidth, h-statusHeight)
	l.Canvas = image.Rect(toolbarWidth, tabHeight, w, h-statusHeight)
	l.Status = image.Rect(0, h-statusHeight, w, h)
	if l.Canvas.Empty() {
		l.Canvas = image.Rectangle{Min: l.Canvas.Min, Max: l.Canvas.Min}
	}

	l.layoutTabs(st)
	toggles := l.layoutToolbar(st)
	if r, ok := toggles[st.Popover]; ok {
		l.layoutPopover(st, r)
	}
	return l
}

func (l *Layout) add(c Control) { l.Controls = append(l.Controls, c) }

func (l *Layout) layoutTabs(st Snapshot) {
	right := l.Width
	for _, a := range []struct{ action, label string }{
		{maplist.ActionDelete, "Delete"},
		{maplist.ActionRename, "Rename"},
	} {
		bw := measure(a.label) + 2*padding + 4
		right -= bw
		l.add(Control{Rect: image.Rect(right, 0, right+bw, tabHeight), Target: editor.TargetToolbar, Action: a.action, Label: a.label})
	}
	x := 0
	for _, m := range st.Maps {
		label := truncate(m.Name, maxTabWidth-2*padding)
		tw := measure(label) + 4*padding
		if x+tw > right-tabHeight {
			break
		}
		l.add(Control{
			Rect:     image.Rect(x, 0, x+tw, tabHeight),
			Target:   editor.TargetToolbar,
			Action:   maplist.ActionSwitch,
			Value:    m.ID,
			Label:    label,
			Selected: m.ID == st.ActiveID,
			Tab:      true,
		})
		x += tw
	}
	l.add(Control{Rect: image.Rect(x, 0, x+tabHeight, tabHeight), Target: editor.TargetToolbar, Action: maplist.ActionAdd, Label: "+"})
}

// layoutToolbar adds the toolbar buttons and returns the rectangle of each
// popover toggle.
func (l *Layout) layoutToolbar(st Snapshot) map[string]image.Rectangle {
	y := l.Toolbar.Min.Y + padding
	next := func() image.Rectangle {
		r := image.Rect(padding, y, toolbarWidth-padding, y+buttonHeight)
		y += buttonHeight + buttonGap
		return r
	}
	toggles := map[string]image.Rectangle{}
	toggle := func(name, label string, c Control) {
		c.Rect = next()
		c.Target = editor.TargetToolbar
		c.Action = toolbar.ActionPopover
		c.Value = name
		c.Label = label
		c.Selected = st.Popover == name
		toggles[name] = c.Rect
		l.add(c)
	}
	toggle(toolbar.PopoverTools, "Tool: "+toolLabel(st.Tool), Control{})
	toggle(toolbar.PopoverColors, "Color", Control{Swatch: palette.Color(st.ColorKey), HasSwatch: true})
	toggle(toolbar.PopoverSizes, fmt.Sprintf("Size: %d", st.Size), Control{})
	toggle(toolbar.PopoverMaps, "Maps", Control{})
	y += padding

	for _, b := range []struct {
		action, label string
		disabled      bool
	}{
		{toolbar.ActionUndo, "Undo", !st.CanUndo},
		{toolbar.ActionRedo, "Redo", !st.CanRedo},
		{toolbar.ActionClear, "Clear", false},
		{toolbar.ActionZoomIn, "Zoom +", false},
		{toolbar.ActionZoomOut, "Zoom -", false},
		{toolbar.ActionZoomReset, "Zoom 1:1", false},
		{ActionPasteBackground, "Paste BG", false},
		{ActionClearBackground, "Clear BG", false},
		{ActionCopy, "Copy map", false},
	} {
		if b.action == ActionPasteBackground {
			y += padding
		}
		l.add(Control{Rect: next(), Target: editor.TargetToolbar, Action: b.action, Label: b.label, Disabled: b.disabled})
	}
	return toggles
}

func (l *Layout) layoutPopover(st Snapshot, anchor image.Rectangle) {
	var items []Control
	cols := 1
	itemW := 0
	switch st.Popover {
	case toolbar.PopoverTools:
		for _, t := range []raster.Tool{raster.ToolBrush, raster.ToolEraser, raster.ToolPan} {
			items = append(items, Control{Action: toolbar.ActionTool, Value: string(t), Label: toolLabel(t), Selected: t == st.Tool})
		}
	case toolbar.PopoverColors:
		cols = 4
		itemW = swatchSize
		for _, e := range palette.Entries() {
			items = append(items, Control{Action: toolbar.ActionColor, Value: e.Key, Swatch: e.Color, HasSwatch: true, Selected: e.Key == palette.Normalize(st.ColorKey)})
		}
	case toolbar.PopoverSizes:
		for _, n := range toolbar.Sizes {
			items = append(items, Control{Action: toolbar.ActionSize, Value: fmt.Sprint(n), Label: fmt.Sprintf("%d px", n), Selected: n == st.Size})
		}
	case toolbar.PopoverMaps:
		for _, m := range st.Maps {
			items = append(items, Control{Action: maplist.ActionSwitch, Value: m.ID, Label: truncate(m.Name, maxTabWidth), Selected: m.ID == st.ActiveID})
		}
		items = append(items, Control{Action: maplist.ActionAdd, Label: "+ New map"})
	}
	if len(items) == 0 {
		return
	}
	if itemW == 0 {
		for _, it := range items {
			if w := measure(it.Label) + 2*padding; w > itemW {
				itemW = w
			}
		}
	}
	rows := (len(items) + cols - 1) / cols
	w := cols*(itemW+buttonGap) - buttonGap + 2*padding
	h := rows*(buttonHeight+buttonGap) - buttonGap + 2*padding
	x0 := anchor.Max.X + padding
	y0 := anchor.Min.Y
	if y0+h > l.Height-statusHeight {
		y0 = l.Height - statusHeight - h
	}
	if y0 < tabHeight {
		y0 = tabHeight
	}
	l.Popover = image.Rect(x0, y0, x0+w, y0+h)
	for i, it := range items {
		x := x0 + padding + (i%cols)*(itemW+buttonGap)
		y := y0 + padding + (i/cols)*(buttonHeight+buttonGap)
		it.Rect = image.Rect(x, y, x+itemW, y+buttonHeight)
		it.Target = editor.TargetToolbar
		l.add(it)
	}
}
