package toolbar

import (
	"testing"

	"github.com/example/battlemap/internal/events"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/raster"
)

func newController() (*Controller, map[string]int) {
	calls := map[string]int{}
	rec := func(name string) func() { return func() { calls[name]++ } }
	c := New(mapstate.NewCollection(mapstate.State{}), Actions{
		Undo:      rec("undo"),
		Redo:      rec("redo"),
		Clear:     rec("clear"),
		ZoomIn:    rec("zoom-in"),
		ZoomOut:   rec("zoom-out"),
		ZoomReset: rec("zoom-reset"),
		Changed:   rec("changed"),
	})
	return c, calls
}

func TestSizeClamp(t *testing.T) {
	c, _ := newController()
	tests := []struct{ in, want int }{
		{0, 1}, {-5, 1}, {12, 12}, {64, 64}, {65, 64}, {1000, 64},
	}
	for _, tc := range tests {
		if got := c.SetSize(tc.in); got != tc.want || c.Size() != tc.want {
			t.Errorf("SetSize(%d) = %d (stored %d), want %d", tc.in, got, c.Size(), tc.want)
		}
	}
}

func TestStepSize(t *testing.T) {
	c, _ := newController()
	c.SetSize(6)
	if got := c.StepSize(1); got != 8 {
		t.Fatalf("step up = %d", got)
	}
	c.SetSize(7)
	if got := c.StepSize(-1); got != 6 {
		t.Fatalf("step down = %d", got)
	}
	c.SetSize(64)
	if got := c.StepSize(1); got != 64 {
		t.Fatalf("step past max = %d", got)
	}
}

func TestToolAndColorClicks(t *testing.T) {
	c, calls := newController()
	c.Popovers().Open(PopoverColors)
	c.HandleClick(events.Event{Action: ActionColor, Value: "Teal"})
	if c.ColorKey() != "teal" {
		t.Fatalf("color = %q", c.ColorKey())
	}
	if c.Popovers().Current() != "" {
		t.Fatal("color pick should close its popover")
	}
	c.HandleClick(events.Event{Action: ActionTool, Value: "eraser"})
	if c.Tool() != raster.ToolEraser {
		t.Fatalf("tool = %q", c.Tool())
	}
	if c.SetTool("lasso") {
		t.Fatal("unknown tool accepted")
	}
	if calls["changed"] != 2 {
		t.Fatalf("changed ran %d times", calls["changed"])
	}
	b := c.Brush()
	if b.Tool != raster.ToolEraser || b.Size != 6 {
		t.Fatalf("brush = %+v", b)
	}
}

func TestShortcuts(t *testing.T) {
	c, calls := newController()
	keys := []events.Event{
		{Key: "z", Ctrl: true},
		{Key: "y", Ctrl: true},
		{Key: "Z", Ctrl: true, Shift: true},
		{Key: "h"},
	}
	for _, k := range keys {
		if !c.HandleKey(k) {
			t.Fatalf("key %+v not handled", k)
		}
	}
	if calls["undo"] != 1 || calls["redo"] != 2 {
		t.Fatalf("calls = %v", calls)
	}
	if c.Tool() != raster.ToolPan {
		t.Fatalf("tool = %q", c.Tool())
	}
	if c.HandleKey(events.Event{Key: "q"}) {
		t.Fatal("unbound key handled")
	}
	c.HandleKey(events.Event{Key: "]"})
	if c.Size() != 8 {
		t.Fatalf("size after ] = %d", c.Size())
	}
}

func TestPopoversAreExclusive(t *testing.T) {
	p := NewPopovers(PopoverTools, PopoverColors)
	var changes []string
	p.OnChange = func(open string) { changes = append(changes, open) }

	p.Open(PopoverTools)
	p.Open(PopoverColors)
	if p.IsOpen(PopoverTools) || !p.IsOpen(PopoverColors) {
		t.Fatal("opening one popover must close the others")
	}
	p.Toggle(PopoverColors)
	if p.Current() != "" {
		t.Fatal("toggle did not close")
	}
	if p.Open("unknown") {
		t.Fatal("unregistered popover opened")
	}
	p.Open(PopoverTools)
	p.Outside()
	if p.Current() != "" {
		t.Fatal("outside click did not close")
	}
	want := []string{PopoverTools, PopoverColors, "", PopoverTools, ""}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Fatalf("changes = %v, want %v", changes, want)
		}
	}
}

func TestEscapeClosesPopover(t *testing.T) {
	c, _ := newController()
	if c.HandleKey(events.Event{Key: "Escape"}) {
		t.Fatal("escape with nothing open should fall through")
	}
	c.HandleClick(events.Event{Action: ActionPopover, Value: PopoverSizes})
	if !c.HandleKey(events.Event{Key: "Escape"}) || c.Popovers().Current() != "" {
		t.Fatal("escape did not close the popover")
	}
}

func TestActionsRouted(t *testing.T) {
	c, calls := newController()
	for _, a := range []string{ActionUndo, ActionRedo, ActionClear, ActionZoomIn, ActionZoomOut, ActionZoomReset} {
		if !c.HandleClick(events.Event{Action: a}) {
			t.Fatalf("%s not handled", a)
		}
		if calls[a] != 1 {
			t.Fatalf("%s ran %d times", a, calls[a])
		}
	}
	if c.HandleClick(events.Event{Action: "map-add"}) {
		t.Fatal("map actions belong to the map list")
	}
}
