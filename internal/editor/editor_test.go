package editor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/example/battlemap/internal/events"
	"github.com/example/battlemap/internal/geom"
	"github.com/example/battlemap/internal/maplist"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/raster"
	"github.com/example/battlemap/internal/storage"
	"github.com/example/battlemap/internal/toolbar"
)

type dialogs struct {
	confirm bool
	answer  string
	alerts  int
}

func (d *dialogs) Confirm(string) bool                  { return d.confirm }
func (d *dialogs) Prompt(string, string) (string, bool) { return d.answer, d.answer != "" }
func (d *dialogs) Alert(string)                         { d.alerts++ }

type fixture struct {
	ed    *Editor
	doc   *events.Document
	store *storage.Memory
	dlg   *dialogs
	dirty int
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		doc:   events.NewDocument(TargetCanvas, TargetWindow, TargetToolbar),
		store: storage.NewMemory(),
		dlg:   &dialogs{confirm: true, answer: "Second"},
	}
	base := []Option{
		WithStore(f.store),
		WithDialogs(f.dlg),
		WithCanvasSize(200, 100),
		WithMarkDirty(func() { f.dirty++ }),
	}
	ed, err := New(f.doc, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new editor: %v", err)
	}
	f.ed = ed
	t.Cleanup(ed.Destroy)
	return f
}

func (f *fixture) pointer(typ events.Type, kind events.PointerType, id int, x, y float64) {
	f.doc.Dispatch(TargetCanvas, events.Event{Type: typ, PointerID: id, PointerType: kind, Pos: geom.Pt(x, y)})
}

func (f *fixture) stroke(from, to geom.Point) {
	f.pointer(events.PointerDown, events.Mouse, 1, from.X, from.Y)
	f.pointer(events.PointerMove, events.Mouse, 1, to.X, to.Y)
	f.pointer(events.PointerUp, events.Mouse, 1, to.X, to.Y)
}

func (f *fixture) click(action, value string) {
	f.doc.Dispatch(TargetToolbar, events.Event{Type: events.Click, Action: action, Value: value})
}

func (f *fixture) flush(t *testing.T) {
	t.Helper()
	if err := f.ed.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
}

func painted(img *image.RGBA, x, y int) bool { return img.RGBAAt(x, y).A > 0 }

func TestTealLineScenario(t *testing.T) {
	f := newFixture(t)
	f.click(toolbar.ActionSize, "6")
	f.click(toolbar.ActionColor, "teal")
	f.stroke(geom.Pt(0, 0), geom.Pt(100, 0))

	layer := f.ed.Drawing()
	for x := 0; x <= 100; x++ {
		if !painted(layer, x, 0) {
			t.Fatalf("no paint at (%d,0)", x)
		}
	}
	if painted(layer, 0, 5) {
		t.Fatal("stroke thicker than the brush")
	}
	if got := layer.RGBAAt(50, 1); got.G < 100 || got.B < 100 || got.R > 20 {
		t.Fatalf("stroke color %+v is not teal", got)
	}

	f.flush(t)
	if f.store.Len() != 1 {
		t.Fatalf("store holds %d blobs, want 1", f.store.Len())
	}
	m := f.ed.Maps().Active()
	if m.DrawingBlobID == "" {
		t.Fatal("map has no drawing blob")
	}
	if f.dirty == 0 {
		t.Fatal("document never marked dirty")
	}
}

func TestMapIsolation(t *testing.T) {
	f := newFixture(t)
	a := f.ed.Maps().ActiveID()
	f.stroke(geom.Pt(10, 10), geom.Pt(150, 10))

	f.click(maplist.ActionAdd, "")
	b := f.ed.Maps().ActiveID()
	if a == b {
		t.Fatal("add did not switch maps")
	}
	if painted(f.ed.Drawing(), 50, 10) {
		t.Fatal("map B shows map A's stroke")
	}
	if f.ed.CanUndo() {
		t.Fatal("history leaked across maps")
	}
	f.stroke(geom.Pt(10, 60), geom.Pt(150, 60))

	f.click(maplist.ActionSwitch, a)
	layer := f.ed.Drawing()
	if !painted(layer, 50, 10) || painted(layer, 50, 60) {
		t.Fatal("map A not restored unchanged")
	}
	if f.ed.CanUndo() {
		t.Fatal("history leaked from map B")
	}

	f.click(maplist.ActionSwitch, b)
	layer = f.ed.Drawing()
	if painted(layer, 50, 10) || !painted(layer, 50, 60) {
		t.Fatal("map B affected by map A")
	}
	f.flush(t)
	if f.store.Len() != 2 {
		t.Fatalf("store holds %d blobs, want one per map", f.store.Len())
	}
}

func TestUndoRedo(t *testing.T) {
	f := newFixture(t)
	f.stroke(geom.Pt(10, 20), geom.Pt(150, 20))
	f.stroke(geom.Pt(10, 70), geom.Pt(150, 70))

	f.ed.Undo()
	if !painted(f.ed.Drawing(), 50, 20) || painted(f.ed.Drawing(), 50, 70) {
		t.Fatal("undo did not restore the state before the second stroke")
	}
	if !f.ed.CanRedo() {
		t.Fatal("nothing to redo")
	}
	f.ed.Redo()
	if !painted(f.ed.Drawing(), 50, 70) {
		t.Fatal("redo did not restore the second stroke")
	}

	f.ed.Undo()
	f.stroke(geom.Pt(10, 90), geom.Pt(20, 90))
	if f.ed.CanRedo() {
		t.Fatal("a new stroke must clear redo")
	}
}

func TestUndoEmptyIsNoop(t *testing.T) {
	f := newFixture(t)
	f.ed.Undo()
	if f.ed.Status() != "Nothing to undo" {
		t.Fatalf("status = %q", f.ed.Status())
	}
	f.flush(t)
	if f.store.Len() != 0 {
		t.Fatal("empty undo committed")
	}
}

func TestClearNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.stroke(geom.Pt(10, 20), geom.Pt(150, 20))
	f.dlg.confirm = false
	f.click(toolbar.ActionClear, "")
	if !painted(f.ed.Drawing(), 50, 20) {
		t.Fatal("cleared without confirmation")
	}
	f.dlg.confirm = true
	f.click(toolbar.ActionClear, "")
	if painted(f.ed.Drawing(), 50, 20) {
		t.Fatal("clear left paint")
	}
	f.ed.Undo()
	if !painted(f.ed.Drawing(), 50, 20) {
		t.Fatal("clear is not undoable")
	}
}

func TestTouchGestureDoesNotDraw(t *testing.T) {
	f := newFixture(t)
	f.pointer(events.PointerDown, events.Touch, 1, 50, 50)
	f.pointer(events.PointerDown, events.Touch, 2, 120, 50)
	f.pointer(events.PointerMove, events.Touch, 1, 20, 80)
	f.pointer(events.PointerMove, events.Touch, 2, 180, 80)
	f.pointer(events.PointerUp, events.Touch, 2, 180, 80)
	f.pointer(events.PointerUp, events.Touch, 1, 20, 80)
	for _, v := range f.ed.Drawing().Pix {
		if v != 0 {
			t.Fatal("two-finger gesture drew on the layer")
		}
	}
	if f.ed.CanUndo() {
		t.Fatal("gesture pushed history")
	}
}

func TestTouchTapDrawsDot(t *testing.T) {
	f := newFixture(t)
	f.pointer(events.PointerDown, events.Touch, 1, 50, 50)
	f.pointer(events.PointerUp, events.Touch, 1, 52, 51)
	if !painted(f.ed.Drawing(), 50, 50) {
		t.Fatal("tap did not draw a dot")
	}
}

func TestZoomButtonsClamp(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 20; i++ {
		f.click(toolbar.ActionZoomIn, "")
	}
	if f.ed.Scale() != 3.0 {
		t.Fatalf("scale = %v, want 3", f.ed.Scale())
	}
	for i := 0; i < 40; i++ {
		f.click(toolbar.ActionZoomOut, "")
	}
	if math.Abs(f.ed.Scale()-0.6) > 1e-9 {
		t.Fatalf("scale = %v, want 0.6", f.ed.Scale())
	}
	f.click(toolbar.ActionZoomReset, "")
	if f.ed.Scale() != 1 || f.ed.Scroll() != (geom.Point{}) {
		t.Fatal("zoom reset")
	}
}

func TestBackgroundIsNotPartOfDrawing(t *testing.T) {
	f := newFixture(t)
	bg := image.NewRGBA(image.Rect(0, 0, 20, 10))
	for i := 0; i < len(bg.Pix); i += 4 {
		bg.Pix[i], bg.Pix[i+3] = 200, 255
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, bg); err != nil {
		t.Fatal(err)
	}
	if err := f.ed.SetBackground(buf.Bytes()); err != nil {
		t.Fatalf("set background: %v", err)
	}
	if f.ed.Visible().RGBAAt(100, 50).R < 150 {
		t.Fatal("background not rendered")
	}
	if painted(f.ed.Drawing(), 100, 50) {
		t.Fatal("background leaked into the drawing layer")
	}
	f.flush(t)
	if f.ed.Maps().Active().BackgroundBlobID == "" {
		t.Fatal("background blob not recorded")
	}
	if err := f.ed.SetBackground([]byte("nope")); err == nil || f.dlg.alerts != 1 {
		t.Fatalf("invalid background: err=%v alerts=%d", err, f.dlg.alerts)
	}
}

func TestExportPNG(t *testing.T) {
	f := newFixture(t)
	f.stroke(geom.Pt(10, 10), geom.Pt(50, 10))
	var buf bytes.Buffer
	if err := f.ed.ExportPNG(&buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 100 {
		t.Fatalf("export size %v", img.Bounds())
	}
	if _, _, _, a := img.At(1, 90).RGBA(); a != 0xffff {
		t.Fatal("export should be opaque over the empty color")
	}
}

func TestMissingTargets(t *testing.T) {
	doc := events.NewDocument(TargetCanvas)
	ed, err := New(doc)
	if err != nil {
		t.Fatalf("non-dev mode should degrade: %v", err)
	}
	if ed.Active() {
		t.Fatal("degraded editor reports active")
	}
	if ed.Status() == "" {
		t.Fatal("no status message for the missing target")
	}
	ed.Undo()
	ed.Redo()
	ed.Clear()
	ed.ZoomReset()
	if got := ed.Serialize(); len(got["maps"].([]any)) != 1 {
		t.Fatalf("serialize = %v", got)
	}
	ed.Destroy()

	_, err = New(doc, WithDevMode(true))
	if !errors.Is(err, ErrMissingElement) {
		t.Fatalf("dev mode err = %v", err)
	}
}

func TestLoadSanitizes(t *testing.T) {
	f := newFixture(t)
	err := f.ed.Load(map[string]any{
		"activeMapId": "b",
		"maps": []any{
			map[string]any{"id": "a", "name": "Cave", "onClick": func() {}},
			map[string]any{"id": "b", "name": "Keep", "brushSize": math.Inf(1), "notes": "keep me"},
		},
		"undoStack": []any{"data:image/png;base64,AAAA", 7},
	})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f.ed.Maps().ActiveID() != "b" || f.ed.Maps().Len() != 2 {
		t.Fatalf("state = %+v", f.ed.State())
	}
	if f.ed.CanUndo() {
		t.Fatal("invalid history entries installed")
	}
	if f.ed.Status() == "" {
		t.Fatal("dropped history not reported")
	}

	out := f.ed.Serialize()
	if len(out) != 2 {
		t.Fatalf("serialize keys = %v", out)
	}
	maps := out["maps"].([]any)
	if _, ok := maps[0].(map[string]any)["onClick"]; ok {
		t.Fatal("function survived load")
	}
	if maps[1].(map[string]any)["notes"] != "keep me" {
		t.Fatal("unknown field not preserved")
	}

	if err := f.ed.Load("not an object"); err == nil {
		t.Fatal("expected error for a non-object")
	}
}

func TestDestroyIsIdempotentAndDetaches(t *testing.T) {
	f := newFixture(t)
	f.pointer(events.PointerDown, events.Mouse, 1, 10, 10)
	f.ed.Destroy()
	f.ed.Destroy()
	canvas, _ := f.doc.Lookup(TargetCanvas)
	if canvas.ListenerCount() != 0 {
		t.Fatalf("%d listeners survived destroy", canvas.ListenerCount())
	}
	f.pointer(events.PointerMove, events.Mouse, 1, 50, 10)
	f.pointer(events.PointerUp, events.Mouse, 1, 50, 10)
	f.ed.Undo()
	if f.ed.Visible() != nil {
		t.Fatal("canvas not released")
	}
	if f.store.Len() != 1 {
		t.Fatalf("in-flight commit lost: %d blobs", f.store.Len())
	}
}

func TestResizeCentersZoom(t *testing.T) {
	f := newFixture(t)
	f.doc.Dispatch(TargetWindow, events.Event{Type: events.Resize, Width: 200, Height: 100})
	f.click(toolbar.ActionZoomIn, "")
	// content at the centre stays at the centre
	c := geom.Pt(100, 50)
	content := f.ed.Scroll().Add(c).Div(f.ed.Scale())
	if geom.Distance(content, c) > 1e-9 {
		t.Fatalf("centre moved to %v", content)
	}
}

func TestLoadAppliesViewScale(t *testing.T) {
	f := newFixture(t)
	f.doc.Dispatch(TargetWindow, events.Event{Type: events.Resize, Width: 200, Height: 100})
	f.click(toolbar.ActionZoomIn, "")
	if f.ed.Scroll() == (geom.Point{}) {
		t.Fatal("zoom did not scroll")
	}

	if err := f.ed.Load(map[string]any{"ui": map[string]any{"viewScale": 2.0}}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := f.ed.State().UI.ViewScale; got != 2 {
		t.Fatalf("state scale = %v", got)
	}
	if f.ed.Scale() != 2 || f.ed.Scroll() != (geom.Point{}) {
		t.Fatalf("view scale = %v scroll = %v", f.ed.Scale(), f.ed.Scroll())
	}

	// screen x 20..60 is canvas x 10..30 at scale 2
	f.stroke(geom.Pt(20, 20), geom.Pt(60, 20))
	layer := f.ed.Drawing()
	if !painted(layer, 20, 10) || painted(layer, 50, 20) {
		t.Fatal("pointer not mapped through the loaded scale")
	}
}

// gatedStore holds every Get until release is called.
type gatedStore struct {
	*storage.Memory
	gate chan struct{}
	once sync.Once
}

func (s *gatedStore) Get(ctx context.Context, id string) (*storage.Blob, error) {
	select {
	case <-s.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return s.Memory.Get(ctx, id)
}

func (s *gatedStore) release() { s.once.Do(func() { close(s.gate) }) }

func TestSlowLoadNeverOverwritesDrawing(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	saved := image.NewRGBA(image.Rect(0, 0, 200, 100))
	saved.SetRGBA(5, 5, color.RGBA{200, 0, 0, 255})
	data, err := raster.EncodePNG(saved)
	if err != nil {
		t.Fatal(err)
	}
	blobID, _ := mem.Put(ctx, storage.Blob{Type: raster.BlobType, Data: data})
	state := mapstate.State{
		ActiveMapID: "a",
		Maps:        []mapstate.MapEntry{{ID: "a", Name: "Cave", DrawingBlobID: blobID}},
	}

	slow := &gatedStore{Memory: mem, gate: make(chan struct{})}
	f := newFixture(t, WithStore(slow), WithState(state), WithLoadTimeout(20*time.Millisecond))
	t.Cleanup(slow.release)

	if f.ed.Status() == "" {
		t.Fatal("failed load not reported")
	}
	f.stroke(geom.Pt(10, 50), geom.Pt(150, 50))
	f.ed.Clear()
	slow.release()
	f.flush(t)

	if got := f.ed.Maps().Active().DrawingBlobID; got != blobID {
		t.Fatalf("drawing blob replaced: %q", got)
	}
	if b, _ := mem.Get(ctx, blobID); b == nil {
		t.Fatal("stored drawing deleted")
	}

	// once the store answers the map loads and saves normally again
	f.click(maplist.ActionAdd, "")
	f.click(maplist.ActionSwitch, "a")
	if !painted(f.ed.Drawing(), 5, 5) {
		t.Fatal("stored drawing not loaded after recovery")
	}
	f.stroke(geom.Pt(10, 50), geom.Pt(150, 50))
	f.flush(t)
	if got := f.ed.Maps().Active().DrawingBlobID; got == blobID || got == "" {
		t.Fatalf("commit after recovery did not land: %q", got)
	}
}
