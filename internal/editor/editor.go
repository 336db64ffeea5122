// Package editor wires the battle-map components together against an
// events.Document and owns their lifecycle.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"sync"
	"time"

	"github.com/example/battlemap/internal/events"
	"github.com/example/battlemap/internal/geom"
	"github.com/example/battlemap/internal/gesture"
	"github.com/example/battlemap/internal/history"
	"github.com/example/battlemap/internal/maplist"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/persist"
	"github.com/example/battlemap/internal/pointer"
	"github.com/example/battlemap/internal/raster"
	"github.com/example/battlemap/internal/storage"
	"github.com/example/battlemap/internal/toolbar"
)

// Target names the editor looks up in its document.
const (
	TargetCanvas  = "canvas"
	TargetWindow  = "window"
	TargetToolbar = "toolbar"
)

// ErrMissingElement reports a required target absent from the document.
var ErrMissingElement = errors.New("editor: missing element")

// zoomStep is the factor applied by the zoom buttons.
const zoomStep = 1.25

const statusNotLoaded = "Drawing not loaded; changes to this map are not saved"

// Editor is the map editor. Its methods are called from the UI goroutine.
type Editor struct {
	opts options
	maps *mapstate.Collection

	ctx    context.Context
	cancel context.CancelFunc

	canvas   *events.Target
	composer *raster.Composer
	hist     *history.History
	gesture  *gesture.Classifier
	pointer  *pointer.Coordinator
	toolbar  *toolbar.Controller
	maplist  *maplist.Controller
	persist  *persist.Adapter
	view     *viewport

	// unloaded is the id of a map whose stored drawing could not be
	// fetched. Its layer is never committed.
	unloaded string

	noop      bool
	destroyed bool

	statusMu    sync.Mutex
	status      string
	statusUntil time.Time
}

// New builds an editor over doc. The document state is normalised before
// any wiring. When a required target is missing New returns a no-op editor
// that only keeps the document state, or an error wrapping
// ErrMissingElement in dev mode.
func New(doc *events.Document, opts ...Option) (*Editor, error) {
	o := defaults()
	for _, opt := range opts {
		opt(&o)
	}
	if o.store == nil {
		o.store = storage.NewMemory()
	}

	e := &Editor{
		opts: o,
		maps: mapstate.NewCollection(o.state),
	}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	targets := map[string]*events.Target{}
	for _, name := range []string{TargetCanvas, TargetWindow, TargetToolbar} {
		t, ok := doc.Lookup(name)
		if !ok {
			err := fmt.Errorf("%w: %s", ErrMissingElement, name)
			if o.dev {
				e.cancel()
				return nil, err
			}
			log.Printf("editor: %v", err)
			e.noop = true
			e.setStatus("Map editor unavailable: no " + name)
			return e, nil
		}
		targets[name] = t
	}
	e.canvas = targets[TargetCanvas]

	e.composer = raster.NewComposer(o.width, o.height, o.empty)
	e.composer.OnRender(o.onRender)
	e.hist = history.New(o.historyLimit)
	e.view = &viewport{maps: e.maps, scale: e.maps.UI().ViewScale}
	e.gesture = gesture.New(e.view, o.gesture)
	e.persist = persist.New(o.store, e.maps,
		persist.WithMarkDirty(e.markDirty),
		persist.WithErrorHandler(e.storeError))
	e.toolbar = toolbar.New(e.maps, toolbar.Actions{
		Undo:      e.Undo,
		Redo:      e.Redo,
		Clear:     e.Clear,
		ZoomIn:    func() { e.zoomBy(zoomStep) },
		ZoomOut:   func() { e.zoomBy(1 / zoomStep) },
		ZoomReset: e.ZoomReset,
		Changed:   e.markDirty,
	})
	e.pointer = pointer.New(e.gesture, e.view, strokes{e},
		pointer.WithDragThreshold(o.dragThreshold),
		pointer.WithTool(e.toolbar.Tool),
		pointer.WithCapture(e.canvas))
	e.maplist = maplist.New(e.maps, workspace{e}, o.dialogs)

	e.listen(targets)
	workspace{e}.Enter(e.maps.ActiveID())
	return e, nil
}

func (e *Editor) listen(t map[string]*events.Target) {
	canvas, window, bar := t[TargetCanvas], t[TargetWindow], t[TargetToolbar]
	canvas.Listen(e.ctx, events.PointerDown, e.pointer.Down)
	canvas.Listen(e.ctx, events.PointerMove, e.pointer.Move)
	canvas.Listen(e.ctx, events.PointerUp, e.pointer.Up)
	canvas.Listen(e.ctx, events.PointerCancel, e.pointer.Cancel)
	// releases that happen off the canvas still end the stroke
	window.Listen(e.ctx, events.PointerUp, e.pointer.Up)
	window.Listen(e.ctx, events.Resize, func(ev events.Event) { e.view.resize(ev.Width, ev.Height) })
	window.Listen(e.ctx, events.KeyDown, func(ev events.Event) { e.toolbar.HandleKey(ev) })
	bar.Listen(e.ctx, events.Click, func(ev events.Event) {
		if !e.toolbar.HandleClick(ev) {
			e.maplist.HandleClick(ev)
		}
	})
}

func (e *Editor) live() bool { return !e.noop && !e.destroyed }

// Active reports whether the editor is wired and not destroyed.
func (e *Editor) Active() bool { return e.live() }

// Maps returns the document's map collection.
func (e *Editor) Maps() *mapstate.Collection { return e.maps }

// Toolbar returns the toolbar controller, or nil for a no-op editor.
func (e *Editor) Toolbar() *toolbar.Controller { return e.toolbar }

// MapList returns the map list controller, or nil for a no-op editor.
func (e *Editor) MapList() *maplist.Controller { return e.maplist }

// Visible returns the composed canvas, or nil once destroyed.
func (e *Editor) Visible() *image.RGBA {
	if !e.live() {
		return nil
	}
	return e.composer.Visible
}

// Drawing returns the drawing layer of the active map.
func (e *Editor) Drawing() *image.RGBA {
	if !e.live() {
		return nil
	}
	return e.composer.Drawing
}

// Scroll returns the viewport scroll offset.
func (e *Editor) Scroll() geom.Point {
	if e.view == nil {
		return geom.Point{}
	}
	return e.view.Scroll()
}

// Scale returns the viewport scale.
func (e *Editor) Scale() float64 {
	if e.view == nil {
		return 1
	}
	return e.view.Scale()
}

// CanUndo reports whether Undo would change anything.
func (e *Editor) CanUndo() bool { return e.live() && e.hist.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (e *Editor) CanRedo() bool { return e.live() && e.hist.CanRedo() }

// Undo restores the previous drawing of the active map.
func (e *Editor) Undo() {
	e.step("undo", e.hist.Undo)
}

// Redo reapplies the last undone drawing.
func (e *Editor) Redo() {
	e.step("redo", e.hist.Redo)
}

func (e *Editor) step(action string, fn func(func() history.Snapshot) (history.Snapshot, bool)) {
	if !e.live() {
		return
	}
	e.pointer.Reset()
	snap, ok := fn(e.snapshot)
	if !ok {
		e.setStatus("Nothing to " + action)
		return
	}
	if err := raster.Restore(e.composer.Drawing, snap); err != nil {
		log.Printf("%s: %v", action, err)
		e.setStatus("Could not " + action)
		return
	}
	e.composer.Render()
	e.commit()
}

// Clear wipes the drawing of the active map after confirmation.
func (e *Editor) Clear() {
	if !e.live() {
		return
	}
	if !e.opts.dialogs.Confirm("Clear the drawing on this map?") {
		return
	}
	e.pointer.Reset()
	e.hist.Push(e.snapshot())
	e.composer.ClearDrawing()
	e.composer.Render()
	e.commit()
}

// SetBackground decodes data and installs it as the background of the
// active map.
func (e *Editor) SetBackground(data []byte) error {
	if !e.live() {
		return ErrMissingElement
	}
	img, err := raster.Decode(data)
	if err != nil {
		e.opts.dialogs.Alert("That file is not an image this editor can read.")
		return fmt.Errorf("set background: %w", err)
	}
	e.composer.SetBackground(img)
	e.composer.Render()
	// the returned channel is ignored; the canvas already shows the image
	e.persist.SetBackground(e.maps.ActiveID(), storage.Blob{Type: raster.ContentType(data), Data: data})
	return nil
}

// ClearBackground removes the background of the active map.
func (e *Editor) ClearBackground() {
	if !e.live() {
		return
	}
	e.composer.SetBackground(nil)
	e.composer.Render()
	e.persist.ClearBackground(e.maps.ActiveID())
}

// ExportPNG writes background and drawing flattened into one PNG.
func (e *Editor) ExportPNG(w io.Writer) error {
	if !e.live() {
		return ErrMissingElement
	}
	img := e.composer.Compose()
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	return nil
}

// Flush waits until every queued store write has landed.
func (e *Editor) Flush(ctx context.Context) error {
	if e.persist == nil {
		return nil
	}
	return e.persist.Flush(ctx)
}

// ZoomReset returns to scale 1 with no scroll.
func (e *Editor) ZoomReset() {
	if !e.live() {
		return
	}
	e.view.SetScale(1)
	e.view.SetScroll(geom.Point{})
	e.composer.Render()
}

func (e *Editor) zoomBy(f float64) {
	if !e.live() {
		return
	}
	e.gesture.Zoom(e.view.Scale()*f, e.view.center())
	e.composer.Render()
}

// Destroy removes every listener, drains pending store writes and
// releases the canvas. It is safe to call more than once.
func (e *Editor) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	e.cancel()
	if e.noop {
		return
	}
	e.pointer.Destroy()
	if err := e.persist.Close(); err != nil {
		log.Printf("destroy: %v", err)
	}
	e.hist.Clear()
	e.composer.Release()
}

// Status returns the current transient status message.
func (e *Editor) Status() string {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	if e.status != "" && time.Now().After(e.statusUntil) {
		e.status = ""
	}
	return e.status
}

func (e *Editor) setStatus(msg string) {
	e.statusMu.Lock()
	e.status = msg
	e.statusUntil = time.Now().Add(StatusDuration)
	fn := e.opts.onStatus
	e.statusMu.Unlock()
	if fn != nil {
		fn(msg)
	}
}

func (e *Editor) storeError(action string, err error) {
	e.setStatus("Storage error: " + action)
	if e.opts.onStoreError != nil {
		e.opts.onStoreError(action, err)
	}
}

func (e *Editor) markDirty() {
	if e.opts.markDirty != nil {
		e.opts.markDirty()
	}
}

func (e *Editor) snapshot() history.Snapshot {
	s, err := raster.Snapshot(e.composer.Drawing)
	if err != nil {
		log.Printf("snapshot: %v", err)
	}
	return s
}

// commit queues the drawing layer of the active map for storage. The
// result is not awaited: the stroke is already on screen and a failure is
// reported through the status line.
func (e *Editor) commit() {
	if !e.live() {
		return
	}
	id := e.maps.ActiveID()
	if id == e.unloaded {
		e.setStatus(statusNotLoaded)
		return
	}
	e.persist.Commit(id, e.composer.Drawing)
}
