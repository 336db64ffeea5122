package editor

import (
	"context"
	"log"

	"github.com/example/battlemap/internal/geom"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/raster"
)

// strokes is the pointer coordinator's view of the editor.
type strokes struct{ e *Editor }

func (s strokes) BeginStroke() { s.e.hist.Push(s.e.snapshot()) }

func (s strokes) Dot(p geom.Point) {
	raster.DrawDot(s.e.composer.Drawing, p, s.e.toolbar.Brush())
	s.e.composer.Render()
}

func (s strokes) Line(from, to geom.Point) {
	raster.DrawLine(s.e.composer.Drawing, from, to, s.e.toolbar.Brush())
	s.e.composer.Render()
}

func (s strokes) Commit() { s.e.commit() }

// workspace is the map list's view of the editor.
type workspace struct{ e *Editor }

func (w workspace) Leave(commit bool) {
	w.e.pointer.Reset()
	if commit {
		w.e.commit()
	}
	w.e.hist.Clear()
}

// Enter loads the map through the persistence queue, so it sees every
// commit issued before the switch. It blocks the UI goroutine for at most
// the load timeout. When the drawing cannot be fetched the map is marked
// unloaded and its edits stay on screen only.
func (w workspace) Enter(mapID string) {
	e := w.e
	if !e.live() {
		return
	}
	e.pointer.Reset()
	e.hist.Clear()
	ctx, cancel := context.WithTimeout(e.ctx, e.opts.loadTimeout)
	defer cancel()
	bg, err := e.persist.LoadBackground(ctx, mapID)
	if err != nil {
		log.Printf("load background: %v", err)
	}
	e.composer.SetBackground(bg)
	e.unloaded = ""
	if err := e.persist.LoadDrawingLayer(ctx, mapID, e.composer.Drawing); err != nil {
		// the stored drawing may still exist; a commit now would replace it
		log.Printf("load drawing: %v", err)
		e.composer.ClearDrawing()
		e.unloaded = mapID
		e.setStatus(statusNotLoaded)
	}
	e.composer.Render()
}

func (w workspace) DeleteBlobs(m mapstate.MapEntry) { w.e.persist.DeleteBlobs(m) }

func (w workspace) MarkDirty() { w.e.markDirty() }

// viewport is the scroll and scale of the canvas inside the window. The
// scale is mirrored into the document's UI state.
type viewport struct {
	maps   *mapstate.Collection
	scroll geom.Point
	scale  float64
	w, h   int
}

func (v *viewport) Scroll() geom.Point     { return v.scroll }
func (v *viewport) SetScroll(p geom.Point) { v.scroll = p }

func (v *viewport) Scale() float64 {
	if v.scale <= 0 {
		return 1
	}
	return v.scale
}

func (v *viewport) SetScale(s float64) {
	v.scale = s
	v.maps.UpdateUI(func(ui *mapstate.UIState) { ui.ViewScale = s })
}

func (v *viewport) resize(w, h int) { v.w, v.h = w, h }

func (v *viewport) center() geom.Point { return geom.Pt(float64(v.w)/2, float64(v.h)/2) }
