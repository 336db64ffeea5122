package editor

import (
	"fmt"

	"github.com/example/battlemap/internal/geom"
	"github.com/example/battlemap/internal/mapstate"
)

// Load installs externally supplied state, for example an imported backup.
// The input is deep-sanitised and normalised first; fields that fail
// validation are dropped or defaulted rather than failing the load. Any
// undoStack and redoStack entries are revalidated into the history.
func (e *Editor) Load(incoming any) error {
	root, ok := mapstate.Sanitize(incoming).(map[string]any)
	if !ok {
		return fmt.Errorf("load: expected an object, got %T", incoming)
	}
	s := mapstate.FromValue(root)
	if !e.live() {
		e.maps.Replace(s)
		return nil
	}
	workspace{e}.Leave(false)
	e.maps.Replace(s)
	e.view.scale = e.maps.UI().ViewScale
	e.view.scroll = geom.Point{}
	workspace{e}.Enter(e.maps.ActiveID())
	dropped := listLen(root["undoStack"]) + listLen(root["redoStack"]) - len(s.UndoStack) - len(s.RedoStack)
	dropped += e.hist.Replace(s.UndoStack, s.RedoStack)
	if dropped > 0 {
		e.setStatus(fmt.Sprintf("Dropped %d unreadable history entries", dropped))
	}
	return nil
}

// Serialize returns the persisted shape {activeMapId, maps} as plain
// values. History is memory-only and never included.
func (e *Editor) Serialize() map[string]any {
	return mapstate.ToValue(e.maps.State())
}

// State returns a copy of the document including the session history.
func (e *Editor) State() mapstate.State {
	s := e.maps.State()
	if e.live() {
		s.UndoStack = e.hist.UndoStack()
		s.RedoStack = e.hist.RedoStack()
	}
	return s
}

func listLen(v any) int {
	l, _ := v.([]any)
	return len(l)
}
