// Package mapstate is the persisted model of a battle-map document: the
// named maps, which one is active, and the toolbar state around them.
package mapstate

import (
	"fmt"
	"math"
	"strings"

	"github.com/example/battlemap/internal/history"
	"github.com/example/battlemap/internal/palette"
	"github.com/google/uuid"
)

// Brush size bounds and default, in canvas pixels.
const (
	MinBrushSize     = 1
	MaxBrushSize     = 64
	DefaultBrushSize = 6
)

// Scale bounds mirror the gesture defaults; a persisted scale outside them
// resets to 1.
const (
	minViewScale = 0.6
	maxViewScale = 3.0
)

// Tools accepted in UIState.ActiveTool.
var Tools = []string{"brush", "eraser", "pan"}

// MapEntry is one named map.
type MapEntry struct {
	ID               string
	Name             string
	BackgroundBlobID string
	DrawingBlobID    string
	BrushSize        int
	ColorKey         string

	// Extra keeps persisted fields this version does not know about.
	Extra map[string]any
}

// UIState is the toolbar state shared by all maps.
type UIState struct {
	ActiveTool string
	BrushSize  int
	ViewScale  float64
}

// State is a whole document.
type State struct {
	ActiveMapID string
	Maps        []MapEntry
	UndoStack   []history.Snapshot
	RedoStack   []history.Snapshot
	UI          UIState
}

// NewMapID returns a fresh map id.
func NewMapID() string {
	return "map_" + uuid.Must(uuid.NewV7()).String()
}

// DefaultName is the name given to the n-th map when none is supplied.
func DefaultName(n int) string {
	if n <= 1 {
		return "Map"
	}
	return fmt.Sprintf("Map %d", n)
}

// NewEntry returns a map with default brush settings.
func NewEntry(name string) MapEntry {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(1)
	}
	return MapEntry{
		ID:        NewMapID(),
		Name:      name,
		BrushSize: DefaultBrushSize,
		ColorKey:  palette.DefaultKey,
	}
}

// Default returns a document with a single empty map.
func Default() State {
	return Normalize(State{})
}

// Normalize repairs s so every invariant holds: at least one map, unique
// non-empty ids, a valid active id, clamped sizes and known tools. Invalid
// history entries are dropped.
func Normalize(s State) State {
	out := State{ActiveMapID: strings.TrimSpace(s.ActiveMapID)}
	seen := map[string]bool{}
	for _, m := range s.Maps {
		m = normalizeEntry(m, len(out.Maps)+1)
		for seen[m.ID] {
			m.ID = NewMapID()
		}
		seen[m.ID] = true
		out.Maps = append(out.Maps, m)
	}
	if len(out.Maps) == 0 {
		out.Maps = []MapEntry{NewEntry(DefaultName(1))}
	}
	if !seen[out.ActiveMapID] {
		out.ActiveMapID = out.Maps[0].ID
	}
	out.UndoStack = validSnapshots(s.UndoStack)
	out.RedoStack = validSnapshots(s.RedoStack)
	out.UI = normalizeUI(s.UI)
	return out
}

func normalizeEntry(m MapEntry, n int) MapEntry {
	m.ID = strings.TrimSpace(m.ID)
	if m.ID == "" {
		m.ID = NewMapID()
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		m.Name = DefaultName(n)
	}
	m.BackgroundBlobID = strings.TrimSpace(m.BackgroundBlobID)
	m.DrawingBlobID = strings.TrimSpace(m.DrawingBlobID)
	m.BrushSize = ClampBrushSize(m.BrushSize)
	m.ColorKey = palette.Normalize(m.ColorKey)
	if len(m.Extra) == 0 {
		m.Extra = nil
	} else {
		m.Extra = copyMap(m.Extra)
	}
	return m
}

func normalizeUI(ui UIState) UIState {
	if !KnownTool(ui.ActiveTool) {
		ui.ActiveTool = Tools[0]
	}
	ui.BrushSize = ClampBrushSize(ui.BrushSize)
	if math.IsNaN(ui.ViewScale) || ui.ViewScale < minViewScale || ui.ViewScale > maxViewScale {
		ui.ViewScale = 1
	}
	return ui
}

// ClampBrushSize limits n to the brush range; zero or negative selects
// DefaultBrushSize.
func ClampBrushSize(n int) int {
	switch {
	case n <= 0:
		return DefaultBrushSize
	case n > MaxBrushSize:
		return MaxBrushSize
	}
	return n
}

// KnownTool reports whether tool is one of Tools.
func KnownTool(tool string) bool {
	for _, t := range Tools {
		if t == tool {
			return true
		}
	}
	return false
}

func validSnapshots(in []history.Snapshot) []history.Snapshot {
	var out []history.Snapshot
	for _, s := range in {
		if s.Valid() {
			out = append(out, s)
		}
	}
	return out
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := s
	out.Maps = make([]MapEntry, len(s.Maps))
	for i, m := range s.Maps {
		out.Maps[i] = m.Clone()
	}
	out.UndoStack = append([]history.Snapshot(nil), s.UndoStack...)
	out.RedoStack = append([]history.Snapshot(nil), s.RedoStack...)
	return out
}

// Clone returns a deep copy of m.
func (m MapEntry) Clone() MapEntry {
	m.Extra = copyMap(m.Extra)
	return m
}

// Find returns the index of the map with id, or -1.
func (s State) Find(id string) int {
	for i, m := range s.Maps {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out, _ := Sanitize(in).(map[string]any)
	return out
}
