package mapstate

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/example/battlemap/internal/history"
)

// Persisted keys.
const (
	keyActiveMapID = "activeMapId"
	keyMaps        = "maps"
	keyUndoStack   = "undoStack"
	keyRedoStack   = "redoStack"
	keyUI          = "ui"

	keyID               = "id"
	keyName             = "name"
	keyBackgroundBlobID = "backgroundBlobId"
	keyDrawingBlobID    = "drawingBlobId"
	keyBrushSize        = "brushSize"
	keyColorKey         = "colorKey"

	keyActiveTool = "activeTool"
	keyViewScale  = "viewScale"
)

// FromValue builds a normalised State from untrusted input. The input is
// sanitised first, so anything a JSON decoder or a caller hands over is
// accepted. Fields of the wrong type fall back to defaults.
func FromValue(v any) State {
	root, _ := Sanitize(v).(map[string]any)
	var s State
	s.ActiveMapID, _ = root[keyActiveMapID].(string)
	if list, ok := root[keyMaps].([]any); ok {
		for _, item := range list {
			if obj, ok := item.(map[string]any); ok {
				s.Maps = append(s.Maps, entryFromValue(obj))
			}
		}
	}
	s.UndoStack = history.SnapshotsFrom(root[keyUndoStack])
	s.RedoStack = history.SnapshotsFrom(root[keyRedoStack])
	if ui, ok := root[keyUI].(map[string]any); ok {
		s.UI.ActiveTool, _ = ui[keyActiveTool].(string)
		s.UI.BrushSize = intValue(ui[keyBrushSize])
		s.UI.ViewScale, _ = ui[keyViewScale].(float64)
	}
	return Normalize(s)
}

func entryFromValue(obj map[string]any) MapEntry {
	var m MapEntry
	m.ID, _ = obj[keyID].(string)
	m.Name, _ = obj[keyName].(string)
	m.BackgroundBlobID, _ = obj[keyBackgroundBlobID].(string)
	m.DrawingBlobID, _ = obj[keyDrawingBlobID].(string)
	m.BrushSize = intValue(obj[keyBrushSize])
	m.ColorKey, _ = obj[keyColorKey].(string)
	for k, v := range obj {
		switch k {
		case keyID, keyName, keyBackgroundBlobID, keyDrawingBlobID, keyBrushSize, keyColorKey:
			continue
		}
		if m.Extra == nil {
			m.Extra = map[string]any{}
		}
		m.Extra[k] = v
	}
	return m
}

func intValue(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(math.Round(f))
}

// ToValue renders the persisted shape {activeMapId, maps}. History stacks
// and toolbar state are session-local and omitted. Blob ids that are unset
// are written as nil.
func ToValue(s State) map[string]any {
	maps := make([]any, 0, len(s.Maps))
	for _, m := range s.Maps {
		obj := map[string]any{}
		for k, v := range m.Extra {
			obj[k] = v
		}
		obj[keyID] = m.ID
		obj[keyName] = m.Name
		obj[keyBackgroundBlobID] = nullable(m.BackgroundBlobID)
		obj[keyDrawingBlobID] = nullable(m.DrawingBlobID)
		obj[keyBrushSize] = m.BrushSize
		obj[keyColorKey] = m.ColorKey
		maps = append(maps, obj)
	}
	out, _ := Sanitize(map[string]any{
		keyActiveMapID: s.ActiveMapID,
		keyMaps:        maps,
	}).(map[string]any)
	return out
}

func nullable(id string) any {
	if id == "" {
		return nil
	}
	return id
}

// Encode writes the persisted shape of s as JSON.
func Encode(s State) ([]byte, error) {
	data, err := json.MarshalIndent(ToValue(s), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode maps: %w", err)
	}
	return data, nil
}

// Decode parses JSON produced by Encode, or any compatible document.
func Decode(data []byte) (State, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return State{}, fmt.Errorf("decode maps: %w", err)
	}
	return FromValue(v), nil
}
