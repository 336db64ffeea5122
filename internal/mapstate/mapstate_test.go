package mapstate

import (
	"math"
	"strings"
	"testing"

	"github.com/example/battlemap/internal/history"
)

func TestNormalizeEmpty(t *testing.T) {
	s := Normalize(State{})
	if len(s.Maps) != 1 {
		t.Fatalf("got %d maps, want 1", len(s.Maps))
	}
	if s.ActiveMapID != s.Maps[0].ID {
		t.Errorf("active id %q does not reference a map", s.ActiveMapID)
	}
	if !strings.HasPrefix(s.ActiveMapID, "map_") {
		t.Errorf("id %q lacks map_ prefix", s.ActiveMapID)
	}
	if s.UI.ActiveTool != "brush" || s.UI.BrushSize != DefaultBrushSize || s.UI.ViewScale != 1 {
		t.Errorf("unexpected UI defaults %+v", s.UI)
	}
}

func TestNormalizeRepairs(t *testing.T) {
	s := Normalize(State{
		ActiveMapID: "missing",
		Maps: []MapEntry{
			{ID: "a", Name: "  ", BrushSize: 500, ColorKey: "TEAL"},
			{ID: "a", Name: "dup", BrushSize: -3, ColorKey: "not-a-color"},
		},
		UndoStack: []history.Snapshot{"junk"},
		UI:        UIState{ActiveTool: "lasso", ViewScale: math.NaN()},
	})
	if len(s.Maps) != 2 {
		t.Fatalf("got %d maps", len(s.Maps))
	}
	if s.Maps[0].ID == s.Maps[1].ID {
		t.Fatal("duplicate ids survived")
	}
	if s.ActiveMapID != "a" {
		t.Errorf("active = %q, want first map", s.ActiveMapID)
	}
	if s.Maps[0].Name != "Map" || s.Maps[0].BrushSize != MaxBrushSize || s.Maps[0].ColorKey != "teal" {
		t.Errorf("first map not repaired: %+v", s.Maps[0])
	}
	if s.Maps[1].BrushSize != DefaultBrushSize || s.Maps[1].ColorKey != "red" {
		t.Errorf("second map not repaired: %+v", s.Maps[1])
	}
	if len(s.UndoStack) != 0 {
		t.Error("invalid snapshot kept")
	}
	if s.UI.ActiveTool != "brush" || s.UI.ViewScale != 1 {
		t.Errorf("ui not repaired: %+v", s.UI)
	}
}

func TestSanitizeDropsUnsafeValues(t *testing.T) {
	cyclic := map[string]any{"name": "loop"}
	cyclic["self"] = cyclic
	in := map[string]any{
		"fn":     func() {},
		"ch":     make(chan int),
		"nan":    math.NaN(),
		"inf":    math.Inf(1),
		"n":      3,
		"list":   []any{1.5, func() {}, "x"},
		"cyclic": cyclic,
		"struct": struct{ A int }{1},
		"ints":   map[int]string{1: "a"},
	}
	out, ok := Sanitize(in).(map[string]any)
	if !ok {
		t.Fatalf("Sanitize returned %T", Sanitize(in))
	}
	for _, k := range []string{"fn", "ch", "nan", "inf", "struct", "ints"} {
		if _, present := out[k]; present {
			t.Errorf("key %q survived", k)
		}
	}
	if out["n"] != 3.0 {
		t.Errorf("n = %#v, want 3.0", out["n"])
	}
	list := out["list"].([]any)
	if len(list) != 2 || list[0] != 1.5 || list[1] != "x" {
		t.Errorf("list = %#v", list)
	}
	c := out["cyclic"].(map[string]any)
	if c["name"] != "loop" {
		t.Errorf("cyclic name lost: %#v", c)
	}
	if _, present := c["self"]; present {
		t.Error("cycle survived")
	}
}

func TestSanitizeCopies(t *testing.T) {
	in := map[string]any{"list": []any{"a"}}
	out := Sanitize(in).(map[string]any)
	out["list"].([]any)[0] = "b"
	if in["list"].([]any)[0] != "a" {
		t.Fatal("Sanitize shared storage with its input")
	}
}

func TestFromValueKeepsExtraFields(t *testing.T) {
	s := FromValue(map[string]any{
		"activeMapId": "m2",
		"maps": []any{
			map[string]any{"id": "m1", "name": "Cave", "brushSize": 12.0, "colorKey": "teal", "grid": map[string]any{"size": 32.0}},
			map[string]any{"id": "m2", "name": "Keep", "drawingBlobId": "blob_1", "backgroundBlobId": nil},
			"garbage",
		},
		"undoStack": []any{42.0},
	})
	if len(s.Maps) != 2 || s.ActiveMapID != "m2" {
		t.Fatalf("unexpected state %+v", s)
	}
	if s.Maps[0].BrushSize != 12 || s.Maps[0].ColorKey != "teal" {
		t.Errorf("map fields lost: %+v", s.Maps[0])
	}
	if s.Maps[1].DrawingBlobID != "blob_1" || s.Maps[1].BackgroundBlobID != "" {
		t.Errorf("blob ids wrong: %+v", s.Maps[1])
	}

	out := ToValue(s)
	maps := out["maps"].([]any)
	grid, ok := maps[0].(map[string]any)["grid"].(map[string]any)
	if !ok || grid["size"] != 32.0 {
		t.Fatalf("extra field not written back: %#v", maps[0])
	}
	if maps[1].(map[string]any)["backgroundBlobId"] != nil {
		t.Error("unset blob id should serialise as nil")
	}
	if _, present := out["undoStack"]; present {
		t.Error("history must not be serialised")
	}
	if len(out) != 2 {
		t.Errorf("serialised keys = %v, want activeMapId and maps", out)
	}
}

func TestEncodeDecode(t *testing.T) {
	s := Default()
	s.Maps[0].Name = "Dungeon"
	s.Maps[0].DrawingBlobID = "blob_x"
	data, err := Encode(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ActiveMapID != s.ActiveMapID || got.Maps[0].Name != "Dungeon" || got.Maps[0].DrawingBlobID != "blob_x" {
		t.Fatalf("decoded %+v", got)
	}
	if _, err := Decode([]byte("{")); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestCollectionRemoveKeepsOneMap(t *testing.T) {
	c := NewCollection(State{})
	only := c.ActiveID()
	if _, ok := c.Remove(only); !ok {
		t.Fatal("remove failed")
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
	if c.ActiveID() == only {
		t.Fatal("removed map still active")
	}
}

func TestCollectionRemoveActivatesFirst(t *testing.T) {
	c := NewCollection(State{})
	first := c.ActiveID()
	second := c.Add("Second")
	c.SetActive(second.ID)
	c.Remove(second.ID)
	if c.ActiveID() != first {
		t.Fatalf("active = %q, want %q", c.ActiveID(), first)
	}
}

func TestCollectionSwapDrawing(t *testing.T) {
	c := NewCollection(State{})
	id := c.ActiveID()
	if prev, ok := c.SwapDrawing(id, "b1"); !ok || prev != "" {
		t.Fatalf("first swap = %q, %v", prev, ok)
	}
	if prev, _ := c.SwapDrawing(id, "b2"); prev != "b1" {
		t.Fatalf("second swap prev = %q", prev)
	}
	if _, ok := c.SwapDrawing("gone", "b3"); ok {
		t.Fatal("swap on missing map succeeded")
	}
	if ids := c.BlobIDs(); !ids["b2"] || len(ids) != 1 {
		t.Fatalf("blob ids = %v", ids)
	}
}

func TestCollectionUpdateCannotChangeID(t *testing.T) {
	c := NewCollection(State{})
	id := c.ActiveID()
	c.Update(id, func(m *MapEntry) {
		m.ID = "hijack"
		m.Name = "Renamed"
		m.BrushSize = 1000
	})
	m, ok := c.Entry(id)
	if !ok || m.Name != "Renamed" || m.BrushSize != MaxBrushSize {
		t.Fatalf("update result %+v, %v", m, ok)
	}
}
