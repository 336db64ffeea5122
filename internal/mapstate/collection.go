package mapstate

import (
	"strings"
	"sync"
)

// Collection guards a State. The persistence worker and the autosave timer
// read and write it from their own goroutines.
type Collection struct {
	mu sync.Mutex
	s  State
}

// NewCollection returns a collection holding the normalised form of s.
func NewCollection(s State) *Collection {
	return &Collection{s: Normalize(s)}
}

// State returns a deep copy of the current state.
func (c *Collection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.Clone()
}

// Replace installs the normalised form of s.
func (c *Collection) Replace(s State) {
	s = Normalize(s)
	c.mu.Lock()
	c.s = s
	c.mu.Unlock()
}

// ActiveID returns the active map id.
func (c *Collection) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.ActiveMapID
}

// Active returns a copy of the active map.
func (c *Collection) Active() MapEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.Maps[c.s.Find(c.s.ActiveMapID)].Clone()
}

// Entry returns a copy of the map with id.
func (c *Collection) Entry(id string) (MapEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.s.Find(id)
	if i < 0 {
		return MapEntry{}, false
	}
	return c.s.Maps[i].Clone(), true
}

// List returns copies of every map in order.
func (c *Collection) List() []MapEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]MapEntry, len(c.s.Maps))
	for i, m := range c.s.Maps {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of maps.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.s.Maps)
}

// SetActive makes id the active map.
func (c *Collection) SetActive(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.s.Find(id) < 0 {
		return false
	}
	c.s.ActiveMapID = id
	return true
}

// Add appends a new map named name and returns it. It does not change the
// active map.
func (c *Collection) Add(name string) MapEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName(len(c.s.Maps) + 1)
	}
	m := NewEntry(name)
	for c.s.Find(m.ID) >= 0 {
		m.ID = NewMapID()
	}
	c.s.Maps = append(c.s.Maps, m)
	return m.Clone()
}

// Update applies fn to the map with id under the lock.
func (c *Collection) Update(id string, fn func(*MapEntry)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.s.Find(id)
	if i < 0 {
		return false
	}
	m := c.s.Maps[i]
	fn(&m)
	m.ID = c.s.Maps[i].ID
	m.BrushSize = ClampBrushSize(m.BrushSize)
	c.s.Maps[i] = m
	return true
}

// Remove deletes the map with id. When it is the only map a fresh default
// map is created first, so the collection is never empty. If the removed
// map was active the first remaining map becomes active.
func (c *Collection) Remove(id string) (MapEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.s.Find(id)
	if i < 0 {
		return MapEntry{}, false
	}
	if len(c.s.Maps) == 1 {
		c.s.Maps = append(c.s.Maps, NewEntry(DefaultName(1)))
	}
	removed := c.s.Maps[i]
	c.s.Maps = append(c.s.Maps[:i:i], c.s.Maps[i+1:]...)
	if c.s.ActiveMapID == id {
		c.s.ActiveMapID = c.s.Maps[0].ID
	}
	return removed, true
}

// SwapDrawing sets the drawing blob of map id and returns the previous one.
// ok is false when the map no longer exists.
func (c *Collection) SwapDrawing(id, blobID string) (prev string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.s.Find(id)
	if i < 0 {
		return "", false
	}
	prev = c.s.Maps[i].DrawingBlobID
	c.s.Maps[i].DrawingBlobID = blobID
	return prev, true
}

// SwapBackground sets the background blob of map id and returns the
// previous one.
func (c *Collection) SwapBackground(id, blobID string) (prev string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.s.Find(id)
	if i < 0 {
		return "", false
	}
	prev = c.s.Maps[i].BackgroundBlobID
	c.s.Maps[i].BackgroundBlobID = blobID
	return prev, true
}

// UI returns the toolbar state.
func (c *Collection) UI() UIState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.UI
}

// UpdateUI applies fn to the toolbar state and renormalises it.
func (c *Collection) UpdateUI(fn func(*UIState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ui := c.s.UI
	fn(&ui)
	c.s.UI = normalizeUI(ui)
}

// BlobIDs returns every blob id referenced by any map.
func (c *Collection) BlobIDs() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := map[string]bool{}
	for _, m := range c.s.Maps {
		if m.BackgroundBlobID != "" {
			ids[m.BackgroundBlobID] = true
		}
		if m.DrawingBlobID != "" {
			ids[m.DrawingBlobID] = true
		}
	}
	return ids
}
