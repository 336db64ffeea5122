// Package palette maps the color keys stored on each map to RGBA values.
package palette

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/colornames"
)

// DefaultKey is the color key given to new maps.
const DefaultKey = "red"

// Entry is one selectable palette color.
type Entry struct {
	Key   string
	Name  string
	Color color.RGBA
}

var (
	mu      sync.RWMutex
	entries = []Entry{
		{"black", "Black", color.RGBA{0, 0, 0, 255}},
		{"white", "White", color.RGBA{255, 255, 255, 255}},
		{"red", "Red", color.RGBA{220, 38, 38, 255}},
		{"orange", "Orange", color.RGBA{234, 88, 12, 255}},
		{"yellow", "Yellow", color.RGBA{250, 204, 21, 255}},
		{"green", "Green", color.RGBA{22, 163, 74, 255}},
		{"teal", "Teal", color.RGBA{0, 128, 128, 255}},
		{"blue", "Blue", color.RGBA{37, 99, 235, 255}},
		{"purple", "Purple", color.RGBA{126, 34, 206, 255}},
		{"brown", "Brown", color.RGBA{120, 72, 32, 255}},
		{"gray", "Gray", color.RGBA{128, 128, 128, 255}},
	}
)

// Entries returns a copy of the selectable colors in display order.
func Entries() []Entry {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Known reports whether key names a palette entry.
func Known(key string) bool {
	_, ok := lookup(normalize(key))
	return ok
}

// Color resolves key to a color. Palette entries win, then the SVG color
// names from x/image/colornames, then #RRGGBB / #RRGGBBAA hex. Anything else
// falls back to the default key.
func Color(key string) color.RGBA {
	k := normalize(key)
	if e, ok := lookup(k); ok {
		return e.Color
	}
	if c, ok := colornames.Map[k]; ok {
		return c
	}
	if c, err := ParseHex(k); err == nil {
		return c
	}
	e, _ := lookup(DefaultKey)
	return e.Color
}

// Normalize returns the canonical form of key, or DefaultKey if key cannot
// be resolved to a color.
func Normalize(key string) string {
	k := normalize(key)
	if _, ok := lookup(k); ok {
		return k
	}
	if _, ok := colornames.Map[k]; ok {
		return k
	}
	if _, err := ParseHex(k); err == nil {
		return k
	}
	return DefaultKey
}

// Ensure registers col under key if no entry with that key exists yet and
// returns the entry index.
func Ensure(key string, col color.RGBA, name string) int {
	k := normalize(key)
	mu.Lock()
	defer mu.Unlock()
	for idx, e := range entries {
		if e.Key == k {
			return idx
		}
	}
	if name == "" {
		name = fmt.Sprintf("#%02X%02X%02X", col.R, col.G, col.B)
	}
	entries = append(entries, Entry{Key: k, Name: name, Color: col})
	return len(entries) - 1
}

// Index returns the palette position of key, or -1.
func Index(key string) int {
	k := normalize(key)
	mu.RLock()
	defer mu.RUnlock()
	for idx, e := range entries {
		if e.Key == k {
			return idx
		}
	}
	return -1
}

// ParseHex parses #RRGGBB or #RRGGBBAA.
func ParseHex(s string) (color.RGBA, error) {
	if !strings.HasPrefix(s, "#") || (len(s) != 7 && len(s) != 9) {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	val, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(s) == 7 {
		return color.RGBA{uint8(val >> 16), uint8(val >> 8), uint8(val), 255}, nil
	}
	return color.RGBA{uint8(val >> 24), uint8(val >> 16), uint8(val >> 8), uint8(val)}, nil
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func lookup(key string) (Entry, bool) {
	mu.RLock()
	defer mu.RUnlock()
	for _, e := range entries {
		if e.Key == key {
			return e, true
		}
	}
	return Entry{}, false
}
