// Package config reads and writes the battlemap rc file.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/example/battlemap/internal/autosave"
	"github.com/example/battlemap/internal/editor"
	"github.com/example/battlemap/internal/gesture"
	"github.com/example/battlemap/internal/history"
	"github.com/example/battlemap/internal/pointer"
	"github.com/example/battlemap/internal/theme"
)

// Notify holds notification settings.
type Notify struct {
	Save          bool
	StorageErrors bool
}

// Gesture holds the touch classification constants.
type Gesture struct {
	gesture.Config
	DragThreshold float64
}

// Config holds the application configuration.
type Config struct {
	Theme        string
	DB           string
	CanvasWidth  int
	CanvasHeight int
	Dev          bool

	Gesture      Gesture
	HistoryLimit int
	AutosaveWait time.Duration
	Notify       Notify
	Themes       map[string]*theme.Theme
}

// New creates a new Config with defaults.
func New() *Config {
	return &Config{
		Theme:        "", // Default to empty to allow fallback to Env/Default
		CanvasWidth:  editor.DefaultWidth,
		CanvasHeight: editor.DefaultHeight,
		Gesture: Gesture{
			Config:        gesture.DefaultConfig(),
			DragThreshold: pointer.DefaultDragThreshold,
		},
		HistoryLimit: history.DefaultLimit,
		AutosaveWait: autosave.DefaultDelay,
		Notify: Notify{
			Save:          false,
			StorageErrors: true,
		},
		Themes: make(map[string]*theme.Theme),
	}
}

// DBPath returns the configured database path, or the default location
// under the user's data directory.
func (c *Config) DBPath() string {
	if c.DB != "" {
		return expandHome(c.DB)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "battlemap", "maps.db")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	// Root section
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	if c.DB != "" {
		fmt.Fprintf(&sb, "db = %s\n", c.DB)
	}
	fmt.Fprintf(&sb, "canvas_width = %d\n", c.CanvasWidth)
	fmt.Fprintf(&sb, "canvas_height = %d\n", c.CanvasHeight)
	fmt.Fprintf(&sb, "dev = %v\n", c.Dev)
	sb.WriteString("\n")

	sb.WriteString("[gesture]\n")
	fmt.Fprintf(&sb, "pinch_deadzone = %g\n", c.Gesture.PinchDeadzone)
	fmt.Fprintf(&sb, "pinch_pan_ratio = %g\n", c.Gesture.PinchPanRatio)
	fmt.Fprintf(&sb, "drag_threshold = %g\n", c.Gesture.DragThreshold)
	fmt.Fprintf(&sb, "min_scale = %g\n", c.Gesture.MinScale)
	fmt.Fprintf(&sb, "max_scale = %g\n", c.Gesture.MaxScale)
	sb.WriteString("\n")

	sb.WriteString("[history]\n")
	fmt.Fprintf(&sb, "limit = %d\n", c.HistoryLimit)
	sb.WriteString("\n")

	sb.WriteString("[autosave]\n")
	fmt.Fprintf(&sb, "delay_ms = %d\n", c.AutosaveWait.Milliseconds())
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "save = %v\n", c.Notify.Save)
	fmt.Fprintf(&sb, "storage_errors = %v\n", c.Notify.StorageErrors)
	sb.WriteString("\n")

	// Sort keys for deterministic output
	var themeNames []string
	for name := range c.Themes {
		themeNames = append(themeNames, name)
	}
	sort.Strings(themeNames)

	for _, name := range themeNames {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range themeColors(t) {
			fmt.Fprintf(&sb, "%s: %s\n", f.name, toHex(f.value))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func toHex(c color.RGBA) string {
	if c.A == 255 {
		return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
	}
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
