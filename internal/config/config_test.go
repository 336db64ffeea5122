package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	input := `
theme = my_custom_theme
db = /tmp/maps.db
canvas_width = 800
canvas_height = 600
dev = true

[gesture]
pinch_deadzone = 40
pinch_pan_ratio = 0.5
drag_threshold = 10

[history]
limit = 20

[autosave]
delay_ms = 1500

[notify]
save = true
storage_errors = false

[theme.my_custom_theme]
Background = #111111
CanvasEmpty = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Theme != "my_custom_theme" {
		t.Errorf("Expected theme 'my_custom_theme', got '%s'", cfg.Theme)
	}
	if cfg.DB != "/tmp/maps.db" || cfg.DBPath() != "/tmp/maps.db" {
		t.Errorf("db = %q, path %q", cfg.DB, cfg.DBPath())
	}
	if cfg.CanvasWidth != 800 || cfg.CanvasHeight != 600 || !cfg.Dev {
		t.Errorf("root = %d x %d dev %v", cfg.CanvasWidth, cfg.CanvasHeight, cfg.Dev)
	}
	if cfg.Gesture.PinchDeadzone != 40 || cfg.Gesture.PinchPanRatio != 0.5 || cfg.Gesture.DragThreshold != 10 {
		t.Errorf("gesture = %+v", cfg.Gesture)
	}
	if cfg.Gesture.MaxScale != 3 {
		t.Errorf("unset max_scale lost its default: %v", cfg.Gesture.MaxScale)
	}
	if cfg.HistoryLimit != 20 {
		t.Errorf("history limit = %d", cfg.HistoryLimit)
	}
	if cfg.AutosaveWait != 1500*time.Millisecond {
		t.Errorf("autosave = %v", cfg.AutosaveWait)
	}
	if !cfg.Notify.Save || cfg.Notify.StorageErrors {
		t.Errorf("notify = %+v", cfg.Notify)
	}

	theme, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if theme.Background.R != 0x11 || theme.Background.G != 0x11 || theme.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", theme.Background)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"canvas_width = wide",
		"canvas_height = 0",
		"[gesture]\npinch_deadzone = -1",
		"[notify]\nsave = maybe",
		"[theme.x]\nBackground = red",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("Parse(%q) succeeded", input)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `theme = dark
db = ~/maps.db
canvas_width = 640

[gesture]
min_scale = 0.5

[notify]
save = true

[theme.custom]
Name = custom
Background = #000000
StatusBackground = #00000080
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	if cfg.Theme != cfg2.Theme || cfg.DB != cfg2.DB {
		t.Errorf("root mismatch: %q/%q vs %q/%q", cfg.Theme, cfg.DB, cfg2.Theme, cfg2.DB)
	}
	if cfg.CanvasWidth != cfg2.CanvasWidth || cfg.CanvasHeight != cfg2.CanvasHeight {
		t.Errorf("canvas mismatch")
	}
	if cfg.Gesture != cfg2.Gesture {
		t.Errorf("Gesture mismatch: %+v vs %+v", cfg.Gesture, cfg2.Gesture)
	}
	if cfg.Notify != cfg2.Notify || cfg.AutosaveWait != cfg2.AutosaveWait || cfg.HistoryLimit != cfg2.HistoryLimit {
		t.Errorf("section mismatch: %+v vs %+v", cfg, cfg2)
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestLoaderPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd := t.TempDir()
	t.Chdir(wd)

	if p := NewLoader("dev", "").GetConfigPath(); p != "" {
		t.Fatalf("path = %q, want none", p)
	}
	cfg, err := NewLoader("dev", "").Load()
	if err != nil || cfg.CanvasWidth != New().CanvasWidth {
		t.Fatalf("defaults = %+v, %v", cfg, err)
	}

	xdg := DefaultPath()
	if err := os.MkdirAll(filepath.Dir(xdg), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(xdg, []byte("theme = xdg\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	local := filepath.Join(wd, ".battlemaprc")
	if err := os.WriteFile(local, []byte("theme = local\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if p := NewLoader("dev", "").GetConfigPath(); p != local {
		t.Errorf("dev path = %q, want %q", p, local)
	}
	if p := NewLoader("v1.0.0", "").GetConfigPath(); p != xdg {
		t.Errorf("release path = %q, want %q", p, xdg)
	}
	override := filepath.Join(t.TempDir(), "custom.rc")
	if err := os.WriteFile(override, []byte("theme = override\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = NewLoader("dev", override).Load()
	if err != nil || cfg.Theme != "override" {
		t.Errorf("override = %+v, %v", cfg, err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BATTLEMAP_THEME", "dark")
	t.Setenv("BATTLEMAP_DB", "/tmp/maps.db")
	e, err := ParseEnv()
	if err != nil {
		t.Fatalf("ParseEnv: %v", err)
	}
	base := New()
	base.Theme = "parchment"
	got := e.Apply(base)
	if got.Theme != "dark" || got.DB != "/tmp/maps.db" || got.Dev {
		t.Fatalf("applied = %+v", got)
	}
	if base.Theme != "parchment" {
		t.Fatalf("Apply modified its input")
	}
}

func TestEnvRejectsBadBool(t *testing.T) {
	t.Setenv("BATTLEMAP_DEV", "sometimes")
	if _, err := ParseEnv(); err == nil {
		t.Fatal("expected a parse error")
	}
}
