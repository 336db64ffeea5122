package config

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/example/battlemap/internal/theme"
)

// Parse reads configuration from an io.Reader. Unknown keys and sections
// are ignored.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var currentSection string
	var currentTheme *theme.Theme

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.ToLower(strings.TrimSpace(line[1 : len(line)-1]))
			currentTheme = nil

			if strings.HasPrefix(currentSection, "theme.") {
				themeName := strings.TrimPrefix(currentSection, "theme.")
				// Start with defaults so missing keys are fine
				currentTheme = theme.Default()
				currentTheme.Name = themeName
				cfg.Themes[themeName] = currentTheme
			}
			continue
		}

		// Key = Value or Key: Value
		var parts []string
		if strings.Contains(line, "=") {
			parts = strings.SplitN(line, "=", 2)
		} else if strings.Contains(line, ":") {
			parts = strings.SplitN(line, ":", 2)
		} else {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		if len(value) >= 2 && strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case currentTheme != nil:
			err = setThemeField(currentTheme, key, value)
		case currentSection == "":
			err = setRootField(cfg, key, value)
		case currentSection == "gesture":
			err = setGestureField(&cfg.Gesture, key, value)
		case currentSection == "history":
			if key == "limit" {
				cfg.HistoryLimit, err = parseInt(key, value, 1)
			}
		case currentSection == "autosave":
			if key == "delay_ms" {
				var ms int
				ms, err = parseInt(key, value, 0)
				cfg.AutosaveWait = time.Duration(ms) * time.Millisecond
			}
		case currentSection == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		}
		if err != nil {
			if currentSection == "" {
				return nil, fmt.Errorf("error in root section: %w", err)
			}
			return nil, fmt.Errorf("error in section [%s]: %w", currentSection, err)
		}
	}

	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "theme":
		cfg.Theme = value
	case "db":
		cfg.DB = value
	case "canvas_width":
		cfg.CanvasWidth, err = parseInt(key, value, 1)
	case "canvas_height":
		cfg.CanvasHeight, err = parseInt(key, value, 1)
	case "dev":
		cfg.Dev, err = parseBool(key, value)
	}
	return err
}

func setGestureField(g *Gesture, key, value string) error {
	var dst *float64
	switch key {
	case "pinch_deadzone":
		dst = &g.PinchDeadzone
	case "pinch_pan_ratio":
		dst = &g.PinchPanRatio
	case "drag_threshold":
		dst = &g.DragThreshold
	case "min_scale":
		dst = &g.MinScale
	case "max_scale":
		dst = &g.MaxScale
	default:
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("invalid positive number for key %s: %q", key, value)
	}
	*dst = f
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := parseBool(key, value)
	if err != nil {
		return err
	}
	switch key {
	case "save":
		n.Save = b
	case "storage_errors":
		n.StorageErrors = b
	}
	return nil
}

func parseBool(key, value string) (bool, error) {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	return b, nil
}

func parseInt(key, value string, min int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	if n < min {
		return 0, fmt.Errorf("key %s must be at least %d", key, min)
	}
	return n, nil
}

type themeColor struct {
	name  string
	value color.RGBA
}

// themeColors lists the color fields of t in declaration order.
func themeColors(t *theme.Theme) []themeColor {
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	var out []themeColor
	for i := 0; i < typ.NumField(); i++ {
		if c, ok := val.Field(i).Interface().(color.RGBA); ok {
			out = append(out, themeColor{typ.Field(i).Name, c})
		}
	}
	return out
}

func setThemeField(t *theme.Theme, key, value string) error {
	if key == "name" {
		t.Name = value
		return nil
	}

	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		if !strings.EqualFold(typ.Field(i).Name, key) {
			continue
		}
		field := val.Field(i)
		if field.Type() != reflect.TypeOf(color.RGBA{}) {
			return nil
		}
		col, err := theme.ParseColor(value)
		if err != nil {
			return fmt.Errorf("invalid color for key %s: %w", key, err)
		}
		field.Set(reflect.ValueOf(col))
		return nil
	}
	return nil // Ignore unknown fields
}
