package theme

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"reflect"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/example/battlemap/internal/palette"
)

// Parse reads a theme definition, one "Key: value" per line. Keys name
// Theme fields case-insensitively and values are anything ParseColor
// accepts. Unknown keys are skipped so older binaries can read newer themes.
func Parse(r io.Reader) (*Theme, error) { return parse(r, false) }

// ParseStrict is Parse, except that unknown keys and malformed lines are
// errors. Theme authors run with -dev to catch typos.
func ParseStrict(r io.Reader) (*Theme, error) { return parse(r, true) }

func parse(r io.Reader, strict bool) (*Theme, error) {
	t := Default()
	fields := colorFields(t)
	scanner := bufio.NewScanner(r)

	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			if strict {
				return nil, fmt.Errorf("line %d: expected Key: value", n)
			}
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)

		if strings.EqualFold(key, "name") {
			t.Name = value
			continue
		}
		field, ok := fields[strings.ToLower(key)]
		if !ok {
			if strict {
				return nil, fmt.Errorf("line %d: unknown key %s", n, key)
			}
			continue
		}
		col, err := ParseColor(value)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid color for key %s: %w", n, key, err)
		}
		*field = col
	}

	return t, scanner.Err()
}

// colorFields maps lower-cased field names to the color fields of t.
func colorFields(t *Theme) map[string]*color.RGBA {
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	out := make(map[string]*color.RGBA, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		if c, ok := val.Field(i).Addr().Interface().(*color.RGBA); ok {
			out[strings.ToLower(typ.Field(i).Name)] = c
		}
	}
	return out
}

// ParseColor accepts the palette's #RRGGBB and #RRGGBBAA forms or an SVG
// color name such as "saddlebrown".
func ParseColor(s string) (color.RGBA, error) {
	if strings.HasPrefix(s, "#") {
		return palette.ParseHex(s)
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("unknown color %q", s)
}
