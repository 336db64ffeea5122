package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	th, err := Parse(strings.NewReader(`
# comment
Name: Test
CanvasEmpty: #102030
StatusBackground: #00000080
Unknown: #FFFFFF
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "Test" {
		t.Errorf("name = %q", th.Name)
	}
	if th.CanvasEmpty != (color.RGBA{0x10, 0x20, 0x30, 0xFF}) {
		t.Errorf("CanvasEmpty = %v", th.CanvasEmpty)
	}
	if th.StatusBackground.A != 0x80 {
		t.Errorf("StatusBackground = %v", th.StatusBackground)
	}
	if th.Foreground != Default().Foreground {
		t.Errorf("unset field lost its default: %v", th.Foreground)
	}
}

func TestParseBadColor(t *testing.T) {
	if _, err := Parse(strings.NewReader("CanvasEmpty: 102030")); err == nil {
		t.Fatal("expected error for a color without #")
	}
	if _, err := Parse(strings.NewReader("CanvasEmpty: #12345")); err == nil {
		t.Fatal("expected error for a short color")
	}
}

func TestLoadEmbedded(t *testing.T) {
	l := &Loader{ConfigDir: t.TempDir(), SystemDir: t.TempDir()}
	for _, name := range Names() {
		th, err := l.Load(name)
		if err != nil {
			t.Fatalf("Load(%q): %v", name, err)
		}
		if th.Name == "" {
			t.Errorf("theme %q has no name", name)
		}
	}
	if len(Names()) == 0 {
		t.Fatal("no embedded themes")
	}
}

func TestLoadOrder(t *testing.T) {
	dir := t.TempDir()
	l := &Loader{ConfigDir: dir, SystemDir: t.TempDir()}
	if err := os.WriteFile(filepath.Join(dir, "mine.theme"), []byte("Name: Mine\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	th, err := l.Load("mine")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if th.Name != "Mine" {
		t.Errorf("name = %q", th.Name)
	}
	if th, err := l.Load("default"); err != nil || th.Name != "Default" {
		t.Errorf("default = %v, %v", th, err)
	}
	if _, err := l.Load("missing"); err == nil {
		t.Error("expected error for unknown theme")
	}
}

func TestParseNamedColorsAndCase(t *testing.T) {
	th, err := Parse(strings.NewReader("canvasempty: SaddleBrown\nTABTEXT: #ff000080\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.CanvasEmpty != (color.RGBA{0x8b, 0x45, 0x13, 0xff}) {
		t.Errorf("CanvasEmpty = %v", th.CanvasEmpty)
	}
	if th.TabText != (color.RGBA{0xff, 0, 0, 0x80}) {
		t.Errorf("TabText = %v", th.TabText)
	}
	if _, err := Parse(strings.NewReader("CanvasEmpty: notacolor")); err == nil {
		t.Fatal("expected error for an unknown color name")
	}
}

func TestParseStrict(t *testing.T) {
	if _, err := ParseStrict(strings.NewReader("Name: X\nCanvasEmty: #000000\n")); err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("misspelled key err = %v", err)
	}
	if _, err := ParseStrict(strings.NewReader("CanvasEmpty #000000")); err == nil {
		t.Fatal("expected error for a line without a colon")
	}
	for _, name := range Names() {
		l := &Loader{ConfigDir: t.TempDir(), SystemDir: t.TempDir(), Strict: true}
		if _, err := l.Load(name); err != nil {
			t.Errorf("embedded theme %q fails strict parsing: %v", name, err)
		}
	}
}
