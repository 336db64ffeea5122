//go:build linux || freebsd || openbsd || netbsd || dragonfly

package capture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/godbus/dbus/v5"
)

func TestPortalOptions(t *testing.T) {
	restore := portalHandleToken
	portalHandleToken = func() string { return "battlemap_test" }
	t.Cleanup(func() { portalHandleToken = restore })

	opts := portalOptions(true)
	if got := opts["handle_token"].Value(); got != "battlemap_test" {
		t.Fatalf("handle token = %v", got)
	}
	if got := opts["interactive"].Value(); got != true {
		t.Fatalf("interactive = %v", got)
	}
}

func TestResponseURI(t *testing.T) {
	uri, err := responseURI([]any{uint32(0), map[string]dbus.Variant{"uri": dbus.MakeVariant("file:///tmp/a.png")}})
	if err != nil || uri != "file:///tmp/a.png" {
		t.Fatalf("got %q, %v", uri, err)
	}
	if _, err := responseURI([]any{uint32(1), map[string]dbus.Variant{}}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if _, err := responseURI([]any{uint32(2), map[string]dbus.Variant{}}); err == nil {
		t.Fatalf("expected failure code to be reported")
	}
	if _, err := responseURI([]any{uint32(0), map[string]dbus.Variant{}}); err == nil {
		t.Fatalf("expected missing uri to be reported")
	}
}

func TestReadScreenshotRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, []byte("png"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := readScreenshot("file://" + path)
	if err != nil {
		t.Fatalf("readScreenshot: %v", err)
	}
	if string(data) != "png" {
		t.Fatalf("data = %q", data)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected the file to be removed, stat err = %v", err)
	}
}
