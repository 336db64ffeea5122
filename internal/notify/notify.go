// Package notify sends desktop notifications for document saves and
// storage failures.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/example/battlemap/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave emits a notification when the document is written to the database.
	EventSave Event = "save"
	// EventStorageError emits a notification when a blob write or read fails.
	EventStorageError Event = "storage-error"
)

// DefaultQuiet is the minimum time between two notifications for the
// same event.
const DefaultQuiet = time.Minute

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
	Quiet  time.Duration
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "Battlemap",
		Events: map[Event]EventPreference{
			EventSave:         {Template: "Saved %s"},
			EventStorageError: {Template: "Could not store %s"},
		},
		Quiet: DefaultQuiet,
	}
}

type envPreferences struct {
	Title       string        `env:"BATTLEMAP_NOTIFY_TITLE"`
	SaveText    string        `env:"BATTLEMAP_NOTIFY_SAVE_TEXT"`
	StorageText string        `env:"BATTLEMAP_NOTIFY_STORAGE_TEXT"`
	Quiet       time.Duration `env:"BATTLEMAP_NOTIFY_QUIET"`
}

// LoadPreferences reads overrides from environment variables. Malformed
// values are logged and the defaults kept.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	var raw envPreferences
	if err := env.Parse(&raw); err != nil {
		log.Printf("notify: parse env: %v", err)
		return prefs
	}
	if v := strings.TrimSpace(raw.Title); v != "" {
		prefs.Title = v
	}
	apply := func(v string, event Event) {
		if v = strings.TrimSpace(v); v != "" {
			eventPrefs := prefs.Events[event]
			eventPrefs.Template = v
			prefs.Events[event] = eventPrefs
		}
	}
	apply(raw.SaveText, EventSave)
	apply(raw.StorageText, EventStorageError)
	if raw.Quiet > 0 {
		prefs.Quiet = raw.Quiet
	}
	return prefs
}

// Notifier sends OS-level notifications based on the configured
// preferences. It may be used from several goroutines.
type Notifier struct {
	prefs Preferences
	send  func(title, body string, opts platform.Options) error

	mu      sync.Mutex
	enabled map[Event]bool
	last    map[Event]time.Time
	now     func() time.Time
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	cloned := Preferences{Title: prefs.Title, Quiet: prefs.Quiet, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{
		prefs:   cloned,
		send:    platform.Notify,
		enabled: make(map[Event]bool),
		last:    make(map[Event]time.Time),
		now:     time.Now,
	}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.enabled[event] = enabled
	n.mu.Unlock()
}

// Save sends a save notification for the named document with an optional
// preview of the active map.
func (n *Notifier) Save(detail string, preview image.Image) {
	if !n.enabledFor(EventSave) {
		return
	}
	opts := platform.Options{Urgency: platform.UrgencyLow, Expire: 5 * time.Second}
	if preview != nil {
		if path, cleanup, err := createPreview(preview); err != nil {
			log.Printf("notification preview: %v", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventSave, detail, opts)
}

// StorageError reports a failed storage action. Repeats within the quiet
// period are dropped so a failing disk does not flood the desktop.
func (n *Notifier) StorageError(action string, err error) {
	if !n.enabledFor(EventStorageError) {
		return
	}
	detail := action
	if err != nil {
		detail = fmt.Sprintf("%s: %v", action, err)
	}
	n.dispatch(EventStorageError, detail, platform.Options{Urgency: platform.UrgencyCritical})
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil {
		return false
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled[event]
}

// allow records a send for event unless one happened within the quiet
// period.
func (n *Notifier) allow(event Event) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	now := n.now()
	if last, ok := n.last[event]; ok && n.prefs.Quiet > 0 && now.Sub(last) < n.prefs.Quiet {
		return false
	}
	n.last[event] = now
	return true
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	template := strings.TrimSpace(n.template(event))
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if !n.allow(event) {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		log.Printf("notification %s: %v", event, err)
	}
}

func (n *Notifier) template(event Event) string {
	if pref, ok := n.prefs.Events[event]; ok {
		return pref.Template
	}
	return ""
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "battlemap-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove preview: %v", err)
		}
	}
	return path, cleanup, nil
}
