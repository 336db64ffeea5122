package editor

import (
	"image/color"
	"log"
	"time"

	"github.com/example/battlemap/internal/gesture"
	"github.com/example/battlemap/internal/history"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/maplist"
	"github.com/example/battlemap/internal/pointer"
	"github.com/example/battlemap/internal/storage"
)

// Default canvas size in pixels.
const (
	DefaultWidth  = 1280
	DefaultHeight = 960
)

// DefaultLoadTimeout bounds the wait for a map's layers on switch.
const DefaultLoadTimeout = 10 * time.Second

// StatusDuration is how long a transient status message stays visible.
const StatusDuration = 4 * time.Second

// Dialogs are the blocking modal primitives.
type Dialogs = maplist.Dialogs

type options struct {
	store         storage.Store
	state         mapstate.State
	markDirty     func()
	dialogs       Dialogs
	dev           bool
	width, height int
	empty         color.Color
	gesture       gesture.Config
	dragThreshold float64
	historyLimit  int
	loadTimeout   time.Duration
	onRender      func()
	onStatus      func(string)
	onStoreError  func(action string, err error)
}

func defaults() options {
	return options{
		width:         DefaultWidth,
		height:        DefaultHeight,
		empty:         color.RGBA{0x2b, 0x2f, 0x3a, 0xff},
		gesture:       gesture.DefaultConfig(),
		dragThreshold: pointer.DefaultDragThreshold,
		historyLimit:  history.DefaultLimit,
		loadTimeout:   DefaultLoadTimeout,
		dialogs:       silentDialogs{},
	}
}

// Option configures an Editor.
type Option func(*options)

// WithStore sets the blob store. An in-memory store is used otherwise.
func WithStore(s storage.Store) Option { return func(o *options) { o.store = s } }

// WithState sets the document the editor starts with.
func WithState(s mapstate.State) Option { return func(o *options) { o.state = s } }

// WithMarkDirty sets the document dirty signal.
func WithMarkDirty(fn func()) Option { return func(o *options) { o.markDirty = fn } }

// WithDialogs sets the confirm, prompt and alert implementation.
func WithDialogs(d Dialogs) Option {
	return func(o *options) {
		if d != nil {
			o.dialogs = d
		}
	}
}

// WithDevMode makes New fail on missing targets instead of degrading.
func WithDevMode(dev bool) Option { return func(o *options) { o.dev = dev } }

// WithCanvasSize sets the drawing layer size.
func WithCanvasSize(w, h int) Option {
	return func(o *options) {
		if w > 0 && h > 0 {
			o.width, o.height = w, h
		}
	}
}

// WithEmptyColor sets the color shown where no background is loaded.
func WithEmptyColor(c color.Color) Option { return func(o *options) { o.empty = c } }

// WithGesture sets the pinch constants.
func WithGesture(cfg gesture.Config) Option { return func(o *options) { o.gesture = cfg } }

// WithDragThreshold sets the touch movement that starts a stroke.
func WithDragThreshold(px float64) Option { return func(o *options) { o.dragThreshold = px } }

// WithHistoryLimit sets the undo depth.
func WithHistoryLimit(n int) Option { return func(o *options) { o.historyLimit = n } }

// WithLoadTimeout sets how long a map switch waits for the store.
func WithLoadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.loadTimeout = d
		}
	}
}

// WithRender registers a callback run after every canvas render.
func WithRender(fn func()) Option { return func(o *options) { o.onRender = fn } }

// WithStatus registers a callback for status messages.
func WithStatus(fn func(string)) Option { return func(o *options) { o.onStatus = fn } }

// WithStoreErrors registers a callback for blob store failures. It runs on
// the persistence worker goroutine.
func WithStoreErrors(fn func(action string, err error)) Option {
	return func(o *options) { o.onStoreError = fn }
}

// silentDialogs declines every confirmation and prompt.
type silentDialogs struct{}

func (silentDialogs) Confirm(string) bool                { return false }
func (silentDialogs) Prompt(string, string) (string, bool) { return "", false }
func (silentDialogs) Alert(msg string)                    { log.Printf("alert: %s", msg) }
