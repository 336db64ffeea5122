// Package viewer is the desktop window around the map editor. It turns
// shiny input into events on the editor's document and paints the composed
// canvas with the toolbar, map tabs and status line.
package viewer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log"
	"time"

	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"
	"golang.org/x/mobile/event/touch"

	"github.com/example/battlemap/internal/clipboard"
	"github.com/example/battlemap/internal/editor"
	"github.com/example/battlemap/internal/events"
	"github.com/example/battlemap/internal/theme"
)

// messageDuration is how long window messages stay in the status line.
const messageDuration = 2 * time.Second

type options struct {
	theme   *theme.Theme
	width   int
	height  int
	title   string
	onSave  func() error
	onClose func()
}

// Option configures a Window.
type Option func(*options)

// WithTheme sets the window colors.
func WithTheme(t *theme.Theme) Option { return func(o *options) { o.theme = t } }

// WithSize sets the initial window size.
func WithSize(w, h int) Option { return func(o *options) { o.width, o.height = w, h } }

// WithTitle sets the window title.
func WithTitle(s string) Option { return func(o *options) { o.title = s } }

// WithSave runs fn on Ctrl+S.
func WithSave(fn func() error) Option { return func(o *options) { o.onSave = fn } }

// WithClose runs fn once after the window is gone.
func WithClose(fn func()) Option { return func(o *options) { o.onClose = fn } }

// Window hosts one editor. Create it first, build the editor over
// Document with the window as its dialogs and Invalidate as its render
// hook, then Attach and Run.
type Window struct {
	opts     options
	doc      *events.Document
	ed       *editor.Editor
	router   *router
	painter  painter
	updateCh chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	scr    screen.Screen
	win    screen.Window
	width  int
	height int
	modal  *modal
	dead   bool

	message      string
	messageUntil time.Time
}

// New returns a window that is not yet shown.
func New(opts ...Option) *Window {
	o := options{theme: theme.Default(), title: "Battlemap"}
	for _, opt := range opts {
		opt(&o)
	}
	if o.theme == nil {
		o.theme = theme.Default()
	}
	fitToolbar("Tool: Eraser", "Size: 64", "Copy map", "Zoom 1:1")
	if o.width <= 0 || o.height <= 0 {
		o.width = toolbarWidth + 960
		o.height = tabHeight + 720 + statusHeight
	}
	v := &Window{
		opts:     o,
		doc:      events.NewDocument(editor.TargetCanvas, editor.TargetWindow, editor.TargetToolbar),
		updateCh: make(chan struct{}, 1),
		width:    o.width,
		height:   o.height,
	}
	v.ctx, v.cancel = context.WithCancel(context.Background())
	v.router = newRouter(v.doc, v.layout)
	return v
}

// Document returns the event targets the editor attaches to.
func (v *Window) Document() *events.Document { return v.doc }

// Invalidate requests a repaint. It may be called from any goroutine.
func (v *Window) Invalidate() {
	select {
	case v.updateCh <- struct{}{}:
	default:
	}
}

// Attach connects the editor shown by the window.
func (v *Window) Attach(ed *editor.Editor) {
	v.ed = ed
	if bar, ok := v.doc.Lookup(editor.TargetToolbar); ok {
		bar.Listen(v.ctx, events.Click, v.handleClick)
	}
	if win, ok := v.doc.Lookup(editor.TargetWindow); ok {
		win.Listen(v.ctx, events.KeyDown, v.handleKey)
	}
	v.router.resize()
}

func (v *Window) layout() Layout {
	st := snapshotOf(v.ed)
	return Compute(v.width, v.height, st)
}

func (v *Window) flash(msg string) {
	v.message = msg
	v.messageUntil = time.Now().Add(messageDuration)
	log.Print(msg)
}

func (v *Window) handleClick(e events.Event) {
	switch e.Action {
	case ActionPasteBackground:
		v.pasteBackground()
	case ActionClearBackground:
		if v.ed != nil {
			v.ed.ClearBackground()
		}
	case ActionCopy:
		v.copyMap()
	}
}

func (v *Window) handleKey(e events.Event) {
	if !e.Ctrl {
		return
	}
	switch e.Key {
	case "v":
		v.pasteBackground()
	case "c":
		v.copyMap()
	case "s":
		v.save()
	case "q", "w":
		v.dead = true
	}
}

func (v *Window) pasteBackground() {
	if v.ed == nil {
		return
	}
	data, err := clipboard.ReadPNG()
	if err != nil {
		log.Printf("paste: %v", err)
		v.flash("Clipboard has no image")
		return
	}
	if err := v.ed.SetBackground(data); err != nil {
		log.Printf("paste: %v", err)
		v.flash("Could not use clipboard image")
		return
	}
	v.flash("Background pasted")
}

func (v *Window) copyMap() {
	if v.ed == nil {
		return
	}
	var buf bytes.Buffer
	if err := v.ed.ExportPNG(&buf); err != nil {
		log.Printf("copy: %v", err)
		return
	}
	if err := clipboard.WritePNG(buf.Bytes()); err != nil {
		log.Printf("copy: %v", err)
		v.flash("Copy failed")
		return
	}
	v.flash("Map copied to clipboard")
}

func (v *Window) save() {
	if v.opts.onSave == nil {
		return
	}
	if err := v.opts.onSave(); err != nil {
		log.Printf("save: %v", err)
		v.flash("Save failed")
		return
	}
	v.flash("Saved")
}

func (v *Window) snapshot() Snapshot {
	st := snapshotOf(v.ed)
	if v.message != "" && time.Now().Before(v.messageUntil) {
		st.Status = v.message
	}
	st.Hover = v.router.hover
	return st
}

func (v *Window) frame() frame {
	st := v.snapshot()
	f := frame{
		theme:  v.opts.theme,
		layout: Compute(v.width, v.height, st),
		state:  st,
		scale:  1,
		modal:  v.modal,
	}
	if v.ed != nil {
		f.canvas = v.ed.Visible()
		f.scroll = v.ed.Scroll()
		f.scale = v.ed.Scale()
	}
	return f
}

// paint draws a frame synchronously. The canvas belongs to the UI
// goroutine, so frames are not painted in the background.
func (v *Window) paint() {
	if v.win == nil || v.width <= 0 || v.height <= 0 {
		return
	}
	b, err := v.scr.NewBuffer(image.Point{v.width, v.height})
	if err != nil {
		log.Printf("new buffer: %v", err)
		return
	}
	defer b.Release()
	v.painter.paint(b.RGBA(), v.frame())
	v.win.Upload(image.Point{}, b, b.Bounds())
	v.win.Publish()
}

// Run shows the window and blocks until it is closed.
func (v *Window) Run() { driver.Main(v.Main) }

// Main runs the window on s.
func (v *Window) Main(s screen.Screen) {
	w, err := s.NewWindow(&screen.NewWindowOptions{Width: v.width, Height: v.height, Title: v.opts.title})
	if err != nil {
		log.Printf("new window: %v", err)
		v.close()
		return
	}
	v.scr, v.win = s, w
	defer func() {
		v.win = nil
		w.Release()
		v.close()
	}()

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-v.updateCh:
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	for !v.dead {
		v.handle(w.NextEvent())
	}
}

func (v *Window) close() {
	v.cancel()
	if v.opts.onClose != nil {
		v.opts.onClose()
		v.opts.onClose = nil
	}
}

// handle processes one window event outside any dialog.
func (v *Window) handle(e any) {
	repaint := false
	switch e := e.(type) {
	case lifecycle.Event:
		if e.To == lifecycle.StageDead {
			v.router.cancel()
			v.dead = true
			return
		}
		if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
			v.router.cancel()
			repaint = true
		}
	case size.Event:
		v.width, v.height = e.WidthPx, e.HeightPx
		v.router.resize()
		repaint = true
	case paint.Event:
		v.paint()
	case mouse.Event:
		repaint = v.router.mouse(e)
	case touch.Event:
		repaint = v.router.touch(e)
	case key.Event:
		repaint = v.router.key(e)
	case error:
		log.Printf("window: %v", e)
	}
	if repaint && v.win != nil {
		v.win.Send(paint.Event{})
	}
}

// errNoWindow is logged when a dialog is requested before the window is up.
var errNoWindow = errors.New("no window for dialog")

// runModal shows m and processes events until it closes.
func (v *Window) runModal(m *modal) bool {
	if v.win == nil || v.dead {
		log.Printf("dialog %q: %v", m.message, errNoWindow)
		return false
	}
	v.router.cancel()
	prev := v.modal
	v.modal = m
	defer func() { v.modal = prev }()
	v.win.Send(paint.Event{})
	for {
		var done, ok, repaint bool
		switch e := v.win.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				v.dead = true
				return false
			}
		case size.Event:
			v.width, v.height = e.WidthPx, e.HeightPx
			v.router.resize()
			repaint = true
		case paint.Event:
			v.paint()
		case key.Event:
			done, ok = m.key(e)
			repaint = true
		case mouse.Event:
			if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
				done, ok = m.press(image.Pt(int(e.X), int(e.Y)), v.width, v.height)
			}
		case touch.Event:
			if e.Type == touch.TypeBegin {
				done, ok = m.press(image.Pt(int(e.X), int(e.Y)), v.width, v.height)
			}
		}
		if done || repaint {
			v.win.Send(paint.Event{})
		}
		if done {
			return ok
		}
	}
}

// Confirm asks a yes or no question.
func (v *Window) Confirm(message string) bool {
	return v.runModal(&modal{kind: modalConfirm, message: message})
}

// Prompt asks for a line of text.
func (v *Window) Prompt(message, initial string) (string, bool) {
	m := &modal{kind: modalPrompt, message: message, input: []rune(initial)}
	if !v.runModal(m) {
		return "", false
	}
	return string(m.input), true
}

// Alert shows message until dismissed.
func (v *Window) Alert(message string) {
	v.runModal(&modal{kind: modalAlert, message: message})
}

var _ editor.Dialogs = (*Window)(nil)
