// Package autosave debounces document saves behind a MarkDirty signal.
package autosave

import (
	"context"
	"log"
	"sync"
	"time"
)

// DefaultDelay is the quiet period before a save runs.
const DefaultDelay = 750 * time.Millisecond

// SaveFunc writes the document.
type SaveFunc func(ctx context.Context) error

// Option configures a Saver.
type Option func(*Saver)

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(s *Saver) {
		if d > 0 {
			s.delay = d
		}
	}
}

// WithResult sets a callback run after every save attempt.
func WithResult(fn func(err error)) Option {
	return func(s *Saver) { s.onResult = fn }
}

// Saver coalesces bursts of MarkDirty calls into one save. Saves never
// overlap.
type Saver struct {
	delay    time.Duration
	save     SaveFunc
	onResult func(error)

	mu     sync.Mutex
	timer  *time.Timer
	dirty  bool
	closed bool

	saving sync.Mutex
}

// New returns an idle Saver.
func New(save SaveFunc, opts ...Option) *Saver {
	s := &Saver{delay: DefaultDelay, save: save}
	for _, o := range opts {
		o(s)
	}
	return s
}

// MarkDirty schedules a save after the delay, pushing back any save that
// is already scheduled. It is safe to call from any goroutine.
func (s *Saver) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.dirty = true
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		_ = s.Flush(context.Background())
	})
}

// Dirty reports whether a save is pending.
func (s *Saver) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush saves now if anything is pending.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	pending := s.dirty
	s.dirty = false
	s.mu.Unlock()
	if !pending {
		return nil
	}

	s.saving.Lock()
	defer s.saving.Unlock()
	err := s.save(ctx)
	if err != nil {
		log.Printf("autosave: %v", err)
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
	}
	if s.onResult != nil {
		s.onResult(err)
	}
	return err
}

// Close flushes pending work and ignores later MarkDirty calls.
func (s *Saver) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.mu.Lock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	return err
}
