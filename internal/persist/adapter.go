// Package persist moves drawing layers and backgrounds between the canvas
// and the blob store. All store traffic goes through one worker goroutine
// and an ordered queue, so commits land in the order they were issued and a
// load always sees every commit queued before it.
package persist

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/raster"
	"github.com/example/battlemap/internal/storage"
)

// ErrClosed is returned for work submitted after Close.
var ErrClosed = errors.New("persist: adapter closed")

// DefaultTimeout bounds a single store operation.
const DefaultTimeout = 30 * time.Second

type job func(ctx context.Context)

// Option configures an Adapter.
type Option func(*Adapter)

// WithMarkDirty sets the function called after every successful write.
func WithMarkDirty(fn func()) Option {
	return func(a *Adapter) { a.markDirty = fn }
}

// WithErrorHandler sets a callback for store failures. It runs on the
// worker goroutine.
func WithErrorHandler(fn func(action string, err error)) Option {
	return func(a *Adapter) { a.onError = fn }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// Adapter is safe for concurrent use.
type Adapter struct {
	store     storage.Store
	maps      *mapstate.Collection
	markDirty func()
	onError   func(action string, err error)
	timeout   time.Duration

	mu     sync.Mutex
	queue  []job
	closed bool
	wake   chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

// New starts the worker.
func New(store storage.Store, maps *mapstate.Collection, opts ...Option) *Adapter {
	a := &Adapter{
		store:   store,
		maps:    maps,
		timeout: DefaultTimeout,
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(a)
	}
	go a.run()
	return a
}

func (a *Adapter) run() {
	defer close(a.done)
	for {
		select {
		case <-a.wake:
			a.drain()
		case <-a.quit:
			a.drain()
			return
		}
	}
}

func (a *Adapter) drain() {
	for {
		a.mu.Lock()
		if len(a.queue) == 0 {
			a.mu.Unlock()
			return
		}
		j := a.queue[0]
		a.queue[0] = nil
		a.queue = a.queue[1:]
		a.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		j(ctx)
		cancel()
	}
}

func (a *Adapter) enqueue(j job) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.queue = append(a.queue, j)
	a.mu.Unlock()
	select {
	case a.wake <- struct{}{}:
	default:
	}
	return nil
}

func resolved(err error) <-chan error {
	ch := make(chan error, 1)
	ch <- err
	return ch
}

// Commit copies layer and queues it to replace the drawing blob of mapID.
// The returned channel yields the outcome once the write has landed;
// callers on the UI goroutine ignore it and never wait for storage.
//
// A commit whose map was deleted before it ran discards its blob.
func (a *Adapter) Commit(mapID string, layer *image.RGBA) <-chan error {
	if layer == nil {
		return resolved(errors.New("commit: no drawing layer"))
	}
	pix := raster.Clone(layer)
	ch := make(chan error, 1)
	if err := a.enqueue(func(ctx context.Context) { ch <- a.commit(ctx, mapID, pix) }); err != nil {
		ch <- err
	}
	return ch
}

func (a *Adapter) commit(ctx context.Context, mapID string, pix *image.RGBA) error {
	if _, ok := a.maps.Entry(mapID); !ok {
		return nil
	}
	data, err := raster.EncodePNG(pix)
	if err != nil {
		return a.fail("commit", err)
	}
	id, err := a.store.Put(ctx, storage.Blob{Type: raster.BlobType, Data: data})
	if err != nil {
		return a.fail("commit", err)
	}
	prev, ok := a.maps.SwapDrawing(mapID, id)
	if !ok {
		a.discard(ctx, id)
		return nil
	}
	if prev != "" && prev != id {
		if err := a.store.Delete(ctx, prev); err != nil {
			// the new blob is already referenced; the old one is orphaned
			a.fail("commit", fmt.Errorf("delete previous drawing: %w", err))
		}
	}
	a.dirty()
	return nil
}

// SetBackground stores data as the background of mapID, replacing any
// previous background blob.
func (a *Adapter) SetBackground(mapID string, blob storage.Blob) <-chan error {
	ch := make(chan error, 1)
	err := a.enqueue(func(ctx context.Context) {
		if _, ok := a.maps.Entry(mapID); !ok {
			ch <- nil
			return
		}
		id, err := a.store.Put(ctx, blob)
		if err != nil {
			ch <- a.fail("background", err)
			return
		}
		prev, ok := a.maps.SwapBackground(mapID, id)
		if !ok {
			a.discard(ctx, id)
			ch <- nil
			return
		}
		if prev != "" && prev != id {
			if err := a.store.Delete(ctx, prev); err != nil {
				a.fail("background", fmt.Errorf("delete previous background: %w", err))
			}
		}
		a.dirty()
		ch <- nil
	})
	if err != nil {
		ch <- err
	}
	return ch
}

// ClearBackground drops the background of mapID.
func (a *Adapter) ClearBackground(mapID string) <-chan error {
	ch := make(chan error, 1)
	err := a.enqueue(func(ctx context.Context) {
		prev, ok := a.maps.SwapBackground(mapID, "")
		if ok && prev != "" {
			if err := a.store.Delete(ctx, prev); err != nil {
				ch <- a.fail("background", err)
				return
			}
			a.dirty()
		}
		ch <- nil
	})
	if err != nil {
		ch <- err
	}
	return ch
}

// DeleteBlobs removes both blobs of a map that is being deleted.
func (a *Adapter) DeleteBlobs(entry mapstate.MapEntry) <-chan error {
	ch := make(chan error, 1)
	err := a.enqueue(func(ctx context.Context) {
		var errs []error
		for _, id := range []string{entry.BackgroundBlobID, entry.DrawingBlobID} {
			if id == "" {
				continue
			}
			if err := a.store.Delete(ctx, id); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			ch <- a.fail("delete map", errors.Join(errs...))
			return
		}
		ch <- nil
	})
	if err != nil {
		ch <- err
	}
	return ch
}

// LoadBackground decodes the background of mapID. It returns a nil image
// when the map has no background or the blob is missing or unreadable, and
// an error when the store itself fails or ctx ends first.
func (a *Adapter) LoadBackground(ctx context.Context, mapID string) (image.Image, error) {
	return a.load(ctx, mapID, "load background", func(m mapstate.MapEntry) string { return m.BackgroundBlobID })
}

// LoadDrawingLayer clears layer and draws the stored drawing of mapID onto
// it. A missing or unreadable blob leaves the layer blank. On a store error
// or timeout layer is left untouched and the error is returned.
func (a *Adapter) LoadDrawingLayer(ctx context.Context, mapID string, layer *image.RGBA) error {
	img, err := a.load(ctx, mapID, "load drawing", func(m mapstate.MapEntry) string { return m.DrawingBlobID })
	if err != nil {
		return err
	}
	raster.Replace(layer, img)
	return nil
}

type loaded struct {
	img image.Image
	err error
}

func (a *Adapter) load(ctx context.Context, mapID, action string, pick func(mapstate.MapEntry) string) (image.Image, error) {
	ch := make(chan loaded, 1)
	err := a.enqueue(func(wctx context.Context) {
		m, ok := a.maps.Entry(mapID)
		if !ok || pick(m) == "" {
			ch <- loaded{}
			return
		}
		b, err := a.store.Get(wctx, pick(m))
		if err != nil {
			ch <- loaded{err: a.fail(action, err)}
			return
		}
		if b == nil {
			ch <- loaded{}
			return
		}
		img, err := raster.Decode(b.Data)
		if err != nil {
			a.fail(action, err)
			ch <- loaded{}
			return
		}
		ch <- loaded{img: img}
	})
	if err != nil {
		return nil, err
	}
	select {
	case r := <-ch:
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Flush waits until every job queued before the call has run.
func (a *Adapter) Flush(ctx context.Context) error {
	ch := make(chan struct{})
	if err := a.enqueue(func(context.Context) { close(ch) }); err != nil {
		return err
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close runs every queued job, stops the worker and rejects later work.
// It is safe to call more than once.
func (a *Adapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		<-a.done
		return nil
	}
	a.closed = true
	a.mu.Unlock()
	close(a.quit)
	<-a.done
	return nil
}

func (a *Adapter) discard(ctx context.Context, id string) {
	if err := a.store.Delete(ctx, id); err != nil {
		log.Printf("discard blob %s: %v", id, err)
	}
}

func (a *Adapter) dirty() {
	if a.markDirty != nil {
		a.markDirty()
	}
}

func (a *Adapter) fail(action string, err error) error {
	err = fmt.Errorf("%s: %w", action, err)
	log.Printf("%v", err)
	if a.onError != nil {
		a.onError(action, err)
	}
	return err
}
