package persist

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/example/battlemap/internal/geom"
	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/palette"
	"github.com/example/battlemap/internal/raster"
	"github.com/example/battlemap/internal/storage"
)

func newAdapter(t *testing.T, store storage.Store, opts ...Option) (*Adapter, *mapstate.Collection) {
	t.Helper()
	maps := mapstate.NewCollection(mapstate.State{})
	a := New(store, maps, opts...)
	t.Cleanup(func() { _ = a.Close() })
	return a, maps
}

func TestCommitLeavesExactlyOneBlob(t *testing.T) {
	store := storage.NewMemory()
	var dirty atomic.Int32
	a, maps := newAdapter(t, store, WithMarkDirty(func() { dirty.Add(1) }))
	id := maps.ActiveID()

	layer := image.NewRGBA(image.Rect(0, 0, 120, 40))
	b := raster.Brush{Tool: raster.ToolBrush, Size: 6, Color: palette.Color("teal")}
	raster.DrawLine(layer, geom.Pt(0, 0), geom.Pt(100, 0), b)
	if err := <-a.Commit(id, layer); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	first, _ := maps.Entry(id)

	raster.DrawLine(layer, geom.Pt(0, 20), geom.Pt(100, 20), b)
	if err := <-a.Commit(id, layer); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	second, _ := maps.Entry(id)

	if store.Len() != 1 {
		t.Fatalf("store holds %d blobs, want 1", store.Len())
	}
	if second.DrawingBlobID == "" || second.DrawingBlobID == first.DrawingBlobID {
		t.Fatalf("drawing blob id not replaced: %q -> %q", first.DrawingBlobID, second.DrawingBlobID)
	}
	if got, _ := store.Get(context.Background(), first.DrawingBlobID); got != nil {
		t.Fatal("previous drawing blob was not deleted")
	}
	if dirty.Load() != 2 {
		t.Fatalf("markDirty called %d times, want 2", dirty.Load())
	}
}

func TestCommitsResolveInOrder(t *testing.T) {
	store := storage.NewMemory()
	a, maps := newAdapter(t, store)
	id := maps.ActiveID()

	layer := image.NewRGBA(image.Rect(0, 0, 10, 10))
	var last <-chan error
	for i := 0; i < 20; i++ {
		layer.SetRGBA(0, 0, color.RGBA{uint8(i), 0, 0, 255})
		last = a.Commit(id, layer)
	}
	if err := <-last; err != nil {
		t.Fatalf("commit: %v", err)
	}

	out := image.NewRGBA(layer.Bounds())
	if err := a.LoadDrawingLayer(context.Background(), id, out); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := out.RGBAAt(0, 0); got.R != 19 {
		t.Fatalf("loaded pixel %+v, want the last commit", got)
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d blobs", store.Len())
	}
}

func TestCommitCopiesLayerSynchronously(t *testing.T) {
	a, maps := newAdapter(t, storage.NewMemory())
	id := maps.ActiveID()
	layer := image.NewRGBA(image.Rect(0, 0, 4, 4))
	layer.SetRGBA(1, 1, color.RGBA{255, 255, 255, 255})
	ch := a.Commit(id, layer)
	layer.SetRGBA(1, 1, color.RGBA{})
	if err := <-ch; err != nil {
		t.Fatalf("commit: %v", err)
	}
	out := image.NewRGBA(layer.Bounds())
	_ = a.LoadDrawingLayer(context.Background(), id, out)
	if out.RGBAAt(1, 1).A != 255 {
		t.Fatal("commit did not capture the layer at call time")
	}
}

func TestCommitForDeletedMapDiscardsBlob(t *testing.T) {
	store := storage.NewMemory()
	a, maps := newAdapter(t, store)
	gone := maps.Add("Temporary")
	maps.Remove(gone.ID)
	if err := <-a.Commit(gone.ID, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("store holds %d blobs for a deleted map", store.Len())
	}
}

func TestLoadMissingBlobLeavesLayerBlank(t *testing.T) {
	a, maps := newAdapter(t, storage.NewMemory())
	id := maps.ActiveID()
	maps.SwapDrawing(id, "blob_missing")
	maps.SwapBackground(id, "blob_missing_bg")

	layer := image.NewRGBA(image.Rect(0, 0, 4, 4))
	layer.SetRGBA(0, 0, color.RGBA{1, 2, 3, 255})
	if err := a.LoadDrawingLayer(context.Background(), id, layer); err != nil {
		t.Fatalf("load: %v", err)
	}
	if layer.RGBAAt(0, 0).A != 0 {
		t.Fatal("layer not cleared")
	}
	bg, err := a.LoadBackground(context.Background(), id)
	if bg != nil || err != nil {
		t.Fatalf("LoadBackground = %v, %v", bg, err)
	}
}

func TestUnreadableBlobReportsError(t *testing.T) {
	store := storage.NewMemory()
	var reported atomic.Int32
	a, maps := newAdapter(t, store, WithErrorHandler(func(string, error) { reported.Add(1) }))
	id := maps.ActiveID()
	bad, _ := store.Put(context.Background(), storage.Blob{Type: "image/png", Data: []byte("not a png")})
	maps.SwapDrawing(id, bad)

	layer := image.NewRGBA(image.Rect(0, 0, 2, 2))
	if err := a.LoadDrawingLayer(context.Background(), id, layer); err != nil {
		t.Fatalf("load: %v", err)
	}
	if reported.Load() != 1 {
		t.Fatalf("error handler ran %d times", reported.Load())
	}
}

func TestSetBackgroundReplacesPrevious(t *testing.T) {
	store := storage.NewMemory()
	a, maps := newAdapter(t, store)
	id := maps.ActiveID()
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	data, _ := raster.EncodePNG(img)
	for i := 0; i < 2; i++ {
		if err := <-a.SetBackground(id, storage.Blob{Type: raster.BlobType, Data: data}); err != nil {
			t.Fatalf("set background: %v", err)
		}
	}
	if store.Len() != 1 {
		t.Fatalf("store holds %d blobs", store.Len())
	}
	bg, err := a.LoadBackground(context.Background(), id)
	if err != nil || bg == nil || bg.Bounds().Dx() != 3 {
		t.Fatalf("LoadBackground = %v, %v", bg, err)
	}
	if err := <-a.ClearBackground(id); err != nil {
		t.Fatalf("clear background: %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("background blob not deleted")
	}
}

func TestDeleteBlobs(t *testing.T) {
	store := storage.NewMemory()
	a, maps := newAdapter(t, store)
	id := maps.ActiveID()
	<-a.Commit(id, image.NewRGBA(image.Rect(0, 0, 2, 2)))
	m, _ := maps.Entry(id)
	if err := <-a.DeleteBlobs(m); err != nil {
		t.Fatalf("delete blobs: %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("blobs survived")
	}
}

type failingStore struct{ storage.Memory }

func (f *failingStore) Put(context.Context, storage.Blob) (string, error) {
	return "", errors.New("disk full")
}

func TestStoreFailureKeepsBlobID(t *testing.T) {
	var reported atomic.Int32
	a, maps := newAdapter(t, &failingStore{}, WithErrorHandler(func(string, error) { reported.Add(1) }))
	id := maps.ActiveID()
	if err := <-a.Commit(id, image.NewRGBA(image.Rect(0, 0, 2, 2))); err == nil {
		t.Fatal("expected commit error")
	}
	if m, _ := maps.Entry(id); m.DrawingBlobID != "" {
		t.Fatalf("blob id changed to %q after failure", m.DrawingBlobID)
	}
	if reported.Load() != 1 {
		t.Fatalf("error handler ran %d times", reported.Load())
	}
}

func TestCloseDrainsAndRejects(t *testing.T) {
	store := storage.NewMemory()
	maps := mapstate.NewCollection(mapstate.State{})
	a := New(store, maps)
	ch := a.Commit(maps.ActiveID(), image.NewRGBA(image.Rect(0, 0, 2, 2)))
	if err := a.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := <-ch; err != nil {
		t.Fatalf("queued commit: %v", err)
	}
	if store.Len() != 1 {
		t.Fatal("queued commit did not run before close")
	}
	if err := <-a.Commit(maps.ActiveID(), image.NewRGBA(image.Rect(0, 0, 2, 2))); !errors.Is(err, ErrClosed) {
		t.Fatalf("commit after close = %v, want ErrClosed", err)
	}
	if err := a.Flush(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("flush after close = %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

type brokenReads struct{ *storage.Memory }

func (b brokenReads) Get(context.Context, string) (*storage.Blob, error) {
	return nil, errors.New("i/o error")
}

func TestLoadStoreFailureKeepsLayer(t *testing.T) {
	var reported atomic.Int32
	a, maps := newAdapter(t, brokenReads{storage.NewMemory()}, WithErrorHandler(func(string, error) { reported.Add(1) }))
	id := maps.ActiveID()
	maps.SwapDrawing(id, "blob_elsewhere")

	layer := image.NewRGBA(image.Rect(0, 0, 2, 2))
	layer.SetRGBA(1, 1, color.RGBA{9, 9, 9, 255})
	if err := a.LoadDrawingLayer(context.Background(), id, layer); err == nil {
		t.Fatal("expected load error")
	}
	if layer.RGBAAt(1, 1).A == 0 {
		t.Fatal("layer cleared on a store failure")
	}
	if reported.Load() != 1 {
		t.Fatalf("error handler ran %d times", reported.Load())
	}
}
