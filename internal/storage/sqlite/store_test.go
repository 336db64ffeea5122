package sqlite

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/example/battlemap/internal/storage"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "maps", "battlemap.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error")
	}
}

func TestBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	id, err := store.Put(ctx, storage.Blob{Type: "image/png", Data: []byte("pixels")})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	b, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if b == nil || b.Type != "image/png" || !bytes.Equal(b.Data, []byte("pixels")) {
		t.Fatalf("unexpected blob %+v", b)
	}

	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	b, err = store.Get(ctx, id)
	if err != nil || b != nil {
		t.Fatalf("Get after delete = %v, %v", b, err)
	}
	if err := store.Delete(ctx, id); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	keep, _ := store.Put(ctx, storage.Blob{Type: "image/png", Data: []byte{1}})
	for i := 0; i < 3; i++ {
		if _, err := store.Put(ctx, storage.Blob{Type: "image/png", Data: []byte{2}}); err != nil {
			t.Fatalf("put: %v", err)
		}
	}
	n, err := store.Prune(ctx, map[string]bool{keep: true})
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 3 {
		t.Fatalf("pruned %d, want 3", n)
	}
	ids, _ := store.BlobIDs(ctx)
	if len(ids) != 1 || ids[0] != keep {
		t.Fatalf("remaining ids %v", ids)
	}
}

func TestDocumentUpsert(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	if _, ok, err := store.LoadDocument(ctx, "maps"); ok || err != nil {
		t.Fatalf("expected no document, got ok=%v err=%v", ok, err)
	}
	if err := store.SaveDocument(ctx, "maps", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveDocument(ctx, "maps", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("save again: %v", err)
	}
	body, ok, err := store.LoadDocument(ctx, "maps")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if string(body) != `{"v":2}` {
		t.Fatalf("body = %s", body)
	}
	if err := store.SaveDocument(ctx, "", nil); err == nil {
		t.Fatal("expected error for blank name")
	}
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	if err := s.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if _, err := s.Get(context.Background(), "x"); err == nil {
		t.Fatal("expected error from nil store")
	}
}
