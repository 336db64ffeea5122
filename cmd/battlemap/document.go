package main

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/example/battlemap/internal/mapstate"
	"github.com/example/battlemap/internal/storage/sqlite"
)

const defaultDocument = "default"

// storeTimeout bounds one CLI round trip to the database.
const storeTimeout = 30 * time.Second

type document struct {
	store *sqlite.Store
	name  string
	state mapstate.State
}

// openDocument opens the database and decodes the named document. A
// document that was never saved starts as a single empty map.
func openDocument(ctx context.Context, path, name string) (*document, error) {
	store, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	body, ok, err := store.LoadDocument(ctx, name)
	if err != nil {
		closeWithLog("store", store)
		return nil, err
	}
	state := mapstate.Default()
	if ok {
		state, err = mapstate.Decode(body)
		if err != nil {
			closeWithLog("store", store)
			return nil, fmt.Errorf("document %q: %w", name, err)
		}
	}
	return &document{store: store, name: name, state: mapstate.Normalize(state)}, nil
}

func (d *document) save(ctx context.Context, s mapstate.State) error {
	body, err := mapstate.Encode(s)
	if err != nil {
		return err
	}
	if err := d.store.SaveDocument(ctx, d.name, body); err != nil {
		return err
	}
	d.state = s
	return nil
}

// prune drops blobs no map of s references. Blobs are only orphaned by
// a crash between a put and the delete of the replaced id.
func (d *document) prune(ctx context.Context, s mapstate.State) {
	keep := mapstate.NewCollection(s).BlobIDs()
	n, err := d.store.Prune(ctx, keep)
	if err != nil {
		log.Printf("prune: %v", err)
		return
	}
	if n > 0 {
		log.Printf("pruned %d unreferenced blobs", n)
	}
}

func (d *document) Close() error { return d.store.Close() }

// findMap resolves a selector to a map. An empty selector is the active
// map; otherwise an exact id, a 1-based position, then a case-insensitive
// name.
func findMap(s mapstate.State, sel string) (mapstate.MapEntry, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		if i := s.Find(s.ActiveMapID); i >= 0 {
			return s.Maps[i], nil
		}
		return mapstate.MapEntry{}, fmt.Errorf("no active map")
	}
	if i := s.Find(sel); i >= 0 {
		return s.Maps[i], nil
	}
	if n, err := strconv.Atoi(sel); err == nil && n >= 1 && n <= len(s.Maps) {
		return s.Maps[n-1], nil
	}
	for _, m := range s.Maps {
		if strings.EqualFold(m.Name, sel) {
			return m, nil
		}
	}
	return mapstate.MapEntry{}, fmt.Errorf("no map matches %q", sel)
}

func closeWithLog(name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		log.Printf("%s: close: %v", name, err)
	}
}
