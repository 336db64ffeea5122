// Package storage defines the blob store the editor persists drawing layers
// and background images into.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Blob is an opaque binary value with its content type.
type Blob struct {
	Type string
	Data []byte
}

// Store persists blobs under generated ids.
//
// Get returns nil, nil for an id that was never stored. Delete of an
// unknown id is a no-op.
type Store interface {
	Put(ctx context.Context, b Blob) (string, error)
	Get(ctx context.Context, id string) (*Blob, error)
	Delete(ctx context.Context, id string) error
}

// NewBlobID returns a fresh, time ordered blob id.
func NewBlobID() string {
	return "blob_" + uuid.Must(uuid.NewV7()).String()
}

// Memory is an in-process Store.
type Memory struct {
	mu    sync.Mutex
	blobs map[string]Blob
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{blobs: map[string]Blob{}}
}

func (m *Memory) Put(ctx context.Context, b Blob) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(b.Data) == 0 {
		return "", fmt.Errorf("put blob: empty data")
	}
	id := NewBlobID()
	m.mu.Lock()
	m.blobs[id] = Blob{Type: b.Type, Data: append([]byte(nil), b.Data...)}
	m.mu.Unlock()
	return id, nil
}

func (m *Memory) Get(ctx context.Context, id string) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, nil
	}
	return &Blob{Type: b.Type, Data: append([]byte(nil), b.Data...)}, nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.blobs, id)
	m.mu.Unlock()
	return nil
}

// Len reports how many blobs are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blobs)
}

// IDs returns the stored ids in no particular order.
func (m *Memory) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.blobs))
	for id := range m.blobs {
		ids = append(ids, id)
	}
	return ids
}
