// Package store persists exported property mappings as named JSON
// snapshots. It consumes only the serialization contract of pkg/props:
// what a snapshot means (full or sparse export) is the caller's decision.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/cuekit-dev/cuekit/pkg/props"
)

var (
	// ErrNotFound is returned when no snapshot exists under a name.
	ErrNotFound = errors.New("snapshot not found")
)

// Store is a named snapshot store.
type Store interface {
	// Save writes the snapshot under name, replacing any existing one.
	Save(ctx context.Context, name string, snapshot props.Map) error

	// Load returns the snapshot stored under name.
	Load(ctx context.Context, name string) (props.Map, error)

	// List returns the stored snapshot names, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes the snapshot under name. Deleting an absent
	// snapshot is a no-op.
	Delete(ctx context.Context, name string) error
}

// MemoryStore keeps snapshots in process memory. It is safe for
// concurrent use.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]props.Map
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]props.Map),
	}
}

// Save stores a deep copy of snapshot so later mutation of the source
// object cannot alter history.
func (s *MemoryStore) Save(ctx context.Context, name string, snapshot props.Map) error {
	s.mu.Lock()
	s.snapshots[name] = copyMap(snapshot)
	s.mu.Unlock()
	return nil
}

// Load returns a copy of the stored snapshot.
func (s *MemoryStore) Load(ctx context.Context, name string) (props.Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[name]
	if !ok {
		return nil, ErrNotFound
	}
	return copyMap(snapshot), nil
}

// List returns the stored snapshot names, sorted.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.snapshots))
	for name := range s.snapshots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a snapshot.
func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	delete(s.snapshots, name)
	s.mu.Unlock()
	return nil
}

// copyMap deep-copies the nested mapping shape produced by property
// exports. Non-map values are shared; exports hold scalars and blobs that
// the store never mutates.
func copyMap(m props.Map) props.Map {
	out := make(props.Map, len(m))
	for k, v := range m {
		switch nested := v.(type) {
		case props.Map:
			out[k] = copyMap(nested)
		case map[string]any:
			out[k] = copyMap(props.Map(nested))
		default:
			out[k] = v
		}
	}
	return out
}
