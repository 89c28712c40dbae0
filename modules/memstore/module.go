// Package memstore provides an in-memory storage backend, mainly for tests
// and programmatic use of the engine.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/vk/featgridgo/internal/registry"
	"github.com/vk/featgridgo/internal/storage"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Store is an in-memory storage backend keeping every value it receives.
type Store struct {
	mu   sync.Mutex
	data map[string]map[string]any // feature -> sample id -> value
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{data: make(map[string]map[string]any)}
}

// StoreFeat records one feature value for one sample.
func (s *Store) StoreFeat(featureName, sampleID string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data[featureName] == nil {
		s.data[featureName] = make(map[string]any)
	}
	s.data[featureName][sampleID] = value
	return nil
}

// Write is a no-op: values are already resident.
func (s *Store) Write() error { return nil }

// Get returns one stored value.
func (s *Store) Get(featureName, sampleID string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[featureName][sampleID]
	return v, ok
}

// Feature returns all stored values of one feature, keyed by sample id.
func (s *Store) Feature(featureName string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.data[featureName]))
	for sid, v := range s.data[featureName] {
		out[sid] = v
	}
	return out
}

// Features returns the names of all stored features in sorted order.
func (s *Store) Features() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.data))
	for name := range s.data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenMemory is the handler for the 'memory' sink's open lifecycle event.
func OpenMemory(ctx context.Context) (storage.Backend, error) {
	return New(), nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSink("OpenMemory", &registry.RegisteredSink{
		OpenFn: OpenMemory,
	})
}
