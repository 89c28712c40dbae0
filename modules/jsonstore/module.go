// Package jsonstore provides a JSON file storage backend keyed feature-first.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"

	"github.com/vk/featgridgo/internal/registry"
	"github.com/vk/featgridgo/internal/storage"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params defines the fixed parameters for the json sink.
type Params struct {
	Path string `fg:"path"`
}

// Store accumulates values and writes one JSON document at finalization,
// shaped {feature: {sample id: value}}.
type Store struct {
	path string
	data map[string]map[string]any
}

// Check reports whether the value can be represented in this backend. Values
// are rejected at store time, not at finalization, so the failure names the
// feature and sample that caused it.
func (s *Store) Check(value any) bool {
	_, err := json.Marshal(value)
	return err == nil
}

// StoreFeat records one feature value for one sample.
func (s *Store) StoreFeat(featureName, sampleID string, value any) error {
	if !s.Check(value) {
		return fmt.Errorf("feature %q, sample %q: value of type %T is not JSON-serializable", featureName, sampleID, value)
	}
	if s.data[featureName] == nil {
		s.data[featureName] = make(map[string]any)
	}
	s.data[featureName][sampleID] = value
	return nil
}

// Write renders the accumulated document to the configured path.
func (s *Store) Write() error {
	buf, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal json store: %w", err)
	}
	if err := os.WriteFile(s.path, buf, 0o644); err != nil {
		return fmt.Errorf("failed to write json file: %w", err)
	}
	return nil
}

// OpenJSON is the handler for the 'json' sink's open lifecycle event.
func OpenJSON(ctx context.Context, params *Params) (storage.Backend, error) {
	return &Store{path: params.Path, data: make(map[string]map[string]any)}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSink("OpenJSON", &registry.RegisteredSink{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		OpenFn:     OpenJSON,
	})
}
