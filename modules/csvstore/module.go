// Package csvstore provides a CSV file storage backend: one row per sample,
// one column per feature.
package csvstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"reflect"
	"sort"

	"github.com/vk/featgridgo/internal/registry"
	"github.com/vk/featgridgo/internal/storage"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Params defines the fixed parameters for the csv sink.
type Params struct {
	Path string `fg:"path"`
}

// Store accumulates rows in memory and writes the file once, at finalization,
// when the full column set is known.
type Store struct {
	path     string
	features map[string]bool
	rows     map[string]map[string]any // sample id -> feature -> value
}

// StoreFeat records one feature value for one sample.
func (s *Store) StoreFeat(featureName, sampleID string, value any) error {
	s.features[featureName] = true
	if s.rows[sampleID] == nil {
		s.rows[sampleID] = make(map[string]any)
	}
	s.rows[sampleID][featureName] = value
	return nil
}

// Write renders all accumulated rows to the configured path. Columns are the
// sorted feature names; rows are sorted by sample id; cells for skipped
// values stay empty.
func (s *Store) Write() error {
	features := make([]string, 0, len(s.features))
	for name := range s.features {
		features = append(features, name)
	}
	sort.Strings(features)

	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"sample_id"}, features...)); err != nil {
		return err
	}
	for _, id := range ids {
		record := make([]string, 0, len(features)+1)
		record = append(record, id)
		for _, feature := range features {
			if v, ok := s.rows[id][feature]; ok {
				record = append(record, fmt.Sprint(v))
			} else {
				record = append(record, "")
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// OpenCSV is the handler for the 'csv' sink's open lifecycle event.
func OpenCSV(ctx context.Context, params *Params) (storage.Backend, error) {
	return &Store{
		path:     params.Path,
		features: make(map[string]bool),
		rows:     make(map[string]map[string]any),
	}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterSink("OpenCSV", &registry.RegisteredSink{
		NewParams:  func() any { return new(Params) },
		ParamsType: reflect.TypeOf(Params{}),
		OpenFn:     OpenCSV,
	})
}
