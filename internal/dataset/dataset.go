// Package dataset defines the sample and loader contracts the engine
// consumes, plus small in-memory and JSON-file implementations. The engine
// treats sample data as a black box: raw values pass straight through to
// processors, never interpreted.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
)

// ErrFieldNotFound is returned by Sample.GetData for unknown field names.
var ErrFieldNotFound = errors.New("sample data field not found")

// Sample is one unit of the dataset: a unique id plus raw named data fields
// served on demand. The engine never mutates a sample.
type Sample interface {
	ID() string
	GetData(name string) (any, error)
}

// Loader produces a lazy, finite, restartable sequence of samples and
// reports a total count. The engine consumes it once per extraction session
// (twice when it pre-validates id uniqueness).
type Loader interface {
	Len() int
	Samples() iter.Seq[Sample]
}

// MapSample is a Sample backed by a plain map of field values.
type MapSample struct {
	id     string
	fields map[string]any
}

// NewMapSample creates a sample with the given id and data fields.
func NewMapSample(id string, fields map[string]any) *MapSample {
	return &MapSample{id: id, fields: fields}
}

// ID returns the sample's unique identifier.
func (s *MapSample) ID() string { return s.id }

// GetData returns the named raw field value.
func (s *MapSample) GetData(name string) (any, error) {
	val, ok := s.fields[name]
	if !ok {
		return nil, fmt.Errorf("sample %q, field %q: %w", s.id, name, ErrFieldNotFound)
	}
	return val, nil
}

// SliceLoader is a Loader over an in-memory slice of samples.
type SliceLoader struct {
	samples []Sample
}

// NewSliceLoader wraps the given samples in a restartable loader.
func NewSliceLoader(samples ...Sample) *SliceLoader {
	return &SliceLoader{samples: samples}
}

// Len returns the number of samples.
func (l *SliceLoader) Len() int { return len(l.samples) }

// Samples iterates the samples in slice order. The sequence is restartable.
func (l *SliceLoader) Samples() iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for _, s := range l.samples {
			if !yield(s) {
				return
			}
		}
	}
}

// LoadJSONFile reads a dataset from a JSON file holding an array of objects.
// Each object becomes one MapSample; a string-valued "id" key names the
// sample, otherwise its array index is used.
func LoadJSONFile(path string) (*SliceLoader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer f.Close()
	return loadJSON(f)
}

func loadJSON(r io.Reader) (*SliceLoader, error) {
	var rows []map[string]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("failed to decode dataset JSON: %w", err)
	}

	samples := make([]Sample, 0, len(rows))
	for i, row := range rows {
		id := strconv.Itoa(i)
		if rawID, ok := row["id"]; ok {
			if strID, ok := rawID.(string); ok {
				id = strID
			} else {
				return nil, fmt.Errorf("dataset row %d: id must be a string, got %T", i, rawID)
			}
		}
		samples = append(samples, NewMapSample(id, row))
	}
	return NewSliceLoader(samples...), nil
}
