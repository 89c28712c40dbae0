// Package session orchestrates one extraction run end to end: it
// materializes the dataset, plans the work, drives the executor over the
// plan, streams extracted feature values to the opened storage backends and
// assembles the final report.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vk/featgridgo/internal/cache"
	"github.com/vk/featgridgo/internal/ctxlog"
	"github.com/vk/featgridgo/internal/dag"
	"github.com/vk/featgridgo/internal/dataset"
	"github.com/vk/featgridgo/internal/executor"
	"github.com/vk/featgridgo/internal/registry"
	"github.com/vk/featgridgo/internal/scheduler"
	"github.com/vk/featgridgo/internal/storage"
)

// ErrDuplicateSampleID is returned when two samples in the dataset share an
// id. Results are keyed by sample id, so this is always fatal.
var ErrDuplicateSampleID = errors.New("duplicate sample id")

// Options configures a session. Requested empty means every declared feature.
type Options struct {
	Graph      *dag.Graph
	Registry   *registry.Registry
	Dataset    dataset.Loader
	Sinks      []storage.Backend
	Order      scheduler.Order
	Requested  []string
	SkipErrors bool
	Progress   *Progress
}

// Progress exposes live counters the session updates as it runs, for
// observers outside it such as the healthcheck endpoint. Optional; a nil
// Progress disables counting.
type Progress struct {
	Extracted atomic.Int64
	Skipped   atomic.Int64
}

// Skip records one (feature, sample) pair that produced no value, with the
// original cause of the failure it cascaded from.
type Skip struct {
	Feature  string
	SampleID string
	Cause    error
}

// Report summarizes a completed session.
type Report struct {
	SessionID string
	Extracted int
	Skipped   []Skip
}

// Session is a single extraction run. Sessions are single-use.
type Session struct {
	id   string
	opts Options
}

// New creates a session with a fresh unique id.
func New(opts Options) *Session {
	return &Session{id: uuid.New().String(), opts: opts}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// Run executes the session. It plans the requested features, computes every
// scheduled work item, hands each extracted feature value to all sinks as
// soon as it is final, and finalizes the sinks once everything succeeded.
// Cancellation is honored between work items; an abort leaves the sinks
// unfinalized.
func (s *Session) Run(ctx context.Context) (*Report, error) {
	logger := ctxlog.FromContext(ctx).With("session_id", s.id)
	ctx = ctxlog.WithLogger(ctx, logger)

	samples, err := materialize(s.opts.Dataset)
	if err != nil {
		return nil, err
	}

	plan, err := scheduler.New(s.opts.Graph, s.opts.Order, s.opts.Requested, len(samples))
	if err != nil {
		return nil, err
	}
	store := cache.New(plan.FanOut())
	runtime := executor.New(s.opts.Graph, s.opts.Registry, store, samples,
		s.opts.SkipErrors, s.opts.Order == scheduler.OrderFeatureWise)

	requested := make(map[string]bool, len(plan.Requested()))
	for _, name := range plan.Requested() {
		requested[name] = true
	}
	logger.Info("Starting extraction.",
		"samples", len(samples), "features", len(requested), "order", s.opts.Order.String())

	report := &Report{SessionID: s.id}
	for item := range plan.Items() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction aborted: %w", err)
		}
		if err := runtime.Compute(ctx, item.NodeID, item.Sample); err != nil {
			return nil, err
		}

		node := s.opts.Graph.Nodes[item.NodeID]
		if node.Kind != dag.KindFeature || !requested[node.Name] {
			continue
		}
		if err := s.handOff(node, samples[item.Sample].ID(), store, report); err != nil {
			return nil, err
		}
	}

	for _, sink := range s.opts.Sinks {
		if err := sink.Write(); err != nil {
			return nil, fmt.Errorf("finalizing storage: %w", err)
		}
	}
	logger.Info("Extraction complete.",
		"extracted", report.Extracted, "skipped", len(report.Skipped))
	return report, nil
}

// handOff takes a final feature entry out of the cache: skipped entries land
// in the report, values go to every sink. Either way the storage reference is
// released, and drop-on-save features are evicted outright.
func (s *Session) handOff(node *dag.Node, sid string, store *cache.Cache, report *Report) error {
	entry, ok := store.Get(node.ID, sid)
	if !ok {
		return fmt.Errorf("internal: feature %q missing from cache for sample %q", node.Name, sid)
	}
	if entry.Skipped() {
		report.Skipped = append(report.Skipped, Skip{Feature: node.Name, SampleID: sid, Cause: entry.Err})
		if s.opts.Progress != nil {
			s.opts.Progress.Skipped.Add(1)
		}
	} else {
		for _, sink := range s.opts.Sinks {
			if chk, ok := sink.(storage.Checker); ok && !chk.Check(entry.Value) {
				return fmt.Errorf("feature %q for sample %q: value of type %T not representable by this backend",
					node.Name, sid, entry.Value)
			}
			if err := sink.StoreFeat(node.Name, sid, entry.Value); err != nil {
				return fmt.Errorf("storing feature %q for sample %q: %w", node.Name, sid, err)
			}
		}
		report.Extracted++
		if s.opts.Progress != nil {
			s.opts.Progress.Extracted.Add(1)
		}
	}
	if err := store.Release(node.ID, sid); err != nil {
		return err
	}
	if node.DropOnSave {
		store.Drop(node.ID, sid)
	}
	return nil
}

// materialize drains the dataset loader into a slice, rejecting duplicate
// sample ids up front so no partial results are ever written for a dataset
// that cannot be keyed.
func materialize(loader dataset.Loader) ([]dataset.Sample, error) {
	samples := make([]dataset.Sample, 0, loader.Len())
	seen := make(map[string]bool, loader.Len())
	for sample := range loader.Samples() {
		if seen[sample.ID()] {
			return nil, fmt.Errorf("sample %q: %w", sample.ID(), ErrDuplicateSampleID)
		}
		seen[sample.ID()] = true
		samples = append(samples, sample)
	}
	return samples, nil
}
