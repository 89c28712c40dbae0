// Package executor computes individual work items against the cache. It owns
// the single-value and batch handler invocation, input field access, the
// consumption of dependency references, and the cascading-skip rule: once a
// value fails, every transitive dependent is marked skipped with the original
// cause instead of being computed.
package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/featgridgo/internal/cache"
	"github.com/vk/featgridgo/internal/ctxlog"
	"github.com/vk/featgridgo/internal/dag"
	"github.com/vk/featgridgo/internal/dataset"
	"github.com/vk/featgridgo/internal/registry"
)

// ProcessorError wraps a failure raised while computing one node for one
// sample, pinning it to its origin for reporting.
type ProcessorError struct {
	NodeID   string
	Name     string
	SampleID string
	Err      error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("node %q (%s) on sample %q: %v", e.Name, e.NodeID, e.SampleID, e.Err)
}

func (e *ProcessorError) Unwrap() error { return e.Err }

// Runtime executes work items for one extraction session. It is not safe for
// concurrent use.
type Runtime struct {
	graph      *dag.Graph
	reg        *registry.Registry
	cache      *cache.Cache
	samples    []dataset.Sample
	skipErrors bool
	batchAll   bool
}

// New creates a runtime over the given graph, cache and materialized sample
// list. skipErrors selects skip-and-continue over abort on handler failure.
// batchAll makes batch handlers consume every sample at their first work
// item; it is only sound when dependency values for all samples are already
// cached, which the feature-wise schedule guarantees.
func New(g *dag.Graph, reg *registry.Registry, c *cache.Cache, samples []dataset.Sample, skipErrors, batchAll bool) *Runtime {
	return &Runtime{
		graph:      g,
		reg:        reg,
		cache:      c,
		samples:    samples,
		skipErrors: skipErrors,
		batchAll:   batchAll,
	}
}

// Compute ensures the cache holds an entry for (node, sample), running the
// node's handler if needed. A non-nil return aborts the session; handler
// failures under skip-errors mode are recorded as skip sentinels instead.
func (r *Runtime) Compute(ctx context.Context, nodeID string, sample int) error {
	node, ok := r.graph.Nodes[nodeID]
	if !ok {
		return fmt.Errorf("internal: scheduled node %q not in graph", nodeID)
	}
	sid := r.samples[sample].ID()
	if r.cache.Has(nodeID, sid) {
		// Already produced by an earlier batch invocation.
		return nil
	}

	switch {
	case node.Kind == dag.KindInput:
		return r.computeInput(ctx, node, sample)
	case node.Batch:
		return r.computeBatch(ctx, node, sample)
	default:
		return r.computeSingle(ctx, node, sample)
	}
}

// computeInput reads one raw data field off the sample.
func (r *Runtime) computeInput(ctx context.Context, node *dag.Node, sample int) error {
	sid := r.samples[sample].ID()
	v, err := r.samples[sample].GetData(node.Name)
	if err != nil {
		return r.failEntry(ctx, node, sid, err)
	}
	return r.cache.Put(node.ID, sid, cache.Entry{Value: v})
}

// computeSingle consumes the node's dependencies for one sample and runs its
// handler (or, for feature nodes, forwards the source entry unchanged).
func (r *Runtime) computeSingle(ctx context.Context, node *dag.Node, sample int) error {
	sid := r.samples[sample].ID()
	entries, err := r.consumeDeps(node, sid)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Skipped() {
			// Propagate the original cause, not a new error.
			return r.cache.Put(node.ID, sid, cache.Entry{Err: e.Err})
		}
	}

	if node.Kind == dag.KindFeature {
		return r.cache.Put(node.ID, sid, entries[0])
	}

	handler, ok := r.reg.ProcessorHandler(node.ProcessorType)
	if !ok {
		return fmt.Errorf("internal: no handler for processor type %q", node.ProcessorType)
	}
	out, err := callProcess(ctx, handler.Fn, node.ParamsStruct, values(entries))
	if err != nil {
		return r.failEntry(ctx, node, sid, err)
	}
	return r.cache.Put(node.ID, sid, cache.Entry{Value: out})
}

// computeBatch runs a batch handler. With batchAll set it consumes the
// dependencies of every sample and produces all entries in one invocation;
// otherwise it degrades to a batch of one.
func (r *Runtime) computeBatch(ctx context.Context, node *dag.Node, sample int) error {
	indices := []int{sample}
	if r.batchAll {
		indices = make([]int, len(r.samples))
		for i := range r.samples {
			indices[i] = i
		}
	}

	// Rows with a skipped dependency are excluded from the handler call and
	// sealed with the original cause.
	rows := make([][]any, 0, len(indices))
	live := make([]int, 0, len(indices))
	for _, idx := range indices {
		sid := r.samples[idx].ID()
		entries, err := r.consumeDeps(node, sid)
		if err != nil {
			return err
		}
		var cause error
		for _, e := range entries {
			if e.Skipped() {
				cause = e.Err
				break
			}
		}
		if cause != nil {
			if err := r.cache.Put(node.ID, sid, cache.Entry{Err: cause}); err != nil {
				return err
			}
			continue
		}
		rows = append(rows, values(entries))
		live = append(live, idx)
	}
	if len(rows) == 0 {
		return nil
	}

	handler, ok := r.reg.ProcessorHandler(node.ProcessorType)
	if !ok {
		return fmt.Errorf("internal: no handler for processor type %q", node.ProcessorType)
	}
	outs, err := callProcessBatch(ctx, handler.BatchFn, node.ParamsStruct, rows)
	if err != nil {
		// A batch failure taints every sample in the batch.
		for _, idx := range live {
			sid := r.samples[idx].ID()
			if ferr := r.failEntry(ctx, node, sid, err); ferr != nil {
				return ferr
			}
		}
		return nil
	}
	if len(outs) != len(rows) {
		return fmt.Errorf("processor %q returned %d outputs for a batch of %d", node.ProcessorType, len(outs), len(rows))
	}
	for i, idx := range live {
		sid := r.samples[idx].ID()
		if err := r.cache.Put(node.ID, sid, cache.Entry{Value: outs[i]}); err != nil {
			return err
		}
	}
	return nil
}

// consumeDeps fetches the node's dependency entries for one sample in
// positional order and releases one reference per position.
func (r *Runtime) consumeDeps(node *dag.Node, sid string) ([]cache.Entry, error) {
	entries := make([]cache.Entry, len(node.Deps))
	for i, dep := range node.Deps {
		e, ok := r.cache.Get(dep, sid)
		if !ok {
			return nil, fmt.Errorf("internal: dependency %q of %q not cached for sample %q", dep, node.ID, sid)
		}
		entries[i] = e
	}
	for _, dep := range node.Deps {
		if err := r.cache.Release(dep, sid); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// failEntry handles a handler or input failure: abort in strict mode, skip
// sentinel otherwise.
func (r *Runtime) failEntry(ctx context.Context, node *dag.Node, sid string, err error) error {
	perr := &ProcessorError{NodeID: node.ID, Name: node.Name, SampleID: sid, Err: err}
	if !r.skipErrors {
		return perr
	}
	ctxlog.FromContext(ctx).Warn("Computation failed, skipping dependents for this sample.",
		"node", node.Name, "sample", sid, "error", err)
	return r.cache.Put(node.ID, sid, cache.Entry{Err: perr})
}

func values(entries []cache.Entry) []any {
	vals := make([]any, len(entries))
	for i, e := range entries {
		vals[i] = e.Value
	}
	return vals
}

// callProcess invokes a single-value handler of shape
// func(ctx, *Params, []any) (any, error); handlers without a params struct
// omit the middle argument.
func callProcess(ctx context.Context, fn any, params any, inputs []any) (any, error) {
	out, err := call(fn, ctx, params, reflect.ValueOf(inputs))
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}

// callProcessBatch invokes a batch handler of shape
// func(ctx, *Params, [][]any) ([]any, error).
func callProcessBatch(ctx context.Context, fn any, params any, rows [][]any) ([]any, error) {
	out, err := call(fn, ctx, params, reflect.ValueOf(rows))
	if err != nil {
		return nil, err
	}
	return out.Interface().([]any), nil
}

func call(fn any, ctx context.Context, params any, in reflect.Value) (reflect.Value, error) {
	args := make([]reflect.Value, 0, 3)
	args = append(args, reflect.ValueOf(ctx))
	if params != nil {
		args = append(args, reflect.ValueOf(params))
	}
	args = append(args, in)
	results := reflect.ValueOf(fn).Call(args)
	if errv := results[1]; !errv.IsNil() {
		return reflect.Value{}, errv.Interface().(error)
	}
	return results[0], nil
}
