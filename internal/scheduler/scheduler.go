// Package scheduler turns a built extraction graph into a deterministic work
// plan. A plan fixes, ahead of execution, which nodes are needed for the
// requested features, how many consumers each cached value must serve, and
// the exact (node, sample) visit order for the chosen policy.
package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"iter"

	"github.com/vk/featgridgo/internal/dag"
)

// ErrUnknownFeature is returned when a requested feature was never declared.
var ErrUnknownFeature = errors.New("unknown feature")

// Order selects the iteration policy of a plan.
type Order int

const (
	// OrderSampleWise processes one sample completely before the next:
	// minimal cache residency, one pass over the dataset.
	OrderSampleWise Order = iota
	// OrderFeatureWise processes one node across all samples before moving
	// on: batch handlers fire once, at the cost of wider cache residency.
	OrderFeatureWise
)

// ParseOrder maps the CLI spelling of a policy to its Order value.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "sample":
		return OrderSampleWise, nil
	case "feature":
		return OrderFeatureWise, nil
	default:
		return 0, fmt.Errorf("unknown execution order %q (want \"sample\" or \"feature\")", s)
	}
}

// String returns the CLI spelling of the order.
func (o Order) String() string {
	if o == OrderFeatureWise {
		return "feature"
	}
	return "sample"
}

// WorkItem is one unit of execution: compute the given node for the sample at
// the given dataset index.
type WorkItem struct {
	NodeID string
	Sample int
}

// Plan is an immutable execution schedule. Iterating it twice yields the same
// sequence, which makes sessions restartable and tests reproducible.
type Plan struct {
	graph     *dag.Graph
	policy    Order
	samples   int
	requested []string
	needed    map[string]bool
	fanout    map[string]int
	order     []string
}

// New computes a plan over the subgraph reachable from the requested
// features. An empty request selects every declared feature. samples is the
// dataset length; the plan addresses samples by index only.
func New(g *dag.Graph, policy Order, requested []string, samples int) (*Plan, error) {
	if len(requested) == 0 {
		requested = g.FeatureNames()
	} else {
		requested = dedupe(requested)
	}
	for _, name := range requested {
		if _, ok := g.Features[name]; !ok {
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownFeature)
		}
	}

	p := &Plan{
		graph:     g,
		policy:    policy,
		samples:   samples,
		requested: requested,
	}
	p.computeNeeded()
	p.computeFanOut()

	if policy == OrderFeatureWise {
		p.order = p.topoOrder()
	} else {
		p.order = p.postOrder()
	}
	return p, nil
}

// Policy returns the iteration policy the plan was built for.
func (p *Plan) Policy() Order { return p.policy }

// Requested returns the feature names the plan serves, duplicates removed,
// request order preserved.
func (p *Plan) Requested() []string { return p.requested }

// Needed reports whether the node participates in the plan.
func (p *Plan) Needed(nodeID string) bool { return p.needed[nodeID] }

// FanOut returns the per-node consumer counts the session's cache must honor:
// the number of needed dependents, plus one for each requested feature node
// whose value the session itself hands to storage.
func (p *Plan) FanOut() map[string]int {
	out := make(map[string]int, len(p.fanout))
	for id, n := range p.fanout {
		out[id] = n
	}
	return out
}

// NodeOrder returns the node visit order underlying the plan.
func (p *Plan) NodeOrder() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Items yields the full work sequence. Sample-wise plans run the node order
// once per sample; feature-wise plans run every sample of a node before
// advancing to the next node.
func (p *Plan) Items() iter.Seq[WorkItem] {
	return func(yield func(WorkItem) bool) {
		if p.policy == OrderFeatureWise {
			for _, id := range p.order {
				for s := 0; s < p.samples; s++ {
					if !yield(WorkItem{NodeID: id, Sample: s}) {
						return
					}
				}
			}
			return
		}
		for s := 0; s < p.samples; s++ {
			for _, id := range p.order {
				if !yield(WorkItem{NodeID: id, Sample: s}) {
					return
				}
			}
		}
	}
}

// computeNeeded marks every node reachable from a requested feature by
// walking dependency edges.
func (p *Plan) computeNeeded() {
	p.needed = make(map[string]bool)
	var visit func(id string)
	visit = func(id string) {
		if p.needed[id] {
			return
		}
		p.needed[id] = true
		for _, dep := range p.graph.Nodes[id].Deps {
			visit(dep)
		}
	}
	for _, name := range p.requested {
		visit(dag.FeatureNodeID(name))
	}
}

// computeFanOut counts, per needed node, the dependency edges arriving from
// other needed nodes. Duplicate positional edges count separately, since the
// consumer reads the cache once per position. Requested feature nodes get one
// extra reference for the storage hand-off.
func (p *Plan) computeFanOut() {
	p.fanout = make(map[string]int, len(p.needed))
	for id := range p.needed {
		p.fanout[id] = 0
	}
	for id := range p.needed {
		for _, dep := range p.graph.Nodes[id].Deps {
			p.fanout[dep]++
		}
	}
	for _, name := range p.requested {
		p.fanout[dag.FeatureNodeID(name)]++
	}
}

// distances computes, per needed node, the minimum hop count to any requested
// feature node, walking dependency edges backwards from the features.
func (p *Plan) distances() map[string]int {
	dist := make(map[string]int, len(p.needed))
	queue := make([]string, 0, len(p.requested))
	for _, name := range p.requested {
		id := dag.FeatureNodeID(name)
		dist[id] = 0
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range p.graph.Nodes[id].Deps {
			if _, seen := dist[dep]; seen {
				continue
			}
			dist[dep] = dist[id] + 1
			queue = append(queue, dep)
		}
	}
	return dist
}

// topoOrder produces the feature-wise node order: a topological sort where
// ties among ready nodes go to the node closest to a requested feature, so
// values become storable, and therefore evictable, as early as possible.
func (p *Plan) topoOrder() []string {
	dist := p.distances()

	// A node may consume the same dependency at several positions; readiness
	// tracks distinct dependencies only, matching the one decrement per
	// (dependency, dependent) pair below.
	indegree := make(map[string]int, len(p.needed))
	for id := range p.needed {
		distinct := 0
		seen := make(map[string]bool, len(p.graph.Nodes[id].Deps))
		for _, dep := range p.graph.Nodes[id].Deps {
			if !seen[dep] {
				seen[dep] = true
				distinct++
			}
		}
		indegree[id] = distinct
	}

	ready := &nodeHeap{dist: dist}
	heap.Init(ready)
	for id, n := range indegree {
		if n == 0 {
			heap.Push(ready, id)
		}
	}

	order := make([]string, 0, len(p.needed))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(string)
		order = append(order, id)
		for _, dep := range p.graph.Dependents(id) {
			if !p.needed[dep] {
				continue
			}
			indegree[dep]--
			if indegree[dep] == 0 {
				heap.Push(ready, dep)
			}
		}
	}
	return order
}

// postOrder produces the sample-wise node order: a depth-first post-order
// from each requested feature over the ordered dependency lists, so every
// node appears after all of its dependencies and each shared node exactly
// once.
func (p *Plan) postOrder() []string {
	emitted := make(map[string]bool, len(p.needed))
	order := make([]string, 0, len(p.needed))
	var visit func(id string)
	visit = func(id string) {
		if emitted[id] {
			return
		}
		emitted[id] = true
		for _, dep := range p.graph.Nodes[id].Deps {
			visit(dep)
		}
		order = append(order, id)
	}
	for _, name := range p.requested {
		visit(dag.FeatureNodeID(name))
	}
	return order
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// nodeHeap orders ready node IDs by (distance to a requested feature, ID).
type nodeHeap struct {
	ids  []string
	dist map[string]int
}

func (h *nodeHeap) Len() int { return len(h.ids) }

func (h *nodeHeap) Less(i, j int) bool {
	di, dj := h.dist[h.ids[i]], h.dist[h.ids[j]]
	if di != dj {
		return di < dj
	}
	return h.ids[i] < h.ids[j]
}

func (h *nodeHeap) Swap(i, j int) { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }

func (h *nodeHeap) Push(x any) { h.ids = append(h.ids, x.(string)) }

func (h *nodeHeap) Pop() any {
	last := h.ids[len(h.ids)-1]
	h.ids = h.ids[:len(h.ids)-1]
	return last
}
