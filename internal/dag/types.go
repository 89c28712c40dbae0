package dag

import (
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind discriminates the three node types of the extraction graph.
type Kind int

const (
	// KindInput identifies a named raw data field supplied by a sample.
	KindInput Kind = iota
	// KindProcessor wraps a processor handler plus its ordered dependencies.
	KindProcessor
	// KindFeature is a named passthrough terminal over exactly one source node.
	KindFeature
)

// String returns a short human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindProcessor:
		return "processor"
	case KindFeature:
		return "feature"
	default:
		return "unknown"
	}
}

// Node is a single vertex of the extraction graph. Nodes are immutable after
// Build returns.
type Node struct {
	// ID is the unique node identifier: "input.<field>", "proc.<hash>" or
	// "feature.<name>".
	ID string
	// Kind discriminates input, processor and feature nodes.
	Kind Kind
	// Name is the input field name, the step instance name this processor
	// node was first declared under, or the feature name.
	Name string
	// ProcessorType is set for processor nodes only.
	ProcessorType string
	// Params holds the evaluated, fixed parameter values (processor nodes).
	Params map[string]cty.Value
	// ParamsStruct is the decoded Go params struct handed to the handler,
	// built once at graph construction. Nil when the handler takes none.
	ParamsStruct any
	// Batch reports whether the node's handler executes whole batches.
	Batch bool
	// DropOnSave marks feature nodes whose cached value is evicted
	// immediately after being handed to storage.
	DropOnSave bool
	// Deps is the ordered list of dependency node IDs supplying the node's
	// positional inputs. Feature nodes have exactly one.
	Deps []string
	// Dependents is the set of node IDs that depend on this node.
	Dependents map[string]struct{}
}

// Graph is the merged, deduplicated extraction DAG.
type Graph struct {
	// Nodes stores all nodes, keyed by their unique ID.
	Nodes map[string]*Node
	// Features indexes feature nodes by feature name.
	Features map[string]*Node
}

// FeatureNames returns all declared feature names in sorted order.
func (g *Graph) FeatureNames() []string {
	names := make([]string, 0, len(g.Features))
	for name := range g.Features {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dependents returns the sorted IDs of the nodes depending on the given node.
func (g *Graph) Dependents(id string) []string {
	n, ok := g.Nodes[id]
	if !ok {
		return nil
	}
	deps := make([]string, 0, len(n.Dependents))
	for depID := range n.Dependents {
		deps = append(deps, depID)
	}
	sort.Strings(deps)
	return deps
}

// InputNodeID returns the node ID for a raw input field.
func InputNodeID(field string) string { return "input." + field }

// FeatureNodeID returns the node ID for a declared feature.
func FeatureNodeID(name string) string { return "feature." + name }

// refKind discriminates the forms an input reference may take.
type refKind int

const (
	refInput refKind = iota
	refStep
	refFeature
)

// parseRef classifies one entry of a step's inputs list. Bare names are raw
// input fields; "input.", "step." and "feature." prefixes are explicit.
func parseRef(ref string) (refKind, string) {
	switch {
	case strings.HasPrefix(ref, "input."):
		return refInput, strings.TrimPrefix(ref, "input.")
	case strings.HasPrefix(ref, "step."):
		return refStep, strings.TrimPrefix(ref, "step.")
	case strings.HasPrefix(ref, "feature."):
		return refFeature, strings.TrimPrefix(ref, "feature.")
	default:
		return refInput, ref
	}
}
