package dag

import (
	"context"
	"fmt"

	"github.com/vk/featgridgo/internal/config"
	"github.com/vk/featgridgo/internal/ctxlog"
	"github.com/vk/featgridgo/internal/registry"
)

// Build constructs a complete, validated extraction graph from a config
// model. Building is side-effect-free on its inputs and idempotent; any
// error leaves no usable partial graph.
func Build(ctx context.Context, model *config.Model, reg *registry.Registry, conv config.Converter) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting graph construction.")

	b := &builder{
		ctx:        ctx,
		model:      model,
		reg:        reg,
		conv:       conv,
		graph:      &Graph{Nodes: make(map[string]*Node), Features: make(map[string]*Node)},
		recs:       make(map[string]*stepRec),
		stepNodeID: make(map[string]string),
		hashes:     make(map[string]string),
		visiting:   make(map[string]bool),
		byHash:     make(map[string]*Node),
	}

	// First pass: validate every step against its manifest and decode params.
	if err := b.createSteps(); err != nil {
		return nil, err
	}
	logger.Debug("Build: Step validation complete.", "step_count", len(b.recs))

	// Second pass: content-addressed node creation, merging structurally
	// identical sub-pipelines.
	for _, s := range model.Pipeline.Steps {
		if _, err := b.hashStep(s.Name); err != nil {
			return nil, err
		}
	}
	logger.Debug("Build: Node deduplication complete.", "node_count", len(b.graph.Nodes))

	if err := b.createFeatures(); err != nil {
		return nil, err
	}

	// Third pass: rewrite feature references into direct edges to the
	// referenced feature's underlying source node.
	if err := b.resolveFeatureRefs(); err != nil {
		return nil, err
	}
	logger.Debug("Build: Feature reference resolution complete.")

	// Fourth pass: dependent sets and cycle detection.
	b.linkDependents()
	if err := b.graph.detectCycles(); err != nil {
		return nil, err
	}
	logger.Debug("Build: Graph construction successful.",
		"nodes", len(b.graph.Nodes), "features", len(b.graph.Features))
	return b.graph, nil
}

// stepRec carries a validated step through graph construction.
type stepRec struct {
	step         *config.Step
	def          *config.ProcessorDefinition
	handler      *registry.RegisteredProcessor
	paramsStruct any
}

type builder struct {
	ctx   context.Context
	model *config.Model
	reg   *registry.Registry
	conv  config.Converter
	graph *Graph

	recs       map[string]*stepRec // by step instance name
	stepNodeID map[string]string   // step instance name -> node ID
	hashes     map[string]string   // step instance name -> content hash
	visiting   map[string]bool     // recursion stack for the hash walk
	byHash     map[string]*Node    // content hash -> merged node
}

// createSteps validates every declared step against its processor manifest
// and decodes its fixed parameters once, failing fast on anything that would
// otherwise surface mid-extraction.
func (b *builder) createSteps() error {
	for _, s := range b.model.Pipeline.Steps {
		if _, exists := b.recs[s.Name]; exists {
			return fmt.Errorf("step %q: %w", s.Name, ErrDuplicateStep)
		}

		def, ok := b.reg.ProcessorDefs[s.ProcessorType]
		if !ok {
			return fmt.Errorf("step %q: %q: %w", s.Name, s.ProcessorType, ErrUnknownProcessor)
		}
		handler, ok := b.reg.ProcessorHandler(s.ProcessorType)
		if !ok {
			return fmt.Errorf("step %q: no handler for %q: %w", s.Name, s.ProcessorType, ErrUnknownProcessor)
		}

		if def.Variadic {
			if len(s.Inputs) < def.Arity {
				return fmt.Errorf("step %q: %q needs at least %d inputs, got %d: %w",
					s.Name, s.ProcessorType, def.Arity, len(s.Inputs), ErrArityMismatch)
			}
		} else if len(s.Inputs) != def.Arity {
			return fmt.Errorf("step %q: %q needs %d inputs, got %d: %w",
				s.Name, s.ProcessorType, def.Arity, len(s.Inputs), ErrArityMismatch)
		}

		var paramsStruct any
		if handler.NewParams != nil {
			paramsStruct = handler.NewParams()
			if err := b.conv.DecodeParams(b.ctx, paramsStruct, s.Params, def.Params); err != nil {
				return fmt.Errorf("step %q: %w", s.Name, err)
			}
		} else if len(s.Params) > 0 {
			return fmt.Errorf("step %q: processor %q takes no params", s.Name, s.ProcessorType)
		}

		b.recs[s.Name] = &stepRec{step: s, def: def, handler: handler, paramsStruct: paramsStruct}
	}
	return nil
}

// createFeatures adds a feature node per feature block. The source must name
// a declared step (bare or "step."-prefixed) or a raw input passthrough
// ("input."-prefixed).
func (b *builder) createFeatures() error {
	logger := ctxlog.FromContext(b.ctx)
	for _, f := range b.model.Pipeline.Features {
		if _, exists := b.graph.Features[f.Name]; exists {
			return fmt.Errorf("feature %q: %w", f.Name, ErrDuplicateFeature)
		}

		var sourceID string
		kind, name := parseRef(f.Source)
		switch kind {
		case refInput:
			if f.Source == name {
				// A bare source names a step, unlike bare step inputs.
				kind = refStep
			} else {
				sourceID = b.ensureInputNode(name)
			}
		case refFeature:
			return fmt.Errorf("feature %q: source must be a step or input, not another feature: %w", f.Name, ErrUnresolvedInput)
		}
		if kind == refStep {
			id, ok := b.stepNodeID[name]
			if !ok {
				return fmt.Errorf("feature %q: source step %q not defined: %w", f.Name, name, ErrUnresolvedInput)
			}
			sourceID = id
		}

		node := &Node{
			ID:         FeatureNodeID(f.Name),
			Kind:       KindFeature,
			Name:       f.Name,
			DropOnSave: f.DropOnSave,
			Deps:       []string{sourceID},
			Dependents: make(map[string]struct{}),
		}
		b.graph.Nodes[node.ID] = node
		b.graph.Features[f.Name] = node
		logger.Debug("Created feature node.", "feature", f.Name, "source", sourceID)
	}
	return nil
}

// resolveFeatureRefs rewrites every "feature.<name>" dependency placeholder
// into a direct edge to that feature's underlying source node.
func (b *builder) resolveFeatureRefs() error {
	for _, node := range b.graph.Nodes {
		for i, dep := range node.Deps {
			kind, name := parseRef(dep)
			if kind != refFeature || node.Kind == KindFeature {
				continue
			}
			feat, ok := b.graph.Features[name]
			if !ok {
				return fmt.Errorf("node %q: feature %q never defined: %w", node.Name, name, ErrUnresolvedInput)
			}
			node.Deps[i] = feat.Deps[0]
		}
	}
	return nil
}

// linkDependents derives the dependent set of every node from the ordered
// dependency lists.
func (b *builder) linkDependents() {
	for _, node := range b.graph.Nodes {
		for _, dep := range node.Deps {
			b.graph.Nodes[dep].Dependents[node.ID] = struct{}{}
		}
	}
}

// ensureInputNode returns the ID of the input node for a raw data field,
// creating it on first reference.
func (b *builder) ensureInputNode(field string) string {
	id := InputNodeID(field)
	if _, exists := b.graph.Nodes[id]; !exists {
		b.graph.Nodes[id] = &Node{
			ID:         id,
			Kind:       KindInput,
			Name:       field,
			Dependents: make(map[string]struct{}),
		}
	}
	return id
}

// detectCycles checks for circular dependencies in the graph using DFS.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(node *Node) error
	visit = func(node *Node) error {
		visiting[node.ID] = true
		for _, depID := range node.Deps {
			dep := g.Nodes[depID]
			if visiting[dep.ID] {
				return fmt.Errorf("involving %q: %w", dep.ID, ErrCycle)
			}
			if !visited[dep.ID] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		delete(visiting, node.ID)
		visited[node.ID] = true
		return nil
	}

	for _, node := range g.Nodes {
		if !visited[node.ID] {
			if err := visit(node); err != nil {
				return err
			}
		}
	}
	return nil
}
