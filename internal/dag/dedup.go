package dag

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/featgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// hashStep computes the content hash of a step and materializes its node,
// merging with any structurally identical node created earlier. The hash
// covers the processor type, the canonicalized parameter values and the
// ordered dependency hashes, so identity is structural rather than nominal.
func (b *builder) hashStep(name string) (string, error) {
	if h, done := b.hashes[name]; done {
		return h, nil
	}
	if b.visiting[name] {
		return "", fmt.Errorf("involving step %q: %w", name, ErrCycle)
	}
	b.visiting[name] = true
	defer delete(b.visiting, name)

	rec, ok := b.recs[name]
	if !ok {
		return "", fmt.Errorf("step %q not defined: %w", name, ErrUnresolvedInput)
	}

	depHashes := make([]string, 0, len(rec.step.Inputs))
	depIDs := make([]string, 0, len(rec.step.Inputs))
	for _, ref := range rec.step.Inputs {
		depHash, depID, err := b.hashRef(ref)
		if err != nil {
			return "", fmt.Errorf("step %q: %w", name, err)
		}
		depHashes = append(depHashes, depHash)
		depIDs = append(depIDs, depID)
	}

	h := contentHash("proc", rec.step.ProcessorType, canonicalParams(rec.step.Params), strings.Join(depHashes, "\x00"))
	b.hashes[name] = h

	if existing, merged := b.byHash[h]; merged {
		ctxlog.FromContext(b.ctx).Debug("Deduplicated structurally identical step.",
			"step", name, "into", existing.Name, "node_id", existing.ID)
		b.stepNodeID[name] = existing.ID
		return h, nil
	}

	node := &Node{
		ID:            "proc." + h[:12],
		Kind:          KindProcessor,
		Name:          name,
		ProcessorType: rec.step.ProcessorType,
		Params:        rec.step.Params,
		ParamsStruct:  rec.paramsStruct,
		Batch:         rec.handler.Batch(),
		Deps:          depIDs,
		Dependents:    make(map[string]struct{}),
	}
	b.graph.Nodes[node.ID] = node
	b.byHash[h] = node
	b.stepNodeID[name] = node.ID
	return h, nil
}

// hashRef hashes one input reference and returns the dependency ID it
// contributes: a concrete node ID for inputs and steps, or a
// "feature.<name>" placeholder left for the resolution pass.
func (b *builder) hashRef(ref string) (hash string, depID string, err error) {
	kind, name := parseRef(ref)
	switch kind {
	case refInput:
		return contentHash("input", name), b.ensureInputNode(name), nil
	case refFeature:
		// Hashed by name: consumers of the same feature dedup before the
		// reference is resolved to the feature's source node.
		return contentHash("featref", name), FeatureNodeID(name), nil
	default: // refStep
		h, err := b.hashStep(name)
		if err != nil {
			return "", "", err
		}
		return h, b.stepNodeID[name], nil
	}
}

// canonicalParams renders parameter values as a deterministic string:
// sorted by name, each value in cty's verbose literal syntax.
func canonicalParams(params map[string]cty.Value) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+params[name].GoString())
	}
	return strings.Join(parts, ";")
}

// contentHash hashes the given parts, NUL-separated, into a hex digest.
func contentHash(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}
