package config

import (
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the entire
// configuration: all processor/sink manifests plus the merged pipeline
// declarations from every loaded file.
type Model struct {
	Processors map[string]*ProcessorDefinition
	Sinks      map[string]*SinkDefinition
	Pipeline   *Pipeline
}

// Pipeline is the merged set of declared steps, features and outputs.
type Pipeline struct {
	Steps    []*Step
	Features []*Feature
	Outputs  []*Output
}

// Step is the format-agnostic representation of a `step` block. Inputs is
// the ordered list of dependency references; parameter values are evaluated
// at load time since they are always static literals.
type Step struct {
	ProcessorType string
	Name          string
	Inputs        []string
	Params        map[string]cty.Value
}

// Feature is the format-agnostic representation of a `feature` block.
type Feature struct {
	Name       string
	Source     string
	DropOnSave bool
}

// Output is the format-agnostic representation of an `output` block.
type Output struct {
	SinkType string
	Name     string
	Params   map[string]cty.Value
}

// --- Module Manifest Models ---

// ProcessorDefinition is the format-agnostic representation of a processor's
// manifest.
type ProcessorDefinition struct {
	Type        string
	Description string
	Arity       int
	Variadic    bool
	Lifecycle   *Lifecycle
	Params      map[string]*ParamDefinition
}

// SinkDefinition is the format-agnostic representation of a sink's manifest.
type SinkDefinition struct {
	Type        string
	Description string
	Lifecycle   *SinkLifecycle
	Params      map[string]*ParamDefinition
}

// Lifecycle maps a processor's events to Go handler names. Exactly one of
// the two fields is set.
type Lifecycle struct {
	OnProcess      string
	OnProcessBatch string
}

// SinkLifecycle maps a sink's open event to a Go handler name.
type SinkLifecycle struct {
	Open string
}

// ParamDefinition defines a single required parameter for a processor or
// sink. Parameters have no defaults by design: omitting one in a pipeline
// is a graph construction error, never a runtime fallback.
type ParamDefinition struct {
	Name        string
	Type        cty.Type
	Description string
}
