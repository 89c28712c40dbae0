package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Pipeline File Structures ---

// ParamsBlock represents the content of a 'params' block within a step or
// output. Its attributes are the processor's fixed parameter values.
type ParamsBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Step represents a `step` block from a user's pipeline file. It is a
// runnable instance of a defined processor.
type Step struct {
	ProcessorType string       `hcl:"processor_type,label"`
	Name          string       `hcl:"instance_name,label"`
	Inputs        []string     `hcl:"inputs"`
	Params        *ParamsBlock `hcl:"params,block"`
}

// Feature represents a `feature` block: a named, requestable output of the
// extraction graph, backed by one step (or a raw input passthrough).
type Feature struct {
	Name       string `hcl:"feature_name,label"`
	Source     string `hcl:"source"`
	DropOnSave bool   `hcl:"drop_on_save,optional"`
}

// Output represents an `output` block: a configured instance of a storage
// sink that extracted feature values stream into.
type Output struct {
	SinkType string       `hcl:"sink_type,label"`
	Name     string       `hcl:"instance_name,label"`
	Params   *ParamsBlock `hcl:"params,block"`
}

// --- Module Manifest Schemas ---

// Lifecycle defines the mapping from a processor's lifecycle event to a
// registered Go handler function. Exactly one of the two events must be set:
// on_process for per-sample handlers, on_process_batch for batch handlers.
type Lifecycle struct {
	OnProcess      string `hcl:"on_process,optional"`
	OnProcessBatch string `hcl:"on_process_batch,optional"`
}

// SinkLifecycle defines the mapping from a sink's open event to a registered
// Go handler function.
type SinkLifecycle struct {
	Open string `hcl:"open"`
}

// ParamDefinition defines a single fixed parameter for a processor or sink.
// Parameters never carry defaults: an omitted parameter is a build-time
// error, so the schema deliberately has no `default` attribute.
type ParamDefinition struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
}

// ProcessorDefinition represents the HCL manifest for a processor type.
type ProcessorDefinition struct {
	Type        string             `hcl:"type,label"`
	Description string             `hcl:"description,optional"`
	Arity       int                `hcl:"arity"`
	Variadic    bool               `hcl:"variadic,optional"`
	Lifecycle   *Lifecycle         `hcl:"lifecycle,block"`
	Params      []*ParamDefinition `hcl:"param,block"`
}

// SinkDefinition represents the HCL manifest for a storage sink type.
type SinkDefinition struct {
	Type        string             `hcl:"type,label"`
	Description string             `hcl:"description,optional"`
	Lifecycle   *SinkLifecycle     `hcl:"lifecycle,block"`
	Params      []*ParamDefinition `hcl:"param,block"`
}

// FileConfig represents the top-level structure of any .hcl file the engine
// loads. Manifest blocks (processor, sink) and pipeline blocks (step,
// feature, output) may be mixed freely; by convention manifests live under
// the modules path and pipelines under the pipeline path.
type FileConfig struct {
	Processors []*ProcessorDefinition `hcl:"processor,block"`
	Sinks      []*SinkDefinition      `hcl:"sink,block"`
	Steps      []*Step                `hcl:"step,block"`
	Features   []*Feature             `hcl:"feature,block"`
	Outputs    []*Output              `hcl:"output,block"`
	Body       hcl.Body               `hcl:",remain"`
}
