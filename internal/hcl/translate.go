// This file contains the logic for translating HCL schema structs into the
// format-agnostic configuration model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/vk/featgridgo/internal/config"
	"github.com/vk/featgridgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// translateStep converts the HCL-specific step schema into the agnostic
// model, evaluating parameter expressions to cty values. Parameters are
// static literals; anything that needs an evaluation context is rejected.
func (l *Loader) translateStep(s *schema.Step) (*config.Step, error) {
	params, err := l.evalParams(s.Params)
	if err != nil {
		return nil, fmt.Errorf("step %q: %w", s.Name, err)
	}
	return &config.Step{
		ProcessorType: s.ProcessorType,
		Name:          s.Name,
		Inputs:        s.Inputs,
		Params:        params,
	}, nil
}

// translateOutput converts the HCL-specific output schema into the agnostic model.
func (l *Loader) translateOutput(o *schema.Output) (*config.Output, error) {
	params, err := l.evalParams(o.Params)
	if err != nil {
		return nil, fmt.Errorf("output %q: %w", o.Name, err)
	}
	return &config.Output{
		SinkType: o.SinkType,
		Name:     o.Name,
		Params:   params,
	}, nil
}

// translateProcessorDefinition converts the HCL-specific processor manifest
// into the agnostic model.
func (l *Loader) translateProcessorDefinition(ctx context.Context, s *schema.ProcessorDefinition) (*config.ProcessorDefinition, error) {
	def := &config.ProcessorDefinition{
		Type:        s.Type,
		Description: s.Description,
		Arity:       s.Arity,
		Variadic:    s.Variadic,
		Params:      make(map[string]*config.ParamDefinition),
	}
	if s.Arity < 0 {
		return nil, fmt.Errorf("processor %q: arity must not be negative", s.Type)
	}
	if s.Lifecycle == nil {
		return nil, fmt.Errorf("processor %q: missing lifecycle block", s.Type)
	}
	if (s.Lifecycle.OnProcess == "") == (s.Lifecycle.OnProcessBatch == "") {
		return nil, fmt.Errorf("processor %q: lifecycle must set exactly one of on_process or on_process_batch", s.Type)
	}
	def.Lifecycle = &config.Lifecycle{
		OnProcess:      s.Lifecycle.OnProcess,
		OnProcessBatch: s.Lifecycle.OnProcessBatch,
	}
	for _, p := range s.Params {
		pd, err := l.translateParamDefinition(ctx, p, "processor", s.Type)
		if err != nil {
			return nil, err
		}
		def.Params[p.Name] = pd
	}
	return def, nil
}

// translateSinkDefinition converts the HCL-specific sink manifest into the
// agnostic model.
func (l *Loader) translateSinkDefinition(ctx context.Context, s *schema.SinkDefinition) (*config.SinkDefinition, error) {
	def := &config.SinkDefinition{
		Type:        s.Type,
		Description: s.Description,
		Params:      make(map[string]*config.ParamDefinition),
	}
	if s.Lifecycle == nil || s.Lifecycle.Open == "" {
		return nil, fmt.Errorf("sink %q: missing lifecycle open handler", s.Type)
	}
	def.Lifecycle = &config.SinkLifecycle{Open: s.Lifecycle.Open}
	for _, p := range s.Params {
		pd, err := l.translateParamDefinition(ctx, p, "sink", s.Type)
		if err != nil {
			return nil, err
		}
		def.Params[p.Name] = pd
	}
	return def, nil
}

// translateParamDefinition processes a single HCL param block, parsing its
// declared cty type. Params never carry defaults, so there is nothing else
// to evaluate here.
func (l *Loader) translateParamDefinition(ctx context.Context, p *schema.ParamDefinition, ownerKind, ownerName string) (*config.ParamDefinition, error) {
	parsedType, err := typeExprToCtyType(ctx, p.Type)
	if err != nil {
		return nil, fmt.Errorf("in %s %q, param %q: %w", ownerKind, ownerName, p.Name, err)
	}
	return &config.ParamDefinition{
		Name:        p.Name,
		Type:        parsedType,
		Description: p.Description,
	}, nil
}

// evalParams extracts the attributes of a params block and evaluates each to
// a concrete cty value with a nil evaluation context.
func (l *Loader) evalParams(block *schema.ParamsBlock) (map[string]cty.Value, error) {
	if block == nil || block.Body == nil {
		return nil, nil
	}
	attrs, diags := block.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	params := make(map[string]cty.Value, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("param %q is not a static literal: %w", name, diags)
		}
		params[name] = val
	}
	return params, nil
}
