package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/featgridgo/internal/config"
	"github.com/vk/featgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ValidateRegistry performs a strict parity check between manifests and Go
// code. It checks both the presence of params and the compatibility of their
// types, for processors and sinks alike.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string

	for procType, def := range r.ProcessorDefs {
		if def.Lifecycle == nil {
			errs = append(errs, fmt.Sprintf("processor '%s': manifest has no lifecycle block", procType))
			continue
		}
		handlerName := def.Lifecycle.OnProcess
		batch := false
		if handlerName == "" {
			handlerName = def.Lifecycle.OnProcessBatch
			batch = true
		}
		handler, ok := r.ProcessorHandlers[handlerName]
		if !ok {
			errs = append(errs, fmt.Sprintf("processor '%s': handler '%s' not registered", procType, handlerName))
			continue
		}
		if batch != handler.Batch() {
			errs = append(errs, fmt.Sprintf("processor '%s': manifest lifecycle and Go handler disagree on batch execution", procType))
		}
		errs = append(errs, checkParamParity(ctx, "processor", procType, def.Params, handler.ParamsType)...)
	}

	for sinkType, def := range r.SinkDefs {
		if def.Lifecycle == nil || def.Lifecycle.Open == "" {
			errs = append(errs, fmt.Sprintf("sink '%s': manifest has no open handler", sinkType))
			continue
		}
		handler, ok := r.SinkHandlers[def.Lifecycle.Open]
		if !ok {
			errs = append(errs, fmt.Sprintf("sink '%s': handler '%s' not registered", sinkType, def.Lifecycle.Open))
			continue
		}
		errs = append(errs, checkParamParity(ctx, "sink", sinkType, def.Params, handler.ParamsType)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// checkParamParity compares a manifest's param declarations against the
// fg-tagged fields of the handler's Go params struct.
func checkParamParity(ctx context.Context, kind, name string, defs map[string]*config.ParamDefinition, paramsType reflect.Type) []string {
	logger := ctxlog.FromContext(ctx)
	var errs []string

	if paramsType == nil {
		if len(defs) > 0 {
			errs = append(errs, fmt.Sprintf("%s '%s': manifest declares params, but Go handler has no params struct", kind, name))
		}
		return errs
	}

	goParams := make(map[string]reflect.StructField)
	for i := 0; i < paramsType.NumField(); i++ {
		field := paramsType.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("fg")
		tagName := strings.Split(tag, ",")[0]
		if tagName != "" && tagName != "-" {
			goParams[tagName] = field
		}
	}

	// Presence mismatches, both directions.
	for pname := range goParams {
		if _, ok := defs[pname]; !ok {
			errs = append(errs, fmt.Sprintf("%s '%s': Go struct has field for param '%s' which is not declared in manifest", kind, name, pname))
		}
	}
	for pname := range defs {
		if _, ok := goParams[pname]; !ok {
			errs = append(errs, fmt.Sprintf("%s '%s': manifest declares param '%s' which is not found in Go struct", kind, name, pname))
		}
	}

	// Type mismatches.
	for pname, pdef := range defs {
		goField, ok := goParams[pname]
		if !ok {
			continue // Already handled by presence check.
		}
		if pdef.Type.Equals(cty.DynamicPseudoType) {
			logger.Warn("Manifest declares param with 'type = any', which disables static type checking.", kind, name, "param", pname)
			continue
		}
		goFieldType, err := gocty.ImpliedType(reflect.Zero(goField.Type).Interface())
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s '%s', param '%s': could not imply cty type from Go field type %s: %v", kind, name, pname, goField.Type, err))
			continue
		}
		if !pdef.Type.Equals(goFieldType) {
			errs = append(errs, fmt.Sprintf("%s '%s', param '%s': type mismatch, manifest requires '%s' but Go struct field '%s' provides '%s'",
				kind, name, pname, pdef.Type.FriendlyName(), goField.Name, goFieldType.FriendlyName()))
		}
	}

	return errs
}
