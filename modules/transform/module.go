// Package transform provides simple per-value transformation processors.
package transform

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/featgridgo/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnProcessLowercase is the handler for the 'lowercase' processor.
func OnProcessLowercase(ctx context.Context, inputs []any) (any, error) {
	text, ok := inputs[0].(string)
	if !ok {
		return nil, fmt.Errorf("lowercase expects a string input, got %T", inputs[0])
	}
	return strings.ToLower(text), nil
}

// ScaleParams defines the fixed parameters for the scale processor.
type ScaleParams struct {
	Factor float64 `fg:"factor"`
}

// OnProcessScale is the handler for the 'scale' processor. It multiplies a
// numeric input by the configured factor.
func OnProcessScale(ctx context.Context, params *ScaleParams, inputs []any) (any, error) {
	v, err := ToFloat(inputs[0])
	if err != nil {
		return nil, fmt.Errorf("scale: %w", err)
	}
	return v * params.Factor, nil
}

// ToFloat coerces the numeric types a processor output or JSON dataset can
// carry into a float64.
func ToFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("expected a numeric value, got %T", v)
	}
}

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("OnProcessLowercase", &registry.RegisteredProcessor{
		Fn: OnProcessLowercase,
	})
	r.RegisterProcessor("OnProcessScale", &registry.RegisteredProcessor{
		NewParams:  func() any { return new(ScaleParams) },
		ParamsType: reflect.TypeOf(ScaleParams{}),
		Fn:         OnProcessScale,
	})
}
