package hcl

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/featgridgo/internal/config"
	"github.com/vk/featgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Converter is the HCL-specific implementation of the config.Converter
// interface. It binds evaluated cty parameter values to Go param structs.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// DecodeParams populates the target Go struct from the given parameter
// values using reflection. Every parameter declared in defs is required;
// parameters not declared in defs are rejected.
func (c *Converter) DecodeParams(
	ctx context.Context,
	target any,
	params map[string]cty.Value,
	defs map[string]*config.ParamDefinition,
) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Starting param decoding.")

	for name := range params {
		if _, declared := defs[name]; !declared {
			return fmt.Errorf("unknown parameter %q", name)
		}
	}

	structVal := reflect.ValueOf(target)
	if structVal.Kind() != reflect.Ptr || structVal.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer")
	}
	structVal = structVal.Elem()
	structType := structVal.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldVal := structVal.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		lookupName := field.Name
		if tag := field.Tag.Get("fg"); tag != "" {
			lookupName = strings.Split(tag, ",")[0]
		}

		if _, declared := defs[lookupName]; !declared {
			continue
		}

		val, provided := params[lookupName]
		if !provided {
			return fmt.Errorf("parameter %q: %w", lookupName, config.ErrMissingParam)
		}

		if err := c.decode(ctx, val, fieldVal.Addr().Interface()); err != nil {
			return fmt.Errorf("failed to decode parameter %q: %w", lookupName, err)
		}
	}
	logger.Debug("Finished param decoding successfully.")
	return nil
}

// decode handles the conversion and decoding of a cty.Value into a Go pointer.
func (c *Converter) decode(ctx context.Context, val cty.Value, goVal any) error {
	logger := ctxlog.FromContext(ctx)
	valPtr := reflect.ValueOf(goVal)
	if valPtr.Kind() != reflect.Ptr {
		return fmt.Errorf("target for decoding must be a pointer, got %T", goVal)
	}

	impliedType, err := gocty.ImpliedType(valPtr.Elem().Interface())
	if err != nil {
		logger.Debug("Could not imply cty.Type from Go type, attempting direct decoding.", "go_type", valPtr.Elem().Type().String(), "error", err)
		return gocty.FromCtyValue(val, goVal)
	}

	convertedVal, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}

	return gocty.FromCtyValue(convertedVal, goVal)
}
