package config

import (
	"context"
	"errors"

	"github.com/zclconf/go-cty/cty"
)

// ErrMissingParam is returned (wrapped) by Converter implementations when a
// pipeline omits a parameter that the processor's manifest declares. There
// are no parameter defaults, so this is always a build-time failure.
var ErrMissingParam = errors.New("missing required parameter")

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths (files or directories),
	// translates it into the format-agnostic model, and returns a matching
	// Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter is the interface for a format-specific data binding and type
// conversion implementation. It is the bridge between declared parameter
// values and the Go param structs used by modules.
type Converter interface {
	// DecodeParams populates the target Go struct (a non-nil pointer) from
	// the given parameter values, validated against the manifest's param
	// definitions. A declared parameter absent from params yields an error
	// wrapping ErrMissingParam; a parameter not declared in defs is rejected.
	DecodeParams(
		ctx context.Context,
		target any,
		params map[string]cty.Value,
		defs map[string]*ParamDefinition,
	) error
}
