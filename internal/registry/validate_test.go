package registry

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/featgridgo/internal/config"
)

type wcParams struct {
	Separator string `fg:"separator"`
}

func handlerFn(ctx context.Context, p *wcParams, inputs []any) (any, error) {
	return nil, nil
}

func newValidRegistry() *Registry {
	r := New()
	r.RegisterProcessor("OnWC", &RegisteredProcessor{
		NewParams:  func() any { return new(wcParams) },
		ParamsType: reflect.TypeOf(wcParams{}),
		Fn:         handlerFn,
	})
	r.ProcessorDefs["wc"] = &config.ProcessorDefinition{
		Type:      "wc",
		Arity:     1,
		Lifecycle: &config.Lifecycle{OnProcess: "OnWC"},
		Params: map[string]*config.ParamDefinition{
			"separator": {Name: "separator", Type: cty.String},
		},
	}
	return r
}

func TestValidateRegistry_Valid(t *testing.T) {
	t.Parallel()

	r := newValidRegistry()
	assert.NoError(t, r.ValidateRegistry(context.Background()))
}

func TestValidateRegistry_MissingHandler(t *testing.T) {
	t.Parallel()

	r := newValidRegistry()
	r.ProcessorDefs["ghost"] = &config.ProcessorDefinition{
		Type:      "ghost",
		Arity:     1,
		Lifecycle: &config.Lifecycle{OnProcess: "OnGhost"},
	}

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler 'OnGhost' not registered")
}

func TestValidateRegistry_BatchDisagreement(t *testing.T) {
	t.Parallel()

	// Manifest declares a batch lifecycle, but the Go handler is per-sample.
	r := newValidRegistry()
	r.ProcessorDefs["wc"].Lifecycle = &config.Lifecycle{OnProcessBatch: "OnWC"}

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagree on batch execution")
}

func TestValidateRegistry_ManifestParamWithoutField(t *testing.T) {
	t.Parallel()

	r := newValidRegistry()
	r.ProcessorDefs["wc"].Params["limit"] = &config.ParamDefinition{Name: "limit", Type: cty.Number}

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "manifest declares param 'limit' which is not found in Go struct")
}

func TestValidateRegistry_FieldWithoutManifestParam(t *testing.T) {
	t.Parallel()

	r := newValidRegistry()
	delete(r.ProcessorDefs["wc"].Params, "separator")

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not declared in manifest")
}

func TestValidateRegistry_ParamTypeMismatch(t *testing.T) {
	t.Parallel()

	r := newValidRegistry()
	r.ProcessorDefs["wc"].Params["separator"].Type = cty.Number

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type mismatch")
}

func TestValidateRegistry_SinkMissingHandler(t *testing.T) {
	t.Parallel()

	r := newValidRegistry()
	r.SinkDefs["csv"] = &config.SinkDefinition{
		Type:      "csv",
		Lifecycle: &config.SinkLifecycle{Open: "OpenCSV"},
	}

	err := r.ValidateRegistry(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler 'OpenCSV' not registered")
}

func TestRegisterProcessor_DuplicatePanics(t *testing.T) {
	t.Parallel()

	r := New()
	h := &RegisteredProcessor{Fn: handlerFn}
	r.RegisterProcessor("OnWC", h)
	assert.Panics(t, func() { r.RegisterProcessor("OnWC", h) })
}

func TestRegisterProcessor_RequiresExactlyOneFn(t *testing.T) {
	t.Parallel()

	r := New()
	assert.Panics(t, func() { r.RegisterProcessor("OnNeither", &RegisteredProcessor{}) })
	assert.Panics(t, func() {
		r.RegisterProcessor("OnBoth", &RegisteredProcessor{
			Fn:      handlerFn,
			BatchFn: func(ctx context.Context, b [][]any) ([]any, error) { return nil, nil },
		})
	})
}
