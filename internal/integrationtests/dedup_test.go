package integration_tests

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/featgridgo/internal/dataset"
	"github.com/vk/featgridgo/internal/registry"
	"github.com/vk/featgridgo/internal/testutil"
)

// countingModule registers a 'tick' processor that counts its invocations.
type countingModule struct {
	calls atomic.Int64
}

func (m *countingModule) Register(r *registry.Registry) {
	r.RegisterProcessor("OnTick", &registry.RegisteredProcessor{
		Fn: func(ctx context.Context, inputs []any) (any, error) {
			m.calls.Add(1)
			return inputs[0], nil
		},
	})
}

const tickManifest = `
processor "tick" {
  arity = 1
  lifecycle {
    on_process = "OnTick"
  }
}
`

// TestDedup_IdenticalStepsComputeOnce declares the same step twice under
// different names and requests a feature over each: the shared handler must
// run once per sample, not once per declaration.
func TestDedup_IdenticalStepsComputeOnce(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
step "tick" "a" {
  inputs = ["text"]
}

step "tick" "b" {
  inputs = ["text"]
}

feature "fa" {
  source = "a"
}

feature "fb" {
  source = "b"
}
`
	files := map[string]string{
		"modules/tick/manifest.hcl": tickManifest,
		"pipeline/main.hcl":         pipelineHCL,
	}
	loader := dataset.NewSliceLoader(
		dataset.NewMapSample("s1", map[string]any{"text": "x"}),
		dataset.NewMapSample("s2", map[string]any{"text": "y"}),
		dataset.NewMapSample("s3", map[string]any{"text": "z"}),
	)

	mod := &countingModule{}
	result := testutil.RunExtractionTest(t, files, loader, nil, mod)

	require.NoError(t, result.Err)
	assert.Equal(t, 6, result.Report.Extracted, "both features extracted for every sample")
	assert.Equal(t, int64(3), mod.calls.Load(), "merged step should run once per sample")
}

// TestDedup_FeatureReferenceSharesComputation consumes a feature from another
// step: the upstream handler still runs once per sample.
func TestDedup_FeatureReferenceSharesComputation(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
step "tick" "up" {
  inputs = ["text"]
}

step "tick" "down" {
  inputs = ["feature.fa"]
}

feature "fa" {
  source = "up"
}

feature "fb" {
  source = "down"
}
`
	files := map[string]string{
		"modules/tick/manifest.hcl": tickManifest,
		"pipeline/main.hcl":         pipelineHCL,
	}
	loader := dataset.NewSliceLoader(
		dataset.NewMapSample("s1", map[string]any{"text": "x"}),
	)

	mod := &countingModule{}
	result := testutil.RunExtractionTest(t, files, loader, nil, mod)

	require.NoError(t, result.Err)
	assert.Equal(t, 2, result.Report.Extracted)
	assert.Equal(t, int64(2), mod.calls.Load(), "up and down each run once for the sample")
}
