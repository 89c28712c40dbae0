package integration_tests

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/featgridgo/internal/app"
	"github.com/vk/featgridgo/internal/config"
	"github.com/vk/featgridgo/internal/dataset"
	"github.com/vk/featgridgo/internal/session"
	"github.com/vk/featgridgo/internal/testutil"
)

// TestSkipErrors_MissingFieldSkipsSample runs with skip-errors enabled
// against a sample lacking the required input field: the sample's features
// are skipped, everything else is extracted and the output file still lands.
func TestSkipErrors_MissingFieldSkipsSample(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "out.json")
	pipelineHCL := fmt.Sprintf(`
step "word_count" "wc" {
  inputs = ["text"]
  params {
    separator = " "
  }
}

feature "n_words" {
  source = "wc"
}

output "json" "out" {
  params {
    path = %q
  }
}
`, outPath)
	files := map[string]string{
		"modules/textstats/manifest.hcl": testutil.TextstatsManifest,
		"modules/jsonstore/manifest.hcl": testutil.JSONManifest,
		"pipeline/main.hcl":              pipelineHCL,
	}
	loader := dataset.NewSliceLoader(
		dataset.NewMapSample("ok", map[string]any{"text": "a b"}),
		dataset.NewMapSample("hollow", map[string]any{"other": 1}),
	)

	result := testutil.RunExtractionTest(t, files, loader, &app.Config{SkipErrors: true})

	require.NoError(t, result.Err)
	assert.Equal(t, 1, result.Report.Extracted)
	require.Len(t, result.Report.Skipped, 1)
	assert.Equal(t, "n_words", result.Report.Skipped[0].Feature)
	assert.Equal(t, "hollow", result.Report.Skipped[0].SampleID)
	assert.ErrorIs(t, result.Report.Skipped[0].Cause, dataset.ErrFieldNotFound)

	doc := readJSONDoc(t, outPath)
	assert.Contains(t, doc["n_words"], "ok")
	assert.NotContains(t, doc["n_words"], "hollow")
}

// TestStrictMode_MissingFieldAborts is the same pipeline without skip-errors:
// the run fails and no output file is finalized.
func TestStrictMode_MissingFieldAborts(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "out.json")
	pipelineHCL := fmt.Sprintf(`
step "word_count" "wc" {
  inputs = ["text"]
  params {
    separator = " "
  }
}

feature "n_words" {
  source = "wc"
}

output "json" "out" {
  params {
    path = %q
  }
}
`, outPath)
	files := map[string]string{
		"modules/textstats/manifest.hcl": testutil.TextstatsManifest,
		"modules/jsonstore/manifest.hcl": testutil.JSONManifest,
		"pipeline/main.hcl":              pipelineHCL,
	}
	loader := dataset.NewSliceLoader(
		dataset.NewMapSample("hollow", map[string]any{"other": 1}),
	)

	result := testutil.RunExtractionTest(t, files, loader, nil)

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, dataset.ErrFieldNotFound)
	assert.NoFileExists(t, outPath)
}

// TestDuplicateSampleIDs aborts the session before any computation.
func TestDuplicateSampleIDs(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
step "word_count" "wc" {
  inputs = ["text"]
  params {
    separator = " "
  }
}

feature "n_words" {
  source = "wc"
}
`
	files := map[string]string{
		"modules/textstats/manifest.hcl": testutil.TextstatsManifest,
		"pipeline/main.hcl":              pipelineHCL,
	}
	loader := dataset.NewSliceLoader(
		dataset.NewMapSample("twin", map[string]any{"text": "a"}),
		dataset.NewMapSample("twin", map[string]any{"text": "b"}),
	)

	result := testutil.RunExtractionTest(t, files, loader, nil)

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, session.ErrDuplicateSampleID)
}

// TestMissingParam_FailsAtBuild verifies graph construction rejects a step
// omitting a declared parameter before any sample is touched.
func TestMissingParam_FailsAtBuild(t *testing.T) {
	t.Parallel()

	pipelineHCL := `
step "word_count" "wc" {
  inputs = ["text"]
}

feature "n_words" {
  source = "wc"
}
`
	files := map[string]string{
		"modules/textstats/manifest.hcl": testutil.TextstatsManifest,
		"pipeline/main.hcl":              pipelineHCL,
	}
	loader := dataset.NewSliceLoader(
		dataset.NewMapSample("s1", map[string]any{"text": "a"}),
	)

	result := testutil.RunExtractionTest(t, files, loader, nil)

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, config.ErrMissingParam)
}

// TestRegistryMismatch_PanicsAtStartup loads a manifest whose handler is not
// registered: startup must fail loudly, not at extraction time.
func TestRegistryMismatch_PanicsAtStartup(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"modules/ghost/manifest.hcl": `
processor "ghost" {
  arity = 1
  lifecycle {
    on_process = "OnGhost"
  }
}
`,
		"pipeline/main.hcl": ``,
	}
	loader := dataset.NewSliceLoader()

	result := testutil.RunExtractionTest(t, files, loader, nil)

	require.Error(t, result.Err)
	assert.Contains(t, result.Err.Error(), "application startup panicked")
	assert.Contains(t, result.Err.Error(), "handler 'OnGhost' not registered")
}
