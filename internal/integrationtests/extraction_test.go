package integration_tests

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/featgridgo/internal/app"
	"github.com/vk/featgridgo/internal/dataset"
	"github.com/vk/featgridgo/internal/testutil"
)

// textLoader returns the canonical three-sample text dataset.
func textLoader() *dataset.SliceLoader {
	return dataset.NewSliceLoader(
		dataset.NewMapSample("s1", map[string]any{"text": "a b"}),
		dataset.NewMapSample("s2", map[string]any{"text": "a b c"}),
		dataset.NewMapSample("s3", map[string]any{"text": ""}),
	)
}

// readJSONDoc unmarshals a jsonstore output file.
func readJSONDoc(t *testing.T, path string) map[string]map[string]any {
	t.Helper()
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf, &doc))
	return doc
}

// TestExtraction_WordCount runs the full stack: HCL manifests and pipeline,
// graph build, extraction, and a json storage backend.
func TestExtraction_WordCount(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
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

	// --- Act ---
	result := testutil.RunExtractionTest(t, files, textLoader(), nil)

	// --- Assert ---
	require.NoError(t, result.Err)
	require.NotNil(t, result.Report)
	assert.Equal(t, 3, result.Report.Extracted)
	assert.Empty(t, result.Report.Skipped)

	doc := readJSONDoc(t, outPath)
	assert.Equal(t, float64(2), doc["n_words"]["s1"])
	assert.Equal(t, float64(3), doc["n_words"]["s2"])
	assert.Equal(t, float64(0), doc["n_words"]["s3"])
}

// TestExtraction_ChainedAndPassthroughFeatures exercises step-over-step
// chaining, raw input passthrough and a drop-on-save feature.
func TestExtraction_ChainedAndPassthroughFeatures(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "out.json")
	pipelineHCL := fmt.Sprintf(`
step "lowercase" "lower" {
  inputs = ["text"]
}

step "char_count" "chars" {
  inputs = ["step.lower"]
}

feature "lowered" {
  source = "lower"
}

feature "n_chars" {
  source = "chars"
}

feature "raw" {
  source       = "input.text"
  drop_on_save = true
}

output "json" "out" {
  params {
    path = %q
  }
}
`, outPath)

	files := map[string]string{
		"modules/textstats/manifest.hcl": testutil.TextstatsManifest,
		"modules/transform/manifest.hcl": testutil.TransformManifest,
		"modules/jsonstore/manifest.hcl": testutil.JSONManifest,
		"pipeline/main.hcl":              pipelineHCL,
	}

	loader := dataset.NewSliceLoader(
		dataset.NewMapSample("s1", map[string]any{"text": "Hey You"}),
	)
	result := testutil.RunExtractionTest(t, files, loader, nil)

	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.Report.Extracted)

	doc := readJSONDoc(t, outPath)
	assert.Equal(t, "hey you", doc["lowered"]["s1"])
	assert.Equal(t, float64(7), doc["n_chars"]["s1"])
	assert.Equal(t, "Hey You", doc["raw"]["s1"])
}

// TestExtraction_FeatureWiseBatch runs a dataset-wide batch processor under
// the feature-wise order, where it sees every sample in a single invocation.
func TestExtraction_FeatureWiseBatch(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "out.json")
	pipelineHCL := fmt.Sprintf(`
step "mean_shift" "shift" {
  inputs = ["n"]
}

feature "shifted" {
  source = "shift"
}

output "json" "out" {
  params {
    path = %q
  }
}
`, outPath)
	files := map[string]string{
		"modules/aggregate/manifest.hcl": testutil.AggregateManifest,
		"modules/jsonstore/manifest.hcl": testutil.JSONManifest,
		"pipeline/main.hcl":              pipelineHCL,
	}
	loader := dataset.NewSliceLoader(
		dataset.NewMapSample("s1", map[string]any{"n": 1.0}),
		dataset.NewMapSample("s2", map[string]any{"n": 2.0}),
		dataset.NewMapSample("s3", map[string]any{"n": 3.0}),
	)

	result := testutil.RunExtractionTest(t, files, loader, &app.Config{Order: "feature"})

	require.NoError(t, result.Err)
	doc := readJSONDoc(t, outPath)
	assert.Equal(t, float64(-1), doc["shifted"]["s1"])
	assert.Equal(t, float64(0), doc["shifted"]["s2"])
	assert.Equal(t, float64(1), doc["shifted"]["s3"])
}
