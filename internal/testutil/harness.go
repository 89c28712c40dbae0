// Package testutil provides the shared harness for integration tests: it
// materializes HCL fixtures into a temp directory, boots a full app instance
// and runs an extraction over an in-memory dataset.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/featgridgo/internal/app"
	"github.com/vk/featgridgo/internal/dataset"
	"github.com/vk/featgridgo/internal/hcl"
	"github.com/vk/featgridgo/internal/registry"
	"github.com/vk/featgridgo/internal/session"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	Report    *session.Report
	App       *app.App
}

// RunExtractionTest provides a standardized harness for running integration
// tests using a default background context.
func RunExtractionTest(t *testing.T, files map[string]string, ds dataset.Loader, cfg *app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunExtractionTestWithContext(context.Background(), t, files, ds, cfg, modules...)
}

// RunExtractionTestWithContext runs a full extraction against HCL fixtures
// written to a temporary directory. files maps relative paths (e.g.
// "pipeline/main.hcl", "modules/x/manifest.hcl") to HCL content. Startup
// panics are recovered and reported through HarnessResult.Err.
func RunExtractionTestWithContext(ctx context.Context, t *testing.T, files map[string]string, ds dataset.Loader, cfg *app.Config, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	pipelineDir := filepath.Join(tmpDir, "pipeline")
	modulesDir := filepath.Join(tmpDir, "modules")
	require.NoError(t, os.Mkdir(pipelineDir, 0755))
	require.NoError(t, os.Mkdir(modulesDir, 0755))

	// Relative fixture paths create the subdirectory structure within tmpDir.
	for name, content := range files {
		filePath := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	if cfg == nil {
		cfg = &app.Config{}
	}
	cfg.PipelinePath = pipelineDir
	cfg.ModulesPath = modulesDir
	cfg.LogLevel = "debug"
	cfg.LogFormat = "text"

	logBuffer := &app.SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(logBuffer, cfg, hcl.NewLoader(), modules...)
	}()

	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
		}
	}

	report, runErr := testApp.RunDataset(ctx, ds)

	if os.Getenv("FGGO_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		Report:    report,
		App:       testApp,
	}
}
