package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/featgridgo/internal/config"
	"github.com/vk/featgridgo/internal/ctxlog"
	"github.com/vk/featgridgo/internal/fsutil"
	"github.com/vk/featgridgo/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load finds every .hcl file under the given paths, parses them, and merges
// their contents into a single format-agnostic config model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)

	model := &config.Model{
		Processors: make(map[string]*config.ProcessorDefinition),
		Sinks:      make(map[string]*config.SinkDefinition),
		Pipeline:   &config.Pipeline{},
	}

	parser := hclparse.NewParser()
	for _, path := range paths {
		filePaths, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to walk config path %q: %w", path, err)
		}
		if len(filePaths) == 0 {
			logger.Warn("No .hcl files found in path.", "path", path)
			continue
		}
		logger.Debug("Found HCL files to load.", "path", path, "files", filePaths)

		for _, filePath := range filePaths {
			hclFile, diags := parser.ParseHCLFile(filePath)
			if diags.HasErrors() {
				return nil, nil, fmt.Errorf("failed to parse HCL file %s: %w", filePath, diags)
			}

			var fileConfig schema.FileConfig
			if diags := gohcl.DecodeBody(hclFile.Body, nil, &fileConfig); diags.HasErrors() {
				return nil, nil, fmt.Errorf("failed to decode HCL file %s: %w", filePath, diags)
			}

			if err := l.mergeFile(ctx, model, &fileConfig, filePath); err != nil {
				return nil, nil, err
			}
			logger.Debug("Loaded definitions from HCL file.", "file", filePath)
		}
	}

	logger.Debug("Configuration loaded.",
		"processors", len(model.Processors),
		"sinks", len(model.Sinks),
		"steps", len(model.Pipeline.Steps),
		"features", len(model.Pipeline.Features),
		"outputs", len(model.Pipeline.Outputs),
	)
	return model, NewConverter(), nil
}

// mergeFile translates one parsed file into the model, rejecting duplicate
// manifest definitions across files.
func (l *Loader) mergeFile(ctx context.Context, model *config.Model, fc *schema.FileConfig, filePath string) error {
	for _, p := range fc.Processors {
		if _, exists := model.Processors[p.Type]; exists {
			return fmt.Errorf("duplicate processor manifest %q in %s", p.Type, filePath)
		}
		def, err := l.translateProcessorDefinition(ctx, p)
		if err != nil {
			return fmt.Errorf("in %s: %w", filePath, err)
		}
		model.Processors[p.Type] = def
	}
	for _, s := range fc.Sinks {
		if _, exists := model.Sinks[s.Type]; exists {
			return fmt.Errorf("duplicate sink manifest %q in %s", s.Type, filePath)
		}
		def, err := l.translateSinkDefinition(ctx, s)
		if err != nil {
			return fmt.Errorf("in %s: %w", filePath, err)
		}
		model.Sinks[s.Type] = def
	}
	for _, s := range fc.Steps {
		step, err := l.translateStep(s)
		if err != nil {
			return fmt.Errorf("in %s: %w", filePath, err)
		}
		model.Pipeline.Steps = append(model.Pipeline.Steps, step)
	}
	for _, f := range fc.Features {
		model.Pipeline.Features = append(model.Pipeline.Features, &config.Feature{
			Name:       f.Name,
			Source:     f.Source,
			DropOnSave: f.DropOnSave,
		})
	}
	for _, o := range fc.Outputs {
		out, err := l.translateOutput(o)
		if err != nil {
			return fmt.Errorf("in %s: %w", filePath, err)
		}
		model.Pipeline.Outputs = append(model.Pipeline.Outputs, out)
	}
	return nil
}
