package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/featgridgo/internal/ctxlog"
	"github.com/vk/featgridgo/internal/dag"
	"github.com/vk/featgridgo/internal/dataset"
	"github.com/vk/featgridgo/internal/scheduler"
	"github.com/vk/featgridgo/internal/session"
)

// Run executes one extraction over the dataset named in the configuration.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.DatasetPath == "" {
		return errors.New("no dataset provided")
	}
	loader, err := dataset.LoadJSONFile(a.cfg.DatasetPath)
	if err != nil {
		return err
	}
	_, err = a.RunDataset(ctx, loader)
	return err
}

// RunDataset executes one extraction session over the given dataset and
// returns its report. It is the programmatic entrypoint tests and embedders
// use to supply in-memory datasets.
func (a *App) RunDataset(ctx context.Context, loader dataset.Loader) (*session.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.cfg.HealthcheckPort > 0 {
		a.startHealthcheckServer(a.cfg.HealthcheckPort)
	}

	a.logger.Debug("Building extraction graph from config model...")
	graph, err := dag.Build(ctx, a.model, a.registry, a.converter)
	if err != nil {
		return nil, fmt.Errorf("failed to build extraction graph: %w", err)
	}
	a.logger.Debug("Extraction graph built.", "node_count", len(graph.Nodes))

	order := scheduler.OrderSampleWise
	if a.cfg.Order != "" {
		if order, err = scheduler.ParseOrder(a.cfg.Order); err != nil {
			return nil, err
		}
	}

	sinks, err := session.OpenOutputs(ctx, a.model, a.registry, a.converter)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage backends: %w", err)
	}

	sess := session.New(session.Options{
		Graph:      graph,
		Registry:   a.registry,
		Dataset:    loader,
		Sinks:      sinks,
		Order:      order,
		Requested:  a.cfg.Features,
		SkipErrors: a.cfg.SkipErrors,
		Progress:   a.progress,
	})
	report, err := sess.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	for _, skip := range report.Skipped {
		a.logger.Warn("Feature skipped.",
			"feature", skip.Feature, "sample", skip.SampleID, "cause", skip.Cause)
	}
	a.logger.Debug("App.Run method finished.")
	return report, nil
}
