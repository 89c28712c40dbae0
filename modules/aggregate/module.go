// Package aggregate provides batch processors whose output for one sample
// depends on the values of the whole dataset.
package aggregate

import (
	"context"
	"fmt"

	"github.com/vk/featgridgo/internal/registry"
	"github.com/vk/featgridgo/modules/transform"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnProcessBatchMeanShift is the handler for the 'mean_shift' batch
// processor. It subtracts the batch mean from every value, producing exactly
// one output per input row.
func OnProcessBatchMeanShift(ctx context.Context, batch [][]any) ([]any, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	vals := make([]float64, len(batch))
	var sum float64
	for i, row := range batch {
		v, err := transform.ToFloat(row[0])
		if err != nil {
			return nil, fmt.Errorf("mean_shift row %d: %w", i, err)
		}
		vals[i] = v
		sum += v
	}
	mean := sum / float64(len(vals))

	outs := make([]any, len(vals))
	for i, v := range vals {
		outs[i] = v - mean
	}
	return outs, nil
}

// Register registers the handlers with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor("OnProcessBatchMeanShift", &registry.RegisteredProcessor{
		BatchFn: OnProcessBatchMeanShift,
	})
}
