package session

import (
	"context"
	"fmt"
	"reflect"

	"github.com/vk/featgridgo/internal/config"
	"github.com/vk/featgridgo/internal/ctxlog"
	"github.com/vk/featgridgo/internal/registry"
	"github.com/vk/featgridgo/internal/storage"
)

// OpenOutputs opens one storage backend per declared output block, decoding
// each block's params against its sink manifest and invoking the sink's open
// handler. All backends are opened before the session starts so parameter
// errors surface before any computation.
func OpenOutputs(ctx context.Context, model *config.Model, reg *registry.Registry, conv config.Converter) ([]storage.Backend, error) {
	logger := ctxlog.FromContext(ctx)
	sinks := make([]storage.Backend, 0, len(model.Pipeline.Outputs))
	for _, out := range model.Pipeline.Outputs {
		def, ok := reg.SinkDefs[out.SinkType]
		if !ok {
			return nil, fmt.Errorf("output %q: unknown sink type %q", out.Name, out.SinkType)
		}
		handler, ok := reg.SinkHandler(out.SinkType)
		if !ok {
			return nil, fmt.Errorf("output %q: no handler for sink type %q", out.Name, out.SinkType)
		}

		var params any
		if handler.NewParams != nil {
			params = handler.NewParams()
			if err := conv.DecodeParams(ctx, params, out.Params, def.Params); err != nil {
				return nil, fmt.Errorf("output %q: %w", out.Name, err)
			}
		} else if len(out.Params) > 0 {
			return nil, fmt.Errorf("output %q: sink %q takes no params", out.Name, out.SinkType)
		}

		backend, err := openSink(ctx, handler.OpenFn, params)
		if err != nil {
			return nil, fmt.Errorf("output %q: opening sink %q: %w", out.Name, out.SinkType, err)
		}
		logger.Debug("Opened storage backend.", "output", out.Name, "sink", out.SinkType)
		sinks = append(sinks, backend)
	}
	return sinks, nil
}

// openSink invokes an open handler of shape func(ctx, *Params)
// (storage.Backend, error); handlers without a params struct omit the second
// argument.
func openSink(ctx context.Context, fn any, params any) (storage.Backend, error) {
	args := []reflect.Value{reflect.ValueOf(ctx)}
	if params != nil {
		args = append(args, reflect.ValueOf(params))
	}
	results := reflect.ValueOf(fn).Call(args)
	if errv := results[1]; !errv.IsNil() {
		return nil, errv.Interface().(error)
	}
	return results[0].Interface().(storage.Backend), nil
}
