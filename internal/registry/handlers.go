package registry

import (
	"fmt"
	"log/slog"
	"reflect"
)

// RegisteredProcessor holds the compiled Go parts of a processor's lifecycle.
//
// Fn has the shape func(ctx, *Params, inputs []any) (any, error) and serves
// the on_process event. BatchFn has the shape
// func(ctx, *Params, batch [][]any) ([]any, error) and serves the
// on_process_batch event; it must return exactly one output per input row.
// Exactly one of the two is set.
type RegisteredProcessor struct {
	NewParams  func() any
	ParamsType reflect.Type
	Fn         any
	BatchFn    any
}

// Batch reports whether the handler executes whole batches at once.
func (p *RegisteredProcessor) Batch() bool {
	return p.BatchFn != nil
}

// RegisterProcessor registers a Go function for a processor's lifecycle event.
func (r *Registry) RegisterProcessor(name string, handler *RegisteredProcessor) {
	if _, exists := r.ProcessorHandlers[name]; exists {
		panic(fmt.Sprintf("processor handler with name '%s' already registered", name))
	}
	if (handler.Fn == nil) == (handler.BatchFn == nil) {
		panic(fmt.Sprintf("processor handler '%s' must set exactly one of Fn or BatchFn", name))
	}
	slog.Debug("Registering processor handler.", "name", name)
	r.ProcessorHandlers[name] = handler
}

// RegisteredSink holds the Go function for a sink's open lifecycle event.
// OpenFn has the shape func(ctx, *Params) (storage.Backend, error).
type RegisteredSink struct {
	NewParams  func() any
	ParamsType reflect.Type
	OpenFn     any
}

// RegisterSink registers a Go function for a sink's open lifecycle event.
func (r *Registry) RegisterSink(name string, handler *RegisteredSink) {
	if _, exists := r.SinkHandlers[name]; exists {
		panic(fmt.Sprintf("sink handler with name '%s' already registered", name))
	}
	slog.Debug("Registering sink handler.", "name", name)
	r.SinkHandlers[name] = handler
}
