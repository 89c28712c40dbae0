// Package registry holds the explicit mapping between declared processor and
// sink types (from HCL manifests) and the Go handler functions that
// implement them. There is no ambient global registration: each application
// instance builds its own registry from the modules it is given.
package registry

import (
	"github.com/vk/featgridgo/internal/config"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered handlers and manifest definitions for a
// single application instance.
type Registry struct {
	ProcessorHandlers map[string]*RegisteredProcessor
	SinkHandlers      map[string]*RegisteredSink
	ProcessorDefs     map[string]*config.ProcessorDefinition
	SinkDefs          map[string]*config.SinkDefinition
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		ProcessorHandlers: make(map[string]*RegisteredProcessor),
		SinkHandlers:      make(map[string]*RegisteredSink),
		ProcessorDefs:     make(map[string]*config.ProcessorDefinition),
		SinkDefs:          make(map[string]*config.SinkDefinition),
	}
}

// PopulateDefinitionsFromModel copies the loaded manifest definitions from
// the config model into the registry for easy access during graph building.
func (r *Registry) PopulateDefinitionsFromModel(model *config.Model) {
	for key, val := range model.Processors {
		r.ProcessorDefs[key] = val
	}
	for key, val := range model.Sinks {
		r.SinkDefs[key] = val
	}
}

// ProcessorHandler resolves the registered handler for a processor type via
// its manifest lifecycle. The second return value is false when either the
// definition or the handler is missing.
func (r *Registry) ProcessorHandler(processorType string) (*RegisteredProcessor, bool) {
	def, ok := r.ProcessorDefs[processorType]
	if !ok || def.Lifecycle == nil {
		return nil, false
	}
	name := def.Lifecycle.OnProcess
	if name == "" {
		name = def.Lifecycle.OnProcessBatch
	}
	handler, ok := r.ProcessorHandlers[name]
	return handler, ok
}

// SinkHandler resolves the registered handler for a sink type via its
// manifest lifecycle.
func (r *Registry) SinkHandler(sinkType string) (*RegisteredSink, bool) {
	def, ok := r.SinkDefs[sinkType]
	if !ok || def.Lifecycle == nil {
		return nil, false
	}
	handler, ok := r.SinkHandlers[def.Lifecycle.Open]
	return handler, ok
}
