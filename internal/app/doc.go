// Package app wires the engine together: it owns startup (logger,
// configuration loading, module registration, registry validation) and the
// run lifecycle (graph build, dataset load, storage open, session execution).
package app
