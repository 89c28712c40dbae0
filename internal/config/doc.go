// Package config defines the format-agnostic configuration model for the
// engine, along with the core interfaces (Loader, Converter) for loading
// pipeline declarations and binding parameter values to Go structs.
//
// The config.Model is the single source of truth for the dag and session
// packages. Concrete implementations of the interfaces, such as for HCL,
// are provided in separate packages.
package config
