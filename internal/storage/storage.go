// Package storage defines the contract between the extraction engine and
// pluggable storage sinks. The engine only ever streams finished feature
// values into a Backend; format-specific behavior (CSV layout, JSON
// structure, ...) is entirely the sink's responsibility.
package storage

// Backend is a destination for extracted feature values. StoreFeat is called
// once per (feature, sample) pair as values are computed; Write flushes the
// sink at session end. The engine never retries writes: retry policy, if
// any, belongs to the backend.
type Backend interface {
	StoreFeat(featureName, sampleID string, value any) error
	Write() error
}

// Checker is an optional upgrade interface for backends that can pre-validate
// a value's representability before committing to it. The session consults it
// before StoreFeat, so unsupported values fail with the feature and sample
// that produced them.
type Checker interface {
	Check(value any) bool
}
