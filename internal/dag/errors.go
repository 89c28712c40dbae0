package dag

import "errors"

// Graph construction errors. All of them are fatal at build time: no partial
// graph is ever returned.
var (
	// ErrCycle indicates the merged pipelines contain a dependency cycle.
	ErrCycle = errors.New("cyclic dependency")

	// ErrDuplicateFeature indicates two declared features share a name.
	ErrDuplicateFeature = errors.New("duplicate feature name")

	// ErrDuplicateStep indicates two steps share an instance name.
	ErrDuplicateStep = errors.New("duplicate step instance name")

	// ErrUnresolvedInput indicates a reference to a step or feature that is
	// never defined.
	ErrUnresolvedInput = errors.New("unresolved input reference")

	// ErrUnknownProcessor indicates a step names a processor type with no
	// loaded manifest or registered handler.
	ErrUnknownProcessor = errors.New("unknown processor type")

	// ErrArityMismatch indicates a step's input count disagrees with the
	// processor manifest's declared arity.
	ErrArityMismatch = errors.New("wrong number of inputs")
)
