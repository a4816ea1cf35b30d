package pickeval

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrConfiguration indicates an invalid sample period or tolerance.
	// It invalidates every downstream result, so a run aborts on it.
	ErrConfiguration = errors.New("pickeval: invalid configuration")

	// ErrMalformedFile indicates a file's labels or picks do not have the
	// expected shape. The file is skipped and the run continues.
	ErrMalformedFile = errors.New("pickeval: malformed file")

	// ErrDuplicateFile indicates a file id was submitted to an Aggregator twice.
	ErrDuplicateFile = errors.New("pickeval: duplicate file")

	// ErrFinalized indicates an Aggregator received a result after Finalize.
	ErrFinalized = errors.New("pickeval: aggregator finalized")
)
