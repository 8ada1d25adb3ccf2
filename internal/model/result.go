package model

// Result is the collapsed outcome every subsystem reports at its boundary.
// Fine-grained causes are carried separately in ErrorDetails; callers that
// need to branch do so on this value.
type Result int

const (
	// ResultSuccess indicates the operation completed.
	ResultSuccess Result = iota
	// ResultNotImplemented indicates an optional capability is absent,
	// e.g. a configuration key that was never stored. Callers that know
	// the call is optional must treat this as non-fatal.
	ResultNotImplemented
	// ResultUnderrun indicates a stream read past the write cursor.
	ResultUnderrun
	// ResultOverrun indicates a stream write past capacity.
	ResultOverrun
	// ResultInvalidArgument indicates a caller-supplied argument was rejected.
	ResultInvalidArgument
	// ResultError is the collapsed value for every other failure.
	ResultError
)

// String returns the result name.
func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultNotImplemented:
		return "not implemented"
	case ResultUnderrun:
		return "underrun"
	case ResultOverrun:
		return "overrun"
	case ResultInvalidArgument:
		return "invalid argument"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}
