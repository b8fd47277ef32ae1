package dataset

// Error represents a domain error from the I/O abstraction layer.
//
// These are semantic failures (missing file, unsupported datatype,
// invalid node state, etc.) as opposed to plain infrastructure errors.
// Backend implementations wrap their native-library failures in an
// Error with code ErrBackendInternal so callers of Flush can translate
// every failure uniformly.
type Error struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the hierarchy location or parameter name related to the
	// error (if applicable)
	Path string

	// Err is the underlying native-library error, if any
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying native-library error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode represents the category of a dataset error.
type ErrorCode int

const (
	// ErrNoSuchFile indicates the open/read target does not exist in
	// storage (file, path, dataset or attribute)
	ErrNoSuchFile ErrorCode = iota

	// ErrUnsupported indicates the backend cannot represent a requested
	// datatype or feature. This is an explicit refusal, never a silent
	// truncation or no-op.
	ErrUnsupported

	// ErrLogic indicates an operation is invalid given the current node
	// state, e.g. extending an unwritten dataset or deleting under
	// read-only access
	ErrLogic

	// ErrDatatypeMismatch indicates an Attribute was retrieved as an
	// incompatible type
	ErrDatatypeMismatch

	// ErrBackendInternal indicates a native-library call failed; the
	// wrapped Err carries the failing call's context
	ErrBackendInternal

	// ErrInvalidParameter indicates a task parameter required by the
	// operation kind is absent or of the wrong type
	ErrInvalidParameter
)

// CodeOf extracts the ErrorCode from err if it is (or wraps) an *Error.
func CodeOf(err error) (ErrorCode, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return 0, false
}
