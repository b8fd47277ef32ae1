package dataset

import "fmt"

// Parameter names shared between task constructors and backend
// handlers. A task's parameter set is exactly the set its operation
// kind requires; backends fail fast with ErrInvalidParameter when a
// required parameter is absent or mistyped.
const (
	ParamName       = "name"
	ParamPath       = "path"
	ParamDtype      = "dtype"
	ParamExtent     = "extent"
	ParamOffset     = "offset"
	ParamData       = "data"
	ParamAttribute  = "attribute"
	ParamPaths      = "paths"
	ParamDatasets   = "datasets"
	ParamAttributes = "attributes"
)

// Params is the named-parameter bag of an IOTask: a mapping from
// parameter name to either an input value (Attribute, string, Extent,
// Offset, Datatype, payload bytes) or an output Slot the backend fills
// in during flush.
type Params map[string]any

// param retrieves and type-checks one entry.
func param[T any](p Params, key string) (T, error) {
	var zero T
	raw, ok := p[key]
	if !ok {
		return zero, &Error{
			Code:    ErrInvalidParameter,
			Message: "missing required task parameter",
			Path:    key,
		}
	}
	v, ok := raw.(T)
	if !ok {
		return zero, &Error{
			Code:    ErrInvalidParameter,
			Message: fmt.Sprintf("task parameter has type %T, expected %T", raw, zero),
			Path:    key,
		}
	}
	return v, nil
}

// Text returns a required string parameter.
func (p Params) Text(key string) (string, error) {
	return param[string](p, key)
}

// Attr returns a required Attribute parameter.
func (p Params) Attr(key string) (Attribute, error) {
	return param[Attribute](p, key)
}

// Extent returns a required Extent parameter.
func (p Params) Extent(key string) (Extent, error) {
	return param[Extent](p, key)
}

// Offset returns a required Offset parameter.
func (p Params) Offset(key string) (Offset, error) {
	return param[Offset](p, key)
}

// Dtype returns a required Datatype parameter.
func (p Params) Dtype(key string) (Datatype, error) {
	return param[Datatype](p, key)
}

// Data returns a required raw payload parameter.
func (p Params) Data(key string) ([]byte, error) {
	return param[[]byte](p, key)
}

// Out returns a required output slot of element type T.
func Out[T any](p Params, key string) (*Slot[T], error) {
	return param[*Slot[T]](p, key)
}

// Slot is a shared mutable output cell. Read and list operations carry
// slots in their parameter bag; the backend stores the result during
// flush and the caller loads it once the task has executed.
//
// Slots are not synchronized: the queue is drained by the single thread
// that calls Flush, and the caller must not load before the flush
// completes.
type Slot[T any] struct {
	value  T
	filled bool
}

// NewSlot creates an empty output cell.
func NewSlot[T any]() *Slot[T] {
	return &Slot[T]{}
}

// Store fills the cell. Called by backend handlers.
func (s *Slot[T]) Store(v T) {
	s.value = v
	s.filled = true
}

// Load returns the stored value and whether the backend filled the
// cell.
func (s *Slot[T]) Load() (T, bool) {
	return s.value, s.filled
}
