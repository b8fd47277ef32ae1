package dataset

import "fmt"

// Attribute is a type-erased, copyable value holding exactly one member
// of the closed datatype set. It is the unit of metadata exchanged with
// storage backends.
//
// Value Semantics:
// An Attribute is immutable once constructed. Slice-backed values are
// copied on construction and on retrieval, so neither the caller nor the
// backend can mutate a held value through aliasing. An Attribute owns no
// external resource; it is destroyed with its owner (a task parameter or
// a node's metadata map).
//
// The zero Attribute has datatype Undefined. Undefined marks an unset
// attribute and must never be written to storage; backends refuse it
// with ErrLogic.
type Attribute struct {
	dtype Datatype
	value any
}

// New constructs an Attribute from a concrete typed value.
//
// The type switch is exhaustive over the closed datatype set; any other
// Go type is rejected with ErrUnsupported rather than stored as opaque
// dynamic data.
//
// float64 maps to Float64. Extended-precision values must be tagged
// explicitly via NewFloatExt / NewVecFloatExt.
func New(v any) (Attribute, error) {
	switch t := v.(type) {
	case byte:
		return Attribute{Char, t}, nil
	case bool:
		return Attribute{Bool, t}, nil
	case string:
		return Attribute{String, t}, nil
	case int16:
		return Attribute{Int16, t}, nil
	case int32:
		return Attribute{Int32, t}, nil
	case int64:
		return Attribute{Int64, t}, nil
	case uint16:
		return Attribute{Uint16, t}, nil
	case uint32:
		return Attribute{Uint32, t}, nil
	case uint64:
		return Attribute{Uint64, t}, nil
	case float32:
		return Attribute{Float32, t}, nil
	case float64:
		return Attribute{Float64, t}, nil
	case [7]float64:
		return Attribute{ArrFloat64x7, t}, nil
	case []byte:
		return Attribute{VecChar, cloneSlice(t)}, nil
	case []bool:
		return Attribute{VecBool, cloneSlice(t)}, nil
	case []string:
		return Attribute{VecString, cloneSlice(t)}, nil
	case []int16:
		return Attribute{VecInt16, cloneSlice(t)}, nil
	case []int32:
		return Attribute{VecInt32, cloneSlice(t)}, nil
	case []int64:
		return Attribute{VecInt64, cloneSlice(t)}, nil
	case []uint16:
		return Attribute{VecUint16, cloneSlice(t)}, nil
	case []uint32:
		return Attribute{VecUint32, cloneSlice(t)}, nil
	case []uint64:
		return Attribute{VecUint64, cloneSlice(t)}, nil
	case []float32:
		return Attribute{VecFloat32, cloneSlice(t)}, nil
	case []float64:
		return Attribute{VecFloat64, cloneSlice(t)}, nil
	default:
		return Attribute{}, &Error{
			Code:    ErrUnsupported,
			Message: fmt.Sprintf("type %T is not in the attribute datatype set", v),
		}
	}
}

// MustNew is New for values statically known to be in the datatype set.
// It panics on unsupported types and is intended for literals in tests
// and the domain model.
func MustNew(v any) Attribute {
	a, err := New(v)
	if err != nil {
		panic(err)
	}
	return a
}

// NewFloatExt constructs an extended-precision attribute. The value is
// held as a float64 in memory; the distinct tag lets backends widen it
// at rest.
func NewFloatExt(v float64) Attribute {
	return Attribute{FloatExt, v}
}

// NewVecFloatExt constructs a sequence of extended-precision values.
func NewVecFloatExt(vs []float64) Attribute {
	return Attribute{VecFloatExt, cloneSlice(vs)}
}

func cloneSlice[T any](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

// Dtype returns the datatype tag.
func (a Attribute) Dtype() Datatype {
	return a.dtype
}

// Defined reports whether the attribute holds a value.
func (a Attribute) Defined() bool {
	return a.dtype != Undefined
}

// Value returns the held value as its dynamic Go type. Slice-backed
// values are returned as copies to preserve immutability. Callers that
// need a checked retrieval should use Get instead.
func (a Attribute) Value() any {
	switch t := a.value.(type) {
	case []byte:
		return cloneSlice(t)
	case []bool:
		return cloneSlice(t)
	case []string:
		return cloneSlice(t)
	case []int16:
		return cloneSlice(t)
	case []int32:
		return cloneSlice(t)
	case []int64:
		return cloneSlice(t)
	case []uint16:
		return cloneSlice(t)
	case []uint32:
		return cloneSlice(t)
	case []uint64:
		return cloneSlice(t)
	case []float32:
		return cloneSlice(t)
	case []float64:
		return cloneSlice(t)
	default:
		return a.value
	}
}

// Get returns the held value as T, failing with ErrDatatypeMismatch if
// T does not correspond to the stored tag. Bits are never reinterpreted:
// requesting float64 from a FloatExt attribute fails even though the
// in-memory representation matches, because the declared datatypes
// differ.
func Get[T any](a Attribute) (T, error) {
	var zero T
	want, err := New(any(zero))
	if err != nil || want.dtype != a.dtype {
		return zero, &Error{
			Code:    ErrDatatypeMismatch,
			Message: fmt.Sprintf("attribute holds %s, requested %T", a.dtype, zero),
		}
	}
	v, ok := a.Value().(T)
	if !ok {
		return zero, &Error{
			Code:    ErrDatatypeMismatch,
			Message: fmt.Sprintf("attribute holds %s, requested %T", a.dtype, zero),
		}
	}
	return v, nil
}

// Equal reports value equality: both datatype tags and held values must
// match.
func (a Attribute) Equal(b Attribute) bool {
	if a.dtype != b.dtype {
		return false
	}
	switch t := a.value.(type) {
	case []byte:
		return slicesEqual(t, b.value.([]byte))
	case []bool:
		return slicesEqual(t, b.value.([]bool))
	case []string:
		return slicesEqual(t, b.value.([]string))
	case []int16:
		return slicesEqual(t, b.value.([]int16))
	case []int32:
		return slicesEqual(t, b.value.([]int32))
	case []int64:
		return slicesEqual(t, b.value.([]int64))
	case []uint16:
		return slicesEqual(t, b.value.([]uint16))
	case []uint32:
		return slicesEqual(t, b.value.([]uint32))
	case []uint64:
		return slicesEqual(t, b.value.([]uint64))
	case []float32:
		return slicesEqual(t, b.value.([]float32))
	case []float64:
		return slicesEqual(t, b.value.([]float64))
	default:
		return a.value == b.value
	}
}

func slicesEqual[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// String renders the attribute for logs and CLI output.
func (a Attribute) String() string {
	if !a.Defined() {
		return "<undefined>"
	}
	return fmt.Sprintf("%v (%s)", a.value, a.dtype)
}
