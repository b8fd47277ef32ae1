package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Dataset payloads cross the task queue as raw bytes in little-endian,
// row-major element order. Element-exact fixed-width packing is what
// makes byte-offset chunk addressing (ChunkRange) possible; a
// self-describing codec would break offset arithmetic.

// PackValues converts a typed slice into its raw payload form, returning
// the scalar datatype of the elements. Only fixed-width scalars can form
// dataset payloads; strings and types outside the set are rejected with
// ErrUnsupported.
func PackValues(v any) ([]byte, Datatype, error) {
	switch t := v.(type) {
	case []byte:
		out := make([]byte, len(t))
		copy(out, t)
		return out, Char, nil
	case []bool:
		out := make([]byte, len(t))
		for i, b := range t {
			if b {
				out[i] = 1
			}
		}
		return out, Bool, nil
	case []int16:
		out := make([]byte, 2*len(t))
		for i, x := range t {
			binary.LittleEndian.PutUint16(out[2*i:], uint16(x))
		}
		return out, Int16, nil
	case []int32:
		out := make([]byte, 4*len(t))
		for i, x := range t {
			binary.LittleEndian.PutUint32(out[4*i:], uint32(x))
		}
		return out, Int32, nil
	case []int64:
		out := make([]byte, 8*len(t))
		for i, x := range t {
			binary.LittleEndian.PutUint64(out[8*i:], uint64(x))
		}
		return out, Int64, nil
	case []uint16:
		out := make([]byte, 2*len(t))
		for i, x := range t {
			binary.LittleEndian.PutUint16(out[2*i:], x)
		}
		return out, Uint16, nil
	case []uint32:
		out := make([]byte, 4*len(t))
		for i, x := range t {
			binary.LittleEndian.PutUint32(out[4*i:], x)
		}
		return out, Uint32, nil
	case []uint64:
		out := make([]byte, 8*len(t))
		for i, x := range t {
			binary.LittleEndian.PutUint64(out[8*i:], x)
		}
		return out, Uint64, nil
	case []float32:
		out := make([]byte, 4*len(t))
		for i, x := range t {
			binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(x))
		}
		return out, Float32, nil
	case []float64:
		out := make([]byte, 8*len(t))
		for i, x := range t {
			binary.LittleEndian.PutUint64(out[8*i:], math.Float64bits(x))
		}
		return out, Float64, nil
	default:
		return nil, Undefined, &Error{
			Code:    ErrUnsupported,
			Message: fmt.Sprintf("type %T cannot form a dataset payload", v),
		}
	}
}

// UnpackValues converts a raw payload back into a typed slice of the
// given scalar datatype. The payload length must be a whole number of
// elements. FloatExt payloads decode as []float64.
func UnpackValues(d Datatype, b []byte) (any, error) {
	size := d.Scalar().Size()
	if size == 0 {
		return nil, &Error{
			Code:    ErrUnsupported,
			Message: "datatype has no fixed element size",
			Path:    d.String(),
		}
	}
	if len(b)%size != 0 {
		return nil, &Error{
			Code:    ErrInvalidParameter,
			Message: fmt.Sprintf("payload length %d is not a multiple of element size %d", len(b), size),
			Path:    d.String(),
		}
	}
	n := len(b) / size
	switch d.Scalar() {
	case Char:
		out := make([]byte, n)
		copy(out, b)
		return out, nil
	case Bool:
		out := make([]bool, n)
		for i := range out {
			out[i] = b[i] != 0
		}
		return out, nil
	case Int16:
		out := make([]int16, n)
		for i := range out {
			out[i] = int16(binary.LittleEndian.Uint16(b[2*i:]))
		}
		return out, nil
	case Int32:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
		}
		return out, nil
	case Int64:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(binary.LittleEndian.Uint64(b[8*i:]))
		}
		return out, nil
	case Uint16:
		out := make([]uint16, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint16(b[2*i:])
		}
		return out, nil
	case Uint32:
		out := make([]uint32, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint32(b[4*i:])
		}
		return out, nil
	case Uint64:
		out := make([]uint64, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(b[8*i:])
		}
		return out, nil
	case Float32:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
		}
		return out, nil
	case Float64, FloatExt:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
		}
		return out, nil
	default:
		return nil, &Error{
			Code:    ErrUnsupported,
			Message: "datatype cannot form a dataset payload",
			Path:    d.String(),
		}
	}
}
