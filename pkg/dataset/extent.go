package dataset

import "fmt"

// Extent is the size of a multi-dimensional dataset, one entry per
// dimension, in row-major order.
type Extent []uint64

// Offset is a position inside a dataset's extent, in elements.
type Offset []uint64

// Elements returns the total number of elements spanned by the extent.
func (e Extent) Elements() uint64 {
	if len(e) == 0 {
		return 0
	}
	n := uint64(1)
	for _, d := range e {
		n *= d
	}
	return n
}

// Bytes returns the payload size of the extent for the given datatype.
func (e Extent) Bytes(d Datatype) uint64 {
	return e.Elements() * uint64(d.Size())
}

func (e Extent) clone() Extent {
	out := make(Extent, len(e))
	copy(out, e)
	return out
}

func (o Offset) clone() Offset {
	out := make(Offset, len(o))
	copy(out, o)
	return out
}

// ValidateExtension enforces the grow-only, first-dimension-only rule
// for extending a written dataset. All backends apply the same rule so
// extension behaves identically regardless of storage engine.
func ValidateExtension(old, next Extent) error {
	if len(next) != len(old) {
		return &Error{
			Code:    ErrInvalidParameter,
			Message: fmt.Sprintf("extension rank %d does not match dataset rank %d", len(next), len(old)),
		}
	}
	for i := 1; i < len(old); i++ {
		if next[i] != old[i] {
			return &Error{
				Code:    ErrUnsupported,
				Message: fmt.Sprintf("extension may only grow the first dimension, dimension %d changed", i),
			}
		}
	}
	if len(old) > 0 && next[0] < old[0] {
		return &Error{
			Code:    ErrLogic,
			Message: "extension cannot shrink a dataset",
		}
	}
	return nil
}

// ChunkRange maps an (offset, chunk extent) pair inside a dataset onto a
// contiguous byte range of the row-major payload.
//
// The chunk must cover every trailing dimension in full: a chunk may
// start partway through the first dimension only, so that it describes
// one contiguous run of elements. Non-contiguous hyperslab selections
// are rejected with ErrUnsupported.
//
// Parameters:
//   - ds: The dataset's full extent
//   - dtype: The dataset's scalar datatype (element size)
//   - off: Start position of the chunk, in elements per dimension
//   - chunk: Extent of the chunk, in elements per dimension
//
// Returns:
//   - start: Byte offset of the chunk inside the payload
//   - length: Byte length of the chunk
//   - error: ErrInvalidParameter for rank/bounds violations,
//     ErrUnsupported for non-contiguous selections
func ChunkRange(ds Extent, dtype Datatype, off Offset, chunk Extent) (start, length uint64, err error) {
	if len(off) != len(ds) || len(chunk) != len(ds) {
		return 0, 0, &Error{
			Code:    ErrInvalidParameter,
			Message: fmt.Sprintf("chunk rank %d/%d does not match dataset rank %d", len(off), len(chunk), len(ds)),
		}
	}
	elemSize := uint64(dtype.Size())
	if elemSize == 0 {
		return 0, 0, &Error{
			Code:    ErrUnsupported,
			Message: "datatype has no fixed element size",
			Path:    dtype.String(),
		}
	}
	for i := range ds {
		if off[i]+chunk[i] > ds[i] {
			return 0, 0, &Error{
				Code:    ErrInvalidParameter,
				Message: fmt.Sprintf("chunk exceeds dataset extent in dimension %d", i),
			}
		}
	}
	// Trailing dimensions must be covered in full and start at zero so
	// the selection is one contiguous row-major run.
	for i := 1; i < len(ds); i++ {
		if off[i] != 0 || chunk[i] != ds[i] {
			return 0, 0, &Error{
				Code:    ErrUnsupported,
				Message: fmt.Sprintf("non-contiguous chunk selection in dimension %d", i),
			}
		}
	}
	rowElems := uint64(1)
	for i := 1; i < len(ds); i++ {
		rowElems *= ds[i]
	}
	var firstOff, firstLen uint64
	if len(ds) > 0 {
		firstOff = off[0]
		firstLen = chunk[0]
	}
	return firstOff * rowElems * elemSize, firstLen * rowElems * elemSize, nil
}
