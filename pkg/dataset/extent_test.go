package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

func TestExtent_Elements(t *testing.T) {
	assert.Equal(t, uint64(0), dataset.Extent{}.Elements())
	assert.Equal(t, uint64(5), dataset.Extent{5}.Elements())
	assert.Equal(t, uint64(12), dataset.Extent{4, 3}.Elements())
	assert.Equal(t, uint64(0), dataset.Extent{4, 0}.Elements())
}

func TestExtent_Bytes(t *testing.T) {
	assert.Equal(t, uint64(96), dataset.Extent{4, 3}.Bytes(dataset.Float64))
	assert.Equal(t, uint64(12), dataset.Extent{4, 3}.Bytes(dataset.Char))
}

func TestValidateExtension(t *testing.T) {
	t.Run("GrowFirstDimension", func(t *testing.T) {
		require.NoError(t, dataset.ValidateExtension(dataset.Extent{2, 3}, dataset.Extent{5, 3}))
	})

	t.Run("SameExtentIsNoOp", func(t *testing.T) {
		require.NoError(t, dataset.ValidateExtension(dataset.Extent{2, 3}, dataset.Extent{2, 3}))
	})

	t.Run("RankMismatch", func(t *testing.T) {
		err := dataset.ValidateExtension(dataset.Extent{2, 3}, dataset.Extent{2})
		requireErrorCode(t, dataset.ErrInvalidParameter, err)
	})

	t.Run("InnerDimensionChange", func(t *testing.T) {
		err := dataset.ValidateExtension(dataset.Extent{2, 3}, dataset.Extent{2, 4})
		requireErrorCode(t, dataset.ErrUnsupported, err)
	})

	t.Run("Shrink", func(t *testing.T) {
		err := dataset.ValidateExtension(dataset.Extent{4}, dataset.Extent{2})
		requireErrorCode(t, dataset.ErrLogic, err)
	})
}

func TestChunkRange(t *testing.T) {
	t.Run("FullDataset", func(t *testing.T) {
		start, length, err := dataset.ChunkRange(dataset.Extent{4, 3}, dataset.Int32, dataset.Offset{0, 0}, dataset.Extent{4, 3})
		require.NoError(t, err)
		assert.Equal(t, uint64(0), start)
		assert.Equal(t, uint64(48), length)
	})

	t.Run("RowsFromTheMiddle", func(t *testing.T) {
		// Rows 2..3 of a 4x3 int32 dataset: one contiguous run.
		start, length, err := dataset.ChunkRange(dataset.Extent{4, 3}, dataset.Int32, dataset.Offset{2, 0}, dataset.Extent{2, 3})
		require.NoError(t, err)
		assert.Equal(t, uint64(24), start)
		assert.Equal(t, uint64(24), length)
	})

	t.Run("OneDimensional", func(t *testing.T) {
		start, length, err := dataset.ChunkRange(dataset.Extent{10}, dataset.Float64, dataset.Offset{3}, dataset.Extent{4})
		require.NoError(t, err)
		assert.Equal(t, uint64(24), start)
		assert.Equal(t, uint64(32), length)
	})

	t.Run("RankMismatch", func(t *testing.T) {
		_, _, err := dataset.ChunkRange(dataset.Extent{4, 3}, dataset.Int32, dataset.Offset{0}, dataset.Extent{4, 3})
		requireErrorCode(t, dataset.ErrInvalidParameter, err)
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		_, _, err := dataset.ChunkRange(dataset.Extent{4}, dataset.Int32, dataset.Offset{2}, dataset.Extent{3})
		requireErrorCode(t, dataset.ErrInvalidParameter, err)
	})

	t.Run("NonContiguousSelection", func(t *testing.T) {
		// A column slice is not a contiguous run of the row-major
		// payload.
		_, _, err := dataset.ChunkRange(dataset.Extent{4, 3}, dataset.Int32, dataset.Offset{0, 1}, dataset.Extent{4, 1})
		requireErrorCode(t, dataset.ErrUnsupported, err)
	})

	t.Run("UnsizedDatatype", func(t *testing.T) {
		_, _, err := dataset.ChunkRange(dataset.Extent{4}, dataset.String, dataset.Offset{0}, dataset.Extent{4})
		requireErrorCode(t, dataset.ErrUnsupported, err)
	})
}
