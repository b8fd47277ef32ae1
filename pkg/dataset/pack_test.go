package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

func TestPackValues_LittleEndianLayout(t *testing.T) {
	raw, dtype, err := dataset.PackValues([]uint32{1, 0x01020304})
	require.NoError(t, err)
	assert.Equal(t, dataset.Uint32, dtype)
	assert.Equal(t, []byte{1, 0, 0, 0, 4, 3, 2, 1}, raw)
}

func TestPackValues_RoundTrip(t *testing.T) {
	cases := []any{
		[]byte("abc"),
		[]bool{true, false, true},
		[]int16{-1, 2},
		[]int32{-1, 2},
		[]int64{-1, 2},
		[]uint16{1, 2},
		[]uint32{1, 2},
		[]uint64{1, 2},
		[]float32{0.5, -1.5},
		[]float64{0.5, -1.5},
	}

	for _, values := range cases {
		raw, dtype, err := dataset.PackValues(values)
		require.NoError(t, err)

		got, err := dataset.UnpackValues(dtype, raw)
		require.NoError(t, err)
		assert.Equal(t, values, got)
	}
}

func TestPackValues_RejectsStrings(t *testing.T) {
	_, _, err := dataset.PackValues([]string{"a"})
	requireErrorCode(t, dataset.ErrUnsupported, err)
}

func TestUnpackValues_RejectsPartialElements(t *testing.T) {
	_, err := dataset.UnpackValues(dataset.Float64, make([]byte, 7))
	requireErrorCode(t, dataset.ErrInvalidParameter, err)
}

func TestUnpackValues_RejectsUnsizedDatatypes(t *testing.T) {
	_, err := dataset.UnpackValues(dataset.String, []byte("abc"))
	requireErrorCode(t, dataset.ErrUnsupported, err)
}

func TestUnpackValues_FloatExtDecodesAsFloat64(t *testing.T) {
	raw, _, err := dataset.PackValues([]float64{1.25})
	require.NoError(t, err)

	got, err := dataset.UnpackValues(dataset.FloatExt, raw)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.25}, got)
}

func TestUnpackValues_VectorTagUsesScalarWidth(t *testing.T) {
	raw, _, err := dataset.PackValues([]int32{7, 8})
	require.NoError(t, err)

	got, err := dataset.UnpackValues(dataset.VecInt32, raw)
	require.NoError(t, err)
	assert.Equal(t, []int32{7, 8}, got)
}
