package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

func TestAttribute_RoundTripPreservesDatatype(t *testing.T) {
	attributes := []dataset.Attribute{
		dataset.MustNew(byte('x')),
		dataset.MustNew(true),
		dataset.MustNew("simulation"),
		dataset.MustNew(int16(-5)),
		dataset.MustNew(int32(-5)),
		dataset.MustNew(int64(-5)),
		dataset.MustNew(uint16(5)),
		dataset.MustNew(uint32(5)),
		dataset.MustNew(uint64(5)),
		dataset.MustNew(float32(2.5)),
		dataset.MustNew(float64(2.5)),
		dataset.NewFloatExt(2.5),
		dataset.MustNew([7]float64{1, -1, 0, 0, 2, 0, 0}),
		dataset.MustNew([]byte("raw")),
		dataset.MustNew([]bool{true, false}),
		dataset.MustNew([]string{"x", "y", "z"}),
		dataset.MustNew([]int64{-1, 0, 1}),
		dataset.MustNew([]uint32{1, 2, 3}),
		dataset.MustNew([]float32{0.5, 1.5}),
		dataset.MustNew([]float64{0.5, 1.5}),
		dataset.NewVecFloatExt([]float64{0.5, 1.5}),
	}

	for _, att := range attributes {
		t.Run(att.Dtype().String(), func(t *testing.T) {
			raw, err := MarshalAttribute(att)
			require.NoError(t, err)

			got, err := UnmarshalAttribute(raw)
			require.NoError(t, err)
			assert.Equal(t, att.Dtype(), got.Dtype())
			assert.True(t, att.Equal(got), "decoded %s, want %s", got, att)
		})
	}
}

func TestAttribute_UndefinedIsRefused(t *testing.T) {
	var undefined dataset.Attribute
	_, err := MarshalAttribute(undefined)
	require.Error(t, err)
	code, ok := dataset.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, dataset.ErrLogic, code)
}

func TestAttribute_CorruptRecordFails(t *testing.T) {
	_, err := UnmarshalAttribute([]byte{0xff, 0x00})
	require.Error(t, err)
	code, ok := dataset.CodeOf(err)
	require.True(t, ok)
	assert.Equal(t, dataset.ErrBackendInternal, code)
}

func TestNode_RoundTrip(t *testing.T) {
	group := NodeRecord{Kind: KindGroup}
	raw, err := MarshalNode(group)
	require.NoError(t, err)

	got, err := UnmarshalNode(raw)
	require.NoError(t, err)
	assert.Equal(t, group, got)
}

func TestNode_DatasetShape(t *testing.T) {
	rec := DatasetRecord(dataset.Float64, dataset.Extent{4, 3})
	raw, err := MarshalNode(rec)
	require.NoError(t, err)

	got, err := UnmarshalNode(raw)
	require.NoError(t, err)
	assert.Equal(t, KindDataset, got.Kind)

	dtype, extent, err := got.DatasetShape()
	require.NoError(t, err)
	assert.Equal(t, dataset.Float64, dtype)
	assert.Equal(t, dataset.Extent{4, 3}, extent)
}
