package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

func TestAttribute_NewTagsValues(t *testing.T) {
	cases := []struct {
		value any
		want  dataset.Datatype
	}{
		{byte('x'), dataset.Char},
		{true, dataset.Bool},
		{"iteration", dataset.String},
		{int16(-3), dataset.Int16},
		{int32(-3), dataset.Int32},
		{int64(-3), dataset.Int64},
		{uint16(3), dataset.Uint16},
		{uint32(3), dataset.Uint32},
		{uint64(3), dataset.Uint64},
		{float32(1.5), dataset.Float32},
		{float64(1.5), dataset.Float64},
		{[7]float64{1, 2, 3, 4, 5, 6, 7}, dataset.ArrFloat64x7},
		{[]byte("raw"), dataset.VecChar},
		{[]bool{true, false}, dataset.VecBool},
		{[]string{"a", "b"}, dataset.VecString},
		{[]int16{1, 2}, dataset.VecInt16},
		{[]int32{1, 2}, dataset.VecInt32},
		{[]int64{1, 2}, dataset.VecInt64},
		{[]uint16{1, 2}, dataset.VecUint16},
		{[]uint32{1, 2}, dataset.VecUint32},
		{[]uint64{1, 2}, dataset.VecUint64},
		{[]float32{1.5, 2.5}, dataset.VecFloat32},
		{[]float64{1.5, 2.5}, dataset.VecFloat64},
	}

	for _, tc := range cases {
		t.Run(tc.want.String(), func(t *testing.T) {
			att, err := dataset.New(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, att.Dtype())
			assert.True(t, att.Defined())
			assert.Equal(t, tc.value, att.Value())
		})
	}
}

func TestAttribute_NewRejectsForeignTypes(t *testing.T) {
	_, err := dataset.New(struct{ X int }{1})
	requireErrorCode(t, dataset.ErrUnsupported, err)

	// int is deliberately absent from the set: width is
	// platform-dependent.
	_, err = dataset.New(42)
	requireErrorCode(t, dataset.ErrUnsupported, err)
}

func TestAttribute_ZeroValueIsUndefined(t *testing.T) {
	var att dataset.Attribute
	assert.False(t, att.Defined())
	assert.Equal(t, dataset.Undefined, att.Dtype())
	assert.Equal(t, "<undefined>", att.String())
}

func TestAttribute_GetChecksDatatype(t *testing.T) {
	att := dataset.MustNew(int64(42))

	v, err := dataset.Get[int64](att)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = dataset.Get[int32](att)
	requireErrorCode(t, dataset.ErrDatatypeMismatch, err)

	_, err = dataset.Get[string](att)
	requireErrorCode(t, dataset.ErrDatatypeMismatch, err)
}

func TestAttribute_FloatExtIsDistinctFromFloat64(t *testing.T) {
	ext := dataset.NewFloatExt(1.25)
	assert.Equal(t, dataset.FloatExt, ext.Dtype())

	// Same in-memory representation, different declared datatype: bits
	// are never reinterpreted across tags.
	_, err := dataset.Get[float64](ext)
	requireErrorCode(t, dataset.ErrDatatypeMismatch, err)

	vec := dataset.NewVecFloatExt([]float64{1, 2})
	assert.Equal(t, dataset.VecFloatExt, vec.Dtype())
	assert.False(t, vec.Equal(dataset.MustNew([]float64{1, 2})))
}

func TestAttribute_SlicesAreCopied(t *testing.T) {
	src := []float64{1, 2, 3}
	att := dataset.MustNew(src)

	// Mutating the source after construction must not leak through.
	src[0] = 99
	got, err := dataset.Get[[]float64](att)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, got)

	// Nor may mutating a retrieved value change the attribute.
	got[1] = 99
	again, err := dataset.Get[[]float64](att)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, again)
}

func TestAttribute_Equal(t *testing.T) {
	assert.True(t, dataset.MustNew("a").Equal(dataset.MustNew("a")))
	assert.False(t, dataset.MustNew("a").Equal(dataset.MustNew("b")))
	assert.False(t, dataset.MustNew(int32(1)).Equal(dataset.MustNew(int64(1))))
	assert.True(t, dataset.MustNew([]uint32{1, 2}).Equal(dataset.MustNew([]uint32{1, 2})))
	assert.False(t, dataset.MustNew([]uint32{1, 2}).Equal(dataset.MustNew([]uint32{1})))
	assert.True(t, dataset.NewFloatExt(2.5).Equal(dataset.NewFloatExt(2.5)))
}

func TestAttribute_MustNewPanicsOnForeignType(t *testing.T) {
	assert.Panics(t, func() {
		dataset.MustNew(complex(1, 2))
	})
}
