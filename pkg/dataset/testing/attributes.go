package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

// RunAttributeTests executes all attribute tests.
func (suite *BackendTestSuite) RunAttributeTests(t *testing.T) {
	t.Run("RoundTrip", suite.testAttributeRoundTrip)
	t.Run("ExtendedPrecision", suite.testAttributeExtendedPrecision)
	t.Run("Overwrite", suite.testAttributeOverwrite)
	t.Run("OnDataset", suite.testAttributeOnDataset)
	t.Run("ListSorted", suite.testAttributeListSorted)
	t.Run("ReadMissing", suite.testAttributeReadMissing)
	t.Run("Delete", suite.testAttributeDelete)
	t.Run("DeleteMissing", suite.testAttributeDeleteMissing)
	t.Run("DeleteKeepsNode", suite.testAttributeDeleteKeepsNode)
}

func (suite *BackendTestSuite) testAttributeRoundTrip(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")

	cases := map[string]dataset.Attribute{
		"char":    dataset.MustNew(byte('x')),
		"flag":    dataset.MustNew(true),
		"label":   dataset.MustNew("electrons"),
		"count":   dataset.MustNew(int64(-42)),
		"rate":    dataset.MustNew(uint32(1000)),
		"dt":      dataset.MustNew(3.25),
		"grid":    dataset.MustNew([7]float64{1, 2, 3, 4, 5, 6, 7}),
		"spacing": dataset.MustNew([]float64{0.5, 0.5, 1.0}),
		"axes":    dataset.MustNew([]string{"x", "y", "z"}),
	}

	for name, att := range cases {
		enqueue(t, h, dataset.WriteAttribute(root, name, att))
	}
	flush(t, h)

	for name, want := range cases {
		read, slot := dataset.ReadAttribute(root, name)
		enqueue(t, h, read)
		flush(t, h)
		got, ok := slot.Load()
		require.True(t, ok, "attribute %s not delivered", name)
		require.Equal(t, want.Dtype(), got.Dtype(), "attribute %s", name)
		require.True(t, want.Equal(got), "attribute %s: want %v got %v", name, want, got)
	}
}

func (suite *BackendTestSuite) testAttributeExtendedPrecision(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	enqueue(t, h, dataset.WriteAttribute(root, "eps", dataset.NewFloatExt(1.25)))
	read, slot := dataset.ReadAttribute(root, "eps")
	enqueue(t, h, read)
	flush(t, h)

	att, ok := slot.Load()
	require.True(t, ok)
	// The extended tag survives storage and stays distinct from the
	// plain double tag.
	require.Equal(t, dataset.FloatExt, att.Dtype())
	_, err := dataset.Get[float64](att)
	AssertErrorCode(t, dataset.ErrDatatypeMismatch, err)
}

func (suite *BackendTestSuite) testAttributeOverwrite(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	enqueue(t, h, dataset.WriteAttribute(root, "step", dataset.MustNew(int64(1))))
	enqueue(t, h, dataset.WriteAttribute(root, "step", dataset.MustNew(int64(2))))
	read, slot := dataset.ReadAttribute(root, "step")
	enqueue(t, h, read)
	flush(t, h)

	att, ok := slot.Load()
	require.True(t, ok)
	got, err := dataset.Get[int64](att)
	require.NoError(t, err)
	require.Equal(t, int64(2), got)
}

func (suite *BackendTestSuite) testAttributeOnDataset(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	ds := createDataset(t, h, root, "x", dataset.Float64, dataset.Extent{4})

	enqueue(t, h, dataset.WriteAttribute(ds, "unit", dataset.MustNew("meters")))
	read, slot := dataset.ReadAttribute(ds, "unit")
	enqueue(t, h, read)
	flush(t, h)

	att, ok := slot.Load()
	require.True(t, ok)
	got, err := dataset.Get[string](att)
	require.NoError(t, err)
	require.Equal(t, "meters", got)
}

func (suite *BackendTestSuite) testAttributeListSorted(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	for _, name := range []string{"zulu", "alpha", "mike"} {
		enqueue(t, h, dataset.WriteAttribute(root, name, dataset.MustNew(true)))
	}
	list, slot := dataset.ListAttributes(root)
	enqueue(t, h, list)
	flush(t, h)

	names, ok := slot.Load()
	require.True(t, ok)
	require.Equal(t, []string{"alpha", "mike", "zulu"}, names)
}

func (suite *BackendTestSuite) testAttributeReadMissing(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	read, _ := dataset.ReadAttribute(root, "absent")
	enqueue(t, h, read)
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))
}

func (suite *BackendTestSuite) testAttributeDelete(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	enqueue(t, h, dataset.WriteAttribute(root, "tmp", dataset.MustNew(int32(5))))
	enqueue(t, h, dataset.DeleteAttribute(root, "tmp"))
	list, slot := dataset.ListAttributes(root)
	enqueue(t, h, list)
	flush(t, h)

	names, ok := slot.Load()
	require.True(t, ok)
	require.Empty(t, names)

	read, _ := dataset.ReadAttribute(root, "tmp")
	enqueue(t, h, read)
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))
}

func (suite *BackendTestSuite) testAttributeDeleteMissing(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	enqueue(t, h, dataset.DeleteAttribute(root, "absent"))
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))
}

func (suite *BackendTestSuite) testAttributeDeleteKeepsNode(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	enqueue(t, h, dataset.WriteAttribute(root, "tmp", dataset.MustNew(int32(5))))
	enqueue(t, h, dataset.DeleteAttribute(root, "tmp"))
	flush(t, h)

	// Unlike structural deletes, removing an attribute leaves the
	// carrying node written and addressable.
	require.True(t, root.Written())
	enqueue(t, h, dataset.WriteAttribute(root, "other", dataset.MustNew(int32(6))))
	flush(t, h)
}
