package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

// RunDatasetTests executes all dataset shape and payload tests.
func (suite *BackendTestSuite) RunDatasetTests(t *testing.T) {
	t.Run("CreateAndOpen", suite.testDatasetCreateAndOpen)
	t.Run("RoundTrip", suite.testDatasetRoundTrip)
	t.Run("PartialChunk", suite.testDatasetPartialChunk)
	t.Run("ExtendGrowsZeroFilled", suite.testDatasetExtendGrowsZeroFilled)
	t.Run("ExtendRejected", suite.testDatasetExtendRejected)
	t.Run("ExtendUnwritten", suite.testDatasetExtendUnwritten)
	t.Run("WrongPayloadSize", suite.testDatasetWrongPayloadSize)
	t.Run("OutOfBounds", suite.testDatasetOutOfBounds)
	t.Run("StringUnsupported", suite.testDatasetStringUnsupported)
	t.Run("Delete", suite.testDatasetDelete)
}

func (suite *BackendTestSuite) testDatasetCreateAndOpen(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	createDataset(t, h, root, "x", dataset.Float64, dataset.Extent{4, 3})

	node := dataset.NewWritable(root)
	open, dtypeSlot, extentSlot := dataset.OpenDataset(node, "x")
	enqueue(t, h, open)
	flush(t, h)

	dtype, ok := dtypeSlot.Load()
	require.True(t, ok)
	require.Equal(t, dataset.Float64, dtype)

	extent, ok := extentSlot.Load()
	require.True(t, ok)
	require.Equal(t, dataset.Extent{4, 3}, extent)
}

func (suite *BackendTestSuite) testDatasetRoundTrip(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	ds := createDataset(t, h, root, "x", dataset.Float64, dataset.Extent{4})

	payload, dtype, err := dataset.PackValues([]float64{1.5, -2.25, 0, 4e9})
	require.NoError(t, err)
	require.Equal(t, dataset.Float64, dtype)

	enqueue(t, h, dataset.WriteDataset(ds, dataset.Offset{0}, dataset.Extent{4}, payload))
	read, slot := dataset.ReadDataset(ds, dataset.Offset{0}, dataset.Extent{4})
	enqueue(t, h, read)
	flush(t, h)

	raw, ok := slot.Load()
	require.True(t, ok)
	values, err := dataset.UnpackValues(dataset.Float64, raw)
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, -2.25, 0, 4e9}, values)
}

func (suite *BackendTestSuite) testDatasetPartialChunk(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	ds := createDataset(t, h, root, "grid", dataset.Int32, dataset.Extent{4, 3})

	row, _, err := dataset.PackValues([]int32{7, 8, 9})
	require.NoError(t, err)
	enqueue(t, h, dataset.WriteDataset(ds, dataset.Offset{2, 0}, dataset.Extent{1, 3}, row))

	read, slot := dataset.ReadDataset(ds, dataset.Offset{1, 0}, dataset.Extent{2, 3})
	enqueue(t, h, read)
	flush(t, h)

	raw, ok := slot.Load()
	require.True(t, ok)
	values, err := dataset.UnpackValues(dataset.Int32, raw)
	require.NoError(t, err)
	require.Equal(t, []int32{0, 0, 0, 7, 8, 9}, values)
}

func (suite *BackendTestSuite) testDatasetExtendGrowsZeroFilled(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	ds := createDataset(t, h, root, "x", dataset.Int64, dataset.Extent{2})

	payload, _, err := dataset.PackValues([]int64{10, 20})
	require.NoError(t, err)
	enqueue(t, h, dataset.WriteDataset(ds, dataset.Offset{0}, dataset.Extent{2}, payload))
	enqueue(t, h, dataset.ExtendDataset(ds, dataset.Extent{4}))
	flush(t, h)

	node := dataset.NewWritable(root)
	open, _, extentSlot := dataset.OpenDataset(node, "x")
	read, slot := dataset.ReadDataset(node, dataset.Offset{0}, dataset.Extent{4})
	enqueue(t, h, open, read)
	flush(t, h)

	extent, ok := extentSlot.Load()
	require.True(t, ok)
	require.Equal(t, dataset.Extent{4}, extent)

	raw, ok := slot.Load()
	require.True(t, ok)
	values, err := dataset.UnpackValues(dataset.Int64, raw)
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20, 0, 0}, values)
}

func (suite *BackendTestSuite) testDatasetExtendRejected(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")

	t.Run("Shrink", func(t *testing.T) {
		ds := createDataset(t, h, root, "shrink", dataset.Float64, dataset.Extent{4})
		enqueue(t, h, dataset.ExtendDataset(ds, dataset.Extent{2}))
		AssertErrorCode(t, dataset.ErrLogic, flushErr(t, h))
	})

	t.Run("RankMismatch", func(t *testing.T) {
		ds := createDataset(t, h, root, "rank", dataset.Float64, dataset.Extent{4})
		enqueue(t, h, dataset.ExtendDataset(ds, dataset.Extent{4, 2}))
		AssertErrorCode(t, dataset.ErrInvalidParameter, flushErr(t, h))
	})

	t.Run("InnerDimension", func(t *testing.T) {
		ds := createDataset(t, h, root, "inner", dataset.Float64, dataset.Extent{4, 3})
		enqueue(t, h, dataset.ExtendDataset(ds, dataset.Extent{4, 6}))
		AssertErrorCode(t, dataset.ErrUnsupported, flushErr(t, h))
	})
}

func (suite *BackendTestSuite) testDatasetExtendUnwritten(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	node := dataset.NewWritable(root)
	enqueue(t, h, dataset.ExtendDataset(node, dataset.Extent{8}))
	AssertErrorCode(t, dataset.ErrLogic, flushErr(t, h))
}

func (suite *BackendTestSuite) testDatasetWrongPayloadSize(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	ds := createDataset(t, h, root, "x", dataset.Float64, dataset.Extent{4})

	enqueue(t, h, dataset.WriteDataset(ds, dataset.Offset{0}, dataset.Extent{4}, make([]byte, 7)))
	AssertErrorCode(t, dataset.ErrInvalidParameter, flushErr(t, h))
}

func (suite *BackendTestSuite) testDatasetOutOfBounds(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	ds := createDataset(t, h, root, "x", dataset.Float64, dataset.Extent{4})

	read, _ := dataset.ReadDataset(ds, dataset.Offset{2}, dataset.Extent{4})
	enqueue(t, h, read)
	AssertErrorCode(t, dataset.ErrInvalidParameter, flushErr(t, h))
}

func (suite *BackendTestSuite) testDatasetStringUnsupported(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	node := dataset.NewWritable(root)
	enqueue(t, h, dataset.CreateDataset(node, "names", dataset.String, dataset.Extent{4}))
	AssertErrorCode(t, dataset.ErrUnsupported, flushErr(t, h))
}

func (suite *BackendTestSuite) testDatasetDelete(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	ds := createDataset(t, h, root, "x", dataset.Float64, dataset.Extent{4})

	enqueue(t, h, dataset.DeleteDataset(ds, "."))
	flush(t, h)
	require.False(t, ds.Written())

	node := dataset.NewWritable(root)
	open, _, _ := dataset.OpenDataset(node, "x")
	enqueue(t, h, open)
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))
}
