package badger

import (
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
	dstesting "github.com/marmos91/strata/pkg/dataset/testing"
)

func newTestHandler(t *testing.T, mode dataset.AccessMode) *dataset.IOHandler {
	t.Helper()
	backend, err := New(Config{Path: t.TempDir(), Mode: mode})
	require.NoError(t, err)
	return dataset.NewIOHandler(backend, mode)
}

func TestBadgerBackend_Suite(t *testing.T) {
	suite := &dstesting.BackendTestSuite{NewHandler: newTestHandler}
	suite.Run(t)
}

// Reopening the database from the same path must surface previously
// flushed state: persistence is the point of this backend.
func TestBadgerBackend_Persistence(t *testing.T) {
	dir := t.TempDir()

	backend, err := New(Config{Path: dir, Mode: dataset.AccessReadWrite})
	require.NoError(t, err)
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	ds := dataset.NewWritable(root)
	payload, _, err := dataset.PackValues([]int32{1, 2, 3})
	require.NoError(t, err)

	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Enqueue(dataset.CreateDataset(ds, "x", dataset.Int32, dataset.Extent{3})))
	require.NoError(t, h.Enqueue(dataset.WriteDataset(ds, dataset.Offset{0}, dataset.Extent{3}, payload)))
	require.NoError(t, h.Enqueue(dataset.WriteAttribute(root, "step", dataset.MustNew(int64(7)))))
	require.NoError(t, h.Close(t.Context()))

	reopened, err := New(Config{Path: dir, Mode: dataset.AccessReadOnly})
	require.NoError(t, err)
	h2 := dataset.NewIOHandler(reopened, dataset.AccessReadOnly)
	defer h2.Close(t.Context())

	file := dataset.NewWritable(nil)
	require.NoError(t, h2.Enqueue(dataset.OpenFile(file, "run")))

	node := dataset.NewWritable(file)
	open, dtypeSlot, extentSlot := dataset.OpenDataset(node, "x")
	require.NoError(t, h2.Enqueue(open))

	read, dataSlot := dataset.ReadDataset(node, dataset.Offset{0}, dataset.Extent{3})
	require.NoError(t, h2.Enqueue(read))

	readAttr, attrSlot := dataset.ReadAttribute(file, "step")
	require.NoError(t, h2.Enqueue(readAttr))
	require.NoError(t, h2.Flush(t.Context()).Err())

	dtype, ok := dtypeSlot.Load()
	require.True(t, ok)
	require.Equal(t, dataset.Int32, dtype)

	extent, ok := extentSlot.Load()
	require.True(t, ok)
	require.Equal(t, dataset.Extent{3}, extent)

	raw, ok := dataSlot.Load()
	require.True(t, ok)
	values, err := dataset.UnpackValues(dataset.Int32, raw)
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3}, values)

	att, ok := attrSlot.Load()
	require.True(t, ok)
	step, err := dataset.Get[int64](att)
	require.NoError(t, err)
	require.Equal(t, int64(7), step)
}

// A payload key missing underneath the key schema is a storage
// inconsistency, but it still maps to the same not-found code every
// other missing entry carries.
func TestBadgerBackend_MissingPayloadCode(t *testing.T) {
	backend, err := New(Config{Path: t.TempDir(), Mode: dataset.AccessReadWrite})
	require.NoError(t, err)
	defer backend.Close()

	err = backend.db.View(func(txn *badger.Txn) error {
		_, err := getData(txn, "run", "/x")
		return err
	})
	code, ok := dataset.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, dataset.ErrNoSuchFile, code)
}
