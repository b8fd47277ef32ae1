package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

// RunFileTests executes all file container tests.
func (suite *BackendTestSuite) RunFileTests(t *testing.T) {
	t.Run("CreateAndReopen", suite.testFileCreateAndReopen)
	t.Run("OpenMissing", suite.testFileOpenMissing)
	t.Run("CreateReplayIsNoOp", suite.testFileCreateReplayIsNoOp)
	t.Run("CreateModeTruncates", suite.testFileCreateModeTruncates)
	t.Run("Delete", suite.testFileDelete)
	t.Run("DeleteReadOnly", suite.testFileDeleteReadOnly)
	t.Run("DeleteUnwritten", suite.testFileDeleteUnwritten)
}

func (suite *BackendTestSuite) testFileCreateAndReopen(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	createFile(t, h, "run")

	reopened := dataset.NewWritable(nil)
	enqueue(t, h, dataset.OpenFile(reopened, "run"))
	flush(t, h)
	require.True(t, reopened.Written())
	require.False(t, reopened.Dirty())
	require.NotNil(t, reopened.Position())
}

func (suite *BackendTestSuite) testFileOpenMissing(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	node := dataset.NewWritable(nil)
	enqueue(t, h, dataset.OpenFile(node, "absent"))
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))
	require.False(t, node.Written())
}

func (suite *BackendTestSuite) testFileCreateReplayIsNoOp(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")

	// The node is already written, so the replay must not reach the
	// backend or disturb stored state.
	enqueue(t, h, dataset.WriteAttribute(root, "tag", dataset.MustNew("v1")))
	flush(t, h)
	enqueue(t, h, dataset.CreateFile(root, "run"))
	flush(t, h)

	read, slot := dataset.ReadAttribute(root, "tag")
	enqueue(t, h, read)
	flush(t, h)
	att, ok := slot.Load()
	require.True(t, ok)
	got, err := dataset.Get[string](att)
	require.NoError(t, err)
	require.Equal(t, "v1", got)
}

func (suite *BackendTestSuite) testFileCreateModeTruncates(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessCreate)
	defer h.Close(t.Context())

	first := createFile(t, h, "run")
	enqueue(t, h, dataset.WriteAttribute(first, "tag", dataset.MustNew("v1")))
	flush(t, h)

	// A second creation of the same file through a fresh node starts
	// the container over under create mode.
	second := dataset.NewWritable(nil)
	enqueue(t, h, dataset.CreateFile(second, "run"))
	flush(t, h)

	read, _ := dataset.ReadAttribute(second, "tag")
	enqueue(t, h, read)
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))
}

func (suite *BackendTestSuite) testFileDelete(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	enqueue(t, h, dataset.DeleteFile(root, "run"))
	flush(t, h)
	require.False(t, root.Written())
	require.Nil(t, root.Position())

	node := dataset.NewWritable(nil)
	enqueue(t, h, dataset.OpenFile(node, "run"))
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))
}

func (suite *BackendTestSuite) testFileDeleteReadOnly(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadOnly)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	enqueue(t, h, dataset.DeleteFile(root, "run"))
	AssertErrorCode(t, dataset.ErrLogic, flushErr(t, h))
	require.True(t, root.Written())
}

func (suite *BackendTestSuite) testFileDeleteUnwritten(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	node := dataset.NewWritable(nil)
	enqueue(t, h, dataset.DeleteFile(node, "run"))
	AssertErrorCode(t, dataset.ErrLogic, flushErr(t, h))
}
