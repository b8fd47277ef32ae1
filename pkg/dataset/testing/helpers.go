package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

// flush drains the handler queue and fails the test on any error.
func flush(t *testing.T, h *dataset.IOHandler) {
	t.Helper()
	require.NoError(t, h.Flush(context.Background()).Err())
}

// flushErr drains the handler queue and returns the flush error.
func flushErr(t *testing.T, h *dataset.IOHandler) error {
	t.Helper()
	return h.Flush(context.Background()).Err()
}

// enqueue queues tasks and fails the test if the handler refuses any.
func enqueue(t *testing.T, h *dataset.IOHandler, tasks ...*dataset.IOTask) {
	t.Helper()
	for _, task := range tasks {
		require.NoError(t, h.Enqueue(task))
	}
}

// createFile creates and flushes a file node, returning its root.
func createFile(t *testing.T, h *dataset.IOHandler, name string) *dataset.Writable {
	t.Helper()
	root := dataset.NewWritable(nil)
	enqueue(t, h, dataset.CreateFile(root, name))
	flush(t, h)
	require.True(t, root.Written())
	return root
}

// createGroup creates and flushes a group path below parent.
func createGroup(t *testing.T, h *dataset.IOHandler, parent *dataset.Writable, path string) *dataset.Writable {
	t.Helper()
	g := dataset.NewWritable(parent)
	enqueue(t, h, dataset.CreatePath(g, path))
	flush(t, h)
	return g
}

// createDataset creates and flushes a dataset node below parent.
func createDataset(t *testing.T, h *dataset.IOHandler, parent *dataset.Writable, name string, dtype dataset.Datatype, extent dataset.Extent) *dataset.Writable {
	t.Helper()
	ds := dataset.NewWritable(parent)
	enqueue(t, h, dataset.CreateDataset(ds, name, dtype, extent))
	flush(t, h)
	return ds
}

// AssertErrorCode asserts that err carries the expected domain error
// code somewhere in its chain.
func AssertErrorCode(t *testing.T, want dataset.ErrorCode, err error) {
	t.Helper()
	require.Error(t, err)
	code, ok := dataset.CodeOf(err)
	require.True(t, ok, "error %v carries no domain code", err)
	require.Equal(t, want, code, "error: %v", err)
}
