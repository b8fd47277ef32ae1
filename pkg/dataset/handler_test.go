package dataset_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

// fakeBackend records the order of dispatched operations and can be
// scripted to fail a single operation kind.
type fakeBackend struct {
	calls   []string
	failOn  string
	failErr error

	closed   bool
	closeErr error
}

func (b *fakeBackend) record(name string, w *dataset.Writable, materialize bool) error {
	b.calls = append(b.calls, name)
	if name == b.failOn {
		return b.failErr
	}
	if materialize && w.Position() == nil {
		w.SetPosition(&dataset.PathPosition{File: "f", Path: "/"})
	}
	return nil
}

func (b *fakeBackend) CreateFile(w *dataset.Writable, p dataset.Params) error {
	return b.record("CreateFile", w, true)
}

func (b *fakeBackend) CreatePath(w *dataset.Writable, p dataset.Params) error {
	return b.record("CreatePath", w, true)
}

func (b *fakeBackend) CreateDataset(w *dataset.Writable, p dataset.Params) error {
	return b.record("CreateDataset", w, true)
}

func (b *fakeBackend) ExtendDataset(w *dataset.Writable, p dataset.Params) error {
	return b.record("ExtendDataset", w, false)
}

func (b *fakeBackend) OpenFile(w *dataset.Writable, p dataset.Params) error {
	return b.record("OpenFile", w, true)
}

func (b *fakeBackend) OpenPath(w *dataset.Writable, p dataset.Params) error {
	return b.record("OpenPath", w, true)
}

func (b *fakeBackend) OpenDataset(w *dataset.Writable, p dataset.Params) error {
	return b.record("OpenDataset", w, true)
}

func (b *fakeBackend) DeleteFile(w *dataset.Writable, p dataset.Params) error {
	return b.record("DeleteFile", w, false)
}

func (b *fakeBackend) DeletePath(w *dataset.Writable, p dataset.Params) error {
	return b.record("DeletePath", w, false)
}

func (b *fakeBackend) DeleteDataset(w *dataset.Writable, p dataset.Params) error {
	return b.record("DeleteDataset", w, false)
}

func (b *fakeBackend) DeleteAttribute(w *dataset.Writable, p dataset.Params) error {
	return b.record("DeleteAttribute", w, false)
}

func (b *fakeBackend) WriteDataset(w *dataset.Writable, p dataset.Params) error {
	return b.record("WriteDataset", w, false)
}

func (b *fakeBackend) WriteAttribute(w *dataset.Writable, p dataset.Params) error {
	return b.record("WriteAttribute", w, false)
}

func (b *fakeBackend) ReadDataset(w *dataset.Writable, p dataset.Params) error {
	return b.record("ReadDataset", w, false)
}

func (b *fakeBackend) ReadAttribute(w *dataset.Writable, p dataset.Params) error {
	return b.record("ReadAttribute", w, false)
}

func (b *fakeBackend) ListPaths(w *dataset.Writable, p dataset.Params) error {
	return b.record("ListPaths", w, false)
}

func (b *fakeBackend) ListDatasets(w *dataset.Writable, p dataset.Params) error {
	return b.record("ListDatasets", w, false)
}

func (b *fakeBackend) ListAttributes(w *dataset.Writable, p dataset.Params) error {
	return b.record("ListAttributes", w, false)
}

func (b *fakeBackend) Close() error {
	b.closed = true
	return b.closeErr
}

func requireErrorCode(t *testing.T, want dataset.ErrorCode, err error) {
	t.Helper()
	require.Error(t, err)
	code, ok := dataset.CodeOf(err)
	require.True(t, ok, "error %v carries no code", err)
	require.Equal(t, want, code)
}

func TestIOHandler_FlushDispatchesInOrder(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	group := dataset.NewWritable(root)

	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Enqueue(dataset.CreatePath(group, "data")))
	require.NoError(t, h.Enqueue(dataset.WriteAttribute(root, "version", dataset.MustNew("1.0.0"))))
	require.Equal(t, 3, h.Pending())

	require.NoError(t, h.Flush(context.Background()).Err())

	assert.Equal(t, []string{"CreateFile", "CreatePath", "WriteAttribute"}, backend.calls)
	assert.Equal(t, 0, h.Pending())
	assert.True(t, root.Written())
	assert.False(t, root.Dirty())
}

func TestIOHandler_CreateReplayIsNoOp(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Flush(context.Background()).Err())

	// Replaying the creation of an already-written node must not reach
	// the backend again.
	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Flush(context.Background()).Err())

	assert.Equal(t, []string{"CreateFile"}, backend.calls)
	assert.True(t, root.Written())
}

func TestIOHandler_OpensAlwaysDispatch(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.OpenFile(root, "run")))
	require.NoError(t, h.Flush(context.Background()).Err())

	// Unlike creates, an open on a written node still goes to storage:
	// the on-disk entity may have changed underneath this node tree.
	require.NoError(t, h.Enqueue(dataset.OpenFile(root, "run")))
	require.NoError(t, h.Flush(context.Background()).Err())

	assert.Equal(t, []string{"OpenFile", "OpenFile"}, backend.calls)
}

func TestIOHandler_ExtendRequiresWrittenNode(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	ds := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.ExtendDataset(ds, dataset.Extent{8})))

	requireErrorCode(t, dataset.ErrLogic, h.Flush(context.Background()).Err())
	assert.Empty(t, backend.calls)
}

func TestIOHandler_DeleteRequiresWriteAccess(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadOnly)

	root := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.OpenFile(root, "run")))
	require.NoError(t, h.Flush(context.Background()).Err())

	require.NoError(t, h.Enqueue(dataset.DeleteFile(root, "run")))
	requireErrorCode(t, dataset.ErrLogic, h.Flush(context.Background()).Err())

	assert.Equal(t, []string{"OpenFile"}, backend.calls)
	assert.True(t, root.Written())
}

func TestIOHandler_DeleteRequiresWrittenNode(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.DeleteFile(root, "run")))

	requireErrorCode(t, dataset.ErrLogic, h.Flush(context.Background()).Err())
	assert.Empty(t, backend.calls)
}

func TestIOHandler_DeleteResetsNode(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Enqueue(dataset.DeleteFile(root, "run")))
	require.NoError(t, h.Flush(context.Background()).Err())

	assert.False(t, root.Written())
	assert.Nil(t, root.Position())
}

func TestIOHandler_DeleteAttributeKeepsNode(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Enqueue(dataset.DeleteAttribute(root, "comment")))
	require.NoError(t, h.Flush(context.Background()).Err())

	assert.True(t, root.Written())
	assert.NotNil(t, root.Position())
}

func TestIOHandler_DataOpNeedsResolvablePosition(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	// No ancestor in this tree has ever been positioned by a backend.
	root := dataset.NewWritable(nil)
	child := dataset.NewWritable(root)
	require.NoError(t, h.Enqueue(dataset.WriteAttribute(child, "unit", dataset.MustNew("m"))))

	requireErrorCode(t, dataset.ErrLogic, h.Flush(context.Background()).Err())
	assert.Empty(t, backend.calls)
}

func TestIOHandler_DataOpResolvesAncestorPosition(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Flush(context.Background()).Err())

	// The child has no position of its own; dispatch resolves through
	// the parent chain.
	child := dataset.NewWritable(root)
	listTask, _ := dataset.ListAttributes(child)
	require.NoError(t, h.Enqueue(listTask))
	require.NoError(t, h.Flush(context.Background()).Err())

	assert.Equal(t, []string{"CreateFile", "ListAttributes"}, backend.calls)
}

func TestIOHandler_FailedTaskHaltsAndIsDropped(t *testing.T) {
	backendErr := &dataset.Error{Code: dataset.ErrBackendInternal, Message: "disk full"}
	backend := &fakeBackend{failOn: "CreatePath", failErr: backendErr}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	group := dataset.NewWritable(root)

	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Enqueue(dataset.CreatePath(group, "data")))
	require.NoError(t, h.Enqueue(dataset.WriteAttribute(root, "version", dataset.MustNew("1.0.0"))))

	err := h.Flush(context.Background()).Err()
	requireErrorCode(t, dataset.ErrBackendInternal, err)

	// The failing task is gone; the task behind it is still queued.
	assert.Equal(t, 1, h.Pending())
	assert.Equal(t, []string{"CreateFile", "CreatePath"}, backend.calls)
	assert.False(t, group.Written())

	// The next flush resumes with the surviving tail, without retrying
	// the dropped mutation.
	require.NoError(t, h.Flush(context.Background()).Err())
	assert.Equal(t, 0, h.Pending())
	assert.Equal(t, []string{"CreateFile", "CreatePath", "WriteAttribute"}, backend.calls)
}

func TestIOHandler_CancelledContextLeavesQueueIntact(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Enqueue(dataset.WriteAttribute(root, "version", dataset.MustNew("1.0.0"))))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Flush(ctx).Err()
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, h.Pending())
	assert.Empty(t, backend.calls)

	// Tasks survive cancellation and run on the next flush.
	require.NoError(t, h.Flush(context.Background()).Err())
	assert.Equal(t, 0, h.Pending())
	assert.Equal(t, []string{"CreateFile", "WriteAttribute"}, backend.calls)
}

func TestIOHandler_NilTargetRejected(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	require.NoError(t, h.Enqueue(dataset.NewTask(dataset.OpCreateFile, nil, dataset.Params{})))
	requireErrorCode(t, dataset.ErrInvalidParameter, h.Flush(context.Background()).Err())
}

func TestIOHandler_CloseDrainsQueue(t *testing.T) {
	backend := &fakeBackend{}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	require.NoError(t, h.Enqueue(dataset.CreateFile(root, "run")))

	require.NoError(t, h.Close(context.Background()))
	assert.Equal(t, []string{"CreateFile"}, backend.calls)
	assert.True(t, backend.closed)

	// Closed handlers reject new work but tolerate repeated Close.
	requireErrorCode(t, dataset.ErrLogic, h.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, h.Close(context.Background()))
}

func TestIOHandler_CloseSurfacesBackendError(t *testing.T) {
	backend := &fakeBackend{closeErr: errors.New("handle leak")}
	h := dataset.NewIOHandler(backend, dataset.AccessReadWrite)

	requireErrorCode(t, dataset.ErrBackendInternal, h.Close(context.Background()))
}

func TestAccessMode_String(t *testing.T) {
	assert.Equal(t, "read-only", dataset.AccessReadOnly.String())
	assert.Equal(t, "read-write", dataset.AccessReadWrite.String())
	assert.Equal(t, "create", dataset.AccessCreate.String())
}
