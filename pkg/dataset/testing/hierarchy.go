package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

// RunHierarchyTests executes all group hierarchy tests.
func (suite *BackendTestSuite) RunHierarchyTests(t *testing.T) {
	t.Run("CreateNestedPath", suite.testHierarchyCreateNestedPath)
	t.Run("ListEmptyRoot", suite.testHierarchyListEmptyRoot)
	t.Run("OpenMissingPath", suite.testHierarchyOpenMissingPath)
	t.Run("SegmentIsDataset", suite.testHierarchySegmentIsDataset)
	t.Run("BaseIsDataset", suite.testHierarchyBaseIsDataset)
	t.Run("ListSeparatesKinds", suite.testHierarchyListSeparatesKinds)
	t.Run("DeleteSubtree", suite.testHierarchyDeleteSubtree)
	t.Run("DeleteSelf", suite.testHierarchyDeleteSelf)
}

func (suite *BackendTestSuite) testHierarchyCreateNestedPath(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	createGroup(t, h, root, "a/b/c")

	// Intermediate groups exist and are addressable.
	mid := dataset.NewWritable(root)
	enqueue(t, h, dataset.OpenPath(mid, "a/b"))
	flush(t, h)
	require.True(t, mid.Written())

	list, slot := dataset.ListPaths(root)
	enqueue(t, h, list)
	flush(t, h)
	names, ok := slot.Load()
	require.True(t, ok)
	require.Equal(t, []string{"a"}, names)
}

func (suite *BackendTestSuite) testHierarchyListEmptyRoot(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	// A fresh file root has no children; its own record must not leak
	// into the listings.
	root := createFile(t, h, "run")
	paths, pathSlot := dataset.ListPaths(root)
	datasets, dsSlot := dataset.ListDatasets(root)
	enqueue(t, h, paths, datasets)
	flush(t, h)

	groups, ok := pathSlot.Load()
	require.True(t, ok)
	require.Empty(t, groups)

	ds, ok := dsSlot.Load()
	require.True(t, ok)
	require.Empty(t, ds)
}

func (suite *BackendTestSuite) testHierarchyOpenMissingPath(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	node := dataset.NewWritable(root)
	enqueue(t, h, dataset.OpenPath(node, "absent"))
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))
}

func (suite *BackendTestSuite) testHierarchySegmentIsDataset(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	createDataset(t, h, root, "x", dataset.Float64, dataset.Extent{2})

	node := dataset.NewWritable(root)
	enqueue(t, h, dataset.CreatePath(node, "x/sub"))
	AssertErrorCode(t, dataset.ErrLogic, flushErr(t, h))
}

func (suite *BackendTestSuite) testHierarchyBaseIsDataset(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	ds := createDataset(t, h, root, "x", dataset.Float64, dataset.Extent{2})

	// The base node the path is created under must itself be a group;
	// a node parented to a dataset resolves to the dataset's position.
	node := dataset.NewWritable(ds)
	enqueue(t, h, dataset.CreatePath(node, "sub"))
	AssertErrorCode(t, dataset.ErrLogic, flushErr(t, h))

	list, slot := dataset.ListPaths(root)
	enqueue(t, h, list)
	flush(t, h)
	names, ok := slot.Load()
	require.True(t, ok)
	require.Empty(t, names)
}

func (suite *BackendTestSuite) testHierarchyListSeparatesKinds(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	createGroup(t, h, root, "zeta")
	createGroup(t, h, root, "alpha")
	createDataset(t, h, root, "values", dataset.Int32, dataset.Extent{4})

	paths, pathSlot := dataset.ListPaths(root)
	datasets, dsSlot := dataset.ListDatasets(root)
	enqueue(t, h, paths, datasets)
	flush(t, h)

	groups, ok := pathSlot.Load()
	require.True(t, ok)
	require.Equal(t, []string{"alpha", "zeta"}, groups)

	ds, ok := dsSlot.Load()
	require.True(t, ok)
	require.Equal(t, []string{"values"}, ds)
}

func (suite *BackendTestSuite) testHierarchyDeleteSubtree(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	top := createGroup(t, h, root, "a")
	inner := createGroup(t, h, top, "b")
	createDataset(t, h, inner, "x", dataset.Float32, dataset.Extent{2})

	// Deleting the top group takes its descendants with it.
	enqueue(t, h, dataset.DeletePath(top, "."))
	flush(t, h)
	require.False(t, top.Written())

	node := dataset.NewWritable(root)
	enqueue(t, h, dataset.OpenPath(node, "a/b"))
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))

	list, slot := dataset.ListPaths(root)
	enqueue(t, h, list)
	flush(t, h)
	names, ok := slot.Load()
	require.True(t, ok)
	require.Empty(t, names)
}

func (suite *BackendTestSuite) testHierarchyDeleteSelf(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	root := createFile(t, h, "run")
	g := createGroup(t, h, root, "a")

	// "." addresses the node carrying the task itself.
	enqueue(t, h, dataset.DeletePath(g, "."))
	flush(t, h)
	require.False(t, g.Written())

	node := dataset.NewWritable(root)
	enqueue(t, h, dataset.OpenPath(node, "a"))
	AssertErrorCode(t, dataset.ErrNoSuchFile, flushErr(t, h))
}
