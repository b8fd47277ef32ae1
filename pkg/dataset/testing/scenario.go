package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
)

// RunEndToEndTest drives one full producer/consumer cycle: build a
// small hierarchy with deferred tasks, flush once, then reopen
// everything through fresh nodes and verify what storage returns.
func (suite *BackendTestSuite) RunEndToEndTest(t *testing.T) {
	h := suite.NewHandler(t, dataset.AccessReadWrite)
	defer h.Close(t.Context())

	// Producer side: everything is queued before a single byte hits
	// the backend.
	root := dataset.NewWritable(nil)
	group := dataset.NewWritable(root)
	ds := dataset.NewWritable(group)

	payload, _, err := dataset.PackValues([]float64{0.5, 1.5, 2.5, 3.5})
	require.NoError(t, err)

	enqueue(t, h,
		dataset.CreateFile(root, "run"),
		dataset.CreatePath(group, "data"),
		dataset.CreateDataset(ds, "x", dataset.Float64, dataset.Extent{4}),
		dataset.WriteAttribute(root, "version", dataset.MustNew("1.1.0")),
		dataset.WriteAttribute(ds, "unit", dataset.MustNew("meters")),
		dataset.WriteDataset(ds, dataset.Offset{0}, dataset.Extent{4}, payload),
	)
	require.Equal(t, 6, h.Pending())
	flush(t, h)
	require.Equal(t, 0, h.Pending())

	// Consumer side: a fresh node tree over the same storage.
	file := dataset.NewWritable(nil)
	enqueue(t, h, dataset.OpenFile(file, "run"))

	groups, groupSlot := dataset.ListPaths(file)
	enqueue(t, h, groups)
	flush(t, h)
	names, ok := groupSlot.Load()
	require.True(t, ok)
	require.Equal(t, []string{"data"}, names)

	g := dataset.NewWritable(file)
	enqueue(t, h, dataset.OpenPath(g, "data"))

	d := dataset.NewWritable(g)
	open, dtypeSlot, extentSlot := dataset.OpenDataset(d, "x")
	enqueue(t, h, open)
	flush(t, h)

	dtype, ok := dtypeSlot.Load()
	require.True(t, ok)
	require.Equal(t, dataset.Float64, dtype)
	extent, ok := extentSlot.Load()
	require.True(t, ok)
	require.Equal(t, dataset.Extent{4}, extent)

	readAttr, attrSlot := dataset.ReadAttribute(d, "unit")
	readData, dataSlot := dataset.ReadDataset(d, dataset.Offset{1}, dataset.Extent{2})
	enqueue(t, h, readAttr, readData)
	flush(t, h)

	att, ok := attrSlot.Load()
	require.True(t, ok)
	unit, err := dataset.Get[string](att)
	require.NoError(t, err)
	require.Equal(t, "meters", unit)

	raw, ok := dataSlot.Load()
	require.True(t, ok)
	values, err := dataset.UnpackValues(dataset.Float64, raw)
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.5}, values)
}
