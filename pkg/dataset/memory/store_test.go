package memory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/strata/pkg/dataset"
	dstesting "github.com/marmos91/strata/pkg/dataset/testing"
)

func TestMemoryBackend_Suite(t *testing.T) {
	suite := &dstesting.BackendTestSuite{
		NewHandler: func(t *testing.T, mode dataset.AccessMode) *dataset.IOHandler {
			return dataset.NewIOHandler(New(Config{Mode: mode}), mode)
		},
	}
	suite.Run(t)
}

// Two backends must not share state: each New call owns a private tree.
func TestMemoryBackend_Isolation(t *testing.T) {
	ha := dataset.NewIOHandler(New(Config{Mode: dataset.AccessReadWrite}), dataset.AccessReadWrite)
	hb := dataset.NewIOHandler(New(Config{Mode: dataset.AccessReadWrite}), dataset.AccessReadWrite)

	root := dataset.NewWritable(nil)
	require.NoError(t, ha.Enqueue(dataset.CreateFile(root, "run")))
	require.NoError(t, ha.Flush(t.Context()).Err())

	other := dataset.NewWritable(nil)
	require.NoError(t, hb.Enqueue(dataset.OpenFile(other, "run")))
	err := hb.Flush(t.Context()).Err()
	require.Error(t, err)
	code, ok := dataset.CodeOf(err)
	require.True(t, ok)
	require.Equal(t, dataset.ErrNoSuchFile, code)
}
