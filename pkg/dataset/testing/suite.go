// Package testing provides a reusable conformance suite for Backend
// implementations. It tests the interface contract through the
// IOHandler queue, not implementation details, so every backend
// (memory, badger, s3) runs the same assertions.
package testing

import (
	"testing"

	"github.com/marmos91/strata/pkg/dataset"
)

// BackendTestSuite exercises one Backend implementation through a
// fresh IOHandler per test.
type BackendTestSuite struct {
	// NewHandler is a factory returning a fresh handler over a fresh
	// backend in the given access mode. Each call must yield isolated
	// storage; the suite never shares state between tests.
	NewHandler func(t *testing.T, mode dataset.AccessMode) *dataset.IOHandler
}

// Run executes all conformance tests in the suite.
func (suite *BackendTestSuite) Run(test *testing.T) {
	test.Run("Files", suite.RunFileTests)
	test.Run("Hierarchy", suite.RunHierarchyTests)
	test.Run("Datasets", suite.RunDatasetTests)
	test.Run("Attributes", suite.RunAttributeTests)
	test.Run("EndToEnd", suite.RunEndToEndTest)
}
