// Package dataset is the backend-agnostic I/O abstraction for
// hierarchical scientific data: a labelled tree of groups, typed
// attributes, and large multi-dimensional arrays, persisted through one
// of several interchangeable storage backends.
//
// The package deliberately performs no I/O of its own. The domain model
// builds Attribute values and IOTask records against Writable nodes and
// appends them to an IOHandler's queue; a later Flush drains the queue
// in FIFO order and dispatches each task to the configured Backend,
// which updates node state (position tokens, written flags via the
// handler) as a side effect.
//
// Concrete backends live in the subpackages memory, badger and s3; all
// of them satisfy the Backend contract and pass the shared suite in
// pkg/dataset/testing.
package dataset
