// Package memory implements the dataset.Backend contract with an
// in-memory tree per file. It is the reference backend: fast, complete
// over the full operation vocabulary, and the vehicle for the shared
// contract test suite. Nothing survives process exit.
package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/marmos91/strata/pkg/dataset"
)

// Backend holds one tree of nodes per created or opened file.
//
// Thread Safety:
// All operations are protected by a single read-write mutex. The
// dispatch loop is single-threaded, but the same backend instance may
// be inspected concurrently (e.g. by tests), and the coarse lock keeps
// that correct and simple.
type Backend struct {
	mu    sync.RWMutex
	mode  dataset.AccessMode
	files map[string]*node
}

// nodeKind classifies a tree entry.
type nodeKind int

const (
	kindGroup nodeKind = iota
	kindDataset
)

// node is one entry of the in-memory hierarchy.
type node struct {
	kind     nodeKind
	children map[string]*node
	attrs    map[string]dataset.Attribute

	// dataset-only fields
	dtype  dataset.Datatype
	extent dataset.Extent
	data   []byte
}

func newGroup() *node {
	return &node{
		kind:     kindGroup,
		children: make(map[string]*node),
		attrs:    make(map[string]dataset.Attribute),
	}
}

// Config contains configuration for creating a memory backend.
type Config struct {
	// Mode is the access mode the backend honors for file creation
	// semantics (truncate-if-exists under AccessCreate).
	Mode dataset.AccessMode
}

// New creates an empty memory backend.
func New(cfg Config) *Backend {
	return &Backend{
		mode:  cfg.Mode,
		files: make(map[string]*node),
	}
}

// Close implements dataset.Backend. The memory backend holds no native
// resources.
func (b *Backend) Close() error {
	return nil
}

// resolve returns the position token governing w, asserted to the
// path-shaped form this backend assigns.
func resolve(w *dataset.Writable) (*dataset.PathPosition, error) {
	pos, ok := dataset.ResolvePosition(w)
	if !ok {
		return nil, &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "no storage position resolvable for node",
		}
	}
	p, ok := pos.(*dataset.PathPosition)
	if !ok {
		return nil, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: fmt.Sprintf("foreign position token %T on node", pos),
		}
	}
	return p, nil
}

// splitPath decomposes an inner path into its segments. "/" and ""
// yield no segments.
func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// nodeAt walks from a file root to the entry at pos. Callers must hold
// the lock.
func (b *Backend) nodeAt(pos *dataset.PathPosition) (*node, error) {
	root, exists := b.files[pos.File]
	if !exists {
		return nil, &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "file does not exist",
			Path:    pos.File,
		}
	}
	cur := root
	for _, seg := range splitPath(pos.Path) {
		next, ok := cur.children[seg]
		if !ok {
			return nil, &dataset.Error{
				Code:    dataset.ErrNoSuchFile,
				Message: "path does not exist",
				Path:    pos.Location(),
			}
		}
		cur = next
	}
	return cur, nil
}

// CreateFile materializes a new file tree. Under AccessCreate an
// existing tree of the same name is truncated; otherwise it is reused
// as-is so replayed creations are harmless.
func (b *Backend) CreateFile(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.files[name]; !exists || b.mode == dataset.AccessCreate {
		b.files[name] = newGroup()
	}
	w.SetPosition(&dataset.PathPosition{File: name, Path: "/"})
	return nil
}

// OpenFile binds w to an existing file tree.
func (b *Backend) OpenFile(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.files[name]; !exists {
		return &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "file does not exist",
			Path:    name,
		}
	}
	w.SetPosition(&dataset.PathPosition{File: name, Path: "/"})
	return nil
}

// DeleteFile removes an entire file tree.
func (b *Backend) DeleteFile(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.files[name]; !exists {
		return &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "file does not exist",
			Path:    name,
		}
	}
	delete(b.files, name)
	return nil
}
