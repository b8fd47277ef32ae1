package memory

import (
	"sort"

	"github.com/marmos91/strata/pkg/dataset"
)

// CreatePath creates the (possibly nested) group path below w's
// resolved position, creating intermediate groups as needed, and
// assigns w the position of the final segment.
func (b *Backend) CreatePath(w *dataset.Writable, p dataset.Params) error {
	path, err := p.Text(dataset.ParamPath)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	cur, err := b.nodeAt(pos)
	if err != nil {
		return err
	}
	if cur.kind != kindGroup {
		return &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "base entry is not a group",
			Path:    pos.Location(),
		}
	}
	curPos := pos
	for _, seg := range splitPath(path) {
		next, exists := cur.children[seg]
		if !exists {
			next = newGroup()
			cur.children[seg] = next
		} else if next.kind != kindGroup {
			return &dataset.Error{
				Code:    dataset.ErrLogic,
				Message: "path segment exists as a dataset",
				Path:    curPos.Child(seg).Location(),
			}
		}
		cur = next
		curPos = curPos.Child(seg)
	}
	w.SetPosition(curPos)
	return nil
}

// OpenPath binds w to an existing group below its resolved position.
func (b *Backend) OpenPath(w *dataset.Writable, p dataset.Params) error {
	path, err := p.Text(dataset.ParamPath)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	curPos := pos
	for _, seg := range splitPath(path) {
		curPos = curPos.Child(seg)
	}
	n, err := b.nodeAt(curPos)
	if err != nil {
		return err
	}
	if n.kind != kindGroup {
		return &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "entry is not a group",
			Path:    curPos.Location(),
		}
	}
	w.SetPosition(curPos)
	return nil
}

// CreateDataset creates a zero-filled dataset entry below w's resolved
// position.
func (b *Backend) CreateDataset(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}
	dtype, err := p.Dtype(dataset.ParamDtype)
	if err != nil {
		return err
	}
	extent, err := p.Extent(dataset.ParamExtent)
	if err != nil {
		return err
	}
	if dtype.Size() == 0 {
		return &dataset.Error{
			Code:    dataset.ErrUnsupported,
			Message: "datatype cannot form a dataset payload",
			Path:    dtype.String(),
		}
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	parent, err := b.nodeAt(pos)
	if err != nil {
		return err
	}
	if parent.kind != kindGroup {
		return &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "parent entry is not a group",
			Path:    pos.Location(),
		}
	}
	if existing, exists := parent.children[name]; exists && existing.kind != kindDataset {
		return &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "entry exists as a group",
			Path:    pos.Child(name).Location(),
		}
	}
	parent.children[name] = &node{
		kind:   kindDataset,
		attrs:  make(map[string]dataset.Attribute),
		dtype:  dtype,
		extent: extent,
		data:   make([]byte, extent.Bytes(dtype)),
	}
	w.SetPosition(pos.Child(name))
	return nil
}

// OpenDataset binds w to an existing dataset and reports its stored
// datatype and extent through the task's output slots.
func (b *Backend) OpenDataset(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}
	dtypeOut, err := dataset.Out[dataset.Datatype](p, dataset.ParamDtype)
	if err != nil {
		return err
	}
	extentOut, err := dataset.Out[dataset.Extent](p, dataset.ParamExtent)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	dsPos := pos.Child(name)
	n, err := b.nodeAt(dsPos)
	if err != nil {
		return err
	}
	if n.kind != kindDataset {
		return &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "entry is not a dataset",
			Path:    dsPos.Location(),
		}
	}
	dtypeOut.Store(n.dtype)
	extentOut.Store(append(dataset.Extent(nil), n.extent...))
	w.SetPosition(dsPos)
	return nil
}

// deleteChild removes the named entry below pos, enforcing the expected
// kind.
func (b *Backend) deleteChild(pos *dataset.PathPosition, rel string, want nodeKind) error {
	// "." and "" address the node w itself rather than a child.
	target := pos
	for _, seg := range splitPath(rel) {
		if seg == "." {
			continue
		}
		target = target.Child(seg)
	}
	segs := splitPath(target.Path)
	if len(segs) == 0 {
		return &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "cannot delete the file root as a path",
			Path:    target.Location(),
		}
	}
	parentPos := &dataset.PathPosition{
		File: target.File,
		Path: "/" + joinSegments(segs[:len(segs)-1]),
	}
	parent, err := b.nodeAt(parentPos)
	if err != nil {
		return err
	}
	name := segs[len(segs)-1]
	n, exists := parent.children[name]
	if !exists {
		return &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "entry does not exist",
			Path:    target.Location(),
		}
	}
	if n.kind != want {
		return &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "entry has the wrong kind for this delete",
			Path:    target.Location(),
		}
	}
	delete(parent.children, name)
	return nil
}

func joinSegments(segs []string) string {
	out := ""
	for i, s := range segs {
		if i > 0 {
			out += "/"
		}
		out += s
	}
	return out
}

// DeletePath removes a group subtree.
func (b *Backend) DeletePath(w *dataset.Writable, p dataset.Params) error {
	path, err := p.Text(dataset.ParamPath)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.deleteChild(pos, path, kindGroup)
}

// DeleteDataset removes a dataset entry.
func (b *Backend) DeleteDataset(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.deleteChild(pos, name, kindDataset)
}

// listChildren returns the sorted names of children of the given kind.
func (b *Backend) listChildren(w *dataset.Writable, want nodeKind) ([]string, error) {
	pos, err := resolve(w)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.nodeAt(pos)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(n.children))
	for name, child := range n.children {
		if child.kind == want {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// ListPaths reports the child groups of w.
func (b *Backend) ListPaths(w *dataset.Writable, p dataset.Params) error {
	out, err := dataset.Out[[]string](p, dataset.ParamPaths)
	if err != nil {
		return err
	}
	names, err := b.listChildren(w, kindGroup)
	if err != nil {
		return err
	}
	out.Store(names)
	return nil
}

// ListDatasets reports the child datasets of w.
func (b *Backend) ListDatasets(w *dataset.Writable, p dataset.Params) error {
	out, err := dataset.Out[[]string](p, dataset.ParamDatasets)
	if err != nil {
		return err
	}
	names, err := b.listChildren(w, kindDataset)
	if err != nil {
		return err
	}
	out.Store(names)
	return nil
}
