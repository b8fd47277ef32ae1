package badger

import (
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/strata/pkg/dataset"
	"github.com/marmos91/strata/pkg/dataset/codec"
)

// joinPath appends a relative path ("a/b", ".", "") to a base inner
// path.
func joinPath(base, rel string) string {
	out := base
	for _, seg := range strings.Split(strings.Trim(rel, "/"), "/") {
		if seg == "" || seg == "." {
			continue
		}
		if out == "/" {
			out = "/" + seg
		} else {
			out = out + "/" + seg
		}
	}
	return out
}

// CreatePath creates the group path below w's resolved position,
// materializing intermediate groups, and assigns w the final position.
func (b *Backend) CreatePath(w *dataset.Writable, p dataset.Params) error {
	path, err := p.Text(dataset.ParamPath)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	final := pos.Path
	err = b.db.Update(func(txn *badger.Txn) error {
		base, err := getNode(txn, pos.File, pos.Path)
		if err != nil {
			return err
		}
		if base.Kind != codec.KindGroup {
			return &dataset.Error{
				Code:    dataset.ErrLogic,
				Message: "base entry is not a group",
				Path:    pos.Location(),
			}
		}
		cur := pos.Path
		for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
			if seg == "" || seg == "." {
				continue
			}
			cur = joinPath(cur, seg)
			rec, err := getNode(txn, pos.File, cur)
			if err != nil {
				if code, ok := dataset.CodeOf(err); !ok || code != dataset.ErrNoSuchFile {
					return err
				}
				if err := setNode(txn, pos.File, cur, codec.NodeRecord{Kind: codec.KindGroup}); err != nil {
					return err
				}
			} else if rec.Kind != codec.KindGroup {
				return &dataset.Error{
					Code:    dataset.ErrLogic,
					Message: "path segment exists as a dataset",
					Path:    pos.File + ":" + cur,
				}
			}
		}
		final = cur
		return nil
	})
	if err != nil {
		return err
	}
	w.SetPosition(&dataset.PathPosition{File: pos.File, Path: final})
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

	target := joinPath(pos.Path, path)
	err = b.db.View(func(txn *badger.Txn) error {
		rec, err := getNode(txn, pos.File, target)
		if err != nil {
			return err
		}
		if rec.Kind != codec.KindGroup {
			return &dataset.Error{
				Code:    dataset.ErrLogic,
				Message: "entry is not a group",
				Path:    pos.File + ":" + target,
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.SetPosition(&dataset.PathPosition{File: pos.File, Path: target})
	return nil
}

// CreateDataset creates a dataset node plus its zero-filled payload.
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

	target := joinPath(pos.Path, name)
	err = b.db.Update(func(txn *badger.Txn) error {
		parent, err := getNode(txn, pos.File, pos.Path)
		if err != nil {
			return err
		}
		if parent.Kind != codec.KindGroup {
			return &dataset.Error{
				Code:    dataset.ErrLogic,
				Message: "parent entry is not a group",
				Path:    pos.Location(),
			}
		}
		if err := setNode(txn, pos.File, target, codec.DatasetRecord(dtype, extent)); err != nil {
			return err
		}
		if err := txn.Set(dataKey(pos.File, target), make([]byte, extent.Bytes(dtype))); err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "writing dataset payload",
				Path:    pos.File + ":" + target,
				Err:     err,
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.SetPosition(&dataset.PathPosition{File: pos.File, Path: target})
	return nil
}

// OpenDataset binds w to an existing dataset and reports its stored
// shape through the task's output slots.
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

	target := joinPath(pos.Path, name)
	err = b.db.View(func(txn *badger.Txn) error {
		rec, err := getNode(txn, pos.File, target)
		if err != nil {
			return err
		}
		if rec.Kind != codec.KindDataset {
			return &dataset.Error{
				Code:    dataset.ErrLogic,
				Message: "entry is not a dataset",
				Path:    pos.File + ":" + target,
			}
		}
		dtype, extent, err := rec.DatasetShape()
		if err != nil {
			return err
		}
		dtypeOut.Store(dtype)
		extentOut.Store(extent)
		return nil
	})
	if err != nil {
		return err
	}
	w.SetPosition(&dataset.PathPosition{File: pos.File, Path: target})
	return nil
}

// deleteSubtree removes the node at (file, path), its payload and
// attributes, and everything below it.
func (b *Backend) deleteSubtree(file, path string, want codec.NodeKind) error {
	err := b.db.View(func(txn *badger.Txn) error {
		rec, err := getNode(txn, file, path)
		if err != nil {
			return err
		}
		if rec.Kind != want {
			return &dataset.Error{
				Code:    dataset.ErrLogic,
				Message: "entry has the wrong kind for this delete",
				Path:    file + ":" + path,
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	base := path
	if base == "/" {
		base = ""
	}
	prefixes := [][]byte{
		childNodePrefix(file, path),
		key(nsData, file, base+"/"),
		key(nsAttr, file, base+"/"),
		attrPrefix(file, path),
	}
	if err := b.db.DropPrefix(prefixes...); err != nil {
		return &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "dropping subtree keys",
			Path:    file + ":" + path,
			Err:     err,
		}
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(nodeKey(file, path)); err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "deleting node record",
				Path:    file + ":" + path,
				Err:     err,
			}
		}
		if err := txn.Delete(dataKey(file, path)); err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "deleting dataset payload",
				Path:    file + ":" + path,
				Err:     err,
			}
		}
		return nil
	})
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
	return b.deleteSubtree(pos.File, joinPath(pos.Path, path), codec.KindGroup)
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
	return b.deleteSubtree(pos.File, joinPath(pos.Path, name), codec.KindDataset)
}

// listChildren scans the direct children of w's node and returns the
// sorted names of those matching the wanted kind.
func (b *Backend) listChildren(w *dataset.Writable, want codec.NodeKind) ([]string, error) {
	pos, err := resolve(w)
	if err != nil {
		return nil, err
	}

	var names []string
	err = b.db.View(func(txn *badger.Txn) error {
		if _, err := getNode(txn, pos.File, pos.Path); err != nil {
			return err
		}

		prefix := childNodePrefix(pos.File, pos.Path)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			rest := string(item.Key()[len(prefix):])
			if rest == "" {
				// For the file root the child prefix equals the root's
				// own node key, so the iterator yields it first.
				continue
			}
			if strings.Contains(rest, "/") {
				// Not a direct child.
				continue
			}
			raw, err := item.ValueCopy(nil)
			if err != nil {
				return &dataset.Error{
					Code:    dataset.ErrBackendInternal,
					Message: "reading node record value",
					Path:    pos.Location(),
					Err:     err,
				}
			}
			rec, err := codec.UnmarshalNode(raw)
			if err != nil {
				return err
			}
			if rec.Kind == want {
				names = append(names, rest)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// ListPaths reports the child groups of w.
func (b *Backend) ListPaths(w *dataset.Writable, p dataset.Params) error {
	out, err := dataset.Out[[]string](p, dataset.ParamPaths)
	if err != nil {
		return err
	}
	names, err := b.listChildren(w, codec.KindGroup)
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
	names, err := b.listChildren(w, codec.KindDataset)
	if err != nil {
		return err
	}
	out.Store(names)
	return nil
}
