package s3

import (
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/strata/pkg/dataset"
	"github.com/marmos91/strata/pkg/dataset/codec"
)

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

	base, err := b.getNode(pos.File, pos.Path)
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

	raw, err := codec.MarshalNode(codec.NodeRecord{Kind: codec.KindGroup})
	if err != nil {
		return err
	}

	cur := pos.Path
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if seg == "" || seg == "." {
			continue
		}
		cur = joinPath(cur, seg)
		rec, err := b.getNode(pos.File, cur)
		if err != nil {
			if code, ok := dataset.CodeOf(err); !ok || code != dataset.ErrNoSuchFile {
				return err
			}
			if err := b.putObject(b.nodeKey(pos.File, cur, codec.KindGroup), raw, pos.File+":"+cur); err != nil {
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

	w.SetPosition(&dataset.PathPosition{File: pos.File, Path: cur})
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
	rec, err := b.getNode(pos.File, target)
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

	parent, err := b.getNode(pos.File, pos.Path)
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

	target := joinPath(pos.Path, name)
	location := pos.File + ":" + target
	raw, err := codec.MarshalNode(codec.DatasetRecord(dtype, extent))
	if err != nil {
		return err
	}
	if err := b.putObject(b.nodeKey(pos.File, target, codec.KindDataset), raw, location); err != nil {
		return err
	}
	if err := b.putObject(b.dataKey(pos.File, target), make([]byte, extent.Bytes(dtype)), location); err != nil {
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
	rec, err := b.getNode(pos.File, target)
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

	w.SetPosition(&dataset.PathPosition{File: pos.File, Path: target})
	return nil
}

// deleteSubtree removes the node at (file, path) and everything below
// it.
func (b *Backend) deleteSubtree(file, path string, want codec.NodeKind) error {
	rec, err := b.getNode(file, path)
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
	// Node markers, payload and attributes all live under the node's
	// key directory, so one prefix delete covers the whole subtree.
	return b.deletePrefix(b.baseKey(file, path)+"/", file+":"+path)
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

// listChildren scans the direct children of w's node with a delimited
// list and returns the sorted names of those matching the wanted kind.
func (b *Backend) listChildren(w *dataset.Writable, want codec.NodeKind) ([]string, error) {
	pos, err := resolve(w)
	if err != nil {
		return nil, err
	}
	if _, err := b.getNode(pos.File, pos.Path); err != nil {
		return nil, err
	}

	base := b.baseKey(pos.File, pos.Path) + "/"

	ctx, cancel := b.opCtx()
	defer cancel()

	var dirs []string
	paginator := awss3.NewListObjectsV2Paginator(b.client, &awss3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(base),
		Delimiter: aws.String("/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "listing child objects",
				Path:    pos.Location(),
				Err:     err,
			}
		}
		for _, cp := range page.CommonPrefixes {
			if cp.Prefix == nil {
				continue
			}
			name := strings.TrimSuffix(strings.TrimPrefix(*cp.Prefix, base), "/")
			if name == "" || name == attrDir {
				continue
			}
			dirs = append(dirs, name)
		}
	}

	names := []string{}
	for _, name := range dirs {
		child := joinPath(pos.Path, name)
		exists, err := b.objectExists(b.nodeKey(pos.File, child, want), pos.File+":"+child)
		if err != nil {
			return nil, err
		}
		if exists {
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
