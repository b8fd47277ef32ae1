package memory

import (
	"fmt"
	"sort"

	"github.com/marmos91/strata/pkg/dataset"
)

// datasetAt returns the dataset node at w's resolved position. Callers
// must hold the lock.
func (b *Backend) datasetAt(w *dataset.Writable) (*node, *dataset.PathPosition, error) {
	pos, err := resolve(w)
	if err != nil {
		return nil, nil, err
	}
	n, err := b.nodeAt(pos)
	if err != nil {
		return nil, nil, err
	}
	if n.kind != kindDataset {
		return nil, nil, &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "entry is not a dataset",
			Path:    pos.Location(),
		}
	}
	return n, pos, nil
}

// ExtendDataset grows a dataset to a new extent. Only the first
// dimension may grow; the payload is zero-filled in the grown region.
func (b *Backend) ExtendDataset(w *dataset.Writable, p dataset.Params) error {
	extent, err := p.Extent(dataset.ParamExtent)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n, _, err := b.datasetAt(w)
	if err != nil {
		return err
	}
	if err := dataset.ValidateExtension(n.extent, extent); err != nil {
		return err
	}
	grown := make([]byte, extent.Bytes(n.dtype))
	copy(grown, n.data)
	n.data = grown
	n.extent = append(dataset.Extent(nil), extent...)
	return nil
}

// WriteDataset splices one contiguous chunk into the payload.
func (b *Backend) WriteDataset(w *dataset.Writable, p dataset.Params) error {
	offset, err := p.Offset(dataset.ParamOffset)
	if err != nil {
		return err
	}
	extent, err := p.Extent(dataset.ParamExtent)
	if err != nil {
		return err
	}
	data, err := p.Data(dataset.ParamData)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n, pos, err := b.datasetAt(w)
	if err != nil {
		return err
	}
	start, length, err := dataset.ChunkRange(n.extent, n.dtype, offset, extent)
	if err != nil {
		return err
	}
	if uint64(len(data)) != length {
		return &dataset.Error{
			Code:    dataset.ErrInvalidParameter,
			Message: fmt.Sprintf("chunk payload is %d bytes, selection spans %d", len(data), length),
			Path:    pos.Location(),
		}
	}
	copy(n.data[start:start+length], data)
	return nil
}

// ReadDataset copies one contiguous chunk out of the payload.
func (b *Backend) ReadDataset(w *dataset.Writable, p dataset.Params) error {
	offset, err := p.Offset(dataset.ParamOffset)
	if err != nil {
		return err
	}
	extent, err := p.Extent(dataset.ParamExtent)
	if err != nil {
		return err
	}
	out, err := dataset.Out[[]byte](p, dataset.ParamData)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	n, _, err := b.datasetAt(w)
	if err != nil {
		return err
	}
	start, length, err := dataset.ChunkRange(n.extent, n.dtype, offset, extent)
	if err != nil {
		return err
	}
	chunk := make([]byte, length)
	copy(chunk, n.data[start:start+length])
	out.Store(chunk)
	return nil
}

// WriteAttribute sets one attribute on the node at w's resolved
// position.
func (b *Backend) WriteAttribute(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}
	att, err := p.Attr(dataset.ParamAttribute)
	if err != nil {
		return err
	}
	if !att.Defined() {
		return &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "cannot persist an undefined attribute",
			Path:    name,
		}
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := b.nodeAt(pos)
	if err != nil {
		return err
	}
	n.attrs[name] = att
	return nil
}

// ReadAttribute loads one attribute from the node at w's resolved
// position.
func (b *Backend) ReadAttribute(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}
	out, err := dataset.Out[dataset.Attribute](p, dataset.ParamAttribute)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.nodeAt(pos)
	if err != nil {
		return err
	}
	att, exists := n.attrs[name]
	if !exists {
		return &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "attribute does not exist",
			Path:    pos.Location() + "@" + name,
		}
	}
	out.Store(att)
	return nil
}

// DeleteAttribute removes one attribute from the node at w's resolved
// position.
func (b *Backend) DeleteAttribute(w *dataset.Writable, p dataset.Params) error {
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

	n, err := b.nodeAt(pos)
	if err != nil {
		return err
	}
	if _, exists := n.attrs[name]; !exists {
		return &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "attribute does not exist",
			Path:    pos.Location() + "@" + name,
		}
	}
	delete(n.attrs, name)
	return nil
}

// ListAttributes reports the sorted attribute names of the node at w's
// resolved position.
func (b *Backend) ListAttributes(w *dataset.Writable, p dataset.Params) error {
	out, err := dataset.Out[[]string](p, dataset.ParamAttributes)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	n, err := b.nodeAt(pos)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(n.attrs))
	for name := range n.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	out.Store(names)
	return nil
}
