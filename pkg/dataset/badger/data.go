package badger

import (
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/strata/pkg/dataset"
	"github.com/marmos91/strata/pkg/dataset/codec"
)

// datasetShape loads the node record at (file, path) inside txn and
// returns its stored datatype and extent.
func datasetShape(txn *badger.Txn, file, path string) (dataset.Datatype, dataset.Extent, error) {
	rec, err := getNode(txn, file, path)
	if err != nil {
		return dataset.Undefined, nil, err
	}
	if rec.Kind != codec.KindDataset {
		return dataset.Undefined, nil, &dataset.Error{
			Code:    dataset.ErrLogic,
			Message: "entry is not a dataset",
			Path:    file + ":" + path,
		}
	}
	return rec.DatasetShape()
}

// getData reads the full dataset payload at (file, path).
func getData(txn *badger.Txn, file, path string) ([]byte, error) {
	item, err := txn.Get(dataKey(file, path))
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, &dataset.Error{
				Code:    dataset.ErrNoSuchFile,
				Message: "dataset payload does not exist",
				Path:    file + ":" + path,
			}
		}
		return nil, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "reading dataset payload",
			Path:    file + ":" + path,
			Err:     err,
		}
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return nil, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "reading dataset payload value",
			Path:    file + ":" + path,
			Err:     err,
		}
	}
	return raw, nil
}

// ExtendDataset grows a dataset to a new extent. Only the first
// dimension may grow; the payload is zero-filled in the grown region.
func (b *Backend) ExtendDataset(w *dataset.Writable, p dataset.Params) error {
	extent, err := p.Extent(dataset.ParamExtent)
	if err != nil {
		return err
	}
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		dtype, cur, err := datasetShape(txn, pos.File, pos.Path)
		if err != nil {
			return err
		}
		if err := dataset.ValidateExtension(cur, extent); err != nil {
			return err
		}
		raw, err := getData(txn, pos.File, pos.Path)
		if err != nil {
			return err
		}
		grown := make([]byte, extent.Bytes(dtype))
		copy(grown, raw)
		if err := txn.Set(dataKey(pos.File, pos.Path), grown); err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "writing extended payload",
				Path:    pos.Location(),
				Err:     err,
			}
		}
		return setNode(txn, pos.File, pos.Path, codec.DatasetRecord(dtype, extent))
	})
}

// WriteDataset splices one contiguous chunk into the stored payload via
// read-modify-write of the data key.
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
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	return b.db.Update(func(txn *badger.Txn) error {
		dtype, shape, err := datasetShape(txn, pos.File, pos.Path)
		if err != nil {
			return err
		}
		start, length, err := dataset.ChunkRange(shape, dtype, offset, extent)
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
		raw, err := getData(txn, pos.File, pos.Path)
		if err != nil {
			return err
		}
		copy(raw[start:start+length], data)
		if err := txn.Set(dataKey(pos.File, pos.Path), raw); err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "writing dataset payload",
				Path:    pos.Location(),
				Err:     err,
			}
		}
		return nil
	})
}

// ReadDataset copies one contiguous chunk out of the stored payload.
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
	pos, err := resolve(w)
	if err != nil {
		return err
	}

	return b.db.View(func(txn *badger.Txn) error {
		dtype, shape, err := datasetShape(txn, pos.File, pos.Path)
		if err != nil {
			return err
		}
		start, length, err := dataset.ChunkRange(shape, dtype, offset, extent)
		if err != nil {
			return err
		}
		raw, err := getData(txn, pos.File, pos.Path)
		if err != nil {
			return err
		}
		chunk := make([]byte, length)
		copy(chunk, raw[start:start+length])
		out.Store(chunk)
		return nil
	})
}

// WriteAttribute persists one attribute on the node at w's resolved
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

	raw, err := codec.MarshalAttribute(att)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := getNode(txn, pos.File, pos.Path); err != nil {
			return err
		}
		if err := txn.Set(attrKey(pos.File, pos.Path, name), raw); err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "writing attribute record",
				Path:    pos.Location() + "@" + name,
				Err:     err,
			}
		}
		return nil
	})
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

	return b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(attrKey(pos.File, pos.Path, name))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return &dataset.Error{
					Code:    dataset.ErrNoSuchFile,
					Message: "attribute does not exist",
					Path:    pos.Location() + "@" + name,
				}
			}
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "reading attribute record",
				Path:    pos.Location() + "@" + name,
				Err:     err,
			}
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "reading attribute record value",
				Path:    pos.Location() + "@" + name,
				Err:     err,
			}
		}
		att, err := codec.UnmarshalAttribute(raw)
		if err != nil {
			return err
		}
		out.Store(att)
		return nil
	})
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

	return b.db.Update(func(txn *badger.Txn) error {
		k := attrKey(pos.File, pos.Path, name)
		if _, err := txn.Get(k); err != nil {
			if err == badger.ErrKeyNotFound {
				return &dataset.Error{
					Code:    dataset.ErrNoSuchFile,
					Message: "attribute does not exist",
					Path:    pos.Location() + "@" + name,
				}
			}
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "reading attribute record",
				Path:    pos.Location() + "@" + name,
				Err:     err,
			}
		}
		if err := txn.Delete(k); err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "deleting attribute record",
				Path:    pos.Location() + "@" + name,
				Err:     err,
			}
		}
		return nil
	})
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

	var names []string
	err = b.db.View(func(txn *badger.Txn) error {
		if _, err := getNode(txn, pos.File, pos.Path); err != nil {
			return err
		}
		prefix := attrPrefix(pos.File, pos.Path)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			names = append(names, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return err
	}
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	out.Store(names)
	return nil
}
