package badger

import (
	badger "github.com/dgraph-io/badger/v4"
	"github.com/marmos91/strata/pkg/dataset"
	"github.com/marmos91/strata/pkg/dataset/codec"
)

// CreateFile materializes a file: a marker key plus a root group node.
// Under AccessCreate an existing file of the same name is truncated
// first (fresh storage generation); otherwise an existing file is
// reused as-is so replayed creations are harmless.
func (b *Backend) CreateFile(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}

	if b.mode == dataset.AccessCreate {
		if err := b.dropFile(name); err != nil {
			return err
		}
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(fileKey(name))
		if getErr == nil {
			// Already materialized; nothing to do.
			return nil
		}
		if getErr != badger.ErrKeyNotFound {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "checking file marker",
				Path:    name,
				Err:     getErr,
			}
		}
		if err := txn.Set(fileKey(name), []byte{}); err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "writing file marker",
				Path:    name,
				Err:     err,
			}
		}
		return setNode(txn, name, "/", codec.NodeRecord{Kind: codec.KindGroup})
	})
	if err != nil {
		return err
	}
	w.SetPosition(&dataset.PathPosition{File: name, Path: "/"})
	return nil
}

// OpenFile binds w to an existing file.
func (b *Backend) OpenFile(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}

	err = b.db.View(func(txn *badger.Txn) error {
		_, getErr := txn.Get(fileKey(name))
		if getErr == badger.ErrKeyNotFound {
			return &dataset.Error{
				Code:    dataset.ErrNoSuchFile,
				Message: "file does not exist",
				Path:    name,
			}
		}
		if getErr != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "checking file marker",
				Path:    name,
				Err:     getErr,
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.SetPosition(&dataset.PathPosition{File: name, Path: "/"})
	return nil
}

// DeleteFile removes a file and every key below it.
func (b *Backend) DeleteFile(w *dataset.Writable, p dataset.Params) error {
	name, err := p.Text(dataset.ParamName)
	if err != nil {
		return err
	}

	err = b.db.View(func(txn *badger.Txn) error {
		_, getErr := txn.Get(fileKey(name))
		if getErr == badger.ErrKeyNotFound {
			return &dataset.Error{
				Code:    dataset.ErrNoSuchFile,
				Message: "file does not exist",
				Path:    name,
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return b.dropFile(name)
}

// dropFile removes every key belonging to one file.
func (b *Backend) dropFile(name string) error {
	if err := b.db.DropPrefix(filePrefixes(name)...); err != nil {
		return &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "dropping file keys",
			Path:    name,
			Err:     err,
		}
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(fileKey(name)); err != nil {
			return &dataset.Error{
				Code:    dataset.ErrBackendInternal,
				Message: "deleting file marker",
				Path:    name,
				Err:     err,
			}
		}
		return nil
	})
}
