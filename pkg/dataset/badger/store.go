// Package badger implements the dataset.Backend contract on BadgerDB,
// a fast embedded key-value store. It is the persistent single-process
// backend: hierarchies survive restarts, and the write path goes
// through Badger's WAL so a crash never leaves a half-applied
// structural change.
package badger

import (
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/strata/internal/logger"
	"github.com/marmos91/strata/pkg/dataset"
	"github.com/marmos91/strata/pkg/dataset/codec"
)

// Backend persists dataset hierarchies in namespaced Badger keys (see
// keys.go for the schema).
//
// Thread Safety:
// Badger transactions are internally synchronized; every operation runs
// in a single View or Update transaction, so the backend is safe for
// the single-writer dispatch loop and for concurrent read-only
// inspection.
type Backend struct {
	db   *badger.DB
	mode dataset.AccessMode
}

// Config contains configuration for creating a Badger backend.
type Config struct {
	// Path is the directory where Badger stores its files. Badger
	// creates it if it does not exist.
	Path string

	// Mode is the access mode (AccessCreate truncates existing files on
	// first creation).
	Mode dataset.AccessMode

	// BadgerOptions allows customization of Badger behavior. If nil,
	// defaults tuned for small metadata values are used.
	BadgerOptions *badger.Options
}

// New opens (or creates) the Badger database at cfg.Path.
func New(cfg Config) (*Backend, error) {
	var opts badger.Options
	if cfg.BadgerOptions != nil {
		opts = *cfg.BadgerOptions
	} else {
		// Hierarchy records are small and chunk payloads moderate;
		// compression overhead is not worth it at this value size.
		opts = badger.DefaultOptions(cfg.Path)
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: fmt.Sprintf("opening badger database at %s", cfg.Path),
			Err:     err,
		}
	}

	logger.Debug("badger backend opened: path=%s mode=%s", cfg.Path, cfg.Mode)
	return &Backend{db: db, mode: cfg.Mode}, nil
}

// Close closes the database, flushing all pending writes to disk.
func (b *Backend) Close() error {
	if err := b.db.Close(); err != nil {
		return &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "closing badger database",
			Err:     err,
		}
	}
	return nil
}

// resolve returns the path-shaped position token governing w.
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

// getNode loads the structural record at (file, path).
func getNode(txn *badger.Txn, file, path string) (codec.NodeRecord, error) {
	item, err := txn.Get(nodeKey(file, path))
	if err == badger.ErrKeyNotFound {
		return codec.NodeRecord{}, &dataset.Error{
			Code:    dataset.ErrNoSuchFile,
			Message: "entry does not exist",
			Path:    file + ":" + path,
		}
	}
	if err != nil {
		return codec.NodeRecord{}, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "reading node record",
			Path:    file + ":" + path,
			Err:     err,
		}
	}
	raw, err := item.ValueCopy(nil)
	if err != nil {
		return codec.NodeRecord{}, &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "reading node record value",
			Path:    file + ":" + path,
			Err:     err,
		}
	}
	return codec.UnmarshalNode(raw)
}

// setNode stores the structural record at (file, path).
func setNode(txn *badger.Txn, file, path string, rec codec.NodeRecord) error {
	raw, err := codec.MarshalNode(rec)
	if err != nil {
		return err
	}
	if err := txn.Set(nodeKey(file, path), raw); err != nil {
		return &dataset.Error{
			Code:    dataset.ErrBackendInternal,
			Message: "writing node record",
			Path:    file + ":" + path,
			Err:     err,
		}
	}
	return nil
}
