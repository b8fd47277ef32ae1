package dataset

import (
	"context"
	"time"
)

// AccessMode selects how a handler's storage target is opened.
type AccessMode int

const (
	// AccessReadOnly permits open/read/list operations only; deletes
	// fail with ErrLogic before reaching the backend.
	AccessReadOnly AccessMode = iota

	// AccessReadWrite permits the full operation vocabulary against an
	// existing or new storage target.
	AccessReadWrite

	// AccessCreate truncates an existing storage target on first file
	// creation, starting a fresh storage generation.
	AccessCreate
)

// String returns the mode name used in configuration files.
func (m AccessMode) String() string {
	switch m {
	case AccessReadOnly:
		return "read-only"
	case AccessReadWrite:
		return "read-write"
	case AccessCreate:
		return "create"
	default:
		return "unknown"
	}
}

// Backend is the per-operation dispatch contract a concrete storage
// engine implements. One handler method per operation kind, with
// signature (target node, parameter bag) → side effects on storage and
// the node's position token, plus output values for read/list
// operations.
//
// Contract:
//   - Map the shared datatype set onto the native type system losslessly
//     for the supported subset; fail unsupported datatypes with
//     ErrUnsupported rather than truncating.
//   - Resolve a node's storage location with ResolvePosition when the
//     node carries no token of its own.
//   - Creation handlers are only invoked for not-yet-written nodes (the
//     IOHandler enforces idempotent replay), but must still be safe to
//     call at most meaningfully once per node per storage generation.
//   - Creating containing structure (directories, parent groups) on
//     first file creation is backend responsibility.
//   - Every native handle acquired inside a handler must be released on
//     every exit path, including error paths.
//
// Backends provide no locking; the node tree is owned and mutated by a
// single logical writer.
type Backend interface {
	CreateFile(w *Writable, p Params) error
	CreatePath(w *Writable, p Params) error
	CreateDataset(w *Writable, p Params) error
	ExtendDataset(w *Writable, p Params) error
	OpenFile(w *Writable, p Params) error
	OpenPath(w *Writable, p Params) error
	OpenDataset(w *Writable, p Params) error
	DeleteFile(w *Writable, p Params) error
	DeletePath(w *Writable, p Params) error
	DeleteDataset(w *Writable, p Params) error
	DeleteAttribute(w *Writable, p Params) error
	WriteDataset(w *Writable, p Params) error
	WriteAttribute(w *Writable, p Params) error
	ReadDataset(w *Writable, p Params) error
	ReadAttribute(w *Writable, p Params) error
	ListPaths(w *Writable, p Params) error
	ListDatasets(w *Writable, p Params) error
	ListAttributes(w *Writable, p Params) error

	// Close releases backend-held native resources (file handles,
	// database handles, client connections).
	Close() error
}

// HandlerMetrics provides observability for queue and dispatch
// activity.
//
// This interface is optional - if not provided to the handler,
// operations proceed without metrics collection (zero overhead). The
// Prometheus implementation lives in pkg/metrics.
type HandlerMetrics interface {
	// TaskEnqueued is called when a task is appended to the queue.
	TaskEnqueued(op Operation)

	// TaskExecuted is called after a task's backend dispatch returns.
	TaskExecuted(op Operation, d time.Duration, err error)

	// FlushCompleted is called when a flush call finishes draining,
	// with the number of tasks executed during the call.
	FlushCompleted(d time.Duration, executed int, err error)
}

// IOHandler owns the ordered queue of deferred IOTasks and the dispatch
// of flushed tasks to one concrete Backend.
//
// Scheduling model: single-threaded, cooperative. The queue is drained
// synchronously by the thread that calls Flush; the handler itself
// starts no goroutines and provides no locking. Callers that drain on a
// worker thread must synchronize Enqueue externally.
type IOHandler struct {
	backend Backend
	mode    AccessMode
	metrics HandlerMetrics
	queue   []*IOTask
	closed  bool
}

// HandlerOption customizes a handler at construction time.
type HandlerOption func(*IOHandler)

// WithMetrics attaches a metrics sink. A nil sink disables collection.
func WithMetrics(m HandlerMetrics) HandlerOption {
	return func(h *IOHandler) {
		h.metrics = m
	}
}

// NewIOHandler binds a queue to a concrete backend and access mode.
func NewIOHandler(backend Backend, mode AccessMode, opts ...HandlerOption) *IOHandler {
	h := &IOHandler{backend: backend, mode: mode}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mode returns the access mode the handler was opened with.
func (h *IOHandler) Mode() AccessMode {
	return h.mode
}

// Pending returns the number of queued, not yet flushed tasks.
func (h *IOHandler) Pending() int {
	return len(h.queue)
}

// Enqueue appends a task to the tail of the queue. No I/O happens; the
// call fails only when the handler has been closed.
func (h *IOHandler) Enqueue(t *IOTask) error {
	if h.closed {
		return &Error{
			Code:    ErrLogic,
			Message: "enqueue on closed handler",
		}
	}
	h.queue = append(h.queue, t)
	if h.metrics != nil {
		h.metrics.TaskEnqueued(t.Op)
	}
	return nil
}

// Flush drains the queue from the head, dispatching each task to the
// backend's handler for its operation kind, in strict FIFO order. Later
// tasks may assume earlier structural tasks completed.
//
// The returned Future resolves once the queue is empty (or dispatch
// halted); with this synchronous drain it is already resolved on
// return, so callers composing with asynchronous pipelines can wait on
// it without special-casing.
//
// Failure semantics: the first failing task is removed from the queue
// and not retried, its error resolves the future, and dispatch halts;
// remaining tasks stay queued and are attempted on the next Flush call.
// Note the failing mutation is discarded permanently rather than
// retried; this mirrors the long-standing flush behavior and is pending
// product-owner confirmation before any retry semantics are added.
//
// ctx is checked at task boundaries only: cancellation stops dispatch
// before the next queued task, never mid-task, and leaves the remaining
// tasks queued.
func (h *IOHandler) Flush(ctx context.Context) *Future {
	f := newFuture()
	start := time.Now()
	executed, err := h.drain(ctx)
	if h.metrics != nil {
		h.metrics.FlushCompleted(time.Since(start), executed, err)
	}
	f.resolve(err)
	return f
}

func (h *IOHandler) drain(ctx context.Context) (int, error) {
	executed := 0
	for len(h.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		t := h.queue[0]
		h.queue[0] = nil
		h.queue = h.queue[1:]

		start := time.Now()
		err := h.dispatch(t)
		if h.metrics != nil {
			h.metrics.TaskExecuted(t.Op, time.Since(start), err)
		}
		if err != nil {
			return executed, err
		}
		executed++
	}
	return executed, nil
}

// dispatch routes one task to the backend handler for its operation
// kind and applies the node state machine from the dispatch result.
// Flag transitions live here, centrally, so no backend can get them
// wrong; backends only assign position tokens and touch storage.
func (h *IOHandler) dispatch(t *IOTask) error {
	w := t.Target
	if w == nil {
		return &Error{
			Code:    ErrInvalidParameter,
			Message: "task has no target node",
			Path:    t.Op.String(),
		}
	}

	switch t.Op {
	case OpCreateFile, OpCreatePath, OpCreateDataset:
		// Idempotent replay: an already-written node's structural
		// creation is a no-op with no backend side effect.
		if w.written {
			return nil
		}
		var err error
		switch t.Op {
		case OpCreateFile:
			err = h.backend.CreateFile(w, t.Params)
		case OpCreatePath:
			err = h.backend.CreatePath(w, t.Params)
		default:
			err = h.backend.CreateDataset(w, t.Params)
		}
		if err != nil {
			return err
		}
		w.written = true
		w.dirty = false
		return nil

	case OpOpenFile, OpOpenPath, OpOpenDataset:
		// Opens always reach the backend: the node may represent an
		// on-disk entity this handler instance has never touched.
		var err error
		switch t.Op {
		case OpOpenFile:
			err = h.backend.OpenFile(w, t.Params)
		case OpOpenPath:
			err = h.backend.OpenPath(w, t.Params)
		default:
			err = h.backend.OpenDataset(w, t.Params)
		}
		if err != nil {
			return err
		}
		w.written = true
		w.dirty = false
		return nil

	case OpExtendDataset:
		if !w.written {
			return &Error{
				Code:    ErrLogic,
				Message: "cannot extend a dataset that has not been written",
			}
		}
		return h.backend.ExtendDataset(w, t.Params)

	case OpDeleteFile, OpDeletePath, OpDeleteDataset, OpDeleteAttribute:
		if h.mode == AccessReadOnly {
			return &Error{
				Code:    ErrLogic,
				Message: "delete requires read-write access",
			}
		}
		if !w.written {
			return &Error{
				Code:    ErrLogic,
				Message: "cannot delete an entity that has not been written",
			}
		}
		var err error
		switch t.Op {
		case OpDeleteFile:
			err = h.backend.DeleteFile(w, t.Params)
		case OpDeletePath:
			err = h.backend.DeletePath(w, t.Params)
		case OpDeleteDataset:
			err = h.backend.DeleteDataset(w, t.Params)
		default:
			err = h.backend.DeleteAttribute(w, t.Params)
		}
		if err != nil {
			return err
		}
		if t.Op != OpDeleteAttribute {
			// Attribute deletion does not unwrite the carrying node.
			w.reset()
		}
		return nil

	case OpWriteDataset, OpWriteAttribute, OpReadDataset, OpReadAttribute,
		OpListPaths, OpListDatasets, OpListAttributes:
		if _, ok := ResolvePosition(w); !ok {
			return &Error{
				Code:    ErrLogic,
				Message: "no storage position resolvable for node",
				Path:    t.Op.String(),
			}
		}
		switch t.Op {
		case OpWriteDataset:
			return h.backend.WriteDataset(w, t.Params)
		case OpWriteAttribute:
			return h.backend.WriteAttribute(w, t.Params)
		case OpReadDataset:
			return h.backend.ReadDataset(w, t.Params)
		case OpReadAttribute:
			return h.backend.ReadAttribute(w, t.Params)
		case OpListPaths:
			return h.backend.ListPaths(w, t.Params)
		case OpListDatasets:
			return h.backend.ListDatasets(w, t.Params)
		default:
			return h.backend.ListAttributes(w, t.Params)
		}

	default:
		return &Error{
			Code:    ErrLogic,
			Message: "unknown operation kind",
			Path:    t.Op.String(),
		}
	}
}

// Close drains any queued tasks, then closes the backend and marks the
// handler unusable. Closing an already-closed handler is a no-op.
func (h *IOHandler) Close(ctx context.Context) error {
	if h.closed {
		return nil
	}
	h.closed = true
	flushErr := h.Flush(ctx).Err()
	if err := h.backend.Close(); err != nil {
		return &Error{
			Code:    ErrBackendInternal,
			Message: "closing backend",
			Err:     err,
		}
	}
	return flushErr
}
