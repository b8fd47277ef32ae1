package dataset

import "context"

// Future is the deferred-completion handle returned by Flush. It
// resolves once the queue has fully drained, carrying the first error
// encountered, if any.
//
// With the synchronous drain the handle is already resolved when Flush
// returns; the channel shape exists so callers can compose flushes with
// otherwise-asynchronous pipelines, and so an implementation draining
// on a worker thread keeps the same contract.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) resolve(err error) {
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the flush has completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err returns the flush result. Only valid after Done is closed.
func (f *Future) Err() error {
	return f.err
}

// Wait blocks until the flush completes or ctx is cancelled, and
// returns the flush result.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
